package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/toneforge/backend/internal/domain/billing"
	"github.com/toneforge/backend/internal/domain/identity"
	"github.com/toneforge/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// OrganizationModel is the GORM model for organizations
type OrganizationModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name             string    `gorm:"type:varchar(120);not null"`
	PlanCode         string    `gorm:"type:varchar(20);not null;default:'FREE'"`
	StripeCustomerID string    `gorm:"type:varchar(255);index"`
	Version          int       `gorm:"not null;default:1"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (OrganizationModel) TableName() string {
	return "organizations"
}

// ToEntity converts the model to a domain entity
func (m *OrganizationModel) ToEntity() *identity.Organization {
	return &identity.Organization{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		Name:             m.Name,
		PlanCode:         billing.ParsePlanCode(m.PlanCode),
		StripeCustomerID: m.StripeCustomerID,
	}
}

// OrganizationModelFromEntity creates a model from a domain entity
func OrganizationModelFromEntity(e *identity.Organization) *OrganizationModel {
	return &OrganizationModel{
		ID:               e.ID,
		Name:             e.Name,
		PlanCode:         e.PlanCode.String(),
		StripeCustomerID: e.StripeCustomerID,
		Version:          e.Version,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

// OrganizationRepository implements the identity.OrganizationRepository interface
type OrganizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(db *gorm.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// Save persists a new organization
func (r *OrganizationRepository) Save(ctx context.Context, org *identity.Organization) error {
	model := OrganizationModelFromEntity(org)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update updates an existing organization
func (r *OrganizationRepository) Update(ctx context.Context, org *identity.Organization) error {
	model := OrganizationModelFromEntity(org)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID retrieves an organization by its ID
func (r *OrganizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Organization, error) {
	var model OrganizationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// FindByStripeCustomerID retrieves an organization by its billing provider customer ID
func (r *OrganizationRepository) FindByStripeCustomerID(ctx context.Context, customerID string) (*identity.Organization, error) {
	var model OrganizationModel
	err := r.db.WithContext(ctx).
		Where("stripe_customer_id = ?", customerID).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// Ensure OrganizationRepository implements the interface
var _ identity.OrganizationRepository = (*OrganizationRepository)(nil)
