package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/toneforge/backend/internal/domain/billing"
	"github.com/toneforge/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionModel is the GORM model for subscription mirrors
type SubscriptionModel struct {
	ID                   uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OrgID                uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	StripeSubscriptionID string     `gorm:"type:varchar(255);not null;uniqueIndex"`
	PlanCode             string     `gorm:"type:varchar(20);not null"`
	Status               string     `gorm:"type:varchar(30);not null"`
	CurrentPeriodEnd     *time.Time `gorm:"column:current_period_end"`
	CancelAtPeriodEnd    bool       `gorm:"not null;default:false"`
	Version              int        `gorm:"not null;default:1"`
	CreatedAt            time.Time  `gorm:"autoCreateTime"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (SubscriptionModel) TableName() string {
	return "subscriptions"
}

// ToEntity converts the model to a domain entity
func (m *SubscriptionModel) ToEntity() *billing.Subscription {
	return &billing.Subscription{
		OrgAggregateRoot: shared.OrgAggregateRoot{
			BaseAggregateRoot: shared.BaseAggregateRoot{
				BaseEntity: shared.BaseEntity{
					ID:        m.ID,
					CreatedAt: m.CreatedAt,
					UpdatedAt: m.UpdatedAt,
				},
				Version: m.Version,
			},
			OrgID: m.OrgID,
		},
		StripeSubscriptionID: m.StripeSubscriptionID,
		PlanCode:             billing.ParsePlanCode(m.PlanCode),
		Status:               billing.SubscriptionStatus(m.Status),
		CurrentPeriodEnd:     m.CurrentPeriodEnd,
		CancelAtPeriodEnd:    m.CancelAtPeriodEnd,
	}
}

// SubscriptionModelFromEntity creates a model from a domain entity
func SubscriptionModelFromEntity(e *billing.Subscription) *SubscriptionModel {
	return &SubscriptionModel{
		ID:                   e.ID,
		OrgID:                e.OrgID,
		StripeSubscriptionID: e.StripeSubscriptionID,
		PlanCode:             e.PlanCode.String(),
		Status:               e.Status.String(),
		CurrentPeriodEnd:     e.CurrentPeriodEnd,
		CancelAtPeriodEnd:    e.CancelAtPeriodEnd,
		Version:              e.Version,
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}
}

// SubscriptionRepository implements the billing.SubscriptionRepository interface
type SubscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Save inserts or updates the organization's subscription row. Webhook
// deliveries can race, so the upsert keys on org_id and keeps the row
// current with the latest provider state.
func (r *SubscriptionRepository) Save(ctx context.Context, sub *billing.Subscription) error {
	model := SubscriptionModelFromEntity(sub)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "org_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"stripe_subscription_id",
			"plan_code",
			"status",
			"current_period_end",
			"cancel_at_period_end",
			"updated_at",
		}),
	}).Create(model).Error
}

// FindByOrgID retrieves the subscription for an organization
func (r *SubscriptionRepository) FindByOrgID(ctx context.Context, orgID uuid.UUID) (*billing.Subscription, error) {
	var model SubscriptionModel
	err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// FindByStripeSubscriptionID retrieves a subscription by the provider-side ID
func (r *SubscriptionRepository) FindByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID string) (*billing.Subscription, error) {
	var model SubscriptionModel
	err := r.db.WithContext(ctx).
		Where("stripe_subscription_id = ?", stripeSubscriptionID).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// DeleteByOrgID removes the organization's subscription row
func (r *SubscriptionRepository) DeleteByOrgID(ctx context.Context, orgID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Delete(&SubscriptionModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure SubscriptionRepository implements the interface
var _ billing.SubscriptionRepository = (*SubscriptionRepository)(nil)
