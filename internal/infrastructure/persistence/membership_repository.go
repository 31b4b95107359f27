package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/toneforge/backend/internal/domain/identity"
	"github.com/toneforge/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// MembershipModel is the GORM model for org memberships
type MembershipModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrgID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_memberships_org_user"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_memberships_org_user;index"`
	Role      string    `gorm:"type:varchar(20);not null"`
	Version   int       `gorm:"not null;default:1"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (MembershipModel) TableName() string {
	return "memberships"
}

// ToEntity converts the model to a domain entity
func (m *MembershipModel) ToEntity() *identity.Membership {
	return &identity.Membership{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		OrgID:  m.OrgID,
		UserID: m.UserID,
		Role:   identity.MembershipRole(m.Role),
	}
}

// MembershipModelFromEntity creates a model from a domain entity
func MembershipModelFromEntity(e *identity.Membership) *MembershipModel {
	return &MembershipModel{
		ID:        e.ID,
		OrgID:     e.OrgID,
		UserID:    e.UserID,
		Role:      string(e.Role),
		Version:   e.Version,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

// MembershipRepository implements the identity.MembershipRepository interface
type MembershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// Save persists a membership
func (r *MembershipRepository) Save(ctx context.Context, membership *identity.Membership) error {
	model := MembershipModelFromEntity(membership)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByUserID retrieves all memberships for a user, oldest first
func (r *MembershipRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*identity.Membership, error) {
	var models []MembershipModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	memberships := make([]*identity.Membership, len(models))
	for i, model := range models {
		memberships[i] = model.ToEntity()
	}
	return memberships, nil
}

// FindByOrgAndUser retrieves a specific membership
func (r *MembershipRepository) FindByOrgAndUser(ctx context.Context, orgID, userID uuid.UUID) (*identity.Membership, error) {
	var model MembershipModel
	err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Where("user_id = ?", userID).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// Ensure MembershipRepository implements the interface
var _ identity.MembershipRepository = (*MembershipRepository)(nil)
