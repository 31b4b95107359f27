package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/toneforge/backend/internal/domain/content"
	"github.com/toneforge/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// BrandVoiceModel is the GORM model for brand voices
type BrandVoiceModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrgID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Name        string    `gorm:"type:varchar(120);not null"`
	Description string    `gorm:"type:text"`
	ToneNotes   string    `gorm:"type:text"`
	Version     int       `gorm:"not null;default:1"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (BrandVoiceModel) TableName() string {
	return "brand_voices"
}

// ToEntity converts the model to a domain entity
func (m *BrandVoiceModel) ToEntity() *content.BrandVoice {
	return &content.BrandVoice{
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
		Name:        m.Name,
		Description: m.Description,
		ToneNotes:   m.ToneNotes,
	}
}

// BrandVoiceModelFromEntity creates a model from a domain entity
func BrandVoiceModelFromEntity(e *content.BrandVoice) *BrandVoiceModel {
	return &BrandVoiceModel{
		ID:          e.ID,
		OrgID:       e.OrgID,
		Name:        e.Name,
		Description: e.Description,
		ToneNotes:   e.ToneNotes,
		Version:     e.Version,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

// BrandVoiceRepository implements the content.BrandVoiceRepository interface
type BrandVoiceRepository struct {
	db *gorm.DB
}

// NewBrandVoiceRepository creates a new brand voice repository
func NewBrandVoiceRepository(db *gorm.DB) *BrandVoiceRepository {
	return &BrandVoiceRepository{db: db}
}

// Save persists a new brand voice
func (r *BrandVoiceRepository) Save(ctx context.Context, voice *content.BrandVoice) error {
	model := BrandVoiceModelFromEntity(voice)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update updates an existing brand voice
func (r *BrandVoiceRepository) Update(ctx context.Context, voice *content.BrandVoice) error {
	model := BrandVoiceModelFromEntity(voice)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete removes a brand voice scoped to the organization
func (r *BrandVoiceRepository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Where("id = ?", id).
		Delete(&BrandVoiceModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID retrieves a brand voice scoped to the organization
func (r *BrandVoiceRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*content.BrandVoice, error) {
	var model BrandVoiceModel
	err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Where("id = ?", id).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// ListByOrg retrieves brand voices for an organization with pagination
func (r *BrandVoiceRepository) ListByOrg(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]*content.BrandVoice, int64, error) {
	query := r.db.WithContext(ctx).Model(&BrandVoiceModel{}).Where("org_id = ?", orgID)

	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, BrandVoiceSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)

	var models []BrandVoiceModel
	err := query.
		Order(fmt.Sprintf("%s %s", orderBy, orderDir)).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	voices := make([]*content.BrandVoice, len(models))
	for i, model := range models {
		voices[i] = model.ToEntity()
	}
	return voices, total, nil
}

// CountByOrg returns the number of brand voices an organization has
func (r *BrandVoiceRepository) CountByOrg(ctx context.Context, orgID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&BrandVoiceModel{}).
		Where("org_id = ?", orgID).
		Count(&count).Error
	return count, err
}

// Ensure BrandVoiceRepository implements the interface
var _ content.BrandVoiceRepository = (*BrandVoiceRepository)(nil)
