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

// TemplateModel is the GORM model for reply templates
type TemplateModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrgID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:varchar(120);not null"`
	Body      string    `gorm:"type:text;not null"`
	Language  string    `gorm:"type:varchar(10)"`
	Version   int       `gorm:"not null;default:1"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (TemplateModel) TableName() string {
	return "templates"
}

// ToEntity converts the model to a domain entity
func (m *TemplateModel) ToEntity() *content.Template {
	return &content.Template{
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
		Name:     m.Name,
		Body:     m.Body,
		Language: m.Language,
	}
}

// TemplateModelFromEntity creates a model from a domain entity
func TemplateModelFromEntity(e *content.Template) *TemplateModel {
	return &TemplateModel{
		ID:        e.ID,
		OrgID:     e.OrgID,
		Name:      e.Name,
		Body:      e.Body,
		Language:  e.Language,
		Version:   e.Version,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

// TemplateRepository implements the content.TemplateRepository interface
type TemplateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository creates a new template repository
func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// Save persists a new template
func (r *TemplateRepository) Save(ctx context.Context, template *content.Template) error {
	model := TemplateModelFromEntity(template)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update updates an existing template
func (r *TemplateRepository) Update(ctx context.Context, template *content.Template) error {
	model := TemplateModelFromEntity(template)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete removes a template scoped to the organization
func (r *TemplateRepository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Where("id = ?", id).
		Delete(&TemplateModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID retrieves a template scoped to the organization
func (r *TemplateRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*content.Template, error) {
	var model TemplateModel
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

// ListByOrg retrieves templates for an organization with pagination
func (r *TemplateRepository) ListByOrg(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]*content.Template, int64, error) {
	query := r.db.WithContext(ctx).Model(&TemplateModel{}).Where("org_id = ?", orgID)

	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, TemplateSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)

	var models []TemplateModel
	err := query.
		Order(fmt.Sprintf("%s %s", orderBy, orderDir)).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	templates := make([]*content.Template, len(models))
	for i, model := range models {
		templates[i] = model.ToEntity()
	}
	return templates, total, nil
}

// CountByOrg returns the number of templates an organization has
func (r *TemplateRepository) CountByOrg(ctx context.Context, orgID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&TemplateModel{}).
		Where("org_id = ?", orgID).
		Count(&count).Error
	return count, err
}

// Ensure TemplateRepository implements the interface
var _ content.TemplateRepository = (*TemplateRepository)(nil)
