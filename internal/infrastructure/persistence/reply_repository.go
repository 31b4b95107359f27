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

// ReplyModel is the GORM model for generated replies
type ReplyModel struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OrgID           uuid.UUID  `gorm:"type:uuid;not null;index:idx_replies_org_created"`
	UserID          uuid.UUID  `gorm:"type:uuid;not null;index"`
	CustomerMessage string     `gorm:"type:text;not null"`
	DraftReply      string     `gorm:"type:text;not null"`
	Tone            string     `gorm:"type:varchar(20);not null"`
	Language        string     `gorm:"type:varchar(10)"`
	Model           string     `gorm:"type:varchar(120)"`
	TemplateID      *uuid.UUID `gorm:"type:uuid"`
	BrandVoiceID    *uuid.UUID `gorm:"type:uuid"`
	Version         int        `gorm:"not null;default:1"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index:idx_replies_org_created"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (ReplyModel) TableName() string {
	return "replies"
}

// ToEntity converts the model to a domain entity
func (m *ReplyModel) ToEntity() *content.Reply {
	return &content.Reply{
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
		UserID:          m.UserID,
		CustomerMessage: m.CustomerMessage,
		DraftReply:      m.DraftReply,
		Tone:            content.Tone(m.Tone),
		Language:        m.Language,
		Model:           m.Model,
		TemplateID:      m.TemplateID,
		BrandVoiceID:    m.BrandVoiceID,
	}
}

// ReplyModelFromEntity creates a model from a domain entity
func ReplyModelFromEntity(e *content.Reply) *ReplyModel {
	return &ReplyModel{
		ID:              e.ID,
		OrgID:           e.OrgID,
		UserID:          e.UserID,
		CustomerMessage: e.CustomerMessage,
		DraftReply:      e.DraftReply,
		Tone:            e.Tone.String(),
		Language:        e.Language,
		Model:           e.Model,
		TemplateID:      e.TemplateID,
		BrandVoiceID:    e.BrandVoiceID,
		Version:         e.Version,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

// ReplyRepository implements the content.ReplyRepository interface
type ReplyRepository struct {
	db *gorm.DB
}

// NewReplyRepository creates a new reply repository
func NewReplyRepository(db *gorm.DB) *ReplyRepository {
	return &ReplyRepository{db: db}
}

// Save persists a generated reply
func (r *ReplyRepository) Save(ctx context.Context, reply *content.Reply) error {
	model := ReplyModelFromEntity(reply)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByID retrieves a reply scoped to the organization
func (r *ReplyRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*content.Reply, error) {
	var model ReplyModel
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

// ListByOrg retrieves replies newest first. A non-nil since restricts the
// window to replies created at or after that instant.
func (r *ReplyRepository) ListByOrg(ctx context.Context, orgID uuid.UUID, since *time.Time, filter shared.Filter) ([]*content.Reply, int64, error) {
	query := r.db.WithContext(ctx).Model(&ReplyModel{}).Where("org_id = ?", orgID)

	if since != nil {
		query = query.Where("created_at >= ?", *since)
	}
	if filter.Search != "" {
		query = query.Where("customer_message ILIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, ReplySortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)

	var models []ReplyModel
	err := query.
		Order(fmt.Sprintf("%s %s", orderBy, orderDir)).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	replies := make([]*content.Reply, len(models))
	for i, model := range models {
		replies[i] = model.ToEntity()
	}
	return replies, total, nil
}

// CountByDaySince returns daily reply volume from the given instant onward
func (r *ReplyRepository) CountByDaySince(ctx context.Context, orgID uuid.UUID, since time.Time) ([]content.DailyReplyCount, error) {
	var rows []struct {
		Day   time.Time
		Count int64
	}
	err := r.db.WithContext(ctx).
		Model(&ReplyModel{}).
		Select("date_trunc('day', created_at) AS day, COUNT(*) AS count").
		Where("org_id = ?", orgID).
		Where("created_at >= ?", since).
		Group("day").
		Order("day ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make([]content.DailyReplyCount, len(rows))
	for i, row := range rows {
		counts[i] = content.DailyReplyCount{Day: row.Day, Count: row.Count}
	}
	return counts, nil
}

// CountByToneSince returns reply volume per tone from the given instant onward
func (r *ReplyRepository) CountByToneSince(ctx context.Context, orgID uuid.UUID, since time.Time) ([]content.ToneCount, error) {
	var rows []struct {
		Tone  string
		Count int64
	}
	err := r.db.WithContext(ctx).
		Model(&ReplyModel{}).
		Select("tone, COUNT(*) AS count").
		Where("org_id = ?", orgID).
		Where("created_at >= ?", since).
		Group("tone").
		Order("count DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make([]content.ToneCount, len(rows))
	for i, row := range rows {
		counts[i] = content.ToneCount{Tone: content.Tone(row.Tone), Count: row.Count}
	}
	return counts, nil
}

// CountSince returns the total reply count from the given instant onward
func (r *ReplyRepository) CountSince(ctx context.Context, orgID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&ReplyModel{}).
		Where("org_id = ?", orgID).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}

// Ensure ReplyRepository implements the interface
var _ content.ReplyRepository = (*ReplyRepository)(nil)
