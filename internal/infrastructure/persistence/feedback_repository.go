package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/toneforge/backend/internal/domain/content"
	"gorm.io/gorm"
)

// FeedbackModel is the GORM model for reply feedback
type FeedbackModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrgID     uuid.UUID `gorm:"type:uuid;not null;index"`
	ReplyID   uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID `gorm:"type:uuid;not null"`
	Helpful   bool      `gorm:"not null"`
	Note      string    `gorm:"type:varchar(1000)"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (FeedbackModel) TableName() string {
	return "reply_feedback"
}

// FeedbackRepository implements the content.FeedbackRepository interface
type FeedbackRepository struct {
	db *gorm.DB
}

// NewFeedbackRepository creates a new feedback repository
func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Save persists feedback for a reply
func (r *FeedbackRepository) Save(ctx context.Context, feedback *content.Feedback) error {
	model := FeedbackModel{
		ID:        feedback.ID,
		OrgID:     feedback.OrgID,
		ReplyID:   feedback.ReplyID,
		UserID:    feedback.UserID,
		Helpful:   feedback.Helpful,
		Note:      feedback.Note,
		CreatedAt: feedback.CreatedAt,
		UpdatedAt: feedback.UpdatedAt,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

// StatsByOrg aggregates helpfulness feedback for an organization
func (r *FeedbackRepository) StatsByOrg(ctx context.Context, orgID uuid.UUID) (*content.FeedbackStats, error) {
	var row struct {
		Total   int64
		Helpful int64
	}
	err := r.db.WithContext(ctx).
		Model(&FeedbackModel{}).
		Select("COUNT(*) AS total, COUNT(*) FILTER (WHERE helpful) AS helpful").
		Where("org_id = ?", orgID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &content.FeedbackStats{Total: row.Total, Helpful: row.Helpful}, nil
}

// Ensure FeedbackRepository implements the interface
var _ content.FeedbackRepository = (*FeedbackRepository)(nil)
