package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/toneforge/backend/internal/domain/billing"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReplyUsageModel is the GORM model for monthly reply usage counters.
// One row per (org, period) with a composite unique index so concurrent
// inserts collapse to a single counter.
type ReplyUsageModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrgID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reply_usage_org_period"`
	Period    string    `gorm:"type:varchar(7);not null;uniqueIndex:idx_reply_usage_org_period"`
	Count     int64     `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (ReplyUsageModel) TableName() string {
	return "reply_usage"
}

// ReplyUsageRepository implements the billing.ReplyUsageRepository interface
type ReplyUsageRepository struct {
	db *gorm.DB
}

// NewReplyUsageRepository creates a new reply usage repository
func NewReplyUsageRepository(db *gorm.DB) *ReplyUsageRepository {
	return &ReplyUsageRepository{db: db}
}

// ConsumeOne atomically consumes one reply generation slot for the period.
// The whole upsert-check-increment sequence runs in one transaction with the
// counter row locked, so N concurrent callers against k remaining slots get
// exactly k successes.
func (r *ReplyUsageRepository) ConsumeOne(ctx context.Context, orgID uuid.UUID, period string, limit int64) (int64, error) {
	var usedAfter int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Ensure the counter row exists. DoNothing keeps the existing count
		// when another transaction created the row first.
		seed := ReplyUsageModel{
			ID:     uuid.New(),
			OrgID:  orgID,
			Period: period,
			Count:  0,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "org_id"}, {Name: "period"}},
			DoNothing: true,
		}).Create(&seed).Error; err != nil {
			return err
		}

		var model ReplyUsageModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("org_id = ?", orgID).
			Where("period = ?", period).
			First(&model).Error; err != nil {
			return err
		}

		if limit != billing.Unlimited && model.Count >= limit {
			return &billing.QuotaExceededError{
				Used:   model.Count,
				Limit:  limit,
				Period: period,
			}
		}

		usedAfter = model.Count + 1
		return tx.Model(&ReplyUsageModel{}).
			Where("id = ?", model.ID).
			Updates(map[string]interface{}{
				"count":      usedAfter,
				"updated_at": time.Now(),
			}).Error
	})
	if err != nil {
		return 0, err
	}

	return usedAfter, nil
}

// CurrentCount returns the counter for the period, zero when no row exists
func (r *ReplyUsageRepository) CurrentCount(ctx context.Context, orgID uuid.UUID, period string) (int64, error) {
	var model ReplyUsageModel
	err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Where("period = ?", period).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, err
	}
	return model.Count, nil
}

// Ensure ReplyUsageRepository implements the interface
var _ billing.ReplyUsageRepository = (*ReplyUsageRepository)(nil)
