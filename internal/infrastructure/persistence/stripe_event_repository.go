package persistence

import (
	"context"
	"time"

	"github.com/toneforge/backend/internal/domain/billing"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProcessedStripeEventModel records Stripe event IDs that were already
// handled so webhook retries become no-ops.
type ProcessedStripeEventModel struct {
	EventID     string    `gorm:"type:varchar(255);primaryKey"`
	EventType   string    `gorm:"type:varchar(100);not null"`
	ProcessedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for the model
func (ProcessedStripeEventModel) TableName() string {
	return "processed_stripe_events"
}

// StripeEventRepository implements the billing.ProcessedEventRepository interface
type StripeEventRepository struct {
	db *gorm.DB
}

// NewStripeEventRepository creates a new processed event repository
func NewStripeEventRepository(db *gorm.DB) *StripeEventRepository {
	return &StripeEventRepository{db: db}
}

// IsProcessed reports whether the event ID was recorded before
func (r *StripeEventRepository) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&ProcessedStripeEventModel{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkProcessed records the event ID. Returns true when the event was seen
// before; the insert conflicts on the primary key and affects no rows.
func (r *StripeEventRepository) MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	model := ProcessedStripeEventModel{
		EventID:   eventID,
		EventType: eventType,
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&model)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 0, nil
}

// Ensure StripeEventRepository implements the interface
var _ billing.ProcessedEventRepository = (*StripeEventRepository)(nil)
