package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/toneforge/backend/internal/domain/billing"
	"gorm.io/gorm"
)

// FeatureCounter implements billing.FeatureCounter by counting the rows
// backing each gated feature.
type FeatureCounter struct {
	db *gorm.DB
}

// NewFeatureCounter creates a feature counter over the resource tables
func NewFeatureCounter(db *gorm.DB) *FeatureCounter {
	return &FeatureCounter{db: db}
}

// Count returns how many instances of the gated resource the organization
// currently has. HISTORY_DAYS is a window, not a countable resource, so it
// always reports zero.
func (c *FeatureCounter) Count(ctx context.Context, orgID uuid.UUID, feature billing.Feature) (int64, error) {
	var count int64
	var err error

	switch feature {
	case billing.FeatureTemplateCount:
		err = c.db.WithContext(ctx).
			Model(&TemplateModel{}).
			Where("org_id = ?", orgID).
			Count(&count).Error
	case billing.FeatureBrandVoiceCount:
		err = c.db.WithContext(ctx).
			Model(&BrandVoiceModel{}).
			Where("org_id = ?", orgID).
			Count(&count).Error
	case billing.FeatureHistoryDays:
		return 0, nil
	default:
		return 0, fmt.Errorf("no counter for feature %s", feature)
	}

	if err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure FeatureCounter implements the interface
var _ billing.FeatureCounter = (*FeatureCounter)(nil)
