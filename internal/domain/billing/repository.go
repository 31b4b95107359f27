package billing

import (
	"context"

	"github.com/google/uuid"
)

// SubscriptionRepository persists subscription mirrors
type SubscriptionRepository interface {
	// Save inserts or updates the organization's subscription row
	Save(ctx context.Context, sub *Subscription) error
	// FindByOrgID returns the subscription for an organization,
	// shared.ErrNotFound when none exists
	FindByOrgID(ctx context.Context, orgID uuid.UUID) (*Subscription, error)
	// FindByStripeSubscriptionID looks up by the provider-side ID
	FindByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID string) (*Subscription, error)
	// DeleteByOrgID removes the organization's subscription row
	DeleteByOrgID(ctx context.Context, orgID uuid.UUID) error
}

// ReplyUsageRepository persists monthly reply usage counters
type ReplyUsageRepository interface {
	// ConsumeOne atomically increments the (org, period) counter inside a
	// single transaction: the row is created at zero if missing, the count
	// is read under a row lock, checked against limit, then incremented.
	// Returns the count after increment, or *QuotaExceededError when the
	// counter already reached the limit.
	ConsumeOne(ctx context.Context, orgID uuid.UUID, period string, limit int64) (int64, error)
	// CurrentCount returns the counter value for the period, zero when no
	// row exists yet
	CurrentCount(ctx context.Context, orgID uuid.UUID, period string) (int64, error)
}

// FeatureCounter counts existing gated resources for an organization.
// Implemented by persistence over the resource tables.
type FeatureCounter interface {
	Count(ctx context.Context, orgID uuid.UUID, feature Feature) (int64, error)
}

// ProcessedEventRepository records billing provider events that were already
// handled, so webhook retries are idempotent. Events are marked only after
// successful handling; a failed delivery stays unmarked and the provider's
// retry reprocesses it.
type ProcessedEventRepository interface {
	// IsProcessed reports whether the event was handled before
	IsProcessed(ctx context.Context, eventID string) (bool, error)
	// MarkProcessed records the event ID after successful handling. Returns
	// true when a concurrent delivery recorded it first.
	MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error)
}
