package billing

import (
	"github.com/google/uuid"
	"github.com/toneforge/backend/internal/domain/shared"
)

// Event types published by the billing domain
const (
	EventTypeSubscriptionChanged = "billing.subscription_changed"
	EventTypeUsageConsumed       = "billing.usage_consumed"
	EventTypeQuotaExceeded       = "billing.quota_exceeded"
)

// SubscriptionChangedEvent is published when a webhook mutates the local
// subscription mirror
type SubscriptionChangedEvent struct {
	shared.BaseDomainEvent
	Action               string   `json:"action"`
	StripeSubscriptionID string   `json:"stripe_subscription_id"`
	PlanCode             PlanCode `json:"plan_code"`
}

// NewSubscriptionChangedEvent creates a subscription change event
func NewSubscriptionChangedEvent(orgID uuid.UUID, action, stripeSubscriptionID string, plan PlanCode) *SubscriptionChangedEvent {
	return &SubscriptionChangedEvent{
		BaseDomainEvent:      shared.NewBaseDomainEvent(EventTypeSubscriptionChanged, "Subscription", orgID, orgID),
		Action:               action,
		StripeSubscriptionID: stripeSubscriptionID,
		PlanCode:             plan,
	}
}

// UsageConsumedEvent is published after each successful quota consumption
type UsageConsumedEvent struct {
	shared.BaseDomainEvent
	Period    string `json:"period"`
	UsedAfter int64  `json:"used_after"`
	Limit     int64  `json:"limit"`
}

// NewUsageConsumedEvent creates a usage consumed event
func NewUsageConsumedEvent(orgID uuid.UUID, period string, usedAfter, limit int64) *UsageConsumedEvent {
	return &UsageConsumedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUsageConsumed, "ReplyUsage", orgID, orgID),
		Period:          period,
		UsedAfter:       usedAfter,
		Limit:           limit,
	}
}

// QuotaExceededEvent is published when an organization hits its monthly cap
type QuotaExceededEvent struct {
	shared.BaseDomainEvent
	Period string `json:"period"`
	Limit  int64  `json:"limit"`
}

// NewQuotaExceededEvent creates a quota exceeded event
func NewQuotaExceededEvent(orgID uuid.UUID, period string, limit int64) *QuotaExceededEvent {
	return &QuotaExceededEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeQuotaExceeded, "ReplyUsage", orgID, orgID),
		Period:          period,
		Limit:           limit,
	}
}
