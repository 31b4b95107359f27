package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/toneforge/backend/internal/domain/shared"
)

// SubscriptionStatus mirrors the billing provider's subscription lifecycle
type SubscriptionStatus string

const (
	SubscriptionStatusActive     SubscriptionStatus = "active"
	SubscriptionStatusTrialing   SubscriptionStatus = "trialing"
	SubscriptionStatusPastDue    SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled   SubscriptionStatus = "canceled"
	SubscriptionStatusIncomplete SubscriptionStatus = "incomplete"
	SubscriptionStatusUnpaid     SubscriptionStatus = "unpaid"
)

// String returns the string representation of the status
func (s SubscriptionStatus) String() string {
	return string(s)
}

// Entitles returns true when the status grants access to paid features
func (s SubscriptionStatus) Entitles() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusTrialing
}

// Subscription is the local mirror of an organization's provider-side
// subscription. At most one row per organization.
type Subscription struct {
	shared.OrgAggregateRoot
	StripeSubscriptionID string
	PlanCode             PlanCode
	Status               SubscriptionStatus
	CurrentPeriodEnd     *time.Time
	CancelAtPeriodEnd    bool
}

// NewSubscription creates a subscription mirror for an organization
func NewSubscription(orgID uuid.UUID, stripeSubscriptionID string, plan PlanCode, status SubscriptionStatus) (*Subscription, error) {
	if orgID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORG", "Organization ID cannot be empty")
	}
	if stripeSubscriptionID == "" {
		return nil, shared.NewDomainError("INVALID_SUBSCRIPTION", "Stripe subscription ID cannot be empty")
	}

	return &Subscription{
		OrgAggregateRoot:     shared.NewOrgAggregateRoot(orgID),
		StripeSubscriptionID: stripeSubscriptionID,
		PlanCode:             plan,
		Status:               status,
	}, nil
}

// IsActive returns true when the subscription entitles paid features
func (s *Subscription) IsActive() bool {
	return s.Status.Entitles()
}

// SyncFromProvider applies the latest provider state to the mirror
func (s *Subscription) SyncFromProvider(plan PlanCode, status SubscriptionStatus, periodEnd *time.Time, cancelAtPeriodEnd bool) {
	s.PlanCode = plan
	s.Status = status
	s.CurrentPeriodEnd = periodEnd
	s.CancelAtPeriodEnd = cancelAtPeriodEnd
	s.UpdatedAt = time.Now()
}

// Cancel marks the subscription as canceled
func (s *Subscription) Cancel() {
	s.Status = SubscriptionStatusCanceled
	s.UpdatedAt = time.Now()
}
