package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v81"
	"github.com/toneforge/backend/internal/domain/billing"
	"github.com/toneforge/backend/internal/domain/identity"
	"github.com/toneforge/backend/internal/domain/shared"
	infrabilling "github.com/toneforge/backend/internal/infrastructure/billing"
	"go.uber.org/zap"
)

// ErrInvalidWebhookSignature marks deliveries that failed signature
// verification. These are permanent failures and must not be retried.
var ErrInvalidWebhookSignature = errors.New("webhook signature verification failed")

// StripeWebhookService handles Stripe webhook deliveries. Events are
// verified, deduplicated, then applied to the local subscription mirror
// and the organization's plan.
type StripeWebhookService struct {
	stripe        *infrabilling.StripeAdapter
	orgRepo       identity.OrganizationRepository
	subRepo       billing.SubscriptionRepository
	processedRepo billing.ProcessedEventRepository
	eventBus      shared.EventPublisher
	logger        *zap.Logger
}

// NewStripeWebhookService creates a webhook service
func NewStripeWebhookService(
	stripe *infrabilling.StripeAdapter,
	orgRepo identity.OrganizationRepository,
	subRepo billing.SubscriptionRepository,
	processedRepo billing.ProcessedEventRepository,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *StripeWebhookService {
	return &StripeWebhookService{
		stripe:        stripe,
		orgRepo:       orgRepo,
		subRepo:       subRepo,
		processedRepo: processedRepo,
		eventBus:      eventBus,
		logger:        logger,
	}
}

// WebhookResult contains the result of processing a webhook delivery
type WebhookResult struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Processed bool   `json:"processed"`
	Message   string `json:"message,omitempty"`
}

// ProcessWebhook verifies and applies one Stripe event
func (s *StripeWebhookService) ProcessWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	if s.stripe == nil {
		return nil, fmt.Errorf("%w: billing provider not configured", ErrInvalidWebhookSignature)
	}

	event, err := s.stripe.ConstructWebhookEvent(payload, signature)
	if err != nil {
		s.logger.Error("Failed to verify webhook signature", zap.Error(err))
		return nil, fmt.Errorf("%w: %s", ErrInvalidWebhookSignature, err)
	}

	result := &WebhookResult{
		EventID:   event.ID,
		EventType: string(event.Type),
		Processed: true,
	}

	alreadySeen, err := s.processedRepo.IsProcessed(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check webhook event: %w", err)
	}
	if alreadySeen {
		s.logger.Info("Skipping already processed webhook event",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)))
		result.Message = "Event already processed"
		return result, nil
	}

	s.logger.Info("Processing Stripe webhook event",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)))

	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated":
		err = s.handleSubscriptionUpserted(ctx, event)
	case "customer.subscription.deleted":
		err = s.handleSubscriptionDeleted(ctx, event)
	case "checkout.session.completed":
		err = s.handleCheckoutCompleted(ctx, event)
	case "invoice.payment_failed":
		err = s.handleInvoicePaymentFailed(ctx, event)
	default:
		s.logger.Debug("Unhandled webhook event type",
			zap.String("event_type", string(event.Type)))
		result.Message = "Event type not handled"
	}

	if err != nil {
		s.logger.Error("Failed to process webhook event",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		result.Processed = false
		result.Message = err.Error()
		return result, err
	}

	// Recorded only after the handler succeeds. A delivery that failed above
	// stays unrecorded, so Stripe's retry is not short-circuited by dedup.
	if _, err := s.processedRepo.MarkProcessed(ctx, event.ID, string(event.Type)); err != nil {
		return nil, fmt.Errorf("failed to record webhook event: %w", err)
	}

	return result, nil
}

// findOrgForSubscription resolves the owning org by customer ID. A nil org
// with nil error means the customer is not ours; the event is acknowledged
// so Stripe stops retrying.
func (s *StripeWebhookService) findOrgForSubscription(ctx context.Context, sub *stripe.Subscription) (*identity.Organization, error) {
	customerID := ""
	if sub.Customer != nil {
		customerID = sub.Customer.ID
	}
	if customerID == "" {
		s.logger.Warn("Subscription has no customer ID, skipping",
			zap.String("subscription_id", sub.ID))
		return nil, nil
	}

	org, err := s.orgRepo.FindByStripeCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Organization not found for Stripe customer",
				zap.String("customer_id", customerID),
				zap.String("subscription_id", sub.ID))
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}
	return org, nil
}

// planFromSubscription maps the subscription's price to a plan code
func (s *StripeWebhookService) planFromSubscription(sub *stripe.Subscription) billing.PlanCode {
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		return s.stripe.PlanForPriceID(sub.Items.Data[0].Price.ID)
	}
	return billing.PlanFree
}

// handleSubscriptionUpserted applies created and updated subscription events
func (s *StripeWebhookService) handleSubscriptionUpserted(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("failed to unmarshal subscription: %w", err)
	}
	return s.applySubscription(ctx, &sub)
}

// applySubscription upserts the local mirror and aligns the org's plan with
// the provider-side subscription state
func (s *StripeWebhookService) applySubscription(ctx context.Context, sub *stripe.Subscription) error {
	org, err := s.findOrgForSubscription(ctx, sub)
	if err != nil || org == nil {
		return err
	}

	plan := s.planFromSubscription(sub)
	status := infrabilling.MapSubscriptionStatus(sub.Status)

	var periodEnd *time.Time
	if sub.CurrentPeriodEnd > 0 {
		t := time.Unix(sub.CurrentPeriodEnd, 0)
		periodEnd = &t
	}

	mirror, err := s.subRepo.FindByOrgID(ctx, org.ID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("failed to load subscription mirror: %w", err)
		}
		mirror, err = billing.NewSubscription(org.ID, sub.ID, plan, status)
		if err != nil {
			return fmt.Errorf("failed to create subscription mirror: %w", err)
		}
		mirror.CurrentPeriodEnd = periodEnd
		mirror.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
	} else {
		mirror.StripeSubscriptionID = sub.ID
		mirror.SyncFromProvider(plan, status, periodEnd, sub.CancelAtPeriodEnd)
	}

	if err := s.subRepo.Save(ctx, mirror); err != nil {
		return fmt.Errorf("failed to save subscription mirror: %w", err)
	}

	// The org's plan follows the subscription only while it entitles paid
	// features; otherwise the org falls back to free
	if status.Entitles() {
		org.SetPlan(plan)
	} else {
		org.SetPlan(billing.PlanFree)
	}
	if err := s.orgRepo.Update(ctx, org); err != nil {
		return fmt.Errorf("failed to update organization plan: %w", err)
	}

	s.publishSubscriptionChanged(ctx, org, "upserted", sub.ID, org.PlanCode)

	s.logger.Info("Subscription mirror updated",
		zap.String("org_id", org.ID.String()),
		zap.String("subscription_id", sub.ID),
		zap.String("plan_code", org.PlanCode.String()),
		zap.String("status", status.String()))
	return nil
}

// handleCheckoutCompleted pulls the fresh subscription after checkout and
// applies it through the same upsert path as subscription events. The
// subscription.created event usually arrives too, which the idempotent
// upsert absorbs.
func (s *StripeWebhookService) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("failed to unmarshal checkout session: %w", err)
	}

	if session.Subscription == nil || session.Subscription.ID == "" {
		s.logger.Debug("Checkout session completed without subscription",
			zap.String("session_id", session.ID))
		return nil
	}

	sub, err := s.stripe.GetSubscription(ctx, session.Subscription.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch subscription after checkout: %w", err)
	}

	return s.applySubscription(ctx, sub)
}

// handleSubscriptionDeleted downgrades the organization to the free plan
func (s *StripeWebhookService) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("failed to unmarshal subscription: %w", err)
	}

	mirror, err := s.subRepo.FindByStripeSubscriptionID(ctx, sub.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Subscription mirror not found for deleted subscription",
				zap.String("subscription_id", sub.ID))
			return nil
		}
		return fmt.Errorf("failed to find subscription mirror: %w", err)
	}

	mirror.Cancel()
	if err := s.subRepo.Save(ctx, mirror); err != nil {
		return fmt.Errorf("failed to save subscription mirror: %w", err)
	}

	org, err := s.orgRepo.FindByID(ctx, mirror.OrgID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Organization not found for canceled subscription",
				zap.String("org_id", mirror.OrgID.String()))
			return nil
		}
		return fmt.Errorf("failed to load organization: %w", err)
	}

	org.SetPlan(billing.PlanFree)
	if err := s.orgRepo.Update(ctx, org); err != nil {
		return fmt.Errorf("failed to downgrade organization: %w", err)
	}

	s.publishSubscriptionChanged(ctx, org, "deleted", sub.ID, billing.PlanFree)

	s.logger.Info("Subscription canceled, organization downgraded to free",
		zap.String("org_id", org.ID.String()),
		zap.String("subscription_id", sub.ID))
	return nil
}

// handleInvoicePaymentFailed logs the failure; the plan change itself
// arrives via the subsequent subscription.updated event
func (s *StripeWebhookService) handleInvoicePaymentFailed(ctx context.Context, event stripe.Event) error {
	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return fmt.Errorf("failed to unmarshal invoice: %w", err)
	}

	customerID := ""
	if inv.Customer != nil {
		customerID = inv.Customer.ID
	}

	s.logger.Warn("Invoice payment failed",
		zap.String("invoice_id", inv.ID),
		zap.String("customer_id", customerID))
	return nil
}

func (s *StripeWebhookService) publishSubscriptionChanged(ctx context.Context, org *identity.Organization, action, subscriptionID string, plan billing.PlanCode) {
	if s.eventBus == nil {
		return
	}
	event := billing.NewSubscriptionChangedEvent(org.ID, action, subscriptionID, plan)
	if err := s.eventBus.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish subscription changed event",
			zap.String("org_id", org.ID.String()),
			zap.Error(err))
	}
}
