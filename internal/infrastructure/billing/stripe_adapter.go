package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"
	portalsession "github.com/stripe/stripe-go/v81/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/customer"
	"github.com/stripe/stripe-go/v81/invoice"
	"github.com/stripe/stripe-go/v81/subscription"
	"github.com/stripe/stripe-go/v81/webhook"
	"github.com/toneforge/backend/internal/domain/billing"
	"github.com/toneforge/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// StripeAdapter wraps the Stripe API for subscription billing
type StripeAdapter struct {
	config config.StripeConfig
	logger *zap.Logger
}

// NewStripeAdapter creates a new Stripe adapter and sets the global API key
func NewStripeAdapter(cfg config.StripeConfig, logger *zap.Logger) (*StripeAdapter, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("stripe: secret key is required")
	}
	stripe.Key = cfg.SecretKey

	return &StripeAdapter{
		config: cfg,
		logger: logger,
	}, nil
}

// PriceIDForPlan returns the configured Stripe price for a paid plan
func (a *StripeAdapter) PriceIDForPlan(plan billing.PlanCode) (string, error) {
	switch plan {
	case billing.PlanPro:
		if a.config.PriceIDPro == "" {
			return "", fmt.Errorf("stripe: price ID not configured for plan %s", plan)
		}
		return a.config.PriceIDPro, nil
	case billing.PlanPremium:
		if a.config.PriceIDPremium == "" {
			return "", fmt.Errorf("stripe: price ID not configured for plan %s", plan)
		}
		return a.config.PriceIDPremium, nil
	default:
		return "", fmt.Errorf("stripe: plan %s has no price", plan)
	}
}

// PlanForPriceID maps a Stripe price back to a plan code. Unknown prices map
// to the free tier.
func (a *StripeAdapter) PlanForPriceID(priceID string) billing.PlanCode {
	switch priceID {
	case a.config.PriceIDPro:
		return billing.PlanPro
	case a.config.PriceIDPremium:
		return billing.PlanPremium
	default:
		return billing.PlanFree
	}
}

// CreateCustomer creates a Stripe customer for an organization
func (a *StripeAdapter) CreateCustomer(ctx context.Context, orgID uuid.UUID, name, email string) (string, error) {
	params := &stripe.CustomerParams{
		Name:  stripe.String(name),
		Email: stripe.String(email),
		Metadata: map[string]string{
			"org_id": orgID.String(),
		},
	}
	params.Context = ctx

	cust, err := customer.New(params)
	if err != nil {
		a.logger.Error("Failed to create Stripe customer",
			zap.String("org_id", orgID.String()),
			zap.Error(err))
		return "", fmt.Errorf("stripe: failed to create customer: %w", err)
	}

	a.logger.Info("Created Stripe customer",
		zap.String("org_id", orgID.String()),
		zap.String("customer_id", cust.ID))
	return cust.ID, nil
}

// CheckoutSession is a started subscription checkout
type CheckoutSession struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// CreateCheckoutSession starts a subscription checkout for a paid plan
func (a *StripeAdapter) CreateCheckoutSession(ctx context.Context, orgID uuid.UUID, customerID string, plan billing.PlanCode) (*CheckoutSession, error) {
	priceID, err := a.PriceIDForPlan(plan)
	if err != nil {
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(customerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(a.config.SuccessURL),
		CancelURL:  stripe.String(a.config.CancelURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				"org_id":    orgID.String(),
				"plan_code": plan.String(),
			},
		},
	}
	params.Context = ctx

	sess, err := checkoutsession.New(params)
	if err != nil {
		a.logger.Error("Failed to create checkout session",
			zap.String("org_id", orgID.String()),
			zap.String("plan_code", plan.String()),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to create checkout session: %w", err)
	}

	a.logger.Info("Created checkout session",
		zap.String("org_id", orgID.String()),
		zap.String("session_id", sess.ID),
		zap.String("plan_code", plan.String()))

	return &CheckoutSession{
		SessionID: sess.ID,
		URL:       sess.URL,
	}, nil
}

// CreatePortalSession opens the Stripe billing portal for a customer
func (a *StripeAdapter) CreatePortalSession(ctx context.Context, customerID string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(a.config.PortalReturnURL),
	}
	params.Context = ctx

	sess, err := portalsession.New(params)
	if err != nil {
		a.logger.Error("Failed to create billing portal session",
			zap.String("customer_id", customerID),
			zap.Error(err))
		return "", fmt.Errorf("stripe: failed to create portal session: %w", err)
	}
	return sess.URL, nil
}

// Invoice is a simplified view of a Stripe invoice
type Invoice struct {
	ID        string          `json:"id"`
	Number    string          `json:"number"`
	Status    string          `json:"status"`
	Currency  string          `json:"currency"`
	AmountDue decimal.Decimal `json:"amount_due"`
	PaidAt    *time.Time      `json:"paid_at,omitempty"`
	HostedURL string          `json:"hosted_url,omitempty"`
	PDFURL    string          `json:"pdf_url,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// ListInvoices returns recent invoices for a customer, newest first
func (a *StripeAdapter) ListInvoices(ctx context.Context, customerID string, limit int64) ([]Invoice, error) {
	if limit <= 0 {
		limit = 12
	}

	params := &stripe.InvoiceListParams{
		Customer: stripe.String(customerID),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(limit)

	var invoices []Invoice
	iter := invoice.List(params)
	for iter.Next() {
		inv := iter.Invoice()
		item := Invoice{
			ID:        inv.ID,
			Number:    inv.Number,
			Status:    string(inv.Status),
			Currency:  string(inv.Currency),
			AmountDue: decimal.NewFromInt(inv.AmountDue).Div(decimal.NewFromInt(100)),
			HostedURL: inv.HostedInvoiceURL,
			PDFURL:    inv.InvoicePDF,
			CreatedAt: time.Unix(inv.Created, 0),
		}
		if inv.StatusTransitions != nil && inv.StatusTransitions.PaidAt > 0 {
			t := time.Unix(inv.StatusTransitions.PaidAt, 0)
			item.PaidAt = &t
		}
		invoices = append(invoices, item)
	}

	if err := iter.Err(); err != nil {
		a.logger.Error("Failed to list Stripe invoices",
			zap.String("customer_id", customerID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to list invoices: %w", err)
	}

	return invoices, nil
}

// GetSubscription fetches a subscription from Stripe
func (a *StripeAdapter) GetSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := subscription.Get(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: failed to get subscription: %w", err)
	}
	return sub, nil
}

// ConstructWebhookEvent verifies a webhook payload signature and parses the event
func (a *StripeAdapter) ConstructWebhookEvent(payload []byte, signature string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, signature, a.config.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
}

// MapSubscriptionStatus maps a Stripe subscription status to the domain status
func MapSubscriptionStatus(status stripe.SubscriptionStatus) billing.SubscriptionStatus {
	switch status {
	case stripe.SubscriptionStatusActive:
		return billing.SubscriptionStatusActive
	case stripe.SubscriptionStatusTrialing:
		return billing.SubscriptionStatusTrialing
	case stripe.SubscriptionStatusPastDue:
		return billing.SubscriptionStatusPastDue
	case stripe.SubscriptionStatusCanceled, stripe.SubscriptionStatusIncompleteExpired:
		return billing.SubscriptionStatusCanceled
	case stripe.SubscriptionStatusIncomplete:
		return billing.SubscriptionStatusIncomplete
	case stripe.SubscriptionStatusUnpaid:
		return billing.SubscriptionStatusUnpaid
	default:
		return billing.SubscriptionStatus(status)
	}
}
