package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/toneforge/backend/internal/domain/billing"
	"github.com/toneforge/backend/internal/domain/identity"
	"github.com/toneforge/backend/internal/domain/shared"
	infrabilling "github.com/toneforge/backend/internal/infrastructure/billing"
	"go.uber.org/zap"
)

// BillingService drives checkout, the billing portal and invoice listing
type BillingService struct {
	orgRepo        identity.OrganizationRepository
	userRepo       identity.UserRepository
	membershipRepo identity.MembershipRepository
	subRepo        billing.SubscriptionRepository
	stripe         *infrabilling.StripeAdapter
	logger         *zap.Logger
}

// NewBillingService creates a billing service
func NewBillingService(
	orgRepo identity.OrganizationRepository,
	userRepo identity.UserRepository,
	membershipRepo identity.MembershipRepository,
	subRepo billing.SubscriptionRepository,
	stripe *infrabilling.StripeAdapter,
	logger *zap.Logger,
) *BillingService {
	return &BillingService{
		orgRepo:        orgRepo,
		userRepo:       userRepo,
		membershipRepo: membershipRepo,
		subRepo:        subRepo,
		stripe:         stripe,
		logger:         logger,
	}
}

// BillingOverview summarizes the organization's billing state
type BillingOverview struct {
	PlanCode           billing.PlanCode           `json:"plan_code"`
	SubscriptionStatus billing.SubscriptionStatus `json:"subscription_status,omitempty"`
	CurrentPeriodEnd   *time.Time                 `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd  bool                       `json:"cancel_at_period_end"`
	HasStripeCustomer  bool                       `json:"has_stripe_customer"`
}

// requireStripe rejects provider-backed operations when Stripe is not
// configured for this deployment
func (s *BillingService) requireStripe() error {
	if s.stripe == nil {
		return shared.NewDomainError("BILLING_UNAVAILABLE", "Billing provider is not configured")
	}
	return nil
}

// requireBillingRole verifies the user may manage billing for the org
func (s *BillingService) requireBillingRole(ctx context.Context, orgID, userID uuid.UUID) error {
	membership, err := s.membershipRepo.FindByOrgAndUser(ctx, orgID, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.ErrForbidden
		}
		return fmt.Errorf("failed to load membership: %w", err)
	}
	if !membership.Role.CanManageBilling() {
		return shared.ErrForbidden
	}
	return nil
}

// loadOrg loads an organization, translating not-found into the typed error
func (s *BillingService) loadOrg(ctx context.Context, orgID uuid.UUID) (*identity.Organization, error) {
	org, err := s.orgRepo.FindByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, &billing.OrgNotFoundError{OrgID: orgID}
		}
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}
	return org, nil
}

// ensureStripeCustomer links the org to a Stripe customer, creating one on
// first use with the acting user's email as billing contact
func (s *BillingService) ensureStripeCustomer(ctx context.Context, org *identity.Organization, userID uuid.UUID) (string, error) {
	if org.HasStripeCustomer() {
		return org.StripeCustomerID, nil
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to load user: %w", err)
	}

	customerID, err := s.stripe.CreateCustomer(ctx, org.ID, org.Name, user.Email)
	if err != nil {
		return "", err
	}

	org.SetStripeCustomerID(customerID)
	if err := s.orgRepo.Update(ctx, org); err != nil {
		return "", fmt.Errorf("failed to link Stripe customer: %w", err)
	}
	return customerID, nil
}

// StartCheckout begins a subscription checkout for a paid plan
func (s *BillingService) StartCheckout(ctx context.Context, orgID, userID uuid.UUID, plan billing.PlanCode) (*infrabilling.CheckoutSession, error) {
	if err := s.requireStripe(); err != nil {
		return nil, err
	}
	if !plan.IsPaid() {
		return nil, shared.NewDomainError("INVALID_PLAN", "Checkout requires a paid plan")
	}
	if err := s.requireBillingRole(ctx, orgID, userID); err != nil {
		return nil, err
	}

	org, err := s.loadOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}

	customerID, err := s.ensureStripeCustomer(ctx, org, userID)
	if err != nil {
		return nil, err
	}

	session, err := s.stripe.CreateCheckoutSession(ctx, orgID, customerID, plan)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Checkout started",
		zap.String("org_id", orgID.String()),
		zap.String("plan_code", plan.String()),
		zap.String("session_id", session.SessionID))
	return session, nil
}

// OpenPortal creates a billing portal session for an existing customer
func (s *BillingService) OpenPortal(ctx context.Context, orgID, userID uuid.UUID) (string, error) {
	if err := s.requireStripe(); err != nil {
		return "", err
	}
	if err := s.requireBillingRole(ctx, orgID, userID); err != nil {
		return "", err
	}

	org, err := s.loadOrg(ctx, orgID)
	if err != nil {
		return "", err
	}
	if !org.HasStripeCustomer() {
		return "", shared.NewDomainError("NO_BILLING_ACCOUNT", "Organization has no billing account yet")
	}

	return s.stripe.CreatePortalSession(ctx, org.StripeCustomerID)
}

// Overview returns the organization's current billing state
func (s *BillingService) Overview(ctx context.Context, orgID uuid.UUID) (*BillingOverview, error) {
	org, err := s.loadOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}

	overview := &BillingOverview{
		PlanCode:          org.PlanCode,
		HasStripeCustomer: org.HasStripeCustomer(),
	}

	sub, err := s.subRepo.FindByOrgID(ctx, orgID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return overview, nil
		}
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}

	overview.SubscriptionStatus = sub.Status
	overview.CurrentPeriodEnd = sub.CurrentPeriodEnd
	overview.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
	return overview, nil
}

// ListInvoices returns recent invoices for the organization
func (s *BillingService) ListInvoices(ctx context.Context, orgID, userID uuid.UUID) ([]infrabilling.Invoice, error) {
	if err := s.requireStripe(); err != nil {
		return nil, err
	}
	if err := s.requireBillingRole(ctx, orgID, userID); err != nil {
		return nil, err
	}

	org, err := s.loadOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if !org.HasStripeCustomer() {
		return []infrabilling.Invoice{}, nil
	}

	return s.stripe.ListInvoices(ctx, org.StripeCustomerID, 12)
}
