package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/toneforge/backend/internal/domain/billing"
	"github.com/toneforge/backend/internal/domain/identity"
	"github.com/toneforge/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// PlanResolver resolves the effective plan for an organization. The stored
// plan code only counts when a paid plan is backed by an active or trialing
// subscription; consumption on a lapsed paid plan is rejected outright.
type PlanResolver struct {
	orgRepo identity.OrganizationRepository
	subRepo billing.SubscriptionRepository
}

// NewPlanResolver creates a plan resolver
func NewPlanResolver(orgRepo identity.OrganizationRepository, subRepo billing.SubscriptionRepository) *PlanResolver {
	return &PlanResolver{orgRepo: orgRepo, subRepo: subRepo}
}

// ResolvedPlan is the outcome of plan resolution for one organization
type ResolvedPlan struct {
	Org          *identity.Organization
	PlanCode     billing.PlanCode
	Subscription *billing.Subscription
	// SubscriptionBacked is false when the org claims a paid plan but no
	// active or trialing subscription exists for it
	SubscriptionBacked bool
}

// Resolve loads the organization and checks its subscription backing
func (r *PlanResolver) Resolve(ctx context.Context, orgID uuid.UUID) (*ResolvedPlan, error) {
	org, err := r.orgRepo.FindByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, &billing.OrgNotFoundError{OrgID: orgID}
		}
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}

	plan := billing.ParsePlanCode(org.PlanCode.String())
	resolved := &ResolvedPlan{
		Org:                org,
		PlanCode:           plan,
		SubscriptionBacked: true,
	}

	if !plan.IsPaid() {
		return resolved, nil
	}

	sub, err := r.subRepo.FindByOrgID(ctx, orgID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			resolved.SubscriptionBacked = false
			return resolved, nil
		}
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}

	resolved.Subscription = sub
	resolved.SubscriptionBacked = sub.IsActive()
	return resolved, nil
}

// UsageService meters monthly reply generation against the plan quota
type UsageService struct {
	resolver  *PlanResolver
	usageRepo billing.ReplyUsageRepository
	eventBus  shared.EventPublisher
	clock     shared.Clock
	logger    *zap.Logger
}

// NewUsageService creates a usage service
func NewUsageService(
	resolver *PlanResolver,
	usageRepo billing.ReplyUsageRepository,
	eventBus shared.EventPublisher,
	clock shared.Clock,
	logger *zap.Logger,
) *UsageService {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &UsageService{
		resolver:  resolver,
		usageRepo: usageRepo,
		eventBus:  eventBus,
		clock:     clock,
		logger:    logger,
	}
}

// ConsumeOne consumes one reply generation slot for the current period.
// A paid plan without an active subscription is rejected with
// SubscriptionInactiveError rather than silently metered at the free tier.
func (s *UsageService) ConsumeOne(ctx context.Context, orgID uuid.UUID) (*billing.UsageConsumption, error) {
	resolved, err := s.resolver.Resolve(ctx, orgID)
	if err != nil {
		return nil, err
	}

	if resolved.PlanCode.IsPaid() && !resolved.SubscriptionBacked {
		s.logger.Warn("Rejecting consumption for unbacked paid plan",
			zap.String("org_id", orgID.String()),
			zap.String("plan_code", resolved.PlanCode.String()))
		return nil, &billing.SubscriptionInactiveError{
			OrgID:    orgID,
			PlanCode: resolved.PlanCode,
		}
	}

	period := billing.PeriodKey(s.clock.Now())
	limit := billing.MonthlyReplyQuota(resolved.PlanCode)

	usedAfter, err := s.usageRepo.ConsumeOne(ctx, orgID, period, limit)
	if err != nil {
		var quotaErr *billing.QuotaExceededError
		if errors.As(err, &quotaErr) {
			s.logger.Info("Monthly reply quota exhausted",
				zap.String("org_id", orgID.String()),
				zap.String("period", period),
				zap.Int64("limit", quotaErr.Limit))
			s.publishQuotaExceeded(ctx, orgID, period, quotaErr.Limit)
		}
		return nil, err
	}

	s.publishUsageConsumed(ctx, orgID, period, usedAfter, limit)

	return &billing.UsageConsumption{
		Period:    period,
		UsedAfter: usedAfter,
		Limit:     limit,
		Remaining: billing.RemainingOf(usedAfter, limit),
	}, nil
}

// Snapshot reports current period usage without consuming a slot
func (s *UsageService) Snapshot(ctx context.Context, orgID uuid.UUID) (*billing.UsageSnapshot, error) {
	resolved, err := s.resolver.Resolve(ctx, orgID)
	if err != nil {
		return nil, err
	}

	period := billing.PeriodKey(s.clock.Now())
	limit := billing.MonthlyReplyQuota(resolved.PlanCode)

	used, err := s.usageRepo.CurrentCount(ctx, orgID, period)
	if err != nil {
		return nil, fmt.Errorf("failed to read usage counter: %w", err)
	}

	return &billing.UsageSnapshot{
		Period:    period,
		Used:      used,
		Limit:     limit,
		Remaining: billing.RemainingOf(used, limit),
		PlanCode:  resolved.PlanCode,
	}, nil
}

func (s *UsageService) publishUsageConsumed(ctx context.Context, orgID uuid.UUID, period string, usedAfter, limit int64) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, billing.NewUsageConsumedEvent(orgID, period, usedAfter, limit)); err != nil {
		s.logger.Error("Failed to publish usage consumed event",
			zap.String("org_id", orgID.String()),
			zap.Error(err))
	}
}

func (s *UsageService) publishQuotaExceeded(ctx context.Context, orgID uuid.UUID, period string, limit int64) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, billing.NewQuotaExceededEvent(orgID, period, limit)); err != nil {
		s.logger.Error("Failed to publish quota exceeded event",
			zap.String("org_id", orgID.String()),
			zap.Error(err))
	}
}
