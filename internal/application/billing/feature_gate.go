package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/toneforge/backend/internal/domain/billing"
	"github.com/toneforge/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// FeatureCheck is the result of a passing feature gate check
type FeatureCheck struct {
	Feature   billing.Feature `json:"feature"`
	Limit     int64           `json:"limit"`
	Current   int64           `json:"current"`
	Remaining int64           `json:"remaining"`
}

// FeatureGate enforces per-plan capacity limits on gated resources. The
// check is advisory: it reads a count that may move before the caller's
// insert commits, which is acceptable for capacity limits.
type FeatureGate struct {
	resolver *PlanResolver
	counter  billing.FeatureCounter
	clock    shared.Clock
	logger   *zap.Logger
}

// NewFeatureGate creates a feature gate
func NewFeatureGate(resolver *PlanResolver, counter billing.FeatureCounter, clock shared.Clock, logger *zap.Logger) *FeatureGate {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &FeatureGate{
		resolver: resolver,
		counter:  counter,
		clock:    clock,
		logger:   logger,
	}
}

// Enforce checks whether the organization may create one more instance of
// the gated resource. A paid plan without an active subscription is
// rejected with SubscriptionInactiveError, the same failure mode as quota
// consumption. Returns FeatureLimitExceededError when at capacity.
func (g *FeatureGate) Enforce(ctx context.Context, orgID uuid.UUID, feature billing.Feature) (*FeatureCheck, error) {
	resolved, err := g.resolver.Resolve(ctx, orgID)
	if err != nil {
		return nil, err
	}

	if resolved.PlanCode.IsPaid() && !resolved.SubscriptionBacked {
		g.logger.Warn("Rejecting feature check for unbacked paid plan",
			zap.String("org_id", orgID.String()),
			zap.String("plan_code", resolved.PlanCode.String()),
			zap.String("feature", feature.String()))
		return nil, &billing.SubscriptionInactiveError{
			OrgID:    orgID,
			PlanCode: resolved.PlanCode,
		}
	}
	plan := resolved.PlanCode

	limit := billing.FeatureLimit(plan, feature)
	if limit == billing.Unlimited {
		return &FeatureCheck{
			Feature:   feature,
			Limit:     billing.Unlimited,
			Current:   0,
			Remaining: billing.Unlimited,
		}, nil
	}

	current, err := g.counter.Count(ctx, orgID, feature)
	if err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", feature, err)
	}

	if current >= limit {
		return nil, &billing.FeatureLimitExceededError{
			Feature:  feature,
			Current:  current,
			Limit:    limit,
			PlanCode: plan,
		}
	}

	return &FeatureCheck{
		Feature:   feature,
		Limit:     limit,
		Current:   current,
		Remaining: billing.RemainingOf(current, limit),
	}, nil
}

// HistoryCutoff returns the earliest instant the organization may see
// reply history for, or nil when retention is unlimited. Unlike Enforce,
// an unbacked paid plan is not rejected here; history reads degrade to the
// free retention window so the dashboard keeps working while billing is
// sorted out.
func (g *FeatureGate) HistoryCutoff(ctx context.Context, orgID uuid.UUID) (*time.Time, error) {
	resolved, err := g.resolver.Resolve(ctx, orgID)
	if err != nil {
		return nil, err
	}

	plan := resolved.PlanCode
	if plan.IsPaid() && !resolved.SubscriptionBacked {
		g.logger.Debug("Applying free retention window to unbacked paid plan",
			zap.String("org_id", orgID.String()),
			zap.String("plan_code", plan.String()))
		plan = billing.PlanFree
	}

	days := billing.FeatureLimit(plan, billing.FeatureHistoryDays)
	if days == billing.Unlimited {
		return nil, nil
	}

	cutoff := g.clock.Now().UTC().AddDate(0, 0, -int(days))
	return &cutoff, nil
}
