package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go.opentelemetry.io/otel/metric"
)

// BillingMetrics tracks reply generation, quota rejections and subscription
// lifecycle activity across organizations.
type BillingMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	replyGeneratedTotal      *Counter
	quotaExceededTotal       *Counter
	subscriptionChangedTotal *Counter
	signupTotal              *Counter

	// Gauge metrics (point-in-time values)
	orgsByPlan *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	planProvider PlanDistributionProvider
}

// PlanDistributionProvider reports how many organizations sit on each plan.
// The interface keeps the telemetry layer decoupled from the identity domain.
type PlanDistributionProvider interface {
	// GetOrgCountByPlan returns the number of organizations per plan code
	GetOrgCountByPlan(ctx context.Context) (map[string]int64, error)
}

// BillingMetricsConfig holds configuration for billing metrics.
type BillingMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	PlanProvider    PlanDistributionProvider
}

// NewBillingMetrics creates a new BillingMetrics instance.
func NewBillingMetrics(cfg BillingMetricsConfig) (*BillingMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BillingMetrics{
		meter:        cfg.Meter,
		logger:       logger,
		stopChan:     make(chan struct{}),
		planProvider: cfg.PlanProvider,
	}

	var err error

	bm.replyGeneratedTotal, err = NewCounter(
		cfg.Meter,
		"toneforge_reply_generated_total",
		"Total number of replies generated",
		"{replies}",
	)
	if err != nil {
		return nil, err
	}

	bm.quotaExceededTotal, err = NewCounter(
		cfg.Meter,
		"toneforge_quota_exceeded_total",
		"Total number of reply requests rejected over quota",
		"{rejections}",
	)
	if err != nil {
		return nil, err
	}

	bm.subscriptionChangedTotal, err = NewCounter(
		cfg.Meter,
		"toneforge_subscription_changed_total",
		"Total number of subscription lifecycle changes",
		"{events}",
	)
	if err != nil {
		return nil, err
	}

	bm.signupTotal, err = NewCounter(
		cfg.Meter,
		"toneforge_signup_total",
		"Total number of user registrations",
		"{users}",
	)
	if err != nil {
		return nil, err
	}

	bm.orgsByPlan, err = NewGauge(
		cfg.Meter,
		"toneforge_orgs_by_plan",
		"Current number of organizations per plan",
		"{organizations}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// RecordReplyGenerated records one generated reply for an organization.
func (bm *BillingMetrics) RecordReplyGenerated(ctx context.Context, orgID uuid.UUID, period string) {
	bm.replyGeneratedTotal.Inc(ctx,
		AttrOrgID.String(orgID.String()),
		AttrPeriod.String(period),
	)
}

// RecordQuotaExceeded records a reply request rejected over quota.
func (bm *BillingMetrics) RecordQuotaExceeded(ctx context.Context, orgID uuid.UUID, period string) {
	bm.quotaExceededTotal.Inc(ctx,
		AttrOrgID.String(orgID.String()),
		AttrPeriod.String(period),
	)
}

// RecordSubscriptionChanged records a subscription lifecycle change.
// Action is the change kind ("upserted", "deleted"); plan is the resulting
// plan code.
func (bm *BillingMetrics) RecordSubscriptionChanged(ctx context.Context, action, plan string) {
	bm.subscriptionChangedTotal.Inc(ctx,
		AttrAction.String(action),
		AttrPlanCode.String(plan),
	)
}

// RecordSignup records one completed user registration.
func (bm *BillingMetrics) RecordSignup(ctx context.Context) {
	bm.signupTotal.Inc(ctx)
}

// RecordOrgsByPlan records the current organization count for a plan.
func (bm *BillingMetrics) RecordOrgsByPlan(ctx context.Context, plan string, count int64) {
	bm.orgsByPlan.Record(ctx, count,
		AttrPlanCode.String(plan),
	)
}

// StartPeriodicCollection starts periodic collection of the plan
// distribution gauge. Non-blocking; use Stop() to stop collection.
func (bm *BillingMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, interval)
	})
}

func (bm *BillingMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	bm.collectPlanDistribution(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic billing metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic billing metrics collection")
			return
		case <-ticker.C:
			bm.collectPlanDistribution(ctx)
		}
	}
}

func (bm *BillingMetrics) collectPlanDistribution(ctx context.Context) {
	if bm.planProvider == nil {
		bm.logger.Debug("No plan provider configured, skipping plan distribution collection")
		return
	}

	counts, err := bm.planProvider.GetOrgCountByPlan(ctx)
	if err != nil {
		bm.logger.Error("Failed to collect plan distribution", zap.Error(err))
		return
	}

	for plan, count := range counts {
		bm.RecordOrgsByPlan(ctx, plan, count)
	}
}

// Stop stops the periodic collection.
func (bm *BillingMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBillingMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
