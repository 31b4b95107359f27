package billing

import (
	"context"

	"github.com/toneforge/backend/internal/domain/billing"
	"github.com/toneforge/backend/internal/domain/identity"
	"github.com/toneforge/backend/internal/domain/shared"
	"github.com/toneforge/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// MetricsEventHandler feeds domain events into billing metrics. It is
// registered on the event bus so metering stays out of the request path.
type MetricsEventHandler struct {
	metrics *telemetry.BillingMetrics
	logger  *zap.Logger
}

// NewMetricsEventHandler creates a metrics event handler
func NewMetricsEventHandler(metrics *telemetry.BillingMetrics, logger *zap.Logger) *MetricsEventHandler {
	return &MetricsEventHandler{
		metrics: metrics,
		logger:  logger,
	}
}

// EventTypes returns the event types this handler subscribes to
func (h *MetricsEventHandler) EventTypes() []string {
	return []string{
		billing.EventTypeUsageConsumed,
		billing.EventTypeQuotaExceeded,
		billing.EventTypeSubscriptionChanged,
		identity.EventTypeUserRegistered,
	}
}

// Handle records the metric matching the event type
func (h *MetricsEventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *billing.UsageConsumedEvent:
		h.metrics.RecordReplyGenerated(ctx, e.OrgID(), e.Period)
	case *billing.QuotaExceededEvent:
		h.metrics.RecordQuotaExceeded(ctx, e.OrgID(), e.Period)
	case *billing.SubscriptionChangedEvent:
		h.metrics.RecordSubscriptionChanged(ctx, e.Action, e.PlanCode.String())
	case *identity.UserRegisteredEvent:
		h.metrics.RecordSignup(ctx)
	default:
		h.logger.Debug("Ignoring event with no metric mapping",
			zap.String("event_type", event.EventType()))
	}
	return nil
}
