package billing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toneforge/backend/internal/domain/billing"
	"github.com/toneforge/backend/internal/domain/identity"
	"github.com/toneforge/backend/internal/domain/shared"
	"github.com/toneforge/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

func newMetricsHandler(t *testing.T) *MetricsEventHandler {
	t.Helper()
	metrics, err := telemetry.NewBillingMetrics(telemetry.BillingMetricsConfig{
		Meter:  noop.NewMeterProvider().Meter("test"),
		Logger: zap.NewNop(),
	})
	require.NoError(t, err)
	return NewMetricsEventHandler(metrics, zap.NewNop())
}

func TestMetricsEventHandler_EventTypes(t *testing.T) {
	h := newMetricsHandler(t)

	types := h.EventTypes()
	assert.Contains(t, types, billing.EventTypeUsageConsumed)
	assert.Contains(t, types, billing.EventTypeQuotaExceeded)
	assert.Contains(t, types, billing.EventTypeSubscriptionChanged)
	assert.Contains(t, types, identity.EventTypeUserRegistered)
}

func TestMetricsEventHandler_Handle(t *testing.T) {
	h := newMetricsHandler(t)
	ctx := context.Background()
	orgID := uuid.New()

	tests := []struct {
		name  string
		event shared.DomainEvent
	}{
		{"usage consumed", billing.NewUsageConsumedEvent(orgID, "2026-08", 3, 20)},
		{"quota exceeded", billing.NewQuotaExceededEvent(orgID, "2026-08", 20)},
		{"subscription changed", billing.NewSubscriptionChangedEvent(orgID, "upserted", "sub_123", billing.PlanPro)},
		{"user registered", identity.NewUserRegisteredEvent(uuid.New(), orgID, "owner@example.com")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.NoError(t, h.Handle(ctx, tc.event))
		})
	}
}

func TestMetricsEventHandler_Handle_UnknownEvent(t *testing.T) {
	h := newMetricsHandler(t)

	// An event outside the mapping is ignored without error
	event := identity.NewOrganizationCreatedEvent(uuid.New(), "Acme Support")
	assert.NoError(t, h.Handle(context.Background(), event))
}
