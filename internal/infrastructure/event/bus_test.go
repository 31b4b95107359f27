package event

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toneforge/backend/internal/domain/billing"
	"github.com/toneforge/backend/internal/domain/shared"
	"go.uber.org/zap"
)

type recordingHandler struct {
	types    []string
	received []shared.DomainEvent
	fail     bool
}

func (h *recordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.received = append(h.received, event)
	if h.fail {
		return errors.New("handler failure")
	}
	return nil
}

func (h *recordingHandler) EventTypes() []string {
	return h.types
}

func TestInMemoryEventBus_PublishToSubscriber(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	require.NoError(t, bus.Start(context.Background()))
	defer func() { _ = bus.Stop(context.Background()) }()

	handler := &recordingHandler{types: []string{"billing.quota_exceeded"}}
	bus.Subscribe(handler)

	orgID := uuid.New()
	event := billing.NewQuotaExceededEvent(orgID, "2026-08", 20)
	require.NoError(t, bus.Publish(context.Background(), event))

	require.Len(t, handler.received, 1)
	assert.Equal(t, "billing.quota_exceeded", handler.received[0].EventType())
	assert.Equal(t, orgID, handler.received[0].OrgID())
}

func TestInMemoryEventBus_TypeFiltering(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	quotaHandler := &recordingHandler{types: []string{"billing.quota_exceeded"}}
	subHandler := &recordingHandler{types: []string{"billing.subscription_changed"}}
	bus.Subscribe(quotaHandler)
	bus.Subscribe(subHandler)

	event := billing.NewQuotaExceededEvent(uuid.New(), "2026-08", 500)
	require.NoError(t, bus.Publish(context.Background(), event))

	assert.Len(t, quotaHandler.received, 1)
	assert.Empty(t, subHandler.received)
}

func TestInMemoryEventBus_WildcardHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	wildcard := &recordingHandler{}
	bus.Subscribe(wildcard)

	require.NoError(t, bus.Publish(context.Background(),
		billing.NewQuotaExceededEvent(uuid.New(), "2026-08", 20),
		billing.NewSubscriptionChangedEvent(uuid.New(), "updated", "sub_123", billing.PlanPro),
	))

	assert.Len(t, wildcard.received, 2)
}

func TestInMemoryEventBus_FailingHandlerDoesNotBlockOthers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	failing := &recordingHandler{types: []string{"billing.quota_exceeded"}, fail: true}
	healthy := &recordingHandler{types: []string{"billing.quota_exceeded"}}
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(context.Background(),
		billing.NewQuotaExceededEvent(uuid.New(), "2026-08", 20)))

	assert.Len(t, failing.received, 1)
	assert.Len(t, healthy.received, 1)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	handler := &recordingHandler{types: []string{"billing.quota_exceeded"}}
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	require.NoError(t, bus.Publish(context.Background(),
		billing.NewQuotaExceededEvent(uuid.New(), "2026-08", 20)))

	assert.Empty(t, handler.received)
}
