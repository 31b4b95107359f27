package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"github.com/toneforge/backend/internal/domain/billing"
	"github.com/toneforge/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

func newTestAdapter(t *testing.T) *StripeAdapter {
	t.Helper()
	adapter, err := NewStripeAdapter(config.StripeConfig{
		SecretKey:      "sk_test_dummy",
		WebhookSecret:  "whsec_dummy",
		PriceIDPro:     "price_pro_monthly",
		PriceIDPremium: "price_premium_monthly",
	}, zap.NewNop())
	require.NoError(t, err)
	return adapter
}

func TestNewStripeAdapter_RequiresSecretKey(t *testing.T) {
	_, err := NewStripeAdapter(config.StripeConfig{}, zap.NewNop())
	assert.Error(t, err)
}

func TestPriceIDForPlan(t *testing.T) {
	adapter := newTestAdapter(t)

	tests := []struct {
		name    string
		plan    billing.PlanCode
		want    string
		wantErr bool
	}{
		{"pro plan resolves", billing.PlanPro, "price_pro_monthly", false},
		{"premium plan resolves", billing.PlanPremium, "price_premium_monthly", false},
		{"free plan has no price", billing.PlanFree, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := adapter.PriceIDForPlan(tt.plan)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPriceIDForPlan_UnconfiguredPrice(t *testing.T) {
	adapter, err := NewStripeAdapter(config.StripeConfig{
		SecretKey:  "sk_test_dummy",
		PriceIDPro: "price_pro_monthly",
	}, zap.NewNop())
	require.NoError(t, err)

	_, err = adapter.PriceIDForPlan(billing.PlanPremium)
	assert.Error(t, err)
}

func TestPlanForPriceID(t *testing.T) {
	adapter := newTestAdapter(t)

	assert.Equal(t, billing.PlanPro, adapter.PlanForPriceID("price_pro_monthly"))
	assert.Equal(t, billing.PlanPremium, adapter.PlanForPriceID("price_premium_monthly"))
	assert.Equal(t, billing.PlanFree, adapter.PlanForPriceID("price_unknown"))
	assert.Equal(t, billing.PlanFree, adapter.PlanForPriceID(""))
}

func TestMapSubscriptionStatus(t *testing.T) {
	tests := []struct {
		stripeStatus stripe.SubscriptionStatus
		want         billing.SubscriptionStatus
	}{
		{stripe.SubscriptionStatusActive, billing.SubscriptionStatusActive},
		{stripe.SubscriptionStatusTrialing, billing.SubscriptionStatusTrialing},
		{stripe.SubscriptionStatusPastDue, billing.SubscriptionStatusPastDue},
		{stripe.SubscriptionStatusCanceled, billing.SubscriptionStatusCanceled},
		{stripe.SubscriptionStatusIncompleteExpired, billing.SubscriptionStatusCanceled},
		{stripe.SubscriptionStatusIncomplete, billing.SubscriptionStatusIncomplete},
		{stripe.SubscriptionStatusUnpaid, billing.SubscriptionStatusUnpaid},
	}

	for _, tt := range tests {
		t.Run(string(tt.stripeStatus), func(t *testing.T) {
			assert.Equal(t, tt.want, MapSubscriptionStatus(tt.stripeStatus))
		})
	}
}

func TestMapSubscriptionStatus_EntitlementBoundary(t *testing.T) {
	// Only active and trialing grant paid features
	assert.True(t, MapSubscriptionStatus(stripe.SubscriptionStatusActive).Entitles())
	assert.True(t, MapSubscriptionStatus(stripe.SubscriptionStatusTrialing).Entitles())
	assert.False(t, MapSubscriptionStatus(stripe.SubscriptionStatusPastDue).Entitles())
	assert.False(t, MapSubscriptionStatus(stripe.SubscriptionStatusCanceled).Entitles())
	assert.False(t, MapSubscriptionStatus(stripe.SubscriptionStatusUnpaid).Entitles())
}
