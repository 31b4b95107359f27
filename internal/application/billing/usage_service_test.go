package billing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toneforge/backend/internal/domain/billing"
	"github.com/toneforge/backend/internal/domain/identity"
	"github.com/toneforge/backend/internal/domain/shared"
	"go.uber.org/zap"
)

var testClock = shared.FixedClock{Time: time.Date(2026, 8, 15, 10, 30, 0, 0, time.UTC)}

type usageFixture struct {
	orgRepo   *fakeOrgRepo
	subRepo   *fakeSubRepo
	usageRepo *fakeUsageRepo
	service   *UsageService
}

func newUsageFixture(t *testing.T) *usageFixture {
	t.Helper()
	orgRepo := newFakeOrgRepo()
	subRepo := newFakeSubRepo()
	usageRepo := newFakeUsageRepo()
	resolver := NewPlanResolver(orgRepo, subRepo)
	service := NewUsageService(resolver, usageRepo, nil, testClock, zap.NewNop())
	return &usageFixture{
		orgRepo:   orgRepo,
		subRepo:   subRepo,
		usageRepo: usageRepo,
		service:   service,
	}
}

func (f *usageFixture) seedOrg(t *testing.T, plan billing.PlanCode) *identity.Organization {
	t.Helper()
	org, err := identity.NewOrganization("Acme Support")
	require.NoError(t, err)
	org.SetPlan(plan)
	require.NoError(t, f.orgRepo.Save(context.Background(), org))
	return org
}

func (f *usageFixture) seedSubscription(t *testing.T, org *identity.Organization, plan billing.PlanCode, status billing.SubscriptionStatus) {
	t.Helper()
	sub, err := billing.NewSubscription(org.ID, "sub_test_123", plan, status)
	require.NoError(t, err)
	require.NoError(t, f.subRepo.Save(context.Background(), sub))
}

func TestUsageService_ConsumeOne_FreePlan(t *testing.T) {
	f := newUsageFixture(t)
	org := f.seedOrg(t, billing.PlanFree)

	result, err := f.service.ConsumeOne(context.Background(), org.ID)
	require.NoError(t, err)

	assert.Equal(t, "2026-08", result.Period)
	assert.Equal(t, int64(1), result.UsedAfter)
	assert.Equal(t, int64(20), result.Limit)
	assert.Equal(t, int64(19), result.Remaining)
}

func TestUsageService_ConsumeOne_PlanQuotas(t *testing.T) {
	tests := []struct {
		name     string
		plan     billing.PlanCode
		expected int64
	}{
		{"free plan", billing.PlanFree, 20},
		{"pro plan", billing.PlanPro, 500},
		{"premium plan", billing.PlanPremium, 2000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newUsageFixture(t)
			org := f.seedOrg(t, tt.plan)
			if tt.plan.IsPaid() {
				f.seedSubscription(t, org, tt.plan, billing.SubscriptionStatusActive)
			}

			result, err := f.service.ConsumeOne(context.Background(), org.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result.Limit)
		})
	}
}

func TestUsageService_ConsumeOne_UnknownPlanTreatedAsFree(t *testing.T) {
	f := newUsageFixture(t)
	org := f.seedOrg(t, billing.PlanCode("ENTERPRISE"))

	result, err := f.service.ConsumeOne(context.Background(), org.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), result.Limit)
}

func TestUsageService_ConsumeOne_OrgNotFound(t *testing.T) {
	f := newUsageFixture(t)

	_, err := f.service.ConsumeOne(context.Background(), newOrgID())
	var notFound *billing.OrgNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestUsageService_ConsumeOne_PaidPlanWithoutSubscription(t *testing.T) {
	f := newUsageFixture(t)
	org := f.seedOrg(t, billing.PlanPro)

	_, err := f.service.ConsumeOne(context.Background(), org.ID)
	var inactive *billing.SubscriptionInactiveError
	require.ErrorAs(t, err, &inactive)
	assert.Equal(t, billing.PlanPro, inactive.PlanCode)

	used, err := f.usageRepo.CurrentCount(context.Background(), org.ID, "2026-08")
	require.NoError(t, err)
	assert.Equal(t, int64(0), used, "rejected consumption must not increment the counter")
}

func TestUsageService_ConsumeOne_PaidPlanWithLapsedSubscription(t *testing.T) {
	f := newUsageFixture(t)
	org := f.seedOrg(t, billing.PlanPro)
	f.seedSubscription(t, org, billing.PlanPro, billing.SubscriptionStatusPastDue)

	_, err := f.service.ConsumeOne(context.Background(), org.ID)
	var inactive *billing.SubscriptionInactiveError
	require.ErrorAs(t, err, &inactive)
}

func TestUsageService_ConsumeOne_TrialingSubscriptionEntitles(t *testing.T) {
	f := newUsageFixture(t)
	org := f.seedOrg(t, billing.PlanPremium)
	f.seedSubscription(t, org, billing.PlanPremium, billing.SubscriptionStatusTrialing)

	result, err := f.service.ConsumeOne(context.Background(), org.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), result.Limit)
}

func TestUsageService_ConsumeOne_QuotaExhausted(t *testing.T) {
	f := newUsageFixture(t)
	org := f.seedOrg(t, billing.PlanFree)

	for i := 0; i < 20; i++ {
		_, err := f.service.ConsumeOne(context.Background(), org.ID)
		require.NoError(t, err)
	}

	_, err := f.service.ConsumeOne(context.Background(), org.ID)
	var quota *billing.QuotaExceededError
	require.ErrorAs(t, err, &quota)
	assert.Equal(t, int64(20), quota.Used)
	assert.Equal(t, int64(20), quota.Limit)
	assert.Equal(t, "2026-08", quota.Period)
}

func TestUsageService_ConsumeOne_PublishesQuotaExceededEvent(t *testing.T) {
	f := newUsageFixture(t)
	org := f.seedOrg(t, billing.PlanFree)

	bus := &capturingBus{}
	f.service.eventBus = bus

	for i := 0; i < 20; i++ {
		_, err := f.service.ConsumeOne(context.Background(), org.ID)
		require.NoError(t, err)
	}
	require.Empty(t, bus.events())

	_, err := f.service.ConsumeOne(context.Background(), org.ID)
	require.Error(t, err)

	published := bus.events()
	require.Len(t, published, 1)
	assert.Equal(t, billing.EventTypeQuotaExceeded, published[0].EventType())
}

func TestUsageService_ConsumeOne_ConcurrentRequestsRespectLimit(t *testing.T) {
	f := newUsageFixture(t)
	org := f.seedOrg(t, billing.PlanFree)

	const workers = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	rejections := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.ConsumeOne(context.Background(), org.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			var quota *billing.QuotaExceededError
			if errors.As(err, &quota) {
				rejections++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, successes, "exactly the quota's worth of requests succeed")
	assert.Equal(t, workers-20, rejections)

	used, err := f.usageRepo.CurrentCount(context.Background(), org.ID, "2026-08")
	require.NoError(t, err)
	assert.Equal(t, int64(20), used)
}

func TestUsageService_Snapshot(t *testing.T) {
	f := newUsageFixture(t)
	org := f.seedOrg(t, billing.PlanFree)

	snap, err := f.service.Snapshot(context.Background(), org.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-08", snap.Period)
	assert.Equal(t, int64(0), snap.Used)
	assert.Equal(t, int64(20), snap.Limit)
	assert.Equal(t, int64(20), snap.Remaining)
	assert.Equal(t, billing.PlanFree, snap.PlanCode)

	for i := 0; i < 3; i++ {
		_, err := f.service.ConsumeOne(context.Background(), org.ID)
		require.NoError(t, err)
	}

	snap, err = f.service.Snapshot(context.Background(), org.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), snap.Used)
	assert.Equal(t, int64(17), snap.Remaining)
}

func TestUsageService_Snapshot_DoesNotConsume(t *testing.T) {
	f := newUsageFixture(t)
	org := f.seedOrg(t, billing.PlanFree)

	for i := 0; i < 5; i++ {
		_, err := f.service.Snapshot(context.Background(), org.ID)
		require.NoError(t, err)
	}

	used, err := f.usageRepo.CurrentCount(context.Background(), org.ID, "2026-08")
	require.NoError(t, err)
	assert.Equal(t, int64(0), used)
}

func TestUsageService_PeriodFollowsClock(t *testing.T) {
	f := newUsageFixture(t)
	org := f.seedOrg(t, billing.PlanFree)

	// Fill the August quota
	for i := 0; i < 20; i++ {
		_, err := f.service.ConsumeOne(context.Background(), org.ID)
		require.NoError(t, err)
	}
	_, err := f.service.ConsumeOne(context.Background(), org.ID)
	require.Error(t, err)

	// A new month starts a fresh counter
	f.service.clock = shared.FixedClock{Time: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)}
	result, err := f.service.ConsumeOne(context.Background(), org.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-09", result.Period)
	assert.Equal(t, int64(1), result.UsedAfter)
}
