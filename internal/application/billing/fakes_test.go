package billing

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/toneforge/backend/internal/domain/billing"
	"github.com/toneforge/backend/internal/domain/identity"
	"github.com/toneforge/backend/internal/domain/shared"
)

type fakeOrgRepo struct {
	mu   sync.RWMutex
	orgs map[uuid.UUID]*identity.Organization
}

func newFakeOrgRepo() *fakeOrgRepo {
	return &fakeOrgRepo{orgs: make(map[uuid.UUID]*identity.Organization)}
}

func (r *fakeOrgRepo) Save(_ context.Context, org *identity.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orgs[org.ID] = org
	return nil
}

func (r *fakeOrgRepo) Update(ctx context.Context, org *identity.Organization) error {
	return r.Save(ctx, org)
}

func (r *fakeOrgRepo) FindByID(_ context.Context, id uuid.UUID) (*identity.Organization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	org, ok := r.orgs[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return org, nil
}

func (r *fakeOrgRepo) FindByStripeCustomerID(_ context.Context, customerID string) (*identity.Organization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, org := range r.orgs {
		if org.StripeCustomerID == customerID {
			return org, nil
		}
	}
	return nil, shared.ErrNotFound
}

type fakeSubRepo struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]*billing.Subscription
}

func newFakeSubRepo() *fakeSubRepo {
	return &fakeSubRepo{subs: make(map[uuid.UUID]*billing.Subscription)}
}

func (r *fakeSubRepo) Save(_ context.Context, sub *billing.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[sub.OrgID] = sub
	return nil
}

func (r *fakeSubRepo) FindByOrgID(_ context.Context, orgID uuid.UUID) (*billing.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.subs[orgID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return sub, nil
}

func (r *fakeSubRepo) FindByStripeSubscriptionID(_ context.Context, stripeID string) (*billing.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, sub := range r.subs {
		if sub.StripeSubscriptionID == stripeID {
			return sub, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeSubRepo) DeleteByOrgID(_ context.Context, orgID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[orgID]; !ok {
		return shared.ErrNotFound
	}
	delete(r.subs, orgID)
	return nil
}

// fakeUsageRepo mirrors the transactional counter semantics in memory:
// the mutex stands in for the row lock.
type fakeUsageRepo struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newFakeUsageRepo() *fakeUsageRepo {
	return &fakeUsageRepo{counts: make(map[string]int64)}
}

func usageKey(orgID uuid.UUID, period string) string {
	return orgID.String() + "|" + period
}

func (r *fakeUsageRepo) ConsumeOne(_ context.Context, orgID uuid.UUID, period string, limit int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := usageKey(orgID, period)
	current := r.counts[key]
	if limit != billing.Unlimited && current >= limit {
		return 0, &billing.QuotaExceededError{Used: current, Limit: limit, Period: period}
	}
	r.counts[key] = current + 1
	return current + 1, nil
}

func (r *fakeUsageRepo) CurrentCount(_ context.Context, orgID uuid.UUID, period string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[usageKey(orgID, period)], nil
}

type fakeFeatureCounter struct {
	mu     sync.RWMutex
	counts map[billing.Feature]int64
}

func newFakeFeatureCounter() *fakeFeatureCounter {
	return &fakeFeatureCounter{counts: make(map[billing.Feature]int64)}
}

func (c *fakeFeatureCounter) set(feature billing.Feature, count int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[feature] = count
}

func (c *fakeFeatureCounter) Count(_ context.Context, _ uuid.UUID, feature billing.Feature) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counts[feature], nil
}

type fakeProcessedRepo struct {
	mu   sync.Mutex
	seen map[string]string
}

func newFakeProcessedRepo() *fakeProcessedRepo {
	return &fakeProcessedRepo{seen: make(map[string]string)}
}

func (r *fakeProcessedRepo) IsProcessed(_ context.Context, eventID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.seen[eventID]
	return ok, nil
}

func (r *fakeProcessedRepo) MarkProcessed(_ context.Context, eventID, eventType string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[eventID]; ok {
		return true, nil
	}
	r.seen[eventID] = eventType
	return false, nil
}

// capturingBus records published events for assertions
type capturingBus struct {
	mu        sync.Mutex
	published []shared.DomainEvent
}

func (b *capturingBus) Publish(_ context.Context, events ...shared.DomainEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, events...)
	return nil
}

func (b *capturingBus) events() []shared.DomainEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]shared.DomainEvent, len(b.published))
	copy(out, b.published)
	return out
}

func newOrgID() uuid.UUID {
	return uuid.New()
}

var (
	_ identity.OrganizationRepository  = (*fakeOrgRepo)(nil)
	_ shared.EventPublisher            = (*capturingBus)(nil)
	_ billing.SubscriptionRepository   = (*fakeSubRepo)(nil)
	_ billing.ReplyUsageRepository     = (*fakeUsageRepo)(nil)
	_ billing.FeatureCounter           = (*fakeFeatureCounter)(nil)
	_ billing.ProcessedEventRepository = (*fakeProcessedRepo)(nil)
)
