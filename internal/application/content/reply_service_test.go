package content

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appbilling "github.com/toneforge/backend/internal/application/billing"
	"github.com/toneforge/backend/internal/domain/billing"
	"github.com/toneforge/backend/internal/domain/content"
	"github.com/toneforge/backend/internal/domain/identity"
	"github.com/toneforge/backend/internal/domain/shared"
	"github.com/toneforge/backend/internal/infrastructure/ai"
	"go.uber.org/zap"
)

type memOrgRepo struct {
	mu   sync.RWMutex
	orgs map[uuid.UUID]*identity.Organization
}

func (r *memOrgRepo) Save(_ context.Context, org *identity.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orgs[org.ID] = org
	return nil
}

func (r *memOrgRepo) Update(ctx context.Context, org *identity.Organization) error {
	return r.Save(ctx, org)
}

func (r *memOrgRepo) FindByID(_ context.Context, id uuid.UUID) (*identity.Organization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	org, ok := r.orgs[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return org, nil
}

func (r *memOrgRepo) FindByStripeCustomerID(_ context.Context, _ string) (*identity.Organization, error) {
	return nil, shared.ErrNotFound
}

type memSubRepo struct{}

func (memSubRepo) Save(_ context.Context, _ *billing.Subscription) error { return nil }
func (memSubRepo) FindByOrgID(_ context.Context, _ uuid.UUID) (*billing.Subscription, error) {
	return nil, shared.ErrNotFound
}
func (memSubRepo) FindByStripeSubscriptionID(_ context.Context, _ string) (*billing.Subscription, error) {
	return nil, shared.ErrNotFound
}
func (memSubRepo) DeleteByOrgID(_ context.Context, _ uuid.UUID) error { return nil }

type memUsageRepo struct {
	mu     sync.Mutex
	counts map[string]int64
}

func (r *memUsageRepo) key(orgID uuid.UUID, period string) string {
	return orgID.String() + "|" + period
}

func (r *memUsageRepo) ConsumeOne(_ context.Context, orgID uuid.UUID, period string, limit int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current := r.counts[r.key(orgID, period)]
	if limit != billing.Unlimited && current >= limit {
		return 0, &billing.QuotaExceededError{Used: current, Limit: limit, Period: period}
	}
	r.counts[r.key(orgID, period)] = current + 1
	return current + 1, nil
}

func (r *memUsageRepo) CurrentCount(_ context.Context, orgID uuid.UUID, period string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[r.key(orgID, period)], nil
}

type memCounter struct{}

func (memCounter) Count(_ context.Context, _ uuid.UUID, _ billing.Feature) (int64, error) {
	return 0, nil
}

type memTemplateRepo struct {
	mu        sync.RWMutex
	templates map[uuid.UUID]*content.Template
}

func (r *memTemplateRepo) Save(_ context.Context, template *content.Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[template.ID] = template
	return nil
}

func (r *memTemplateRepo) Update(ctx context.Context, template *content.Template) error {
	return r.Save(ctx, template)
}

func (r *memTemplateRepo) Delete(_ context.Context, orgID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.templates[id]
	if !ok || t.OrgID != orgID {
		return shared.ErrNotFound
	}
	delete(r.templates, id)
	return nil
}

func (r *memTemplateRepo) FindByID(_ context.Context, orgID, id uuid.UUID) (*content.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[id]
	if !ok || t.OrgID != orgID {
		return nil, shared.ErrNotFound
	}
	return t, nil
}

func (r *memTemplateRepo) ListByOrg(_ context.Context, orgID uuid.UUID, _ shared.Filter) ([]*content.Template, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*content.Template
	for _, t := range r.templates {
		if t.OrgID == orgID {
			out = append(out, t)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memTemplateRepo) CountByOrg(_ context.Context, orgID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, t := range r.templates {
		if t.OrgID == orgID {
			n++
		}
	}
	return n, nil
}

type memVoiceRepo struct {
	mu     sync.RWMutex
	voices map[uuid.UUID]*content.BrandVoice
}

func (r *memVoiceRepo) Save(_ context.Context, voice *content.BrandVoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.voices[voice.ID] = voice
	return nil
}

func (r *memVoiceRepo) Update(ctx context.Context, voice *content.BrandVoice) error {
	return r.Save(ctx, voice)
}

func (r *memVoiceRepo) Delete(_ context.Context, orgID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.voices[id]
	if !ok || v.OrgID != orgID {
		return shared.ErrNotFound
	}
	delete(r.voices, id)
	return nil
}

func (r *memVoiceRepo) FindByID(_ context.Context, orgID, id uuid.UUID) (*content.BrandVoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.voices[id]
	if !ok || v.OrgID != orgID {
		return nil, shared.ErrNotFound
	}
	return v, nil
}

func (r *memVoiceRepo) ListByOrg(_ context.Context, orgID uuid.UUID, _ shared.Filter) ([]*content.BrandVoice, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*content.BrandVoice
	for _, v := range r.voices {
		if v.OrgID == orgID {
			out = append(out, v)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memVoiceRepo) CountByOrg(_ context.Context, orgID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, v := range r.voices {
		if v.OrgID == orgID {
			n++
		}
	}
	return n, nil
}

type memReplyRepo struct {
	mu      sync.RWMutex
	replies []*content.Reply
}

func (r *memReplyRepo) Save(_ context.Context, reply *content.Reply) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, reply)
	return nil
}

func (r *memReplyRepo) FindByID(_ context.Context, orgID, id uuid.UUID) (*content.Reply, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, reply := range r.replies {
		if reply.ID == id && reply.OrgID == orgID {
			return reply, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memReplyRepo) ListByOrg(_ context.Context, orgID uuid.UUID, since *time.Time, _ shared.Filter) ([]*content.Reply, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*content.Reply
	for _, reply := range r.replies {
		if reply.OrgID != orgID {
			continue
		}
		if since != nil && reply.CreatedAt.Before(*since) {
			continue
		}
		out = append(out, reply)
	}
	return out, int64(len(out)), nil
}

func (r *memReplyRepo) CountByDaySince(_ context.Context, _ uuid.UUID, _ time.Time) ([]content.DailyReplyCount, error) {
	return nil, nil
}

func (r *memReplyRepo) CountByToneSince(_ context.Context, _ uuid.UUID, _ time.Time) ([]content.ToneCount, error) {
	return nil, nil
}

func (r *memReplyRepo) CountSince(_ context.Context, orgID uuid.UUID, _ time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, reply := range r.replies {
		if reply.OrgID == orgID {
			n++
		}
	}
	return n, nil
}

type stubGenerator struct {
	mu       sync.Mutex
	requests [][]ai.ChatMessage
	text     string
	err      error
}

func (g *stubGenerator) Complete(_ context.Context, messages []ai.ChatMessage) (*ai.Completion, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, messages)
	if g.err != nil {
		return nil, g.err
	}
	return &ai.Completion{Text: g.text, Model: "test-model"}, nil
}

func (g *stubGenerator) Model() string { return "test-model" }

var (
	_ content.TemplateRepository   = (*memTemplateRepo)(nil)
	_ content.BrandVoiceRepository = (*memVoiceRepo)(nil)
	_ content.ReplyRepository      = (*memReplyRepo)(nil)
	_ Generator                    = (*stubGenerator)(nil)
)

type replyFixture struct {
	orgRepo      *memOrgRepo
	usageRepo    *memUsageRepo
	templateRepo *memTemplateRepo
	voiceRepo    *memVoiceRepo
	replyRepo    *memReplyRepo
	generator    *stubGenerator
	service      *ReplyService
}

func newReplyFixture(t *testing.T) *replyFixture {
	t.Helper()
	orgRepo := &memOrgRepo{orgs: make(map[uuid.UUID]*identity.Organization)}
	usageRepo := &memUsageRepo{counts: make(map[string]int64)}
	templateRepo := &memTemplateRepo{templates: make(map[uuid.UUID]*content.Template)}
	voiceRepo := &memVoiceRepo{voices: make(map[uuid.UUID]*content.BrandVoice)}
	replyRepo := &memReplyRepo{}
	generator := &stubGenerator{text: "Thanks for reaching out. Your refund is on its way."}

	clock := shared.FixedClock{Time: time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)}
	resolver := appbilling.NewPlanResolver(orgRepo, memSubRepo{})
	usage := appbilling.NewUsageService(resolver, usageRepo, nil, clock, zap.NewNop())
	gate := appbilling.NewFeatureGate(resolver, memCounter{}, clock, zap.NewNop())

	service := NewReplyService(replyRepo, templateRepo, voiceRepo, usage, gate, generator, zap.NewNop())
	return &replyFixture{
		orgRepo:      orgRepo,
		usageRepo:    usageRepo,
		templateRepo: templateRepo,
		voiceRepo:    voiceRepo,
		replyRepo:    replyRepo,
		generator:    generator,
		service:      service,
	}
}

func (f *replyFixture) seedOrg(t *testing.T) *identity.Organization {
	t.Helper()
	org, err := identity.NewOrganization("Acme Support")
	require.NoError(t, err)
	require.NoError(t, f.orgRepo.Save(context.Background(), org))
	return org
}

func TestReplyService_Generate(t *testing.T) {
	f := newReplyFixture(t)
	org := f.seedOrg(t)
	userID := uuid.New()

	result, err := f.service.Generate(context.Background(), org.ID, userID, GenerateInput{
		CustomerMessage: "Where is my refund?",
		Tone:            "formal",
	})
	require.NoError(t, err)

	assert.Equal(t, "Thanks for reaching out. Your refund is on its way.", result.Reply.DraftReply)
	assert.Equal(t, content.ToneFormal, result.Reply.Tone)
	assert.Equal(t, "test-model", result.Reply.Model)
	assert.Equal(t, int64(1), result.Usage.UsedAfter)
	assert.Equal(t, "2026-08", result.Usage.Period)

	stored, err := f.replyRepo.FindByID(context.Background(), org.ID, result.Reply.ID)
	require.NoError(t, err)
	assert.Equal(t, userID, stored.UserID)
}

func TestReplyService_Generate_WithTemplateAndVoice(t *testing.T) {
	f := newReplyFixture(t)
	org := f.seedOrg(t)

	template, err := content.NewTemplate(org.ID, "Refund", "Refund template body", "en")
	require.NoError(t, err)
	require.NoError(t, f.templateRepo.Save(context.Background(), template))

	voice, err := content.NewBrandVoice(org.ID, "Default", "Handmade goods shop", "Warm.")
	require.NoError(t, err)
	require.NoError(t, f.voiceRepo.Save(context.Background(), voice))

	result, err := f.service.Generate(context.Background(), org.ID, uuid.New(), GenerateInput{
		CustomerMessage: "Where is my refund?",
		TemplateID:      &template.ID,
		BrandVoiceID:    &voice.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, &template.ID, result.Reply.TemplateID)
	assert.Equal(t, &voice.ID, result.Reply.BrandVoiceID)

	require.Len(t, f.generator.requests, 1)
	prompt := f.generator.requests[0][1].Content
	assert.Contains(t, prompt, "Refund template body")
	assert.Contains(t, prompt, "Warm.")
}

func TestReplyService_Generate_ForeignTemplateRejected(t *testing.T) {
	f := newReplyFixture(t)
	org := f.seedOrg(t)
	other := f.seedOrg(t)

	template, err := content.NewTemplate(other.ID, "Theirs", "Not your template", "")
	require.NoError(t, err)
	require.NoError(t, f.templateRepo.Save(context.Background(), template))

	_, err = f.service.Generate(context.Background(), org.ID, uuid.New(), GenerateInput{
		CustomerMessage: "Hello",
		TemplateID:      &template.ID,
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestReplyService_Generate_QuotaExhausted(t *testing.T) {
	f := newReplyFixture(t)
	org := f.seedOrg(t)

	for i := 0; i < 20; i++ {
		_, err := f.service.Generate(context.Background(), org.ID, uuid.New(), GenerateInput{
			CustomerMessage: "Hello",
		})
		require.NoError(t, err)
	}

	_, err := f.service.Generate(context.Background(), org.ID, uuid.New(), GenerateInput{
		CustomerMessage: "One more",
	})
	var quota *billing.QuotaExceededError
	require.ErrorAs(t, err, &quota)

	// The model is never called for a rejected request
	assert.Len(t, f.generator.requests, 20)
}

func TestReplyService_Generate_GeneratorFailure(t *testing.T) {
	f := newReplyFixture(t)
	org := f.seedOrg(t)
	f.generator.err = errors.New("upstream unavailable")

	_, err := f.service.Generate(context.Background(), org.ID, uuid.New(), GenerateInput{
		CustomerMessage: "Hello",
	})
	require.Error(t, err)

	count, err := f.replyRepo.CountSince(context.Background(), org.ID, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), count, "failed generations are not stored")
}

func TestReplyService_History_AppliesRetentionCutoff(t *testing.T) {
	f := newReplyFixture(t)
	org := f.seedOrg(t)

	old, err := content.NewReply(org.ID, uuid.New(), "Old question", "Old answer", content.ToneFriendly)
	require.NoError(t, err)
	old.CreatedAt = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.replyRepo.Save(context.Background(), old))

	recent, err := content.NewReply(org.ID, uuid.New(), "New question", "New answer", content.ToneFriendly)
	require.NoError(t, err)
	recent.CreatedAt = time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.replyRepo.Save(context.Background(), recent))

	// Free plan retains 30 days from the fixed clock (2026-08-15)
	page, err := f.service.History(context.Background(), org.ID, shared.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, recent.ID, page.Items[0].ID)
}
