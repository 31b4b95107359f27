package content

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/toneforge/backend/internal/domain/shared"
)

// TemplateRepository persists reply templates
type TemplateRepository interface {
	Save(ctx context.Context, template *Template) error
	Update(ctx context.Context, template *Template) error
	Delete(ctx context.Context, orgID, id uuid.UUID) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*Template, error)
	ListByOrg(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]*Template, int64, error)
	CountByOrg(ctx context.Context, orgID uuid.UUID) (int64, error)
}

// BrandVoiceRepository persists brand voices
type BrandVoiceRepository interface {
	Save(ctx context.Context, voice *BrandVoice) error
	Update(ctx context.Context, voice *BrandVoice) error
	Delete(ctx context.Context, orgID, id uuid.UUID) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*BrandVoice, error)
	ListByOrg(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]*BrandVoice, int64, error)
	CountByOrg(ctx context.Context, orgID uuid.UUID) (int64, error)
}

// DailyReplyCount is one day of reply volume for analytics
type DailyReplyCount struct {
	Day   time.Time `json:"day"`
	Count int64     `json:"count"`
}

// ToneCount is reply volume per tone
type ToneCount struct {
	Tone  Tone  `json:"tone"`
	Count int64 `json:"count"`
}

// ReplyRepository persists generated replies
type ReplyRepository interface {
	Save(ctx context.Context, reply *Reply) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*Reply, error)
	// ListByOrg returns replies newest first. A non-nil since restricts the
	// window to replies created at or after that instant.
	ListByOrg(ctx context.Context, orgID uuid.UUID, since *time.Time, filter shared.Filter) ([]*Reply, int64, error)
	CountByDaySince(ctx context.Context, orgID uuid.UUID, since time.Time) ([]DailyReplyCount, error)
	CountByToneSince(ctx context.Context, orgID uuid.UUID, since time.Time) ([]ToneCount, error)
	CountSince(ctx context.Context, orgID uuid.UUID, since time.Time) (int64, error)
}

// FeedbackStats aggregates helpfulness feedback
type FeedbackStats struct {
	Total   int64 `json:"total"`
	Helpful int64 `json:"helpful"`
}

// FeedbackRepository persists reply feedback
type FeedbackRepository interface {
	Save(ctx context.Context, feedback *Feedback) error
	StatsByOrg(ctx context.Context, orgID uuid.UUID) (*FeedbackStats, error)
}
