package content

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	appbilling "github.com/toneforge/backend/internal/application/billing"
	"github.com/toneforge/backend/internal/domain/billing"
	"github.com/toneforge/backend/internal/domain/content"
	"github.com/toneforge/backend/internal/domain/shared"
	"github.com/toneforge/backend/internal/infrastructure/ai"
	"github.com/toneforge/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Generator produces reply drafts. Satisfied by the chat completions client.
type Generator interface {
	Complete(ctx context.Context, messages []ai.ChatMessage) (*ai.Completion, error)
	Model() string
}

// ReplyService generates and lists support reply drafts
type ReplyService struct {
	replyRepo    content.ReplyRepository
	templateRepo content.TemplateRepository
	voiceRepo    content.BrandVoiceRepository
	usage        *appbilling.UsageService
	gate         *appbilling.FeatureGate
	generator    Generator
	prompts      *PromptBuilder
	logger       *zap.Logger
}

// NewReplyService creates a reply service
func NewReplyService(
	replyRepo content.ReplyRepository,
	templateRepo content.TemplateRepository,
	voiceRepo content.BrandVoiceRepository,
	usage *appbilling.UsageService,
	gate *appbilling.FeatureGate,
	generator Generator,
	logger *zap.Logger,
) *ReplyService {
	return &ReplyService{
		replyRepo:    replyRepo,
		templateRepo: templateRepo,
		voiceRepo:    voiceRepo,
		usage:        usage,
		gate:         gate,
		generator:    generator,
		prompts:      NewPromptBuilder(),
		logger:       logger,
	}
}

// GenerateInput contains a reply generation request
type GenerateInput struct {
	CustomerMessage string     `json:"customer_message" binding:"required,max=8000"`
	Tone            string     `json:"tone" binding:"omitempty,oneof=formal friendly short"`
	Language        string     `json:"language" binding:"omitempty,max=16"`
	TemplateID      *uuid.UUID `json:"template_id"`
	BrandVoiceID    *uuid.UUID `json:"brand_voice_id"`
}

// GenerateResult is the draft plus the usage state after consumption
type GenerateResult struct {
	Reply *content.Reply            `json:"reply"`
	Usage *billing.UsageConsumption `json:"usage"`
}

// Generate consumes one quota slot, renders the prompt and stores the
// generated draft. The slot is consumed before the model call so a burst of
// requests can never overshoot the monthly quota.
func (s *ReplyService) Generate(ctx context.Context, orgID, userID uuid.UUID, input GenerateInput) (*GenerateResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "reply.generate")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrOrgID, orgID)

	consumption, err := s.usage.ConsumeOne(ctx, orgID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrPeriod, consumption.Period)

	var template *content.Template
	if input.TemplateID != nil {
		template, err = s.templateRepo.FindByID(ctx, orgID, *input.TemplateID)
		if err != nil {
			return nil, err
		}
	}

	var voice *content.BrandVoice
	if input.BrandVoiceID != nil {
		voice, err = s.voiceRepo.FindByID(ctx, orgID, *input.BrandVoiceID)
		if err != nil {
			return nil, err
		}
	}

	tone := content.ParseTone(input.Tone)
	_, languageName := MatchLanguage(input.Language)

	messages := s.prompts.Build(PromptInput{
		CustomerMessage: input.CustomerMessage,
		Tone:            tone,
		Language:        input.Language,
		Template:        template,
		BrandVoice:      voice,
	})

	// The model call dominates this path; labeled so its CPU samples are
	// separable in the profiler
	var completion *ai.Completion
	telemetry.WithProfilingLabels(ctx, telemetry.GenerationLabels(orgID.String(), ""), func(c context.Context) {
		completion, err = s.generator.Complete(c, messages)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Reply generation failed",
			zap.String("org_id", orgID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("reply generation failed: %w", err)
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrModel, completion.Model)

	reply, err := content.NewReply(orgID, userID, input.CustomerMessage, completion.Text, tone)
	if err != nil {
		return nil, err
	}
	reply.WithSources(input.TemplateID, input.BrandVoiceID).
		WithGeneration(completion.Model, languageName)

	if err := s.replyRepo.Save(ctx, reply); err != nil {
		return nil, fmt.Errorf("failed to save reply: %w", err)
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrReplyID, reply.ID)
	telemetry.SetOK(span)

	s.logger.Info("Reply generated",
		zap.String("org_id", orgID.String()),
		zap.String("reply_id", reply.ID.String()),
		zap.String("tone", tone.String()),
		zap.Int64("used", consumption.UsedAfter),
		zap.Int64("limit", consumption.Limit))

	return &GenerateResult{Reply: reply, Usage: consumption}, nil
}

// Get returns one reply scoped to the organization
func (s *ReplyService) Get(ctx context.Context, orgID, id uuid.UUID) (*content.Reply, error) {
	return s.replyRepo.FindByID(ctx, orgID, id)
}

// History returns a page of past replies, bounded by the plan's retention
// window. Premium history is unbounded.
func (s *ReplyService) History(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (*shared.Paginated[*content.Reply], error) {
	cutoff, err := s.gate.HistoryCutoff(ctx, orgID)
	if err != nil {
		return nil, err
	}

	replies, total, err := s.replyRepo.ListByOrg(ctx, orgID, cutoff, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}

	page := shared.NewPaginated(replies, total, filter.Page, filter.PageSize)
	return &page, nil
}
