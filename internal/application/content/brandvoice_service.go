package content

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	appbilling "github.com/toneforge/backend/internal/application/billing"
	"github.com/toneforge/backend/internal/domain/billing"
	"github.com/toneforge/backend/internal/domain/content"
	"github.com/toneforge/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// BrandVoiceService manages brand voices with plan-based capacity limits
type BrandVoiceService struct {
	voiceRepo content.BrandVoiceRepository
	gate      *appbilling.FeatureGate
	logger    *zap.Logger
}

// NewBrandVoiceService creates a brand voice service
func NewBrandVoiceService(voiceRepo content.BrandVoiceRepository, gate *appbilling.FeatureGate, logger *zap.Logger) *BrandVoiceService {
	return &BrandVoiceService{
		voiceRepo: voiceRepo,
		gate:      gate,
		logger:    logger,
	}
}

// BrandVoiceInput contains brand voice creation and update data
type BrandVoiceInput struct {
	Name        string `json:"name" binding:"required,max=120"`
	Description string `json:"description" binding:"omitempty,max=2000"`
	ToneNotes   string `json:"tone_notes" binding:"omitempty,max=4000"`
}

// Create adds a brand voice after checking the plan's capacity
func (s *BrandVoiceService) Create(ctx context.Context, orgID uuid.UUID, input BrandVoiceInput) (*content.BrandVoice, error) {
	if _, err := s.gate.Enforce(ctx, orgID, billing.FeatureBrandVoiceCount); err != nil {
		return nil, err
	}

	voice, err := content.NewBrandVoice(orgID, input.Name, input.Description, input.ToneNotes)
	if err != nil {
		return nil, err
	}

	if err := s.voiceRepo.Save(ctx, voice); err != nil {
		return nil, fmt.Errorf("failed to save brand voice: %w", err)
	}

	s.logger.Info("Brand voice created",
		zap.String("org_id", orgID.String()),
		zap.String("brand_voice_id", voice.ID.String()))
	return voice, nil
}

// Get returns one brand voice scoped to the organization
func (s *BrandVoiceService) Get(ctx context.Context, orgID, id uuid.UUID) (*content.BrandVoice, error) {
	return s.voiceRepo.FindByID(ctx, orgID, id)
}

// List returns a page of the organization's brand voices
func (s *BrandVoiceService) List(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (*shared.Paginated[*content.BrandVoice], error) {
	voices, total, err := s.voiceRepo.ListByOrg(ctx, orgID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list brand voices: %w", err)
	}
	page := shared.NewPaginated(voices, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Update replaces a brand voice's content
func (s *BrandVoiceService) Update(ctx context.Context, orgID, id uuid.UUID, input BrandVoiceInput) (*content.BrandVoice, error) {
	voice, err := s.voiceRepo.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	if err := voice.UpdateContent(input.Name, input.Description, input.ToneNotes); err != nil {
		return nil, err
	}

	if err := s.voiceRepo.Update(ctx, voice); err != nil {
		return nil, fmt.Errorf("failed to update brand voice: %w", err)
	}
	return voice, nil
}

// Delete removes a brand voice
func (s *BrandVoiceService) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	if err := s.voiceRepo.Delete(ctx, orgID, id); err != nil {
		return err
	}
	s.logger.Info("Brand voice deleted",
		zap.String("org_id", orgID.String()),
		zap.String("brand_voice_id", id.String()))
	return nil
}
