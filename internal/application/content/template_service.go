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

// TemplateService manages reply templates with plan-based capacity limits
type TemplateService struct {
	templateRepo content.TemplateRepository
	gate         *appbilling.FeatureGate
	logger       *zap.Logger
}

// NewTemplateService creates a template service
func NewTemplateService(templateRepo content.TemplateRepository, gate *appbilling.FeatureGate, logger *zap.Logger) *TemplateService {
	return &TemplateService{
		templateRepo: templateRepo,
		gate:         gate,
		logger:       logger,
	}
}

// TemplateInput contains template creation and update data
type TemplateInput struct {
	Name     string `json:"name" binding:"required,max=120"`
	Body     string `json:"body" binding:"required,max=10000"`
	Language string `json:"language" binding:"omitempty,max=16"`
}

// Create adds a template after checking the plan's template capacity
func (s *TemplateService) Create(ctx context.Context, orgID uuid.UUID, input TemplateInput) (*content.Template, error) {
	if _, err := s.gate.Enforce(ctx, orgID, billing.FeatureTemplateCount); err != nil {
		return nil, err
	}

	template, err := content.NewTemplate(orgID, input.Name, input.Body, input.Language)
	if err != nil {
		return nil, err
	}

	if err := s.templateRepo.Save(ctx, template); err != nil {
		return nil, fmt.Errorf("failed to save template: %w", err)
	}

	s.logger.Info("Template created",
		zap.String("org_id", orgID.String()),
		zap.String("template_id", template.ID.String()))
	return template, nil
}

// Get returns one template scoped to the organization
func (s *TemplateService) Get(ctx context.Context, orgID, id uuid.UUID) (*content.Template, error) {
	return s.templateRepo.FindByID(ctx, orgID, id)
}

// List returns a page of the organization's templates
func (s *TemplateService) List(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (*shared.Paginated[*content.Template], error) {
	templates, total, err := s.templateRepo.ListByOrg(ctx, orgID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	page := shared.NewPaginated(templates, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Update replaces a template's content
func (s *TemplateService) Update(ctx context.Context, orgID, id uuid.UUID, input TemplateInput) (*content.Template, error) {
	template, err := s.templateRepo.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	if err := template.UpdateContent(input.Name, input.Body, input.Language); err != nil {
		return nil, err
	}

	if err := s.templateRepo.Update(ctx, template); err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}
	return template, nil
}

// Delete removes a template. Deleting frees a slot under the plan limit.
func (s *TemplateService) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	if err := s.templateRepo.Delete(ctx, orgID, id); err != nil {
		return err
	}
	s.logger.Info("Template deleted",
		zap.String("org_id", orgID.String()),
		zap.String("template_id", id.String()))
	return nil
}
