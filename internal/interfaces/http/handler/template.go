package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	appcontent "github.com/toneforge/backend/internal/application/content"
	"github.com/toneforge/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// TemplateHandler serves reply template CRUD endpoints
type TemplateHandler struct {
	BaseHandler
	templateService *appcontent.TemplateService
}

// NewTemplateHandler creates a template handler
func NewTemplateHandler(templateService *appcontent.TemplateService, logger *zap.Logger) *TemplateHandler {
	return &TemplateHandler{
		BaseHandler:     NewBaseHandler(logger),
		templateService: templateService,
	}
}

// Create handles POST /api/v1/templates
func (h *TemplateHandler) Create(c *gin.Context) {
	orgID, ok := h.requireOrgID(c)
	if !ok {
		return
	}

	var input appcontent.TemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	template, err := h.templateService.Create(c.Request.Context(), orgID, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.FromTemplate(template))
}

// List handles GET /api/v1/templates
func (h *TemplateHandler) List(c *gin.Context) {
	orgID, ok := h.requireOrgID(c)
	if !ok {
		return
	}
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	page, err := h.templateService.List(c.Request.Context(), orgID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(dto.FromTemplates(page.Items), page.Total, page.Page, page.PageSize))
}

// Get handles GET /api/v1/templates/:id
func (h *TemplateHandler) Get(c *gin.Context) {
	orgID, ok := h.requireOrgID(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	template, err := h.templateService.Get(c.Request.Context(), orgID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromTemplate(template))
}

// Update handles PUT /api/v1/templates/:id
func (h *TemplateHandler) Update(c *gin.Context) {
	orgID, ok := h.requireOrgID(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var input appcontent.TemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	template, err := h.templateService.Update(c.Request.Context(), orgID, id, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromTemplate(template))
}

// Delete handles DELETE /api/v1/templates/:id
func (h *TemplateHandler) Delete(c *gin.Context) {
	orgID, ok := h.requireOrgID(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.templateService.Delete(c.Request.Context(), orgID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
