package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	appcontent "github.com/toneforge/backend/internal/application/content"
	"github.com/toneforge/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// BrandVoiceHandler serves brand voice CRUD endpoints
type BrandVoiceHandler struct {
	BaseHandler
	voiceService *appcontent.BrandVoiceService
}

// NewBrandVoiceHandler creates a brand voice handler
func NewBrandVoiceHandler(voiceService *appcontent.BrandVoiceService, logger *zap.Logger) *BrandVoiceHandler {
	return &BrandVoiceHandler{
		BaseHandler:  NewBaseHandler(logger),
		voiceService: voiceService,
	}
}

// Create handles POST /api/v1/brand-voices
func (h *BrandVoiceHandler) Create(c *gin.Context) {
	orgID, ok := h.requireOrgID(c)
	if !ok {
		return
	}

	var input appcontent.BrandVoiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	voice, err := h.voiceService.Create(c.Request.Context(), orgID, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.FromBrandVoice(voice))
}

// List handles GET /api/v1/brand-voices
func (h *BrandVoiceHandler) List(c *gin.Context) {
	orgID, ok := h.requireOrgID(c)
	if !ok {
		return
	}
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	page, err := h.voiceService.List(c.Request.Context(), orgID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(dto.FromBrandVoices(page.Items), page.Total, page.Page, page.PageSize))
}

// Get handles GET /api/v1/brand-voices/:id
func (h *BrandVoiceHandler) Get(c *gin.Context) {
	orgID, ok := h.requireOrgID(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	voice, err := h.voiceService.Get(c.Request.Context(), orgID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromBrandVoice(voice))
}

// Update handles PUT /api/v1/brand-voices/:id
func (h *BrandVoiceHandler) Update(c *gin.Context) {
	orgID, ok := h.requireOrgID(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var input appcontent.BrandVoiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	voice, err := h.voiceService.Update(c.Request.Context(), orgID, id, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromBrandVoice(voice))
}

// Delete handles DELETE /api/v1/brand-voices/:id
func (h *BrandVoiceHandler) Delete(c *gin.Context) {
	orgID, ok := h.requireOrgID(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.voiceService.Delete(c.Request.Context(), orgID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
