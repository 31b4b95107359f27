package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	appcontent "github.com/toneforge/backend/internal/application/content"
	"github.com/toneforge/backend/internal/domain/billing"
	"github.com/toneforge/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// ReplyHandler serves reply generation and history endpoints
type ReplyHandler struct {
	BaseHandler
	replyService *appcontent.ReplyService
}

// NewReplyHandler creates a reply handler
func NewReplyHandler(replyService *appcontent.ReplyService, logger *zap.Logger) *ReplyHandler {
	return &ReplyHandler{
		BaseHandler:  NewBaseHandler(logger),
		replyService: replyService,
	}
}

// GenerateResponse carries the generated draft and updated usage
type GenerateResponse struct {
	Reply dto.ReplyResponse         `json:"reply"`
	Usage *billing.UsageConsumption `json:"usage"`
}

// Generate handles POST /api/v1/replies/generate
func (h *ReplyHandler) Generate(c *gin.Context) {
	orgID, ok := h.requireOrgID(c)
	if !ok {
		return
	}
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	var input appcontent.GenerateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	result, err := h.replyService.Generate(c.Request.Context(), orgID, userID, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, GenerateResponse{
		Reply: dto.FromReply(result.Reply),
		Usage: result.Usage,
	})
}

// History handles GET /api/v1/replies. Results are bounded by the plan's
// history retention window.
func (h *ReplyHandler) History(c *gin.Context) {
	orgID, ok := h.requireOrgID(c)
	if !ok {
		return
	}
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	page, err := h.replyService.History(c.Request.Context(), orgID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(dto.FromReplies(page.Items), page.Total, page.Page, page.PageSize))
}

// Get handles GET /api/v1/replies/:id
func (h *ReplyHandler) Get(c *gin.Context) {
	orgID, ok := h.requireOrgID(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	reply, err := h.replyService.Get(c.Request.Context(), orgID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromReply(reply))
}
