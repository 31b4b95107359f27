package handler

import (
	"github.com/gin-gonic/gin"
	appcontent "github.com/toneforge/backend/internal/application/content"
	"go.uber.org/zap"
)

// AnalyticsHandler serves reply insight and feedback endpoints
type AnalyticsHandler struct {
	BaseHandler
	analyticsService *appcontent.AnalyticsService
}

// NewAnalyticsHandler creates an analytics handler
func NewAnalyticsHandler(analyticsService *appcontent.AnalyticsService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		BaseHandler:      NewBaseHandler(logger),
		analyticsService: analyticsService,
	}
}

// Insights handles GET /api/v1/analytics/replies
func (h *AnalyticsHandler) Insights(c *gin.Context) {
	orgID, ok := h.requireOrgID(c)
	if !ok {
		return
	}

	insights, err := h.analyticsService.Insights(c.Request.Context(), orgID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, insights)
}

// RecordFeedback handles POST /api/v1/replies/:id/feedback
func (h *AnalyticsHandler) RecordFeedback(c *gin.Context) {
	orgID, ok := h.requireOrgID(c)
	if !ok {
		return
	}
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	replyID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var input appcontent.FeedbackInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	feedback, err := h.analyticsService.RecordFeedback(c.Request.Context(), orgID, userID, replyID, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, gin.H{
		"id":      feedback.ID,
		"helpful": feedback.Helpful,
	})
}

// FeedbackSummary handles GET /api/v1/analytics/feedback
func (h *AnalyticsHandler) FeedbackSummary(c *gin.Context) {
	orgID, ok := h.requireOrgID(c)
	if !ok {
		return
	}

	summary, err := h.analyticsService.FeedbackSummary(c.Request.Context(), orgID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
