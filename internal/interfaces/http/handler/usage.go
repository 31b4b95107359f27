package handler

import (
	"github.com/gin-gonic/gin"
	appbilling "github.com/toneforge/backend/internal/application/billing"
	"go.uber.org/zap"
)

// UsageHandler serves the quota usage endpoint
type UsageHandler struct {
	BaseHandler
	usageService *appbilling.UsageService
}

// NewUsageHandler creates a usage handler
func NewUsageHandler(usageService *appbilling.UsageService, logger *zap.Logger) *UsageHandler {
	return &UsageHandler{
		BaseHandler:  NewBaseHandler(logger),
		usageService: usageService,
	}
}

// Snapshot handles GET /api/v1/usage and reports the current period's
// consumption without consuming anything
func (h *UsageHandler) Snapshot(c *gin.Context) {
	orgID, ok := h.requireOrgID(c)
	if !ok {
		return
	}

	snapshot, err := h.usageService.Snapshot(c.Request.Context(), orgID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, snapshot)
}
