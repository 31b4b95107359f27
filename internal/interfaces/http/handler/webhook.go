package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	appbilling "github.com/toneforge/backend/internal/application/billing"
	"github.com/toneforge/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// maxWebhookBodyBytes matches Stripe's documented payload ceiling
const maxWebhookBodyBytes = 64 * 1024

// WebhookHandler serves the Stripe webhook endpoint
type WebhookHandler struct {
	BaseHandler
	webhookService *appbilling.StripeWebhookService
}

// NewWebhookHandler creates a webhook handler
func NewWebhookHandler(webhookService *appbilling.StripeWebhookService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler:    NewBaseHandler(logger),
		webhookService: webhookService,
	}
}

// HandleStripe handles POST /api/v1/webhooks/stripe. The raw body is
// required for signature verification, so this endpoint bypasses JSON
// binding entirely.
func (h *WebhookHandler) HandleStripe(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		h.BadRequest(c, "failed to read webhook payload")
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		c.JSON(http.StatusBadRequest,
			dto.NewErrorResponse(dto.ErrCodeBadRequest, "missing Stripe-Signature header"))
		return
	}

	result, err := h.webhookService.ProcessWebhook(c.Request.Context(), payload, signature)
	if err != nil {
		// Stripe retries on non-2xx. Signature failures are permanent and
		// get a 400; anything else gets a 500 to trigger a retry.
		h.logger.Error("Webhook processing failed", zap.Error(err))
		if errors.Is(err, appbilling.ErrInvalidWebhookSignature) {
			c.JSON(http.StatusBadRequest,
				dto.NewErrorResponse(dto.ErrCodeBadRequest, "webhook signature verification failed"))
			return
		}
		c.JSON(http.StatusInternalServerError,
			dto.NewErrorResponse(dto.ErrCodeInternal, "webhook processing failed"))
		return
	}
	h.Success(c, result)
}
