package handler

import (
	"github.com/gin-gonic/gin"
	appbilling "github.com/toneforge/backend/internal/application/billing"
	"github.com/toneforge/backend/internal/domain/billing"
	"go.uber.org/zap"
)

// BillingHandler serves checkout, portal and billing overview endpoints
type BillingHandler struct {
	BaseHandler
	billingService *appbilling.BillingService
}

// NewBillingHandler creates a billing handler
func NewBillingHandler(billingService *appbilling.BillingService, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{
		BaseHandler:    NewBaseHandler(logger),
		billingService: billingService,
	}
}

// CheckoutRequest selects the paid plan to subscribe to
type CheckoutRequest struct {
	PlanCode string `json:"plan_code" binding:"required,oneof=PRO PREMIUM"`
}

// StartCheckout handles POST /api/v1/billing/checkout
func (h *BillingHandler) StartCheckout(c *gin.Context) {
	orgID, ok := h.requireOrgID(c)
	if !ok {
		return
	}
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	session, err := h.billingService.StartCheckout(c.Request.Context(), orgID, userID, billing.ParsePlanCode(req.PlanCode))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, session)
}

// OpenPortal handles POST /api/v1/billing/portal
func (h *BillingHandler) OpenPortal(c *gin.Context) {
	orgID, ok := h.requireOrgID(c)
	if !ok {
		return
	}
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	url, err := h.billingService.OpenPortal(c.Request.Context(), orgID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"portal_url": url})
}

// Overview handles GET /api/v1/billing
func (h *BillingHandler) Overview(c *gin.Context) {
	orgID, ok := h.requireOrgID(c)
	if !ok {
		return
	}

	overview, err := h.billingService.Overview(c.Request.Context(), orgID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, overview)
}

// ListInvoices handles GET /api/v1/billing/invoices
func (h *BillingHandler) ListInvoices(c *gin.Context) {
	orgID, ok := h.requireOrgID(c)
	if !ok {
		return
	}
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	invoices, err := h.billingService.ListInvoices(c.Request.Context(), orgID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoices)
}
