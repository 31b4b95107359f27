package handler

import (
	"github.com/gin-gonic/gin"
	appidentity "github.com/toneforge/backend/internal/application/identity"
	"github.com/toneforge/backend/internal/domain/identity"
	"go.uber.org/zap"
)

// OrganizationHandler serves organization management endpoints
type OrganizationHandler struct {
	BaseHandler
	orgService *appidentity.OrganizationService
}

// NewOrganizationHandler creates an organization handler
func NewOrganizationHandler(orgService *appidentity.OrganizationService, logger *zap.Logger) *OrganizationHandler {
	return &OrganizationHandler{
		BaseHandler: NewBaseHandler(logger),
		orgService:  orgService,
	}
}

// List handles GET /api/v1/orgs and returns the caller's organizations
func (h *OrganizationHandler) List(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	orgs, err := h.orgService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, orgs)
}

// CreateOrgRequest contains new organization data
type CreateOrgRequest struct {
	Name string `json:"name" binding:"required,min=2,max=120"`
}

// Create handles POST /api/v1/orgs
func (h *OrganizationHandler) Create(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	var req CreateOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	org, err := h.orgService.Create(c.Request.Context(), userID, req.Name)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, org)
}

// Get handles GET /api/v1/org and returns the active organization
func (h *OrganizationHandler) Get(c *gin.Context) {
	orgID, ok := h.requireOrgID(c)
	if !ok {
		return
	}
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	org, err := h.orgService.Get(c.Request.Context(), orgID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, org)
}

// RenameOrgRequest contains the new organization name
type RenameOrgRequest struct {
	Name string `json:"name" binding:"required,min=2,max=120"`
}

// Rename handles PATCH /api/v1/org
func (h *OrganizationHandler) Rename(c *gin.Context) {
	orgID, ok := h.requireOrgID(c)
	if !ok {
		return
	}
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	var req RenameOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	org, err := h.orgService.Rename(c.Request.Context(), orgID, userID, req.Name)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, org)
}

// AddMemberRequest contains new member data
type AddMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required,oneof=ADMIN MEMBER"`
}

// AddMember handles POST /api/v1/org/members
func (h *OrganizationHandler) AddMember(c *gin.Context) {
	orgID, ok := h.requireOrgID(c)
	if !ok {
		return
	}
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	member, err := h.orgService.AddMember(c.Request.Context(), orgID, userID, req.Email, identity.MembershipRole(req.Role))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, member)
}
