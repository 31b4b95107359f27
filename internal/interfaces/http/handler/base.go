package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/toneforge/backend/internal/domain/shared"
	"github.com/toneforge/backend/internal/interfaces/http/dto"
	"github.com/toneforge/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common response and error helpers for handlers
type BaseHandler struct {
	logger *zap.Logger
}

// NewBaseHandler creates a base handler
func NewBaseHandler(logger *zap.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// Success writes a 200 response with the standard envelope
func (h *BaseHandler) Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created writes a 201 response with the standard envelope
func (h *BaseHandler) Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent writes a 204 response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// statusCoder is implemented by domain errors that carry their own wire
// code and HTTP status
type statusCoder interface {
	error
	ErrorCode() string
	HTTPStatusCode() int
}

// HandleError translates application errors into the envelope format
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	requestID := c.GetString("request_id")

	var coded statusCoder
	if errors.As(err, &coded) {
		c.JSON(coded.HTTPStatusCode(),
			dto.NewErrorResponseWithRequestID(dto.NormalizeErrorCode(coded.ErrorCode()), coded.Error(), requestID))
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		c.JSON(dto.GetHTTPStatus(code),
			dto.NewErrorResponseWithRequestID(code, domainErr.Message, requestID))
		return
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		h.handleValidationError(c, validationErrs)
		return
	}

	h.logger.Error("Unhandled request error",
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", requestID),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeInternal, "internal server error", requestID))
}

// BadRequest writes a 400 error with the given message
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeBadRequest, message))
}

// HandleBindingError translates gin binding failures into validation
// responses
func (h *BaseHandler) HandleBindingError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		h.handleValidationError(c, validationErrs)
		return
	}
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeInvalidJSON, "invalid request body"))
}

func (h *BaseHandler) handleValidationError(c *gin.Context, errs validator.ValidationErrors) {
	details := make([]dto.ValidationDetail, 0, len(errs))
	for _, fe := range errs {
		details = append(details, dto.ValidationDetail{
			Field:   fe.Field(),
			Message: validationMessage(fe),
		})
	}
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse("request validation failed", details))
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "is too short"
	case "max":
		return "is too long"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "uuid":
		return "must be a valid UUID"
	default:
		return "is invalid"
	}
}

// requireOrgID extracts the authenticated organization ID or aborts with 401
func (h *BaseHandler) requireOrgID(c *gin.Context) (uuid.UUID, bool) {
	raw := middleware.GetJWTOrgID(c)
	orgID, err := uuid.Parse(raw)
	if raw == "" || err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized,
			dto.NewErrorResponse(dto.ErrCodeUnauthorized, "authentication required"))
		return uuid.Nil, false
	}
	return orgID, true
}

// requireUserID extracts the authenticated user ID or aborts with 401
func (h *BaseHandler) requireUserID(c *gin.Context) (uuid.UUID, bool) {
	raw := middleware.GetJWTUserID(c)
	userID, err := uuid.Parse(raw)
	if raw == "" || err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized,
			dto.NewErrorResponse(dto.ErrCodeUnauthorized, "authentication required"))
		return uuid.Nil, false
	}
	return userID, true
}

// parseIDParam parses a UUID path parameter or aborts with 400
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "invalid "+name+" parameter")
		return uuid.Nil, false
	}
	return id, true
}

// bindFilter binds pagination query parameters with defaults
func (h *BaseHandler) bindFilter(c *gin.Context) (shared.Filter, bool) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.HandleBindingError(c, err)
		return shared.Filter{}, false
	}
	return shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
	}, true
}
