package dto

import "net/http"

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation and input error codes
const (
	ErrCodeValidation  = "ERR_VALIDATION"
	ErrCodeBadRequest  = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	ErrCodeNotFound      = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	ErrCodeConflict      = "ERR_CONFLICT"
)

// Billing and entitlement error codes
const (
	// ErrCodeOrgNotFound is used when the organization in scope does not exist
	ErrCodeOrgNotFound = "ERR_ORG_NOT_FOUND"
	// ErrCodeSubInactive is used when a paid plan has no active subscription
	ErrCodeSubInactive = "ERR_SUB_INACTIVE"
	// ErrCodeQuotaExceeded is used when the monthly reply quota is exhausted
	ErrCodeQuotaExceeded = "ERR_QUOTA_EXCEEDED"
	// ErrCodeFeatureLimitExceeded is used when a plan capacity limit is hit
	ErrCodeFeatureLimitExceeded = "ERR_FEATURE_LIMIT_EXCEEDED"
)

// Business rule and rate limiting error codes
const (
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	ErrCodeRateLimited  = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:  http.StatusBadRequest,
	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeInvalidJSON: http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeConflict:      http.StatusConflict,

	ErrCodeOrgNotFound:          http.StatusNotFound,
	ErrCodeSubInactive:          http.StatusPaymentRequired,
	ErrCodeQuotaExceeded:        http.StatusPaymentRequired,
	ErrCodeFeatureLimitExceeded: http.StatusForbidden,

	ErrCodeInvalidState: http.StatusUnprocessableEntity,
	ErrCodeBusinessRule: http.StatusUnprocessableEntity,
	ErrCodeRateLimited:  http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status for an error code, defaulting to
// 500 for unknown codes
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainErrorCodeMapping translates domain error codes to wire codes
var domainErrorCodeMapping = map[string]string{
	"NOT_FOUND":              ErrCodeNotFound,
	"ALREADY_EXISTS":         ErrCodeAlreadyExists,
	"INVALID_INPUT":          ErrCodeBadRequest,
	"INVALID_STATE":          ErrCodeInvalidState,
	"UNAUTHORIZED":           ErrCodeUnauthorized,
	"FORBIDDEN":              ErrCodeForbidden,
	"CONCURRENCY_CONFLICT":   ErrCodeConflict,
	"ORG_NOT_FOUND":          ErrCodeOrgNotFound,
	"SUB_INACTIVE":           ErrCodeSubInactive,
	"QUOTA_EXCEEDED":         ErrCodeQuotaExceeded,
	"FEATURE_LIMIT_EXCEEDED": ErrCodeFeatureLimitExceeded,

	"EMAIL_TAKEN":         ErrCodeAlreadyExists,
	"ALREADY_MEMBER":      ErrCodeConflict,
	"USER_NOT_FOUND":      ErrCodeNotFound,
	"INVALID_CREDENTIALS": ErrCodeUnauthorized,
	"WEAK_PASSWORD":       ErrCodeValidation,
	"NO_ORGANIZATION":     ErrCodeBusinessRule,
	"INVALID_ROLE":        ErrCodeBadRequest,

	"INVALID_PLAN":        ErrCodeBadRequest,
	"NO_BILLING_ACCOUNT":  ErrCodeBusinessRule,
	"BILLING_UNAVAILABLE": ErrCodeBusinessRule,

	"INVALID_TEMPLATE":    ErrCodeValidation,
	"INVALID_BRAND_VOICE": ErrCodeValidation,
	"INVALID_REPLY":       ErrCodeValidation,
	"INVALID_FEEDBACK":    ErrCodeValidation,
}

// NormalizeErrorCode converts a domain error code to the wire format. Codes
// without a mapping pass through unchanged and map to 422 via GetHTTPStatus
// unless listed above.
func NormalizeErrorCode(code string) string {
	if wireCode, ok := domainErrorCodeMapping[code]; ok {
		return wireCode
	}
	return code
}
