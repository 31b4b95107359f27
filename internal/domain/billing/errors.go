package billing

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// OrgNotFoundError indicates the organization does not exist
type OrgNotFoundError struct {
	OrgID uuid.UUID
}

// Error implements the error interface
func (e *OrgNotFoundError) Error() string {
	return fmt.Sprintf("organization %s not found", e.OrgID)
}

// ErrorCode returns the machine-readable error code
func (e *OrgNotFoundError) ErrorCode() string {
	return "ORG_NOT_FOUND"
}

// HTTPStatusCode returns the appropriate HTTP status code
func (e *OrgNotFoundError) HTTPStatusCode() int {
	return http.StatusNotFound
}

// SubscriptionInactiveError indicates a paid plan without an active or
// trialing subscription. Requests are rejected rather than silently
// degraded to the free tier.
type SubscriptionInactiveError struct {
	OrgID    uuid.UUID
	PlanCode PlanCode
}

// Error implements the error interface
func (e *SubscriptionInactiveError) Error() string {
	return fmt.Sprintf("subscription for plan %s is not active", e.PlanCode)
}

// ErrorCode returns the machine-readable error code
func (e *SubscriptionInactiveError) ErrorCode() string {
	return "SUB_INACTIVE"
}

// HTTPStatusCode returns the appropriate HTTP status code
func (e *SubscriptionInactiveError) HTTPStatusCode() int {
	return http.StatusPaymentRequired
}

// QuotaExceededError indicates the monthly reply quota is exhausted
type QuotaExceededError struct {
	Used   int64  `json:"used"`
	Limit  int64  `json:"limit"`
	Period string `json:"period"`
}

// Error implements the error interface
func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("monthly reply quota exceeded: used %d of %d in period %s", e.Used, e.Limit, e.Period)
}

// ErrorCode returns the machine-readable error code
func (e *QuotaExceededError) ErrorCode() string {
	return "QUOTA_EXCEEDED"
}

// HTTPStatusCode returns the appropriate HTTP status code
func (e *QuotaExceededError) HTTPStatusCode() int {
	return http.StatusPaymentRequired
}

// FeatureLimitExceededError indicates a plan capacity limit was hit
type FeatureLimitExceededError struct {
	Feature  Feature  `json:"feature"`
	Current  int64    `json:"current"`
	Limit    int64    `json:"limit"`
	PlanCode PlanCode `json:"plan_code"`
}

// Error implements the error interface
func (e *FeatureLimitExceededError) Error() string {
	return fmt.Sprintf("%s limit reached for plan %s: %d of %d in use", e.Feature, e.PlanCode, e.Current, e.Limit)
}

// ErrorCode returns the machine-readable error code
func (e *FeatureLimitExceededError) ErrorCode() string {
	return "FEATURE_LIMIT_EXCEEDED"
}

// HTTPStatusCode returns the appropriate HTTP status code
func (e *FeatureLimitExceededError) HTTPStatusCode() int {
	return http.StatusForbidden
}
