package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/toneforge/backend/internal/domain/shared"
)

// PeriodKey returns the billing period key for an instant, always computed
// in UTC with a zero-padded month, e.g. "2026-08".
func PeriodKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// ReplyUsage tracks how many replies an organization generated in one
// billing period. One row per (org, period).
type ReplyUsage struct {
	shared.OrgAggregateRoot
	Period string
	Count  int64
}

// NewReplyUsage creates a zeroed usage row for a period
func NewReplyUsage(orgID uuid.UUID, period string) *ReplyUsage {
	return &ReplyUsage{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(orgID),
		Period:           period,
		Count:            0,
	}
}

// UsageConsumption is the result of consuming one reply generation
type UsageConsumption struct {
	Period    string `json:"period"`
	UsedAfter int64  `json:"used_after"`
	Limit     int64  `json:"limit"`
	Remaining int64  `json:"remaining"`
}

// UsageSnapshot reports current usage without consuming
type UsageSnapshot struct {
	Period    string   `json:"period"`
	Used      int64    `json:"used"`
	Limit     int64    `json:"limit"`
	Remaining int64    `json:"remaining"`
	PlanCode  PlanCode `json:"plan_code"`
}

// RemainingOf clamps limit-used at zero
func RemainingOf(used, limit int64) int64 {
	if limit == Unlimited {
		return Unlimited
	}
	remaining := limit - used
	if remaining < 0 {
		return 0
	}
	return remaining
}
