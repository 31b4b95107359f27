package billing

import "strings"

// PlanCode identifies a subscription plan tier
type PlanCode string

const (
	PlanFree    PlanCode = "FREE"
	PlanPro     PlanCode = "PRO"
	PlanPremium PlanCode = "PREMIUM"
)

// Unlimited is the sentinel for limits that are not enforced
const Unlimited int64 = -1

// ParsePlanCode normalizes a raw plan code. Unknown or empty values degrade
// to the free tier so a bad plan string never blocks quota resolution.
func ParsePlanCode(raw string) PlanCode {
	switch PlanCode(strings.ToUpper(strings.TrimSpace(raw))) {
	case PlanPro:
		return PlanPro
	case PlanPremium:
		return PlanPremium
	default:
		return PlanFree
	}
}

// String returns the string representation of the plan code
func (p PlanCode) String() string {
	return string(p)
}

// IsPaid returns true for plans that require an active subscription
func (p PlanCode) IsPaid() bool {
	return p == PlanPro || p == PlanPremium
}

// MonthlyReplyQuota returns the number of reply generations allowed per
// calendar month for a plan. Unknown plans get the free allowance.
func MonthlyReplyQuota(plan PlanCode) int64 {
	switch plan {
	case PlanPro:
		return 500
	case PlanPremium:
		return 2000
	default:
		return 20
	}
}

// Feature identifies a gated capability
type Feature string

const (
	FeatureTemplateCount   Feature = "TEMPLATE_COUNT"
	FeatureBrandVoiceCount Feature = "BRAND_VOICE_COUNT"
	FeatureHistoryDays     Feature = "HISTORY_DAYS"
)

// String returns the string representation of the feature
func (f Feature) String() string {
	return string(f)
}

var planFeatureLimits = map[PlanCode]map[Feature]int64{
	PlanFree: {
		FeatureTemplateCount:   1,
		FeatureBrandVoiceCount: 1,
		FeatureHistoryDays:     30,
	},
	PlanPro: {
		FeatureTemplateCount:   10,
		FeatureBrandVoiceCount: 10,
		FeatureHistoryDays:     180,
	},
}

// FeatureLimit returns the limit for a feature under a plan. The premium
// tier is unlimited on every feature. Features without a configured limit
// are unlimited as well, so new features fail open until a limit ships.
func FeatureLimit(plan PlanCode, feature Feature) int64 {
	if plan == PlanPremium {
		return Unlimited
	}
	limits, ok := planFeatureLimits[plan]
	if !ok {
		limits = planFeatureLimits[PlanFree]
	}
	limit, ok := limits[feature]
	if !ok {
		return Unlimited
	}
	return limit
}

// FreeHistoryDays is the retention window applied when a paid plan has no
// active subscription backing it.
func FreeHistoryDays() int64 {
	return planFeatureLimits[PlanFree][FeatureHistoryDays]
}
