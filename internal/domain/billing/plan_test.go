package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParsePlanCode(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want PlanCode
	}{
		{"pro uppercase", "PRO", PlanPro},
		{"pro lowercase", "pro", PlanPro},
		{"premium with whitespace", "  premium ", PlanPremium},
		{"free", "FREE", PlanFree},
		{"unknown degrades to free", "ENTERPRISE", PlanFree},
		{"empty degrades to free", "", PlanFree},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePlanCode(tt.raw))
		})
	}
}

func TestPlanCode_IsPaid(t *testing.T) {
	assert.False(t, PlanFree.IsPaid())
	assert.True(t, PlanPro.IsPaid())
	assert.True(t, PlanPremium.IsPaid())
}

func TestMonthlyReplyQuota(t *testing.T) {
	tests := []struct {
		plan PlanCode
		want int64
	}{
		{PlanFree, 20},
		{PlanPro, 500},
		{PlanPremium, 2000},
		{PlanCode("BOGUS"), 20},
	}

	for _, tt := range tests {
		t.Run(tt.plan.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, MonthlyReplyQuota(tt.plan))
		})
	}
}

func TestFeatureLimit(t *testing.T) {
	tests := []struct {
		name    string
		plan    PlanCode
		feature Feature
		want    int64
	}{
		{"free template count", PlanFree, FeatureTemplateCount, 1},
		{"free brand voice count", PlanFree, FeatureBrandVoiceCount, 1},
		{"free history days", PlanFree, FeatureHistoryDays, 30},
		{"pro template count", PlanPro, FeatureTemplateCount, 10},
		{"pro brand voice count", PlanPro, FeatureBrandVoiceCount, 10},
		{"pro history days", PlanPro, FeatureHistoryDays, 180},
		{"premium is unlimited everywhere", PlanPremium, FeatureTemplateCount, Unlimited},
		{"premium history days", PlanPremium, FeatureHistoryDays, Unlimited},
		{"unknown plan uses free limits", PlanCode("BOGUS"), FeatureTemplateCount, 1},
		{"unknown feature fails open", PlanFree, Feature("NEW_THING"), Unlimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FeatureLimit(tt.plan, tt.feature))
		})
	}
}

func TestFreeHistoryDays(t *testing.T) {
	assert.Equal(t, int64(30), FreeHistoryDays())
}

func TestPeriodKey(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{
			"mid month",
			time.Date(2026, 8, 15, 12, 30, 0, 0, time.UTC),
			"2026-08",
		},
		{
			"single digit month is zero padded",
			time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			"2026-03",
		},
		{
			"converts to UTC before keying",
			time.Date(2026, 9, 1, 3, 0, 0, 0, time.FixedZone("UTC+5", 5*3600)),
			"2026-08",
		},
		{
			"last instant of the month",
			time.Date(2026, 8, 31, 23, 59, 59, 999999999, time.UTC),
			"2026-08",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PeriodKey(tt.in))
		})
	}
}

func TestRemainingOf(t *testing.T) {
	assert.Equal(t, int64(17), RemainingOf(3, 20))
	assert.Equal(t, int64(0), RemainingOf(20, 20))
	assert.Equal(t, int64(0), RemainingOf(25, 20), "over-limit clamps at zero")
	assert.Equal(t, Unlimited, RemainingOf(1000000, Unlimited))
}
