package telemetry

import (
	"context"
	"runtime/pprof"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithProfilingLabels(t *testing.T) {
	labels := map[string]string{
		ProfilingLabelOperation: "reply_generate",
		ProfilingLabelOrgID:     "org-1",
	}

	called := false
	WithProfilingLabels(context.Background(), labels, func(ctx context.Context) {
		called = true

		op, ok := pprof.Label(ctx, ProfilingLabelOperation)
		require.True(t, ok)
		assert.Equal(t, "reply_generate", op)

		org, ok := pprof.Label(ctx, ProfilingLabelOrgID)
		require.True(t, ok)
		assert.Equal(t, "org-1", org)
	})
	assert.True(t, called)
}

func TestWithProfilingLabels_EmptyLabelsStillRunsFn(t *testing.T) {
	called := false
	WithProfilingLabels(context.Background(), nil, func(ctx context.Context) {
		called = true
		_, ok := pprof.Label(ctx, ProfilingLabelOperation)
		assert.False(t, ok)
	})
	assert.True(t, called)
}

func TestGenerationLabels(t *testing.T) {
	labels := GenerationLabels("org-1", "PRO")
	assert.Equal(t, map[string]string{
		ProfilingLabelOperation: "reply_generate",
		ProfilingLabelOrgID:     "org-1",
		ProfilingLabelPlanCode:  "PRO",
	}, labels)
}

func TestGenerationLabels_OmitsEmptyValues(t *testing.T) {
	labels := GenerationLabels("", "")
	assert.Equal(t, map[string]string{
		ProfilingLabelOperation: "reply_generate",
	}, labels)
}

func TestSanitizeLabels(t *testing.T) {
	pairs := sanitizeLabels(map[string]string{
		"operation": "reply_generate",
		"plan_code": "PRO",
		"":          "dropped",
		"empty":     "",
	})

	// Sorted by key, as flattened key-value pairs
	assert.Equal(t, []string{
		"operation", "reply_generate",
		"plan_code", "PRO",
	}, pairs)
}

func TestSanitizeLabels_DropsHighCardinalityKeys(t *testing.T) {
	pairs := sanitizeLabels(map[string]string{
		"operation":  "reply_generate",
		"user_id":    "u-123",
		"request_id": "r-456",
		"trace_id":   "t-789",
	})

	assert.Equal(t, []string{"operation", "reply_generate"}, pairs)
}

func TestSanitizeLabels_TruncatesLongValues(t *testing.T) {
	long := strings.Repeat("x", maxLabelValueLength+50)
	pairs := sanitizeLabels(map[string]string{"operation": long})

	require.Len(t, pairs, 2)
	assert.Len(t, pairs[1], maxLabelValueLength)
}

func TestSanitizeLabels_NormalizesKeys(t *testing.T) {
	pairs := sanitizeLabels(map[string]string{"Plan Code": "PRO"})
	assert.Equal(t, []string{"plan_code", "PRO"}, pairs)
}

func TestSanitizeLabels_DoesNotMutateInput(t *testing.T) {
	labels := map[string]string{"operation": "reply_generate"}
	_ = sanitizeLabels(labels)
	assert.Equal(t, map[string]string{"operation": "reply_generate"}, labels)
}

func TestNormalizeLabelKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"operation", "operation"},
		{"Plan Code", "plan_code"},
		{"org-id", "org_id"},
		{"weird!key?", "weirdkey"},
		{"UPPER", "upper"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeLabelKey(tt.in), "input %q", tt.in)
	}
}
