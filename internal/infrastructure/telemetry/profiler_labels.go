package telemetry

import (
	"context"
	"maps"
	"sort"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys. Values must stay low-cardinality; per-request IDs
// would blow up Pyroscope's series count.
const (
	ProfilingLabelOperation = "operation"
	ProfilingLabelOrgID     = "org_id"
	ProfilingLabelPlanCode  = "plan_code"
)

// maxLabelValueLength caps label values before they reach the profiler
const maxLabelValueLength = 128

// highCardinalityLabels are dropped silently; logging here would spam the
// hot path.
var highCardinalityLabels = map[string]bool{
	"user_id":    true,
	"request_id": true,
	"reply_id":   true,
	"trace_id":   true,
	"span_id":    true,
}

// WithProfilingLabels runs fn with pprof labels attached, so CPU samples
// inside fn can be sliced by operation in the Pyroscope UI. The labels map
// is copied before use.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizeLabels(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// GenerationLabels builds the label set for the reply generation hot path
func GenerationLabels(orgID, planCode string) map[string]string {
	labels := map[string]string{
		ProfilingLabelOperation: "reply_generate",
	}
	if orgID != "" {
		labels[ProfilingLabelOrgID] = orgID
	}
	if planCode != "" {
		labels[ProfilingLabelPlanCode] = planCode
	}
	return labels
}

// sanitizeLabels normalizes keys, truncates long values, drops empty and
// high-cardinality entries, and returns sorted key-value pairs.
func sanitizeLabels(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}

	clean := make(map[string]string, len(labels))
	maps.Copy(clean, labels)

	keys := make([]string, 0, len(clean))
	for k := range clean {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(clean)*2)
	for _, key := range keys {
		value := clean[key]
		if key == "" || value == "" || highCardinalityLabels[key] {
			continue
		}
		if len(value) > maxLabelValueLength {
			value = value[:maxLabelValueLength]
		}
		if normalized := normalizeLabelKey(key); normalized != "" {
			pairs = append(pairs, normalized, value)
		}
	}
	return pairs
}

// normalizeLabelKey lowercases the key and strips everything outside
// [a-z0-9_].
func normalizeLabelKey(key string) string {
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "-", "_")

	out := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' {
			out = append(out, c)
		}
	}
	return string(out)
}
