// Package metrics provides Prometheus collectors for the rumiai pipeline.
//
// Every recovered error condition from the pipeline (dropped timestamps,
// clamped entries, precompute fallbacks, schema violations, ...) is counted
// here; the same counts are mirrored in-process so the final JSON summary
// can report them without scraping.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rumiai"

// Recovery kinds, matching the error taxonomy. Used as the "kind" label.
const (
	KindInputShape        = "input_shape"
	KindTimestampParse    = "timestamp_parse"
	KindClamp             = "clamp"
	KindMissingModality   = "missing_modality"
	KindPrecomputeFailure = "precompute_failure"
	KindLLMTimeout        = "llm_timeout"
	KindLLMTransport      = "llm_transport"
	KindSchemaViolation   = "schema_violation"
	KindSizeOverflow      = "size_overflow"
	KindPersistence       = "persistence_failure"
)

var (
	// recoveriesTotal counts recovered error conditions by kind.
	recoveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recoveries_total",
			Help:      "Total number of recovered error conditions by kind",
		},
		[]string{"kind"},
	)

	// analysisDuration is a histogram of per-analysis execution duration.
	analysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Duration of a single LLM analysis in seconds",
			Buckets:   []float64{.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"analysis", "status"}, // status: success, error
	)

	// providerRequestsTotal counts LLM provider API calls.
	providerRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Total number of provider API calls",
		},
		[]string{"provider", "model", "status"},
	)

	// providerTokensTotal counts tokens consumed by provider calls.
	providerTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_tokens_total",
			Help:      "Total tokens consumed by provider calls",
		},
		[]string{"provider", "model", "type"}, // type: input, output
	)

	// providerCostTotal counts total cost in USD from provider calls.
	providerCostTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_cost_total",
			Help:      "Total cost in USD from provider calls",
		},
		[]string{"provider", "model"},
	)
)

func init() {
	prometheus.MustRegister(
		recoveriesTotal,
		analysisDuration,
		providerRequestsTotal,
		providerTokensTotal,
		providerCostTotal,
	)
}

// mirror keeps in-process recovery counts for the final summary.
var mirror = struct {
	mu     sync.Mutex
	counts map[string]int64
}{counts: make(map[string]int64)}

// Recovery records one recovered error condition of the given kind.
func Recovery(kind string) {
	recoveriesTotal.WithLabelValues(kind).Inc()

	mirror.mu.Lock()
	mirror.counts[kind]++
	mirror.mu.Unlock()
}

// RecoverySnapshot returns a copy of the recovery counts accumulated so far.
func RecoverySnapshot() map[string]int64 {
	mirror.mu.Lock()
	defer mirror.mu.Unlock()

	out := make(map[string]int64, len(mirror.counts))
	for k, v := range mirror.counts {
		out[k] = v
	}
	return out
}

// ResetRecoveries clears the in-process mirror. Intended for tests; the
// Prometheus counters themselves are monotonic and are not reset.
func ResetRecoveries() {
	mirror.mu.Lock()
	defer mirror.mu.Unlock()
	mirror.counts = make(map[string]int64)
}

// ObserveAnalysis records the duration and outcome of one analysis.
func ObserveAnalysis(analysis, status string, seconds float64) {
	analysisDuration.WithLabelValues(analysis, status).Observe(seconds)
}

// ObserveProviderCall records one provider API call with its token usage and cost.
func ObserveProviderCall(provider, model, status string, tokensIn, tokensOut int, cost float64) {
	providerRequestsTotal.WithLabelValues(provider, model, status).Inc()
	providerTokensTotal.WithLabelValues(provider, model, "input").Add(float64(tokensIn))
	providerTokensTotal.WithLabelValues(provider, model, "output").Add(float64(tokensOut))
	providerCostTotal.WithLabelValues(provider, model).Add(cost)
}
