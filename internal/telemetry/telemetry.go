// Package telemetry holds the process-wide Prometheus collectors for
// generation, oracle and language model activity.
package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for oracle calls
const (
	OutcomeTrue    = "true"
	OutcomeFalse   = "false"
	OutcomeFailure = "failure"
)

var (
	ProblemsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ltlbench_problems_generated_total",
		Help: "Problems fully assembled with an oracle verdict",
	})

	ProblemsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ltlbench_problems_failed_total",
		Help: "Problem syntheses that returned an error",
	})

	OracleCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ltlbench_oracle_calls_total",
		Help: "Model checker invocations by outcome",
	}, []string{"outcome"})

	OracleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ltlbench_oracle_duration_seconds",
		Help:    "Wall time of one model checker invocation",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	})

	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ltlbench_llm_requests_total",
		Help: "Chat requests sent to language model backends",
	}, []string{"provider", "status"})

	LLMCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ltlbench_llm_cache_hits_total",
		Help: "Chat responses served from the response cache",
	})

	EvaluationsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ltlbench_evaluations_total",
		Help: "Evaluations stored, by strategy",
	}, []string{"strategy"})
)

// ObserveOracle records one oracle call. It is meant to be deferred with the
// call's start time and a pointer to its outcome label.
func ObserveOracle(start time.Time, outcome *string) {
	OracleDuration.Observe(time.Since(start).Seconds())
	OracleCalls.WithLabelValues(*outcome).Inc()
}

// WriteTextfile writes every registered collector to path in the text
// exposition format read by the node_exporter textfile collector.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
