package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce       sync.Once
	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
	httpErrorsTotal    *prometheus.CounterVec
	workflowSteps      *prometheus.CounterVec
	workflowInvalid    *prometheus.CounterVec
	staleResultsTotal  *prometheus.CounterVec
	generationRecords  *prometheus.CounterVec
	evaluationsTotal   *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sitlearn",
			Name:      "http_requests_total",
			Help:      "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sitlearn",
			Name:      "http_latency_seconds",
			Help:      "Latency distribution for API requests.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sitlearn",
			Name:      "http_errors_total",
			Help:      "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		workflowSteps = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sitlearn",
			Name:      "workflow_step_completions_total",
			Help:      "Workflow step completions recorded per step.",
		}, []string{"step"})

		workflowInvalid = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sitlearn",
			Name:      "workflow_invalidations_total",
			Help:      "Downstream step invalidations triggered by upstream changes.",
		}, []string{"from_step"})

		staleResultsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sitlearn",
			Name:      "stale_results_total",
			Help:      "Asynchronous results discarded because their workflow epoch had moved on.",
		}, []string{"kind"})

		generationRecords = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sitlearn",
			Name:      "generation_records_total",
			Help:      "Stream records observed during assignment generation, by record type.",
		}, []string{"type"})

		evaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sitlearn",
			Name:      "evaluations_total",
			Help:      "Submission evaluations performed, by outcome.",
		}, []string{"outcome"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			workflowSteps,
			workflowInvalid,
			staleResultsTotal,
			generationRecords,
			evaluationsTotal,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// WorkflowSteps exposes the counter for completed workflow steps.
func WorkflowSteps() *prometheus.CounterVec {
	RegisterMetrics()
	return workflowSteps
}

// WorkflowInvalidations exposes the counter for downstream invalidations.
func WorkflowInvalidations() *prometheus.CounterVec {
	RegisterMetrics()
	return workflowInvalid
}

// StaleResults exposes the counter for discarded stale async results.
func StaleResults() *prometheus.CounterVec {
	RegisterMetrics()
	return staleResultsTotal
}

// GenerationRecords exposes the counter for generation stream records.
func GenerationRecords() *prometheus.CounterVec {
	RegisterMetrics()
	return generationRecords
}

// Evaluations exposes the counter for evaluation outcomes.
func Evaluations() *prometheus.CounterVec {
	RegisterMetrics()
	return evaluationsTotal
}
