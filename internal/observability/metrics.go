package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
	httpErrorsTotal    *prometheus.CounterVec

	auditQueuedTotal   prometheus.Counter
	auditDroppedTotal  *prometheus.CounterVec
	auditFailuresTotal prometheus.Counter

	checklistCompletionsTotal *prometheus.CounterVec
	checklistMutationsTotal   *prometheus.CounterVec

	uploadLatencySeconds prometheus.Histogram
	uploadRejectedTotal  *prometheus.CounterVec

	sessionTransitionsTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the console.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "occ_http_requests_total",
			Help: "API requests served, by console area.",
		}, []string{"area", "method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "occ_http_latency_seconds",
			Help:    "API request latency, by console area.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
		}, []string{"area", "method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "occ_http_errors_total",
			Help: "API error responses, by console area.",
		}, []string{"area", "method", "route", "status"})

		auditQueuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "occ_audit_queued_total",
			Help: "Activity log entries accepted by the audit queue.",
		})

		auditDroppedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "occ_audit_dropped_total",
			Help: "Activity log entries that could not be queued.",
		}, []string{"reason"})

		auditFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "occ_audit_failures_total",
			Help: "Activity log entries abandoned after exhausting retries.",
		})

		checklistCompletionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "occ_checklist_completions_total",
			Help: "Checklist runs recorded as complete.",
		}, []string{"activity", "list_type"})

		checklistMutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "occ_checklist_mutations_total",
			Help: "Checklist state mutations by operation.",
		}, []string{"operation"})

		uploadLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "occ_upload_latency_seconds",
			Help:    "Time spent validating and storing reference files.",
			Buckets: prometheus.DefBuckets,
		})

		uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "occ_upload_rejected_total",
			Help: "Rejected reference file uploads by reason.",
		}, []string{"reason"})

		sessionTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "occ_session_events_total",
			Help: "Session lifecycle events by type.",
		}, []string{"event"})

		prometheus.MustRegister(
			httpRequestsTotal, httpLatencySeconds, httpErrorsTotal,
			auditQueuedTotal, auditDroppedTotal, auditFailuresTotal,
			checklistCompletionsTotal, checklistMutationsTotal,
			uploadLatencySeconds, uploadRejectedTotal,
			sessionTransitionsTotal,
		)
	})
}

// HTTPRequests counts served requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency observes request latency.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors counts 4xx and 5xx responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// AuditQueued counts accepted audit entries.
func AuditQueued() prometheus.Counter {
	RegisterMetrics()
	return auditQueuedTotal
}

// AuditDropped counts audit entries rejected by the queue.
func AuditDropped() *prometheus.CounterVec {
	RegisterMetrics()
	return auditDroppedTotal
}

// AuditFailures counts audit entries that were never persisted.
func AuditFailures() prometheus.Counter {
	RegisterMetrics()
	return auditFailuresTotal
}

// ChecklistCompletions counts recorded completions.
func ChecklistCompletions() *prometheus.CounterVec {
	RegisterMetrics()
	return checklistCompletionsTotal
}

// ChecklistMutations counts state changes.
func ChecklistMutations() *prometheus.CounterVec {
	RegisterMetrics()
	return checklistMutationsTotal
}

// UploadLatency exposes the upload latency histogram.
func UploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return uploadLatencySeconds
}

// UploadRejected exposes rejected upload counts.
func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejectedTotal
}

// SessionEvents counts session lifecycle events.
func SessionEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return sessionTransitionsTotal
}
