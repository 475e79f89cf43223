package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	facultyRequestsTotal  *prometheus.CounterVec
	facultyLatencySeconds *prometheus.HistogramVec
	facultyErrorsTotal    *prometheus.CounterVec
	activityTransitions   *prometheus.CounterVec
	aggregateCacheLookups *prometheus.CounterVec
	uploadRequestsTotal   *prometheus.CounterVec
	uploadRejectedTotal   *prometheus.CounterVec
	uploadLatencySeconds  prometheus.Histogram
)

// RegisterMetrics initialises the Prometheus collectors used across the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		facultyRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "faculty_requests_total",
			Help: "Total number of faculty API requests served.",
		}, []string{"method", "route", "status"})

		facultyLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "faculty_latency_seconds",
			Help:    "Latency distribution for faculty API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		facultyErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "faculty_errors_total",
			Help: "Total number of error responses returned by faculty endpoints.",
		}, []string{"method", "route", "status"})

		activityTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "activity_transitions_total",
			Help: "Lifecycle transitions applied to activities, by action and resulting status.",
		}, []string{"action", "status"})

		aggregateCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aggregate_cache_lookups_total",
			Help: "Aggregate cache lookups by view and outcome.",
		}, []string{"view", "outcome"})

		uploadRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evidence_uploads_total",
			Help: "Evidence files stored, by detected type.",
		}, []string{"type"})

		uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evidence_uploads_rejected_total",
			Help: "Evidence uploads refused, by reason.",
		}, []string{"reason"})

		uploadLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "evidence_upload_latency_seconds",
			Help:    "Time spent validating and storing evidence files.",
			Buckets: prometheus.DefBuckets,
		})

		prometheus.MustRegister(
			facultyRequestsTotal,
			facultyLatencySeconds,
			facultyErrorsTotal,
			activityTransitions,
			aggregateCacheLookups,
			uploadRequestsTotal,
			uploadRejectedTotal,
			uploadLatencySeconds,
		)
	})
}

// FacultyRequests exposes the counter for faculty requests.
func FacultyRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return facultyRequestsTotal
}

// FacultyLatency exposes the latency histogram for faculty requests.
func FacultyLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return facultyLatencySeconds
}

// FacultyErrors exposes the counter for faculty error responses.
func FacultyErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return facultyErrorsTotal
}

// ActivityTransitions counts lifecycle mutations.
func ActivityTransitions() *prometheus.CounterVec {
	RegisterMetrics()
	return activityTransitions
}

// AggregateCacheLookups counts cache hits and misses per aggregate view.
func AggregateCacheLookups() *prometheus.CounterVec {
	RegisterMetrics()
	return aggregateCacheLookups
}

// UploadRequests counts stored evidence files.
func UploadRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRequestsTotal
}

// UploadRejected counts refused evidence uploads.
func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejectedTotal
}

// UploadLatency exposes the evidence upload latency histogram.
func UploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return uploadLatencySeconds
}
