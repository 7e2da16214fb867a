package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	gradeWritesTotal      *prometheus.CounterVec
	gradeQueueDepth       prometheus.Gauge
	activeWorkspacesGauge prometheus.Gauge
)

// Grade write outcomes used as the "result" label.
const (
	GradeWriteOK      = "ok"
	GradeWriteError   = "error"
	GradeWriteDropped = "dropped"
)

// RegisterMetrics initialises the Prometheus collectors of the portal.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portal_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		gradeWritesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_grade_writes_total",
			Help: "Grade cells handed to the persistence writer, by outcome.",
		}, []string{"result"})

		gradeQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "portal_grade_queue_depth",
			Help: "Grade writes waiting in the persistence queue.",
		})

		activeWorkspacesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "portal_active_workspaces",
			Help: "Teacher gradebook workspaces currently held in memory.",
		})

		prometheus.MustRegister(httpRequestsTotal, httpLatencySeconds, gradeWritesTotal, gradeQueueDepth, activeWorkspacesGauge)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// GradeWrites exposes the grade write counter.
func GradeWrites() *prometheus.CounterVec {
	RegisterMetrics()
	return gradeWritesTotal
}

// GradeQueueDepth exposes the writer queue gauge.
func GradeQueueDepth() prometheus.Gauge {
	RegisterMetrics()
	return gradeQueueDepth
}

// ActiveWorkspaces exposes the workspace gauge.
func ActiveWorkspaces() prometheus.Gauge {
	RegisterMetrics()
	return activeWorkspacesGauge
}
