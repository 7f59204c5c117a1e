// Package metrics exposes Prometheus counters for job supervision and the
// detection pipeline.
//
// A nil *Metrics is valid and records nothing, so packages can take one as an
// optional dependency without nil checks at every call site.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "oceaneye"

// Metrics holds every collector the server exports.
type Metrics struct {
	registry *prometheus.Registry

	jobsSubmitted   prometheus.Counter
	jobsCompleted   *prometheus.CounterVec
	spawnFailures   prometheus.Counter
	fallbacks       *prometheus.CounterVec
	dedupDecisions  *prometheus.CounterVec
	dashboardSends  *prometheus.CounterVec
	classifyLatency prometheus.Histogram
}

// New creates a Metrics instance backed by its own registry, with Go runtime
// and process collectors attached.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		jobsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_submitted_total",
			Help:      "Video jobs accepted by the supervisor.",
		}),
		jobsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_completed_total",
			Help:      "Video jobs that reached a terminal state, by status.",
		}, []string{"status"}),
		spawnFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_spawn_failures_total",
			Help:      "Worker processes that could not be started.",
		}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_fallbacks_total",
			Help:      "Degraded pipeline results, by stage.",
		}, []string{"stage"}),
		dedupDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dedup_decisions_total",
			Help:      "Deduplication outcomes, by result.",
		}, []string{"result"}),
		dashboardSends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dashboard_sends_total",
			Help:      "Detections forwarded to the dashboard, by result.",
		}, []string{"result"}),
		classifyLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classify_duration_seconds",
			Help:      "Latency of vision classification calls.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.jobsSubmitted,
		m.jobsCompleted,
		m.spawnFailures,
		m.fallbacks,
		m.dedupDecisions,
		m.dashboardSends,
		m.classifyLatency,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) JobSubmitted() {
	if m == nil {
		return
	}
	m.jobsSubmitted.Inc()
}

func (m *Metrics) JobCompleted(status string) {
	if m == nil {
		return
	}
	m.jobsCompleted.WithLabelValues(status).Inc()
}

func (m *Metrics) SpawnFailed() {
	if m == nil {
		return
	}
	m.spawnFailures.Inc()
}

// Fallback counts one degraded result at the named pipeline stage.
func (m *Metrics) Fallback(stage string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(stage).Inc()
}

// DedupDecision counts one deduplication outcome: "new", "duplicate" or "empty".
func (m *Metrics) DedupDecision(result string) {
	if m == nil {
		return
	}
	m.dedupDecisions.WithLabelValues(result).Inc()
}

func (m *Metrics) DashboardSend(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.dashboardSends.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveClassify(d time.Duration) {
	if m == nil {
		return
	}
	m.classifyLatency.Observe(d.Seconds())
}
