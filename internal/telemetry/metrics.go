package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the counters jfrlens exports. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	EventsVisited    *prometheus.CounterVec
	Analyses         *prometheus.CounterVec
	AnalysisDuration prometheus.Histogram
	Anomalies        *prometheus.CounterVec
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
}

// NewMetrics creates the metrics and registers them on reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "jfrlens"
	}
	m := &Metrics{}
	m.EventsVisited = prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "events_visited_total", Help: "Events dispatched to extractors, by JFR type."}, []string{"type"})
	m.Analyses = prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "analyses_total", Help: "Analysis passes, by outcome."}, []string{"outcome"})
	m.AnalysisDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "analysis_duration_seconds", Help: "Wall time of one analysis pass.", Buckets: prometheus.DefBuckets})
	m.Anomalies = prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "integrity_anomalies_total", Help: "Accounting divergences, by dimension."}, []string{"dimension"})
	m.CacheHits = prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "session_cache_hits_total", Help: "Session cache hits."})
	m.CacheMisses = prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "session_cache_misses_total", Help: "Session cache misses."})
	reg.MustRegister(m.EventsVisited, m.Analyses, m.AnalysisDuration, m.Anomalies, m.CacheHits, m.CacheMisses)
	return m
}

func (m *Metrics) EventVisited(typ string) {
	if m == nil {
		return
	}
	m.EventsVisited.WithLabelValues(typ).Inc()
}

func (m *Metrics) AnalysisDone(d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Analyses.WithLabelValues(outcome).Inc()
	m.AnalysisDuration.Observe(d.Seconds())
}

func (m *Metrics) Anomaly(dimension string) {
	if m == nil {
		return
	}
	m.Anomalies.WithLabelValues(dimension).Inc()
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.CacheHits.Inc()
}

func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.CacheMisses.Inc()
}
