package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the config runtime. The zero
// pointer is a valid no-op collector, so callers never nil-check.
type Metrics struct {
	config MetricsConfig

	loadsTotal      *prometheus.CounterVec
	savesTotal      *prometheus.CounterVec
	loadDuration    prometheus.Histogram
	saveDuration    prometheus.Histogram
	watchEvents     *prometheus.CounterVec
	saveQueueDepth  prometheus.Gauge
	registeredConfs prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates a metrics collector. When cfg.Enabled is false every
// recording method is a no-op.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "confsync"
	}

	registry := prometheus.NewRegistry()
	m := &Metrics{
		config:   cfg,
		registry: registry,

		loadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "loads_total",
				Help:      "Total number of config load tasks by result",
			},
			[]string{"result"},
		),
		savesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "saves_total",
				Help:      "Total number of config save operations by result",
			},
			[]string{"result"},
		),
		loadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "load_duration_seconds",
				Help:      "Duration of config load tasks in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		saveDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "save_duration_seconds",
				Help:      "Duration of config save operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		watchEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "watch_events_total",
				Help:      "File-system watch events by dispatch decision",
			},
			[]string{"decision"},
		),
		saveQueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "save_queue_depth",
				Help:      "Number of save closures waiting in the queue",
			},
		),
		registeredConfs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "registered_configs",
				Help:      "Number of currently registered config handles",
			},
		),
	}

	registry.MustRegister(
		m.loadsTotal, m.savesTotal,
		m.loadDuration, m.saveDuration,
		m.watchEvents, m.saveQueueDepth, m.registeredConfs,
	)
	return m, nil
}

func (m *Metrics) enabled() bool { return m != nil && m.registry != nil }

// RecordLoad records one completed load task.
func (m *Metrics) RecordLoad(result string, d time.Duration) {
	if !m.enabled() {
		return
	}
	m.loadsTotal.WithLabelValues(result).Inc()
	m.loadDuration.Observe(d.Seconds())
}

// RecordSave records one completed save operation.
func (m *Metrics) RecordSave(result string, d time.Duration) {
	if !m.enabled() {
		return
	}
	m.savesTotal.WithLabelValues(result).Inc()
	m.saveDuration.Observe(d.Seconds())
}

// RecordWatchEvent records the dispatch decision for one watch event:
// reload, suppressed, or ignored.
func (m *Metrics) RecordWatchEvent(decision string) {
	if !m.enabled() {
		return
	}
	m.watchEvents.WithLabelValues(decision).Inc()
}

// SetSaveQueueDepth publishes the current queue backlog.
func (m *Metrics) SetSaveQueueDepth(n int) {
	if !m.enabled() {
		return
	}
	m.saveQueueDepth.Set(float64(n))
}

// SetRegisteredConfigs publishes the registry size.
func (m *Metrics) SetRegisteredConfigs(n int) {
	if !m.enabled() {
		return
	}
	m.registeredConfs.Set(float64(n))
}

// Handler returns the HTTP handler for the metrics registry.
func (m *Metrics) Handler() http.Handler {
	if !m.enabled() {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve starts the metrics HTTP listener when one is configured. It returns
// immediately; the listener runs until the process exits.
func (m *Metrics) Serve() {
	if !m.enabled() || m.config.ListenAddress == "" {
		return
	}
	path := m.config.Path
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())
	go func() {
		_ = http.ListenAndServe(m.config.ListenAddress, mux)
	}()
}
