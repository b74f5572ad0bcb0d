// Package metrics provides Prometheus metrics for the sermon document engine
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the engine
type Metrics struct {
	// HTTP request metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Mutation metrics
	MutationsTotal   *prometheus.CounterVec
	MutationDuration *prometheus.HistogramVec

	// Document metrics
	DocumentVersion prometheus.Gauge
	EventLogEntries prometheus.Gauge
	UndoStackDepth  prometheus.Gauge
	RedoStackDepth  prometheus.Gauge
	NodesTotal      prometheus.Gauge
	PassagesTotal   prometheus.Gauge

	// Query metrics
	SearchQueriesTotal prometheus.Counter
	SearchResultsTotal prometheus.Counter

	// Watcher metrics
	WatchersConnected prometheus.Gauge

	// Server metrics
	ServerUptimeSeconds prometheus.Gauge
	ServerStartTime     time.Time
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	m := &Metrics{
		ServerStartTime: time.Now(),
	}

	// HTTP request metrics
	m.HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sermonstore_http_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"route", "method", "status"},
	)

	m.HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sermonstore_http_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	m.HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sermonstore_http_requests_in_flight",
			Help: "Number of API requests currently being processed",
		},
	)

	// Mutation metrics
	m.MutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sermonstore_mutations_total",
			Help: "Total number of document mutations",
		},
		[]string{"kind", "status"},
	)

	m.MutationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sermonstore_mutation_duration_seconds",
			Help:    "Duration of document mutations in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"kind"},
	)

	// Document metrics
	m.DocumentVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sermonstore_document_version",
			Help: "Current document version",
		},
	)

	m.EventLogEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sermonstore_event_log_entries",
			Help: "Number of entries in the event log",
		},
	)

	m.UndoStackDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sermonstore_undo_stack_depth",
			Help: "Number of undoable events",
		},
	)

	m.RedoStackDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sermonstore_redo_stack_depth",
			Help: "Number of redoable undos",
		},
	)

	m.NodesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sermonstore_nodes_total",
			Help: "Total number of nodes in the document tree",
		},
	)

	m.PassagesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sermonstore_passages_total",
			Help: "Total number of scripture passages in the document",
		},
	)

	// Query metrics
	m.SearchQueriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sermonstore_search_queries_total",
			Help: "Total number of search queries",
		},
	)

	m.SearchResultsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sermonstore_search_results_total",
			Help: "Total number of search results returned",
		},
	)

	// Watcher metrics
	m.WatchersConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sermonstore_watchers_connected",
			Help: "Number of WebSocket watchers currently connected",
		},
	)

	// Server metrics
	m.ServerUptimeSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sermonstore_server_uptime_seconds",
			Help: "Server uptime in seconds",
		},
	)

	// Start uptime updater
	go m.updateUptime()

	return m
}

// updateUptime periodically updates the server uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.ServerUptimeSeconds.Set(time.Since(m.ServerStartTime).Seconds())
	}
}

// RecordHTTPRequest records an API request with its status
func (m *Metrics) RecordHTTPRequest(route, method, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(route, method, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordMutation records a document mutation
func (m *Metrics) RecordMutation(kind string, status string, duration time.Duration) {
	m.MutationsTotal.WithLabelValues(kind, status).Inc()
	m.MutationDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordSearch records a search query and its result count
func (m *Metrics) RecordSearch(results int) {
	m.SearchQueriesTotal.Inc()
	m.SearchResultsTotal.Add(float64(results))
}

// UpdateDocumentStats updates the document-level gauges
func (m *Metrics) UpdateDocumentStats(version, logEntries, undoDepth, redoDepth, nodes, passages int) {
	m.DocumentVersion.Set(float64(version))
	m.EventLogEntries.Set(float64(logEntries))
	m.UndoStackDepth.Set(float64(undoDepth))
	m.RedoStackDepth.Set(float64(redoDepth))
	m.NodesTotal.Set(float64(nodes))
	m.PassagesTotal.Set(float64(passages))
}
