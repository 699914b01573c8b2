// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Search session metrics
	QueriesReceived    prometheus.Counter
	DebouncedQueries   prometheus.Counter
	ActiveSessions     prometheus.Gauge
	ShowMoreClicks     *prometheus.CounterVec
	Navigations        *prometheus.CounterVec
	MenuDismissals     prometheus.Counter
	ResolveLatency     *prometheus.HistogramVec
	ResolveErrors      *prometheus.CounterVec
	WatchlistMutations *prometheus.CounterVec

	// Anniversary metrics
	PromptsShown prometheus.Counter
	Claims       *prometheus.CounterVec

	// Info API metrics
	InfoAPILatency *prometheus.HistogramVec
	InfoAPIErrors  *prometheus.CounterVec

	// Ingest metrics
	RecordsIngested *prometheus.CounterVec
	IngestRunsTotal *prometheus.CounterVec
	IngestDuration  prometheus.Histogram

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulIngest prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered with reg.
// A nil reg uses the default registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "dex_info"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		QueriesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "queries_received_total",
			Help:      "Total number of raw query edits received",
		}),
		DebouncedQueries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "debounced_queries_total",
			Help:      "Total number of debounced query emissions",
		}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "active_sessions",
			Help:      "Current number of open search sessions",
		}),
		ShowMoreClicks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "show_more_total",
			Help:      "Total number of show-more activations by list",
		}, []string{"list"}),
		Navigations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "navigations_total",
			Help:      "Total number of result activations by kind",
		}, []string{"kind"}),
		MenuDismissals: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "menu_dismissals_total",
			Help:      "Total number of outside-click menu dismissals",
		}),
		ResolveLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "resolve_latency_seconds",
			Help:      "Result resolution latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		ResolveErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "resolve_errors_total",
			Help:      "Total number of failed result resolutions",
		}, []string{"source"}),
		WatchlistMutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watchlist",
			Name:      "mutations_total",
			Help:      "Total number of watchlist changes by kind and action",
		}, []string{"kind", "action"}),

		PromptsShown: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "anniversary",
			Name:      "prompts_shown_total",
			Help:      "Total number of anniversary prompts shown",
		}),
		Claims: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "anniversary",
			Name:      "claims_total",
			Help:      "Total number of anniversary claims by status",
		}, []string{"status"}),

		InfoAPILatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "infoapi",
			Name:      "call_latency_seconds",
			Help:      "Info API call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		InfoAPIErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "infoapi",
			Name:      "call_errors_total",
			Help:      "Total number of failed info API calls",
		}, []string{"operation"}),

		RecordsIngested: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "records_total",
			Help:      "Total number of records written by kind",
		}, []string{"kind"}),
		IngestRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "runs_total",
			Help:      "Total number of ingest runs by status",
		}, []string{"status"}),
		IngestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "duration_seconds",
			Help:      "Ingest run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}),

		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		LastSuccessfulIngest: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_ingest_timestamp",
			Help:      "Unix timestamp of last successful ingest run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordQueryReceived increments the raw query counter.
func RecordQueryReceived() {
	DefaultMetrics.QueriesReceived.Inc()
}

// RecordDebouncedQuery increments the debounced emission counter.
func RecordDebouncedQuery() {
	DefaultMetrics.DebouncedQueries.Inc()
}

// SessionOpened increments the active sessions gauge.
func SessionOpened() {
	DefaultMetrics.ActiveSessions.Inc()
}

// SessionClosed decrements the active sessions gauge.
func SessionClosed() {
	DefaultMetrics.ActiveSessions.Dec()
}

// RecordShowMore records a show-more activation for list ("tokens" or "pools").
func RecordShowMore(list string) {
	DefaultMetrics.ShowMoreClicks.WithLabelValues(list).Inc()
}

// RecordNavigation records a result activation for kind ("token" or "pool").
func RecordNavigation(kind string) {
	DefaultMetrics.Navigations.WithLabelValues(kind).Inc()
}

// RecordMenuDismissal records an outside-click dismissal.
func RecordMenuDismissal() {
	DefaultMetrics.MenuDismissals.Inc()
}

// RecordResolve records resolution latency and errors.
func RecordResolve(source string, seconds float64, err error) {
	DefaultMetrics.ResolveLatency.WithLabelValues(source).Observe(seconds)
	if err != nil {
		DefaultMetrics.ResolveErrors.WithLabelValues(source).Inc()
	}
}

// RecordWatchlistMutation records an add or remove.
func RecordWatchlistMutation(kind, action string) {
	DefaultMetrics.WatchlistMutations.WithLabelValues(kind, action).Inc()
}

// RecordPromptShown increments the anniversary prompt counter.
func RecordPromptShown() {
	DefaultMetrics.PromptsShown.Inc()
}

// RecordClaim records an anniversary claim outcome.
func RecordClaim(status string) {
	DefaultMetrics.Claims.WithLabelValues(status).Inc()
}

// RecordInfoAPICall records info API latency and errors.
func RecordInfoAPICall(operation string, seconds float64, err error) {
	DefaultMetrics.InfoAPILatency.WithLabelValues(operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.InfoAPIErrors.WithLabelValues(operation).Inc()
	}
}

// RecordIngested adds n written records of kind.
func RecordIngested(kind string, n int) {
	DefaultMetrics.RecordsIngested.WithLabelValues(kind).Add(float64(n))
}

// RecordIngestRun records an ingest run and, on success, the health timestamp.
func RecordIngestRun(status string, durationSeconds float64, at time.Time) {
	DefaultMetrics.IngestRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.IngestDuration.Observe(durationSeconds)
	if status == "success" {
		DefaultMetrics.LastSuccessfulIngest.Set(float64(at.Unix()))
	}
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
