// Package metrics provides Prometheus metrics for the alert bridge.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "alertbridge"
)

// HTTP metrics
var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration tracks HTTP request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// HTTPRequestsInFlight tracks concurrent HTTP requests.
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)
)

// Pipeline metrics
var (
	// AlertsProcessedTotal counts processed alerts by severity.
	AlertsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "alerts_processed_total",
			Help:      "Total alerts processed by the pipeline",
		},
		[]string{"severity"},
	)

	// DeliveriesTotal counts per-recipient send attempts by outcome.
	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "deliveries_total",
			Help:      "Total per-recipient delivery attempts",
		},
		[]string{"outcome"},
	)

	// AnalysisTotal counts AI summarization attempts by result.
	AnalysisTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "analysis_total",
			Help:      "Total AI analysis attempts",
		},
		[]string{"result"}, // ok, error, skipped
	)

	// PipelineDuration tracks end-to-end alert processing latency.
	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "End-to-end alert processing latency in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)
)

// Gateway metrics
var (
	// GatewaySessionState exposes the current session state as a gauge
	// (value is the state's ordinal).
	GatewaySessionState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "session_state",
			Help:      "Messaging gateway session state (0=uninitialized ... 4=connected)",
		},
	)

	// GatewaySendsTotal counts outbound gateway messages by result.
	GatewaySendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "sends_total",
			Help:      "Total gateway send attempts",
		},
		[]string{"result"},
	)
)

// Monitoring client metrics
var (
	// MonitoringCallsTotal counts Zabbix RPC calls by method and result.
	MonitoringCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitoring",
			Name:      "calls_total",
			Help:      "Total monitoring RPC calls",
		},
		[]string{"method", "result"},
	)
)
