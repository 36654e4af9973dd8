package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service. Each
// instance owns its registry so tests can build as many as they need.
type Metrics struct {
	registry *prometheus.Registry
	window   *stageWindow

	MessagesRouted    *prometheus.CounterVec
	ProviderErrors    *prometheus.CounterVec
	CompletionLatency prometheus.Histogram
	TranscriptTurns   prometheus.Gauge
	FeedbackRecords   *prometheus.CounterVec
	HTTPRequests      *prometheus.CounterVec
	WSMessages        *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		window:   newStageWindow(256),
		MessagesRouted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_routed_total",
			Help:      "Chat messages by classified kind.",
		}, []string{"kind"}),
		ProviderErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_errors_total",
			Help:      "Completion gateway failures by error kind and retryability.",
		}, []string{"kind", "retryable"}),
		CompletionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_latency_ms",
			Help:      "Completion provider round trip in milliseconds.",
			Buckets:   []float64{250, 500, 1000, 2000, 4000, 8000, 15000, 30000, 60000},
		}),
		TranscriptTurns: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "transcript_turns",
			Help:      "Number of turns currently held in the transcript.",
		}),
		FeedbackRecords: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_records_total",
			Help:      "Feedback records by origin (chat or page).",
		}, []string{"origin"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		WSMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket chat frames by direction.",
		}, []string{"direction"}),
	}
}

func (m *Metrics) ObserveRoute(kind string, d time.Duration) {
	m.MessagesRouted.WithLabelValues(kind).Inc()
	m.window.ObserveIndicator(kind)
	m.window.Observe("route", ms(d))
}

func (m *Metrics) ObserveCompletion(d time.Duration) {
	m.CompletionLatency.Observe(ms(d))
	m.window.Observe("completion", ms(d))
}

func (m *Metrics) ObserveCompletionError(kind string, retryable bool) {
	m.ProviderErrors.WithLabelValues(kind, strconv.FormatBool(retryable)).Inc()
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status int) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

func (m *Metrics) SnapshotStages() StageSnapshot {
	return m.window.Snapshot()
}

// Handler serves this instance's registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
