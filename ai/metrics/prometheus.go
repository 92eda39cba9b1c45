// Package metrics provides Prometheus metrics export for the chat core.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "todoc"
	subsystem = "ai"
)

// Recorder is the metrics surface used by the AI packages.
// Recorder 由各个 AI 组件调用，测试中可以使用 Noop。
type Recorder interface {
	RecordChatTurn(persona, decision string, latency time.Duration, success bool)
	RecordRouteDecision(persona, decision, source string)
	RecordToolCall(toolName string, latency time.Duration, success bool)
	RecordCacheHit(cacheType string)
	RecordCacheMiss(cacheType string)
	RecordCacheSize(cacheType string, entries int)
	RecordLLMTokens(model, tokenType string, count int)
	RecordLLMLatency(model, provider string, latency time.Duration)
	RecordInsight(category, outcome string)
}

// Noop discards every observation.
type Noop struct{}

func (Noop) RecordChatTurn(string, string, time.Duration, bool) {}
func (Noop) RecordRouteDecision(string, string, string)         {}
func (Noop) RecordToolCall(string, time.Duration, bool)         {}
func (Noop) RecordCacheHit(string)                              {}
func (Noop) RecordCacheMiss(string)                             {}
func (Noop) RecordCacheSize(string, int)                        {}
func (Noop) RecordLLMTokens(string, string, int)                {}
func (Noop) RecordLLMLatency(string, string, time.Duration)     {}
func (Noop) RecordInsight(string, string)                       {}

// PrometheusExporter exports AI metrics in Prometheus format.
type PrometheusExporter struct {
	registry *prometheus.Registry

	chatLatency  *prometheus.HistogramVec
	chatRequests *prometheus.CounterVec

	routeDecisions *prometheus.CounterVec

	toolCalls   *prometheus.CounterVec
	toolLatency *prometheus.HistogramVec

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	cacheSize   *prometheus.GaugeVec

	llmTokensUsed *prometheus.CounterVec
	llmLatency    *prometheus.HistogramVec

	insights *prometheus.CounterVec
}

var _ Recorder = (*PrometheusExporter)(nil)

// Config configures the Prometheus exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default Prometheus configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}
}

// NewPrometheusExporter creates a new Prometheus metrics exporter.
func NewPrometheusExporter(cfg Config) *PrometheusExporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &PrometheusExporter{registry: registry}

	e.chatLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "chat_latency_seconds",
			Help:      "Chat turn latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"persona", "decision"},
	)

	e.chatRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "chat_requests_total",
			Help:      "Total number of chat turns",
		},
		[]string{"persona", "decision", "status"},
	)

	e.routeDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "route_decisions_total",
			Help:      "Routing decisions by persona, outcome and deciding layer",
		},
		[]string{"persona", "decision", "source"},
	)

	e.toolCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tool_calls_total",
			Help:      "Total number of tool calls",
		},
		[]string{"tool_name", "status"},
	)

	e.toolLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tool_latency_seconds",
			Help:      "Tool call latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"tool_name"},
	)

	e.cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	e.cacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	e.cacheSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cache_entries",
			Help:      "Live entries per cache after the last expiry sweep",
		},
		[]string{"cache_type"},
	)

	e.llmTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "llm_tokens_total",
			Help:      "Total LLM tokens consumed",
		},
		[]string{"model", "token_type"},
	)

	e.llmLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "llm_latency_seconds",
			Help:      "LLM request latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"model", "provider"},
	)

	e.insights = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "insights_total",
			Help:      "Dashboard insight requests by category and outcome",
		},
		[]string{"category", "outcome"},
	)

	registry.MustRegister(
		e.chatLatency,
		e.chatRequests,
		e.routeDecisions,
		e.toolCalls,
		e.toolLatency,
		e.cacheHits,
		e.cacheMisses,
		e.cacheSize,
		e.llmTokensUsed,
		e.llmLatency,
		e.insights,
	)

	return e
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordChatTurn records one orchestrated chat turn.
func (e *PrometheusExporter) RecordChatTurn(persona, decision string, latency time.Duration, success bool) {
	e.chatRequests.WithLabelValues(persona, decision, statusLabel(success)).Inc()
	e.chatLatency.WithLabelValues(persona, decision).Observe(latency.Seconds())
}

// RecordRouteDecision records which layer settled a routing decision.
func (e *PrometheusExporter) RecordRouteDecision(persona, decision, source string) {
	e.routeDecisions.WithLabelValues(persona, decision, source).Inc()
}

// RecordToolCall records a tool call metric.
func (e *PrometheusExporter) RecordToolCall(toolName string, latency time.Duration, success bool) {
	e.toolCalls.WithLabelValues(toolName, statusLabel(success)).Inc()
	e.toolLatency.WithLabelValues(toolName).Observe(latency.Seconds())
}

// RecordCacheHit records a cache hit.
func (e *PrometheusExporter) RecordCacheHit(cacheType string) {
	e.cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss.
func (e *PrometheusExporter) RecordCacheMiss(cacheType string) {
	e.cacheMisses.WithLabelValues(cacheType).Inc()
}

// RecordCacheSize sets the entry count of a cache.
func (e *PrometheusExporter) RecordCacheSize(cacheType string, entries int) {
	e.cacheSize.WithLabelValues(cacheType).Set(float64(entries))
}

// RecordLLMTokens records LLM token usage.
func (e *PrometheusExporter) RecordLLMTokens(model, tokenType string, count int) {
	if count <= 0 {
		return
	}
	e.llmTokensUsed.WithLabelValues(model, tokenType).Add(float64(count))
}

// RecordLLMLatency records LLM request latency.
func (e *PrometheusExporter) RecordLLMLatency(model, provider string, latency time.Duration) {
	e.llmLatency.WithLabelValues(model, provider).Observe(latency.Seconds())
}

// RecordInsight records a dashboard insight outcome (cached, generated, empty, error).
func (e *PrometheusExporter) RecordInsight(category, outcome string) {
	e.insights.WithLabelValues(category, outcome).Inc()
}

// GetHandler returns the HTTP handler for Prometheus metrics.
func (e *PrometheusExporter) GetHandler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// ServeHTTP implements http.Handler for the metrics endpoint.
func (e *PrometheusExporter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.GetHandler().ServeHTTP(w, r)
}
