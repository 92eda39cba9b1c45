package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusExporterCounters(t *testing.T) {
	exporter := NewPrometheusExporter(DefaultConfig())

	exporter.RecordChatTurn("parenting", "answer", 100*time.Millisecond, true)
	exporter.RecordChatTurn("parenting", "answer", 200*time.Millisecond, true)
	exporter.RecordChatTurn("medical", "deflect", 10*time.Millisecond, false)
	exporter.RecordRouteDecision("nutrition", "deflect", "keyword")
	exporter.RecordToolCall("rag_search", 50*time.Millisecond, true)
	exporter.RecordCacheHit("classifier")
	exporter.RecordCacheMiss("web_search")
	exporter.RecordLLMTokens("gpt-4o-mini", "prompt", 120)
	exporter.RecordLLMTokens("gpt-4o-mini", "prompt", 0)
	exporter.RecordInsight("sleep", "generated")
	exporter.RecordCacheSize("routing", 12)
	exporter.RecordCacheSize("routing", 7)

	assert.Equal(t, 2.0, testutil.ToFloat64(exporter.chatRequests.WithLabelValues("parenting", "answer", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(exporter.chatRequests.WithLabelValues("medical", "deflect", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(exporter.routeDecisions.WithLabelValues("nutrition", "deflect", "keyword")))
	assert.Equal(t, 1.0, testutil.ToFloat64(exporter.toolCalls.WithLabelValues("rag_search", "success")))
	assert.Equal(t, 120.0, testutil.ToFloat64(exporter.llmTokensUsed.WithLabelValues("gpt-4o-mini", "prompt")))
	assert.Equal(t, 1.0, testutil.ToFloat64(exporter.insights.WithLabelValues("sleep", "generated")))
	assert.Equal(t, 7.0, testutil.ToFloat64(exporter.cacheSize.WithLabelValues("routing")))
}

func TestPrometheusExporterHandler(t *testing.T) {
	exporter := NewPrometheusExporter(Config{})
	exporter.RecordChatTurn("parenting", "answer", 100*time.Millisecond, true)
	exporter.RecordToolCall("diary_latest", 5*time.Millisecond, true)
	exporter.RecordCacheHit("classifier")

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	w := httptest.NewRecorder()
	exporter.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "todoc_ai_chat_requests_total")
	assert.Contains(t, body, "todoc_ai_tool_calls_total")
	assert.Contains(t, body, "todoc_ai_cache_hits_total")
}

func TestNoopSatisfiesRecorder(t *testing.T) {
	var r Recorder = Noop{}
	r.RecordChatTurn("parenting", "answer", time.Second, true)
	r.RecordInsight("meal", "empty")
}

func BenchmarkPrometheusExporter(b *testing.B) {
	exporter := NewPrometheusExporter(DefaultConfig())

	b.Run("RecordChatTurn", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			exporter.RecordChatTurn("parenting", "answer", 100*time.Millisecond, true)
		}
	})

	b.Run("RecordToolCall", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			exporter.RecordToolCall("rag_search", 50*time.Millisecond, true)
		}
	})
}
