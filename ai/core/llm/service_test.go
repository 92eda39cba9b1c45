package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOpenAI serves canned /chat/completions responses and records request bodies.
type fakeOpenAI struct {
	mu       sync.Mutex
	requests []map[string]any
	reply    string
	status   int
}

func (f *fakeOpenAI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		var req map[string]any
		if err != nil || json.Unmarshal(body, &req) != nil {
			t.Errorf("bad request body: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.requests = append(f.requests, req)
		f.mu.Unlock()

		if f.status != 0 {
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(f.reply))
	}
}

func (f *fakeOpenAI) last() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newFake(t *testing.T, provider, reply string) (*fakeOpenAI, Service) {
	t.Helper()
	fake := &fakeOpenAI{reply: reply}
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	svc, err := NewService(&Config{Provider: provider, Model: "test-model", APIKey: "k", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)
	return fake, svc
}

func completion(message string) string {
	return `{"id":"c","object":"chat.completion","created":1,"model":"test-model",
		"choices":[{"index":0,"message":` + message + `,"finish_reason":"stop"}],
		"usage":{"prompt_tokens":12,"completion_tokens":3,"total_tokens":15}}`
}

func TestNewService_UnsupportedProvider(t *testing.T) {
	_, err := NewService(&Config{Provider: "unsupported", Model: "m"})
	assert.Error(t, err)
}

func TestNewService_Defaults(t *testing.T) {
	svc, err := NewService(&Config{Provider: "deepseek", APIKey: "k"})
	require.NoError(t, err)

	s, ok := svc.(*service)
	require.True(t, ok)
	assert.Equal(t, 800, s.maxTokens)
	assert.InDelta(t, 0.2, s.temperature, 0.0001)
}

func TestChat(t *testing.T) {
	fake, svc := newFake(t, "openai", completion(`{"role":"assistant","content":"안녕하세요"}`))

	text, stats, err := svc.Chat(context.Background(),
		FormatMessages("sys", "hi", []Message{AssistantMessage("earlier")}),
		WithTemperature(0.7), WithMaxTokens(50))
	require.NoError(t, err)
	assert.Equal(t, "안녕하세요", text)
	assert.Equal(t, 15, stats.TotalTokens)

	req := fake.last()
	assert.InDelta(t, 0.7, req["temperature"], 0.0001)
	assert.EqualValues(t, 50, req["max_tokens"])
	msgs := req["messages"].([]any)
	require.Len(t, msgs, 3)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "assistant", msgs[1].(map[string]any)["role"])
}

func TestChatWithTools(t *testing.T) {
	fake, svc := newFake(t, "openai", completion(`{"role":"assistant","content":"",
		"tool_calls":[{"id":"call_1","type":"function","function":{"name":"rag_search","arguments":"{\"query\":\"수면\"}"}}]}`))

	resp, _, err := svc.ChatWithTools(context.Background(), []Message{UserMessage("잠")}, []ToolDescriptor{
		{Name: "rag_search", Description: "search", Parameters: `{"type":"object","properties":{"query":{"type":"string"}}}`},
	})
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "rag_search", resp.ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"query":"수면"}`, resp.ToolCalls[0].Function.Arguments)

	tools := fake.last()["tools"].([]any)
	assert.Len(t, tools, 1)
}

func TestChatJSON(t *testing.T) {
	schema := ObjectSchema(map[string]*JSONSchema{
		"decision": StringProp("decision", "in_scope", "ambiguous", "off_topic"),
	}, "decision")

	t.Run("json_schema provider", func(t *testing.T) {
		fake, svc := newFake(t, "openai", completion(`{"role":"assistant","content":"{\"decision\":\"ambiguous\"}"}`))

		var out struct {
			Decision string `json:"decision"`
		}
		_, err := svc.ChatJSON(context.Background(), []Message{UserMessage("q")}, schema, &out, WithSchemaName("route"))
		require.NoError(t, err)
		assert.Equal(t, "ambiguous", out.Decision)

		format := fake.last()["response_format"].(map[string]any)
		assert.Equal(t, "json_schema", format["type"])
		assert.Equal(t, "route", format["json_schema"].(map[string]any)["name"])
	})

	t.Run("json_object provider with fenced output", func(t *testing.T) {
		fake, svc := newFake(t, "deepseek", completion(`{"role":"assistant","content":"`+"```json\\n{\\\"decision\\\":\\\"off_topic\\\"}\\n```"+`"}`))

		var out struct {
			Decision string `json:"decision"`
		}
		_, err := svc.ChatJSON(context.Background(), []Message{UserMessage("q")}, schema, &out)
		require.NoError(t, err)
		assert.Equal(t, "off_topic", out.Decision)
		assert.Equal(t, "json_object", fake.last()["response_format"].(map[string]any)["type"])
	})

	t.Run("malformed output", func(t *testing.T) {
		_, svc := newFake(t, "openai", completion(`{"role":"assistant","content":"not json"}`))

		var out map[string]any
		_, err := svc.ChatJSON(context.Background(), []Message{UserMessage("q")}, schema, &out)
		assert.Error(t, err)
	})
}

func TestChatServerError(t *testing.T) {
	fake, svc := newFake(t, "openai", "")
	fake.status = http.StatusInternalServerError

	_, _, err := svc.Chat(context.Background(), []Message{UserMessage("q")})
	assert.Error(t, err)
}

func TestDecodeJSON(t *testing.T) {
	var out struct {
		A int `json:"a"`
	}
	require.NoError(t, DecodeJSON("Here you go: {\"a\": 2} thanks", &out))
	assert.Equal(t, 2, out.A)
	assert.Error(t, DecodeJSON("   ", &out))
}

func TestLLMCallStatsAdd(t *testing.T) {
	total := &LLMCallStats{}
	total.Add(&LLMCallStats{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3})
	total.Add(nil)
	total.Add(&LLMCallStats{PromptTokens: 1, TotalTokens: 1})
	assert.Equal(t, 4, total.TotalTokens)
	assert.Equal(t, 2, total.PromptTokens)
}
