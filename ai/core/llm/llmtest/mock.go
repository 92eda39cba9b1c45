// Package llmtest provides a scriptable llm.Service for tests.
package llmtest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/hrygo/todoc/ai/core/llm"
)

// ErrScriptExhausted is returned when ChatWithTools runs past its script.
var ErrScriptExhausted = errors.New("llmtest: tool script exhausted")

// Call records one request made to the mock.
type Call struct {
	Method   string // Chat, ChatWithTools, ChatJSON
	Messages []llm.Message
	Tools    []llm.ToolDescriptor
}

// MockLLM is a configurable mock LLM service.
// MockLLM 是一个可配置的 Mock LLM 服务。
type MockLLM struct {
	mu sync.Mutex

	chatResponse string
	chatErr      error
	jsonResponse string
	jsonErr      error
	toolScript   []*llm.ChatResponse
	toolErr      error
	stats        *llm.LLMCallStats
	calls        []Call
}

// NewMockLLM creates a mock that answers Chat with "Mock response".
func NewMockLLM() *MockLLM {
	return &MockLLM{
		chatResponse: "Mock response",
		stats:        &llm.LLMCallStats{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150},
	}
}

// WithChatResponse sets the Chat reply.
func (m *MockLLM) WithChatResponse(text string) *MockLLM {
	m.chatResponse = text
	return m
}

// WithChatError makes Chat fail.
func (m *MockLLM) WithChatError(err error) *MockLLM {
	m.chatErr = err
	return m
}

// WithJSONResponse sets the raw content decoded by ChatJSON.
func (m *MockLLM) WithJSONResponse(content string) *MockLLM {
	m.jsonResponse = content
	return m
}

// WithJSONError makes ChatJSON fail.
func (m *MockLLM) WithJSONError(err error) *MockLLM {
	m.jsonErr = err
	return m
}

// WithToolScript sets the ChatWithTools responses, consumed in order.
func (m *MockLLM) WithToolScript(responses ...*llm.ChatResponse) *MockLLM {
	m.toolScript = responses
	return m
}

// WithToolError makes ChatWithTools fail once the script is consumed.
func (m *MockLLM) WithToolError(err error) *MockLLM {
	m.toolErr = err
	return m
}

// Answer is a final ChatWithTools response without tool calls.
func Answer(text string) *llm.ChatResponse {
	return &llm.ChatResponse{Content: text}
}

// UseTool is a ChatWithTools response requesting one tool call.
func UseTool(name, arguments string) *llm.ChatResponse {
	return &llm.ChatResponse{ToolCalls: []llm.ToolCall{{
		ID:       "call_" + name,
		Type:     "function",
		Function: llm.FunctionCall{Name: name, Arguments: arguments},
	}}}
}

func (m *MockLLM) record(c Call) {
	m.calls = append(m.calls, c)
}

// Calls returns a copy of the recorded calls.
func (m *MockLLM) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// CallCount returns how many calls of method were made.
func (m *MockLLM) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (m *MockLLM) Chat(_ context.Context, msgs []llm.Message, _ ...llm.CallOption) (string, *llm.LLMCallStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(Call{Method: "Chat", Messages: msgs})
	if m.chatErr != nil {
		return "", nil, m.chatErr
	}
	return m.chatResponse, m.stats, nil
}

func (m *MockLLM) ChatWithTools(_ context.Context, msgs []llm.Message, tools []llm.ToolDescriptor, _ ...llm.CallOption) (*llm.ChatResponse, *llm.LLMCallStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(Call{Method: "ChatWithTools", Messages: append([]llm.Message(nil), msgs...), Tools: tools})
	if len(m.toolScript) == 0 {
		if m.toolErr != nil {
			return nil, nil, m.toolErr
		}
		return nil, nil, ErrScriptExhausted
	}
	next := m.toolScript[0]
	m.toolScript = m.toolScript[1:]
	return next, m.stats, nil
}

func (m *MockLLM) ChatJSON(_ context.Context, msgs []llm.Message, _ *llm.JSONSchema, out any, _ ...llm.CallOption) (*llm.LLMCallStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(Call{Method: "ChatJSON", Messages: msgs})
	if m.jsonErr != nil {
		return nil, m.jsonErr
	}
	if err := llm.DecodeJSON(m.jsonResponse, out); err != nil {
		return m.stats, err
	}
	return m.stats, nil
}

func (m *MockLLM) Warmup(context.Context) {}

// MustJSON marshals v for WithJSONResponse.
func MustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
