package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/hrygo/todoc/ai/metrics"
)

// Role names used in Message.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrEmptyResponse is returned when the provider answers without choices.
var ErrEmptyResponse = errors.New("empty response from LLM")

// Message represents a chat message.
type Message struct {
	Role    string // system, user, assistant
	Content string
}

// LLMCallStats represents token usage and timing of a single LLM call.
type LLMCallStats struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
	CacheReadTokens  int `json:"cache_read_tokens,omitempty"`

	TotalDurationMs int64 `json:"total_duration_ms"`
}

// Add accumulates other into s. A nil other is ignored.
func (s *LLMCallStats) Add(other *LLMCallStats) {
	if s == nil || other == nil {
		return
	}
	s.PromptTokens += other.PromptTokens
	s.CompletionTokens += other.CompletionTokens
	s.TotalTokens += other.TotalTokens
	s.CacheReadTokens += other.CacheReadTokens
	s.TotalDurationMs += other.TotalDurationMs
}

// Service is the LLM service interface.
type Service interface {
	// Chat performs synchronous chat. Returns content, statistics, and error.
	Chat(ctx context.Context, messages []Message, opts ...CallOption) (string, *LLMCallStats, error)

	// ChatWithTools performs chat with function calling support.
	ChatWithTools(ctx context.Context, messages []Message, tools []ToolDescriptor, opts ...CallOption) (*ChatResponse, *LLMCallStats, error)

	// ChatJSON asks for structured output matching schema and decodes it into out.
	ChatJSON(ctx context.Context, messages []Message, schema *JSONSchema, out any, opts ...CallOption) (*LLMCallStats, error)

	// Warmup sends a lightweight ping request to establish and warm up the LLM connection.
	Warmup(ctx context.Context)
}

// ToolDescriptor represents a function/tool available to the LLM.
type ToolDescriptor struct {
	Name        string
	Description string
	Parameters  string // JSON Schema string
}

// ChatResponse represents the LLM response including potential tool calls.
type ChatResponse struct {
	Content   string
	ToolCalls []ToolCall
}

// ToolCall represents a request to call a tool.
type ToolCall struct {
	ID       string
	Type     string
	Function FunctionCall
}

// FunctionCall represents the function details.
type FunctionCall struct {
	Name      string
	Arguments string
}

// Config represents LLM service configuration.
type Config struct {
	Provider    string // openai, deepseek, siliconflow, dashscope, openrouter, ollama
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 800
	Temperature float32 // default: 0.2
	Timeout     time.Duration
	Metrics     metrics.Recorder
}

// CallOption overrides sampling parameters for a single call.
type CallOption func(*callOptions)

type callOptions struct {
	model       string
	schemaName  string
	maxTokens   int
	temperature float32
}

// WithTemperature overrides the sampling temperature.
func WithTemperature(t float32) CallOption {
	return func(o *callOptions) { o.temperature = t }
}

// WithMaxTokens overrides the completion token limit.
func WithMaxTokens(n int) CallOption {
	return func(o *callOptions) { o.maxTokens = n }
}

// WithModel overrides the model for one call (e.g. a cheaper classifier model).
func WithModel(model string) CallOption {
	return func(o *callOptions) {
		if model != "" {
			o.model = model
		}
	}
}

// WithSchemaName names the JSON schema sent with ChatJSON.
func WithSchemaName(name string) CallOption {
	return func(o *callOptions) { o.schemaName = name }
}

var defaultBaseURLs = map[string]string{
	"openai":      "",
	"deepseek":    "https://api.deepseek.com",
	"siliconflow": "https://api.siliconflow.cn/v1",
	"dashscope":   "https://dashscope.aliyuncs.com/compatible-mode/v1",
	"openrouter":  "https://openrouter.ai/api/v1",
	"ollama":      "http://localhost:11434/v1",
}

// jsonObjectProviders do not accept json_schema response formats.
var jsonObjectProviders = map[string]bool{
	"deepseek":  true,
	"dashscope": true,
	"ollama":    true,
}

type service struct {
	client      *openai.Client
	metrics     metrics.Recorder
	model       string
	provider    string
	maxTokens   int
	temperature float32
	timeout     time.Duration
}

// NewService creates a new LLM Service.
func NewService(cfg *Config) (Service, error) {
	baseURL, ok := defaultBaseURLs[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
	if cfg.BaseURL != "" {
		baseURL = cfg.BaseURL
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	clientConfig.HTTPClient = newHTTPClient()

	s := &service{
		client:      openai.NewClientWithConfig(clientConfig),
		metrics:     cfg.Metrics,
		model:       cfg.Model,
		provider:    cfg.Provider,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
	}
	if s.maxTokens <= 0 {
		s.maxTokens = 800
	}
	if s.temperature <= 0 {
		s.temperature = 0.2
	}
	if s.timeout <= 0 {
		s.timeout = 60 * time.Second
	}
	if s.metrics == nil {
		s.metrics = metrics.Noop{}
	}
	return s, nil
}

func (s *service) options(opts []CallOption) callOptions {
	o := callOptions{
		model:       s.model,
		maxTokens:   s.maxTokens,
		temperature: s.temperature,
		schemaName:  "structured_output",
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (s *service) Chat(ctx context.Context, messages []Message, opts ...CallOption) (string, *LLMCallStats, error) {
	o := s.options(opts)
	req := openai.ChatCompletionRequest{
		Model:       o.model,
		MaxTokens:   o.maxTokens,
		Temperature: o.temperature,
		Messages:    convertMessages(messages),
	}

	resp, stats, err := s.complete(ctx, req)
	if err != nil {
		return "", nil, fmt.Errorf("LLM chat failed: %w", err)
	}
	return resp.Choices[0].Message.Content, stats, nil
}

func (s *service) ChatWithTools(ctx context.Context, messages []Message, tools []ToolDescriptor, opts ...CallOption) (*ChatResponse, *LLMCallStats, error) {
	o := s.options(opts)

	openaiTools := make([]openai.Tool, len(tools))
	for i, t := range tools {
		openaiTools[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  json.RawMessage(t.Parameters),
			},
		}
	}

	req := openai.ChatCompletionRequest{
		Model:       o.model,
		MaxTokens:   o.maxTokens,
		Temperature: o.temperature,
		Messages:    convertMessages(messages),
	}
	if len(openaiTools) > 0 {
		req.Tools = openaiTools
	}

	resp, stats, err := s.complete(ctx, req)
	if err != nil {
		return nil, nil, fmt.Errorf("LLM chat with tools failed: %w", err)
	}

	choice := resp.Choices[0]
	response := &ChatResponse{Content: choice.Message.Content}
	for _, tc := range choice.Message.ToolCalls {
		response.ToolCalls = append(response.ToolCalls, ToolCall{
			ID:   tc.ID,
			Type: string(tc.Type),
			Function: FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return response, stats, nil
}

func (s *service) ChatJSON(ctx context.Context, messages []Message, schema *JSONSchema, out any, opts ...CallOption) (*LLMCallStats, error) {
	o := s.options(opts)
	req := openai.ChatCompletionRequest{
		Model:       o.model,
		MaxTokens:   o.maxTokens,
		Temperature: o.temperature,
		Messages:    convertMessages(messages),
	}
	if jsonObjectProviders[s.provider] || schema == nil {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	} else {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   o.schemaName,
				Strict: true,
				Schema: schema,
			},
		}
	}

	resp, stats, err := s.complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("LLM structured chat failed: %w", err)
	}

	content := resp.Choices[0].Message.Content
	if err := DecodeJSON(content, out); err != nil {
		slog.Warn("LLM: structured output parse failed",
			"model", o.model,
			"content_length", len(content),
			"error", err,
		)
		return stats, err
	}
	return stats, nil
}

func (s *service) complete(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, *LLMCallStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	slog.Debug("LLM: request",
		"model", req.Model,
		"messages_count", len(req.Messages),
		"tools", len(req.Tools),
		"max_tokens", req.MaxTokens,
	)

	startTime := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, req)
	duration := time.Since(startTime)
	s.metrics.RecordLLMLatency(req.Model, s.provider, duration)
	if err != nil {
		slog.Error("LLM: request failed", "model", req.Model, "error", err, "duration_ms", duration.Milliseconds())
		return resp, nil, err
	}
	if len(resp.Choices) == 0 {
		slog.Warn("LLM: Empty response from LLM", "model", req.Model)
		return resp, nil, ErrEmptyResponse
	}

	stats := &LLMCallStats{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
		TotalDurationMs:  duration.Milliseconds(),
	}
	if resp.Usage.PromptTokensDetails != nil && resp.Usage.PromptTokensDetails.CachedTokens > 0 {
		stats.CacheReadTokens = resp.Usage.PromptTokensDetails.CachedTokens
	}
	s.metrics.RecordLLMTokens(req.Model, "prompt", stats.PromptTokens)
	s.metrics.RecordLLMTokens(req.Model, "completion", stats.CompletionTokens)

	slog.Debug("LLM: response received",
		"content_length", len(resp.Choices[0].Message.Content),
		"tool_calls", len(resp.Choices[0].Message.ToolCalls),
		"total_tokens", stats.TotalTokens,
		"duration_ms", duration.Milliseconds(),
	)
	return resp, stats, nil
}

func (s *service) Warmup(ctx context.Context) {
	warmupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	startTime := time.Now()
	_, err := s.client.CreateChatCompletion(warmupCtx, openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   1,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: "Hi"},
		},
	})
	duration := time.Since(startTime)

	if err != nil {
		slog.Warn("LLM: warmup ping failed (service will still work, first request may be slower)",
			"provider", s.provider,
			"model", s.model,
			"error", err,
			"duration_ms", duration.Milliseconds(),
		)
		return
	}

	slog.Info("LLM: connection warmed up successfully",
		"provider", s.provider,
		"model", s.model,
		"duration_ms", duration.Milliseconds(),
	)
}

// DecodeJSON unmarshals model output into out, tolerating markdown code
// fences and prose around a single JSON object.
func DecodeJSON(content string, out any) error {
	text := strings.TrimSpace(content)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		text = text[start : end+1]
	}
	if text == "" {
		return errors.New("empty structured output")
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("decode structured output: %w", err)
	}
	return nil
}

func convertMessages(messages []Message) []openai.ChatCompletionMessage {
	llmMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case RoleSystem:
			role = openai.ChatMessageRoleSystem
		case RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		llmMessages[i] = openai.ChatCompletionMessage{Role: role, Content: m.Content}
	}
	return llmMessages
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 90 * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// SystemPrompt creates a system message.
func SystemPrompt(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// FormatMessages assembles system prompt, history and the new user message.
func FormatMessages(systemPrompt string, userContent string, history []Message) []Message {
	messages := make([]Message, 0, len(history)+2)
	if systemPrompt != "" {
		messages = append(messages, SystemPrompt(systemPrompt))
	}
	messages = append(messages, history...)
	messages = append(messages, UserMessage(userContent))
	return messages
}
