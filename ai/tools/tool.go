// Package tools holds the capabilities the conversational agent may invoke
// and the registry that runs them.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hrygo/todoc/ai/core/llm"
	"github.com/hrygo/todoc/ai/metrics"
)

// Tool is a capability exposed to the agent.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the JSON Schema of the tool input.
	Parameters() map[string]any
	Run(ctx context.Context, input string) (string, error)
}

// sourceReporter is implemented by tools whose output cites documents.
type sourceReporter interface {
	// RunWithSources behaves like Run and also returns the cited sources.
	RunWithSources(ctx context.Context, input string) (string, []string, error)
}

// queryParameters is the schema shared by tools taking a free-text query.
func queryParameters(description string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": description,
			},
		},
		"required": []string{"query"},
	}
}

// noParameters is the schema of tools that ignore their input.
func noParameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

// Invocation records one tool call of a turn.
type Invocation struct {
	Name     string
	Input    string
	Output   string
	Sources  []string
	Duration time.Duration
	Failed   bool
}

// Trace collects the invocations of one turn. It is safe for concurrent use.
type Trace struct {
	mu    sync.Mutex
	calls []Invocation
}

func (t *Trace) add(inv Invocation) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, inv)
}

// Invocations returns the recorded calls in order.
func (t *Trace) Invocations() []Invocation {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Invocation(nil), t.calls...)
}

// Names returns the invoked tool names in call order.
func (t *Trace) Names() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]string, len(t.calls))
	for i, c := range t.calls {
		names[i] = c.Name
	}
	return names
}

// Registry runs tools by name.
type Registry struct {
	tools   map[string]Tool
	order   []string
	metrics metrics.Recorder
}

// NewRegistry creates a registry. A nil recorder disables metrics.
func NewRegistry(recorder metrics.Recorder, tools ...Tool) *Registry {
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	r := &Registry{tools: make(map[string]Tool, len(tools)), metrics: recorder}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds or replaces a tool.
func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Has reports whether a tool is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// Descriptors returns the function definitions sent to the LLM.
func (r *Registry) Descriptors() []llm.ToolDescriptor {
	out := make([]llm.ToolDescriptor, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		params, err := json.Marshal(t.Parameters())
		if err != nil {
			slog.Warn("tools: parameters schema not serializable", "tool", name, "error", err)
			params = []byte(`{"type":"object","properties":{}}`)
		}
		out = append(out, llm.ToolDescriptor{
			Name:        name,
			Description: t.Description(),
			Parameters:  string(params),
		})
	}
	return out
}

// Invoke runs the named tool and always returns text. Errors, panics and
// unknown names are rendered into the output. trace may be nil.
func (r *Registry) Invoke(ctx context.Context, trace *Trace, name, input string) (output string) {
	start := time.Now()
	inv := Invocation{Name: name, Input: input}

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("tools: tool panicked", "tool", name, "panic", rec)
			output = fmt.Sprintf("Error: tool %s failed unexpectedly", name)
			inv.Failed = true
			inv.Sources = nil
		}
		inv.Output = output
		inv.Duration = time.Since(start)
		r.metrics.RecordToolCall(name, inv.Duration, !inv.Failed)
		if trace != nil {
			trace.add(inv)
		}
		slog.Debug("tools: invoked",
			"tool", name,
			"failed", inv.Failed,
			"output_length", len(output),
			"duration_ms", inv.Duration.Milliseconds(),
		)
	}()

	t, ok := r.tools[name]
	if !ok {
		inv.Failed = true
		return "Unknown tool: " + name
	}

	var (
		out string
		err error
	)
	if sr, ok := t.(sourceReporter); ok {
		out, inv.Sources, err = sr.RunWithSources(ctx, input)
	} else {
		out, err = t.Run(ctx, input)
	}
	if err != nil {
		inv.Failed = true
		return "Error: " + err.Error()
	}
	return out
}

// UniqueSources returns the distinct sources across invocations of name,
// in first-seen order.
func UniqueSources(invocations []Invocation, name string) []string {
	seen := map[string]bool{}
	var out []string
	for _, inv := range invocations {
		if inv.Name != name {
			continue
		}
		for _, s := range inv.Sources {
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
