package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/hrygo/todoc/ai/core/llm"
	"github.com/hrygo/todoc/ai/persona"
	"github.com/hrygo/todoc/ai/tools"
)

// textToolCallRegex matches tool calls written inline as [Tool: name(args)].
var textToolCallRegex = regexp.MustCompile(`\[Tool:\s*(\w+)\((.*?)\)\]`)

// Driver runs the tool-calling loop against an LLM.
type Driver struct {
	llm           llm.Service
	maxIterations int
}

// NewDriver creates a driver. A nil service always yields FallbackReply.
func NewDriver(svc llm.Service) *Driver {
	return &Driver{llm: svc, maxIterations: MaxIterations}
}

// Run generates the answer for req. It never fails: LLM errors and an
// exhausted loop return the best text so far, or FallbackReply.
func (d *Driver) Run(ctx context.Context, req Request) *Result {
	start := time.Now()
	if req.Policy == nil {
		req.Policy = persona.NewStore().Policy(persona.Parenting)
	}
	registry := req.Tools
	if registry == nil {
		registry = tools.NewRegistry(nil)
	}

	result := &Result{
		PersonalizationRequested: req.Personalize,
		PersonalizationUsed:      req.Diary.HasKid(),
	}
	trace := &tools.Trace{}
	defer func() {
		result.Invocations = trace.Invocations()
		result.ToolsCalled = trace.Names()
		result.Citations = tools.UniqueSources(result.Invocations, tools.RAGSearchName)
		result.RetrievalUsed = lo.SomeBy(result.Invocations, func(inv tools.Invocation) bool {
			return inv.Name == tools.RAGSearchName && len(inv.Sources) > 0
		})
		slog.Info("agent: generation finished",
			"persona", req.Policy.Persona,
			"iterations", result.Iterations,
			"tools", result.ToolsCalled,
			"fallback", result.Fallback,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}()

	if d.llm == nil {
		result.Text, result.Fallback = FallbackReply, true
		return result
	}

	system := SystemPrompt(req.Policy, registry, req.Personalize, req.Diary)
	messages := llm.FormatMessages(system, req.Message, History(req.History))
	descriptors := registry.Descriptors()

	var best string
	for iteration := 0; iteration < d.maxIterations; iteration++ {
		if ctx.Err() != nil {
			break
		}
		result.Iterations = iteration + 1

		resp, stats, err := d.llm.ChatWithTools(ctx, messages, descriptors,
			llm.WithTemperature(Temperature),
			llm.WithMaxTokens(MaxTokens),
		)
		result.Stats.Add(stats)
		if err != nil {
			slog.Warn("agent: LLM call failed", "iteration", iteration+1, "error", err)
			break
		}

		content := strings.TrimSpace(resp.Content)
		calls := resp.ToolCalls
		if len(calls) == 0 && textToolCallRegex.MatchString(content) {
			calls = parseTextToolCalls(content)
			content = strings.TrimSpace(textToolCallRegex.ReplaceAllString(content, ""))
		}
		if content != "" {
			best = content
		}

		if len(calls) == 0 {
			break
		}

		// Keep the tool call syntax in history so the model sees what it asked for.
		assistantText := content + strings.Join(lo.Map(calls, func(tc llm.ToolCall, _ int) string {
			return fmt.Sprintf("\n[Tool: %s(%s)]", tc.Function.Name, tc.Function.Arguments)
		}), "")
		messages = append(messages, llm.AssistantMessage(strings.TrimSpace(assistantText)))

		for _, tc := range calls {
			output := registry.Invoke(ctx, trace, tc.Function.Name, toolInput(tc.Function.Arguments))
			messages = append(messages, llm.UserMessage(fmt.Sprintf("[Result from %s]: %s", tc.Function.Name, output)))
		}
	}

	if best == "" {
		result.Text, result.Fallback = FallbackReply, true
		return result
	}
	result.Text = best
	return result
}

func parseTextToolCalls(content string) []llm.ToolCall {
	matches := textToolCallRegex.FindAllStringSubmatch(content, -1)
	calls := make([]llm.ToolCall, 0, len(matches))
	for i, m := range matches {
		if len(m) < 3 {
			continue
		}
		calls = append(calls, llm.ToolCall{
			ID:       fmt.Sprintf("text_%d", i),
			Type:     "function",
			Function: llm.FunctionCall{Name: m[1], Arguments: m[2]},
		})
	}
	return calls
}

// toolInput unwraps {"query": "..."} arguments. Anything else passes through
// raw, except an empty object which becomes an empty input.
func toolInput(arguments string) string {
	raw := strings.TrimSpace(arguments)
	if strings.HasPrefix(raw, "{") {
		var args map[string]any
		if err := json.Unmarshal([]byte(raw), &args); err == nil {
			if q, ok := args["query"].(string); ok {
				return strings.TrimSpace(q)
			}
			if len(args) == 0 {
				return ""
			}
		}
		return raw
	}
	return strings.Trim(raw, `"'`)
}
