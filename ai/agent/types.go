// Package agent drives one persona-bound answer generation: it assembles
// the system prompt, runs the tool-calling loop and reports what happened.
package agent

import (
	"github.com/hrygo/todoc/ai/core/llm"
	"github.com/hrygo/todoc/ai/diary"
	"github.com/hrygo/todoc/ai/persona"
	"github.com/hrygo/todoc/ai/tools"
)

// Loop limits.
const (
	MaxIterations = 5
	Temperature   = 0.2
	MaxTokens     = 800
)

// FallbackReply is returned when no answer could be generated.
const FallbackReply = "죄송해요, 지금은 답변을 준비하지 못했어요. 잠시 후 다시 물어봐 주세요."

// Turn is one prior message of the conversation.
// Role is "user", "assistant" or "ai".
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the input of one generation.
type Request struct {
	Policy  *persona.Policy
	Message string
	History []Turn
	Diary   diary.Context
	// Tools may be nil; the model then answers without capabilities.
	Tools *tools.Registry
	// Personalize is the heuristic verdict of persona.Store.NeedsPersonalization.
	Personalize bool
}

// Result reports the generated answer and the capabilities it used.
type Result struct {
	Text        string
	ToolsCalled []string
	Invocations []tools.Invocation
	// RetrievalUsed is set when rag_search returned at least one snippet.
	RetrievalUsed bool
	Citations     []string

	PersonalizationUsed      bool
	PersonalizationRequested bool

	Iterations int
	Stats      llm.LLMCallStats
	// Fallback is set when Text is FallbackReply.
	Fallback bool
}
