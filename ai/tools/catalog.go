package tools

import (
	"strings"

	"github.com/hrygo/todoc/ai/core/retrieval"
	"github.com/hrygo/todoc/ai/metrics"
	"github.com/hrygo/todoc/ai/persona"
)

// Deps are the collaborators the per-turn tool set is built from.
// Any of them may be nil; the tools then answer with their sentinel text.
type Deps struct {
	Retriever retrieval.Retriever
	Diary     DiaryView
	Web       WebSearcher
	Metrics   metrics.Recorder
}

// Names returns the tool names available to a persona, in prompt order.
func Names(p persona.Persona, webSearch bool) []string {
	names := []string{RAGSearchName, DiaryRecentName, DiaryLatestName}
	if webSearch && p == persona.Nutrition {
		names = append(names, WebSearchName)
	}
	return names
}

// Catalog is the capability line of the system prompt.
func Catalog(p persona.Persona, webSearch bool) string {
	return "Tools: " + strings.Join(Names(p, webSearch), ", ") + "."
}

// Build assembles the registry for one turn. web_search is only registered
// for the nutrition persona when its policy allows it and a searcher exists.
func Build(policy *persona.Policy, deps Deps) *Registry {
	r := NewRegistry(deps.Metrics, NewRAGSearch(deps.Retriever, policy.Persona))
	if deps.Diary != nil {
		r.Register(NewDiaryRecent(deps.Diary))
		r.Register(NewDiaryLatest(deps.Diary))
	}
	if policy.Persona == persona.Nutrition && policy.WebSearch && deps.Web != nil {
		r.Register(NewWebSearch(deps.Web))
	}
	return r
}
