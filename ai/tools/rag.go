package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hrygo/todoc/ai/core/retrieval"
	"github.com/hrygo/todoc/ai/persona"
)

// Tool names.
const (
	RAGSearchName   = "rag_search"
	DiaryRecentName = "diary_recent"
	DiaryLatestName = "diary_latest"
	WebSearchName   = "web_search"
)

// RAG output strings.
const (
	RAGUnavailable = "Vector DB unavailable."
	RAGNoHits      = "No RAG hits."
	ragHeader      = "RAG_SNIPPETS:\n"
)

// RAGSearch searches the persona's document collections.
type RAGSearch struct {
	retriever retrieval.Retriever
	persona   persona.Persona
}

// NewRAGSearch creates the rag_search tool. retriever may be nil.
func NewRAGSearch(retriever retrieval.Retriever, p persona.Persona) *RAGSearch {
	return &RAGSearch{retriever: retriever, persona: p}
}

func (t *RAGSearch) Name() string { return RAGSearchName }

func (t *RAGSearch) Description() string {
	return fmt.Sprintf("%s 전용 문서와 공통 문서를 검색해 관련 스니펫을 돌려줍니다.", t.persona.DisplayName())
}

func (t *RAGSearch) Parameters() map[string]any {
	return queryParameters("검색할 질문이나 키워드")
}

func (t *RAGSearch) Run(ctx context.Context, input string) (string, error) {
	out, _, err := t.RunWithSources(ctx, input)
	return out, err
}

// RunWithSources returns the formatted snippets and one source label per snippet.
// Snippets without a source contribute an empty label.
func (t *RAGSearch) RunWithSources(ctx context.Context, input string) (string, []string, error) {
	if t.retriever == nil {
		return RAGUnavailable, nil, nil
	}
	snippets, err := t.retriever.Search(ctx, t.persona, input)
	if err != nil {
		slog.Warn("rag_search: retrieval failed", "persona", t.persona, "error", err)
		return RAGUnavailable, nil, nil
	}
	if len(snippets) == 0 {
		return RAGNoHits, nil, nil
	}

	parts := make([]string, 0, len(snippets))
	sources := make([]string, 0, len(snippets))
	for _, s := range snippets {
		label := s.Source
		if label == "" {
			label = "doc"
		}
		parts = append(parts, fmt.Sprintf("[%s] %s", label, strings.TrimSpace(s.Text)))
		sources = append(sources, s.Source)
	}
	return ragHeader + strings.Join(parts, "\n\n"), sources, nil
}
