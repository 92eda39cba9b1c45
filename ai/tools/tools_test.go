package tools

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/todoc/ai/core/retrieval"
	"github.com/hrygo/todoc/ai/persona"
)

type fakeRetriever struct {
	snippets []retrieval.Snippet
	err      error
	persona  persona.Persona
}

func (f *fakeRetriever) Search(_ context.Context, p persona.Persona, _ string) ([]retrieval.Snippet, error) {
	f.persona = p
	return f.snippets, f.err
}

type fakeDiary struct{}

func (fakeDiary) LatestEntry(context.Context) string  { return "2025-03-09 15:00 [sleep] 낮잠" }
func (fakeDiary) RecentDigest(context.Context) string { return "digest" }

type fakeWeb struct {
	fragments []string
	err       error
}

func (f fakeWeb) Search(context.Context, string) ([]string, error) { return f.fragments, f.err }

type panicTool struct{}

func (panicTool) Name() string                              { return "boom" }
func (panicTool) Description() string                       { return "" }
func (panicTool) Parameters() map[string]any                { return noParameters() }
func (panicTool) Run(context.Context, string) (string, error) { panic("kaboom") }

type failingTool struct{}

func (failingTool) Name() string                              { return "fail" }
func (failingTool) Description() string                       { return "" }
func (failingTool) Parameters() map[string]any                { return noParameters() }
func (failingTool) Run(context.Context, string) (string, error) { return "", errors.New("nope") }

func TestRAGSearch(t *testing.T) {
	ctx := context.Background()

	out := NewRAGSearch(nil, persona.Parenting).Run
	got, err := out(ctx, "q")
	require.NoError(t, err)
	assert.Equal(t, RAGUnavailable, got)

	got, _ = NewRAGSearch(&fakeRetriever{err: errors.New("down")}, persona.Parenting).Run(ctx, "q")
	assert.Equal(t, RAGUnavailable, got)

	got, _ = NewRAGSearch(&fakeRetriever{}, persona.Parenting).Run(ctx, "q")
	assert.Equal(t, RAGNoHits, got)

	r := &fakeRetriever{snippets: []retrieval.Snippet{
		{Source: "sleep.md", Text: "수면 의식"},
		{Text: "공통 안내 "},
	}}
	text, sources, err := NewRAGSearch(r, persona.Medical).RunWithSources(ctx, "q")
	require.NoError(t, err)
	assert.Equal(t, "RAG_SNIPPETS:\n[sleep.md] 수면 의식\n\n[doc] 공통 안내", text)
	assert.Equal(t, []string{"sleep.md", ""}, sources)
	assert.Equal(t, persona.Medical, r.persona)
}

func TestRegistryInvoke(t *testing.T) {
	ctx := context.Background()
	retriever := &fakeRetriever{snippets: []retrieval.Snippet{{Source: "a.md", Text: "x"}, {Source: "a.md", Text: "y"}}}
	reg := NewRegistry(nil, NewRAGSearch(retriever, persona.Parenting), NewDiaryRecent(fakeDiary{}), panicTool{}, failingTool{})
	trace := &Trace{}

	assert.True(t, strings.HasPrefix(reg.Invoke(ctx, trace, RAGSearchName, "수면"), "RAG_SNIPPETS:"))
	assert.Equal(t, "digest", reg.Invoke(ctx, trace, DiaryRecentName, "ignored"))
	assert.Equal(t, "Unknown tool: nothing", reg.Invoke(ctx, trace, "nothing", ""))
	assert.Equal(t, "Error: nope", reg.Invoke(ctx, trace, "fail", ""))
	assert.Contains(t, reg.Invoke(ctx, nil, "boom", ""), "Error:")

	assert.Equal(t, []string{RAGSearchName, DiaryRecentName, "nothing", "fail"}, trace.Names())
	calls := trace.Invocations()
	assert.False(t, calls[0].Failed)
	assert.True(t, calls[2].Failed)
	assert.Equal(t, []string{"a.md"}, UniqueSources(calls, RAGSearchName))
}

func TestDescriptors(t *testing.T) {
	reg := NewRegistry(nil, NewRAGSearch(nil, persona.Nutrition), NewDiaryLatest(fakeDiary{}))
	descs := reg.Descriptors()
	require.Len(t, descs, 2)
	assert.Equal(t, RAGSearchName, descs[0].Name)
	assert.Contains(t, descs[0].Description, "영양 AI")
	assert.JSONEq(t, `{"type":"object","properties":{"query":{"type":"string","description":"검색할 질문이나 키워드"}},"required":["query"]}`, descs[0].Parameters)
	assert.Equal(t, "가장 최근 일지 1건", descs[1].Description)
}

func TestBuildAndCatalog(t *testing.T) {
	store := persona.NewStore()
	deps := Deps{Diary: fakeDiary{}, Web: fakeWeb{}}

	reg := Build(store.Policy(persona.Parenting), deps)
	assert.Equal(t, []string{RAGSearchName, DiaryRecentName, DiaryLatestName}, reg.Names())

	reg = Build(store.Policy(persona.Nutrition), deps)
	assert.True(t, reg.Has(WebSearchName))

	reg = Build(store.Policy(persona.Nutrition), Deps{Diary: fakeDiary{}})
	assert.False(t, reg.Has(WebSearchName))

	assert.Equal(t, "Tools: rag_search, diary_recent, diary_latest.", Catalog(persona.Parenting, true))
	assert.Equal(t, "Tools: rag_search, diary_recent, diary_latest, web_search.", Catalog(persona.Nutrition, true))
}

func TestWebSearchTool(t *testing.T) {
	ctx := context.Background()
	got, err := NewWebSearch(fakeWeb{err: errors.New("timeout")}).Run(ctx, "q")
	require.NoError(t, err)
	assert.Equal(t, "Web search failed: timeout", got)

	got, _ = NewWebSearch(fakeWeb{}).Run(ctx, "q")
	assert.Equal(t, WebNoSnippets, got)

	got, _ = NewWebSearch(fakeWeb{fragments: []string{"a", "b"}}).Run(ctx, "q")
	assert.Equal(t, "a\nb", got)
}

func TestDuckDuckGo(t *testing.T) {
	var calls atomic.Int32
	long := strings.Repeat("가", 400)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		q := r.URL.Query()
		if q.Get("format") != "json" || q.Get("no_html") != "1" || q.Get("q") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"AbstractText":"` + long + `","RelatedTopics":[{"Text":"t1"},{"Text":""},{"Text":"t3"},{"Text":"t4"},{"Text":"t5"}]}`))
	}))
	defer srv.Close()

	ddg := NewDuckDuckGo(DuckDuckGoConfig{BaseURL: srv.URL + "/", RPS: 100})
	fragments, err := ddg.Search(context.Background(), "이유식 레시피")
	require.NoError(t, err)
	require.Len(t, fragments, 3)
	assert.Equal(t, MaxFragmentRunes, utf8.RuneCountInString(fragments[0]))
	assert.Equal(t, []string{"t1", "t3"}, fragments[1:])

	_, err = ddg.Search(context.Background(), " 이유식 레시피 ")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load(), "second search is served from cache")
}

func TestDuckDuckGoHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewDuckDuckGo(DuckDuckGoConfig{BaseURL: srv.URL + "/"}).Search(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
