package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/hrygo/todoc/ai/cache"
	"github.com/hrygo/todoc/ai/format"
	"github.com/hrygo/todoc/ai/metrics"
)

const (
	// MaxFragmentRunes caps each web fragment.
	MaxFragmentRunes = 320
	// MaxFragments is the abstract plus three related topics.
	MaxFragments = 4

	WebNoSnippets = "No snippets."
)

// WebSearcher returns short text fragments for a query.
type WebSearcher interface {
	Search(ctx context.Context, query string) ([]string, error)
}

// DuckDuckGoConfig configures the instant-answer client.
type DuckDuckGoConfig struct {
	BaseURL  string
	Timeout  time.Duration
	RPS      float64
	CacheTTL time.Duration
	Metrics  metrics.Recorder
}

// DuckDuckGo queries the DuckDuckGo instant-answer API.
type DuckDuckGo struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
	cache   *cache.LRUCache[string, []string]
	metrics metrics.Recorder
}

// NewDuckDuckGo creates a rate-limited, cached searcher.
func NewDuckDuckGo(cfg DuckDuckGoConfig) *DuckDuckGo {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.duckduckgo.com/"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 6 * time.Second
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 2
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Noop{}
	}
	return &DuckDuckGo{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), 1),
		cache:   cache.NewLRUCache[string, []string](256, cfg.CacheTTL),
		metrics: cfg.Metrics,
	}
}

type instantAnswer struct {
	AbstractText  string `json:"AbstractText"`
	RelatedTopics []struct {
		Text string `json:"Text"`
	} `json:"RelatedTopics"`
}

// Cache exposes the result cache for expiry sweeps.
func (d *DuckDuckGo) Cache() cache.Expirer {
	return d.cache
}

// Search returns at most MaxFragments fragments of at most MaxFragmentRunes runes.
func (d *DuckDuckGo) Search(ctx context.Context, query string) ([]string, error) {
	key := strings.ToLower(strings.TrimSpace(query))
	if cached, ok := d.cache.Get(key); ok {
		d.metrics.RecordCacheHit("web_search")
		return cached, nil
	}
	d.metrics.RecordCacheMiss("web_search")

	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var answer instantAnswer
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&answer); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	var fragments []string
	if s := strings.TrimSpace(answer.AbstractText); s != "" {
		fragments = append(fragments, format.Truncate(s, MaxFragmentRunes))
	}
	for i, topic := range answer.RelatedTopics {
		if i >= MaxFragments-1 {
			break
		}
		if s := strings.TrimSpace(topic.Text); s != "" {
			fragments = append(fragments, format.Truncate(s, MaxFragmentRunes))
		}
	}
	d.cache.SetWithDefaultTTL(key, fragments)
	return fragments, nil
}

// WebSearch is the auxiliary web search tool of the nutrition persona.
type WebSearch struct {
	searcher WebSearcher
}

func NewWebSearch(searcher WebSearcher) *WebSearch {
	return &WebSearch{searcher: searcher}
}

func (t *WebSearch) Name() string { return WebSearchName }

func (t *WebSearch) Description() string {
	return "영양, 레시피 질문에서 문서가 부족할 때 쓰는 보조 웹검색 (DuckDuckGo)"
}

func (t *WebSearch) Parameters() map[string]any {
	return queryParameters("웹에서 찾을 검색어")
}

func (t *WebSearch) Run(ctx context.Context, input string) (string, error) {
	fragments, err := t.searcher.Search(ctx, input)
	if err != nil {
		return "Web search failed: " + err.Error(), nil
	}
	if len(fragments) == 0 {
		return WebNoSnippets, nil
	}
	return strings.Join(fragments, "\n"), nil
}
