// Package reranker reorders retrieval candidates with a cross-encoder API
// (SiliconFlow / Jina compatible /rerank endpoint).
package reranker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

// Result is one reranked document.
type Result struct {
	Index int     // position in the input slice
	Score float32 // relevance score, higher is better
}

// Service reorders documents by relevance to a query.
type Service interface {
	// Rerank returns at most topN results ordered by score. topN <= 0 keeps all.
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]Result, error)

	// IsEnabled reports whether calls reach the remote API.
	IsEnabled() bool
}

// Config configures the reranker.
type Config struct {
	Model   string
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Enabled bool
}

type service struct {
	client   *http.Client
	apiKey   string
	endpoint string
	model    string
	enabled  bool
}

// NewService creates a reranker. A disabled service keeps the input order.
func NewService(cfg *Config) Service {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &service{
		client:   &http.Client{Timeout: timeout},
		apiKey:   cfg.APIKey,
		endpoint: endpoint(cfg.BaseURL),
		model:    cfg.Model,
		enabled:  cfg.Enabled && cfg.BaseURL != "",
	}
}

func endpoint(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if strings.HasSuffix(base, "/v1") {
		return base + "/rerank"
	}
	return base + "/v1/rerank"
}

func (s *service) IsEnabled() bool {
	return s.enabled
}

func identity(n, topN int) []Result {
	results := make([]Result, n)
	for i := range results {
		results[i] = Result{Index: i, Score: 1 - float32(i)*0.01}
	}
	if topN > 0 && topN < len(results) {
		results = results[:topN]
	}
	return results
}

func (s *service) Rerank(ctx context.Context, query string, documents []string, topN int) ([]Result, error) {
	if !s.enabled || len(documents) == 0 {
		return identity(len(documents), topN), nil
	}
	if topN <= 0 || topN > len(documents) {
		topN = len(documents)
	}

	body, err := json.Marshal(map[string]any{
		"model":     s.model,
		"query":     query,
		"documents": documents,
		"top_n":     topN,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("rerank API error: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var payload struct {
		Results []struct {
			Index int     `json:"index"`
			Score float32 `json:"relevance_score"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode rerank response: %w", err)
	}

	results := make([]Result, 0, len(payload.Results))
	for _, r := range payload.Results {
		if r.Index < 0 || r.Index >= len(documents) {
			continue
		}
		results = append(results, Result{Index: r.Index, Score: r.Score})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topN {
		results = results[:topN]
	}
	return results, nil
}
