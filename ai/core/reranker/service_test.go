package reranker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpoint(t *testing.T) {
	assert.Equal(t, "https://api.test.com/v1/rerank", endpoint("https://api.test.com"))
	assert.Equal(t, "https://api.test.com/v1/rerank", endpoint("https://api.test.com/v1/"))
}

func TestRerank_DisabledKeepsOrder(t *testing.T) {
	svc := NewService(&Config{Enabled: false})
	assert.False(t, svc.IsEnabled())

	results, err := svc.Rerank(context.Background(), "q", []string{"a", "b", "c"}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 0, results[0].Index)
	assert.Equal(t, 1, results[1].Index)
}

func TestRerank_Remote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/rerank" || r.Header.Get("Authorization") != "Bearer k" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var req struct {
			Query string `json:"query"`
			TopN  int    `json:"top_n"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query != "수면" || req.TopN != 2 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"results":[{"index":0,"relevance_score":0.1},{"index":2,"relevance_score":0.9},{"index":9,"relevance_score":1}]}`))
	}))
	defer srv.Close()

	svc := NewService(&Config{Enabled: true, BaseURL: srv.URL, APIKey: "k", Model: "m"})
	results, err := svc.Rerank(context.Background(), "수면", []string{"a", "b", "c"}, 2)
	require.NoError(t, err)
	assert.Equal(t, []Result{{Index: 2, Score: 0.9}, {Index: 0, Score: 0.1}}, results)
}

func TestRerank_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	}))
	defer srv.Close()

	svc := NewService(&Config{Enabled: true, BaseURL: srv.URL})
	_, err := svc.Rerank(context.Background(), "q", []string{"a"}, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
