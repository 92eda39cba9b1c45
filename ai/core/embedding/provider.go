// Package embedding turns text into vectors through an OpenAI-compatible API.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Config configures the embedding provider.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Dimensions int
	MaxRetries int
	Timeout    time.Duration
}

// DefaultConfig returns the defaults used when fields are left zero.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    "https://api.openai.com/v1",
		Model:      "text-embedding-3-small",
		Dimensions: 1536,
		MaxRetries: 3,
		Timeout:    30 * time.Second,
	}
}

// Provider generates embeddings.
type Provider struct {
	client *openai.Client
	config *Config
}

// NewProvider creates a provider. A nil config uses DefaultConfig.
func NewProvider(cfg *Config) (*Provider, error) {
	defaults := DefaultConfig()
	if cfg == nil {
		cfg = defaults
	}
	merged := *cfg
	if merged.BaseURL == "" {
		merged.BaseURL = defaults.BaseURL
	}
	if merged.Model == "" {
		merged.Model = defaults.Model
	}
	if merged.Dimensions <= 0 {
		merged.Dimensions = defaults.Dimensions
	}
	if merged.MaxRetries <= 0 {
		merged.MaxRetries = defaults.MaxRetries
	}
	if merged.Timeout <= 0 {
		merged.Timeout = defaults.Timeout
	}

	clientConfig := openai.DefaultConfig(merged.APIKey)
	clientConfig.BaseURL = merged.BaseURL

	return &Provider{
		client: openai.NewClientWithConfig(clientConfig),
		config: &merged,
	}, nil
}

// Validate checks the configuration without calling the API.
func (p *Provider) Validate(_ context.Context) error {
	if p.config.APIKey == "" {
		return errors.New("embedding API key is required")
	}
	return nil
}

// Model returns the embedding model name stored alongside vectors.
func (p *Provider) Model() string {
	return p.config.Model
}

// Dimensions returns the vector dimension.
func (p *Provider) Dimensions() int {
	return p.config.Dimensions
}

// Embed generates a vector for a single text.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates vectors for multiple texts, retrying transient failures.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, errors.New("no texts provided for embedding")
	}

	req := openai.EmbeddingRequest{
		Input:      texts,
		Model:      openai.EmbeddingModel(p.config.Model),
		Dimensions: p.config.Dimensions,
	}

	var lastErr error
	for attempt := 0; attempt < p.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * 200 * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
		resp, err := p.client.CreateEmbeddings(callCtx, req)
		cancel()
		if err != nil {
			lastErr = err
			slog.Warn("embedding request failed", "attempt", attempt+1, "model", p.config.Model, "error", err)
			continue
		}
		if len(resp.Data) != len(texts) {
			return nil, fmt.Errorf("embedding response size mismatch: got %d, want %d", len(resp.Data), len(texts))
		}

		vectors := make([][]float32, len(resp.Data))
		for _, data := range resp.Data {
			if data.Index < 0 || data.Index >= len(vectors) {
				return nil, fmt.Errorf("embedding response index out of range: %d", data.Index)
			}
			vectors[data.Index] = data.Embedding
		}
		return vectors, nil
	}
	return nil, fmt.Errorf("create embeddings failed: %w", lastErr)
}
