package ai

import (
	"errors"
	"time"

	"github.com/hrygo/todoc/ai/core/embedding"
	"github.com/hrygo/todoc/ai/core/llm"
	"github.com/hrygo/todoc/ai/core/reranker"
	"github.com/hrygo/todoc/ai/insight"
	"github.com/hrygo/todoc/ai/tools"
	"github.com/hrygo/todoc/internal/profile"
)

// Config represents AI configuration.
type Config struct {
	LLM       llm.Config
	Embedding embedding.Config
	Reranker  reranker.Config
	WebSearch tools.DuckDuckGoConfig
	Insight   insight.Config

	// ClassifierModel is used for routing and titles. Empty means the main model.
	ClassifierModel string
	// PersonaDir holds optional persona and rule YAML overrides.
	PersonaDir string
	// Debug adds debug details to every chat response.
	Debug   bool
	Enabled bool
}

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{
		Enabled:         p.AIEnabled,
		ClassifierModel: p.ClassifierModel,
		PersonaDir:      p.PersonaDir,
		Debug:           p.Debug,
	}

	cfg.LLM = llm.Config{
		Provider:    p.LLMProvider,
		Model:       p.LLMModel,
		APIKey:      p.LLMAPIKey,
		BaseURL:     p.LLMBaseURL,
		MaxTokens:   p.LLMMaxTokens,
		Temperature: p.LLMTemperature,
		Timeout:     time.Duration(p.LLMTimeout) * time.Second,
	}

	cfg.Embedding = embedding.Config{
		BaseURL:    p.EmbeddingBaseURL,
		APIKey:     p.EmbeddingAPIKey,
		Model:      p.EmbeddingModel,
		Dimensions: p.EmbeddingDimensions,
	}

	// 重排序默认关闭，开启后使用 SiliconFlow 兼容接口
	cfg.Reranker = reranker.Config{
		Enabled: p.RerankEnabled && p.RerankAPIKey != "",
		Model:   p.RerankModel,
		APIKey:  p.RerankAPIKey,
		BaseURL: p.RerankBaseURL,
	}

	cfg.WebSearch = tools.DuckDuckGoConfig{
		BaseURL: p.WebSearchURL,
		Timeout: p.WebSearchTimeout,
		RPS:     p.WebSearchRPS,
	}

	cfg.Insight = insight.Config{
		TTL:   p.InsightTTL,
		Model: p.ClassifierModel,
		Thresholds: insight.Thresholds{
			WindowDays:     p.InsightWindowDays,
			LowSleepHours:  p.InsightLowSleepHours,
			HighSleepHours: p.InsightHighSleepHours,
			MinMealsPerDay: p.InsightMinMeals,
			MinMealML:      p.InsightMinMealML,
			DiarrheaCount:  p.InsightDiarrheaCount,
			MinStool:       p.InsightMinStool,
		},
	}
	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.LLM.Provider == "" {
		return errors.New("LLM provider is required")
	}
	if c.LLM.Provider != "ollama" && c.LLM.APIKey == "" {
		return errors.New("LLM API key is required")
	}
	if c.Embedding.Model == "" {
		return errors.New("embedding model is required")
	}
	if c.Reranker.Enabled && c.Reranker.Model == "" {
		return errors.New("rerank model is required when reranking is enabled")
	}
	return nil
}
