package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is configuration to start main server.
type Profile struct {
	// Unified LLM configuration (OpenAI-compatible protocol)
	LLMProvider    string // openai, deepseek, siliconflow, dashscope, openrouter, ollama
	LLMAPIKey      string
	LLMBaseURL     string // optional, has default per provider
	LLMModel       string
	LLMTimeout     int     // seconds
	LLMMaxTokens   int     // chat generation bound
	LLMTemperature float32 // chat generation temperature

	// Lightweight model used for routing classification and titles.
	// Falls back to the main LLM when empty.
	ClassifierModel string

	// Embedding configuration
	EmbeddingProvider   string
	EmbeddingModel      string
	EmbeddingAPIKey     string
	EmbeddingBaseURL    string
	EmbeddingDimensions int

	// Optional reranker for retrieval hits (SiliconFlow-compatible /rerank API)
	RerankEnabled bool
	RerankModel   string
	RerankAPIKey  string
	RerankBaseURL string

	// Web search (nutrition persona)
	WebSearchURL     string
	WebSearchTimeout time.Duration
	WebSearchRPS     float64

	// Insight companion
	InsightTTL            time.Duration
	InsightWindowDays     int
	InsightLowSleepHours  float64
	InsightHighSleepHours float64
	InsightMinMeals       float64
	InsightMinMealML      float64
	InsightDiarrheaCount  int
	InsightMinStool       int

	// Persona YAML override directory (optional)
	PersonaDir string

	Mode      string
	Addr      string
	Port      int
	Data      string
	Driver    string
	DSN       string
	Secret    string
	Version   string
	LogFormat string
	Debug     bool
	AIEnabled bool
}

// Provider default configurations for LLM.
// Used when TODOC_AI_LLM_BASE_URL is not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o-mini",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"siliconflow": {
		BaseURL: "https://api.siliconflow.cn/v1",
		Model:   "Qwen/Qwen2.5-72B-Instruct",
	},
	"dashscope": {
		BaseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1",
		Model:   "qwen-max-latest",
	},
	"openrouter": {
		BaseURL: "https://openrouter.ai/api/v1",
		Model:   "openai/gpt-4o-mini",
	},
	"ollama": {
		BaseURL: "http://localhost:11434/v1",
		Model:   "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if an LLM API key is configured.
// Ollama runs without a key.
func (p *Profile) IsAIEnabled() bool {
	return p.LLMAPIKey != "" || p.LLMProvider == "ollama"
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvOrDefaultFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvOrDefaultDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	// Unified LLM configuration
	p.LLMProvider = getEnvOrDefault("TODOC_AI_LLM_PROVIDER", "openai")
	p.LLMAPIKey = getEnvOrDefault("TODOC_AI_LLM_API_KEY", "")
	p.LLMBaseURL = getEnvOrDefault("TODOC_AI_LLM_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("TODOC_AI_LLM_MODEL", "")
	p.LLMTimeout = getEnvOrDefaultInt("TODOC_AI_LLM_TIMEOUT_SECONDS", 60)
	p.LLMMaxTokens = getEnvOrDefaultInt("TODOC_AI_LLM_MAX_TOKENS", 800)
	p.LLMTemperature = float32(getEnvOrDefaultFloat("TODOC_AI_LLM_TEMPERATURE", 0.2))
	p.ClassifierModel = getEnvOrDefault("TODOC_AI_CLASSIFIER_MODEL", "")

	if _, ok := llmProviderDefaults[p.LLMProvider]; !ok {
		slog.Warn("Unknown LLM provider, using default: openai", "provider", p.LLMProvider)
		p.LLMProvider = "openai"
	}
	if defaults, ok := llmProviderDefaults[p.LLMProvider]; ok {
		if p.LLMBaseURL == "" {
			p.LLMBaseURL = defaults.BaseURL
		}
		if p.LLMModel == "" {
			p.LLMModel = defaults.Model
		}
	}
	p.AIEnabled = p.IsAIEnabled()

	// Embedding configuration
	p.EmbeddingProvider = getEnvOrDefault("TODOC_AI_EMBEDDING_PROVIDER", "openai")
	p.EmbeddingModel = getEnvOrDefault("TODOC_AI_EMBEDDING_MODEL", "text-embedding-3-small")
	p.EmbeddingAPIKey = getEnvOrDefault("TODOC_AI_EMBEDDING_API_KEY", p.LLMAPIKey)
	p.EmbeddingBaseURL = getEnvOrDefault("TODOC_AI_EMBEDDING_BASE_URL", "https://api.openai.com/v1")
	p.EmbeddingDimensions = getEnvOrDefaultInt("TODOC_AI_EMBEDDING_DIMENSIONS", 1536)

	p.RerankEnabled = getEnvOrDefault("TODOC_AI_RERANK_ENABLED", "false") == "true"
	p.RerankModel = getEnvOrDefault("TODOC_AI_RERANK_MODEL", "BAAI/bge-reranker-v2-m3")
	p.RerankAPIKey = getEnvOrDefault("TODOC_AI_RERANK_API_KEY", p.LLMAPIKey)
	p.RerankBaseURL = getEnvOrDefault("TODOC_AI_RERANK_BASE_URL", "https://api.siliconflow.cn/v1")

	p.WebSearchURL = getEnvOrDefault("TODOC_WEB_SEARCH_URL", "https://api.duckduckgo.com/")
	p.WebSearchTimeout = getEnvOrDefaultDuration("TODOC_WEB_SEARCH_TIMEOUT", 6*time.Second)
	p.WebSearchRPS = getEnvOrDefaultFloat("TODOC_WEB_SEARCH_RPS", 2)

	// Insight thresholds. Defaults follow the original dashboard rules.
	p.InsightTTL = getEnvOrDefaultDuration("TODOC_INSIGHT_TTL", 12*time.Hour)
	p.InsightWindowDays = getEnvOrDefaultInt("TODOC_INSIGHT_WINDOW_DAYS", 7)
	p.InsightLowSleepHours = getEnvOrDefaultFloat("TODOC_INSIGHT_LOW_SLEEP_HOURS", 10)
	p.InsightHighSleepHours = getEnvOrDefaultFloat("TODOC_INSIGHT_HIGH_SLEEP_HOURS", 16)
	p.InsightMinMeals = getEnvOrDefaultFloat("TODOC_INSIGHT_MIN_MEALS_PER_DAY", 4)
	p.InsightMinMealML = getEnvOrDefaultFloat("TODOC_INSIGHT_MIN_MEAL_ML", 80)
	p.InsightDiarrheaCount = getEnvOrDefaultInt("TODOC_INSIGHT_DIARRHEA_COUNT", 3)
	p.InsightMinStool = getEnvOrDefaultInt("TODOC_INSIGHT_MIN_STOOL", 3)

	p.PersonaDir = getEnvOrDefault("TODOC_PERSONA_DIR", "")
	if p.Secret == "" {
		p.Secret = getEnvOrDefault("TODOC_SECRET", "")
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "todoc")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/todoc"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check dsn", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.Driver == "sqlite" && p.DSN == "" {
		p.DSN = filepath.Join(dataDir, fmt.Sprintf("todoc_%s.db", p.Mode))
	}
	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported driver %q", p.Driver)
	}

	if p.Secret == "" {
		if p.Mode == "prod" {
			return errors.New("secret is required in prod mode")
		}
		p.Secret = "todoc-dev-secret"
	}
	return nil
}
