package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var aiEnvVars = []string{
	"TODOC_AI_LLM_PROVIDER",
	"TODOC_AI_LLM_API_KEY",
	"TODOC_AI_LLM_BASE_URL",
	"TODOC_AI_LLM_MODEL",
	"TODOC_AI_LLM_MAX_TOKENS",
	"TODOC_AI_LLM_TEMPERATURE",
	"TODOC_AI_EMBEDDING_API_KEY",
	"TODOC_INSIGHT_TTL",
	"TODOC_INSIGHT_LOW_SLEEP_HOURS",
	"TODOC_SECRET",
}

func clearAIEnvVars(t *testing.T) {
	t.Helper()
	for _, key := range aiEnvVars {
		t.Setenv(key, "")
	}
}

func TestProfileDefaults(t *testing.T) {
	clearAIEnvVars(t)

	p := &Profile{}
	p.FromEnv()

	assert.False(t, p.AIEnabled)
	assert.Equal(t, "openai", p.LLMProvider)
	assert.Equal(t, "https://api.openai.com/v1", p.LLMBaseURL)
	assert.Equal(t, "gpt-4o-mini", p.LLMModel)
	assert.Equal(t, 800, p.LLMMaxTokens)
	assert.InDelta(t, 0.2, p.LLMTemperature, 0.0001)
	assert.Equal(t, 12*time.Hour, p.InsightTTL)
	assert.Equal(t, 7, p.InsightWindowDays)
	assert.Equal(t, 10.0, p.InsightLowSleepHours)
	assert.Equal(t, 16.0, p.InsightHighSleepHours)
	assert.Equal(t, 4.0, p.InsightMinMeals)
	assert.Equal(t, 80.0, p.InsightMinMealML)
	assert.Equal(t, 3, p.InsightDiarrheaCount)
	assert.Equal(t, 3, p.InsightMinStool)
	assert.Equal(t, 6*time.Second, p.WebSearchTimeout)
}

func TestProfileFromEnv(t *testing.T) {
	clearAIEnvVars(t)
	t.Setenv("TODOC_AI_LLM_PROVIDER", "deepseek")
	t.Setenv("TODOC_AI_LLM_API_KEY", "sk-test")
	t.Setenv("TODOC_INSIGHT_TTL", "6h")
	t.Setenv("TODOC_INSIGHT_LOW_SLEEP_HOURS", "9.5")

	p := &Profile{}
	p.FromEnv()

	assert.True(t, p.AIEnabled)
	assert.Equal(t, "deepseek", p.LLMProvider)
	assert.Equal(t, "https://api.deepseek.com", p.LLMBaseURL)
	assert.Equal(t, "deepseek-chat", p.LLMModel)
	assert.Equal(t, "sk-test", p.EmbeddingAPIKey, "embedding key falls back to LLM key")
	assert.Equal(t, 6*time.Hour, p.InsightTTL)
	assert.Equal(t, 9.5, p.InsightLowSleepHours)
}

func TestProfileUnknownProvider(t *testing.T) {
	clearAIEnvVars(t)
	t.Setenv("TODOC_AI_LLM_PROVIDER", "nope")

	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, "openai", p.LLMProvider)
}

func TestProfileValidate(t *testing.T) {
	tests := []struct {
		name      string
		profile   Profile
		wantErr   bool
		wantDSN   bool
		wantMode  string
		secretSet bool
	}{
		{
			name:      "sqlite dev derives dsn and secret",
			profile:   Profile{Mode: "dev", Driver: "sqlite"},
			wantDSN:   true,
			wantMode:  "dev",
			secretSet: true,
		},
		{
			name:     "unknown mode falls back to demo",
			profile:  Profile{Mode: "weird", Driver: "sqlite"},
			wantDSN:  true,
			wantMode: "demo",
		},
		{
			name:    "unsupported driver",
			profile: Profile{Mode: "dev", Driver: "mysql"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.profile
			p.Data = t.TempDir()
			err := p.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMode, p.Mode)
			if tt.wantDSN {
				assert.Contains(t, p.DSN, "todoc_"+tt.wantMode+".db")
			}
			if tt.secretSet {
				assert.NotEmpty(t, p.Secret)
			}
		})
	}
}

func TestProfileValidateRequiresSecretInProd(t *testing.T) {
	p := &Profile{Mode: "prod", Driver: "sqlite", Data: t.TempDir()}
	require.Error(t, p.Validate())

	p = &Profile{Mode: "prod", Driver: "sqlite", Data: t.TempDir(), Secret: "s3cret"}
	require.NoError(t, p.Validate())
}
