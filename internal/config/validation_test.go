package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a configuration that passes validation
func validConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "hedgefund-agent",
			Environment: "development",
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Database: "hedgefund",
		},
		LLM: LLMConfig{
			Endpoint:    "https://api.openai.com/v1/chat/completions",
			Model:       "gpt-4o",
			Temperature: 0.7,
			MaxTokens:   1000,
		},
		Embeddings: EmbeddingsConfig{
			Endpoint:  "https://api.openai.com/v1/embeddings",
			Dimension: 384,
		},
		Similarity: SimilarityConfig{
			Threshold:   0.50,
			WindowHours: 8,
			MaxAttempts: 10,
		},
		Scheduler: SchedulerConfig{
			Timezone:       "Europe/London",
			MaxDailyTweets: 15,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 3002,
		},
	}
}

func TestValidConfigPasses(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"missing app name", func(c *Config) { c.App.Name = "" }, "app.name"},
		{"bad environment", func(c *Config) { c.App.Environment = "testing" }, "app.environment"},
		{"missing db host", func(c *Config) { c.Database.Host = "" }, "database.host"},
		{"db port out of range", func(c *Config) { c.Database.Port = 70000 }, "database.port"},
		{"missing db user", func(c *Config) { c.Database.User = "" }, "database.user"},
		{"missing db name", func(c *Config) { c.Database.Database = "" }, "database.database"},
		{"missing llm endpoint", func(c *Config) { c.LLM.Endpoint = "" }, "llm.endpoint"},
		{"missing llm model", func(c *Config) { c.LLM.Model = "" }, "llm.model"},
		{"temperature too high", func(c *Config) { c.LLM.Temperature = 2.5 }, "llm.temperature"},
		{"non-positive max tokens", func(c *Config) { c.LLM.MaxTokens = 0 }, "llm.max_tokens"},
		{"missing embeddings endpoint", func(c *Config) { c.Embeddings.Endpoint = "" }, "embeddings.endpoint"},
		{"non-positive dimension", func(c *Config) { c.Embeddings.Dimension = 0 }, "embeddings.dimension"},
		{"threshold out of range", func(c *Config) { c.Similarity.Threshold = 1.5 }, "similarity.threshold"},
		{"non-positive window", func(c *Config) { c.Similarity.WindowHours = 0 }, "similarity.window_hours"},
		{"non-positive attempts", func(c *Config) { c.Similarity.MaxAttempts = 0 }, "similarity.max_attempts"},
		{"bad timezone", func(c *Config) { c.Scheduler.Timezone = "Mars/Olympus" }, "scheduler.timezone"},
		{"non-positive tweet cap", func(c *Config) { c.Scheduler.MaxDailyTweets = 0 }, "scheduler.max_daily_tweets"},
		{"api port out of range", func(c *Config) { c.API.Port = -1 }, "api.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestValidateCollectsMultipleErrors(t *testing.T) {
	cfg := validConfig()
	cfg.App.Name = ""
	cfg.Database.Host = ""
	cfg.LLM.Model = ""

	err := cfg.Validate()
	require.Error(t, err)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 3)
	assert.True(t, strings.Contains(err.Error(), "3 error(s)"))
}

func TestPublisherCredentialsAreOptional(t *testing.T) {
	cfg := validConfig()
	cfg.Twitter = TwitterConfig{}
	cfg.Notion = NotionConfig{}
	cfg.Telegram = TelegramConfig{}

	assert.NoError(t, cfg.Validate())
	assert.False(t, cfg.Twitter.Configured())
	assert.False(t, cfg.Notion.Configured())
	assert.False(t, cfg.Telegram.Configured())
}
