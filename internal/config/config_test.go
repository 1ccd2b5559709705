package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "hedgefund-agent", cfg.App.Name)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 0.50, cfg.Similarity.Threshold)
	assert.Equal(t, 8, cfg.Similarity.WindowHours)
	assert.Equal(t, 10, cfg.Similarity.MaxAttempts)
	assert.Equal(t, 384, cfg.Embeddings.Dimension)
	assert.Equal(t, 3002, cfg.API.Port)
	assert.Equal(t, "Europe/London", cfg.Scheduler.Timezone)
	assert.Equal(t, 15, cfg.Scheduler.MaxDailyTweets)
	assert.Equal(t, "This is my opinion. Not financial advice.", cfg.Content.Disclaimer)
}

func TestDefaultScheduleShape(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Len(t, cfg.Scheduler.Briefings, 4)
	assert.Len(t, cfg.Scheduler.Commentary, 9)
	assert.NotEmpty(t, cfg.Scheduler.DeepDive)
	assert.NotEmpty(t, cfg.Scheduler.HeadlineFetch)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing database host",
			mutate:  func(c *Config) { c.Database.Host = "" },
			wantErr: "database.host",
		},
		{
			name:    "missing llm model",
			mutate:  func(c *Config) { c.LLM.Model = "" },
			wantErr: "llm.model",
		},
		{
			name:    "threshold out of range",
			mutate:  func(c *Config) { c.Similarity.Threshold = 1.5 },
			wantErr: "similarity.threshold",
		},
		{
			name:    "zero dedup attempts",
			mutate:  func(c *Config) { c.Similarity.MaxAttempts = 0 },
			wantErr: "similarity.max_attempts",
		},
		{
			name:    "bad timezone",
			mutate:  func(c *Config) { c.Scheduler.Timezone = "Mars/Olympus" },
			wantErr: "scheduler.timezone",
		},
		{
			name:    "bad api port",
			mutate:  func(c *Config) { c.API.Port = 0 },
			wantErr: "api.port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPublisherConfigured(t *testing.T) {
	var tw TwitterConfig
	assert.False(t, tw.Configured())
	tw = TwitterConfig{
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
		AccessToken:    "at",
		AccessSecret:   "as",
	}
	assert.True(t, tw.Configured())

	var n NotionConfig
	assert.False(t, n.Configured())
	n = NotionConfig{APIKey: "secret", ContentDatabaseID: "db"}
	assert.True(t, n.Configured())

	var tg TelegramConfig
	assert.False(t, tg.Configured())
	tg = TelegramConfig{BotToken: "token", ChatID: 42}
	assert.True(t, tg.Configured())
}

func TestGetDSN(t *testing.T) {
	db := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "pw",
		Database: "hedgefund",
		SSLMode:  "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=pw dbname=hedgefund sslmode=disable",
		db.GetDSN())
}
