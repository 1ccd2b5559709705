package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Embeddings EmbeddingsConfig `mapstructure:"embeddings"`
	Similarity SimilarityConfig `mapstructure:"similarity"`
	Market     MarketConfig     `mapstructure:"market"`
	News       NewsConfig       `mapstructure:"news"`
	Twitter    TwitterConfig    `mapstructure:"twitter"`
	Notion     NotionConfig     `mapstructure:"notion"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Content    ContentConfig    `mapstructure:"content"`
	API        APIConfig        `mapstructure:"api"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// AppConfig contains application-level settings
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"` // development, staging, production
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"` // console, json
}

// DatabaseConfig contains PostgreSQL settings
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
	PoolSize int    `mapstructure:"pool_size"`
}

// RedisConfig contains Redis settings for the price cache.
// Redis is optional; an empty host disables caching.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTL      int    `mapstructure:"ttl"` // seconds
}

// LLMConfig contains settings for the chat-completions provider
type LLMConfig struct {
	Endpoint          string  `mapstructure:"endpoint"` // OpenAI-compatible /v1/chat/completions
	APIKey            string  `mapstructure:"api_key"`
	Model             string  `mapstructure:"model"`
	Temperature       float64 `mapstructure:"temperature"`
	MaxTokens         int     `mapstructure:"max_tokens"`
	Timeout           int     `mapstructure:"timeout"` // ms
	RequestsPerMinute int     `mapstructure:"requests_per_minute"`
}

// EmbeddingsConfig contains settings for the embedding provider
type EmbeddingsConfig struct {
	Endpoint  string `mapstructure:"endpoint"` // OpenAI-compatible /v1/embeddings
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	Dimension int    `mapstructure:"dimension"`
	Timeout   int    `mapstructure:"timeout"` // ms
}

// SimilarityConfig holds the dedup tuning knobs. The threshold and windows
// are hand-tuned, so they live in config rather than code.
type SimilarityConfig struct {
	Threshold   float64 `mapstructure:"threshold"`    // cosine similarity cutoff
	WindowHours int     `mapstructure:"window_hours"` // commentary lookback
	MaxAttempts int     `mapstructure:"max_attempts"` // dedup retry bound
}

// MarketConfig contains settings for the market-data microservice client
type MarketConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	Timeout    int    `mapstructure:"timeout"` // ms
	Retries    int    `mapstructure:"retries"`
	RetryDelay int    `mapstructure:"retry_delay"` // ms
}

// NewsConfig contains RSS feed and scoring settings
type NewsConfig struct {
	Feeds         []string `mapstructure:"feeds"`
	MaxAgeHours   int      `mapstructure:"max_age_hours"`
	StoreMinScore int      `mapstructure:"store_min_score"`
}

// TwitterConfig contains OAuth1 credentials for the posting account
type TwitterConfig struct {
	ConsumerKey    string `mapstructure:"consumer_key"`
	ConsumerSecret string `mapstructure:"consumer_secret"`
	AccessToken    string `mapstructure:"access_token"`
	AccessSecret   string `mapstructure:"access_secret"`
}

// NotionConfig contains Notion integration settings
type NotionConfig struct {
	APIKey             string `mapstructure:"api_key"`
	ContentDatabaseID  string `mapstructure:"content_database_id"`
	BriefingDatabaseID string `mapstructure:"briefing_database_id"`
}

// TelegramConfig contains operational alert settings
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// SchedulerConfig contains the weekly schedule. All cron expressions are
// evaluated in Timezone (Europe/London covers the BST/GMT shift).
type SchedulerConfig struct {
	Timezone        string            `mapstructure:"timezone"`
	Briefings       map[string]string `mapstructure:"briefings"`  // slug -> cron spec
	Commentary      []string          `mapstructure:"commentary"` // cron specs
	DeepDive        string            `mapstructure:"deep_dive"`
	HeadlineFetch   string            `mapstructure:"headline_fetch"`
	Maintenance     string            `mapstructure:"maintenance"`
	DailySummary    string            `mapstructure:"daily_summary"`
	Engagement      string            `mapstructure:"engagement"`
	MaxDailyTweets  int               `mapstructure:"max_daily_tweets"`
}

// ContentConfig contains generation settings
type ContentConfig struct {
	DeepDiveMinScore   int    `mapstructure:"deep_dive_min_score"`
	CommentaryMinScore int    `mapstructure:"commentary_min_score"`
	ThreadParts        int    `mapstructure:"thread_parts"`
	ArticleDir         string `mapstructure:"article_dir"`
	ChartDir           string `mapstructure:"chart_dir"`
	CacheFile          string `mapstructure:"cache_file"`
	Disclaimer         string `mapstructure:"disclaimer"`
}

// APIConfig contains status server settings
type APIConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// MonitoringConfig contains monitoring settings
type MonitoringConfig struct {
	EnableMetrics bool `mapstructure:"enable_metrics"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("HFA")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; using defaults and environment variables
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "hedgefund-agent")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "console")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.database", "hedgefund")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.pool_size", 10)

	// Redis defaults (host empty = cache disabled)
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 60)

	// LLM defaults
	v.SetDefault("llm.endpoint", "https://api.openai.com/v1/chat/completions")
	v.SetDefault("llm.model", "gpt-4o")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 1000)
	v.SetDefault("llm.timeout", 60000)
	v.SetDefault("llm.requests_per_minute", 60)

	// Embeddings defaults
	v.SetDefault("embeddings.endpoint", "https://api.openai.com/v1/embeddings")
	v.SetDefault("embeddings.model", "all-MiniLM-L6-v2")
	v.SetDefault("embeddings.dimension", 384)
	v.SetDefault("embeddings.timeout", 30000)

	// Similarity defaults
	v.SetDefault("similarity.threshold", 0.50)
	v.SetDefault("similarity.window_hours", 8)
	v.SetDefault("similarity.max_attempts", 10)

	// Market-data microservice defaults
	v.SetDefault("market.base_url", "http://localhost:8000")
	v.SetDefault("market.timeout", 30000)
	v.SetDefault("market.retries", 2)
	v.SetDefault("market.retry_delay", 2500)

	// News defaults
	v.SetDefault("news.max_age_hours", 8)
	v.SetDefault("news.store_min_score", 7)

	// Scheduler defaults (weekdays, Europe/London)
	v.SetDefault("scheduler.timezone", "Europe/London")
	v.SetDefault("scheduler.briefings", map[string]string{
		"pre-market":  "0 7 * * 1-5",
		"mid-morning": "30 10 * * 1-5",
		"mid-day":     "30 14 * * 1-5",
		"after-hours": "30 21 * * 1-5",
	})
	v.SetDefault("scheduler.commentary", []string{
		"0 8 * * 1-5", "30 9 * * 1-5", "0 11 * * 1-5",
		"0 12 * * 1-5", "30 13 * * 1-5", "30 15 * * 1-5",
		"30 16 * * 1-5", "0 18 * * 1-5", "0 20 * * 1-5",
	})
	v.SetDefault("scheduler.deep_dive", "0 14 * * 1,3,5")
	v.SetDefault("scheduler.headline_fetch", "5,35 * * * *")
	v.SetDefault("scheduler.maintenance", "0 5 * * *")
	v.SetDefault("scheduler.daily_summary", "0 1 * * *")
	v.SetDefault("scheduler.engagement", "45 22 * * 1-5")
	v.SetDefault("scheduler.max_daily_tweets", 15)

	// Content defaults
	v.SetDefault("content.deep_dive_min_score", 8)
	v.SetDefault("content.commentary_min_score", 7)
	v.SetDefault("content.thread_parts", 3)
	v.SetDefault("content.article_dir", "./articles")
	v.SetDefault("content.chart_dir", "./charts")
	v.SetDefault("content.cache_file", "./cache/news-data.json")
	v.SetDefault("content.disclaimer", "This is my opinion. Not financial advice.")

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 3002)

	// Monitoring defaults
	v.SetDefault("monitoring.enable_metrics", true)
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Enabled reports whether the Redis cache is configured
func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}

// GetAPIAddr returns the status server address
func (c *APIConfig) GetAPIAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetTimeout returns the LLM timeout as time.Duration
func (c *LLMConfig) GetTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

// GetTimeout returns the embeddings timeout as time.Duration
func (c *EmbeddingsConfig) GetTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

// GetTimeout returns the market client timeout as time.Duration
func (c *MarketConfig) GetTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

// GetRetryDelay returns the market client retry delay as time.Duration
func (c *MarketConfig) GetRetryDelay() time.Duration {
	return time.Duration(c.RetryDelay) * time.Millisecond
}

// GetTTL returns the Redis cache TTL as time.Duration
func (c *RedisConfig) GetTTL() time.Duration {
	return time.Duration(c.TTL) * time.Second
}

// Configured reports whether Twitter credentials are present
func (c *TwitterConfig) Configured() bool {
	return c.ConsumerKey != "" && c.ConsumerSecret != "" &&
		c.AccessToken != "" && c.AccessSecret != ""
}

// Configured reports whether the Notion integration is usable
func (c *NotionConfig) Configured() bool {
	return c.APIKey != "" && c.ContentDatabaseID != ""
}

// Configured reports whether Telegram alerting is usable
func (c *TelegramConfig) Configured() bool {
	return c.BotToken != "" && c.ChatID != 0
}
