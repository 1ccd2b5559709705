package config

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Configuration validation failed with %d error(s):\n\n", len(ve)))
	for i, err := range ve {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	sb.WriteString("\nPlease fix the above errors and try again.\n")
	return sb.String()
}

// Validate performs configuration validation. Database, LLM, embeddings,
// scheduler, and similarity settings are required; publisher credentials
// are optional (a missing publisher is disabled, not fatal).
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.validateApp()...)
	errors = append(errors, c.validateDatabase()...)
	errors = append(errors, c.validateLLM()...)
	errors = append(errors, c.validateEmbeddings()...)
	errors = append(errors, c.validateSimilarity()...)
	errors = append(errors, c.validateScheduler()...)
	errors = append(errors, c.validateAPI()...)

	if len(errors) > 0 {
		return errors
	}

	return nil
}

func (c *Config) validateApp() ValidationErrors {
	var errors ValidationErrors

	if c.App.Name == "" {
		errors = append(errors, ValidationError{
			Field:   "app.name",
			Message: "Application name is required",
		})
	}

	if c.App.Environment != "" {
		validEnvs := []string{"development", "staging", "production"}
		valid := false
		for _, env := range validEnvs {
			if c.App.Environment == env {
				valid = true
				break
			}
		}
		if !valid {
			errors = append(errors, ValidationError{
				Field:   "app.environment",
				Message: "Environment must be development, staging, or production",
			})
		}
	}

	return errors
}

func (c *Config) validateDatabase() ValidationErrors {
	var errors ValidationErrors

	if c.Database.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "database.host",
			Message: "Database host is required",
		})
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "database.port",
			Message: "Database port must be between 1 and 65535",
		})
	}
	if c.Database.User == "" {
		errors = append(errors, ValidationError{
			Field:   "database.user",
			Message: "Database user is required",
		})
	}
	if c.Database.Database == "" {
		errors = append(errors, ValidationError{
			Field:   "database.database",
			Message: "Database name is required",
		})
	}

	return errors
}

func (c *Config) validateLLM() ValidationErrors {
	var errors ValidationErrors

	if c.LLM.Endpoint == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.endpoint",
			Message: "LLM endpoint is required",
		})
	}
	if c.LLM.Model == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.model",
			Message: "LLM model is required",
		})
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "Temperature must be between 0 and 2",
		})
	}
	if c.LLM.MaxTokens <= 0 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "Max tokens must be positive",
		})
	}

	return errors
}

func (c *Config) validateEmbeddings() ValidationErrors {
	var errors ValidationErrors

	if c.Embeddings.Endpoint == "" {
		errors = append(errors, ValidationError{
			Field:   "embeddings.endpoint",
			Message: "Embeddings endpoint is required",
		})
	}
	if c.Embeddings.Dimension <= 0 {
		errors = append(errors, ValidationError{
			Field:   "embeddings.dimension",
			Message: "Embedding dimension must be positive",
		})
	}

	return errors
}

func (c *Config) validateSimilarity() ValidationErrors {
	var errors ValidationErrors

	if c.Similarity.Threshold < -1 || c.Similarity.Threshold > 1 {
		errors = append(errors, ValidationError{
			Field:   "similarity.threshold",
			Message: "Similarity threshold must be between -1 and 1",
		})
	}
	if c.Similarity.WindowHours <= 0 {
		errors = append(errors, ValidationError{
			Field:   "similarity.window_hours",
			Message: "Similarity window must be positive",
		})
	}
	if c.Similarity.MaxAttempts <= 0 {
		errors = append(errors, ValidationError{
			Field:   "similarity.max_attempts",
			Message: "Max dedup attempts must be positive",
		})
	}

	return errors
}

func (c *Config) validateScheduler() ValidationErrors {
	var errors ValidationErrors

	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		errors = append(errors, ValidationError{
			Field:   "scheduler.timezone",
			Message: fmt.Sprintf("Invalid timezone %q", c.Scheduler.Timezone),
		})
	}
	if c.Scheduler.MaxDailyTweets <= 0 {
		errors = append(errors, ValidationError{
			Field:   "scheduler.max_daily_tweets",
			Message: "Max daily tweets must be positive",
		})
	}

	return errors
}

func (c *Config) validateAPI() ValidationErrors {
	var errors ValidationErrors

	if c.API.Port <= 0 || c.API.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "api.port",
			Message: "API port must be between 1 and 65535",
		})
	}

	return errors
}
