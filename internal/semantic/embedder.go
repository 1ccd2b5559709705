// Package semantic implements embedding-based theme similarity: embedding
// client, cosine scoring, and the duplicate-content checker.
package semantic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dutchbrat/hedgefund-agent/internal/config"
)

// Embedder maps text to a fixed-length dense vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// HTTPEmbedder calls an OpenAI-compatible /v1/embeddings endpoint
type HTTPEmbedder struct {
	endpoint   string
	apiKey     string
	model      string
	dimension  int
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewHTTPEmbedder creates an embedding client from config
func NewHTTPEmbedder(cfg config.EmbeddingsConfig) *HTTPEmbedder {
	return &HTTPEmbedder{
		endpoint:  cfg.Endpoint,
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		dimension: cfg.Dimension,
		httpClient: &http.Client{
			Timeout: cfg.GetTimeout(),
		},
		logger: config.NewLogger("embedder"),
	}
}

// Dimension returns the configured embedding size
func (e *HTTPEmbedder) Dimension() int {
	return e.dimension
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Embed returns the embedding vector for text. Any transport, status, or
// dimension failure is returned as an error; there is no silent fallback.
func (e *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("cannot embed empty text")
	}

	body, err := json.Marshal(embeddingRequest{
		Model: e.model,
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	start := time.Now()
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedding response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding endpoint returned %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse embedding response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("embedding error: %s", parsed.Error.Message)
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("embedding response contained no data")
	}

	vec := parsed.Data[0].Embedding
	if len(vec) != e.dimension {
		return nil, fmt.Errorf("expected %d-dimension embedding, got %d", e.dimension, len(vec))
	}

	e.logger.Debug().
		Int("dimension", len(vec)).
		Dur("duration", time.Since(start)).
		Msg("Embedded text")

	return vec, nil
}
