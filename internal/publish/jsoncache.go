package publish

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// CachedHeadline is the headline shape served by the status API
type CachedHeadline struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Category    string    `json:"category"`
	Score       int       `json:"score"`
	PublishedAt time.Time `json:"published_at"`
}

// CachedBriefing is the latest briefing snapshot served by the status API
type CachedBriefing struct {
	Slug      string    `json:"slug"`
	Summary   string    `json:"summary"`
	Sentiment string    `json:"sentiment"`
	Score     float64   `json:"score"`
	RanAt     time.Time `json:"ran_at"`
}

// CacheSnapshot is the full contents of the local JSON cache
type CacheSnapshot struct {
	UpdatedAt time.Time        `json:"updated_at"`
	Headlines []CachedHeadline `json:"headlines"`
	Briefing  *CachedBriefing  `json:"briefing,omitempty"`
}

// JSONCache persists the latest snapshot to a local file so the status
// API keeps serving data across restarts.
type JSONCache struct {
	path string
}

// NewJSONCache creates a cache backed by the given file path
func NewJSONCache(path string) *JSONCache {
	return &JSONCache{path: path}
}

// Write replaces the cache atomically: marshal to a temp file in the
// same directory, then rename over the target.
func (c *JSONCache) Write(snapshot *CacheSnapshot) error {
	if snapshot.UpdatedAt.IsZero() {
		snapshot.UpdatedAt = time.Now()
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".cache-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close cache file: %w", err)
	}

	if err := os.Rename(tmpName, c.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace cache file: %w", err)
	}

	return nil
}

// Read loads the current snapshot. A missing file returns an empty
// snapshot, not an error.
func (c *JSONCache) Read() (*CacheSnapshot, error) {
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return &CacheSnapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}

	var snapshot CacheSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse cache: %w", err)
	}

	return &snapshot, nil
}
