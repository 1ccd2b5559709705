package semantic

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/dutchbrat/hedgefund-agent/internal/config"
	"github.com/dutchbrat/hedgefund-agent/internal/db"
)

// ThemeSource is the slice of the theme store the checker needs
type ThemeSource interface {
	Track(ctx context.Context, themeText string, contentType db.ContentType, category db.Category, embedding []float32) (*db.Theme, error)
	RecentThemes(ctx context.Context, since time.Time, filters ...db.Filter) ([]*db.Theme, error)
	RecordContent(ctx context.Context, contentText string, contentType db.ContentType, themeID int64, embedding []float32) error
}

// Match pairs a stored theme with its similarity to the query text
type Match struct {
	Theme *db.Theme
	Score float64
}

// Checker scores new text against recently used themes
type Checker struct {
	embedder Embedder
	themes   ThemeSource
	logger   zerolog.Logger
}

// NewChecker creates a similarity checker
func NewChecker(embedder Embedder, themes ThemeSource) *Checker {
	return &Checker{
		embedder: embedder,
		themes:   themes,
		logger:   config.NewLogger("similarity"),
	}
}

// FindSimilar embeds text once, scores it against every theme used since
// the cutoff, and returns matches at or above threshold. Matches are
// ordered by score descending; equal scores break toward the more
// recently used theme. Read-only.
//
// An embedding failure propagates as an error so callers can choose their
// own retry policy.
func (c *Checker) FindSimilar(ctx context.Context, text string, threshold float64, since time.Time, contentType db.ContentType) ([]Match, error) {
	embedding, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query text: %w", err)
	}

	var filters []db.Filter
	if contentType != "" {
		filters = append(filters, db.ContentTypeFilter{ContentType: contentType})
	}

	candidates, err := c.themes.RecentThemes(ctx, since, filters...)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate themes: %w", err)
	}

	var matches []Match
	for _, theme := range candidates {
		score := Cosine(embedding, theme.Embedding)
		if score >= threshold {
			matches = append(matches, Match{Theme: theme, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Theme.LastUsedAt.After(matches[j].Theme.LastUsedAt)
	})

	c.logger.Debug().
		Int("candidates", len(candidates)).
		Int("matches", len(matches)).
		Float64("threshold", threshold).
		Msg("Similarity check complete")

	return matches, nil
}

// IsTooSimilar reports whether text matches any theme of the given type
// used since the cutoff. Returns the best match when it does.
func (c *Checker) IsTooSimilar(ctx context.Context, text string, threshold float64, since time.Time, contentType db.ContentType) (bool, *Match, error) {
	matches, err := c.FindSimilar(ctx, text, threshold, since, contentType)
	if err != nil {
		return false, nil, err
	}
	if len(matches) == 0 {
		return false, nil, nil
	}
	return true, &matches[0], nil
}

// Track embeds a theme and upserts it into the store
func (c *Checker) Track(ctx context.Context, themeText string, contentType db.ContentType, category db.Category) (*db.Theme, error) {
	embedding, err := c.embedder.Embed(ctx, themeText)
	if err != nil {
		return nil, fmt.Errorf("failed to embed theme: %w", err)
	}
	return c.themes.Track(ctx, themeText, contentType, category, embedding)
}

// RecordContent embeds published content and stores it in the history
// table alongside its theme.
func (c *Checker) RecordContent(ctx context.Context, contentText string, contentType db.ContentType, themeID int64) error {
	embedding, err := c.embedder.Embed(ctx, contentText)
	if err != nil {
		return fmt.Errorf("failed to embed content: %w", err)
	}
	return c.themes.RecordContent(ctx, contentText, contentType, themeID, embedding)
}

// SinceHours returns the cutoff for an n-hour lookback window
func SinceHours(n int) time.Time {
	return time.Now().Add(-time.Duration(n) * time.Hour)
}

// SinceMidnight returns the start of now's day, the "today" window
func SinceMidnight(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
