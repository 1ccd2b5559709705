// Package dedup implements the bounded-retry candidate selection loop
// used by the deep-dive generator: pull an unused headline, reject it if
// its topic is too close to anything already published today, and try
// the next one until acceptance or exhaustion.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dutchbrat/hedgefund-agent/internal/config"
	"github.com/dutchbrat/hedgefund-agent/internal/db"
	"github.com/dutchbrat/hedgefund-agent/internal/metrics"
	"github.com/dutchbrat/hedgefund-agent/internal/semantic"
)

// ErrExhausted is returned when MaxAttempts candidates were all rejected.
var ErrExhausted = errors.New("dedup: candidate attempts exhausted")

// HeadlineSource supplies and rejects candidate headlines
type HeadlineSource interface {
	NextUnused(ctx context.Context, minScore int, category db.Category) (*db.Headline, error)
	MarkRejected(ctx context.Context, id int64) error
}

// SimilarityChecker is the similarity query the selector runs per candidate
type SimilarityChecker interface {
	IsTooSimilar(ctx context.Context, text string, threshold float64, since time.Time, contentType db.ContentType) (bool, *semantic.Match, error)
}

// Selector walks candidates until one clears the similarity bar
type Selector struct {
	headlines   HeadlineSource
	checker     SimilarityChecker
	threshold   float64
	maxAttempts int
	window      func() time.Time
	logger      zerolog.Logger
}

// NewSelector creates a selector with the configured threshold and bound.
// The default lookback window is "today".
func NewSelector(headlines HeadlineSource, checker SimilarityChecker, threshold float64, maxAttempts int) *Selector {
	return &Selector{
		headlines:   headlines,
		checker:     checker,
		threshold:   threshold,
		maxAttempts: maxAttempts,
		window:      func() time.Time { return semantic.SinceMidnight(time.Now()) },
		logger:      config.NewLogger("dedup"),
	}
}

// WithWindow overrides the lookback window, for content types that
// compare against a rolling window instead of the current day.
func (s *Selector) WithWindow(window func() time.Time) *Selector {
	s.window = window
	return s
}

// Select returns the first unused headline whose title is not too similar
// to any theme of the same content type used inside the window. An empty
// category means any category. Rejected candidates are marked so they
// are never offered again. After maxAttempts rejections it returns
// ErrExhausted; when the source runs dry it returns db.ErrNoHeadline.
func (s *Selector) Select(ctx context.Context, minScore int, category db.Category, contentType db.ContentType) (*db.Headline, error) {
	since := s.window()

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		headline, err := s.headlines.NextUnused(ctx, minScore, category)
		if err != nil {
			if errors.Is(err, db.ErrNoHeadline) {
				s.logger.Warn().Int("attempt", attempt).Msg("No candidate headlines left")
				return nil, err
			}
			return nil, fmt.Errorf("failed to select candidate: %w", err)
		}

		tooSimilar, match, err := s.checker.IsTooSimilar(ctx, headline.Title, s.threshold, since, contentType)
		if err != nil {
			return nil, fmt.Errorf("similarity check failed: %w", err)
		}

		if !tooSimilar {
			s.logger.Info().
				Int("attempt", attempt).
				Str("headline", headline.Title).
				Msg("Accepted candidate headline")
			return headline, nil
		}

		metrics.RecordThemeRejection(string(contentType))
		s.logger.Info().
			Int("attempt", attempt).
			Str("headline", headline.Title).
			Str("matched_theme", match.Theme.ThemeText).
			Float64("score", match.Score).
			Msg("Rejected candidate headline as too similar")

		if err := s.headlines.MarkRejected(ctx, headline.ID); err != nil {
			return nil, fmt.Errorf("failed to mark candidate rejected: %w", err)
		}
	}

	return nil, ErrExhausted
}
