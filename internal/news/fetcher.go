// Package news pulls headlines from RSS feeds, classifies them, scores
// them with the LLM, and stores the keepers.
package news

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"github.com/dutchbrat/hedgefund-agent/internal/config"
	"github.com/dutchbrat/hedgefund-agent/internal/db"
)

// RawHeadline is a normalized feed item before scoring
type RawHeadline struct {
	Title       string
	URL         string
	Source      string
	PublishedAt time.Time
}

// Fetcher pulls items from the configured RSS feeds
type Fetcher struct {
	feeds  []string
	maxAge time.Duration
	parser *gofeed.Parser
	logger zerolog.Logger
}

// NewFetcher creates an RSS fetcher
func NewFetcher(cfg config.NewsConfig) *Fetcher {
	maxAge := time.Duration(cfg.MaxAgeHours) * time.Hour
	if maxAge <= 0 {
		maxAge = 8 * time.Hour
	}

	return &Fetcher{
		feeds:  cfg.Feeds,
		maxAge: maxAge,
		parser: gofeed.NewParser(),
		logger: config.NewLogger("rss"),
	}
}

// Fetch reads every configured feed and returns fresh items. A feed that
// fails to parse is skipped with a warning; the rest still count.
func (f *Fetcher) Fetch(ctx context.Context) ([]RawHeadline, error) {
	if len(f.feeds) == 0 {
		return nil, fmt.Errorf("no RSS feeds configured")
	}

	cutoff := time.Now().Add(-f.maxAge)
	var headlines []RawHeadline

	for _, url := range f.feeds {
		feed, err := f.parser.ParseURLWithContext(url, ctx)
		if err != nil {
			f.logger.Warn().Err(err).Str("feed", url).Msg("Failed to fetch feed")
			continue
		}

		for _, item := range feed.Items {
			published := itemTime(item)
			if published.Before(cutoff) {
				continue
			}
			if item.Title == "" || item.Link == "" {
				continue
			}

			headlines = append(headlines, RawHeadline{
				Title:       item.Title,
				URL:         item.Link,
				Source:      feed.Title,
				PublishedAt: published,
			})
		}
	}

	f.logger.Info().
		Int("feeds", len(f.feeds)).
		Int("headlines", len(headlines)).
		Msg("Fetched RSS headlines")

	return headlines, nil
}

func itemTime(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return time.Now()
}

// Classify buckets a headline into macro, equity, or political by
// keyword. Macro is the default when nothing matches.
func Classify(title string) db.Category {
	lower := strings.ToLower(title)

	for _, kw := range politicalKeywords {
		if strings.Contains(lower, kw) {
			return db.CategoryPolitical
		}
	}
	for _, kw := range equityKeywords {
		if strings.Contains(lower, kw) {
			return db.CategoryEquity
		}
	}
	return db.CategoryMacro
}

var politicalKeywords = []string{
	"election", "congress", "senate", "white house", "president",
	"parliament", "tariff", "sanction", "geopolit", "legislation",
	"regulator", "supreme court",
}

var equityKeywords = []string{
	"earnings", "ipo", "shares", "stock", "merger", "acquisition",
	"buyback", "dividend", "guidance", "upgrade", "downgrade",
	"quarterly", "revenue",
}
