// Package generator ties the pipeline together: pick a headline, write
// content through the LLM, guard against repeating recent themes, then
// publish and record the result.
package generator

import (
	"context"
	"errors"
	"time"

	"github.com/dutchbrat/hedgefund-agent/internal/db"
	"github.com/dutchbrat/hedgefund-agent/internal/llm"
	"github.com/dutchbrat/hedgefund-agent/internal/market"
	"github.com/dutchbrat/hedgefund-agent/internal/semantic"
)

// ErrTooSimilar is returned when generated content lands on a theme that
// was already covered inside the lookback window.
var ErrTooSimilar = errors.New("generated theme too similar to recent content")

// contentLLM is the slice of the LLM generator the content jobs use
type contentLLM interface {
	GenerateCommentary(ctx context.Context, headline string) (*llm.Commentary, error)
	GenerateThread(ctx context.Context, headline string) ([]string, error)
	SummarizeSentiment(ctx context.Context, briefingTitle, sectionsDescription string) (string, error)
}

// headlinePicker selects deduplicated candidate headlines
type headlinePicker interface {
	Select(ctx context.Context, minScore int, category db.Category, contentType db.ContentType) (*db.Headline, error)
}

// headlineStore marks headlines consumed and lists recent ones
type headlineStore interface {
	MarkUsed(ctx context.Context, id int64) error
	Recent(ctx context.Context, limit int) ([]db.Headline, error)
}

// similaritySource tracks themes and answers similarity queries
type similaritySource interface {
	IsTooSimilar(ctx context.Context, text string, threshold float64, since time.Time, contentType db.ContentType) (bool, *semantic.Match, error)
	Track(ctx context.Context, themeText string, contentType db.ContentType, category db.Category) (*db.Theme, error)
	RecordContent(ctx context.Context, contentText string, contentType db.ContentType, themeID int64) error
}

// publisher posts to Twitter
type publisher interface {
	Post(ctx context.Context, text string) (string, error)
	PostThread(ctx context.Context, parts []string) ([]string, error)
}

// enricher rewrites cashtags with live quotes
type enricher interface {
	EnrichCashtags(ctx context.Context, text string) string
}

// contentLog persists the publish history
type contentLog interface {
	Record(ctx context.Context, r *db.ContentRecord) error
	SetNotionPage(ctx context.Context, id int64, pageID string) error
	RecentCategories(ctx context.Context, contentType db.ContentType, limit int) ([]db.Category, error)
}

// notionSink mirrors published content into Notion
type notionSink interface {
	RecordContent(ctx context.Context, rec *db.ContentRecord, sourceURL string) (string, error)
	RecordBriefing(ctx context.Context, slug, title, summary, sentimentLabel string, ranAt time.Time) (string, error)
}

// marketData is the market-service surface the briefing uses
type marketData interface {
	GetBulkPrices(ctx context.Context, tickers []string) (map[string]market.Quote, error)
	GetMarketNews(ctx context.Context) ([]market.NewsItem, error)
	GetCalendar(ctx context.Context, kind string) ([]market.CalendarEvent, error)
}

// rotation is the fixed category cycle for commentary
var rotation = []db.Category{db.CategoryMacro, db.CategoryEquity, db.CategoryPolitical}

// NextCategory picks the category whose last use is furthest back.
// recent is ordered newest first; categories never used win outright.
func NextCategory(recent []db.Category) db.Category {
	best := rotation[0]
	bestIdx := -2 // any found index beats this

	for _, candidate := range rotation {
		idx := -1 // never used
		for i, used := range recent {
			if used == candidate {
				idx = i
				break
			}
		}
		if idx == -1 {
			return candidate
		}
		if idx > bestIdx {
			best = candidate
			bestIdx = idx
		}
	}

	return best
}
