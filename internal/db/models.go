package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBPool is the subset of pgxpool.Pool used by the stores.
// It allows pgxmock to stand in during tests.
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Category classifies a headline or piece of content
type Category string

const (
	CategoryMacro     Category = "macro"
	CategoryEquity    Category = "equity"
	CategoryPolitical Category = "political"
)

// ContentType distinguishes the kinds of generated content
type ContentType string

const (
	ContentCommentary ContentType = "commentary"
	ContentDeepDive   ContentType = "deep_dive"
	ContentBriefing   ContentType = "briefing"
)

// Headline is a scored news headline
type Headline struct {
	ID          int64
	Title       string
	URL         string
	Source      string
	Category    Category
	Score       int
	Used        bool
	Rejected    bool
	PublishedAt time.Time
	CreatedAt   time.Time
}

// Theme is a semantic topic record. theme_text is unique; the embedding
// dimension is fixed by the embedding provider.
type Theme struct {
	ID          int64
	ThemeText   string
	ContentType ContentType
	Category    Category
	Embedding   []float32
	UsageCount  int
	FirstUsedAt time.Time
	LastUsedAt  time.Time
}

// ContentRecord is a row in the published-content log
type ContentRecord struct {
	ID           int64
	TweetID      string
	ContentType  ContentType
	Category     Category
	Theme        string
	Text         string
	NotionPageID string
	Likes        int
	Retweets     int
	Replies      int
	CreatedAt    time.Time
}

// BriefingDefinition describes one scheduled briefing
type BriefingDefinition struct {
	ID       int64
	Slug     string
	Title    string
	Enabled  bool
	Blocks   []MarketBlock
}

// MarketBlock is a named group of symbols inside a briefing
// (us_futures, european_futures, asian_focus, volatility, fx, rates, crypto)
type MarketBlock struct {
	ID       int64
	Name     string
	Position int
	Symbols  []string
}

// BriefingRun records one executed briefing
type BriefingRun struct {
	ID           uuid.UUID
	BriefingSlug string
	Sentiment    []byte // JSON snapshot of the sentiment analysis
	Summary      string
	NotionPageID string
	CreatedAt    time.Time
}
