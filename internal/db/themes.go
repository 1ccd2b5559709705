package db

import (
	"context"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"
)

// ThemeStore persists semantic themes and their embeddings
type ThemeStore struct {
	pool      DBPool
	dimension int
}

// NewThemeStore creates a theme store. dimension is the embedding size
// enforced on every write.
func NewThemeStore(pool DBPool, dimension int) *ThemeStore {
	return &ThemeStore{pool: pool, dimension: dimension}
}

// Track upserts a theme keyed on theme_text. On first use a row is
// created; every later call increments usage_count and refreshes
// last_used_at. Themes are never deleted here.
func (s *ThemeStore) Track(ctx context.Context, themeText string, contentType ContentType, category Category, embedding []float32) (*Theme, error) {
	if len(embedding) != s.dimension {
		return nil, fmt.Errorf("embedding must be %d dimensions, got %d", s.dimension, len(embedding))
	}

	query := `
		INSERT INTO semantic_themes (theme_text, content_type, category, embedding, usage_count, first_used_at, last_used_at)
		VALUES ($1, $2, $3, $4, 1, NOW(), NOW())
		ON CONFLICT (theme_text) DO UPDATE SET
			usage_count = semantic_themes.usage_count + 1,
			last_used_at = NOW()
		RETURNING id, theme_text, content_type, category, usage_count, first_used_at, last_used_at
	`

	var t Theme
	err := s.pool.QueryRow(ctx, query,
		themeText, contentType, category, pgvector.NewVector(embedding),
	).Scan(
		&t.ID, &t.ThemeText, &t.ContentType, &t.Category,
		&t.UsageCount, &t.FirstUsedAt, &t.LastUsedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to track theme: %w", err)
	}
	t.Embedding = embedding

	log.Debug().
		Str("theme", themeText).
		Int("usage_count", t.UsageCount).
		Msg("Tracked theme")

	return &t, nil
}

// RecentThemes returns themes with last_used_at at or after since,
// optionally filtered, with embeddings loaded. Ordered by last_used_at
// descending so downstream tie-breaks are deterministic.
func (s *ThemeStore) RecentThemes(ctx context.Context, since time.Time, filters ...Filter) ([]*Theme, error) {
	whereClause := "WHERE last_used_at >= $1 AND embedding IS NOT NULL"
	args := []interface{}{since}
	argIndex := 2

	for _, filter := range filters {
		clause, filterArgs := filter.SQL(argIndex)
		if clause != "" {
			whereClause += " AND " + clause
			args = append(args, filterArgs...)
			argIndex += len(filterArgs)
		}
	}

	query := fmt.Sprintf(`
		SELECT id, theme_text, content_type, category, embedding, usage_count, first_used_at, last_used_at
		FROM semantic_themes
		%s
		ORDER BY last_used_at DESC
	`, whereClause)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent themes: %w", err)
	}
	defer rows.Close()

	var themes []*Theme
	for rows.Next() {
		var t Theme
		var embedding *pgvector.Vector

		if err := rows.Scan(
			&t.ID, &t.ThemeText, &t.ContentType, &t.Category,
			&embedding, &t.UsageCount, &t.FirstUsedAt, &t.LastUsedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan theme: %w", err)
		}
		if embedding != nil {
			t.Embedding = embedding.Slice()
		}

		themes = append(themes, &t)
	}

	return themes, rows.Err()
}

// RecordContent stores a content-history row tied to a theme
func (s *ThemeStore) RecordContent(ctx context.Context, contentText string, contentType ContentType, themeID int64, embedding []float32) error {
	if len(embedding) != s.dimension {
		return fmt.Errorf("embedding must be %d dimensions, got %d", s.dimension, len(embedding))
	}

	query := `
		INSERT INTO content_history (content_text, content_type, theme_id, embedding)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query,
		contentText, contentType, themeID, pgvector.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("failed to record content history: %w", err)
	}
	return nil
}

// Stats returns theme usage statistics for the daily summary
func (s *ThemeStore) Stats(ctx context.Context) (map[string]interface{}, error) {
	query := `
		SELECT
			COUNT(*) as total_themes,
			COALESCE(SUM(usage_count), 0) as total_uses,
			COUNT(*) FILTER (WHERE last_used_at >= NOW() - INTERVAL '24 hours') as active_today
		FROM semantic_themes
	`

	var totalThemes, totalUses, activeToday int64
	if err := s.pool.QueryRow(ctx, query).Scan(&totalThemes, &totalUses, &activeToday); err != nil {
		return nil, fmt.Errorf("failed to get theme stats: %w", err)
	}

	return map[string]interface{}{
		"total_themes": totalThemes,
		"total_uses":   totalUses,
		"active_today": activeToday,
	}, nil
}

// Filter represents a query filter for theme lookups
type Filter interface {
	SQL(argIndex int) (clause string, args []interface{})
}

// ContentTypeFilter restricts themes to one content type
type ContentTypeFilter struct {
	ContentType ContentType
}

func (f ContentTypeFilter) SQL(argIndex int) (string, []interface{}) {
	return fmt.Sprintf("content_type = $%d", argIndex), []interface{}{f.ContentType}
}

// CategoryFilter restricts themes to one category
type CategoryFilter struct {
	Category Category
}

func (f CategoryFilter) SQL(argIndex int) (string, []interface{}) {
	return fmt.Sprintf("category = $%d", argIndex), []interface{}{f.Category}
}
