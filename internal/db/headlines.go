package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// ErrNoHeadline is returned when no unused headline matches the criteria.
var ErrNoHeadline = errors.New("no unused headline available")

// HeadlineStore persists scored news headlines
type HeadlineStore struct {
	pool DBPool
}

// NewHeadlineStore creates a headline store
func NewHeadlineStore(pool DBPool) *HeadlineStore {
	return &HeadlineStore{pool: pool}
}

// Save stores a scored headline. Duplicate URLs are ignored so repeated
// RSS fetches do not create copies. Returns true if a row was inserted.
func (s *HeadlineStore) Save(ctx context.Context, h *Headline) (bool, error) {
	query := `
		INSERT INTO headlines (title, url, source, category, score, published_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (url) DO NOTHING
	`

	tag, err := s.pool.Exec(ctx, query,
		h.Title, h.URL, h.Source, h.Category, h.Score, h.PublishedAt)
	if err != nil {
		return false, fmt.Errorf("failed to save headline: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// NextUnused returns the highest-scored unused, unrejected headline with
// score >= minScore, most recent first among equal scores. An empty
// category matches all categories.
func (s *HeadlineStore) NextUnused(ctx context.Context, minScore int, category Category) (*Headline, error) {
	query := `
		SELECT id, title, url, source, category, score, used, rejected, published_at, created_at
		FROM headlines
		WHERE used = FALSE AND rejected = FALSE AND score >= $1
		  AND ($2 = '' OR category = $2)
		ORDER BY score DESC, published_at DESC
		LIMIT 1
	`

	var h Headline
	err := s.pool.QueryRow(ctx, query, minScore, string(category)).Scan(
		&h.ID, &h.Title, &h.URL, &h.Source, &h.Category, &h.Score,
		&h.Used, &h.Rejected, &h.PublishedAt, &h.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoHeadline
		}
		return nil, fmt.Errorf("failed to fetch unused headline: %w", err)
	}

	return &h, nil
}

// MarkUsed flags a headline as consumed by a generator
func (s *HeadlineStore) MarkUsed(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `UPDATE headlines SET used = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark headline used: %w", err)
	}
	return nil
}

// MarkRejected flags a headline rejected by the dedup loop so it is not
// selected again.
func (s *HeadlineStore) MarkRejected(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `UPDATE headlines SET rejected = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark headline rejected: %w", err)
	}
	return nil
}

// Recent returns the newest headlines for the public news endpoint
func (s *HeadlineStore) Recent(ctx context.Context, limit int) ([]Headline, error) {
	query := `
		SELECT id, title, url, source, category, score, used, rejected, published_at, created_at
		FROM headlines
		ORDER BY published_at DESC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent headlines: %w", err)
	}
	defer rows.Close()

	var headlines []Headline
	for rows.Next() {
		var h Headline
		if err := rows.Scan(
			&h.ID, &h.Title, &h.URL, &h.Source, &h.Category, &h.Score,
			&h.Used, &h.Rejected, &h.PublishedAt, &h.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan headline: %w", err)
		}
		headlines = append(headlines, h)
	}

	return headlines, rows.Err()
}

// CountSince returns headline counts since a time, for the daily summary
func (s *HeadlineStore) CountSince(ctx context.Context, since time.Time) (total, used int, err error) {
	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE used)
		FROM headlines
		WHERE created_at >= $1
	`
	if err := s.pool.QueryRow(ctx, query, since).Scan(&total, &used); err != nil {
		return 0, 0, fmt.Errorf("failed to count headlines: %w", err)
	}
	return total, used, nil
}

// PruneOlderThan deletes unused headlines older than the cutoff.
// Run by the maintenance job.
func (s *HeadlineStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM headlines WHERE used = FALSE AND created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune headlines: %w", err)
	}

	count := int(tag.RowsAffected())
	if count > 0 {
		log.Info().Int("count", count).Msg("Pruned stale headlines")
	}
	return count, nil
}
