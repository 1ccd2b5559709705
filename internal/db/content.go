package db

import (
	"context"
	"fmt"
	"time"
)

// ContentStore persists the published-content log
type ContentStore struct {
	pool DBPool
}

// NewContentStore creates a content store
func NewContentStore(pool DBPool) *ContentStore {
	return &ContentStore{pool: pool}
}

// Record logs a published piece of content
func (s *ContentStore) Record(ctx context.Context, r *ContentRecord) error {
	query := `
		INSERT INTO content_log (tweet_id, content_type, category, theme, text)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := s.pool.QueryRow(ctx, query,
		r.TweetID, r.ContentType, r.Category, r.Theme, r.Text,
	).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record content: %w", err)
	}
	return nil
}

// SetNotionPage links a content row to its mirrored Notion page
func (s *ContentStore) SetNotionPage(ctx context.Context, id int64, pageID string) error {
	query := `UPDATE content_log SET notion_page_id = $2 WHERE id = $1`

	_, err := s.pool.Exec(ctx, query, id, pageID)
	if err != nil {
		return fmt.Errorf("failed to set notion page: %w", err)
	}
	return nil
}

// RecentForEngagement returns tweeted content from the lookback window,
// for the engagement refresh job.
func (s *ContentStore) RecentForEngagement(ctx context.Context, since time.Time) ([]ContentRecord, error) {
	query := `
		SELECT id, tweet_id, content_type, category, notion_page_id
		FROM content_log
		WHERE tweet_id <> '' AND created_at >= $1
		ORDER BY created_at DESC
	`

	rows, err := s.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query content for engagement: %w", err)
	}
	defer rows.Close()

	var records []ContentRecord
	for rows.Next() {
		var r ContentRecord
		if err := rows.Scan(&r.ID, &r.TweetID, &r.ContentType, &r.Category, &r.NotionPageID); err != nil {
			return nil, fmt.Errorf("failed to scan content record: %w", err)
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

// UpdateEngagement stores the latest engagement numbers for a tweet
func (s *ContentStore) UpdateEngagement(ctx context.Context, tweetID string, likes, retweets, replies int) error {
	query := `
		UPDATE content_log
		SET likes = $2, retweets = $3, replies = $4
		WHERE tweet_id = $1
	`

	_, err := s.pool.Exec(ctx, query, tweetID, likes, retweets, replies)
	if err != nil {
		return fmt.Errorf("failed to update engagement: %w", err)
	}
	return nil
}

// CountSince returns per-type publish counts since a time. Used both for
// the daily summary and for the daily tweet cap.
func (s *ContentStore) CountSince(ctx context.Context, since time.Time) (map[ContentType]int, error) {
	query := `
		SELECT content_type, COUNT(*)
		FROM content_log
		WHERE created_at >= $1
		GROUP BY content_type
	`

	rows, err := s.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count content: %w", err)
	}
	defer rows.Close()

	counts := make(map[ContentType]int)
	for rows.Next() {
		var ct ContentType
		var n int
		if err := rows.Scan(&ct, &n); err != nil {
			return nil, fmt.Errorf("failed to scan content count: %w", err)
		}
		counts[ct] = n
	}

	return counts, rows.Err()
}

// RecentCategories returns the categories of the latest published items,
// newest first. The commentary generator uses this for category rotation.
func (s *ContentStore) RecentCategories(ctx context.Context, contentType ContentType, limit int) ([]Category, error) {
	query := `
		SELECT category
		FROM content_log
		WHERE content_type = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, contentType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	return categories, rows.Err()
}
