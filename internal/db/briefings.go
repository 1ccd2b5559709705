package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrBriefingNotFound is returned for an unknown briefing slug.
var ErrBriefingNotFound = errors.New("briefing definition not found")

// BriefingStore reads briefing configuration and records briefing runs
type BriefingStore struct {
	pool DBPool
}

// NewBriefingStore creates a briefing store
func NewBriefingStore(pool DBPool) *BriefingStore {
	return &BriefingStore{pool: pool}
}

// Definition loads one briefing definition with its market blocks and the
// symbols of each block, joined through the stock universe.
func (s *BriefingStore) Definition(ctx context.Context, slug string) (*BriefingDefinition, error) {
	var def BriefingDefinition
	err := s.pool.QueryRow(ctx, `
		SELECT id, slug, title, enabled
		FROM briefing_definitions
		WHERE slug = $1
	`, slug).Scan(&def.ID, &def.Slug, &def.Title, &def.Enabled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBriefingNotFound
		}
		return nil, fmt.Errorf("failed to load briefing definition: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT mb.id, mb.name, mb.position, su.symbol
		FROM market_blocks mb
		JOIN market_block_symbols mbs ON mbs.block_id = mb.id
		JOIN stock_universe su ON su.id = mbs.stock_id
		WHERE mb.briefing_id = $1
		ORDER BY mb.position, mbs.position
	`, def.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load market blocks: %w", err)
	}
	defer rows.Close()

	blockIndex := make(map[int64]int)
	for rows.Next() {
		var blockID int64
		var name string
		var position int
		var symbol string
		if err := rows.Scan(&blockID, &name, &position, &symbol); err != nil {
			return nil, fmt.Errorf("failed to scan market block row: %w", err)
		}

		idx, ok := blockIndex[blockID]
		if !ok {
			def.Blocks = append(def.Blocks, MarketBlock{ID: blockID, Name: name, Position: position})
			idx = len(def.Blocks) - 1
			blockIndex[blockID] = idx
		}
		def.Blocks[idx].Symbols = append(def.Blocks[idx].Symbols, symbol)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &def, nil
}

// Slugs lists the enabled briefing slugs
func (s *BriefingStore) Slugs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT slug FROM briefing_definitions WHERE enabled ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("failed to list briefing slugs: %w", err)
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, fmt.Errorf("failed to scan briefing slug: %w", err)
		}
		slugs = append(slugs, slug)
	}

	return slugs, rows.Err()
}

// RecordRun persists an executed briefing
func (s *BriefingStore) RecordRun(ctx context.Context, run *BriefingRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}

	query := `
		INSERT INTO briefing_runs (id, briefing_slug, sentiment, summary, notion_page_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := s.pool.QueryRow(ctx, query,
		run.ID, run.BriefingSlug, run.Sentiment, run.Summary, run.NotionPageID,
	).Scan(&run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record briefing run: %w", err)
	}
	return nil
}

// LatestRun returns the most recent run for the status endpoint.
// Returns nil when no briefing has run yet.
func (s *BriefingStore) LatestRun(ctx context.Context) (*BriefingRun, error) {
	var run BriefingRun
	err := s.pool.QueryRow(ctx, `
		SELECT id, briefing_slug, sentiment, summary, notion_page_id, created_at
		FROM briefing_runs
		ORDER BY created_at DESC
		LIMIT 1
	`).Scan(&run.ID, &run.BriefingSlug, &run.Sentiment, &run.Summary, &run.NotionPageID, &run.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load latest briefing run: %w", err)
	}
	return &run, nil
}
