package news

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dutchbrat/hedgefund-agent/internal/config"
	"github.com/dutchbrat/hedgefund-agent/internal/db"
	"github.com/dutchbrat/hedgefund-agent/internal/metrics"
)

// Scorer rates a headline's market impact from 1 to 10
type Scorer interface {
	ScoreHeadline(ctx context.Context, headline string) (int, error)
}

// HeadlineSaver persists scored headlines
type HeadlineSaver interface {
	Save(ctx context.Context, h *db.Headline) (bool, error)
}

// PipelineResult summarizes one pipeline run
type PipelineResult struct {
	Fetched int
	Scored  int
	Stored  int
	Skipped int
}

// Pipeline runs fetch -> classify -> score -> store
type Pipeline struct {
	fetcher  *Fetcher
	scorer   Scorer
	store    HeadlineSaver
	minScore int
	logger   zerolog.Logger
}

// NewPipeline creates a headline pipeline. Headlines scoring below
// minScore are dropped.
func NewPipeline(fetcher *Fetcher, scorer Scorer, store HeadlineSaver, minScore int) *Pipeline {
	return &Pipeline{
		fetcher:  fetcher,
		scorer:   scorer,
		store:    store,
		minScore: minScore,
		logger:   config.NewLogger("pipeline"),
	}
}

// Run executes one pipeline pass. Scoring failures skip the single
// headline rather than aborting the run.
func (p *Pipeline) Run(ctx context.Context) (*PipelineResult, error) {
	raw, err := p.fetcher.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("headline fetch failed: %w", err)
	}

	result := &PipelineResult{Fetched: len(raw)}

	for _, rh := range raw {
		score, err := p.scorer.ScoreHeadline(ctx, rh.Title)
		if err != nil {
			p.logger.Warn().Err(err).Str("headline", rh.Title).Msg("Scoring failed, skipping headline")
			result.Skipped++
			continue
		}
		result.Scored++

		if score < p.minScore {
			result.Skipped++
			continue
		}

		inserted, err := p.store.Save(ctx, &db.Headline{
			Title:       rh.Title,
			URL:         rh.URL,
			Source:      rh.Source,
			Category:    Classify(rh.Title),
			Score:       score,
			PublishedAt: rh.PublishedAt,
		})
		if err != nil {
			p.logger.Warn().Err(err).Str("headline", rh.Title).Msg("Store failed, skipping headline")
			result.Skipped++
			continue
		}
		if inserted {
			result.Stored++
		}
	}

	metrics.RecordPipelineRun(result.Fetched, result.Stored)

	p.logger.Info().
		Int("fetched", result.Fetched).
		Int("scored", result.Scored).
		Int("stored", result.Stored).
		Int("skipped", result.Skipped).
		Msg("Headline pipeline complete")

	return result, nil
}
