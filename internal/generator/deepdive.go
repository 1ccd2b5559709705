package generator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dutchbrat/hedgefund-agent/internal/config"
	"github.com/dutchbrat/hedgefund-agent/internal/db"
	"github.com/dutchbrat/hedgefund-agent/internal/metrics"
)

// articleSink writes published threads out as markdown articles
type articleSink interface {
	Write(title, sourceURL string, parts []string, publishedAt time.Time) (string, error)
}

// DeepDive produces multi-part analysis threads on the highest-scoring
// headlines.
type DeepDive struct {
	selector   headlinePicker
	headlines  headlineStore
	llm        contentLLM
	similarity similaritySource
	enricher   enricher
	publisher  publisher
	content    contentLog
	notion     notionSink
	articles   articleSink

	minScore int
	logger   zerolog.Logger
}

// NewDeepDive wires a deep-dive generator. enricher, notion, and
// articles may be nil.
func NewDeepDive(
	selector headlinePicker,
	headlines headlineStore,
	llmGen contentLLM,
	similarity similaritySource,
	enrich enricher,
	pub publisher,
	content contentLog,
	notion notionSink,
	articles articleSink,
	minScore int,
) *DeepDive {
	return &DeepDive{
		selector:   selector,
		headlines:  headlines,
		llm:        llmGen,
		similarity: similarity,
		enricher:   enrich,
		publisher:  pub,
		content:    content,
		notion:     notion,
		articles:   articles,
		minScore:   minScore,
		logger:     config.NewJobLogger("deep_dive"),
	}
}

// Run generates and publishes one deep-dive thread. A thread that fails
// partway through publishing is still recorded with the parts that made
// it out, so the theme is not repeated later.
func (d *DeepDive) Run(ctx context.Context) (*db.ContentRecord, error) {
	headline, err := d.selector.Select(ctx, d.minScore, "", db.ContentDeepDive)
	if err != nil {
		return nil, err
	}

	parts, err := d.llm.GenerateThread(ctx, headline.Title)
	if err != nil {
		return nil, fmt.Errorf("thread generation failed: %w", err)
	}

	if d.enricher != nil {
		for i := range parts {
			parts[i] = d.enricher.EnrichCashtags(ctx, parts[i])
		}
	}

	ids, postErr := d.publisher.PostThread(ctx, parts)
	if len(ids) == 0 {
		return nil, fmt.Errorf("failed to post thread: %w", postErr)
	}
	posted := parts[:len(ids)]
	if postErr != nil {
		d.logger.Warn().
			Err(postErr).
			Int("posted", len(ids)).
			Int("expected", len(parts)).
			Msg("Thread published partially")
	}

	fullText := strings.Join(posted, "\n\n")

	theme, err := d.similarity.Track(ctx, headline.Title, db.ContentDeepDive, headline.Category)
	if err != nil {
		d.logger.Error().Err(err).Msg("Failed to track deep-dive theme after posting")
	} else if err := d.similarity.RecordContent(ctx, fullText, db.ContentDeepDive, theme.ID); err != nil {
		d.logger.Error().Err(err).Msg("Failed to record content history")
	}

	rec := &db.ContentRecord{
		TweetID:     ids[0],
		ContentType: db.ContentDeepDive,
		Category:    headline.Category,
		Theme:       headline.Title,
		Text:        fullText,
	}
	if err := d.content.Record(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to log published thread: %w", err)
	}

	if d.notion != nil {
		pageID, err := d.notion.RecordContent(ctx, rec, headline.URL)
		if err != nil {
			d.logger.Warn().Err(err).Msg("Notion record failed")
		} else if err := d.content.SetNotionPage(ctx, rec.ID, pageID); err != nil {
			d.logger.Warn().Err(err).Msg("Failed to link notion page")
		}
	}

	if d.articles != nil {
		path, err := d.articles.Write(headline.Title, headline.URL, posted, rec.CreatedAt)
		if err != nil {
			d.logger.Warn().Err(err).Msg("Article write failed")
		} else {
			d.logger.Info().Str("path", path).Msg("Article written")
		}
	}

	if err := d.headlines.MarkUsed(ctx, headline.ID); err != nil {
		d.logger.Error().Err(err).Int64("headline_id", headline.ID).Msg("Failed to mark headline used")
	}

	metrics.RecordContentPublished(string(db.ContentDeepDive), string(headline.Category))
	d.logger.Info().
		Str("tweet_id", ids[0]).
		Int("parts", len(ids)).
		Str("headline", headline.Title).
		Msg("Deep dive published")

	return rec, nil
}
