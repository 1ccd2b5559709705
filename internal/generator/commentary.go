package generator

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dutchbrat/hedgefund-agent/internal/config"
	"github.com/dutchbrat/hedgefund-agent/internal/db"
	"github.com/dutchbrat/hedgefund-agent/internal/metrics"
	"github.com/dutchbrat/hedgefund-agent/internal/semantic"
)

// Commentary produces single-tweet takes on scored headlines, rotating
// across categories so the feed does not fixate on one beat.
type Commentary struct {
	selector   headlinePicker
	headlines  headlineStore
	llm        contentLLM
	similarity similaritySource
	enricher   enricher
	publisher  publisher
	content    contentLog
	notion     notionSink

	minScore    int
	threshold   float64
	windowHours int
	logger      zerolog.Logger
}

// CommentaryParams carries the knobs for the commentary job
type CommentaryParams struct {
	MinScore    int
	Threshold   float64
	WindowHours int
}

// NewCommentary wires a commentary generator. enricher and notion may be
// nil; publishing degrades accordingly.
func NewCommentary(
	selector headlinePicker,
	headlines headlineStore,
	llmGen contentLLM,
	similarity similaritySource,
	enrich enricher,
	pub publisher,
	content contentLog,
	notion notionSink,
	params CommentaryParams,
) *Commentary {
	return &Commentary{
		selector:    selector,
		headlines:   headlines,
		llm:         llmGen,
		similarity:  similarity,
		enricher:    enrich,
		publisher:   pub,
		content:     content,
		notion:      notion,
		minScore:    params.MinScore,
		threshold:   params.Threshold,
		windowHours: params.WindowHours,
		logger:      config.NewJobLogger("commentary"),
	}
}

// Run generates and publishes one commentary tweet. The headline pick is
// already dedup-filtered; the generated theme gets a second similarity
// check against the rolling window before anything is posted.
func (c *Commentary) Run(ctx context.Context) (*db.ContentRecord, error) {
	category := c.pickCategory(ctx)

	headline, err := c.selector.Select(ctx, c.minScore, category, db.ContentCommentary)
	if errors.Is(err, db.ErrNoHeadline) && category != "" {
		c.logger.Info().Str("category", string(category)).Msg("No headlines in rotation category, widening")
		headline, err = c.selector.Select(ctx, c.minScore, "", db.ContentCommentary)
	}
	if err != nil {
		return nil, err
	}

	commentary, err := c.llm.GenerateCommentary(ctx, headline.Title)
	if err != nil {
		return nil, fmt.Errorf("commentary generation failed: %w", err)
	}

	since := semantic.SinceHours(c.windowHours)
	tooSimilar, match, err := c.similarity.IsTooSimilar(ctx, commentary.Theme, c.threshold, since, db.ContentCommentary)
	if err != nil {
		return nil, fmt.Errorf("theme similarity check failed: %w", err)
	}
	if tooSimilar {
		c.logger.Info().
			Str("theme", commentary.Theme).
			Str("matched_theme", match.Theme.ThemeText).
			Float64("score", match.Score).
			Msg("Generated theme too similar, aborting")
		return nil, ErrTooSimilar
	}

	text := commentary.Text
	if c.enricher != nil {
		text = c.enricher.EnrichCashtags(ctx, text)
	}

	tweetID, err := c.publisher.Post(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to post commentary: %w", err)
	}

	theme, err := c.similarity.Track(ctx, commentary.Theme, db.ContentCommentary, headline.Category)
	if err != nil {
		c.logger.Error().Err(err).Str("theme", commentary.Theme).Msg("Failed to track theme after posting")
	} else if err := c.similarity.RecordContent(ctx, text, db.ContentCommentary, theme.ID); err != nil {
		c.logger.Error().Err(err).Msg("Failed to record content history")
	}

	rec := &db.ContentRecord{
		TweetID:     tweetID,
		ContentType: db.ContentCommentary,
		Category:    headline.Category,
		Theme:       commentary.Theme,
		Text:        text,
	}
	if err := c.content.Record(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to log published commentary: %w", err)
	}

	if c.notion != nil {
		pageID, err := c.notion.RecordContent(ctx, rec, headline.URL)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Notion record failed")
		} else if err := c.content.SetNotionPage(ctx, rec.ID, pageID); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to link notion page")
		}
	}

	if err := c.headlines.MarkUsed(ctx, headline.ID); err != nil {
		c.logger.Error().Err(err).Int64("headline_id", headline.ID).Msg("Failed to mark headline used")
	}

	metrics.RecordContentPublished(string(db.ContentCommentary), string(headline.Category))
	c.logger.Info().
		Str("tweet_id", tweetID).
		Str("theme", commentary.Theme).
		Str("category", string(headline.Category)).
		Msg("Commentary published")

	return rec, nil
}

func (c *Commentary) pickCategory(ctx context.Context) db.Category {
	recent, err := c.content.RecentCategories(ctx, db.ContentCommentary, len(rotation)-1)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Category rotation lookup failed, using default order")
		return rotation[0]
	}
	return NextCategory(recent)
}
