package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dutchbrat/hedgefund-agent/internal/config"
	"github.com/dutchbrat/hedgefund-agent/internal/db"
	"github.com/dutchbrat/hedgefund-agent/internal/market"
	"github.com/dutchbrat/hedgefund-agent/internal/metrics"
	"github.com/dutchbrat/hedgefund-agent/internal/publish"
	"github.com/dutchbrat/hedgefund-agent/internal/sentiment"
)

// briefingSource reads briefing config and records runs
type briefingSource interface {
	Definition(ctx context.Context, slug string) (*db.BriefingDefinition, error)
	RecordRun(ctx context.Context, run *db.BriefingRun) error
}

// chartSink renders and disposes of sentiment charts
type chartSink interface {
	RenderSentiment(title string, labels []string, values []float64) (string, error)
	Cleanup(path string)
}

// cacheSink persists the status-API snapshot
type cacheSink interface {
	Write(snapshot *publish.CacheSnapshot) error
}

// Briefing assembles a scheduled market briefing: quotes for every
// block, news and calendar context, a sentiment read, and an LLM
// narrative, delivered to Twitter, Notion, and the local cache.
type Briefing struct {
	briefings briefingSource
	market    marketData
	analyzer  *sentiment.Analyzer
	llm       contentLLM
	publisher publisher
	notion    notionSink
	charts    chartSink
	cache     cacheSink
	headlines headlineStore
	logger    zerolog.Logger
}

// NewBriefing wires a briefing generator. publisher, notion, charts, and
// cache may be nil; delivery degrades to whatever is configured.
func NewBriefing(
	briefings briefingSource,
	marketClient marketData,
	analyzer *sentiment.Analyzer,
	llmGen contentLLM,
	pub publisher,
	notion notionSink,
	charts chartSink,
	cache cacheSink,
	headlines headlineStore,
) *Briefing {
	return &Briefing{
		briefings: briefings,
		market:    marketClient,
		analyzer:  analyzer,
		llm:       llmGen,
		publisher: pub,
		notion:    notion,
		charts:    charts,
		cache:     cache,
		headlines: headlines,
		logger:    config.NewJobLogger("briefing"),
	}
}

// briefingInputs is the market context gathered concurrently. Every
// field is best effort; a missing piece narrows the briefing rather
// than cancelling it.
type briefingInputs struct {
	quotes   map[string]market.Quote
	news     []market.NewsItem
	ipos     []market.CalendarEvent
	earnings []market.CalendarEvent
}

// Run executes one briefing end to end and returns the recorded run.
func (b *Briefing) Run(ctx context.Context, slug string) (*db.BriefingRun, error) {
	def, err := b.briefings.Definition(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !def.Enabled {
		b.logger.Info().Str("briefing", slug).Msg("Briefing disabled, skipping")
		return nil, nil
	}

	inputs := b.gather(ctx, def)

	analysis := b.analyzer.Analyze(def.Blocks, inputs.quotes)

	summary, err := b.llm.SummarizeSentiment(ctx, def.Title, b.describe(analysis, inputs))
	if err != nil {
		return nil, fmt.Errorf("briefing summary failed: %w", err)
	}

	if b.charts != nil {
		b.renderChart(def.Title, analysis)
	}

	if b.publisher != nil {
		if _, err := b.publisher.Post(ctx, summary); err != nil {
			b.logger.Warn().Err(err).Msg("Briefing tweet failed")
		}
	}

	notionPageID := ""
	if b.notion != nil {
		pageID, err := b.notion.RecordBriefing(ctx, def.Slug, def.Title, summary, string(analysis.Label), time.Now())
		if err != nil {
			b.logger.Warn().Err(err).Msg("Notion briefing record failed")
		} else {
			notionPageID = pageID
		}
	}

	sentimentJSON, err := json.Marshal(analysis)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sentiment: %w", err)
	}

	run := &db.BriefingRun{
		BriefingSlug: def.Slug,
		Sentiment:    sentimentJSON,
		Summary:      summary,
		NotionPageID: notionPageID,
	}
	if err := b.briefings.RecordRun(ctx, run); err != nil {
		return nil, err
	}

	b.refreshCache(ctx, run, analysis)

	metrics.RecordContentPublished(string(db.ContentBriefing), slug)
	b.logger.Info().
		Str("briefing", slug).
		Str("sentiment", string(analysis.Label)).
		Float64("score", analysis.Score).
		Msg("Briefing published")

	return run, nil
}

// gather fans out the market-data calls. Failures log and leave the
// corresponding input empty.
func (b *Briefing) gather(ctx context.Context, def *db.BriefingDefinition) *briefingInputs {
	var symbols []string
	for _, block := range def.Blocks {
		symbols = append(symbols, block.Symbols...)
	}

	inputs := &briefingInputs{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		quotes, err := b.market.GetBulkPrices(gctx, symbols)
		if err != nil {
			b.logger.Warn().Err(err).Msg("Bulk price fetch failed")
			return nil
		}
		inputs.quotes = quotes
		return nil
	})
	g.Go(func() error {
		news, err := b.market.GetMarketNews(gctx)
		if err != nil {
			b.logger.Warn().Err(err).Msg("Market news fetch failed")
			return nil
		}
		inputs.news = news
		return nil
	})
	g.Go(func() error {
		ipos, err := b.market.GetCalendar(gctx, "ipo")
		if err != nil {
			b.logger.Warn().Err(err).Msg("IPO calendar fetch failed")
			return nil
		}
		inputs.ipos = ipos
		return nil
	})
	g.Go(func() error {
		earnings, err := b.market.GetCalendar(gctx, "earnings")
		if err != nil {
			b.logger.Warn().Err(err).Msg("Earnings calendar fetch failed")
			return nil
		}
		inputs.earnings = earnings
		return nil
	})

	g.Wait()

	if inputs.quotes == nil {
		inputs.quotes = map[string]market.Quote{}
	}
	return inputs
}

// describe builds the context block for the summary prompt: sentiment
// sections plus a handful of headlines and calendar entries.
func (b *Briefing) describe(analysis *sentiment.Analysis, inputs *briefingInputs) string {
	var sb strings.Builder
	sb.WriteString(analysis.Describe())

	if len(inputs.news) > 0 {
		sb.WriteString("\n\nTop stories:\n")
		for i, item := range inputs.news {
			if i == 5 {
				break
			}
			fmt.Fprintf(&sb, "- %s\n", item.Title)
		}
	}
	if len(inputs.earnings) > 0 {
		sb.WriteString("\nEarnings today:\n")
		for i, ev := range inputs.earnings {
			if i == 5 {
				break
			}
			fmt.Fprintf(&sb, "- %s (%s)\n", ev.Company, ev.Symbol)
		}
	}
	if len(inputs.ipos) > 0 {
		sb.WriteString("\nIPOs:\n")
		for i, ev := range inputs.ipos {
			if i == 3 {
				break
			}
			fmt.Fprintf(&sb, "- %s (%s)\n", ev.Company, ev.Symbol)
		}
	}

	return sb.String()
}

func (b *Briefing) renderChart(title string, analysis *sentiment.Analysis) {
	labels := make([]string, 0, len(analysis.Sections))
	values := make([]float64, 0, len(analysis.Sections))
	for _, s := range analysis.Sections {
		if s.Quoted == 0 {
			continue
		}
		labels = append(labels, s.Name)
		values = append(values, s.AvgChange)
	}
	if len(labels) == 0 {
		return
	}

	path, err := b.charts.RenderSentiment(title, labels, values)
	if err != nil {
		b.logger.Warn().Err(err).Msg("Chart render failed")
		return
	}
	// Charts are transient attachments; remove once the run is done.
	defer b.charts.Cleanup(path)

	b.logger.Debug().Str("path", path).Msg("Sentiment chart rendered")
}

// refreshCache rewrites the status-API snapshot with the latest
// headlines and this briefing.
func (b *Briefing) refreshCache(ctx context.Context, run *db.BriefingRun, analysis *sentiment.Analysis) {
	if b.cache == nil {
		return
	}

	snapshot := &publish.CacheSnapshot{
		Briefing: &publish.CachedBriefing{
			Slug:      run.BriefingSlug,
			Summary:   run.Summary,
			Sentiment: string(analysis.Label),
			Score:     analysis.Score,
			RanAt:     run.CreatedAt,
		},
	}

	if b.headlines != nil {
		recent, err := b.headlines.Recent(ctx, 10)
		if err != nil {
			b.logger.Warn().Err(err).Msg("Recent headline lookup for cache failed")
		} else {
			for _, h := range recent {
				snapshot.Headlines = append(snapshot.Headlines, publish.CachedHeadline{
					Title:       h.Title,
					URL:         h.URL,
					Source:      h.Source,
					Category:    string(h.Category),
					Score:       h.Score,
					PublishedAt: h.PublishedAt,
				})
			}
		}
	}

	if err := b.cache.Write(snapshot); err != nil {
		b.logger.Warn().Err(err).Msg("Cache write failed")
	}
}
