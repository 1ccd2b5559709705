// The agent binary runs the full content pipeline: scheduled headline
// ingestion, commentary and deep-dive generation, market briefings, and
// the status API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/dutchbrat/hedgefund-agent/internal/alerts"
	"github.com/dutchbrat/hedgefund-agent/internal/api"
	"github.com/dutchbrat/hedgefund-agent/internal/config"
	"github.com/dutchbrat/hedgefund-agent/internal/db"
	"github.com/dutchbrat/hedgefund-agent/internal/dedup"
	"github.com/dutchbrat/hedgefund-agent/internal/generator"
	"github.com/dutchbrat/hedgefund-agent/internal/llm"
	"github.com/dutchbrat/hedgefund-agent/internal/market"
	"github.com/dutchbrat/hedgefund-agent/internal/news"
	"github.com/dutchbrat/hedgefund-agent/internal/publish"
	"github.com/dutchbrat/hedgefund-agent/internal/scheduler"
	"github.com/dutchbrat/hedgefund-agent/internal/semantic"
	"github.com/dutchbrat/hedgefund-agent/internal/sentiment"
)

// poster is the publishing surface the generators need. The real
// Twitter client and the dry-run stand-in both satisfy it.
type poster interface {
	Post(ctx context.Context, text string) (string, error)
	PostThread(ctx context.Context, parts []string) ([]string, error)
}

// recorder mirrors published content into Notion
type recorder interface {
	RecordContent(ctx context.Context, rec *db.ContentRecord, sourceURL string) (string, error)
	RecordBriefing(ctx context.Context, slug, title, summary, sentimentLabel string, ranAt time.Time) (string, error)
}

// engagementPages updates engagement numbers on Notion pages
type engagementPages interface {
	UpdateEngagement(ctx context.Context, pageID string, likes, retweets, replies int) error
}

// jobEntry pairs a schedulable job with its daily-cap treatment
type jobEntry struct {
	publishes bool
	job       scheduler.Job
}

func main() {
	configPath := flag.String("config", "", "Path to config file")
	once := flag.String("once", "", "Run one job immediately and exit (commentary, deep-dive, headlines, maintenance, daily-summary, briefing:<slug>)")
	dryRun := flag.Bool("dry-run", false, "Generate content but do not post to Twitter")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	config.InitLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	log.Info().
		Str("version", cfg.App.Version).
		Str("environment", cfg.App.Environment).
		Bool("dry_run", *dryRun).
		Msg("Starting hedgefund agent")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	database, err := db.New(ctx, cfg.Database.GetDSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	headlines := db.NewHeadlineStore(database.Pool())
	content := db.NewContentStore(database.Pool())
	themes := db.NewThemeStore(database.Pool(), cfg.Embeddings.Dimension)
	briefings := db.NewBriefingStore(database.Pool())

	// Optional Redis price cache. The market client degrades to
	// uncached requests without it.
	var priceCache *market.PriceCache
	if cfg.Redis.Enabled() {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetRedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("Redis unreachable, price caching disabled")
		} else {
			priceCache = market.NewPriceCache(redisClient, cfg.Redis.GetTTL())
			defer redisClient.Close()
		}
	}
	marketClient := market.NewClient(cfg.Market, priceCache)

	llmClient := llm.NewClient(cfg.LLM)
	gen := llm.NewGenerator(llmClient, cfg.Content.Disclaimer, cfg.Content.ThreadParts)

	embedder := semantic.NewHTTPEmbedder(cfg.Embeddings)
	checker := semantic.NewChecker(embedder, themes)

	// The deep dive compares against everything published today; the
	// commentary window is a shorter rolling lookback.
	deepDiveSelector := dedup.NewSelector(headlines, checker, cfg.Similarity.Threshold, cfg.Similarity.MaxAttempts)
	commentarySelector := dedup.NewSelector(headlines, checker, cfg.Similarity.Threshold, cfg.Similarity.MaxAttempts).
		WithWindow(func() time.Time { return semantic.SinceHours(cfg.Similarity.WindowHours) })

	var twitterClient *publish.TwitterClient
	var pub poster = consolePublisher{}
	switch {
	case *dryRun:
		log.Info().Msg("Dry run, tweets go to the log")
	case cfg.Twitter.Configured():
		twitterClient, err = publish.NewTwitterClient(cfg.Twitter)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Twitter client")
		}
		pub = twitterClient
	default:
		log.Warn().Msg("Twitter credentials missing, tweets go to the log")
	}

	var notionRecorder *publish.NotionRecorder
	var notion recorder
	if cfg.Notion.Configured() {
		notionRecorder, err = publish.NewNotionRecorder(cfg.Notion)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Notion recorder")
		}
		notion = notionRecorder
	} else {
		log.Warn().Msg("Notion not configured, content mirroring disabled")
	}

	articles := publish.NewArticleWriter(cfg.Content.ArticleDir)
	charts := publish.NewChartRenderer(cfg.Content.ChartDir)
	jsonCache := publish.NewJSONCache(cfg.Content.CacheFile)

	alerters := []alerts.Alerter{alerts.NewLogAlerter()}
	if cfg.Telegram.Configured() {
		telegramAlerter, err := alerts.NewTelegramAlerter(cfg.Telegram)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Telegram alerter")
		}
		alerters = append(alerters, telegramAlerter)
	}
	alertManager := alerts.NewManager(alerters...)

	fetcher := news.NewFetcher(cfg.News)
	pipeline := news.NewPipeline(fetcher, gen, headlines, cfg.News.StoreMinScore)

	commentary := generator.NewCommentary(
		commentarySelector, headlines, gen, checker, marketClient, pub, content, notion,
		generator.CommentaryParams{
			MinScore:    cfg.Content.CommentaryMinScore,
			Threshold:   cfg.Similarity.Threshold,
			WindowHours: cfg.Similarity.WindowHours,
		})
	deepDive := generator.NewDeepDive(
		deepDiveSelector, headlines, gen, checker, marketClient, pub, content, notion,
		articles, cfg.Content.DeepDiveMinScore)
	briefing := generator.NewBriefing(
		briefings, marketClient, sentiment.NewAnalyzer(nil), gen, pub, notion,
		charts, jsonCache, headlines)

	sched, err := scheduler.New(cfg.Scheduler, alertManager, content)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scheduler")
	}

	jobs := map[string]jobEntry{
		"commentary":    {true, contentJob(alertManager, commentary.Run)},
		"deep-dive":     {true, contentJob(alertManager, deepDive.Run)},
		"headlines":     {false, func(ctx context.Context) error { _, err := pipeline.Run(ctx); return err }},
		"maintenance":   {false, scheduler.NewMaintenanceJob(headlines)},
		"daily-summary": {false, scheduler.NewDailySummaryJob(content, alertManager)},
	}
	for slug := range cfg.Scheduler.Briefings {
		slug := slug
		jobs["briefing:"+slug] = jobEntry{true, func(ctx context.Context) error {
			_, err := briefing.Run(ctx, slug)
			return err
		}}
	}
	if twitterClient != nil {
		var engNotion engagementPages
		if notionRecorder != nil {
			engNotion = notionRecorder
		}
		jobs["engagement"] = jobEntry{false, scheduler.NewEngagementJob(content, twitterClient, engNotion)}
	}

	if *once != "" {
		entry, ok := jobs[*once]
		if !ok {
			names := make([]string, 0, len(jobs))
			for name := range jobs {
				names = append(names, name)
			}
			log.Fatal().Str("job", *once).Strs("available", names).Msg("Unknown job")
		}
		sched.RunNow(*once, entry.publishes, entry.job)
		return
	}

	schedule := map[string][]string{
		"deep-dive":     {cfg.Scheduler.DeepDive},
		"headlines":     {cfg.Scheduler.HeadlineFetch},
		"maintenance":   {cfg.Scheduler.Maintenance},
		"daily-summary": {cfg.Scheduler.DailySummary},
		"engagement":    {cfg.Scheduler.Engagement},
		"commentary":    cfg.Scheduler.Commentary,
	}
	for slug := range cfg.Scheduler.Briefings {
		schedule["briefing:"+slug] = []string{cfg.Scheduler.Briefings[slug]}
	}
	for name, specs := range schedule {
		entry, ok := jobs[name]
		if !ok {
			continue
		}
		for _, spec := range specs {
			if spec == "" {
				continue
			}
			if err := sched.AddJob(name, spec, entry.publishes, entry.job); err != nil {
				log.Fatal().Err(err).Str("job", name).Msg("Failed to schedule job")
			}
		}
	}

	server := api.NewServer(api.Config{
		Host:  cfg.API.Host,
		Port:  cfg.API.Port,
		Cache: jsonCache,
		DB:    database,
	})

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	sched.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Error().Err(err).Msg("Status server error")
		alertManager.SystemError(ctx, "status-api", err)
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	}

	log.Info().Msg("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	sched.Stop(shutdownCtx)
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to stop status server gracefully")
		os.Exit(1)
	}

	log.Info().Msg("Agent stopped")
}

// contentJob adapts a generator run to a scheduler job. An empty
// candidate pool or a theme collision is a normal outcome, not a
// failure worth alerting on.
func contentJob(alertManager *alerts.Manager, run func(ctx context.Context) (*db.ContentRecord, error)) scheduler.Job {
	return func(ctx context.Context) error {
		rec, err := run(ctx)
		if errors.Is(err, db.ErrNoHeadline) ||
			errors.Is(err, dedup.ErrExhausted) ||
			errors.Is(err, generator.ErrTooSimilar) {
			log.Info().Err(err).Msg("Nothing published this run")
			return nil
		}
		if err == nil && rec != nil && alertManager != nil {
			alertManager.ContentPublished(ctx, string(rec.ContentType), rec.Theme, rec.TweetID)
		}
		return err
	}
}

// consolePublisher logs instead of tweeting. It backs dry runs and
// deployments without Twitter credentials.
type consolePublisher struct{}

func (consolePublisher) Post(ctx context.Context, text string) (string, error) {
	log.Info().Str("text", text).Msg("Tweet (not posted)")
	return fmt.Sprintf("local-%d", time.Now().UnixNano()), nil
}

func (consolePublisher) PostThread(ctx context.Context, parts []string) ([]string, error) {
	log.Info().Str("thread", strings.Join(parts, "\n---\n")).Msg("Thread (not posted)")
	ids := make([]string, len(parts))
	for i := range parts {
		ids[i] = fmt.Sprintf("local-%d-%d", time.Now().UnixNano(), i)
	}
	return ids, nil
}
