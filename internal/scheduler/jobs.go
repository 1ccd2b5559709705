package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/dutchbrat/hedgefund-agent/internal/alerts"
	"github.com/dutchbrat/hedgefund-agent/internal/config"
	"github.com/dutchbrat/hedgefund-agent/internal/db"
	"github.com/dutchbrat/hedgefund-agent/internal/publish"
	"github.com/dutchbrat/hedgefund-agent/internal/semantic"
)

// headlinePruner removes stale headlines
type headlinePruner interface {
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// headlineRetention is how long unused headlines stay around
const headlineRetention = 30 * 24 * time.Hour

// NewMaintenanceJob builds the nightly cleanup job
func NewMaintenanceJob(pruner headlinePruner) Job {
	return func(ctx context.Context) error {
		cutoff := time.Now().Add(-headlineRetention)
		if _, err := pruner.PruneOlderThan(ctx, cutoff); err != nil {
			return fmt.Errorf("headline prune failed: %w", err)
		}
		return nil
	}
}

// engagementLog is the content-store slice the engagement job reads and
// updates
type engagementLog interface {
	RecentForEngagement(ctx context.Context, since time.Time) ([]db.ContentRecord, error)
	UpdateEngagement(ctx context.Context, tweetID string, likes, retweets, replies int) error
}

// engagementSource fetches public tweet metrics
type engagementSource interface {
	LookupMetrics(ctx context.Context, ids []string) (map[string]publish.Engagement, error)
}

// engagementSink mirrors engagement numbers onto Notion pages
type engagementSink interface {
	UpdateEngagement(ctx context.Context, pageID string, likes, retweets, replies int) error
}

// engagementLookback is how far back the refresh reaches. Engagement on
// older tweets has flattened out and is not worth the API calls.
const engagementLookback = 48 * time.Hour

// NewEngagementJob builds the job that refreshes like/retweet/reply
// counts for recently published tweets. notion may be nil.
func NewEngagementJob(contents engagementLog, tweets engagementSource, notion engagementSink) Job {
	logger := config.NewJobLogger("engagement")
	return func(ctx context.Context) error {
		records, err := contents.RecentForEngagement(ctx, time.Now().Add(-engagementLookback))
		if err != nil {
			return fmt.Errorf("engagement content lookup failed: %w", err)
		}
		if len(records) == 0 {
			return nil
		}

		ids := make([]string, len(records))
		for i, rec := range records {
			ids[i] = rec.TweetID
		}

		stats, err := tweets.LookupMetrics(ctx, ids)
		if err != nil {
			return fmt.Errorf("engagement metrics lookup failed: %w", err)
		}

		updated := 0
		for _, rec := range records {
			e, ok := stats[rec.TweetID]
			if !ok {
				continue
			}

			if err := contents.UpdateEngagement(ctx, rec.TweetID, e.Likes, e.Retweets, e.Replies); err != nil {
				logger.Warn().Err(err).Str("tweet_id", rec.TweetID).Msg("Engagement update failed")
				continue
			}
			updated++

			if notion != nil && rec.NotionPageID != "" {
				if err := notion.UpdateEngagement(ctx, rec.NotionPageID, e.Likes, e.Retweets, e.Replies); err != nil {
					logger.Warn().Err(err).Str("page_id", rec.NotionPageID).Msg("Notion engagement update failed")
				}
			}
		}

		logger.Info().Int("tweets", len(records)).Int("updated", updated).Msg("Engagement refreshed")
		return nil
	}
}

// NewDailySummaryJob builds the job that reports yesterday's output to
// the operator channel.
func NewDailySummaryJob(counter tweetCounter, alertManager *alerts.Manager) Job {
	return func(ctx context.Context) error {
		since := semantic.SinceMidnight(time.Now()).Add(-24 * time.Hour)
		counts, err := counter.CountSince(ctx, since)
		if err != nil {
			return fmt.Errorf("daily summary count failed: %w", err)
		}

		total := 0
		metadata := make(map[string]interface{}, len(counts))
		for contentType, n := range counts {
			metadata[string(contentType)] = n
			total += n
		}

		if alertManager != nil {
			alertManager.SendInfo(ctx, "Daily Content Summary",
				fmt.Sprintf("Published %d pieces in the last day", total), metadata)
		}
		return nil
	}
}
