// Package scheduler runs the weekly content calendar. All cron specs
// evaluate in the configured timezone (Europe/London by default, which
// absorbs the GMT/BST shift) and every job runs under a supervisor that
// recovers panics, records metrics, and alerts on failure.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/dutchbrat/hedgefund-agent/internal/alerts"
	"github.com/dutchbrat/hedgefund-agent/internal/config"
	"github.com/dutchbrat/hedgefund-agent/internal/db"
	"github.com/dutchbrat/hedgefund-agent/internal/metrics"
	"github.com/dutchbrat/hedgefund-agent/internal/semantic"
)

// jobTimeout bounds a single job run
const jobTimeout = 10 * time.Minute

// Job is one schedulable unit of work
type Job func(ctx context.Context) error

// tweetCounter reports today's publish counts for the daily cap
type tweetCounter interface {
	CountSince(ctx context.Context, since time.Time) (map[db.ContentType]int, error)
}

// Scheduler owns the cron runner and the per-job supervisors
type Scheduler struct {
	cron           *cron.Cron
	alerts         *alerts.Manager
	counter        tweetCounter
	maxDailyTweets int
	logger         zerolog.Logger

	mu      sync.Mutex
	running map[string]bool
}

// New creates a scheduler in the configured timezone. alertManager and
// counter may be nil; the daily cap is skipped without a counter.
func New(cfg config.SchedulerConfig, alertManager *alerts.Manager, counter tweetCounter) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler timezone %q: %w", cfg.Timezone, err)
	}

	return &Scheduler{
		cron:           cron.New(cron.WithLocation(loc)),
		alerts:         alertManager,
		counter:        counter,
		maxDailyTweets: cfg.MaxDailyTweets,
		logger:         config.NewLogger("scheduler"),
		running:        make(map[string]bool),
	}, nil
}

// AddJob schedules a job. publishes marks jobs that tweet, which makes
// them subject to the daily cap.
func (s *Scheduler) AddJob(name, spec string, publishes bool, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.supervise(name, publishes, job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s (%q): %w", name, spec, err)
	}

	s.logger.Info().Str("job", name).Str("spec", spec).Msg("Job scheduled")
	return nil
}

// Start begins executing scheduled jobs
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Int("jobs", len(s.cron.Entries())).Msg("Scheduler started")
}

// Stop stops scheduling and waits for in-flight jobs to finish
func (s *Scheduler) Stop(ctx context.Context) {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
		s.logger.Info().Msg("Scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn().Msg("Scheduler stop timed out with jobs still running")
	}
}

// RunNow executes a job immediately through the same supervisor the
// cron entries use. The --once mode uses this.
func (s *Scheduler) RunNow(name string, publishes bool, job Job) {
	s.supervise(name, publishes, job)
}

// supervise is the wrapper every job runs under: overlap skip, daily
// cap, panic recovery, duration metrics, failure alerts.
func (s *Scheduler) supervise(name string, publishes bool, job Job) {
	if !s.tryLock(name) {
		s.logger.Warn().Str("job", name).Msg("Previous run still in flight, skipping")
		metrics.RecordJobRun(name, metrics.JobStatusSkipped, 0)
		return
	}
	defer s.unlock(name)

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if publishes {
		if capped, count := s.capReached(ctx); capped {
			s.logger.Warn().
				Str("job", name).
				Int("published_today", count).
				Int("cap", s.maxDailyTweets).
				Msg("Daily tweet cap reached, skipping")
			metrics.RecordJobRun(name, metrics.JobStatusSkipped, 0)
			if s.alerts != nil {
				s.alerts.JobSkipped(ctx, name, "daily tweet cap reached")
			}
			return
		}
	}

	start := time.Now()
	err := s.runRecovered(ctx, name, job)
	duration := time.Since(start)

	if err != nil {
		s.logger.Error().Err(err).Str("job", name).Dur("duration", duration).Msg("Job failed")
		metrics.RecordJobRun(name, metrics.JobStatusFailure, duration.Seconds())
		metrics.RecordError(metrics.NormalizeServiceError(err), name)
		if s.alerts != nil {
			s.alerts.JobFailed(ctx, name, err)
		}
		return
	}

	s.logger.Info().Str("job", name).Dur("duration", duration).Msg("Job complete")
	metrics.RecordJobRun(name, metrics.JobStatusSuccess, duration.Seconds())
}

func (s *Scheduler) runRecovered(ctx context.Context, name string, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", name, r)
		}
	}()
	return job(ctx)
}

// capReached counts today's publishes across all content types
func (s *Scheduler) capReached(ctx context.Context) (bool, int) {
	if s.counter == nil || s.maxDailyTweets <= 0 {
		return false, 0
	}

	counts, err := s.counter.CountSince(ctx, semantic.SinceMidnight(time.Now()))
	if err != nil {
		s.logger.Warn().Err(err).Msg("Daily cap lookup failed, allowing job")
		return false, 0
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	metrics.TweetsToday.Set(float64(total))

	return total >= s.maxDailyTweets, total
}

func (s *Scheduler) tryLock(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[name] {
		return false
	}
	s.running[name] = true
	return true
}

func (s *Scheduler) unlock(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, name)
}
