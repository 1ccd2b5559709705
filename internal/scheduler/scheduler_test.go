package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dutchbrat/hedgefund-agent/internal/alerts"
	"github.com/dutchbrat/hedgefund-agent/internal/config"
	"github.com/dutchbrat/hedgefund-agent/internal/db"
)

// fakeCounter returns canned publish counts
type fakeCounter struct {
	counts map[db.ContentType]int
	err    error
}

func (f *fakeCounter) CountSince(ctx context.Context, since time.Time) (map[db.ContentType]int, error) {
	return f.counts, f.err
}

// recordingAlerter captures alerts for assertions
type recordingAlerter struct {
	mu     sync.Mutex
	alerts []alerts.Alert
}

func (r *recordingAlerter) Send(ctx context.Context, alert alerts.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, alert)
	return nil
}

func (r *recordingAlerter) titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, a := range r.alerts {
		out = append(out, a.Title)
	}
	return out
}

func newTestScheduler(t *testing.T, counter tweetCounter, alerter *recordingAlerter) *Scheduler {
	t.Helper()
	var manager *alerts.Manager
	if alerter != nil {
		manager = alerts.NewManager(alerter)
	}
	s, err := New(config.SchedulerConfig{
		Timezone:       "Europe/London",
		MaxDailyTweets: 3,
	}, manager, counter)
	require.NoError(t, err)
	return s
}

func TestNewRejectsBadTimezone(t *testing.T) {
	_, err := New(config.SchedulerConfig{Timezone: "Mars/Olympus"}, nil, nil)
	assert.Error(t, err)
}

func TestAddJobRejectsBadSpec(t *testing.T) {
	s := newTestScheduler(t, nil, nil)
	err := s.AddJob("broken", "not a cron spec", false, func(ctx context.Context) error { return nil })
	assert.Error(t, err)
}

func TestRunNowExecutesJob(t *testing.T) {
	s := newTestScheduler(t, nil, nil)

	ran := false
	s.RunNow("test", false, func(ctx context.Context) error {
		ran = true
		return nil
	})

	assert.True(t, ran)
}

func TestSupervisorRecoversPanic(t *testing.T) {
	alerter := &recordingAlerter{}
	s := newTestScheduler(t, nil, alerter)

	assert.NotPanics(t, func() {
		s.RunNow("panicky", false, func(ctx context.Context) error {
			panic("boom")
		})
	})

	assert.Contains(t, alerter.titles(), "Scheduled Job Failed")
}

func TestSupervisorAlertsOnFailure(t *testing.T) {
	alerter := &recordingAlerter{}
	s := newTestScheduler(t, nil, alerter)

	s.RunNow("failing", false, func(ctx context.Context) error {
		return errors.New("upstream down")
	})

	require.Len(t, alerter.alerts, 1)
	assert.Equal(t, alerts.SeverityCritical, alerter.alerts[0].Severity)
}

func TestDailyCapSkipsPublishingJobs(t *testing.T) {
	alerter := &recordingAlerter{}
	counter := &fakeCounter{counts: map[db.ContentType]int{
		db.ContentCommentary: 2,
		db.ContentDeepDive:   1,
	}}
	s := newTestScheduler(t, counter, alerter)

	ran := false
	s.RunNow("commentary", true, func(ctx context.Context) error {
		ran = true
		return nil
	})

	assert.False(t, ran)
	assert.Contains(t, alerter.titles(), "Scheduled Job Skipped")
}

func TestDailyCapIgnoresNonPublishingJobs(t *testing.T) {
	counter := &fakeCounter{counts: map[db.ContentType]int{db.ContentCommentary: 99}}
	s := newTestScheduler(t, counter, nil)

	ran := false
	s.RunNow("maintenance", false, func(ctx context.Context) error {
		ran = true
		return nil
	})

	assert.True(t, ran)
}

func TestDailyCapAllowsUnderLimit(t *testing.T) {
	counter := &fakeCounter{counts: map[db.ContentType]int{db.ContentCommentary: 1}}
	s := newTestScheduler(t, counter, nil)

	ran := false
	s.RunNow("commentary", true, func(ctx context.Context) error {
		ran = true
		return nil
	})

	assert.True(t, ran)
}

func TestDailyCapFailsOpen(t *testing.T) {
	// A broken counter must not block publishing.
	counter := &fakeCounter{err: errors.New("db down")}
	s := newTestScheduler(t, counter, nil)

	ran := false
	s.RunNow("commentary", true, func(ctx context.Context) error {
		ran = true
		return nil
	})

	assert.True(t, ran)
}

func TestOverlapSkip(t *testing.T) {
	s := newTestScheduler(t, nil, nil)

	release := make(chan struct{})
	started := make(chan struct{})

	go s.RunNow("slow", false, func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	})

	<-started

	ran := false
	s.RunNow("slow", false, func(ctx context.Context) error {
		ran = true
		return nil
	})
	assert.False(t, ran)

	close(release)
}

func TestScheduledExecution(t *testing.T) {
	s := newTestScheduler(t, nil, nil)

	var mu sync.Mutex
	runs := 0
	require.NoError(t, s.AddJob("tick", "@every 100ms", false, func(ctx context.Context) error {
		mu.Lock()
		runs++
		mu.Unlock()
		return nil
	}))

	s.Start()
	time.Sleep(350 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, runs, 2)
}
