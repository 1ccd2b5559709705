package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dutchbrat/hedgefund-agent/internal/alerts"
	"github.com/dutchbrat/hedgefund-agent/internal/db"
	"github.com/dutchbrat/hedgefund-agent/internal/publish"
)

// fakePruner records the cutoff it was called with
type fakePruner struct {
	cutoff time.Time
	err    error
}

func (f *fakePruner) PruneOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	f.cutoff = cutoff
	return 4, f.err
}

func TestMaintenanceJobPrunesMonthOldHeadlines(t *testing.T) {
	pruner := &fakePruner{}
	job := NewMaintenanceJob(pruner)

	require.NoError(t, job(context.Background()))

	want := time.Now().Add(-headlineRetention)
	assert.WithinDuration(t, want, pruner.cutoff, time.Minute)
}

func TestMaintenanceJobPropagatesError(t *testing.T) {
	job := NewMaintenanceJob(&fakePruner{err: errors.New("db down")})
	assert.Error(t, job(context.Background()))
}

// fakeEngagementLog backs the engagement job tests
type fakeEngagementLog struct {
	records []db.ContentRecord
	err     error
	updated map[string][3]int
}

func (f *fakeEngagementLog) RecentForEngagement(ctx context.Context, since time.Time) ([]db.ContentRecord, error) {
	return f.records, f.err
}

func (f *fakeEngagementLog) UpdateEngagement(ctx context.Context, tweetID string, likes, retweets, replies int) error {
	if f.updated == nil {
		f.updated = make(map[string][3]int)
	}
	f.updated[tweetID] = [3]int{likes, retweets, replies}
	return nil
}

type fakeEngagementSource struct {
	stats map[string]publish.Engagement
	err   error
	ids   []string
}

func (f *fakeEngagementSource) LookupMetrics(ctx context.Context, ids []string) (map[string]publish.Engagement, error) {
	f.ids = ids
	return f.stats, f.err
}

type fakeEngagementSink struct {
	pages map[string][3]int
}

func (f *fakeEngagementSink) UpdateEngagement(ctx context.Context, pageID string, likes, retweets, replies int) error {
	if f.pages == nil {
		f.pages = make(map[string][3]int)
	}
	f.pages[pageID] = [3]int{likes, retweets, replies}
	return nil
}

func TestEngagementJobUpdatesStoreAndNotion(t *testing.T) {
	contents := &fakeEngagementLog{records: []db.ContentRecord{
		{ID: 1, TweetID: "100", NotionPageID: "page-a"},
		{ID: 2, TweetID: "200"},
		{ID: 3, TweetID: "300", NotionPageID: "page-c"},
	}}
	source := &fakeEngagementSource{stats: map[string]publish.Engagement{
		"100": {Likes: 10, Retweets: 2, Replies: 1},
		"200": {Likes: 5},
	}}
	sink := &fakeEngagementSink{}

	job := NewEngagementJob(contents, source, sink)
	require.NoError(t, job(context.Background()))

	assert.Equal(t, []string{"100", "200", "300"}, source.ids)
	assert.Equal(t, [3]int{10, 2, 1}, contents.updated["100"])
	assert.Equal(t, [3]int{5, 0, 0}, contents.updated["200"])

	// Tweet 300 was absent from the API response, 200 has no Notion page.
	assert.NotContains(t, contents.updated, "300")
	assert.Equal(t, map[string][3]int{"page-a": {10, 2, 1}}, sink.pages)
}

func TestEngagementJobNoRecentContent(t *testing.T) {
	source := &fakeEngagementSource{}
	job := NewEngagementJob(&fakeEngagementLog{}, source, nil)

	require.NoError(t, job(context.Background()))
	assert.Nil(t, source.ids)
}

func TestEngagementJobPropagatesLookupError(t *testing.T) {
	contents := &fakeEngagementLog{records: []db.ContentRecord{{ID: 1, TweetID: "100"}}}
	source := &fakeEngagementSource{err: errors.New("rate limited")}

	job := NewEngagementJob(contents, source, nil)
	assert.Error(t, job(context.Background()))
}

func TestDailySummaryJob(t *testing.T) {
	alerter := &recordingAlerter{}
	counter := &fakeCounter{counts: map[db.ContentType]int{
		db.ContentCommentary: 5,
		db.ContentDeepDive:   1,
		db.ContentBriefing:   4,
	}}

	job := NewDailySummaryJob(counter, alerts.NewManager(alerter))
	require.NoError(t, job(context.Background()))

	require.Len(t, alerter.alerts, 1)
	alert := alerter.alerts[0]
	assert.Equal(t, "Daily Content Summary", alert.Title)
	assert.Contains(t, alert.Message, "10 pieces")
	assert.Equal(t, 5, alert.Metadata["commentary"])
}

func TestDailySummaryJobPropagatesError(t *testing.T) {
	job := NewDailySummaryJob(&fakeCounter{err: errors.New("db down")}, nil)
	assert.Error(t, job(context.Background()))
}
