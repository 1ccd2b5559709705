package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dutchbrat/hedgefund-agent/internal/publish"
)

// fakeCache returns a canned snapshot
type fakeCache struct {
	snapshot *publish.CacheSnapshot
	err      error
}

func (f *fakeCache) Read() (*publish.CacheSnapshot, error) {
	return f.snapshot, f.err
}

// fakeDB reports configurable health
type fakeDB struct {
	err error
}

func (f *fakeDB) Health(ctx context.Context) error {
	return f.err
}

func testSnapshot() *publish.CacheSnapshot {
	return &publish.CacheSnapshot{
		UpdatedAt: time.Now().UTC(),
		Headlines: []publish.CachedHeadline{
			{Title: "First", Score: 9},
			{Title: "Second", Score: 8},
			{Title: "Third", Score: 8},
		},
		Briefing: &publish.CachedBriefing{Slug: "morning", Sentiment: "bullish", Score: 0.7},
	}
}

func newTestServer(cache SnapshotReader, db HealthChecker) *Server {
	return NewServer(Config{Host: "127.0.0.1", Port: 3002, Cache: cache, DB: db})
}

func get(t *testing.T, server *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthOK(t *testing.T) {
	server := newTestServer(&fakeCache{snapshot: testSnapshot()}, &fakeDB{})

	rec := get(t, server, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["database"])
}

func TestHealthDegradedOnDBError(t *testing.T) {
	server := newTestServer(&fakeCache{snapshot: testSnapshot()}, &fakeDB{err: errors.New("connection refused")})

	rec := get(t, server, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body["status"])
}

func TestNewsDataServesSnapshot(t *testing.T) {
	server := newTestServer(&fakeCache{snapshot: testSnapshot()}, &fakeDB{})

	rec := get(t, server, "/hedgefund-news-data")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Headlines []publish.CachedHeadline `json:"headlines"`
		Briefing  *publish.CachedBriefing  `json:"briefing"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Headlines, 3)
	require.NotNil(t, body.Briefing)
	assert.Equal(t, "morning", body.Briefing.Slug)
}

func TestNewsDataRotatesHeadlines(t *testing.T) {
	server := newTestServer(&fakeCache{snapshot: testSnapshot()}, &fakeDB{})

	first := get(t, server, "/hedgefund-news-data")
	second := get(t, server, "/hedgefund-news-data")

	var a, b struct {
		Headlines []publish.CachedHeadline `json:"headlines"`
	}
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))

	require.Len(t, a.Headlines, 3)
	require.Len(t, b.Headlines, 3)
	// Same set, different lead story.
	assert.NotEqual(t, a.Headlines[0].Title, b.Headlines[0].Title)
}

func TestNewsDataCacheFailure(t *testing.T) {
	server := newTestServer(&fakeCache{err: errors.New("disk gone")}, &fakeDB{})

	rec := get(t, server, "/hedgefund-news-data")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	server := newTestServer(&fakeCache{snapshot: testSnapshot()}, &fakeDB{})

	rec := get(t, server, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# HELP")
}

func TestCORSHeadersPresent(t *testing.T) {
	server := newTestServer(&fakeCache{snapshot: testSnapshot()}, &fakeDB{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
