package publish

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	cache := NewJSONCache(path)

	snapshot := &CacheSnapshot{
		Headlines: []CachedHeadline{
			{Title: "Fed holds rates", URL: "https://example.com/fed", Category: "macro", Score: 9},
		},
		Briefing: &CachedBriefing{
			Slug:      "morning",
			Summary:   "Futures higher.",
			Sentiment: "bullish",
			Score:     0.7,
			RanAt:     time.Now().UTC(),
		},
	}

	require.NoError(t, cache.Write(snapshot))

	loaded, err := cache.Read()
	require.NoError(t, err)
	require.Len(t, loaded.Headlines, 1)
	assert.Equal(t, "Fed holds rates", loaded.Headlines[0].Title)
	require.NotNil(t, loaded.Briefing)
	assert.Equal(t, "morning", loaded.Briefing.Slug)
	assert.False(t, loaded.UpdatedAt.IsZero())
}

func TestJSONCacheMissingFileReturnsEmpty(t *testing.T) {
	cache := NewJSONCache(filepath.Join(t.TempDir(), "missing.json"))

	snapshot, err := cache.Read()
	require.NoError(t, err)
	assert.Empty(t, snapshot.Headlines)
	assert.Nil(t, snapshot.Briefing)
}

func TestJSONCacheCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "cache.json")
	cache := NewJSONCache(path)

	require.NoError(t, cache.Write(&CacheSnapshot{}))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestJSONCacheCorruptFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, err := NewJSONCache(path).Read()
	assert.Error(t, err)
}

func TestJSONCacheWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	cache := NewJSONCache(filepath.Join(dir, "cache.json"))

	require.NoError(t, cache.Write(&CacheSnapshot{}))
	require.NoError(t, cache.Write(&CacheSnapshot{}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
