package db

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEmbedding(dim int) []float32 {
	v := make([]float32, dim)
	v[0] = 1.0
	return v
}

func TestTrackUpsertsOnThemeText(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewThemeStore(mock, 384)
	now := time.Now()
	embedding := testEmbedding(384)

	cols := []string{
		"id", "theme_text", "content_type", "category",
		"usage_count", "first_used_at", "last_used_at",
	}

	mock.ExpectQuery("INSERT INTO semantic_themes").
		WithArgs("Fed rate pause", ContentCommentary, CategoryMacro, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(
			int64(1), "Fed rate pause", ContentCommentary, CategoryMacro, 1, now, now,
		))

	theme, err := store.Track(context.Background(), "Fed rate pause", ContentCommentary, CategoryMacro, embedding)
	require.NoError(t, err)
	assert.Equal(t, 1, theme.UsageCount)

	// Tracking the same text again bumps usage_count instead of inserting.
	mock.ExpectQuery("INSERT INTO semantic_themes").
		WithArgs("Fed rate pause", ContentCommentary, CategoryMacro, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(
			int64(1), "Fed rate pause", ContentCommentary, CategoryMacro, 2, now, now,
		))

	theme, err = store.Track(context.Background(), "Fed rate pause", ContentCommentary, CategoryMacro, embedding)
	require.NoError(t, err)
	assert.Equal(t, int64(1), theme.ID)
	assert.Equal(t, 2, theme.UsageCount)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrackRejectsWrongDimension(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewThemeStore(mock, 384)

	_, err = store.Track(context.Background(), "theme", ContentCommentary, CategoryMacro, testEmbedding(1536))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "384 dimensions")
}

func TestRecentThemesWithFilter(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewThemeStore(mock, 384)
	since := time.Now().Add(-8 * time.Hour)
	now := time.Now()
	vec := pgvector.NewVector(testEmbedding(384))

	rows := pgxmock.NewRows([]string{
		"id", "theme_text", "content_type", "category", "embedding",
		"usage_count", "first_used_at", "last_used_at",
	}).
		AddRow(int64(2), "Tech selloff deepens", ContentDeepDive, CategoryEquity, &vec, 3, now, now).
		AddRow(int64(1), "Fed rate pause", ContentDeepDive, CategoryMacro, &vec, 1, now, now.Add(-time.Hour))

	mock.ExpectQuery("SELECT (.+) FROM semantic_themes").
		WithArgs(since, ContentDeepDive).
		WillReturnRows(rows)

	themes, err := store.RecentThemes(context.Background(), since,
		ContentTypeFilter{ContentType: ContentDeepDive})
	require.NoError(t, err)
	require.Len(t, themes, 2)
	assert.Equal(t, "Tech selloff deepens", themes[0].ThemeText)
	assert.Len(t, themes[0].Embedding, 384)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilterSQL(t *testing.T) {
	clause, args := ContentTypeFilter{ContentType: ContentCommentary}.SQL(2)
	assert.Equal(t, "content_type = $2", clause)
	assert.Equal(t, []interface{}{ContentCommentary}, args)

	clause, args = CategoryFilter{Category: CategoryEquity}.SQL(3)
	assert.Equal(t, "category = $3", clause)
	assert.Equal(t, []interface{}{CategoryEquity}, args)
}

func TestRecordContent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewThemeStore(mock, 384)

	mock.ExpectExec("INSERT INTO content_history").
		WithArgs("tweet text", ContentCommentary, int64(1), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = store.RecordContent(context.Background(), "tweet text", ContentCommentary, 1, testEmbedding(384))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
