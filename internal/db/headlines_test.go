package db

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadlineSaveDedupesOnURL(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewHeadlineStore(mock)
	h := &Headline{
		Title:       "Fed signals rate pause amid inflation data",
		URL:         "https://example.com/fed-pause",
		Source:      "Reuters",
		Category:    CategoryMacro,
		Score:       8,
		PublishedAt: time.Now(),
	}

	mock.ExpectExec("INSERT INTO headlines").
		WithArgs(h.Title, h.URL, h.Source, h.Category, h.Score, h.PublishedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	inserted, err := store.Save(context.Background(), h)
	require.NoError(t, err)
	assert.True(t, inserted)

	// Second save of the same URL conflicts and affects no rows.
	mock.ExpectExec("INSERT INTO headlines").
		WithArgs(h.Title, h.URL, h.Source, h.Category, h.Score, h.PublishedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	inserted, err = store.Save(context.Background(), h)
	require.NoError(t, err)
	assert.False(t, inserted)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNextUnused(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantTitle string
		wantErr   error
	}{
		{
			name: "returns highest scored headline",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows([]string{
					"id", "title", "url", "source", "category", "score",
					"used", "rejected", "published_at", "created_at",
				}).AddRow(
					int64(1), "Markets rally on CPI surprise", "https://example.com/cpi",
					"Bloomberg", CategoryMacro, 9, false, false, now, now,
				)
				mock.ExpectQuery("SELECT (.+) FROM headlines").
					WithArgs(8, "").
					WillReturnRows(rows)
			},
			wantTitle: "Markets rally on CPI surprise",
		},
		{
			name: "no rows maps to ErrNoHeadline",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("SELECT (.+) FROM headlines").
					WithArgs(8, "").
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: ErrNoHeadline,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.setupMock(mock)
			store := NewHeadlineStore(mock)

			h, err := store.NextUnused(context.Background(), 8, "")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, h.Title)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMarkUsedAndRejected(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewHeadlineStore(mock)

	mock.ExpectExec("UPDATE headlines SET used = TRUE").
		WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, store.MarkUsed(context.Background(), 7))

	mock.ExpectExec("UPDATE headlines SET rejected = TRUE").
		WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, store.MarkRejected(context.Background(), 7))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPruneOlderThan(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewHeadlineStore(mock)
	cutoff := time.Now().Add(-72 * time.Hour)

	mock.ExpectExec("DELETE FROM headlines").
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 12))

	count, err := store.PruneOlderThan(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, 12, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
