package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinylink/tinylink/internal/database"
	"github.com/tinylink/tinylink/internal/models"
	"github.com/tinylink/tinylink/internal/testutil"
)

// stores runs fn against SQLite and, when TEST_POSTGRES=true, Postgres.
func stores(t *testing.T, fn func(t *testing.T, repo *SQLURLRepository, db *database.DB)) {
	t.Run("sqlite", func(t *testing.T) {
		db := testutil.NewSQLiteDB(t)
		fn(t, NewSQLURLRepository(db), db)
	})
	t.Run("postgres", func(t *testing.T) {
		db := testutil.NewPostgresDB(t)
		fn(t, NewSQLURLRepository(db), db)
	})
}

func TestSQLURLRepository_Create(t *testing.T) {
	stores(t, func(t *testing.T, repo *SQLURLRepository, _ *database.DB) {
		ctx := context.Background()
		created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

		url, err := repo.Create(ctx, &models.URLCreate{
			LongURL:   "https://example.com/a",
			ShortCode: "abc123",
			CreatedAt: created,
		})
		require.NoError(t, err)
		assert.Positive(t, url.ID)
		assert.Equal(t, "abc123", url.ShortCode)
		assert.Equal(t, int64(0), url.Clicks)

		got, err := repo.GetByShortCode(ctx, "abc123")
		require.NoError(t, err)
		assert.Equal(t, url.ID, got.ID)
		assert.Equal(t, "https://example.com/a", got.LongURL)
		assert.Equal(t, int64(0), got.Clicks)
		assert.True(t, created.Equal(got.CreatedAt), "created_at %v", got.CreatedAt)
	})
}

func TestSQLURLRepository_CreateDuplicate(t *testing.T) {
	stores(t, func(t *testing.T, repo *SQLURLRepository, _ *database.DB) {
		ctx := context.Background()

		_, err := repo.Create(ctx, &models.URLCreate{LongURL: "https://example.com/1", ShortCode: "promo"})
		require.NoError(t, err)

		_, err = repo.Create(ctx, &models.URLCreate{LongURL: "https://example.com/2", ShortCode: "promo"})
		require.Error(t, err)
		assert.True(t, models.IsConflict(err))

		got, err := repo.GetByShortCode(ctx, "promo")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/1", got.LongURL, "existing mapping is never overwritten")
	})
}

func TestSQLURLRepository_ConcurrentSameCode(t *testing.T) {
	stores(t, func(t *testing.T, repo *SQLURLRepository, _ *database.DB) {
		ctx := context.Background()
		const workers = 8

		var wins, conflicts atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				_, err := repo.Create(ctx, &models.URLCreate{
					LongURL:   fmt.Sprintf("https://example.com/%d", n),
					ShortCode: "race",
				})
				switch {
				case err == nil:
					wins.Add(1)
				case models.IsConflict(err):
					conflicts.Add(1)
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, int32(1), wins.Load())
		assert.Equal(t, int32(workers-1), conflicts.Load())
	})
}

func TestSQLURLRepository_GetByShortCode_NotFound(t *testing.T) {
	stores(t, func(t *testing.T, repo *SQLURLRepository, _ *database.DB) {
		_, err := repo.GetByShortCode(context.Background(), "nope")
		require.Error(t, err)
		assert.True(t, models.IsNotFound(err))
	})
}

func TestSQLURLRepository_Exists(t *testing.T) {
	stores(t, func(t *testing.T, repo *SQLURLRepository, _ *database.DB) {
		ctx := context.Background()

		exists, err := repo.Exists(ctx, "abc123")
		require.NoError(t, err)
		assert.False(t, exists)

		_, err = repo.Create(ctx, &models.URLCreate{LongURL: "https://example.com", ShortCode: "abc123"})
		require.NoError(t, err)

		exists, err = repo.Exists(ctx, "abc123")
		require.NoError(t, err)
		assert.True(t, exists)
	})
}

func TestSQLURLRepository_IncrementClicks(t *testing.T) {
	stores(t, func(t *testing.T, repo *SQLURLRepository, _ *database.DB) {
		ctx := context.Background()

		_, err := repo.Create(ctx, &models.URLCreate{LongURL: "https://example.com/x", ShortCode: "abc123"})
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			longURL, err := repo.IncrementClicks(ctx, "abc123")
			require.NoError(t, err)
			assert.Equal(t, "https://example.com/x", longURL)
		}

		got, err := repo.GetByShortCode(ctx, "abc123")
		require.NoError(t, err)
		assert.Equal(t, int64(3), got.Clicks)
	})
}

func TestSQLURLRepository_IncrementClicks_Unknown(t *testing.T) {
	stores(t, func(t *testing.T, repo *SQLURLRepository, db *database.DB) {
		ctx := context.Background()

		_, err := repo.Create(ctx, &models.URLCreate{LongURL: "https://example.com", ShortCode: "known"})
		require.NoError(t, err)

		_, err = repo.IncrementClicks(ctx, "missing")
		require.Error(t, err)
		assert.True(t, models.IsNotFound(err))

		var total int64
		require.NoError(t, db.QueryRowContext(ctx, "SELECT SUM(clicks) FROM urls").Scan(&total))
		assert.Equal(t, int64(0), total)
	})
}

func TestSQLURLRepository_IncrementClicks_Concurrent(t *testing.T) {
	stores(t, func(t *testing.T, repo *SQLURLRepository, _ *database.DB) {
		ctx := context.Background()
		const redirects = 50

		_, err := repo.Create(ctx, &models.URLCreate{LongURL: "https://example.com", ShortCode: "hot"})
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < redirects; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := repo.IncrementClicks(ctx, "hot"); err != nil {
					t.Errorf("increment: %v", err)
				}
			}()
		}
		wg.Wait()

		got, err := repo.GetByShortCode(ctx, "hot")
		require.NoError(t, err)
		assert.Equal(t, int64(redirects), got.Clicks)
	})
}

func TestSQLURLRepository_ListRecent(t *testing.T) {
	stores(t, func(t *testing.T, repo *SQLURLRepository, _ *database.DB) {
		ctx := context.Background()

		empty, err := repo.ListRecent(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, empty)

		for i := 0; i < 5; i++ {
			_, err := repo.Create(ctx, &models.URLCreate{
				LongURL:   fmt.Sprintf("https://example.com/%d", i),
				ShortCode: fmt.Sprintf("code%d", i),
			})
			require.NoError(t, err)
		}

		recent, err := repo.ListRecent(ctx, 3)
		require.NoError(t, err)
		require.Len(t, recent, 3)
		assert.Equal(t, "code4", recent[0].ShortCode)
		assert.Equal(t, "code3", recent[1].ShortCode)
		assert.Equal(t, "code2", recent[2].ShortCode)

		again, err := repo.ListRecent(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, recent, again)

		none, err := repo.ListRecent(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestSQLURLRepository_HealthCheck(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewSQLURLRepository(db)

	assert.NoError(t, repo.HealthCheck(context.Background()))

	require.NoError(t, db.Close())
	assert.Error(t, repo.HealthCheck(context.Background()))
}

func TestSQLURLRepository_CanceledContext(t *testing.T) {
	repo := NewSQLURLRepository(testutil.NewSQLiteDB(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Exists(ctx, "abc123")
	assert.Error(t, err)
}
