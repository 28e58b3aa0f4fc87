package repository

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/Kosench/linkpulse/internal/database"
	apperrors "github.com/Kosench/linkpulse/internal/errors"
	"github.com/Kosench/linkpulse/internal/logger"
	"github.com/Kosench/linkpulse/internal/model"
)

// setupPostgres поднимает PostgreSQL в контейнере и применяет миграции.
// Тест пропускается, если Docker недоступен или включен -short.
func setupPostgres(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("links"),
		tcpostgres.WithUsername("links"),
		tcpostgres.WithPassword("links"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, database.Migrate(dsn, logger.Discard()))

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestPostgresRepositories(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	users := NewPostgresUserRepository(db)
	links := NewPostgresLinkRepository(db)
	clicks := NewPostgresClickRepository(db)

	now := time.Now().UTC().Truncate(time.Microsecond)
	user := &model.User{ID: uuid.New(), Username: "owner", Email: "owner@example.com", Mobile: "555", PasswordHash: "hash", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, users.Create(ctx, user))
	assert.ErrorIs(t, users.Create(ctx, &model.User{ID: uuid.New(), Email: "owner@example.com", CreatedAt: now, UpdatedAt: now}), apperrors.ErrUserAlreadyExists)

	link := &model.Link{
		ID:           uuid.New(),
		UserID:       user.ID,
		OriginalLink: "https://example.com",
		ShortLink:    "abc123",
		Remark:       "launch campaign",
		ActiveStatus: model.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, links.Create(ctx, link))
	assert.ErrorIs(t, links.Create(ctx, &model.Link{ID: uuid.New(), UserID: user.ID, ShortLink: "abc123", ActiveStatus: model.StatusActive, CreatedAt: now, UpdatedAt: now}), apperrors.ErrShortCodeExists)

	t.Run("record visit is atomic under concurrency", func(t *testing.T) {
		const workers = 20
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				d := model.DeviceMobile
				if i%2 == 0 {
					d = model.DeviceTablet
				}
				click := model.NewClick(link, "10.0.0.1", d, now)
				assert.NoError(t, links.RecordVisit(ctx, click, "2026-03-10", now))
			}(i)
		}
		wg.Wait()

		got, err := links.GetByShortCode(ctx, "abc123")
		require.NoError(t, err)
		assert.Equal(t, int64(workers), got.TotalClicks)
		assert.Equal(t, model.DeviceClicks{Mobile: workers / 2, Tablet: workers / 2}, got.DeviceClicks)
		assert.Equal(t, []model.DateClick{{Date: "2026-03-10", Count: workers}}, got.DateClicks)

		n, err := clicks.CountByLink(ctx, link.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(workers), n)
	})

	t.Run("new day appends after existing entries", func(t *testing.T) {
		click := model.NewClick(link, "10.0.0.2", model.DeviceDesktop, now)
		require.NoError(t, links.RecordVisit(ctx, click, "2026-03-09", now))

		got, err := links.GetByID(ctx, user.ID, link.ID)
		require.NoError(t, err)
		require.Len(t, got.DateClicks, 2)
		assert.Equal(t, "2026-03-10", got.DateClicks[0].Date)
		assert.Equal(t, "2026-03-09", got.DateClicks[1].Date)
	})

	t.Run("list and search", func(t *testing.T) {
		got, total, err := links.ListByOwner(ctx, user.ID, model.LinkListParams{Limit: 10, Search: "LAUNCH"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, got, 1)
		assert.Len(t, got[0].DateClicks, 2)

		_, total, err = links.ListByOwner(ctx, user.ID, model.LinkListParams{Limit: 10, Search: "100%"})
		require.NoError(t, err)
		assert.Zero(t, total)

		owned, err := links.CountByOwner(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), owned)

		page, total, err := clicks.ListByOwner(ctx, user.ID, model.PageParams{Limit: 5, Offset: 0})
		require.NoError(t, err)
		assert.Equal(t, int64(21), total)
		assert.Len(t, page, 5)
	})

	t.Run("update recomputes status", func(t *testing.T) {
		past := now.Add(-time.Hour)
		link.ExpireDate = &past
		link.Touch(now)
		require.NoError(t, links.Update(ctx, link))

		got, err := links.GetByID(ctx, user.ID, link.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusInactive, got.ActiveStatus)
		assert.Equal(t, int64(21), got.TotalClicks)
	})

	t.Run("deleting the user cascades", func(t *testing.T) {
		require.NoError(t, users.Delete(ctx, user.ID))

		_, err := links.GetByShortCode(ctx, "abc123")
		assert.ErrorIs(t, err, apperrors.ErrLinkNotFound)

		n, err := clicks.CountByLink(ctx, link.ID)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
