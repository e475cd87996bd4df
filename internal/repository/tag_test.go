package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"chirp/internal/cache"
	"chirp/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagRepository_UpsertByNames(t *testing.T) {
	db, fx := setupSQLite(t)
	repo := NewTagRepository(db, time.Minute)
	ctx := context.Background()

	existing := fx.Tag("golang")

	tags, err := repo.UpsertByNames(ctx, []string{"rust", "golang", "zig"})
	require.NoError(t, err)
	require.Len(t, tags, 3)
	assert.Equal(t, "rust", tags[0].Name)
	assert.Equal(t, existing.ID, tags[1].ID)
	assert.Equal(t, "zig", tags[2].Name)

	again, err := repo.UpsertByNames(ctx, []string{"zig", "rust"})
	require.NoError(t, err)
	assert.Equal(t, tags[2].ID, again[0].ID)
	assert.Equal(t, tags[0].ID, again[1].ID)

	var count int64
	require.NoError(t, db.Model(&models.Tag{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)
}

func TestTagRepository_UpsertByNames_Empty(t *testing.T) {
	db, _ := setupSQLite(t)
	tags, err := NewTagRepository(db, 0).UpsertByNames(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestTagRepository_ConcurrentUpsertsConverge(t *testing.T) {
	db, _ := setupSQLite(t)
	repo := NewTagRepository(db, time.Minute)

	const workers = 8
	results := make([][]models.Tag, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = repo.UpsertByNames(context.Background(), []string{"launch", "go"})
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0][0].ID, results[i][0].ID)
		assert.Equal(t, results[0][1].ID, results[i][1].ID)
	}

	var count int64
	require.NoError(t, db.Model(&models.Tag{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestTagRepository_UpsertUsesOnConflict(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewTagRepository(db, time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "tags" .* ON CONFLICT \("name"\) DO NOTHING RETURNING "id"`).
		WithArgs("go", sqlmock.AnyArg(), "rust", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
	mock.ExpectQuery(`SELECT \* FROM "tags" WHERE name IN \(\$1,\$2\)`).
		WithArgs("rust", "go").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at"}).
			AddRow(2, "go", time.Now()).
			AddRow(1, "rust", time.Now()))
	mock.ExpectCommit()

	tags, err := repo.UpsertByNames(context.Background(), []string{"rust", "go"})
	require.NoError(t, err)
	assert.Equal(t, uint(1), tags[0].ID)
	assert.Equal(t, uint(2), tags[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTagRepository_UpsertFailureRollsBack(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewTagRepository(db, time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "tags"`).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := repo.UpsertByNames(context.Background(), []string{"rust"})
	assert.True(t, models.IsCode(err, models.CodeStorageUnavailable))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTagRepository_GetNamesCachesInRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	db, fx := setupSQLite(t)
	repo := NewTagRepository(db, time.Minute)
	ctx := context.Background()

	rust := fx.Tag("rust")

	names, err := repo.GetNames(ctx, []uint{rust.ID, 999})
	require.NoError(t, err)
	assert.Equal(t, map[uint]string{rust.ID: "rust"}, names)

	cached, err := mr.Get(cache.TagKey(rust.ID))
	require.NoError(t, err)
	assert.Equal(t, "rust", cached)
	assert.False(t, mr.Exists(cache.TagKey(999)))

	// served from Redis once the row is gone
	require.NoError(t, db.Delete(&models.Tag{}, rust.ID).Error)
	names, err = repo.GetNames(ctx, []uint{rust.ID})
	require.NoError(t, err)
	assert.Equal(t, "rust", names[rust.ID])
}
