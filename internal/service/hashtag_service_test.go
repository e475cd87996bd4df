package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"chirp/internal/models"
	"chirp/internal/repository"
	"chirp/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tagRepoStub is a stub for repository.TagRepository.
type tagRepoStub struct {
	upsertFn   func(context.Context, []string) ([]models.Tag, error)
	getNamesFn func(context.Context, []uint) (map[uint]string, error)
}

func (s *tagRepoStub) UpsertByNames(ctx context.Context, names []string) ([]models.Tag, error) {
	return s.upsertFn(ctx, names)
}

func (s *tagRepoStub) GetNames(ctx context.Context, ids []uint) (map[uint]string, error) {
	return s.getNamesFn(ctx, ids)
}

func TestNormalizeTags(t *testing.T) {
	t.Parallel()
	names, err := NormalizeTags([]string{" #Rust", "rust", "Go", "##go", "zig "})
	require.NoError(t, err)
	assert.Equal(t, []string{"rust", "go", "zig"}, names)

	_, err = NormalizeTags([]string{"go", " # "})
	assert.True(t, models.IsCode(err, models.CodeValidation))

	_, err = NormalizeTags([]string{strings.Repeat("x", maxTagLength+1)})
	assert.True(t, models.IsCode(err, models.CodeValidation))
}

func TestHashtagService_ResolveOrCreate(t *testing.T) {
	t.Parallel()
	var got []string
	repo := &tagRepoStub{upsertFn: func(_ context.Context, names []string) ([]models.Tag, error) {
		got = names
		out := make([]models.Tag, len(names))
		for i, n := range names {
			out[i] = models.Tag{ID: uint(100 + i), Name: n}
		}
		return out, nil
	}}

	ids, err := NewHashtagService(repo).ResolveOrCreate(context.Background(), []string{"rust", "#RUST", "go"})
	require.NoError(t, err)
	assert.Equal(t, []string{"rust", "go"}, got)
	assert.Equal(t, []uint{100, 101}, ids)
}

func TestHashtagService_ResolveOrCreate_Empty(t *testing.T) {
	t.Parallel()
	repo := &tagRepoStub{upsertFn: func(context.Context, []string) ([]models.Tag, error) {
		t.Fatal("storage should not be touched")
		return nil, nil
	}}
	ids, err := NewHashtagService(repo).ResolveOrCreate(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestHashtagService_ResolveOrCreate_StorageError(t *testing.T) {
	t.Parallel()
	repo := &tagRepoStub{upsertFn: func(context.Context, []string) ([]models.Tag, error) {
		return nil, models.NewStorageUnavailableError(assert.AnError)
	}}
	ids, err := NewHashtagService(repo).ResolveOrCreate(context.Background(), []string{"go"})
	assert.Nil(t, ids)
	assert.True(t, models.IsCode(err, models.CodeStorageUnavailable))
}

func TestHashtagService_ConcurrentCallsConverge(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewHashtagService(repository.NewTagRepository(db, time.Minute))

	inputs := [][]string{{"rust", "rust", "go"}, {"go", "rust"}}
	results := make([][]uint, len(inputs))
	errs := make([]error, len(inputs))

	var wg sync.WaitGroup
	for i, in := range inputs {
		wg.Add(1)
		go func(i int, in []string) {
			defer wg.Done()
			results[i], errs[i] = svc.ResolveOrCreate(context.Background(), in)
		}(i, in)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	require.Len(t, results[0], 2)
	assert.Equal(t, []uint{results[0][1], results[0][0]}, results[1])

	var count int64
	require.NoError(t, db.Model(&models.Tag{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}
