package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngagementRepository(t *testing.T) {
	db, fx := setupSQLite(t)
	repo := NewEngagementRepository(db)
	ctx := context.Background()

	author, fan, other := fx.Verified(), fx.Verified(), fx.Verified()
	hot := fx.Post(author)
	cold := fx.Post(author)

	fx.Like(hot, fan)
	fx.Like(hot, other)
	fx.Bookmark(hot, fan)

	ids := []uint{hot.ID, cold.ID}

	likes, err := repo.CountLikes(ctx, ids)
	require.NoError(t, err)
	assert.EqualValues(t, 2, likes[hot.ID])
	assert.EqualValues(t, 0, likes[cold.ID])

	bookmarks, err := repo.CountBookmarks(ctx, ids)
	require.NoError(t, err)
	assert.EqualValues(t, 1, bookmarks[hot.ID])

	liked, err := repo.LikedBy(ctx, fan.ID, ids)
	require.NoError(t, err)
	assert.True(t, liked[hot.ID])
	assert.False(t, liked[cold.ID])

	saved, err := repo.BookmarkedBy(ctx, other.ID, ids)
	require.NoError(t, err)
	assert.Empty(t, saved)

	anon, err := repo.LikedBy(ctx, 0, ids)
	require.NoError(t, err)
	assert.Empty(t, anon)
}
