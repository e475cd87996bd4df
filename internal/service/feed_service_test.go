package service

import (
	"context"
	"testing"

	"chirp/internal/models"
	tu "chirp/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedService_RequiresViewer(t *testing.T) {
	h := newHarness(t, "")
	_, err := h.feed.GetFeed(context.Background(), models.Guest(), 1, 10)
	assert.True(t, models.IsCode(err, models.CodeAuthenticationNeeded))
}

func TestFeedService_FollowingBringsPostsIn(t *testing.T) {
	h := newHarness(t, "")
	ctx := context.Background()

	x, y := h.fx.Verified(), h.fx.Verified()
	a := h.fx.Post(x)

	page, err := h.feed.GetFeed(ctx, tu.Viewer(y), 1, 10)
	require.NoError(t, err)
	assert.NotContains(t, viewIDs(page), a.ID)
	assert.Zero(t, page.Total)

	h.fx.Follow(y, x)
	page, err = h.feed.GetFeed(ctx, tu.Viewer(y), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint{a.ID}, viewIDs(page))
	assert.EqualValues(t, 1, page.Total)
}

func TestFeedService_CircleVisibility(t *testing.T) {
	h := newHarness(t, "")
	ctx := context.Background()

	author := h.fx.Verified()
	member, outsider := h.fx.Verified(), h.fx.Verified()
	h.fx.Circle(author, member)
	h.fx.Follow(member, author)
	h.fx.Follow(outsider, author)

	public := h.fx.Post(author)
	circle := h.fx.Post(author, tu.Circle())
	own := h.fx.Post(outsider, tu.Circle())

	page, err := h.feed.GetFeed(ctx, tu.Viewer(member), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint{circle.ID, public.ID}, viewIDs(page))

	page, err = h.feed.GetFeed(ctx, tu.Viewer(outsider), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint{own.ID, public.ID}, viewIDs(page))
	for _, v := range page.Posts {
		ok, err := CanView(tu.Viewer(outsider), &models.Post{AuthorID: v.AuthorID, Audience: v.Audience}, nil)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestFeedService_Pagination(t *testing.T) {
	h := newHarness(t, "")
	ctx := context.Background()

	viewer := h.fx.Verified()
	author := h.fx.Verified()
	h.fx.Follow(viewer, author)
	for i := 0; i < 25; i++ {
		h.fx.Post(author)
	}

	var all []uint
	for p := 1; p <= 3; p++ {
		page, err := h.feed.GetFeed(ctx, tu.Viewer(viewer), p, 10)
		require.NoError(t, err)
		assert.EqualValues(t, 25, page.Total)
		all = append(all, viewIDs(page)...)
		if p == 3 {
			assert.Len(t, page.Posts, 5)
		}
	}

	seen := map[uint]bool{}
	for _, id := range all {
		assert.False(t, seen[id], "post %d repeated", id)
		seen[id] = true
	}
	assert.Len(t, seen, 25)
	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i-1], all[i])
	}

	for _, tc := range []struct{ page, size int }{{4, 10}, {0, 10}, {1, 0}, {1, 101}} {
		page, err := h.feed.GetFeed(ctx, tu.Viewer(viewer), tc.page, tc.size)
		require.NoError(t, err)
		assert.Empty(t, page.Posts)
		assert.EqualValues(t, 25, page.Total)
	}
}

func TestFeedService_RecordsAuthenticatedViews(t *testing.T) {
	h := newHarness(t, "")
	ctx := context.Background()

	viewer := h.fx.Verified()
	author := h.fx.Verified()
	h.fx.Follow(viewer, author)
	post := h.fx.Post(author, tu.WithViews(3, 4))

	page, err := h.feed.GetFeed(ctx, tu.Viewer(viewer), 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	assert.EqualValues(t, 5, page.Posts[0].UserViews)
	assert.EqualValues(t, 3, page.Posts[0].GuestViews)

	stored := h.stored(t, post.ID)
	assert.EqualValues(t, 5, stored.UserViews)
	assert.EqualValues(t, 3, stored.GuestViews)
}
