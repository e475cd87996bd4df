package server

import (
	"fmt"
	"net/http"
	"testing"

	"chirp/internal/models"
	"chirp/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFeed_Guards(t *testing.T) {
	ts := newTestServer(t)
	unverified := ts.fx.User(models.VerifyUnverified)

	resp := ts.do(t, http.MethodGet, "/api/feed", nil, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, models.CodeAuthenticationNeeded, errorCode(t, resp))

	resp = ts.do(t, http.MethodGet, "/api/feed", unverified, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, models.CodeVerificationRequired, errorCode(t, resp))
}

func TestGetFeed(t *testing.T) {
	ts := newTestServer(t)
	viewer := ts.fx.Verified()
	followed := ts.fx.Verified()
	stranger := ts.fx.Verified()
	ts.fx.Follow(viewer, followed)
	ts.fx.Circle(followed, viewer)

	own := ts.fx.Post(viewer, testutil.WithBody("mine"))
	pub := ts.fx.Post(followed, testutil.WithBody("public"))
	circle := ts.fx.Post(followed, testutil.Circle(), testutil.WithBody("circle"))
	ts.fx.Post(stranger, testutil.WithBody("noise"))

	resp := ts.do(t, http.MethodGet, "/api/feed", viewer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[PagedResponse](t, resp)

	assert.Equal(t, PageInfo{Page: 1, Limit: 20, Total: 3}, page.Pagination)
	require.Len(t, page.Data, 3)
	assert.Equal(t, []uint{circle.ID, pub.ID, own.ID}, []uint{page.Data[0].ID, page.Data[1].ID, page.Data[2].ID})
	assert.Equal(t, int64(1), page.Data[0].UserViews)
}

func TestGetFeed_Pagination(t *testing.T) {
	ts := newTestServer(t)
	viewer := ts.fx.Verified()
	for i := 0; i < 5; i++ {
		ts.fx.Post(viewer, testutil.WithBody(fmt.Sprintf("post %d", i)))
	}

	resp := ts.do(t, http.MethodGet, "/api/feed?page=2&limit=2", viewer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[PagedResponse](t, resp)
	assert.Equal(t, PageInfo{Page: 2, Limit: 2, Total: 5}, page.Pagination)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "post 2", page.Data[0].Body)

	resp = ts.do(t, http.MethodGet, "/api/feed?page=9&limit=2", viewer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page = decode[PagedResponse](t, resp)
	assert.Empty(t, page.Data)
	assert.Equal(t, int64(5), page.Pagination.Total)
}

func TestPaginationValidation(t *testing.T) {
	ts := newTestServer(t)
	viewer := ts.fx.Verified()

	for _, query := range []string{"page=0", "page=-1", "page=x", "limit=0", "limit=101", "limit=1.5"} {
		t.Run(query, func(t *testing.T) {
			resp := ts.do(t, http.MethodGet, "/api/feed?"+query, viewer, nil)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, models.CodeValidation, errorCode(t, resp))
		})
	}

	resp := ts.do(t, http.MethodGet, "/api/feed?limit=100", viewer, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
