package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"chirp/internal/events"
	"chirp/internal/featureflags"
	"chirp/internal/models"
	"chirp/internal/repository"
	"chirp/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type harness struct {
	db        *gorm.DB
	fx        *testutil.Fixtures
	posts     repository.PostRepository
	users     repository.UserRepository
	follows   repository.FollowRepository
	views     *ViewCounter
	agg       *Aggregator
	feed      *FeedService
	search    *SearchService
	post      *PostService
	published *recordingPublisher
}

func newHarness(t *testing.T, flags string) *harness {
	t.Helper()
	db := testutil.NewTestDB(t)

	h := &harness{
		db:        db,
		fx:        testutil.NewFixtures(t, db),
		posts:     repository.NewPostRepository(db),
		users:     repository.NewUserRepository(db),
		follows:   repository.NewFollowRepository(db),
		published: &recordingPublisher{},
	}
	tags := repository.NewTagRepository(db, time.Minute)
	h.views = NewViewCounter(h.posts, featureflags.NewManager(flags))
	h.agg = NewAggregator(tags, h.users, h.posts, repository.NewEngagementRepository(db))
	h.feed = NewFeedService(h.posts, h.users, h.follows, h.agg, h.views)
	h.search = NewSearchService(h.posts, h.users, h.follows, h.agg, h.views)
	h.post = NewPostService(h.posts, h.users, NewHashtagService(tags), h.agg, h.views, h.published)
	return h
}

// stored reads a post's counters straight from the table.
func (h *harness) stored(t *testing.T, id uint) models.Post {
	t.Helper()
	var p models.Post
	require.NoError(t, h.db.First(&p, id).Error)
	return p
}

type recordingPublisher struct {
	mu     sync.Mutex
	keys   []string
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, key string, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func viewIDs(page *models.Page) []uint {
	return page.IDs()
}
