// Package testutil provides shared test databases and fixtures for backend tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"chirp/internal/database"
	"chirp/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewTestDB opens a migrated in-memory SQLite database that lives for the test.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Epoch is the creation time of the first fixture post. Each later post is one minute newer.
var Epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// Fixtures inserts rows directly, bypassing services, so tests can arrange state.
type Fixtures struct {
	t     testing.TB
	db    *gorm.DB
	clock time.Time
	users int
}

func NewFixtures(t testing.TB, db *gorm.DB) *Fixtures {
	return &Fixtures{t: t, db: db, clock: Epoch}
}

// User creates an account with the given verification status.
func (f *Fixtures) User(verify models.VerifyStatus) *models.User {
	f.t.Helper()
	f.users++
	u := &models.User{
		Name:     fmt.Sprintf("User %d", f.users),
		Username: fmt.Sprintf("user%d", f.users),
		Email:    fmt.Sprintf("user%d@example.test", f.users),
		Password: "x",
		Avatar:   fmt.Sprintf("https://cdn.example.test/a/%d.png", f.users),
		Verify:   verify,
	}
	require.NoError(f.t, f.db.Create(u).Error)
	return u
}

// Verified is shorthand for User(models.VerifyVerified).
func (f *Fixtures) Verified() *models.User {
	f.t.Helper()
	return f.User(models.VerifyVerified)
}

// Viewer returns the viewer context for u.
func Viewer(u *models.User) models.ViewerContext {
	return models.ViewerContext{UserID: u.ID, Verify: u.Verify}
}

func (f *Fixtures) Follow(follower, followed *models.User) {
	f.t.Helper()
	require.NoError(f.t, f.db.Create(&models.Follow{FollowerID: follower.ID, FollowedID: followed.ID}).Error)
}

func (f *Fixtures) Circle(owner *models.User, members ...*models.User) {
	f.t.Helper()
	for _, m := range members {
		require.NoError(f.t, f.db.Create(&models.CircleMember{OwnerID: owner.ID, MemberID: m.ID}).Error)
	}
}

func (f *Fixtures) Like(p *models.Post, u *models.User) {
	f.t.Helper()
	require.NoError(f.t, f.db.Create(&models.Like{PostID: p.ID, UserID: u.ID}).Error)
}

func (f *Fixtures) Bookmark(p *models.Post, u *models.User) {
	f.t.Helper()
	require.NoError(f.t, f.db.Create(&models.Bookmark{PostID: p.ID, UserID: u.ID}).Error)
}

// Tag returns the tag with the given name, creating it if needed.
func (f *Fixtures) Tag(name string) *models.Tag {
	f.t.Helper()
	tag := &models.Tag{}
	require.NoError(f.t, f.db.Where(models.Tag{Name: name}).FirstOrCreate(tag).Error)
	return tag
}

// PostOption customises a fixture post.
type PostOption func(f *Fixtures, p *models.Post)

func WithBody(body string) PostOption {
	return func(_ *Fixtures, p *models.Post) { p.Body = body }
}

func Circle() PostOption {
	return func(_ *Fixtures, p *models.Post) { p.Audience = models.AudienceAuthorCircle }
}

func ChildOf(parent *models.Post, kind models.PostKind) PostOption {
	return func(_ *Fixtures, p *models.Post) {
		id := parent.ID
		p.ParentID = &id
		p.Kind = kind
	}
}

func WithTags(names ...string) PostOption {
	return func(f *Fixtures, p *models.Post) {
		for i, n := range names {
			p.Tags = append(p.Tags, models.PostTag{Position: i, TagID: f.Tag(n).ID})
		}
	}
}

func WithTagIDs(ids ...uint) PostOption {
	return func(_ *Fixtures, p *models.Post) {
		for i, id := range ids {
			p.Tags = append(p.Tags, models.PostTag{Position: i, TagID: id})
		}
	}
}

func WithMedia(kinds ...models.MediaKind) PostOption {
	return func(_ *Fixtures, p *models.Post) {
		for i, k := range kinds {
			p.Media = append(p.Media, models.PostMedia{
				Position: i,
				URL:      fmt.Sprintf("https://cdn.example.test/m/%d.bin", i),
				Kind:     k,
			})
		}
	}
}

func WithMentions(users ...uint) PostOption {
	return func(_ *Fixtures, p *models.Post) {
		for i, id := range users {
			p.Mentions = append(p.Mentions, models.PostMention{Position: i, UserID: id})
		}
	}
}

func WithViews(guest, user int64) PostOption {
	return func(_ *Fixtures, p *models.Post) {
		p.GuestViews = guest
		p.UserViews = user
	}
}

// Post creates an Everyone original by author, one minute newer than the previous fixture post.
func (f *Fixtures) Post(author *models.User, opts ...PostOption) *models.Post {
	f.t.Helper()
	f.clock = f.clock.Add(time.Minute)
	p := &models.Post{
		AuthorID:  author.ID,
		Body:      "post body",
		Audience:  models.AudienceEveryone,
		Kind:      models.PostKindOriginal,
		CreatedAt: f.clock,
		UpdatedAt: f.clock,
	}
	for _, opt := range opts {
		opt(f, p)
	}
	require.NoError(f.t, f.db.Create(p).Error)
	return p
}
