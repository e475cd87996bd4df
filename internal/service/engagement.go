package service

import (
	"context"

	"chirp/internal/models"
	"chirp/internal/observability"
	"chirp/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Aggregator projects stored posts into PostViews. All lookups for a batch run
// concurrently and each one is a single query for the whole batch.
type Aggregator struct {
	tags       repository.TagRepository
	users      repository.UserRepository
	posts      repository.PostRepository
	engagement repository.EngagementRepository
}

func NewAggregator(
	tags repository.TagRepository,
	users repository.UserRepository,
	posts repository.PostRepository,
	engagement repository.EngagementRepository,
) *Aggregator {
	return &Aggregator{tags: tags, users: users, posts: posts, engagement: engagement}
}

// Project returns one view per post, in input order. Tags and mentions that no longer
// resolve are left out of the view. Nothing is written.
func (a *Aggregator) Project(ctx context.Context, viewer models.ViewerContext, posts []*models.Post) ([]models.PostView, error) {
	if len(posts) == 0 {
		return []models.PostView{}, nil
	}

	span, ctx := observability.NewSpan(ctx, "aggregator.project", attribute.Int("posts", len(posts)))
	defer span.End()

	postIDs := make([]uint, 0, len(posts))
	var tagIDs, userIDs []uint
	for _, p := range posts {
		postIDs = append(postIDs, p.ID)
		tagIDs = append(tagIDs, p.TagIDs()...)
		userIDs = append(userIDs, p.AuthorID)
		userIDs = append(userIDs, p.MentionIDs()...)
	}
	tagIDs = uniqueIDs(tagIDs)
	userIDs = uniqueIDs(userIDs)

	var (
		tagNames   map[uint]string
		profiles   map[uint]models.PublicProfile
		likes      map[uint]int64
		bookmarks  map[uint]int64
		children   map[uint]models.ChildCounts
		liked      = map[uint]bool{}
		bookmarked = map[uint]bool{}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		tagNames, err = a.tags.GetNames(gctx, tagIDs)
		return err
	})
	g.Go(func() (err error) {
		profiles, err = a.users.GetPublicProfiles(gctx, userIDs)
		return err
	})
	g.Go(func() (err error) {
		likes, err = a.engagement.CountLikes(gctx, postIDs)
		return err
	})
	g.Go(func() (err error) {
		bookmarks, err = a.engagement.CountBookmarks(gctx, postIDs)
		return err
	})
	g.Go(func() (err error) {
		children, err = a.posts.CountChildren(gctx, postIDs)
		return err
	})
	if !viewer.Anonymous() {
		g.Go(func() (err error) {
			liked, err = a.engagement.LikedBy(gctx, viewer.UserID, postIDs)
			return err
		})
		g.Go(func() (err error) {
			bookmarked, err = a.engagement.BookmarkedBy(gctx, viewer.UserID, postIDs)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		span.SetError(err)
		return nil, err
	}

	views := make([]models.PostView, 0, len(posts))
	for _, p := range posts {
		v := models.PostView{
			ID:            p.ID,
			AuthorID:      p.AuthorID,
			Body:          p.Body,
			Audience:      p.Audience,
			ParentID:      p.ParentID,
			Kind:          p.Kind,
			Media:         make([]models.MediaView, 0, len(p.Media)),
			Hashtags:      make([]models.TagView, 0, len(p.Tags)),
			Mentions:      make([]models.PublicProfile, 0, len(p.Mentions)),
			GuestViews:    p.GuestViews,
			UserViews:     p.UserViews,
			LikeCount:     likes[p.ID],
			BookmarkCount: bookmarks[p.ID],
			ReshareCount:  children[p.ID].Reshares,
			ReplyCount:    children[p.ID].Replies,
			QuoteCount:    children[p.ID].Quotes,
			Liked:         liked[p.ID],
			Bookmarked:    bookmarked[p.ID],
			CreatedAt:     p.CreatedAt,
			UpdatedAt:     p.UpdatedAt,
		}
		if author, ok := profiles[p.AuthorID]; ok {
			v.Author = &author
		}
		for _, m := range p.Media {
			v.Media = append(v.Media, models.MediaView{URL: m.URL, Kind: m.Kind})
		}
		for _, id := range p.TagIDs() {
			if name, ok := tagNames[id]; ok {
				v.Hashtags = append(v.Hashtags, models.TagView{ID: id, Name: name})
			}
		}
		for _, id := range p.MentionIDs() {
			if profile, ok := profiles[id]; ok {
				v.Mentions = append(v.Mentions, profile)
			}
		}
		views = append(views, v)
	}
	return views, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
