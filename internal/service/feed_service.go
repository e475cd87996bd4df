package service

import (
	"context"

	"chirp/internal/models"
	"chirp/internal/observability"
	"chirp/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// FeedService builds a viewer's home feed from their own posts and the authors they follow.
type FeedService struct {
	follows repository.FollowRepository
	reader  *pageReader
}

func NewFeedService(
	posts repository.PostRepository,
	users repository.UserRepository,
	follows repository.FollowRepository,
	aggregator *Aggregator,
	views *ViewCounter,
) *FeedService {
	return &FeedService{
		follows: follows,
		reader:  &pageReader{posts: posts, users: users, aggregator: aggregator, views: views},
	}
}

// GetFeed returns page `page` of the viewer's feed, newest first, with the total
// number of posts the viewer could page through.
func (s *FeedService) GetFeed(ctx context.Context, viewer models.ViewerContext, page, pageSize int) (*models.Page, error) {
	if viewer.Anonymous() {
		return nil, models.NewAuthenticationRequiredError("Sign in to see your feed")
	}

	span, ctx := observability.NewSpan(ctx, "feed.get",
		attribute.Int64("viewer.id", int64(viewer.UserID)),
		attribute.Int("page", page),
	)
	defer span.End()
	defer observability.TrackQuery("feed")()

	followed, err := s.follows.GetFollowedAuthorIDs(ctx, viewer.UserID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	q := repository.PostQuery{
		AuthorIDs:       append(followed, viewer.UserID),
		RestrictAuthors: true,
	}
	result, err := s.reader.read(ctx, viewer, q, page, pageSize)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	return result, nil
}
