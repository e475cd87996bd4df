package service

import (
	"context"
	"strings"

	"chirp/internal/models"
	"chirp/internal/observability"
	"chirp/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// SearchMode selects what the query is matched against.
type SearchMode string

const (
	SearchContent SearchMode = "content"
	SearchTag     SearchMode = "tag"
)

func (m SearchMode) Valid() bool {
	return m == SearchContent || m == SearchTag
}

// SearchScope narrows the authors a search considers.
type SearchScope string

const (
	ScopeEveryone  SearchScope = "everyone"
	ScopeFollowing SearchScope = "following"
)

func (s SearchScope) Valid() bool {
	return s == "" || s == ScopeEveryone || s == ScopeFollowing
}

type SearchInput struct {
	Query     string
	Mode      SearchMode
	Scope     SearchScope
	MediaOnly bool
	Page      int
	PageSize  int
}

type SearchService struct {
	follows repository.FollowRepository
	reader  *pageReader
}

func NewSearchService(
	posts repository.PostRepository,
	users repository.UserRepository,
	follows repository.FollowRepository,
	aggregator *Aggregator,
	views *ViewCounter,
) *SearchService {
	return &SearchService{
		follows: follows,
		reader:  &pageReader{posts: posts, users: users, aggregator: aggregator, views: views},
	}
}

// Search matches post bodies or hashtags against in.Query. An unknown mode yields
// an empty page with a zero total.
func (s *SearchService) Search(ctx context.Context, viewer models.ViewerContext, in SearchInput) (*models.Page, error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return nil, models.NewValidationError("Search query is required")
	}

	var q repository.PostQuery
	switch in.Mode {
	case SearchContent:
		q.TextMatch = query
	case SearchTag:
		q.TagMatch = NormalizeTag(query)
		if q.TagMatch == "" {
			return models.EmptyPage(0), nil
		}
	default:
		return models.EmptyPage(0), nil
	}
	q.MediaOnly = in.MediaOnly

	span, ctx := observability.NewSpan(ctx, "search.run",
		attribute.String("search.mode", string(in.Mode)),
		attribute.String("search.scope", string(in.Scope)),
		attribute.Bool("search.media_only", in.MediaOnly),
	)
	defer span.End()
	defer observability.TrackQuery("search")()

	if in.Scope == ScopeFollowing {
		if viewer.Anonymous() {
			return models.EmptyPage(0), nil
		}
		followed, err := s.follows.GetFollowedAuthorIDs(ctx, viewer.UserID)
		if err != nil {
			span.SetError(err)
			return nil, err
		}
		q.AuthorIDs = followed
		q.RestrictAuthors = true
	}

	result, err := s.reader.read(ctx, viewer, q, in.Page, in.PageSize)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	return result, nil
}
