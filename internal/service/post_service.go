package service

import (
	"context"
	"html"
	"strings"
	"time"

	"chirp/internal/events"
	"chirp/internal/models"
	"chirp/internal/observability"
	"chirp/internal/repository"
	"chirp/internal/validation"

	"github.com/microcosm-cc/bluemonday"
	"go.opentelemetry.io/otel/attribute"
)

type PostService struct {
	posts      repository.PostRepository
	users      repository.UserRepository
	hashtags   *HashtagService
	aggregator *Aggregator
	views      *ViewCounter
	publisher  events.Publisher
	reader     *pageReader
	sanitizer  *bluemonday.Policy
	now        func() time.Time
}

type CreatePostInput struct {
	Kind     models.PostKind
	Audience models.Audience
	Body     string
	ParentID *uint
	Hashtags []string
	Mentions []uint
	Media    []validation.MediaDraft
}

func NewPostService(
	posts repository.PostRepository,
	users repository.UserRepository,
	hashtags *HashtagService,
	aggregator *Aggregator,
	views *ViewCounter,
	publisher events.Publisher,
) *PostService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &PostService{
		posts:      posts,
		users:      users,
		hashtags:   hashtags,
		aggregator: aggregator,
		views:      views,
		publisher:  publisher,
		reader:     &pageReader{posts: posts, users: users, aggregator: aggregator, views: views},
		sanitizer:  bluemonday.StrictPolicy(),
		now:        time.Now,
	}
}

// GetPost returns one post if viewer may read it and records the view.
func (s *PostService) GetPost(ctx context.Context, viewer models.ViewerContext, id uint) (*models.PostView, error) {
	span, ctx := observability.NewSpan(ctx, "post.get", attribute.Int64("post.id", int64(id)))
	defer span.End()

	post, err := s.readable(ctx, viewer, id)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	views, err := s.aggregator.Project(ctx, viewer, []*models.Post{post})
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	view := views[0]
	s.views.RecordOne(ctx, viewer, &view)
	return &view, nil
}

// GetChildren lists reshares, replies or quotes of a post the viewer may read.
func (s *PostService) GetChildren(
	ctx context.Context, viewer models.ViewerContext, parentID uint, kind models.PostKind, page, pageSize int,
) (*models.Page, error) {
	if !kind.IsChild() {
		return nil, models.NewValidationError("kind must be RESHARE, REPLY or QUOTE")
	}

	span, ctx := observability.NewSpan(ctx, "post.children",
		attribute.Int64("post.id", int64(parentID)),
		attribute.String("post.kind", string(kind)),
	)
	defer span.End()
	defer observability.TrackQuery("children")()

	if _, err := s.readable(ctx, viewer, parentID); err != nil {
		span.SetError(err)
		return nil, err
	}

	result, err := s.reader.read(ctx, viewer, repository.PostQuery{ParentID: &parentID, Kind: kind}, page, pageSize)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	return result, nil
}

func (s *PostService) readable(ctx context.Context, viewer models.ViewerContext, id uint) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var author *models.AuthorSnapshot
	if post.Audience != models.AudienceEveryone {
		if author, err = s.users.GetAuthorSnapshot(ctx, post.AuthorID); err != nil {
			return nil, err
		}
	}
	if err := ensureVisible(viewer, post, author); err != nil {
		return nil, err
	}
	return post, nil
}

// CreatePost stores a new post for a verified viewer and announces it with a post.created event.
func (s *PostService) CreatePost(ctx context.Context, viewer models.ViewerContext, in CreatePostInput) (*models.PostView, error) {
	if viewer.Anonymous() {
		return nil, models.NewAuthenticationRequiredError("Sign in to post")
	}
	if !viewer.Verified() {
		return nil, models.NewVerificationRequiredError()
	}

	if in.Kind == "" {
		in.Kind = models.PostKindOriginal
	}
	if in.Audience == "" {
		in.Audience = models.AudienceEveryone
	}
	// StrictPolicy entity-encodes the text it keeps; store it as the author typed it.
	in.Body = strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(in.Body)))

	if err := validation.ValidatePostDraft(validation.PostDraft{
		Kind:     in.Kind,
		Audience: in.Audience,
		Body:     in.Body,
		ParentID: in.ParentID,
		Hashtags: in.Hashtags,
		Mentions: in.Mentions,
		Media:    in.Media,
	}); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	span, ctx := observability.NewSpan(ctx, "post.create",
		attribute.String("post.kind", string(in.Kind)),
		attribute.String("post.audience", string(in.Audience)),
	)
	defer span.End()

	if in.ParentID != nil {
		if _, err := s.readable(ctx, viewer, *in.ParentID); err != nil {
			if models.IsCode(err, models.CodeNotFound) {
				err = models.NewValidationError("parent post does not exist")
			}
			span.SetError(err)
			return nil, err
		}
	}

	mentions := uniqueIDs(in.Mentions)
	if len(mentions) > 0 {
		found, err := s.users.GetPublicProfiles(ctx, mentions)
		if err != nil {
			span.SetError(err)
			return nil, err
		}
		for _, id := range mentions {
			if _, ok := found[id]; !ok {
				return nil, models.NewValidationError("mentioned user does not exist")
			}
		}
	}

	tagIDs, err := s.hashtags.ResolveOrCreate(ctx, in.Hashtags)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	now := s.now().UTC()
	post := &models.Post{
		AuthorID:  viewer.UserID,
		Body:      in.Body,
		Audience:  in.Audience,
		ParentID:  in.ParentID,
		Kind:      in.Kind,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i, id := range tagIDs {
		post.Tags = append(post.Tags, models.PostTag{Position: i, TagID: id})
	}
	for i, id := range mentions {
		post.Mentions = append(post.Mentions, models.PostMention{Position: i, UserID: id})
	}
	for i, m := range in.Media {
		post.Media = append(post.Media, models.PostMedia{Position: i, URL: m.URL, Kind: m.Kind})
	}

	if err := s.posts.Create(ctx, post); err != nil {
		span.SetError(err)
		return nil, err
	}

	if err := s.publisher.Publish(ctx, events.AuthorKey(post.AuthorID), events.NewPostCreated(post)); err != nil {
		observability.LogAsyncOperationError(ctx, "publish_post_created", err, map[string]any{"post_id": post.ID})
	}

	views, err := s.aggregator.Project(ctx, viewer, []*models.Post{post})
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	return &views[0], nil
}
