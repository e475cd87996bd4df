package service

import (
	"context"
	"log/slog"
	"math"

	"chirp/internal/models"
	"chirp/internal/observability"
	"chirp/internal/repository"

	"golang.org/x/sync/errgroup"
)

// MaxPageSize bounds page sizes accepted by feed, search and children listings.
const MaxPageSize = 100

const maxPage = math.MaxInt32 / MaxPageSize

// pageReader is the read path shared by feed, search and children listings:
// count and page in parallel, re-check circle posts, project, then record views.
type pageReader struct {
	posts      repository.PostRepository
	users      repository.UserRepository
	aggregator *Aggregator
	views      *ViewCounter
}

// read returns one page for q as seen by viewer. Out-of-range pages come back
// empty with the same total.
func (r *pageReader) read(ctx context.Context, viewer models.ViewerContext, q repository.PostQuery, page, pageSize int) (*models.Page, error) {
	q.Viewer = viewer.UserID
	inRange := page >= 1 && page <= maxPage && pageSize >= 1 && pageSize <= MaxPageSize
	if inRange {
		q.Limit = pageSize
		q.Offset = (page - 1) * pageSize
	}

	var (
		total int64
		posts []*models.Post
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		total, err = r.posts.Count(gctx, q)
		return err
	})
	if inRange {
		g.Go(func() (err error) {
			posts, err = r.posts.Find(gctx, q)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return models.EmptyPage(total), nil
	}

	posts, err := r.guard(ctx, viewer, posts)
	if err != nil {
		return nil, err
	}

	views, err := r.aggregator.Project(ctx, viewer, posts)
	if err != nil {
		return nil, err
	}

	result := &models.Page{Posts: views, Total: total}
	r.views.RecordPage(ctx, viewer, result)
	return result, nil
}

// guard runs CanView over the circle posts the storage filter let through and drops any it rejects.
func (r *pageReader) guard(ctx context.Context, viewer models.ViewerContext, posts []*models.Post) ([]*models.Post, error) {
	var authorIDs []uint
	for _, p := range posts {
		if p.Audience != models.AudienceEveryone && p.AuthorID != viewer.UserID {
			authorIDs = append(authorIDs, p.AuthorID)
		}
	}
	if len(authorIDs) == 0 {
		return posts, nil
	}

	snaps, err := r.users.GetAuthorSnapshots(ctx, uniqueIDs(authorIDs))
	if err != nil {
		return nil, err
	}

	kept := posts[:0:0]
	for _, p := range posts {
		ok, err := CanView(viewer, p, snaps[p.AuthorID])
		if ok {
			kept = append(kept, p)
			continue
		}
		attrs := []any{
			slog.Uint64("post_id", uint64(p.ID)),
			slog.Uint64("viewer_id", uint64(viewer.UserID)),
			slog.String("reason", "denied"),
		}
		if err != nil {
			attrs[2] = slog.String("reason", models.ErrorCode(err))
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		observability.GlobalLogger.WarnContext(ctx, "dropped post rejected by visibility check", attrs...)
	}
	return kept, nil
}
