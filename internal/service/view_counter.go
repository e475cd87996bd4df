package service

import (
	"context"
	"time"

	"chirp/internal/featureflags"
	"chirp/internal/models"
	"chirp/internal/observability"
	"chirp/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// ViewCounter bumps guest or user view counters. Reads call it after the
// response is assembled; failures are logged and never reach the reader.
type ViewCounter struct {
	posts repository.PostRepository
	flags *featureflags.Manager
	now   func() time.Time
}

func NewViewCounter(posts repository.PostRepository, flags *featureflags.Manager) *ViewCounter {
	if flags == nil {
		flags = featureflags.NewManager("")
	}
	return &ViewCounter{posts: posts, flags: flags, now: time.Now}
}

// RecordViews adds one view to every post in ids with a single batched write.
func (c *ViewCounter) RecordViews(ctx context.Context, ids []uint, authenticated bool, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	if err := c.posts.IncrementViews(ctx, ids, authenticated, at.UTC()); err != nil {
		return err
	}
	observability.ViewsRecorded.WithLabelValues(observability.ViewerLabel(authenticated)).Add(float64(len(ids)))
	return nil
}

// record runs RecordViews detached from ctx cancellation. It reports whether the write landed.
func (c *ViewCounter) record(ctx context.Context, viewer models.ViewerContext, ids []uint) (time.Time, bool) {
	at := c.now().UTC()
	ctx = context.WithoutCancel(ctx)

	span, ctx := observability.NewSpan(ctx, "views.record", attribute.Int("posts", len(ids)))
	defer span.End()

	if err := c.RecordViews(ctx, ids, !viewer.Anonymous(), at); err != nil {
		span.SetError(err)
		observability.ViewRecordFailures.Inc()
		observability.LogAsyncOperationError(ctx, "record_views", err, map[string]any{
			"posts":  len(ids),
			"viewer": viewer.UserID,
		})
		return at, false
	}
	return at, true
}

// RecordPage bumps every post on the page. On success the page shows the new
// counts: a +1 echo by default, or the stored values when view_count_readback is on.
func (c *ViewCounter) RecordPage(ctx context.Context, viewer models.ViewerContext, page *models.Page) {
	if len(page.Posts) == 0 {
		return
	}
	ids := page.IDs()
	at, ok := c.record(ctx, viewer, ids)
	if !ok {
		return
	}

	if c.flags.Enabled(featureflags.ViewCountReadback, viewer.UserID) {
		if c.readBack(ctx, page.Posts, ids) {
			return
		}
	}
	for i := range page.Posts {
		echoView(&page.Posts[i], viewer, at)
	}
}

// RecordOne bumps a single post and reads the stored counters back into view.
func (c *ViewCounter) RecordOne(ctx context.Context, viewer models.ViewerContext, view *models.PostView) {
	at, ok := c.record(ctx, viewer, []uint{view.ID})
	if !ok {
		return
	}
	views := []models.PostView{*view}
	if !c.readBack(ctx, views, []uint{view.ID}) {
		echoView(&views[0], viewer, at)
	}
	*view = views[0]
}

func (c *ViewCounter) readBack(ctx context.Context, views []models.PostView, ids []uint) bool {
	counts, err := c.posts.GetViewCounts(context.WithoutCancel(ctx), ids)
	if err != nil {
		observability.LogAsyncOperationError(ctx, "read_view_counts", err, map[string]any{"posts": len(ids)})
		return false
	}
	for i := range views {
		if vc, ok := counts[views[i].ID]; ok {
			views[i].GuestViews = vc.GuestViews
			views[i].UserViews = vc.UserViews
			views[i].UpdatedAt = vc.UpdatedAt
		}
	}
	return true
}

func echoView(v *models.PostView, viewer models.ViewerContext, at time.Time) {
	if viewer.Anonymous() {
		v.GuestViews++
	} else {
		v.UserViews++
	}
	v.UpdatedAt = at
}
