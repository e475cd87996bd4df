// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chirp/internal/models"
	"chirp/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostQuery is the typed filter shared by feed, search and children listings.
// Every query applies the coarse visibility rule for Viewer (0 = anonymous).
type PostQuery struct {
	Viewer uint
	// AuthorIDs is only applied when RestrictAuthors is set; an empty set then matches nothing.
	AuthorIDs       []uint
	RestrictAuthors bool
	TextMatch       string
	TagMatch        string
	ParentID        *uint
	Kind            models.PostKind
	MediaOnly       bool
	Limit           int
	Offset          int
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	// Create stores the post and its ordered media, tags and mentions in one transaction.
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	// Find returns one page of matches ordered newest first (created_at DESC, id DESC).
	Find(ctx context.Context, q PostQuery) ([]*models.Post, error)
	Count(ctx context.Context, q PostQuery) (int64, error)
	// IncrementViews adds one to guest_views or user_views of every listed post with a
	// single relative UPDATE and stamps updated_at.
	IncrementViews(ctx context.Context, ids []uint, authenticated bool, at time.Time) error
	GetViewCounts(ctx context.Context, ids []uint) (map[uint]models.ViewCounts, error)
	CountChildren(ctx context.Context, ids []uint) (map[uint]models.ChildCounts, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, log: observability.NewRepoLogger("posts")}
}

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *postRepository) withAttachments(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Media", byPosition).
		Preload("Tags", byPosition).
		Preload("Mentions", byPosition)
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return err
		}
		for i := range post.Media {
			post.Media[i].PostID = post.ID
		}
		for i := range post.Tags {
			post.Tags[i].PostID = post.ID
		}
		for i := range post.Mentions {
			post.Mentions[i].PostID = post.ID
		}
		if len(post.Media) > 0 {
			if err := tx.Create(&post.Media).Error; err != nil {
				return err
			}
		}
		if len(post.Tags) > 0 {
			if err := tx.Create(&post.Tags).Error; err != nil {
				return err
			}
		}
		if len(post.Mentions) > 0 {
			if err := tx.Create(&post.Mentions).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.log.LogError(ctx, err, "create")
		return classify(err)
	}
	r.log.LogCreate(ctx, map[string]any{"post_id": post.ID, "kind": post.Kind})
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.withAttachments(r.db.WithContext(ctx)).First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		r.log.LogError(ctx, err, "get_by_id")
		return nil, classify(err)
	}
	return &post, nil
}

func (r *postRepository) Find(ctx context.Context, q PostQuery) ([]*models.Post, error) {
	posts := []*models.Post{}
	if q.Limit <= 0 {
		return posts, nil
	}

	err := r.withAttachments(r.filtered(ctx, q)).
		Order("posts.created_at DESC").
		Order("posts.id DESC").
		Limit(q.Limit).
		Offset(q.Offset).
		Find(&posts).Error
	if err != nil {
		r.log.LogError(ctx, err, "find")
		return nil, classify(err)
	}
	return posts, nil
}

func (r *postRepository) Count(ctx context.Context, q PostQuery) (int64, error) {
	var total int64
	if err := r.filtered(ctx, q).Count(&total).Error; err != nil {
		r.log.LogError(ctx, err, "count")
		return 0, classify(err)
	}
	return total, nil
}

// filtered builds a fresh statement for q so Find and Count can run concurrently.
func (r *postRepository) filtered(ctx context.Context, q PostQuery) *gorm.DB {
	db := r.db.WithContext(ctx).Model(&models.Post{}).Scopes(visibleTo(q.Viewer))

	if q.RestrictAuthors {
		if len(q.AuthorIDs) == 0 {
			db = db.Where("1 = 0")
		} else {
			db = db.Where("posts.author_id IN ?", q.AuthorIDs)
		}
	}
	if q.ParentID != nil {
		db = db.Where("posts.parent_id = ?", *q.ParentID)
	}
	if q.Kind != "" {
		db = db.Where("posts.kind = ?", q.Kind)
	}
	if q.TextMatch != "" {
		db = db.Where(r.matchClause("posts.body"), r.matchArg(q.TextMatch))
	}
	if q.TagMatch != "" {
		db = db.Where(
			"EXISTS (SELECT 1 FROM post_tags pt JOIN tags t ON t.id = pt.tag_id WHERE pt.post_id = posts.id AND "+r.matchClause("t.name")+")",
			r.matchArg(q.TagMatch),
		)
	}
	if q.MediaOnly {
		db = db.Where("EXISTS (SELECT 1 FROM post_media pm WHERE pm.post_id = posts.id AND pm.kind IN ?)", models.MediaKinds)
	}
	return db
}

// visibleTo is the coarse, set-level form of the visibility rule: Everyone posts,
// the viewer's own posts, and circle posts of non-banned authors whose circle holds the viewer.
func visibleTo(viewerID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if viewerID == 0 {
			return db.Where("posts.audience = ?", models.AudienceEveryone)
		}
		return db.Where(
			"(posts.audience = ? OR posts.author_id = ? OR (posts.audience = ?"+
				" AND EXISTS (SELECT 1 FROM circle_members cm WHERE cm.owner_id = posts.author_id AND cm.member_id = ?)"+
				" AND EXISTS (SELECT 1 FROM users au WHERE au.id = posts.author_id AND au.verify <> ?)))",
			models.AudienceEveryone, viewerID, models.AudienceAuthorCircle, viewerID, models.VerifyBanned,
		)
	}
}

func (r *postRepository) isPostgres() bool {
	return r.db.Dialector.Name() == "postgres"
}

// matchClause is full-text search on PostgreSQL and a case-insensitive substring match elsewhere.
func (r *postRepository) matchClause(column string) string {
	if r.isPostgres() {
		return fmt.Sprintf("to_tsvector('simple', %s) @@ plainto_tsquery('simple', ?)", column)
	}
	return fmt.Sprintf(`LOWER(%s) LIKE ? ESCAPE '\'`, column)
}

func (r *postRepository) matchArg(text string) string {
	if r.isPostgres() {
		return text
	}
	return "%" + likeEscaper.Replace(strings.ToLower(text)) + "%"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *postRepository) IncrementViews(ctx context.Context, ids []uint, authenticated bool, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	column := "guest_views"
	if authenticated {
		column = "user_views"
	}

	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id IN ?", ids).
		UpdateColumns(map[string]any{
			column:       gorm.Expr(column+" + ?", 1),
			"updated_at": at,
		}).Error
	if err != nil {
		r.log.LogError(ctx, err, "increment_views")
		return classify(err)
	}
	r.log.LogUpdate(ctx, map[string]any{"column": column, "posts": len(ids)})
	return nil
}

func (r *postRepository) GetViewCounts(ctx context.Context, ids []uint) (map[uint]models.ViewCounts, error) {
	out := make(map[uint]models.ViewCounts, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []models.ViewCounts
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select("id AS post_id, guest_views, user_views, updated_at").
		Where("id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		r.log.LogError(ctx, err, "get_view_counts")
		return nil, classify(err)
	}
	for _, row := range rows {
		out[row.PostID] = row
	}
	return out, nil
}

func (r *postRepository) CountChildren(ctx context.Context, ids []uint) (map[uint]models.ChildCounts, error) {
	out := make(map[uint]models.ChildCounts, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []struct {
		ParentID uint
		Kind     models.PostKind
		Total    int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select("parent_id, kind, COUNT(*) AS total").
		Where("parent_id IN ?", ids).
		Group("parent_id, kind").
		Scan(&rows).Error
	if err != nil {
		r.log.LogError(ctx, err, "count_children")
		return nil, classify(err)
	}

	for _, row := range rows {
		c := out[row.ParentID]
		switch row.Kind {
		case models.PostKindReshare:
			c.Reshares = row.Total
		case models.PostKindReply:
			c.Replies = row.Total
		case models.PostKindQuote:
			c.Quotes = row.Total
		}
		out[row.ParentID] = c
	}
	return out, nil
}
