package repository

import (
	"context"

	"chirp/internal/observability"

	"gorm.io/gorm"
)

// EngagementRepository reads likes and bookmarks in bulk.
type EngagementRepository interface {
	CountLikes(ctx context.Context, postIDs []uint) (map[uint]int64, error)
	CountBookmarks(ctx context.Context, postIDs []uint) (map[uint]int64, error)
	LikedBy(ctx context.Context, userID uint, postIDs []uint) (map[uint]bool, error)
	BookmarkedBy(ctx context.Context, userID uint, postIDs []uint) (map[uint]bool, error)
}

type engagementRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

func NewEngagementRepository(db *gorm.DB) EngagementRepository {
	return &engagementRepository{db: db, log: observability.NewRepoLogger("engagement")}
}

func (r *engagementRepository) CountLikes(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	return r.countByPost(ctx, "likes", postIDs)
}

func (r *engagementRepository) CountBookmarks(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	return r.countByPost(ctx, "bookmarks", postIDs)
}

func (r *engagementRepository) LikedBy(ctx context.Context, userID uint, postIDs []uint) (map[uint]bool, error) {
	return r.markedBy(ctx, "likes", userID, postIDs)
}

func (r *engagementRepository) BookmarkedBy(ctx context.Context, userID uint, postIDs []uint) (map[uint]bool, error) {
	return r.markedBy(ctx, "bookmarks", userID, postIDs)
}

func (r *engagementRepository) countByPost(ctx context.Context, table string, postIDs []uint) (map[uint]int64, error) {
	out := make(map[uint]int64, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		PostID uint
		Total  int64
	}
	err := r.db.WithContext(ctx).
		Table(table).
		Select("post_id, COUNT(*) AS total").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		r.log.LogError(ctx, err, "count_"+table)
		return nil, classify(err)
	}
	for _, row := range rows {
		out[row.PostID] = row.Total
	}
	return out, nil
}

func (r *engagementRepository) markedBy(ctx context.Context, table string, userID uint, postIDs []uint) (map[uint]bool, error) {
	out := make(map[uint]bool, len(postIDs))
	if userID == 0 || len(postIDs) == 0 {
		return out, nil
	}

	var ids []uint
	err := r.db.WithContext(ctx).
		Table(table).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &ids).Error
	if err != nil {
		r.log.LogError(ctx, err, "marked_"+table)
		return nil, classify(err)
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
