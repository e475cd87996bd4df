package repository

import (
	"context"

	"chirp/internal/models"
	"chirp/internal/observability"

	"gorm.io/gorm"
)

// FollowRepository reads the follow graph.
type FollowRepository interface {
	GetFollowedAuthorIDs(ctx context.Context, followerID uint) ([]uint, error)
}

type followRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db, log: observability.NewRepoLogger("follows")}
}

func (r *followRepository) GetFollowedAuthorIDs(ctx context.Context, followerID uint) ([]uint, error) {
	ids := []uint{}
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ?", followerID).
		Order("followed_id").
		Pluck("followed_id", &ids).Error
	if err != nil {
		r.log.LogError(ctx, err, "get_followed")
		return nil, classify(err)
	}
	return ids, nil
}
