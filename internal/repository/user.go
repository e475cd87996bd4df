// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"

	"chirp/internal/models"
	"chirp/internal/observability"

	"gorm.io/gorm"
)

// UserRepository reads the identity data this service depends on.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	// GetAuthorSnapshot returns nil without error when the author does not exist.
	GetAuthorSnapshot(ctx context.Context, id uint) (*models.AuthorSnapshot, error)
	GetAuthorSnapshots(ctx context.Context, ids []uint) (map[uint]*models.AuthorSnapshot, error)
	GetPublicProfiles(ctx context.Context, ids []uint) (map[uint]models.PublicProfile, error)
}

type userRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db, log: observability.NewRepoLogger("users")}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return classify(err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		r.log.LogError(ctx, err, "get_by_id")
		return nil, classify(err)
	}
	return &user, nil
}

func (r *userRepository) GetAuthorSnapshot(ctx context.Context, id uint) (*models.AuthorSnapshot, error) {
	snaps, err := r.GetAuthorSnapshots(ctx, []uint{id})
	if err != nil {
		return nil, err
	}
	return snaps[id], nil
}

func (r *userRepository) GetAuthorSnapshots(ctx context.Context, ids []uint) (map[uint]*models.AuthorSnapshot, error) {
	out := make(map[uint]*models.AuthorSnapshot, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var users []models.User
	if err := r.db.WithContext(ctx).Select("id", "verify").Where("id IN ?", ids).Find(&users).Error; err != nil {
		r.log.LogError(ctx, err, "get_author_snapshots")
		return nil, classify(err)
	}
	for _, u := range users {
		out[u.ID] = &models.AuthorSnapshot{ID: u.ID, Verify: u.Verify, Circle: map[uint]struct{}{}}
	}

	var members []models.CircleMember
	if err := r.db.WithContext(ctx).Where("owner_id IN ?", ids).Find(&members).Error; err != nil {
		r.log.LogError(ctx, err, "get_circle_members")
		return nil, classify(err)
	}
	for _, m := range members {
		if snap, ok := out[m.OwnerID]; ok {
			snap.Circle[m.MemberID] = struct{}{}
		}
	}
	return out, nil
}

func (r *userRepository) GetPublicProfiles(ctx context.Context, ids []uint) (map[uint]models.PublicProfile, error) {
	out := make(map[uint]models.PublicProfile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var profiles []models.PublicProfile
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("id", "name", "username", "avatar").
		Where("id IN ?", ids).
		Find(&profiles).Error
	if err != nil {
		r.log.LogError(ctx, err, "get_public_profiles")
		return nil, classify(err)
	}
	for _, p := range profiles {
		out[p.ID] = p
	}
	return out, nil
}
