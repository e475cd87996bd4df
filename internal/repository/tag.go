package repository

import (
	"context"
	"fmt"
	"slices"
	"time"

	"chirp/internal/cache"
	"chirp/internal/models"
	"chirp/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TagRepository stores hashtags.
type TagRepository interface {
	// UpsertByNames makes sure a tag exists for every name and returns them in input order.
	// Names must already be normalized and unique.
	UpsertByNames(ctx context.Context, names []string) ([]models.Tag, error)
	// GetNames resolves ids to names; ids with no tag are absent from the map.
	GetNames(ctx context.Context, ids []uint) (map[uint]string, error)
}

type tagRepository struct {
	db       *gorm.DB
	cacheTTL time.Duration
	log      *observability.RepoLogger
}

// NewTagRepository returns a TagRepository. Name lookups go through the Redis
// cache when one is configured; tag names are immutable so entries never go stale.
func NewTagRepository(db *gorm.DB, cacheTTL time.Duration) TagRepository {
	if cacheTTL <= 0 {
		cacheTTL = cache.TagTTL
	}
	return &tagRepository{db: db, cacheTTL: cacheTTL, log: observability.NewRepoLogger("tags")}
}

func (r *tagRepository) UpsertByNames(ctx context.Context, names []string) ([]models.Tag, error) {
	if len(names) == 0 {
		return []models.Tag{}, nil
	}

	var (
		found   []models.Tag
		created int64
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// sorted so concurrent creators take the unique-index locks in the same order
		sorted := slices.Sorted(slices.Values(names))
		rows := make([]models.Tag, 0, len(sorted))
		for _, name := range sorted {
			rows = append(rows, models.Tag{Name: name})
		}

		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&rows)
		if res.Error != nil {
			return res.Error
		}
		created = res.RowsAffected

		return tx.Where("name IN ?", names).Find(&found).Error
	})
	if err != nil {
		r.log.LogError(ctx, err, "upsert")
		return nil, classify(err)
	}
	if created > 0 {
		observability.TagsCreated.Add(float64(created))
	}

	byName := make(map[string]models.Tag, len(found))
	for _, t := range found {
		byName[t.Name] = t
	}

	out := make([]models.Tag, 0, len(names))
	for _, name := range names {
		t, ok := byName[name]
		if !ok {
			return nil, models.NewStorageUnavailableError(fmt.Errorf("tag %q missing after upsert", name))
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *tagRepository) GetNames(ctx context.Context, ids []uint) (map[uint]string, error) {
	return cache.TagNamesAside(ctx, ids, r.cacheTTL, func(missing []uint) (map[uint]string, error) {
		var tags []models.Tag
		if err := r.db.WithContext(ctx).Select("id", "name").Where("id IN ?", missing).Find(&tags).Error; err != nil {
			r.log.LogError(ctx, err, "get_names")
			return nil, classify(err)
		}
		out := make(map[uint]string, len(tags))
		for _, t := range tags {
			out[t.ID] = t.Name
		}
		return out, nil
	})
}
