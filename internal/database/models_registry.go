package database

import "chirp/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []any {
	return []any{
		&models.User{},
		&models.CircleMember{},
		&models.Follow{},
		&models.Post{},
		&models.PostMedia{},
		&models.PostTag{},
		&models.PostMention{},
		&models.Tag{},
		&models.Like{},
		&models.Bookmark{},
	}
}
