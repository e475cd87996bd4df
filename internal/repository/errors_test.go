package repository

import (
	"context"
	"fmt"
	"testing"

	"chirp/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"foreign key", &pgconn.PgError{Code: "23503"}, models.CodeValidation},
		{"check", fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "23514"}), models.CodeValidation},
		{"unique", &pgconn.PgError{Code: "23505"}, models.CodeValidation},
		{"connection", &pgconn.PgError{Code: "08006"}, models.CodeStorageUnavailable},
		{"opaque", assert.AnError, models.CodeStorageUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, models.IsCode(classify(tt.err), tt.code))
		})
	}
}

func TestClassify_PassThrough(t *testing.T) {
	assert.NoError(t, classify(nil))
	assert.ErrorIs(t, classify(context.Canceled), context.Canceled)
	assert.ErrorIs(t, classify(gorm.ErrRecordNotFound), gorm.ErrRecordNotFound)

	notFound := models.NewNotFoundError("Post", 1)
	assert.Same(t, notFound, classify(notFound))
}
