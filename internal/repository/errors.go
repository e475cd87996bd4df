package repository

import (
	"context"
	"errors"

	"chirp/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// SQLSTATE classes and codes from PostgreSQL.
const (
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgIntegrityClass      = "23"
)

// classify turns driver errors into AppErrors. Context cancellation and
// gorm.ErrRecordNotFound pass through so callers can react to them.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgForeignKeyViolation:
			return &models.AppError{Code: models.CodeValidation, Message: "referenced record does not exist", Err: err}
		case pgErr.Code == pgCheckViolation:
			return &models.AppError{Code: models.CodeValidation, Message: "post violates a storage constraint", Err: err}
		case len(pgErr.Code) >= 2 && pgErr.Code[:2] == pgIntegrityClass:
			return &models.AppError{Code: models.CodeValidation, Message: "integrity constraint violated", Err: err}
		}
	}

	return models.NewStorageUnavailableError(err)
}
