package models

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Error codes carried by AppError.
const (
	CodeValidation            = "VALIDATION_ERROR"
	CodeAuthenticationNeeded  = "AUTHENTICATION_REQUIRED"
	CodeForbidden             = "FORBIDDEN"
	CodeNotFound              = "NOT_FOUND"
	CodeAuthorUnavailable     = "AUTHOR_UNAVAILABLE"
	CodeStorageUnavailable    = "STORAGE_UNAVAILABLE"
	CodeInternal              = "INTERNAL_ERROR"
	CodeRateLimited           = "RATE_LIMITED"
	CodeVerificationRequired  = "VERIFICATION_REQUIRED"
	CodeUnsupportedSearchMode = "UNSUPPORTED_SEARCH_MODE"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewNotFoundError(resource string, id any) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewAuthenticationRequiredError(message string) *AppError {
	return &AppError{
		Code:    CodeAuthenticationNeeded,
		Message: message,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

// NewAuthorUnavailableError reports a restricted post whose author is missing or banned.
func NewAuthorUnavailableError(authorID uint) *AppError {
	return &AppError{
		Code:    CodeAuthorUnavailable,
		Message: fmt.Sprintf("author %d is unavailable", authorID),
	}
}

func NewVerificationRequiredError() *AppError {
	return &AppError{
		Code:    CodeVerificationRequired,
		Message: "Verify your email address to continue",
	}
}

func NewRateLimitedError() *AppError {
	return &AppError{
		Code:    CodeRateLimited,
		Message: "Too many requests",
	}
}

func NewUnsupportedSearchModeError(mode string) *AppError {
	return &AppError{
		Code:    CodeUnsupportedSearchMode,
		Message: fmt.Sprintf("search mode %q is not supported; use content or tag", mode),
	}
}

func NewStorageUnavailableError(err error) *AppError {
	return &AppError{
		Code:    CodeStorageUnavailable,
		Message: "storage unavailable",
		Err:     err,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// ErrorCode returns the AppError code anywhere in err's chain, or "".
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsCode reports whether err carries the given AppError code.
func IsCode(err error, code string) bool {
	return ErrorCode(err) == code
}

// StatusFor maps an error to the HTTP status the transport should use.
func StatusFor(err error) int {
	switch ErrorCode(err) {
	case CodeValidation, CodeUnsupportedSearchMode:
		return http.StatusBadRequest
	case CodeAuthenticationNeeded:
		return http.StatusUnauthorized
	case CodeForbidden, CodeVerificationRequired:
		return http.StatusForbidden
	case CodeNotFound, CodeAuthorUnavailable:
		return http.StatusNotFound
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		// storage and internal details stay in the logs
		if appErr.Err != nil && status < http.StatusInternalServerError {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
