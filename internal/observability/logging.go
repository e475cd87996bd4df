// Package observability holds the logging, metrics and tracing helpers shared by
// the repository and service layers.
package observability

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// Logger is a *slog.Logger with repository and background-work helpers.
type Logger struct {
	*slog.Logger
}

// GlobalLogger starts as a JSON logger on stdout; the HTTP layer swaps in its
// context-aware logger through SetLogger.
var GlobalLogger = &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stdout, nil))}

func SetLogger(l *slog.Logger) {
	if l != nil {
		GlobalLogger = &Logger{Logger: l}
	}
}

type correlationKey struct{}

// WithCorrelationID tags ctx so every repository log line of one request can be joined.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// EnsureCorrelationID returns ctx carrying a correlation ID, minting a UUID when absent.
func EnsureCorrelationID(ctx context.Context) context.Context {
	if ExtractCorrelationID(ctx) != "" {
		return ctx
	}
	return WithCorrelationID(ctx, uuid.NewString())
}

func ExtractCorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// RepoLogger logs storage operations against one table.
type RepoLogger struct {
	table string
}

func NewRepoLogger(table string) *RepoLogger {
	return &RepoLogger{table: table}
}

func (l *RepoLogger) LogCreate(ctx context.Context, fields map[string]any) {
	l.debug(ctx, "create", fields)
}

func (l *RepoLogger) LogUpdate(ctx context.Context, fields map[string]any) {
	l.debug(ctx, "update", fields)
}

func (l *RepoLogger) LogError(ctx context.Context, err error, operation string) {
	GlobalLogger.ErrorContext(ctx, "repository error",
		slog.String("table", l.table),
		slog.String("operation", operation),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
		slog.String("error", err.Error()),
	)
}

func (l *RepoLogger) debug(ctx context.Context, operation string, fields map[string]any) {
	attrs := append([]any{
		slog.String("table", l.table),
		slog.String("operation", operation),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}, fieldAttrs(fields)...)
	GlobalLogger.DebugContext(ctx, "repository "+operation, attrs...)
}

// LogAsyncOperationError logs a failure in work that does not affect the caller's response.
func LogAsyncOperationError(ctx context.Context, operation string, err error, fields map[string]any) {
	attrs := append([]any{
		slog.String("operation", operation),
		slog.String("error", err.Error()),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}, fieldAttrs(fields)...)
	GlobalLogger.ErrorContext(ctx, "async operation failed", attrs...)
}

func fieldAttrs(fields map[string]any) []any {
	attrs := make([]any, 0, len(fields))
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	return attrs
}
