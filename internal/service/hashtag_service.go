package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"chirp/internal/models"
	"chirp/internal/observability"
	"chirp/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const maxTagLength = 100

// HashtagService maps hashtag text to stored tags.
type HashtagService struct {
	tags repository.TagRepository
}

func NewHashtagService(tags repository.TagRepository) *HashtagService {
	return &HashtagService{tags: tags}
}

// NormalizeTag trims whitespace and leading '#' and lower-cases the rest.
func NormalizeTag(text string) string {
	return strings.ToLower(strings.TrimLeft(strings.TrimSpace(text), "#"))
}

// NormalizeTags normalizes every text and drops repeats, keeping first-seen order.
func NormalizeTags(texts []string) ([]string, error) {
	seen := make(map[string]struct{}, len(texts))
	out := make([]string, 0, len(texts))
	for _, text := range texts {
		name := NormalizeTag(text)
		if name == "" {
			return nil, models.NewValidationError("Hashtags cannot be empty")
		}
		if utf8.RuneCountInString(name) > maxTagLength {
			return nil, models.NewValidationError("Hashtags are limited to 100 characters")
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out, nil
}

// ResolveOrCreate returns one tag id per distinct text, in first-seen order, creating
// tags that do not exist yet. Either every tag resolves or the call fails.
func (s *HashtagService) ResolveOrCreate(ctx context.Context, texts []string) ([]uint, error) {
	names, err := NormalizeTags(texts)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return []uint{}, nil
	}

	span, ctx := observability.NewSpan(ctx, "hashtag.resolve_or_create", attribute.Int("tags", len(names)))
	defer span.End()

	tags, err := s.tags.UpsertByNames(ctx, names)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	ids := make([]uint, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.ID)
	}
	return ids, nil
}
