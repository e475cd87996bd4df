package models

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidationError("bad"), http.StatusBadRequest},
		{"auth", NewAuthenticationRequiredError("login"), http.StatusUnauthorized},
		{"forbidden", NewForbiddenError("no"), http.StatusForbidden},
		{"not found", NewNotFoundError("Post", 7), http.StatusNotFound},
		{"author unavailable", NewAuthorUnavailableError(3), http.StatusNotFound},
		{"storage", NewStorageUnavailableError(errors.New("conn refused")), http.StatusServiceUnavailable},
		{"wrapped", fmt.Errorf("feed: %w", NewForbiddenError("no")), http.StatusForbidden},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := NewStorageUnavailableError(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "dial tcp")
	assert.True(t, IsCode(err, CodeStorageUnavailable))
	assert.False(t, IsCode(cause, CodeStorageUnavailable))
}

func TestViewerContext(t *testing.T) {
	assert.True(t, Guest().Anonymous())
	assert.False(t, Guest().Verified())

	v := ViewerContext{UserID: 4, Verify: VerifyVerified}
	assert.False(t, v.Anonymous())
	assert.True(t, v.Verified())

	banned := ViewerContext{UserID: 4, Verify: VerifyBanned}
	assert.False(t, banned.Verified())
}

func TestAuthorSnapshot(t *testing.T) {
	a := &AuthorSnapshot{ID: 1, Verify: VerifyVerified, Circle: map[uint]struct{}{2: {}}}
	assert.True(t, a.InCircle(2))
	assert.False(t, a.InCircle(3))
	assert.False(t, a.Banned())

	var empty AuthorSnapshot
	assert.False(t, empty.InCircle(2))
}

func TestPostKind(t *testing.T) {
	assert.False(t, PostKindOriginal.IsChild())
	for _, k := range []PostKind{PostKindReply, PostKindReshare, PostKindQuote} {
		assert.True(t, k.IsChild(), k)
		assert.True(t, k.Valid(), k)
	}
	assert.False(t, PostKind("STORY").Valid())
	assert.False(t, Audience("FRIENDS").Valid())
}

func TestPostOrderedReferences(t *testing.T) {
	p := &Post{
		Tags:     []PostTag{{Position: 0, TagID: 9}, {Position: 1, TagID: 4}},
		Mentions: []PostMention{{Position: 0, UserID: 12}},
	}
	assert.Equal(t, []uint{9, 4}, p.TagIDs())
	assert.Equal(t, []uint{12}, p.MentionIDs())
	assert.False(t, p.IsChild())
}
