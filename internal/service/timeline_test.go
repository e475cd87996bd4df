package service

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"chirp/internal/models"
	"chirp/internal/observability"
	tu "chirp/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageReader_GuardLogsDropReason(t *testing.T) {
	var buf bytes.Buffer
	prev := observability.GlobalLogger.Logger
	observability.SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { observability.SetLogger(prev) })

	h := newHarness(t, "")
	viewer := h.fx.Verified()
	stranger := h.fx.Verified()
	banned := h.fx.User(models.VerifyBanned)

	public := h.fx.Post(stranger)
	closed := h.fx.Post(stranger, tu.Circle())
	gone := h.fx.Post(banned, tu.Circle())

	r := &pageReader{users: h.users}
	kept, err := r.guard(context.Background(), tu.Viewer(viewer), []*models.Post{public, closed, gone})
	require.NoError(t, err)
	require.Len(t, kept, 1)
	assert.Equal(t, public.ID, kept[0].ID)

	logs := buf.String()
	assert.Contains(t, logs, "reason=denied")
	assert.Contains(t, logs, "reason="+models.CodeAuthorUnavailable)
}
