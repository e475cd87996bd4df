package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelationID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, ExtractCorrelationID(ctx))

	ctx = EnsureCorrelationID(ctx)
	id := ExtractCorrelationID(ctx)
	require.NotEmpty(t, id)
	assert.Len(t, id, 36)

	// an existing id is kept
	assert.Equal(t, id, ExtractCorrelationID(EnsureCorrelationID(ctx)))
}

func TestViewMetrics(t *testing.T) {
	before := testutil.ToFloat64(ViewsRecorded.WithLabelValues(ViewerLabel(true)))
	ViewsRecorded.WithLabelValues(ViewerLabel(true)).Add(3)
	assert.Equal(t, before+3, testutil.ToFloat64(ViewsRecorded.WithLabelValues("user")))
	assert.Equal(t, "guest", ViewerLabel(false))
}

func TestTrackQuery(t *testing.T) {
	TrackQuery("observability_test")()
	assert.GreaterOrEqual(t, testutil.CollectAndCount(QueryLatency), 1)
}

func TestSpan_DisabledTracing(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{ServiceName: "chirp-test"})
	require.NoError(t, err)
	defer shutdown(context.Background())

	span, ctx := NewSpan(context.Background(), "test.op")
	require.NotNil(t, ctx)
	span.SetError(errors.New("boom"))
	span.End()
}

func TestInitTracing_UnknownExporter(t *testing.T) {
	_, err := InitTracing(context.Background(), TracingConfig{
		ServiceName: "chirp-test",
		Enabled:     true,
		Exporter:    "zipkin",
	})
	assert.Error(t, err)
}

func TestStartRedisSpan(t *testing.T) {
	span, ctx := StartRedisSpan(context.Background(), "mget", 3)
	require.NotNil(t, ctx)
	span.SetError(nil)
	span.End()
}
