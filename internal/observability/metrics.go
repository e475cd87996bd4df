package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ViewsRecorded counts successful view increments by audience (guest or user).
	ViewsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirp_post_views_recorded_total",
		Help: "Total number of post views recorded by viewer type",
	}, []string{"audience"})

	// ViewRecordFailures counts batched increments that failed and were skipped.
	ViewRecordFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chirp_view_record_failures_total",
		Help: "Total number of view increment batches that failed",
	})

	// QueryLatency records engine latency by operation.
	QueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chirp_query_latency_seconds",
		Help:    "Feed, search and post read latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirp_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// TagsCreated counts hashtags inserted for the first time.
	TagsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chirp_tags_created_total",
		Help: "Total number of hashtags created",
	})

	// EventsPublished counts domain events by type and outcome.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirp_events_published_total",
		Help: "Total number of domain events published",
	}, []string{"type", "outcome"})
)

// TrackQuery returns a function that records the operation latency when called (e.g. defer).
func TrackQuery(operation string) func() {
	start := time.Now()
	return func() {
		QueryLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

// ViewerLabel is the audience label for view metrics.
func ViewerLabel(authenticated bool) string {
	if authenticated {
		return "user"
	}
	return "guest"
}
