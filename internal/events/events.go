// Package events publishes domain events about posts to Redis pub/sub or Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"chirp/internal/config"
	"chirp/internal/models"
	"chirp/internal/observability"

	"github.com/redis/go-redis/v9"
)

// PostCreated is the event type emitted after a post is stored.
const PostCreated = "post.created"

// Event is the envelope every backend serialises.
type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// PostCreatedPayload describes a newly stored post.
type PostCreatedPayload struct {
	PostID   uint            `json:"post_id"`
	AuthorID uint            `json:"author_id"`
	Audience models.Audience `json:"audience"`
	Kind     models.PostKind `json:"kind"`
	ParentID *uint           `json:"parent_id,omitempty"`
	TagIDs   []uint          `json:"tag_ids"`
}

// NewPostCreated builds the post.created event for p.
func NewPostCreated(p *models.Post) Event {
	return Event{
		Type:       PostCreated,
		OccurredAt: p.CreatedAt,
		Payload: PostCreatedPayload{
			PostID:   p.ID,
			AuthorID: p.AuthorID,
			Audience: p.Audience,
			Kind:     p.Kind,
			ParentID: p.ParentID,
			TagIDs:   p.TagIDs(),
		},
	}
}

// Publisher delivers events. key groups related events (the author id for posts).
type Publisher interface {
	Publish(ctx context.Context, key string, evt Event) error
	Close() error
}

// New picks the backend named by EVENTS_BACKEND. The redis backend degrades to a
// no-op when rdb is nil.
func New(cfg *config.Config, rdb *redis.Client) (Publisher, error) {
	switch cfg.EventsBackend {
	case "", "redis":
		return NewRedisPublisher(rdb), nil
	case "kafka":
		return NewKafkaPublisher(cfg.KafkaBrokerList(), cfg.KafkaTopic)
	case "none":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unsupported events backend %q", cfg.EventsBackend)
	}
}

func encode(evt Event) ([]byte, error) {
	b, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", evt.Type, err)
	}
	return b, nil
}

func record(evt Event, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	observability.EventsPublished.WithLabelValues(evt.Type, outcome).Inc()
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, Event) error { return nil }
func (Nop) Close() error                                  { return nil }

// AuthorKey is the partition key for events about an author's posts.
func AuthorKey(authorID uint) string {
	return strconv.FormatUint(uint64(authorID), 10)
}
