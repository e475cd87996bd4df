package events

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Channel returns the pub/sub channel for an event type.
func Channel(eventType string) string {
	return "events:" + eventType
}

// RedisPublisher publishes events to Redis channels named by Channel.
type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, _ string, evt Event) error {
	if p.rdb == nil {
		return nil
	}
	payload, err := encode(evt)
	if err != nil {
		return err
	}
	err = p.rdb.Publish(ctx, Channel(evt.Type), payload).Err()
	record(evt, err)
	return err
}

// Close is a no-op; the Redis client is owned by the caller.
func (p *RedisPublisher) Close() error { return nil }
