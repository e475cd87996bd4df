package cache

import (
	"context"
	"time"

	"chirp/internal/observability"

	"github.com/redis/go-redis/v9"
)

// TagNamesAside resolves tag ids to names from Redis, calls fetch for the misses,
// and stores whatever fetch returned. Redis failures degrade to a full fetch.
// Ids fetch cannot resolve are absent from the result.
func TagNamesAside(ctx context.Context, ids []uint, ttl time.Duration, fetch func(missing []uint) (map[uint]string, error)) (map[uint]string, error) {
	names := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	missing := ids
	if client != nil {
		missing = lookupTagNames(ctx, ids, names)
	}
	if len(missing) == 0 {
		return names, nil
	}

	fetched, err := fetch(missing)
	if err != nil {
		return nil, err
	}
	for id, name := range fetched {
		names[id] = name
	}

	if client != nil && len(fetched) > 0 {
		storeTagNames(ctx, fetched, ttl)
	}
	return names, nil
}

func lookupTagNames(ctx context.Context, ids []uint, into map[uint]string) []uint {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = TagKey(id)
	}

	span, ctx := observability.StartRedisSpan(ctx, "mget", len(keys))
	defer span.End()

	vals, err := client.MGet(ctx, keys...).Result()
	if err != nil {
		span.SetError(err)
		return ids
	}

	var missing []uint
	for i, v := range vals {
		name, ok := v.(string)
		if !ok || name == "" {
			missing = append(missing, ids[i])
			continue
		}
		into[ids[i]] = name
	}
	return missing
}

// best-effort
func storeTagNames(ctx context.Context, names map[uint]string, ttl time.Duration) {
	_, _ = client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for id, name := range names {
			p.Set(ctx, TagKey(id), name, ttl)
		}
		return nil
	})
}
