package cache

import (
	"fmt"
	"time"
)

const (
	TagKeyPrefix       = "tag:%d:name"
	BlacklistKeyPrefix = "blacklist:%s"
	RateLimitKeyPrefix = "ratelimit:%s:%s"
)

// TagTTL is the default lifetime of cached tag names. Tag names never change.
const TagTTL = time.Hour

func TagKey(tagID uint) string {
	return fmt.Sprintf(TagKeyPrefix, tagID)
}

func BlacklistKey(jti string) string {
	return fmt.Sprintf(BlacklistKeyPrefix, jti)
}

func RateLimitKey(scope, subject string) string {
	return fmt.Sprintf(RateLimitKeyPrefix, scope, subject)
}
