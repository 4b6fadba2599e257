// Package ratelimit bounds the rate of named actions per actor using the
// shared cache. The gate fails open: when the cache backend is unreachable
// a request is never denied, trading strict accuracy for availability.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/mapspro/mapspro/cache"
)

// Gate counts requests per (actor, action) in fixed time windows.
type Gate struct {
	cache *cache.Safe
	log   zerolog.Logger
	now   func() time.Time
}

func NewGate(c *cache.Safe, log zerolog.Logger) *Gate {
	return &Gate{cache: c, log: log, now: time.Now}
}

// Allow reports whether actor may perform action, permitting at most limit
// requests per window. Denial requires a successfully read over-threshold
// counter; a degraded cache read counts as an empty window, and the
// increment is already a best-effort no-op when the backend is down, so an
// outage always resolves to allow.
func (g *Gate) Allow(ctx context.Context, actor, action string, limit int, window time.Duration) bool {
	seconds := int64(window / time.Second)
	if limit <= 0 || seconds <= 0 {
		return true
	}

	now := g.now()
	bucket := now.Unix() / seconds
	key := fmt.Sprintf("rate_limit:%s:%s:%d", action, actor, bucket)

	count := 0
	if b, ok := g.cache.SafeGet(ctx, key); ok {
		n, err := strconv.Atoi(string(b))
		if err != nil {
			// Corrupt counter: start the window over rather than deny.
			g.log.Debug().Str("key", key).Msg("unreadable rate counter, resetting")
		} else {
			count = n
		}
	}

	if count >= limit {
		g.log.Info().Str("actor", actor).Str("action", action).Int("count", count).Msg("rate limit exceeded")
		return false
	}

	remaining := time.Duration((bucket+1)*seconds-now.Unix()) * time.Second
	g.cache.SafeSet(ctx, key, []byte(strconv.Itoa(count+1)), remaining)
	return true
}
