package cache

import (
	"context"
	"encoding/json"
	"time"
)

// GetOrCompute returns the cached value under key if one is present,
// otherwise invokes compute, stores its result best-effort and returns it.
//
// The error asymmetry is deliberate: cache failures are invisible (a
// degraded backend turns every call into a compute), while compute failures
// propagate unchanged — a broken upstream must stay visible.
//
// Concurrent callers that miss the same key each compute independently;
// last write wins. Computations for the same key at the same time are
// expected to be idempotent and equivalent, so no coordination is needed.
func GetOrCompute[T any](ctx context.Context, s *Safe, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	if b, ok := s.SafeGet(ctx, key); ok {
		var cached T
		if err := json.Unmarshal(b, &cached); err == nil {
			return cached, nil
		}
		// Undecodable payload: treat as a miss and fall through to compute.
		s.log.Debug().Str("key", key).Msg("cache entry undecodable, recomputing")
	}

	value, err := compute(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	if b, err := json.Marshal(value); err == nil {
		s.SafeSet(ctx, key, b, ttl)
	} else {
		s.log.Debug().Str("key", key).Err(err).Msg("computed value not serializable, not storing")
	}
	return value, nil
}
