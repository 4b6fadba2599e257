package cache

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Safe wraps a Backend so that no backend failure ever reaches a caller.
// A connection refused, a timeout and a malformed response all degrade the
// same way: reads report a miss, writes and deletes become no-ops. Failures
// are logged at debug level since an offline cache is an expected
// operational condition, not a defect.
type Safe struct {
	backend Backend
	log     zerolog.Logger
}

// NewSafe builds a facade over backend. The backend is an explicit
// dependency so tests can substitute an in-memory or failing one.
func NewSafe(backend Backend, log zerolog.Logger) *Safe {
	return &Safe{backend: backend, log: log}
}

// SafeGet looks up key. It returns (value, true) on a hit and (nil, false)
// when the key is absent or the backend is unreachable. It never fails.
func (s *Safe) SafeGet(ctx context.Context, key string) ([]byte, bool) {
	b, err := s.backend.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, false
	}
	if err != nil {
		s.log.Debug().Str("key", key).Err(err).Msg("cache offline, continuing without cache")
		return nil, false
	}
	return b, true
}

// SafeSet stores value under key for ttl, best-effort. A lost write is safe
// because the caller recomputes on the next read. Non-positive TTLs are
// rejected: storing without expiry would let an entry outlive its logical
// lifetime.
func (s *Safe) SafeSet(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		s.log.Debug().Str("key", key).Dur("ttl", ttl).Msg("cache set skipped, non-positive ttl")
		return
	}
	if err := s.backend.Set(ctx, key, value, ttl); err != nil {
		s.log.Debug().Str("key", key).Err(err).Msg("cache offline, not storing")
	}
}

// SafeDelete removes key, best-effort. A failed delete is harmless: the
// stale entry self-expires via its TTL.
func (s *Safe) SafeDelete(ctx context.Context, key string) {
	if err := s.backend.Delete(ctx, key); err != nil {
		s.log.Debug().Str("key", key).Err(err).Msg("cache offline, not deleting")
	}
}
