package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// failingBackend simulates a broken cache backend: every operation fails
// with the configured error.
type failingBackend struct {
	err error
}

func (fb *failingBackend) Get(context.Context, string) ([]byte, error) {
	return nil, fb.err
}

func (fb *failingBackend) Set(context.Context, string, []byte, time.Duration) error {
	return fb.err
}

func (fb *failingBackend) Delete(context.Context, string) error {
	return fb.err
}

func TestSafeGetHitAndMiss(t *testing.T) {
	ctx := context.Background()
	s := NewSafe(NewMemoryBackend(), zerolog.Nop())

	if _, ok := s.SafeGet(ctx, "missing"); ok {
		t.Fatalf("expected miss for unknown key")
	}

	s.SafeSet(ctx, "k", []byte(`"v"`), time.Minute)
	b, ok := s.SafeGet(ctx, "k")
	if !ok || string(b) != `"v"` {
		t.Fatalf("expected hit with stored value, got ok=%v value=%q", ok, b)
	}

	s.SafeDelete(ctx, "k")
	if _, ok := s.SafeGet(ctx, "k"); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestSafeOperationsDegradeOnBackendFailure(t *testing.T) {
	ctx := context.Background()
	failures := []struct {
		name string
		err  error
	}{
		{"connection refused", errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")},
		{"timeout", errors.New("i/o timeout")},
		{"malformed response", errors.New("proto: invalid reply")},
	}

	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSafe(&failingBackend{err: tt.err}, zerolog.Nop())

			b, ok := s.SafeGet(ctx, "k")
			if ok || b != nil {
				t.Fatalf("degraded get should report a miss, got ok=%v value=%q", ok, b)
			}
			// Must be silent no-ops, never panics or errors.
			s.SafeSet(ctx, "k", []byte("v"), time.Minute)
			s.SafeDelete(ctx, "k")
		})
	}
}

func TestSafeSetRejectsNonPositiveTTL(t *testing.T) {
	ctx := context.Background()
	mb := NewMemoryBackend()
	s := NewSafe(mb, zerolog.Nop())

	s.SafeSet(ctx, "k", []byte("v"), 0)
	s.SafeSet(ctx, "k2", []byte("v"), -time.Second)

	if mb.Len() != 0 {
		t.Fatalf("expected nothing stored, got %d entries", mb.Len())
	}
}

func TestMemoryBackendExpiry(t *testing.T) {
	ctx := context.Background()
	mb := NewMemoryBackend()
	now := time.Now()
	mb.now = func() time.Time { return now }

	if err := mb.Set(ctx, "k", []byte("v"), 30*time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}

	if _, err := mb.Get(ctx, "k"); err != nil {
		t.Fatalf("expected hit before expiry, got %v", err)
	}

	now = now.Add(31 * time.Second)
	if _, err := mb.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}
}
