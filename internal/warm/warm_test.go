package warm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mapspro/mapspro/cache"
)

func TestAllToleratesPerResourceFailures(t *testing.T) {
	ctx := context.Background()
	mb := cache.NewMemoryBackend()
	sc := cache.NewSafe(mb, zerolog.Nop())

	ids := []int64{1, 2, 3, 4, 5}
	sum := All(ctx, sc, zerolog.Nop(), ids, cache.PortOpticalKey, time.Minute,
		func(_ context.Context, id int64) (string, error) {
			if id == 3 {
				return "", errors.New("zabbix: host unreachable")
			}
			return fmt.Sprintf("snapshot-%d", id), nil
		})

	require.Equal(t, Summary{Warmed: 4, Failed: 1}, sum)

	// The four healthy resources are populated, the failing one is not.
	for _, id := range []int64{1, 2, 4, 5} {
		_, ok := sc.SafeGet(ctx, cache.PortOpticalKey(id))
		require.True(t, ok, "port %d should be warm", id)
	}
	_, ok := sc.SafeGet(ctx, cache.PortOpticalKey(3))
	require.False(t, ok, "failing port must not be cached")
}

func TestAllSkipsAlreadyWarmEntries(t *testing.T) {
	ctx := context.Background()
	sc := cache.NewSafe(cache.NewMemoryBackend(), zerolog.Nop())

	calls := map[int64]int{}
	compute := func(_ context.Context, id int64) (string, error) {
		calls[id]++
		return "v", nil
	}

	All(ctx, sc, zerolog.Nop(), []int64{1, 2}, cache.PortOpticalKey, time.Minute, compute)
	All(ctx, sc, zerolog.Nop(), []int64{1, 2}, cache.PortOpticalKey, time.Minute, compute)

	require.Equal(t, map[int64]int{1: 1, 2: 1}, calls, "warm entries must not be recomputed")
}

func TestAllCompletesDuringBackendOutage(t *testing.T) {
	ctx := context.Background()
	sc := cache.NewSafe(downBackend{}, zerolog.Nop())

	sum := All(ctx, sc, zerolog.Nop(), []int64{1, 2, 3}, cache.PortOpticalKey, time.Minute,
		func(context.Context, int64) (string, error) { return "v", nil })

	// Writes are lost but the batch itself succeeds.
	require.Equal(t, Summary{Warmed: 3, Failed: 0}, sum)
}

type downBackend struct{}

func (downBackend) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func (downBackend) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

func (downBackend) Delete(context.Context, string) error {
	return errors.New("connection refused")
}
