// Package warm pre-populates cache entries for tracked resources so user
// traffic observes hits instead of paying the first-request cost.
package warm

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mapspro/mapspro/cache"
)

// Summary reports the outcome of one warming batch.
type Summary struct {
	Warmed int
	Failed int
}

// All warms the cache entry of every resource id. A failing resource is
// logged and counted but never halts the batch: one bad port must not
// spoil prewarming for the rest. This is the one caller that deliberately
// swallows upstream compute errors.
func All[T any](ctx context.Context, sc *cache.Safe, log zerolog.Logger, ids []int64, keyFor func(int64) string, ttl time.Duration, compute func(context.Context, int64) (T, error)) Summary {
	var sum Summary
	for _, id := range ids {
		_, err := cache.GetOrCompute(ctx, sc, keyFor(id), ttl, func(ctx context.Context) (T, error) {
			return compute(ctx, id)
		})
		if err != nil {
			sum.Failed++
			log.Warn().Int64("resource", id).Err(err).Msg("prewarm failed for resource")
			continue
		}
		sum.Warmed++
	}

	log.Info().Int("warmed", sum.Warmed).Int("failed", sum.Failed).Msg("prewarm batch done")
	return sum
}
