package cache

import (
	"context"
	"time"

	"github.com/lumora/pulse/internal/domain/types"
	"github.com/lumora/pulse/pkg/clock"
	"github.com/lumora/pulse/pkg/logger"
	"github.com/lumora/pulse/pkg/metrics"
)

// ComputeFunc produces a fresh score when the cache cannot serve one.
type ComputeFunc func(ctx context.Context) (types.ScoreResult, error)

// Gateway is the read-through cache over score computation. It exclusively
// owns cache reads and writes; orchestrators never touch the store
// directly.
type Gateway struct {
	store Store
	clk   clock.Clock
	log   logger.Logger
}

// NewGateway creates a Gateway over the given store and clock.
func NewGateway(store Store, clk clock.Clock, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		store: store,
		clk:   clk,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GetOrCompute returns the cached result for key when it is younger than
// maxAge, otherwise computes a fresh one and writes it through. Concurrent
// misses for the same key may both compute; results are deterministic for
// the same event snapshot, so the last writer winning is an accepted race.
func (g *Gateway) GetOrCompute(ctx context.Context, key string, maxAge time.Duration, compute ComputeFunc) (types.ScoreResult, error) {
	now := g.clk.Now()

	entry, ok, err := g.store.Get(ctx, key)
	switch {
	case err != nil:
		// A broken cache read degrades to a recompute rather than failing
		// the request.
		g.warn(ctx, "cache read failed", key, err)
	case ok && now.Sub(entry.UpdatedAt) <= maxAge:
		metrics.RecordCacheHit()
		return entry.Result, nil
	case ok:
		metrics.RecordCacheStale()
	default:
		metrics.RecordCacheMiss()
	}

	result, err := compute(ctx)
	if err != nil {
		return types.ScoreResult{}, err
	}

	if err := g.store.Put(ctx, Entry{Key: key, Result: result, UpdatedAt: now}); err != nil {
		g.warn(ctx, "cache write failed", key, err)
	}
	return result, nil
}

func (g *Gateway) warn(ctx context.Context, msg, key string, err error) {
	if g.log == nil {
		return
	}
	g.log.Warn(ctx, msg, logger.String("key", key), logger.Error(err))
}
