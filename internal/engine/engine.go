// Package engine orchestrates the two scoring pipelines: it fetches event
// history concurrently, drives the extractors, classifiers and scorers, and
// wraps everything behind the read-through score cache.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/lumora/pulse/internal/adapters/cache"
	"github.com/lumora/pulse/internal/adapters/eventstore"
	"github.com/lumora/pulse/internal/domain/model"
	"github.com/lumora/pulse/internal/domain/scoring"
	"github.com/lumora/pulse/internal/domain/signal"
	"github.com/lumora/pulse/pkg/clock"
	"github.com/lumora/pulse/pkg/logger"
	"github.com/lumora/pulse/pkg/metrics"
)

// Default engine configuration constants.
const (
	defaultWindowDays         = 30
	defaultHighRiskWindowDays = 7
	defaultSourceTimeout      = 3 * time.Second
	defaultBatchWorkers       = 8
	defaultCacheMaxAge        = 24 * time.Hour
	defaultRateLimit          = rate.Limit(50)
	defaultRateBurst          = 10

	// ghostHistoryWindowDays bounds how far back ghost detection looks.
	// Wider than the scoring window so trailing messages of older
	// conversations are still visible.
	ghostHistoryWindowDays = 60

	// maxIntentThreads caps how many of the subject's most recent
	// conversations are pulled for reply-speed extraction.
	maxIntentThreads = 3
)

// Engine computes intent and ghosting-risk scores. It holds no per-subject
// state; every scoring call is an independent unit of work.
type Engine struct {
	store eventstore.EventStore
	gate  *cache.Gateway
	clk   clock.Clock
	log   logger.Logger

	limiter      *rate.Limiter
	intentScorer *scoring.WeightedSignalScorer
	ghostScorer  *scoring.WeightedSignalScorer

	windowDays         int
	highRiskWindowDays int
	sourceTimeout      time.Duration
	batchWorkers       int
	cacheMaxAge        time.Duration
}

// New creates an Engine over an event store, a cache gateway and a clock.
func New(store eventstore.EventStore, gate *cache.Gateway, clk clock.Clock, opts ...Option) *Engine {
	e := &Engine{
		store:         store,
		gate:          gate,
		clk:           clk,
		log:           nil, // resolved on first use when unset
		limiter:       rate.NewLimiter(defaultRateLimit, defaultRateBurst),
		intentScorer:  scoring.NewWeightedSignalScorer(scoring.IntentWeights(), scoring.IntentTiers()),
		ghostScorer:   scoring.NewWeightedSignalScorer(scoring.GhostingWeights(), scoring.GhostingTiers()),
		windowDays:         defaultWindowDays,
		highRiskWindowDays: defaultHighRiskWindowDays,
		sourceTimeout:      defaultSourceTimeout,
		batchWorkers:       defaultBatchWorkers,
		cacheMaxAge:        defaultCacheMaxAge,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.Get().Named("engine")
	}
	metrics.UpdateBatchWorkerCount(e.batchWorkers)
	return e
}

// fetchSource runs one store query under the per-source timeout. A timed
// out read degrades to the zero value so the pipeline falls back to its
// insufficient-data path instead of failing the whole scoring call; any
// other failure escalates as ErrDataUnavailable.
func fetchSource[T any](ctx context.Context, timeout time.Duration, source string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	start := time.Now()
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	v, err := fn(cctx)
	metrics.RecordStoreQueryDuration(source, float64(time.Since(start).Milliseconds()))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			metrics.RecordStoreQueryTimeout(source)
			return zero, nil
		}
		metrics.RecordStoreQueryError(source)
		return zero, fmt.Errorf("%w: %s: %v", ErrDataUnavailable, source, err)
	}
	return v, nil
}

// fetchThreads pulls the trailing messages for each conversation
// concurrently. A timed out read leaves that thread empty; any other
// failure escalates as ErrDataUnavailable so an outage never reads as a
// clean history.
func (e *Engine) fetchThreads(ctx context.Context, convs []model.ConversationMeta, since time.Time) ([]signal.ConversationThread, error) {
	threads := make([]signal.ConversationThread, len(convs))
	errs := make([]error, len(convs))
	done := make(chan struct{})
	for i := range convs {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			meta := convs[i]
			msgs, err := fetchSource(ctx, e.sourceTimeout, "conversation_messages", func(cctx context.Context) ([]model.Message, error) {
				return e.store.ListConversationMessages(cctx, meta.ID, since)
			})
			if err != nil {
				errs[i] = err
				return
			}
			threads[i] = signal.ConversationThread{Meta: meta, Messages: msgs}
		}(i)
	}
	for range convs {
		<-done
	}
	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("conversation %s: %w", convs[i].ID, err)
		}
	}
	return threads, nil
}
