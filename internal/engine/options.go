package engine

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/lumora/pulse/internal/domain/scoring"
	"github.com/lumora/pulse/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithWindowDays sets the default scoring window.
func WithWindowDays(days int) Option {
	return func(e *Engine) {
		if days > 0 {
			e.windowDays = days
		}
	}
}

// WithHighRiskWindow sets the default window of the high-risk scan, used
// when the caller does not pass one.
func WithHighRiskWindow(days int) Option {
	return func(e *Engine) {
		if days > 0 {
			e.highRiskWindowDays = days
		}
	}
}

// WithSourceTimeout bounds each event store read.
func WithSourceTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.sourceTimeout = d
		}
	}
}

// WithBatchWorkers sets the concurrency limit of the high-risk scan pool.
func WithBatchWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.batchWorkers = n
		}
	}
}

// WithCacheMaxAge sets how long cached scores stay fresh.
func WithCacheMaxAge(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.cacheMaxAge = d
		}
	}
}

// WithRateLimit throttles scoring calls issued by the batch scan.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(e *Engine) {
		if perSecond > 0 && burst > 0 {
			e.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithScorers replaces the per-pipeline weighted scorers.
func WithScorers(intent, ghosting *scoring.WeightedSignalScorer) Option {
	return func(e *Engine) {
		if intent != nil {
			e.intentScorer = intent
		}
		if ghosting != nil {
			e.ghostScorer = ghosting
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}
