package service

import (
	"time"

	"github.com/lumora/pulse/internal/domain/types"
	"github.com/lumora/pulse/pkg/clock"
	"github.com/lumora/pulse/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithClock replaces the wall clock, for deterministic tests.
func WithClock(clk clock.Clock) Option {
	return func(s *Service) {
		if clk != nil {
			s.clk = clk
		}
	}
}

// WithDBPath sets the SQLite event database path.
func WithDBPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.dbPath = path
		}
	}
}

// WithRowLimit bounds rows per event store query.
func WithRowLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.rowLimit = limit
		}
	}
}

// WithWindowDays sets the default scoring window.
func WithWindowDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.windowDays = days
		}
	}
}

// WithHighRiskWindowDays sets the default window of the high-risk scan.
func WithHighRiskWindowDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.highRiskDays = days
		}
	}
}

// WithBatchWorkers sets the high-risk scan pool size.
func WithBatchWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchWorkers = n
		}
	}
}

// WithSourceTimeout bounds each event store read.
func WithSourceTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.sourceTimeout = d
		}
	}
}

// WithCacheMaxAge sets score cache freshness.
func WithCacheMaxAge(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.cacheMaxAge = d
		}
	}
}

// WithScanRate throttles batch scoring.
func WithScanRate(perSecond float64, burst int) Option {
	return func(s *Service) {
		if perSecond > 0 && burst > 0 {
			s.scanRate = perSecond
			s.scanBurst = burst
		}
	}
}

// WithIntentWeights overrides intent signal weights by name.
func WithIntentWeights(weights map[string]float64) Option {
	return func(s *Service) {
		s.intentWeights = toSignalWeights(weights)
	}
}

// WithGhostingWeights overrides ghosting signal weights by name.
func WithGhostingWeights(weights map[string]float64) Option {
	return func(s *Service) {
		s.ghostingWeights = toSignalWeights(weights)
	}
}

func toSignalWeights(weights map[string]float64) map[types.SignalType]float64 {
	if len(weights) == 0 {
		return nil
	}
	out := make(map[types.SignalType]float64, len(weights))
	for name, w := range weights {
		out[types.SignalType(name)] = w
	}
	return out
}
