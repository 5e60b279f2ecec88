// Package service wires the scoring engine, event store and score cache
// into the dependency bundle the HTTP API consumes.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lumora/pulse/internal/adapters/cache"
	"github.com/lumora/pulse/internal/adapters/eventstore"
	"github.com/lumora/pulse/internal/domain/scoring"
	"github.com/lumora/pulse/internal/domain/types"
	"github.com/lumora/pulse/internal/engine"
	"github.com/lumora/pulse/pkg/clock"
	"github.com/lumora/pulse/pkg/logger"
)

// Service owns the component lifecycle for the scoring system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store  *eventstore.SQLiteStore
	scores *cache.InMemoryStore
	eng    *engine.Engine
	clk    clock.Clock

	// Configuration
	dbPath          string
	rowLimit        int
	windowDays      int
	highRiskDays    int
	batchWorkers    int
	sourceTimeout   time.Duration
	cacheMaxAge     time.Duration
	scanRate        float64
	scanBurst       int
	intentWeights   map[types.SignalType]float64
	ghostingWeights map[types.SignalType]float64

	// State
	started bool

	// Logging
	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		clk:           clock.System(),
		dbPath:        "pulse.db",
		rowLimit:      50,
		windowDays:    30,
		highRiskDays:  7,
		batchWorkers:  8,
		sourceTimeout: 3 * time.Second,
		cacheMaxAge:   24 * time.Hour,
		scanRate:      50,
		scanBurst:     10,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the event store and builds the engine.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting scoring service...")

	engineOpts := []engine.Option{
		engine.WithLogger(s.logger.Named("engine")),
		engine.WithWindowDays(s.windowDays),
		engine.WithHighRiskWindow(s.highRiskDays),
		engine.WithBatchWorkers(s.batchWorkers),
		engine.WithSourceTimeout(s.sourceTimeout),
		engine.WithCacheMaxAge(s.cacheMaxAge),
		engine.WithRateLimit(s.scanRate, s.scanBurst),
	}
	if len(s.intentWeights) > 0 || len(s.ghostingWeights) > 0 {
		intentScorer, ghostScorer := s.buildScorers()
		if err := intentScorer.Validate(); err != nil {
			return fmt.Errorf("intent weights: %w", err)
		}
		if err := ghostScorer.Validate(); err != nil {
			return fmt.Errorf("ghosting weights: %w", err)
		}
		engineOpts = append(engineOpts, engine.WithScorers(intentScorer, ghostScorer))
	}

	store, err := eventstore.OpenSQLite(s.dbPath, eventstore.WithRowLimit(s.rowLimit))
	if err != nil {
		return err
	}
	s.store = store
	s.scores = cache.NewInMemoryStore()

	gate := cache.NewGateway(s.scores, s.clk, cache.WithLogger(s.logger.Named("cache")))
	s.eng = engine.New(store, gate, s.clk, engineOpts...)

	s.started = true
	s.logger.Info(ctx, "scoring service started",
		logger.String("dbPath", s.dbPath),
		logger.Int("windowDays", s.windowDays),
		logger.Int("batchWorkers", s.batchWorkers),
	)
	return nil
}

// buildScorers applies configured weight overrides on top of the defaults.
func (s *Service) buildScorers() (intent, ghosting *scoring.WeightedSignalScorer) {
	intentWeights := scoring.IntentWeights()
	for st, w := range s.intentWeights {
		intentWeights[st] = w
	}
	ghostWeights := scoring.GhostingWeights()
	for st, w := range s.ghostingWeights {
		ghostWeights[st] = w
	}
	return scoring.NewWeightedSignalScorer(intentWeights, scoring.IntentTiers()),
		scoring.NewWeightedSignalScorer(ghostWeights, scoring.GhostingTiers())
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(context.Background(), "stopping scoring service...")
	if s.store != nil {
		_ = s.store.Close()
	}
	s.started = false
	s.logger.Info(context.Background(), "scoring service stopped")
}

// Store exposes the event store for seeding in tests and tools.
func (s *Service) Store() *eventstore.SQLiteStore {
	return s.store
}

// ComputeIntentScore scores a subject's engagement.
func (s *Service) ComputeIntentScore(ctx context.Context, subjectID string, windowDays int) (types.ScoreResult, error) {
	return s.eng.ComputeIntentScore(ctx, subjectID, windowDays)
}

// ComputeGhostingRisk scores the silence risk of one conversation side.
func (s *Service) ComputeGhostingRisk(ctx context.Context, conversationID, subjectID string) (types.ScoreResult, error) {
	return s.eng.ComputeGhostingRisk(ctx, conversationID, subjectID)
}

// ListHighRiskConversations returns high-tier results sorted by score.
func (s *Service) ListHighRiskConversations(ctx context.Context, withinDays int) ([]types.ScoreResult, error) {
	return s.eng.ListHighRiskConversations(ctx, withinDays)
}

// Warning returns the softened nudge for a conversation participant.
func (s *Service) Warning(ctx context.Context, conversationID, subjectID string) types.Warning {
	return s.eng.Warning(ctx, conversationID, subjectID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":      s.started,
		"windowDays":   s.windowDays,
		"batchWorkers": s.batchWorkers,
	}
	if s.scores != nil {
		stats["cachedScores"] = s.scores.Size()
	}
	return stats
}
