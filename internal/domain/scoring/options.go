package scoring

import "github.com/lumora/pulse/internal/domain/types"

// Option applies a configuration option to the WeightedSignalScorer.
type Option func(*WeightedSignalScorer)

// WithWeights replaces the weight table. Non-positive weights are dropped.
func WithWeights(weights map[types.SignalType]float64) Option {
	return func(s *WeightedSignalScorer) {
		if len(weights) == 0 {
			return
		}
		s.weights = make(map[types.SignalType]float64, len(weights))
		for st, w := range weights {
			if w > 0 {
				s.weights[st] = w
			}
		}
	}
}

// WithTiers replaces the tier cut table.
func WithTiers(tiers []TierCut) Option {
	return func(s *WeightedSignalScorer) {
		if len(tiers) > 0 {
			s.tiers = tiers
		}
	}
}
