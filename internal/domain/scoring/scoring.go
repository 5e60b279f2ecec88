// Package scoring maps signals to 0-100 sub-scores and combines them into a
// single weighted score with a tier. Both pipelines share one
// WeightedSignalScorer; only their weight tables, tier cuts and signal
// order differ.
package scoring

import (
	"math"

	"github.com/lumora/pulse/internal/domain/types"
)

const maxScoreValue = 100

// Trend lookup tables. Risk-style signals score high when deteriorating;
// positive-style signals score high when improving.
var riskTrendScores = map[types.Trend]float64{ //nolint:gochecknoglobals // fixed lookup table
	types.TrendImproving: 10,
	types.TrendStable:    30,
	types.TrendDeclining: 60,
	types.TrendCritical:  90,
}

var positiveTrendScores = map[types.Trend]float64{ //nolint:gochecknoglobals // fixed lookup table
	types.TrendImproving: 90,
	types.TrendStable:    70,
	types.TrendDeclining: 40,
	types.TrendCritical:  10,
}

// RiskTrendScore maps a trend to a risk sub-score (higher is worse).
func RiskTrendScore(t types.Trend) float64 {
	if s, ok := riskTrendScores[t]; ok {
		return s
	}
	return riskTrendScores[types.TrendStable]
}

// PositiveTrendScore maps a trend to an engagement sub-score (higher is
// better).
func PositiveTrendScore(t types.Trend) float64 {
	if s, ok := positiveTrendScores[t]; ok {
		return s
	}
	return positiveTrendScores[types.TrendStable]
}

// step is one breakpoint in a stepwise score table.
type step struct {
	limit float64
	score float64
}

// Reply speed: score decreases as average reply minutes grows past each
// breakpoint.
var replySpeedSteps = []step{ //nolint:gochecknoglobals // fixed lookup table
	{5, 100}, {15, 90}, {30, 80}, {60, 70}, {120, 60}, {360, 50}, {1440, 35},
}

const replySpeedFloor = 20.0

// ReplySpeedScore maps average reply minutes to an engagement sub-score.
func ReplySpeedScore(avgMinutes float64) float64 {
	for _, s := range replySpeedSteps {
		if avgMinutes <= s.limit {
			return s.score
		}
	}
	return replySpeedFloor
}

// Ghost rate: score decreases as the historical ghosting rate grows.
var ghostRateSteps = []step{ //nolint:gochecknoglobals // fixed lookup table
	{0.1, 100}, {0.2, 85}, {0.3, 70}, {0.4, 55}, {0.5, 40}, {0.7, 25},
}

const ghostRateFloor = 10.0

// GhostRateScore maps a historical ghosting rate to a reliability sub-score
// (higher is better). The ghosting pipeline inverts it (100 - score) to get
// its risk sub-score, which keeps the published breakpoints intact.
func GhostRateScore(rate float64) float64 {
	for _, s := range ghostRateSteps {
		if rate <= s.limit {
			return s.score
		}
	}
	return ghostRateFloor
}

// Gifting consistency: score grows with gifts-per-active-day.
var giftingRateSteps = []step{ //nolint:gochecknoglobals // fixed lookup table
	{0.1, 55}, {0.25, 70}, {0.5, 85},
}

const (
	giftingTopScore = 100.0
	giftingLowScore = 40.0
	giftingTopRate  = 1.0
)

// GiftingConsistencyScore maps a gifting rate to an engagement sub-score.
// Any nonzero rate scores at least the low band; zero gifts is handled by
// the caller's neutral fallback.
func GiftingConsistencyScore(rate float64) float64 {
	if rate >= giftingTopRate {
		return giftingTopScore
	}
	for i := len(giftingRateSteps) - 1; i >= 0; i-- {
		if rate >= giftingRateSteps[i].limit {
			return giftingRateSteps[i].score
		}
	}
	return giftingLowScore
}

// RatioScore converts a 0-1 success ratio straight into a 0-100 sub-score.
func RatioScore(ratio float64) float64 {
	return clamp(ratio * maxScoreValue)
}

// Neutral fallback sub-scores for subjects with no history on a source.
// Short history must not read as either strong engagement or high risk.
// Carried over from production tuning; configurable upstream.
const (
	NeutralReplyLatency = 50.0
	NeutralMessageDepth = 40.0
	NeutralGhostHistory = 40.0
	NeutralMeetup       = 50.0
	NeutralUnlock       = 50.0
	NeutralPresence     = 30.0
	AbsentGiftActivity  = 60.0
	NeutralGifting      = 40.0
)

// TierCut maps the lower inclusive edge of a score band to its tier.
type TierCut struct {
	Min  int
	Tier types.Tier
}

// Default tier tables. Cuts are lower-edge inclusive and ordered from the
// highest band down.
func IntentTiers() []TierCut {
	return []TierCut{
		{Min: 70, Tier: types.TierHot},
		{Min: 45, Tier: types.TierWarm},
		{Min: 0, Tier: types.TierCold},
	}
}

func GhostingTiers() []TierCut {
	return []TierCut{
		{Min: 80, Tier: types.TierGhosting},
		{Min: 60, Tier: types.TierHigh},
		{Min: 40, Tier: types.TierMedium},
		{Min: 0, Tier: types.TierLow},
	}
}

// Default weight tables. Both sum to 1.0, but Aggregate divides by the
// actual sum so a misconfigured table still yields a sane weighted mean.
func IntentWeights() map[types.SignalType]float64 {
	return map[types.SignalType]float64{
		types.SignalReplySpeed:         0.30,
		types.SignalMessageDepth:       0.20,
		types.SignalGiftingConsistency: 0.20,
		types.SignalMeetupSuccess:      0.20,
		types.SignalContentUnlock:      0.10,
	}
}

func GhostingWeights() map[types.SignalType]float64 {
	return map[types.SignalType]float64{
		types.SignalReplyLatency:    0.25,
		types.SignalMessageDepth:    0.15,
		types.SignalGhostingHistory: 0.05,
		types.SignalOnlinePresence:  0.35,
		types.SignalGiftActivity:    0.20,
	}
}

// WeightedSignalScorer combines per-signal sub-scores into one 0-100 score
// and classifies it into a tier.
type WeightedSignalScorer struct {
	weights map[types.SignalType]float64
	tiers   []TierCut
}

// NewWeightedSignalScorer creates a scorer from a weight table and tier
// cuts, applying any options.
func NewWeightedSignalScorer(weights map[types.SignalType]float64, tiers []TierCut, opts ...Option) *WeightedSignalScorer {
	s := &WeightedSignalScorer{
		weights: make(map[types.SignalType]float64, len(weights)),
		tiers:   tiers,
	}
	for st, w := range weights {
		if w > 0 {
			s.weights[st] = w
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate reports whether the weight table has any mass to aggregate
// with. The constructor drops non-positive weights, so a table configured
// to all zeros would otherwise silently score everything 0.
func (s *WeightedSignalScorer) Validate() error {
	if len(s.weights) == 0 {
		return ErrEmptyWeights
	}
	return nil
}

// Aggregate computes the weighted mean of the sub-scores, rounded half-up
// and clamped to [0,100]. Signals without a configured weight are ignored;
// an all-zero weight table yields 0.
func (s *WeightedSignalScorer) Aggregate(subScores map[types.SignalType]float64) int {
	var weighted, total float64
	for st, score := range subScores {
		w, ok := s.weights[st]
		if !ok {
			continue
		}
		weighted += clamp(score) * w
		total += w
	}
	if total == 0 {
		return 0
	}
	return int(math.Floor(weighted/total + 0.5))
}

// TierFor classifies an aggregate score against the tier cuts.
func (s *WeightedSignalScorer) TierFor(score int) types.Tier {
	for _, cut := range s.tiers {
		if score >= cut.Min {
			return cut.Tier
		}
	}
	// Cuts always end at 0; reaching here means a negative score, which
	// Aggregate never produces.
	return s.tiers[len(s.tiers)-1].Tier
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(maxScoreValue, v))
}
