// Package types contains the scoring result types shared across layers.
package types

import "time"

// Trend is the qualitative direction of a signal's recent change.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
	TrendCritical  Trend = "critical"
)

// SignalType identifies one behavioral measurement.
type SignalType string

// Intent pipeline signals.
const (
	SignalReplySpeed         SignalType = "reply_speed"
	SignalGiftingConsistency SignalType = "gifting_consistency"
	SignalMeetupSuccess      SignalType = "meetup_success"
	SignalContentUnlock      SignalType = "content_unlock"
)

// Ghosting pipeline signals. Message depth is shared by both pipelines.
const (
	SignalReplyLatency    SignalType = "reply_latency"
	SignalMessageDepth    SignalType = "message_depth"
	SignalGhostingHistory SignalType = "ghosting_history"
	SignalOnlinePresence  SignalType = "online_presence"
	SignalGiftActivity    SignalType = "gift_activity"
)

// Signal is one independently computed behavioral measurement plus its
// trend classification.
//
// Invariant: ChangePercent is 0 whenever PreviousValue is 0, so the value
// is always finite.
type Signal struct {
	Type          SignalType `json:"type"`
	Trend         Trend      `json:"trend"`
	CurrentValue  float64    `json:"current_value"`
	PreviousValue float64    `json:"previous_value"`
	ChangePercent float64    `json:"change_percent"`
	Description   string     `json:"description"`
}

// Pipeline names the two scoring pipelines.
type Pipeline string

const (
	PipelineIntent   Pipeline = "intent"
	PipelineGhosting Pipeline = "ghosting"
)

// Tier is the discrete output category derived from the aggregate score.
type Tier string

// Intent tiers.
const (
	TierHot  Tier = "hot"
	TierWarm Tier = "warm"
	TierCold Tier = "cold"
)

// Ghosting-risk tiers.
const (
	TierLow      Tier = "low"
	TierMedium   Tier = "medium"
	TierHigh     Tier = "high"
	TierGhosting Tier = "ghosting"
)

// ScoreResult is the outcome of one pipeline run for one subject.
// Given the same event snapshot and clock anchor the result is fully
// deterministic.
type ScoreResult struct {
	SubjectID      string    `json:"subject_id"`
	ConversationID string    `json:"conversation_id,omitempty"`
	Pipeline       Pipeline  `json:"pipeline"`
	OverallScore   int       `json:"overall_score"`
	Tier           Tier      `json:"tier"`
	Signals        []Signal  `json:"signals"`
	Insights       []string  `json:"insights"`
	ComputedAt     time.Time `json:"computed_at"`
}

// Warning is the softened, user-facing nudge derived from a ghosting tier.
type Warning struct {
	ShowWarning bool   `json:"show_warning"`
	Message     string `json:"message"`
	Suggestion  string `json:"suggestion"`
}
