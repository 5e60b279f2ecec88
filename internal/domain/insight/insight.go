// Package insight turns scored signals into short human-readable
// explanations and user-facing nudges. All output is fixed copy selected by
// signal and direction; no free text, no randomness. Output order follows
// the pipeline's signal declaration order.
package insight

import "github.com/lumora/pulse/internal/domain/types"

// Sub-score thresholds for intent insights.
const (
	strongScore = 80.0
	weakScore   = 30.0
)

// Ghosting insights fire when a signal's trend is declining or critical.
var ghostingCopy = map[types.SignalType]string{ //nolint:gochecknoglobals // fixed copy table
	types.SignalReplyLatency:    "Replies are taking noticeably longer than they used to.",
	types.SignalMessageDepth:    "Messages have been getting shorter.",
	types.SignalGhostingHistory: "This person has let conversations fade before.",
	types.SignalOnlinePresence:  "They haven't been online recently.",
	types.SignalGiftActivity:    "Gifting in this conversation has dropped off.",
}

// Intent insights fire on strong or weak sub-scores.
var intentStrongCopy = map[types.SignalType]string{ //nolint:gochecknoglobals // fixed copy table
	types.SignalReplySpeed:         "Replies come back fast - this user is paying attention.",
	types.SignalMessageDepth:       "Messages are getting longer and more involved.",
	types.SignalGiftingConsistency: "Gifts are sent steadily, a strong engagement marker.",
	types.SignalMeetupSuccess:      "Meetup plans usually work out for this user.",
	types.SignalContentUnlock:      "This user unlocks content across most conversations.",
}

var intentWeakCopy = map[types.SignalType]string{ //nolint:gochecknoglobals // fixed copy table
	types.SignalReplySpeed:         "Replies are slow - interest may be passive.",
	types.SignalMessageDepth:       "Messages stay brief.",
	types.SignalGiftingConsistency: "Little to no gifting activity.",
	types.SignalMeetupSuccess:      "Meetup attempts rarely come together.",
	types.SignalContentUnlock:      "Content mostly stays locked.",
}

// GhostingInsights returns one fixed line per declining or critical signal,
// in the order the signals are listed. Empty output is valid.
func GhostingInsights(signals []types.Signal) []string {
	out := make([]string, 0, len(signals))
	for _, s := range signals {
		if s.Trend != types.TrendDeclining && s.Trend != types.TrendCritical {
			continue
		}
		if line, ok := ghostingCopy[s.Type]; ok {
			out = append(out, line)
		}
	}
	return out
}

// IntentInsights returns one fixed line per signal whose sub-score crosses
// the strong or weak threshold, in signal order.
func IntentInsights(signals []types.Signal, subScores map[types.SignalType]float64) []string {
	out := make([]string, 0, len(signals))
	for _, s := range signals {
		score, ok := subScores[s.Type]
		if !ok {
			continue
		}
		switch {
		case score >= strongScore:
			if line, ok := intentStrongCopy[s.Type]; ok {
				out = append(out, line)
			}
		case score <= weakScore:
			if line, ok := intentWeakCopy[s.Type]; ok {
				out = append(out, line)
			}
		}
	}
	return out
}

// warningCopy maps ghosting tiers to softened, non-alarming nudges. The
// low tier (and any non-ghosting tier) shows nothing.
var warningCopy = map[types.Tier]types.Warning{ //nolint:gochecknoglobals // fixed copy table
	types.TierMedium: {
		ShowWarning: true,
		Message:     "This chat has slowed down a little.",
		Suggestion:  "A light question about their week can pick things back up.",
	},
	types.TierHigh: {
		ShowWarning: true,
		Message:     "It's been quiet here for a while.",
		Suggestion:  "Try sharing something new instead of waiting for a reply.",
	},
	types.TierGhosting: {
		ShowWarning: true,
		Message:     "This conversation looks like it may be winding down.",
		Suggestion:  "No pressure - there are other people excited to chat.",
	},
}

// SoftenWarning maps a ghosting tier to its user-facing nudge. Callers must
// translate any upstream error into the zero Warning: a missed nudge is
// acceptable, a crashed screen is not.
func SoftenWarning(tier types.Tier) types.Warning {
	if w, ok := warningCopy[tier]; ok {
		return w
	}
	return types.Warning{}
}
