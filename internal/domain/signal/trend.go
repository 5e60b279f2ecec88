package signal

import (
	"fmt"
	"time"

	"github.com/lumora/pulse/internal/domain/model"
	"github.com/lumora/pulse/internal/domain/types"
)

// Trend classification thresholds. Direction differs per signal because
// "bigger" means different things: latency going up is bad, depth going
// down is bad.
const (
	// minTrendSamples is the smallest event count the midpoint split makes
	// sense for. Below it the trend is reported as stable with zero deltas.
	minTrendSamples = 5

	latencyCriticalPct  = 50.0
	latencyDecliningPct = 25.0
	latencyImprovingPct = -25.0

	depthCriticalPct  = -40.0
	depthDecliningPct = -20.0
	depthImprovingPct = 20.0

	presenceImprovingHours = 6.0
	presenceStableHours    = 24.0
	presenceDecliningHours = 72.0
)

const insufficientDataDesc = "insufficient data"

// ChangePercent computes the relative change from older to recent as a
// percentage. Defined as 0 when older is 0 so the result is always finite.
func ChangePercent(recent, older float64) float64 {
	if older == 0 {
		return 0
	}
	return (recent - older) / older * 100
}

// splitHalves splits a descending event list at its midpoint into the
// recent half and the older half.
func splitHalves(msgs []model.Message) (recent, older []model.Message) {
	mid := len(msgs) / 2
	return msgs[:mid], msgs[mid:]
}

// ClassifyLatencyTrend maps a reply-latency change percentage to a trend.
// Rising latency is a deterioration.
func ClassifyLatencyTrend(changePct float64) types.Trend {
	switch {
	case changePct > latencyCriticalPct:
		return types.TrendCritical
	case changePct > latencyDecliningPct:
		return types.TrendDeclining
	case changePct < latencyImprovingPct:
		return types.TrendImproving
	default:
		return types.TrendStable
	}
}

// ClassifyDepthTrend maps a volume-style change percentage (message depth,
// gift activity) to a trend. Shrinking volume is a deterioration.
func ClassifyDepthTrend(changePct float64) types.Trend {
	switch {
	case changePct < depthCriticalPct:
		return types.TrendCritical
	case changePct < depthDecliningPct:
		return types.TrendDeclining
	case changePct > depthImprovingPct:
		return types.TrendImproving
	default:
		return types.TrendStable
	}
}

// ClassifyPresenceTrend maps hours-offline to a trend. Online or recently
// seen reads as improving; multiple days of absence reads as critical.
func ClassifyPresenceTrend(online bool, hoursSince float64) types.Trend {
	switch {
	case online, hoursSince <= presenceImprovingHours:
		return types.TrendImproving
	case hoursSince <= presenceStableHours:
		return types.TrendStable
	case hoursSince <= presenceDecliningHours:
		return types.TrendDeclining
	default:
		return types.TrendCritical
	}
}

// ReplyLatencySignal splits the conversation messages into recent and older
// halves, extracts the subject's mean reply latency on each, and classifies
// the change. Fewer than 5 messages yields a stable, zero-delta signal.
func ReplyLatencySignal(st types.SignalType, msgs []model.Message, subjectID string) types.Signal {
	if len(msgs) < minTrendSamples {
		return insufficientSignal(st)
	}
	recentHalf, olderHalf := splitHalves(msgs)
	recent := MeanReplyLatency(recentHalf, subjectID)
	older := MeanReplyLatency(olderHalf, subjectID)
	pct := ChangePercent(recent, older)
	return types.Signal{
		Type:          st,
		Trend:         ClassifyLatencyTrend(pct),
		CurrentValue:  recent,
		PreviousValue: older,
		ChangePercent: pct,
		Description:   fmt.Sprintf("average reply latency %.1f min (was %.1f)", recent, older),
	}
}

// MessageDepthSignal is the recent-vs-older classification of mean message
// length.
func MessageDepthSignal(msgs []model.Message) types.Signal {
	if len(msgs) < minTrendSamples {
		return insufficientSignal(types.SignalMessageDepth)
	}
	recentHalf, olderHalf := splitHalves(msgs)
	recent := MeanMessageDepth(recentHalf)
	older := MeanMessageDepth(olderHalf)
	pct := ChangePercent(recent, older)
	return types.Signal{
		Type:          types.SignalMessageDepth,
		Trend:         ClassifyDepthTrend(pct),
		CurrentValue:  recent,
		PreviousValue: older,
		ChangePercent: pct,
		Description:   fmt.Sprintf("average message length %.0f chars (was %.0f)", recent, older),
	}
}

// GiftActivitySignal classifies the change in gift volume between the
// recent and older halves of the query window. The signal type is a
// parameter because both pipelines use this shape under different names.
func GiftActivitySignal(st types.SignalType, gifts []model.GiftEvent, windowStart, now time.Time) types.Signal {
	if len(gifts) < minTrendSamples {
		return insufficientSignal(st)
	}
	mid := windowStart.Add(now.Sub(windowStart) / 2)
	var recentN, olderN int
	for _, g := range gifts {
		if g.SentAt.After(mid) {
			recentN++
		} else {
			olderN++
		}
	}
	recent := float64(recentN)
	older := float64(olderN)
	pct := ChangePercent(recent, older)
	return types.Signal{
		Type:          st,
		Trend:         ClassifyDepthTrend(pct),
		CurrentValue:  recent,
		PreviousValue: older,
		ChangePercent: pct,
		Description:   fmt.Sprintf("%.0f gifts recently (was %.0f)", recent, older),
	}
}

// PresenceSignal classifies how long the subject has been offline.
func PresenceSignal(p model.PresenceSample, hoursSince float64) types.Signal {
	desc := "online now"
	if !p.Online {
		desc = fmt.Sprintf("last seen %.0f hours ago", hoursSince)
	}
	return types.Signal{
		Type:         types.SignalOnlinePresence,
		Trend:        ClassifyPresenceTrend(p.Online, hoursSince),
		CurrentValue: hoursSince,
		Description:  desc,
	}
}

// ReplySpeedSignal pools reply latency across conversation threads and
// classifies the recent-vs-older change. Each thread is split at its own
// midpoint so pairs never straddle conversations.
func ReplySpeedSignal(threads [][]model.Message, subjectID string) types.Signal {
	var total int
	for _, msgs := range threads {
		total += len(msgs)
	}
	if total < minTrendSamples {
		return insufficientSignal(types.SignalReplySpeed)
	}

	recentHalves := make([][]model.Message, 0, len(threads))
	olderHalves := make([][]model.Message, 0, len(threads))
	for _, msgs := range threads {
		r, o := splitHalves(msgs)
		recentHalves = append(recentHalves, r)
		olderHalves = append(olderHalves, o)
	}
	recent := MeanReplyLatencyAcross(recentHalves, subjectID)
	older := MeanReplyLatencyAcross(olderHalves, subjectID)
	pct := ChangePercent(recent, older)
	return types.Signal{
		Type:          types.SignalReplySpeed,
		Trend:         ClassifyLatencyTrend(pct),
		CurrentValue:  recent,
		PreviousValue: older,
		ChangePercent: pct,
		Description:   fmt.Sprintf("average reply time %.1f min (was %.1f)", recent, older),
	}
}

// ClassifyRatioTrend maps a 0-1 success ratio to a trend.
func ClassifyRatioTrend(ratio float64) types.Trend {
	switch {
	case ratio >= 0.6:
		return types.TrendImproving
	case ratio >= 0.25:
		return types.TrendStable
	case ratio > 0:
		return types.TrendDeclining
	default:
		return types.TrendCritical
	}
}

// RatioSignal wraps a 0-1 ratio as a signal.
func RatioSignal(st types.SignalType, ratio float64, desc string) types.Signal {
	return types.Signal{
		Type:         st,
		Trend:        ClassifyRatioTrend(ratio),
		CurrentValue: ratio,
		Description:  desc,
	}
}

// ClassifyGhostRateTrend maps a historical ghosting rate to a trend.
func ClassifyGhostRateTrend(rate float64) types.Trend {
	switch {
	case rate >= 0.5:
		return types.TrendCritical
	case rate >= 0.3:
		return types.TrendDeclining
	case rate > 0.1:
		return types.TrendStable
	default:
		return types.TrendImproving
	}
}

// GhostingHistorySignal wraps a ghosting summary as a signal.
func GhostingHistorySignal(s GhostingSummary) types.Signal {
	if s.Examined == 0 {
		return insufficientSignal(types.SignalGhostingHistory)
	}
	return types.Signal{
		Type:         types.SignalGhostingHistory,
		Trend:        ClassifyGhostRateTrend(s.Rate),
		CurrentValue: s.Rate,
		Description:  fmt.Sprintf("ghosted %d of %d recent conversations", s.Ghosted, s.Examined),
	}
}

// InsufficientSignal returns the documented fallback signal for a source
// with too little history: stable trend, zero deltas.
func InsufficientSignal(st types.SignalType) types.Signal {
	return insufficientSignal(st)
}

func insufficientSignal(st types.SignalType) types.Signal {
	return types.Signal{
		Type:        st,
		Trend:       types.TrendStable,
		Description: insufficientDataDesc,
	}
}

// Insufficient reports whether a signal carries the insufficient-data
// fallback instead of a measured value.
func Insufficient(s types.Signal) bool {
	return s.Description == insufficientDataDesc
}
