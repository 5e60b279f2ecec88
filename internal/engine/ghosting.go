package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/lumora/pulse/internal/domain/insight"
	"github.com/lumora/pulse/internal/domain/model"
	"github.com/lumora/pulse/internal/domain/scoring"
	"github.com/lumora/pulse/internal/domain/signal"
	"github.com/lumora/pulse/internal/domain/types"
	"github.com/lumora/pulse/pkg/logger"
	"github.com/lumora/pulse/pkg/metrics"
)

// ghostingSignalOrder fixes the declaration order ghosting signals are
// listed and insights are emitted in.
var ghostingSignalOrder = []types.SignalType{ //nolint:gochecknoglobals // fixed declaration order
	types.SignalReplyLatency,
	types.SignalMessageDepth,
	types.SignalGhostingHistory,
	types.SignalOnlinePresence,
	types.SignalGiftActivity,
}

// ComputeGhostingRisk scores how likely the conversation is to go silent
// from subjectID's side, through the read-through cache.
func (e *Engine) ComputeGhostingRisk(ctx context.Context, conversationID, subjectID string) (types.ScoreResult, error) {
	key := "ghost:" + conversationID + ":" + subjectID
	return e.gate.GetOrCompute(ctx, key, e.cacheMaxAge, func(cctx context.Context) (types.ScoreResult, error) {
		return e.computeGhosting(cctx, conversationID, subjectID)
	})
}

func (e *Engine) computeGhosting(ctx context.Context, conversationID, subjectID string) (types.ScoreResult, error) {
	start := time.Now()

	if err := e.validateGhostingIDs(ctx, conversationID, subjectID); err != nil {
		return types.ScoreResult{}, err
	}

	now := e.clk.Now()
	since := now.AddDate(0, 0, -e.windowDays)
	sinceHist := now.AddDate(0, 0, -ghostHistoryWindowDays)

	var (
		convMsgs  []model.Message
		gifts     []model.GiftEvent
		presence  model.PresenceSample
		hasPres   bool
		histConvs []model.ConversationMeta
	)
	errs := make([]error, 4)
	done := make(chan struct{})
	go func() {
		defer func() { done <- struct{}{} }()
		convMsgs, errs[0] = fetchSource(ctx, e.sourceTimeout, "conversation_messages", func(cctx context.Context) ([]model.Message, error) {
			return e.store.ListConversationMessages(cctx, conversationID, since)
		})
	}()
	go func() {
		defer func() { done <- struct{}{} }()
		gifts, errs[1] = fetchSource(ctx, e.sourceTimeout, "gifts_by_sender", func(cctx context.Context) ([]model.GiftEvent, error) {
			return e.store.ListGiftsBySender(cctx, subjectID, since)
		})
	}()
	go func() {
		defer func() { done <- struct{}{} }()
		type presenceRow struct {
			sample model.PresenceSample
			ok     bool
		}
		row, err := fetchSource(ctx, e.sourceTimeout, "presence", func(cctx context.Context) (presenceRow, error) {
			p, ok, err := e.store.GetPresence(cctx, subjectID)
			return presenceRow{sample: p, ok: ok}, err
		})
		presence, hasPres, errs[2] = row.sample, row.ok, err
	}()
	go func() {
		defer func() { done <- struct{}{} }()
		histConvs, errs[3] = fetchSource(ctx, e.sourceTimeout, "conversations_for_subject", func(cctx context.Context) ([]model.ConversationMeta, error) {
			return e.store.ListConversationsForSubject(cctx, subjectID, sinceHist)
		})
	}()
	for i := 0; i < 4; i++ {
		<-done
	}
	for _, err := range errs {
		if err != nil {
			metrics.RecordScoringError(string(types.PipelineGhosting))
			return types.ScoreResult{}, err
		}
	}

	threads, err := e.fetchThreads(ctx, histConvs, sinceHist)
	if err != nil {
		metrics.RecordScoringError(string(types.PipelineGhosting))
		return types.ScoreResult{}, err
	}

	signals := make(map[types.SignalType]types.Signal, len(ghostingSignalOrder))
	subScores := make(map[types.SignalType]float64, len(ghostingSignalOrder))

	latencySig := signal.ReplyLatencySignal(types.SignalReplyLatency, convMsgs, subjectID)
	if signal.Insufficient(latencySig) {
		subScores[types.SignalReplyLatency] = scoring.NeutralReplyLatency
	} else {
		subScores[types.SignalReplyLatency] = scoring.RiskTrendScore(latencySig.Trend)
	}
	signals[types.SignalReplyLatency] = latencySig

	var subjectMsgs []model.Message
	for _, m := range convMsgs {
		if m.SenderID == subjectID {
			subjectMsgs = append(subjectMsgs, m)
		}
	}
	depthSig := signal.MessageDepthSignal(subjectMsgs)
	if signal.Insufficient(depthSig) {
		subScores[types.SignalMessageDepth] = scoring.NeutralMessageDepth
	} else {
		subScores[types.SignalMessageDepth] = scoring.RiskTrendScore(depthSig.Trend)
	}
	signals[types.SignalMessageDepth] = depthSig

	history := signal.GhostingRate(threads, subjectID, now)
	histSig := signal.GhostingHistorySignal(history)
	if history.Examined == 0 {
		subScores[types.SignalGhostingHistory] = scoring.NeutralGhostHistory
	} else {
		// The published breakpoints express reliability (higher is
		// better); the risk pipeline uses their complement.
		subScores[types.SignalGhostingHistory] = 100 - scoring.GhostRateScore(history.Rate)
	}
	signals[types.SignalGhostingHistory] = histSig

	if !hasPres {
		signals[types.SignalOnlinePresence] = signal.InsufficientSignal(types.SignalOnlinePresence)
		subScores[types.SignalOnlinePresence] = scoring.NeutralPresence
	} else {
		hours := signal.HoursSinceSeen(presence, now)
		presSig := signal.PresenceSignal(presence, hours)
		signals[types.SignalOnlinePresence] = presSig
		subScores[types.SignalOnlinePresence] = scoring.RiskTrendScore(presSig.Trend)
	}

	var convGifts []model.GiftEvent
	for _, g := range gifts {
		if g.ConversationKey == conversationID {
			convGifts = append(convGifts, g)
		}
	}
	if len(convGifts) == 0 {
		signals[types.SignalGiftActivity] = types.Signal{
			Type:        types.SignalGiftActivity,
			Trend:       types.TrendDeclining,
			Description: "no gifts in window",
		}
		subScores[types.SignalGiftActivity] = scoring.AbsentGiftActivity
	} else {
		giftSig := signal.GiftActivitySignal(types.SignalGiftActivity, convGifts, since, now)
		signals[types.SignalGiftActivity] = giftSig
		subScores[types.SignalGiftActivity] = scoring.RiskTrendScore(giftSig.Trend)
	}

	ordered := make([]types.Signal, 0, len(ghostingSignalOrder))
	for _, st := range ghostingSignalOrder {
		ordered = append(ordered, signals[st])
	}

	score := e.ghostScorer.Aggregate(subScores)
	tier := e.ghostScorer.TierFor(score)

	metrics.RecordScoreComputed(string(types.PipelineGhosting))
	metrics.RecordScoringDuration(string(types.PipelineGhosting), float64(time.Since(start).Milliseconds()))
	metrics.RecordTierResult(string(types.PipelineGhosting), string(tier))

	return types.ScoreResult{
		SubjectID:      subjectID,
		ConversationID: conversationID,
		Pipeline:       types.PipelineGhosting,
		OverallScore:   score,
		Tier:           tier,
		Signals:        ordered,
		Insights:       insight.GhostingInsights(ordered),
		ComputedAt:     now,
	}, nil
}

func (e *Engine) validateGhostingIDs(ctx context.Context, conversationID, subjectID string) error {
	known, err := e.store.ConversationExists(ctx, conversationID)
	if err != nil {
		metrics.RecordScoringError(string(types.PipelineGhosting))
		return fmt.Errorf("%w: conversation lookup: %v", ErrDataUnavailable, err)
	}
	if !known {
		return fmt.Errorf("%w: %s", ErrUnknownConversation, conversationID)
	}
	known, err = e.store.SubjectExists(ctx, subjectID)
	if err != nil {
		metrics.RecordScoringError(string(types.PipelineGhosting))
		return fmt.Errorf("%w: subject lookup: %v", ErrDataUnavailable, err)
	}
	if !known {
		return fmt.Errorf("%w: %s", ErrUnknownSubject, subjectID)
	}
	return nil
}

// Warning maps the subject's ghosting tier to a softened, user-facing
// nudge. Upstream failures never surface: a missed nudge is acceptable, a
// crashed screen is not.
func (e *Engine) Warning(ctx context.Context, conversationID, subjectID string) types.Warning {
	res, err := e.ComputeGhostingRisk(ctx, conversationID, subjectID)
	if err != nil {
		e.log.Warn(ctx, "ghosting score unavailable for warning",
			logger.String("conversationID", conversationID),
			logger.String("subjectID", subjectID),
			logger.Error(err),
		)
		return types.Warning{}
	}
	return insight.SoftenWarning(res.Tier)
}
