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
	"github.com/lumora/pulse/pkg/metrics"
)

// intentSignalOrder fixes the declaration order intent signals are listed
// and insights are emitted in.
var intentSignalOrder = []types.SignalType{ //nolint:gochecknoglobals // fixed declaration order
	types.SignalReplySpeed,
	types.SignalMessageDepth,
	types.SignalGiftingConsistency,
	types.SignalMeetupSuccess,
	types.SignalContentUnlock,
}

// ComputeIntentScore scores how genuinely engaged subjectID is, through
// the read-through cache. windowDays <= 0 uses the configured default; a
// non-default window is cached under its own key so an override never
// serves a result computed for a different window.
func (e *Engine) ComputeIntentScore(ctx context.Context, subjectID string, windowDays int) (types.ScoreResult, error) {
	if windowDays <= 0 {
		windowDays = e.windowDays
	}
	key := "intent:" + subjectID
	if windowDays != e.windowDays {
		key = fmt.Sprintf("intent:%s:%dd", subjectID, windowDays)
	}
	return e.gate.GetOrCompute(ctx, key, e.cacheMaxAge, func(cctx context.Context) (types.ScoreResult, error) {
		return e.computeIntent(cctx, subjectID, windowDays)
	})
}

func (e *Engine) computeIntent(ctx context.Context, subjectID string, windowDays int) (types.ScoreResult, error) {
	start := time.Now()

	known, err := e.store.SubjectExists(ctx, subjectID)
	if err != nil {
		metrics.RecordScoringError(string(types.PipelineIntent))
		return types.ScoreResult{}, fmt.Errorf("%w: subject lookup: %v", ErrDataUnavailable, err)
	}
	if !known {
		return types.ScoreResult{}, fmt.Errorf("%w: %s", ErrUnknownSubject, subjectID)
	}

	now := e.clk.Now()
	since := now.AddDate(0, 0, -windowDays)

	// Fan out the independent source reads; wall-clock cost is bounded by
	// the slowest single query.
	var (
		msgs     []model.Message
		gifts    []model.GiftEvent
		convs    []model.ConversationMeta
		attempts []model.MeetupAttempt
	)
	errs := make([]error, 4)
	done := make(chan struct{})
	go func() {
		defer func() { done <- struct{}{} }()
		msgs, errs[0] = fetchSource(ctx, e.sourceTimeout, "messages_by_sender", func(cctx context.Context) ([]model.Message, error) {
			return e.store.ListMessagesBySender(cctx, subjectID, since)
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
		convs, errs[2] = fetchSource(ctx, e.sourceTimeout, "conversations_for_subject", func(cctx context.Context) ([]model.ConversationMeta, error) {
			return e.store.ListConversationsForSubject(cctx, subjectID, since)
		})
	}()
	go func() {
		defer func() { done <- struct{}{} }()
		attempts, errs[3] = fetchSource(ctx, e.sourceTimeout, "meetup_attempts", func(cctx context.Context) ([]model.MeetupAttempt, error) {
			return e.store.ListMeetupAttempts(cctx, subjectID, since)
		})
	}()
	for i := 0; i < 4; i++ {
		<-done
	}
	for _, err := range errs {
		if err != nil {
			metrics.RecordScoringError(string(types.PipelineIntent))
			return types.ScoreResult{}, err
		}
	}

	// Reply speed needs both sides of a conversation, so pull the most
	// recent threads in a second, dependent fan-out.
	recentConvs := convs
	if len(recentConvs) > maxIntentThreads {
		recentConvs = recentConvs[:maxIntentThreads]
	}
	threads, err := e.fetchThreads(ctx, recentConvs, since)
	if err != nil {
		metrics.RecordScoringError(string(types.PipelineIntent))
		return types.ScoreResult{}, err
	}
	threadMsgs := make([][]model.Message, 0, len(recentConvs))
	for _, th := range threads {
		threadMsgs = append(threadMsgs, th.Messages)
	}

	signals := make(map[types.SignalType]types.Signal, len(intentSignalOrder))
	subScores := make(map[types.SignalType]float64, len(intentSignalOrder))

	replySig := signal.ReplySpeedSignal(threadMsgs, subjectID)
	avgReply := signal.MeanReplyLatencyAcross(threadMsgs, subjectID)
	if signal.Insufficient(replySig) || avgReply == 0 {
		subScores[types.SignalReplySpeed] = scoring.NeutralReplyLatency
	} else {
		subScores[types.SignalReplySpeed] = scoring.ReplySpeedScore(avgReply)
	}
	signals[types.SignalReplySpeed] = replySig

	depthSig := signal.MessageDepthSignal(msgs)
	if signal.Insufficient(depthSig) {
		subScores[types.SignalMessageDepth] = scoring.NeutralMessageDepth
	} else {
		subScores[types.SignalMessageDepth] = scoring.PositiveTrendScore(depthSig.Trend)
	}
	signals[types.SignalMessageDepth] = depthSig

	gifting := signal.GiftingRate(gifts)
	if len(gifts) == 0 {
		signals[types.SignalGiftingConsistency] = signal.InsufficientSignal(types.SignalGiftingConsistency)
		subScores[types.SignalGiftingConsistency] = scoring.NeutralGifting
	} else {
		signals[types.SignalGiftingConsistency] = signal.GiftActivitySignal(types.SignalGiftingConsistency, gifts, since, now)
		subScores[types.SignalGiftingConsistency] = scoring.GiftingConsistencyScore(gifting.Rate)
	}

	if len(attempts) == 0 {
		signals[types.SignalMeetupSuccess] = signal.InsufficientSignal(types.SignalMeetupSuccess)
		subScores[types.SignalMeetupSuccess] = scoring.NeutralMeetup
	} else {
		ratio := signal.MeetupSuccessRatio(attempts)
		signals[types.SignalMeetupSuccess] = signal.RatioSignal(types.SignalMeetupSuccess, ratio,
			fmt.Sprintf("%.0f%% of meetup attempts worked out", ratio*100))
		subScores[types.SignalMeetupSuccess] = scoring.RatioScore(ratio)
	}

	if len(convs) == 0 {
		signals[types.SignalContentUnlock] = signal.InsufficientSignal(types.SignalContentUnlock)
		subScores[types.SignalContentUnlock] = scoring.NeutralUnlock
	} else {
		ratio := signal.UnlockRatio(gifts, convs)
		signals[types.SignalContentUnlock] = signal.RatioSignal(types.SignalContentUnlock, ratio,
			fmt.Sprintf("gifted into %.0f%% of conversations", ratio*100))
		subScores[types.SignalContentUnlock] = scoring.RatioScore(ratio)
	}

	ordered := make([]types.Signal, 0, len(intentSignalOrder))
	for _, st := range intentSignalOrder {
		ordered = append(ordered, signals[st])
	}

	score := e.intentScorer.Aggregate(subScores)
	tier := e.intentScorer.TierFor(score)

	metrics.RecordScoreComputed(string(types.PipelineIntent))
	metrics.RecordScoringDuration(string(types.PipelineIntent), float64(time.Since(start).Milliseconds()))
	metrics.RecordTierResult(string(types.PipelineIntent), string(tier))

	return types.ScoreResult{
		SubjectID:    subjectID,
		Pipeline:     types.PipelineIntent,
		OverallScore: score,
		Tier:         tier,
		Signals:      ordered,
		Insights:     insight.IntentInsights(ordered, subScores),
		ComputedAt:   now,
	}, nil
}
