package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lumora/pulse/internal/domain/types"
	"github.com/lumora/pulse/pkg/logger"
	"github.com/lumora/pulse/pkg/metrics"
)

// ListHighRiskConversations scans conversations touched within the window,
// scores every participant, and returns the results at or above the high
// tier, sorted descending by score. Per-subject computations are
// independent, so they run on a bounded worker pool throttled by the
// engine's rate limiter.
func (e *Engine) ListHighRiskConversations(ctx context.Context, withinDays int) ([]types.ScoreResult, error) {
	if withinDays <= 0 {
		withinDays = e.highRiskWindowDays
	}
	start := time.Now()
	since := e.clk.Now().AddDate(0, 0, -withinDays)

	convs, err := e.store.ListRecentConversations(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("%w: recent conversations: %v", ErrDataUnavailable, err)
	}

	type job struct {
		conversationID string
		subjectID      string
	}
	jobs := make(chan job)
	results := make(chan types.ScoreResult)

	var wg sync.WaitGroup
	for i := 0; i < e.batchWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := e.limiter.Wait(ctx); err != nil {
					return
				}
				res, err := e.ComputeGhostingRisk(ctx, j.conversationID, j.subjectID)
				if err != nil {
					// One subject failing must not sink the scan.
					e.log.Warn(ctx, "batch scoring failed",
						logger.String("conversationID", j.conversationID),
						logger.String("subjectID", j.subjectID),
						logger.Error(err),
					)
					continue
				}
				metrics.RecordBatchSubjectScored()
				results <- res
			}
		}()
	}

	go func() {
		defer close(jobs)
		seen := make(map[string]struct{})
		for _, c := range convs {
			for _, p := range c.ParticipantIDs {
				key := c.ID + ":" + p
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				select {
				case jobs <- job{conversationID: c.ID, subjectID: p}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var out []types.ScoreResult
	for res := range results {
		if res.Tier == types.TierHigh || res.Tier == types.TierGhosting {
			out = append(out, res)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("high-risk scan interrupted: %w", err)
	}

	// Deterministic order: score descending, then ids as tie-breakers.
	sort.Slice(out, func(i, j int) bool {
		if out[i].OverallScore != out[j].OverallScore {
			return out[i].OverallScore > out[j].OverallScore
		}
		if out[i].ConversationID != out[j].ConversationID {
			return out[i].ConversationID < out[j].ConversationID
		}
		return out[i].SubjectID < out[j].SubjectID
	})

	metrics.RecordBatchScanDuration(float64(time.Since(start).Milliseconds()))
	return out, nil
}
