package signal_test

import (
	"testing"
	"time"

	"github.com/lumora/pulse/internal/domain/model"
	signal "github.com/lumora/pulse/internal/domain/signal"
	"github.com/lumora/pulse/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestChangePercent(t *testing.T) {
	Convey("Given recent and older values", t, func() {
		So(signal.ChangePercent(120, 40), ShouldAlmostEqual, 200.0)
		So(signal.ChangePercent(40, 120), ShouldAlmostEqual, -66.666, 0.001)
		So(signal.ChangePercent(50, 50), ShouldEqual, 0)

		Convey("A zero older value is defined as 0, never Inf", func() {
			So(signal.ChangePercent(100, 0), ShouldEqual, 0)
			So(signal.ChangePercent(0, 0), ShouldEqual, 0)
		})
	})
}

func TestClassifyLatencyTrend(t *testing.T) {
	Convey("Given a latency change percentage", t, func() {
		So(signal.ClassifyLatencyTrend(200), ShouldEqual, types.TrendCritical)
		So(signal.ClassifyLatencyTrend(50.1), ShouldEqual, types.TrendCritical)
		So(signal.ClassifyLatencyTrend(50), ShouldEqual, types.TrendDeclining)
		So(signal.ClassifyLatencyTrend(25.1), ShouldEqual, types.TrendDeclining)
		So(signal.ClassifyLatencyTrend(25), ShouldEqual, types.TrendStable)
		So(signal.ClassifyLatencyTrend(0), ShouldEqual, types.TrendStable)
		So(signal.ClassifyLatencyTrend(-25), ShouldEqual, types.TrendStable)
		So(signal.ClassifyLatencyTrend(-25.1), ShouldEqual, types.TrendImproving)
	})
}

func TestClassifyDepthTrend(t *testing.T) {
	Convey("Given a volume change percentage", t, func() {
		So(signal.ClassifyDepthTrend(-50), ShouldEqual, types.TrendCritical)
		So(signal.ClassifyDepthTrend(-40), ShouldEqual, types.TrendDeclining)
		So(signal.ClassifyDepthTrend(-20.1), ShouldEqual, types.TrendDeclining)
		So(signal.ClassifyDepthTrend(-20), ShouldEqual, types.TrendStable)
		So(signal.ClassifyDepthTrend(20), ShouldEqual, types.TrendStable)
		So(signal.ClassifyDepthTrend(20.1), ShouldEqual, types.TrendImproving)
	})
}

func TestClassifyPresenceTrend(t *testing.T) {
	Convey("Given presence freshness", t, func() {
		So(signal.ClassifyPresenceTrend(true, 0), ShouldEqual, types.TrendImproving)
		So(signal.ClassifyPresenceTrend(false, 6), ShouldEqual, types.TrendImproving)
		So(signal.ClassifyPresenceTrend(false, 6.1), ShouldEqual, types.TrendStable)
		So(signal.ClassifyPresenceTrend(false, 24), ShouldEqual, types.TrendStable)
		So(signal.ClassifyPresenceTrend(false, 24.1), ShouldEqual, types.TrendDeclining)
		So(signal.ClassifyPresenceTrend(false, 72), ShouldEqual, types.TrendDeclining)
		So(signal.ClassifyPresenceTrend(false, 72.1), ShouldEqual, types.TrendCritical)
	})
}

func TestClassifyRatioTrend(t *testing.T) {
	Convey("Given a 0-1 success ratio", t, func() {
		So(signal.ClassifyRatioTrend(0.8), ShouldEqual, types.TrendImproving)
		So(signal.ClassifyRatioTrend(0.6), ShouldEqual, types.TrendImproving)
		So(signal.ClassifyRatioTrend(0.5), ShouldEqual, types.TrendStable)
		So(signal.ClassifyRatioTrend(0.25), ShouldEqual, types.TrendStable)
		So(signal.ClassifyRatioTrend(0.1), ShouldEqual, types.TrendDeclining)
		So(signal.ClassifyRatioTrend(0), ShouldEqual, types.TrendCritical)
	})
}

func TestClassifyGhostRateTrend(t *testing.T) {
	Convey("Given a historical ghosting rate", t, func() {
		So(signal.ClassifyGhostRateTrend(0.7), ShouldEqual, types.TrendCritical)
		So(signal.ClassifyGhostRateTrend(0.5), ShouldEqual, types.TrendCritical)
		So(signal.ClassifyGhostRateTrend(0.3), ShouldEqual, types.TrendDeclining)
		So(signal.ClassifyGhostRateTrend(0.2), ShouldEqual, types.TrendStable)
		So(signal.ClassifyGhostRateTrend(0.1), ShouldEqual, types.TrendImproving)
		So(signal.ClassifyGhostRateTrend(0), ShouldEqual, types.TrendImproving)
	})
}

func TestReplyLatencySignal(t *testing.T) {
	Convey("Given conversation messages split into halves", t, func() {
		Convey("When the subject slowed from 40 to 120 minutes the trend is critical", func() {
			// Descending: recent half has a 120-minute reply, older half a
			// 40-minute reply.
			msgs := thread("c1",
				[2]any{"bob", 1000},
				[2]any{"alice", 960}, // 40 min, older half
				[2]any{"bob", 500},
				[2]any{"bob", 400},
				[2]any{"bob", 300},
				[2]any{"alice", 180}, // 120 min, recent half
			)
			s := signal.ReplyLatencySignal(types.SignalReplyLatency, msgs, "alice")
			So(s.Type, ShouldEqual, types.SignalReplyLatency)
			So(s.CurrentValue, ShouldAlmostEqual, 120.0)
			So(s.PreviousValue, ShouldAlmostEqual, 40.0)
			So(s.ChangePercent, ShouldAlmostEqual, 200.0)
			So(s.Trend, ShouldEqual, types.TrendCritical)
		})

		Convey("When there are fewer than 5 messages the signal is the fallback", func() {
			msgs := thread("c1",
				[2]any{"bob", 100},
				[2]any{"alice", 90},
			)
			s := signal.ReplyLatencySignal(types.SignalReplyLatency, msgs, "alice")
			So(signal.Insufficient(s), ShouldBeTrue)
			So(s.Trend, ShouldEqual, types.TrendStable)
			So(s.ChangePercent, ShouldEqual, 0)
		})
	})
}

func TestMessageDepthSignal(t *testing.T) {
	Convey("Given messages whose length collapsed", t, func() {
		mk := func(lengths ...int) []model.Message {
			msgs := make([]model.Message, len(lengths))
			for i, l := range lengths {
				msgs[i] = model.Message{ContentLength: l, SentAt: base.Add(-time.Duration(i) * time.Hour)}
			}
			return msgs
		}

		Convey("A halving of depth reads as critical", func() {
			// Recent half mean 20, older half mean 100: -80%.
			s := signal.MessageDepthSignal(mk(20, 20, 20, 100, 100, 100))
			So(s.CurrentValue, ShouldAlmostEqual, 20.0)
			So(s.PreviousValue, ShouldAlmostEqual, 100.0)
			So(s.Trend, ShouldEqual, types.TrendCritical)
		})

		Convey("Stable depth reads as stable", func() {
			s := signal.MessageDepthSignal(mk(50, 50, 50, 50, 50, 50))
			So(s.Trend, ShouldEqual, types.TrendStable)
			So(s.ChangePercent, ShouldEqual, 0)
		})

		Convey("Too few messages yields the fallback", func() {
			s := signal.MessageDepthSignal(mk(50, 50))
			So(signal.Insufficient(s), ShouldBeTrue)
		})
	})
}

func TestGiftActivitySignal(t *testing.T) {
	Convey("Given gifts inside a 30-day window", t, func() {
		now := base
		windowStart := now.AddDate(0, 0, -30)

		mk := func(daysAgo ...int) []model.GiftEvent {
			gifts := make([]model.GiftEvent, len(daysAgo))
			for i, d := range daysAgo {
				gifts[i] = model.GiftEvent{SentAt: now.AddDate(0, 0, -d)}
			}
			return gifts
		}

		Convey("Gifts drying up reads as declining or critical", func() {
			// 1 gift in the recent 15 days, 4 in the older 15: -75%.
			s := signal.GiftActivitySignal(types.SignalGiftActivity, mk(3, 20, 22, 25, 28), windowStart, now)
			So(s.CurrentValue, ShouldAlmostEqual, 1.0)
			So(s.PreviousValue, ShouldAlmostEqual, 4.0)
			So(s.Trend, ShouldEqual, types.TrendCritical)
		})

		Convey("Fewer than 5 gifts yields the fallback", func() {
			s := signal.GiftActivitySignal(types.SignalGiftActivity, mk(3, 20), windowStart, now)
			So(signal.Insufficient(s), ShouldBeTrue)
		})
	})
}

func TestPresenceSignal(t *testing.T) {
	Convey("Given presence samples", t, func() {
		Convey("An online user reads as improving", func() {
			s := signal.PresenceSignal(model.PresenceSample{Online: true}, 0)
			So(s.Trend, ShouldEqual, types.TrendImproving)
			So(s.Description, ShouldEqual, "online now")
		})

		Convey("Days of absence read as critical", func() {
			s := signal.PresenceSignal(model.PresenceSample{}, 120)
			So(s.Trend, ShouldEqual, types.TrendCritical)
			So(s.CurrentValue, ShouldAlmostEqual, 120.0)
		})
	})
}

func TestGhostingHistorySignal(t *testing.T) {
	Convey("Given a ghosting summary", t, func() {
		Convey("A high rate reads as critical", func() {
			s := signal.GhostingHistorySignal(signal.GhostingSummary{Rate: 0.6, Ghosted: 3, Examined: 5})
			So(s.Trend, ShouldEqual, types.TrendCritical)
			So(s.CurrentValue, ShouldAlmostEqual, 0.6)
		})

		Convey("No examined conversations yields the fallback", func() {
			s := signal.GhostingHistorySignal(signal.GhostingSummary{})
			So(signal.Insufficient(s), ShouldBeTrue)
		})
	})
}

func TestReplySpeedSignal(t *testing.T) {
	Convey("Given several conversation threads", t, func() {
		t1 := thread("c1",
			[2]any{"bob", 1000},
			[2]any{"alice", 960}, // 40 min, older half of c1
			[2]any{"bob", 200},
			[2]any{"alice", 80}, // 120 min, recent half of c1
		)
		t2 := thread("c2",
			[2]any{"carol", 900},
			[2]any{"alice", 860}, // 40 min, older half of c2
			[2]any{"carol", 300},
			[2]any{"alice", 180}, // 120 min, recent half of c2
		)

		Convey("Per-thread halves pool into one classification", func() {
			s := signal.ReplySpeedSignal([][]model.Message{t1, t2}, "alice")
			So(s.Type, ShouldEqual, types.SignalReplySpeed)
			So(s.CurrentValue, ShouldAlmostEqual, 120.0)
			So(s.PreviousValue, ShouldAlmostEqual, 40.0)
			So(s.Trend, ShouldEqual, types.TrendCritical)
		})

		Convey("Too few messages in total yields the fallback", func() {
			s := signal.ReplySpeedSignal([][]model.Message{t1[:2]}, "alice")
			So(signal.Insufficient(s), ShouldBeTrue)
		})
	})
}
