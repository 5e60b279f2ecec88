package engine_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	cache "github.com/lumora/pulse/internal/adapters/cache"
	"github.com/lumora/pulse/internal/domain/model"
	"github.com/lumora/pulse/internal/domain/types"
	engine "github.com/lumora/pulse/internal/engine"
	"github.com/lumora/pulse/pkg/clock"
	. "github.com/smartystreets/goconvey/convey"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// fakeStore is an in-memory EventStore for deterministic pipeline tests.
// Fields are fixed at construction; methods only read, so concurrent
// fan-out access is safe.
type fakeStore struct {
	msgsBySender map[string][]model.Message
	convMsgs     map[string][]model.Message
	gifts        map[string][]model.GiftEvent
	presence     map[string]model.PresenceSample
	convsFor     map[string][]model.ConversationMeta
	recent       []model.ConversationMeta
	meetups      map[string][]model.MeetupAttempt
	subjects     map[string]bool
	convos       map[string]bool

	failSubjectLookup bool
	failConvMsgsFor   map[string]bool
	giftsDelay        time.Duration

	subjectLookups atomic.Int32
	recentSince    time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		msgsBySender: map[string][]model.Message{},
		convMsgs:     map[string][]model.Message{},
		gifts:        map[string][]model.GiftEvent{},
		presence:     map[string]model.PresenceSample{},
		convsFor:     map[string][]model.ConversationMeta{},
		meetups:      map[string][]model.MeetupAttempt{},
		subjects:     map[string]bool{},
		convos:       map[string]bool{},
	}
}

func (f *fakeStore) ListMessagesBySender(_ context.Context, senderID string, _ time.Time) ([]model.Message, error) {
	return f.msgsBySender[senderID], nil
}

func (f *fakeStore) ListConversationMessages(_ context.Context, conversationID string, _ time.Time) ([]model.Message, error) {
	if f.failConvMsgsFor[conversationID] {
		return nil, errors.New("connection refused")
	}
	return f.convMsgs[conversationID], nil
}

func (f *fakeStore) ListGiftsBySender(ctx context.Context, senderID string, _ time.Time) ([]model.GiftEvent, error) {
	if f.giftsDelay > 0 {
		select {
		case <-time.After(f.giftsDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.gifts[senderID], nil
}

func (f *fakeStore) GetPresence(_ context.Context, userID string) (model.PresenceSample, bool, error) {
	p, ok := f.presence[userID]
	return p, ok, nil
}

func (f *fakeStore) ListConversationsForSubject(_ context.Context, subjectID string, _ time.Time) ([]model.ConversationMeta, error) {
	return f.convsFor[subjectID], nil
}

func (f *fakeStore) ListRecentConversations(_ context.Context, since time.Time) ([]model.ConversationMeta, error) {
	f.recentSince = since
	return f.recent, nil
}

func (f *fakeStore) ListMeetupAttempts(_ context.Context, subjectID string, _ time.Time) ([]model.MeetupAttempt, error) {
	return f.meetups[subjectID], nil
}

func (f *fakeStore) SubjectExists(_ context.Context, subjectID string) (bool, error) {
	f.subjectLookups.Add(1)
	if f.failSubjectLookup {
		return false, errors.New("store down")
	}
	return f.subjects[subjectID], nil
}

func (f *fakeStore) ConversationExists(_ context.Context, conversationID string) (bool, error) {
	return f.convos[conversationID], nil
}

func newTestEngine(store *fakeStore, opts ...engine.Option) *engine.Engine {
	clk := clock.Fixed(now)
	gate := cache.NewGateway(cache.NewInMemoryStore(), clk)
	return engine.New(store, gate, clk, opts...)
}

// msgSeq builds a descending message list from (sender, minutesAgo) pairs
// given oldest-first.
func msgSeq(chatID string, length int, pairs ...[2]any) []model.Message {
	msgs := make([]model.Message, 0, len(pairs))
	for i := len(pairs) - 1; i >= 0; i-- {
		minAgo := pairs[i][1].(int)
		msgs = append(msgs, model.Message{
			ID:            chatID + "-" + time.Duration(minAgo).String(),
			SenderID:      pairs[i][0].(string),
			ChatID:        chatID,
			ContentLength: length,
			SentAt:        now.Add(-time.Duration(minAgo) * time.Minute),
		})
	}
	return msgs
}

// eagerStore models a highly engaged subject: fast replies, steady gifts,
// successful meetups, every conversation gifted into.
func eagerStore() *fakeStore {
	f := newFakeStore()
	f.subjects["alice"] = true

	conv := model.ConversationMeta{
		ID:             "c1",
		CreatedAt:      now.AddDate(0, 0, -20),
		LastMessageAt:  now.Add(-time.Hour),
		ParticipantIDs: []string{"alice", "bob"},
	}
	f.convsFor["alice"] = []model.ConversationMeta{conv}
	f.recent = []model.ConversationMeta{conv}
	f.convos["c1"] = true

	f.convMsgs["c1"] = msgSeq("c1", 100,
		[2]any{"bob", 200},
		[2]any{"alice", 195}, // 5 min reply
		[2]any{"bob", 100},
		[2]any{"alice", 96}, // 4 min reply
		[2]any{"bob", 50},
		[2]any{"alice", 46}, // 4 min reply
	)
	f.msgsBySender["alice"] = msgSeq("c1", 100,
		[2]any{"alice", 195},
		[2]any{"alice", 150},
		[2]any{"alice", 96},
		[2]any{"alice", 70},
		[2]any{"alice", 46},
		[2]any{"alice", 20},
	)
	for d := 1; d <= 4; d++ {
		f.gifts["alice"] = append(f.gifts["alice"], model.GiftEvent{
			ID:              "g" + time.Duration(d).String(),
			SenderID:        "alice",
			ReceiverID:      "bob",
			ConversationKey: "c1",
			SentAt:          now.AddDate(0, 0, -d),
		})
	}
	f.meetups["alice"] = []model.MeetupAttempt{
		{ID: "a1", RequesterID: "alice", Status: model.MeetupCompleted, CreatedAt: now.AddDate(0, 0, -10)},
		{ID: "a2", RequesterID: "alice", Status: model.MeetupAccepted, CreatedAt: now.AddDate(0, 0, -5)},
	}
	return f
}

// silentStore models a subject who has gone quiet: barely any messages, no
// gifts, offline for five days.
func silentStore() *fakeStore {
	f := newFakeStore()
	f.subjects["dana"] = true
	f.subjects["bob"] = true

	conv := model.ConversationMeta{
		ID:             "c9",
		CreatedAt:      now.AddDate(0, 0, -25),
		LastMessageAt:  now.AddDate(0, 0, -19),
		ParticipantIDs: []string{"bob", "dana"},
	}
	f.convos["c9"] = true
	f.recent = []model.ConversationMeta{conv}
	f.convsFor["dana"] = []model.ConversationMeta{conv}

	f.convMsgs["c9"] = msgSeq("c9", 30,
		[2]any{"bob", 20 * 24 * 60},
		[2]any{"dana", 19 * 24 * 60},
	)
	f.presence["dana"] = model.PresenceSample{
		UserID:     "dana",
		Online:     false,
		LastSeenAt: now.Add(-120 * time.Hour),
	}
	return f
}

func TestComputeIntentScore(t *testing.T) {
	Convey("Given an eagerly engaged subject", t, func() {
		ctx := context.Background()
		eng := newTestEngine(eagerStore())

		Convey("The subject scores hot", func() {
			res, err := eng.ComputeIntentScore(ctx, "alice", 0)
			So(err, ShouldBeNil)
			So(res.SubjectID, ShouldEqual, "alice")
			So(res.Pipeline, ShouldEqual, types.PipelineIntent)
			So(res.OverallScore, ShouldBeGreaterThanOrEqualTo, 70)
			So(res.Tier, ShouldEqual, types.TierHot)
			So(res.Signals, ShouldHaveLength, 5)
			So(res.Signals[0].Type, ShouldEqual, types.SignalReplySpeed)
			So(res.ComputedAt.Equal(now), ShouldBeTrue)
		})

		Convey("Strong sub-scores surface as insights", func() {
			res, err := eng.ComputeIntentScore(ctx, "alice", 0)
			So(err, ShouldBeNil)
			So(res.Insights, ShouldNotBeEmpty)
		})

		Convey("Scoring twice with a frozen clock is deterministic", func() {
			first, err := eng.ComputeIntentScore(ctx, "alice", 0)
			So(err, ShouldBeNil)
			second, err := eng.ComputeIntentScore(ctx, "alice", 0)
			So(err, ShouldBeNil)
			So(second, ShouldResemble, first)
		})
	})

	Convey("Given a subject with no history at all", t, func() {
		ctx := context.Background()
		store := newFakeStore()
		store.subjects["ghost"] = true
		eng := newTestEngine(store)

		Convey("Every signal falls back to neutral and the score is mid-range", func() {
			res, err := eng.ComputeIntentScore(ctx, "ghost", 0)
			So(err, ShouldBeNil)
			So(res.OverallScore, ShouldBeBetween, 30, 60)
			So(res.Tier, ShouldEqual, types.TierWarm)
			for _, s := range res.Signals {
				So(s.Trend, ShouldEqual, types.TrendStable)
			}
		})
	})

	Convey("Given an unknown subject", t, func() {
		ctx := context.Background()
		eng := newTestEngine(newFakeStore())

		Convey("The call fails with ErrUnknownSubject", func() {
			_, err := eng.ComputeIntentScore(ctx, "nobody", 0)
			So(errors.Is(err, engine.ErrUnknownSubject), ShouldBeTrue)
		})
	})

	Convey("Given a failing subject lookup", t, func() {
		ctx := context.Background()
		store := newFakeStore()
		store.failSubjectLookup = true
		eng := newTestEngine(store)

		Convey("The call fails with ErrDataUnavailable", func() {
			_, err := eng.ComputeIntentScore(ctx, "alice", 0)
			So(errors.Is(err, engine.ErrDataUnavailable), ShouldBeTrue)
		})
	})

	Convey("Given a store that fails thread reads", t, func() {
		ctx := context.Background()
		store := eagerStore()
		store.failConvMsgsFor = map[string]bool{"c1": true}
		eng := newTestEngine(store)

		Convey("The failure escalates instead of scoring on partial data", func() {
			_, err := eng.ComputeIntentScore(ctx, "alice", 0)
			So(errors.Is(err, engine.ErrDataUnavailable), ShouldBeTrue)
		})
	})
}

func TestComputeIntentScore_Caching(t *testing.T) {
	Convey("Given a cached intent score", t, func() {
		ctx := context.Background()
		store := eagerStore()
		eng := newTestEngine(store)

		first, err := eng.ComputeIntentScore(ctx, "alice", 0)
		So(err, ShouldBeNil)
		lookupsAfterFirst := store.subjectLookups.Load()

		Convey("A second call within maxAge never touches the store", func() {
			second, err := eng.ComputeIntentScore(ctx, "alice", 0)
			So(err, ShouldBeNil)
			So(second, ShouldResemble, first)
			So(store.subjectLookups.Load(), ShouldEqual, lookupsAfterFirst)
		})

		Convey("A window override recomputes under its own key", func() {
			_, err := eng.ComputeIntentScore(ctx, "alice", 7)
			So(err, ShouldBeNil)
			So(store.subjectLookups.Load(), ShouldBeGreaterThan, lookupsAfterFirst)
		})
	})
}

func TestComputeIntentScore_TimeoutDegradation(t *testing.T) {
	Convey("Given a gift source that times out", t, func() {
		ctx := context.Background()
		store := eagerStore()
		store.giftsDelay = 200 * time.Millisecond
		eng := newTestEngine(store, engine.WithSourceTimeout(10*time.Millisecond))

		Convey("The pipeline degrades that signal instead of failing", func() {
			res, err := eng.ComputeIntentScore(ctx, "alice", 0)
			So(err, ShouldBeNil)
			So(res.Tier, ShouldNotBeEmpty)
			// With gifts degraded to empty, gifting falls back to neutral.
			So(res.OverallScore, ShouldBeLessThan, 94)
		})
	})
}

func TestComputeGhostingRisk(t *testing.T) {
	Convey("Given a subject who went quiet and offline", t, func() {
		ctx := context.Background()
		eng := newTestEngine(silentStore())

		Convey("The risk lands in the high tier", func() {
			res, err := eng.ComputeGhostingRisk(ctx, "c9", "dana")
			So(err, ShouldBeNil)
			So(res.Pipeline, ShouldEqual, types.PipelineGhosting)
			So(res.ConversationID, ShouldEqual, "c9")
			So(res.OverallScore, ShouldEqual, 62)
			So(res.Tier, ShouldEqual, types.TierHigh)
			So(res.Signals, ShouldHaveLength, 5)
		})

		Convey("Presence and gifting produce the risk insights", func() {
			res, err := eng.ComputeGhostingRisk(ctx, "c9", "dana")
			So(err, ShouldBeNil)
			So(res.Insights, ShouldHaveLength, 2)
			So(res.Insights[0], ShouldContainSubstring, "haven't been online")
			So(res.Insights[1], ShouldContainSubstring, "dropped off")
		})
	})

	Convey("Given a healthy, active conversation", t, func() {
		ctx := context.Background()
		f := newFakeStore()
		f.subjects["dana"] = true
		f.convos["c2"] = true
		conv := model.ConversationMeta{
			ID:             "c2",
			LastMessageAt:  now.Add(-time.Hour),
			ParticipantIDs: []string{"bob", "dana"},
		}
		f.convsFor["dana"] = []model.ConversationMeta{conv}
		f.convMsgs["c2"] = msgSeq("c2", 60,
			[2]any{"bob", 300},
			[2]any{"dana", 290}, // 10 min reply
			[2]any{"bob", 200},
			[2]any{"dana", 190}, // 10 min reply
			[2]any{"bob", 100},
			[2]any{"dana", 90}, // 10 min reply
		)
		f.presence["dana"] = model.PresenceSample{UserID: "dana", Online: true, LastSeenAt: now}
		f.gifts["dana"] = []model.GiftEvent{
			{ID: "g1", SenderID: "dana", ConversationKey: "c2", SentAt: now.AddDate(0, 0, -2)},
		}
		eng := newTestEngine(f)

		Convey("The risk lands in the low tier with no insights", func() {
			res, err := eng.ComputeGhostingRisk(ctx, "c2", "dana")
			So(err, ShouldBeNil)
			So(res.Tier, ShouldEqual, types.TierLow)
			So(res.OverallScore, ShouldBeLessThan, 40)
			So(res.Insights, ShouldBeEmpty)
		})
	})

	Convey("Given a store that fails reads of an older conversation", t, func() {
		ctx := context.Background()
		store := silentStore()
		store.convsFor["dana"] = append(store.convsFor["dana"], model.ConversationMeta{
			ID:             "c8",
			CreatedAt:      now.AddDate(0, 0, -50),
			LastMessageAt:  now.AddDate(0, 0, -40),
			ParticipantIDs: []string{"bob", "dana"},
		})
		store.failConvMsgsFor = map[string]bool{"c8": true}
		eng := newTestEngine(store)

		Convey("The history signal escalates instead of counting the conversation as clean", func() {
			_, err := eng.ComputeGhostingRisk(ctx, "c9", "dana")
			So(errors.Is(err, engine.ErrDataUnavailable), ShouldBeTrue)
		})
	})

	Convey("Given an unknown conversation", t, func() {
		ctx := context.Background()
		eng := newTestEngine(silentStore())

		Convey("The call fails with ErrUnknownConversation", func() {
			_, err := eng.ComputeGhostingRisk(ctx, "c404", "dana")
			So(errors.Is(err, engine.ErrUnknownConversation), ShouldBeTrue)
		})
	})

	Convey("Given an unknown subject in a known conversation", t, func() {
		ctx := context.Background()
		eng := newTestEngine(silentStore())

		Convey("The call fails with ErrUnknownSubject", func() {
			_, err := eng.ComputeGhostingRisk(ctx, "c9", "nobody")
			So(errors.Is(err, engine.ErrUnknownSubject), ShouldBeTrue)
		})
	})
}

func TestWarning(t *testing.T) {
	Convey("Given a high-risk conversation", t, func() {
		ctx := context.Background()
		eng := newTestEngine(silentStore())

		Convey("The warning is the softened high-tier nudge", func() {
			w := eng.Warning(ctx, "c9", "dana")
			So(w.ShowWarning, ShouldBeTrue)
			So(w.Message, ShouldContainSubstring, "quiet")
			So(w.Suggestion, ShouldNotBeBlank)
		})
	})

	Convey("Given a scoring failure", t, func() {
		ctx := context.Background()
		eng := newTestEngine(newFakeStore())

		Convey("The warning degrades to the zero value, never an error", func() {
			w := eng.Warning(ctx, "c404", "nobody")
			So(w.ShowWarning, ShouldBeFalse)
			So(w.Message, ShouldBeBlank)
		})
	})
}

func TestListHighRiskConversations(t *testing.T) {
	Convey("Given recent conversations with one quiet participant", t, func() {
		ctx := context.Background()
		eng := newTestEngine(silentStore(), engine.WithBatchWorkers(4))

		Convey("Only high-tier participants come back, scored and sorted", func() {
			out, err := eng.ListHighRiskConversations(ctx, 30)
			So(err, ShouldBeNil)
			So(out, ShouldHaveLength, 1)
			So(out[0].SubjectID, ShouldEqual, "dana")
			So(out[0].ConversationID, ShouldEqual, "c9")
			So(out[0].Tier, ShouldEqual, types.TierHigh)
		})
	})

	Convey("Given a configured default scan window", t, func() {
		ctx := context.Background()
		store := silentStore()
		eng := newTestEngine(store, engine.WithHighRiskWindow(3))

		Convey("Omitting the window falls back to the configured one", func() {
			_, err := eng.ListHighRiskConversations(ctx, 0)
			So(err, ShouldBeNil)
			So(store.recentSince.Equal(now.AddDate(0, 0, -3)), ShouldBeTrue)
		})
	})

	Convey("Given no recent conversations", t, func() {
		ctx := context.Background()
		eng := newTestEngine(newFakeStore())

		Convey("The scan returns empty without error", func() {
			out, err := eng.ListHighRiskConversations(ctx, 7)
			So(err, ShouldBeNil)
			So(out, ShouldBeEmpty)
		})
	})

	Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		eng := newTestEngine(silentStore())

		Convey("The scan reports the interruption", func() {
			_, err := eng.ListHighRiskConversations(ctx, 7)
			So(err, ShouldNotBeNil)
		})
	})
}
