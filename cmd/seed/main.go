// Command seed populates a SQLite event database with synthetic social
// activity: chatty pairs, casual pairs and ghosting pairs, so that both
// scoring pipelines produce a realistic spread of tiers.
package main

import (
	"context"
	"flag"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/lumora/pulse/internal/adapters/eventstore"
	"github.com/lumora/pulse/internal/domain/model"
)

const (
	defaultConversations = 20
	defaultDays          = 30
	seedTimeout          = 2 * time.Minute
)

// pairProfile shapes the synthetic activity of one conversation pair.
type pairProfile struct {
	name           string
	replyMinutes   int // mean subject reply delay
	messagesPerDay float64
	contentLength  int
	giftEvery      int  // one gift every N days, 0 for none
	ghosted        bool // subject goes silent in the last stretch
	meetups        int
	meetupsDone    int
}

var profiles = []pairProfile{
	{name: "eager", replyMinutes: 8, messagesPerDay: 6, contentLength: 140, giftEvery: 2, meetups: 3, meetupsDone: 2},
	{name: "steady", replyMinutes: 45, messagesPerDay: 2, contentLength: 80, giftEvery: 7, meetups: 1, meetupsDone: 1},
	{name: "cooling", replyMinutes: 240, messagesPerDay: 0.7, contentLength: 35, giftEvery: 0, meetups: 1, meetupsDone: 0},
	{name: "ghosting", replyMinutes: 600, messagesPerDay: 0.4, contentLength: 20, giftEvery: 0, ghosted: true},
}

func main() {
	var (
		dbPath = flag.String("db", "pulse.db", "SQLite database path")
		count  = flag.Int("conversations", defaultConversations, "Number of conversations to generate")
		days   = flag.Int("days", defaultDays, "Days of history to generate")
		seed   = flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
	defer cancel()

	store, err := eventstore.OpenSQLite(*dbPath)
	if err != nil {
		os.Stderr.WriteString("failed to open database: " + err.Error() + "\n")
		return
	}
	defer store.Close()

	rng := rand.New(rand.NewSource(*seed))
	now := time.Now().UTC()

	for i := 0; i < *count; i++ {
		profile := profiles[i%len(profiles)]
		if err := seedConversation(ctx, store, rng, profile, now, *days); err != nil {
			os.Stderr.WriteString("seeding failed: " + err.Error() + "\n")
			return
		}
	}

	os.Stdout.WriteString("seeded " + *dbPath + "\n")
}

// seedConversation writes one pair's full history: conversation, messages
// with reply chains, gifts, presence and meetup attempts.
func seedConversation(ctx context.Context, store *eventstore.SQLiteStore, rng *rand.Rand, p pairProfile, now time.Time, days int) error {
	subject := "user-" + uuid.NewString()[:8]
	counterpart := "user-" + uuid.NewString()[:8]
	convID := "conv-" + uuid.NewString()[:8]

	start := now.AddDate(0, 0, -days)

	// Ghosting pairs stop replying ten days before now, leaving the
	// counterpart's messages unanswered.
	subjectCutoff := now
	if p.ghosted {
		subjectCutoff = now.AddDate(0, 0, -10)
	}

	total := int(p.messagesPerDay * float64(days))
	if total < 4 {
		total = 4
	}

	var lastMessageAt time.Time
	var lastID string
	cursor := start
	for i := 0; i < total; i++ {
		cursor = cursor.Add(time.Duration(float64(days*24)/float64(total)*60) * time.Minute)
		if cursor.After(now) {
			break
		}

		// Counterpart opens, subject replies after the profile delay.
		inbound := model.Message{
			ID:            uuid.NewString(),
			SenderID:      counterpart,
			ChatID:        convID,
			ContentLength: p.contentLength/2 + rng.Intn(p.contentLength/2+1),
			SentAt:        cursor,
			InReplyToID:   lastID,
		}
		if err := store.InsertMessage(ctx, inbound); err != nil {
			return err
		}
		lastMessageAt = inbound.SentAt
		lastID = inbound.ID

		replyAt := cursor.Add(time.Duration(p.replyMinutes+rng.Intn(p.replyMinutes+1)) * time.Minute)
		if replyAt.After(subjectCutoff) {
			continue
		}
		reply := model.Message{
			ID:            uuid.NewString(),
			SenderID:      subject,
			ChatID:        convID,
			ContentLength: p.contentLength + rng.Intn(p.contentLength+1),
			SentAt:        replyAt,
			InReplyToID:   inbound.ID,
		}
		if err := store.InsertMessage(ctx, reply); err != nil {
			return err
		}
		lastMessageAt = reply.SentAt
		lastID = reply.ID
	}

	conv := model.ConversationMeta{
		ID:             convID,
		CreatedAt:      start,
		LastMessageAt:  lastMessageAt,
		ParticipantIDs: []string{subject, counterpart},
	}
	if err := store.InsertConversation(ctx, conv); err != nil {
		return err
	}

	if p.giftEvery > 0 {
		for d := 0; d < days; d += p.giftEvery {
			gift := model.GiftEvent{
				ID:              uuid.NewString(),
				SenderID:        subject,
				ReceiverID:      counterpart,
				ConversationKey: convID,
				SentAt:          start.AddDate(0, 0, d).Add(time.Duration(rng.Intn(24)) * time.Hour),
			}
			if err := store.InsertGift(ctx, gift); err != nil {
				return err
			}
		}
	}

	lastSeen := now.Add(-time.Duration(p.replyMinutes) * time.Minute)
	if p.ghosted {
		lastSeen = now.AddDate(0, 0, -5)
	}
	presence := model.PresenceSample{
		UserID:     subject,
		Online:     !p.ghosted && rng.Intn(3) == 0,
		LastSeenAt: lastSeen,
	}
	if err := store.UpsertPresence(ctx, presence); err != nil {
		return err
	}

	for m := 0; m < p.meetups; m++ {
		status := model.MeetupDeclined
		if m < p.meetupsDone {
			status = model.MeetupCompleted
		}
		attempt := model.MeetupAttempt{
			ID:          uuid.NewString(),
			RequesterID: subject,
			Status:      status,
			CreatedAt:   start.AddDate(0, 0, rng.Intn(days)),
		}
		if err := store.InsertMeetupAttempt(ctx, attempt); err != nil {
			return err
		}
	}
	return nil
}
