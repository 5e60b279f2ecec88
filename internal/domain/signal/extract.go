// Package signal reduces raw behavioral events into numeric summaries and
// classifies their trends. Every function here is pure: no clock reads, no
// I/O, and every ratio has an explicit zero fallback so an empty input can
// never produce NaN or Inf.
package signal

import (
	"time"

	"github.com/lumora/pulse/internal/domain/model"
)

// Extraction constants. The ghosting silence window and the reply-delta cap
// are heuristics carried over from production tuning; they are exposed as
// configuration upstream rather than re-derived here.
const (
	// maxReplyDeltaMinutes caps what still counts as a reply. Anything
	// above 24h is a new conversation thread, not a reply.
	maxReplyDeltaMinutes = 1440.0

	// ghostedMessagesExamined bounds how many trailing messages are
	// inspected per conversation when detecting a ghost.
	ghostedMessagesExamined = 10

	// minSubjectMessages and minCounterpartMessages gate ghost detection:
	// both sides must have actually talked for silence to mean anything.
	minSubjectMessages     = 2
	minCounterpartMessages = 1

	// Silence in the open interval (ghostSilenceMin, ghostSilenceMax)
	// counts as ghosting. Below it the reply may still come; above it the
	// conversation is dead rather than ghosted.
	ghostSilenceMin = 7 * 24 * time.Hour
	ghostSilenceMax = 30 * 24 * time.Hour
)

// MeanReplyLatency returns the subject's average reply latency in minutes
// over a descending conversation message list. A reply is a message by the
// subject directly following a counterpart message; deltas outside
// (0, 1440] minutes are discarded. Returns 0 when no valid reply exists.
func MeanReplyLatency(msgs []model.Message, subjectID string) float64 {
	sum, n := replyDeltas(msgs, subjectID)
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// MeanReplyLatencyAcross pools reply deltas across several conversation
// threads so that message pairs never straddle a conversation boundary.
func MeanReplyLatencyAcross(threads [][]model.Message, subjectID string) float64 {
	var sum float64
	var n int
	for _, msgs := range threads {
		s, c := replyDeltas(msgs, subjectID)
		sum += s
		n += c
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func replyDeltas(msgs []model.Message, subjectID string) (sum float64, n int) {
	for i := 0; i+1 < len(msgs); i++ {
		cur, prev := msgs[i], msgs[i+1]
		if cur.SenderID != subjectID || prev.SenderID == subjectID {
			continue
		}
		delta := cur.SentAt.Sub(prev.SentAt).Minutes()
		if delta <= 0 || delta > maxReplyDeltaMinutes {
			continue
		}
		sum += delta
		n++
	}
	return sum, n
}

// MeanMessageDepth returns the mean character length of a message batch,
// 0 on empty input.
func MeanMessageDepth(msgs []model.Message) float64 {
	if len(msgs) == 0 {
		return 0
	}
	var sum float64
	for _, m := range msgs {
		sum += float64(m.ContentLength)
	}
	return sum / float64(len(msgs))
}

// GiftingSummary captures the gifting rate and its spread across
// conversations.
type GiftingSummary struct {
	// Rate is gifts per distinct active calendar day.
	Rate float64
	// PerConversation counts gifts per conversation key.
	PerConversation map[string]int
}

// GiftingRate reduces gift events into gifts-per-active-day plus a
// per-conversation diversity count. The day divisor is never below 1.
func GiftingRate(gifts []model.GiftEvent) GiftingSummary {
	perConv := make(map[string]int, len(gifts))
	days := make(map[string]struct{}, len(gifts))
	for _, g := range gifts {
		perConv[g.ConversationKey]++
		days[g.SentAt.UTC().Format("2006-01-02")] = struct{}{}
	}
	divisor := len(days)
	if divisor < 1 {
		divisor = 1
	}
	return GiftingSummary{
		Rate:            float64(len(gifts)) / float64(divisor),
		PerConversation: perConv,
	}
}

// ConversationThread pairs a conversation with its trailing messages
// (descending by time), as fetched from the event store.
type ConversationThread struct {
	Meta     model.ConversationMeta
	Messages []model.Message
}

// GhostingSummary is the outcome of ghost detection across conversations.
type GhostingSummary struct {
	Rate     float64
	Ghosted  int
	Examined int
}

// GhostingRate iterates candidate conversations and counts those the
// subject has ghosted: the subject authored at least 2 of the last 10
// messages, the counterpart at least 1, and the silence since the subject's
// most recent message falls strictly between 7 and 30 days as of now.
func GhostingRate(threads []ConversationThread, subjectID string, now time.Time) GhostingSummary {
	var ghosted int
	for _, th := range threads {
		if isGhosted(th.Messages, subjectID, now) {
			ghosted++
		}
	}
	s := GhostingSummary{Ghosted: ghosted, Examined: len(threads)}
	if s.Examined > 0 {
		s.Rate = float64(ghosted) / float64(s.Examined)
	}
	return s
}

func isGhosted(msgs []model.Message, subjectID string, now time.Time) bool {
	if len(msgs) > ghostedMessagesExamined {
		msgs = msgs[:ghostedMessagesExamined]
	}
	var bySubject, byOther int
	var lastSubjectMsg time.Time
	for _, m := range msgs {
		if m.SenderID == subjectID {
			bySubject++
			if m.SentAt.After(lastSubjectMsg) {
				lastSubjectMsg = m.SentAt
			}
		} else {
			byOther++
		}
	}
	if bySubject < minSubjectMessages || byOther < minCounterpartMessages {
		return false
	}
	silence := now.Sub(lastSubjectMsg)
	return silence > ghostSilenceMin && silence < ghostSilenceMax
}

// MeetupSuccessRatio returns the share of attempts that were accepted or
// completed, 0 when there are no attempts.
func MeetupSuccessRatio(attempts []model.MeetupAttempt) float64 {
	if len(attempts) == 0 {
		return 0
	}
	var ok int
	for _, a := range attempts {
		if a.Status.Successful() {
			ok++
		}
	}
	return float64(ok) / float64(len(attempts))
}

// UnlockRatio returns the share of the subject's conversations that the
// subject has gifted into, 0 when there are no conversations.
func UnlockRatio(gifts []model.GiftEvent, convs []model.ConversationMeta) float64 {
	if len(convs) == 0 {
		return 0
	}
	gifted := make(map[string]struct{}, len(gifts))
	for _, g := range gifts {
		gifted[g.ConversationKey] = struct{}{}
	}
	var unlocked int
	for _, c := range convs {
		if _, ok := gifted[c.ID]; ok {
			unlocked++
		}
	}
	return float64(unlocked) / float64(len(convs))
}

// HoursSinceSeen returns how many hours ago the user was last seen, 0 when
// the user is online right now. A zero LastSeenAt with Online=false means
// the user was never observed; callers treat that as missing data.
func HoursSinceSeen(p model.PresenceSample, now time.Time) float64 {
	if p.Online {
		return 0
	}
	h := now.Sub(p.LastSeenAt).Hours()
	if h < 0 {
		return 0
	}
	return h
}
