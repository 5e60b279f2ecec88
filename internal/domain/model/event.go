// Package model contains the behavioral event snapshots consumed by the
// scoring engine. Events are read-only: they are fetched from the event
// store for a bounded time window and never mutated.
package model

import "time"

// Message is a single chat message authored by a user.
type Message struct {
	ID            string
	SenderID      string
	ChatID        string
	ContentLength int
	SentAt        time.Time
	InReplyToID   string // empty when the message is not a direct reply
}

// GiftEvent records a gift sent between two users inside a conversation.
type GiftEvent struct {
	ID              string
	SenderID        string
	ReceiverID      string
	ConversationKey string
	SentAt          time.Time
}

// PresenceSample is the latest known presence status for a user.
type PresenceSample struct {
	UserID     string
	Online     bool
	LastSeenAt time.Time
}

// ConversationMeta describes a conversation without its message bodies.
type ConversationMeta struct {
	ID             string
	CreatedAt      time.Time
	LastMessageAt  time.Time
	ParticipantIDs []string
}

// MeetupStatus enumerates the lifecycle of a meetup attempt.
type MeetupStatus string

const (
	MeetupPending   MeetupStatus = "pending"
	MeetupAccepted  MeetupStatus = "accepted"
	MeetupDeclined  MeetupStatus = "declined"
	MeetupCompleted MeetupStatus = "completed"
	MeetupCancelled MeetupStatus = "cancelled"
)

// Successful reports whether the attempt led to an actual meetup.
func (s MeetupStatus) Successful() bool {
	return s == MeetupAccepted || s == MeetupCompleted
}

// MeetupAttempt records a user asking another user to meet.
type MeetupAttempt struct {
	ID          string
	RequesterID string
	Status      MeetupStatus
	CreatedAt   time.Time
}
