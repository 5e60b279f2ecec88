// Package eventstore defines read access to the behavioral event history
// consumed by the scoring engine, plus a SQLite-backed implementation.
package eventstore

import (
	"context"
	"time"

	"github.com/lumora/pulse/internal/domain/model"
)

// EventStore provides time-bounded, read-only queries over behavioral
// events. All list queries return events ordered descending by time and
// bounded by the store's configured row limit. Missing history yields empty
// slices, never an error; only connectivity problems surface as errors.
type EventStore interface {
	// ListMessagesBySender returns messages authored by senderID since the
	// given lower bound.
	ListMessagesBySender(ctx context.Context, senderID string, since time.Time) ([]model.Message, error)

	// ListConversationMessages returns all messages of one conversation
	// since the given lower bound, both participants included.
	ListConversationMessages(ctx context.Context, conversationID string, since time.Time) ([]model.Message, error)

	// ListGiftsBySender returns gifts sent by senderID since the lower bound.
	ListGiftsBySender(ctx context.Context, senderID string, since time.Time) ([]model.GiftEvent, error)

	// GetPresence returns the latest presence sample for userID. The bool
	// reports whether a sample exists.
	GetPresence(ctx context.Context, userID string) (model.PresenceSample, bool, error)

	// ListConversationsForSubject returns conversations subjectID takes
	// part in that were touched since the lower bound.
	ListConversationsForSubject(ctx context.Context, subjectID string, since time.Time) ([]model.ConversationMeta, error)

	// ListRecentConversations returns all conversations touched since the
	// lower bound, for batch scans.
	ListRecentConversations(ctx context.Context, since time.Time) ([]model.ConversationMeta, error)

	// ListMeetupAttempts returns meetup attempts requested by subjectID
	// since the lower bound.
	ListMeetupAttempts(ctx context.Context, subjectID string, since time.Time) ([]model.MeetupAttempt, error)

	// SubjectExists reports whether subjectID is known to the store.
	SubjectExists(ctx context.Context, subjectID string) (bool, error)

	// ConversationExists reports whether conversationID is known.
	ConversationExists(ctx context.Context, conversationID string) (bool, error)
}
