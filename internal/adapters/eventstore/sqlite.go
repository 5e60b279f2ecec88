package eventstore

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lumora/pulse/internal/domain/model"
)

const defaultRowLimit = 50

// memorySeq names in-memory databases uniquely so two opened stores in one
// process never share state through the shared cache.
var memorySeq atomic.Int64 //nolint:gochecknoglobals // process-wide sequence

// SQLiteStore implements EventStore on an embedded SQLite database.
// Thread-safety: all methods are safe for concurrent use via an internal
// read-write mutex.
type SQLiteStore struct {
	db       *sql.DB
	rowLimit int
	mu       sync.RWMutex
}

// OpenSQLite opens (or creates) the database at dbPath and ensures the
// schema exists. Pass ":memory:" for an in-process database; file-backed
// databases run in WAL mode for concurrent reads.
func OpenSQLite(dbPath string, opts ...SQLiteOption) (*SQLiteStore, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// Shared cache so every pooled connection sees the same database.
		connStr = fmt.Sprintf("file:mem%d?mode=memory&cache=shared", memorySeq.Add(1))
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &SQLiteStore{db: db, rowLimit: defaultRowLimit}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		sender_id TEXT NOT NULL,
		chat_id TEXT NOT NULL,
		content_length INTEGER NOT NULL,
		sent_at DATETIME NOT NULL,
		in_reply_to_id TEXT
	);

	CREATE TABLE IF NOT EXISTS gifts (
		id TEXT PRIMARY KEY,
		sender_id TEXT NOT NULL,
		receiver_id TEXT NOT NULL,
		conversation_key TEXT NOT NULL,
		sent_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS presence (
		user_id TEXT PRIMARY KEY,
		online INTEGER NOT NULL,
		last_seen_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		last_message_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS conversation_participants (
		conversation_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		PRIMARY KEY (conversation_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS meetup_attempts (
		id TEXT PRIMARY KEY,
		requester_id TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(sender_id, sent_at DESC);
	CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id, sent_at DESC);
	CREATE INDEX IF NOT EXISTS idx_gifts_sender ON gifts(sender_id, sent_at DESC);
	CREATE INDEX IF NOT EXISTS idx_conversations_touched ON conversations(last_message_at DESC);
	CREATE INDEX IF NOT EXISTS idx_meetups_requester ON meetup_attempts(requester_id, created_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// ListMessagesBySender returns messages authored by senderID since the
// lower bound, newest first.
func (s *SQLiteStore) ListMessagesBySender(ctx context.Context, senderID string, since time.Time) ([]model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sender_id, chat_id, content_length, sent_at, COALESCE(in_reply_to_id, '')
		FROM messages WHERE sender_id = ? AND sent_at >= ?
		ORDER BY sent_at DESC LIMIT ?`,
		senderID, since, s.rowLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: messages by sender: %v", ErrQuery, err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

// ListConversationMessages returns all messages of one conversation since
// the lower bound, newest first.
func (s *SQLiteStore) ListConversationMessages(ctx context.Context, conversationID string, since time.Time) ([]model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sender_id, chat_id, content_length, sent_at, COALESCE(in_reply_to_id, '')
		FROM messages WHERE chat_id = ? AND sent_at >= ?
		ORDER BY sent_at DESC LIMIT ?`,
		conversationID, since, s.rowLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: conversation messages: %v", ErrQuery, err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]model.Message, error) {
	var out []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ChatID, &m.ContentLength, &m.SentAt, &m.InReplyToID); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return out, nil
}

// ListGiftsBySender returns gifts sent by senderID since the lower bound,
// newest first.
func (s *SQLiteStore) ListGiftsBySender(ctx context.Context, senderID string, since time.Time) ([]model.GiftEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sender_id, receiver_id, conversation_key, sent_at
		FROM gifts WHERE sender_id = ? AND sent_at >= ?
		ORDER BY sent_at DESC LIMIT ?`,
		senderID, since, s.rowLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: gifts by sender: %v", ErrQuery, err)
	}
	defer rows.Close()

	var out []model.GiftEvent
	for rows.Next() {
		var g model.GiftEvent
		if err := rows.Scan(&g.ID, &g.SenderID, &g.ReceiverID, &g.ConversationKey, &g.SentAt); err != nil {
			return nil, fmt.Errorf("scan gift: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gifts: %w", err)
	}
	return out, nil
}

// GetPresence returns the latest presence sample for userID.
func (s *SQLiteStore) GetPresence(ctx context.Context, userID string) (model.PresenceSample, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p model.PresenceSample
	var online int
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, online, last_seen_at FROM presence WHERE user_id = ?`, userID).
		Scan(&p.UserID, &online, &p.LastSeenAt)
	if err == sql.ErrNoRows {
		return model.PresenceSample{}, false, nil
	}
	if err != nil {
		return model.PresenceSample{}, false, fmt.Errorf("%w: presence: %v", ErrQuery, err)
	}
	p.Online = online != 0
	return p, true, nil
}

// ListConversationsForSubject returns conversations subjectID takes part
// in that were touched since the lower bound.
func (s *SQLiteStore) ListConversationsForSubject(ctx context.Context, subjectID string, since time.Time) ([]model.ConversationMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.created_at, c.last_message_at
		FROM conversations c
		JOIN conversation_participants p ON p.conversation_id = c.id
		WHERE p.user_id = ? AND c.last_message_at >= ?
		ORDER BY c.last_message_at DESC LIMIT ?`,
		subjectID, since, s.rowLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: conversations for subject: %v", ErrQuery, err)
	}
	defer rows.Close()
	return s.scanConversations(ctx, rows)
}

// ListRecentConversations returns all conversations touched since the
// lower bound.
func (s *SQLiteStore) ListRecentConversations(ctx context.Context, since time.Time) ([]model.ConversationMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, last_message_at
		FROM conversations WHERE last_message_at >= ?
		ORDER BY last_message_at DESC LIMIT ?`,
		since, s.rowLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: recent conversations: %v", ErrQuery, err)
	}
	defer rows.Close()
	return s.scanConversations(ctx, rows)
}

func (s *SQLiteStore) scanConversations(ctx context.Context, rows *sql.Rows) ([]model.ConversationMeta, error) {
	var out []model.ConversationMeta
	for rows.Next() {
		var c model.ConversationMeta
		if err := rows.Scan(&c.ID, &c.CreatedAt, &c.LastMessageAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}
	for i := range out {
		participants, err := s.participantsFor(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].ParticipantIDs = participants
	}
	return out, nil
}

func (s *SQLiteStore) participantsFor(ctx context.Context, conversationID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM conversation_participants WHERE conversation_id = ? ORDER BY user_id`,
		conversationID)
	if err != nil {
		return nil, fmt.Errorf("%w: participants: %v", ErrQuery, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}
	return ids, nil
}

// ListMeetupAttempts returns meetup attempts requested by subjectID since
// the lower bound, newest first.
func (s *SQLiteStore) ListMeetupAttempts(ctx context.Context, subjectID string, since time.Time) ([]model.MeetupAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, requester_id, status, created_at
		FROM meetup_attempts WHERE requester_id = ? AND created_at >= ?
		ORDER BY created_at DESC LIMIT ?`,
		subjectID, since, s.rowLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: meetup attempts: %v", ErrQuery, err)
	}
	defer rows.Close()

	var out []model.MeetupAttempt
	for rows.Next() {
		var a model.MeetupAttempt
		var status string
		if err := rows.Scan(&a.ID, &a.RequesterID, &status, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan meetup attempt: %w", err)
		}
		a.Status = model.MeetupStatus(status)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meetup attempts: %w", err)
	}
	return out, nil
}

// SubjectExists reports whether subjectID appears anywhere in the event
// history.
func (s *SQLiteStore) SubjectExists(ctx context.Context, subjectID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM presence WHERE user_id = ?
			UNION SELECT 1 FROM messages WHERE sender_id = ?
			UNION SELECT 1 FROM conversation_participants WHERE user_id = ?
		)`, subjectID, subjectID, subjectID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("%w: subject exists: %v", ErrQuery, err)
	}
	return n != 0, nil
}

// ConversationExists reports whether conversationID is known.
func (s *SQLiteStore) ConversationExists(ctx context.Context, conversationID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM conversations WHERE id = ?)`, conversationID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("%w: conversation exists: %v", ErrQuery, err)
	}
	return n != 0, nil
}

// Write helpers used by the seed tool and tests. The scoring engine itself
// never writes.

// InsertMessage stores a message row.
func (s *SQLiteStore) InsertMessage(ctx context.Context, m model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO messages (id, sender_id, chat_id, content_length, sent_at, in_reply_to_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.SenderID, m.ChatID, m.ContentLength, m.SentAt, m.InReplyToID)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// InsertGift stores a gift row.
func (s *SQLiteStore) InsertGift(ctx context.Context, g model.GiftEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO gifts (id, sender_id, receiver_id, conversation_key, sent_at)
		VALUES (?, ?, ?, ?, ?)`,
		g.ID, g.SenderID, g.ReceiverID, g.ConversationKey, g.SentAt)
	if err != nil {
		return fmt.Errorf("insert gift: %w", err)
	}
	return nil
}

// UpsertPresence stores or replaces a user's presence sample.
func (s *SQLiteStore) UpsertPresence(ctx context.Context, p model.PresenceSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	online := 0
	if p.Online {
		online = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO presence (user_id, online, last_seen_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET online = excluded.online, last_seen_at = excluded.last_seen_at`,
		p.UserID, online, p.LastSeenAt)
	if err != nil {
		return fmt.Errorf("upsert presence: %w", err)
	}
	return nil
}

// InsertConversation stores a conversation and its participants.
func (s *SQLiteStore) InsertConversation(ctx context.Context, c model.ConversationMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, created_at, last_message_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET last_message_at = excluded.last_message_at`,
		c.ID, c.CreatedAt, c.LastMessageAt)
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	for _, id := range c.ParticipantIDs {
		if _, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO conversation_participants (conversation_id, user_id) VALUES (?, ?)`,
			c.ID, id); err != nil {
			return fmt.Errorf("insert participant: %w", err)
		}
	}
	return nil
}

// InsertMeetupAttempt stores a meetup attempt row.
func (s *SQLiteStore) InsertMeetupAttempt(ctx context.Context, a model.MeetupAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO meetup_attempts (id, requester_id, status, created_at)
		VALUES (?, ?, ?, ?)`,
		a.ID, a.RequesterID, string(a.Status), a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert meetup attempt: %w", err)
	}
	return nil
}
