package assistant

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ArchiveStore persists conversations and messages to SQL for long-term
// history, alongside the redis transcript which only covers the live
// session window. Nil-safe: a nil store archives nothing.
type ArchiveStore struct {
	db *sql.DB
}

// NewArchiveStore creates an archive store. Returns nil when db is nil,
// which disables archiving.
func NewArchiveStore(db *sql.DB) *ArchiveStore {
	if db == nil {
		return nil
	}
	return &ArchiveStore{db: db}
}

// ConversationRecord is an archived conversation with per-role counters.
type ConversationRecord struct {
	ID               uuid.UUID
	SessionID        string
	MessageCount     int
	UserMessageCount int
	BotMessageCount  int
	StartedAt        time.Time
	LastMessageAt    *time.Time
}

// EnsureConversation creates the conversation row for a session if it does
// not exist yet, and returns its UUID.
func (s *ArchiveStore) EnsureConversation(ctx context.Context, sessionID string) (uuid.UUID, error) {
	if s == nil || s.db == nil {
		return uuid.Nil, nil
	}
	if strings.TrimSpace(sessionID) == "" {
		return uuid.Nil, fmt.Errorf("assistant: archive sessionID required")
	}

	var existingID uuid.UUID
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM conversations WHERE session_id = $1`,
		sessionID,
	).Scan(&existingID)

	if err == nil {
		return existingID, nil
	}
	if err != sql.ErrNoRows {
		return uuid.Nil, fmt.Errorf("assistant: archive lookup: %w", err)
	}

	newID := uuid.New()
	now := time.Now()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversations (
			id, session_id, message_count, user_message_count, bot_message_count,
			started_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, newID, sessionID, 0, 0, 0, now, now, now)

	if err != nil {
		// Another writer may have raced the insert.
		if strings.Contains(err.Error(), "duplicate key") {
			return s.EnsureConversation(ctx, sessionID)
		}
		return uuid.Nil, fmt.Errorf("assistant: archive create: %w", err)
	}

	return newID, nil
}

// AppendMessage archives one message and bumps the conversation counters.
func (s *ArchiveStore) AppendMessage(ctx context.Context, sessionID string, msg Message) error {
	if s == nil || s.db == nil {
		return nil
	}

	if _, err := s.EnsureConversation(ctx, sessionID); err != nil {
		return err
	}

	rec := toRecord(msg)
	msgID := uuid.New()
	if parsed, err := uuid.Parse(rec.ID); err == nil {
		msgID = parsed
	}
	timestamp := rec.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO conversation_messages (id, session_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`, msgID, sessionID, rec.Role, rec.Content, timestamp)
	if err != nil {
		return fmt.Errorf("assistant: archive insert message: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("assistant: archive read insert result: %w", err)
	}
	if rowsAffected == 0 {
		return nil
	}

	counterColumn := "bot_message_count"
	if rec.Role == RoleUser {
		counterColumn = "user_message_count"
	}

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE conversations SET
			message_count = message_count + 1,
			%s = %s + 1,
			last_message_at = $1,
			updated_at = $1
		WHERE session_id = $2
	`, counterColumn, counterColumn), timestamp, sessionID)
	if err != nil {
		return fmt.Errorf("assistant: archive update counters: %w", err)
	}

	return nil
}

// GetConversation retrieves an archived conversation, or nil when none
// exists for the session.
func (s *ArchiveStore) GetConversation(ctx context.Context, sessionID string) (*ConversationRecord, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}

	var conv ConversationRecord
	var lastMessageAt sql.NullTime

	err := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, message_count, user_message_count, bot_message_count,
			   started_at, last_message_at
		FROM conversations
		WHERE session_id = $1
	`, sessionID).Scan(
		&conv.ID, &conv.SessionID, &conv.MessageCount, &conv.UserMessageCount,
		&conv.BotMessageCount, &conv.StartedAt, &lastMessageAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("assistant: archive get: %w", err)
	}

	if lastMessageAt.Valid {
		conv.LastMessageAt = &lastMessageAt.Time
	}
	return &conv, nil
}
