package chat

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Store mirrors finished conversations to Postgres so transcripts survive a
// restart. The in-memory history stays authoritative; callers log store
// failures and move on.
type Store struct {
	db *sql.DB
}

// NewStore wraps a database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ConversationSummary is one row of the conversation listing.
type ConversationSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SaveHistory replaces the stored transcript for a conversation with the
// given messages. Synthetic context messages are not mirrored. The title is
// only set when the conversation row is first created.
func (s *Store) SaveHistory(ctx context.Context, conversationID, title string, messages []Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO conversations (id, title, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET updated_at = NOW()
	`, conversationID, title); err != nil {
		return fmt.Errorf("upsert conversation: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM conversation_messages WHERE conversation_id = $1
	`, conversationID); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}

	for _, msg := range messages {
		if strings.HasPrefix(msg.Content, contextPrefix) {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO conversation_messages (conversation_id, role, content)
			VALUES ($1, $2, $3)
		`, conversationID, msg.Role, msg.Content); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ListConversations returns stored conversations, most recently updated
// first.
func (s *Store) ListConversations(ctx context.Context, limit int) ([]ConversationSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.title, COUNT(m.id), c.created_at, c.updated_at
		FROM conversations c
		LEFT JOIN conversation_messages m ON m.conversation_id = c.id
		GROUP BY c.id
		ORDER BY c.updated_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var summaries []ConversationSummary
	for rows.Next() {
		var summary ConversationSummary
		if err := rows.Scan(&summary.ID, &summary.Title, &summary.MessageCount, &summary.CreatedAt, &summary.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// GetMessages returns the stored transcript for a conversation in insertion
// order.
func (s *Store) GetMessages(ctx context.Context, conversationID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content
		FROM conversation_messages
		WHERE conversation_id = $1
		ORDER BY id
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.Role, &msg.Content); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
