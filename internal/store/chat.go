package store

import (
	"database/sql"
	"fmt"
	"time"
)

// maxMessageSize is the maximum size of a chat message stored in the DB.
// Prevents bloat from pasted-in walls of text.
const maxMessageSize = 10 * 1024 // 10KB

// defaultChatTitle is the placeholder title until the first user message
// names the session.
const defaultChatTitle = "New chat"

// ChatSession is one conversation with the journal companion.
type ChatSession struct {
	ID        string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChatMessage is one turn in a chat session.
type ChatMessage struct {
	ID        int64
	SessionID string
	Role      string // "user" or "assistant"
	Content   string
	CreatedAt time.Time
}

// CreateChatSession inserts a new session with the given id.
func (db *DB) CreateChatSession(id string) (*ChatSession, error) {
	now := time.Now()
	_, err := db.Exec(`
		INSERT INTO chat_sessions (id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, id, defaultChatTitle, formatTime(now), formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("create chat session: %w", err)
	}
	return &ChatSession{ID: id, Title: defaultChatTitle, CreatedAt: now, UpdatedAt: now}, nil
}

// GetChatSession returns a session, or nil if not found.
func (db *DB) GetChatSession(id string) (*ChatSession, error) {
	var s ChatSession
	var created, updated string
	err := db.QueryRow(`
		SELECT id, title, created_at, updated_at FROM chat_sessions WHERE id = ?
	`, id).Scan(&s.ID, &s.Title, &created, &updated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chat session: %w", err)
	}
	if s.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("chat session %s: %w", id, err)
	}
	if s.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("chat session %s: %w", id, err)
	}
	return &s, nil
}

// ListChatSessions returns sessions, most recently active first.
func (db *DB) ListChatSessions(limit int) ([]ChatSession, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT id, title, created_at, updated_at
		FROM chat_sessions ORDER BY updated_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list chat sessions: %w", err)
	}
	defer rows.Close()

	var sessions []ChatSession
	for rows.Next() {
		var s ChatSession
		var created, updated string
		if err := rows.Scan(&s.ID, &s.Title, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan chat session: %w", err)
		}
		if s.CreatedAt, err = parseTime(created); err != nil {
			continue
		}
		if s.UpdatedAt, err = parseTime(updated); err != nil {
			continue
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// DeleteChatSession removes a session and its messages.
func (db *DB) DeleteChatSession(id string) error {
	res, err := db.Exec("DELETE FROM chat_sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete chat session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearChatMessages deletes every message in a session but keeps the
// session itself.
func (db *DB) ClearChatMessages(sessionID string) error {
	_, err := db.Exec("DELETE FROM chat_messages WHERE session_id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("clear chat messages: %w", err)
	}
	return nil
}

// SetChatTitleIfNew sets the session title, but only while it still has
// the placeholder. The first user message names the session once.
func (db *DB) SetChatTitleIfNew(id, title string) error {
	_, err := db.Exec(`
		UPDATE chat_sessions SET title = ? WHERE id = ? AND title = ?
	`, title, id, defaultChatTitle)
	if err != nil {
		return fmt.Errorf("set chat title: %w", err)
	}
	return nil
}

// AppendChatMessage stores one turn and bumps the session's updated_at.
// Content is truncated to 10KB.
func (db *DB) AppendChatMessage(sessionID, role, content string) (*ChatMessage, error) {
	if len(content) > maxMessageSize {
		content = content[:maxMessageSize]
	}
	now := time.Now()

	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("append chat message: %w", err)
	}
	res, err := tx.Exec(`
		INSERT INTO chat_messages (session_id, role, content, created_at)
		VALUES (?, ?, ?, ?)
	`, sessionID, role, content, formatTime(now))
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("insert chat message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("chat message id: %w", err)
	}
	if _, err := tx.Exec(
		"UPDATE chat_sessions SET updated_at = ? WHERE id = ?",
		formatTime(now), sessionID,
	); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("touch chat session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("append chat message: %w", err)
	}

	return &ChatMessage{
		ID:        id,
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: now,
	}, nil
}

// ChatMessages returns a session's messages, oldest first. limit <= 0
// returns all of them.
func (db *DB) ChatMessages(sessionID string, limit int) ([]ChatMessage, error) {
	q := `
		SELECT id, session_id, role, content, created_at
		FROM chat_messages WHERE session_id = ? ORDER BY id
	`
	args := []any{sessionID}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("chat messages: %w", err)
	}
	defer rows.Close()

	var messages []ChatMessage
	for rows.Next() {
		var m ChatMessage
		var created string
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &created); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		if m.CreatedAt, err = parseTime(created); err != nil {
			continue
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
