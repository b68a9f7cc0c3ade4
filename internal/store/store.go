// Package store provides a SQLite-backed session store for coachai. Sessions
// are scoped to a user and an agent; each holds an ordered message transcript
// with per-message citations. Transcripts survive server restarts and are
// replayed into the LLM context window on subsequent turns.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // register "sqlite" driver

	"github.com/edukit/coachai-go/internal/rag"
)

// ErrSessionNotFound is returned when a (user, session) pair does not exist.
// Sessions are user-scoped, so a valid session id under the wrong user is
// still not found.
var ErrSessionNotFound = errors.New("session not found")

// Role identifies the author of a session message.
type Role string

const (
	// RoleUser is a message sent by the person being coached.
	RoleUser Role = "user"
	// RoleAssistant is a message produced by the coaching agent.
	RoleAssistant Role = "assistant"
)

// Session is a persistent conversation thread between one user and one agent.
type Session struct {
	// ID is the session identifier, a server-generated UUID.
	ID string `json:"session_id"`
	// UserID is the owning user.
	UserID string `json:"user_id"`
	// AgentID is the coaching agent handling this session.
	AgentID string `json:"agent_id"`
	// Title is the display title.
	Title string `json:"title"`
	// CreatedAt is when the session was created.
	CreatedAt time.Time `json:"created_at"`
	// LastAccessed is bumped on every appended message.
	LastAccessed time.Time `json:"last_accessed"`
}

// Message is a single turn in a session transcript.
type Message struct {
	// ID is the message identifier, a server-generated UUID.
	ID string `json:"message_id"`
	// Role is the author of the message.
	Role Role `json:"role"`
	// Content is the text of the message.
	Content string `json:"content"`
	// Citations are the sources backing an assistant message. Always empty
	// for user messages.
	Citations []rag.Citation `json:"citations,omitempty"`
	// CreatedAt is when the message was persisted.
	CreatedAt time.Time `json:"created_at"`
}

// SessionStore persists sessions and their transcripts. Implementations must
// be safe for concurrent use.
type SessionStore interface {
	// CreateSession creates a new session for the user. An empty title
	// defaults to "Chat with <agentID>".
	CreateSession(ctx context.Context, userID, agentID, title string) (Session, error)
	// GetSession returns the session, or ErrSessionNotFound.
	GetSession(ctx context.Context, userID, sessionID string) (Session, error)
	// ListSessions returns the user's sessions, most recently accessed first.
	ListSessions(ctx context.Context, userID string) ([]Session, error)
	// AppendMessage persists a message and bumps the session's LastAccessed.
	// The message's CreatedAt is assigned by the store; its ID is assigned
	// when empty.
	AppendMessage(ctx context.Context, userID, sessionID string, msg Message) (Message, error)
	// Messages returns the session transcript oldest-first.
	Messages(ctx context.Context, userID, sessionID string) ([]Message, error)
	// DeleteSession removes the session and its transcript.
	DeleteSession(ctx context.Context, userID, sessionID string) error
	// Close releases any resources held by the store.
	Close() error
}

// SQLiteStore is a SessionStore backed by a local SQLite database.
type SQLiteStore struct {
	// db is the underlying database connection pool.
	db *sql.DB
}

// DefaultDBPath returns the default path for the session database.
// It resolves to ~/.coachai/sessions.db, creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("store: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".coachai")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("store: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "sessions.db"), nil
}

// Open opens (or creates) a SQLiteStore at the given path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*SQLiteStore, error) {
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *SQLiteStore) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS sessions (
    id            TEXT    PRIMARY KEY,
    user_id       TEXT    NOT NULL,
    agent_id      TEXT    NOT NULL,
    title         TEXT    NOT NULL,
    created_at    INTEGER NOT NULL,  -- Unix timestamp (seconds)
    last_accessed INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_user_accessed
    ON sessions (user_id, last_accessed DESC);

CREATE TABLE IF NOT EXISTS messages (
    id          TEXT    PRIMARY KEY,
    session_id  TEXT    NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    role        TEXT    NOT NULL CHECK(role IN ('user','assistant')),
    content     TEXT    NOT NULL,
    citations   TEXT    NOT NULL DEFAULT '[]',  -- JSON array
    created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_session_created
    ON messages (session_id, created_at);

CREATE TABLE IF NOT EXISTS feedback (
    id          TEXT    PRIMARY KEY,
    user_id     TEXT    NOT NULL,
    session_id  TEXT    NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    message_id  TEXT    NOT NULL,
    rating      INTEGER NOT NULL CHECK(rating BETWEEN 1 AND 5),
    comment     TEXT    NOT NULL DEFAULT '',
    created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_feedback_session
    ON feedback (session_id);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	if _, err := s.db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		return fmt.Errorf("store: enable foreign keys: %w", err)
	}
	return nil
}

// CreateSession creates a new session for the user.
func (s *SQLiteStore) CreateSession(ctx context.Context, userID, agentID, title string) (Session, error) {
	if title == "" {
		title = "Chat with " + agentID
	}
	now := time.Now()
	sess := Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		AgentID:      agentID,
		Title:        title,
		CreatedAt:    now,
		LastAccessed: now,
	}

	const q = `INSERT INTO sessions (id, user_id, agent_id, title, created_at, last_accessed) VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, sess.ID, sess.UserID, sess.AgentID, sess.Title, now.Unix(), now.Unix()); err != nil {
		return Session{}, fmt.Errorf("store: create session: %w", err)
	}
	return sess, nil
}

// GetSession returns the session, or ErrSessionNotFound.
func (s *SQLiteStore) GetSession(ctx context.Context, userID, sessionID string) (Session, error) {
	const q = `SELECT id, user_id, agent_id, title, created_at, last_accessed FROM sessions WHERE user_id = ? AND id = ?`

	var (
		sess              Session
		created, accessed int64
	)
	err := s.db.QueryRowContext(ctx, q, userID, sessionID).Scan(
		&sess.ID, &sess.UserID, &sess.AgentID, &sess.Title, &created, &accessed,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("store: %w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return Session{}, fmt.Errorf("store: get session: %w", err)
	}
	sess.CreatedAt = time.Unix(created, 0)
	sess.LastAccessed = time.Unix(accessed, 0)
	return sess, nil
}

// ListSessions returns the user's sessions, most recently accessed first.
func (s *SQLiteStore) ListSessions(ctx context.Context, userID string) ([]Session, error) {
	const q = `
SELECT id, user_id, agent_id, title, created_at, last_accessed
FROM   sessions
WHERE  user_id = ?
ORDER  BY last_accessed DESC, created_at DESC`

	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("store: list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var (
			sess              Session
			created, accessed int64
		)
		if err := rows.Scan(&sess.ID, &sess.UserID, &sess.AgentID, &sess.Title, &created, &accessed); err != nil {
			return nil, fmt.Errorf("store: list scan: %w", err)
		}
		sess.CreatedAt = time.Unix(created, 0)
		sess.LastAccessed = time.Unix(accessed, 0)
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list rows: %w", err)
	}
	return sessions, nil
}

// AppendMessage persists a message and bumps the session's LastAccessed.
func (s *SQLiteStore) AppendMessage(ctx context.Context, userID, sessionID string, msg Message) (Message, error) {
	// Verify ownership before writing so a wrong-user append cannot touch
	// another user's transcript.
	if _, err := s.GetSession(ctx, userID, sessionID); err != nil {
		return Message{}, err
	}

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.CreatedAt = time.Now()

	citations, err := json.Marshal(msg.Citations)
	if err != nil {
		return Message{}, fmt.Errorf("store: marshal citations: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Message{}, fmt.Errorf("store: begin append: %w", err)
	}
	defer tx.Rollback()

	const insert = `INSERT INTO messages (id, session_id, role, content, citations, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insert, msg.ID, sessionID, string(msg.Role), msg.Content, string(citations), msg.CreatedAt.Unix()); err != nil {
		return Message{}, fmt.Errorf("store: append message: %w", err)
	}
	const bump = `UPDATE sessions SET last_accessed = ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, bump, msg.CreatedAt.Unix(), sessionID); err != nil {
		return Message{}, fmt.Errorf("store: bump last_accessed: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Message{}, fmt.Errorf("store: commit append: %w", err)
	}
	return msg, nil
}

// Messages returns the session transcript oldest-first.
func (s *SQLiteStore) Messages(ctx context.Context, userID, sessionID string) ([]Message, error) {
	if _, err := s.GetSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	const q = `
SELECT id, role, content, citations, created_at
FROM   messages
WHERE  session_id = ?
ORDER  BY created_at ASC, rowid ASC`

	rows, err := s.db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("store: messages: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var (
			m         Message
			role      string
			citations string
			ts        int64
		)
		if err := rows.Scan(&m.ID, &role, &m.Content, &citations, &ts); err != nil {
			return nil, fmt.Errorf("store: messages scan: %w", err)
		}
		if err := json.Unmarshal([]byte(citations), &m.Citations); err != nil {
			return nil, fmt.Errorf("store: unmarshal citations: %w", err)
		}
		m.Role = Role(role)
		m.CreatedAt = time.Unix(ts, 0)
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: messages rows: %w", err)
	}
	return msgs, nil
}

// DeleteSession removes the session and its transcript.
func (s *SQLiteStore) DeleteSession(ctx context.Context, userID, sessionID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ? AND id = ?`, userID, sessionID)
	if err != nil {
		return fmt.Errorf("store: delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete session rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("store: %w: %s", ErrSessionNotFound, sessionID)
	}
	// The cascade only fires with foreign keys on; delete explicitly so old
	// databases written without the pragma cannot leak transcripts.
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("store: delete messages: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM feedback WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("store: delete feedback: %w", err)
	}
	return nil
}

// Close releases the database connection pool.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}
