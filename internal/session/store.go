package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/movitransit/movi/internal/log"
)

// Store manages session persistence in the transit SQLite database.
// It handles conversation history storage and retrieval for the
// assistant panel; the chat agent handles conversation logic.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db     *sqlx.DB
	logger log.Logger
}

// New creates a session store backed by the given database.
// Panics if logger is nil (programmer error).
func New(db *sqlx.DB, logger log.Logger) (*Store, error) {
	if logger == nil {
		panic("session: logger is required")
	}
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &Store{db: db, logger: logger}, nil
}

// sessionRow mirrors one row of the sessions table.
type sessionRow struct {
	ID        string         `db:"id"`
	Title     sql.NullString `db:"title"`
	Page      sql.NullString `db:"page"`
	CreatedAt sql.NullTime   `db:"created_at"`
	UpdatedAt sql.NullTime   `db:"updated_at"`
}

// messageRow mirrors one row of the session_messages table.
type messageRow struct {
	ID        int64        `db:"id"`
	SessionID string       `db:"session_id"`
	Seq       int          `db:"seq"`
	Role      string       `db:"role"`
	Content   string       `db:"content"`
	CreatedAt sql.NullTime `db:"created_at"`
}

// CreateSession creates a new conversation session with a generated ID.
// Title and page may be empty; the assistant panel usually fills the page
// and leaves the title for a later summary.
func (s *Store) CreateSession(ctx context.Context, title, page string) (*Session, error) {
	id := uuid.New()

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, title, page) VALUES (?, ?, ?)`,
		id.String(), nullable(title), nullable(page),
	); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	sess, err := s.Session(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("created session", "id", sess.ID, "page", sess.Page)
	return sess, nil
}

// EnsureSession makes sure a session row exists for the given ID,
// recording the page the operator is on. The assistant panel generates
// session IDs client side, so the first message of a conversation
// arrives before any explicit create call.
func (s *Store) EnsureSession(ctx context.Context, sessionID uuid.UUID, page string) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, page) VALUES (?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		     page = excluded.page,
		     updated_at = CURRENT_TIMESTAMP`,
		sessionID.String(), nullable(page),
	); err != nil {
		return fmt.Errorf("failed to ensure session %s: %w", sessionID, err)
	}
	return nil
}

// Session retrieves a session by ID.
// Returns ErrSessionNotFound if no such session exists.
func (s *Store) Session(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	var row sessionRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, title, page, created_at, updated_at FROM sessions WHERE id = ?`,
		sessionID.String(),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session %s: %w", sessionID, err)
	}

	return rowToSession(row)
}

// Sessions lists sessions with pagination, ordered by updated_at descending
// so the most recently active conversation comes first.
func (s *Store) Sessions(ctx context.Context, limit, offset int32) ([]*Session, error) {
	var rows []sessionRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT id, title, page, created_at, updated_at
		 FROM sessions
		 ORDER BY updated_at DESC, id
		 LIMIT ? OFFSET ?`,
		limit, offset,
	); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := make([]*Session, 0, len(rows))
	for _, row := range rows {
		sess, err := rowToSession(row)
		if err != nil {
			s.logger.Warn("skipping malformed session row", "id", row.ID, "error", err)
			continue
		}
		sessions = append(sessions, sess)
	}

	s.logger.Debug("listed sessions", "count", len(sessions), "limit", limit, "offset", offset)
	return sessions, nil
}

// DeleteSession deletes a session and all its messages (CASCADE).
// Returns ErrSessionNotFound if no such session exists.
func (s *Store) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE id = ?`, sessionID.String())
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	if affected == 0 {
		return fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}

	s.logger.Debug("deleted session", "id", sessionID)
	return nil
}

// UpdateTitle sets the display title of a session. Titles longer than
// TitleMaxLength runes are truncated.
func (s *Store) UpdateTitle(ctx context.Context, sessionID uuid.UUID, title string) error {
	if runes := []rune(title); len(runes) > TitleMaxLength {
		title = string(runes[:TitleMaxLength])
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET title = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		title, sessionID.String())
	if err != nil {
		return fmt.Errorf("failed to update session title: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update session title: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}
	return nil
}

// AddMessages appends messages to a session in one transaction.
// Sequence numbers are assigned automatically, continuing from the
// current maximum; the session's updated_at moves forward in the same
// transaction. The single-writer SQLite connection serializes
// concurrent callers.
//
// Returns ErrSessionNotFound if the session does not exist.
func (s *Store) AddMessages(ctx context.Context, sessionID uuid.UUID, messages []*Message) error {
	if len(messages) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.GetContext(ctx, &exists,
		`SELECT 1 FROM sessions WHERE id = ?`, sessionID.String())
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check session %s: %w", sessionID, err)
	}

	var maxSeq int
	if err := tx.GetContext(ctx, &maxSeq,
		`SELECT COALESCE(MAX(seq), 0) FROM session_messages WHERE session_id = ?`,
		sessionID.String(),
	); err != nil {
		return fmt.Errorf("failed to read sequence number: %w", err)
	}

	for i, msg := range messages {
		for j, part := range msg.Content {
			if part == nil {
				return fmt.Errorf("message %d has nil content at index %d", i, j)
			}
		}

		contentJSON, err := json.Marshal(msg.Content)
		if err != nil {
			return fmt.Errorf("failed to marshal message content at index %d: %w", i, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO session_messages (session_id, seq, role, content) VALUES (?, ?, ?, ?)`,
			sessionID.String(), maxSeq+i+1, msg.Role, string(contentJSON),
		); err != nil {
			return fmt.Errorf("failed to insert message %d: %w", i, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		sessionID.String(),
	); err != nil {
		return fmt.Errorf("failed to update session metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Debug("added messages", "session_id", sessionID, "count", len(messages))
	return nil
}

// Messages retrieves messages for a session with pagination,
// ordered by sequence number ascending.
func (s *Store) Messages(ctx context.Context, sessionID uuid.UUID, limit, offset int32) ([]*Message, error) {
	var rows []messageRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT id, session_id, seq, role, content, created_at
		 FROM session_messages
		 WHERE session_id = ?
		 ORDER BY seq
		 LIMIT ? OFFSET ?`,
		sessionID.String(), limit, offset,
	); err != nil {
		return nil, fmt.Errorf("failed to get messages for session %s: %w", sessionID, err)
	}

	messages := make([]*Message, 0, len(rows))
	for _, row := range rows {
		msg, err := rowToMessage(row)
		if err != nil {
			s.logger.Warn("skipping malformed message",
				"message_id", row.ID, "session_id", sessionID, "error", err)
			continue
		}
		messages = append(messages, msg)
	}

	s.logger.Debug("retrieved messages", "session_id", sessionID, "count", len(messages))
	return messages, nil
}

// History loads the most recent conversation window for a chat turn,
// in chronological order. limit <= 0 falls back to DefaultHistoryLimit.
// A session with no messages yields an empty slice, not an error.
func (s *Store) History(ctx context.Context, sessionID uuid.UUID, limit int32) ([]*ai.Message, error) {
	limit = NormalizeHistoryLimit(limit)

	var rows []messageRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT id, session_id, seq, role, content, created_at FROM (
		     SELECT id, session_id, seq, role, content, created_at
		     FROM session_messages
		     WHERE session_id = ?
		     ORDER BY seq DESC
		     LIMIT ?
		 ) ORDER BY seq`,
		sessionID.String(), limit,
	); err != nil {
		return nil, fmt.Errorf("failed to load history for session %s: %w", sessionID, err)
	}

	history := make([]*ai.Message, 0, len(rows))
	for _, row := range rows {
		msg, err := rowToMessage(row)
		if err != nil {
			s.logger.Warn("skipping malformed message",
				"message_id", row.ID, "session_id", sessionID, "error", err)
			continue
		}
		history = append(history, msg.ToAI())
	}

	return history, nil
}

// AppendMessages persists a turn's new messages for the chat agent,
// creating the session row if the browser-generated ID is new.
func (s *Store) AppendMessages(ctx context.Context, sessionID uuid.UUID, page string, msgs []*ai.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	if err := s.EnsureSession(ctx, sessionID, page); err != nil {
		return err
	}

	stored := make([]*Message, 0, len(msgs))
	for _, msg := range msgs {
		if msg == nil {
			continue
		}
		stored = append(stored, FromAI(msg))
	}

	return s.AddMessages(ctx, sessionID, stored)
}

// rowToSession converts a database row to the application type.
func rowToSession(row sessionRow) (*Session, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid session id %q: %w", row.ID, err)
	}

	sess := &Session{
		ID:    id,
		Title: row.Title.String,
		Page:  row.Page.String,
	}
	if row.CreatedAt.Valid {
		sess.CreatedAt = row.CreatedAt.Time
	}
	if row.UpdatedAt.Valid {
		sess.UpdatedAt = row.UpdatedAt.Time
	}
	return sess, nil
}

// rowToMessage converts a database row to the application type,
// deserializing the stored part list.
func rowToMessage(row messageRow) (*Message, error) {
	id, err := uuid.Parse(row.SessionID)
	if err != nil {
		return nil, fmt.Errorf("invalid session id %q: %w", row.SessionID, err)
	}

	var content []*ai.Part
	if err := json.Unmarshal([]byte(row.Content), &content); err != nil {
		return nil, fmt.Errorf("failed to unmarshal content: %w", err)
	}

	msg := &Message{
		ID:             row.ID,
		SessionID:      id,
		Role:           row.Role,
		Content:        content,
		SequenceNumber: row.Seq,
	}
	if row.CreatedAt.Valid {
		msg.CreatedAt = row.CreatedAt.Time
	}
	return msg, nil
}

// nullable maps "" to NULL for optional text columns.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
