package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SessionService persists refresh-token sessions. A session is single-use: Rotate
// revokes the presented token and issues a replacement.
type SessionService struct {
	db  *sql.DB
	ttl time.Duration
}

func NewSessionService(db *sql.DB, ttl time.Duration) *SessionService {
	return &SessionService{db: db, ttl: ttl}
}

func (s *SessionService) Create(userID, token string) (*Session, error) {
	now := time.Now().UTC()
	session := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     token,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}

	_, err := s.db.Exec(
		`INSERT INTO sessions (id, user_id, token, expires_at, revoked, created_at)
		 VALUES (?, ?, ?, ?, 0, ?)`,
		session.ID, session.UserID, session.Token, session.ExpiresAt, session.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}
	return session, nil
}

// Verify returns the live session for a refresh token. Revoked or expired
// sessions report ErrNotFound.
func (s *SessionService) Verify(token string) (*Session, error) {
	var sess Session
	err := s.db.QueryRow(
		`SELECT id, user_id, token, expires_at, revoked, created_at FROM sessions WHERE token = ?`,
		token).
		Scan(&sess.ID, &sess.UserID, &sess.Token, &sess.ExpiresAt, &sess.Revoked, &sess.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	if sess.Revoked || time.Now().UTC().After(sess.ExpiresAt) {
		return nil, ErrNotFound
	}
	return &sess, nil
}

// Rotate revokes the presented token and creates a new session for the same user.
func (s *SessionService) Rotate(token, newToken string) (*Session, error) {
	sess, err := s.Verify(token)
	if err != nil {
		return nil, err
	}
	if err := s.Revoke(token); err != nil {
		return nil, err
	}
	return s.Create(sess.UserID, newToken)
}

// Revoke marks the session dead. Unknown tokens are a no-op so logout is idempotent.
func (s *SessionService) Revoke(token string) error {
	if _, err := s.db.Exec(`UPDATE sessions SET revoked = 1 WHERE token = ?`, token); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// RevokeAll kills every session of a user (logout from all devices).
func (s *SessionService) RevokeAll(userID string) error {
	if _, err := s.db.Exec(`UPDATE sessions SET revoked = 1 WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}
	return nil
}
