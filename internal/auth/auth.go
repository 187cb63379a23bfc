// Package auth provides browser login session management.
//
// The console does not keep passwords: the trading backend validates
// credentials, and this package only issues and tracks the resulting browser
// sessions.
package auth

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"trading_console/internal/database"
	"trading_console/internal/models"
)

const (
	// DefaultSessionDuration is the default login session lifetime.
	DefaultSessionDuration = 7 * 24 * time.Hour // 7 days
)

var (
	// ErrSessionExpired is returned when a login session has expired.
	ErrSessionExpired = errors.New("session expired")

	// ErrSessionNotFound is returned when a login session doesn't exist.
	ErrSessionNotFound = errors.New("session not found")
)

// SessionManager handles login session operations.
type SessionManager struct {
	db       *database.DB
	duration time.Duration
}

// NewSessionManager creates a new SessionManager.
func NewSessionManager(db *database.DB) *SessionManager {
	return &SessionManager{
		db:       db,
		duration: DefaultSessionDuration,
	}
}

// WithDuration sets a custom session duration.
func (sm *SessionManager) WithDuration(d time.Duration) *SessionManager {
	sm.duration = d
	return sm
}

// Create creates a new login session for the given email.
func (sm *SessionManager) Create(email string) (*models.Login, error) {
	// Generate random session ID
	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	login := &models.Login{
		ID:        id,
		Email:     email,
		ExpiresAt: time.Now().Add(sm.duration),
		CreatedAt: time.Now(),
	}

	query := `
		INSERT INTO logins (id, email, expires_at, created_at)
		VALUES (?, ?, ?, ?)
	`
	_, err = sm.db.Exec(query, login.ID, login.Email, login.ExpiresAt, login.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating login session: %w", err)
	}

	return login, nil
}

// Validate checks a session ID and returns the email it belongs to.
// Expired sessions are deleted on sight.
func (sm *SessionManager) Validate(id string) (string, error) {
	query := `SELECT id, email, expires_at, created_at FROM logins WHERE id = ?`

	login := &models.Login{}
	err := sm.db.QueryRow(query, id).Scan(&login.ID, &login.Email, &login.ExpiresAt, &login.CreatedAt)
	if err == sql.ErrNoRows {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("validating login session: %w", err)
	}

	if login.IsExpired() {
		sm.Destroy(id)
		return "", ErrSessionExpired
	}

	return login.Email, nil
}

// Destroy deletes a login session.
func (sm *SessionManager) Destroy(id string) error {
	if _, err := sm.db.Exec(`DELETE FROM logins WHERE id = ?`, id); err != nil {
		return fmt.Errorf("destroying login session: %w", err)
	}
	return nil
}

// DeleteExpired removes all expired login sessions.
func (sm *SessionManager) DeleteExpired() error {
	if _, err := sm.db.Exec(`DELETE FROM logins WHERE expires_at < ?`, time.Now()); err != nil {
		return fmt.Errorf("deleting expired login sessions: %w", err)
	}
	return nil
}

// generateSessionID creates a cryptographically random session identifier.
func generateSessionID() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating session id: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
