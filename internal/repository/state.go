// Package repository provides data access layer for the trading console.
package repository

import (
	"database/sql"
	"fmt"
	"time"

	"trading_console/internal/database"
)

// StateRepository persists the trading session's storage keys, one row per
// key. It backs the session store's key-value port.
type StateRepository struct {
	db *database.DB
}

// NewStateRepository creates a new StateRepository.
func NewStateRepository(db *database.DB) *StateRepository {
	return &StateRepository{db: db}
}

// Get returns the value stored under key. The second return value reports
// whether the key was present.
func (r *StateRepository) Get(key string) (string, bool, error) {
	query := `SELECT value FROM ui_state WHERE key = ?`

	var value string
	err := r.db.QueryRow(query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting state key %q: %w", key, err)
	}

	return value, true, nil
}

// Set writes value under key, replacing any previous value.
func (r *StateRepository) Set(key, value string) error {
	query := `
		INSERT INTO ui_state (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query, key, value, time.Now())
	if err != nil {
		return fmt.Errorf("setting state key %q: %w", key, err)
	}

	return nil
}

// Clear removes every stored key. Used on logout.
func (r *StateRepository) Clear() error {
	if _, err := r.db.Exec(`DELETE FROM ui_state`); err != nil {
		return fmt.Errorf("clearing state: %w", err)
	}
	return nil
}
