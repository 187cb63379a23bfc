// Package models contains the shared data structures for the trading console.
package models

import "time"

// Login represents a browser login session. Credential validation itself is
// the trading backend's job; the console only tracks which browser is signed
// in and as whom.
type Login struct {
	ID        string
	Email     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired returns true if the login session has expired.
func (l *Login) IsExpired() bool {
	return time.Now().After(l.ExpiresAt)
}
