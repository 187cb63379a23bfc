package database

// migrationLogins stores browser login sessions issued after the trading
// backend accepts a credential check.
const migrationLogins = `
CREATE TABLE IF NOT EXISTS logins (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL,
	expires_at TIMESTAMP NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// migrationUIState stores the persisted trading session, one row per storage
// key (activeTab, brokerCount, selectedBrokers, stockCount, tradingParameters,
// tradingStatus, tradeLogs).
const migrationUIState = `
CREATE TABLE IF NOT EXISTS ui_state (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// migrationIndexes creates indexes for common queries.
const migrationIndexes = `
CREATE INDEX IF NOT EXISTS idx_logins_expires ON logins(expires_at);
`
