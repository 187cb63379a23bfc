// Package config provides application configuration.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds the application configuration.
type Config struct {
	// Server settings
	Port string
	Host string

	// Trading backend settings
	BackendURL string

	// Database settings
	DBPath string

	// Log stream settings
	StreamReconnect bool          // reopen the log stream after a channel error
	StreamRetryWait time.Duration // delay between reconnect attempts

	// Credential encryption settings
	EncryptionSecret string // used for encrypting broker credentials at rest

	// Environment
	IsDevelopment bool
}

// New creates a new Config with values from environment variables or defaults.
func New() *Config {
	return &Config{
		Port:             getEnv("PORT", "8080"),
		Host:             getEnv("HOST", "localhost"),
		BackendURL:       getEnv("BACKEND_URL", "http://localhost:5000"),
		DBPath:           getEnv("DB_PATH", filepath.Join("data", "console.db")),
		StreamReconnect:  getBoolEnv("STREAM_RECONNECT", false),
		StreamRetryWait:  5 * time.Second,
		EncryptionSecret: getEnv("ENCRYPTION_SECRET", "change-me-in-production-32chars!"),
		IsDevelopment:    getEnv("ENV", "development") == "development",
	}
}

// Address returns the full address to bind the server to.
func (c *Config) Address() string {
	return c.Host + ":" + c.Port
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnv returns the boolean value of an environment variable or a default.
func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
