// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults live in New(); Load() layers file and env on top.
// - External errors are wrapped via this package's sentinel kinds.
package config

import "runtime"

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreBackend selects the record store: "memory" or "postgres".
	StoreBackend string `koanf:"store_backend"`

	// PostgresDSN is required when StoreBackend is "postgres".
	PostgresDSN string `koanf:"postgres_dsn"`

	// ShardCount configures user shards in the in-memory store.
	ShardCount int `koanf:"shard_count"`

	// AuditQueueSize bounds the in-memory audit queue.
	AuditQueueSize int `koanf:"audit_queue_size"`

	// AuditWriterCount sets the number of audit writers.
	AuditWriterCount int `koanf:"audit_writer_count"`

	// GuardSize bounds the completion idempotency guard.
	GuardSize int `koanf:"guard_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		StoreBackend:        StoreMemory,
		ShardCount:          8,
		AuditQueueSize:      10_000,
		AuditWriterCount:    max(2, runtime.NumCPU()/2),
		GuardSize:           50_000,
		MaxLeaderboardLimit: 100,
	}
}
