package backend

import (
	"context"
	"time"

	"moneylog/internal/storage"
)

// CleanupFunc releases the resources held by a backend.
type CleanupFunc func() error

// BackendResult is a ready-to-use KV and the function that tears it down.
type BackendResult struct {
	KV      storage.KV
	Cleanup CleanupFunc
}

// Factory creates storage backends from configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config selects and parameterizes a storage backend.
type Config struct {
	Type BackendType

	// File backend
	DataDirectory string

	// SQLite backend
	SQLiteDBPath string

	// PostgreSQL backend
	PostgresURL string

	// Read-through cache for database backends; zero size disables it
	CacheSize int
	CacheTTL  time.Duration
}

// BackendType names a storage backend.
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	FileBackend     BackendType = "file"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is known.
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, FileBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}

// Persistent reports whether data survives a restart.
func (bt BackendType) Persistent() bool {
	return bt != MemoryBackend
}
