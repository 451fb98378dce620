package backend

import (
	"context"

	"finanse/internal/ledger"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the store instance and optional cleanup function
type BackendResult struct {
	Store   ledger.Store
	Cleanup CleanupFunc
}

// Factory creates stores based on configuration
type Factory interface {
	// CreateBackend creates a store instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	DatabaseURL string

	// Memory backend specific
	CategoriesFile string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MemoryBackend   BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, PostgresBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
