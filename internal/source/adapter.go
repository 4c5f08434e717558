// Package source reads whole tables from the configured database for export.
package source

import (
	"context"
	"time"

	"github.com/Rrens/nlsql/internal/security"
)

// ConnectionConfig contains database connection parameters
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string
	// Path is the database file for embedded engines
	Path string
	// Schema scopes table lookups where the engine has schemas
	Schema   string
	ReadOnly bool
	MaxConns int
	Timeout  time.Duration
}

// ReadOptions controls a table read
type ReadOptions struct {
	// MaxRows bounds the read; 0 reads every row
	MaxRows int
}

// Cursor iterates the rows of an open table read. Values are aligned with
// Columns and only valid until the next call to Next. Close must always be
// called and releases the driver cursor.
type Cursor interface {
	Columns() []string
	Next() bool
	Values() []any
	Err() error
	Close() error
}

// Adapter defines the interface for database adapters
type Adapter interface {
	// DatabaseType returns the database type identifier (sqlite, postgres, mysql, mongodb)
	DatabaseType() string

	// Connect establishes connection to database
	Connect(ctx context.Context, config ConnectionConfig) error

	// Close closes the connection
	Close() error

	// HealthCheck verifies connection is alive
	HealthCheck(ctx context.Context) error

	// ListTables returns list of table names
	ListTables(ctx context.Context) ([]string, error)

	// TableExists checks the live schema for table
	TableExists(ctx context.Context, table security.Identifier) (bool, error)

	// OpenTable runs the single read-only SELECT * for table
	OpenTable(ctx context.Context, table security.Identifier, opts ReadOptions) (Cursor, error)
}

// AdapterFactory creates a new adapter instance
type AdapterFactory func() Adapter
