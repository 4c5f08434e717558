package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/Rrens/nlsql/internal/domain"
	"github.com/Rrens/nlsql/internal/security"
	"github.com/Rrens/nlsql/internal/source"
)

var errNotConnected = errors.New("not connected")

// Adapter implements source.Adapter for SQLite
type Adapter struct {
	db       *sql.DB
	database string
}

// NewAdapter creates a new SQLite adapter
func NewAdapter() source.Adapter {
	return &Adapter{}
}

// DatabaseType returns the database type identifier
func (a *Adapter) DatabaseType() string {
	return "sqlite"
}

// Connect establishes connection to SQLite database file
func (a *Adapter) Connect(ctx context.Context, config source.ConnectionConfig) error {
	dbPath := config.Path
	if dbPath == "" {
		dbPath = config.Database
	}
	if dbPath == "" {
		return fmt.Errorf("database file path is required")
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbPath)
	if config.ReadOnly {
		dsn = fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", dbPath)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if config.ReadOnly {
		// Readers don't contend, so a streaming export must not block lookups
		maxConns := config.MaxConns
		if maxConns <= 0 {
			maxConns = 4
		}
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(1) // SQLite only supports one writer
		db.SetMaxIdleConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	a.db = db
	a.database = dbPath
	return nil
}

// Close closes the connection
func (a *Adapter) Close() error {
	if a.db != nil {
		err := a.db.Close()
		a.db = nil
		return err
	}
	return nil
}

// HealthCheck verifies connection is alive
func (a *Adapter) HealthCheck(ctx context.Context) error {
	if a.db == nil {
		return errNotConnected
	}
	return a.db.PingContext(ctx)
}

// ListTables returns list of table names
func (a *Adapter) ListTables(ctx context.Context) ([]string, error) {
	if a.db == nil {
		return nil, errNotConnected
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT name 
		FROM sqlite_master 
		WHERE type IN ('table', 'view') 
		  AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, tableName)
	}

	return tables, rows.Err()
}

// TableExists looks the table up in sqlite_master
func (a *Adapter) TableExists(ctx context.Context, table security.Identifier) (bool, error) {
	if a.db == nil {
		return false, errNotConnected
	}

	var n int
	err := a.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM sqlite_master
		WHERE type IN ('table', 'view')
		  AND name = ? COLLATE NOCASE
	`, table.String()).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to look up table: %w", err)
	}
	return n > 0, nil
}

// OpenTable runs SELECT * against the table
func (a *Adapter) OpenTable(ctx context.Context, table security.Identifier, opts source.ReadOptions) (source.Cursor, error) {
	if a.db == nil {
		return nil, errNotConnected
	}

	query := source.SelectAll(`"`+table.String()+`"`, opts.MaxRows)

	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(table, err)
	}

	return source.NewSQLCursor(rows, func(err error) error {
		return mapError(table, err)
	})
}

func mapError(table security.Identifier, err error) error {
	if strings.Contains(err.Error(), "no such table") {
		return domain.TableNotFound(table.String())
	}
	return fmt.Errorf("query failed: %w", err)
}
