package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"

	"github.com/Rrens/nlsql/internal/domain"
	"github.com/Rrens/nlsql/internal/security"
	"github.com/Rrens/nlsql/internal/source"
)

// errNoSuchTable is ER_NO_SUCH_TABLE
const errNoSuchTable = 1146

const listTablesQuery = `
		SELECT table_name 
		FROM information_schema.tables 
		WHERE table_schema = ? 
		  AND table_type IN ('BASE TABLE', 'VIEW')
		ORDER BY table_name
	`

const tableExistsQuery = `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE table_schema = ?
		  AND table_name = ?
	`

var errNotConnected = errors.New("not connected")

// Adapter implements source.Adapter for MySQL
type Adapter struct {
	db       *sql.DB
	database string
}

// NewAdapter creates a new MySQL adapter
func NewAdapter() source.Adapter {
	return &Adapter{}
}

// DatabaseType returns the database type identifier
func (a *Adapter) DatabaseType() string {
	return "mysql"
}

// Connect establishes connection to MySQL
func (a *Adapter) Connect(ctx context.Context, config source.ConnectionConfig) error {
	cfg := mysql.NewConfig()
	cfg.User = config.Username
	cfg.Passwd = config.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(config.Host, strconv.Itoa(config.Port))
	cfg.DBName = config.Database
	cfg.ParseTime = true
	if config.Timeout > 0 {
		cfg.Timeout = config.Timeout
	}

	// Add TLS if required
	if config.SSLMode == "require" || config.SSLMode == "verify-full" {
		cfg.TLSConfig = "true"
	}

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return fmt.Errorf("failed to open connection: %w", err)
	}

	maxConns := 5
	if config.MaxConns > 0 {
		maxConns = config.MaxConns
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping: %w", err)
	}

	a.db = db
	a.database = config.Database
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

	rows, err := a.db.QueryContext(ctx, listTablesQuery, a.database)
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

// TableExists checks information_schema for the table in the current database
func (a *Adapter) TableExists(ctx context.Context, table security.Identifier) (bool, error) {
	if a.db == nil {
		return false, errNotConnected
	}

	var n int
	if err := a.db.QueryRowContext(ctx, tableExistsQuery, a.database, table.String()).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to look up table: %w", err)
	}
	return n > 0, nil
}

// OpenTable runs SELECT * against the table
func (a *Adapter) OpenTable(ctx context.Context, table security.Identifier, opts source.ReadOptions) (source.Cursor, error) {
	if a.db == nil {
		return nil, errNotConnected
	}

	query := source.SelectAll("`"+table.String()+"`", opts.MaxRows)

	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(table, err)
	}

	return source.NewSQLCursor(rows, func(err error) error {
		return mapError(table, err)
	})
}

func mapError(table security.Identifier, err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == errNoSuchTable {
		return domain.TableNotFound(table.String())
	}
	return fmt.Errorf("query failed: %w", err)
}
