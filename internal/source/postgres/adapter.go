package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Rrens/nlsql/internal/domain"
	"github.com/Rrens/nlsql/internal/security"
	"github.com/Rrens/nlsql/internal/source"
)

// undefinedTable is the SQLSTATE for a missing relation
const undefinedTable = "42P01"

var errNotConnected = errors.New("not connected")

// Adapter implements source.Adapter for PostgreSQL
type Adapter struct {
	pool   *pgxpool.Pool
	schema string
}

// NewAdapter creates a new PostgreSQL adapter
func NewAdapter() source.Adapter {
	return &Adapter{}
}

// DatabaseType returns the database type identifier
func (a *Adapter) DatabaseType() string {
	return "postgres"
}

// Connect establishes connection to PostgreSQL
func (a *Adapter) Connect(ctx context.Context, config source.ConnectionConfig) error {
	sslMode := config.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		config.Username,
		config.Password,
		config.Host,
		config.Port,
		config.Database,
		sslMode,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	poolConfig.MaxConns = 5
	if config.MaxConns > 0 {
		poolConfig.MaxConns = int32(config.MaxConns)
	}
	poolConfig.MinConns = 1
	if config.ReadOnly {
		poolConfig.ConnConfig.RuntimeParams["default_transaction_read_only"] = "on"
	}
	if config.Timeout > 0 {
		poolConfig.ConnConfig.ConnectTimeout = config.Timeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping: %w", err)
	}

	a.pool = pool
	a.schema = config.Schema
	if a.schema == "" {
		a.schema = "public"
	}
	return nil
}

// Close closes the connection
func (a *Adapter) Close() error {
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
	return nil
}

// HealthCheck verifies connection is alive
func (a *Adapter) HealthCheck(ctx context.Context) error {
	if a.pool == nil {
		return errNotConnected
	}
	return a.pool.Ping(ctx)
}

// ListTables returns list of table names
func (a *Adapter) ListTables(ctx context.Context) ([]string, error) {
	if a.pool == nil {
		return nil, errNotConnected
	}

	query := `
		SELECT table_name 
		FROM information_schema.tables 
		WHERE table_schema = $1 
		  AND table_type IN ('BASE TABLE', 'VIEW')
		ORDER BY table_name
	`

	rows, err := a.pool.Query(ctx, query, a.schema)
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

// TableExists checks information_schema for the table in the adapter's schema
func (a *Adapter) TableExists(ctx context.Context, table security.Identifier) (bool, error) {
	if a.pool == nil {
		return false, errNotConnected
	}

	var exists bool
	err := a.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.tables
			WHERE table_schema = $1
			  AND table_name = $2
		)
	`, a.schema, table.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to look up table: %w", err)
	}
	return exists, nil
}

// OpenTable runs SELECT * against the schema-qualified table
func (a *Adapter) OpenTable(ctx context.Context, table security.Identifier, opts source.ReadOptions) (source.Cursor, error) {
	if a.pool == nil {
		return nil, errNotConnected
	}

	quoted := pgx.Identifier{a.schema, table.String()}.Sanitize()
	query := source.SelectAll(quoted, opts.MaxRows)

	rows, err := a.pool.Query(ctx, query)
	if err != nil {
		return nil, mapError(table, err)
	}

	fieldDescs := rows.FieldDescriptions()
	columns := make([]string, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = fd.Name
	}

	return &cursor{rows: rows, table: table, columns: columns}, nil
}

func mapError(table security.Identifier, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == undefinedTable {
		return domain.TableNotFound(table.String())
	}
	return fmt.Errorf("query failed: %w", err)
}

// cursor adapts pgx.Rows to source.Cursor
type cursor struct {
	rows    pgx.Rows
	table   security.Identifier
	columns []string
	values  []any
	err     error
}

func (c *cursor) Columns() []string {
	return c.columns
}

func (c *cursor) Next() bool {
	if c.err != nil || !c.rows.Next() {
		return false
	}
	values, err := c.rows.Values()
	if err != nil {
		c.err = fmt.Errorf("failed to get values: %w", err)
		return false
	}
	c.values = values
	return true
}

func (c *cursor) Values() []any {
	return c.values
}

// Err reports iteration errors; pgx defers query errors until the first Next
func (c *cursor) Err() error {
	if c.err != nil {
		return c.err
	}
	if err := c.rows.Err(); err != nil {
		return mapError(c.table, err)
	}
	return nil
}

func (c *cursor) Close() error {
	c.rows.Close()
	return nil
}
