package source

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/nlsql/internal/domain"
	"github.com/Rrens/nlsql/internal/security"
)

// Executor runs whole-table reads against one adapter
type Executor struct {
	adapter Adapter
	timeout time.Duration
	maxRows int
}

// NewExecutor creates an executor. timeout bounds schema lookups and
// FetchAllRows; maxRows of 0 leaves reads unbounded.
func NewExecutor(adapter Adapter, timeout time.Duration, maxRows int) *Executor {
	return &Executor{
		adapter: adapter,
		timeout: timeout,
		maxRows: maxRows,
	}
}

// DatabaseType returns the type of the underlying adapter
func (e *Executor) DatabaseType() string {
	return e.adapter.DatabaseType()
}

// Open checks that table exists and returns a cursor positioned before its
// first row. Errors from the first fetch are returned here, not from the
// cursor.
func (e *Executor) Open(ctx context.Context, table security.Identifier) (Cursor, error) {
	if table.IsZero() || table.Kind() != security.KindTable {
		return nil, domain.ErrInvalidIdentifier
	}

	exists, err := e.tableExists(ctx, table)
	if err != nil {
		return nil, e.fail("check table", table, err)
	}
	if !exists {
		return nil, domain.TableNotFound(table.String())
	}

	cursor, err := e.adapter.OpenTable(ctx, table, ReadOptions{MaxRows: e.maxRows})
	if err != nil {
		return nil, e.fail("open table", table, err)
	}

	primed, err := prime(cursor)
	if err != nil {
		return nil, e.fail("read table", table, err)
	}

	return primed, nil
}

// FetchAllRows reads the whole table into memory
func (e *Executor) FetchAllRows(ctx context.Context, table security.Identifier) (*domain.TableData, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	cursor, err := e.Open(ctx, table)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	data := &domain.TableData{
		Columns: cursor.Columns(),
		Rows:    make([][]any, 0),
	}
	for cursor.Next() {
		row := make([]any, len(data.Columns))
		copy(row, cursor.Values())
		data.Rows = append(data.Rows, row)
	}
	if err := cursor.Err(); err != nil {
		return nil, e.fail("read table", table, err)
	}

	return data, nil
}

// ListTables returns the table names of the source
func (e *Executor) ListTables(ctx context.Context) ([]string, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	tables, err := e.adapter.ListTables(ctx)
	if err != nil {
		log.Error().Err(err).Str("database", e.adapter.DatabaseType()).Msg("Failed to list tables")
		return nil, domain.NewDatabaseError("list tables", err)
	}
	if tables == nil {
		tables = []string{}
	}
	return tables, nil
}

// HealthCheck pings the source
func (e *Executor) HealthCheck(ctx context.Context) error {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	if err := e.adapter.HealthCheck(ctx); err != nil {
		return domain.NewDatabaseError("health check", err)
	}
	return nil
}

func (e *Executor) tableExists(ctx context.Context, table security.Identifier) (bool, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	return e.adapter.TableExists(ctx, table)
}

func (e *Executor) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.timeout)
}

// fail passes classified errors through and wraps everything else as a
// database error, logging the detail callers never see
func (e *Executor) fail(op string, table security.Identifier, err error) error {
	if errors.Is(err, domain.ErrTableNotFound) || errors.Is(err, domain.ErrInvalidIdentifier) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	log.Error().
		Err(err).
		Str("database", e.adapter.DatabaseType()).
		Str("table", table.String()).
		Str("op", op).
		Msg("Export query failed")

	return domain.NewDatabaseError(op, err)
}
