package source

import (
	"database/sql"
	"fmt"
)

// sqlCursor adapts *sql.Rows to Cursor
type sqlCursor struct {
	rows    *sql.Rows
	columns []string
	values  []any
	ptrs    []any
	err     error
	mapErr  func(error) error
}

// NewSQLCursor wraps rows. mapErr, when set, translates driver errors raised
// during iteration (for example a table dropped mid-read).
func NewSQLCursor(rows *sql.Rows, mapErr func(error) error) (Cursor, error) {
	columns, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	return &sqlCursor{
		rows:    rows,
		columns: columns,
		values:  values,
		ptrs:    ptrs,
		mapErr:  mapErr,
	}, nil
}

func (c *sqlCursor) Columns() []string {
	return c.columns
}

func (c *sqlCursor) Next() bool {
	if c.err != nil || !c.rows.Next() {
		return false
	}

	for i := range c.values {
		c.values[i] = nil
	}
	if err := c.rows.Scan(c.ptrs...); err != nil {
		c.err = fmt.Errorf("failed to scan row: %w", err)
		return false
	}

	// Convert []byte to string; drivers reuse the buffer between rows
	for i, v := range c.values {
		if b, ok := v.([]byte); ok {
			c.values[i] = string(b)
		}
	}

	return true
}

func (c *sqlCursor) Values() []any {
	return c.values
}

func (c *sqlCursor) Err() error {
	if c.err != nil {
		return c.err
	}
	err := c.rows.Err()
	if err != nil && c.mapErr != nil {
		return c.mapErr(err)
	}
	return err
}

func (c *sqlCursor) Close() error {
	return c.rows.Close()
}

// primedCursor has already advanced to the first row so that a failing
// query is reported before anything is written to the client
type primedCursor struct {
	Cursor
	started bool
	has     bool
}

func prime(c Cursor) (Cursor, error) {
	has := c.Next()
	if !has {
		if err := c.Err(); err != nil {
			c.Close()
			return nil, err
		}
	}
	return &primedCursor{Cursor: c, has: has}, nil
}

func (p *primedCursor) Next() bool {
	if !p.started {
		p.started = true
		return p.has
	}
	return p.Cursor.Next()
}
