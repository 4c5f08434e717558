package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Rrens/nlsql/internal/security"
	"github.com/Rrens/nlsql/internal/source"
)

// MockAdapter mocks the source.Adapter interface
type MockAdapter struct {
	mock.Mock
}

func (m *MockAdapter) DatabaseType() string {
	return "mock"
}

func (m *MockAdapter) Connect(ctx context.Context, config source.ConnectionConfig) error {
	args := m.Called(ctx, config)
	return args.Error(0)
}

func (m *MockAdapter) Close() error {
	return nil
}

func (m *MockAdapter) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockAdapter) ListTables(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockAdapter) TableExists(ctx context.Context, table security.Identifier) (bool, error) {
	args := m.Called(ctx, table)
	return args.Bool(0), args.Error(1)
}

func (m *MockAdapter) OpenTable(ctx context.Context, table security.Identifier, opts source.ReadOptions) (source.Cursor, error) {
	args := m.Called(ctx, table, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(source.Cursor), args.Error(1)
}

// sliceCursor serves fixed rows, optionally failing after failAfter rows
type sliceCursor struct {
	columns   []string
	rows      [][]any
	pos       int
	failAfter int
	failErr   error
	err       error
	closed    bool
}

func (c *sliceCursor) Columns() []string { return c.columns }

func (c *sliceCursor) Next() bool {
	if c.failErr != nil && c.pos == c.failAfter {
		c.err = c.failErr
		return false
	}
	if c.pos >= len(c.rows) {
		return false
	}
	c.pos++
	return true
}

func (c *sliceCursor) Values() []any { return c.rows[c.pos-1] }
func (c *sliceCursor) Err() error    { return c.err }

func (c *sliceCursor) Close() error {
	c.closed = true
	return nil
}
