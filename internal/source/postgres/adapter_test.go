package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Rrens/nlsql/internal/domain"
	"github.com/Rrens/nlsql/internal/security"
)

func TestMapError(t *testing.T) {
	table := security.MustIdentifier("users", security.KindTable)

	tests := []struct {
		name         string
		err          error
		wantNotFound bool
	}{
		{"undefined table", &pgconn.PgError{Code: undefinedTable}, true},
		{"wrapped undefined table", fmt.Errorf("query: %w", &pgconn.PgError{Code: undefinedTable}), true},
		{"permission denied", &pgconn.PgError{Code: "42501"}, false},
		{"connection", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapError(table, tt.err)
			if got := errors.Is(err, domain.ErrTableNotFound); got != tt.wantNotFound {
				t.Errorf("mapError() = %v, not found %v, want %v", err, got, tt.wantNotFound)
			}
		})
	}
}
