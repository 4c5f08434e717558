package source_test

import (
	"testing"

	"github.com/Rrens/nlsql/internal/source"
)

func TestSelectAll(t *testing.T) {
	tests := []struct {
		name    string
		quoted  string
		maxRows int
		want    string
	}{
		{"double quoted", `"users"`, 0, `SELECT * FROM "users"`},
		{"backticks with limit", "`orders`", 5, "SELECT * FROM `orders` LIMIT 5"},
		{"schema qualified", `"public"."rate_limits"`, 10, `SELECT * FROM "public"."rate_limits" LIMIT 10`},
		{"name resembling a file function", `"load_file"`, 0, `SELECT * FROM "load_file"`},
		{"negative bound", `"users"`, -1, `SELECT * FROM "users"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := source.SelectAll(tt.quoted, tt.maxRows); got != tt.want {
				t.Errorf("SelectAll() = %q, want %q", got, tt.want)
			}
		})
	}
}
