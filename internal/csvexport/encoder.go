// Package csvexport renders result sets as RFC 4180 CSV.
package csvexport

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/Rrens/nlsql/internal/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Encoder writes a header followed by rows. Rows may come straight from a
// database cursor so the whole table never has to be held in memory.
type Encoder struct {
	w           *bufio.Writer
	columns     []string
	opts        Options
	wroteHeader bool
	rows        int
}

// NewEncoder returns an Encoder for columns. At least one column is required.
func NewEncoder(w io.Writer, columns []string, opts Options) (*Encoder, error) {
	if len(columns) == 0 {
		return nil, domain.InvalidExportRequest("at least one column is required")
	}

	return &Encoder{
		w:       bufio.NewWriter(w),
		columns: columns,
		opts:    opts.normalized(),
	}, nil
}

// Columns returns the header in output order
func (e *Encoder) Columns() []string {
	return e.columns
}

// Rows returns the number of data rows written so far
func (e *Encoder) Rows() int {
	return e.rows
}

// WriteHeader writes the optional BOM and the header line. It is a no-op if
// the header has already been written.
func (e *Encoder) WriteHeader() error {
	if e.wroteHeader {
		return nil
	}
	e.wroteHeader = true

	if e.opts.BOM {
		if _, err := e.w.Write(utf8BOM); err != nil {
			return err
		}
	}

	for i, c := range e.columns {
		if i > 0 {
			if err := e.w.WriteByte(','); err != nil {
				return err
			}
		}
		if err := e.writeField(c, true); err != nil {
			return err
		}
	}
	_, err := e.w.WriteString(string(e.opts.LineTerminator))
	return err
}

// WriteValues writes one row whose values are aligned with the columns
func (e *Encoder) WriteValues(values []any) error {
	if len(values) != len(e.columns) {
		return fmt.Errorf("row has %d values, expected %d", len(values), len(e.columns))
	}
	if err := e.WriteHeader(); err != nil {
		return err
	}

	for i, v := range values {
		if i > 0 {
			if err := e.w.WriteByte(','); err != nil {
				return err
			}
		}
		s, text := FormatValue(v, e.opts.NullAs)
		if err := e.writeField(s, text); err != nil {
			return err
		}
	}
	if _, err := e.w.WriteString(string(e.opts.LineTerminator)); err != nil {
		return err
	}

	e.rows++
	return nil
}

// WriteRow writes a keyed row in column order. Missing keys become NullAs,
// keys outside the header are ignored.
func (e *Encoder) WriteRow(row domain.Row) error {
	return e.WriteValues(row.Values(e.columns))
}

// Flush writes buffered data to the underlying writer
func (e *Encoder) Flush() error {
	return e.w.Flush()
}

func (e *Encoder) writeField(s string, text bool) error {
	if text && e.opts.Escaping == EscapingDefensive && looksLikeFormula(s) {
		s = "'" + s
	}

	if !needsQuotes(s) {
		_, err := e.w.WriteString(s)
		return err
	}

	if err := e.w.WriteByte('"'); err != nil {
		return err
	}
	if _, err := e.w.WriteString(strings.ReplaceAll(s, `"`, `""`)); err != nil {
		return err
	}
	return e.w.WriteByte('"')
}

func needsQuotes(s string) bool {
	return strings.ContainsAny(s, ",\"\r\n")
}

func looksLikeFormula(s string) bool {
	if s == "" {
		return false
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return true
	}
	return false
}

// ToCSV renders columns and rows into a single document
func ToCSV(columns []string, rows []domain.Row, opts Options) ([]byte, error) {
	var buf bytes.Buffer

	enc, err := NewEncoder(&buf, columns, opts)
	if err != nil {
		return nil, err
	}
	if err := enc.WriteHeader(); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := enc.WriteRow(row); err != nil {
			return nil, err
		}
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
