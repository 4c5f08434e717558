package service

import (
	"context"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/nlsql/internal/csvexport"
	"github.com/Rrens/nlsql/internal/domain"
	"github.com/Rrens/nlsql/internal/security"
	"github.com/Rrens/nlsql/internal/source"
)

const resultsFilenameLayout = "20060102_150405"

// TableSource is the read side of the configured database
type TableSource interface {
	DatabaseType() string
	Open(ctx context.Context, table security.Identifier) (source.Cursor, error)
	ListTables(ctx context.Context) ([]string, error)
	HealthCheck(ctx context.Context) error
}

// ExportService turns tables and client result sets into CSV
type ExportService struct {
	tables        TableSource
	defaults      csvexport.Options
	flushInterval int
	now           func() time.Time
}

// NewExportService creates a new export service. flushInterval is the number
// of rows between flushes of a streamed table export.
func NewExportService(tables TableSource, defaults csvexport.Options, flushInterval int) *ExportService {
	if flushInterval <= 0 {
		flushInterval = 500
	}
	return &ExportService{
		tables:        tables,
		defaults:      defaults,
		flushInterval: flushInterval,
		now:           time.Now,
	}
}

// Defaults returns the configured serializer options
func (s *ExportService) Defaults() csvexport.Options {
	return s.defaults
}

// TableExport is a validated, opened table export waiting to be written
type TableExport struct {
	ID       string
	Table    string
	Filename string
	Options  csvexport.Options

	cursor        source.Cursor
	flushInterval int
	rows          int
	started       time.Time
}

// PrepareTable validates the table name, checks that the table exists and
// opens it. Nothing has been written anywhere when this returns.
func (s *ExportService) PrepareTable(ctx context.Context, tableName string, opts csvexport.Options) (*TableExport, error) {
	ident, err := security.ValidateIdentifier(tableName, security.KindTable)
	if err != nil {
		return nil, err
	}

	cursor, err := s.tables.Open(ctx, ident)
	if err != nil {
		return nil, err
	}

	return &TableExport{
		ID:            uuid.New().String(),
		Table:         ident.String(),
		Filename:      ident.String() + ".csv",
		Options:       opts,
		cursor:        cursor,
		flushInterval: s.flushInterval,
		started:       s.now(),
	}, nil
}

// flusher is implemented by http.ResponseWriter
type flusher interface {
	Flush()
}

// WriteTo streams the table as CSV into w and closes the cursor
func (e *TableExport) WriteTo(w io.Writer) (int64, error) {
	defer e.cursor.Close()

	cw := &countingWriter{w: w}
	enc, err := csvexport.NewEncoder(cw, e.cursor.Columns(), e.Options)
	if err != nil {
		return 0, err
	}

	if err := enc.WriteHeader(); err != nil {
		return cw.n, err
	}

	for e.cursor.Next() {
		if err := enc.WriteValues(e.cursor.Values()); err != nil {
			return cw.n, err
		}
		if enc.Rows()%e.flushInterval == 0 {
			if err := enc.Flush(); err != nil {
				return cw.n, err
			}
			if f, ok := w.(flusher); ok {
				f.Flush()
			}
		}
	}
	if err := e.cursor.Err(); err != nil {
		enc.Flush()
		return cw.n, domain.NewDatabaseError("read table", err)
	}

	if err := enc.Flush(); err != nil {
		return cw.n, err
	}
	e.rows = enc.Rows()

	log.Info().
		Str("export_id", e.ID).
		Str("table", e.Table).
		Int("rows", e.rows).
		Int64("bytes", cw.n).
		Dur("duration", time.Since(e.started)).
		Msg("Table exported")

	return cw.n, nil
}

// Rows is the number of data rows written by WriteTo
func (e *TableExport) Rows() int {
	return e.rows
}

// Close releases the cursor when WriteTo is never called
func (e *TableExport) Close() error {
	return e.cursor.Close()
}

// ResultExport is a serialized client result set
type ResultExport struct {
	ID       string
	Filename string
	Body     []byte
	Rows     int
	Coverage domain.Coverage
}

// ExportResults serializes a result set supplied by the client. It never
// touches the database.
func (s *ExportService) ExportResults(ctx context.Context, req domain.ResultExportRequest, opts csvexport.Options) (*ResultExport, error) {
	if len(req.Columns) == 0 {
		return nil, domain.InvalidExportRequest("columns must not be empty")
	}
	for _, col := range req.Columns {
		if _, err := security.ValidateIdentifier(col, security.KindColumn); err != nil {
			return nil, domain.InvalidExportRequest(err.Error())
		}
	}

	id := uuid.New().String()
	cov := domain.CheckCoverage(req.Columns, req.Rows)
	if !cov.Complete() {
		log.Warn().
			Str("export_id", id).
			Int("rows_with_missing", cov.RowsWithMissing).
			Strs("extra_keys", cov.ExtraKeys).
			Msg("Result rows do not match columns")
	}

	body, err := csvexport.ToCSV(req.Columns, req.Rows, opts)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("export_id", id).
		Int("rows", len(req.Rows)).
		Int("bytes", len(body)).
		Msg("Results exported")

	return &ResultExport{
		ID:       id,
		Filename: s.resultsFilename(req.Filename),
		Body:     body,
		Rows:     len(req.Rows),
		Coverage: cov,
	}, nil
}

// ListTables returns the exportable tables
func (s *ExportService) ListTables(ctx context.Context) ([]string, error) {
	return s.tables.ListTables(ctx)
}

// Ready pings the database
func (s *ExportService) Ready(ctx context.Context) error {
	return s.tables.HealthCheck(ctx)
}

// DatabaseType returns the configured database type
func (s *ExportService) DatabaseType() string {
	return s.tables.DatabaseType()
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func (s *ExportService) resultsFilename(hint string) string {
	base := filepath.Base(strings.ReplaceAll(hint, `\`, "/"))
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = strings.Trim(unsafeFilenameChars.ReplaceAllString(name, "_"), "._")
	if hint == "" || name == "" {
		name = "query_results_" + s.now().Format(resultsFilenameLayout)
	}
	return name + ".csv"
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
