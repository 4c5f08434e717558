package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/nlsql/internal/api/response"
	"github.com/Rrens/nlsql/internal/csvexport"
	"github.com/Rrens/nlsql/internal/domain"
	"github.com/Rrens/nlsql/internal/service"
)

// maxResultsBody bounds the JSON body of a results export
const maxResultsBody = 32 << 20

// genericExportError is all a client learns about a storage failure
const genericExportError = "failed to export data"

// ExportHandler handles the CSV export endpoints
type ExportHandler struct {
	exportService *service.ExportService
}

// NewExportHandler creates a new export handler
func NewExportHandler(exportService *service.ExportService) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

// ExportTable streams a whole table as CSV
func (h *ExportHandler) ExportTable(w http.ResponseWriter, r *http.Request) {
	opts, err := exportOptions(r, h.exportService.Defaults())
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	tableName, err := url.PathUnescape(chi.URLParam(r, "tableName"))
	if err != nil {
		response.BadRequest(w, "invalid table name")
		return
	}

	export, err := h.exportService.PrepareTable(r.Context(), tableName, opts)
	if err != nil {
		writeExportError(w, r, err)
		return
	}

	response.CSVHeaders(w, export.Filename, export.ID, opts.BOM)
	w.WriteHeader(http.StatusOK)

	// The status line is gone; failures from here on can only be logged
	if _, err := export.WriteTo(w); err != nil {
		log.Error().
			Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("export_id", export.ID).
			Str("table", export.Table).
			Msg("Table export aborted mid-stream")
	}
}

// ExportResults serializes a client-held result set as CSV
func (h *ExportHandler) ExportResults(w http.ResponseWriter, r *http.Request) {
	opts, err := exportOptions(r, h.exportService.Defaults())
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	var input domain.ResultExportRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxResultsBody))
	dec.UseNumber()
	if err := dec.Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessage(err))
		return
	}

	result, err := h.exportService.ExportResults(r.Context(), input, opts)
	if err != nil {
		writeExportError(w, r, err)
		return
	}

	response.CSVHeaders(w, result.Filename, result.ID, opts.BOM)
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Body)))
	w.WriteHeader(http.StatusOK)
	w.Write(result.Body)
}

// ListTables returns the exportable tables
func (h *ExportHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.exportService.ListTables(r.Context())
	if err != nil {
		response.InternalError(w, "failed to list tables")
		return
	}

	response.OK(w, map[string]any{
		"database": h.exportService.DatabaseType(),
		"tables":   tables,
	})
}

// exportOptions applies the bom, line_terminator and escaping query
// parameters over the configured defaults
func exportOptions(r *http.Request, defaults csvexport.Options) (csvexport.Options, error) {
	opts := defaults
	q := r.URL.Query()

	if v := q.Get("bom"); v != "" {
		bom, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("invalid bom value %q", v)
		}
		opts.BOM = bom
	}
	if v := q.Get("line_terminator"); v != "" {
		term, err := csvexport.ParseLineTerminator(v)
		if err != nil {
			return opts, err
		}
		opts.LineTerminator = term
	}
	if v := q.Get("escaping"); v != "" {
		esc, err := csvexport.ParseEscaping(v)
		if err != nil {
			return opts, err
		}
		opts.Escaping = esc
	}

	return opts, nil
}

func writeExportError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidIdentifier), errors.Is(err, domain.ErrInvalidExportRequest):
		response.BadRequest(w, err.Error())
	case errors.Is(err, domain.ErrTableNotFound):
		response.NotFound(w, err.Error())
	default:
		log.Error().
			Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg("Export failed")
		response.InternalError(w, genericExportError)
	}
}
