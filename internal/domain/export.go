package domain

import "sort"

// Row is one record of a caller-supplied result set, keyed by column name
type Row map[string]any

// ResultExportRequest is the payload of the "export results" endpoint
type ResultExportRequest struct {
	Columns  []string `json:"columns" validate:"required,min=1,dive,required,max=128"`
	Rows     []Row    `json:"rows"`
	Filename string   `json:"filename,omitempty" validate:"omitempty,max=200"`
}

// TableData is a fully materialised table read
type TableData struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Coverage describes how the keys of a result set line up with its columns.
// Missing keys render as empty fields and extra keys are dropped.
type Coverage struct {
	Rows            int
	RowsWithMissing int
	ExtraKeys       []string
}

// Complete reports whether every row carries every column and nothing else
func (c Coverage) Complete() bool {
	return c.RowsWithMissing == 0 && len(c.ExtraKeys) == 0
}

// CheckCoverage compares each row's keys against columns
func CheckCoverage(columns []string, rows []Row) Coverage {
	known := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		known[c] = struct{}{}
	}

	cov := Coverage{Rows: len(rows)}
	extra := make(map[string]struct{})
	for _, row := range rows {
		for _, c := range columns {
			if _, ok := row[c]; !ok {
				cov.RowsWithMissing++
				break
			}
		}
		for k := range row {
			if _, ok := known[k]; !ok {
				extra[k] = struct{}{}
			}
		}
	}

	if len(extra) > 0 {
		cov.ExtraKeys = make([]string, 0, len(extra))
		for k := range extra {
			cov.ExtraKeys = append(cov.ExtraKeys, k)
		}
		sort.Strings(cov.ExtraKeys)
	}

	return cov
}

// Values projects row onto columns; absent keys come back as nil
func (r Row) Values(columns []string) []any {
	values := make([]any, len(columns))
	for i, c := range columns {
		values[i] = r[c]
	}
	return values
}
