package csvexport_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Rrens/nlsql/internal/csvexport"
	"github.com/Rrens/nlsql/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noBOM() csvexport.Options {
	opts := csvexport.DefaultOptions()
	opts.BOM = false
	return opts
}

func TestToCSV_UsersScenario(t *testing.T) {
	rows := []domain.Row{
		{"id": 1, "name": `Bo"b`},
		{"id": 2, "name": "A,nn"},
	}

	out, err := csvexport.ToCSV([]string{"id", "name"}, rows, noBOM())
	require.NoError(t, err)
	assert.Equal(t, "id,name\r\n1,\"Bo\"\"b\"\r\n2,\"A,nn\"\r\n", string(out))
}

func TestToCSV_BOM(t *testing.T) {
	out, err := csvexport.ToCSV([]string{"x"}, nil, csvexport.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "\ufeffx\r\n", string(out))
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, out[:3])
}

func TestToCSV_HeaderOnly(t *testing.T) {
	out, err := csvexport.ToCSV([]string{"a", "b"}, []domain.Row{}, noBOM())
	require.NoError(t, err)
	assert.Equal(t, "a,b\r\n", string(out))
}

func TestToCSV_NoColumns(t *testing.T) {
	for _, rows := range [][]domain.Row{nil, {}, {{"a": 1}}} {
		_, err := csvexport.ToCSV(nil, rows, noBOM())
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidExportRequest))

		_, err = csvexport.ToCSV([]string{}, rows, noBOM())
		assert.True(t, errors.Is(err, domain.ErrInvalidExportRequest))
	}
}

func TestToCSV_NullAndMissing(t *testing.T) {
	rows := []domain.Row{
		{"a": nil, "b": "x"},
		{"b": "y"},
		{"a": 1, "b": nil, "extra": "ignored"},
	}

	out, err := csvexport.ToCSV([]string{"a", "b"}, rows, noBOM())
	require.NoError(t, err)
	assert.Equal(t, "a,b\r\n,x\r\n,y\r\n1,\r\n", string(out))
	assert.NotContains(t, string(out), "null")
	assert.NotContains(t, string(out), "nil")
	assert.NotContains(t, string(out), "ignored")
}

func TestToCSV_NullAs(t *testing.T) {
	opts := noBOM()
	opts.NullAs = "NULL"

	out, err := csvexport.ToCSV([]string{"a"}, []domain.Row{{"a": nil}, {}}, opts)
	require.NoError(t, err)
	assert.Equal(t, "a\r\nNULL\r\nNULL\r\n", string(out))
}

func TestToCSV_LF(t *testing.T) {
	opts := noBOM()
	opts.LineTerminator = csvexport.LF

	out, err := csvexport.ToCSV([]string{"a"}, []domain.Row{{"a": "line1\nline2"}}, opts)
	require.NoError(t, err)
	assert.Equal(t, "a\n\"line1\nline2\"\n", string(out))
}

func TestToCSV_LineCount(t *testing.T) {
	columns := []string{"id", "label", "score"}
	var rows []domain.Row
	for i := 0; i < 25; i++ {
		rows = append(rows, domain.Row{"id": i, "label": "row", "score": float64(i) / 4})
	}

	out, err := csvexport.ToCSV(columns, rows, noBOM())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(out), "\r\n"), "\r\n")
	assert.Len(t, lines, len(rows)+1)
	assert.Equal(t, "id,label,score", lines[0])
	assert.Equal(t, "1,row,0.25", lines[1])
}

func TestToCSV_RoundTrip(t *testing.T) {
	values := []string{
		"plain",
		"with,comma",
		`with "quotes"`,
		"with\r\nCRLF",
		"with\nLF",
		`"`,
		",",
		" leading space",
		"trailing,\"mix\"\r\n",
	}

	var rows []domain.Row
	for _, v := range values {
		rows = append(rows, domain.Row{"v": v})
	}

	out, err := csvexport.ToCSV([]string{"v"}, rows, noBOM())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, len(values)+1)

	for i, v := range values {
		// encoding/csv normalises \r\n inside quoted fields to \n
		want := strings.ReplaceAll(v, "\r\n", "\n")
		assert.Equal(t, want, records[i+1][0], "value %d", i)
	}
}

func TestToCSV_QuotesOnlyWhenNeeded(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"digits", 12345, "12345"},
		{"negative", -7, "-7"},
		{"float", 3.5, "3.5"},
		{"large float", 1e21, "1000000000000000000000"},
		{"bool", true, "true"},
		{"text", "hello world", "hello world"},
		{"comma", "a,b", `"a,b"`},
		{"quote", `say "hi"`, `"say ""hi"""`},
		{"cr", "a\rb", "\"a\rb\""},
		{"json number", json.Number("12345678901234567890"), "12345678901234567890"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := csvexport.ToCSV([]string{"v"}, []domain.Row{{"v": tt.value}}, noBOM())
			require.NoError(t, err)
			assert.Equal(t, "v\r\n"+tt.want+"\r\n", string(out))
		})
	}
}

func TestToCSV_HeaderQuoting(t *testing.T) {
	out, err := csvexport.ToCSV([]string{"a,b", `c"d`}, nil, noBOM())
	require.NoError(t, err)
	assert.Equal(t, "\"a,b\",\"c\"\"d\"\r\n", string(out))
}

func TestToCSV_DefensiveEscaping(t *testing.T) {
	opts := noBOM()
	opts.Escaping = csvexport.EscapingDefensive

	rows := []domain.Row{
		{"v": "=SUM(A1:A2)"},
		{"v": "+1"},
		{"v": "-cmd"},
		{"v": "@import"},
		{"v": "=HYPERLINK(\"x\",\"y\")"},
		{"v": -5},
		{"v": "safe"},
	}

	out, err := csvexport.ToCSV([]string{"v"}, rows, opts)
	require.NoError(t, err)
	assert.Equal(t,
		"v\r\n'=SUM(A1:A2)\r\n'+1\r\n'-cmd\r\n'@import\r\n\"'=HYPERLINK(\"\"x\"\",\"\"y\"\")\"\r\n-5\r\nsafe\r\n",
		string(out))
}

func TestEncoder_Streaming(t *testing.T) {
	var buf bytes.Buffer
	enc, err := csvexport.NewEncoder(&buf, []string{"id", "name"}, noBOM())
	require.NoError(t, err)

	require.NoError(t, enc.WriteValues([]any{int64(1), []byte("alice")}))
	require.NoError(t, enc.WriteValues([]any{int64(2), nil}))
	require.NoError(t, enc.Flush())

	assert.Equal(t, "id,name\r\n1,alice\r\n2,\r\n", buf.String())
	assert.Equal(t, 2, enc.Rows())

	err = enc.WriteValues([]any{1})
	assert.Error(t, err)
}

func TestEncoder_HeaderWrittenOnce(t *testing.T) {
	var buf bytes.Buffer
	enc, err := csvexport.NewEncoder(&buf, []string{"a"}, csvexport.DefaultOptions())
	require.NoError(t, err)

	require.NoError(t, enc.WriteHeader())
	require.NoError(t, enc.WriteHeader())
	require.NoError(t, enc.WriteRow(domain.Row{"a": "x"}))
	require.NoError(t, enc.Flush())

	assert.Equal(t, "\ufeffa\r\nx\r\n", buf.String())
}

func TestFormatValue(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	name := "ptr"
	var nilPtr *string

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"nil", nil, ""},
		{"time", ts, "2024-03-01T12:30:00Z"},
		{"uuid", id, "6ba7b810-9dad-11d1-80b4-00c04fd430c8"},
		{"uuid bytes", [16]byte(id), "6ba7b810-9dad-11d1-80b4-00c04fd430c8"},
		{"pointer", &name, "ptr"},
		{"nil pointer", nilPtr, ""},
		{"slice", []any{1, "a"}, `[1,"a"]`},
		{"map", map[string]any{"k": 1}, `{"k":1}`},
		{"uint8", uint8(7), "7"},
		{"float32", float32(0.5), "0.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := csvexport.FormatValue(tt.value, "")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseOptions(t *testing.T) {
	lt, err := csvexport.ParseLineTerminator("LF")
	require.NoError(t, err)
	assert.Equal(t, csvexport.LF, lt)

	lt, err = csvexport.ParseLineTerminator("crlf")
	require.NoError(t, err)
	assert.Equal(t, csvexport.CRLF, lt)

	_, err = csvexport.ParseLineTerminator("cr")
	assert.Error(t, err)

	esc, err := csvexport.ParseEscaping("Defensive")
	require.NoError(t, err)
	assert.Equal(t, csvexport.EscapingDefensive, esc)

	_, err = csvexport.ParseEscaping("paranoid")
	assert.Error(t, err)
}
