// Package table holds the in-memory tabular dataset that flows between
// pipeline tools. Tables are plain string cells; typed interpretation
// (coordinates, booleans, cluster ids) is the schema package's job.
package table

import (
	"encoding/csv"
	"fmt"
	"strings"
)

// MaxRows caps how many data rows a single table may carry. Larger inputs
// are rejected at parse time rather than truncated silently.
const MaxRows = 10000

// Table is a header plus data rows. Rows are not required to match the
// header length; the schema validator reports ragged rows per line.
type Table struct {
	Columns []string
	Rows    [][]string
}

// ParseCSV parses CSV text into a Table. The reader runs with
// FieldsPerRecord disabled so ragged rows survive parsing and can be
// itemized by the validator instead of aborting the whole read.
func ParseCSV(data string) (*Table, error) {
	if strings.TrimSpace(data) == "" {
		return nil, fmt.Errorf("empty CSV data")
	}

	r := csv.NewReader(strings.NewReader(strings.TrimSpace(data)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no header row")
	}

	header := make([]string, len(records[0]))
	for i, c := range records[0] {
		header[i] = strings.TrimSpace(c)
	}

	rows := records[1:]
	if len(rows) > MaxRows {
		return nil, fmt.Errorf("table exceeds %d rows (%d)", MaxRows, len(rows))
	}

	return &Table{Columns: header, Rows: rows}, nil
}

// EncodeCSV renders the table back to CSV text with minimal quoting.
func (t *Table) EncodeCSV() string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	w.Write(t.Columns)
	for _, row := range t.Rows {
		w.Write(row)
	}
	w.Flush()
	return b.String()
}

// RowCount returns the number of data rows.
func (t *Table) RowCount() int { return len(t.Rows) }

// ColumnIndex returns the position of the named column, or -1. Matching is
// case-sensitive; the schema contracts are case-sensitive too.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at (row, col), or "" when the row is shorter than
// the header.
func (t *Table) Cell(row, col int) string {
	if col < 0 || row < 0 || row >= len(t.Rows) || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// Clone returns a deep copy. Artifacts stored in a session must never alias
// a table a handler may still mutate.
func (t *Table) Clone() *Table {
	cols := make([]string, len(t.Columns))
	copy(cols, t.Columns)
	rows := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = make([]string, len(r))
		copy(rows[i], r)
	}
	return &Table{Columns: cols, Rows: rows}
}
