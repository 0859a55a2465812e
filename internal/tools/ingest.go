package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/anhp95/lang/internal/schema"
	"github.com/anhp95/lang/internal/table"
)

func readCSV(ctx context.Context, in Input) (*Result, error) {
	t := in.Table

	previewLen := 5
	if t.RowCount() < previewLen {
		previewLen = t.RowCount()
	}
	preview := make([]map[string]string, 0, previewLen)
	for i := 0; i < previewLen; i++ {
		rec := make(map[string]string, len(t.Columns))
		for j, col := range t.Columns {
			rec[col] = t.Cell(i, j)
		}
		preview = append(preview, rec)
	}

	return &Result{
		Tool: "read_csv",
		Summary: map[string]any{
			"columns":   t.Columns,
			"row_count": t.RowCount(),
			"preview":   preview,
		},
		Notes: fmt.Sprintf("Parsed %d rows with %d columns", t.RowCount(), len(t.Columns)),
	}, nil
}

func validateSchema(ctx context.Context, in Input) (*Result, error) {
	kind := schema.KindNormalized
	if s := paramString(in.Params, "kind"); s != "" {
		parsed, err := schema.ParseKind(s)
		if err != nil {
			return &Result{Tool: "validate_schema", Failure: err.Error()}, nil
		}
		kind = parsed
	}

	res := schema.Validate(in.Table, kind)
	return &Result{
		Tool: "validate_schema",
		Summary: map[string]any{
			"ok":        res.OK,
			"errors":    res.Errors,
			"row_count": res.RowCount,
			"kind":      string(kind),
		},
	}, nil
}

// Normalize repairs a raw table toward the core contract: header and row
// lengths are fixed (extra trailing fields merge into Source), cells are
// trimmed, coordinates are cleaned, and rows whose coordinates cannot be
// salvaged are dropped with a warning.
func normalize(ctx context.Context, in Input) (*Result, error) {
	t := in.Table
	coreLen := len(schema.CoreColumns)
	var warnings []string

	header := make([]string, coreLen)
	for i := range header {
		if i < len(t.Columns) {
			header[i] = strings.TrimSpace(t.Columns[i])
		} else {
			header[i] = schema.CoreColumns[i]
		}
	}
	if len(t.Columns) < coreLen {
		warnings = append(warnings, "added missing header columns")
	} else if len(t.Columns) > coreLen {
		warnings = append(warnings, "dropped extra header columns")
	}

	latIdx, lonIdx := -1, -1
	for i, c := range header {
		switch c {
		case "Latitude":
			latIdx = i
		case "Longitude":
			lonIdx = i
		}
	}

	rows := make([][]string, 0, len(t.Rows))
	for i, src := range t.Rows {
		line := i + 2
		row := append([]string(nil), src...)

		if len(row) < coreLen {
			for len(row) < coreLen {
				row = append(row, "")
			}
		} else if len(row) > coreLen {
			// Unescaped commas in Source are the usual culprit.
			row = append(row[:coreLen-1], strings.Join(row[coreLen-1:], ", "))
			warnings = append(warnings, fmt.Sprintf("row %d: merged extra fields into %s", line, schema.CoreColumns[coreLen-1]))
		}

		for j := range row {
			row[j] = strings.TrimSpace(row[j])
		}

		dropped := false
		for _, idx := range []int{latIdx, lonIdx} {
			if idx < 0 || dropped {
				continue
			}
			limit := 90.0
			if idx == lonIdx {
				limit = 180.0
			}
			v, ok := schema.CleanCoordinate(row[idx])
			if !ok || v < -limit || v > limit {
				warnings = append(warnings, fmt.Sprintf("row %d: dropped (unusable %s %q)", line, header[idx], row[idx]))
				dropped = true
				continue
			}
			row[idx] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		if dropped {
			continue
		}

		rows = append(rows, row)
	}

	out := &table.Table{Columns: header, Rows: rows}
	return &Result{
		Tool:       "normalize",
		Table:      out,
		OutputKind: schema.KindNormalized,
		Summary: map[string]any{
			"rows":     out.RowCount(),
			"dropped":  t.RowCount() - out.RowCount(),
			"warnings": warnings,
		},
		Notes: fmt.Sprintf("Normalized %d rows (%d dropped)", out.RowCount(), t.RowCount()-out.RowCount()),
	}, nil
}
