package tools

import (
	"context"
	"fmt"
	"time"
)

// exportCSV renders the enriched artifact as a downloadable CSV payload.
// Kind selection happens in enrichment; the handler only encodes.
func exportCSV(ctx context.Context, in Input) (*Result, error) {
	filename := paramString(in.Params, "filename")
	if filename == "" {
		filename = fmt.Sprintf("linguistic_data_%s_%s.csv", in.Kind, time.Now().Format("20060102_150405"))
	}

	return &Result{
		Tool:     "export_csv",
		CSV:      in.Table.EncodeCSV(),
		Filename: filename,
		Summary: map[string]any{
			"kind":      string(in.Kind),
			"row_count": in.Table.RowCount(),
			"filename":  filename,
		},
		Notes: fmt.Sprintf("Exported %d rows of %s data", in.Table.RowCount(), in.Kind),
	}, nil
}
