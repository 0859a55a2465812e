package orchestrator

import (
	"fmt"

	"github.com/anhp95/lang/internal/schema"
	"github.com/anhp95/lang/internal/session"
	"github.com/anhp95/lang/internal/table"
	"github.com/anhp95/lang/internal/tools"
)

// enrichData resolves the data argument for a tool. An explicit csv_data
// param always wins; otherwise the first live artifact in the tool's
// priority list is used. Tools without InputKinds need no data. Enrichment
// reads the context but never validates or mutates it.
func enrichData(tool *tools.Tool, params map[string]any, sctx *session.Context) (*table.Table, schema.Kind, error) {
	if raw, ok := params["csv_data"].(string); ok && raw != "" {
		t, err := table.ParseCSV(raw)
		if err != nil {
			return nil, "", fmt.Errorf("explicit csv_data: %w", err)
		}
		return t, tool.ExpectedKind, nil
	}

	if len(tool.InputKinds) == 0 {
		return nil, "", nil
	}

	// export_csv may name the kind to export explicitly.
	if tool.Name == "export_csv" {
		name := ""
		if s, ok := params["kind"].(string); ok {
			name = s
		} else if s, ok := params["data_source"].(string); ok {
			name = s
		}
		if name != "" {
			kind, err := parseExportKind(name)
			if err != nil {
				return nil, "", err
			}
			art := sctx.Get(kind)
			if art == nil {
				return nil, "", &NoDataError{Tool: tool.Name}
			}
			return art.Table, art.Kind, nil
		}
	}

	art := sctx.FirstOf(tool.InputKinds...)
	if art == nil {
		return nil, "", &NoDataError{Tool: tool.Name}
	}
	return art.Table, art.Kind, nil
}

// parseExportKind accepts both artifact kind names and the legacy export
// aliases the model tends to produce.
func parseExportKind(name string) (schema.Kind, error) {
	switch name {
	case "raw_csv":
		return schema.KindRaw, nil
	case "binary_matrix":
		return schema.KindMatrix, nil
	}
	return schema.ParseKind(name)
}
