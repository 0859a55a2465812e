package tools

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/anhp95/lang/internal/schema"
	"github.com/anhp95/lang/internal/table"
)

// toBinaryMatrix pivots core rows into one row per language with a 0/1
// column per concept, set when at least one non-empty Form is attested.
func toBinaryMatrix(ctx context.Context, in Input) (*Result, error) {
	t := in.Table

	identityIdx := make([]int, 0, len(schema.IdentityColumns))
	for _, c := range schema.IdentityColumns {
		idx := t.ColumnIndex(c)
		if idx < 0 {
			return &Result{Tool: "to_binary_matrix", Failure: fmt.Sprintf("missing column: %s", c)}, nil
		}
		identityIdx = append(identityIdx, idx)
	}
	conceptIdx := t.ColumnIndex("Concept")
	formIdx := t.ColumnIndex("Form")
	if conceptIdx < 0 || formIdx < 0 {
		return &Result{Tool: "to_binary_matrix", Failure: "missing Concept or Form column"}, nil
	}

	type entry struct {
		identity []string
		concepts map[string]bool
	}
	var order []string
	byKey := make(map[string]*entry)
	conceptSet := make(map[string]bool)

	for i := range t.Rows {
		form := strings.TrimSpace(t.Cell(i, formIdx))
		if form == "" {
			continue
		}
		concept := strings.TrimSpace(t.Cell(i, conceptIdx))
		if concept == "" {
			continue
		}

		identity := make([]string, len(identityIdx))
		for j, idx := range identityIdx {
			identity[j] = t.Cell(i, idx)
		}
		key := strings.Join(identity, "\x1f")

		e, ok := byKey[key]
		if !ok {
			e = &entry{identity: identity, concepts: make(map[string]bool)}
			byKey[key] = e
			order = append(order, key)
		}
		e.concepts[concept] = true
		conceptSet[concept] = true
	}

	if len(order) == 0 {
		return &Result{Tool: "to_binary_matrix", Failure: "no rows with a non-empty Form"}, nil
	}

	concepts := make([]string, 0, len(conceptSet))
	for c := range conceptSet {
		concepts = append(concepts, c)
	}
	sort.Strings(concepts)

	columns := append(append([]string(nil), schema.IdentityColumns...), concepts...)
	rows := make([][]string, 0, len(order))
	var present int
	for _, key := range order {
		e := byKey[key]
		row := append([]string(nil), e.identity...)
		for _, c := range concepts {
			if e.concepts[c] {
				row = append(row, "1")
				present++
			} else {
				row = append(row, "0")
			}
		}
		rows = append(rows, row)
	}

	coverage := float64(present) / float64(len(order)*len(concepts)) * 100
	coverage = math.Round(coverage*10) / 10

	return &Result{
		Tool:       "to_binary_matrix",
		Table:      &table.Table{Columns: columns, Rows: rows},
		OutputKind: schema.KindMatrix,
		Summary: map[string]any{
			"languages":    len(order),
			"concepts":     len(concepts),
			"avg_coverage": coverage,
		},
		Notes: fmt.Sprintf("Matrix of %d languages by %d concepts", len(order), len(concepts)),
	}, nil
}
