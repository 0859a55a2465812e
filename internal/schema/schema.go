// Package schema defines the fixed column contracts for pipeline artifacts
// and the single validation gate every artifact write passes through.
package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/anhp95/lang/internal/table"
)

// Kind identifies what stage of the pipeline produced a table.
type Kind string

const (
	KindRaw        Kind = "raw"
	KindNormalized Kind = "normalized"
	KindMatrix     Kind = "matrix"
	KindClustered  Kind = "clustered"
)

// Kinds lists all artifact kinds in pipeline order.
var Kinds = []Kind{KindRaw, KindNormalized, KindMatrix, KindClustered}

// ParseKind converts a string to a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown artifact kind %q", s)
}

// CoreColumns is the 8-column core linguistic record contract. Order is not
// significant; presence and exact spelling are.
var CoreColumns = []string{
	"Glottocode",
	"Language Family",
	"Language Name",
	"Concept",
	"Form",
	"Latitude",
	"Longitude",
	"Source",
}

// IdentityColumns are the non-concept columns of a binary matrix.
var IdentityColumns = []string{
	"Glottocode",
	"Language Family",
	"Language Name",
	"Latitude",
	"Longitude",
}

// ClusterIDColumn is the label column added by clustering. Value -1 is the
// reserved noise sentinel.
const ClusterIDColumn = "cluster_id"

// NoiseLabel marks a row not assigned to any cluster.
const NoiseLabel = -1

// maxErrors caps how many itemized errors a single validation reports.
const maxErrors = 25

// ValidationResult is the outcome of one validation pass.
type ValidationResult struct {
	OK       bool     `json:"ok"`
	Errors   []string `json:"errors"`
	RowCount int      `json:"row_count"`
}

// Error is the validation-gate rejection. It carries the itemized result so
// callers can surface column/type/range errors verbatim.
type Error struct {
	Kind   Kind
	Result ValidationResult
}

func (e *Error) Error() string {
	return fmt.Sprintf("table does not satisfy %s contract: %s",
		e.Kind, strings.Join(e.Result.Errors, "; "))
}

// Validate checks a table against the contract for the given artifact kind.
// It is read-only, makes a single pass over the rows, and never repairs
// the input.
func Validate(t *table.Table, kind Kind) ValidationResult {
	if t == nil || len(t.Columns) == 0 {
		return ValidationResult{OK: false, Errors: []string{"empty table"}}
	}

	switch kind {
	case KindRaw:
		// Raw uploads are accepted as-is; typed contracts apply downstream.
		return ValidationResult{OK: true, RowCount: t.RowCount()}
	case KindNormalized:
		return validateCore(t)
	case KindMatrix:
		return validateMatrix(t, false)
	case KindClustered:
		return validateMatrix(t, true)
	default:
		return ValidationResult{OK: false, Errors: []string{fmt.Sprintf("unknown artifact kind %q", kind)}}
	}
}

func validateCore(t *table.Table) ValidationResult {
	var errs []string

	required := make(map[string]bool, len(CoreColumns))
	for _, c := range CoreColumns {
		required[c] = true
	}
	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		seen[c] = true
		if !required[c] {
			errs = append(errs, fmt.Sprintf("extra column: %s", c))
		}
	}
	for _, c := range CoreColumns {
		if !seen[c] {
			errs = append(errs, fmt.Sprintf("missing column: %s", c))
		}
	}

	latIdx := t.ColumnIndex("Latitude")
	lonIdx := t.ColumnIndex("Longitude")

	for i, row := range t.Rows {
		if len(errs) >= maxErrors {
			errs = append(errs, "further errors omitted")
			break
		}
		// Data rows are 1-indexed after the header.
		line := i + 2
		if len(row) != len(t.Columns) {
			errs = append(errs, fmt.Sprintf("row %d: has %d fields, expected %d", line, len(row), len(t.Columns)))
			continue
		}
		if latIdx >= 0 {
			errs = appendCoordError(errs, row[latIdx], "Latitude", 90, line)
		}
		if lonIdx >= 0 {
			errs = appendCoordError(errs, row[lonIdx], "Longitude", 180, line)
		}
	}

	return ValidationResult{OK: len(errs) == 0, Errors: errs, RowCount: t.RowCount()}
}

func validateMatrix(t *table.Table, clustered bool) ValidationResult {
	var errs []string

	identity := make(map[string]bool, len(IdentityColumns))
	for _, c := range IdentityColumns {
		identity[c] = true
		if t.ColumnIndex(c) < 0 {
			errs = append(errs, fmt.Sprintf("missing identity column: %s", c))
		}
	}

	clusterIdx := t.ColumnIndex(ClusterIDColumn)
	if clustered && clusterIdx < 0 {
		errs = append(errs, fmt.Sprintf("missing column: %s", ClusterIDColumn))
	}
	if !clustered && clusterIdx >= 0 {
		errs = append(errs, fmt.Sprintf("unexpected column: %s", ClusterIDColumn))
	}

	var conceptIdx []int
	var conceptNames []string
	for i, c := range t.Columns {
		if identity[c] || c == ClusterIDColumn {
			continue
		}
		conceptIdx = append(conceptIdx, i)
		conceptNames = append(conceptNames, c)
	}
	if len(conceptIdx) == 0 {
		errs = append(errs, "matrix has no concept columns")
	}

	latIdx := t.ColumnIndex("Latitude")
	lonIdx := t.ColumnIndex("Longitude")

	for i, row := range t.Rows {
		if len(errs) >= maxErrors {
			errs = append(errs, "further errors omitted")
			break
		}
		line := i + 2
		if len(row) != len(t.Columns) {
			errs = append(errs, fmt.Sprintf("row %d: has %d fields, expected %d", line, len(row), len(t.Columns)))
			continue
		}
		for j, idx := range conceptIdx {
			if !isBoolean(row[idx]) {
				errs = append(errs, fmt.Sprintf("row %d: column %q value %q is not boolean", line, conceptNames[j], row[idx]))
			}
		}
		if clustered && clusterIdx >= 0 {
			if _, err := strconv.Atoi(strings.TrimSpace(row[clusterIdx])); err != nil {
				errs = append(errs, fmt.Sprintf("row %d: %s value %q is not an integer", line, ClusterIDColumn, row[clusterIdx]))
			}
		}
		if latIdx >= 0 {
			errs = appendCoordError(errs, row[latIdx], "Latitude", 90, line)
		}
		if lonIdx >= 0 {
			errs = appendCoordError(errs, row[lonIdx], "Longitude", 180, line)
		}
	}

	return ValidationResult{OK: len(errs) == 0, Errors: errs, RowCount: t.RowCount()}
}

func appendCoordError(errs []string, value, column string, limit float64, line int) []string {
	v, ok := CleanCoordinate(value)
	if !ok {
		return append(errs, fmt.Sprintf("row %d: %s value %q is not a coordinate", line, column, value))
	}
	if v < -limit || v > limit {
		return append(errs, fmt.Sprintf("row %d: %s value %q out of range [%v,%v]", line, column, value, -limit, limit))
	}
	return errs
}

// isBoolean reports whether a matrix cell is interpretable as a boolean.
func isBoolean(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "1", "true", "false":
		return true
	}
	return false
}

// TruthyCell reports whether a boolean matrix cell holds a positive value.
// Callers must have validated the cell first.
func TruthyCell(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true":
		return true
	}
	return false
}

// CleanCoordinate parses a coordinate value after stripping degree symbols
// and directional suffixes. A trailing S or W negates the value. The input
// is never modified; callers that want the cleaned form re-render the float.
func CleanCoordinate(value string) (float64, bool) {
	s := strings.TrimSpace(value)
	if s == "" {
		return 0, false
	}

	upper := strings.ToUpper(s)
	negate := strings.Contains(upper, "S") || strings.Contains(upper, "W")

	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '°', '′', '″', ' ':
			return -1
		case 'N', 'S', 'E', 'W', 'n', 's', 'e', 'w':
			return -1
		}
		return r
	}, s)

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	if negate && v > 0 {
		v = -v
	}
	return v, true
}
