package table

import (
	"strings"
	"testing"
)

func TestParseCSV(t *testing.T) {
	tbl, err := ParseCSV("a,b,c\n1,2,3\n4,5,6\n")
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(tbl.Columns) != 3 {
		t.Errorf("expected 3 columns, got %d", len(tbl.Columns))
	}
	if tbl.RowCount() != 2 {
		t.Errorf("expected 2 rows, got %d", tbl.RowCount())
	}
}

func TestParseCSVEmpty(t *testing.T) {
	if _, err := ParseCSV("   \n  "); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestParseCSVRaggedRowsSurvive(t *testing.T) {
	tbl, err := ParseCSV("a,b,c\n1,2\n1,2,3,4\n")
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(tbl.Rows[0]) != 2 || len(tbl.Rows[1]) != 4 {
		t.Errorf("ragged rows not preserved: %v", tbl.Rows)
	}
}

func TestParseCSVQuotedCommas(t *testing.T) {
	tbl, err := ParseCSV(`Name,Source
French,"Grammar, 2nd ed."
`)
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if got := tbl.Cell(0, 1); got != "Grammar, 2nd ed." {
		t.Errorf("quoted field mangled: %q", got)
	}
}

func TestEncodeCSVRoundTrip(t *testing.T) {
	in := "a,b\n\"x,y\",2\n"
	tbl, err := ParseCSV(in)
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	out := tbl.EncodeCSV()
	again, err := ParseCSV(out)
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if again.Cell(0, 0) != "x,y" {
		t.Errorf("round trip lost quoting: %q", again.Cell(0, 0))
	}
}

func TestColumnIndexCaseSensitive(t *testing.T) {
	tbl := &Table{Columns: []string{"Glottocode", "Form"}}
	if tbl.ColumnIndex("Glottocode") != 0 {
		t.Error("expected index 0")
	}
	if tbl.ColumnIndex("glottocode") != -1 {
		t.Error("matching must be case-sensitive")
	}
}

func TestCloneIsDeep(t *testing.T) {
	tbl, _ := ParseCSV("a,b\n1,2\n")
	cp := tbl.Clone()
	cp.Rows[0][0] = "mutated"
	if tbl.Rows[0][0] != "1" {
		t.Error("Clone shares row storage with original")
	}
}

func TestParseCSVRowCap(t *testing.T) {
	var b strings.Builder
	b.WriteString("a\n")
	for i := 0; i < MaxRows+1; i++ {
		b.WriteString("x\n")
	}
	if _, err := ParseCSV(b.String()); err == nil {
		t.Error("expected error above row cap")
	}
}
