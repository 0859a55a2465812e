package schema

import (
	"strings"
	"testing"

	"github.com/anhp95/lang/internal/table"
)

const coreHeader = "Glottocode,Language Family,Language Name,Concept,Form,Latitude,Longitude,Source"

func mustParse(t *testing.T, data string) *table.Table {
	t.Helper()
	tbl, err := table.ParseCSV(data)
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	return tbl
}

func TestValidateCoreOK(t *testing.T) {
	tbl := mustParse(t, coreHeader+"\n"+
		`stan1293,Indo-European,French,water,eau,46.0,2.0,"Dict, 1905"`+"\n"+
		"stan1295,Indo-European,German,water,Wasser,51.0,10.0,Grammar\n")
	res := Validate(tbl, KindNormalized)
	if !res.OK {
		t.Fatalf("expected ok, got errors: %v", res.Errors)
	}
	if res.RowCount != 2 {
		t.Errorf("expected row_count 2, got %d", res.RowCount)
	}
}

func TestValidateCoreMissingAndExtraColumns(t *testing.T) {
	tbl := mustParse(t, "Glottocode,Language Family,Language Name,Concept,Form,Latitude,Longitude,Notes\nx,f,n,c,fm,1,2,n\n")
	res := Validate(tbl, KindNormalized)
	if res.OK {
		t.Fatal("expected failure")
	}
	joined := strings.Join(res.Errors, "\n")
	if !strings.Contains(joined, "missing column: Source") {
		t.Errorf("missing column not itemized: %v", res.Errors)
	}
	if !strings.Contains(joined, "extra column: Notes") {
		t.Errorf("extra column not itemized: %v", res.Errors)
	}
}

func TestValidateCoreColumnOrderIrrelevant(t *testing.T) {
	tbl := mustParse(t, "Source,Longitude,Latitude,Form,Concept,Language Name,Language Family,Glottocode\ns,2,1,f,c,n,fam,g\n")
	if res := Validate(tbl, KindNormalized); !res.OK {
		t.Errorf("order must not matter: %v", res.Errors)
	}
}

// Scenario: 5 rows, 2 with out-of-range latitude, exactly 2 itemized errors.
func TestValidateCoreLatitudeRange(t *testing.T) {
	rows := []string{
		"g1,f,n1,c,f1,45.0,10.0,s",
		"g2,f,n2,c,f2,95.0,10.0,s",
		"g3,f,n3,c,f3,-45.0,10.0,s",
		"g4,f,n4,c,f4,95.0,10.0,s",
		"g5,f,n5,c,f5,0.0,10.0,s",
	}
	tbl := mustParse(t, coreHeader+"\n"+strings.Join(rows, "\n")+"\n")
	res := Validate(tbl, KindNormalized)
	if res.OK {
		t.Fatal("expected failure")
	}
	if len(res.Errors) != 2 {
		t.Fatalf("expected exactly 2 errors, got %d: %v", len(res.Errors), res.Errors)
	}
	for _, e := range res.Errors {
		if !strings.Contains(e, "Latitude") {
			t.Errorf("error does not name the column: %q", e)
		}
	}
	if !strings.Contains(res.Errors[0], "row 3") || !strings.Contains(res.Errors[1], "row 5") {
		t.Errorf("errors do not reference the failing rows: %v", res.Errors)
	}
}

func TestValidateCoreDirectionalCoordinates(t *testing.T) {
	tbl := mustParse(t, coreHeader+"\n"+
		"g,f,n,c,fm,48.85° N,2.35° E,s\n"+
		"g2,f,n2,c,fm2,33.9S,18.4e,s\n")
	if res := Validate(tbl, KindNormalized); !res.OK {
		t.Errorf("directional suffixes should validate: %v", res.Errors)
	}
}

func TestValidateCoreRaggedRow(t *testing.T) {
	tbl := mustParse(t, coreHeader+"\ng,f,n,c,fm,1,2\n")
	res := Validate(tbl, KindNormalized)
	if res.OK {
		t.Fatal("expected failure for short row")
	}
	if !strings.Contains(res.Errors[0], "row 2") {
		t.Errorf("row not referenced: %v", res.Errors)
	}
}

func TestValidateMatrix(t *testing.T) {
	tbl := mustParse(t, "Glottocode,Language Family,Language Name,Latitude,Longitude,water,fire\ng,f,n,1.0,2.0,1,0\ng2,f,n2,3.0,4.0,true,false\n")
	if res := Validate(tbl, KindMatrix); !res.OK {
		t.Errorf("expected ok: %v", res.Errors)
	}
}

func TestValidateMatrixNonBooleanCell(t *testing.T) {
	tbl := mustParse(t, "Glottocode,Language Family,Language Name,Latitude,Longitude,water\ng,f,n,1.0,2.0,maybe\n")
	res := Validate(tbl, KindMatrix)
	if res.OK {
		t.Fatal("expected failure")
	}
	if !strings.Contains(res.Errors[0], "water") {
		t.Errorf("error does not name the column: %v", res.Errors)
	}
}

func TestValidateMatrixNoConceptColumns(t *testing.T) {
	tbl := mustParse(t, "Glottocode,Language Family,Language Name,Latitude,Longitude\ng,f,n,1.0,2.0\n")
	if res := Validate(tbl, KindMatrix); res.OK {
		t.Error("matrix with no concept columns must fail")
	}
}

func TestValidateClustered(t *testing.T) {
	tbl := mustParse(t, "Glottocode,Language Family,Language Name,Latitude,Longitude,water,cluster_id\ng,f,n,1.0,2.0,1,0\ng2,f,n2,3.0,4.0,0,-1\n")
	if res := Validate(tbl, KindClustered); !res.OK {
		t.Errorf("expected ok: %v", res.Errors)
	}
}

func TestValidateClusteredRequiresIntegerLabels(t *testing.T) {
	tbl := mustParse(t, "Glottocode,Language Family,Language Name,Latitude,Longitude,water,cluster_id\ng,f,n,1.0,2.0,1,first\n")
	res := Validate(tbl, KindClustered)
	if res.OK {
		t.Fatal("expected failure")
	}
	if !strings.Contains(strings.Join(res.Errors, " "), "cluster_id") {
		t.Errorf("cluster_id not named: %v", res.Errors)
	}
}

func TestValidateClusteredMissingLabelColumn(t *testing.T) {
	tbl := mustParse(t, "Glottocode,Language Family,Language Name,Latitude,Longitude,water\ng,f,n,1.0,2.0,1\n")
	if res := Validate(tbl, KindClustered); res.OK {
		t.Error("clustered contract requires cluster_id")
	}
}

func TestValidateRawIsLenient(t *testing.T) {
	tbl := mustParse(t, "anything,goes\n1,2\n")
	if res := Validate(tbl, KindRaw); !res.OK {
		t.Errorf("raw kind must accept arbitrary tables: %v", res.Errors)
	}
}

func TestCleanCoordinate(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"48.8566", 48.8566, true},
		{"48.8566° N", 48.8566, true},
		{"33.92 S", -33.92, true},
		{"18.42° w", -18.42, true},
		{"-33.92S", -33.92, true},
		{"", 0, false},
		{"north-ish", 0, false},
	}
	for _, tt := range tests {
		got, ok := CleanCoordinate(tt.in)
		if ok != tt.ok {
			t.Errorf("CleanCoordinate(%q) ok=%v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("CleanCoordinate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind("matrix"); err != nil || k != KindMatrix {
		t.Errorf("ParseKind(matrix) = %v, %v", k, err)
	}
	if _, err := ParseKind("bogus"); err == nil {
		t.Error("expected error for unknown kind")
	}
}
