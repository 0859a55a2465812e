package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/anhp95/lang/internal/llm"
	"github.com/anhp95/lang/internal/schema"
	"github.com/anhp95/lang/internal/table"
)

// fakeProvider returns a fixed completion.
type fakeProvider struct {
	content string
	err     error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.content}, nil
}

func coreTable(t *testing.T, rows ...string) *table.Table {
	t.Helper()
	csv := "Glottocode,Language Family,Language Name,Concept,Form,Latitude,Longitude,Source\n" + strings.Join(rows, "\n")
	tbl, err := table.ParseCSV(csv)
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	return tbl
}

func TestRegistryInventory(t *testing.T) {
	r := NewRegistry()
	want := []string{
		"propose_wordlist", "refine_wordlist", "collect_multilingual_rows",
		"read_csv", "validate_schema", "normalize",
		"to_binary_matrix", "cluster", "to_map_layer", "export_csv",
	}
	names := r.Names()
	if len(names) != len(want) {
		t.Fatalf("registry has %d tools, want %d", len(names), len(want))
	}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("tool %d = %q, want %q", i, names[i], name)
		}
		if _, ok := r.Get(name); !ok {
			t.Errorf("Get(%q) not found", name)
		}
	}
}

func TestRegistryEnrichmentPriorities(t *testing.T) {
	r := NewRegistry()
	cases := map[string][]schema.Kind{
		"read_csv":         {schema.KindRaw},
		"to_binary_matrix": {schema.KindNormalized, schema.KindRaw},
		"cluster":          {schema.KindMatrix},
		"to_map_layer":     {schema.KindClustered, schema.KindMatrix, schema.KindNormalized, schema.KindRaw},
	}
	for name, want := range cases {
		tool, _ := r.Get(name)
		if len(tool.InputKinds) != len(want) {
			t.Fatalf("%s: got %v, want %v", name, tool.InputKinds, want)
		}
		for i := range want {
			if tool.InputKinds[i] != want[i] {
				t.Errorf("%s: priority %d = %v, want %v", name, i, tool.InputKinds[i], want[i])
			}
		}
	}
}

func TestProposeWordlist(t *testing.T) {
	in := Input{
		Params:   map[string]any{"topic": "kinship", "constraints": map[string]any{"max_terms": float64(5)}},
		Provider: &fakeProvider{content: `Here you go:\n["mother", "father", "sibling"]`},
	}
	res, err := proposeWordlist(context.Background(), in)
	if err != nil {
		t.Fatalf("proposeWordlist: %v", err)
	}
	if res.Failure != "" {
		t.Fatalf("unexpected failure: %s", res.Failure)
	}
	if len(res.Wordlist) != 3 || res.Wordlist[0] != "mother" {
		t.Errorf("wordlist = %v", res.Wordlist)
	}
}

func TestProposeWordlistNoJSON(t *testing.T) {
	in := Input{
		Params:   map[string]any{"topic": "kinship"},
		Provider: &fakeProvider{content: "I cannot help with that."},
	}
	res, err := proposeWordlist(context.Background(), in)
	if err != nil {
		t.Fatalf("proposeWordlist: %v", err)
	}
	if res.Failure == "" {
		t.Error("expected declared failure when no JSON array in response")
	}
}

func TestRefineWordlistFallsBackToSession(t *testing.T) {
	in := Input{
		Params:   map[string]any{"feedback": "drop sibling"},
		Wordlist: []string{"mother", "father", "sibling"},
		Provider: &fakeProvider{content: `["mother", "father"]`},
	}
	res, err := refineWordlist(context.Background(), in)
	if err != nil {
		t.Fatalf("refineWordlist: %v", err)
	}
	if len(res.Wordlist) != 2 {
		t.Errorf("wordlist = %v, want 2 entries", res.Wordlist)
	}
}

func TestRefineWordlistNoList(t *testing.T) {
	res, err := refineWordlist(context.Background(), Input{Params: map[string]any{}})
	if err != nil {
		t.Fatalf("refineWordlist: %v", err)
	}
	if res.Failure == "" {
		t.Error("expected declared failure without any wordlist")
	}
}

func TestCollectMultilingualRows(t *testing.T) {
	csv := "Glottocode,Language Family,Language Name,Concept,Form,Latitude,Longitude,Source\n" +
		"stan1293,Indo-European,English,mother,mother,52.0,0.0,OED"
	in := Input{
		Params:   map[string]any{"wordlist": []any{"mother"}},
		Provider: &fakeProvider{content: "```csv\n" + csv + "\n```"},
	}
	res, err := collectMultilingualRows(context.Background(), in)
	if err != nil {
		t.Fatalf("collectMultilingualRows: %v", err)
	}
	if res.Failure != "" {
		t.Fatalf("unexpected failure: %s", res.Failure)
	}
	if res.OutputKind != schema.KindRaw || res.Provenance != "harvest" {
		t.Errorf("kind/provenance = %v/%v", res.OutputKind, res.Provenance)
	}
	if res.Table.RowCount() != 1 {
		t.Errorf("rows = %d, want 1", res.Table.RowCount())
	}
}

func TestCollectMultilingualRowsNoWordlist(t *testing.T) {
	res, err := collectMultilingualRows(context.Background(), Input{Params: map[string]any{}})
	if err != nil {
		t.Fatalf("collectMultilingualRows: %v", err)
	}
	if res.Failure == "" {
		t.Error("expected declared failure without a wordlist")
	}
}

func TestReadCSVPreview(t *testing.T) {
	tbl := coreTable(t,
		"abcd1234,Fam,Lang A,water,aqua,10.0,20.0,src",
		"efgh5678,Fam,Lang B,water,wasser,11.0,21.0,src",
	)
	res, err := readCSV(context.Background(), Input{Table: tbl})
	if err != nil {
		t.Fatalf("readCSV: %v", err)
	}
	if res.Table != nil {
		t.Error("read_csv must not produce an artifact")
	}
	if got := res.Summary["row_count"]; got != 2 {
		t.Errorf("row_count = %v, want 2", got)
	}
	preview := res.Summary["preview"].([]map[string]string)
	if len(preview) != 2 || preview[0]["Form"] != "aqua" {
		t.Errorf("preview = %v", preview)
	}
}

func TestValidateSchemaReportsErrors(t *testing.T) {
	tbl := coreTable(t, "abcd1234,Fam,Lang A,water,aqua,95.0,20.0,src")
	res, err := validateSchema(context.Background(), Input{Table: tbl, Params: map[string]any{}})
	if err != nil {
		t.Fatalf("validateSchema: %v", err)
	}
	if res.Failure != "" {
		t.Fatalf("validation report is not a tool failure: %s", res.Failure)
	}
	if ok := res.Summary["ok"].(bool); ok {
		t.Error("expected ok=false for out-of-range latitude")
	}
	errs := res.Summary["errors"].([]string)
	if len(errs) != 1 || !strings.Contains(errs[0], "Latitude") {
		t.Errorf("errors = %v", errs)
	}
}

func TestNormalizeMergesExtrasAndCleansCoordinates(t *testing.T) {
	tbl := coreTable(t,
		`abcd1234,Fam,Lang A,water,aqua,"48.8566° N","2.3522° E",Dict,extra1,extra2`,
		"efgh5678,Fam,Lang B,water,wasser, 11.0 ,21.0,src",
	)
	res, err := normalize(context.Background(), Input{Table: tbl})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	out := res.Table
	if out.RowCount() != 2 {
		t.Fatalf("rows = %d, want 2", out.RowCount())
	}
	srcIdx := out.ColumnIndex("Source")
	if got := out.Cell(0, srcIdx); got != "Dict, extra1, extra2" {
		t.Errorf("Source = %q, want merged extras", got)
	}
	latIdx := out.ColumnIndex("Latitude")
	if got := out.Cell(0, latIdx); got != "48.8566" {
		t.Errorf("Latitude = %q, want cleaned 48.8566", got)
	}
	if got := out.Cell(1, latIdx); got != "11" {
		t.Errorf("Latitude = %q, want trimmed 11", got)
	}
	// Output must satisfy the core contract.
	if v := schema.Validate(out, schema.KindNormalized); !v.OK {
		t.Errorf("normalized output fails validation: %v", v.Errors)
	}
}

func TestNormalizeDropsUnusableCoordinates(t *testing.T) {
	tbl := coreTable(t,
		"abcd1234,Fam,Lang A,water,aqua,not-a-number,20.0,src",
		"efgh5678,Fam,Lang B,water,wasser,95.0,21.0,src",
		"ijkl9012,Fam,Lang C,water,agua,10.0,21.0,src",
	)
	res, err := normalize(context.Background(), Input{Table: tbl})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if res.Table.RowCount() != 1 {
		t.Errorf("rows = %d, want 1 survivor", res.Table.RowCount())
	}
	if got := res.Summary["dropped"]; got != 2 {
		t.Errorf("dropped = %v, want 2", got)
	}
}

func TestToBinaryMatrix(t *testing.T) {
	// 20 languages, each attesting one of three concepts.
	concepts := []string{"water", "fire", "earth"}
	rows := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		c := concepts[i%3]
		rows = append(rows, strings.Join([]string{
			"code" + string(rune('a'+i)), "Fam", "Lang " + string(rune('A'+i)),
			c, "form", "10.0", "20.0", "src",
		}, ","))
	}
	tbl := coreTable(t, rows...)

	res, err := toBinaryMatrix(context.Background(), Input{Table: tbl})
	if err != nil {
		t.Fatalf("toBinaryMatrix: %v", err)
	}
	if res.Failure != "" {
		t.Fatalf("unexpected failure: %s", res.Failure)
	}
	out := res.Table
	if out.RowCount() != 20 {
		t.Errorf("matrix rows = %d, want 20", out.RowCount())
	}
	if len(out.Columns) != len(schema.IdentityColumns)+3 {
		t.Errorf("matrix columns = %d, want %d", len(out.Columns), len(schema.IdentityColumns)+3)
	}
	if v := schema.Validate(out, schema.KindMatrix); !v.OK {
		t.Errorf("matrix output fails contract: %v", v.Errors)
	}
	if got := res.Summary["languages"]; got != 20 {
		t.Errorf("languages = %v, want 20", got)
	}
	if got := res.Summary["concepts"]; got != 3 {
		t.Errorf("concepts = %v, want 3", got)
	}
}

func TestToBinaryMatrixSkipsEmptyForms(t *testing.T) {
	tbl := coreTable(t,
		"abcd1234,Fam,Lang A,water,aqua,10.0,20.0,src",
		"abcd1234,Fam,Lang A,fire,,10.0,20.0,src",
	)
	res, err := toBinaryMatrix(context.Background(), Input{Table: tbl})
	if err != nil {
		t.Fatalf("toBinaryMatrix: %v", err)
	}
	out := res.Table
	if out.RowCount() != 1 {
		t.Fatalf("matrix rows = %d, want 1", out.RowCount())
	}
	if idx := out.ColumnIndex("fire"); idx >= 0 {
		t.Error("empty-form concept must not become a column")
	}
}

func matrixTable(t *testing.T, profiles [][]string) *table.Table {
	t.Helper()
	columns := append(append([]string(nil), schema.IdentityColumns...), "water", "fire", "earth")
	rows := make([][]string, 0, len(profiles))
	for i, p := range profiles {
		row := []string{
			"code" + string(rune('a'+i)), "Fam", "Lang " + string(rune('A'+i)), "10.0", "20.0",
		}
		row = append(row, p...)
		rows = append(rows, row)
	}
	return &table.Table{Columns: columns, Rows: rows}
}

func TestClusterTool(t *testing.T) {
	profiles := make([][]string, 0, 10)
	for i := 0; i < 5; i++ {
		profiles = append(profiles, []string{"1", "1", "0"})
	}
	for i := 0; i < 5; i++ {
		profiles = append(profiles, []string{"0", "0", "1"})
	}
	tbl := matrixTable(t, profiles)

	res, err := clusterTool(context.Background(), Input{Table: tbl, Params: map[string]any{}})
	if err != nil {
		t.Fatalf("clusterTool: %v", err)
	}
	if res.Failure != "" {
		t.Fatalf("unexpected failure: %s", res.Failure)
	}
	out := res.Table
	if v := schema.Validate(out, schema.KindClustered); !v.OK {
		t.Errorf("clustered output fails contract: %v", v.Errors)
	}
	if got := res.Summary["total_clusters"]; got != 2 {
		t.Errorf("total_clusters = %v, want 2", got)
	}
	if got := res.Summary["noise_points"]; got != 0 {
		t.Errorf("noise_points = %v, want 0", got)
	}
}

func TestClusterToolAllNoiseDeclaresFailure(t *testing.T) {
	// Three orthogonal singletons: no point has enough neighbors.
	tbl := matrixTable(t, [][]string{
		{"1", "0", "0"},
		{"0", "1", "0"},
		{"0", "0", "1"},
	})
	res, err := clusterTool(context.Background(), Input{Table: tbl, Params: map[string]any{}})
	if err != nil {
		t.Fatalf("clusterTool: %v", err)
	}
	if res.Failure == "" {
		t.Fatal("expected declared failure for an all-noise run")
	}
	if res.Table != nil {
		t.Error("declared failure must not carry an artifact")
	}
}

func TestToMapLayerExcludesNoiseByDefault(t *testing.T) {
	columns := append(append([]string(nil), schema.IdentityColumns...), "water", schema.ClusterIDColumn)
	tbl := &table.Table{
		Columns: columns,
		Rows: [][]string{
			{"a", "Fam", "Lang A", "10.0", "20.0", "1", "0"},
			{"b", "Fam", "Lang B", "11.0", "21.0", "1", "-1"},
		},
	}

	res, err := toMapLayer(context.Background(), Input{Table: tbl, Params: map[string]any{}})
	if err != nil {
		t.Fatalf("toMapLayer: %v", err)
	}
	var fc geoCollection
	if err := json.Unmarshal(res.GeoJSON, &fc); err != nil {
		t.Fatalf("unmarshal GeoJSON: %v", err)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("features = %d, want 1 (noise excluded)", len(fc.Features))
	}
	f := fc.Features[0]
	if f.Geometry.Coordinates != [2]float64{20.0, 10.0} {
		t.Errorf("coordinates = %v, want [lon, lat]", f.Geometry.Coordinates)
	}
	if f.Properties["Latitude"] != nil || f.Properties["Longitude"] != nil {
		t.Error("coordinates must not be duplicated into properties")
	}

	// Explicit include_noise param overrides the default.
	res, err = toMapLayer(context.Background(), Input{Table: tbl, Params: map[string]any{"include_noise": true}})
	if err != nil {
		t.Fatalf("toMapLayer: %v", err)
	}
	if err := json.Unmarshal(res.GeoJSON, &fc); err != nil {
		t.Fatalf("unmarshal GeoJSON: %v", err)
	}
	if len(fc.Features) != 2 {
		t.Errorf("features = %d, want 2 (noise included)", len(fc.Features))
	}
}

func TestToMapLayerSkipsBadCoordinates(t *testing.T) {
	tbl := coreTable(t,
		"abcd1234,Fam,Lang A,water,aqua,nope,20.0,src",
		"efgh5678,Fam,Lang B,water,wasser,11.0,21.0,src",
	)
	res, err := toMapLayer(context.Background(), Input{Table: tbl, Params: map[string]any{}})
	if err != nil {
		t.Fatalf("toMapLayer: %v", err)
	}
	if got := res.Summary["point_count"]; got != 1 {
		t.Errorf("point_count = %v, want 1", got)
	}
	if got := res.Summary["skipped"]; got != 1 {
		t.Errorf("skipped = %v, want 1", got)
	}
}

func TestExportCSV(t *testing.T) {
	tbl := coreTable(t, "abcd1234,Fam,Lang A,water,aqua,10.0,20.0,src")
	res, err := exportCSV(context.Background(), Input{Table: tbl, Kind: schema.KindRaw, Params: map[string]any{}})
	if err != nil {
		t.Fatalf("exportCSV: %v", err)
	}
	if !strings.HasPrefix(res.CSV, "Glottocode,") {
		t.Errorf("CSV payload missing header: %q", res.CSV[:20])
	}
	if !strings.Contains(res.Filename, "raw") || !strings.HasSuffix(res.Filename, ".csv") {
		t.Errorf("filename = %q", res.Filename)
	}
}
