// Package tools defines the fixed tool set of the pipeline and the pure
// handlers behind it. Handlers never touch session state: they take an
// enriched input and return a Result, and the orchestrator alone decides
// what gets written back.
package tools

import (
	"context"
	"encoding/json"

	"github.com/anhp95/lang/internal/cluster"
	"github.com/anhp95/lang/internal/llm"
	"github.com/anhp95/lang/internal/schema"
	"github.com/anhp95/lang/internal/table"
)

// Input carries everything a handler may need. Table and Wordlist are
// filled by the enricher; Provider is set only for tools that declare
// NeedsLLM; the remaining fields are configuration-fed defaults.
type Input struct {
	Table    *table.Table
	Kind     schema.Kind
	Params   map[string]any
	Wordlist []string
	Provider llm.Provider

	ClusterDefaults cluster.Params
	IncludeNoise    bool
}

// Result is what a handler hands back. A non-empty Failure means the tool
// ran but logically failed; no artifact is written in that case. Table is
// set only for tools that produce an artifact.
type Result struct {
	Tool       string
	Table      *table.Table
	OutputKind schema.Kind
	Provenance string

	Wordlist []string
	GeoJSON  json.RawMessage
	CSV      string
	Filename string

	Summary map[string]any
	Notes   string
	Failure string
}

// Handler is a pure tool implementation.
type Handler func(ctx context.Context, in Input) (*Result, error)

// Tool describes one registry entry. InputKinds is the enrichment priority
// order; ExpectedKind is the contract the validator gates the resolved
// input against before the handler runs.
type Tool struct {
	Name         string
	Server       string
	Description  string
	InputKinds   []schema.Kind
	ExpectedKind schema.Kind
	OutputKind   schema.Kind
	NeedsLLM     bool
	Handler      Handler
}

// Registry maps tool names to their entries. Built once at startup; static
// thereafter.
type Registry struct {
	tools map[string]*Tool
	order []string
}

// NewRegistry builds the full fixed tool set.
func NewRegistry() *Registry {
	r := &Registry{tools: make(map[string]*Tool)}

	r.register(&Tool{
		Name:        "propose_wordlist",
		Server:      "wordlist_discovery",
		Description: "Generate a wordlist of concepts for a topic",
		NeedsLLM:    true,
		Handler:     proposeWordlist,
	})
	r.register(&Tool{
		Name:        "refine_wordlist",
		Server:      "wordlist_discovery",
		Description: "Modify an existing wordlist based on feedback",
		NeedsLLM:    true,
		Handler:     refineWordlist,
	})
	r.register(&Tool{
		Name:        "collect_multilingual_rows",
		Server:      "linguistic_web_harvester",
		Description: "Collect multilingual lexical data for a wordlist",
		OutputKind:  schema.KindRaw,
		NeedsLLM:    true,
		Handler:     collectMultilingualRows,
	})
	r.register(&Tool{
		Name:         "read_csv",
		Server:       "csv_ingest_and_validate",
		Description:  "Parse CSV data and report its structure",
		InputKinds:   []schema.Kind{schema.KindRaw},
		ExpectedKind: schema.KindRaw,
		Handler:      readCSV,
	})
	r.register(&Tool{
		Name:         "validate_schema",
		Server:       "csv_ingest_and_validate",
		Description:  "Check data against the core column contract",
		InputKinds:   []schema.Kind{schema.KindRaw},
		ExpectedKind: schema.KindRaw,
		Handler:      validateSchema,
	})
	r.register(&Tool{
		Name:         "normalize",
		Server:       "csv_ingest_and_validate",
		Description:  "Repair row lengths, whitespace and coordinates",
		InputKinds:   []schema.Kind{schema.KindRaw},
		ExpectedKind: schema.KindRaw,
		OutputKind:   schema.KindNormalized,
		Handler:      normalize,
	})
	r.register(&Tool{
		Name:         "to_binary_matrix",
		Server:       "availability_matrix",
		Description:  "Pivot rows into a binary availability matrix",
		InputKinds:   []schema.Kind{schema.KindNormalized, schema.KindRaw},
		ExpectedKind: schema.KindNormalized,
		OutputKind:   schema.KindMatrix,
		Handler:      toBinaryMatrix,
	})
	r.register(&Tool{
		Name:         "cluster",
		Server:       "clustering_density",
		Description:  "Cluster languages by availability profile",
		InputKinds:   []schema.Kind{schema.KindMatrix},
		ExpectedKind: schema.KindMatrix,
		OutputKind:   schema.KindClustered,
		Handler:      clusterTool,
	})
	r.register(&Tool{
		Name:         "to_map_layer",
		Server:       "map_layer_builder",
		Description:  "Build a GeoJSON point layer from the best data",
		InputKinds:   []schema.Kind{schema.KindClustered, schema.KindMatrix, schema.KindNormalized, schema.KindRaw},
		ExpectedKind: schema.KindRaw,
		Handler:      toMapLayer,
	})
	r.register(&Tool{
		Name:         "export_csv",
		Server:       "data_export",
		Description:  "Export an artifact as a downloadable CSV",
		InputKinds:   []schema.Kind{schema.KindClustered, schema.KindMatrix, schema.KindNormalized, schema.KindRaw},
		ExpectedKind: schema.KindRaw,
		Handler:      exportCSV,
	})

	return r
}

func (r *Registry) register(t *Tool) {
	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
}

// Get returns the named tool.
func (r *Registry) Get(name string) (*Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// All returns tools in registration order.
func (r *Registry) All() []*Tool {
	out := make([]*Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Param helpers. Directive params arrive as decoded JSON, so numbers are
// float64 and nested objects are map[string]any.

func paramString(params map[string]any, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

func paramInt(params map[string]any, key string) int {
	switch v := params[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func paramBool(params map[string]any, key string) (bool, bool) {
	v, ok := params[key].(bool)
	return v, ok
}

func paramStringSlice(params map[string]any, key string) []string {
	raw, ok := params[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func paramMap(params map[string]any, key string) map[string]any {
	if v, ok := params[key].(map[string]any); ok {
		return v
	}
	return nil
}
