package mcp

import "github.com/mark3labs/mcp-go/mcp"

// proposeWordlistTool defines the propose_wordlist MCP tool.
var proposeWordlistTool = mcp.NewTool("propose_wordlist",
	mcp.WithDescription("Propose a list of concepts (a wordlist) for a linguistic survey topic. The wordlist is kept in the session for later collection."),
	mcp.WithString("topic",
		mcp.Required(),
		mcp.Description("Survey topic, e.g. 'basic vocabulary' or 'kinship terms'"),
	),
	mcp.WithNumber("num_words",
		mcp.Description("How many concepts to propose (default 30)"),
	),
	mcp.WithString("region",
		mcp.Description("Geographic region to tailor the list to"),
	),
	mcp.WithString("domain",
		mcp.Description("Semantic domain to focus on"),
	),
)

// refineWordlistTool defines the refine_wordlist MCP tool.
var refineWordlistTool = mcp.NewTool("refine_wordlist",
	mcp.WithDescription("Refine the session wordlist per feedback, e.g. add, remove or replace concepts."),
	mcp.WithString("feedback",
		mcp.Required(),
		mcp.Description("How to change the wordlist"),
	),
)

// collectRowsTool defines the collect_multilingual_rows MCP tool.
var collectRowsTool = mcp.NewTool("collect_multilingual_rows",
	mcp.WithDescription("Collect multilingual word forms for the session wordlist across languages, producing a raw CSV table in the session."),
	mcp.WithObject("scope",
		mcp.Description("Collection scope: language_families and regions (string arrays), max_languages (number)"),
	),
)

// readCSVTool defines the read_csv MCP tool.
var readCSVTool = mcp.NewTool("read_csv",
	mcp.WithDescription("Inspect a CSV: column names, row count and a preview of the first rows."),
	mcp.WithString("csv_data",
		mcp.Description("CSV text to read; falls back to the session's raw table"),
	),
)

// validateSchemaTool defines the validate_schema MCP tool.
var validateSchemaTool = mcp.NewTool("validate_schema",
	mcp.WithDescription("Check a table against an artifact contract and report every violation."),
	mcp.WithString("csv_data",
		mcp.Description("CSV text to validate; falls back to the session's raw table"),
	),
	mcp.WithString("kind",
		mcp.Description("Contract to validate against"),
		mcp.Enum("raw", "normalized", "matrix", "clustered"),
	),
)

// normalizeTool defines the normalize MCP tool.
var normalizeTool = mcp.NewTool("normalize",
	mcp.WithDescription("Normalize a raw table to the core schema: align columns, trim cells, clean coordinates and drop unusable rows."),
	mcp.WithString("csv_data",
		mcp.Description("CSV text to normalize; falls back to the session's raw table"),
	),
)

// toBinaryMatrixTool defines the to_binary_matrix MCP tool.
var toBinaryMatrixTool = mcp.NewTool("to_binary_matrix",
	mcp.WithDescription("Pivot normalized rows into a per-language binary availability matrix, one column per concept."),
	mcp.WithString("csv_data",
		mcp.Description("Normalized CSV text; falls back to the session's normalized table"),
	),
)

// clusterTool defines the cluster MCP tool.
var clusterTool = mcp.NewTool("cluster",
	mcp.WithDescription("Run density clustering over the availability matrix and append a cluster_id column (-1 marks noise)."),
	mcp.WithNumber("min_cluster_size",
		mcp.Description("Smallest group kept as a cluster"),
	),
	mcp.WithNumber("min_samples",
		mcp.Description("Neighborhood size for a core point"),
	),
	mcp.WithString("metric",
		mcp.Description("Distance metric over concept profiles"),
		mcp.Enum("jaccard", "hamming"),
	),
)

// toMapLayerTool defines the to_map_layer MCP tool.
var toMapLayerTool = mcp.NewTool("to_map_layer",
	mcp.WithDescription("Build a GeoJSON FeatureCollection of language points from the best available table."),
	mcp.WithBoolean("include_noise",
		mcp.Description("Keep rows clustered as noise (default false)"),
	),
)

// exportCSVTool defines the export_csv MCP tool.
var exportCSVTool = mcp.NewTool("export_csv",
	mcp.WithDescription("Export a session artifact as CSV text."),
	mcp.WithString("kind",
		mcp.Description("Artifact to export (default: most processed available)"),
		mcp.Enum("raw", "normalized", "matrix", "clustered"),
	),
	mcp.WithString("filename",
		mcp.Description("Suggested download filename"),
	),
)
