// Package mcp exposes the pipeline tools over the Model Context Protocol
// on stdio, so MCP clients can drive the same propose, harvest, validate,
// cluster and export operations a chat turn would. All tool calls share
// one local conversation context.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/anhp95/lang/internal/orchestrator"
)

// Version is set via ldflags at build time.
var Version = "dev"

// localConversation is the session all stdio tool calls share. MCP
// clients are single-user, so one context is enough.
const localConversation = "mcp-local"

// Server wraps an MCP server that exposes the linguistic pipeline tools.
type Server struct {
	orch *orchestrator.Orchestrator
	mcp  *server.MCPServer
}

// NewServer creates an MCP server backed by an orchestrator.
func NewServer(orch *orchestrator.Orchestrator) *Server {
	s := &Server{orch: orch}

	s.mcp = server.NewMCPServer(
		"lang",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(proposeWordlistTool, s.handle("propose_wordlist"))
	s.mcp.AddTool(refineWordlistTool, s.handle("refine_wordlist"))
	s.mcp.AddTool(collectRowsTool, s.handle("collect_multilingual_rows"))
	s.mcp.AddTool(readCSVTool, s.handle("read_csv"))
	s.mcp.AddTool(validateSchemaTool, s.handle("validate_schema"))
	s.mcp.AddTool(normalizeTool, s.handle("normalize"))
	s.mcp.AddTool(toBinaryMatrixTool, s.handle("to_binary_matrix"))
	s.mcp.AddTool(clusterTool, s.handle("cluster"))
	s.mcp.AddTool(toMapLayerTool, s.handle("to_map_layer"))
	s.mcp.AddTool(exportCSVTool, s.handle("export_csv"))
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
