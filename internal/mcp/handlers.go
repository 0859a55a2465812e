package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/anhp95/lang/internal/tools"
)

// handle builds the handler for one pipeline tool. Every tool call runs
// the same enrich, validate, execute and context-update path as a chat
// turn, against the shared local conversation.
func (s *Server) handle(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := s.orch.RunDirect(ctx, localConversation, name, request.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(resultText(res)), nil
	}
}

// resultText renders a tool result for MCP clients. Export and map tools
// return their payload; everything else reports the summary.
func resultText(res *tools.Result) string {
	if res.CSV != "" {
		return res.CSV
	}
	if len(res.GeoJSON) > 0 {
		return string(res.GeoJSON)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: ok\n", res.Tool)

	if len(res.Wordlist) > 0 {
		fmt.Fprintf(&sb, "wordlist (%d): %s\n", len(res.Wordlist), strings.Join(res.Wordlist, ", "))
	}

	keys := make([]string, 0, len(res.Summary))
	for k := range res.Summary {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s: %v\n", k, res.Summary[k])
	}

	if res.Notes != "" {
		fmt.Fprintf(&sb, "note: %s\n", res.Notes)
	}

	return sb.String()
}
