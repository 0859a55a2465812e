package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/anhp95/lang/internal/mcp"
	"github.com/anhp95/lang/internal/orchestrator"
	"github.com/anhp95/lang/internal/session"
	"github.com/anhp95/lang/internal/tools"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing the pipeline tools for AI agents like Claude Code.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		provider, err := createProviderFromConfig(cfg)
		if err != nil {
			return err
		}

		// MCP runs one local conversation; no transcript store is needed.
		sessions := session.NewManager(0)
		defer sessions.Stop()

		orch := orchestrator.New(sessions, tools.NewRegistry(), provider, nil, orchestratorOptions(cfg))

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "lang MCP server started on stdio (provider=%s, model=%s)\n", cfg.Provider, cfg.Model)

		srv := mcpserver.NewServer(orch)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
