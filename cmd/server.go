package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/anhp95/lang/internal/history"
	"github.com/anhp95/lang/internal/orchestrator"
	"github.com/anhp95/lang/internal/server"
	"github.com/anhp95/lang/internal/session"
	"github.com/anhp95/lang/internal/tools"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the conversational pipeline HTTP server",
	Long:  `Starts the HTTP server with the chat endpoint, CSV upload, artifact export, the GeoJSON map layer, and a websocket chat variant that streams turn progress.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serverPort > 0 {
			cfg.Port = serverPort
		}

		provider, err := createProviderFromConfig(cfg)
		if err != nil {
			return err
		}

		// Open conversation history.
		dbPath := filepath.Join(cfg.DataDir, "history.db")
		store, err := history.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening history store: %w", err)
		}
		defer store.Close()

		sessions := session.NewManager(sessionTTL(cfg))
		defer sessions.Stop()

		orch := orchestrator.New(sessions, tools.NewRegistry(), provider, store, orchestratorOptions(cfg))

		srv := server.New(server.Config{
			Port:     cfg.Port,
			AllowAll: cfg.AllowAllOrigins,
		}, orch)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "lang server v%s starting on port %d\n", Version, cfg.Port)
		fmt.Fprintf(os.Stderr, "  Provider: %s (%s)\n", cfg.Provider, cfg.Model)
		fmt.Fprintf(os.Stderr, "  History:  %s\n", dbPath)

		return srv.Start()
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serverCmd)
}
