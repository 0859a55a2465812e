package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "lang",
	Short: "Conversational pipeline for multilingual survey data",
	Long: `Lang drives a linguistic data pipeline through conversation: propose a
wordlist, collect word forms across languages, validate and normalize
the data, pivot it into an availability matrix, cluster languages by
coverage, and export maps and CSVs. It also exposes the pipeline tools
to AI agents via MCP.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".lang.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
