package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/anhp95/lang/internal/progress"
	"github.com/anhp95/lang/internal/schema"
	"github.com/anhp95/lang/internal/table"
	"github.com/anhp95/lang/internal/tools"
)

var (
	ingestKind      string
	ingestNormalize bool
	ingestOutDir    string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <glob>...",
	Short: "Validate CSV files offline, optionally normalizing them",
	Long: `Checks CSV files against an artifact contract without starting a server
or calling a model. With --normalize, files are rewritten to the core
schema (aligned columns, trimmed cells, cleaned coordinates) into the
output directory.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestKind, "kind", "normalized", "contract to validate against (raw, normalized, matrix, clustered)")
	ingestCmd.Flags().BoolVar(&ingestNormalize, "normalize", false, "rewrite files to the core schema")
	ingestCmd.Flags().StringVar(&ingestOutDir, "out", "normalized", "output directory for normalized files")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	kind, err := schema.ParseKind(ingestKind)
	if err != nil {
		return err
	}

	var files []string
	for _, pattern := range args {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return fmt.Errorf("bad glob %q: %w", pattern, err)
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return fmt.Errorf("no files match the given patterns")
	}

	registry := tools.NewRegistry()
	normalize, _ := registry.Get("normalize")

	if ingestNormalize {
		if err := os.MkdirAll(ingestOutDir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	reporter := progress.NewReporter()
	reporter.Start(len(files))

	passed, failed := 0, 0
	for i, path := range files {
		reporter.Update(i+1, filepath.Base(path))

		data, err := os.ReadFile(path)
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			continue
		}
		t, err := table.ParseCSV(string(data))
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: parsing CSV: %v\n", path, err)
			continue
		}

		if ingestNormalize {
			res, err := normalize.Handler(cmd.Context(), tools.Input{Table: t, Kind: schema.KindRaw})
			if err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "%s: normalizing: %v\n", path, err)
				continue
			}
			if res.Failure != "" {
				failed++
				fmt.Fprintf(os.Stderr, "%s: normalizing: %s\n", path, res.Failure)
				continue
			}
			outPath := filepath.Join(ingestOutDir, filepath.Base(path))
			if err := os.WriteFile(outPath, []byte(res.Table.EncodeCSV()), 0644); err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "%s: writing %s: %v\n", path, outPath, err)
				continue
			}
			if verbose {
				fmt.Fprintf(os.Stderr, "%s: %v rows -> %s\n", path, res.Summary["rows"], outPath)
			}
			passed++
			continue
		}

		result := schema.Validate(t, kind)
		if !result.OK {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %d error(s)\n", path, len(result.Errors))
			for _, e := range result.Errors {
				fmt.Fprintf(os.Stderr, "  - %s\n", e)
			}
			continue
		}
		passed++
		if verbose {
			fmt.Fprintf(os.Stderr, "%s: ok (%d rows)\n", path, result.RowCount)
		}
	}
	reporter.Finish()

	fmt.Printf("Checked %d file(s): %d passed, %d failed\n", len(files), passed, failed)
	if failed > 0 {
		return fmt.Errorf("%d file(s) failed", failed)
	}
	return nil
}
