package orchestrator

import (
	"fmt"
	"strings"

	"github.com/anhp95/lang/internal/tools"
)

// formatResult renders a successful tool result as user-facing text.
// Deterministic per tool and never embeds the tabular payload: large data
// travels through the artifact and export paths only.
func formatResult(res *tools.Result) string {
	switch res.Tool {
	case "propose_wordlist", "refine_wordlist":
		items := res.Wordlist
		shown := items
		suffix := ""
		if len(items) > 10 {
			shown = items[:10]
			suffix = fmt.Sprintf("... (%d total)", len(items))
		}
		return fmt.Sprintf("Wordlist ready (%d concepts): %s%s",
			len(items), strings.Join(shown, ", "), suffix)

	case "collect_multilingual_rows":
		return fmt.Sprintf("Collected %v rows of multilingual data for %v concepts. Run normalize before building a matrix, clustering or mapping.",
			res.Summary["rows"], res.Summary["concepts"])

	case "read_csv":
		cols, _ := res.Summary["columns"].([]string)
		return fmt.Sprintf("Parsed %v rows with %d columns: %s",
			res.Summary["row_count"], len(cols), strings.Join(cols, ", "))

	case "validate_schema":
		if ok, _ := res.Summary["ok"].(bool); ok {
			return fmt.Sprintf("Validation passed: %v rows satisfy the %v contract.",
				res.Summary["row_count"], res.Summary["kind"])
		}
		errs, _ := res.Summary["errors"].([]string)
		shown := errs
		if len(shown) > 5 {
			shown = shown[:5]
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Validation failed (%d errors):\n", len(errs))
		for _, e := range shown {
			fmt.Fprintf(&b, "- %s\n", e)
		}
		if len(errs) > len(shown) {
			fmt.Fprintf(&b, "... and %d more", len(errs)-len(shown))
		}
		return strings.TrimSpace(b.String())

	case "normalize":
		return fmt.Sprintf("Normalized %v rows (%v dropped). Data is ready for analysis.",
			res.Summary["rows"], res.Summary["dropped"])

	case "to_binary_matrix":
		return fmt.Sprintf("Binary matrix created: %v languages, %v concepts, %v%% average coverage.",
			res.Summary["languages"], res.Summary["concepts"], res.Summary["avg_coverage"])

	case "cluster":
		// Noise is reported separately; it is never a real cluster.
		return fmt.Sprintf("Clustering complete: %v clusters covering %v languages, %v noise points left unassigned.",
			res.Summary["total_clusters"], res.Summary["clustered_languages"], res.Summary["noise_points"])

	case "to_map_layer":
		return fmt.Sprintf("Map layer created with %v points. Check the map view.",
			res.Summary["point_count"])

	case "export_csv":
		return fmt.Sprintf("CSV ready for download: %s (%v rows).",
			res.Filename, res.Summary["row_count"])
	}

	if res.Notes != "" {
		return res.Notes
	}
	return fmt.Sprintf("%s finished.", res.Tool)
}

// formatFailure renders a FAILED turn. Every failure carries the failing
// stage's specific message, never a generic one.
func formatFailure(stage Stage, tool string, err error) string {
	switch stage {
	case StageEnriching:
		return fmt.Sprintf("%v. Upload a CSV, collect data, or run the producing tool first.", err)
	case StageValidating:
		return fmt.Sprintf("The data for %s did not pass validation:\n%v", tool, err)
	case StageExecuting:
		return fmt.Sprintf("%s failed: %v", tool, err)
	case StageContextUpdate:
		return fmt.Sprintf("%s produced data that does not satisfy its contract:\n%v", tool, err)
	case StageAwaitingIntent:
		return fmt.Sprintf("The language model could not be reached: %v. Please try again.", err)
	}
	return fmt.Sprintf("%s failed: %v", tool, err)
}
