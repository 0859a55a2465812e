package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/anhp95/lang/internal/schema"
	"github.com/anhp95/lang/internal/table"
)

const harvestRules = `### Linguistic Search & Coverage Rules

For each target concept in the wordlist, identify corresponding lexical forms
expressing the same concept in as many languages as possible.

1. Lexical Form Discovery
   - Search for attested lexical forms: cognates, inherited forms, loanwords,
     calques and closely related lexical items.
   - Include culturally specific variants that encode the same concept.

2. Priority Scope
   - Prioritize language families and regions where the concept is historically
     attested, culturally significant and well documented.

3. Global Expansion
   - After priority regions, expand to all languages with reliable
     documentation for maximal cross-linguistic coverage.

4. Per-Row Information Requirement
   - For every (Language, Concept, Lexical Form) provide: Glottocode,
     Language Family, standardized Language Name, Concept, Form, Latitude,
     Longitude and Source.
   - Coordinates MUST be real mappable locations: Glottolog language-level
     coordinates, or a standardized country-level reference point as fallback.
     Latitude in [-90, 90], Longitude in [-180, 180], numeric only. Never use
     random, placeholder or guessed values.
   - Do not output a row without a Source. Never invent linguistic data.

5. Output Format (STRICT CSV)
   - Output only CSV, UTF-8, with columns in this exact order:
     Glottocode,Language Family,Language Name,Concept,Form,Latitude,Longitude,Source
   - Quote any field containing commas, quotes or newlines; escape internal
     double quotes as "".
   - Start with the header row, then data rows. No explanations, no markdown.`

func collectMultilingualRows(ctx context.Context, in Input) (*Result, error) {
	wordlist := paramStringSlice(in.Params, "wordlist")
	if len(wordlist) == 0 {
		wordlist = in.Wordlist
	}
	if len(wordlist) == 0 {
		return &Result{Tool: "collect_multilingual_rows", Failure: "no wordlist available; create one with propose_wordlist first"}, nil
	}

	scope := paramMap(in.Params, "scope")
	if scope == nil {
		// Scope parameters sometimes arrive flattened.
		scope = in.Params
	}
	var scopeText strings.Builder
	if families := paramStringSlice(scope, "language_families"); len(families) > 0 {
		fmt.Fprintf(&scopeText, "\nFocus on language families: %s", strings.Join(families, ", "))
	}
	if regions := paramStringSlice(scope, "regions"); len(regions) > 0 {
		fmt.Fprintf(&scopeText, "\nFocus on regions: %s", strings.Join(regions, ", "))
	}
	if maxLangs := paramInt(scope, "max_languages"); maxLangs > 0 {
		fmt.Fprintf(&scopeText, "\nLimit to approximately %d languages", maxLangs)
	}

	prompt := fmt.Sprintf("Task: Collect multilingual linguistic data for the following concepts:\n%s\n%s\n\n%s",
		strings.Join(wordlist, ", "), scopeText.String(), harvestRules)

	response, err := completeText(ctx, in.Provider, prompt)
	if err != nil {
		return nil, err
	}

	t, err := table.ParseCSV(stripCodeFences(response))
	if err != nil {
		return &Result{Tool: "collect_multilingual_rows", Failure: fmt.Sprintf("harvest output is not parseable CSV: %v", err)}, nil
	}

	return &Result{
		Tool:       "collect_multilingual_rows",
		Table:      t,
		OutputKind: schema.KindRaw,
		Provenance: "harvest",
		Summary: map[string]any{
			"rows":     t.RowCount(),
			"concepts": len(wordlist),
		},
		Notes: fmt.Sprintf("Collected %d rows for %d concepts", t.RowCount(), len(wordlist)),
	}, nil
}

// stripCodeFences removes markdown fences the model sometimes wraps CSV in.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```csv")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
