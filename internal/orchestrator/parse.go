package orchestrator

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Directive is a structured tool-call request parsed from completion text.
type Directive struct {
	Server string         `json:"server"`
	Tool   string         `json:"tool"`
	Params map[string]any `json:"params"`
}

var (
	fencedJSONRe   = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	emptyFenceRe   = regexp.MustCompile("(?s)```\\s*```")
	manyNewlinesRe = regexp.MustCompile(`\n{3,}`)
)

// extractDirective looks for a tool-call directive in completion text,
// fenced or inline. Absence of a directive is the "plain reply" variant,
// not an error.
func extractDirective(text string) (*Directive, bool) {
	if m := fencedJSONRe.FindStringSubmatch(text); m != nil {
		if d := decodeDirective(m[1]); d != nil {
			return d, true
		}
	}
	if raw, ok := inlineDirectiveJSON(text); ok {
		if d := decodeDirective(raw); d != nil {
			return d, true
		}
	}
	return nil, false
}

func decodeDirective(raw string) *Directive {
	var d Directive
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil
	}
	if d.Server == "" || d.Tool == "" {
		return nil
	}
	if d.Params == nil {
		d.Params = map[string]any{}
	}
	return &d
}

// inlineDirectiveJSON finds a bare {"server": ...} object and returns the
// balanced-brace slice, so nested params objects survive.
func inlineDirectiveJSON(text string) (string, bool) {
	start := strings.Index(text, `{"server"`)
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1], true
				}
			}
		}
	}
	return "", false
}

// cleanReply strips tool-call JSON from completion text so the user never
// sees the directive machinery.
func cleanReply(text string) string {
	cleaned := fencedJSONRe.ReplaceAllString(text, "")
	if raw, ok := inlineDirectiveJSON(cleaned); ok {
		cleaned = strings.Replace(cleaned, raw, "", 1)
	}
	cleaned = emptyFenceRe.ReplaceAllString(cleaned, "")
	cleaned = manyNewlinesRe.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}

// defaultReply fills in for an empty cleaned reply when a tool ran.
func defaultReply(tool string) string {
	descriptions := map[string]string{
		"propose_wordlist":          "generating your wordlist",
		"refine_wordlist":           "refining the wordlist",
		"collect_multilingual_rows": "collecting multilingual data",
		"read_csv":                  "parsing the CSV file",
		"validate_schema":           "validating the data schema",
		"normalize":                 "normalizing the CSV data",
		"to_binary_matrix":          "creating the binary matrix",
		"cluster":                   "clustering the languages",
		"to_map_layer":              "creating the map layer",
		"export_csv":                "preparing your download",
	}
	if d, ok := descriptions[tool]; ok {
		return "I'm " + d + "."
	}
	return "I'm running " + tool + "."
}
