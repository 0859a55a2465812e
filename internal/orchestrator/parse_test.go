package orchestrator

import (
	"strings"
	"testing"
)

func TestExtractDirectiveFenced(t *testing.T) {
	text := "Let me build that matrix.\n```json\n{\"server\": \"availability_matrix\", \"tool\": \"to_binary_matrix\", \"params\": {}}\n```"
	d, ok := extractDirective(text)
	if !ok {
		t.Fatal("expected a directive")
	}
	if d.Server != "availability_matrix" || d.Tool != "to_binary_matrix" {
		t.Errorf("directive = %+v", d)
	}
	if d.Params == nil {
		t.Error("params must default to an empty map")
	}
}

func TestExtractDirectiveInlineNestedParams(t *testing.T) {
	text := `Sure: {"server": "wordlist_discovery", "tool": "propose_wordlist", "params": {"topic": "boats", "constraints": {"max_terms": 15}}} coming up.`
	d, ok := extractDirective(text)
	if !ok {
		t.Fatal("expected a directive")
	}
	if d.Tool != "propose_wordlist" {
		t.Errorf("tool = %q", d.Tool)
	}
	constraints, ok := d.Params["constraints"].(map[string]any)
	if !ok || constraints["max_terms"] != float64(15) {
		t.Errorf("nested params lost: %v", d.Params)
	}
}

func TestExtractDirectivePlainReply(t *testing.T) {
	for _, text := range []string{
		"Just chatting, no tools needed here.",
		"Here is some JSON that is not a directive: {\"foo\": 1}",
		"```json\n{\"tool\": \"cluster\"}\n```", // missing server
	} {
		if _, ok := extractDirective(text); ok {
			t.Errorf("unexpected directive in %q", text)
		}
	}
}

func TestCleanReplyStripsDirective(t *testing.T) {
	text := "I'll cluster now.\n```json\n{\"server\": \"clustering_density\", \"tool\": \"cluster\", \"params\": {}}\n```\nOne moment."
	cleaned := cleanReply(text)
	if strings.Contains(cleaned, "server") || strings.Contains(cleaned, "```") {
		t.Errorf("directive survived cleanup: %q", cleaned)
	}
	if !strings.Contains(cleaned, "I'll cluster now.") || !strings.Contains(cleaned, "One moment.") {
		t.Errorf("surrounding text lost: %q", cleaned)
	}
}

func TestCleanReplyInline(t *testing.T) {
	text := `On it. {"server": "map_layer_builder", "tool": "to_map_layer", "params": {}}`
	cleaned := cleanReply(text)
	if strings.Contains(cleaned, "server") {
		t.Errorf("inline directive survived: %q", cleaned)
	}
	if cleaned != "On it." {
		t.Errorf("cleaned = %q", cleaned)
	}
}

func TestDefaultReply(t *testing.T) {
	if got := defaultReply("cluster"); !strings.Contains(got, "clustering") {
		t.Errorf("defaultReply(cluster) = %q", got)
	}
	if got := defaultReply("mystery_tool"); !strings.Contains(got, "mystery_tool") {
		t.Errorf("defaultReply fallback = %q", got)
	}
}
