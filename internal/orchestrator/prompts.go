package orchestrator

import (
	"fmt"
	"strings"

	"github.com/anhp95/lang/internal/session"
	"github.com/anhp95/lang/internal/tools"
)

// buildSystemPrompt assembles the per-turn system prompt: behavioural
// rules, a condensed view of the live artifacts, the tool catalogue and
// the strict directive format.
func buildSystemPrompt(registry *tools.Registry, snap session.Snapshot) string {
	var b strings.Builder

	b.WriteString(`You are a helpful research assistant for linguistic analysis. You can help with:
- Creating wordlists for cross-linguistic comparison
- Collecting multilingual data
- Building binary availability matrices
- Clustering languages by availability profile
- Mapping results

IMPORTANT BEHAVIORAL RULES:
1. Be conversational by default - chat normally unless a tool is needed
2. Only use tools when the user EXPLICITLY requests or clearly implies it
3. Never force a workflow - tools are optional and independent
4. When unsure, ask a brief clarifying question instead of assuming

Available Data:
`)

	var contextLines []string
	if snap.WordlistSize > 0 {
		contextLines = append(contextLines, fmt.Sprintf("- Wordlist available (%d concepts)", snap.WordlistSize))
	}
	for _, a := range snap.Artifacts {
		contextLines = append(contextLines, fmt.Sprintf("- %s data live (%d rows, %d columns, from %s)",
			a.Kind, a.Rows, a.Columns, a.Provenance))
	}
	if len(contextLines) == 0 {
		b.WriteString("No data loaded yet\n")
	} else {
		b.WriteString(strings.Join(contextLines, "\n"))
		b.WriteString("\n")
		if snap.LastProduced != "" {
			fmt.Fprintf(&b, "\nMOST RECENT: %s data\n", snap.LastProduced)
		}
	}

	b.WriteString("\nServer and Tool Mapping (MUST use the correct server for each tool):\n")
	currentServer := ""
	for _, t := range registry.All() {
		if t.Server != currentServer {
			currentServer = t.Server
			fmt.Fprintf(&b, "\nSERVER: %s\n", t.Server)
		}
		fmt.Fprintf(&b, "  - %s: %s\n", t.Name, t.Description)
	}

	b.WriteString(`
When NOT to use tools:
- User is just chatting or asking questions
- User has not explicitly requested an action
- You are unsure what the user wants (ask instead)

Tool Call Format:
When you decide to use a tool, include this JSON in your response:

` + "```json" + `
{"server": "wordlist_discovery", "tool": "propose_wordlist", "params": {"topic": "kinship"}}
` + "```" + `

Example with constraints:
` + "```json" + `
{"server": "wordlist_discovery", "tool": "propose_wordlist", "params": {"topic": "boats", "constraints": {"max_terms": 15, "region": "Oceania"}}}
` + "```" + `

Data-bound tools take no data params; prior results bind automatically:
` + "```json" + `
{"server": "availability_matrix", "tool": "to_binary_matrix", "params": {}}
` + "```" + `

AFTER DATA COLLECTION:
After collect_multilingual_rows, tell the user the data is ready for export,
recommend running normalize before matrix/cluster/map steps, and ask whether
to proceed. Do NOT automatically chain to the next step.

If the user uploads data without instructions, ask briefly what they want to
do with it: validate, build a matrix, cluster, or map.

Be helpful, brief, and respect the user's autonomy to choose what they want to do.`)

	return b.String()
}
