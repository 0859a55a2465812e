package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/anhp95/lang/internal/llm"
)

var jsonArrayRe = regexp.MustCompile(`(?s)\[.*?\]`)

// extractJSONArray pulls the first JSON string array out of free-form
// completion text. Returns nil when none parses.
func extractJSONArray(text string) []string {
	match := jsonArrayRe.FindString(text)
	if match == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(match), &out); err != nil {
		return nil
	}
	return out
}

func completeText(ctx context.Context, provider llm.Provider, prompt string) (string, error) {
	resp, err := provider.Complete(ctx, llm.CompletionRequest{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func proposeWordlist(ctx context.Context, in Input) (*Result, error) {
	topic := paramString(in.Params, "topic")
	if topic == "" {
		return &Result{Tool: "propose_wordlist", Failure: "no topic given for the wordlist"}, nil
	}

	constraints := paramMap(in.Params, "constraints")
	maxTerms := paramInt(constraints, "max_terms")
	if maxTerms == 0 {
		// The model sometimes flattens constraints to the top level.
		maxTerms = paramInt(in.Params, "max_terms")
	}
	if maxTerms == 0 {
		maxTerms = paramInt(in.Params, "num_words")
	}
	if maxTerms == 0 {
		maxTerms = 30
	}
	region := paramString(constraints, "region")
	if region == "" {
		region = paramString(in.Params, "region")
	}
	domain := paramString(constraints, "domain")
	if domain == "" {
		domain = paramString(in.Params, "domain")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Generate a wordlist of %d concepts for the semantic field: %q\n\n", maxTerms, topic)
	b.WriteString("Requirements:\n")
	b.WriteString("- Concepts should be culturally universal and semantically basic\n")
	b.WriteString("- Focus on terms likely to be well-documented across languages\n")
	b.WriteString("- Each concept should be distinct and clearly defined\n")
	b.WriteString("- Suitable for cross-linguistic comparison\n")
	if region != "" {
		fmt.Fprintf(&b, "\nGeographic focus: %s", region)
	}
	if domain != "" {
		fmt.Fprintf(&b, "\nDomain focus: %s", domain)
	}
	b.WriteString("\n\nReturn ONLY a JSON array of strings, nothing else:\n[\"concept1\", \"concept2\", ...]")

	response, err := completeText(ctx, in.Provider, b.String())
	if err != nil {
		return nil, err
	}

	wordlist := extractJSONArray(response)
	if wordlist == nil {
		return &Result{Tool: "propose_wordlist", Failure: "no JSON list found in the model response"}, nil
	}

	return &Result{
		Tool:     "propose_wordlist",
		Wordlist: wordlist,
		Summary:  map[string]any{"concepts": len(wordlist)},
		Notes:    fmt.Sprintf("Generated %d concepts for %s", len(wordlist), topic),
	}, nil
}

func refineWordlist(ctx context.Context, in Input) (*Result, error) {
	wordlist := paramStringSlice(in.Params, "wordlist")
	if len(wordlist) == 0 {
		wordlist = in.Wordlist
	}
	if len(wordlist) == 0 {
		return &Result{Tool: "refine_wordlist", Failure: "no wordlist available to refine"}, nil
	}
	feedback := paramString(in.Params, "feedback")

	current, err := json.Marshal(wordlist)
	if err != nil {
		return nil, fmt.Errorf("encoding wordlist: %w", err)
	}
	prompt := fmt.Sprintf("Current wordlist: %s\n\nUser feedback: %s\n\nModify the wordlist according to the feedback. Return ONLY a JSON array:\n[\"concept1\", \"concept2\", ...]",
		current, feedback)

	response, err := completeText(ctx, in.Provider, prompt)
	if err != nil {
		return nil, err
	}

	refined := extractJSONArray(response)
	if refined == nil {
		// Keep the original list rather than failing the turn.
		refined = wordlist
	}

	return &Result{
		Tool:     "refine_wordlist",
		Wordlist: refined,
		Summary:  map[string]any{"concepts": len(refined)},
		Notes:    fmt.Sprintf("Wordlist now has %d concepts", len(refined)),
	}, nil
}
