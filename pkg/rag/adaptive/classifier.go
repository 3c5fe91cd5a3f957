package adaptive

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ai-debate-be/pkg/llm"
	"ai-debate-be/pkg/rag"
)

// verdict partitions snippet positions by their relation to the claim. The
// model output is untrusted: positions outside [0, len(sources)) and
// duplicates are dropped before anything reads them, and any shape deviation
// surfaces as a parse error rather than a crash.
type verdict struct {
	Support    []int `json:"support"`
	Contradict []int `json:"contradict"`
	Unclear    []int `json:"unclear"`
}

func (e *Engine) classify(ctx context.Context, claim string, sources []rag.Hit) (*verdict, error) {
	prompt := buildClassifierPrompt(claim, sources)

	// Temperature 0 for deterministic partitioning
	response, err := e.provider.Generate(ctx, prompt, llm.WithTemperature(0.0))
	if err != nil {
		return nil, fmt.Errorf("classifier call: %w", err)
	}

	return parseVerdict(response, len(sources))
}

func buildClassifierPrompt(claim string, sources []rag.Hit) string {
	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You judge whether reference snippets support or contradict a debater's claim.\n")
	prompt.WriteString("You do NOT argue the claim. You only partition the snippets.\n")
	prompt.WriteString("</system>\n\n")

	prompt.WriteString("<claim>\n")
	prompt.WriteString(claim)
	prompt.WriteString("\n</claim>\n\n")

	prompt.WriteString("<snippets>\n")
	for i, s := range sources {
		fmt.Fprintf(&prompt, "%d. [%s #%d] %s\n", i, s.Title, s.ChunkIndex, truncate(s.Snippet, snippetKeyMaxChars))
	}
	prompt.WriteString("</snippets>\n\n")

	prompt.WriteString("<rules>\n")
	prompt.WriteString("support: the snippet provides evidence FOR the claim\n")
	prompt.WriteString("contradict: the snippet provides evidence AGAINST the claim\n")
	prompt.WriteString("unclear: the snippet is off-topic or its relation cannot be determined\n")
	prompt.WriteString("Every snippet number must appear in exactly one list.\n")
	prompt.WriteString("</rules>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON:\n")
	prompt.WriteString("{\"support\": [0], \"contradict\": [], \"unclear\": [1]}\n")
	prompt.WriteString("</output_format>")

	return prompt.String()
}

func parseVerdict(response string, n int) (*verdict, error) {
	payload := extractJSON(response)
	if payload == "" {
		return nil, fmt.Errorf("no JSON object in classifier response")
	}

	var v verdict
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return nil, fmt.Errorf("classifier JSON unmarshal: %w", err)
	}

	v.Support = boundedIndices(v.Support, n)
	v.Contradict = boundedIndices(v.Contradict, n)
	v.Unclear = boundedIndices(v.Unclear, n)
	return &v, nil
}

// boundedIndices keeps only in-range, first-seen positions.
func boundedIndices(idxs []int, n int) []int {
	seen := make(map[int]bool, len(idxs))
	out := make([]int, 0, len(idxs))
	for _, i := range idxs {
		if i < 0 || i >= n || seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, i)
	}
	return out
}

func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}
