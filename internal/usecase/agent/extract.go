package agent

import (
	"regexp"
	"strings"
)

var (
	// Matches a ```json (or bare ```) fenced block. The inner match is
	// greedy to the last closing fence so captions containing example
	// fences still extract as one block.
	jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*([\\s\\S]*)```")

	// Matches the outermost JSON object in free text. Vision models often
	// wrap the requested JSON in prose; grabbing the first { to the last }
	// recovers it.
	jsonObjectRegex = regexp.MustCompile(`\{[\s\S]*\}`)
)

// ExtractJSON pulls the JSON payload out of a model response. It first
// strips a markdown code fence if present, then falls back to the outermost
// brace-delimited object, then to the trimmed text itself. The caller is
// responsible for unmarshalling and treating failures as a malformed
// response.
func ExtractJSON(text string) string {
	if matches := jsonBlockRegex.FindStringSubmatch(text); len(matches) > 1 {
		text = matches[1]
	}
	if match := jsonObjectRegex.FindString(text); match != "" {
		return strings.TrimSpace(match)
	}
	return strings.TrimSpace(text)
}
