package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	// jsonBlockPattern matches a JSON object inside a markdown code block.
	jsonBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\{.*?\\})\\s*```")
	// trailingCommaPattern matches trailing commas before ] or }.
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
	// codeFencePattern matches a fenced block with an optional language tag.
	codeFencePattern = regexp.MustCompile("(?s)```[A-Za-z0-9_+#.-]*[ \\t]*\\n(.*?)\\n?```")
)

// ExtractJSON pulls a JSON object out of a completion. It accepts fenced
// blocks and objects surrounded by prose, and drops trailing commas.
// It returns "" when no object is found.
func ExtractJSON(content string) string {
	// The first fenced block that holds a valid object wins.
	for _, m := range jsonBlockPattern.FindAllStringSubmatch(content, -1) {
		if obj, ok := firstObject(trailingCommaPattern.ReplaceAllString(m[1], "$1")); ok {
			return obj
		}
	}

	start := strings.Index(content, "{")
	if start == -1 {
		return ""
	}
	cleaned := trailingCommaPattern.ReplaceAllString(content[start:], "$1")

	if obj, ok := firstObject(cleaned); ok {
		return obj
	}

	end := strings.LastIndex(cleaned, "}")
	if end == -1 {
		return ""
	}
	return cleaned[:end+1]
}

// firstObject decodes the first complete JSON value in s. The decoder stops
// at the end of that value, so braces inside strings and trailing prose
// are handled.
func firstObject(s string) (string, bool) {
	var raw json.RawMessage
	if err := json.NewDecoder(strings.NewReader(s)).Decode(&raw); err != nil {
		return "", false
	}
	return string(raw), true
}

// StripCodeFence returns the body of the first fenced code block, or the
// trimmed input when there is none.
func StripCodeFence(content string) string {
	if m := codeFencePattern.FindStringSubmatch(content); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(content)
}
