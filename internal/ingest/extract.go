package ingest

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Field extraction runs ordered strategy chains instead of nested
// conditionals: each strategy either produces a value or yields to the
// next one. Malformed JSON is swallowed deliberately; extraction must
// never fail an entry.

type extractStrategy func(raw RawLesson) string

var titleStrategies = []extractStrategy{
	func(raw RawLesson) string { return strings.TrimSpace(raw.Title) },
	func(raw RawLesson) string { return metadataString(raw.Metadata, "title") },
	func(raw RawLesson) string { return jsonContentString(raw.Content, "title") },
}

var summaryStrategies = []extractStrategy{
	func(raw RawLesson) string { return strings.TrimSpace(raw.Summary) },
	func(raw RawLesson) string { return metadataString(raw.Metadata, "summary") },
	func(raw RawLesson) string { return metadataString(raw.Metadata, "description") },
	func(raw RawLesson) string { return jsonContentString(raw.Content, "description") },
	func(raw RawLesson) string { return jsonContentString(raw.Content, "summary") },
	func(raw RawLesson) string { return leadingSentences(stripFormatting(raw.Content), 2) },
}

// extractTitle runs the title strategy chain.
func extractTitle(raw RawLesson) string {
	return runStrategies(titleStrategies, raw)
}

// extractSummary runs the summary strategy chain.
func extractSummary(raw RawLesson) string {
	return runStrategies(summaryStrategies, raw)
}

func runStrategies(strategies []extractStrategy, raw RawLesson) string {
	for _, strategy := range strategies {
		if v := strategy(raw); v != "" {
			return v
		}
	}
	return ""
}

// metadataString returns a trimmed string value from metadata, or ""
// when the key is absent or not a string.
func metadataString(meta map[string]any, key string) string {
	if meta == nil {
		return ""
	}
	if v, ok := meta[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// jsonContentString probes content as a JSON object and returns the
// string value at key. Non-JSON content falls through silently.
func jsonContentString(content, key string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "{") {
		return ""
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return ""
	}
	if v, ok := obj[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

var (
	codeFence  = regexp.MustCompile("(?s)```.*?```")
	inlineCode = regexp.MustCompile("`[^`]*`")
	mdHeading  = regexp.MustCompile(`(?m)^#{1,6}\s*`)
	mdEmphasis = regexp.MustCompile(`[*_]{1,3}([^*_]+)[*_]{1,3}`)
	spaces     = regexp.MustCompile(`\s+`)
)

// stripFormatting removes markdown noise so the sentence fallback
// produces readable prose.
func stripFormatting(content string) string {
	content = codeFence.ReplaceAllString(content, " ")
	content = inlineCode.ReplaceAllString(content, " ")
	content = mdHeading.ReplaceAllString(content, "")
	content = mdEmphasis.ReplaceAllString(content, "$1")
	return strings.TrimSpace(spaces.ReplaceAllString(content, " "))
}

// sentenceEnd matches a sentence terminator followed by whitespace.
var sentenceEnd = regexp.MustCompile(`[.!?](\s+|$)`)

// leadingSentences returns the first n sentences of text. Text without
// terminators is returned whole.
func leadingSentences(text string, n int) string {
	if text == "" {
		return ""
	}
	ends := sentenceEnd.FindAllStringIndex(text, n)
	if len(ends) == 0 {
		return text
	}
	last := ends[len(ends)-1]
	return strings.TrimSpace(text[:last[1]])
}
