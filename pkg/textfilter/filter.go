// Package textfilter cleans up raw model output before it reaches the
// player. Models frequently wrap replies in quotes or code fences, or
// prefix them with a speaker label; none of that belongs in the
// transcript.
package textfilter

import (
	"regexp"
	"strings"
)

var (
	// Matches a leading speaker label like `Clippy:` or `Narrator:`.
	speakerLabelRegex = regexp.MustCompile(`^[A-Z][\w .'-]{0,40}:\s+`)

	// Matches an opening code fence with an optional language tag.
	openFenceRegex = regexp.MustCompile("^```[a-zA-Z]*\\s*\n?")

	blankRunRegex = regexp.MustCompile(`\n{3,}`)
)

// CleanNarrative normalizes a model response for display: strips code
// fences, a single pair of wrapping quotes, a leading speaker label,
// and collapses excess blank lines.
func CleanNarrative(text string) string {
	result := strings.TrimSpace(text)

	result = stripCodeFence(result)
	result = stripWrappingQuotes(result)

	// Speaker labels are stripped after unquoting, since models tend
	// to produce `"Clippy: hello"` rather than `Clippy: "hello"`.
	result = speakerLabelRegex.ReplaceAllString(result, "")

	result = blankRunRegex.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") || !strings.HasSuffix(text, "```") {
		return text
	}
	inner := openFenceRegex.ReplaceAllString(text, "")
	inner = strings.TrimSuffix(inner, "```")
	return strings.TrimSpace(inner)
}

func stripWrappingQuotes(text string) string {
	if len(text) < 2 {
		return text
	}
	pairs := [][2]string{
		{`"`, `"`},
		{"“", "”"},
		{"'", "'"},
	}
	for _, p := range pairs {
		if strings.HasPrefix(text, p[0]) && strings.HasSuffix(text, p[1]) {
			inner := strings.TrimSuffix(strings.TrimPrefix(text, p[0]), p[1])
			// Only unwrap when the quotes are a true wrapper, not
			// dialogue that happens to start and end with a quote.
			if !strings.Contains(inner, p[0]) && !strings.Contains(inner, p[1]) {
				return strings.TrimSpace(inner)
			}
		}
	}
	return text
}
