package ingestion

import (
	"regexp"
	"strings"
)

// Pre-compiled normalisation patterns. Compiled once at package init since
// CleanText runs over every document in an ingestion batch.
var (
	multiSpaceRE   = regexp.MustCompile(` +`)
	tabsRE         = regexp.MustCompile(`\t+`)
	multiNewlineRE = regexp.MustCompile(`\n{3,}`)
	zeroWidthRE    = regexp.MustCompile(`[\x{200B}\x{200C}\x{200D}\x{FEFF}]`)
	bulletRE       = regexp.MustCompile(`(?m)^[\s]*[-•*]\s+`)
	numberedRE     = regexp.MustCompile(`(?m)^[\s]*(\d+)\.\s+`)
)

// CleanText normalises raw document text while preserving paragraph breaks.
// Runs of spaces and tabs collapse to a single space, three or more newlines
// collapse to a paragraph break, zero-width characters are stripped, curly
// quotes become straight quotes, and every line is trimmed.
func CleanText(text string) string {
	text = multiSpaceRE.ReplaceAllString(text, " ")
	text = tabsRE.ReplaceAllString(text, " ")
	text = multiNewlineRE.ReplaceAllString(text, "\n\n")
	text = zeroWidthRE.ReplaceAllString(text, "")

	text = strings.NewReplacer(
		"“", `"`, "”", `"`,
		"‘", "'", "’", "'",
	).Replace(text)

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// PreserveStructure normalises list markers so bullets and numbered items
// survive chunking in a consistent form.
func PreserveStructure(text string) string {
	text = bulletRE.ReplaceAllString(text, "• ")
	text = numberedRE.ReplaceAllString(text, "$1. ")
	return text
}
