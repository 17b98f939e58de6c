package research

import (
	"regexp"
	"strings"
)

// numberedLinePattern matches one numbered-list item: digits, a dot or
// closing parenthesis, whitespace, then the descriptor text.
var numberedLinePattern = regexp.MustCompile(`^(\d+)[.)]\s+(.+)$`)

// paragraphPattern splits text on runs of two-or-more newlines for the
// fallback path.
var paragraphPattern = regexp.MustCompile(`\n{2,}`)

// ParsePerspectives extracts an ordered list of perspective descriptors from
// unstructured model text. Numbered-list lines are preferred; when the model
// ignores the requested format and no line matches, the text is split into
// paragraphs instead. Empty or whitespace-only input yields an empty result
// on both paths; callers treat that as a failure of the generation phase,
// not of the parser.
func ParsePerspectives(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := numberedLinePattern.FindStringSubmatch(line); m != nil {
			out = append(out, strings.TrimSpace(m[2]))
		}
	}
	if len(out) > 0 {
		return out
	}

	for _, block := range paragraphPattern.Split(raw, -1) {
		block = strings.TrimSpace(block)
		if block != "" {
			out = append(out, block)
		}
	}
	return out
}
