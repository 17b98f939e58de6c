package research_test

import (
	"testing"

	"github.com/c360studio/deepresearch/research"
	"github.com/stretchr/testify/assert"
)

func TestParsePerspectives(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "numbered with dots",
			raw:  "1. A: x\n2. B: y",
			want: []string{"A: x", "B: y"},
		},
		{
			name: "numbered with parentheses",
			raw:  "1) First angle\n2) Second angle",
			want: []string{"First angle", "Second angle"},
		},
		{
			name: "non-matching lines skipped silently",
			raw:  "Here are the perspectives:\n\n1. Neuroscience: mechanisms\nSome commentary.\n2. Policy: implications",
			want: []string{"Neuroscience: mechanisms", "Policy: implications"},
		},
		{
			name: "paragraph fallback when nothing is numbered",
			raw:  "Paragraph one.\n\nParagraph two.",
			want: []string{"Paragraph one.", "Paragraph two."},
		},
		{
			name: "paragraph fallback trims and drops empties",
			raw:  "  First block  \n\n\n\n  Second block  \n\n   ",
			want: []string{"First block", "Second block"},
		},
		{
			name: "empty input",
			raw:  "",
			want: nil,
		},
		{
			name: "whitespace-only input",
			raw:  "  \n\n\t\n  ",
			want: nil,
		},
		{
			name: "number without separator whitespace is not a list item",
			raw:  "1.First\n2.Second",
			want: []string{"1.First\n2.Second"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := research.ParsePerspectives(tt.raw)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePerspectives_PreservesOrder(t *testing.T) {
	raw := "3. Third listed first\n1. Then this\n2. Then that"
	// Line order wins, not the printed numbers.
	assert.Equal(t,
		[]string{"Third listed first", "Then this", "Then that"},
		research.ParsePerspectives(raw))
}
