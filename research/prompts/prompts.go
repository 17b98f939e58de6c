// Package prompts composes the instruction text for every completion call in
// the research pipeline. Composition is pure: a base statement joined with
// ordered requirement sections, with size-capped excerpts of prior-stage
// output embedded at documented per-site caps.
package prompts

import (
	"fmt"
	"unicode/utf8"
)

// Per-site excerpt caps, in bytes. These bound prompt size and token cost,
// not correctness; truncation is a hard slice with no word-boundary
// adjustment.
const (
	// AnalysisInPerspectivesCap bounds the topic-analysis excerpt embedded
	// in the perspective generation prompt.
	AnalysisInPerspectivesCap = 2000

	// InitialInCriticalCap bounds the initial-research excerpt embedded in
	// the critical analysis prompt.
	InitialInCriticalCap = 2500

	// InitialInGapsCap and CriticalInGapsCap bound the excerpts embedded in
	// the gap identification prompt.
	InitialInGapsCap  = 1500
	CriticalInGapsCap = 1500

	// InitialInSynthesisCap, CriticalInSynthesisCap and GapsInSynthesisCap
	// bound the excerpts embedded in the per-perspective synthesis prompt.
	InitialInSynthesisCap  = 1500
	CriticalInSynthesisCap = 1000
	GapsInSynthesisCap     = 1000

	// SummaryInGlobalCap bounds the whole cross-perspective block embedded
	// in the global synthesis prompt; PerspectiveSnippetCap bounds each
	// individual perspective's contribution to that block.
	SummaryInGlobalCap    = 6000
	PerspectiveSnippetCap = 800
)

// Compose joins a base instruction with ordered requirement sections,
// base first, separated by blank lines. Empty sections are skipped.
func Compose(base string, sections ...string) string {
	out := base
	for _, section := range sections {
		if section == "" {
			continue
		}
		out += "\n\n" + section
	}
	return out
}

// Excerpt returns at most max bytes of s, never splitting a UTF-8 rune.
// The cut has no word-boundary adjustment; callers pass one of the
// documented cap constants so the bounds stay auditable.
func Excerpt(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// constraintSection renders caller-supplied free-text constraints as a
// prompt section, verbatim.
func constraintSection(constraints string) string {
	if constraints == "" {
		return ""
	}
	return "Additional constraints from the requester (apply them verbatim):\n" + constraints
}

// TopicAnalysis returns the Phase 1 prompt: a broad structural analysis of
// the research topic.
func TopicAnalysis(topic, constraints string) string {
	return Compose(
		`You are a senior research strategist. Analyze the research topic below before any investigation begins.`,
		fmt.Sprintf("Research topic: %s", topic),
		`Cover, in order:
1. The core question the topic poses and why it matters.
2. The key sub-domains and disciplines involved.
3. Known points of controversy or active debate.
4. What kinds of evidence would settle the main questions.`,
		constraintSection(constraints),
	)
}

// Perspectives returns the Phase 2 prompt: a numbered list of distinct
// research perspectives, between minCount and maxCount entries. The
// topic-analysis excerpt is capped at AnalysisInPerspectivesCap.
func Perspectives(topic, analysis string, minCount, maxCount int, constraints string) string {
	return Compose(
		`You are planning a multi-angle research effort. Propose distinct research perspectives on the topic below.`,
		fmt.Sprintf("Research topic: %s", topic),
		fmt.Sprintf("Prior topic analysis:\n%s", Excerpt(analysis, AnalysisInPerspectivesCap)),
		fmt.Sprintf(`Produce between %d and %d perspectives as a numbered list, one per line, in the form:

1. <short title>: <one-sentence rationale>

Each perspective must examine the topic from a genuinely different angle. Do not add commentary before or after the list.`, minCount, maxCount),
		constraintSection(constraints),
	)
}

// InitialResearch returns the first sub-pipeline prompt: a broad
// investigation of one perspective.
func InitialResearch(topic, perspective, constraints string) string {
	return Compose(
		`You are a domain researcher conducting an initial investigation.`,
		fmt.Sprintf("Research topic: %s", topic),
		fmt.Sprintf("Assigned perspective: %s", perspective),
		`Investigate the topic strictly through this perspective. Report the main findings, mechanisms, and evidence, citing the kind of source each claim would rest on. Be thorough but stay on the assigned angle.`,
		constraintSection(constraints),
	)
}

// CriticalAnalysis returns the second sub-pipeline prompt, fed the capped
// initial-research output.
func CriticalAnalysis(perspective, initial, constraints string) string {
	return Compose(
		`You are a critical reviewer. Scrutinize the initial research below for weaknesses.`,
		fmt.Sprintf("Perspective under review: %s", perspective),
		fmt.Sprintf("Initial research:\n%s", Excerpt(initial, InitialInCriticalCap)),
		`Identify unsupported claims, methodological concerns, alternative explanations, and places where the evidence is thinner than the prose suggests.`,
		constraintSection(constraints),
	)
}

// Gaps returns the third sub-pipeline prompt, fed capped excerpts of both
// prior outputs.
func Gaps(perspective, initial, critical, constraints string) string {
	return Compose(
		`You are auditing a research thread for missing coverage.`,
		fmt.Sprintf("Perspective: %s", perspective),
		fmt.Sprintf("Initial research:\n%s", Excerpt(initial, InitialInGapsCap)),
		fmt.Sprintf("Critical analysis:\n%s", Excerpt(critical, CriticalInGapsCap)),
		`List the concrete gaps: questions neither document answers, populations or conditions not considered, and evidence that would be needed to close each gap.`,
		constraintSection(constraints),
	)
}

// PerspectiveSynthesis returns the fourth sub-pipeline prompt, fed capped
// excerpts of all three prior outputs.
func PerspectiveSynthesis(perspective, initial, critical, gaps, constraints string) string {
	return Compose(
		`You are writing the closing synthesis for one research perspective.`,
		fmt.Sprintf("Perspective: %s", perspective),
		fmt.Sprintf("Initial research:\n%s", Excerpt(initial, InitialInSynthesisCap)),
		fmt.Sprintf("Critical analysis:\n%s", Excerpt(critical, CriticalInSynthesisCap)),
		fmt.Sprintf("Identified gaps:\n%s", Excerpt(gaps, GapsInSynthesisCap)),
		`Integrate the three documents into a single balanced synthesis: what this perspective establishes, with what confidence, and what remains open.`,
		constraintSection(constraints),
	)
}

// GlobalSynthesis returns the Phase 4 prompt. The cross-perspective summary
// block must already be assembled by the caller; it is capped here at
// SummaryInGlobalCap as a whole.
func GlobalSynthesis(topic, summary, constraints string) string {
	return Compose(
		`You are producing the final integrated report for a multi-perspective research effort.`,
		fmt.Sprintf("Research topic: %s", topic),
		fmt.Sprintf("Per-perspective findings:\n%s", Excerpt(summary, SummaryInGlobalCap)),
		`Write the report with exactly these eight sections:

1. Executive Summary
2. Integrated Analysis
3. Critical Insights
4. Quality and Confidence Assessment
5. Gap Analysis
6. Recommendations
7. Practical Applications
8. Limitations

Draw only on the findings above. Where perspectives disagree, say so explicitly.`,
		constraintSection(constraints),
	)
}
