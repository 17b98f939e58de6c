package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/c360studio/deepresearch/research/prompts"
)

// Phase labels emitted to observers between phases.
const (
	labelAnalyze     = "Analyzing topic"
	labelPerspective = "Generating research perspectives"
	labelDeep        = "Conducting deep research"
	labelSynthesize  = "Synthesizing findings"
)

// fallbackAnalysis is returned by AnalyzeTopic when the model produces an
// empty response.
const fallbackAnalysis = "No analysis could be produced for this topic."

// fallbackSynthesis is returned by SynthesizeFindings when the model
// produces an empty response.
const fallbackSynthesis = "No synthesis could be produced."

// faultLogCap bounds fault messages recorded in the run log during Phase 3.
const faultLogCap = 200

// minPerspectives is the floor on how many parsed perspectives are kept.
const minPerspectives = 3

// ConductResearch runs the four phases strictly in order and aggregates the
// final report. Faults in Phases 1, 2 and 4 abort the run and propagate
// unchanged; Phase 3 isolates failures per perspective. The run does not
// self-cancel on success; the caller is expected to Cancel it when done.
func (r *Run) ConductResearch(ctx context.Context, topic string, depth Depth, iterations int) (*FinalReport, error) {
	if iterations < 1 {
		return nil, fmt.Errorf("iterations must be at least 1, got %d", iterations)
	}
	if _, ok := initialResearchBudgets[depth]; !ok {
		return nil, fmt.Errorf("unknown research depth %v", depth)
	}

	r.logInfo(fmt.Sprintf("Starting research: %q (depth %s, %d iterations)", topic, depth, iterations))

	r.sink.EmitPhase(labelAnalyze, 1, totalPhases)
	analysis, err := r.AnalyzeTopic(ctx, topic)
	if err != nil {
		return nil, err
	}

	r.sink.EmitPhase(labelPerspective, 2, totalPhases)
	perspectives, err := r.GatherPerspectives(ctx, topic, analysis, iterations)
	if err != nil {
		return nil, err
	}

	r.sink.EmitPhase(labelDeep, 3, totalPhases)
	results, err := r.DeepResearch(ctx, topic, perspectives, depth, iterations)
	if err != nil {
		return nil, err
	}

	r.sink.EmitPhase(labelSynthesize, 4, totalPhases)
	synthesis, err := r.SynthesizeFindings(ctx, topic, perspectives, results)
	if err != nil {
		return nil, err
	}

	r.logInfo("Research complete")

	return &FinalReport{
		Topic:         topic,
		TopicAnalysis: analysis,
		Perspectives:  perspectives,
		DeepResearch:  results,
		Synthesis:     synthesis,
		ResearchLog:   r.sink.Lines(),
	}, nil
}

// AnalyzeTopic runs Phase 1: one broad structural analysis of the topic.
// An empty model response yields the fixed fallback string rather than an
// error.
func (r *Run) AnalyzeTopic(ctx context.Context, topic string) (string, error) {
	if err := r.checkActive("topic analysis"); err != nil {
		return "", err
	}
	r.logInfo("Phase 1: analyzing topic")

	out, err := r.call(ctx, "topic analysis",
		prompts.TopicAnalysis(topic, r.constraints), topicAnalysisBudget)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(out) == "" {
		r.logInfo("Topic analysis came back empty, using fallback text")
		return fallbackAnalysis, nil
	}
	return out, nil
}

// GatherPerspectives runs Phase 2: asks the model for a numbered list of
// perspectives and keeps an ordered prefix of max(iterations, 3) of them.
// Zero parseable perspectives is a fatal EmptyGenerationError.
func (r *Run) GatherPerspectives(ctx context.Context, topic, analysis string, iterations int) ([]string, error) {
	if err := r.checkActive("perspective generation"); err != nil {
		return nil, err
	}
	r.logInfo("Phase 2: generating research perspectives")

	// The model is asked for a superset so truncation has room to work.
	minCount := iterations + 2
	maxCount := iterations * 3
	if maxCount < minCount {
		maxCount = minCount
	}

	out, err := r.call(ctx, "perspective generation",
		prompts.Perspectives(topic, analysis, minCount, maxCount, r.constraints),
		perspectivesBudget)
	if err != nil {
		return nil, err
	}

	parsed := ParsePerspectives(out)
	if len(parsed) == 0 {
		genErr := &EmptyGenerationError{Label: "perspective generation"}
		r.logError(genErr.Error())
		return nil, genErr
	}

	keep := iterations
	if keep < minPerspectives {
		keep = minPerspectives
	}
	if keep > len(parsed) {
		keep = len(parsed)
	}
	perspectives := parsed[:keep]

	r.logInfo(fmt.Sprintf("Parsed %d perspectives, keeping %d", len(parsed), len(perspectives)))
	return perspectives, nil
}

// DeepResearch runs Phase 3: the four-call sub-pipeline for the first
// min(len(perspectives), iterations) perspectives, strictly in order. A
// fault in one perspective is recorded as an error-flagged result and the
// next perspective still runs; only run cancellation aborts the phase.
func (r *Run) DeepResearch(ctx context.Context, topic string, perspectives []string, depth Depth, iterations int) (map[string]PerspectiveResult, error) {
	if err := r.checkActive("deep research"); err != nil {
		return nil, err
	}
	if _, ok := initialResearchBudgets[depth]; !ok {
		return nil, fmt.Errorf("unknown research depth %v", depth)
	}
	r.logInfo("Phase 3: conducting deep research")

	count := iterations
	if count > len(perspectives) {
		count = len(perspectives)
	}

	// Keyed by perspective text; duplicate descriptors collapse.
	results := make(map[string]PerspectiveResult, count)

	for i, perspective := range perspectives[:count] {
		if err := r.checkActive(fmt.Sprintf("deep research (perspective %d)", i+1)); err != nil {
			return nil, err
		}

		r.logInfo(fmt.Sprintf("Researching perspective %d/%d: %s", i+1, count, perspective))

		result, err := r.researchPerspective(ctx, topic, perspective, depth, i+1)
		if err != nil {
			msg := prompts.Excerpt(err.Error(), faultLogCap)
			r.logError(fmt.Sprintf("Perspective %d failed: %s", i+1, msg))
			results[perspective] = PerspectiveResult{Error: err.Error()}
			continue
		}
		results[perspective] = result
	}

	return results, nil
}

// SynthesizeFindings runs Phase 4: builds the cross-perspective block in
// original order and issues the global synthesis call. An empty model
// response yields the fixed placeholder string.
func (r *Run) SynthesizeFindings(ctx context.Context, topic string, perspectives []string, results map[string]PerspectiveResult) (string, error) {
	if err := r.checkActive("global synthesis"); err != nil {
		return "", err
	}
	r.logInfo("Phase 4: synthesizing findings")

	var blocks []string
	for _, perspective := range perspectives {
		result, ok := results[perspective]
		if !ok {
			continue
		}

		var body string
		if result.Failed() {
			body = "Research failed: " + result.Error
		} else {
			snippet := result.Synthesis
			if strings.TrimSpace(snippet) == "" {
				snippet = result.InitialResearch
			}
			body = prompts.Excerpt(snippet, prompts.PerspectiveSnippetCap)
		}
		blocks = append(blocks, fmt.Sprintf("### %s\n%s", perspective, body))
	}
	summary := strings.Join(blocks, "\n\n")

	out, err := r.call(ctx, "global synthesis",
		prompts.GlobalSynthesis(topic, summary, r.constraints), globalSynthesisBudget)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(out) == "" {
		r.logInfo("Global synthesis came back empty, using placeholder text")
		return fallbackSynthesis, nil
	}
	return out, nil
}
