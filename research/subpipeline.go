package research

import (
	"context"
	"fmt"

	"github.com/c360studio/deepresearch/research/prompts"
)

// researchPerspective runs the four-stage sub-pipeline for one perspective:
// initial research, critical analysis, gap identification, synthesis. Each
// stage consumes capped excerpts of the preceding outputs. Any fault aborts
// only this perspective; the caller records it and moves on.
func (r *Run) researchPerspective(ctx context.Context, topic, perspective string, depth Depth, index int) (PerspectiveResult, error) {
	label := func(stage string) string {
		return fmt.Sprintf("%s (perspective %d)", stage, index)
	}

	initial, err := r.call(ctx, label("initial research"),
		prompts.InitialResearch(topic, perspective, r.constraints),
		initialResearchBudgets[depth])
	if err != nil {
		return PerspectiveResult{}, err
	}

	critical, err := r.call(ctx, label("critical analysis"),
		prompts.CriticalAnalysis(perspective, initial, r.constraints),
		criticalAnalysisBudget)
	if err != nil {
		return PerspectiveResult{}, err
	}

	gaps, err := r.call(ctx, label("gap identification"),
		prompts.Gaps(perspective, initial, critical, r.constraints),
		gapAnalysisBudget)
	if err != nil {
		return PerspectiveResult{}, err
	}

	synthesis, err := r.call(ctx, label("perspective synthesis"),
		prompts.PerspectiveSynthesis(perspective, initial, critical, gaps, r.constraints),
		perspectiveSynthesisBudget)
	if err != nil {
		return PerspectiveResult{}, err
	}

	return PerspectiveResult{
		InitialResearch:  initial,
		CriticalAnalysis: critical,
		IdentifiedGaps:   gaps,
		Synthesis:        synthesis,
	}, nil
}
