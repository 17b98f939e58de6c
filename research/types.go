package research

import "fmt"

// Depth selects the token budget and sampling temperature for the initial
// research step of each perspective.
type Depth int

const (
	DepthNormal Depth = iota
	DepthAdvanced
	DepthExtreme
)

// ParseDepth converts a depth name into a Depth, rejecting unrecognized
// values at the boundary instead of defaulting deep inside a call.
func ParseDepth(s string) (Depth, error) {
	switch s {
	case "normal":
		return DepthNormal, nil
	case "advanced":
		return DepthAdvanced, nil
	case "extreme":
		return DepthExtreme, nil
	default:
		return 0, fmt.Errorf("unknown research depth %q (want normal, advanced or extreme)", s)
	}
}

// String returns the depth name.
func (d Depth) String() string {
	switch d {
	case DepthNormal:
		return "normal"
	case DepthAdvanced:
		return "advanced"
	case DepthExtreme:
		return "extreme"
	default:
		return fmt.Sprintf("Depth(%d)", int(d))
	}
}

// budget pairs a token limit with a sampling temperature for one call site.
type budget struct {
	maxTokens   int
	temperature float64
}

// initialResearchBudgets maps depth to the budget of the first sub-pipeline
// call. The remaining call sites use fixed budgets regardless of depth.
var initialResearchBudgets = map[Depth]budget{
	DepthNormal:   {maxTokens: 3000, temperature: 0.22},
	DepthAdvanced: {maxTokens: 4000, temperature: 0.18},
	DepthExtreme:  {maxTokens: 6000, temperature: 0.12},
}

var (
	topicAnalysisBudget        = budget{maxTokens: 2500, temperature: 0.20}
	perspectivesBudget         = budget{maxTokens: 2000, temperature: 0.30}
	criticalAnalysisBudget     = budget{maxTokens: 2500, temperature: 0.15}
	gapAnalysisBudget          = budget{maxTokens: 2500, temperature: 0.25}
	perspectiveSynthesisBudget = budget{maxTokens: 3000, temperature: 0.14}
	globalSynthesisBudget      = budget{maxTokens: 5000, temperature: 0.16}
)

// TopicAnalysis is the Phase 1 output, immutable once produced.
type TopicAnalysis struct {
	Analysis string `json:"analysis"`
}

// PerspectiveResult holds the four sub-pipeline outputs for one perspective.
// A non-empty Error marks a failed perspective; the four text fields are
// then empty strings, never partial data.
type PerspectiveResult struct {
	InitialResearch  string `json:"initial_research"`
	CriticalAnalysis string `json:"critical_analysis"`
	IdentifiedGaps   string `json:"identified_gaps"`
	Synthesis        string `json:"synthesis"`
	Error            string `json:"error,omitempty"`
}

// Failed reports whether this result marks a failed perspective.
func (r PerspectiveResult) Failed() bool {
	return r.Error != ""
}

// FinalReport is the authoritative output artifact of a successful run.
type FinalReport struct {
	Topic         string                       `json:"topic"`
	TopicAnalysis string                       `json:"topic_analysis"`
	Perspectives  []string                     `json:"perspectives"`
	DeepResearch  map[string]PerspectiveResult `json:"deep_research"`
	Synthesis     string                       `json:"synthesis"`
	ResearchLog   []string                     `json:"research_log"`
}
