package research_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/c360studio/deepresearch/research"
	"github.com/c360studio/deepresearch/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newModelServer returns an httptest server speaking the OpenAI-compatible
// wire format, answering the perspective-generation prompt with a numbered
// list and everything else with canned prose.
func newModelServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req.Messages)

		content := "Canned research prose with enough substance to pass through."
		if strings.Contains(req.Messages[0].Content, "Propose distinct research perspectives") {
			content = "1. Neuroscience: consolidation mechanisms\n" +
				"2. Clinical: sleep disorders and recall\n" +
				"3. Lifespan: aging effects\n" +
				"4. Behavioral: sleep hygiene interventions\n" +
				"5. Methodological: how memory is measured"
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"model": "test-model",
			"choices": []map[string]any{
				{
					"message":       map[string]string{"role": "assistant", "content": content},
					"finish_reason": "stop",
				},
			},
		})
	}))
}

// phaseRecorder tracks phase notifications through the observer interface.
type phaseRecorder struct {
	telemetry.NopObserver
	labels   []string
	progress []int
}

func (p *phaseRecorder) OnPhaseLabel(label string)      { p.labels = append(p.labels, label) }
func (p *phaseRecorder) OnPhaseProgress(current, _ int) { p.progress = append(p.progress, current) }

func TestConductResearch_EndToEnd(t *testing.T) {
	server := newModelServer(t)
	defer server.Close()

	obs := &phaseRecorder{}
	run := research.New("test-key", "test-model", research.Options{
		Endpoint:  server.URL,
		Observers: []telemetry.Observer{obs},
	})
	defer run.Cancel()

	report, err := run.ConductResearch(context.Background(),
		"Impact of sleep on memory consolidation in adults", research.DepthNormal, 3)

	require.NoError(t, err)
	assert.Equal(t, "Impact of sleep on memory consolidation in adults", report.Topic)
	assert.NotEmpty(t, report.TopicAnalysis)
	assert.Len(t, report.Perspectives, 3)
	assert.NotEmpty(t, report.Synthesis)
	assert.NotEmpty(t, report.ResearchLog)

	require.Len(t, report.DeepResearch, 3)
	for _, perspective := range report.Perspectives {
		result, ok := report.DeepResearch[perspective]
		require.True(t, ok, "missing deep research for %q", perspective)
		assert.False(t, result.Failed())
	}

	// Four phases announced in order.
	assert.Equal(t, []string{
		"Analyzing topic",
		"Generating research perspectives",
		"Conducting deep research",
		"Synthesizing findings",
	}, obs.labels)
	assert.Equal(t, []int{1, 2, 3, 4}, obs.progress)

	// The run does not self-cancel on success.
	assert.True(t, run.Active())
}

func TestConductResearch_ReportJSONShape(t *testing.T) {
	server := newModelServer(t)
	defer server.Close()

	run := research.New("test-key", "test-model", research.Options{Endpoint: server.URL})
	defer run.Cancel()

	report, err := run.ConductResearch(context.Background(), "topic", research.DepthNormal, 3)
	require.NoError(t, err)

	data, err := json.Marshal(report)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, key := range []string{
		"topic", "topic_analysis", "perspectives", "deep_research", "synthesis", "research_log",
	} {
		assert.Contains(t, decoded, key)
	}
}

func TestConductResearch_LogOrdering(t *testing.T) {
	server := newModelServer(t)
	defer server.Close()

	run := research.New("test-key", "test-model", research.Options{Endpoint: server.URL})
	defer run.Cancel()

	_, err := run.ConductResearch(context.Background(), "topic", research.DepthNormal, 3)
	require.NoError(t, err)

	log := strings.Join(run.Log(), "\n")
	// Phase markers appear in execution order.
	p1 := strings.Index(log, "Phase 1")
	p2 := strings.Index(log, "Phase 2")
	p3 := strings.Index(log, "Phase 3")
	p4 := strings.Index(log, "Phase 4")
	require.NotEqual(t, -1, p1)
	assert.Less(t, p1, p2)
	assert.Less(t, p2, p3)
	assert.Less(t, p3, p4)

	// Gateway milestones are mirrored into the run log.
	assert.Contains(t, log, "topic analysis: contacting model")
	assert.Contains(t, log, "topic analysis: response received")
}

func TestCancel_AbortsInFlightCall(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
	}))
	defer server.Close()
	defer close(release)

	run := research.New("test-key", "test-model", research.Options{Endpoint: server.URL})

	errCh := make(chan error, 1)
	go func() {
		_, err := run.AnalyzeTopic(context.Background(), "topic")
		errCh <- err
	}()

	time.Sleep(50 * time.Millisecond)
	run.Cancel()

	select {
	case err := <-errCh:
		require.Error(t, err)
		assert.True(t, research.IsCancelled(err))
	case <-time.After(5 * time.Second):
		t.Fatal("cancellation did not abort the in-flight call")
	}
}

func TestRun_IndependentRuns(t *testing.T) {
	server := newModelServer(t)
	defer server.Close()

	a := research.New("key", "model", research.Options{Endpoint: server.URL})
	b := research.New("key", "model", research.Options{Endpoint: server.URL})

	a.Cancel()

	// Cancelling one run leaves the other untouched.
	assert.False(t, a.Active())
	assert.True(t, b.Active())
	assert.NotEqual(t, a.ID(), b.ID())

	_, err := b.AnalyzeTopic(context.Background(), "topic")
	assert.NoError(t, err)
}
