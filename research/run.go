// Package research implements the four-phase deep-research pipeline: topic
// analysis, perspective generation, per-perspective deep research, and
// cross-perspective synthesis. One Run owns one research attempt, its
// bounded telemetry log, and its cancellation state.
package research

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/deepresearch/llm"
	"github.com/c360studio/deepresearch/telemetry"
)

// totalPhases is the number of top-level pipeline phases.
const totalPhases = 4

// Gateway issues one completion call and classifies its outcome. Satisfied
// by *llm.Client.
type Gateway interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

// Run is one orchestrator instance per research attempt. A Run is owned
// exclusively by the caller that created it; phases execute strictly
// sequentially on the caller's goroutine. Cancel is the only method safe to
// call from another goroutine.
type Run struct {
	id          string
	constraints string

	gateway Gateway
	sink    *telemetry.Sink
	logger  *slog.Logger

	active atomic.Bool

	// cancelCtx is cancelled by Cancel so an in-flight gateway call aborts
	// promptly instead of waiting out its timeout.
	cancelCtx context.Context
	cancelRun context.CancelFunc
}

// Options configures a Run beyond its required credential and model.
type Options struct {
	// RunID identifies the run in logs and telemetry subjects. A fresh
	// UUID is generated when empty.
	RunID string

	// Endpoint is the completion service base URL.
	// Defaults to the public OpenAI endpoint.
	Endpoint string

	// Constraints is free text appended verbatim to every prompt.
	Constraints string

	// Observers receive telemetry callbacks. Each may be nil-safe no-op.
	Observers []telemetry.Observer

	// LogCapacity bounds the run log (telemetry.DefaultCapacity if zero).
	LogCapacity int

	// Logger is the ambient structured logger (slog.Default if nil).
	Logger *slog.Logger

	// Gateway overrides the completion gateway; used by tests and by
	// callers composing their own client. When set, Endpoint is ignored.
	Gateway Gateway

	// Timeout is the wall-clock budget per completion call
	// (llm.DefaultTimeout if zero).
	Timeout time.Duration

	// Referer and Title are sent as attribution metadata headers.
	Referer string
	Title   string
}

const defaultEndpoint = "https://api.openai.com/v1"

// New constructs a Run for the given credential and model identifier.
func New(apiKey, model string, opts Options) *Run {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	r := &Run{
		id:          runID,
		constraints: opts.Constraints,
		sink:        telemetry.NewSink(opts.LogCapacity, opts.Observers...),
		logger:      logger,
	}
	r.active.Store(true)
	r.cancelCtx, r.cancelRun = context.WithCancel(context.Background())

	if opts.Gateway != nil {
		r.gateway = opts.Gateway
		return r
	}

	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	clientOpts := []llm.ClientOption{
		llm.WithLogger(logger),
		llm.WithEventFunc(func(level, message string) {
			r.sink.Append(level, message)
		}),
		llm.WithMetadataHeaders(opts.Referer, opts.Title),
	}
	if opts.Timeout > 0 {
		clientOpts = append(clientOpts, llm.WithTimeout(opts.Timeout))
	}
	r.gateway = llm.NewClient(endpoint, apiKey, model, clientOpts...)
	return r
}

// ID returns the run's unique identifier.
func (r *Run) ID() string {
	return r.id
}

// Active reports whether the run may still perform work.
func (r *Run) Active() bool {
	return r.active.Load()
}

// Cancel deactivates the run unconditionally. Subsequent phase and sub-call
// entries fail fast with a CancelledError before any network operation, and
// an in-flight gateway call is aborted through its context.
func (r *Run) Cancel() {
	r.active.Store(false)
	r.cancelRun()
}

// Log returns the run's telemetry log lines, oldest first.
func (r *Run) Log() []string {
	return r.sink.Lines()
}

// checkActive fails fast when the run has been cancelled.
func (r *Run) checkActive(stage string) error {
	if r.active.Load() {
		return nil
	}
	err := &CancelledError{Stage: stage}
	r.logger.Warn("Stage refused, run cancelled", "stage", stage)
	return err
}

// callContext derives a context that is cancelled when either the caller's
// context or the run itself is cancelled.
func (r *Run) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(r.cancelCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// call performs one gateway call guarded by the run's cancellation state.
// A transport error caused by Cancel aborting the in-flight request is
// reclassified as a CancelledError.
func (r *Run) call(ctx context.Context, label string, prompt string, b budget) (string, error) {
	if err := r.checkActive(label); err != nil {
		return "", err
	}

	callCtx, cancel := r.callContext(ctx)
	defer cancel()

	out, err := r.gateway.Complete(callCtx, llm.Request{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens:   b.maxTokens,
		Temperature: b.temperature,
		Label:       label,
	})
	if err != nil {
		if !r.active.Load() {
			return "", &CancelledError{Stage: label}
		}
		return "", err
	}
	return out, nil
}

// logInfo appends an info entry to the run log and mirrors it to the
// ambient logger.
func (r *Run) logInfo(message string) {
	r.sink.Append(telemetry.LevelInfo, message)
	r.logger.Info(message, "run_id", r.id)
}

// logError appends an error entry to the run log and mirrors it to the
// ambient logger.
func (r *Run) logError(message string) {
	r.sink.Append(telemetry.LevelError, message)
	r.logger.Error(message, "run_id", r.id)
}
