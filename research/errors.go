package research

import "errors"

// Fault classes raised by the orchestrator itself. Gateway-level faults
// (timeout, network, HTTP, parse, malformed response, usage) are defined in
// the llm package and propagate through unchanged.

// CancelledError reports that a phase or sub-call was entered after the run
// was cancelled. The check happens before any network operation.
type CancelledError struct {
	Stage string
}

func (e *CancelledError) Error() string {
	return e.Stage + ": research run is no longer active"
}

// IsCancelled returns true if the error is a run-cancellation fault.
func IsCancelled(err error) bool {
	var e *CancelledError
	return errors.As(err, &e)
}

// EmptyGenerationError reports that the model's perspective text yielded
// zero parseable perspectives. It is raised by the generation phase, not by
// the parser, which treats an empty result as a valid outcome.
type EmptyGenerationError struct {
	Label string
}

func (e *EmptyGenerationError) Error() string {
	return e.Label + ": model returned no parseable perspectives"
}

// IsEmptyGeneration returns true if the error is an empty perspective
// generation fault.
func IsEmptyGeneration(err error) bool {
	var e *EmptyGenerationError
	return errors.As(err, &e)
}
