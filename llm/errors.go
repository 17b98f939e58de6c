package llm

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Error types for classifying completion call outcomes. Every error message
// is prefixed with the originating call's label so logs and top-level
// failures are traceable to the call site that produced them.

// UsageError reports an internal precondition violation such as an empty
// message list. It is never triggered by the research phases under correct use.
type UsageError struct {
	Label string
}

func (e *UsageError) Error() string {
	return e.Label + ": at least one message is required"
}

// TimeoutError reports a call that exceeded the configured wall-clock deadline.
type TimeoutError struct {
	Label   string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: model call timed out after %s", e.Label, e.Timeout)
}

// NetworkError reports a transport-level failure other than a timeout.
type NetworkError struct {
	Label string
	err   error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network failure: %v", e.Label, e.err)
}

func (e *NetworkError) Unwrap() error {
	return e.err
}

// HTTPError reports a non-2xx status from the completion service. Detail
// carries the error/message field parsed from the response body when the
// body is parseable, and the bare status text otherwise.
type HTTPError struct {
	Label  string
	Status int
	Detail string
}

func (e *HTTPError) Error() string {
	detail := e.Detail
	if detail == "" {
		detail = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s: API error (status %d): %s", e.Label, e.Status, detail)
}

// ParseError reports a response body that is not valid JSON.
type ParseError struct {
	Label string
	err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: unparseable response body: %v", e.Label, e.err)
}

func (e *ParseError) Unwrap() error {
	return e.err
}

// MalformedResponseError reports a structurally valid response that is
// missing the expected choices[0].message.content field.
type MalformedResponseError struct {
	Label string
}

func (e *MalformedResponseError) Error() string {
	return e.Label + ": response has no choices[0].message.content"
}

// IsUsage returns true if the error is a usage precondition violation.
func IsUsage(err error) bool {
	var e *UsageError
	return errors.As(err, &e)
}

// IsTimeout returns true if the error is a call timeout.
func IsTimeout(err error) bool {
	var e *TimeoutError
	return errors.As(err, &e)
}

// IsNetwork returns true if the error is a transport failure.
func IsNetwork(err error) bool {
	var e *NetworkError
	return errors.As(err, &e)
}

// IsHTTP returns true if the error is a non-2xx status response.
func IsHTTP(err error) bool {
	var e *HTTPError
	return errors.As(err, &e)
}

// IsParse returns true if the error is an unparseable response body.
func IsParse(err error) bool {
	var e *ParseError
	return errors.As(err, &e)
}

// IsMalformedResponse returns true if the error is a response missing the
// expected content field.
func IsMalformedResponse(err error) bool {
	var e *MalformedResponseError
	return errors.As(err, &e)
}
