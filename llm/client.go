// Package llm provides a minimal client for OpenAI-compatible chat
// completion endpoints. It issues one bounded, timed request per call and
// classifies every outcome into a single typed result.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout is the wall-clock budget for a single completion call.
const DefaultTimeout = 180 * time.Second

// maxResponseSize limits the response body to prevent memory exhaustion.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// Chat message roles.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request defines one completion call.
type Request struct {
	// Messages is the chat history to send. Must be non-empty.
	Messages []Message

	// MaxTokens limits response length.
	MaxTokens int

	// Temperature controls sampling randomness.
	Temperature float64

	// Label identifies the originating call site. It prefixes every fault
	// message and telemetry event produced by this call.
	Label string
}

// EventFunc receives one telemetry event per call milestone. Level is
// "INFO" or "ERROR".
type EventFunc func(level, message string)

// Event levels passed to EventFunc.
const (
	EventInfo  = "INFO"
	EventError = "ERROR"
)

// Client issues chat completion requests against a single endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger

	// events optionally mirrors call milestones into a caller-owned log.
	events EventFunc

	// Metadata headers sent with every request (OpenRouter attribution).
	referer string
	title   string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimeout sets the per-call wall-clock deadline.
func WithTimeout(d time.Duration) ClientOption {
	return func(client *Client) {
		client.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(client *Client) {
		client.logger = logger
	}
}

// WithEventFunc sets the telemetry event callback.
func WithEventFunc(fn EventFunc) ClientOption {
	return func(client *Client) {
		client.events = fn
	}
}

// WithMetadataHeaders sets the HTTP-Referer and X-Title attribution headers.
func WithMetadataHeaders(referer, title string) ClientOption {
	return func(client *Client) {
		client.referer = referer
		client.title = title
	}
}

// NewClient creates a client for the given endpoint, credential and model.
func NewClient(baseURL, apiKey, model string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		// The per-call context carries the deadline; the transport itself
		// is unbounded so caller cancellation is the only other way out.
		c.httpClient = &http.Client{}
	}

	return c
}

// chatRequest is the OpenAI-compatible request format.
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	Stream      bool      `json:"stream"`
}

// chatResponse is the OpenAI-compatible response format.
type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Complete sends one completion request and returns the first choice's
// message content. Every failure is classified into exactly one of the
// typed errors in this package, labelled with req.Label.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if len(req.Messages) == 0 {
		return "", c.fault(&UsageError{Label: req.Label})
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      false,
	})
	if err != nil {
		return "", c.fault(&NetworkError{Label: req.Label, err: err})
	}

	c.event(EventInfo, req.Label+": contacting model")
	c.logger.Debug("Sending completion request",
		"label", req.Label,
		"model", c.model,
		"messages", len(req.Messages),
		"max_tokens", req.MaxTokens)

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.endpointURL(), bytes.NewReader(body))
	if err != nil {
		return "", c.fault(&NetworkError{Label: req.Label, err: err})
	}
	c.setHeaders(httpReq)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return "", c.fault(&TimeoutError{Label: req.Label, Timeout: c.timeout})
		}
		return "", c.fault(&NetworkError{Label: req.Label, err: err})
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		// The deadline can also fire mid-body, after Do has returned headers.
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return "", c.fault(&TimeoutError{Label: req.Label, Timeout: c.timeout})
		}
		return "", c.fault(&NetworkError{Label: req.Label, err: err})
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return "", c.fault(&HTTPError{
			Label:  req.Label,
			Status: httpResp.StatusCode,
			Detail: errorDetail(respBody, httpResp.StatusCode),
		})
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", c.fault(&ParseError{Label: req.Label, err: err})
	}

	if len(parsed.Choices) == 0 {
		return "", c.fault(&MalformedResponseError{Label: req.Label})
	}

	c.event(EventInfo, req.Label+": response received")
	return parsed.Choices[0].Message.Content, nil
}

// endpointURL constructs the chat completions endpoint from the base URL.
func (c *Client) endpointURL() string {
	baseURL := strings.TrimSuffix(c.baseURL, "/")
	if strings.HasSuffix(baseURL, "/chat/completions") {
		return baseURL
	}
	return baseURL + "/chat/completions"
}

// setHeaders adds authentication and attribution headers.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		req.Header.Set("X-Title", c.title)
	}
}

// fault logs the classified error before returning it to the caller.
func (c *Client) fault(err error) error {
	c.logger.Error("Completion call failed", "error", err)
	c.event(EventError, err.Error())
	return err
}

// event forwards a call milestone to the configured event callback.
func (c *Client) event(level, message string) {
	if c.events != nil {
		c.events(level, message)
	}
}

// errorBody matches the error envelopes returned by OpenAI-compatible
// services: either {"error": {"message": ...}} or a flat {"message": ...}.
type errorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

// errorDetail extracts a human-readable detail from an error response body,
// degrading to the bare status text when the body is not parseable.
func errorDetail(body []byte, status int) string {
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Error.Message != "" {
			return parsed.Error.Message
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	return http.StatusText(status)
}
