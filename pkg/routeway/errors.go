package routeway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// APIError is the generic error for unclassified non-2xx responses.
// The more specific kinds below are used for statuses the client
// understands; all of them carry the HTTP status and the
// server-provided message. Error strings never contain the API key.
type APIError struct {
	// StatusCode is the HTTP status code (0 if not applicable)
	StatusCode int

	// Message is the server-provided error message
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("[%d] %s", e.StatusCode, e.Message)
	}
	return e.Message
}

// AuthError represents an authentication failure (HTTP 401 or 403).
// Authentication failures are never retried.
type AuthError struct {
	// StatusCode is the HTTP status code
	StatusCode int

	// Message is the server-provided error message
	Message string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("[%d] authentication failed: %s", e.StatusCode, e.Message)
}

// RateLimitError represents a rate limit response (HTTP 429).
// It is retried with backoff up to the configured limit.
type RateLimitError struct {
	// Message is the server-provided error message
	Message string

	// RetryAfter is the server's suggested wait, if provided
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("[429] rate limit exceeded (retry after %s): %s", e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("[429] rate limit exceeded: %s", e.Message)
}

// ServerError represents a server-side failure (HTTP 5xx).
// It is retried with backoff up to the configured limit.
type ServerError struct {
	// StatusCode is the HTTP status code
	StatusCode int

	// Message is the server-provided error message
	Message string
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	return fmt.Sprintf("[%d] server error: %s", e.StatusCode, e.Message)
}

// TransportError represents a connection-level failure before any
// response was received, including timeouts. It is retried for the
// initial request but terminal mid-stream.
type TransportError struct {
	// Message describes the failure
	Message string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transport error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("transport error: %s", e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// DecodeError represents a malformed response body or stream frame.
// Decode failures are never retried.
type DecodeError struct {
	// Message describes what failed to decode
	Message string

	// Raw is the payload that failed to decode, truncated for logging
	Raw string

	// Cause is the underlying decode error
	Cause error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("decode error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("decode error: %s", e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// ValidationError represents invalid caller input, detected before any
// network activity.
type ValidationError struct {
	// Field is the invalid field
	Field string

	// Message describes what is invalid
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field %q: %s", e.Field, e.Message)
}

// errorEnvelope matches the standard OpenAI-compatible error body
// {"error": {"message": "...", "type": "...", "code": "..."}}.
type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Param   string `json:"param"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// errorMessage extracts the server's error message from a response
// body, falling back to the raw body when it is not the standard
// envelope.
func errorMessage(body []byte, status int) string {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	if len(body) > 0 {
		return truncate(string(body), 512)
	}
	return http.StatusText(status)
}

// classifyStatus maps a non-2xx response to the error taxonomy.
func classifyStatus(status int, body []byte, retryAfter string) error {
	msg := errorMessage(body, status)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &AuthError{StatusCode: status, Message: msg}
	case status == http.StatusTooManyRequests:
		return &RateLimitError{Message: msg, RetryAfter: parseRetryAfter(retryAfter)}
	case status >= 500:
		return &ServerError{StatusCode: status, Message: msg}
	default:
		return &APIError{StatusCode: status, Message: msg}
	}
}

// retryable reports whether an error is transient: connection-level
// failures, rate limits, and server errors. Auth failures, other 4xx,
// and decode failures are terminal.
func retryable(err error) bool {
	switch err.(type) {
	case *TransportError, *RateLimitError, *ServerError:
		return true
	default:
		return false
	}
}

// parseRetryAfter parses a Retry-After header value, supporting both
// delay-seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}

	return 0
}

// truncate shortens s to at most n bytes for inclusion in error
// messages and log records.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
