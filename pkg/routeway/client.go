package routeway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Client defaults
const (
	// DefaultBaseURL is the Routeway API endpoint.
	DefaultBaseURL = "https://api.routeway.ai/v1"

	// DefaultTimeout bounds a single request attempt.
	DefaultTimeout = 120 * time.Second

	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 3

	// EnvAPIKey is the environment variable consulted when no explicit
	// API key is configured.
	EnvAPIKey = "ROUTEWAY_API_KEY"
)

// Retry backoff parameters: attempt i waits base * 2^i, capped.
const (
	retryBackoffBase = 500 * time.Millisecond
	retryBackoffCap  = 10 * time.Second
)

const completionsEndpoint = "chat/completions"

// MetricsRecorder receives client telemetry. Implementations must be
// safe for concurrent use. See pkg/telemetry/metrics for the
// Prometheus-backed implementation.
type MetricsRecorder interface {
	// RecordRequest records one completed request attempt cycle.
	RecordRequest(endpoint, outcome string, duration time.Duration)

	// RecordRetry records one retry of a request.
	RecordRetry(endpoint string)

	// RecordStreamChunk records one decoded streaming chunk.
	RecordStreamChunk()

	// RecordTokens records token usage reported by the API.
	RecordTokens(usage Usage)
}

// UsageRecorder persists per-call token usage. See pkg/usage for the
// SQLite-backed ledger.
type UsageRecorder interface {
	// RecordUsage records the token usage of one completed call.
	RecordUsage(ctx context.Context, model, endpoint string, streamed bool, usage Usage)
}

// Client is a Routeway API client. Configuration is immutable after
// New; a Client is safe for concurrent use by multiple goroutines.
//
// The Client owns its HTTP transport: call Close when done to release
// pooled connections. Streams returned by ChatCompletionStream borrow
// a connection and release it on Close, exhaustion, or error.
type Client struct {
	apiKey         string
	baseURL        string
	timeout        time.Duration
	maxRetries     int
	defaultHeaders map[string]string

	// httpClient serves non-streaming calls and is bounded by timeout.
	httpClient *http.Client

	// streamClient serves streaming calls. It has no overall timeout
	// since a stream may legitimately outlive any fixed deadline; the
	// connect and response-header phases are bounded by the transport,
	// and mid-stream lifetime is controlled by context cancellation.
	streamClient *http.Client

	// transport is the owned transport, nil when the caller supplied
	// its own http.Client.
	transport *http.Transport

	logger  *slog.Logger
	metrics MetricsRecorder
	usage   UsageRecorder

	closeOnce sync.Once
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the API key explicitly, taking precedence over the
// ROUTEWAY_API_KEY environment variable.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithBaseURL overrides the API endpoint, e.g. to point at a
// self-hosted OpenAI-compatible backend. A trailing slash is trimmed.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithTimeout overrides the per-attempt request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

// WithMaxRetries overrides the number of retries after the first
// attempt. Zero disables retrying.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithDefaultHeaders sets extra headers applied to every request.
func WithDefaultHeaders(headers map[string]string) Option {
	return func(c *Client) {
		c.defaultHeaders = make(map[string]string, len(headers))
		for k, v := range headers {
			c.defaultHeaders[k] = v
		}
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
// The client never logs the API key; see pkg/telemetry/logging for a
// handler that additionally redacts secrets defensively.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithHTTPClient supplies a custom HTTP client, used for both blocking
// and streaming calls. The caller keeps ownership of its transport and
// timeout behavior.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
		c.streamClient = httpClient
	}
}

// WithMetricsRecorder attaches a telemetry sink.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(c *Client) { c.metrics = m }
}

// WithUsageRecorder attaches a token-usage sink.
func WithUsageRecorder(u UsageRecorder) Option {
	return func(c *Client) { c.usage = u }
}

// New creates a Client. The API key is resolved from WithAPIKey or the
// ROUTEWAY_API_KEY environment variable; New fails if neither is set.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:    DefaultBaseURL,
		timeout:    DefaultTimeout,
		maxRetries: DefaultMaxRetries,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.apiKey == "" {
		c.apiKey = os.Getenv(EnvAPIKey)
	}
	if c.apiKey == "" {
		return nil, &AuthError{
			StatusCode: http.StatusUnauthorized,
			Message:    "API key required: pass WithAPIKey or set " + EnvAPIKey,
		}
	}

	if c.timeout <= 0 {
		return nil, &ValidationError{Field: "timeout", Message: "must be positive"}
	}
	if c.maxRetries < 0 {
		return nil, &ValidationError{Field: "max_retries", Message: "must be non-negative"}
	}
	if c.baseURL == "" {
		return nil, &ValidationError{Field: "base_url", Message: "must be non-empty"}
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	if c.httpClient == nil {
		c.transport = &http.Transport{
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			ResponseHeaderTimeout: c.timeout,
			ForceAttemptHTTP2:     true,
		}
		c.httpClient = &http.Client{Transport: c.transport, Timeout: c.timeout}
		c.streamClient = &http.Client{Transport: c.transport}
	}

	c.logger.Debug("routeway client initialized",
		"base_url", c.baseURL,
		"timeout", c.timeout,
		"max_retries", c.maxRetries,
	)

	return c, nil
}

// Close releases pooled connections. It is idempotent and safe to call
// whether or not any request was ever made.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		if c.transport != nil {
			c.transport.CloseIdleConnections()
		}
		c.logger.Debug("routeway client closed")
	})
	return nil
}

// ChatCompletion performs a blocking, non-streaming chat completion.
// The request must not have Stream set; use ChatCompletionStream for
// streamed responses.
func (c *Client) ChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	if err := validateRequest(req, false); err != nil {
		return nil, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &ValidationError{Field: "request", Message: "not serializable: " + err.Error()}
	}

	start := time.Now()
	resp, err := c.do(ctx, http.MethodPost, completionsEndpoint, body, false)
	if err != nil {
		c.observe(completionsEndpoint, "error", start)
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe(completionsEndpoint, "error", start)
		return nil, &TransportError{Message: "failed to read response body", Cause: err}
	}

	var completion ChatCompletionResponse
	if err := json.Unmarshal(raw, &completion); err != nil {
		c.observe(completionsEndpoint, "error", start)
		return nil, &DecodeError{
			Message: "malformed completion response",
			Raw:     truncate(string(raw), 512),
			Cause:   err,
		}
	}
	if len(completion.Choices) == 0 {
		c.observe(completionsEndpoint, "error", start)
		return nil, &DecodeError{
			Message: "completion response contained no choices",
			Raw:     truncate(string(raw), 512),
		}
	}

	c.observe(completionsEndpoint, "success", start)
	if completion.Usage != nil {
		c.recordUsage(ctx, completion.Model, false, *completion.Usage)
	}

	return &completion, nil
}

// ChatCompletionStream performs a streaming chat completion and
// returns the decoded chunk sequence. Retries apply only to
// establishing the stream; a mid-stream failure terminates the
// sequence with that error.
//
// The caller must drain the stream or call Close to release the
// underlying connection.
func (c *Client) ChatCompletionStream(ctx context.Context, req *ChatCompletionRequest) (*ChatStream, error) {
	if err := validateRequest(req, true); err != nil {
		return nil, err
	}

	streamReq := *req
	streamReq.Stream = true

	body, err := json.Marshal(&streamReq)
	if err != nil {
		return nil, &ValidationError{Field: "request", Message: "not serializable: " + err.Error()}
	}

	start := time.Now()
	resp, err := c.do(ctx, http.MethodPost, completionsEndpoint, body, true)
	if err != nil {
		c.observe(completionsEndpoint, "error", start)
		return nil, err
	}
	c.observe(completionsEndpoint, "success", start)

	return newChatStream(ctx, c, resp.Body), nil
}

// do performs one logical request with retry. It returns the response
// with an unread body on any 2xx status; every other outcome is a
// classified error. Transient failures (connection errors, 429, 5xx)
// are retried with capped exponential backoff up to maxRetries.
func (c *Client) do(ctx context.Context, method, path string, body []byte, stream bool) (*http.Response, error) {
	httpClient := c.httpClient
	if stream {
		httpClient = c.streamClient
	}
	url := c.baseURL + "/" + strings.TrimLeft(path, "/")

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(attempt - 1)
			c.logger.Debug("retrying request",
				"path", path,
				"attempt", attempt,
				"max_retries", c.maxRetries,
				"backoff", delay,
			)
			if c.metrics != nil {
				c.metrics.RecordRetry(path)
			}

			select {
			case <-ctx.Done():
				return nil, &TransportError{Message: "request aborted during backoff", Cause: ctx.Err()}
			case <-time.After(delay):
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, &ValidationError{Field: "base_url", Message: err.Error()}
		}

		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if stream {
			req.Header.Set("Accept", "text/event-stream")
		}
		req.Header.Set("X-Request-ID", uuid.New().String())
		for k, v := range c.defaultHeaders {
			req.Header.Set(k, v)
		}

		resp, err := httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, &TransportError{Message: "request cancelled", Cause: ctx.Err()}
			}
			lastErr = &TransportError{Message: "request failed", Cause: err}
			c.logger.Warn("request failed, will retry",
				"path", path,
				"attempt", attempt+1,
				"error", err,
			)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()

		classified := classifyStatus(resp.StatusCode, errBody, resp.Header.Get("Retry-After"))
		if !retryable(classified) {
			return nil, classified
		}
		lastErr = classified
		c.logger.Warn("request returned retryable status",
			"path", path,
			"status", resp.StatusCode,
			"attempt", attempt+1,
		)
	}

	return nil, lastErr
}

// backoffDelay returns the wait before the attempt following 0-indexed
// attempt i: base * 2^i, capped.
func backoffDelay(i int) time.Duration {
	if i > 20 {
		return retryBackoffCap
	}
	d := retryBackoffBase << uint(i)
	if d > retryBackoffCap {
		return retryBackoffCap
	}
	return d
}

func (c *Client) observe(endpoint, outcome string, start time.Time) {
	if c.metrics != nil {
		c.metrics.RecordRequest(endpoint, outcome, time.Since(start))
	}
}

func (c *Client) recordUsage(ctx context.Context, model string, streamed bool, usage Usage) {
	if c.metrics != nil {
		c.metrics.RecordTokens(usage)
	}
	if c.usage != nil {
		c.usage.RecordUsage(ctx, model, completionsEndpoint, streamed, usage)
	}
}

// validateRequest checks caller input before any network activity.
// streaming indicates which facade operation is validating.
func validateRequest(req *ChatCompletionRequest, streaming bool) error {
	if req == nil {
		return &ValidationError{Field: "request", Message: "must not be nil"}
	}
	if strings.TrimSpace(req.Model) == "" {
		return &ValidationError{Field: "model", Message: "must be non-empty"}
	}
	if len(req.Messages) == 0 {
		return &ValidationError{Field: "messages", Message: "must be non-empty"}
	}

	for i, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		default:
			return &ValidationError{
				Field:   "messages",
				Message: fmt.Sprintf("message %d has unrecognized role %q", i, msg.Role),
			}
		}
	}

	seen := make(map[string]bool, len(req.Tools))
	for _, tool := range req.Tools {
		name := tool.Function.Name
		if name == "" {
			return &ValidationError{Field: "tools", Message: "tool name must be non-empty"}
		}
		if seen[name] {
			return &ValidationError{Field: "tools", Message: fmt.Sprintf("duplicate tool name %q", name)}
		}
		seen[name] = true
	}

	if !streaming {
		if req.Stream {
			return &ValidationError{Field: "stream", Message: "use ChatCompletionStream for streamed requests"}
		}
		if req.StreamOptions != nil {
			return &ValidationError{Field: "stream_options", Message: "only valid for streaming requests"}
		}
	}

	return nil
}
