package routeway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mercator-hq/routeway/internal/apitest"
)

const testResponseBody = `{"id":"chatcmpl-1","object":"chat.completion","created":1700000000,"model":"m",` +
	`"choices":[{"index":0,"message":{"role":"assistant","content":"hello"},"finish_reason":"stop"}],` +
	`"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`

func testClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{
		WithAPIKey("test-api-key"),
		WithBaseURL(baseURL),
		WithTimeout(5 * time.Second),
		WithMaxRetries(0),
	}, opts...)
	client, err := New(opts...)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func basicRequest() *ChatCompletionRequest {
	return &ChatCompletionRequest{
		Model:    "m",
		Messages: []Message{UserMessage("hi")},
	}
}

func TestNew_APIKeyResolution(t *testing.T) {
	t.Run("explicit key", func(t *testing.T) {
		client, err := New(WithAPIKey("explicit"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer client.Close()
		if client.apiKey != "explicit" {
			t.Errorf("expected explicit key, got %q", client.apiKey)
		}
	})

	t.Run("environment fallback", func(t *testing.T) {
		t.Setenv(EnvAPIKey, "from-env")
		client, err := New()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer client.Close()
		if client.apiKey != "from-env" {
			t.Errorf("expected env key, got %q", client.apiKey)
		}
	})

	t.Run("explicit beats environment", func(t *testing.T) {
		t.Setenv(EnvAPIKey, "from-env")
		client, err := New(WithAPIKey("explicit"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer client.Close()
		if client.apiKey != "explicit" {
			t.Errorf("expected explicit key to win, got %q", client.apiKey)
		}
	})

	t.Run("missing key fails", func(t *testing.T) {
		t.Setenv(EnvAPIKey, "")
		_, err := New()
		var authErr *AuthError
		if !errors.As(err, &authErr) {
			t.Fatalf("expected AuthError, got %T: %v", err, err)
		}
	})
}

func TestNew_ConfigValidation(t *testing.T) {
	tests := []struct {
		name  string
		opts  []Option
		field string
	}{
		{"negative timeout", []Option{WithAPIKey("k"), WithTimeout(-time.Second)}, "timeout"},
		{"negative retries", []Option{WithAPIKey("k"), WithMaxRetries(-1)}, "max_retries"},
		{"empty base url", []Option{WithAPIKey("k"), WithBaseURL("")}, "base_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts...)
			var valErr *ValidationError
			if !errors.As(err, &valErr) {
				t.Fatalf("expected ValidationError, got %T: %v", err, err)
			}
			if valErr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, valErr.Field)
			}
		})
	}
}

func TestChatCompletion_EndToEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/chat/completions" {
			t.Errorf("expected /chat/completions, got %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-api-key" {
			t.Errorf("expected bearer auth header, got %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("expected JSON content type, got %q", got)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID header")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(testResponseBody))
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	resp, err := client.ChatCompletion(context.Background(), basicRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Choices[0].Message.Content != "hello" {
		t.Errorf("expected content %q, got %q", "hello", resp.Choices[0].Message.Content)
	}
	if resp.Choices[0].Message.Role != RoleAssistant {
		t.Errorf("expected assistant role, got %q", resp.Choices[0].Message.Role)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 5 {
		t.Errorf("expected usage with 5 total tokens, got %+v", resp.Usage)
	}
}

func TestChatCompletion_Validation(t *testing.T) {
	// No server: validation failures must never reach the network.
	client := testClient(t, "http://localhost:1")

	temp := 0.5
	tests := []struct {
		name  string
		req   *ChatCompletionRequest
		field string
	}{
		{"nil request", nil, "request"},
		{"empty model", &ChatCompletionRequest{Messages: []Message{UserMessage("hi")}}, "model"},
		{"whitespace model", &ChatCompletionRequest{Model: "  ", Messages: []Message{UserMessage("hi")}}, "model"},
		{"no messages", &ChatCompletionRequest{Model: "m"}, "messages"},
		{"bad role", &ChatCompletionRequest{Model: "m", Messages: []Message{{Role: "robot", Content: "hi"}}}, "messages"},
		{"empty tool name", &ChatCompletionRequest{
			Model:    "m",
			Messages: []Message{UserMessage("hi")},
			Tools:    []Tool{{Type: ToolTypeFunction}},
		}, "tools"},
		{"duplicate tool name", &ChatCompletionRequest{
			Model:    "m",
			Messages: []Message{UserMessage("hi")},
			Tools: []Tool{
				FunctionTool("f", "", nil),
				FunctionTool("f", "", nil),
			},
		}, "tools"},
		{"stream flag on blocking call", &ChatCompletionRequest{
			Model:    "m",
			Messages: []Message{UserMessage("hi")},
			Stream:   true,
		}, "stream"},
		{"stream options without stream", &ChatCompletionRequest{
			Model:         "m",
			Messages:      []Message{UserMessage("hi")},
			StreamOptions: &StreamOptions{IncludeUsage: true},
		}, "stream_options"},
		{"valid request passes validation", &ChatCompletionRequest{
			Model:       "m",
			Messages:    []Message{SystemMessage("be brief"), UserMessage("hi")},
			Temperature: &temp,
			Tools:       []Tool{FunctionTool("f", "desc", nil)},
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.ChatCompletion(context.Background(), tt.req)

			if tt.field == "" {
				// Valid input reaches the (dead) network and fails
				// with a transport error, never a validation error.
				var valErr *ValidationError
				if errors.As(err, &valErr) {
					t.Errorf("unexpected validation error: %v", err)
				}
				return
			}

			var valErr *ValidationError
			if !errors.As(err, &valErr) {
				t.Fatalf("expected ValidationError, got %T: %v", err, err)
			}
			if valErr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, valErr.Field)
			}
		})
	}
}

func TestChatCompletion_RetryOnServerError(t *testing.T) {
	const maxRetries = 2

	t.Run("recovers within budget", func(t *testing.T) {
		handler := apitest.FailThenSucceed(maxRetries, http.StatusInternalServerError, testResponseBody)
		server := httptest.NewServer(handler)
		defer server.Close()

		client := testClient(t, server.URL, WithMaxRetries(maxRetries))

		resp, err := client.ChatCompletion(context.Background(), basicRequest())
		if err != nil {
			t.Fatalf("expected success after retries, got %v", err)
		}
		if resp.Choices[0].Message.Content != "hello" {
			t.Errorf("unexpected content %q", resp.Choices[0].Message.Content)
		}
		if got := handler.Attempts(); got != maxRetries+1 {
			t.Errorf("expected %d attempts, got %d", maxRetries+1, got)
		}
	})

	t.Run("exhausts budget", func(t *testing.T) {
		handler := apitest.FailThenSucceed(maxRetries+10, http.StatusInternalServerError, testResponseBody)
		server := httptest.NewServer(handler)
		defer server.Close()

		client := testClient(t, server.URL, WithMaxRetries(maxRetries))

		_, err := client.ChatCompletion(context.Background(), basicRequest())
		var srvErr *ServerError
		if !errors.As(err, &srvErr) {
			t.Fatalf("expected ServerError, got %T: %v", err, err)
		}
		if srvErr.StatusCode != http.StatusInternalServerError {
			t.Errorf("expected status 500, got %d", srvErr.StatusCode)
		}
		if got := handler.Attempts(); got != maxRetries+1 {
			t.Errorf("expected %d attempts, got %d", maxRetries+1, got)
		}
	})

	t.Run("retries rate limit", func(t *testing.T) {
		handler := apitest.FailThenSucceed(1, http.StatusTooManyRequests, testResponseBody)
		server := httptest.NewServer(handler)
		defer server.Close()

		client := testClient(t, server.URL, WithMaxRetries(1))

		if _, err := client.ChatCompletion(context.Background(), basicRequest()); err != nil {
			t.Fatalf("expected success after rate limit retry, got %v", err)
		}
		if got := handler.Attempts(); got != 2 {
			t.Errorf("expected 2 attempts, got %d", got)
		}
	})
}

func TestChatCompletion_NoRetryOnTerminalErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{"auth failure 401", http.StatusUnauthorized, func(t *testing.T, err error) {
			var authErr *AuthError
			if !errors.As(err, &authErr) {
				t.Fatalf("expected AuthError, got %T: %v", err, err)
			}
		}},
		{"auth failure 403", http.StatusForbidden, func(t *testing.T, err error) {
			var authErr *AuthError
			if !errors.As(err, &authErr) {
				t.Fatalf("expected AuthError, got %T: %v", err, err)
			}
		}},
		{"bad request 400", http.StatusBadRequest, func(t *testing.T, err error) {
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %T: %v", err, err)
			}
			if apiErr.StatusCode != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", apiErr.StatusCode)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := apitest.NewCountingHandler(func(w http.ResponseWriter, r *http.Request, attempt int) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":{"message":"nope"}}`))
			})
			server := httptest.NewServer(handler)
			defer server.Close()

			client := testClient(t, server.URL, WithMaxRetries(3))

			_, err := client.ChatCompletion(context.Background(), basicRequest())
			tt.check(t, err)

			if got := handler.Attempts(); got != 1 {
				t.Errorf("expected exactly 1 attempt, got %d", got)
			}
		})
	}
}

func TestChatCompletion_DecodeError(t *testing.T) {
	t.Run("malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{not json`))
		}))
		defer server.Close()

		client := testClient(t, server.URL)

		_, err := client.ChatCompletion(context.Background(), basicRequest())
		var decErr *DecodeError
		if !errors.As(err, &decErr) {
			t.Fatalf("expected DecodeError, got %T: %v", err, err)
		}
	})

	t.Run("missing choices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"id":"x","choices":[]}`))
		}))
		defer server.Close()

		client := testClient(t, server.URL)

		_, err := client.ChatCompletion(context.Background(), basicRequest())
		var decErr *DecodeError
		if !errors.As(err, &decErr) {
			t.Fatalf("expected DecodeError, got %T: %v", err, err)
		}
	})
}

func TestChatCompletion_ErrorsNeverLeakAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid key"}}`))
	}))
	defer server.Close()

	const secret = "sk-super-secret-value"
	client := testClient(t, server.URL, WithAPIKey(secret))

	_, err := client.ChatCompletion(context.Background(), basicRequest())
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Contains(err.Error(), secret) {
		t.Errorf("error message leaked the API key: %q", err.Error())
	}
}

func TestChatCompletion_TransportErrorRetried(t *testing.T) {
	// A server that is immediately closed produces connection errors.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := testClient(t, url, WithMaxRetries(1))

	start := time.Now()
	_, err := client.ChatCompletion(context.Background(), basicRequest())
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
	// One retry means one backoff delay was observed.
	if elapsed := time.Since(start); elapsed < retryBackoffBase {
		t.Errorf("expected at least %s of backoff, finished in %s", retryBackoffBase, elapsed)
	}
}

func TestChatCompletion_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server's background read can observe the
		// client disconnect and cancel the request context; otherwise the
		// handler blocks forever and the deferred Close deadlocks.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.ChatCompletion(ctx, basicRequest())
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError on cancellation, got %T: %v", err, err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline cause in chain, got %v", err)
	}
}

func TestClient_CloseIdempotent(t *testing.T) {
	client, err := New(WithAPIKey("k"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("first close: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}

func TestBackoffDelay(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 500 * time.Millisecond},
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 10 * time.Second}, // capped
		{30, 10 * time.Second},
	}

	for _, tt := range tests {
		if got := backoffDelay(tt.attempt); got != tt.want {
			t.Errorf("backoffDelay(%d): expected %s, got %s", tt.attempt, tt.want, got)
		}
	}
}

func TestListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("expected /models, got %s", r.URL.Path)
		}
		w.Write([]byte(`{"object":"list","data":[{"id":"m1","object":"model"},{"id":"m2","object":"model"}]}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	list, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list.Data) != 2 || list.Data[0].ID != "m1" {
		t.Errorf("unexpected model list: %+v", list)
	}
}

func TestGetModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/m1" {
			t.Errorf("expected /models/m1, got %s", r.URL.Path)
		}
		w.Write([]byte(`{"id":"m1","object":"model","owned_by":"routeway"}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	model, err := client.GetModel(context.Background(), "m1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.ID != "m1" || model.OwnedBy != "routeway" {
		t.Errorf("unexpected model: %+v", model)
	}

	if _, err := client.GetModel(context.Background(), " "); err == nil {
		t.Error("expected validation error for blank model id")
	}
}
