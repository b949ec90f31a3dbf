// Package apitest provides shared HTTP stubs for exercising the
// client against scripted API behavior.
package apitest

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
)

// SSEServer returns a test server that replies to every request with
// the given SSE lines, each followed by a blank separator line.
func SSEServer(lines ...string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, ok := w.(http.Flusher)
		if !ok {
			panic("response writer is not a flusher")
		}
		for _, line := range lines {
			fmt.Fprintf(w, "%s\n\n", line)
			flusher.Flush()
		}
	}))
}

// CountingHandler wraps a handler and counts how many requests it has
// served.
type CountingHandler struct {
	attempts atomic.Int64
	handler  http.HandlerFunc
}

// NewCountingHandler creates a counting wrapper around fn. fn receives
// the 1-based attempt number.
func NewCountingHandler(fn func(w http.ResponseWriter, r *http.Request, attempt int)) *CountingHandler {
	ch := &CountingHandler{}
	ch.handler = func(w http.ResponseWriter, r *http.Request) {
		fn(w, r, int(ch.attempts.Add(1)))
	}
	return ch
}

// ServeHTTP implements http.Handler.
func (ch *CountingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ch.handler(w, r)
}

// Attempts returns the number of requests served so far.
func (ch *CountingHandler) Attempts() int {
	return int(ch.attempts.Load())
}

// FailThenSucceed returns a counting handler that responds with
// failStatus for the first failures requests, then serves body with
// status 200.
func FailThenSucceed(failures int, failStatus int, body string) *CountingHandler {
	return NewCountingHandler(func(w http.ResponseWriter, r *http.Request, attempt int) {
		if attempt <= failures {
			w.WriteHeader(failStatus)
			fmt.Fprintf(w, `{"error":{"message":"simulated failure %d"}}`, attempt)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, body)
	})
}

// CloseCountingBody wraps an io.ReadCloser and counts Close calls.
type CloseCountingBody struct {
	io.Reader

	mu     sync.Mutex
	closes int
}

// NewCloseCountingBody wraps r.
func NewCloseCountingBody(r io.Reader) *CloseCountingBody {
	return &CloseCountingBody{Reader: r}
}

// Close implements io.Closer.
func (b *CloseCountingBody) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closes++
	return nil
}

// Closes returns how many times Close has been called.
func (b *CloseCountingBody) Closes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closes
}
