package routeway

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"mercator-hq/routeway/pkg/sse"
)

// ChatStream is the lazy chunk sequence of one streaming chat
// completion. It is single-pass and not safe for concurrent use.
//
// The stream borrows the underlying HTTP connection and releases it
// when the sequence is exhausted, when an error terminates it, or when
// the caller stops early via Close, whichever comes first.
type ChatStream struct {
	ctx    context.Context
	client *Client
	body   io.ReadCloser
	dec    *sse.Decoder

	// err is the terminal state: io.EOF after normal exhaustion or
	// Close, or the classified error that ended the stream. Once set,
	// Recv never resumes.
	err error

	closeOnce sync.Once
	closeErr  error
}

func newChatStream(ctx context.Context, c *Client, body io.ReadCloser) *ChatStream {
	return &ChatStream{
		ctx:    ctx,
		client: c,
		body:   body,
		dec:    sse.NewDecoder(body),
	}
}

// Recv returns the next chunk, in frame-decode order.
//
// It returns io.EOF when the stream terminates normally (the "[DONE]"
// sentinel or a clean connection close), a *DecodeError for a
// malformed frame payload, or a *TransportError for a mid-stream read
// failure. Any error terminates the stream and releases the
// connection; subsequent calls return the same error.
func (s *ChatStream) Recv() (*ChatCompletionChunk, error) {
	if s.err != nil {
		return nil, s.err
	}

	payload, err := s.dec.Next()
	if err == io.EOF {
		s.err = io.EOF
		s.release()
		return nil, io.EOF
	}
	if err != nil {
		s.err = &TransportError{Message: "stream read failed", Cause: err}
		s.release()
		return nil, s.err
	}

	var chunk ChatCompletionChunk
	if err := json.Unmarshal(payload, &chunk); err != nil {
		s.err = &DecodeError{
			Message: "malformed stream chunk",
			Raw:     truncate(string(payload), 512),
			Cause:   err,
		}
		s.release()
		return nil, s.err
	}

	if s.client.metrics != nil {
		s.client.metrics.RecordStreamChunk()
	}
	if chunk.Usage != nil {
		s.client.recordUsage(s.ctx, chunk.Model, true, *chunk.Usage)
	}

	return &chunk, nil
}

// Close releases the underlying connection. It is idempotent and safe
// to call at any point; after Close, Recv returns io.EOF.
func (s *ChatStream) Close() error {
	if s.err == nil {
		s.err = io.EOF
	}
	return s.release()
}

func (s *ChatStream) release() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.body.Close()
	})
	return s.closeErr
}

// StreamEvent is one element of the channel form of a stream: either a
// chunk or the terminal error, never both.
type StreamEvent struct {
	// Chunk is the decoded chunk, nil on the terminal error event
	Chunk *ChatCompletionChunk

	// Err is the terminal error, if the stream did not end cleanly
	Err error
}

// Events converts the stream to a channel for select-based
// consumption. It takes ownership of the stream: the goroutine closes
// the channel and releases the connection when the stream ends, errors,
// or ctx is cancelled. Do not call Recv or Close after Events.
func (s *ChatStream) Events(ctx context.Context) <-chan StreamEvent {
	events := make(chan StreamEvent)

	go func() {
		defer close(events)
		defer s.Close()

		for {
			chunk, err := s.Recv()
			if err == io.EOF {
				return
			}
			if err != nil {
				select {
				case events <- StreamEvent{Err: err}:
				case <-ctx.Done():
				}
				return
			}

			select {
			case events <- StreamEvent{Chunk: chunk}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events
}
