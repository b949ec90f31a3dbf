package sse

import (
	"bufio"
	"bytes"
	"io"
)

const (
	// dataPrefix marks lines that carry an event payload.
	dataPrefix = "data:"

	// doneSentinel is the payload value that signals end-of-stream.
	doneSentinel = "[DONE]"

	// maxLineBytes bounds a single event line. Completion chunks are
	// small, but tool-call arguments can make individual frames large.
	maxLineBytes = 1 << 20
)

// Decoder turns a raw byte stream into a sequence of event payloads.
//
// Next returns payloads in arrival order, one per complete "data:"
// line. The zero value is not usable; construct with NewDecoder.
type Decoder struct {
	scanner *bufio.Scanner

	// done is set once the stream has terminated, either by the
	// sentinel, a clean close, or a read error. A terminated decoder
	// never resumes.
	done bool
	err  error
}

// NewDecoder creates a Decoder reading from r. The reader is typically
// an HTTP response body; the Decoder does not close it.
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)
	return &Decoder{scanner: scanner}
}

// Next returns the next event payload.
//
// It returns io.EOF when the stream terminates normally, either via
// the "[DONE]" sentinel or a clean connection close. Any other error
// comes from the underlying reader. Once Next has returned an error it
// returns the same error on every subsequent call.
func (d *Decoder) Next() ([]byte, error) {
	if d.done {
		if d.err != nil {
			return nil, d.err
		}
		return nil, io.EOF
	}

	for d.scanner.Scan() {
		line := d.scanner.Bytes()

		// Blank lines separate frames and carry no payload. A
		// whitespace-only remnant at end of stream is normal and is
		// discarded the same way.
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		// Non-data lines (": comment", "event: ...") are ignored.
		if !bytes.HasPrefix(line, []byte(dataPrefix)) {
			continue
		}

		payload := bytes.TrimPrefix(line, []byte(dataPrefix))
		// The SSE grammar allows a single space after the field name.
		if len(payload) > 0 && payload[0] == ' ' {
			payload = payload[1:]
		}

		if string(payload) == doneSentinel {
			d.done = true
			return nil, io.EOF
		}

		// The scanner reuses its buffer on the next Scan.
		out := make([]byte, len(payload))
		copy(out, payload)
		return out, nil
	}

	d.done = true
	if err := d.scanner.Err(); err != nil {
		d.err = err
		return nil, err
	}

	// Clean close without a sentinel: treated as end-of-stream. A
	// final unterminated line was already handled above, since the
	// scanner yields it as a normal token.
	return nil, io.EOF
}
