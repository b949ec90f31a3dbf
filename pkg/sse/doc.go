// Package sse decodes Server-Sent-Event style streams into their data
// payloads.
//
// The decoder consumes an io.Reader whose read boundaries carry no
// semantic meaning: a single event frame may arrive split across many
// reads, and one read may carry many frames. Frames are newline-
// delimited; lines prefixed with "data:" carry payloads, blank lines
// separate frames, and any other line (comments, event-type lines) is
// ignored for forward compatibility. The "[DONE]" sentinel terminates
// the stream and is never yielded as a payload.
//
// # Usage
//
//	dec := sse.NewDecoder(resp.Body)
//	for {
//	    payload, err := dec.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    // payload holds one event's data
//	}
//
// A Decoder is single-pass and not safe for concurrent use.
package sse
