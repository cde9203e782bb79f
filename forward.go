// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package varframe

import (
	"io"
)

// Forwarder relays framed messages from a source to a destination while
// preserving message boundaries.
//
// Semantics:
//   - One call to ForwardOnce processes at most one logical message.
//   - Two-phase state machine per message:
//     1) Decode a whole framed message payload from src (non-blocking; may
//     return early with ErrWouldBlock or ErrMore while bytes accumulate).
//     2) Write that payload as exactly one framed message to dst
//     (non-blocking; may return early with partial progress and
//     ErrWouldBlock or ErrMore).
//   - Returns (n, nil) when a whole message payload has been forwarded.
//   - Returns (n, ErrWouldBlock|ErrMore) when forwarding of the current
//     message is incomplete; retry ForwardOnce on the SAME instance, because
//     the in-flight message is held internally.
//   - The destination sees exactly the payload bytes of the source, framed
//     as one message.
//
// End of stream: io.EOF at a frame boundary, io.ErrUnexpectedEOF when src
// ends mid-frame. Decoder failures (ErrMalformedVarint, ErrCorruptedFrame,
// ErrTooLong) are fatal and repeat on every later call.
type Forwarder struct {
	rr *framer // read-side state machine
	ww *framer // write-side state machine

	// In-flight message between the read and write phases. The payload is a
	// retained view into rr's buffer; it stays valid until fully written.
	msg     []byte
	writing bool
}

// NewForwarder constructs a Forwarder that relays messages from src to dst.
// Options apply to both sides following the same rules as Reader/Writer.
func NewForwarder(dst io.Writer, src io.Reader, opts ...Option) *Forwarder {
	return &Forwarder{
		rr: newFramer(src, nil, opts...),
		ww: newFramer(nil, dst, opts...),
	}
}

// ForwardOnce forwards at most one message. See Forwarder docs for semantics.
//
// Return value n reflects progress in the current phase: payload bytes
// decoded during the read phase, payload bytes written during the write
// phase.
func (f *Forwarder) ForwardOnce() (n int, err error) {
	// Phase 1: acquire a whole message from src.
	if !f.writing {
		msg, err := f.rr.readMessage()
		if err != nil {
			return 0, err
		}
		f.msg = msg
		f.writing = true
	}

	// Phase 2: write it as one framed message to dst.
	wn, we := f.ww.write(f.msg)
	if we != nil {
		return wn, we
	}
	f.msg = nil
	f.writing = false
	return wn, nil
}
