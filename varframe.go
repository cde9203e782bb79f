// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package varframe splits byte streams into messages delimited by a Base-128
// varint32 length prefix, the Google Protocol Buffers wire framing.
//
// Semantics and design:
//   - Incremental decoding: a transport feeds arbitrary byte chunks into a
//     Buffer; Decoder.Decode emits one whole message per completed frame and
//     leaves the buffer untouched (nothing consumed) on a half-received
//     frame, so every call re-evaluates from the unconsumed prefix.
//   - Zero-copy output: decoded payloads are retained views sharing the
//     buffer's storage, never copies.
//   - Non-blocking first: iox.ErrWouldBlock and iox.ErrMore are surfaced as
//     control-flow signals (re-exposed as varframe.ErrWouldBlock /
//     varframe.ErrMore). Hot paths avoid allocations and return promptly.
//   - io compatibility: Reader, Writer, and ReadWriter implement standard io
//     interfaces and honor io.Writer short-write contracts and io.Reader
//     buffer semantics.
//
// Wire format: [varint32 length][length bytes of payload], repeated. The
// prefix is 1 to 5 bytes, 7 low-order-first data bits per byte, MSB as the
// continuation flag, decoded as a signed 32-bit integer. A prefix that
// decodes negative is ErrCorruptedFrame; a 5th byte with its continuation
// flag still set is ErrMalformedVarint. Both are fatal for the stream.
//
// There is no default cap on the declared frame length: the decoder accepts
// any non-negative length and waits for that many bytes. WithMaxFrameLength
// installs an explicit opt-in cap.
package varframe

import (
	"io"

	"code.hybscloud.com/iox"
)

// NewReader returns an io.Reader that reads framed messages from r,
// delivering exactly one whole message payload per Read.
func NewReader(r io.Reader, opts ...Option) io.Reader {
	return &Reader{fr: newFramer(r, nil, opts...)}
}

// NewWriter returns an io.Writer that writes each Write as one framed message to w.
func NewWriter(w io.Writer, opts ...Option) io.Writer {
	return &Writer{fr: newFramer(nil, w, opts...)}
}

// NewReadWriter returns an io.ReadWriter that reads and writes framed messages.
func NewReadWriter(r io.Reader, w io.Writer, opts ...Option) io.ReadWriter {
	fr := newFramer(r, w, opts...)
	return &ReadWriter{Reader: &Reader{fr: fr}, Writer: &Writer{fr: fr}}
}

// NewPipe returns a synchronous in-memory framing pipe.
func NewPipe(opts ...Option) (reader io.Reader, writer io.Writer) {
	r, w := io.Pipe()
	pipe := NewReadWriter(r, w, opts...)
	return pipe, pipe
}

// Reader reads framed messages.
type Reader struct{ fr *framer }

// Read delivers the next whole message payload into p. If p is smaller than
// the message, Read returns io.ErrShortBuffer and keeps the message pending
// for a retry with a larger buffer. A clean end of stream at a frame
// boundary is io.EOF; a stream truncated mid-frame is io.ErrUnexpectedEOF.
func (r *Reader) Read(p []byte) (int, error) { return r.fr.read(p) }

// ReadMessage returns the next whole message payload as a retained view
// sharing storage with the reader's internal buffer, avoiding the copy that
// Read performs. The view stays valid after subsequent reads.
func (r *Reader) ReadMessage() ([]byte, error) { return r.fr.readMessage() }

// WriteTo implements io.WriterTo: it decodes framed messages from the
// underlying reader and writes the raw payload bytes to dst until end of
// stream.
//
// Non-blocking semantics: if the underlying reader or dst returns
// iox.ErrWouldBlock or iox.ErrMore, WriteTo returns immediately with the
// progress count; the in-flight message is retained and the next call
// resumes draining it before decoding the next one. Short writes on dst are
// handled per io.Writer contract.
func (r *Reader) WriteTo(dst io.Writer) (int64, error) {
	fr := r.fr
	if fr.rd == nil {
		return 0, ErrInvalidArgument
	}

	var total int64
	for {
		if !fr.hasPending {
			msg, err := fr.dec.Decode(&fr.rbuf)
			if err != nil {
				return total, err
			}
			if msg == nil {
				if fr.eof {
					if fr.rbuf.Len() == 0 {
						return total, nil
					}
					return total, io.ErrUnexpectedEOF
				}
				if e := fr.fill(); e != nil {
					return total, e
				}
				continue
			}
			fr.pending = msg
			fr.pendOff = 0
			fr.hasPending = true
		}

		for fr.pendOff < len(fr.pending) {
			wn, we := dst.Write(fr.pending[fr.pendOff:])
			if wn > 0 {
				total += int64(wn)
				fr.pendOff += wn
			}
			if we != nil {
				// Propagate semantic control-flow unchanged; resume later.
				return total, we
			}
			if wn == 0 {
				// Avoid potential infinite loop on pathological writers.
				return total, io.ErrShortWrite
			}
		}
		fr.pending = nil
		fr.pendOff = 0
		fr.hasPending = false
	}
}

// Writer writes framed messages.
type Writer struct{ fr *framer }

// Write frames p as one message: varint32 length prefix, then the payload.
// On ErrWouldBlock mid-frame, call again with the same p to resume.
func (w *Writer) Write(p []byte) (int, error) { return w.fr.write(p) }

// ReadFrom implements io.ReaderFrom.
//
// Chunk-to-message: each successful src.Read becomes a single framed
// message. This does not preserve upstream application message boundaries;
// it exists for efficient bulk transfer of pre-chunked sources.
//
// Non-blocking semantics: if src.Read or the underlying writer returns
// iox.ErrWouldBlock or iox.ErrMore, ReadFrom returns immediately with the
// progress count and the same error. No heap allocations in the
// steady-state path.
func (w *Writer) ReadFrom(src io.Reader) (int64, error) {
	fr := w.fr
	if fr.wbuf == nil {
		fr.wbuf = make([]byte, 32*1024)
	}
	buf := fr.wbuf

	var total int64
	for {
		n, er := src.Read(buf)
		if n > 0 {
			wn, we := fr.write(buf[:n])
			if wn > 0 {
				total += int64(wn)
			}
			if we != nil {
				return total, we
			}
			if wn != n {
				// fr.write never returns a short write without an error,
				// but guard against pathological writers.
				return total, io.ErrShortWrite
			}
		}
		if er != nil {
			if er == io.EOF {
				return total, nil
			}
			return total, er
		}
	}
}

// ReadWriter groups Reader and Writer.
type ReadWriter struct {
	*Reader
	*Writer
}

// These are provided as package-level aliases so callers can reference the
// semantic control-flow errors without importing iox directly.
var (
	// ErrWouldBlock means “no further progress without waiting”.
	//
	// It is an expected, non-failure control-flow signal for non-blocking I/O.
	// Any returned byte count (n) still represents real progress.
	//
	// Caller action: stop the current attempt and retry later (after readiness/event),
	// or configure RetryDelay to emulate cooperative blocking on top of a non-blocking transport.
	ErrWouldBlock = iox.ErrWouldBlock

	// ErrMore means “this completion is usable and more completions will follow”.
	//
	// It is not io.EOF and not “try later”. The operation remains active and additional
	// data/results are expected from the same ongoing operation.
	//
	// Caller action: process the returned bytes/result, then call again to obtain the next chunk.
	ErrMore = iox.ErrMore
)
