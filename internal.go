// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package varframe

import (
	"io"
	"math"
	"runtime"
	"time"
)

const defaultChunkSize = 4 * 1024

type framer struct {
	rd io.Reader
	wr io.Writer

	retryDelay time.Duration
	chunkSize  int

	// read side: transport bytes accumulate in rbuf and are split into
	// messages by dec.
	dec     *Decoder
	rbuf    Buffer
	scratch []byte
	eof     bool

	// decoded message awaiting delivery. pendOff marks how much of it has
	// already been drained (Reader.WriteTo partial-write resume).
	pending    []byte
	pendOff    int
	hasPending bool

	// write side: mid-frame resume state across short/non-blocking writes.
	whdr [MaxVarint32Len]byte
	whn  int64 // header length for current message
	wlen int64 // payload length for current message
	woff int64 // bytes written of (header+payload)

	// reusable scratch buffer for Writer.ReadFrom
	wbuf []byte
}

func newFramer(r io.Reader, w io.Writer, opts ...Option) *framer {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}

	cs := o.ChunkSize
	if cs <= 0 {
		cs = defaultChunkSize
	}
	return &framer{
		rd:         r,
		wr:         w,
		retryDelay: o.RetryDelay,
		chunkSize:  cs,
		dec:        &Decoder{maxFrameLength: o.MaxFrameLength},
	}
}

func (fr *framer) waitOnceOnWouldBlock() bool {
	// returns whether the caller should retry
	if fr.retryDelay < 0 {
		return false
	}
	if fr.retryDelay == 0 {
		runtime.Gosched()
		return true
	}
	time.Sleep(fr.retryDelay)
	return true
}

func (fr *framer) readOnce(p []byte) (n int, err error) {
	for {
		n, err = fr.rd.Read(p)
		// Guard against broken Readers that violate the io.Reader contract by
		// returning (0, nil) on a non-empty buffer. Without this, the fill
		// loop can spin indefinitely.
		if len(p) != 0 && n == 0 && err == nil {
			return 0, io.ErrNoProgress
		}
		if n > 0 {
			return n, err
		}
		if err != ErrWouldBlock {
			return n, err
		}
		if !fr.waitOnceOnWouldBlock() {
			return n, err
		}
	}
}

func (fr *framer) writeOnce(p []byte) (n int, err error) {
	for {
		n, err = fr.wr.Write(p)
		// Same contract guard on the write side: (0, nil) from a Writer on a
		// non-empty buffer would spin the frame write loop.
		if len(p) != 0 && n == 0 && err == nil {
			return 0, io.ErrShortWrite
		}
		if n > 0 {
			return n, err
		}
		if err != ErrWouldBlock {
			return n, err
		}
		if !fr.waitOnceOnWouldBlock() {
			return n, err
		}
	}
}

// fill pulls one chunk from the underlying transport into rbuf.
func (fr *framer) fill() error {
	if fr.scratch == nil {
		fr.scratch = make([]byte, fr.chunkSize)
	}
	n, err := fr.readOnce(fr.scratch)
	if n > 0 {
		fr.rbuf.Write(fr.scratch[:n])
	}
	if err == io.EOF {
		// Process bytes delivered alongside EOF first; report end of stream
		// on the decode side once the buffer is drained.
		fr.eof = true
		return nil
	}
	return err
}

// readMessage returns the next whole decoded message as a retained view.
// It returns (nil, io.EOF) at a clean frame boundary and io.ErrUnexpectedEOF
// when the stream ends mid-frame.
func (fr *framer) readMessage() ([]byte, error) {
	if fr.rd == nil {
		return nil, ErrInvalidArgument
	}
	for {
		if fr.hasPending {
			msg := fr.pending
			fr.pending = nil
			fr.pendOff = 0
			fr.hasPending = false
			return msg, nil
		}
		msg, err := fr.dec.Decode(&fr.rbuf)
		if err != nil {
			return nil, err
		}
		if msg != nil {
			return msg, nil
		}
		if fr.eof {
			if fr.rbuf.Len() == 0 {
				return nil, io.EOF
			}
			// Leftover bytes that can never complete a frame.
			return nil, io.ErrUnexpectedEOF
		}
		if err := fr.fill(); err != nil {
			return nil, err
		}
	}
}

// read delivers the next whole message into p, one message per call.
// If p is too small for the pending message, it returns io.ErrShortBuffer
// without consuming the message; retry with a larger buffer.
func (fr *framer) read(p []byte) (n int, err error) {
	if fr.rd == nil {
		return 0, ErrInvalidArgument
	}
	for {
		if fr.hasPending {
			if len(p) < len(fr.pending) {
				return 0, io.ErrShortBuffer
			}
			n = copy(p, fr.pending)
			fr.pending = nil
			fr.pendOff = 0
			fr.hasPending = false
			return n, nil
		}
		msg, err := fr.dec.Decode(&fr.rbuf)
		if err != nil {
			return 0, err
		}
		if msg != nil {
			fr.pending = msg
			fr.pendOff = 0
			fr.hasPending = true
			continue
		}
		if fr.eof {
			if fr.rbuf.Len() == 0 {
				return 0, io.EOF
			}
			return 0, io.ErrUnexpectedEOF
		}
		if err := fr.fill(); err != nil {
			return 0, err
		}
	}
}

// write frames p as one message: varint32 length prefix followed by the
// payload. Partial progress across ErrWouldBlock is resumed on the next call
// with the same p.
func (fr *framer) write(p []byte) (n int, err error) {
	if fr.wr == nil {
		return 0, ErrInvalidArgument
	}
	if int64(len(p)) > math.MaxInt32 {
		return 0, ErrTooLong
	}

	// Initialize per-message state on the first call.
	if fr.woff == 0 {
		fr.wlen = int64(len(p))
		hdr := AppendVarint32(fr.whdr[:0], int32(len(p)))
		fr.whn = int64(len(hdr))
	}
	if fr.wlen != int64(len(p)) {
		// The caller changed the message buffer mid-frame.
		return 0, io.ErrShortWrite
	}

	for fr.woff < fr.whn {
		wn, we := fr.writeOnce(fr.whdr[fr.woff:fr.whn])
		fr.woff += int64(wn)
		if we != nil {
			return 0, we
		}
	}

	for fr.woff < fr.whn+fr.wlen {
		wn, we := fr.writeOnce(p[fr.woff-fr.whn:])
		fr.woff += int64(wn)
		n += wn
		if we != nil {
			return n, we
		}
	}

	fr.woff = 0
	fr.wlen = 0
	fr.whn = 0
	return n, nil
}
