// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package varframe

import "fmt"

// Decoder splits an accumulating byte stream into messages delimited by a
// varint32 length prefix.
//
// Decode is re-invoked by the caller as more data arrives; there is no
// intermediate state between calls beyond the bytes still sitting in the
// Buffer and its cursor. Each call re-evaluates the frame from scratch, so a
// half-received frame is fully rewound and the prefix is re-parsed against
// the larger buffer next time.
//
// Without WithMaxFrameLength there is no cap on the declared length: a huge
// length value is accepted and the decoder simply keeps waiting for that many
// bytes. That matches the wire protocol's documented behavior; set an opt-in
// cap when the peer is untrusted.
type Decoder struct {
	maxFrameLength int

	// First fatal error; poisons every subsequent Decode on this stream.
	err error
}

// NewDecoder returns a Decoder. With no options frames of any declared
// length are accepted.
func NewDecoder(opts ...Option) *Decoder {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	return &Decoder{maxFrameLength: o.MaxFrameLength}
}

// Decode attempts to extract one message from b.
//
// Returns (nil, nil) when b does not yet hold a complete frame; b is left
// exactly as received (nothing consumed) and the caller retries once more
// bytes arrive. Returns a non-nil payload when a whole frame was consumed;
// the payload is a retained view into b's storage (zero-length frames yield a
// non-nil empty payload). At most one message is produced per call; callers
// drain buffered frames by looping.
//
// ErrMalformedVarint, ErrCorruptedFrame and ErrTooLong are fatal: the stream
// can no longer be parsed, and every later call returns the same error.
func (d *Decoder) Decode(b *Buffer) ([]byte, error) {
	if d.err != nil {
		return nil, d.err
	}
	if b == nil {
		return nil, ErrInvalidArgument
	}

	pre := b.pos()
	length, err := readRawVarint32(b)
	if err != nil {
		return nil, d.fail(err)
	}
	if b.pos() == pre {
		// Not even a whole prefix yet.
		return nil, nil
	}
	if length < 0 {
		return nil, d.fail(fmt.Errorf("%w: negative length %d", ErrCorruptedFrame, length))
	}
	if d.maxFrameLength > 0 && int(length) > d.maxFrameLength {
		return nil, d.fail(fmt.Errorf("%w: declared length %d exceeds limit %d", ErrTooLong, length, d.maxFrameLength))
	}
	if b.Len() < int(length) {
		// Half frame: undo the prefix read too, so the next call re-parses
		// it from scratch instead of remembering the length across calls.
		b.seek(pre)
		return nil, nil
	}
	return b.Next(int(length)), nil
}

// Err returns the fatal error that poisoned the decoder, or nil.
func (d *Decoder) Err() error { return d.err }

func (d *Decoder) fail(err error) error {
	d.err = err
	return err
}
