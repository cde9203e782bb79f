// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package varframe

import "errors"

var (
	// ErrInvalidArgument reports an invalid configuration or nil reader/writer.
	ErrInvalidArgument = errors.New("varframe: invalid argument")

	// ErrMalformedVarint reports a length prefix whose 5th byte still has the
	// continuation bit set, i.e. an encoding that cannot fit a 32-bit value.
	// Fatal: the stream is no longer parseable.
	ErrMalformedVarint = errors.New("varframe: malformed varint")

	// ErrCorruptedFrame reports a length prefix that decoded to a negative
	// 32-bit value. Fatal: the stream is no longer parseable.
	ErrCorruptedFrame = errors.New("varframe: corrupted frame")

	// ErrTooLong reports a frame length exceeding the configured maximum
	// (WithMaxFrameLength) or the wire format limit. Fatal on the read path.
	ErrTooLong = errors.New("varframe: frame too long")
)
