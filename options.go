// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package varframe

import "time"

// Options configures decoding and stream adapter behavior.
type Options struct {
	// MaxFrameLength caps the declared payload length of an incoming frame
	// (bytes). Zero means no limit, which is the wire protocol's documented
	// default: an arbitrarily large declared length is accepted and the
	// decoder waits for that many payload bytes. Exceeding a configured cap
	// is fatal (ErrTooLong) and poisons the stream.
	MaxFrameLength int

	// RetryDelay controls how the stream adapters handle iox.ErrWouldBlock
	// from the underlying transport:
	//   - negative: nonblock, return ErrWouldBlock immediately
	//   - zero: yield (runtime.Gosched) and retry
	//   - positive: sleep for the duration and retry
	RetryDelay time.Duration

	// ChunkSize is the size of the scratch block the Reader uses when
	// pulling bytes from the underlying transport. Zero selects the default
	// (4KiB).
	ChunkSize int
}

var defaultOptions = Options{
	MaxFrameLength: 0,
	RetryDelay:     -1, // default: nonblock
	ChunkSize:      0,
}

type Option func(*Options)

// WithMaxFrameLength sets an opt-in cap on incoming frame lengths. There is
// deliberately no default cap; callers facing untrusted peers should set one.
func WithMaxFrameLength(n int) Option {
	return func(o *Options) { o.MaxFrameLength = n }
}

// WithRetryDelay sets the retry/wait policy used when the underlying transport returns iox.ErrWouldBlock.
func WithRetryDelay(d time.Duration) Option {
	return func(o *Options) { o.RetryDelay = d }
}

// WithBlock enables cooperative blocking (yield-and-retry) on iox.ErrWouldBlock.
func WithBlock() Option {
	return func(o *Options) { o.RetryDelay = 0 }
}

// WithNonblock forces non-blocking behavior (return iox.ErrWouldBlock immediately).
func WithNonblock() Option {
	return func(o *Options) { o.RetryDelay = -1 }
}

// WithChunkSize sets the Reader's transport scratch block size.
func WithChunkSize(n int) Option {
	return func(o *Options) { o.ChunkSize = n }
}
