// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transport

import "time"

// ErrorAction defines the action to take when a connection error occurs.
type ErrorAction int

const (
	// Disconnect closes the connection when an error occurs.
	Disconnect ErrorAction = iota
	// Continue suppresses the error and keeps the connection running.
	// Fatal framing errors (malformed varint, corrupted frame) always
	// disconnect regardless of this setting: the stream is unparseable.
	Continue
)

// options holds the configuration for a connection.
type options struct {
	logger Logger

	// onMessage receives each decoded payload. The slice is a retained view
	// into the connection's receive buffer; it stays valid after the call
	// but must be treated as read-only.
	onMessage func(payload []byte) error
	onError   func(error) ErrorAction

	sendBufferSize int
	maxFrameLength int
	idleTimeout    time.Duration
}

// Option configures a connection.
type Option func(*options)

// OnMessage sets the handler invoked for each decoded message. Required.
func OnMessage(cb func(payload []byte) error) Option {
	return func(o *options) { o.onMessage = cb }
}

// OnError sets the callback invoked on transport-level read/write errors.
// Return Disconnect to close the connection, Continue to suppress the error.
func OnError(cb func(error) ErrorAction) Option {
	return func(o *options) { o.onError = cb }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithSendBufferSize sets the capacity of the outgoing message queue.
func WithSendBufferSize(n int) Option {
	return func(o *options) { o.sendBufferSize = n }
}

// WithMaxFrameLength caps the declared length of incoming frames. Zero, the
// default, accepts frames of any declared length.
func WithMaxFrameLength(n int) Option {
	return func(o *options) { o.maxFrameLength = n }
}

// WithIdleTimeout sets the read/write deadline window on the underlying
// connection.
func WithIdleTimeout(d time.Duration) Option {
	return func(o *options) { o.idleTimeout = d }
}
