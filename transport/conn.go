// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package transport hosts the varframe codec on TCP connections. It owns the
// byte-shoveling loops the codec itself stays out of: arriving chunks are
// appended to a varframe.Buffer, the decoder is re-invoked while complete
// frames remain, and each decoded payload is handed to a caller-supplied
// handler. Outgoing payloads are framed and drained through a buffered
// queue.
package transport

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"code.hybscloud.com/varframe"
)

// Errors returned by connection operations.
var (
	// ErrInvalidOnMessage is returned when no message handler is provided.
	ErrInvalidOnMessage = stderrors.New("transport: invalid on message callback")
	// ErrConnectionClosed is returned when operating on a closed connection.
	ErrConnectionClosed = stderrors.New("transport: connection closed")
	// ErrSendBufferFull is returned when the outgoing queue cannot accept
	// another message. This is backpressure: the peer is not draining fast
	// enough. Drop the message, or use WriteBlocking to wait for space.
	ErrSendBufferFull = stderrors.New("transport: send buffer full")
)

// Default configuration values.
const (
	defaultSendBufferSize = 1
	defaultIdleTimeout    = 30 * time.Second
	readChunkSize         = 4 * 1024
)

// Conn hosts one framed-message connection. It decodes incoming frames with
// a varframe.Decoder and frames outgoing payloads, running one read loop and
// one write loop under an errgroup.
type Conn struct {
	raw    net.Conn
	logger Logger
	opts   options

	// Receive side: raw chunks accumulate in buf; dec splits them into
	// messages. Exactly one read loop touches these.
	buf varframe.Buffer
	dec *varframe.Decoder

	sendMsg chan []byte
	closed  atomic.Bool
	cancel  context.CancelFunc
}

// NewConn wraps conn for framed messaging. The OnMessage option is required.
func NewConn(conn net.Conn, opt ...Option) (*Conn, error) {
	var opts options
	for _, o := range opt {
		o(&opts)
	}
	if err := checkOptions(&opts); err != nil {
		return nil, err
	}

	return &Conn{
		raw:     conn,
		logger:  opts.logger,
		opts:    opts,
		dec:     varframe.NewDecoder(varframe.WithMaxFrameLength(opts.maxFrameLength)),
		sendMsg: make(chan []byte, opts.sendBufferSize),
	}, nil
}

func checkOptions(opts *options) error {
	if opts.onMessage == nil {
		return ErrInvalidOnMessage
	}
	if opts.sendBufferSize <= 0 {
		opts.sendBufferSize = defaultSendBufferSize
	}
	if opts.idleTimeout <= 0 {
		opts.idleTimeout = defaultIdleTimeout
	}
	if opts.onError == nil {
		opts.onError = func(error) ErrorAction { return Disconnect }
	}
	if opts.logger == nil {
		opts.logger = defaultLogger()
	}
	return nil
}

// Run starts the connection's read and write loops and blocks until an error
// occurs or the context is canceled. The connection is closed when Run
// returns.
func (c *Conn) Run(ctx context.Context) error {
	c.logger.Info("connection established", "addr", c.Addr())

	ctx, c.cancel = context.WithCancel(ctx)
	group, child := errgroup.WithContext(ctx)

	group.Go(func() error {
		return c.readLoop(child)
	})
	group.Go(func() error {
		return c.writeLoop(child)
	})
	group.Go(func() error {
		// Unblock in-flight reads and writes once either loop fails or the
		// caller cancels.
		<-child.Done()
		c.raw.Close()
		return nil
	})

	err := group.Wait()
	c.closed.Store(true)
	c.raw.Close()

	if err != nil && !stderrors.Is(err, context.Canceled) && !stderrors.Is(err, io.EOF) {
		c.logger.Info("connection closed with error", "addr", c.Addr(), "error", err)
	} else {
		c.logger.Info("connection closed", "addr", c.Addr())
	}
	return err
}

// Close gracefully closes the connection. Safe to call multiple times.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil // already closed
	}
	if c.cancel != nil {
		c.cancel()
	}
	return c.raw.Close()
}

// IsClosed returns true once the connection has been closed.
func (c *Conn) IsClosed() bool {
	return c.closed.Load()
}

// Addr returns the remote address of the connection.
func (c *Conn) Addr() net.Addr {
	return c.raw.RemoteAddr()
}

// Write queues payload for sending as one framed message without blocking
// (fire-and-forget). Returns ErrSendBufferFull when the queue is full.
func (c *Conn) Write(payload []byte) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}
	frame := varframe.AppendFrame(nil, payload)
	select {
	case c.sendMsg <- frame:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// WriteBlocking queues payload for sending, waiting until the queue accepts
// it or the context is canceled.
func (c *Conn) WriteBlocking(ctx context.Context, payload []byte) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}
	frame := varframe.AppendFrame(nil, payload)
	select {
	case c.sendMsg <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// readLoop shovels bytes from the connection into the receive buffer and
// re-invokes the decoder while complete frames remain, delivering each
// decoded payload to the message handler.
func (c *Conn) readLoop(ctx context.Context) error {
	chunk := make([]byte, readChunkSize)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			_ = c.raw.SetReadDeadline(time.Now().Add(c.opts.idleTimeout))

			n, err := c.raw.Read(chunk)
			if n > 0 {
				c.buf.Write(chunk[:n])
				if derr := c.drain(); derr != nil {
					return derr
				}
			}
			if err != nil {
				if err == io.EOF {
					if c.buf.Len() > 0 {
						return errors.Wrap(io.ErrUnexpectedEOF, "stream truncated mid-frame")
					}
					return io.EOF
				}
				c.logger.Debug("read error", "addr", c.Addr(), "error", err)
				if c.opts.onError(err) == Disconnect {
					return errors.Wrap(err, "read")
				}
			}
		}
	}
}

// drain extracts every complete frame currently buffered, one decode step
// per frame. Decoder errors are fatal: the stream is unparseable from here.
func (c *Conn) drain() error {
	for {
		msg, err := c.dec.Decode(&c.buf)
		if err != nil {
			return errors.Wrap(err, "decode")
		}
		if msg == nil {
			return nil
		}
		if err := c.opts.onMessage(msg); err != nil {
			return errors.Wrap(err, "on message")
		}
	}
}

// writeLoop sends queued framed messages to the connection.
func (c *Conn) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame := <-c.sendMsg:
			_ = c.raw.SetWriteDeadline(time.Now().Add(c.opts.idleTimeout))
			if _, err := c.raw.Write(frame); err != nil {
				c.logger.Debug("write error", "addr", c.Addr(), "error", err)
				if c.opts.onError(err) == Disconnect {
					return errors.Wrap(err, "write")
				}
			}
		}
	}
}
