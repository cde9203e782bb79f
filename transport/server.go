// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	stderrors "errors"
	"net"
	"sync"

	"github.com/pkg/errors"
)

// Handler is called for each accepted connection. The implementation owns
// the connection lifecycle, typically wrapping it with NewConn and Run.
type Handler interface {
	Handle(conn net.Conn)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(conn net.Conn)

func (f HandlerFunc) Handle(conn net.Conn) { f(conn) }

// Server accepts TCP connections and dispatches them to a Handler.
type Server struct {
	listener net.Listener
	logger   Logger

	mu       sync.Mutex
	shutdown bool
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the logger for the server.
func WithServerLogger(logger Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// NewServer binds a TCP listener on addr.
func NewServer(addr string, opts ...ServerOption) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "listen")
	}

	s := &Server{
		listener: listener,
		logger:   defaultLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Addr returns the listener's address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve accepts connections and dispatches each to handler in its own
// goroutine. It blocks until the context is canceled or the listener fails.
func (s *Server) Serve(ctx context.Context, handler Handler) error {
	s.logger.Info("server listening", "addr", s.Addr())

	go func() {
		<-ctx.Done()
		s.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.shutdown
			s.mu.Unlock()
			if closed || stderrors.Is(err, net.ErrClosed) {
				s.logger.Info("server stopped", "addr", s.Addr())
				return nil
			}
			return errors.Wrap(err, "accept")
		}
		go handler.Handle(conn)
	}
}

// Close stops the listener. Safe to call multiple times.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown {
		return nil
	}
	s.shutdown = true
	return s.listener.Close()
}
