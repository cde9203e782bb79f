// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code.hybscloud.com/varframe"
)

func TestServer_EchoRoundTrip(t *testing.T) {
	srv, err := NewServer("127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- srv.Serve(ctx, HandlerFunc(func(nc net.Conn) {
			var c *Conn
			c, cerr := NewConn(nc,
				OnMessage(func(payload []byte) error {
					return c.Write(payload)
				}),
				WithSendBufferSize(8),
			)
			if cerr != nil {
				nc.Close()
				return
			}
			_ = c.Run(ctx)
		}))
	}()

	client, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	w := varframe.NewWriter(client)
	r := varframe.NewReader(client).(*varframe.Reader)

	for _, msg := range []string{"one", "two", "three"} {
		_, err = w.Write([]byte(msg))
		require.NoError(t, err)

		got, err := r.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, msg, string(got))
	}

	cancel()
	select {
	case err := <-serveDone:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop on context cancel")
	}
}

func TestServer_CloseIsIdempotent(t *testing.T) {
	srv, err := NewServer("127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, srv.Close())
	require.NoError(t, srv.Close())
}

func TestServer_ServeReturnsAfterClose(t *testing.T) {
	srv, err := NewServer("127.0.0.1:0")
	require.NoError(t, err)

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- srv.Serve(context.Background(), HandlerFunc(func(nc net.Conn) {
			nc.Close()
		}))
	}()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, srv.Close())

	select {
	case err := <-serveDone:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after Close")
	}
}
