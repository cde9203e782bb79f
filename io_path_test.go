// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package varframe_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"code.hybscloud.com/varframe"
)

func TestReader_WriteTo_DrainsPayloads(t *testing.T) {
	var raw bytes.Buffer
	w := varframe.NewWriter(&raw)
	msgs := [][]byte{
		[]byte("one"),
		{},
		[]byte("two"),
		bytes.Repeat([]byte{'x'}, 500),
	}
	total := 0
	for _, m := range msgs {
		w.Write(m)
		total += len(m)
	}

	r := varframe.NewReader(&raw).(*varframe.Reader)
	var dst bytes.Buffer
	n, err := r.WriteTo(&dst)
	if err != nil {
		t.Fatal(err)
	}
	if n != int64(total) {
		t.Fatalf("n=%d want %d", n, total)
	}
	want := bytes.Join(msgs, nil)
	if !bytes.Equal(dst.Bytes(), want) {
		t.Fatal("payload concatenation mismatch")
	}
}

func TestReader_WriteTo_TruncatedStream(t *testing.T) {
	raw := bytes.NewBuffer([]byte{0x05, 'a', 'b'})
	r := varframe.NewReader(raw).(*varframe.Reader)
	if _, err := r.WriteTo(io.Discard); err != io.ErrUnexpectedEOF {
		t.Fatalf("err=%v want io.ErrUnexpectedEOF", err)
	}
}

func TestReader_WriteTo_ShortWriteGuard(t *testing.T) {
	var raw bytes.Buffer
	varframe.NewWriter(&raw).Write([]byte("abc"))

	r := varframe.NewReader(&raw).(*varframe.Reader)
	if _, err := r.WriteTo(stuckWriter{}); err != io.ErrShortWrite {
		t.Fatalf("err=%v want io.ErrShortWrite", err)
	}
}

type stuckWriter struct{}

func (stuckWriter) Write(p []byte) (int, error) { return 0, nil }

func TestWriter_ReadFrom_ChunkToMessage(t *testing.T) {
	var raw bytes.Buffer
	w := varframe.NewWriter(&raw).(*varframe.Writer)

	n, err := w.ReadFrom(strings.NewReader("hello world"))
	if err != nil {
		t.Fatal(err)
	}
	if n != int64(len("hello world")) {
		t.Fatalf("n=%d", n)
	}

	r := varframe.NewReader(&raw).(*varframe.Reader)
	msg, err := r.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	// strings.Reader delivers everything in one chunk, hence one message.
	if string(msg) != "hello world" {
		t.Fatalf("got %q", msg)
	}
	if _, err := r.ReadMessage(); err != io.EOF {
		t.Fatalf("err=%v want io.EOF", err)
	}
}
