// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package varframe

import (
	"bytes"
	"io"
	"testing"
)

func TestBuffer_WriteReadByte(t *testing.T) {
	var b Buffer
	b.Write([]byte{1, 2})
	b.Write([]byte{3})

	if b.Len() != 3 {
		t.Fatalf("Len=%d want 3", b.Len())
	}
	for want := byte(1); want <= 3; want++ {
		c, err := b.ReadByte()
		if err != nil {
			t.Fatal(err)
		}
		if c != want {
			t.Fatalf("c=%d want %d", c, want)
		}
	}
	if _, err := b.ReadByte(); err != io.EOF {
		t.Fatalf("err=%v want io.EOF on drained buffer", err)
	}
}

func TestBuffer_MarkRewind(t *testing.T) {
	var b Buffer
	b.Write([]byte("abcd"))

	b.ReadByte()
	b.Mark()
	b.ReadByte()
	b.ReadByte()
	if b.Len() != 1 {
		t.Fatalf("Len=%d want 1", b.Len())
	}
	b.Rewind()
	if b.Len() != 3 {
		t.Fatalf("Len=%d after Rewind, want 3", b.Len())
	}
	c, _ := b.ReadByte()
	if c != 'b' {
		t.Fatalf("c=%q want 'b'", c)
	}
}

func TestBuffer_NextReturnsView(t *testing.T) {
	var b Buffer
	b.Write([]byte("hello world"))

	v := b.Next(5)
	if string(v) != "hello" {
		t.Fatalf("v=%q", v)
	}
	if b.Len() != 6 {
		t.Fatalf("Len=%d want 6", b.Len())
	}
	// The view's capacity must not extend into pending bytes.
	if cap(v) != len(v) {
		t.Fatalf("cap=%d len=%d, view capacity leaks into pending region", cap(v), len(v))
	}
}

func TestBuffer_ViewsSurviveLaterWrites(t *testing.T) {
	var b Buffer
	b.Write([]byte{0x01, 0x02, 0x03})
	v1 := b.Next(3)
	want := append([]byte(nil), v1...)

	// Fully consumed buffer: the next Write compacts. Emitted views must not
	// be moved or overwritten by it.
	for i := 0; i < 64; i++ {
		b.Write(bytes.Repeat([]byte{0xee}, 128))
		b.Next(128)
	}
	if !bytes.Equal(v1, want) {
		t.Fatalf("retained view changed: %x want %x", v1, want)
	}
}

func TestBuffer_NextOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	var b Buffer
	b.Write([]byte{1})
	b.Next(2)
}

func TestBuffer_Reset(t *testing.T) {
	var b Buffer
	b.Write([]byte("abc"))
	v := b.Next(2)
	b.Reset()
	if b.Len() != 0 {
		t.Fatalf("Len=%d after Reset", b.Len())
	}
	b.Write([]byte("zz"))
	if string(v) != "ab" {
		t.Fatalf("view corrupted by post-Reset write: %q", v)
	}
}
