// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package varframe

import "io"

// Buffer is an accumulating byte buffer with an explicit read cursor.
//
// A transport appends arriving chunks with Write; a Decoder consumes bytes
// through ReadByte/Next and may save and restore the cursor with Mark/Rewind.
// Bytes before the cursor are consumed; bytes from the cursor onward are
// pending. The zero value is ready to use.
//
// Views returned by Next share the underlying storage with the buffer
// (a retained slice, no copy). The buffer never moves or overwrites storage
// that an emitted view can still reference: compaction drops the consumed
// prefix by reslicing, and appends only ever land past every emitted view.
type Buffer struct {
	buf  []byte
	off  int // read cursor into buf
	mark int // saved cursor for Rewind
}

// Write appends p to the pending region. It implements io.Writer and never
// fails.
func (b *Buffer) Write(p []byte) (int, error) {
	b.compact()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// WriteByte appends a single byte. It implements io.ByteWriter.
func (b *Buffer) WriteByte(c byte) error {
	b.compact()
	b.buf = append(b.buf, c)
	return nil
}

// compact drops the consumed prefix so the backing array stops growing
// without bound on long streams. Reslicing only: consumed bytes may still be
// referenced by views emitted via Next, so they must not be moved or reused.
func (b *Buffer) compact() {
	if b.off == 0 {
		return
	}
	b.buf = b.buf[b.off:]
	b.off = 0
	b.mark = 0
}

// Len returns the number of pending (unconsumed) bytes.
func (b *Buffer) Len() int { return len(b.buf) - b.off }

// ReadByte consumes and returns the next pending byte. It implements
// io.ByteReader and returns io.EOF when no bytes are pending.
func (b *Buffer) ReadByte() (byte, error) {
	if b.off >= len(b.buf) {
		return 0, io.EOF
	}
	c := b.buf[b.off]
	b.off++
	return c, nil
}

// Mark saves the current cursor position. A later Rewind restores it.
// There is a single mark slot; Mark overwrites any previous mark.
func (b *Buffer) Mark() { b.mark = b.off }

// Rewind restores the cursor to the last marked position, logically
// un-consuming every byte read since Mark.
func (b *Buffer) Rewind() { b.off = b.mark }

// Next consumes the next n pending bytes and returns them as a view sharing
// the buffer's storage. The view stays valid for as long as the caller holds
// it; subsequent writes to the buffer never alias into it. Next panics if
// fewer than n bytes are pending.
func (b *Buffer) Next(n int) []byte {
	if n < 0 || n > b.Len() {
		panic("varframe: Next out of range")
	}
	v := b.buf[b.off : b.off+n : b.off+n]
	b.off += n
	return v
}

// Bytes returns the pending region without consuming it. The slice is only
// valid until the next Write.
func (b *Buffer) Bytes() []byte { return b.buf[b.off:] }

// Reset discards all contents and detaches from the current storage, so any
// previously emitted views remain intact.
func (b *Buffer) Reset() {
	b.buf = nil
	b.off = 0
	b.mark = 0
}

// pos reports the cursor position; pair with seek to implement save/restore
// that is independent of the single Mark slot.
func (b *Buffer) pos() int { return b.off }

func (b *Buffer) seek(p int) { b.off = p }
