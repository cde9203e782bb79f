// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package varframe

// Base-128 varint32, Google Protocol Buffers wire framing flavor: 1 to 5
// bytes, low-order 7-bit groups first, bit 7 of each byte is the
// continuation flag. The decoded value is reinterpreted as a signed 32-bit
// integer, so encodings that set the top bit come back negative.

// MaxVarint32Len is the maximum number of bytes a varint32 occupies.
const MaxVarint32Len = 5

// readRawVarint32 decodes a varint32 at b's cursor.
//
// Returns (0, nil) with the cursor unmoved when the buffer is empty or ends
// in the middle of the varint (short read); the caller detects progress by
// comparing cursor positions, not by the value. Returns ErrMalformedVarint
// when the 5th byte still has its continuation flag set. On success the
// cursor has advanced past exactly the prefix bytes.
func readRawVarint32(b *Buffer) (int32, error) {
	if b.Len() == 0 {
		return 0, nil
	}
	b.Mark()
	var result int32
	for i := 0; i < MaxVarint32Len; i++ {
		if b.Len() == 0 {
			// Short read mid-varint: un-consume everything and wait for more.
			b.Rewind()
			return 0, nil
		}
		c, _ := b.ReadByte()
		// Byte i contributes bits [7i, 7i+6]. The 5th byte's high groups
		// fall off the top of int32, matching the reference 32-bit shift.
		result |= int32(c&0x7f) << (7 * i)
		if c&0x80 == 0 {
			return result, nil
		}
	}
	return 0, ErrMalformedVarint
}

// Varint32Len returns the number of bytes AppendVarint32 emits for v.
func Varint32Len(v int32) int {
	u := uint32(v)
	n := 1
	for u >= 0x80 {
		u >>= 7
		n++
	}
	return n
}

// AppendVarint32 appends the varint32 encoding of v to dst and returns the
// extended slice. Negative values occupy the full 5 bytes.
func AppendVarint32(dst []byte, v int32) []byte {
	u := uint32(v)
	for u >= 0x80 {
		dst = append(dst, byte(u)|0x80)
		u >>= 7
	}
	return append(dst, byte(u))
}

// AppendFrame appends one whole frame, varint32 length prefix followed by
// payload, to dst and returns the extended slice.
func AppendFrame(dst, payload []byte) []byte {
	dst = AppendVarint32(dst, int32(len(payload)))
	return append(dst, payload...)
}
