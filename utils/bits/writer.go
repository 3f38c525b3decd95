// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bits

// Writer writes MSB-first bit fields; the inverse of Reader.
type Writer struct {
	buf    []byte
	offset int // bit base
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// WriteBits writes the low n bits of v.
func (w *Writer) WriteBits(v uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		w.WriteBit(uint8(v>>uint(i)) & 1)
	}
}

// WriteBit writes a single bit.
func (w *Writer) WriteBit(b uint8) {
	if w.offset&0x7 == 0 {
		w.buf = append(w.buf, 0)
	}
	if b&1 == 1 {
		w.buf[w.offset>>3] |= 0x80 >> uint(w.offset&0x7)
	}
	w.offset++
}

// WriteBool writes a one bit flag.
func (w *Writer) WriteBool(b bool) {
	if b {
		w.WriteBit(1)
	} else {
		w.WriteBit(0)
	}
}

// WriteUe writes an unsigned Exp-Golomb code.
func (w *Writer) WriteUe(v uint32) {
	code := uint64(v) + 1
	n := 0
	for tmp := code; tmp > 1; tmp >>= 1 {
		n++
	}
	w.WriteBits(0, n)
	w.WriteBits(code, n+1)
}

// WriteSe writes a signed Exp-Golomb code.
func (w *Writer) WriteSe(v int32) {
	if v > 0 {
		w.WriteUe(uint32(v)*2 - 1)
	} else {
		w.WriteUe(uint32(-v) * 2)
	}
}

// WriteTrailingBits writes rbsp_trailing_bits().
func (w *Writer) WriteTrailingBits() {
	w.WriteBit(1)
	for w.offset&0x7 != 0 {
		w.WriteBit(0)
	}
}

// Offset returns the number of bits written.
func (w *Writer) Offset() int { return w.offset }

// Bytes returns the written bytes; a partial last byte is zero padded.
func (w *Writer) Bytes() []byte { return w.buf }
