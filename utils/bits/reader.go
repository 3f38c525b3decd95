// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bits

const uintBitsCount = int(32 << (^uint(0) >> 63))

// maxUeLeadingZeros bounds ue(v) codes to 32-bit values.
const maxUeLeadingZeros = 31

// ErrUeOverflow is raised (as a panic value) when an Exp-Golomb code
// does not fit in 32 bits. Callers recover it together with out-of-range reads.
type ErrUeOverflow struct {
	Offset int
}

func (e ErrUeOverflow) Error() string {
	return "exp-golomb code exceeds 32 bits"
}

// Reader reads MSB-first bit fields from an RBSP.
// Reads past the end of the buffer panic; syntax decoders recover.
type Reader struct {
	buf    []byte
	offset int // bit base
}

// NewReader retruns a new Reader.
func NewReader(buf []byte) *Reader {
	return &Reader{
		buf: buf,
	}
}

// Skip skip n bits.
func (r *Reader) Skip(n int) {
	if n <= 0 {
		return
	}
	_ = r.buf[(r.offset+n-1)>>3] // bounds check hint to compiler; see golang.org/issue/14808
	r.offset += n
}

// Peek peek the uint64 of n bits.
func (r *Reader) Peek(n int) uint64 {
	clone := *r
	return clone.readUint64(n, 64)
}

// Read read the uint32 of n bits.
func (r *Reader) Read(n int) uint32 {
	return uint32(r.readUint64(n, 32))
}

// ReadBit read a bit.
func (r *Reader) ReadBit() uint8 {
	_ = r.buf[r.offset>>3] // bounds check hint to compiler; see golang.org/issue/14808

	tmp := (r.buf[r.offset>>3] >> (7 - r.offset&0x7)) & 1
	r.offset++
	return tmp
}

// ReadUe reads an unsigned Exp-Golomb code, ue(v).
func (r *Reader) ReadUe() uint32 {
	start := r.offset
	zeros := 0
	for r.ReadBit() == 0 {
		zeros++
		if zeros > maxUeLeadingZeros {
			panic(ErrUeOverflow{Offset: start})
		}
	}

	if zeros == 0 {
		return 0
	}
	return uint32((uint64(1)<<uint(zeros))-1) + r.Read(zeros)
}

// ReadSe reads a signed Exp-Golomb code, se(v).
// Code numbers map 1, 2, 3, 4 ... to 1, -1, 2, -2 ...
func (r *Reader) ReadSe() int32 {
	k := r.ReadUe()
	if k&0x01 != 0 {
		return int32((uint64(k) + 1) / 2)
	}
	return -int32(k / 2)
}

// SkipUe discards one ue(v) code.
func (r *Reader) SkipUe() { _ = r.ReadUe() }

// ==== shortcut methods

// ReadBool read one bit bool.
func (r *Reader) ReadBool() bool { return r.ReadBit() == 1 }

// ReadUint read the uint of n bits.
func (r *Reader) ReadUint(n int) uint { return uint(r.readUint64(n, uintBitsCount)) }

// ReadUint8 read the uint8 of n bits.
func (r *Reader) ReadUint8(n int) uint8 { return uint8(r.readUint64(n, 8)) }

// ReadUint16 read the uint16 of n bits.
func (r *Reader) ReadUint16(n int) uint16 { return uint16(r.readUint64(n, 16)) }

// ReadUint32 read the uint32 of n bits.
func (r *Reader) ReadUint32(n int) uint32 { return uint32(r.readUint64(n, 32)) }

// ReadUint64 read the uint64 of n bits.
func (r *Reader) ReadUint64(n int) uint64 { return r.readUint64(n, 64) }

// ReadInt read the int of n bits.
func (r *Reader) ReadInt(n int) int { return int(r.readUint64(n, uintBitsCount)) }

// ReadUe8 read the UE GolombCode of uint8.
func (r *Reader) ReadUe8() uint8 { return uint8(r.ReadUe()) }

// ReadUe16 read the UE GolombCode of uint16.
func (r *Reader) ReadUe16() uint16 { return uint16(r.ReadUe()) }

// ReadSe8 read the SE of int8.
func (r *Reader) ReadSe8() int8 { return int8(r.ReadSe()) }

// ReadSe16 read the SE of int16.
func (r *Reader) ReadSe16() int16 { return int16(r.ReadSe()) }

// Offset returns the offset of bits.
func (r *Reader) Offset() int {
	return r.offset
}

// BitsLeft returns the number of left bits.
func (r *Reader) BitsLeft() int {
	return len(r.buf)<<3 - r.offset
}

// BytesLeft returns the left byte slice.
func (r *Reader) BytesLeft() []byte {
	return r.buf[r.offset>>3:]
}

// ByteAligned reports whether the cursor sits on a byte boundary.
func (r *Reader) ByteAligned() bool {
	return r.offset&0x7 == 0
}

// MoreRBSPData implements more_rbsp_data(): true while payload bits remain
// before the rbsp_stop_one_bit.
func (r *Reader) MoreRBSPData() bool {
	left := r.BitsLeft()
	if left <= 0 {
		return false
	}

	// locate the last set bit, which is the stop bit
	last := len(r.buf) - 1
	for last >= 0 && r.buf[last] == 0 {
		last--
	}
	if last < 0 {
		return false
	}
	b := r.buf[last]
	stop := last<<3 + 7
	for b&1 == 0 {
		b >>= 1
		stop--
	}
	return r.offset < stop
}

var bitsMask = [9]byte{
	0x00,
	0x01, 0x03, 0x07, 0x0f,
	0x1f, 0x3f, 0x7f, 0xff,
}

// readUint64 read the uint64 of n bits.
func (r *Reader) readUint64(n, max int) uint64 {
	if n <= 0 || n > max {
		return 0
	}

	_ = r.buf[(r.offset+n-1)>>3] // bounds check hint to compiler; see golang.org/issue/14808

	idx := r.offset >> 3
	validBits := 8 - r.offset&0x7
	r.offset += n

	var tmp uint64
	for n >= validBits {
		n -= validBits
		tmp |= uint64(r.buf[idx]&bitsMask[validBits]) << n
		idx++
		validBits = 8
	}

	if n > 0 {
		tmp |= uint64((r.buf[idx] >> (validBits - n)) & bitsMask[n])
	}
	return tmp
}
