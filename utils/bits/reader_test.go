// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bits

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// VPS NAL header, vps_video_parameter_set_id..vps_reserved_0xffff_16bits
// and the start of profile_tier_level of a Main profile stream.
var vpsHead = []byte{0x40, 0x01, 0x0c, 0x01, 0xff, 0xff, 0x01, 0x60, 0x00, 0x00, 0x03, 0x00, 0x90}

func TestBitsReader_Fields(t *testing.T) {
	r := NewReader(vpsHead)

	tests := []struct {
		name string
		skip int
		n    int
		want uint64
	}{
		{"forbidden_zero_bit", 0, 1, 0},
		{"nal_unit_type", 0, 6, 32},
		{"nuh_layer_id", 0, 6, 0},
		{"nuh_temporal_id_plus1", 0, 3, 1},
		{"vps_video_parameter_set_id", 0, 4, 0},
		{"vps_base_layer_internal_flag", 0, 1, 1},
		{"vps_base_layer_available_flag", 0, 1, 1},
		{"vps_max_layers_minus1", 0, 6, 0},
		{"vps_max_sub_layers_minus1", 0, 3, 0},
		{"vps_temporal_id_nesting_flag", 0, 1, 1},
		{"vps_reserved_0xffff_16bits", 0, 16, 0xffff},
		{"general_profile_space..tier", 0, 3, 0},
		{"general_profile_idc", 0, 5, 1},
		{"general_profile_compatibility_flags", 0, 32, 0x60000003},
	}
	for _, tt := range tests {
		r.Skip(tt.skip)
		assert.Equal(t, tt.want, r.ReadUint64(tt.n), tt.name)
	}
	assert.Equal(t, 16, r.BitsLeft())
	assert.True(t, r.ByteAligned())
}

func TestBitsReader_Widths(t *testing.T) {
	tests := []struct {
		name string
		read func(r *Reader) uint64
		want uint64
	}{
		{"bit", func(r *Reader) uint64 { return uint64(r.ReadBit()) }, 0},
		{"uint8", func(r *Reader) uint64 { return uint64(r.ReadUint8(8)) }, 0x40},
		{"uint16", func(r *Reader) uint64 { return uint64(r.ReadUint16(16)) }, 0x4001},
		{"uint32", func(r *Reader) uint64 { return uint64(r.ReadUint32(32)) }, 0x40010c01},
		{"uint64 36", func(r *Reader) uint64 { return r.ReadUint64(36) }, 0x40010c01f},
		{"too wide", func(r *Reader) uint64 { return uint64(r.ReadUint8(9)) }, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.read(NewReader(vpsHead)))
		})
	}
}

func TestBitsReader_PeekAndSkip(t *testing.T) {
	r := NewReader(vpsHead)
	assert.Equal(t, uint64(0x4001), r.Peek(16))
	assert.Equal(t, 0, r.Offset())

	r.Skip(16)
	assert.Equal(t, vpsHead[2:], r.BytesLeft())
	assert.Panics(t, func() { r.Skip(len(vpsHead) * 8) })
}

func BenchmarkReadUe(b *testing.B) {
	w := NewWriter()
	w.WriteUe(1919)
	w.WriteTrailingBits()
	data := w.Bytes()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r := NewReader(data)
		_ = r.ReadUe()
	}
}

func BenchmarkReadUint32(b *testing.B) {
	r := NewReader(vpsHead)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.offset = 2
		_ = r.ReadUint32(29)
	}
}

func TestBitsReader_ExpGolomb(t *testing.T) {
	w := NewWriter()
	ues := []uint32{0, 1, 2, 3, 7, 254, 65535, 1<<31 - 1}
	ses := []int32{0, 1, -1, 2, -2, 26, -26, 1 << 20}
	for _, v := range ues {
		w.WriteUe(v)
	}
	for _, v := range ses {
		w.WriteSe(v)
	}
	w.WriteTrailingBits()

	r := NewReader(w.Bytes())
	for _, v := range ues {
		assert.Equal(t, v, r.ReadUe())
	}
	for _, v := range ses {
		assert.Equal(t, v, r.ReadSe())
	}
	assert.False(t, r.MoreRBSPData())
}

func TestBitsReader_ReadSeCodeNumbers(t *testing.T) {
	// 010 -> k=1 -> 1, 011 -> k=2 -> -1, 00100 -> k=3 -> 2
	r := NewReader([]byte{0x4c, 0x80})
	assert.Equal(t, int32(1), r.ReadSe())
	assert.Equal(t, int32(-1), r.ReadSe())
	assert.Equal(t, int32(2), r.ReadSe())
}

func TestBitsReader_MoreRBSPData(t *testing.T) {
	// payload 101, stop bit, alignment zeros
	r := NewReader([]byte{0xb0})
	assert.True(t, r.MoreRBSPData())
	r.Skip(3)
	assert.False(t, r.MoreRBSPData())
	assert.False(t, r.ByteAligned())
}

func TestBitsReader_UeOverflowPanics(t *testing.T) {
	r := NewReader([]byte{0, 0, 0, 0, 0, 0, 0, 0})
	assert.Panics(t, func() { r.ReadUe() })
}
