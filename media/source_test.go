// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package media

import (
	"bytes"
	"io"
	"testing"

	"github.com/cnotch/hwdec/av/codec/hevc/hevctest"
	"github.com/cnotch/hwdec/decoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var startCode = []byte{0, 0, 0, 1}

func annexB(nalus ...[]byte) []byte {
	var b []byte
	for _, n := range nalus {
		b = append(b, startCode...)
		b = append(b, n...)
	}
	return b
}

// hevc header of type t followed by payload
func hevcNAL(t byte, payload ...byte) []byte {
	return append([]byte{t << 1, 1}, payload...)
}

func TestSplitAccessUnits_HEVC(t *testing.T) {
	vps := hevcNAL(32, 0x0c)
	sps := hevcNAL(33, 0x01)
	pps := hevcNAL(34, 0xc1)
	idr := hevcNAL(19, 0xaf, 0x01)
	idrSeg := hevcNAL(19, 0x20, 0x02) // dependent segment of the same picture
	trail := hevcNAL(1, 0xa0, 0x03)
	trail2 := hevcNAL(1, 0x80, 0x04)

	stream := annexB(vps, sps, pps, idr, idrSeg, trail, trail2)
	aus, err := SplitAccessUnits(decoder.CodecHEVC, stream)
	require.NoError(t, err)
	require.Len(t, aus, 3)

	assert.Equal(t, annexB(vps, sps, pps, idr, idrSeg), aus[0])
	assert.Equal(t, annexB(trail), aus[1])
	assert.Equal(t, annexB(trail2), aus[2])
}

func TestSplitAccessUnits_H264(t *testing.T) {
	sps := []byte{0x67, 0x42}
	pps := []byte{0x68, 0xce}
	idr := []byte{0x65, 0x88, 0x01}
	p1 := []byte{0x41, 0x9a, 0x02}
	p1b := []byte{0x41, 0x40, 0x03} // first_mb_in_slice != 0

	aus, err := SplitAccessUnits(decoder.CodecH264, annexB(sps, pps, idr, p1, p1b))
	require.NoError(t, err)
	require.Len(t, aus, 2)
	assert.Equal(t, annexB(sps, pps, idr), aus[0])
	assert.Equal(t, annexB(p1, p1b), aus[1])
}

func TestSplitAccessUnits_Empty(t *testing.T) {
	_, err := SplitAccessUnits(decoder.CodecHEVC, nil)
	assert.Error(t, err)
}

func TestFileSource(t *testing.T) {
	stream := annexB(hevcNAL(19, 0x80), hevcNAL(1, 0x80))

	tests := []struct {
		name string
		loop bool
		want int
	}{
		{"once", false, 2},
		{"loop", true, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := NewFileSource(bytes.NewReader(stream), decoder.CodecHEVC, tt.loop)
			require.NoError(t, err)
			assert.Equal(t, 2, src.Len())

			n := 0
			for ; n < 5; n++ {
				au, err := src.Next()
				if err == io.EOF {
					break
				}
				require.NoError(t, err)
				assert.NotEmpty(t, au)
			}
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestFileSource_SeekKeyframe(t *testing.T) {
	idr := hevcNAL(19, 0x80)
	trail := hevcNAL(1, 0x80)
	cra := hevcNAL(21, 0x80)
	stream := annexB(idr, trail, trail, cra, trail)

	src, err := NewFileSource(bytes.NewReader(stream), decoder.CodecHEVC, false)
	require.NoError(t, err)
	require.Equal(t, 5, src.Len())

	_, _ = src.Next()
	require.True(t, src.SeekKeyframe())
	au, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, annexB(cra), au)

	assert.False(t, src.SeekKeyframe())

	looping, err := NewFileSource(bytes.NewReader(stream), decoder.CodecHEVC, true)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		_, _ = looping.Next()
	}
	require.True(t, looping.SeekKeyframe())
	au, err = looping.Next()
	require.NoError(t, err)
	assert.Equal(t, annexB(idr), au)
}

func TestSplitAccessUnits_LongStream(t *testing.T) {
	units := [][]byte{
		hevctest.SPS(hevctest.SPSOptions{Width: 640, Height: 360}),
		hevctest.PPS(),
		hevctest.IDR(),
	}
	for i := 1; i <= 40; i++ {
		units = append(units, hevctest.Trail(i))
	}
	stream := hevctest.AnnexB(units...)

	aus, err := SplitAccessUnits(decoder.CodecHEVC, stream)
	require.NoError(t, err)
	require.Len(t, aus, 41)
	assert.Equal(t, hevctest.AnnexB(units[:3]...), aus[0])
	assert.Equal(t, hevctest.AnnexB(hevctest.Trail(40)), aus[40])

	src, err := NewFileSource(bytes.NewReader(stream), decoder.CodecHEVC, false)
	require.NoError(t, err)
	assert.Equal(t, 41, src.Len())
	assert.True(t, src.keys[0])
	assert.False(t, src.keys[1])
}
