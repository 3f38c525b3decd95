// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package decoder

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/cnotch/hwdec/av/codec/hevc"
	"github.com/stretchr/testify/assert"
)

func sliceNALs(sizes ...int) []hevc.NALUnit {
	nals := make([]hevc.NALUnit, len(sizes))
	for i, n := range sizes {
		data := bytes.Repeat([]byte{byte(i + 1)}, n)
		data[0] = byte(hevc.NalTrailR) << 1
		nals[i] = hevc.NALUnit{Type: hevc.NalTrailR, Data: data}
	}
	return nals
}

func TestBuildBitstream_Padding(t *testing.T) {
	cases := [][]int{
		{2}, {125}, {126}, {128}, {129}, {300, 7}, {50, 50, 50}, {1000, 24, 3, 128},
	}
	for _, sizes := range cases {
		for _, startCodes := range []bool{false, true} {
			t.Run(fmt.Sprintf("%v/%v", sizes, startCodes), func(t *testing.T) {
				buf, controls := BuildBitstream(sliceNALs(sizes...), startCodes)
				assert.Zero(t, len(buf)%128)
				assert.Len(t, controls, len(sizes))

				sum := 0
				for i, c := range controls {
					assert.Equal(t, uint32(sum), c.BSNALunitDataLocation)
					assert.Zero(t, c.BadSliceChopping)
					if startCodes {
						assert.Equal(t, []byte{0, 0, 1}, buf[sum:sum+3])
						assert.Equal(t, byte(hevc.NalTrailR)<<1, buf[sum+3])
					} else {
						assert.Equal(t, byte(hevc.NalTrailR)<<1, buf[sum])
					}
					if i < len(controls)-1 {
						want := sizes[i]
						if startCodes {
							want += 3
						}
						assert.Equal(t, uint32(want), c.SliceBytesInBuffer)
					}
					sum += int(c.SliceBytesInBuffer)
				}
				assert.Equal(t, len(buf), sum)
			})
		}
	}
}

func TestBuildBitstream_Empty(t *testing.T) {
	buf, controls := BuildBitstream(nil, true)
	assert.Empty(t, buf)
	assert.Empty(t, controls)
}
