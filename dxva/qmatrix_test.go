// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dxva

import (
	"testing"

	"github.com/cnotch/hwdec/av/codec/hevc"
	"github.com/stretchr/testify/assert"
)

func TestBuildQMatrix(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		qm := BuildQMatrix(&hevc.SPS{ScalingListEnabled: true}, &hevc.PPS{})
		b := qm.Marshal()
		assert.Len(t, b, 1000)
		assert.Equal(t, uint8(16), b[0])
		// sizeId 1 intra Y list starts at 96
		assert.Equal(t, hevc.DefaultScalingListIntra[:], b[96:160])
		// sizeId 1 inter Y list
		assert.Equal(t, hevc.DefaultScalingListInter[:], b[96+3*64:96+4*64])
		// 32x32 inter list
		assert.Equal(t, hevc.DefaultScalingListInter[:], b[864+64:864+128])
		assert.Equal(t, []byte{16, 16, 16, 16, 16, 16, 16, 16}, b[992:])
	})

	t.Run("pps wins", func(t *testing.T) {
		var sl hevc.ScalingList
		sl.SetFlat()
		sl.Lists[3][3][0] = 99
		sl.DC[1][3] = 42
		sps := &hevc.SPS{ScalingListEnabled: true, ScalingListDataPresent: true, ScalingList: &hevc.ScalingList{}}
		pps := &hevc.PPS{ScalingListDataPresent: true, ScalingList: &sl}

		qm := BuildQMatrix(sps, pps)
		assert.Equal(t, uint8(99), qm.ScalingLists3[1][0])
		assert.Equal(t, uint8(42), qm.DCCoefSizeID3[1])
		assert.Equal(t, uint8(16), qm.ScalingLists0[0][0])
	})

	t.Run("disabled", func(t *testing.T) {
		qm := BuildQMatrix(&hevc.SPS{}, &hevc.PPS{})
		for _, v := range qm.Marshal() {
			assert.Equal(t, uint8(16), v)
		}
	})
}

func TestMarshalSlices(t *testing.T) {
	b := MarshalSlices([]SliceShort{
		{BSNALunitDataLocation: 0, SliceBytesInBuffer: 0x80},
		{BSNALunitDataLocation: 0x80, SliceBytesInBuffer: 0x100},
	})
	assert.Equal(t, []byte{
		0, 0, 0, 0, 0x80, 0, 0, 0, 0, 0,
		0x80, 0, 0, 0, 0, 1, 0, 0, 0, 0,
	}, b)
}
