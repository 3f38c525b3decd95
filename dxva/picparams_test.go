// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dxva

import (
	"encoding/binary"
	"testing"

	"github.com/cnotch/hwdec/av/codec/hevc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSPS720p = "QgEBAWAAAAMAkAAAAwAAAwBdoAKAgC0WWVmkkyuAQAAA+kAAF3AC"

func testPicture(t testing.TB, nalType hevc.NalType, poc int32, refs []Reference) *PictureInfo {
	sps := &hevc.SPS{}
	require.NoError(t, sps.DecodeString(testSPS720p))

	pps := &hevc.PPS{
		NumRefIdxL0DefaultActiveMinus1: 2,
		InitQpMinus26:                  -4,
		CuQpDeltaEnabled:               true,
		DiffCuQpDeltaDepth:             1,
		CbQpOffset:                     -2,
		CrQpOffset:                     3,
		TilesEnabled:                   true,
		NumTileColumnsMinus1:           1,
		UniformSpacing:                 false,
		LoopFilterAcrossTiles:          true,
		LoopFilterAcrossSlices:         true,
		BetaOffsetDiv2:                 2,
		TcOffsetDiv2:                   -1,
		SignDataHidingEnabled:          true,
		Log2ParallelMergeLevelMinus2:   1,
	}
	pps.ColumnWidthMinus1[0] = 4
	require.NoError(t, pps.Resolve(sps))

	sh := &hevc.SliceHeader{NalType: nalType, SliceType: hevc.SliceP, SPS: sps, PPS: pps}
	if nalType.IsIDR() {
		sh.SliceType = hevc.SliceI
	} else {
		sh.ShortTermRPS = &hevc.ShortTermRPS{NumNegativePics: 1, RefRpsNumDeltaPocs: 3}
		sh.ShortTermRPSBits = 6
	}

	return &PictureInfo{
		SPS:            sps,
		PPS:            pps,
		Slice:          sh,
		NalType:        nalType,
		Surface:        3,
		POC:            poc,
		Refs:           refs,
		FeedbackNumber: 7,
	}
}

func TestBuildPicParams_Layout(t *testing.T) {
	refs := []Reference{{Surface: 1, POC: 10}, {Surface: 2, POC: 20}, {Surface: 4, POC: 30}, {Surface: 5, POC: 2, LongTerm: true}}
	pp := BuildPicParams(testPicture(t, hevc.NalTrailR, 25, refs))
	b := pp.Marshal()
	require.Len(t, b, PicParamsSize)
	le := binary.LittleEndian

	// 1280x720 with MinCbSizeY 8
	assert.Equal(t, uint16(160), le.Uint16(b[0:]))
	assert.Equal(t, uint16(90), le.Uint16(b[2:]))
	// chroma 4:2:0, 8 bit, log2_max_poc_lsb_minus4 = 4
	assert.Equal(t, uint16(1|4<<9), le.Uint16(b[4:]))
	assert.Equal(t, uint8(3), b[6])
	assert.Equal(t, uint8(4), b[7])
	assert.Equal(t, uint8(0), b[8])
	assert.Equal(t, uint8(3), b[9])
	assert.Equal(t, uint8(2), b[16])
	assert.Equal(t, uint8(0xfc), b[18])
	assert.Equal(t, uint8(3), b[19])
	assert.Equal(t, uint16(6), le.Uint16(b[20:]))

	// sao, temporal mvp, strong intra, sign data hiding
	assert.Equal(t, uint32(1<<2|1<<18|1<<19|1<<25), le.Uint32(b[24:]))
	// cu_qp_delta, tiles, lf across tiles, lf across slices, no IRAP/IDR/intra
	assert.Equal(t, uint32(1<<2|1<<7|1<<10|1<<11), le.Uint32(b[28:]))

	assert.Equal(t, uint8(0xfe), b[32])
	assert.Equal(t, uint8(3), b[33])
	assert.Equal(t, uint8(1), b[34])
	assert.Equal(t, uint8(0), b[35])
	assert.Equal(t, uint16(4), le.Uint16(b[36:]))
	assert.Equal(t, uint16(14), le.Uint16(b[38:]))
	assert.Equal(t, uint16(11), le.Uint16(b[74:]))
	assert.Equal(t, uint8(1), b[116])
	assert.Equal(t, uint8(2), b[117])
	assert.Equal(t, uint8(0xff), b[118])
	assert.Equal(t, uint8(1), b[119])
	assert.Equal(t, uint32(25), le.Uint32(b[120:]))

	// before {20, 10}, after {30}, long-term {2}
	assert.Equal(t, []byte{2, 1, 4, 5 | 0x80}, b[124:128])
	assert.Equal(t, uint8(0xff), b[128])
	assert.Equal(t, uint32(20), le.Uint32(b[140:]))
	assert.Equal(t, uint32(10), le.Uint32(b[144:]))
	assert.Equal(t, uint32(30), le.Uint32(b[148:]))
	assert.Equal(t, uint32(2), le.Uint32(b[152:]))
	assert.Equal(t, []byte{0, 1, 0xff}, b[200:203])
	assert.Equal(t, []byte{2, 0xff}, b[208:210])
	assert.Equal(t, []byte{3, 0xff}, b[216:218])
	assert.Equal(t, uint32(7), le.Uint32(b[228:]))
}

func TestBuildPicParams_IDRHasNoReferences(t *testing.T) {
	refs := []Reference{{Surface: 1, POC: 10}}
	pp := BuildPicParams(testPicture(t, hevc.NalIdrWRadl, 0, refs))

	for _, e := range pp.RefPicList {
		assert.Equal(t, uint8(InvalidPicEntry), e)
	}
	for i := 0; i < MaxRPSEntries; i++ {
		assert.Equal(t, uint8(InvalidPicEntry), pp.RefPicSetStCurrBefore[i])
		assert.Equal(t, uint8(InvalidPicEntry), pp.RefPicSetStCurrAfter[i])
		assert.Equal(t, uint8(InvalidPicEntry), pp.RefPicSetLtCurr[i])
	}
	assert.Equal(t, uint32(1<<16|1<<17|1<<18), pp.CodingSettingPicturePropertyFlags&(7<<16))
	assert.Equal(t, uint8(0), pp.NumDeltaPocsOfRefRpsIdx)
}

func TestBuildPicParams_ListCapacity(t *testing.T) {
	var refs []Reference
	for i := 0; i < 20; i++ {
		refs = append(refs, Reference{Surface: uint8(i), POC: int32(i)})
	}
	pp := BuildPicParams(testPicture(t, hevc.NalTrailR, 100, refs))

	assert.Equal(t, PicEntry(19, false), pp.RefPicList[0])
	assert.Equal(t, PicEntry(5, false), pp.RefPicList[14])
	assert.Equal(t, int32(19), pp.PicOrderCntValList[0])
	assert.Equal(t, [MaxRPSEntries]uint8{0, 1, 2, 3, 4, 5, 6, 7}, pp.RefPicSetStCurrBefore)
}

func TestPicEntry(t *testing.T) {
	assert.Equal(t, uint8(0x05), PicEntry(5, false))
	assert.Equal(t, uint8(0x85), PicEntry(5, true))
	assert.Equal(t, uint8(0x7f), PicEntry(0xff, false))
}

func TestProfileGUIDs(t *testing.T) {
	assert.Equal(t, "5b11d51b-2f4c-4452-bcc3-09f2a1160cc0", ProfileHEVCMain.String())
	assert.Equal(t, "107af0e0-ef1a-4d19-aba8-67a163073d13", ProfileHEVCMain10.String())
	assert.Equal(t, "1b81be68-a0c7-11d3-b984-00c04f2e73c5", ProfileH264.String())
}

func Benchmark_PicParamsMarshal(b *testing.B) {
	refs := []Reference{{Surface: 1, POC: 10}, {Surface: 2, POC: 20}}
	pi := testPicture(b, hevc.NalTrailR, 25, refs)
	buf := make([]byte, PicParamsSize)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		BuildPicParams(pi).MarshalTo(buf)
	}
}
