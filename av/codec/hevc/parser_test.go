// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/cnotch/hwdec/utils"
	"github.com/cnotch/hwdec/utils/bits"
	"github.com/cnotch/xlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 1280x720, 8 bit, 8 bit poc lsb, CTB 64, no st rps sets, temporal mvp
const testSPS720p = "QgEBAWAAAAMAkAAAAwAAAwBdoAKAgC0WWVmkkyuAQAAA+kAAF3AC"

func nalBytes(typ NalType, w *bits.Writer) []byte {
	w.WriteTrailingBits()
	return append([]byte{byte(typ) << 1, 1}, utils.AddEmulationBytes(w.Bytes())...)
}

func mustNAL(t *testing.T, data []byte) NALUnit {
	nal, err := ParseNALUnit(data)
	require.NoError(t, err)
	return nal
}

func testPPS(id uint32, dependent bool) []byte {
	w := bits.NewWriter()
	w.WriteUe(id) // pps_pic_parameter_set_id
	w.WriteUe(0)  // pps_seq_parameter_set_id
	w.WriteBool(dependent)
	w.WriteBit(0)     // output_flag_present_flag
	w.WriteBits(0, 3) // num_extra_slice_header_bits
	w.WriteBit(1)     // sign_data_hiding_enabled_flag
	w.WriteBit(0)     // cabac_init_present_flag
	w.WriteUe(2)      // num_ref_idx_l0_default_active_minus1
	w.WriteUe(0)      // num_ref_idx_l1_default_active_minus1
	w.WriteSe(-4)     // init_qp_minus26
	w.WriteBit(0)     // constrained_intra_pred_flag
	w.WriteBit(1)     // transform_skip_enabled_flag
	w.WriteBit(1)     // cu_qp_delta_enabled_flag
	w.WriteUe(1)      // diff_cu_qp_delta_depth
	w.WriteSe(-2)     // pps_cb_qp_offset
	w.WriteSe(3)      // pps_cr_qp_offset
	w.WriteBit(0)     // pps_slice_chroma_qp_offsets_present_flag
	w.WriteBit(1)     // weighted_pred_flag
	w.WriteBit(0)     // weighted_bipred_flag
	w.WriteBit(0)     // transquant_bypass_enabled_flag
	w.WriteBool(!dependent)
	w.WriteBit(0) // entropy_coding_sync_enabled_flag
	if !dependent {
		w.WriteUe(1)  // num_tile_columns_minus1
		w.WriteUe(0)  // num_tile_rows_minus1
		w.WriteBit(0) // uniform_spacing_flag
		w.WriteUe(4)  // column_width_minus1[0]
		w.WriteBit(1) // loop_filter_across_tiles_enabled_flag
	}
	w.WriteBit(1) // pps_loop_filter_across_slices_enabled_flag
	w.WriteBit(1) // deblocking_filter_control_present_flag
	w.WriteBit(0) // deblocking_filter_override_enabled_flag
	w.WriteBit(0) // pps_deblocking_filter_disabled_flag
	w.WriteSe(2)  // pps_beta_offset_div2
	w.WriteSe(-1) // pps_tc_offset_div2
	w.WriteBit(0) // pps_scaling_list_data_present_flag
	w.WriteBit(0) // lists_modification_present_flag
	w.WriteUe(0)  // log2_parallel_merge_level_minus2
	w.WriteBit(0) // slice_segment_header_extension_present_flag
	w.WriteBit(0) // pps_extension_present_flag
	return nalBytes(NalPps, w)
}

func testIDRSlice() []byte {
	w := bits.NewWriter()
	w.WriteBit(1) // first_slice_segment_in_pic_flag
	w.WriteBit(0) // no_output_of_prior_pics_flag
	w.WriteUe(0)  // slice_pic_parameter_set_id
	w.WriteUe(SliceI)
	w.WriteBits(0xAA, 8) // slice data stand-in
	return nalBytes(NalIdrWRadl, w)
}

func testPSlice(ppsID uint32, pocLsb uint64) []byte {
	w := bits.NewWriter()
	w.WriteBit(1) // first_slice_segment_in_pic_flag
	w.WriteUe(ppsID)
	w.WriteUe(SliceP)
	w.WriteBits(pocLsb, 8)
	w.WriteBit(0) // short_term_ref_pic_set_sps_flag
	w.WriteUe(1)  // num_negative_pics
	w.WriteUe(0)  // num_positive_pics
	w.WriteUe(0)  // delta_poc_s0_minus1
	w.WriteBit(1) // used_by_curr_pic_s0_flag
	w.WriteBit(1) // slice_temporal_mvp_enabled_flag
	return nalBytes(NalTrailR, w)
}

func testDependentSlice(ppsID uint32, address uint64) []byte {
	w := bits.NewWriter()
	w.WriteBit(0) // first_slice_segment_in_pic_flag
	w.WriteUe(ppsID)
	w.WriteBit(1)           // dependent_slice_segment_flag
	w.WriteBits(address, 8) // Ceil(Log2(20 * 12))
	return nalBytes(NalTrailR, w)
}

func newTestParser(t *testing.T) *Parser {
	sps, err := base64.StdEncoding.DecodeString(testSPS720p)
	require.NoError(t, err)

	p := NewParser(xlog.L())
	p.ProcessNAL(mustNAL(t, sps))
	p.ProcessNAL(mustNAL(t, testPPS(0, false)))
	p.ProcessNAL(mustNAL(t, testPPS(1, true)))
	return p
}

func TestParser_Dimensions(t *testing.T) {
	p := NewParser(nil)
	_, _, _, ok := p.Dimensions()
	assert.False(t, ok)

	p = newTestParser(t)
	w, h, hdr, ok := p.Dimensions()
	assert.True(t, ok)
	assert.Equal(t, 1280, w)
	assert.Equal(t, 720, h)
	assert.False(t, hdr)

	p.Reset()
	_, _, _, ok = p.Dimensions()
	assert.False(t, ok)
	assert.Nil(t, p.PPS(0))
}

func TestParser_PPS(t *testing.T) {
	p := newTestParser(t)
	pps := p.PPS(0)
	require.NotNil(t, pps)

	assert.True(t, pps.SignDataHidingEnabled)
	assert.Equal(t, uint8(2), pps.NumRefIdxL0DefaultActiveMinus1)
	assert.Equal(t, int8(-4), pps.InitQpMinus26)
	assert.True(t, pps.TransformSkipEnabled)
	assert.True(t, pps.CuQpDeltaEnabled)
	assert.Equal(t, uint8(1), pps.DiffCuQpDeltaDepth)
	assert.Equal(t, int8(-2), pps.CbQpOffset)
	assert.Equal(t, int8(3), pps.CrQpOffset)
	assert.True(t, pps.WeightedPred)
	assert.True(t, pps.TilesEnabled)
	assert.Equal(t, uint8(1), pps.NumTileColumnsMinus1)
	assert.False(t, pps.UniformSpacing)
	assert.Equal(t, uint16(4), pps.ColumnWidthMinus1[0])
	assert.True(t, pps.LoopFilterAcrossSlices)
	assert.Equal(t, int8(2), pps.BetaOffsetDiv2)
	assert.Equal(t, int8(-1), pps.TcOffsetDiv2)

	require.NoError(t, pps.Resolve(p.SPS(0)))
	// 1280 / 64 = 20 CTB columns, the last one spans 15
	assert.Equal(t, uint16(14), pps.ColumnWidthMinus1[1])
	// 720 / 64 rounds up to 12 CTB rows
	assert.Equal(t, uint16(11), pps.RowHeightMinus1[0])
}

func TestParser_ParseSliceHeader(t *testing.T) {
	p := newTestParser(t)

	idr, err := p.ParseSliceHeader(mustNAL(t, testIDRSlice()))
	require.NoError(t, err)
	assert.True(t, idr.FirstSliceSegmentInPic)
	assert.True(t, idr.IsIntra())
	assert.Nil(t, idr.ShortTermRPS)
	assert.Equal(t, p.SPS(0), idr.SPS)

	sh, err := p.ParseSliceHeader(mustNAL(t, testPSlice(1, 5)))
	require.NoError(t, err)
	assert.Equal(t, uint8(SliceP), sh.SliceType)
	assert.Equal(t, uint16(5), sh.PicOrderCntLsb)
	assert.False(t, sh.ShortTermRefPicSetSPS)
	require.NotNil(t, sh.ShortTermRPS)
	assert.Equal(t, 1, sh.ShortTermRPS.NumNegativePics)
	assert.Equal(t, int32(-1), sh.ShortTermRPS.DeltaPocS0[0])
	assert.Equal(t, 6, sh.ShortTermRPSBits)
	assert.True(t, sh.TemporalMVPEnabled)

	dep, err := p.ParseSliceHeader(mustNAL(t, testDependentSlice(1, 10)))
	require.NoError(t, err)
	assert.True(t, dep.DependentSliceSegment)
	assert.Equal(t, uint32(10), dep.SegmentAddress)
	assert.Equal(t, uint16(5), dep.PicOrderCntLsb)
	assert.Equal(t, uint8(SliceP), dep.SliceType)
	assert.Equal(t, 6, dep.ShortTermRPSBits)
}

func TestParser_UnknownParameterSets(t *testing.T) {
	p := NewParser(nil)
	_, err := p.ParseSliceHeader(mustNAL(t, testIDRSlice()))
	assert.True(t, errors.Is(err, ErrUnknownPPS))

	p.ProcessNAL(mustNAL(t, testPPS(0, false)))
	_, err = p.ParseSliceHeader(mustNAL(t, testIDRSlice()))
	assert.True(t, errors.Is(err, ErrUnknownSPS))

	_, err = p.ParseSliceHeader(mustNAL(t, []byte{byte(NalSps) << 1, 1, 0}))
	assert.Equal(t, ErrNotSlice, err)
}

func TestParser_MalformedParameterSetKeepsPrevious(t *testing.T) {
	p := newTestParser(t)
	sps := p.SPS(0)

	p.ProcessNAL(mustNAL(t, []byte{byte(NalSps) << 1, 1, 0x01}))
	assert.Same(t, sps, p.SPS(0))

	p.ProcessNAL(mustNAL(t, []byte{byte(NalPps) << 1, 1}))
	assert.NotNil(t, p.PPS(0))
}

func TestParser_FindNALUnits(t *testing.T) {
	p := NewParser(nil)
	assert.Nil(t, p.FindNALUnits([]byte{0x12, 0x34, 0x56}))

	buf := append([]byte{0, 0, 0, 1}, testIDRSlice()...)
	nals := p.FindNALUnits(buf)
	require.Len(t, nals, 1)
	assert.Equal(t, NalIdrWRadl, nals[0].Type)
}
