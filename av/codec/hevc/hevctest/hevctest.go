// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package hevctest builds small synthetic HEVC streams for tests.
package hevctest

import (
	"github.com/cnotch/hwdec/av/codec/hevc"
	"github.com/cnotch/hwdec/utils"
	"github.com/cnotch/hwdec/utils/bits"
)

// Log2MaxPocLsb is the POC LSB width of streams built by this package.
const Log2MaxPocLsb = 8

// SPSOptions tunes the generated SPS.
type SPSOptions struct {
	Width, Height   int
	BitDepth        int // 8 or 10
	MaxDecPicBuffer int // sps_max_dec_pic_buffering_minus1 + 1
	ScalingList     bool
	Log2CtbSize     int // 4..6, default 6
}

func nal(typ hevc.NalType, w *bits.Writer) []byte {
	w.WriteTrailingBits()
	return append([]byte{byte(typ) << 1, 1}, utils.AddEmulationBytes(w.Bytes())...)
}

// SPS returns an SPS NAL unit (header included, no start code).
func SPS(opts SPSOptions) []byte {
	if opts.BitDepth == 0 {
		opts.BitDepth = 8
	}
	if opts.MaxDecPicBuffer == 0 {
		opts.MaxDecPicBuffer = 5
	}
	if opts.Log2CtbSize == 0 {
		opts.Log2CtbSize = 6
	}
	profile := uint64(hevc.ProfileMain)
	if opts.BitDepth > 8 {
		profile = hevc.ProfileMain10
	}

	w := bits.NewWriter()
	w.WriteBits(0, 4) // sps_video_parameter_set_id
	w.WriteBits(0, 3) // sps_max_sub_layers_minus1
	w.WriteBit(1)     // sps_temporal_id_nesting_flag

	// profile_tier_level
	w.WriteBits(0, 2) // general_profile_space
	w.WriteBit(0)     // general_tier_flag
	w.WriteBits(profile, 5)
	w.WriteBits(1<<(31-profile), 32)
	w.WriteBit(1)      // general_progressive_source_flag
	w.WriteBit(0)      // general_interlaced_source_flag
	w.WriteBit(0)      // general_non_packed_constraint_flag
	w.WriteBit(1)      // general_frame_only_constraint_flag
	w.WriteBits(0, 44) // constraint flags
	w.WriteBits(123, 8)

	w.WriteUe(0) // sps_seq_parameter_set_id
	w.WriteUe(1) // chroma_format_idc
	w.WriteUe(uint32(opts.Width))
	w.WriteUe(uint32(opts.Height))
	w.WriteBit(0) // conformance_window_flag
	w.WriteUe(uint32(opts.BitDepth - 8))
	w.WriteUe(uint32(opts.BitDepth - 8))
	w.WriteUe(Log2MaxPocLsb - 4)
	w.WriteBit(1) // sps_sub_layer_ordering_info_present_flag
	w.WriteUe(uint32(opts.MaxDecPicBuffer - 1))
	w.WriteUe(0) // sps_max_num_reorder_pics
	w.WriteUe(0) // sps_max_latency_increase_plus1
	w.WriteUe(0) // log2_min_luma_coding_block_size_minus3
	w.WriteUe(uint32(opts.Log2CtbSize - 3))
	w.WriteUe(0) // log2_min_luma_transform_block_size_minus2
	w.WriteUe(3) // log2_diff_max_min_luma_transform_block_size
	w.WriteUe(0) // max_transform_hierarchy_depth_inter
	w.WriteUe(0) // max_transform_hierarchy_depth_intra
	w.WriteBool(opts.ScalingList)
	if opts.ScalingList {
		w.WriteBit(0) // sps_scaling_list_data_present_flag
	}
	w.WriteBit(1) // amp_enabled_flag
	w.WriteBit(1) // sample_adaptive_offset_enabled_flag
	w.WriteBit(0) // pcm_enabled_flag
	w.WriteUe(0)  // num_short_term_ref_pic_sets
	w.WriteBit(0) // long_term_ref_pics_present_flag
	w.WriteBit(1) // sps_temporal_mvp_enabled_flag
	w.WriteBit(1) // strong_intra_smoothing_enabled_flag
	w.WriteBit(0) // vui_parameters_present_flag
	w.WriteBit(0) // sps_extension_present_flag
	return nal(hevc.NalSps, w)
}

// PPS returns a PPS NAL unit with id 0 referencing SPS 0.
func PPS() []byte {
	w := bits.NewWriter()
	w.WriteUe(0)      // pps_pic_parameter_set_id
	w.WriteUe(0)      // pps_seq_parameter_set_id
	w.WriteBit(0)     // dependent_slice_segments_enabled_flag
	w.WriteBit(0)     // output_flag_present_flag
	w.WriteBits(0, 3) // num_extra_slice_header_bits
	w.WriteBit(0)     // sign_data_hiding_enabled_flag
	w.WriteBit(0)     // cabac_init_present_flag
	w.WriteUe(0)      // num_ref_idx_l0_default_active_minus1
	w.WriteUe(0)      // num_ref_idx_l1_default_active_minus1
	w.WriteSe(0)      // init_qp_minus26
	w.WriteBit(0)     // constrained_intra_pred_flag
	w.WriteBit(0)     // transform_skip_enabled_flag
	w.WriteBit(0)     // cu_qp_delta_enabled_flag
	w.WriteSe(0)      // pps_cb_qp_offset
	w.WriteSe(0)      // pps_cr_qp_offset
	w.WriteBit(0)     // pps_slice_chroma_qp_offsets_present_flag
	w.WriteBit(0)     // weighted_pred_flag
	w.WriteBit(0)     // weighted_bipred_flag
	w.WriteBit(0)     // transquant_bypass_enabled_flag
	w.WriteBit(0)     // tiles_enabled_flag
	w.WriteBit(0)     // entropy_coding_sync_enabled_flag
	w.WriteBit(1)     // pps_loop_filter_across_slices_enabled_flag
	w.WriteBit(0)     // deblocking_filter_control_present_flag
	w.WriteBit(0)     // pps_scaling_list_data_present_flag
	w.WriteBit(0)     // lists_modification_present_flag
	w.WriteUe(0)      // log2_parallel_merge_level_minus2
	w.WriteBit(0)     // slice_segment_header_extension_present_flag
	w.WriteBit(0)     // pps_extension_present_flag
	return nal(hevc.NalPps, w)
}

// IDR returns the first slice segment of an IDR_W_RADL picture.
func IDR() []byte {
	w := bits.NewWriter()
	w.WriteBit(1) // first_slice_segment_in_pic_flag
	w.WriteBit(0) // no_output_of_prior_pics_flag
	w.WriteUe(0)  // slice_pic_parameter_set_id
	w.WriteUe(hevc.SliceI)
	w.WriteBits(0x5A5A, 16) // slice data stand-in
	return nal(hevc.NalIdrWRadl, w)
}

// Trail returns the first slice segment of a TRAIL_R P picture with one
// short-term reference one picture back.
func Trail(pocLsb int) []byte {
	w := bits.NewWriter()
	w.WriteBit(1) // first_slice_segment_in_pic_flag
	w.WriteUe(0)  // slice_pic_parameter_set_id
	w.WriteUe(hevc.SliceP)
	w.WriteBits(uint64(pocLsb), Log2MaxPocLsb)
	w.WriteBit(0) // short_term_ref_pic_set_sps_flag
	w.WriteUe(1)  // num_negative_pics
	w.WriteUe(0)  // num_positive_pics
	w.WriteUe(0)  // delta_poc_s0_minus1
	w.WriteBit(1) // used_by_curr_pic_s0_flag
	w.WriteBit(1) // slice_temporal_mvp_enabled_flag
	w.WriteBits(0xA5A5, 16)
	return nal(hevc.NalTrailR, w)
}

// AnnexB joins units with four byte start codes.
func AnnexB(units ...[]byte) []byte {
	return utils.JoinAnnexB(units)
}

// KeyFrame returns SPS + PPS + IDR in Annex-B framing.
func KeyFrame(opts SPSOptions) []byte {
	return AnnexB(SPS(opts), PPS(), IDR())
}
