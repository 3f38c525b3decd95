// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

/**
 * Table 7-1 – NAL unit type codes and NAL unit type classes in
 * T-REC-H.265-201802
 */
const (
	NalTrailN    NalType = 0
	NalTrailR    NalType = 1
	NalTsaN      NalType = 2
	NalTsaR      NalType = 3
	NalStsaN     NalType = 4
	NalStsaR     NalType = 5
	NalRadlN     NalType = 6
	NalRadlR     NalType = 7
	NalRaslN     NalType = 8
	NalRaslR     NalType = 9
	NalBlaWLp    NalType = 16
	NalBlaWRadl  NalType = 17
	NalBlaNLp    NalType = 18
	NalIdrWRadl  NalType = 19
	NalIdrNLp    NalType = 20
	NalCraNut    NalType = 21
	NalIrapVcl22 NalType = 22
	NalIrapVcl23 NalType = 23
	NalRsvVcl31  NalType = 31
	NalVps       NalType = 32
	NalSps       NalType = 33
	NalPps       NalType = 34
	NalAud       NalType = 35
	NalEosNut    NalType = 36
	NalEobNut    NalType = 37
	NalFdNut     NalType = 38
	NalSeiPrefix NalType = 39
	NalSeiSuffix NalType = 40
)

// HEVC(h265) slice_type values
const (
	SliceB = 0
	SliceP = 1
	SliceI = 2
)

const (
	// 7.4.3.1: vps_max_sub_layers_minus1 is in [0, 6].
	HEVC_MAX_SUB_LAYERS = 7

	// 7.4.2.1: vps_video_parameter_set_id is u(4).
	HEVC_MAX_VPS_COUNT = 16
	// 7.4.3.2.1: sps_seq_parameter_set_id is in [0, 15].
	HEVC_MAX_SPS_COUNT = 16
	// 7.4.3.3.1: pps_pic_parameter_set_id is in [0, 63].
	HEVC_MAX_PPS_COUNT = 64

	// A.4.2: MaxDpbSize is bounded above by 16.
	HEVC_MAX_DPB_SIZE = 16
	// 7.4.3.1: vps_max_dec_pic_buffering_minus1[i] is in [0, MaxDpbSize - 1].
	HEVC_MAX_REFS = HEVC_MAX_DPB_SIZE

	// 7.4.3.2.1: num_short_term_ref_pic_sets is in [0, 64].
	HEVC_MAX_SHORT_TERM_REF_PIC_SETS = 64
	// 7.4.3.2.1: num_long_term_ref_pics_sps is in [0, 32].
	HEVC_MAX_LONG_TERM_REF_PICS = 32

	// E.3.2: cpb_cnt_minus1[i] is in [0, 31].
	HEVC_MAX_CPB_CNT = 32

	// A.4.1: height/width are bounded above by sqrt(8 * 35651584) = 16888.2 samples.
	HEVC_MAX_WIDTH  = 16888
	HEVC_MAX_HEIGHT = 16888

	// A.4.1: table A.6 allows at most 22 tile rows for any level.
	HEVC_MAX_TILE_ROWS = 22
	// A.4.1: table A.6 allows at most 20 tile columns for any level.
	HEVC_MAX_TILE_COLUMNS = 20
)
