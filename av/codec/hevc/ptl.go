// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

import "github.com/cnotch/hwdec/utils/bits"

// Well known general_profile_idc values.
const (
	ProfileMain             = 1
	ProfileMain10           = 2
	ProfileMainStillPicture = 3
	ProfileRext             = 4
)

// ProfileTierLevel is profile_tier_level() (7.3.3).
type ProfileTierLevel struct {
	GeneralProfileSpace uint8
	GeneralTierFlag     bool
	GeneralProfileIdc   uint8

	// general_profile_compatibility_flag[0..31], MSB first
	GeneralProfileCompatibilityFlags uint32

	GeneralProgressiveSource   bool
	GeneralInterlacedSource    bool
	GeneralNonPackedConstraint bool
	GeneralFrameOnlyConstraint bool
	// the 44 bits following the four source flags, kept raw
	GeneralConstraintIndicatorFlags uint64

	GeneralLevelIdc uint8

	SubLayerProfilePresent [HEVC_MAX_SUB_LAYERS]bool
	SubLayerLevelPresent   [HEVC_MAX_SUB_LAYERS]bool
	SubLayerProfileIdc     [HEVC_MAX_SUB_LAYERS]uint8
	SubLayerLevelIdc       [HEVC_MAX_SUB_LAYERS]uint8
}

// Compatible reports whether the stream conforms to profile idc.
func (ptl *ProfileTierLevel) Compatible(idc uint8) bool {
	if idc > 31 {
		return false
	}
	return ptl.GeneralProfileIdc == idc ||
		ptl.GeneralProfileCompatibilityFlags&(1<<(31-idc)) != 0
}

func (ptl *ProfileTierLevel) decode(r *bits.Reader, profilePresent bool, maxNumSubLayersMinus1 int) {
	if profilePresent {
		ptl.GeneralProfileSpace = r.ReadUint8(2)
		ptl.GeneralTierFlag = r.ReadBool()
		ptl.GeneralProfileIdc = r.ReadUint8(5)
		ptl.GeneralProfileCompatibilityFlags = r.ReadUint32(32)

		ptl.GeneralProgressiveSource = r.ReadBool()
		ptl.GeneralInterlacedSource = r.ReadBool()
		ptl.GeneralNonPackedConstraint = r.ReadBool()
		ptl.GeneralFrameOnlyConstraint = r.ReadBool()
		// 43 bits of profile specific constraint flags + general_inbld_flag
		ptl.GeneralConstraintIndicatorFlags = r.ReadUint64(44)
	}

	ptl.GeneralLevelIdc = r.ReadUint8(8)

	for i := 0; i < maxNumSubLayersMinus1; i++ {
		ptl.SubLayerProfilePresent[i] = r.ReadBool()
		ptl.SubLayerLevelPresent[i] = r.ReadBool()
	}

	if maxNumSubLayersMinus1 > 0 {
		for i := maxNumSubLayersMinus1; i < 8; i++ {
			r.Skip(2) // reserved_zero_2bits
		}
	}

	for i := 0; i < maxNumSubLayersMinus1; i++ {
		if ptl.SubLayerProfilePresent[i] {
			r.Skip(3) // sub_layer_profile_space, sub_layer_tier_flag
			ptl.SubLayerProfileIdc[i] = r.ReadUint8(5)
			r.Skip(32) // sub_layer_profile_compatibility_flag
			r.Skip(48) // source flags, constraint flags, sub_layer_inbld_flag
		}
		if ptl.SubLayerLevelPresent[i] {
			ptl.SubLayerLevelIdc[i] = r.ReadUint8(8)
		}
	}
}

// hrdParameters consumes hrd_parameters() (E.2.2). Only the fields needed
// to stay in sync with the bitstream are decoded.
type hrdParameters struct {
	NalHrdParametersPresent bool
	VclHrdParametersPresent bool
	SubPicHrdParamsPresent  bool
}

func (hrd *hrdParameters) decode(r *bits.Reader, commonInfPresent bool, maxNumSubLayersMinus1 int) {
	if commonInfPresent {
		hrd.NalHrdParametersPresent = r.ReadBool()
		hrd.VclHrdParametersPresent = r.ReadBool()

		if hrd.NalHrdParametersPresent || hrd.VclHrdParametersPresent {
			hrd.SubPicHrdParamsPresent = r.ReadBool()
			if hrd.SubPicHrdParamsPresent {
				r.Skip(8) // tick_divisor_minus2
				r.Skip(5) // du_cpb_removal_delay_increment_length_minus1
				r.Skip(1) // sub_pic_cpb_params_in_pic_timing_sei_flag
				r.Skip(5) // dpb_output_delay_du_length_minus1
			}

			r.Skip(4) // bit_rate_scale
			r.Skip(4) // cpb_size_scale
			if hrd.SubPicHrdParamsPresent {
				r.Skip(4) // cpb_size_du_scale
			}

			r.Skip(5) // initial_cpb_removal_delay_length_minus1
			r.Skip(5) // au_cpb_removal_delay_length_minus1
			r.Skip(5) // dpb_output_delay_length_minus1
		}
	}

	for i := 0; i <= maxNumSubLayersMinus1; i++ {
		fixedPicRateGeneral := r.ReadBool()
		fixedPicRateWithinCvs := true
		if !fixedPicRateGeneral {
			fixedPicRateWithinCvs = r.ReadBool()
		}

		lowDelay := false
		if fixedPicRateWithinCvs {
			r.SkipUe() // elemental_duration_in_tc_minus1
		} else {
			lowDelay = r.ReadBool()
		}

		cpbCntMinus1 := 0
		if !lowDelay {
			cpbCntMinus1 = int(r.ReadUe())
		}

		if hrd.NalHrdParametersPresent {
			hrd.skipSubLayer(r, cpbCntMinus1)
		}
		if hrd.VclHrdParametersPresent {
			hrd.skipSubLayer(r, cpbCntMinus1)
		}
	}
}

func (hrd *hrdParameters) skipSubLayer(r *bits.Reader, cpbCntMinus1 int) {
	for i := 0; i <= cpbCntMinus1; i++ {
		r.SkipUe() // bit_rate_value_minus1
		r.SkipUe() // cpb_size_value_minus1
		if hrd.SubPicHrdParamsPresent {
			r.SkipUe() // cpb_size_du_value_minus1
			r.SkipUe() // bit_rate_du_value_minus1
		}
		r.Skip(1) // cbr_flag
	}
}
