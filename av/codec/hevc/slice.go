// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

import (
	"fmt"
	"runtime/debug"

	"github.com/cnotch/hwdec/utils/bits"
)

// SliceHeader holds the leading fields of slice_segment_header() (7.3.6.1)
// through slice_temporal_mvp_enabled_flag.
type SliceHeader struct {
	NalType NalType
	// parameter sets in effect for the slice
	SPS *SPS
	PPS *PPS

	FirstSliceSegmentInPic bool
	NoOutputOfPriorPics    bool
	PPSID                  uint8
	DependentSliceSegment  bool
	SegmentAddress         uint32

	SliceType     uint8
	PicOutputFlag bool
	ColourPlaneID uint8

	PicOrderCntLsb uint16

	ShortTermRefPicSetSPS bool
	ShortTermRefPicSetIdx uint8
	// ShortTermRPS is the set in use; nil for IDR pictures.
	ShortTermRPS *ShortTermRPS
	// ShortTermRPSBits is the size in bits of an st_ref_pic_set() coded
	// in the slice header, 0 when the set is chosen from the SPS.
	ShortTermRPSBits int

	NumLongTermSPS  int
	NumLongTermPics int
	LongTermPocLsb  []uint16
	LongTermUsed    []bool

	TemporalMVPEnabled bool

	sliceRPS ShortTermRPS
}

// IsIntra reports slice_type == I.
func (h *SliceHeader) IsIntra() bool { return h.SliceType == SliceI }

// ceilLog2 returns Ceil(Log2(n)).
func ceilLog2(n int) int {
	v := 0
	for (1 << uint(v)) < n {
		v++
	}
	return v
}

// decodeSliceHeader parses the header of a slice NAL from its RBSP (after
// the NAL header). prev supplies the inherited fields of a dependent slice
// segment.
func decodeSliceHeader(rbsp []byte, nalType NalType, lookup func(ppsID uint8) (*PPS, *SPS, error),
	prev *SliceHeader) (sh *SliceHeader, err error) {
	defer func() {
		if r := recover(); r != nil {
			sh = nil
			err = fmt.Errorf("slice header decode panic；r = %v \n %s", r, debug.Stack())
		}
	}()

	sh = &SliceHeader{NalType: nalType, PicOutputFlag: true}
	r := bits.NewReader(rbsp)

	sh.FirstSliceSegmentInPic = r.ReadBool()
	if nalType.IsRAP() {
		sh.NoOutputOfPriorPics = r.ReadBool()
	}

	ppsID := r.ReadUe()
	if ppsID >= HEVC_MAX_PPS_COUNT {
		return nil, fmt.Errorf("slice_pic_parameter_set_id out of range: %d", ppsID)
	}
	sh.PPSID = uint8(ppsID)

	pps, sps, err := lookup(sh.PPSID)
	if err != nil {
		return nil, err
	}
	sh.SPS, sh.PPS = sps, pps

	if !sh.FirstSliceSegmentInPic {
		if pps.DependentSliceSegmentsEnabled {
			sh.DependentSliceSegment = r.ReadBool()
		}
		sizeInCtbs := sps.PicWidthInCtbsY() * sps.PicHeightInCtbsY()
		sh.SegmentAddress = r.ReadUint32(ceilLog2(sizeInCtbs))
		if int(sh.SegmentAddress) >= sizeInCtbs {
			return nil, fmt.Errorf("slice_segment_address out of range: %d", sh.SegmentAddress)
		}
	}

	if sh.DependentSliceSegment {
		if prev == nil {
			return nil, fmt.Errorf("dependent slice segment without a preceding slice")
		}
		sh.inherit(prev)
		return sh, nil
	}

	r.Skip(int(pps.NumExtraSliceHeaderBits)) // slice_reserved_flag
	sliceType := r.ReadUe()
	if sliceType > SliceI {
		return nil, fmt.Errorf("slice_type out of range: %d", sliceType)
	}
	sh.SliceType = uint8(sliceType)
	if nalType.IsRAP() && sh.SliceType != SliceI {
		return nil, fmt.Errorf("IRAP picture with non-intra slice type %d", sh.SliceType)
	}

	if pps.OutputFlagPresent {
		sh.PicOutputFlag = r.ReadBool()
	}
	if sps.SeparateColourPlane {
		sh.ColourPlaneID = r.ReadUint8(2)
	}

	if nalType.IsIDR() {
		return sh, nil
	}

	sh.PicOrderCntLsb = r.ReadUint16(sps.Log2MaxPocLsb())

	sh.ShortTermRefPicSetSPS = r.ReadBool()
	if !sh.ShortTermRefPicSetSPS {
		start := r.Offset()
		if err = sh.sliceRPS.decode(r, sps.NumShortTermRefPicSets,
			sps.NumShortTermRefPicSets, sps.StRefPicSets); err != nil {
			return nil, err
		}
		sh.ShortTermRPSBits = r.Offset() - start
		sh.ShortTermRPS = &sh.sliceRPS
	} else {
		if sps.NumShortTermRefPicSets == 0 {
			return nil, fmt.Errorf("short_term_ref_pic_set_sps_flag set without SPS sets")
		}
		if sps.NumShortTermRefPicSets > 1 {
			sh.ShortTermRefPicSetIdx = r.ReadUint8(ceilLog2(sps.NumShortTermRefPicSets))
		}
		if int(sh.ShortTermRefPicSetIdx) >= sps.NumShortTermRefPicSets {
			return nil, fmt.Errorf("short_term_ref_pic_set_idx out of range: %d", sh.ShortTermRefPicSetIdx)
		}
		sh.ShortTermRPS = &sps.StRefPicSets[sh.ShortTermRefPicSetIdx]
	}

	if sps.LongTermRefPicsPresent {
		if sps.NumLongTermRefPicsSPS > 0 {
			sh.NumLongTermSPS = int(r.ReadUe())
			if sh.NumLongTermSPS > sps.NumLongTermRefPicsSPS {
				return nil, fmt.Errorf("num_long_term_sps out of range: %d", sh.NumLongTermSPS)
			}
		}
		sh.NumLongTermPics = int(r.ReadUe())
		if sh.NumLongTermSPS+sh.NumLongTermPics > HEVC_MAX_REFS {
			return nil, fmt.Errorf("too many long-term pictures: %d", sh.NumLongTermSPS+sh.NumLongTermPics)
		}

		n := sh.NumLongTermSPS + sh.NumLongTermPics
		sh.LongTermPocLsb = make([]uint16, n)
		sh.LongTermUsed = make([]bool, n)
		for i := 0; i < n; i++ {
			if i < sh.NumLongTermSPS {
				idx := 0
				if sps.NumLongTermRefPicsSPS > 1 {
					idx = r.ReadInt(ceilLog2(sps.NumLongTermRefPicsSPS))
				}
				sh.LongTermPocLsb[i] = sps.LtRefPicPocLsbSPS[idx]
				sh.LongTermUsed[i] = sps.UsedByCurrPicLtSPS[idx]
			} else {
				sh.LongTermPocLsb[i] = r.ReadUint16(sps.Log2MaxPocLsb())
				sh.LongTermUsed[i] = r.ReadBool()
			}
			if r.ReadBool() { // delta_poc_msb_present_flag
				r.SkipUe() // delta_poc_msb_cycle_lt
			}
		}
	}

	if sps.TemporalMVPEnabled {
		sh.TemporalMVPEnabled = r.ReadBool()
	}
	return sh, nil
}

func (sh *SliceHeader) inherit(prev *SliceHeader) {
	sh.SliceType = prev.SliceType
	sh.PicOutputFlag = prev.PicOutputFlag
	sh.ColourPlaneID = prev.ColourPlaneID
	sh.PicOrderCntLsb = prev.PicOrderCntLsb
	sh.ShortTermRefPicSetSPS = prev.ShortTermRefPicSetSPS
	sh.ShortTermRefPicSetIdx = prev.ShortTermRefPicSetIdx
	sh.ShortTermRPSBits = prev.ShortTermRPSBits
	if prev.ShortTermRPS == &prev.sliceRPS {
		sh.sliceRPS = prev.sliceRPS
		sh.ShortTermRPS = &sh.sliceRPS
	} else {
		sh.ShortTermRPS = prev.ShortTermRPS
	}
	sh.NumLongTermSPS = prev.NumLongTermSPS
	sh.NumLongTermPics = prev.NumLongTermPics
	sh.LongTermPocLsb = prev.LongTermPocLsb
	sh.LongTermUsed = prev.LongTermUsed
	sh.TemporalMVPEnabled = prev.TemporalMVPEnabled
}
