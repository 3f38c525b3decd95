// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/cnotch/hwdec/utils"
	"github.com/cnotch/hwdec/utils/bits"
)

// PPS is a decoded pic_parameter_set_rbsp() (7.3.2.3).
type PPS struct {
	ID    uint8
	SPSID uint8

	DependentSliceSegmentsEnabled bool
	OutputFlagPresent             bool
	NumExtraSliceHeaderBits       uint8
	SignDataHidingEnabled         bool
	CabacInitPresent              bool

	NumRefIdxL0DefaultActiveMinus1 uint8
	NumRefIdxL1DefaultActiveMinus1 uint8
	InitQpMinus26                  int8

	ConstrainedIntraPred bool
	TransformSkipEnabled bool

	CuQpDeltaEnabled     bool
	DiffCuQpDeltaDepth   uint8
	CbQpOffset           int8
	CrQpOffset           int8
	SliceChromaQpOffsets bool

	WeightedPred         bool
	WeightedBipred       bool
	TransquantBypass     bool
	TilesEnabled         bool
	EntropyCodingSync    bool
	NumTileColumnsMinus1 uint8
	NumTileRowsMinus1    uint8
	UniformSpacing       bool
	// explicit sizes when !UniformSpacing, the last tile included
	ColumnWidthMinus1 [HEVC_MAX_TILE_COLUMNS]uint16
	RowHeightMinus1   [HEVC_MAX_TILE_ROWS]uint16

	LoopFilterAcrossTiles  bool
	LoopFilterAcrossSlices bool

	DeblockingFilterControlPresent  bool
	DeblockingFilterOverrideEnabled bool
	DeblockingFilterDisabled        bool
	BetaOffsetDiv2                  int8
	TcOffsetDiv2                    int8

	ScalingListDataPresent bool
	// ScalingList is set when ScalingListDataPresent.
	ScalingList *ScalingList

	ListsModificationPresent     bool
	Log2ParallelMergeLevelMinus2 uint8
	SliceSegmentHeaderExtension  bool
}

// Decode 从字节序列中解码 pps NAL
func (pps *PPS) Decode(data []byte) error {
	rbsp := utils.RemoveEmulationBytes(data)
	if len(rbsp) < 3 {
		return errors.New("The data is not enough")
	}
	if NalType((rbsp[0]>>1)&0x3f) != NalPps {
		return errors.New("not is pps NAL UNIT")
	}
	return pps.DecodeRBSP(rbsp[2:])
}

// DecodeRBSP decodes the payload following the two byte NAL header.
// Tile sizes are validated later against the referenced SPS, see Resolve.
func (pps *PPS) DecodeRBSP(rbsp []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PPS decode panic；r = %v \n %s", r, debug.Stack())
		}
	}()

	*pps = PPS{}
	r := bits.NewReader(rbsp)

	id := r.ReadUe()
	if id >= HEVC_MAX_PPS_COUNT {
		return fmt.Errorf("pps_pic_parameter_set_id out of range: %d", id)
	}
	pps.ID = uint8(id)
	spsID := r.ReadUe()
	if spsID >= HEVC_MAX_SPS_COUNT {
		return fmt.Errorf("pps_seq_parameter_set_id out of range: %d", spsID)
	}
	pps.SPSID = uint8(spsID)

	pps.DependentSliceSegmentsEnabled = r.ReadBool()
	pps.OutputFlagPresent = r.ReadBool()
	pps.NumExtraSliceHeaderBits = r.ReadUint8(3)
	pps.SignDataHidingEnabled = r.ReadBool()
	pps.CabacInitPresent = r.ReadBool()

	l0, l1 := r.ReadUe(), r.ReadUe()
	if l0 > 14 || l1 > 14 {
		return fmt.Errorf("num_ref_idx_default_active_minus1 out of range: %d %d", l0, l1)
	}
	pps.NumRefIdxL0DefaultActiveMinus1 = uint8(l0)
	pps.NumRefIdxL1DefaultActiveMinus1 = uint8(l1)

	qp := r.ReadSe()
	if qp < -(26+6*8) || qp > 25 {
		return fmt.Errorf("init_qp_minus26 out of range: %d", qp)
	}
	pps.InitQpMinus26 = int8(qp)

	pps.ConstrainedIntraPred = r.ReadBool()
	pps.TransformSkipEnabled = r.ReadBool()

	pps.CuQpDeltaEnabled = r.ReadBool()
	if pps.CuQpDeltaEnabled {
		pps.DiffCuQpDeltaDepth = r.ReadUe8()
	}

	pps.CbQpOffset = r.ReadSe8()
	pps.CrQpOffset = r.ReadSe8()
	if pps.CbQpOffset < -12 || pps.CbQpOffset > 12 || pps.CrQpOffset < -12 || pps.CrQpOffset > 12 {
		return fmt.Errorf("chroma qp offset out of range: %d %d", pps.CbQpOffset, pps.CrQpOffset)
	}
	pps.SliceChromaQpOffsets = r.ReadBool()

	pps.WeightedPred = r.ReadBool()
	pps.WeightedBipred = r.ReadBool()
	pps.TransquantBypass = r.ReadBool()
	pps.TilesEnabled = r.ReadBool()
	pps.EntropyCodingSync = r.ReadBool()

	pps.UniformSpacing = true
	pps.LoopFilterAcrossTiles = true
	if pps.TilesEnabled {
		cols, rows := r.ReadUe(), r.ReadUe()
		if cols >= HEVC_MAX_TILE_COLUMNS || rows >= HEVC_MAX_TILE_ROWS {
			return fmt.Errorf("tile grid out of range: %dx%d", cols+1, rows+1)
		}
		pps.NumTileColumnsMinus1 = uint8(cols)
		pps.NumTileRowsMinus1 = uint8(rows)

		pps.UniformSpacing = r.ReadBool()
		if !pps.UniformSpacing {
			for i := 0; i < int(pps.NumTileColumnsMinus1); i++ {
				pps.ColumnWidthMinus1[i] = r.ReadUe16()
			}
			for i := 0; i < int(pps.NumTileRowsMinus1); i++ {
				pps.RowHeightMinus1[i] = r.ReadUe16()
			}
		}
		pps.LoopFilterAcrossTiles = r.ReadBool()
	}

	pps.LoopFilterAcrossSlices = r.ReadBool()

	pps.DeblockingFilterControlPresent = r.ReadBool()
	if pps.DeblockingFilterControlPresent {
		pps.DeblockingFilterOverrideEnabled = r.ReadBool()
		pps.DeblockingFilterDisabled = r.ReadBool()
		if !pps.DeblockingFilterDisabled {
			pps.BetaOffsetDiv2 = r.ReadSe8()
			pps.TcOffsetDiv2 = r.ReadSe8()
			if pps.BetaOffsetDiv2 < -6 || pps.BetaOffsetDiv2 > 6 ||
				pps.TcOffsetDiv2 < -6 || pps.TcOffsetDiv2 > 6 {
				return fmt.Errorf("deblocking offsets out of range: %d %d",
					pps.BetaOffsetDiv2, pps.TcOffsetDiv2)
			}
		}
	}

	pps.ScalingListDataPresent = r.ReadBool()
	if pps.ScalingListDataPresent {
		pps.ScalingList = new(ScalingList)
		if err = pps.ScalingList.decode(r); err != nil {
			return
		}
	}

	pps.ListsModificationPresent = r.ReadBool()
	pps.Log2ParallelMergeLevelMinus2 = r.ReadUe8()
	pps.SliceSegmentHeaderExtension = r.ReadBool()
	// pps_extension_present_flag and extensions are ignored
	return
}

// Resolve checks pps against sps and completes the explicit tile sizes with
// the width of the last column and the height of the last row.
func (pps *PPS) Resolve(sps *SPS) error {
	if !pps.TilesEnabled {
		return nil
	}

	widthCtbs, heightCtbs := sps.PicWidthInCtbsY(), sps.PicHeightInCtbsY()
	if int(pps.NumTileColumnsMinus1) >= widthCtbs || int(pps.NumTileRowsMinus1) >= heightCtbs {
		return fmt.Errorf("tile grid %dx%d exceeds %dx%d CTBs",
			pps.NumTileColumnsMinus1+1, pps.NumTileRowsMinus1+1, widthCtbs, heightCtbs)
	}
	if pps.UniformSpacing {
		return nil
	}

	sum := 0
	for i := 0; i < int(pps.NumTileColumnsMinus1); i++ {
		sum += int(pps.ColumnWidthMinus1[i]) + 1
	}
	if sum >= widthCtbs {
		return fmt.Errorf("tile columns span %d CTBs of %d", sum, widthCtbs)
	}
	pps.ColumnWidthMinus1[pps.NumTileColumnsMinus1] = uint16(widthCtbs - sum - 1)

	sum = 0
	for i := 0; i < int(pps.NumTileRowsMinus1); i++ {
		sum += int(pps.RowHeightMinus1[i]) + 1
	}
	if sum >= heightCtbs {
		return fmt.Errorf("tile rows span %d CTBs of %d", sum, heightCtbs)
	}
	pps.RowHeightMinus1[pps.NumTileRowsMinus1] = uint16(heightCtbs - sum - 1)
	return nil
}
