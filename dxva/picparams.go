// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dxva

import (
	"encoding/binary"
	"sort"

	"github.com/cnotch/hwdec/av/codec/hevc"
)

// PicParamsSize is sizeof(DXVA_PicParams_HEVC).
const PicParamsSize = 232

// Array capacities of DXVA_PicParams_HEVC.
const (
	MaxRefPics     = 15
	MaxRPSEntries  = 8
	MaxTileColumns = 19
	MaxTileRows    = 21
)

// PicParams mirrors DXVA_PicParams_HEVC. Bit-field groups are kept packed.
type PicParams struct {
	PicWidthInMinCbsY  uint16
	PicHeightInMinCbsY uint16
	// chroma_format_idc:2 separate_colour_plane_flag:1 bit_depth_luma_minus8:3
	// bit_depth_chroma_minus8:3 log2_max_pic_order_cnt_lsb_minus4:4
	// NoPicReorderingFlag:1 NoBiPredFlag:1 Reserved:1
	FormatAndSequenceInfoFlags uint16
	CurrPic                    uint8

	SpsMaxDecPicBufferingMinus1       uint8
	Log2MinLumaCodingBlockSizeMinus3  uint8
	Log2DiffMaxMinLumaCodingBlockSize uint8
	Log2MinTransformBlockSizeMinus2   uint8
	Log2DiffMaxMinTransformBlockSize  uint8
	MaxTransformHierarchyDepthInter   uint8
	MaxTransformHierarchyDepthIntra   uint8
	NumShortTermRefPicSets            uint8
	NumLongTermRefPicsSps             uint8
	NumRefIdxL0DefaultActiveMinus1    uint8
	NumRefIdxL1DefaultActiveMinus1    uint8
	InitQpMinus26                     int8
	NumDeltaPocsOfRefRpsIdx           uint8
	NumBitsForShortTermRPSInSlice     uint16
	ReservedBits2                     uint16

	CodingParamToolFlags              uint32
	CodingSettingPicturePropertyFlags uint32

	PpsCbQpOffset        int8
	PpsCrQpOffset        int8
	NumTileColumnsMinus1 uint8
	NumTileRowsMinus1    uint8
	ColumnWidthMinus1    [MaxTileColumns]uint16
	RowHeightMinus1      [MaxTileRows]uint16

	DiffCuQpDeltaDepth           uint8
	PpsBetaOffsetDiv2            int8
	PpsTcOffsetDiv2              int8
	Log2ParallelMergeLevelMinus2 uint8
	CurrPicOrderCntVal           int32

	RefPicList                 [MaxRefPics]uint8
	ReservedBits5              uint8
	PicOrderCntValList         [MaxRefPics]int32
	RefPicSetStCurrBefore      [MaxRPSEntries]uint8
	RefPicSetStCurrAfter       [MaxRPSEntries]uint8
	RefPicSetLtCurr            [MaxRPSEntries]uint8
	ReservedBits6              uint16
	ReservedBits7              uint16
	StatusReportFeedbackNumber uint32
}

// Marshal returns the 232 byte little-endian form.
func (pp *PicParams) Marshal() []byte {
	b := make([]byte, PicParamsSize)
	pp.MarshalTo(b)
	return b
}

// MarshalTo writes the packed structure into b, which must hold at least
// PicParamsSize bytes.
func (pp *PicParams) MarshalTo(b []byte) {
	_ = b[PicParamsSize-1]
	le := binary.LittleEndian

	le.PutUint16(b[0:], pp.PicWidthInMinCbsY)
	le.PutUint16(b[2:], pp.PicHeightInMinCbsY)
	le.PutUint16(b[4:], pp.FormatAndSequenceInfoFlags)
	b[6] = pp.CurrPic
	b[7] = pp.SpsMaxDecPicBufferingMinus1
	b[8] = pp.Log2MinLumaCodingBlockSizeMinus3
	b[9] = pp.Log2DiffMaxMinLumaCodingBlockSize
	b[10] = pp.Log2MinTransformBlockSizeMinus2
	b[11] = pp.Log2DiffMaxMinTransformBlockSize
	b[12] = pp.MaxTransformHierarchyDepthInter
	b[13] = pp.MaxTransformHierarchyDepthIntra
	b[14] = pp.NumShortTermRefPicSets
	b[15] = pp.NumLongTermRefPicsSps
	b[16] = pp.NumRefIdxL0DefaultActiveMinus1
	b[17] = pp.NumRefIdxL1DefaultActiveMinus1
	b[18] = uint8(pp.InitQpMinus26)
	b[19] = pp.NumDeltaPocsOfRefRpsIdx
	le.PutUint16(b[20:], pp.NumBitsForShortTermRPSInSlice)
	le.PutUint16(b[22:], pp.ReservedBits2)
	le.PutUint32(b[24:], pp.CodingParamToolFlags)
	le.PutUint32(b[28:], pp.CodingSettingPicturePropertyFlags)
	b[32] = uint8(pp.PpsCbQpOffset)
	b[33] = uint8(pp.PpsCrQpOffset)
	b[34] = pp.NumTileColumnsMinus1
	b[35] = pp.NumTileRowsMinus1
	for i, v := range pp.ColumnWidthMinus1 {
		le.PutUint16(b[36+2*i:], v)
	}
	for i, v := range pp.RowHeightMinus1 {
		le.PutUint16(b[74+2*i:], v)
	}
	b[116] = pp.DiffCuQpDeltaDepth
	b[117] = uint8(pp.PpsBetaOffsetDiv2)
	b[118] = uint8(pp.PpsTcOffsetDiv2)
	b[119] = pp.Log2ParallelMergeLevelMinus2
	le.PutUint32(b[120:], uint32(pp.CurrPicOrderCntVal))
	copy(b[124:139], pp.RefPicList[:])
	b[139] = pp.ReservedBits5
	for i, v := range pp.PicOrderCntValList {
		le.PutUint32(b[140+4*i:], uint32(v))
	}
	copy(b[200:208], pp.RefPicSetStCurrBefore[:])
	copy(b[208:216], pp.RefPicSetStCurrAfter[:])
	copy(b[216:224], pp.RefPicSetLtCurr[:])
	le.PutUint16(b[224:], pp.ReservedBits6)
	le.PutUint16(b[226:], pp.ReservedBits7)
	le.PutUint32(b[228:], pp.StatusReportFeedbackNumber)
}

// Reference is a decoded picture available for prediction.
type Reference struct {
	Surface  uint8
	POC      int32
	LongTerm bool
}

// PictureInfo is the per-picture input of BuildPicParams.
type PictureInfo struct {
	SPS     *hevc.SPS
	PPS     *hevc.PPS
	Slice   *hevc.SliceHeader
	NalType hevc.NalType
	Surface uint8
	POC     int32
	// Refs are the live reference pictures, in DPB order.
	Refs           []Reference
	FeedbackNumber uint32
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// BuildPicParams fills DXVA_PicParams_HEVC for one picture. IDR pictures
// and pictures without references leave every list entry invalid.
func BuildPicParams(pi *PictureInfo) *PicParams {
	sps, pps, sh := pi.SPS, pi.PPS, pi.Slice
	pp := &PicParams{}

	pp.PicWidthInMinCbsY = uint16(sps.PicWidthInMinCbsY())
	pp.PicHeightInMinCbsY = uint16(sps.PicHeightInMinCbsY())
	pp.FormatAndSequenceInfoFlags = uint16(sps.ChromaFormatIdc)&0x3 |
		uint16(b2u(sps.SeparateColourPlane))<<2 |
		uint16(sps.BitDepthLumaMinus8&0x7)<<3 |
		uint16(sps.BitDepthChromaMinus8&0x7)<<6 |
		uint16(sps.Log2MaxPicOrderCntLsbMinus4&0xF)<<9

	pp.CurrPic = PicEntry(pi.Surface, false)

	pp.SpsMaxDecPicBufferingMinus1 = sps.MaxDecPicBuffering()
	pp.Log2MinLumaCodingBlockSizeMinus3 = sps.Log2MinLumaCodingBlockSizeMinus3
	pp.Log2DiffMaxMinLumaCodingBlockSize = sps.Log2DiffMaxMinLumaCodingBlockSize
	pp.Log2MinTransformBlockSizeMinus2 = sps.Log2MinLumaTransformBlockSizeMinus2
	pp.Log2DiffMaxMinTransformBlockSize = sps.Log2DiffMaxMinLumaTransformBlockSize
	pp.MaxTransformHierarchyDepthInter = sps.MaxTransformHierarchyDepthInter
	pp.MaxTransformHierarchyDepthIntra = sps.MaxTransformHierarchyDepthIntra
	pp.NumShortTermRefPicSets = uint8(sps.NumShortTermRefPicSets)
	pp.NumLongTermRefPicsSps = uint8(sps.NumLongTermRefPicsSPS)
	pp.NumRefIdxL0DefaultActiveMinus1 = pps.NumRefIdxL0DefaultActiveMinus1
	pp.NumRefIdxL1DefaultActiveMinus1 = pps.NumRefIdxL1DefaultActiveMinus1
	pp.InitQpMinus26 = pps.InitQpMinus26

	if sh.ShortTermRPS != nil {
		pp.NumDeltaPocsOfRefRpsIdx = uint8(sh.ShortTermRPS.RefRpsNumDeltaPocs)
	}
	pp.NumBitsForShortTermRPSInSlice = uint16(sh.ShortTermRPSBits)

	tool := b2u(sps.ScalingListEnabled) |
		b2u(sps.AMPEnabled)<<1 |
		b2u(sps.SAOEnabled)<<2 |
		b2u(sps.PCMEnabled)<<3
	if sps.PCMEnabled {
		tool |= uint32(sps.PCMSampleBitDepthLumaMinus1&0xF)<<4 |
			uint32(sps.PCMSampleBitDepthChromaMinus1&0xF)<<8 |
			uint32(sps.Log2MinPCMLumaCodingBlockSizeMinus3&0x3)<<12 |
			uint32(sps.Log2DiffMaxMinPCMLumaCodingBlockSize&0x3)<<14 |
			b2u(sps.PCMLoopFilterDisabled)<<16
	}
	tool |= b2u(sps.LongTermRefPicsPresent)<<17 |
		b2u(sps.TemporalMVPEnabled)<<18 |
		b2u(sps.StrongIntraSmoothingEnabled)<<19 |
		b2u(pps.DependentSliceSegmentsEnabled)<<20 |
		b2u(pps.OutputFlagPresent)<<21 |
		uint32(pps.NumExtraSliceHeaderBits&0x7)<<22 |
		b2u(pps.SignDataHidingEnabled)<<25 |
		b2u(pps.CabacInitPresent)<<26
	pp.CodingParamToolFlags = tool

	pp.CodingSettingPicturePropertyFlags = b2u(pps.ConstrainedIntraPred) |
		b2u(pps.TransformSkipEnabled)<<1 |
		b2u(pps.CuQpDeltaEnabled)<<2 |
		b2u(pps.SliceChromaQpOffsets)<<3 |
		b2u(pps.WeightedPred)<<4 |
		b2u(pps.WeightedBipred)<<5 |
		b2u(pps.TransquantBypass)<<6 |
		b2u(pps.TilesEnabled)<<7 |
		b2u(pps.EntropyCodingSync)<<8 |
		b2u(pps.UniformSpacing)<<9 |
		b2u(pps.LoopFilterAcrossTiles)<<10 |
		b2u(pps.LoopFilterAcrossSlices)<<11 |
		b2u(pps.DeblockingFilterOverrideEnabled)<<12 |
		b2u(pps.DeblockingFilterDisabled)<<13 |
		b2u(pps.ListsModificationPresent)<<14 |
		b2u(pps.SliceSegmentHeaderExtension)<<15 |
		b2u(pi.NalType.IsRAP())<<16 |
		b2u(pi.NalType.IsIDR())<<17 |
		b2u(sh.IsIntra())<<18

	pp.PpsCbQpOffset = pps.CbQpOffset
	pp.PpsCrQpOffset = pps.CrQpOffset
	if pps.TilesEnabled {
		pp.NumTileColumnsMinus1 = pps.NumTileColumnsMinus1
		pp.NumTileRowsMinus1 = pps.NumTileRowsMinus1
		if !pps.UniformSpacing {
			for i := 0; i <= int(pps.NumTileColumnsMinus1) && i < MaxTileColumns; i++ {
				pp.ColumnWidthMinus1[i] = pps.ColumnWidthMinus1[i]
			}
			for i := 0; i <= int(pps.NumTileRowsMinus1) && i < MaxTileRows; i++ {
				pp.RowHeightMinus1[i] = pps.RowHeightMinus1[i]
			}
		}
	}

	pp.DiffCuQpDeltaDepth = pps.DiffCuQpDeltaDepth
	pp.PpsBetaOffsetDiv2 = pps.BetaOffsetDiv2
	pp.PpsTcOffsetDiv2 = pps.TcOffsetDiv2
	pp.Log2ParallelMergeLevelMinus2 = pps.Log2ParallelMergeLevelMinus2
	pp.CurrPicOrderCntVal = pi.POC

	pp.fillReferences(pi)
	pp.StatusReportFeedbackNumber = pi.FeedbackNumber
	return pp
}

func (pp *PicParams) fillReferences(pi *PictureInfo) {
	for i := range pp.RefPicList {
		pp.RefPicList[i] = InvalidPicEntry
	}
	for i := 0; i < MaxRPSEntries; i++ {
		pp.RefPicSetStCurrBefore[i] = InvalidPicEntry
		pp.RefPicSetStCurrAfter[i] = InvalidPicEntry
		pp.RefPicSetLtCurr[i] = InvalidPicEntry
	}

	if pi.NalType.IsIDR() || len(pi.Refs) == 0 {
		return
	}

	var before, after, long []Reference
	for _, r := range pi.Refs {
		switch {
		case r.LongTerm:
			long = append(long, r)
		case r.POC < pi.POC:
			before = append(before, r)
		case r.POC > pi.POC:
			after = append(after, r)
		}
	}
	// nearest first on both sides
	sort.SliceStable(before, func(i, j int) bool { return before[i].POC > before[j].POC })
	sort.SliceStable(after, func(i, j int) bool { return after[i].POC < after[j].POC })

	idx := 0
	add := func(refs []Reference, set *[MaxRPSEntries]uint8) {
		n := 0
		for _, r := range refs {
			if idx >= MaxRefPics {
				return
			}
			pp.RefPicList[idx] = PicEntry(r.Surface, r.LongTerm)
			pp.PicOrderCntValList[idx] = r.POC
			if n < MaxRPSEntries {
				set[n] = uint8(idx)
				n++
			}
			idx++
		}
	}
	add(before, &pp.RefPicSetStCurrBefore)
	add(after, &pp.RefPicSetStCurrAfter)
	add(long, &pp.RefPicSetLtCurr)
}
