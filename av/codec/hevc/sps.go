// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

import (
	"encoding/base64"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/cnotch/hwdec/utils"
	"github.com/cnotch/hwdec/utils/bits"
)

// transfer_characteristics values of interest.
const (
	TransferBT709 = 1
	TransferPQ    = 16
	TransferHLG   = 18
)

// VUI is the subset of vui_parameters() (E.2.1) the decoder consumes.
type VUI struct {
	AspectRatioIdc uint8
	SarWidth       uint16
	SarHeight      uint16

	VideoFormat             uint8
	VideoFullRange          bool
	ColourPrimaries         uint8
	TransferCharacteristics uint8
	MatrixCoefficients      uint8

	FieldSeq bool

	DefaultDisplayWindow bool
	DefDispWinLeft       uint16
	DefDispWinRight      uint16
	DefDispWinTop        uint16
	DefDispWinBottom     uint16

	TimingInfoPresent bool
	NumUnitsInTick    uint32
	TimeScale         uint32

	BitstreamRestriction bool
}

func (vui *VUI) setDefault() {
	*vui = VUI{
		VideoFormat:             5,
		ColourPrimaries:         2,
		TransferCharacteristics: 2,
		MatrixCoefficients:      2,
	}
}

func (vui *VUI) decode(r *bits.Reader, maxSubLayersMinus1 int) {
	vui.setDefault()

	if r.ReadBool() { // aspect_ratio_info_present_flag
		vui.AspectRatioIdc = r.ReadUint8(8)
		if vui.AspectRatioIdc == 255 {
			vui.SarWidth = r.ReadUint16(16)
			vui.SarHeight = r.ReadUint16(16)
		}
	}

	if r.ReadBool() { // overscan_info_present_flag
		r.Skip(1) // overscan_appropriate_flag
	}

	if r.ReadBool() { // video_signal_type_present_flag
		vui.VideoFormat = r.ReadUint8(3)
		vui.VideoFullRange = r.ReadBool()
		if r.ReadBool() { // colour_description_present_flag
			vui.ColourPrimaries = r.ReadUint8(8)
			vui.TransferCharacteristics = r.ReadUint8(8)
			vui.MatrixCoefficients = r.ReadUint8(8)
		}
	}

	if r.ReadBool() { // chroma_loc_info_present_flag
		r.SkipUe() // chroma_sample_loc_type_top_field
		r.SkipUe() // chroma_sample_loc_type_bottom_field
	}

	r.Skip(1) // neutral_chroma_indication_flag
	vui.FieldSeq = r.ReadBool()
	r.Skip(1) // frame_field_info_present_flag

	vui.DefaultDisplayWindow = r.ReadBool()
	if vui.DefaultDisplayWindow {
		vui.DefDispWinLeft = r.ReadUe16()
		vui.DefDispWinRight = r.ReadUe16()
		vui.DefDispWinTop = r.ReadUe16()
		vui.DefDispWinBottom = r.ReadUe16()
	}

	vui.TimingInfoPresent = r.ReadBool()
	if vui.TimingInfoPresent {
		vui.NumUnitsInTick = r.ReadUint32(32)
		vui.TimeScale = r.ReadUint32(32)
		if r.ReadBool() { // vui_poc_proportional_to_timing_flag
			r.SkipUe() // vui_num_ticks_poc_diff_one_minus1
		}
		if r.ReadBool() { // vui_hrd_parameters_present_flag
			var hrd hrdParameters
			hrd.decode(r, true, maxSubLayersMinus1)
		}
	}

	vui.BitstreamRestriction = r.ReadBool()
	if vui.BitstreamRestriction {
		r.Skip(3)  // tiles_fixed_structure .. restricted_ref_pic_lists
		r.SkipUe() // min_spatial_segmentation_idc
		r.SkipUe() // max_bytes_per_pic_denom
		r.SkipUe() // max_bits_per_min_cu_denom
		r.SkipUe() // log2_max_mv_length_horizontal
		r.SkipUe() // log2_max_mv_length_vertical
	}
}

// SPS is a decoded seq_parameter_set_rbsp() (7.3.2.2) up to the VUI.
type SPS struct {
	VPSID               uint8
	MaxSubLayersMinus1  uint8
	TemporalIDNesting   bool
	ProfileTierLevel    ProfileTierLevel
	ID                  uint8
	ChromaFormatIdc     uint8
	SeparateColourPlane bool

	PicWidthInLumaSamples  uint16
	PicHeightInLumaSamples uint16

	ConformanceWindow bool
	ConfWinLeft       uint16
	ConfWinRight      uint16
	ConfWinTop        uint16
	ConfWinBottom     uint16

	BitDepthLumaMinus8   uint8
	BitDepthChromaMinus8 uint8

	Log2MaxPicOrderCntLsbMinus4 uint8

	SubLayerOrderingInfoPresent bool
	MaxDecPicBufferingMinus1    [HEVC_MAX_SUB_LAYERS]uint8
	MaxNumReorderPics           [HEVC_MAX_SUB_LAYERS]uint8
	MaxLatencyIncreasePlus1     [HEVC_MAX_SUB_LAYERS]uint32

	Log2MinLumaCodingBlockSizeMinus3     uint8
	Log2DiffMaxMinLumaCodingBlockSize    uint8
	Log2MinLumaTransformBlockSizeMinus2  uint8
	Log2DiffMaxMinLumaTransformBlockSize uint8
	MaxTransformHierarchyDepthInter      uint8
	MaxTransformHierarchyDepthIntra      uint8

	ScalingListEnabled     bool
	ScalingListDataPresent bool
	// ScalingList is set when ScalingListDataPresent.
	ScalingList *ScalingList

	AMPEnabled bool
	SAOEnabled bool

	PCMEnabled                           bool
	PCMSampleBitDepthLumaMinus1          uint8
	PCMSampleBitDepthChromaMinus1        uint8
	Log2MinPCMLumaCodingBlockSizeMinus3  uint8
	Log2DiffMaxMinPCMLumaCodingBlockSize uint8
	PCMLoopFilterDisabled                bool

	NumShortTermRefPicSets int
	StRefPicSets           []ShortTermRPS

	LongTermRefPicsPresent bool
	NumLongTermRefPicsSPS  int
	LtRefPicPocLsbSPS      [HEVC_MAX_LONG_TERM_REF_PICS]uint16
	UsedByCurrPicLtSPS     [HEVC_MAX_LONG_TERM_REF_PICS]bool

	TemporalMVPEnabled          bool
	StrongIntraSmoothingEnabled bool

	VUIPresent bool
	VUI        VUI
}

// Width returns pic_width_in_luma_samples.
func (sps *SPS) Width() int {
	return int(sps.PicWidthInLumaSamples)
}

// Height returns pic_height_in_luma_samples.
func (sps *SPS) Height() int {
	return int(sps.PicHeightInLumaSamples)
}

func (sps *SPS) cropUnits() (x, y int) {
	x, y = 1, 1
	if sps.SeparateColourPlane {
		return
	}
	switch sps.ChromaFormatIdc {
	case 1:
		x, y = 2, 2
	case 2:
		x = 2
	}
	return
}

// DisplayWidth returns the width after the conformance window.
func (sps *SPS) DisplayWidth() int {
	x, _ := sps.cropUnits()
	return sps.Width() - x*int(sps.ConfWinLeft+sps.ConfWinRight)
}

// DisplayHeight returns the height after the conformance window.
func (sps *SPS) DisplayHeight() int {
	_, y := sps.cropUnits()
	return sps.Height() - y*int(sps.ConfWinTop+sps.ConfWinBottom)
}

// BitDepthLuma returns BitDepthY.
func (sps *SPS) BitDepthLuma() int { return int(sps.BitDepthLumaMinus8) + 8 }

// BitDepthChroma returns BitDepthC.
func (sps *SPS) BitDepthChroma() int { return int(sps.BitDepthChromaMinus8) + 8 }

// IsHDR reports whether the stream carries more than 8 bits per luma sample.
func (sps *SPS) IsHDR() bool { return sps.BitDepthLumaMinus8 > 0 }

// Log2MaxPocLsb returns log2_max_pic_order_cnt_lsb_minus4 + 4.
func (sps *SPS) Log2MaxPocLsb() int { return int(sps.Log2MaxPicOrderCntLsbMinus4) + 4 }

// MaxPocLsb returns MaxPicOrderCntLsb.
func (sps *SPS) MaxPocLsb() int32 { return 1 << uint(sps.Log2MaxPocLsb()) }

// MinCbLog2SizeY returns MinCbLog2SizeY.
func (sps *SPS) MinCbLog2SizeY() int { return int(sps.Log2MinLumaCodingBlockSizeMinus3) + 3 }

// CtbLog2SizeY returns CtbLog2SizeY.
func (sps *SPS) CtbLog2SizeY() int {
	return sps.MinCbLog2SizeY() + int(sps.Log2DiffMaxMinLumaCodingBlockSize)
}

// PicWidthInMinCbsY returns the picture width in minimum coding blocks.
func (sps *SPS) PicWidthInMinCbsY() int { return sps.Width() >> uint(sps.MinCbLog2SizeY()) }

// PicHeightInMinCbsY returns the picture height in minimum coding blocks.
func (sps *SPS) PicHeightInMinCbsY() int { return sps.Height() >> uint(sps.MinCbLog2SizeY()) }

// PicWidthInCtbsY returns the picture width in coding tree blocks.
func (sps *SPS) PicWidthInCtbsY() int {
	ctb := 1 << uint(sps.CtbLog2SizeY())
	return (sps.Width() + ctb - 1) / ctb
}

// PicHeightInCtbsY returns the picture height in coding tree blocks.
func (sps *SPS) PicHeightInCtbsY() int {
	ctb := 1 << uint(sps.CtbLog2SizeY())
	return (sps.Height() + ctb - 1) / ctb
}

// MaxDecPicBuffering returns sps_max_dec_pic_buffering_minus1 of the
// highest sub-layer.
func (sps *SPS) MaxDecPicBuffering() uint8 {
	return sps.MaxDecPicBufferingMinus1[sps.MaxSubLayersMinus1]
}

// FrameRate Video frame rate
func (sps *SPS) FrameRate() float64 {
	if sps.VUI.NumUnitsInTick == 0 {
		return 0.0
	}
	return float64(sps.VUI.TimeScale) / float64(sps.VUI.NumUnitsInTick)
}

// DecodeString 从 base64 字串解码 sps NAL
func (sps *SPS) DecodeString(b64 string) error {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return err
	}
	return sps.Decode(data)
}

// Decode 从字节序列中解码 sps NAL
func (sps *SPS) Decode(data []byte) (err error) {
	rbsp := utils.RemoveEmulationBytes(data)
	if len(rbsp) < 4 {
		return errors.New("The data is not enough")
	}
	if NalType((rbsp[0]>>1)&0x3f) != NalSps {
		return errors.New("not is sps NAL UNIT")
	}
	return sps.DecodeRBSP(rbsp[2:])
}

// DecodeRBSP decodes the payload following the two byte NAL header.
func (sps *SPS) DecodeRBSP(rbsp []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("SPS decode panic；r = %v \n %s", r, debug.Stack())
		}
	}()

	*sps = SPS{}
	r := bits.NewReader(rbsp)

	sps.VPSID = r.ReadUint8(4)
	sps.MaxSubLayersMinus1 = r.ReadUint8(3)
	if sps.MaxSubLayersMinus1 >= HEVC_MAX_SUB_LAYERS {
		return fmt.Errorf("sps_max_sub_layers_minus1 out of range: %d", sps.MaxSubLayersMinus1)
	}
	sps.TemporalIDNesting = r.ReadBool()
	sps.ProfileTierLevel.decode(r, true, int(sps.MaxSubLayersMinus1))

	id := r.ReadUe()
	if id >= HEVC_MAX_SPS_COUNT {
		return fmt.Errorf("sps_seq_parameter_set_id out of range: %d", id)
	}
	sps.ID = uint8(id)

	sps.ChromaFormatIdc = r.ReadUe8()
	if sps.ChromaFormatIdc > 3 {
		return fmt.Errorf("chroma_format_idc out of range: %d", sps.ChromaFormatIdc)
	}
	if sps.ChromaFormatIdc == 3 {
		sps.SeparateColourPlane = r.ReadBool()
	}

	width, height := r.ReadUe(), r.ReadUe()
	if width == 0 || height == 0 || width > HEVC_MAX_WIDTH || height > HEVC_MAX_HEIGHT {
		return fmt.Errorf("invalid dimensions %dx%d", width, height)
	}
	sps.PicWidthInLumaSamples = uint16(width)
	sps.PicHeightInLumaSamples = uint16(height)

	sps.ConformanceWindow = r.ReadBool()
	if sps.ConformanceWindow {
		sps.ConfWinLeft = r.ReadUe16()
		sps.ConfWinRight = r.ReadUe16()
		sps.ConfWinTop = r.ReadUe16()
		sps.ConfWinBottom = r.ReadUe16()
	}

	sps.BitDepthLumaMinus8 = r.ReadUe8()
	sps.BitDepthChromaMinus8 = r.ReadUe8()
	if sps.BitDepthLumaMinus8 > 8 || sps.BitDepthChromaMinus8 > 8 {
		return fmt.Errorf("unsupported bit depth: luma %d chroma %d",
			sps.BitDepthLuma(), sps.BitDepthChroma())
	}

	sps.Log2MaxPicOrderCntLsbMinus4 = r.ReadUe8()
	if sps.Log2MaxPicOrderCntLsbMinus4 > 12 {
		return fmt.Errorf("log2_max_pic_order_cnt_lsb_minus4 out of range: %d",
			sps.Log2MaxPicOrderCntLsbMinus4)
	}

	sps.SubLayerOrderingInfoPresent = r.ReadBool()
	start := sps.MaxSubLayersMinus1
	if sps.SubLayerOrderingInfoPresent {
		start = 0
	}
	for i := start; i <= sps.MaxSubLayersMinus1; i++ {
		sps.MaxDecPicBufferingMinus1[i] = r.ReadUe8()
		sps.MaxNumReorderPics[i] = r.ReadUe8()
		sps.MaxLatencyIncreasePlus1[i] = r.ReadUe()
	}
	if !sps.SubLayerOrderingInfoPresent {
		for i := uint8(0); i < sps.MaxSubLayersMinus1; i++ {
			sps.MaxDecPicBufferingMinus1[i] = sps.MaxDecPicBufferingMinus1[sps.MaxSubLayersMinus1]
			sps.MaxNumReorderPics[i] = sps.MaxNumReorderPics[sps.MaxSubLayersMinus1]
			sps.MaxLatencyIncreasePlus1[i] = sps.MaxLatencyIncreasePlus1[sps.MaxSubLayersMinus1]
		}
	}

	sps.Log2MinLumaCodingBlockSizeMinus3 = r.ReadUe8()
	sps.Log2DiffMaxMinLumaCodingBlockSize = r.ReadUe8()
	if sps.CtbLog2SizeY() > 6 {
		return fmt.Errorf("CtbLog2SizeY out of range: %d", sps.CtbLog2SizeY())
	}

	minCbSizeY := 1 << uint(sps.MinCbLog2SizeY())
	if sps.Width()%minCbSizeY != 0 || sps.Height()%minCbSizeY != 0 {
		return fmt.Errorf("Invalid dimensions: %dx%d not divisible by MinCbSizeY = %d",
			sps.Width(), sps.Height(), minCbSizeY)
	}

	sps.Log2MinLumaTransformBlockSizeMinus2 = r.ReadUe8()
	sps.Log2DiffMaxMinLumaTransformBlockSize = r.ReadUe8()
	sps.MaxTransformHierarchyDepthInter = r.ReadUe8()
	sps.MaxTransformHierarchyDepthIntra = r.ReadUe8()

	sps.ScalingListEnabled = r.ReadBool()
	if sps.ScalingListEnabled {
		sps.ScalingListDataPresent = r.ReadBool()
		if sps.ScalingListDataPresent {
			sps.ScalingList = new(ScalingList)
			if err = sps.ScalingList.decode(r); err != nil {
				return
			}
		}
	}

	sps.AMPEnabled = r.ReadBool()
	sps.SAOEnabled = r.ReadBool()

	sps.PCMEnabled = r.ReadBool()
	if sps.PCMEnabled {
		sps.PCMSampleBitDepthLumaMinus1 = r.ReadUint8(4)
		sps.PCMSampleBitDepthChromaMinus1 = r.ReadUint8(4)
		sps.Log2MinPCMLumaCodingBlockSizeMinus3 = r.ReadUe8()
		sps.Log2DiffMaxMinPCMLumaCodingBlockSize = r.ReadUe8()
		sps.PCMLoopFilterDisabled = r.ReadBool()
	}

	num := r.ReadUe()
	if num > HEVC_MAX_SHORT_TERM_REF_PIC_SETS {
		return fmt.Errorf("num_short_term_ref_pic_sets out of range: %d", num)
	}
	sps.NumShortTermRefPicSets = int(num)
	sps.StRefPicSets = make([]ShortTermRPS, sps.NumShortTermRefPicSets)
	for i := range sps.StRefPicSets {
		if err = sps.StRefPicSets[i].decode(r, i, sps.NumShortTermRefPicSets, sps.StRefPicSets[:i]); err != nil {
			return
		}
	}

	sps.LongTermRefPicsPresent = r.ReadBool()
	if sps.LongTermRefPicsPresent {
		n := r.ReadUe()
		if n > HEVC_MAX_LONG_TERM_REF_PICS {
			return fmt.Errorf("num_long_term_ref_pics_sps out of range: %d", n)
		}
		sps.NumLongTermRefPicsSPS = int(n)
		for i := 0; i < sps.NumLongTermRefPicsSPS; i++ {
			sps.LtRefPicPocLsbSPS[i] = r.ReadUint16(sps.Log2MaxPocLsb())
			sps.UsedByCurrPicLtSPS[i] = r.ReadBool()
		}
	}

	sps.TemporalMVPEnabled = r.ReadBool()
	sps.StrongIntraSmoothingEnabled = r.ReadBool()

	sps.VUIPresent = r.ReadBool()
	if sps.VUIPresent {
		sps.VUI.decode(r, int(sps.MaxSubLayersMinus1))
	} else {
		sps.VUI.setDefault()
	}

	// sps_extension_present_flag and the range/scc extensions carry
	// nothing the accelerator parameters need.
	return
}
