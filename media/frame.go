// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package media

import (
	"time"

	"github.com/cnotch/hwdec/av/codec/hevc"
	"github.com/cnotch/hwdec/decoder"
)

// PixelFormat 像素格式
type PixelFormat int

// 像素格式
const (
	PixelNV12 PixelFormat = iota // 8-bit 4:2:0
	PixelP010                    // 10-bit 4:2:0
)

func (f PixelFormat) String() string {
	if f == PixelP010 {
		return "P010"
	}
	return "NV12"
}

// ColorSpace 色彩空间
type ColorSpace int

// 色彩空间
const (
	ColorBT709 ColorSpace = iota
	ColorBT2020
)

func (c ColorSpace) String() string {
	if c == ColorBT2020 {
		return "BT.2020"
	}
	return "BT.709"
}

// Transfer 传输函数
type Transfer int

// 传输函数
const (
	TransferSDR Transfer = iota
	TransferPQ
	TransferHLG
)

func (t Transfer) String() string {
	switch t {
	case TransferPQ:
		return "PQ"
	case TransferHLG:
		return "HLG"
	}
	return "SDR"
}

// ColorRange 色彩范围
type ColorRange int

// 色彩范围
const (
	RangeLimited ColorRange = iota
	RangeFull
)

// GPUSurface refers to one slice of a decoder texture array. It is only
// valid until the decoder reuses the slice.
type GPUSurface struct {
	Handle     uintptr
	ArrayIndex int
}

// VideoFrame is the frame descriptor handed to the renderer. Exactly one
// of GPU and the CPU planes is set.
type VideoFrame struct {
	Width      int
	Height     int
	Format     PixelFormat
	ColorSpace ColorSpace
	Transfer   Transfer
	Range      ColorRange
	Timestamp  time.Time

	GPU      *GPUSurface
	YPlane   []byte
	UVPlane  []byte
	YStride  int
	UVStride int
}

// IsGPU reports whether the frame is a surface reference.
func (f *VideoFrame) IsGPU() bool { return f.GPU != nil }

// newVideoFrame describes a picture from the hardware decoder. HDR
// pictures are P010 BT.2020, PQ unless the VUI signals HLG.
func newVideoFrame(f *decoder.Frame, ts time.Time) *VideoFrame {
	vf := &VideoFrame{
		Width:     f.Width,
		Height:    f.Height,
		Range:     RangeLimited,
		Timestamp: ts,
	}
	if f.HDR {
		vf.Format = PixelP010
		vf.ColorSpace = ColorBT2020
		vf.Transfer = TransferPQ
		if f.Transfer == hevc.TransferHLG {
			vf.Transfer = TransferHLG
		}
	}

	if f.Planes != nil {
		vf.YPlane = f.Planes.Y
		vf.UVPlane = f.Planes.UV
		vf.YStride = f.Planes.YStride
		vf.UVStride = f.Planes.UVStride
	} else {
		vf.GPU = &GPUSurface{Handle: f.Handle, ArrayIndex: f.Surface}
	}
	return vf
}
