// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package dxva serializes the DirectX Video Acceleration HEVC structures
// (DXVA_PicParams_HEVC, DXVA_Qmatrix_HEVC, DXVA_Slice_HEVC_Short) into their
// little-endian wire form.
package dxva

import "fmt"

// BufferType is D3D11_VIDEO_DECODER_BUFFER_TYPE.
type BufferType uint32

// Decoder buffer types used by the HEVC VLD profiles.
const (
	BufferPictureParameters         BufferType = 0
	BufferMacroblockControl         BufferType = 1
	BufferResidualDifference        BufferType = 2
	BufferDeblockingControl         BufferType = 3
	BufferInverseQuantizationMatrix BufferType = 4
	BufferSliceControl              BufferType = 5
	BufferBitstream                 BufferType = 6
)

var bufferTypeNames = map[BufferType]string{
	BufferPictureParameters:         "PictureParameters",
	BufferMacroblockControl:         "MacroblockControl",
	BufferResidualDifference:        "ResidualDifference",
	BufferDeblockingControl:         "DeblockingControl",
	BufferInverseQuantizationMatrix: "InverseQuantizationMatrix",
	BufferSliceControl:              "SliceControl",
	BufferBitstream:                 "Bitstream",
}

func (t BufferType) String() string {
	if s, ok := bufferTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("BufferType(%d)", uint32(t))
}

// ConfigBitstreamRaw values of D3D11_VIDEO_DECODER_CONFIG.
const (
	// ConfigBitstreamStartCodes expects slices prefixed with 00 00 01.
	ConfigBitstreamStartCodes = 1
	// ConfigBitstreamShortSlice expects raw NAL units (short slice format).
	ConfigBitstreamShortSlice = 2
)

// BitstreamAlignment is the required size granularity of the bitstream buffer.
const BitstreamAlignment = 128

// GUID has the memory layout of a Windows GUID.
type GUID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

func (g GUID) String() string {
	return fmt.Sprintf("%08x-%04x-%04x-%02x%02x-%02x%02x%02x%02x%02x%02x",
		g.Data1, g.Data2, g.Data3,
		g.Data4[0], g.Data4[1], g.Data4[2], g.Data4[3],
		g.Data4[4], g.Data4[5], g.Data4[6], g.Data4[7])
}

// Decoder profiles.
var (
	// D3D11_DECODER_PROFILE_HEVC_VLD_MAIN
	ProfileHEVCMain = GUID{0x5b11d51b, 0x2f4c, 0x4452, [8]byte{0xbc, 0xc3, 0x09, 0xf2, 0xa1, 0x16, 0x0c, 0xc0}}
	// D3D11_DECODER_PROFILE_HEVC_VLD_MAIN10
	ProfileHEVCMain10 = GUID{0x107af0e0, 0xef1a, 0x4d19, [8]byte{0xab, 0xa8, 0x67, 0xa1, 0x63, 0x07, 0x3d, 0x13}}
	// D3D11_DECODER_PROFILE_H264_VLD_NOFGT
	ProfileH264 = GUID{0x1b81be68, 0xa0c7, 0x11d3, [8]byte{0xb9, 0x84, 0x00, 0xc0, 0x4f, 0x2e, 0x73, 0xc5}}
)

// Format is a DXGI_FORMAT value.
type Format uint32

// Decoder output formats.
const (
	FormatNV12 Format = 103
	FormatP010 Format = 104
)

func (f Format) String() string {
	switch f {
	case FormatNV12:
		return "NV12"
	case FormatP010:
		return "P010"
	}
	return fmt.Sprintf("Format(%d)", uint32(f))
}

// InvalidPicEntry marks an unused DXVA_PicEntry_HEVC.
const InvalidPicEntry = 0xFF

// PicEntry encodes a DXVA_PicEntry_HEVC: Index7Bits | AssociatedFlag<<7.
// The associated flag marks a long-term reference.
func PicEntry(surface uint8, longTerm bool) uint8 {
	e := surface & 0x7F
	if longTerm {
		e |= 0x80
	}
	return e
}
