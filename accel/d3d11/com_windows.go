// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build windows

package d3d11

import (
	"syscall"
	"unsafe"

	"github.com/cnotch/hwdec/dxva"
	"github.com/pkg/errors"
)

// IUnknown
const (
	vtQueryInterface = 0
	vtRelease        = 2
)

// ID3D11Device
const vtCreateTexture2D = 5

// ID3D11DeviceContext
const (
	vtMap                   = 14
	vtUnmap                 = 15
	vtCopySubresourceRegion = 46
	vtFlush                 = 111
)

// ID3D11VideoDevice
const (
	vtCreateVideoDecoder           = 3
	vtCreateVideoDecoderOutputView = 7
	vtGetVideoDecoderProfileCount  = 11
	vtGetVideoDecoderProfile       = 12
	vtCheckVideoDecoderFormat      = 13
	vtGetVideoDecoderConfigCount   = 14
	vtGetVideoDecoderConfig        = 15
)

// ID3D11VideoContext
const (
	vtGetDecoderBuffer     = 7
	vtReleaseDecoderBuffer = 8
	vtDecoderBeginFrame    = 9
	vtDecoderEndFrame      = 10
	vtSubmitDecoderBuffers = 11
)

const (
	driverTypeHardware = 1
	createBGRASupport  = 0x20
	createVideoSupport = 0x800
	sdkVersion         = 7
	usageDefault       = 0
	usageStaging       = 3
	bindDecoder        = 0x200
	cpuAccessRead      = 0x20000
	mapRead            = 1
	vdovDimensionTex2D = 1
)

var (
	iidVideoDevice  = dxva.GUID{Data1: 0x10EC4D5B, Data2: 0x975A, Data3: 0x4689, Data4: [8]byte{0xB9, 0xE4, 0xD0, 0xAA, 0xC3, 0x0F, 0xE3, 0x33}}
	iidVideoContext = dxva.GUID{Data1: 0x61F21C45, Data2: 0x3C0E, Data3: 0x4A74, Data4: [8]byte{0x9C, 0xEA, 0x67, 0x10, 0x0D, 0x9A, 0xD5, 0xE4}}
)

// call invokes method number idx of the COM object obj.
//
//go:uintptrescapes
func call(obj uintptr, idx int, args ...uintptr) uintptr {
	vtbl := *(*uintptr)(unsafe.Pointer(obj))
	fn := *(*uintptr)(unsafe.Pointer(vtbl + uintptr(idx)*unsafe.Sizeof(uintptr(0))))
	r, _, _ := syscall.SyscallN(fn, append([]uintptr{obj}, args...)...)
	return r
}

func release(obj uintptr) {
	if obj != 0 {
		call(obj, vtRelease)
	}
}

func failed(hr uintptr) bool { return int32(hr) < 0 }

func hresult(hr uintptr, what string) error {
	if failed(hr) {
		return errors.Errorf("%s failed: HRESULT 0x%08X", what, uint32(hr))
	}
	return nil
}

func queryInterface(obj uintptr, iid *dxva.GUID, what string) (uintptr, error) {
	var out uintptr
	hr := call(obj, vtQueryInterface, uintptr(unsafe.Pointer(iid)), uintptr(unsafe.Pointer(&out)))
	if err := hresult(hr, what); err != nil {
		return 0, err
	}
	return out, nil
}

// D3D11_VIDEO_DECODER_DESC
type decoderDesc struct {
	Guid         dxva.GUID
	SampleWidth  uint32
	SampleHeight uint32
	OutputFormat uint32
}

// D3D11_VIDEO_DECODER_CONFIG
type decoderConfig struct {
	GuidConfigBitstreamEncryption  dxva.GUID
	GuidConfigMBcontrolEncryption  dxva.GUID
	GuidConfigResidDiffEncryption  dxva.GUID
	ConfigBitstreamRaw             uint32
	ConfigMBcontrolRasterOrder     uint32
	ConfigResidDiffHost            uint32
	ConfigSpatialResid8            uint32
	ConfigResid8Subtraction        uint32
	ConfigSpatialHost8or9Clipping  uint32
	ConfigSpatialResidInterleaved  uint32
	ConfigIntraResidUnsigned       uint32
	ConfigResidDiffAccelerator     uint32
	ConfigHostInverseScan          uint32
	ConfigSpecificIDCT             uint32
	Config4GroupedCoefs            uint32
	ConfigMinRenderTargetBuffCount uint16
	ConfigDecoderSpecific          uint16
}

// D3D11_TEXTURE2D_DESC
type texture2DDesc struct {
	Width          uint32
	Height         uint32
	MipLevels      uint32
	ArraySize      uint32
	Format         uint32
	SampleCount    uint32
	SampleQuality  uint32
	Usage          uint32
	BindFlags      uint32
	CPUAccessFlags uint32
	MiscFlags      uint32
}

// D3D11_VIDEO_DECODER_OUTPUT_VIEW_DESC
type outputViewDesc struct {
	DecodeProfile dxva.GUID
	ViewDimension uint32
	ArraySlice    uint32
}

// D3D11_MAPPED_SUBRESOURCE
type mappedSubresource struct {
	Data       uintptr
	RowPitch   uint32
	DepthPitch uint32
}

// D3D11_VIDEO_DECODER_BUFFER_DESC
type bufferDesc struct {
	BufferType        uint32
	BufferIndex       uint32
	DataOffset        uint32
	DataSize          uint32
	FirstMBaddress    uint32
	NumMBsInBuffer    uint32
	Width             uint32
	Height            uint32
	Stride            uint32
	ReservedBits      uint32
	IV                uintptr
	IVSize            uint32
	PartialEncryption int32
	// D3D11_ENCRYPTED_BLOCK_INFO
	NumEncryptedBytesAtBeginning uint32
	NumBytesInSkipPattern        uint32
	NumBytesInEncryptPattern     uint32
}
