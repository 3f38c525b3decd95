// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build windows

package d3d11

import (
	"fmt"
	"unsafe"

	"github.com/cnotch/hwdec/accel"
	"github.com/cnotch/hwdec/dxva"
)

type videoDecoder struct {
	dev     *Device
	decoder uintptr
	views   []uintptr
	width   uint32
	height  uint32
}

func (v *videoDecoder) BeginFrame(surface int) error {
	if surface < 0 || surface >= len(v.views) {
		return fmt.Errorf("d3d11: surface %d out of range", surface)
	}
	v.dev.mu.Lock()
	defer v.dev.mu.Unlock()
	hr := call(v.dev.videoContext, vtDecoderBeginFrame, v.decoder, v.views[surface], 0, 0)
	return hresult(hr, "DecoderBeginFrame")
}

func (v *videoDecoder) GetBuffer(typ dxva.BufferType) ([]byte, error) {
	var size uint32
	var ptr uintptr
	v.dev.mu.Lock()
	hr := call(v.dev.videoContext, vtGetDecoderBuffer, v.decoder, uintptr(typ),
		uintptr(unsafe.Pointer(&size)), uintptr(unsafe.Pointer(&ptr)))
	v.dev.mu.Unlock()
	if err := hresult(hr, "GetDecoderBuffer"); err != nil {
		return nil, err
	}
	if ptr == 0 {
		return nil, nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(ptr)), size), nil
}

func (v *videoDecoder) ReleaseBuffer(typ dxva.BufferType) error {
	v.dev.mu.Lock()
	defer v.dev.mu.Unlock()
	hr := call(v.dev.videoContext, vtReleaseDecoderBuffer, v.decoder, uintptr(typ))
	return hresult(hr, "ReleaseDecoderBuffer")
}

func (v *videoDecoder) Submit(buffers []accel.BufferDesc) error {
	if len(buffers) == 0 {
		return nil
	}
	descs := make([]bufferDesc, len(buffers))
	for i, b := range buffers {
		descs[i] = bufferDesc{
			BufferType: uint32(b.Type),
			DataOffset: b.DataOffset,
			DataSize:   b.DataSize,
			Width:      v.width,
			Height:     v.height,
		}
		if b.Type == dxva.BufferSliceControl {
			descs[i].NumMBsInBuffer = b.DataSize / dxva.SliceShortSize
		}
	}

	v.dev.mu.Lock()
	defer v.dev.mu.Unlock()
	hr := call(v.dev.videoContext, vtSubmitDecoderBuffers, v.decoder,
		uintptr(len(descs)), uintptr(unsafe.Pointer(&descs[0])))
	return hresult(hr, "SubmitDecoderBuffers")
}

func (v *videoDecoder) EndFrame() error {
	v.dev.mu.Lock()
	defer v.dev.mu.Unlock()
	hr := call(v.dev.videoContext, vtDecoderEndFrame, v.decoder)
	return hresult(hr, "DecoderEndFrame")
}

func (v *videoDecoder) Flush() error {
	v.dev.mu.Lock()
	defer v.dev.mu.Unlock()
	call(v.dev.context, vtFlush)
	return nil
}

func (v *videoDecoder) Close() error {
	for i, view := range v.views {
		release(view)
		v.views[i] = 0
	}
	release(v.decoder)
	v.decoder = 0
	return nil
}

type surfaceArray struct {
	dev     *Device
	texture uintptr
	staging uintptr
	count   int
	height  int
}

func (s *surfaceArray) Count() int      { return s.count }
func (s *surfaceArray) Handle() uintptr { return s.texture }

// Map copies array slice idx into the staging texture and maps it. The NV12
// and P010 chroma plane follows the luma plane at RowPitch * height.
func (s *surfaceArray) Map(idx int) (accel.MappedSurface, error) {
	if idx < 0 || idx >= s.count {
		return accel.MappedSurface{}, fmt.Errorf("d3d11: surface %d out of range", idx)
	}
	ctx := s.dev.context

	s.dev.mu.Lock()
	call(ctx, vtCopySubresourceRegion, s.staging, 0, 0, 0, 0, s.texture, uintptr(idx), 0)
	var m mappedSubresource
	hr := call(ctx, vtMap, s.staging, 0, mapRead, 0, uintptr(unsafe.Pointer(&m)))
	if err := hresult(hr, "Map"); err != nil {
		s.dev.mu.Unlock()
		return accel.MappedSurface{}, err
	}
	// the lock is held until Unmap

	pitch := int(m.RowPitch)
	ySize := pitch * s.height
	mem := unsafe.Slice((*byte)(unsafe.Pointer(m.Data)), ySize+pitch*s.height/2)
	return accel.MappedSurface{
		Y:        mem[:ySize],
		UV:       mem[ySize:],
		YStride:  pitch,
		UVStride: pitch,
	}, nil
}

func (s *surfaceArray) Unmap(idx int) {
	call(s.dev.context, vtUnmap, s.staging, 0)
	s.dev.mu.Unlock()
}

func (s *surfaceArray) Close() error {
	release(s.staging)
	release(s.texture)
	s.staging, s.texture = 0, 0
	return nil
}
