// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package accel defines the contract between the decoder core and a
// platform video decode accelerator.
package accel

import (
	"errors"

	"github.com/cnotch/hwdec/dxva"
)

// ErrUnavailable is returned when no accelerator can be opened.
var ErrUnavailable = errors.New("accel: video decode accelerator unavailable")

// DecoderDesc describes the decoder to create.
type DecoderDesc struct {
	Profile      dxva.GUID
	Width        uint32
	Height       uint32
	OutputFormat dxva.Format
}

// DecoderConfig is one decoder configuration offered by the accelerator.
type DecoderConfig struct {
	ConfigBitstreamRaw             uint32
	ConfigMinRenderTargetBuffCount uint16
	ConfigDecoderSpecific          uint16
}

// BufferDesc describes one filled buffer passed to Submit.
type BufferDesc struct {
	Type       dxva.BufferType
	DataOffset uint32
	DataSize   uint32
}

// MappedSurface exposes the CPU view of a decoded NV12/P010 surface. The
// slices are only valid until Unmap.
type MappedSurface struct {
	Y        []byte
	UV       []byte
	YStride  int
	UVStride int
}

// SurfaceArray is a fixed array of decode output surfaces.
type SurfaceArray interface {
	// Count returns the number of surfaces.
	Count() int
	// Handle returns the native handle of the texture array.
	Handle() uintptr
	// Map makes surface idx readable by the CPU.
	Map(idx int) (MappedSurface, error)
	// Unmap releases the view returned by Map.
	Unmap(idx int)
	Close() error
}

// Decoder is a configured hardware decoder bound to a SurfaceArray.
type Decoder interface {
	BeginFrame(surface int) error
	// GetBuffer returns the accelerator owned memory for typ. The region is
	// valid until ReleaseBuffer.
	GetBuffer(typ dxva.BufferType) ([]byte, error)
	ReleaseBuffer(typ dxva.BufferType) error
	Submit(buffers []BufferDesc) error
	EndFrame() error
	// Flush pushes queued commands to the device.
	Flush() error
	Close() error
}

// Device is an opened accelerator.
type Device interface {
	Name() string
	Profiles() ([]dxva.GUID, error)
	CheckFormat(profile dxva.GUID, format dxva.Format) (bool, error)
	DecoderConfigs(desc DecoderDesc) ([]DecoderConfig, error)
	CreateSurfaces(width, height int, format dxva.Format, count int) (SurfaceArray, error)
	CreateDecoder(desc DecoderDesc, cfg DecoderConfig, surfaces SurfaceArray) (Decoder, error)
	Close() error
}

// HasProfile reports whether profiles contains p.
func HasProfile(profiles []dxva.GUID, p dxva.GUID) bool {
	for _, g := range profiles {
		if g == p {
			return true
		}
	}
	return false
}

// BytesPerSample returns the sample size of an output format.
func BytesPerSample(f dxva.Format) int {
	if f == dxva.FormatP010 {
		return 2
	}
	return 1
}
