// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package fake implements an in-memory accelerator. It records every call
// and submitted buffer and can fail any step on demand.
package fake

import (
	"fmt"
	"sync"

	"github.com/cnotch/hwdec/accel"
	"github.com/cnotch/hwdec/dxva"
)

// Steps that can be failed with Device.FailOn.
const (
	StepProfiles       = "Profiles"
	StepCheckFormat    = "CheckFormat"
	StepDecoderConfigs = "DecoderConfigs"
	StepCreateSurfaces = "CreateSurfaces"
	StepCreateDecoder  = "CreateDecoder"
	StepBeginFrame     = "BeginFrame"
	StepGetBuffer      = "GetBuffer"
	StepReleaseBuffer  = "ReleaseBuffer"
	StepSubmit         = "Submit"
	StepEndFrame       = "EndFrame"
	StepFlush          = "Flush"
	StepMap            = "Map"
)

// DefaultBufferSize is the size of each accelerator buffer unless overridden.
const DefaultBufferSize = 1 << 20

// Frame is one BeginFrame..EndFrame sequence as seen by the device.
type Frame struct {
	Surface int
	// Buffers holds the submitted bytes per buffer type, cut to DataSize.
	Buffers map[dxva.BufferType][]byte
	Descs   []accel.BufferDesc
	Ended   bool
}

// Device is a fake accel.Device.
type Device struct {
	mu sync.Mutex

	profiles []dxva.GUID
	formats  map[dxva.Format]bool
	configs  []accel.DecoderConfig
	maxW     uint32
	maxH     uint32

	fail        map[string]error
	bufferSizes map[dxva.BufferType]int

	calls   []string
	frames  []*Frame
	decoder *Decoder
	closed  bool
}

// NewDevice returns a device offering HEVC Main/Main10 with NV12 and P010
// output and a single short-slice configuration.
func NewDevice() *Device {
	return &Device{
		profiles: []dxva.GUID{dxva.ProfileHEVCMain, dxva.ProfileHEVCMain10, dxva.ProfileH264},
		formats:  map[dxva.Format]bool{dxva.FormatNV12: true, dxva.FormatP010: true},
		configs: []accel.DecoderConfig{
			{ConfigBitstreamRaw: dxva.ConfigBitstreamShortSlice},
		},
		fail:        make(map[string]error),
		bufferSizes: make(map[dxva.BufferType]int),
	}
}

// SetProfiles replaces the advertised profiles.
func (d *Device) SetProfiles(profiles ...dxva.GUID) {
	d.mu.Lock()
	d.profiles = profiles
	d.mu.Unlock()
}

// SetFormats replaces the supported output formats.
func (d *Device) SetFormats(formats ...dxva.Format) {
	d.mu.Lock()
	d.formats = make(map[dxva.Format]bool)
	for _, f := range formats {
		d.formats[f] = true
	}
	d.mu.Unlock()
}

// SetConfigs replaces the offered decoder configurations.
func (d *Device) SetConfigs(configs ...accel.DecoderConfig) {
	d.mu.Lock()
	d.configs = configs
	d.mu.Unlock()
}

// SetMaxSize limits the decoder size; larger descriptors get no
// configuration. Zero removes the limit.
func (d *Device) SetMaxSize(width, height uint32) {
	d.mu.Lock()
	d.maxW, d.maxH = width, height
	d.mu.Unlock()
}

// FailOn makes step return err until cleared with a nil err. GetBuffer and
// ReleaseBuffer steps may be narrowed to one type, e.g. "GetBuffer:Bitstream".
func (d *Device) FailOn(step string, err error) {
	d.mu.Lock()
	if err == nil {
		delete(d.fail, step)
	} else {
		d.fail[step] = err
	}
	d.mu.Unlock()
}

// SetBufferSize sets the size of the accelerator buffer of typ; 0 makes
// GetBuffer return a nil region.
func (d *Device) SetBufferSize(typ dxva.BufferType, size int) {
	d.mu.Lock()
	d.bufferSizes[typ] = size
	d.mu.Unlock()
}

// Calls returns the recorded call log.
func (d *Device) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

// Frames returns the recorded frames.
func (d *Device) Frames() []*Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Frame(nil), d.frames...)
}

// ResetLog clears recorded calls and frames.
func (d *Device) ResetLog() {
	d.mu.Lock()
	d.calls = nil
	d.frames = nil
	d.mu.Unlock()
}

// Closed reports whether Close was called.
func (d *Device) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *Device) record(format string, args ...interface{}) {
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

func (d *Device) failed(step string) error {
	return d.fail[step]
}

// Name implements accel.Device.
func (d *Device) Name() string { return "fake" }

// Profiles implements accel.Device.
func (d *Device) Profiles() ([]dxva.GUID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.failed(StepProfiles); err != nil {
		return nil, err
	}
	return append([]dxva.GUID(nil), d.profiles...), nil
}

// CheckFormat implements accel.Device.
func (d *Device) CheckFormat(profile dxva.GUID, format dxva.Format) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.failed(StepCheckFormat); err != nil {
		return false, err
	}
	return d.formats[format], nil
}

// DecoderConfigs implements accel.Device.
func (d *Device) DecoderConfigs(desc accel.DecoderDesc) ([]accel.DecoderConfig, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.failed(StepDecoderConfigs); err != nil {
		return nil, err
	}
	if d.maxW > 0 && (desc.Width > d.maxW || desc.Height > d.maxH) {
		return nil, nil
	}
	return append([]accel.DecoderConfig(nil), d.configs...), nil
}

// CreateSurfaces implements accel.Device.
func (d *Device) CreateSurfaces(width, height int, format dxva.Format, count int) (accel.SurfaceArray, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.failed(StepCreateSurfaces); err != nil {
		return nil, err
	}
	d.record("CreateSurfaces(%dx%d,%s,%d)", width, height, format, count)

	bps := accel.BytesPerSample(format)
	s := &Surfaces{
		dev:      d,
		yStride:  width * bps,
		uvStride: width * bps,
		height:   height,
		mem:      make([][]byte, count),
	}
	for i := range s.mem {
		s.mem[i] = make([]byte, s.yStride*height+s.uvStride*height/2)
	}
	return s, nil
}

// CreateDecoder implements accel.Device.
func (d *Device) CreateDecoder(desc accel.DecoderDesc, cfg accel.DecoderConfig, surfaces accel.SurfaceArray) (accel.Decoder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.failed(StepCreateDecoder); err != nil {
		return nil, err
	}
	d.record("CreateDecoder(%s,%dx%d,%s,raw=%d)", desc.Profile, desc.Width, desc.Height,
		desc.OutputFormat, cfg.ConfigBitstreamRaw)

	s, _ := surfaces.(*Surfaces)
	d.decoder = &Decoder{
		dev:      d,
		surfaces: s,
		buffers:  make(map[dxva.BufferType][]byte),
		Desc:     desc,
		Config:   cfg,
	}
	return d.decoder, nil
}

// Close implements accel.Device.
func (d *Device) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

// Decoder is a fake accel.Decoder.
type Decoder struct {
	dev      *Device
	surfaces *Surfaces
	buffers  map[dxva.BufferType][]byte
	current  *Frame
	closed   bool

	Desc   accel.DecoderDesc
	Config accel.DecoderConfig
}

// BeginFrame implements accel.Decoder.
func (dec *Decoder) BeginFrame(surface int) error {
	d := dec.dev
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("BeginFrame(%d)", surface)
	if err := d.failed(StepBeginFrame); err != nil {
		return err
	}
	dec.current = &Frame{Surface: surface, Buffers: make(map[dxva.BufferType][]byte)}
	d.frames = append(d.frames, dec.current)
	return nil
}

// GetBuffer implements accel.Decoder.
func (dec *Decoder) GetBuffer(typ dxva.BufferType) ([]byte, error) {
	d := dec.dev
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("GetBuffer(%s)", typ)
	if err := d.failed(StepGetBuffer); err != nil {
		return nil, err
	}
	if err := d.failed(StepGetBuffer + ":" + typ.String()); err != nil {
		return nil, err
	}

	size, ok := d.bufferSizes[typ]
	if !ok {
		size = DefaultBufferSize
	}
	if size == 0 {
		return nil, nil
	}
	buf := make([]byte, size)
	dec.buffers[typ] = buf
	return buf, nil
}

// ReleaseBuffer implements accel.Decoder.
func (dec *Decoder) ReleaseBuffer(typ dxva.BufferType) error {
	d := dec.dev
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("ReleaseBuffer(%s)", typ)
	if err := d.failed(StepReleaseBuffer); err != nil {
		return err
	}
	return d.failed(StepReleaseBuffer + ":" + typ.String())
}

// Submit implements accel.Decoder.
func (dec *Decoder) Submit(buffers []accel.BufferDesc) error {
	d := dec.dev
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("Submit(%d)", len(buffers))
	if err := d.failed(StepSubmit); err != nil {
		return err
	}
	if dec.current == nil {
		return fmt.Errorf("fake: submit outside of a frame")
	}
	for _, desc := range buffers {
		buf := dec.buffers[desc.Type]
		if int(desc.DataOffset+desc.DataSize) > len(buf) {
			return fmt.Errorf("fake: %s descriptor exceeds buffer", desc.Type)
		}
		dec.current.Buffers[desc.Type] = append([]byte(nil), buf[desc.DataOffset:desc.DataOffset+desc.DataSize]...)
		dec.current.Descs = append(dec.current.Descs, desc)
	}
	return nil
}

// EndFrame implements accel.Decoder. The output surface is filled with a
// pattern derived from the frame number.
func (dec *Decoder) EndFrame() error {
	d := dec.dev
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("EndFrame")
	if err := d.failed(StepEndFrame); err != nil {
		return err
	}
	if dec.current != nil {
		dec.current.Ended = true
		if dec.surfaces != nil && dec.current.Surface < len(dec.surfaces.mem) {
			mem := dec.surfaces.mem[dec.current.Surface]
			for i := range mem {
				mem[i] = byte(len(d.frames))
			}
		}
	}
	return nil
}

// Flush implements accel.Decoder.
func (dec *Decoder) Flush() error {
	d := dec.dev
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("Flush")
	return d.failed(StepFlush)
}

// Close implements accel.Decoder.
func (dec *Decoder) Close() error {
	d := dec.dev
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("CloseDecoder")
	dec.closed = true
	return nil
}

// Surfaces is a fake accel.SurfaceArray backed by host memory.
type Surfaces struct {
	dev      *Device
	mem      [][]byte
	yStride  int
	uvStride int
	height   int
}

// Count implements accel.SurfaceArray.
func (s *Surfaces) Count() int { return len(s.mem) }

// Handle implements accel.SurfaceArray.
func (s *Surfaces) Handle() uintptr { return 0xD3D }

// Map implements accel.SurfaceArray.
func (s *Surfaces) Map(idx int) (accel.MappedSurface, error) {
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()
	if err := s.dev.failed(StepMap); err != nil {
		return accel.MappedSurface{}, err
	}
	if idx < 0 || idx >= len(s.mem) {
		return accel.MappedSurface{}, fmt.Errorf("fake: surface %d out of range", idx)
	}
	mem := s.mem[idx]
	ySize := s.yStride * s.height
	return accel.MappedSurface{
		Y:        mem[:ySize],
		UV:       mem[ySize:],
		YStride:  s.yStride,
		UVStride: s.uvStride,
	}, nil
}

// Unmap implements accel.SurfaceArray.
func (s *Surfaces) Unmap(idx int) {}

// Close implements accel.SurfaceArray.
func (s *Surfaces) Close() error {
	s.dev.mu.Lock()
	s.dev.record("CloseSurfaces")
	s.dev.mu.Unlock()
	return nil
}
