// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package media

import (
	"fmt"
	"strings"

	"github.com/cnotch/hwdec/accel"
	"github.com/cnotch/hwdec/accel/d3d11"
	"github.com/cnotch/hwdec/decoder"
	"github.com/cnotch/hwdec/platform"
	"github.com/cnotch/xlog"
)

// ParseBackend parses a backend name; "auto" and "" return ok == false.
func ParseBackend(s string) (b Backend, ok bool, err error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return BackendNative, false, nil
	case "native":
		return BackendNative, true, nil
	case "gstreamer", "gst":
		return BackendGstHardware, true, nil
	case "software", "sw":
		return BackendSoftware, true, nil
	}
	return BackendNative, false, fmt.Errorf("unknown decode backend %q", s)
}

// Candidates returns the backends worth trying on ctx, best first. When
// prefer is set, that backend is moved (or added) to the front.
func Candidates(ctx *platform.Context, prefer Backend, hasPreference bool) []Backend {
	var list []Backend
	if ctx.OS() == "windows" && ctx.D3D11() {
		list = append(list, BackendNative)
	}
	if ctx.GStreamer() {
		if ctx.HardwareDecode() {
			list = append(list, BackendGstHardware)
		}
		list = append(list, BackendSoftware)
	}

	if !hasPreference {
		return list
	}
	ordered := []Backend{prefer}
	for _, b := range list {
		if b != prefer {
			ordered = append(ordered, b)
		}
	}
	return ordered
}

// FactoryConfig is passed to every backend opener.
type FactoryConfig struct {
	Codec             decoder.Codec
	SurfaceCount      int
	Delivery          decoder.Delivery
	KeyframeThreshold int
	LowLatency        bool

	// GstElement replaces the hardware decoder element of GStreamer.
	GstElement string

	// Prefer is tried first when HasPreference is set.
	Prefer        Backend
	HasPreference bool

	// OpenDevice opens the accelerator of the native backend; nil opens
	// the D3D11 device.
	OpenDevice func() (accel.Device, error)
}

// Opener creates one backend.
type Opener func(cfg FactoryConfig, logger *xlog.Logger) (VideoDecoder, error)

// Factory selects the first backend that initialises.
type Factory struct {
	ctx     *platform.Context
	openers map[Backend]Opener
	logger  *xlog.Logger
}

// NewFactory returns a factory with the built-in backends.
func NewFactory(ctx *platform.Context, logger *xlog.Logger) *Factory {
	if logger == nil {
		logger = xlog.L()
	}
	f := &Factory{
		ctx:     ctx,
		openers: make(map[Backend]Opener, 3),
		logger:  logger,
	}
	f.Regist(BackendNative, openNative)
	f.Regist(BackendGstHardware, openGst(true, ctx.OS()))
	f.Regist(BackendSoftware, openGst(false, ctx.OS()))
	return f
}

// Regist replaces the opener of b.
func (f *Factory) Regist(b Backend, open Opener) {
	f.openers[b] = open
}

// Create tries the candidates in order and returns the first decoder that
// initialises. It returns ErrNoBackend when none does.
func (f *Factory) Create(cfg FactoryConfig) (VideoDecoder, error) {
	candidates := Candidates(f.ctx, cfg.Prefer, cfg.HasPreference)
	for _, b := range candidates {
		open := f.openers[b]
		if open == nil {
			continue
		}
		dec, err := open(cfg, f.logger)
		if err != nil {
			f.logger.Warnf("decode backend %s unavailable: %v", b, err)
			continue
		}
		f.logger.Infof("using decode backend %s", b)
		return dec, nil
	}
	return nil, ErrNoBackend
}

func openNative(cfg FactoryConfig, logger *xlog.Logger) (VideoDecoder, error) {
	open := cfg.OpenDevice
	if open == nil {
		open = func() (accel.Device, error) {
			dev, err := d3d11.Open()
			if err != nil {
				return nil, err
			}
			return dev, nil
		}
	}
	dev, err := open()
	if err != nil {
		return nil, err
	}

	dec, err := NewNativeDecoder(dev, NativeConfig{
		Codec:             cfg.Codec,
		SurfaceCount:      cfg.SurfaceCount,
		Delivery:          cfg.Delivery,
		KeyframeThreshold: cfg.KeyframeThreshold,
		Logger:            logger,
	})
	if err != nil {
		dev.Close()
		return nil, err
	}
	return dec, nil
}

func openGst(hardware bool, goos string) Opener {
	return func(cfg FactoryConfig, logger *xlog.Logger) (VideoDecoder, error) {
		element := ""
		if hardware {
			element = cfg.GstElement
		}
		dec, err := NewGstDecoder(GstConfig{
			Codec:             cfg.Codec,
			Hardware:          hardware,
			LowLatency:        cfg.LowLatency,
			Platform:          goos,
			Element:           element,
			KeyframeThreshold: cfg.KeyframeThreshold,
		}, logger)
		if err != nil {
			return nil, err
		}
		return dec, nil
	}
}
