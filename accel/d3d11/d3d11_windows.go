// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build windows

package d3d11

import (
	"sync"
	"unsafe"

	"github.com/cnotch/hwdec/accel"
	"github.com/cnotch/hwdec/dxva"
	"github.com/cnotch/xlog"
	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

var (
	modd3d11              = windows.NewLazySystemDLL("d3d11.dll")
	procD3D11CreateDevice = modd3d11.NewProc("D3D11CreateDevice")
)

// Device is a D3D11 device with video decode support.
type Device struct {
	mu           sync.Mutex // serializes the immediate context
	device       uintptr
	context      uintptr
	videoDevice  uintptr
	videoContext uintptr
	featureLevel uint32
	logger       *xlog.Logger
}

var _ accel.Device = (*Device)(nil)

// Available reports whether a hardware device with video support can be
// created.
func Available() bool {
	d, err := Open()
	if err != nil {
		return false
	}
	d.Close()
	return true
}

// Open creates a hardware device on the default adapter.
func Open() (*Device, error) {
	if err := procD3D11CreateDevice.Find(); err != nil {
		return nil, errors.Wrap(accel.ErrUnavailable, err.Error())
	}

	d := &Device{logger: xlog.L().With(xlog.Fields(xlog.F("accel", "d3d11")))}
	hr, _, _ := procD3D11CreateDevice.Call(
		0, // default adapter
		driverTypeHardware,
		0,
		createVideoSupport|createBGRASupport,
		0, 0, // default feature levels
		sdkVersion,
		uintptr(unsafe.Pointer(&d.device)),
		uintptr(unsafe.Pointer(&d.featureLevel)),
		uintptr(unsafe.Pointer(&d.context)),
	)
	if err := hresult(hr, "D3D11CreateDevice"); err != nil {
		return nil, errors.Wrap(accel.ErrUnavailable, err.Error())
	}

	var err error
	if d.videoDevice, err = queryInterface(d.device, &iidVideoDevice, "query ID3D11VideoDevice"); err != nil {
		d.Close()
		return nil, errors.Wrap(accel.ErrUnavailable, err.Error())
	}
	if d.videoContext, err = queryInterface(d.context, &iidVideoContext, "query ID3D11VideoContext"); err != nil {
		d.Close()
		return nil, errors.Wrap(accel.ErrUnavailable, err.Error())
	}

	d.logger.Infof("created D3D11 device, feature level 0x%x", d.featureLevel)
	return d, nil
}

// Name implements accel.Device.
func (d *Device) Name() string { return "d3d11" }

// Profiles implements accel.Device.
func (d *Device) Profiles() ([]dxva.GUID, error) {
	n := uint32(call(d.videoDevice, vtGetVideoDecoderProfileCount))
	profiles := make([]dxva.GUID, 0, n)
	for i := uint32(0); i < n; i++ {
		var g dxva.GUID
		hr := call(d.videoDevice, vtGetVideoDecoderProfile, uintptr(i), uintptr(unsafe.Pointer(&g)))
		if failed(hr) {
			continue
		}
		profiles = append(profiles, g)
	}
	return profiles, nil
}

// CheckFormat implements accel.Device.
func (d *Device) CheckFormat(profile dxva.GUID, format dxva.Format) (bool, error) {
	var supported int32
	hr := call(d.videoDevice, vtCheckVideoDecoderFormat,
		uintptr(unsafe.Pointer(&profile)), uintptr(format), uintptr(unsafe.Pointer(&supported)))
	if err := hresult(hr, "CheckVideoDecoderFormat"); err != nil {
		return false, err
	}
	return supported != 0, nil
}

func (d *Device) rawConfigs(desc accel.DecoderDesc) (decoderDesc, []decoderConfig, error) {
	dd := decoderDesc{
		Guid:         desc.Profile,
		SampleWidth:  desc.Width,
		SampleHeight: desc.Height,
		OutputFormat: uint32(desc.OutputFormat),
	}

	var n uint32
	hr := call(d.videoDevice, vtGetVideoDecoderConfigCount, uintptr(unsafe.Pointer(&dd)), uintptr(unsafe.Pointer(&n)))
	if err := hresult(hr, "GetVideoDecoderConfigCount"); err != nil {
		return dd, nil, err
	}

	configs := make([]decoderConfig, n)
	for i := range configs {
		hr = call(d.videoDevice, vtGetVideoDecoderConfig,
			uintptr(unsafe.Pointer(&dd)), uintptr(i), uintptr(unsafe.Pointer(&configs[i])))
		if err := hresult(hr, "GetVideoDecoderConfig"); err != nil {
			return dd, nil, err
		}
	}
	return dd, configs, nil
}

// DecoderConfigs implements accel.Device.
func (d *Device) DecoderConfigs(desc accel.DecoderDesc) ([]accel.DecoderConfig, error) {
	_, raw, err := d.rawConfigs(desc)
	if err != nil {
		return nil, err
	}
	configs := make([]accel.DecoderConfig, len(raw))
	for i, c := range raw {
		d.logger.Debugf("config %d: ConfigBitstreamRaw=%d ConfigMBcontrolRasterOrder=%d",
			i, c.ConfigBitstreamRaw, c.ConfigMBcontrolRasterOrder)
		configs[i] = accel.DecoderConfig{
			ConfigBitstreamRaw:             c.ConfigBitstreamRaw,
			ConfigMinRenderTargetBuffCount: c.ConfigMinRenderTargetBuffCount,
			ConfigDecoderSpecific:          c.ConfigDecoderSpecific,
		}
	}
	return configs, nil
}

func (d *Device) createTexture(desc *texture2DDesc) (uintptr, error) {
	var tex uintptr
	hr := call(d.device, vtCreateTexture2D, uintptr(unsafe.Pointer(desc)), 0, uintptr(unsafe.Pointer(&tex)))
	if err := hresult(hr, "CreateTexture2D"); err != nil {
		return 0, err
	}
	return tex, nil
}

// CreateSurfaces implements accel.Device. The surfaces are one texture
// array bound for decoding plus a single slice staging texture for Map.
func (d *Device) CreateSurfaces(width, height int, format dxva.Format, count int) (accel.SurfaceArray, error) {
	desc := texture2DDesc{
		Width:       uint32(width),
		Height:      uint32(height),
		MipLevels:   1,
		ArraySize:   uint32(count),
		Format:      uint32(format),
		SampleCount: 1,
		Usage:       usageDefault,
		BindFlags:   bindDecoder,
	}
	tex, err := d.createTexture(&desc)
	if err != nil {
		return nil, errors.Wrapf(err, "decoder texture array %dx%d x%d", width, height, count)
	}

	desc.ArraySize = 1
	desc.Usage = usageStaging
	desc.BindFlags = 0
	desc.CPUAccessFlags = cpuAccessRead
	staging, err := d.createTexture(&desc)
	if err != nil {
		release(tex)
		return nil, errors.Wrap(err, "staging texture")
	}

	return &surfaceArray{
		dev:     d,
		texture: tex,
		staging: staging,
		count:   count,
		height:  height,
	}, nil
}

// CreateDecoder implements accel.Device.
func (d *Device) CreateDecoder(desc accel.DecoderDesc, cfg accel.DecoderConfig, surfaces accel.SurfaceArray) (accel.Decoder, error) {
	sa, ok := surfaces.(*surfaceArray)
	if !ok || sa.dev != d {
		return nil, errors.New("d3d11: surfaces were not created by this device")
	}

	dd, raw, err := d.rawConfigs(desc)
	if err != nil {
		return nil, err
	}
	var chosen *decoderConfig
	for i := range raw {
		c := &raw[i]
		if c.ConfigBitstreamRaw == cfg.ConfigBitstreamRaw &&
			c.ConfigMinRenderTargetBuffCount == cfg.ConfigMinRenderTargetBuffCount &&
			c.ConfigDecoderSpecific == cfg.ConfigDecoderSpecific {
			chosen = c
			break
		}
	}
	if chosen == nil {
		return nil, errors.Errorf("d3d11: decoder configuration ConfigBitstreamRaw=%d not offered", cfg.ConfigBitstreamRaw)
	}

	dec := &videoDecoder{dev: d, width: desc.Width, height: desc.Height}
	hr := call(d.videoDevice, vtCreateVideoDecoder,
		uintptr(unsafe.Pointer(&dd)), uintptr(unsafe.Pointer(chosen)), uintptr(unsafe.Pointer(&dec.decoder)))
	if err := hresult(hr, "CreateVideoDecoder"); err != nil {
		return nil, err
	}

	dec.views = make([]uintptr, sa.count)
	for i := range dec.views {
		vd := outputViewDesc{
			DecodeProfile: desc.Profile,
			ViewDimension: vdovDimensionTex2D,
			ArraySlice:    uint32(i),
		}
		hr = call(d.videoDevice, vtCreateVideoDecoderOutputView,
			sa.texture, uintptr(unsafe.Pointer(&vd)), uintptr(unsafe.Pointer(&dec.views[i])))
		if err := hresult(hr, "CreateVideoDecoderOutputView"); err != nil {
			dec.Close()
			return nil, errors.Wrapf(err, "output view %d", i)
		}
	}
	return dec, nil
}

// Close implements accel.Device.
func (d *Device) Close() error {
	release(d.videoContext)
	release(d.videoDevice)
	release(d.context)
	release(d.device)
	d.videoContext, d.videoDevice, d.context, d.device = 0, 0, 0, 0
	return nil
}
