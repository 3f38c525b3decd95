// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package decoder drives a video decode accelerator from an HEVC elementary
// stream: picture order, reference picture bookkeeping, surface allocation,
// accelerator parameter buffers and frame delivery.
package decoder

import (
	"fmt"
	"strings"

	"github.com/cnotch/hwdec/accel"
	"github.com/cnotch/hwdec/av/codec/hevc"
	"github.com/cnotch/hwdec/dxva"
	"github.com/cnotch/xlog"
	"github.com/pkg/errors"
)

// Surface pool bounds. Surface indexes are 7 bit picture entries.
const (
	DefaultSurfaceCount = 20
	MaxSurfaceCount     = 127
)

// Codec is the compressed video format.
type Codec int

// Codecs
const (
	CodecHEVC Codec = iota
	CodecH264
)

func (c Codec) String() string {
	if c == CodecH264 {
		return "h264"
	}
	return "h265"
}

// ParseCodec parses h264/avc or h265/hevc.
func ParseCodec(s string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "h265", "hevc":
		return CodecHEVC, nil
	case "h264", "avc":
		return CodecH264, nil
	}
	return CodecHEVC, fmt.Errorf("unknown codec %q", s)
}

// Config describes the decoder to create.
type Config struct {
	Codec        Codec
	Width        int
	Height       int
	HDR          bool
	SurfaceCount int
}

// FormatAndProfile returns the output format and accelerator profile for a
// codec: NV12 with Main for SDR, P010 with Main10 for HDR.
func FormatAndProfile(codec Codec, hdr bool) (dxva.Format, dxva.GUID) {
	format := dxva.FormatNV12
	if hdr {
		format = dxva.FormatP010
	}
	switch {
	case codec == CodecH264:
		return format, dxva.ProfileH264
	case hdr:
		return format, dxva.ProfileHEVCMain10
	default:
		return format, dxva.ProfileHEVCMain
	}
}

// HEVCDecoder decodes HEVC access units on an accelerator. It is not safe
// for concurrent use; one goroutine owns it.
type HEVCDecoder struct {
	cfg      Config
	desc     accel.DecoderDesc
	decCfg   accel.DecoderConfig
	dev      accel.Device
	surfaces accel.SurfaceArray
	dec      accel.Decoder

	parser   *hevc.Parser
	poc      POC
	dpb      *DPB
	dpbSize  int
	pool     *SurfacePool
	delivery Delivery
	feedback uint32

	logger *xlog.Logger
}

// NewHEVCDecoder checks the capabilities of dev and creates the surface
// array and decoder. Capability failures are returned as *CapabilityError
// and leave nothing allocated. dev stays owned by the caller.
func NewHEVCDecoder(dev accel.Device, cfg Config, options ...Option) (*HEVCDecoder, error) {
	if cfg.SurfaceCount <= 0 {
		cfg.SurfaceCount = DefaultSurfaceCount
	}
	if cfg.SurfaceCount > MaxSurfaceCount {
		cfg.SurfaceCount = MaxSurfaceCount
	}

	d := &HEVCDecoder{
		cfg:     cfg,
		dev:     dev,
		dpbSize: DefaultDPBSize,
		logger:  xlog.L(),
	}
	for _, option := range options {
		option.apply(d)
	}
	d.logger = d.logger.With(xlog.Fields(xlog.F("device", dev.Name())))
	if d.parser == nil {
		d.parser = hevc.NewParser(d.logger)
	}
	d.dpb = NewDPB(d.dpbSize)
	d.pool = NewSurfacePool(cfg.SurfaceCount)
	if cfg.SurfaceCount <= d.dpbSize {
		d.logger.Warnf("surface count %d does not exceed DPB size %d, surfaces will be reclaimed from the DPB",
			cfg.SurfaceCount, d.dpbSize)
	}

	if err := d.checkCapabilities(); err != nil {
		return nil, err
	}
	if err := d.initialize(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *HEVCDecoder) checkCapabilities() error {
	if d.cfg.Codec != CodecHEVC {
		return &CapabilityError{Reason: fmt.Sprintf("codec %s has no native picture parameter builder", d.cfg.Codec)}
	}
	if d.cfg.Width <= 0 || d.cfg.Height <= 0 {
		return &CapabilityError{Reason: fmt.Sprintf("invalid size %dx%d", d.cfg.Width, d.cfg.Height)}
	}

	format, profile := FormatAndProfile(d.cfg.Codec, d.cfg.HDR)
	d.desc = accel.DecoderDesc{
		Profile:      profile,
		Width:        uint32(d.cfg.Width),
		Height:       uint32(d.cfg.Height),
		OutputFormat: format,
	}

	profiles, err := d.dev.Profiles()
	if err != nil {
		return &CapabilityError{Reason: "query decoder profiles", Err: err}
	}
	d.logger.Debugf("accelerator reports %d decoder profiles", len(profiles))
	if !accel.HasProfile(profiles, profile) {
		return &CapabilityError{Reason: fmt.Sprintf("decoder profile %s not supported", profile)}
	}

	ok, err := d.dev.CheckFormat(profile, format)
	if err != nil {
		return &CapabilityError{Reason: "check output format", Err: err}
	}
	if !ok {
		return &CapabilityError{Reason: fmt.Sprintf("output format %s not supported", format)}
	}

	configs, err := d.dev.DecoderConfigs(d.desc)
	if err != nil {
		return &CapabilityError{Reason: "query decoder configurations", Err: err}
	}
	if len(configs) == 0 {
		return &CapabilityError{Reason: fmt.Sprintf("no decoder configuration for %dx%d", d.cfg.Width, d.cfg.Height)}
	}
	d.decCfg = selectConfig(configs)
	return nil
}

// selectConfig prefers the short slice format.
func selectConfig(configs []accel.DecoderConfig) accel.DecoderConfig {
	for _, c := range configs {
		if c.ConfigBitstreamRaw == dxva.ConfigBitstreamShortSlice {
			return c
		}
	}
	return configs[0]
}

func (d *HEVCDecoder) initialize() error {
	d.logger.Infof("initializing %s decoder %dx%d, %s, %d surfaces, ConfigBitstreamRaw=%d",
		d.cfg.Codec, d.cfg.Width, d.cfg.Height, d.desc.OutputFormat, d.cfg.SurfaceCount,
		d.decCfg.ConfigBitstreamRaw)

	surfaces, err := d.dev.CreateSurfaces(d.cfg.Width, d.cfg.Height, d.desc.OutputFormat, d.cfg.SurfaceCount)
	if err != nil {
		return errors.Wrap(err, "create decoder surfaces")
	}
	dec, err := d.dev.CreateDecoder(d.desc, d.decCfg, surfaces)
	if err != nil {
		surfaces.Close()
		return errors.Wrap(err, "create video decoder")
	}
	d.surfaces, d.dec = surfaces, dec
	return nil
}

// Config returns the configuration the decoder was created with.
func (d *HEVCDecoder) Config() Config { return d.cfg }

// DecoderConfig returns the selected accelerator configuration.
func (d *HEVCDecoder) DecoderConfig() accel.DecoderConfig { return d.decCfg }

// Parser returns the parameter set tables.
func (d *HEVCDecoder) Parser() *hevc.Parser { return d.parser }

// DPB returns the decoded picture buffer.
func (d *HEVCDecoder) DPB() *DPB { return d.dpb }

// Initialized reports whether the decoder can accept frames.
func (d *HEVCDecoder) Initialized() bool { return d.dec != nil }

// DecodeFrame decodes one access unit and returns the picture.
//
// Parameter sets in data update the parser first. Errors are
// ErrNoNALUnits/ErrNoSlices, *ParseError when the first slice cannot be
// parsed and *SubmissionError when the accelerator rejects the picture.
func (d *HEVCDecoder) DecodeFrame(data []byte) (*Frame, error) {
	if d.dec == nil {
		return nil, ErrNotInitialized
	}

	nals := d.parser.FindNALUnits(data)
	for _, nal := range nals {
		d.parser.ProcessNAL(nal)
	}
	return d.DecodeNALUnits(nals)
}

// DecodeNALUnits decodes an access unit already split by the caller. Its
// parameter sets must have been passed to the decoder's Parser.
func (d *HEVCDecoder) DecodeNALUnits(nals []hevc.NALUnit) (*Frame, error) {
	if d.dec == nil {
		return nil, ErrNotInitialized
	}
	if len(nals) == 0 {
		return nil, ErrNoNALUnits
	}
	var slices []hevc.NALUnit
	for _, nal := range nals {
		if nal.Type.IsSlice() {
			slices = append(slices, nal)
		}
	}
	if len(slices) == 0 {
		return nil, ErrNoSlices
	}

	first := slices[0]
	sh, err := d.parser.ParseSliceHeader(first)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	sps, pps := sh.SPS, sh.PPS
	if sps.Width() > d.cfg.Width || sps.Height() > d.cfg.Height {
		return nil, &ParseError{Err: fmt.Errorf("picture %dx%d exceeds decoder surfaces %dx%d",
			sps.Width(), sps.Height(), d.cfg.Width, d.cfg.Height)}
	}

	// An IDR picture must not see any earlier reference.
	idr := first.Type.IsIDR()
	if idr {
		d.dpb.RemoveAll()
	}

	surface, forced := d.pool.Next(d.dpb)
	if forced {
		d.logger.Warnf("all %d surfaces referenced, reclaimed surface %d", d.pool.Count(), surface)
	}
	poc := d.poc.Calculate(int32(sh.PicOrderCntLsb), idr, sps.MaxPocLsb())

	d.feedback++
	pp := dxva.BuildPicParams(&dxva.PictureInfo{
		SPS:            sps,
		PPS:            pps,
		Slice:          sh,
		NalType:        first.Type,
		Surface:        uint8(surface),
		POC:            poc,
		Refs:           d.dpb.References(),
		FeedbackNumber: d.feedback,
	})

	fb := &frameBuffers{picParams: pp.Marshal()}
	if sps.ScalingListEnabled {
		fb.qmatrix = dxva.BuildQMatrix(sps, pps).Marshal()
	}
	bitstream, controls := BuildBitstream(slices,
		d.decCfg.ConfigBitstreamRaw == dxva.ConfigBitstreamStartCodes)
	fb.bitstream = bitstream
	fb.slices = dxva.MarshalSlices(controls)
	fb.numSlices = len(controls)

	if err = submitFrame(d.dec, surface, fb); err != nil {
		return nil, err
	}

	d.updateDPB(surface, poc, first.Type.IsVCL(), idr)
	if d.logger.LevelEnabled(xlog.DebugLevel) {
		d.logger.Debugf("decoded %s poc=%d surface=%d slices=%d dpb=%d",
			first.Type, poc, surface, len(slices), d.dpb.Len())
	}
	return d.deliver(sps, surface, poc)
}

// updateDPB records the decoded picture; an IDR also restarts POC history.
func (d *HEVCDecoder) updateDPB(surface int, poc int32, isReference, isIDR bool) {
	d.dpb.Update(surface, poc, isReference, isIDR)
	if isIDR {
		d.poc.Reset()
	}
}

func (d *HEVCDecoder) deliver(sps *hevc.SPS, surface int, poc int32) (*Frame, error) {
	f := &Frame{
		Width:    sps.DisplayWidth(),
		Height:   sps.DisplayHeight(),
		HDR:      sps.IsHDR(),
		Transfer: sps.VUI.TransferCharacteristics,
		POC:      poc,
		Surface:  surface,
	}

	if d.delivery == DeliveryZeroCopy {
		f.Handle = d.surfaces.Handle()
		return f, nil
	}

	planes, err := copyPlanes(d.surfaces, surface, f.Width, f.Height,
		accel.BytesPerSample(d.desc.OutputFormat))
	if err != nil {
		return nil, errors.Wrap(err, "copy decoded picture")
	}
	f.Planes = planes
	return f, nil
}

// Flush forgets every reference picture and the POC history. Used after a
// stream discontinuity; the next picture should be an IDR.
func (d *HEVCDecoder) Flush() {
	d.dpb.Clear()
	d.poc.Reset()
}

// Close releases the decoder and its surfaces.
func (d *HEVCDecoder) Close() error {
	if d.dec == nil {
		return nil
	}
	d.logger.Info("closing decoder")
	err := d.dec.Close()
	if serr := d.surfaces.Close(); err == nil {
		err = serr
	}
	d.dec, d.surfaces = nil, nil
	return err
}
