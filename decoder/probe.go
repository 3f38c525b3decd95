// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package decoder

import (
	"github.com/cnotch/hwdec/accel"
	"github.com/pkg/errors"
)

// Resolution is a picture size.
type Resolution struct {
	Width  int
	Height int
}

// ProbeResolutions are tried by MaxResolution, largest first.
var ProbeResolutions = []Resolution{
	{7680, 4320}, // 8K
	{5120, 2880}, // 5K
	{3840, 2160}, // 4K
	{2560, 1440},
	{1920, 1080},
	{1280, 720},
}

// CheckResolutionSupport reports whether dev can decode codec at width x height.
func CheckResolutionSupport(dev accel.Device, codec Codec, width, height int, hdr bool) (bool, error) {
	format, profile := FormatAndProfile(codec, hdr)
	ok, err := dev.CheckFormat(profile, format)
	if err != nil {
		return false, errors.Wrapf(err, "check %s output format", format)
	}
	if !ok {
		return false, nil
	}

	configs, err := dev.DecoderConfigs(accel.DecoderDesc{
		Profile:      profile,
		Width:        uint32(width),
		Height:       uint32(height),
		OutputFormat: format,
	})
	if err != nil {
		return false, nil
	}
	return len(configs) > 0, nil
}

// MaxResolution returns the largest of ProbeResolutions dev supports.
func MaxResolution(dev accel.Device, codec Codec, hdr bool) (Resolution, error) {
	for _, r := range ProbeResolutions {
		ok, err := CheckResolutionSupport(dev, codec, r.Width, r.Height, hdr)
		if err != nil {
			return Resolution{}, err
		}
		if ok {
			return r, nil
		}
	}
	return Resolution{}, errors.Errorf("no supported resolution for %s (hdr=%v)", codec, hdr)
}
