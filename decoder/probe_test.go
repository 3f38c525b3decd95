// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package decoder

import (
	"errors"
	"testing"

	"github.com/cnotch/hwdec/accel/fake"
	"github.com/cnotch/hwdec/dxva"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaxResolution(t *testing.T) {
	tests := []struct {
		name       string
		maxW, maxH uint32
		want       Resolution
	}{
		{"unlimited", 0, 0, Resolution{7680, 4320}},
		{"4K", 4096, 2304, Resolution{3840, 2160}},
		{"5K", 5120, 2880, Resolution{5120, 2880}},
		{"1080p", 1920, 1088, Resolution{1920, 1080}},
		{"720p", 1280, 720, Resolution{1280, 720}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := fake.NewDevice()
			dev.SetMaxSize(tt.maxW, tt.maxH)
			got, err := MaxResolution(dev, CodecHEVC, false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMaxResolution_None(t *testing.T) {
	dev := fake.NewDevice()
	dev.SetMaxSize(640, 480)
	_, err := MaxResolution(dev, CodecHEVC, false)
	assert.Error(t, err)
}

func TestCheckResolutionSupport(t *testing.T) {
	dev := fake.NewDevice()
	dev.SetFormats(dxva.FormatNV12)

	ok, err := CheckResolutionSupport(dev, CodecHEVC, 1920, 1080, false)
	require.NoError(t, err)
	assert.True(t, ok)

	// no P010 output
	ok, err = CheckResolutionSupport(dev, CodecHEVC, 1920, 1080, true)
	require.NoError(t, err)
	assert.False(t, ok)

	// a failing configuration query counts as unsupported
	dev.FailOn(fake.StepDecoderConfigs, errors.New("E_INVALIDARG"))
	ok, err = CheckResolutionSupport(dev, CodecHEVC, 1920, 1080, false)
	require.NoError(t, err)
	assert.False(t, ok)

	dev.FailOn(fake.StepCheckFormat, errors.New("device removed"))
	_, err = CheckResolutionSupport(dev, CodecHEVC, 1920, 1080, false)
	assert.Error(t, err)
}
