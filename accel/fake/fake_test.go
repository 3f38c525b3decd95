// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fake

import (
	"errors"
	"testing"

	"github.com/cnotch/hwdec/accel"
	"github.com/cnotch/hwdec/dxva"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openDecoder(t *testing.T, d *Device) (accel.Decoder, accel.SurfaceArray) {
	desc := accel.DecoderDesc{Profile: dxva.ProfileHEVCMain, Width: 64, Height: 32, OutputFormat: dxva.FormatNV12}
	surfaces, err := d.CreateSurfaces(64, 32, dxva.FormatNV12, 4)
	require.NoError(t, err)
	dec, err := d.CreateDecoder(desc, d.configs[0], surfaces)
	require.NoError(t, err)
	return dec, surfaces
}

func TestDevice_Capabilities(t *testing.T) {
	d := NewDevice()
	var _ accel.Device = d

	profiles, err := d.Profiles()
	require.NoError(t, err)
	assert.True(t, accel.HasProfile(profiles, dxva.ProfileHEVCMain10))

	d.SetProfiles(dxva.ProfileH264)
	profiles, _ = d.Profiles()
	assert.False(t, accel.HasProfile(profiles, dxva.ProfileHEVCMain))

	d.SetFormats(dxva.FormatNV12)
	ok, err := d.CheckFormat(dxva.ProfileHEVCMain, dxva.FormatP010)
	require.NoError(t, err)
	assert.False(t, ok)

	boom := errors.New("boom")
	d.FailOn(StepProfiles, boom)
	_, err = d.Profiles()
	assert.Equal(t, boom, err)
	d.FailOn(StepProfiles, nil)
	_, err = d.Profiles()
	assert.NoError(t, err)
}

func TestDecoder_RecordsFrame(t *testing.T) {
	d := NewDevice()
	dec, surfaces := openDecoder(t, d)

	require.NoError(t, dec.BeginFrame(2))
	buf, err := dec.GetBuffer(dxva.BufferPictureParameters)
	require.NoError(t, err)
	copy(buf, []byte{1, 2, 3})
	require.NoError(t, dec.ReleaseBuffer(dxva.BufferPictureParameters))
	require.NoError(t, dec.Submit([]accel.BufferDesc{
		{Type: dxva.BufferPictureParameters, DataSize: 3},
	}))
	require.NoError(t, dec.EndFrame())
	require.NoError(t, dec.Flush())

	frames := d.Frames()
	require.Len(t, frames, 1)
	assert.Equal(t, 2, frames[0].Surface)
	assert.True(t, frames[0].Ended)
	assert.Equal(t, []byte{1, 2, 3}, frames[0].Buffers[dxva.BufferPictureParameters])

	m, err := surfaces.Map(2)
	require.NoError(t, err)
	assert.Equal(t, 64*32, len(m.Y))
	assert.Equal(t, 64*16, len(m.UV))
	assert.Equal(t, byte(1), m.Y[0])
	surfaces.Unmap(2)

	assert.Contains(t, d.Calls(), "GetBuffer(PictureParameters)")
}

func TestDecoder_Failures(t *testing.T) {
	d := NewDevice()
	dec, _ := openDecoder(t, d)
	boom := errors.New("boom")

	d.FailOn(StepGetBuffer+":Bitstream", boom)
	_, err := dec.GetBuffer(dxva.BufferPictureParameters)
	assert.NoError(t, err)
	_, err = dec.GetBuffer(dxva.BufferBitstream)
	assert.Equal(t, boom, err)

	d.SetBufferSize(dxva.BufferSliceControl, 0)
	buf, err := dec.GetBuffer(dxva.BufferSliceControl)
	assert.NoError(t, err)
	assert.Nil(t, buf)

	assert.Error(t, dec.Submit(nil), "submit outside a frame")
}
