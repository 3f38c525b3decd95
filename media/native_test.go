// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package media

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cnotch/hwdec/accel"
	"github.com/cnotch/hwdec/accel/fake"
	"github.com/cnotch/hwdec/av/codec/hevc/hevctest"
	"github.com/cnotch/hwdec/decoder"
	"github.com/cnotch/hwdec/dxva"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	small = hevctest.SPSOptions{Width: 640, Height: 360}
	hd    = hevctest.SPSOptions{Width: 1280, Height: 720}
)

func newNative(t *testing.T, dev accel.Device, cfg NativeConfig) *NativeDecoder {
	cfg.Codec = decoder.CodecHEVC
	n, err := NewNativeDecoder(dev, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { n.Close() })
	return n
}

// decodeSync queues data and waits for its stats.
func decodeSync(t *testing.T, d VideoDecoder, data []byte) DecodeStats {
	require.NoError(t, d.DecodeAsync(data, time.Now()))
	select {
	case s := <-d.Stats():
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("no decode stats")
	}
	return DecodeStats{}
}

func countCalls(calls []string, prefix string) int {
	n := 0
	for _, c := range calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func TestNativeDecoder_LazyCreate(t *testing.T) {
	dev := fake.NewDevice()
	n := newNative(t, dev, NativeConfig{})
	assert.Empty(t, dev.Calls())

	s := decodeSync(t, n, hevctest.KeyFrame(small))
	assert.True(t, s.FrameProduced)
	assert.False(t, s.NeedsKeyframe)
	assert.Equal(t, uint64(1), n.FramesDecoded())
	assert.Equal(t, 1, countCalls(dev.Calls(), "CreateDecoder("))
	assert.Contains(t, dev.Calls(), "CreateSurfaces(640x360,NV12,20)")

	f := n.Frames().Take()
	require.NotNil(t, f)
	assert.Equal(t, 640, f.Width)
	assert.Equal(t, 360, f.Height)
	assert.Equal(t, PixelNV12, f.Format)
	assert.False(t, f.IsGPU())
	assert.Len(t, f.YPlane, 640*360)
	assert.Len(t, f.UVPlane, 640*180)

	s = decodeSync(t, n, hevctest.AnnexB(hevctest.Trail(1)))
	assert.True(t, s.FrameProduced)
	assert.Equal(t, uint64(2), n.FramesDecoded())
	assert.Equal(t, int64(2), n.Sample().OutFrames)
}

func TestNativeDecoder_ZeroCopy(t *testing.T) {
	dev := fake.NewDevice()
	n := newNative(t, dev, NativeConfig{Delivery: decoder.DeliveryZeroCopy})

	require.True(t, decodeSync(t, n, hevctest.KeyFrame(small)).FrameProduced)
	f := n.Frames().Take()
	require.NotNil(t, f)
	require.True(t, f.IsGPU())
	assert.Equal(t, uintptr(0xD3D), f.GPU.Handle)
	assert.Equal(t, 0, f.GPU.ArrayIndex)
}

func TestNativeDecoder_WaitingForSPS(t *testing.T) {
	dev := fake.NewDevice()
	n := newNative(t, dev, NativeConfig{})

	var needs []bool
	for i := 0; i < 3; i++ {
		s := decodeSync(t, n, hevctest.AnnexB(hevctest.Trail(i)))
		assert.False(t, s.FrameProduced)
		needs = append(needs, s.NeedsKeyframe)
	}
	assert.Equal(t, []bool{false, false, true}, needs)
	assert.Empty(t, dev.Calls())

	s := decodeSync(t, n, hevctest.KeyFrame(small))
	assert.True(t, s.FrameProduced)
}

func TestNativeDecoder_KeyframeOnceAtThreshold(t *testing.T) {
	dev := fake.NewDevice()
	n := newNative(t, dev, NativeConfig{})
	require.True(t, decodeSync(t, n, hevctest.KeyFrame(small)).FrameProduced)

	dev.FailOn(fake.StepSubmit, errors.New("E_FAIL"))
	var requested []int
	for i := 1; i <= 10; i++ {
		s := decodeSync(t, n, hevctest.AnnexB(hevctest.Trail(i)))
		assert.False(t, s.FrameProduced)
		if s.NeedsKeyframe {
			requested = append(requested, i)
		}
	}
	assert.Equal(t, []int{3}, requested)
	assert.Equal(t, int64(10), n.Sample().Failures)
	assert.Equal(t, int64(1), n.Sample().KeyframeRequests)

	// recovery resets the count
	dev.FailOn(fake.StepSubmit, nil)
	require.True(t, decodeSync(t, n, hevctest.KeyFrame(small)).FrameProduced)
	dev.FailOn(fake.StepSubmit, errors.New("E_FAIL"))
	requested = requested[:0]
	for i := 1; i <= 3; i++ {
		if decodeSync(t, n, hevctest.AnnexB(hevctest.Trail(i))).NeedsKeyframe {
			requested = append(requested, i)
		}
	}
	assert.Equal(t, []int{3}, requested)
}

func TestNativeDecoder_ParameterSetsOnly(t *testing.T) {
	dev := fake.NewDevice()
	n := newNative(t, dev, NativeConfig{})

	s := decodeSync(t, n, hevctest.AnnexB(hevctest.SPS(small), hevctest.PPS()))
	assert.False(t, s.FrameProduced)
	assert.False(t, s.NeedsKeyframe)
	assert.Equal(t, int64(0), n.Sample().Failures)
	// the SPS alone creates the decoder
	assert.Equal(t, 1, countCalls(dev.Calls(), "CreateDecoder("))
}

func TestNativeDecoder_ResolutionChange(t *testing.T) {
	dev := fake.NewDevice()
	n := newNative(t, dev, NativeConfig{})

	require.True(t, decodeSync(t, n, hevctest.KeyFrame(small)).FrameProduced)
	require.True(t, decodeSync(t, n, hevctest.KeyFrame(small)).FrameProduced)
	assert.Equal(t, 1, countCalls(dev.Calls(), "CreateDecoder("))

	require.True(t, decodeSync(t, n, hevctest.KeyFrame(hd)).FrameProduced)
	calls := dev.Calls()
	assert.Equal(t, 2, countCalls(calls, "CreateDecoder("))
	assert.Equal(t, 1, countCalls(calls, "CloseDecoder"))
	assert.Contains(t, calls, "CreateSurfaces(1280x720,NV12,20)")

	f := n.Frames().Take()
	require.NotNil(t, f)
	assert.Equal(t, 1280, f.Width)

	// HDR switch
	require.True(t, decodeSync(t, n, hevctest.KeyFrame(hevctest.SPSOptions{Width: 1280, Height: 720, BitDepth: 10})).FrameProduced)
	assert.Contains(t, dev.Calls(), "CreateSurfaces(1280x720,P010,20)")
	f = n.Frames().Take()
	require.NotNil(t, f)
	assert.Equal(t, PixelP010, f.Format)
	assert.Equal(t, ColorBT2020, f.ColorSpace)
}

func TestNativeDecoder_CreateFailure(t *testing.T) {
	dev := fake.NewDevice()
	dev.FailOn(fake.StepCreateDecoder, errors.New("E_OUTOFMEMORY"))
	n := newNative(t, dev, NativeConfig{})

	s := decodeSync(t, n, hevctest.KeyFrame(small))
	assert.False(t, s.FrameProduced)
	assert.True(t, s.NeedsKeyframe)

	dev.FailOn(fake.StepCreateDecoder, nil)
	assert.True(t, decodeSync(t, n, hevctest.KeyFrame(small)).FrameProduced)
}

func TestNativeDecoder_Configure(t *testing.T) {
	dev := fake.NewDevice()
	dev.SetMaxSize(1920, 1088)
	n := newNative(t, dev, NativeConfig{SurfaceCount: 24})

	require.NoError(t, n.Configure(1920, 1080, false))
	assert.Contains(t, dev.Calls(), "CreateSurfaces(1920x1080,NV12,24)")

	// unsupported size keeps the current decoder
	var capErr *decoder.CapabilityError
	err := n.Configure(3840, 2160, false)
	require.Error(t, err)
	assert.True(t, errors.As(err, &capErr))
	assert.Equal(t, 0, countCalls(dev.Calls(), "CloseDecoder"))

	// the SPS size supersedes the configured one
	require.True(t, decodeSync(t, n, hevctest.KeyFrame(small)).FrameProduced)
	assert.Equal(t, 1, countCalls(dev.Calls(), "CloseDecoder"))
}

func TestNativeDecoder_Unsupported(t *testing.T) {
	var capErr *decoder.CapabilityError

	_, err := NewNativeDecoder(fake.NewDevice(), NativeConfig{Codec: decoder.CodecH264})
	assert.True(t, errors.As(err, &capErr))

	dev := fake.NewDevice()
	dev.SetProfiles(dxva.ProfileH264)
	_, err = NewNativeDecoder(dev, NativeConfig{Codec: decoder.CodecHEVC})
	assert.True(t, errors.As(err, &capErr))
}

func TestNativeDecoder_Close(t *testing.T) {
	dev := fake.NewDevice()
	n, err := NewNativeDecoder(dev, NativeConfig{Codec: decoder.CodecHEVC})
	require.NoError(t, err)
	require.True(t, decodeSync(t, n, hevctest.KeyFrame(small)).FrameProduced)

	require.NoError(t, n.Close())
	require.NoError(t, n.Close())
	assert.True(t, dev.Closed())
	assert.Contains(t, dev.Calls(), "CloseDecoder")
	assert.Contains(t, dev.Calls(), "CloseSurfaces")

	_, ok := <-n.Stats()
	assert.False(t, ok)
	assert.Equal(t, ErrClosed, n.DecodeAsync(hevctest.KeyFrame(small), time.Now()))
	assert.Equal(t, ErrClosed, n.Configure(640, 360, false))
}

// panicDevice hands out surfaces whose Map panics.
type panicDevice struct {
	*fake.Device
}

type panicSurfaces struct {
	*fake.Surfaces
}

func (s panicSurfaces) Map(idx int) (accel.MappedSurface, error) { panic("lost device") }

func (d panicDevice) CreateSurfaces(width, height int, format dxva.Format, count int) (accel.SurfaceArray, error) {
	s, err := d.Device.CreateSurfaces(width, height, format, count)
	if err != nil {
		return nil, err
	}
	return panicSurfaces{s.(*fake.Surfaces)}, nil
}

func (d panicDevice) CreateDecoder(desc accel.DecoderDesc, cfg accel.DecoderConfig, surfaces accel.SurfaceArray) (accel.Decoder, error) {
	return d.Device.CreateDecoder(desc, cfg, surfaces.(panicSurfaces).Surfaces)
}

func TestNativeDecoder_PanicRecovery(t *testing.T) {
	dev := panicDevice{fake.NewDevice()}
	n := newNative(t, dev, NativeConfig{})

	s := decodeSync(t, n, hevctest.KeyFrame(small))
	assert.False(t, s.FrameProduced)
	assert.True(t, s.NeedsKeyframe)

	// the worker keeps running
	s = decodeSync(t, n, hevctest.AnnexB(hevctest.Trail(1)))
	assert.True(t, s.NeedsKeyframe)
	assert.Equal(t, uint64(0), n.FramesDecoded())
}
