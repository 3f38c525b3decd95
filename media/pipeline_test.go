// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package media

import (
	"testing"

	"github.com/cnotch/hwdec/decoder"
	"github.com/stretchr/testify/assert"
)

func TestBuildPipeline(t *testing.T) {
	tests := []struct {
		name       string
		codec      decoder.Codec
		platform   string
		lowLatency bool
		hardware   bool
		want       string
	}{
		{"linux h265 low latency", decoder.CodecHEVC, PlatformLinux, true, true,
			"appsrc name=src is-live=true format=time do-timestamp=true max-buffers=1 ! h265parse config-interval=-1 ! " +
				"v4l2h265dec ! videoconvert n-threads=2 ! video/x-raw,format=NV12 ! " +
				"appsink name=sink emit-signals=true max-buffers=1 drop=true sync=false wait-on-eos=false"},
		{"windows h265", decoder.CodecHEVC, PlatformWindows, false, true,
			"appsrc name=src is-live=true format=time do-timestamp=true max-buffers=1 ! h265parse config-interval=-1 ! " +
				"d3d11h265dec ! d3d11download ! videoconvert n-threads=2 ! video/x-raw,format=NV12 ! " +
				"appsink name=sink emit-signals=true max-buffers=2 drop=false sync=false wait-on-eos=false"},
		{"darwin h264", decoder.CodecH264, PlatformDarwin, true, true,
			"appsrc name=src is-live=true format=time do-timestamp=true max-buffers=1 ! h264parse config-interval=-1 ! " +
				"vtdec ! videoconvert n-threads=2 ! video/x-raw,format=NV12 ! " +
				"appsink name=sink emit-signals=true max-buffers=1 drop=true sync=false wait-on-eos=false"},
		{"software h264", decoder.CodecH264, PlatformLinux, false, false,
			"appsrc name=src is-live=true format=time do-timestamp=true max-buffers=1 ! h264parse config-interval=-1 ! " +
				"avdec_h264 ! videoconvert n-threads=2 ! video/x-raw,format=NV12 ! " +
				"appsink name=sink emit-signals=true max-buffers=2 drop=false sync=false wait-on-eos=false"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidates := DecoderCandidates(tt.codec, tt.platform, tt.hardware)
			if !assert.NotEmpty(t, candidates) {
				return
			}
			got := BuildPipeline(tt.codec, tt.platform, tt.lowLatency, candidates[0])
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecoderCandidates(t *testing.T) {
	assert.Equal(t, []string{"v4l2h265dec", "vah265dec", "vaapih265dec"},
		DecoderCandidates(decoder.CodecHEVC, PlatformLinux, true))
	assert.Equal(t, []string{"avdec_h265"}, DecoderCandidates(decoder.CodecHEVC, PlatformWindows, false))
	assert.Empty(t, DecoderCandidates(decoder.CodecHEVC, "plan9", true))
	assert.Equal(t, "d3d11h265dec", elementName("d3d11h265dec ! d3d11download"))
	assert.Equal(t, "vtdec", elementName("vtdec"))
}

func TestSourceCaps(t *testing.T) {
	assert.Equal(t, "video/x-h265,stream-format=byte-stream,alignment=au", SourceCaps(decoder.CodecHEVC))
	assert.Equal(t, "video/x-h264,stream-format=byte-stream,alignment=au", SourceCaps(decoder.CodecH264))
}

func TestBuildPipeline_DefaultDecoder(t *testing.T) {
	assert.Contains(t, BuildPipeline(decoder.CodecHEVC, PlatformLinux, true, ""), "! v4l2h265dec !")
	assert.Contains(t, BuildPipeline(decoder.CodecHEVC, "plan9", true, ""), "! avdec_h265 !")
}
