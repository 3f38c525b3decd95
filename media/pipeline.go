// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package media

import (
	"fmt"
	"strings"

	"github.com/cnotch/hwdec/decoder"
)

// Platforms understood by the pipeline builder; the values of runtime.GOOS.
const (
	PlatformLinux   = "linux"
	PlatformWindows = "windows"
	PlatformDarwin  = "darwin"
)

const (
	lowLatencySinkOptions = "max-buffers=1 drop=true sync=false wait-on-eos=false"
	defaultSinkOptions    = "max-buffers=2 drop=false sync=false wait-on-eos=false"
)

// SourceCaps returns the appsrc caps for codec.
func SourceCaps(codec decoder.Codec) string {
	return fmt.Sprintf("video/x-%s,stream-format=byte-stream,alignment=au", codecName(codec))
}

// "h265" / "h264"
func codecName(codec decoder.Codec) string {
	if codec == decoder.CodecH264 {
		return "h264"
	}
	return "h265"
}

// DecoderCandidates returns the decoder elements to try for codec on
// platform, best first. A candidate may be a short element chain.
func DecoderCandidates(codec decoder.Codec, platform string, hardware bool) []string {
	c := codecName(codec)
	if !hardware {
		return []string{"avdec_" + c}
	}

	switch platform {
	case PlatformWindows:
		return []string{fmt.Sprintf("d3d11%sdec ! d3d11download", c)}
	case PlatformDarwin:
		return []string{"vtdec"}
	case PlatformLinux:
		return []string{
			"v4l2" + c + "dec",
			"va" + c + "dec",
			"vaapi" + c + "dec",
		}
	}
	return nil
}

// BuildPipeline returns the gst-launch description feeding appsrc "src"
// through the parser and decoderElem into NV12 appsink "sink". An empty
// decoderElem selects the best hardware candidate of platform, or the
// software decoder when the platform has none.
func BuildPipeline(codec decoder.Codec, platform string, lowLatency bool, decoderElem string) string {
	if decoderElem == "" {
		candidates := DecoderCandidates(codec, platform, true)
		if len(candidates) == 0 {
			candidates = DecoderCandidates(codec, platform, false)
		}
		decoderElem = candidates[0]
	}

	sinkOptions := defaultSinkOptions
	if lowLatency {
		sinkOptions = lowLatencySinkOptions
	}

	var b strings.Builder
	b.WriteString("appsrc name=src is-live=true format=time do-timestamp=true max-buffers=1 ! ")
	fmt.Fprintf(&b, "%sparse config-interval=-1 ! ", codecName(codec))
	b.WriteString(decoderElem)
	b.WriteString(" ! videoconvert n-threads=2 ! video/x-raw,format=NV12 ! ")
	b.WriteString("appsink name=sink emit-signals=true ")
	b.WriteString(sinkOptions)
	return b.String()
}

// elementName returns the first element of a candidate chain.
func elementName(candidate string) string {
	if i := strings.IndexByte(candidate, ' '); i >= 0 {
		return candidate[:i]
	}
	return candidate
}

// GstConfig configures a GStreamer decoder.
type GstConfig struct {
	Codec             decoder.Codec
	Hardware          bool
	LowLatency        bool
	Platform          string // defaults to runtime.GOOS
	Element           string // overrides the decoder candidates when set
	KeyframeThreshold int    // 0 uses the backend default
}

// candidates returns Element alone when set, otherwise the platform list.
func (c GstConfig) candidates() []string {
	if c.Element != "" {
		return []string{c.Element}
	}
	return DecoderCandidates(c.Codec, c.Platform, c.Hardware)
}

func (c GstConfig) backend() Backend {
	if c.Hardware {
		return BackendGstHardware
	}
	return BackendSoftware
}

func (c GstConfig) keyframeThreshold() int {
	if c.Hardware {
		return KeyframeThresholdGstHardware
	}
	return KeyframeThresholdSoftware
}
