// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build gstreamer

package media

import (
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cnotch/hwdec/stats"
	"github.com/cnotch/xlog"
	"github.com/pkg/errors"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

// samplePullTimeout bounds the wait for a decoded picture after a push.
const samplePullTimeout = 20 * time.Millisecond

// GstAvailable reports whether the binary was built with GStreamer.
func GstAvailable() bool { return true }

// GstDecoder decodes through a GStreamer appsrc ! decoder ! appsink
// pipeline, driven by one worker goroutine.
type GstDecoder struct {
	cfg      GstConfig
	pipeline *gst.Pipeline
	src      *app.Source
	sink     *app.Sink

	cmds   chan command
	stats  chan DecodeStats
	frames *SharedFrame
	done   chan struct{}

	closeOnce sync.Once
	closed    int32
	decoded   uint64

	policy *KeyframePolicy
	flow   stats.Decode
	logger *xlog.Logger
}

var _ VideoDecoder = (*GstDecoder)(nil)

// NewGstDecoder builds and starts the pipeline with the first decoder
// element the GStreamer registry can create.
func NewGstDecoder(cfg GstConfig, logger *xlog.Logger) (*GstDecoder, error) {
	if cfg.Platform == "" {
		cfg.Platform = runtime.GOOS
	}
	if logger == nil {
		logger = xlog.L()
	}
	logger = logger.With(xlog.Fields(xlog.F("backend", cfg.backend().String())))

	gst.Init(nil)

	candidate := ""
	for _, c := range cfg.candidates() {
		elem, err := gst.NewElement(elementName(c))
		if err != nil {
			logger.Debugf("gstreamer element %s unavailable: %v", elementName(c), err)
			continue
		}
		elem.SetState(gst.StateNull)
		candidate = c
		break
	}
	if candidate == "" {
		return nil, errors.Errorf("no %s decoder element available", cfg.backend())
	}

	launch := BuildPipeline(cfg.Codec, cfg.Platform, cfg.LowLatency, candidate)
	logger.Infof("gstreamer pipeline: %s", launch)
	pipeline, err := gst.NewPipelineFromString(launch)
	if err != nil {
		return nil, errors.Wrap(err, "create gstreamer pipeline")
	}

	srcElem, err := pipeline.GetElementByName("src")
	if err != nil {
		pipeline.SetState(gst.StateNull)
		return nil, errors.Wrap(err, "find appsrc")
	}
	sinkElem, err := pipeline.GetElementByName("sink")
	if err != nil {
		pipeline.SetState(gst.StateNull)
		return nil, errors.Wrap(err, "find appsink")
	}
	src := app.SrcFromElement(srcElem)
	src.SetCaps(gst.NewCapsFromString(SourceCaps(cfg.Codec)))

	if err = pipeline.SetState(gst.StatePlaying); err != nil {
		pipeline.SetState(gst.StateNull)
		return nil, errors.Wrap(err, "start gstreamer pipeline")
	}

	threshold := cfg.KeyframeThreshold
	g := &GstDecoder{
		cfg:      cfg,
		pipeline: pipeline,
		src:      src,
		sink:     app.SinkFromElement(sinkElem),
		cmds:     make(chan command, commandQueueSize),
		stats:    make(chan DecodeStats, statsCapacity),
		frames:   NewSharedFrame(),
		done:     make(chan struct{}),
		policy:   NewKeyframePolicy(threshold, cfg.keyframeThreshold()),
		flow:     stats.NewChildDecode(stats.Total),
		logger:   logger,
	}
	go g.run()
	return g, nil
}

// Backend implements VideoDecoder.
func (g *GstDecoder) Backend() Backend { return g.cfg.backend() }

// Stats implements VideoDecoder.
func (g *GstDecoder) Stats() <-chan DecodeStats { return g.stats }

// Frames implements VideoDecoder.
func (g *GstDecoder) Frames() *SharedFrame { return g.frames }

// FramesDecoded implements VideoDecoder.
func (g *GstDecoder) FramesDecoded() uint64 { return atomic.LoadUint64(&g.decoded) }

// DecodeAsync implements VideoDecoder.
func (g *GstDecoder) DecodeAsync(data []byte, receiveTime time.Time) error {
	if atomic.LoadInt32(&g.closed) != 0 {
		return ErrClosed
	}
	select {
	case g.cmds <- command{kind: cmdDecode, data: data, receiveTime: receiveTime}:
		return nil
	case <-g.done:
		return ErrClosed
	}
}

// Configure implements VideoDecoder. The pipeline renegotiates caps from
// the stream itself.
func (g *GstDecoder) Configure(width, height int, hdr bool) error {
	if atomic.LoadInt32(&g.closed) != 0 {
		return ErrClosed
	}
	g.logger.Debugf("configure %dx%d hdr=%v", width, height, hdr)
	return nil
}

// Close implements VideoDecoder.
func (g *GstDecoder) Close() error {
	g.closeOnce.Do(func() {
		atomic.StoreInt32(&g.closed, 1)
		select {
		case g.cmds <- command{kind: cmdStop}:
		case <-g.done:
		}
	})
	<-g.done
	return nil
}

func (g *GstDecoder) run() {
	defer func() {
		g.src.EndStream()
		g.pipeline.SetState(gst.StateNull)
		close(g.stats)
		close(g.done)
	}()

	for cmd := range g.cmds {
		if cmd.kind == cmdStop {
			return
		}
		g.decode(cmd.data, cmd.receiveTime)
	}
}

func (g *GstDecoder) decode(data []byte, receiveTime time.Time) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Errorf("gstreamer worker panic; r = %v \n %s", r, debug.Stack())
			g.flow.AddKeyframeRequest()
			sendStats(g.stats, DecodeStats{NeedsKeyframe: true})
		}
	}()

	start := time.Now()
	g.flow.AddIn(int64(len(data)))

	if ret := g.src.PushBuffer(gst.NewBufferFromBytes(data)); ret != gst.FlowOK {
		g.flow.AddFailure()
		needsKeyframe := g.policy.Fail()
		if needsKeyframe {
			g.flow.AddKeyframeRequest()
		}
		g.logger.Warnf("push buffer failed: %v", ret)
		sendStats(g.stats, DecodeStats{DecodeTime: time.Since(start), NeedsKeyframe: needsKeyframe})
		return
	}

	produced := false
	if sample := g.sink.TryPullSample(samplePullTimeout); sample != nil {
		if f := g.frameFromSample(sample, receiveTime); f != nil {
			g.frames.Write(f)
			atomic.AddUint64(&g.decoded, 1)
			g.flow.AddOut(time.Since(start))
			produced = true
		}
	}
	g.policy.Success()
	sendStats(g.stats, DecodeStats{DecodeTime: time.Since(start), FrameProduced: produced})
}

// frameFromSample copies an NV12 sample into a VideoFrame.
func (g *GstDecoder) frameFromSample(sample *gst.Sample, receiveTime time.Time) *VideoFrame {
	caps := sample.GetCaps()
	buffer := sample.GetBuffer()
	if caps == nil || caps.GetSize() == 0 || buffer == nil {
		return nil
	}

	st := caps.GetStructureAt(0)
	var width, height int
	if v, err := st.GetValue("width"); err == nil {
		width, _ = v.(int)
	}
	if v, err := st.GetValue("height"); err == nil {
		height, _ = v.(int)
	}
	if width <= 0 || height <= 0 {
		return nil
	}

	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	ySize := width * height
	if len(data) < ySize+ySize/2 {
		buffer.Unmap()
		g.logger.Warnf("short NV12 sample: %d bytes for %dx%d", len(data), width, height)
		return nil
	}
	planes := make([]byte, ySize+ySize/2)
	copy(planes, data)
	buffer.Unmap()

	return &VideoFrame{
		Width:     width,
		Height:    height,
		Format:    PixelNV12,
		Range:     RangeLimited,
		Timestamp: receiveTime,
		YPlane:    planes[:ySize],
		UVPlane:   planes[ySize:],
		YStride:   width,
		UVStride:  width,
	}
}
