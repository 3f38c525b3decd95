// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package media

import (
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cnotch/hwdec/accel"
	"github.com/cnotch/hwdec/av/codec/hevc"
	"github.com/cnotch/hwdec/decoder"
	"github.com/cnotch/hwdec/dxva"
	"github.com/cnotch/hwdec/stats"
	"github.com/cnotch/xlog"
	"github.com/kelindar/rate"
	pkgerrors "github.com/pkg/errors"
)

const (
	commandQueueSize = 16
	failureLogRate   = 5 // failure logs per second
)

// NativeConfig configures the hardware decoder worker.
type NativeConfig struct {
	Codec             decoder.Codec
	SurfaceCount      int
	Delivery          decoder.Delivery
	KeyframeThreshold int // 0 uses KeyframeThresholdNative
	Logger            *xlog.Logger
}

type commandKind int

const (
	cmdDecode commandKind = iota
	cmdConfigure
	cmdStop
)

type command struct {
	kind          commandKind
	data          []byte
	receiveTime   time.Time
	width, height int
	hdr           bool
	reply         chan error
}

type streamSize struct {
	width, height int
	hdr           bool
}

// NativeDecoder drives a decoder.HEVCDecoder from a single worker
// goroutine. The hardware decoder is created when the first SPS reveals the
// picture size and re-created when the size or HDR flag changes.
type NativeDecoder struct {
	cfg    NativeConfig
	dev    accel.Device
	cmds   chan command
	stats  chan DecodeStats
	frames *SharedFrame
	done   chan struct{}

	closeOnce sync.Once
	closed    int32
	decoded   uint64

	// owned by the worker
	parser     *hevc.Parser
	dec        *decoder.HEVCDecoder
	size       streamSize
	policy     *KeyframePolicy
	flow       stats.Decode
	limit      *rate.Limiter
	suppressed int

	logger *xlog.Logger
}

var _ VideoDecoder = (*NativeDecoder)(nil)

// NewNativeDecoder starts a worker on dev. The worker owns dev and closes
// it on Close. Only HEVC is supported.
func NewNativeDecoder(dev accel.Device, cfg NativeConfig) (*NativeDecoder, error) {
	if cfg.Codec != decoder.CodecHEVC {
		return nil, &decoder.CapabilityError{Reason: cfg.Codec.String() + " is not supported by the native decoder"}
	}
	profiles, err := dev.Profiles()
	if err != nil {
		return nil, &decoder.CapabilityError{Reason: "query decoder profiles", Err: err}
	}
	if !accel.HasProfile(profiles, dxva.ProfileHEVCMain) {
		return nil, &decoder.CapabilityError{Reason: "HEVC Main profile not supported by " + dev.Name()}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = xlog.L()
	}
	logger = logger.With(xlog.Fields(xlog.F("backend", BackendNative.String())))

	n := &NativeDecoder{
		cfg:    cfg,
		dev:    dev,
		cmds:   make(chan command, commandQueueSize),
		stats:  make(chan DecodeStats, statsCapacity),
		frames: NewSharedFrame(),
		done:   make(chan struct{}),
		parser: hevc.NewParser(logger),
		policy: NewKeyframePolicy(cfg.KeyframeThreshold, KeyframeThresholdNative),
		flow:   stats.NewChildDecode(stats.Total),
		limit:  rate.New(failureLogRate, time.Second),
		logger: logger,
	}
	go n.run()
	return n, nil
}

// Backend implements VideoDecoder.
func (n *NativeDecoder) Backend() Backend { return BackendNative }

// Stats implements VideoDecoder.
func (n *NativeDecoder) Stats() <-chan DecodeStats { return n.stats }

// Frames implements VideoDecoder.
func (n *NativeDecoder) Frames() *SharedFrame { return n.frames }

// FramesDecoded implements VideoDecoder.
func (n *NativeDecoder) FramesDecoded() uint64 { return atomic.LoadUint64(&n.decoded) }

// Sample returns the decode counters of this decoder.
func (n *NativeDecoder) Sample() stats.DecodeSample { return n.flow.GetSample() }

// DecodeAsync implements VideoDecoder. It blocks while the command queue
// is full.
func (n *NativeDecoder) DecodeAsync(data []byte, receiveTime time.Time) error {
	return n.send(command{kind: cmdDecode, data: data, receiveTime: receiveTime})
}

// Configure implements VideoDecoder. The decoder is re-created eagerly;
// on failure the previous one is kept and the error returned.
func (n *NativeDecoder) Configure(width, height int, hdr bool) error {
	reply := make(chan error, 1)
	if err := n.send(command{kind: cmdConfigure, width: width, height: height, hdr: hdr, reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-n.done:
		return ErrClosed
	}
}

func (n *NativeDecoder) send(cmd command) error {
	if atomic.LoadInt32(&n.closed) != 0 {
		return ErrClosed
	}
	select {
	case n.cmds <- cmd:
		return nil
	case <-n.done:
		return ErrClosed
	}
}

// Close stops the worker after the queued commands and releases the
// hardware decoder and device.
func (n *NativeDecoder) Close() error {
	n.closeOnce.Do(func() {
		atomic.StoreInt32(&n.closed, 1)
		select {
		case n.cmds <- command{kind: cmdStop}:
		case <-n.done:
		}
	})
	<-n.done
	return nil
}

func (n *NativeDecoder) run() {
	defer func() {
		n.closeDecoder()
		if err := n.dev.Close(); err != nil {
			n.logger.Warnf("close device failed: %v", err)
		}
		close(n.stats)
		close(n.done)
	}()

	for cmd := range n.cmds {
		if cmd.kind == cmdStop {
			return
		}
		n.handle(cmd)
	}
}

func (n *NativeDecoder) handle(cmd command) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Errorf("decode worker panic; r = %v \n %s", r, debug.Stack())
			n.flow.AddFailure()
			n.flow.AddKeyframeRequest()
			n.policy.Success()
			if cmd.reply != nil {
				cmd.reply <- pkgerrors.Errorf("decode worker panic: %v", r)
			}
			sendStats(n.stats, DecodeStats{NeedsKeyframe: true})
		}
	}()

	switch cmd.kind {
	case cmdDecode:
		n.decode(cmd.data, cmd.receiveTime)
	case cmdConfigure:
		cmd.reply <- n.recreate(streamSize{cmd.width, cmd.height, cmd.hdr})
	}
}

func (n *NativeDecoder) decode(data []byte, receiveTime time.Time) {
	start := time.Now()
	n.flow.AddIn(int64(len(data)))

	nals, err := n.prepare(data)
	if err != nil {
		n.fail(err, start, true)
		return
	}
	if n.dec == nil {
		n.fail(errors.New("waiting for SPS"), start, false)
		return
	}

	frame, err := n.dec.DecodeNALUnits(nals)
	elapsed := time.Since(start)
	if err == decoder.ErrNoSlices {
		// parameter sets only
		sendStats(n.stats, DecodeStats{DecodeTime: elapsed})
		return
	}
	if err != nil {
		n.fail(err, start, false)
		return
	}

	n.policy.Success()
	n.frames.Write(newVideoFrame(frame, receiveTime))
	atomic.AddUint64(&n.decoded, 1)
	n.flow.AddOut(elapsed)
	sendStats(n.stats, DecodeStats{DecodeTime: elapsed, FrameProduced: true})
}

// prepare splits data once, records its parameter sets and makes sure a
// decoder matching the latest SPS exists.
func (n *NativeDecoder) prepare(data []byte) ([]hevc.NALUnit, error) {
	nals := n.parser.FindNALUnits(data)
	sawSPS := false
	for _, nal := range nals {
		if nal.Type.IsParameterSet() {
			n.parser.ProcessNAL(nal)
			sawSPS = sawSPS || nal.Type == hevc.NalSps
		}
	}
	if n.dec != nil && !sawSPS {
		return nals, nil
	}

	w, h, hdr, ok := n.parser.Dimensions()
	if !ok {
		return nals, nil
	}
	size := streamSize{w, h, hdr}
	if n.dec != nil && size == n.size {
		return nals, nil
	}
	return nals, n.recreate(size)
}

func (n *NativeDecoder) recreate(size streamSize) error {
	dec, err := decoder.NewHEVCDecoder(n.dev, decoder.Config{
		Codec:        n.cfg.Codec,
		Width:        size.width,
		Height:       size.height,
		HDR:          size.hdr,
		SurfaceCount: n.cfg.SurfaceCount,
	},
		decoder.Logger(n.logger),
		decoder.Parser(n.parser),
		decoder.DeliveryMode(n.cfg.Delivery))
	if err != nil {
		return pkgerrors.Wrapf(err, "create %dx%d decoder (hdr=%v)", size.width, size.height, size.hdr)
	}

	n.closeDecoder()
	n.dec, n.size = dec, size
	stats.Decoders.Add()
	n.logger.Infof("decoder ready %dx%d hdr=%v delivery=%s", size.width, size.height, size.hdr, n.cfg.Delivery)
	return nil
}

func (n *NativeDecoder) closeDecoder() {
	if n.dec == nil {
		return
	}
	if err := n.dec.Close(); err != nil {
		n.logger.Warnf("close decoder failed: %v", err)
	}
	n.dec = nil
	stats.Decoders.Release()
}

func (n *NativeDecoder) fail(err error, start time.Time, forceKeyframe bool) {
	n.flow.AddFailure()
	needsKeyframe := n.policy.Fail() || forceKeyframe
	if needsKeyframe {
		n.flow.AddKeyframeRequest()
	}

	if n.limit.Limit() {
		n.suppressed++
	} else {
		if n.suppressed > 0 {
			n.logger.Warnf("decode failed (%d consecutive, %d messages suppressed): %v",
				n.policy.Failures(), n.suppressed, err)
			n.suppressed = 0
		} else {
			n.logger.Warnf("decode failed (%d consecutive): %v", n.policy.Failures(), err)
		}
	}

	sendStats(n.stats, DecodeStats{DecodeTime: time.Since(start), NeedsKeyframe: needsKeyframe})
}
