// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package media

import (
	"errors"
	"time"
)

// 错误定义
var (
	// ErrClosed 解码器已关闭
	ErrClosed = errors.New("video decoder is closed")
	// ErrNoBackend 没有可用的解码后端
	ErrNoBackend = errors.New("no video decode backend could be initialized")
)

// statsCapacity bounds the stats channel; stats are dropped when the
// consumer lags.
const statsCapacity = 64

// DecodeStats is reported once per DecodeAsync call.
type DecodeStats struct {
	DecodeTime    time.Duration
	FrameProduced bool
	NeedsKeyframe bool
}

// Backend 解码后端类型
type Backend int

// 解码后端
const (
	BackendNative      Backend = iota // 平台硬件解码 (D3D11)
	BackendGstHardware                // GStreamer 硬件解码
	BackendSoftware                   // GStreamer 软件解码
)

var backendNames = [...]string{"native", "gstreamer", "software"}

func (b Backend) String() string {
	if b >= 0 && int(b) < len(backendNames) {
		return backendNames[b]
	}
	return "unknown"
}

// VideoDecoder is the asynchronous decoder front end. Implementations run
// one worker; the methods are safe for concurrent use.
type VideoDecoder interface {
	// Backend returns the backend kind.
	Backend() Backend
	// DecodeAsync queues one access unit received at receiveTime.
	DecodeAsync(data []byte, receiveTime time.Time) error
	// Configure announces the expected stream size ahead of the SPS.
	Configure(width, height int, hdr bool) error
	// Stats returns the per-call result channel. It is closed by Close.
	Stats() <-chan DecodeStats
	// Frames returns the latest-frame slot.
	Frames() *SharedFrame
	// FramesDecoded returns the number of frames produced so far.
	FramesDecoded() uint64
	Close() error
}

// sendStats delivers s without blocking.
func sendStats(ch chan<- DecodeStats, s DecodeStats) bool {
	select {
	case ch <- s:
		return true
	default:
		return false
	}
}
