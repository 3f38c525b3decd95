// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stats

import (
	"sync/atomic"
	"time"
)

// Total 进程内所有解码器的累计
var Total = NewDecode()

// DecodeSample 解码统计采样
type DecodeSample struct {
	InFrames         int64 `json:"inframes"`  // 送入的访问单元
	InBytes          int64 `json:"inbytes"`   // 送入的字节
	OutFrames        int64 `json:"outframes"` // 产出的帧
	Failures         int64 `json:"failures"`
	KeyframeRequests int64 `json:"keyframe_requests"`
	DecodeMicros     int64 `json:"decode_us"` // 成功解码的累计耗时
}

// Decode 解码统计接口
type Decode interface {
	AddIn(size int64)             // 增加输入
	AddOut(elapsed time.Duration) // 增加输出帧
	AddFailure()                  // 解码失败
	AddKeyframeRequest()          // 请求关键帧
	GetSample() DecodeSample      // 获取当前时点采样
}

func (s *DecodeSample) clone() DecodeSample {
	return DecodeSample{
		InFrames:         atomic.LoadInt64(&s.InFrames),
		InBytes:          atomic.LoadInt64(&s.InBytes),
		OutFrames:        atomic.LoadInt64(&s.OutFrames),
		Failures:         atomic.LoadInt64(&s.Failures),
		KeyframeRequests: atomic.LoadInt64(&s.KeyframeRequests),
		DecodeMicros:     atomic.LoadInt64(&s.DecodeMicros),
	}
}

// Add 采样累加
func (s *DecodeSample) Add(o DecodeSample) {
	s.InFrames += o.InFrames
	s.InBytes += o.InBytes
	s.OutFrames += o.OutFrames
	s.Failures += o.Failures
	s.KeyframeRequests += o.KeyframeRequests
	s.DecodeMicros += o.DecodeMicros
}

// AvgDecodeTime 平均单帧解码耗时
func (s DecodeSample) AvgDecodeTime() time.Duration {
	if s.OutFrames == 0 {
		return 0
	}
	return time.Duration(s.DecodeMicros/s.OutFrames) * time.Microsecond
}

type decode struct {
	sample DecodeSample
}

// NewDecode 创建解码统计
func NewDecode() Decode {
	return &decode{}
}

func (d *decode) AddIn(size int64) {
	atomic.AddInt64(&d.sample.InFrames, 1)
	atomic.AddInt64(&d.sample.InBytes, size)
}

func (d *decode) AddOut(elapsed time.Duration) {
	atomic.AddInt64(&d.sample.OutFrames, 1)
	atomic.AddInt64(&d.sample.DecodeMicros, elapsed.Microseconds())
}

func (d *decode) AddFailure() {
	atomic.AddInt64(&d.sample.Failures, 1)
}

func (d *decode) AddKeyframeRequest() {
	atomic.AddInt64(&d.sample.KeyframeRequests, 1)
}

func (d *decode) GetSample() DecodeSample {
	return d.sample.clone()
}

type childDecode struct {
	decode
	parent Decode
}

// NewChildDecode 创建子解码统计，它会把自己的计数Add到parent上
func NewChildDecode(parent Decode) Decode {
	return &childDecode{parent: parent}
}

func (d *childDecode) AddIn(size int64) {
	d.decode.AddIn(size)
	d.parent.AddIn(size)
}

func (d *childDecode) AddOut(elapsed time.Duration) {
	d.decode.AddOut(elapsed)
	d.parent.AddOut(elapsed)
}

func (d *childDecode) AddFailure() {
	d.decode.AddFailure()
	d.parent.AddFailure()
}

func (d *childDecode) AddKeyframeRequest() {
	d.decode.AddKeyframeRequest()
	d.parent.AddKeyframeRequest()
}
