// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"flag"

	"github.com/cnotch/hwdec/decoder"
)

// 默认值
const (
	DefaultFPS      = 60
	DefaultSurfaces = 20
)

// config 解码配置
type config struct {
	Input             string          `json:"input"`              // 输入的 H.265/H.264 裸流文件
	FPS               float64         `json:"fps"`                // 送帧频率
	Loop              bool            `json:"loop"`               // 文件结束后从头循环
	Backend           string          `json:"backend"`            // auto, native, gstreamer, software
	Device            string          `json:"device"`             // auto, d3d11, null
	Codec             string          `json:"codec"`              // h265, h264
	Width             int             `json:"width"`              // 预期宽度，SPS 解析后以 SPS 为准
	Height            int             `json:"height"`             // 预期高度
	HDR               bool            `json:"hdr"`                // 预期 10-bit HDR
	Surfaces          int             `json:"surfaces"`           // 解码表面数量
	Delivery          string          `json:"delivery"`           // copy, zerocopy
	KeyframeThreshold int             `json:"keyframe_threshold"` // 连续失败多少次请求关键帧，0 为后端默认值
	LowLatency        bool            `json:"low_latency"`        // GStreamer appsink 低延迟
	StatusListen      string          `json:"status_listen"`      // 状态 API 侦听地址，空为不启动
	Options           *ProviderConfig `json:"options,omitempty"`  // 后端扩展选项
	Log               LogConfig       `json:"log"`                // 日志配置
}

func (c *config) initFlags() {
	flag.StringVar(&c.Input, "input", "", "Set the Annex-B H.265/H.264 file to decode")
	flag.Float64Var(&c.FPS, "fps", DefaultFPS, "Set the rate access units are fed at")
	flag.BoolVar(&c.Loop, "loop", false, "Determines if the input restarts at end of file")
	flag.StringVar(&c.Backend, "backend", "auto",
		"Set the decode backend: auto, native, gstreamer or software")
	flag.StringVar(&c.Device, "device", "auto", "Set the native accelerator: auto, d3d11 or null")
	flag.StringVar(&c.Codec, "codec", "h265", "Set the codec: h265 or h264")
	flag.IntVar(&c.Width, "width", 1920, "Set the expected picture width")
	flag.IntVar(&c.Height, "height", 1080, "Set the expected picture height")
	flag.BoolVar(&c.HDR, "hdr", false, "Determines if a 10-bit stream is expected")
	flag.IntVar(&c.Surfaces, "surfaces", DefaultSurfaces, "Set the decoder surface count")
	flag.StringVar(&c.Delivery, "delivery", "copy", "Set the frame delivery: copy or zerocopy")
	flag.IntVar(&c.KeyframeThreshold, "keyframe-threshold", 0,
		"Set the consecutive failures before a keyframe is requested, 0 for the backend default")
	flag.BoolVar(&c.LowLatency, "low-latency", true, "Determines if GStreamer drops late frames")
	flag.StringVar(&c.StatusListen, "status-listen", "",
		"Set the status API listen address, empty disables it")

	// 初始化日志配置
	c.Log.initFlags()
}

// validate 修正不合规的取值
func (c *config) validate() {
	if c.FPS <= 0 {
		c.FPS = DefaultFPS
	}
	if c.Surfaces <= 0 {
		c.Surfaces = DefaultSurfaces
	}
	// 表面数量必须大于 DPB 容量
	if c.Surfaces <= decoder.DefaultDPBSize {
		c.Surfaces = decoder.DefaultDPBSize + 1
	}
	if c.KeyframeThreshold < 0 {
		c.KeyframeThreshold = 0
	}
	if c.Width < 0 {
		c.Width = 0
	}
	if c.Height < 0 {
		c.Height = 0
	}
}
