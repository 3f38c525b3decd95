// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"strings"

	cfg "github.com/cnotch/loader"
	"github.com/cnotch/xlog"
)

// 服务名
const (
	Vendor  = "CAOHONGJU"
	Name    = "hwdec"
	Version = "V1.0.0"
)

var (
	globalC *config
)

// InitConfig 初始化 Config
func InitConfig() {
	exe, err := os.Executable()
	if err != nil {
		xlog.Panic(err.Error())
	}

	configPath := filepath.Join(filepath.Dir(exe), Name+".conf")

	globalC = new(config)
	globalC.initFlags()

	// 创建或加载配置文件
	if err := cfg.Load(globalC,
		&cfg.JSONLoader{Path: configPath, CreatedIfNonExsit: true},
		&cfg.EnvLoader{Prefix: strings.ToUpper(Name)},
		&cfg.FlagLoader{}); err != nil {
		// 异常，直接退出
		xlog.Panic(err.Error())
	}
	globalC.validate()

	if globalC.Input != "" && !filepath.IsAbs(globalC.Input) {
		if wd, err := os.Getwd(); err == nil {
			globalC.Input = filepath.Join(wd, globalC.Input)
		}
	}

	// 初始化日志
	globalC.Log.initLogger()
}

// Input 输入文件
func Input() string {
	if globalC == nil {
		return ""
	}
	return globalC.Input
}

// FPS 送帧频率
func FPS() float64 {
	if globalC == nil {
		return DefaultFPS
	}
	return globalC.FPS
}

// Loop 是否循环输入
func Loop() bool {
	if globalC == nil {
		return false
	}
	return globalC.Loop
}

// Backend 首选解码后端
func Backend() string {
	if globalC == nil {
		return "auto"
	}
	return globalC.Backend
}

// Device 原生解码使用的加速设备
func Device() string {
	if globalC == nil || globalC.Device == "" {
		return "auto"
	}
	return globalC.Device
}

// Codec 编码格式
func Codec() string {
	if globalC == nil || globalC.Codec == "" {
		return "h265"
	}
	return globalC.Codec
}

// Size 预期的图像尺寸和 HDR 标志
func Size() (width, height int, hdr bool) {
	if globalC == nil {
		return 0, 0, false
	}
	return globalC.Width, globalC.Height, globalC.HDR
}

// Surfaces 解码表面数量
func Surfaces() int {
	if globalC == nil {
		return DefaultSurfaces
	}
	return globalC.Surfaces
}

// Delivery 帧交付方式
func Delivery() string {
	if globalC == nil || globalC.Delivery == "" {
		return "copy"
	}
	return globalC.Delivery
}

// KeyframeThreshold 请求关键帧的连续失败次数
func KeyframeThreshold() int {
	if globalC == nil {
		return 0
	}
	return globalC.KeyframeThreshold
}

// LowLatency GStreamer 低延迟模式
func LowLatency() bool {
	if globalC == nil {
		return true
	}
	return globalC.LowLatency
}

// StatusListen 状态 API 侦听地址
func StatusListen() string {
	if globalC == nil {
		return ""
	}
	return globalC.StatusListen
}

// LoadBackendOptions 加载后端扩展选项，默认为第一个 provider
func LoadBackendOptions(providers ...Provider) Provider {
	if globalC == nil {
		return LoadProvider(nil, providers...)
	}
	return LoadProvider(globalC.Options, providers...)
}
