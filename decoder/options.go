// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package decoder

import (
	"github.com/cnotch/hwdec/av/codec/hevc"
	"github.com/cnotch/xlog"
)

// Option 配置 HEVCDecoder 的选项接口
type Option interface {
	apply(*HEVCDecoder)
}

// optionFunc 包装函数以便它满足 Option 接口
type optionFunc func(*HEVCDecoder)

func (f optionFunc) apply(d *HEVCDecoder) {
	f(d)
}

// Logger 日志选项
func Logger(logger *xlog.Logger) Option {
	return optionFunc(func(d *HEVCDecoder) {
		if logger != nil {
			d.logger = logger
		}
	})
}

// Parser shares the parameter set tables of p. The caller must not use p
// concurrently with the decoder.
func Parser(p *hevc.Parser) Option {
	return optionFunc(func(d *HEVCDecoder) {
		if p != nil {
			d.parser = p
		}
	})
}

// DeliveryMode 帧交付方式选项
func DeliveryMode(delivery Delivery) Option {
	return optionFunc(func(d *HEVCDecoder) {
		d.delivery = delivery
	})
}

// DPBSize 参考帧缓存容量选项
func DPBSize(n int) Option {
	return optionFunc(func(d *HEVCDecoder) {
		if n > 0 {
			d.dpbSize = n
		}
	})
}
