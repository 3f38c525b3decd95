// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package media

import (
	"github.com/cnotch/hwdec/decoder"
	"github.com/pkg/errors"
)

// BackendOptions is the per-backend block of the configuration file,
// selected by its provider name.
type BackendOptions interface {
	Name() string
	Configure(config map[string]interface{}) error
	Apply(cfg *FactoryConfig)
}

// NativeOptions 原生后端扩展选项
//	"options": {"provider": "native", "config": {"surfaces": 24, "delivery": "zerocopy"}}
type NativeOptions struct {
	Surfaces int
	Delivery string
}

var _ BackendOptions = (*NativeOptions)(nil)

// Name provider 名
func (o *NativeOptions) Name() string { return "native" }

// Configure 从配置块加载
func (o *NativeOptions) Configure(config map[string]interface{}) error {
	if v, ok := config["surfaces"]; ok {
		n, ok := v.(float64)
		if !ok || n < 0 {
			return errors.Errorf("surfaces must be a positive number, got %v", v)
		}
		o.Surfaces = int(n)
	}
	if v, ok := config["delivery"]; ok {
		s, ok := v.(string)
		if !ok {
			return errors.Errorf("delivery must be a string, got %v", v)
		}
		if _, err := decoder.ParseDelivery(s); err != nil {
			return err
		}
		o.Delivery = s
	}
	return nil
}

// Apply 覆盖工厂配置
func (o *NativeOptions) Apply(cfg *FactoryConfig) {
	if o.Surfaces > 0 {
		cfg.SurfaceCount = o.Surfaces
	}
	if o.Delivery != "" {
		cfg.Delivery, _ = decoder.ParseDelivery(o.Delivery)
	}
}

// GstOptions GStreamer 后端扩展选项
//	"options": {"provider": "gstreamer", "config": {"element": "vah265dec", "low_latency": false}}
type GstOptions struct {
	Element    string
	LowLatency *bool
}

var _ BackendOptions = (*GstOptions)(nil)

// Name provider 名
func (o *GstOptions) Name() string { return "gstreamer" }

// Configure 从配置块加载
func (o *GstOptions) Configure(config map[string]interface{}) error {
	if v, ok := config["element"]; ok {
		s, ok := v.(string)
		if !ok {
			return errors.Errorf("element must be a string, got %v", v)
		}
		o.Element = s
	}
	if v, ok := config["low_latency"]; ok {
		b, ok := v.(bool)
		if !ok {
			return errors.Errorf("low_latency must be a bool, got %v", v)
		}
		o.LowLatency = &b
	}
	return nil
}

// Apply 覆盖工厂配置
func (o *GstOptions) Apply(cfg *FactoryConfig) {
	if o.Element != "" {
		cfg.GstElement = o.Element
	}
	if o.LowLatency != nil {
		cfg.LowLatency = *o.LowLatency
	}
}
