// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package platform discovers the video decode capabilities of the host.
// Every probe runs at most once per Context.
package platform

import (
	"runtime"
	"sync"

	"github.com/cnotch/xlog"
)

// Vendor GPU 厂商
type Vendor int

// GPU 厂商
const (
	VendorUnknown Vendor = iota
	VendorIntel
	VendorAMD
	VendorNVIDIA
	VendorApple
)

var vendorNames = [...]string{"unknown", "intel", "amd", "nvidia", "apple"}

func (v Vendor) String() string {
	if v >= 0 && int(v) < len(vendorNames) {
		return vendorNames[v]
	}
	return "unknown"
}

// VAAPIProfiles reports the HEVC profiles a VA-API driver can decode.
type VAAPIProfiles struct {
	HEVCMain   bool `json:"hevc_main"`
	HEVCMain10 bool `json:"hevc_main10"`
}

// Prober performs the raw capability probes.
type Prober interface {
	GPUVendor() Vendor
	VAAPI() (VAAPIProfiles, error)
	GStreamer() bool
	D3D11() bool
}

// Capabilities is a snapshot of a Context.
type Capabilities struct {
	OS        string        `json:"os"`
	Vendor    string        `json:"vendor"`
	VAAPI     VAAPIProfiles `json:"vaapi"`
	GStreamer bool          `json:"gstreamer"`
	D3D11     bool          `json:"d3d11"`
}

// Context memoizes the probes of a Prober. It is passed to the backend
// factory instead of living in package state.
type Context struct {
	prober Prober
	os     string

	vendorOnce sync.Once
	vendor     Vendor
	vaOnce     sync.Once
	va         VAAPIProfiles
	gstOnce    sync.Once
	gst        bool
	d3dOnce    sync.Once
	d3d        bool

	logger *xlog.Logger
}

// NewContext returns a context over p for the running OS.
func NewContext(p Prober) *Context {
	return NewContextFor(p, runtime.GOOS)
}

// NewContextFor returns a context over p pretending to run on goos.
func NewContextFor(p Prober, goos string) *Context {
	return &Context{
		prober: p,
		os:     goos,
		logger: xlog.L().With(xlog.Fields(xlog.F("module", "platform"))),
	}
}

// NewSystemContext probes the real host.
func NewSystemContext() *Context {
	return NewContext(NewSystemProber())
}

// OS returns the operating system, as runtime.GOOS.
func (c *Context) OS() string { return c.os }

// Vendor returns the GPU vendor.
func (c *Context) Vendor() Vendor {
	c.vendorOnce.Do(func() {
		c.vendor = c.prober.GPUVendor()
		c.logger.Debugf("gpu vendor: %s", c.vendor)
	})
	return c.vendor
}

// VAAPI returns the VA-API HEVC profiles; zero when VA-API is unusable.
func (c *Context) VAAPI() VAAPIProfiles {
	c.vaOnce.Do(func() {
		va, err := c.prober.VAAPI()
		if err != nil {
			c.logger.Debugf("va-api probe failed: %v", err)
		}
		c.va = va
	})
	return c.va
}

// GStreamer reports whether the GStreamer library can be loaded.
func (c *Context) GStreamer() bool {
	c.gstOnce.Do(func() { c.gst = c.prober.GStreamer() })
	return c.gst
}

// D3D11 reports whether a D3D11 video device can be created.
func (c *Context) D3D11() bool {
	c.d3dOnce.Do(func() { c.d3d = c.prober.D3D11() })
	return c.d3d
}

// HardwareDecode reports whether any hardware HEVC path is likely.
func (c *Context) HardwareDecode() bool {
	switch c.os {
	case "windows":
		return c.D3D11()
	case "darwin":
		return true
	}
	return c.VAAPI().HEVCMain || c.Vendor() != VendorUnknown
}

// Snapshot runs every probe and returns the results.
func (c *Context) Snapshot() Capabilities {
	return Capabilities{
		OS:        c.os,
		Vendor:    c.Vendor().String(),
		VAAPI:     c.VAAPI(),
		GStreamer: c.GStreamer(),
		D3D11:     c.D3D11(),
	}
}
