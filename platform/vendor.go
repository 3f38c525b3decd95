// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/cnotch/hwdec/accel/d3d11"
)

// PCI vendor ids
const (
	pciIntel  = 0x8086
	pciAMD    = 0x1002
	pciNVIDIA = 0x10de
	pciApple  = 0x106b
)

// DefaultRenderNode is the DRM node used for VA-API.
const DefaultRenderNode = "/dev/dri/renderD128"

// VendorFromPCI maps a PCI vendor id.
func VendorFromPCI(id uint64) Vendor {
	switch id {
	case pciIntel:
		return VendorIntel
	case pciAMD:
		return VendorAMD
	case pciNVIDIA:
		return VendorNVIDIA
	case pciApple:
		return VendorApple
	}
	return VendorUnknown
}

// ReadVendor returns the vendor of the first DRM card under the sysfs
// root (normally "/sys") with a known PCI vendor id.
func ReadVendor(sysfs string) Vendor {
	cards, _ := filepath.Glob(filepath.Join(sysfs, "class", "drm", "card*", "device", "vendor"))
	for _, path := range cards {
		b, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		s := strings.TrimPrefix(strings.TrimSpace(string(b)), "0x")
		id, err := strconv.ParseUint(s, 16, 32)
		if err != nil {
			continue
		}
		if v := VendorFromPCI(id); v != VendorUnknown {
			return v
		}
	}
	return VendorUnknown
}

type systemProber struct {
	sysfs      string
	renderNode string
}

// NewSystemProber probes the running host.
func NewSystemProber() Prober {
	return &systemProber{sysfs: "/sys", renderNode: DefaultRenderNode}
}

func (p *systemProber) GPUVendor() Vendor {
	if runtime.GOOS == "darwin" {
		return VendorApple
	}
	return ReadVendor(p.sysfs)
}

func (p *systemProber) VAAPI() (VAAPIProfiles, error) { return probeVAAPI(p.renderNode) }

func (p *systemProber) GStreamer() bool { return gstreamerPresent() }

func (p *systemProber) D3D11() bool { return d3d11.Available() }
