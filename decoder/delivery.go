// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package decoder

import (
	"fmt"
	"strings"

	"github.com/cnotch/hwdec/accel"
	"github.com/pkg/errors"
)

// Delivery selects how a decoded surface is handed to the renderer.
type Delivery int

// Delivery strategies
const (
	// DeliveryCopy copies the planes into host memory before DecodeFrame
	// returns. The frame stays valid after the surface is reused.
	DeliveryCopy Delivery = iota
	// DeliveryZeroCopy returns the surface handle and array index. The frame
	// is only valid until the next DecodeFrame call.
	DeliveryZeroCopy
)

func (d Delivery) String() string {
	if d == DeliveryZeroCopy {
		return "zerocopy"
	}
	return "copy"
}

// ParseDelivery parses "copy" or "zerocopy".
func ParseDelivery(s string) (Delivery, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "copy":
		return DeliveryCopy, nil
	case "zerocopy", "zero-copy":
		return DeliveryZeroCopy, nil
	}
	return DeliveryCopy, fmt.Errorf("unknown delivery strategy %q", s)
}

// Planes holds a host copy of an NV12/P010 picture.
type Planes struct {
	Y        []byte
	UV       []byte
	YStride  int
	UVStride int
}

// Frame is a decoded picture.
type Frame struct {
	Width    int
	Height   int
	HDR      bool
	Transfer uint8 // transfer_characteristics of the SPS VUI
	POC      int32

	// Surface is the array slice the picture was decoded into.
	Surface int
	// Handle is the native handle of the surface array (zero-copy only).
	Handle uintptr
	// Planes is set by copy delivery.
	Planes *Planes
}

// copyPlanes maps surface idx and copies width x height luma and the
// interleaved chroma plane into tightly packed buffers.
func copyPlanes(surfaces accel.SurfaceArray, idx, width, height, bytesPerSample int) (*Planes, error) {
	m, err := surfaces.Map(idx)
	if err != nil {
		return nil, errors.Wrapf(err, "map surface %d", idx)
	}
	defer surfaces.Unmap(idx)

	row := width * bytesPerSample
	p := &Planes{
		Y:        make([]byte, row*height),
		UV:       make([]byte, row*(height/2)),
		YStride:  row,
		UVStride: row,
	}
	if err = copyRows(p.Y, m.Y, row, m.YStride, height); err != nil {
		return nil, errors.Wrap(err, "luma plane")
	}
	if err = copyRows(p.UV, m.UV, row, m.UVStride, height/2); err != nil {
		return nil, errors.Wrap(err, "chroma plane")
	}
	return p, nil
}

func copyRows(dst, src []byte, row, stride, rows int) error {
	if rows > 0 && (stride < row || len(src) < (rows-1)*stride+row) {
		return fmt.Errorf("mapped plane too small: %d bytes, stride %d for %d rows of %d",
			len(src), stride, rows, row)
	}
	for y := 0; y < rows; y++ {
		copy(dst[y*row:(y+1)*row], src[y*stride:y*stride+row])
	}
	return nil
}
