// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package decoder

import (
	"github.com/cnotch/hwdec/av/codec/hevc"
	"github.com/cnotch/hwdec/dxva"
)

var startCode = []byte{0x00, 0x00, 0x01}

// BuildBitstream concatenates slice NAL units into the bitstream buffer
// layout the accelerator expects, with one slice control per unit. With
// startCodes each unit is prefixed by 00 00 01. The buffer is zero padded to
// dxva.BitstreamAlignment and the padding is counted in the last slice.
func BuildBitstream(slices []hevc.NALUnit, startCodes bool) ([]byte, []dxva.SliceShort) {
	prefix := 0
	if startCodes {
		prefix = len(startCode)
	}

	total := 0
	for _, nal := range slices {
		total += prefix + len(nal.Data)
	}
	padded := (total + dxva.BitstreamAlignment - 1) &^ (dxva.BitstreamAlignment - 1)

	buf := make([]byte, 0, padded)
	controls := make([]dxva.SliceShort, 0, len(slices))
	for _, nal := range slices {
		pos := len(buf)
		if startCodes {
			buf = append(buf, startCode...)
		}
		buf = append(buf, nal.Data...)
		controls = append(controls, dxva.SliceShort{
			BSNALunitDataLocation: uint32(pos),
			SliceBytesInBuffer:    uint32(prefix + len(nal.Data)),
		})
	}

	buf = buf[:padded] // zeroed by make
	if n := len(controls); n > 0 {
		controls[n-1].SliceBytesInBuffer += uint32(padded - total)
	}
	return buf, controls
}
