// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dxva

import "encoding/binary"

// SliceShortSize is sizeof(DXVA_Slice_HEVC_Short).
const SliceShortSize = 10

// SliceShort mirrors DXVA_Slice_HEVC_Short.
type SliceShort struct {
	BSNALunitDataLocation uint32
	SliceBytesInBuffer    uint32
	BadSliceChopping      uint16
}

// MarshalSlices packs slices back to back.
func MarshalSlices(slices []SliceShort) []byte {
	b := make([]byte, len(slices)*SliceShortSize)
	for i, s := range slices {
		o := b[i*SliceShortSize:]
		binary.LittleEndian.PutUint32(o[0:], s.BSNALunitDataLocation)
		binary.LittleEndian.PutUint32(o[4:], s.SliceBytesInBuffer)
		binary.LittleEndian.PutUint16(o[8:], s.BadSliceChopping)
	}
	return b
}
