// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package utils

import (
	"encoding/binary"
	"errors"

	"github.com/bluenviron/mediacommon/pkg/codecs/h264"
)

// ErrTruncatedNALU is returned when a length prefix runs past the buffer.
var ErrTruncatedNALU = errors.New("nalu length exceeds buffer")

// StartCodeLen returns the length of a leading Annex-B start code
// (00 00 01 or 00 00 00 01), or 0 when there is none.
func StartCodeLen(b []byte) int {
	if len(b) >= 3 && b[0] == 0 && b[1] == 0 {
		if b[2] == 1 {
			return 3
		}
		if len(b) >= 4 && b[2] == 0 && b[3] == 1 {
			return 4
		}
	}
	return 0
}

// RemoveNaluSeparator strips a leading start code.
func RemoveNaluSeparator(nalu []byte) []byte {
	return nalu[StartCodeLen(nalu):]
}

// SplitAnnexB splits an Annex-B stream at every start code without copying.
// A start code is two or more zero bytes followed by 01, so leading_zero_8bits
// and trailing_zero_8bits are absorbed into the delimiter. Bytes before the
// first start code are discarded. There is no limit on the unit count.
func SplitAnnexB(buf []byte) [][]byte {
	var units [][]byte
	start := -1
	zeros := 0
	for i, b := range buf {
		if b == 0 {
			zeros++
			continue
		}
		if b == 1 && zeros >= 2 {
			if start >= 0 && i-zeros > start {
				units = append(units, buf[start:i-zeros])
			}
			start = i + 1
		}
		zeros = 0
	}
	if start >= 0 && len(buf)-zeros > start {
		units = append(units, buf[start:len(buf)-zeros])
	}
	return units
}

// SplitLengthPrefixed splits NAL units framed by 4-byte big-endian lengths
// without copying. Zero length units are skipped.
func SplitLengthPrefixed(buf []byte) ([][]byte, error) {
	var units [][]byte
	for len(buf) > 0 {
		if len(buf) < 4 {
			return nil, ErrTruncatedNALU
		}
		n := binary.BigEndian.Uint32(buf)
		buf = buf[4:]
		if uint64(n) > uint64(len(buf)) {
			return nil, ErrTruncatedNALU
		}
		if n > 0 {
			units = append(units, buf[:n])
		}
		buf = buf[n:]
	}
	return units, nil
}

// JoinAnnexB frames units with 4-byte start codes.
func JoinAnnexB(units [][]byte) []byte {
	size := 0
	for _, u := range units {
		size += 4 + len(u)
	}
	out := make([]byte, 0, size)
	for _, u := range units {
		out = append(out, 0, 0, 0, 1)
		out = append(out, u...)
	}
	return out
}

// RemoveEmulationBytes converts a NAL unit payload to its RBSP by dropping
// every emulation_prevention_three_byte (00 00 03 -> 00 00).
// The input is never modified.
func RemoveEmulationBytes(from []byte) []byte {
	return h264.EmulationPreventionRemove(RemoveNaluSeparator(from))
}

// AddEmulationBytes is the inverse of RemoveEmulationBytes: it inserts 0x03
// after any two zero bytes followed by a byte <= 3.
func AddEmulationBytes(rbsp []byte) []byte {
	to := make([]byte, 0, len(rbsp)+len(rbsp)/64+1)
	zeros := 0
	for _, b := range rbsp {
		if zeros >= 2 && b <= 3 {
			to = append(to, 3)
			zeros = 0
		}
		if b == 0 {
			zeros++
		} else {
			zeros = 0
		}
		to = append(to, b)
	}
	return to
}
