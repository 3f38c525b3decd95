// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/bluenviron/mediacommon/pkg/codecs/h265"
	"github.com/cnotch/hwdec/utils"
)

// ErrFraming is returned when a buffer is neither Annex-B nor length prefixed.
var ErrFraming = errors.New("hevc: unrecognized NAL framing")

// NalType is nal_unit_type.
type NalType uint8

// IsSlice reports whether the unit carries a coded slice segment.
func (t NalType) IsSlice() bool {
	return t <= NalRaslR || (t >= NalBlaWLp && t <= NalCraNut)
}

// IsIDR reports IDR_W_RADL / IDR_N_LP.
func (t NalType) IsIDR() bool {
	return t == NalIdrWRadl || t == NalIdrNLp
}

// IsRAP reports an intra random access point (IRAP, types 16..23).
func (t NalType) IsRAP() bool {
	return t >= NalBlaWLp && t <= NalIrapVcl23
}

// IsVCL reports a video coding layer unit.
func (t NalType) IsVCL() bool {
	return t <= NalRsvVcl31
}

// IsParameterSet reports VPS, SPS or PPS.
func (t NalType) IsParameterSet() bool {
	return t >= NalVps && t <= NalPps
}

func (t NalType) String() string {
	return h265.NALUType(t).String()
}

// NALUnit is one NAL unit of an access unit. Data references the caller's
// buffer: two byte header included, start code excluded, emulation
// prevention bytes intact.
type NALUnit struct {
	Type       NalType
	LayerID    uint8
	TemporalID uint8
	Data       []byte
}

// RBSP returns the payload after the header with emulation bytes removed.
func (n NALUnit) RBSP() []byte {
	if len(n.Data) <= 2 {
		return nil
	}
	return utils.RemoveEmulationBytes(n.Data[2:])
}

// ParseNALUnit decodes the two byte NAL unit header.
func ParseNALUnit(data []byte) (NALUnit, error) {
	if len(data) < 2 {
		return NALUnit{}, fmt.Errorf("hevc: NAL unit too short (%d bytes)", len(data))
	}
	if data[0]&0x80 != 0 {
		return NALUnit{}, errors.New("hevc: forbidden_zero_bit set")
	}
	if data[1]&0x07 == 0 {
		return NALUnit{}, errors.New("hevc: nuh_temporal_id_plus1 is zero")
	}
	return NALUnit{
		Type:       NalType((data[0] >> 1) & 0x3f),
		LayerID:    (data[0]&0x01)<<5 | data[1]>>3,
		TemporalID: (data[1] & 0x07) - 1,
		Data:       data,
	}, nil
}

// FindNALUnits splits buf into NAL units without copying. Annex-B framing is
// detected by a leading start code, otherwise 4-byte big-endian length
// prefixes are assumed. Units that fail header parsing are skipped.
func FindNALUnits(buf []byte) ([]NALUnit, error) {
	var raws [][]byte
	var err error

	switch {
	case utils.StartCodeLen(buf) > 0:
		raws = utils.SplitAnnexB(buf)
	case looksLengthPrefixed(buf):
		if raws, err = utils.SplitLengthPrefixed(buf); err != nil {
			return nil, fmt.Errorf("hevc: split NAL units: %w", err)
		}
	default:
		return nil, ErrFraming
	}

	nals := make([]NALUnit, 0, len(raws))
	for _, raw := range raws {
		nal, err := ParseNALUnit(raw)
		if err != nil {
			continue
		}
		nals = append(nals, nal)
	}
	return nals, nil
}

func looksLengthPrefixed(buf []byte) bool {
	if len(buf) < 6 {
		return false
	}
	n := binary.BigEndian.Uint32(buf)
	return n >= 2 && int(n) <= len(buf)-4
}

// IsRandomAccess reports whether the units start a random access point.
func IsRandomAccess(nals []NALUnit) bool {
	au := make([][]byte, 0, len(nals))
	for _, n := range nals {
		au = append(au, n.Data)
	}
	return h265.IsRandomAccess(au)
}
