// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

import (
	"errors"
	"fmt"

	"github.com/cnotch/xlog"
)

// Parser errors.
var (
	ErrUnknownPPS = errors.New("hevc: slice references unknown PPS")
	ErrUnknownSPS = errors.New("hevc: PPS references unknown SPS")
	ErrNotSlice   = errors.New("hevc: not a slice NAL unit")
)

// Parser keeps the parameter set tables of one elementary stream. It is not
// safe for concurrent use.
type Parser struct {
	vps    [HEVC_MAX_VPS_COUNT]*VPS
	sps    [HEVC_MAX_SPS_COUNT]*SPS
	pps    [HEVC_MAX_PPS_COUNT]*PPS
	latest *SPS // most recently received SPS
	prev   *SliceHeader

	logger *xlog.Logger
}

// NewParser returns an empty Parser logging through logger.
func NewParser(logger *xlog.Logger) *Parser {
	if logger == nil {
		logger = xlog.L()
	}
	return &Parser{logger: logger}
}

// FindNALUnits splits buf into NAL units. Malformed framing is logged and
// yields no units.
func (p *Parser) FindNALUnits(buf []byte) []NALUnit {
	nals, err := FindNALUnits(buf)
	if err != nil {
		p.logger.Warnf("find NAL units in %d bytes: %v", len(buf), err)
		return nil
	}
	return nals
}

// ProcessNAL stores VPS, SPS and PPS units. Malformed parameter sets are
// logged and the previous table entry is kept. Other units are ignored.
func (p *Parser) ProcessNAL(nal NALUnit) {
	switch nal.Type {
	case NalVps:
		vps := new(VPS)
		if err := vps.DecodeRBSP(nal.RBSP()); err != nil {
			p.logger.Warnf("drop malformed VPS: %v", err)
			return
		}
		p.vps[vps.ID] = vps
		p.logger.Debugf("VPS %d: profile %d level %d", vps.ID,
			vps.ProfileTierLevel.GeneralProfileIdc, vps.ProfileTierLevel.GeneralLevelIdc)

	case NalSps:
		sps := new(SPS)
		if err := sps.DecodeRBSP(nal.RBSP()); err != nil {
			p.logger.Warnf("drop malformed SPS: %v", err)
			return
		}
		p.sps[sps.ID] = sps
		p.latest = sps
		p.logger.Debugf("SPS %d: %dx%d, %d bit, poc lsb %d bits",
			sps.ID, sps.Width(), sps.Height(), sps.BitDepthLuma(), sps.Log2MaxPocLsb())

	case NalPps:
		pps := new(PPS)
		if err := pps.DecodeRBSP(nal.RBSP()); err != nil {
			p.logger.Warnf("drop malformed PPS: %v", err)
			return
		}
		p.pps[pps.ID] = pps
		p.logger.Debugf("PPS %d -> SPS %d", pps.ID, pps.SPSID)
	}
}

// ParseSliceHeader decodes the slice header of nal. It fails with
// ErrUnknownPPS / ErrUnknownSPS when the referenced sets have not been seen.
func (p *Parser) ParseSliceHeader(nal NALUnit) (*SliceHeader, error) {
	if !nal.Type.IsSlice() {
		return nil, ErrNotSlice
	}

	sh, err := decodeSliceHeader(nal.RBSP(), nal.Type, p.lookup, p.prev)
	if err != nil {
		return nil, err
	}
	if !sh.DependentSliceSegment {
		p.prev = sh
	}
	return sh, nil
}

func (p *Parser) lookup(ppsID uint8) (*PPS, *SPS, error) {
	pps := p.pps[ppsID]
	if pps == nil {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnknownPPS, ppsID)
	}
	sps := p.sps[pps.SPSID]
	if sps == nil {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnknownSPS, pps.SPSID)
	}
	if err := pps.Resolve(sps); err != nil {
		return nil, nil, err
	}
	return pps, sps, nil
}

// Dimensions returns the coded size and HDR flag of the latest SPS; ok is
// false until an SPS has been seen.
func (p *Parser) Dimensions() (width, height int, hdr bool, ok bool) {
	if p.latest == nil {
		return 0, 0, false, false
	}
	return p.latest.Width(), p.latest.Height(), p.latest.IsHDR(), true
}

// LatestSPS returns the most recently received SPS or nil.
func (p *Parser) LatestSPS() *SPS { return p.latest }

// SPS returns the sequence parameter set with id, or nil.
func (p *Parser) SPS(id uint8) *SPS {
	if int(id) >= len(p.sps) {
		return nil
	}
	return p.sps[id]
}

// PPS returns the picture parameter set with id, or nil.
func (p *Parser) PPS(id uint8) *PPS {
	if int(id) >= len(p.pps) {
		return nil
	}
	return p.pps[id]
}

// VPS returns the video parameter set with id, or nil.
func (p *Parser) VPS(id uint8) *VPS {
	if int(id) >= len(p.vps) {
		return nil
	}
	return p.vps[id]
}

// Reset forgets all parameter sets.
func (p *Parser) Reset() {
	logger := p.logger
	*p = Parser{logger: logger}
}
