// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package media

import (
	"io"
	"os"

	"github.com/cnotch/hwdec/av/codec/hevc"
	"github.com/cnotch/hwdec/decoder"
	"github.com/cnotch/hwdec/utils"
	"github.com/pkg/errors"
)

// ErrEmptyStream is returned when a stream holds no NAL unit.
var ErrEmptyStream = errors.New("media: stream has no NAL units")

// SplitAccessUnits groups an Annex-B elementary stream into access units.
// Every returned unit is re-framed with 4-byte start codes.
func SplitAccessUnits(codec decoder.Codec, stream []byte) ([][]byte, error) {
	nalus := utils.SplitAnnexB(stream)
	if len(nalus) == 0 {
		return nil, ErrEmptyStream
	}

	var aus [][]byte
	var cur [][]byte
	hasVCL := false
	flush := func() {
		if len(cur) == 0 {
			return
		}
		aus = append(aus, utils.JoinAnnexB(cur))
		cur = nil
		hasVCL = false
	}

	for _, nalu := range nalus {
		if len(nalu) == 0 {
			continue
		}
		vcl, first, boundary := classify(codec, nalu)
		if hasVCL && (boundary || (vcl && first)) {
			flush()
		}
		cur = append(cur, nalu)
		if vcl {
			hasVCL = true
		}
	}
	flush()
	return aus, nil
}

// classify reports whether nalu is a VCL unit, whether it starts a picture
// and whether it opens a new access unit when it follows a VCL unit.
func classify(codec decoder.Codec, nalu []byte) (vcl, first, boundary bool) {
	if codec == decoder.CodecH264 {
		typ := nalu[0] & 0x1f
		switch {
		case typ >= 1 && typ <= 5:
			// first_mb_in_slice == 0 is the single bit ue(v) '1'
			return true, len(nalu) > 1 && nalu[1]&0x80 != 0, false
		case typ >= 6 && typ <= 9, typ >= 14 && typ <= 18:
			return false, false, true
		}
		return false, false, false
	}

	typ := (nalu[0] >> 1) & 0x3f
	switch {
	case typ <= 31:
		// first_slice_segment_in_pic_flag
		return true, len(nalu) > 2 && nalu[2]&0x80 != 0, false
	case typ >= 32 && typ <= 35, typ == 39, typ >= 41 && typ <= 44, typ >= 48 && typ <= 55:
		return false, false, true
	}
	return false, false, false
}

// FileSource yields the access units of an Annex-B file, optionally
// starting over at the end.
type FileSource struct {
	aus  [][]byte
	keys []bool // random access points
	next int
	loop bool
}

// OpenFileSource reads and splits path.
func OpenFileSource(path string, codec decoder.Codec, loop bool) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return NewFileSource(f, codec, loop)
}

// NewFileSource reads r to the end and splits it.
func NewFileSource(r io.Reader, codec decoder.Codec, loop bool) (*FileSource, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read stream")
	}
	aus, err := SplitAccessUnits(codec, data)
	if err != nil {
		return nil, err
	}
	keys := make([]bool, len(aus))
	for i, au := range aus {
		keys[i] = isRandomAccess(codec, au)
	}
	return &FileSource{aus: aus, keys: keys, loop: loop}, nil
}

// isRandomAccess reports whether the access unit starts a random access
// point: an IDR (H.264) or IRAP (HEVC) picture.
func isRandomAccess(codec decoder.Codec, au []byte) bool {
	if codec == decoder.CodecHEVC {
		nals, err := hevc.FindNALUnits(au)
		return err == nil && hevc.IsRandomAccess(nals)
	}

	for _, nalu := range utils.SplitAnnexB(au) {
		if len(nalu) > 0 && nalu[0]&0x1f == 5 {
			return true
		}
	}
	return false
}

// SeekKeyframe moves to the next random access point, wrapping around on a
// looping source. It reports false when there is none ahead.
func (s *FileSource) SeekKeyframe() bool {
	for i := s.next; i < len(s.aus); i++ {
		if s.keys[i] {
			s.next = i
			return true
		}
	}
	if !s.loop {
		return false
	}
	for i := 0; i < len(s.aus); i++ {
		if s.keys[i] {
			s.next = i
			return true
		}
	}
	return false
}

// Len returns the number of access units in one pass.
func (s *FileSource) Len() int { return len(s.aus) }

// Next returns the next access unit, or io.EOF at the end of a
// non-looping source.
func (s *FileSource) Next() ([]byte, error) {
	if s.next >= len(s.aus) {
		if !s.loop {
			return nil, io.EOF
		}
		s.next = 0
	}
	au := s.aus[s.next]
	s.next++
	return au, nil
}
