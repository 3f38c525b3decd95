// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

import (
	"fmt"

	"github.com/cnotch/hwdec/utils/bits"
)

// ShortTermRPS is a decoded st_ref_pic_set() (7.3.7) in delta-array form.
type ShortTermRPS struct {
	InterRPSPred    bool
	NumNegativePics int
	NumPositivePics int
	DeltaPocS0      [HEVC_MAX_REFS]int32
	UsedByCurrS0    [HEVC_MAX_REFS]bool
	DeltaPocS1      [HEVC_MAX_REFS]int32
	UsedByCurrS1    [HEVC_MAX_REFS]bool

	// RefRpsNumDeltaPocs is NumDeltaPocs[RefRpsIdx] when the set is predicted.
	RefRpsNumDeltaPocs int
}

// NumDeltaPocs returns NumNegativePics + NumPositivePics.
func (rps *ShortTermRPS) NumDeltaPocs() int {
	return rps.NumNegativePics + rps.NumPositivePics
}

// decode reads the set with index idx. sets holds the sets already decoded
// from the SPS; num is num_short_term_ref_pic_sets, and idx == num
// selects the slice header form.
func (rps *ShortTermRPS) decode(r *bits.Reader, idx, num int, sets []ShortTermRPS) error {
	*rps = ShortTermRPS{}
	if idx != 0 {
		rps.InterRPSPred = r.ReadBool()
	}

	if !rps.InterRPSPred {
		rps.NumNegativePics = int(r.ReadUe())
		rps.NumPositivePics = int(r.ReadUe())
		if rps.NumNegativePics > HEVC_MAX_REFS ||
			rps.NumPositivePics > HEVC_MAX_REFS ||
			rps.NumDeltaPocs() > HEVC_MAX_REFS {
			return fmt.Errorf("short-term ref pic set %d contains too many pictures", idx)
		}

		var poc int32
		for i := 0; i < rps.NumNegativePics; i++ {
			poc -= int32(r.ReadUe()) + 1
			rps.DeltaPocS0[i] = poc
			rps.UsedByCurrS0[i] = r.ReadBool()
		}
		poc = 0
		for i := 0; i < rps.NumPositivePics; i++ {
			poc += int32(r.ReadUe()) + 1
			rps.DeltaPocS1[i] = poc
			rps.UsedByCurrS1[i] = r.ReadBool()
		}
		return nil
	}

	deltaIdx := 1
	if idx == num {
		deltaIdx += int(r.ReadUe())
	}
	if deltaIdx > idx || idx-deltaIdx >= len(sets) {
		return fmt.Errorf("short-term ref pic set %d references missing set", idx)
	}
	ref := &sets[idx-deltaIdx]

	sign := r.ReadBit()
	deltaRps := int32(r.ReadUe()) + 1
	if sign == 1 {
		deltaRps = -deltaRps
	}

	numDelta := ref.NumDeltaPocs()
	rps.RefRpsNumDeltaPocs = numDelta

	var used, useDelta [HEVC_MAX_REFS + 1]bool
	for j := 0; j <= numDelta; j++ {
		used[j] = r.ReadBool()
		useDelta[j] = true
		if !used[j] {
			useDelta[j] = r.ReadBool()
		}
	}

	// (7-61)
	i := 0
	add0 := func(d int32, u bool) error {
		if i >= HEVC_MAX_REFS {
			return fmt.Errorf("short-term ref pic set %d contains too many pictures", idx)
		}
		rps.DeltaPocS0[i] = d
		rps.UsedByCurrS0[i] = u
		i++
		return nil
	}
	for j := ref.NumPositivePics - 1; j >= 0; j-- {
		d := ref.DeltaPocS1[j] + deltaRps
		if d < 0 && useDelta[ref.NumNegativePics+j] {
			if err := add0(d, used[ref.NumNegativePics+j]); err != nil {
				return err
			}
		}
	}
	if deltaRps < 0 && useDelta[numDelta] {
		if err := add0(deltaRps, used[numDelta]); err != nil {
			return err
		}
	}
	for j := 0; j < ref.NumNegativePics; j++ {
		d := ref.DeltaPocS0[j] + deltaRps
		if d < 0 && useDelta[j] {
			if err := add0(d, used[j]); err != nil {
				return err
			}
		}
	}
	rps.NumNegativePics = i

	// (7-62)
	i = 0
	add1 := func(d int32, u bool) error {
		if i >= HEVC_MAX_REFS {
			return fmt.Errorf("short-term ref pic set %d contains too many pictures", idx)
		}
		rps.DeltaPocS1[i] = d
		rps.UsedByCurrS1[i] = u
		i++
		return nil
	}
	for j := ref.NumNegativePics - 1; j >= 0; j-- {
		d := ref.DeltaPocS0[j] + deltaRps
		if d > 0 && useDelta[j] {
			if err := add1(d, used[j]); err != nil {
				return err
			}
		}
	}
	if deltaRps > 0 && useDelta[numDelta] {
		if err := add1(deltaRps, used[numDelta]); err != nil {
			return err
		}
	}
	for j := 0; j < ref.NumPositivePics; j++ {
		d := ref.DeltaPocS1[j] + deltaRps
		if d > 0 && useDelta[ref.NumNegativePics+j] {
			if err := add1(d, used[ref.NumNegativePics+j]); err != nil {
				return err
			}
		}
	}
	rps.NumPositivePics = i

	if rps.NumDeltaPocs() > HEVC_MAX_REFS {
		return fmt.Errorf("short-term ref pic set %d contains too many pictures", idx)
	}
	return nil
}
