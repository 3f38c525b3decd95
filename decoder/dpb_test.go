// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package decoder

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func surfacesOf(d *DPB) []int {
	var s []int
	for _, e := range d.Entries() {
		s = append(s, e.Surface)
	}
	return s
}

func TestDPB_Bound(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for _, max := range []int{1, 2, 5, 18} {
		d := NewDPB(max)
		for i := 0; i < 2000; i++ {
			d.Update(rnd.Intn(25), int32(i), rnd.Intn(4) != 0, rnd.Intn(50) == 0)
			require.LessOrEqual(t, d.Len(), max)

			seen := make(map[int]bool)
			for _, s := range surfacesOf(d) {
				require.False(t, seen[s], "surface %d tracked twice", s)
				seen[s] = true
			}
		}
	}
}

func TestDPB_EvictsOldestFrameNum(t *testing.T) {
	d := NewDPB(2)
	d.Update(0, 0, true, false)
	d.Update(1, 1, true, false)
	d.Update(2, 2, true, false)
	assert.Equal(t, []int{1, 2}, surfacesOf(d))

	// rewriting surface 1 drops its old content, no eviction needed
	d.Update(1, 3, true, false)
	assert.Equal(t, []int{2, 1}, surfacesOf(d))
	assert.Equal(t, uint32(4), d.Entries()[1].FrameNum)
}

func TestDPB_IDRClears(t *testing.T) {
	d := NewDPB(8)
	for i := 0; i < 5; i++ {
		d.Update(i, int32(i), true, false)
	}
	d.Update(7, 0, true, true)
	require.Equal(t, 1, d.Len())
	e := d.Entries()[0]
	assert.Equal(t, 7, e.Surface)
	assert.Equal(t, int32(0), e.POC)
	assert.True(t, e.Reference)
	assert.False(t, e.LongTerm)
	assert.Equal(t, uint32(6), d.FrameCount())

	d.Update(3, 0, false, true)
	assert.Zero(t, d.Len())
}

func TestDPB_NonReference(t *testing.T) {
	d := NewDPB(4)
	d.Update(0, 0, true, false)
	d.Update(0, 1, false, false)
	assert.Zero(t, d.Len(), "non-reference picture replaces the surface but is not kept")
	assert.Equal(t, uint32(2), d.FrameCount())
}

func TestDPB_Clear(t *testing.T) {
	d := NewDPB(4)
	d.Update(0, 0, true, false)
	d.Update(1, 1, true, false)

	d.RemoveAll()
	assert.Zero(t, d.Len())
	assert.Equal(t, uint32(2), d.FrameCount())

	d.Update(1, 1, true, false)
	d.Clear()
	assert.Zero(t, d.Len())
	assert.Zero(t, d.FrameCount())
}

func TestDPB_References(t *testing.T) {
	d := NewDPB(4)
	d.Update(3, 10, true, false)
	d.Update(4, 20, true, false)
	refs := d.References()
	require.Len(t, refs, 2)
	assert.Equal(t, uint8(3), refs[0].Surface)
	assert.Equal(t, int32(20), refs[1].POC)
	assert.True(t, d.Contains(4))
	assert.False(t, d.Contains(5))
}
