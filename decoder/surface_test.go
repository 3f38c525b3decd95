// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSurfacePool_RoundRobin(t *testing.T) {
	p := NewSurfacePool(3)
	d := NewDPB(2)
	for _, want := range []int{0, 1, 2, 0, 1} {
		got, forced := p.Next(d)
		assert.Equal(t, want, got)
		assert.False(t, forced)
	}
}

func TestSurfacePool_SkipsReferenced(t *testing.T) {
	p := NewSurfacePool(4)
	d := NewDPB(4)
	d.Update(0, 0, true, false)
	d.Update(1, 1, true, false)

	got, forced := p.Next(d)
	assert.Equal(t, 2, got)
	assert.False(t, forced)
}

func TestSurfacePool_NonCollision(t *testing.T) {
	p := NewSurfacePool(20)
	d := NewDPB(18)
	for i := 0; i < 500; i++ {
		s, forced := p.Next(d)
		require.False(t, forced)
		require.False(t, d.Contains(s))
		d.Update(s, int32(i), true, i%60 == 0)
	}
}

func TestSurfacePool_Exhausted(t *testing.T) {
	p := NewSurfacePool(2)
	d := NewDPB(4)

	s, _ := p.Next(d)
	d.Update(s, 0, true, false)
	s, _ = p.Next(d)
	d.Update(s, 1, true, false)

	// both surfaces are referenced: the oldest picture gives its surface up
	s, forced := p.Next(d)
	assert.True(t, forced)
	assert.Equal(t, 0, s)
	assert.Equal(t, []int{1}, surfacesOf(d))

	d.Update(s, 2, true, false)
	s, forced = p.Next(d)
	assert.True(t, forced)
	assert.Equal(t, 1, s)
}

func TestSurfacePool_SingleSurface(t *testing.T) {
	p := NewSurfacePool(1)
	d := NewDPB(1)
	d.Update(0, 0, true, false)

	s, forced := p.Next(d)
	assert.True(t, forced)
	assert.Equal(t, 0, s)
	assert.Zero(t, d.Len())
}
