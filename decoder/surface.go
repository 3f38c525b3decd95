// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package decoder

// SurfacePool hands out indexes of a fixed surface array, skipping the
// surfaces still referenced by the DPB.
type SurfacePool struct {
	count  int
	cursor int
}

// NewSurfacePool returns a pool of count surfaces.
func NewSurfacePool(count int) *SurfacePool {
	if count < 1 {
		count = 1
	}
	return &SurfacePool{count: count}
}

// Count returns the pool size.
func (p *SurfacePool) Count() int { return p.count }

// Reset moves the cursor back to surface 0.
func (p *SurfacePool) Reset() { p.cursor = 0 }

func (p *SurfacePool) advance() int {
	c := p.cursor
	p.cursor = (p.cursor + 1) % p.count
	return c
}

// Next returns a surface that no DPB entry references. When all of them are
// referenced the oldest DPB entry in decode order is evicted and its surface
// returned; forced is true in that case. Next never fails.
func (p *SurfacePool) Next(dpb *DPB) (idx int, forced bool) {
	for i := 0; i < p.count; i++ {
		c := p.advance()
		if !dpb.Contains(c) {
			return c, false
		}
	}

	if e, ok := dpb.evictOldest(); ok {
		return e.Surface, true
	}
	return p.advance(), true
}
