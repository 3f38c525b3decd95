// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package decoder

// POC derives PicOrderCntVal from slice_pic_order_cnt_lsb (H.265 8.3.1).
// The zero value is ready to use.
type POC struct {
	prevLsb int32
	prevMsb int32
}

// Calculate returns the full picture order count of the current picture and
// records it as the previous picture for the next call.
func (p *POC) Calculate(lsb int32, idr bool, maxLsb int32) int32 {
	if idr {
		p.Reset()
		return 0
	}

	half := maxLsb / 2
	msb := p.prevMsb
	switch {
	case lsb < p.prevLsb && p.prevLsb-lsb >= half:
		msb += maxLsb
	case lsb > p.prevLsb && lsb-p.prevLsb > half:
		msb -= maxLsb
	}

	p.prevLsb = lsb
	p.prevMsb = msb
	return msb + lsb
}

// Reset clears the history.
func (p *POC) Reset() {
	p.prevLsb = 0
	p.prevMsb = 0
}

// Prev returns the LSB and MSB of the previous picture.
func (p *POC) Prev() (lsb, msb int32) {
	return p.prevLsb, p.prevMsb
}
