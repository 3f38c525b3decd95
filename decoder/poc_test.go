// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPOC_WrapSequence(t *testing.T) {
	var p POC
	assert.Equal(t, int32(0), p.Calculate(0, true, 256))

	want := int32(0)
	for lsb := int32(4); lsb < 256; lsb += 4 {
		want += 4
		assert.Equal(t, want, p.Calculate(lsb, false, 256))
	}
	assert.Equal(t, int32(256), p.Calculate(0, false, 256))
	assert.Equal(t, int32(260), p.Calculate(4, false, 256))
}

func TestPOC_MultipleWraps(t *testing.T) {
	var p POC
	p.Calculate(0, true, 16)

	full := int32(0)
	for i := 0; i < 100; i++ {
		full += 3
		assert.Equal(t, full, p.Calculate(full%16, false, 16))
	}
}

func TestPOC_Calculate(t *testing.T) {
	tests := []struct {
		name    string
		prevLsb int32
		prevMsb int32
		lsb     int32
		max     int32
		want    int32
		wantMsb int32
	}{
		{"no wrap", 10, 0, 12, 256, 12, 0},
		{"upward wrap", 250, 0, 2, 256, 258, 256},
		{"upward at half", 8, 0, 0, 16, 16, 16},
		{"below half", 7, 0, 0, 16, 0, 0},
		{"downward wrap", 2, 256, 250, 256, 250, 0},
		{"downward at half", 0, 16, 8, 16, 24, 16},
		{"downward past half", 0, 16, 9, 16, 9, 0},
		{"negative", 0, 0, 250, 256, -6, -256},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := POC{prevLsb: tt.prevLsb, prevMsb: tt.prevMsb}
			assert.Equal(t, tt.want, p.Calculate(tt.lsb, false, tt.max))
			lsb, msb := p.Prev()
			assert.Equal(t, tt.lsb, lsb)
			assert.Equal(t, tt.wantMsb, msb)
		})
	}
}

func TestPOC_IDRResets(t *testing.T) {
	p := POC{prevLsb: 100, prevMsb: 512}
	assert.Equal(t, int32(0), p.Calculate(77, true, 256))
	lsb, msb := p.Prev()
	assert.Zero(t, lsb)
	assert.Zero(t, msb)
}
