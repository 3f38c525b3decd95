// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNalType_Predicates(t *testing.T) {
	tests := []struct {
		typ NalType
		slice, idr, rap, vcl, ps bool
	}{
		{NalTrailN, true, false, false, true, false},
		{NalRaslR, true, false, false, true, false},
		{10, false, false, false, true, false},
		{NalBlaWLp, true, false, true, true, false},
		{NalIdrWRadl, true, true, true, true, false},
		{NalIdrNLp, true, true, true, true, false},
		{NalCraNut, true, false, true, true, false},
		{NalIrapVcl22, false, false, true, true, false},
		{NalVps, false, false, false, false, true},
		{NalPps, false, false, false, false, true},
		{NalSeiPrefix, false, false, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			assert.Equal(t, tt.slice, tt.typ.IsSlice())
			assert.Equal(t, tt.idr, tt.typ.IsIDR())
			assert.Equal(t, tt.rap, tt.typ.IsRAP())
			assert.Equal(t, tt.vcl, tt.typ.IsVCL())
			assert.Equal(t, tt.ps, tt.typ.IsParameterSet())
		})
	}
}

func TestParseNALUnit(t *testing.T) {
	nal, err := ParseNALUnit([]byte{0x40, 0x01, 0x0c})
	require.NoError(t, err)
	assert.Equal(t, NalVps, nal.Type)
	assert.Equal(t, uint8(0), nal.LayerID)
	assert.Equal(t, uint8(0), nal.TemporalID)

	nal, err = ParseNALUnit([]byte{0x03, 0x0a})
	require.NoError(t, err)
	assert.Equal(t, NalTrailR, nal.Type)
	assert.Equal(t, uint8(33), nal.LayerID)
	assert.Equal(t, uint8(1), nal.TemporalID)

	_, err = ParseNALUnit([]byte{0x40})
	assert.Error(t, err)
	_, err = ParseNALUnit([]byte{0xc0, 0x01})
	assert.Error(t, err)
	// nuh_temporal_id_plus1 == 0
	_, err = ParseNALUnit([]byte{0x02, 0x00})
	assert.Error(t, err)
}

func TestFindNALUnits(t *testing.T) {
	annexB := []byte{
		0, 0, 0, 1, 0x40, 0x01, 0x0c,
		0, 0, 1, 0x42, 0x01, 0x01,
		0, 0, 1, 0x26, 0x01, 0xaf, 0x00, 0x00, 0x03, 0x01,
	}
	nals, err := FindNALUnits(annexB)
	require.NoError(t, err)
	require.Len(t, nals, 3)
	assert.Equal(t, NalVps, nals[0].Type)
	assert.Equal(t, NalSps, nals[1].Type)
	assert.Equal(t, NalIdrWRadl, nals[2].Type)
	assert.Equal(t, []byte{0x26, 0x01, 0xaf, 0x00, 0x00, 0x03, 0x01}, nals[2].Data)
	assert.Equal(t, []byte{0xaf, 0x00, 0x00, 0x01}, nals[2].RBSP())
	assert.True(t, IsRandomAccess(nals))

	lengthPrefixed := []byte{
		0, 0, 0, 3, 0x02, 0x01, 0xd0,
		0, 0, 0, 2, 0x00, 0x01,
	}
	nals, err = FindNALUnits(lengthPrefixed)
	require.NoError(t, err)
	require.Len(t, nals, 2)
	assert.Equal(t, NalTrailR, nals[0].Type)
	assert.Equal(t, NalTrailN, nals[1].Type)
	assert.False(t, IsRandomAccess(nals))

	_, err = FindNALUnits([]byte{0x40, 0x01, 0x0c, 0x01, 0xff, 0xff})
	assert.Equal(t, ErrFraming, err)
}

func TestFindNALUnits_ManyUnits(t *testing.T) {
	// 19 prefix SEI, then VPS, SPS, PPS and 34 slice segments
	var buf []byte
	for i := 0; i < 19; i++ {
		buf = append(buf, 0, 0, 0, 1, byte(NalSeiPrefix)<<1, 0x01, 0x05, byte(i+2))
	}
	for _, typ := range []NalType{NalVps, NalSps, NalPps} {
		buf = append(buf, 0, 0, 0, 1, byte(typ)<<1, 0x01, 0x0c)
	}
	for i := 0; i < 34; i++ {
		buf = append(buf, 0, 0, 1, byte(NalIdrWRadl)<<1, 0x01, 0x40, byte(i+2))
	}

	nals, err := FindNALUnits(buf)
	require.NoError(t, err)
	require.Len(t, nals, 19+3+34)
	assert.Equal(t, NalSeiPrefix, nals[0].Type)
	assert.Equal(t, NalPps, nals[21].Type)
	assert.Equal(t, NalIdrWRadl, nals[55].Type)
	assert.Equal(t, byte(35), nals[55].Data[3])
}

func TestFindNALUnits_TrailingZeroDelimiter(t *testing.T) {
	// AUD, trailing_zero_8bits, 4-byte start code, SPS, PPS
	buf := []byte{
		0, 0, 0, 1, byte(NalAud) << 1, 0x01, 0x50,
		0, 0, 0, 0, 1, byte(NalSps) << 1, 0x01, 0x01,
		0, 0, 0, 0, 1, byte(NalPps) << 1, 0x01, 0xc1,
	}
	nals, err := FindNALUnits(buf)
	require.NoError(t, err)
	require.Len(t, nals, 3)
	assert.Equal(t, NalAud, nals[0].Type)
	assert.Equal(t, []byte{byte(NalAud) << 1, 0x01, 0x50}, nals[0].Data)
	assert.Equal(t, NalSps, nals[1].Type)
	assert.Equal(t, NalPps, nals[2].Type)
}
