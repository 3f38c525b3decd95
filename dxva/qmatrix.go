// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dxva

import "github.com/cnotch/hwdec/av/codec/hevc"

// QMatrixSize is sizeof(DXVA_Qmatrix_HEVC).
const QMatrixSize = 6*16 + 6*64 + 6*64 + 2*64 + 6 + 2

// QMatrix mirrors DXVA_Qmatrix_HEVC. Lists are in up-right diagonal order.
type QMatrix struct {
	ScalingLists0 [6][16]uint8
	ScalingLists1 [6][64]uint8
	ScalingLists2 [6][64]uint8
	ScalingLists3 [2][64]uint8
	DCCoefSizeID2 [6]uint8
	DCCoefSizeID3 [2]uint8
}

// BuildQMatrix selects the scaling list in effect: the PPS list, then the
// SPS list, then the default tables. Flat lists are returned when scaling
// lists are disabled.
func BuildQMatrix(sps *hevc.SPS, pps *hevc.PPS) *QMatrix {
	var sl hevc.ScalingList
	switch {
	case !sps.ScalingListEnabled:
		sl.SetFlat()
	case pps.ScalingListDataPresent && pps.ScalingList != nil:
		sl = *pps.ScalingList
	case sps.ScalingListDataPresent && sps.ScalingList != nil:
		sl = *sps.ScalingList
	default:
		sl.SetDefault()
	}

	qm := &QMatrix{}
	for i := 0; i < 6; i++ {
		copy(qm.ScalingLists0[i][:], sl.Lists[0][i][:16])
		qm.ScalingLists1[i] = sl.Lists[1][i]
		qm.ScalingLists2[i] = sl.Lists[2][i]
		qm.DCCoefSizeID2[i] = sl.DC[0][i]
	}
	for i := 0; i < 2; i++ {
		qm.ScalingLists3[i] = sl.Lists[3][i*3]
		qm.DCCoefSizeID3[i] = sl.DC[1][i*3]
	}
	return qm
}

// Marshal returns the 1000 byte form.
func (qm *QMatrix) Marshal() []byte {
	b := make([]byte, 0, QMatrixSize)
	for i := range qm.ScalingLists0 {
		b = append(b, qm.ScalingLists0[i][:]...)
	}
	for i := range qm.ScalingLists1 {
		b = append(b, qm.ScalingLists1[i][:]...)
	}
	for i := range qm.ScalingLists2 {
		b = append(b, qm.ScalingLists2[i][:]...)
	}
	for i := range qm.ScalingLists3 {
		b = append(b, qm.ScalingLists3[i][:]...)
	}
	b = append(b, qm.DCCoefSizeID2[:]...)
	b = append(b, qm.DCCoefSizeID3[:]...)
	return b
}
