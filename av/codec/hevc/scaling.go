// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

import (
	"fmt"

	"github.com/cnotch/hwdec/utils/bits"
)

// Table 7-6, sizeId 1..3, in up-right diagonal (coded) order.
var (
	DefaultScalingListIntra = [64]uint8{
		16, 16, 16, 16, 16, 16, 16, 16, 16, 16, 17, 16, 17, 16, 17, 18,
		17, 18, 18, 17, 18, 21, 19, 20, 21, 20, 19, 21, 24, 22, 22, 24,
		24, 22, 22, 24, 25, 25, 27, 30, 27, 25, 25, 29, 31, 35, 35, 31,
		29, 36, 41, 44, 41, 36, 47, 54, 54, 47, 65, 70, 65, 88, 88, 115,
	}
	DefaultScalingListInter = [64]uint8{
		16, 16, 16, 16, 16, 16, 16, 16, 16, 16, 17, 17, 17, 17, 17, 18,
		18, 18, 18, 18, 18, 20, 20, 20, 20, 20, 20, 20, 24, 24, 24, 24,
		24, 24, 24, 24, 25, 25, 25, 25, 25, 25, 25, 28, 28, 28, 28, 28,
		28, 33, 33, 33, 33, 33, 41, 41, 41, 41, 54, 54, 54, 71, 71, 91,
	}
)

// ScalingList holds the resolved scaling factors of scaling_list_data()
// (7.3.4). Lists stay in coded order; entry counts are 16 for sizeId 0
// and 64 otherwise.
type ScalingList struct {
	Lists [4][6][64]uint8
	// DC holds scaling_list_dc_coef_minus8 + 8 for sizeId 2 and 3.
	DC [2][6]uint8
}

// coefNum returns the number of coded coefficients for sizeId.
func coefNum(sizeId int) int {
	if sizeId == 0 {
		return 16
	}
	return 64
}

// SetDefault fills sl with the Table 7-5/7-6 defaults.
func (sl *ScalingList) SetDefault() {
	for sizeId := 0; sizeId < 4; sizeId++ {
		for matrixId := 0; matrixId < 6; matrixId++ {
			sl.setDefaultList(sizeId, matrixId)
		}
	}
}

// SetFlat fills sl with the flat value 16 used when scaling lists are disabled.
func (sl *ScalingList) SetFlat() {
	for sizeId := 0; sizeId < 4; sizeId++ {
		for matrixId := 0; matrixId < 6; matrixId++ {
			for i := range sl.Lists[sizeId][matrixId] {
				sl.Lists[sizeId][matrixId][i] = 16
			}
		}
	}
	for i := range sl.DC {
		for j := range sl.DC[i] {
			sl.DC[i][j] = 16
		}
	}
}

func (sl *ScalingList) setDefaultList(sizeId, matrixId int) {
	list := &sl.Lists[sizeId][matrixId]
	switch {
	case sizeId == 0:
		for i := 0; i < 16; i++ {
			list[i] = 16
		}
	case matrixId < 3:
		*list = DefaultScalingListIntra
	default:
		*list = DefaultScalingListInter
	}
	if sizeId > 1 {
		sl.DC[sizeId-2][matrixId] = 16
	}
}

func (sl *ScalingList) decode(r *bits.Reader) error {
	for sizeId := 0; sizeId < 4; sizeId++ {
		step := 1
		if sizeId == 3 {
			step = 3
		}
		for matrixId := 0; matrixId < 6; matrixId += step {
			predModeFlag := r.ReadBool()
			if !predModeFlag {
				delta := int(r.ReadUe())
				if delta == 0 {
					sl.setDefaultList(sizeId, matrixId)
					continue
				}

				refMatrixId := matrixId - delta*step
				if refMatrixId < 0 {
					return fmt.Errorf("invalid scaling_list_pred_matrix_id_delta %d for sizeId %d matrixId %d",
						delta, sizeId, matrixId)
				}
				sl.Lists[sizeId][matrixId] = sl.Lists[sizeId][refMatrixId]
				if sizeId > 1 {
					sl.DC[sizeId-2][matrixId] = sl.DC[sizeId-2][refMatrixId]
				}
				continue
			}

			nextCoef := 8
			if sizeId > 1 {
				dc := int(r.ReadSe()) + 8
				if dc < 1 || dc > 255 {
					return fmt.Errorf("invalid scaling_list_dc_coef_minus8 %d", dc-8)
				}
				nextCoef = dc
				sl.DC[sizeId-2][matrixId] = uint8(dc)
			}

			n := coefNum(sizeId)
			for i := 0; i < n; i++ {
				delta := int(r.ReadSe())
				if delta < -128 || delta > 127 {
					return fmt.Errorf("invalid scaling_list_delta_coef %d", delta)
				}
				nextCoef = (nextCoef + delta + 256) % 256
				sl.Lists[sizeId][matrixId][i] = uint8(nextCoef)
			}
		}
	}

	// 32x32 chroma lists are not coded for 4:2:0; mirror the luma ones
	for matrixId := 1; matrixId < 6; matrixId++ {
		if matrixId == 3 {
			continue
		}
		src := 0
		if matrixId > 3 {
			src = 3
		}
		sl.Lists[3][matrixId] = sl.Lists[3][src]
		sl.DC[1][matrixId] = sl.DC[1][src]
	}
	return nil
}
