// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

import (
	"encoding/base64"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/cnotch/hwdec/utils"
	"github.com/cnotch/hwdec/utils/bits"
)

// VPS is a decoded video_parameter_set_rbsp() (7.3.2.1) up to the
// sub-layer ordering info. The layer sets and timing that follow are not
// needed to drive a base layer decoder.
type VPS struct {
	ID                       uint8
	BaseLayerInternal        bool
	BaseLayerAvailable       bool
	MaxLayersMinus1          uint8
	MaxSubLayersMinus1       uint8
	TemporalIDNesting        bool
	ProfileTierLevel         ProfileTierLevel
	SubLayerOrderingInfo     bool
	MaxDecPicBufferingMinus1 [HEVC_MAX_SUB_LAYERS]uint8
	MaxNumReorderPics        [HEVC_MAX_SUB_LAYERS]uint8
}

// DecodeString 从 base64 字串解码 vps NAL
func (vps *VPS) DecodeString(b64 string) error {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return err
	}
	return vps.Decode(data)
}

// Decode 从字节序列中解码 vps NAL
func (vps *VPS) Decode(data []byte) error {
	rbsp := utils.RemoveEmulationBytes(data)
	if len(rbsp) < 4 {
		return errors.New("The data is not enough")
	}
	if NalType((rbsp[0]>>1)&0x3f) != NalVps {
		return errors.New("not is vps NAL UNIT")
	}
	return vps.DecodeRBSP(rbsp[2:])
}

// DecodeRBSP decodes the payload following the two byte NAL header.
func (vps *VPS) DecodeRBSP(rbsp []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("VPS decode panic；r = %v \n %s", r, debug.Stack())
		}
	}()

	*vps = VPS{}
	r := bits.NewReader(rbsp)

	vps.ID = r.ReadUint8(4)
	vps.BaseLayerInternal = r.ReadBool()
	vps.BaseLayerAvailable = r.ReadBool()
	vps.MaxLayersMinus1 = r.ReadUint8(6)
	vps.MaxSubLayersMinus1 = r.ReadUint8(3)
	vps.TemporalIDNesting = r.ReadBool()

	if vps.MaxSubLayersMinus1 >= HEVC_MAX_SUB_LAYERS {
		return fmt.Errorf("vps_max_sub_layers_minus1 out of range: %d", vps.MaxSubLayersMinus1)
	}
	if vps.MaxSubLayersMinus1 == 0 && !vps.TemporalIDNesting {
		return errors.New("Invalid stream: vps_temporal_id_nesting_flag must be 1 if vps_max_sub_layers_minus1 is 0")
	}

	r.Skip(16) // vps_reserved_0xffff_16bits
	vps.ProfileTierLevel.decode(r, true, int(vps.MaxSubLayersMinus1))

	vps.SubLayerOrderingInfo = r.ReadBool()
	start := vps.MaxSubLayersMinus1
	if vps.SubLayerOrderingInfo {
		start = 0
	}
	for i := start; i <= vps.MaxSubLayersMinus1; i++ {
		vps.MaxDecPicBufferingMinus1[i] = r.ReadUe8()
		vps.MaxNumReorderPics[i] = r.ReadUe8()
		r.SkipUe() // vps_max_latency_increase_plus1
	}
	return
}
