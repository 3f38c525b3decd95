// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package decoder

import (
	"github.com/cnotch/hwdec/accel"
	"github.com/cnotch/hwdec/dxva"
	"github.com/pkg/errors"
)

// submission steps
const (
	stepBeginFrame    = "BeginFrame"
	stepGetBuffer     = "GetBuffer"
	stepReleaseBuffer = "ReleaseBuffer"
	stepSubmit        = "SubmitBuffers"
	stepEndFrame      = "EndFrame"
	stepFlush         = "Flush"
)

var (
	errNullBuffer     = errors.New("accelerator returned a null buffer")
	errBufferTooSmall = errors.New("accelerator buffer too small")
)

// frameBuffers is the payload of one picture.
type frameBuffers struct {
	picParams []byte
	qmatrix   []byte // nil when scaling lists are disabled
	slices    []byte
	bitstream []byte
	numSlices int
}

// submitFrame drives one picture through the accelerator:
// BeginFrame, the parameter buffers, the slice controls and the bitstream,
// SubmitBuffers, EndFrame and Flush. Any failure aborts the picture.
func submitFrame(dec accel.Decoder, surface int, fb *frameBuffers) error {
	if err := dec.BeginFrame(surface); err != nil {
		return &SubmissionError{Step: stepBeginFrame, Err: err}
	}

	descs := make([]accel.BufferDesc, 0, 4)
	put := func(typ dxva.BufferType, payload []byte) error {
		if err := fillBuffer(dec, typ, payload); err != nil {
			return err
		}
		descs = append(descs, accel.BufferDesc{Type: typ, DataSize: uint32(len(payload))})
		return nil
	}

	err := put(dxva.BufferPictureParameters, fb.picParams)
	if err == nil && fb.qmatrix != nil {
		err = put(dxva.BufferInverseQuantizationMatrix, fb.qmatrix)
	}
	if err == nil && fb.numSlices > 0 {
		err = put(dxva.BufferSliceControl, fb.slices)
	}
	if err == nil {
		err = put(dxva.BufferBitstream, fb.bitstream)
	}
	if err == nil {
		if serr := dec.Submit(descs); serr != nil {
			err = &SubmissionError{Step: stepSubmit, Err: serr}
		}
	}

	// EndFrame pairs with BeginFrame even when the picture is abandoned.
	if eerr := dec.EndFrame(); eerr != nil && err == nil {
		err = &SubmissionError{Step: stepEndFrame, Err: eerr}
	}
	if err != nil {
		return err
	}

	if err := dec.Flush(); err != nil {
		return &SubmissionError{Step: stepFlush, Err: err}
	}
	return nil
}

// fillBuffer copies payload into the accelerator buffer of typ.
func fillBuffer(dec accel.Decoder, typ dxva.BufferType, payload []byte) error {
	buf, err := dec.GetBuffer(typ)
	if err != nil {
		return &SubmissionError{Step: stepGetBuffer, Buffer: typ, Err: err}
	}

	switch {
	case buf == nil:
		err = errNullBuffer
	case len(buf) < len(payload):
		err = errors.Wrapf(errBufferTooSmall, "%d < %d", len(buf), len(payload))
	default:
		copy(buf, payload)
	}

	rerr := dec.ReleaseBuffer(typ)
	if err != nil {
		return &SubmissionError{Step: stepGetBuffer, Buffer: typ, Err: err}
	}
	if rerr != nil {
		return &SubmissionError{Step: stepReleaseBuffer, Buffer: typ, Err: rerr}
	}
	return nil
}
