// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package decoder

import (
	"fmt"

	"github.com/cnotch/hwdec/dxva"
	"github.com/pkg/errors"
)

// 错误定义
var (
	// ErrNotInitialized the decoder was closed or never created
	ErrNotInitialized = errors.New("decoder: not initialized")
	// ErrNoNALUnits the input holds no NAL unit
	ErrNoNALUnits = errors.New("decoder: no NAL units found in bitstream")
	// ErrNoSlices the input holds no slice NAL unit
	ErrNoSlices = errors.New("decoder: no slice NAL units found")
)

// ParseError reports a malformed slice header or one referencing an
// unknown parameter set. The frame is skipped; a keyframe should be requested.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return "decoder: parse: " + e.Err.Error() }

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error { return e.Err }

// CapabilityError reports that the accelerator cannot decode the requested
// stream. It is returned by decoder creation only.
type CapabilityError struct {
	Reason string
	Err    error
}

func (e *CapabilityError) Error() string {
	if e.Err == nil {
		return "decoder: capability: " + e.Reason
	}
	return fmt.Sprintf("decoder: capability: %s: %v", e.Reason, e.Err)
}

// Unwrap returns the underlying error.
func (e *CapabilityError) Unwrap() error { return e.Err }

// SubmissionError reports a failed step of frame submission.
type SubmissionError struct {
	Step   string
	Buffer dxva.BufferType // valid for buffer steps
	Err    error
}

func (e *SubmissionError) Error() string {
	switch e.Step {
	case stepGetBuffer, stepReleaseBuffer:
		return fmt.Sprintf("decoder: submit %s(%s): %v", e.Step, e.Buffer, e.Err)
	}
	return fmt.Sprintf("decoder: submit %s: %v", e.Step, e.Err)
}

// Unwrap returns the underlying error.
func (e *SubmissionError) Unwrap() error { return e.Err }
