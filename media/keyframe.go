// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package media

// Consecutive failures before a keyframe is requested, per backend.
const (
	KeyframeThresholdNative      = 3
	KeyframeThresholdGstHardware = 5
	KeyframeThresholdSoftware    = 10
	keyframeRepeatInterval       = 20
)

// KeyframePolicy counts consecutive decode failures and decides when the
// session should ask the source for an IDR.
type KeyframePolicy struct {
	Threshold int
	failures  int
}

// NewKeyframePolicy returns a policy; threshold <= 0 falls back to def.
func NewKeyframePolicy(threshold, def int) *KeyframePolicy {
	if threshold <= 0 {
		threshold = def
	}
	return &KeyframePolicy{Threshold: threshold}
}

// Fail records a failure. It returns true when the count reaches the
// threshold and again every 20 failures while the stream stays broken.
func (p *KeyframePolicy) Fail() bool {
	p.failures++
	if p.failures == p.Threshold {
		return true
	}
	return p.failures > p.Threshold && p.failures%keyframeRepeatInterval == 0
}

// Success resets the failure count.
func (p *KeyframePolicy) Success() { p.failures = 0 }

// Failures returns the current consecutive failure count.
func (p *KeyframePolicy) Failures() int { return p.failures }
