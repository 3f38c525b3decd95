// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package media

import (
	"sync"
	"sync/atomic"
)

// SharedFrame is the single slot between the decode worker and the
// renderer. A newer frame replaces an undelivered one.
type SharedFrame struct {
	mu      sync.Mutex
	frame   *VideoFrame
	written uint64
	dropped uint64
}

// NewSharedFrame returns an empty slot.
func NewSharedFrame() *SharedFrame {
	return &SharedFrame{}
}

// Write stores f and reports whether an untaken frame was overwritten.
func (s *SharedFrame) Write(f *VideoFrame) bool {
	s.mu.Lock()
	replaced := s.frame != nil
	s.frame = f
	s.mu.Unlock()

	atomic.AddUint64(&s.written, 1)
	if replaced {
		atomic.AddUint64(&s.dropped, 1)
	}
	return replaced
}

// Take removes and returns the latest frame, or nil.
func (s *SharedFrame) Take() *VideoFrame {
	s.mu.Lock()
	f := s.frame
	s.frame = nil
	s.mu.Unlock()
	return f
}

// Written 写入的帧数
func (s *SharedFrame) Written() uint64 { return atomic.LoadUint64(&s.written) }

// Dropped 未被取走即被覆盖的帧数
func (s *SharedFrame) Dropped() uint64 { return atomic.LoadUint64(&s.dropped) }
