// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package decoder

import "github.com/cnotch/hwdec/dxva"

// DefaultDPBSize is the number of reference pictures kept by default.
const DefaultDPBSize = 18

// Entry is one decoded picture retained for reference.
type Entry struct {
	Surface   int
	POC       int32
	Reference bool
	LongTerm  bool
	FrameNum  uint32 // decode order
}

// DPB is the decoded picture buffer. Surfaces are unique among entries.
type DPB struct {
	entries    []Entry
	maxSize    int
	frameCount uint32
}

// NewDPB returns an empty DPB holding at most maxSize pictures.
func NewDPB(maxSize int) *DPB {
	if maxSize <= 0 {
		maxSize = DefaultDPBSize
	}
	return &DPB{
		entries: make([]Entry, 0, maxSize),
		maxSize: maxSize,
	}
}

// Update records a decoded picture. An IDR empties the buffer first; the
// previous occupant of surface is dropped and the oldest pictures in decode
// order are evicted until there is room.
func (d *DPB) Update(surface int, poc int32, isReference, isIDR bool) {
	d.frameCount++
	if isIDR {
		d.RemoveAll()
	}

	d.remove(func(e *Entry) bool { return e.Surface == surface })
	for len(d.entries) >= d.maxSize {
		if _, ok := d.evictOldest(); !ok {
			break
		}
	}

	if isReference {
		d.entries = append(d.entries, Entry{
			Surface:   surface,
			POC:       poc,
			Reference: true,
			FrameNum:  d.frameCount,
		})
	}
}

// RemoveAll drops every entry and keeps the frame counter.
func (d *DPB) RemoveAll() {
	d.entries = d.entries[:0]
}

// Clear drops every entry and resets the frame counter.
func (d *DPB) Clear() {
	d.RemoveAll()
	d.frameCount = 0
}

// Len returns the number of live entries.
func (d *DPB) Len() int { return len(d.entries) }

// MaxSize returns the capacity.
func (d *DPB) MaxSize() int { return d.maxSize }

// FrameCount returns the number of pictures recorded since the last Clear.
func (d *DPB) FrameCount() uint32 { return d.frameCount }

// Entries returns a copy of the live entries in insertion order.
func (d *DPB) Entries() []Entry {
	return append([]Entry(nil), d.entries...)
}

// Contains reports whether surface holds a live entry.
func (d *DPB) Contains(surface int) bool {
	for i := range d.entries {
		if d.entries[i].Surface == surface {
			return true
		}
	}
	return false
}

// References returns the live reference pictures for parameter building.
func (d *DPB) References() []dxva.Reference {
	refs := make([]dxva.Reference, 0, len(d.entries))
	for _, e := range d.entries {
		if !e.Reference {
			continue
		}
		refs = append(refs, dxva.Reference{
			Surface:  uint8(e.Surface),
			POC:      e.POC,
			LongTerm: e.LongTerm,
		})
	}
	return refs
}

// evictOldest removes the entry with the smallest frame number.
func (d *DPB) evictOldest() (Entry, bool) {
	if len(d.entries) == 0 {
		return Entry{}, false
	}
	oldest := 0
	for i := 1; i < len(d.entries); i++ {
		if d.entries[i].FrameNum < d.entries[oldest].FrameNum {
			oldest = i
		}
	}
	e := d.entries[oldest]
	d.entries = append(d.entries[:oldest], d.entries[oldest+1:]...)
	return e, true
}

func (d *DPB) remove(match func(*Entry) bool) {
	kept := d.entries[:0]
	for i := range d.entries {
		if !match(&d.entries[i]) {
			kept = append(kept, d.entries[i])
		}
	}
	d.entries = kept
}
