// Copyright 2024 tsepg project contributors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package epg

import "time"

// EpgSegment holds up to 8 sections covering a 3-hour window. Slots
// beyond the broadcaster-declared last-section-number are kept empty.
type EpgSegment struct {
	Sections [8]*EpgSection `json:"sections"`
}

// Update replaces the section at its section_index, truncating any
// slot beyond the segment's last-section-number. Replacement is
// version-unconditional: the broadcaster guarantees monotonic
// revisions and the collector emits only current sections.
func (seg *EpgSegment) Update(s EitSection) {
	last := s.LastSectionIndex()
	for j := last + 1; j < 8; j++ {
		seg.Sections[j] = nil
	}
	sec := newEpgSection(s)
	seg.Sections[s.SectionIndex()] = &sec
}

// CollectOvernightEvents appends every overnight-straddling event from
// this segment's populated slots, in slot order.
func (seg *EpgSegment) CollectOvernightEvents(midnight time.Time, acc []EitEvent) []EitEvent {
	for _, s := range seg.Sections {
		if s == nil {
			continue
		}
		acc = s.CollectOvernightEvents(midnight, acc)
	}
	return acc
}

// CollectPrograms folds every populated slot's events into programs,
// in slot order.
func (seg *EpgSegment) CollectPrograms(sched ServiceKey, programs map[ProgramKey]*Program) {
	for _, s := range seg.Sections {
		if s == nil {
			continue
		}
		foldEvents(s.Events, sched, programs)
	}
}
