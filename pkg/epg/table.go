// Copyright 2024 tsepg project contributors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package epg

import "time"

// EpgTable holds 32 segments covering a 4-day window. In the Japanese
// profile only the tables whose slot index mod 8 is in {0,1} ever carry
// data, but every table has the same 32-segment structure — the
// broadcaster's layout is a contract, not an implementation shortcut.
type EpgTable struct {
	Segments [32]EpgSegment `json:"segments"`
}

// Update dispatches a section to its segment.
func (t *EpgTable) Update(s EitSection) {
	t.Segments[s.SegmentIndex()].Update(s)
}

// CollectOvernightEvents fans out to all 32 segments in index order.
func (t *EpgTable) CollectOvernightEvents(midnight time.Time, acc []EitEvent) []EitEvent {
	for i := range t.Segments {
		acc = t.Segments[i].CollectOvernightEvents(midnight, acc)
	}
	return acc
}

// CollectPrograms fans out to all 32 segments in index order.
func (t *EpgTable) CollectPrograms(sched ServiceKey, programs map[ProgramKey]*Program) {
	for i := range t.Segments {
		t.Segments[i].CollectPrograms(sched, programs)
	}
}
