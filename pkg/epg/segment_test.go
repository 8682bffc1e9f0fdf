// Copyright 2024 tsepg project contributors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package epg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSegmentUpdateTruncatesBeyondLastSection(t *testing.T) {
	var seg EpgSegment
	seg.Update(EitSection{SectionNumber: 0, LastSectionNumber: 7, SegmentLastSectionNumber: 7, VersionNumber: 1})
	seg.Update(EitSection{SectionNumber: 3, LastSectionNumber: 7, SegmentLastSectionNumber: 7, VersionNumber: 1})
	require.NotNil(t, seg.Sections[0])
	require.NotNil(t, seg.Sections[3])

	// Broadcaster shrinks the segment: segment_last_section_number drops to 2,
	// truncating slots 3..7.
	seg.Update(EitSection{SectionNumber: 0, LastSectionNumber: 2, SegmentLastSectionNumber: 2, VersionNumber: 2})
	require.NotNil(t, seg.Sections[0])
	require.Nil(t, seg.Sections[3])
}

func TestSegmentUpdateReplacesSlot(t *testing.T) {
	var seg EpgSegment
	seg.Update(EitSection{
		SectionNumber: 2, LastSectionNumber: 7, SegmentLastSectionNumber: 7,
		VersionNumber: 1,
		Events:        []EitEvent{{EventID: 1}},
	})
	seg.Update(EitSection{
		SectionNumber: 2, LastSectionNumber: 7, SegmentLastSectionNumber: 7,
		VersionNumber: 2,
		Events:        []EitEvent{{EventID: 2}},
	})
	require.Equal(t, uint8(2), seg.Sections[2].Version)
	require.Equal(t, uint16(2), seg.Sections[2].Events[0].EventID)
}
