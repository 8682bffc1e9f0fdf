// Copyright 2024 tsepg project contributors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package epg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sectionJSON(tableID uint16, sectionNumber, lastSectionNumber, segmentLastSectionNumber uint8) EitSection {
	return EitSection{
		OriginalNetworkID:        1,
		TransportStreamID:        2,
		ServiceID:                3,
		TableID:                  tableID,
		SectionNumber:            sectionNumber,
		LastSectionNumber:        lastSectionNumber,
		SegmentLastSectionNumber: segmentLastSectionNumber,
		VersionNumber:            1,
	}
}

func TestParseSection(t *testing.T) {
	raw := []byte(`{
		"originalNetworkId": 1, "transportStreamId": 2, "serviceId": 3,
		"tableId": 80, "sectionNumber": 9, "lastSectionNumber": 15,
		"segmentLastSectionNumber": 9, "versionNumber": 2, "events": []
	}`)
	s, err := ParseSection(raw)
	require.NoError(t, err)
	require.Equal(t, uint16(80), s.TableID)
	require.True(t, s.InProfile())
	require.Equal(t, 0, s.TableIndex())
	require.Equal(t, 1, s.SegmentIndex())
	require.Equal(t, 1, s.SectionIndex())
	require.Equal(t, 1, s.LastSectionIndex())
}

func TestParseSectionInvalidJSON(t *testing.T) {
	_, err := ParseSection([]byte(`not json`))
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}

func TestInProfileBounds(t *testing.T) {
	require.True(t, sectionJSON(TableIDMin, 0, 0, 0).InProfile())
	require.True(t, sectionJSON(TableIDMax, 0, 0, 0).InProfile())
	require.False(t, sectionJSON(TableIDMin-1, 0, 0, 0).InProfile())
	require.False(t, sectionJSON(TableIDMax+1, 0, 0, 0).InProfile())
}

func TestScheduleKeyRoundtrip(t *testing.T) {
	s := sectionJSON(0x50, 0, 0, 0)
	key := s.ScheduleKey()
	require.Equal(t, uint16(1), key.NID())
	require.Equal(t, uint16(2), key.TSID())
	require.Equal(t, uint16(3), key.SID())
}
