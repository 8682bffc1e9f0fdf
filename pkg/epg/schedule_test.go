// Copyright 2024 tsepg project contributors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package epg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testService() Service {
	return Service{
		Key:     NewServiceKey(1, 2, 3),
		Name:    "Test Service",
		Channel: Channel{Name: "ch1", Type: GR, TuningKey: "13"},
	}
}

func TestScheduleUpdateRoutesToTable(t *testing.T) {
	sched := NewSchedule(testService(), Now())
	sched.Update(EitSection{
		TableID: TableIDMin, SectionNumber: 0,
		LastSectionNumber: 7, SegmentLastSectionNumber: 7,
		Events: []EitEvent{{EventID: 1}},
	})
	require.NotNil(t, sched.Tables[0])
	require.NotNil(t, sched.Tables[0].Segments[0].Sections[0])
}

func TestScheduleSaveOvernightEventsStraddling(t *testing.T) {
	midnight := time.Date(2026, 8, 2, 0, 0, 0, 0, JST)
	sched := NewSchedule(testService(), midnight.Add(-time.Hour))
	sched.Update(EitSection{
		TableID: TableIDMin, SectionNumber: 0,
		LastSectionNumber: 7, SegmentLastSectionNumber: 7,
		Events: []EitEvent{
			{EventID: 1, StartTime: midnight.Add(-30 * time.Minute), Duration: time.Hour},
			{EventID: 2, StartTime: midnight.Add(time.Hour), Duration: time.Hour},
		},
	})

	sched.SaveOvernightEvents(midnight)
	require.Len(t, sched.OvernightEvents, 1)
	require.Equal(t, uint16(1), sched.OvernightEvents[0].EventID)
}

func TestScheduleSaveOvernightEventsNonStraddling(t *testing.T) {
	midnight := time.Date(2026, 8, 2, 0, 0, 0, 0, JST)
	sched := NewSchedule(testService(), midnight.Add(-time.Hour))
	sched.Update(EitSection{
		TableID: TableIDMin, SectionNumber: 0,
		LastSectionNumber: 7, SegmentLastSectionNumber: 7,
		Events: []EitEvent{
			{EventID: 1, StartTime: midnight.Add(time.Hour), Duration: time.Hour},
		},
	})

	sched.SaveOvernightEvents(midnight)
	require.Empty(t, sched.OvernightEvents)
}

func TestScheduleCollectProgramsFoldsOvernightBeforeTables(t *testing.T) {
	midnight := time.Date(2026, 8, 2, 0, 0, 0, 0, JST)
	sched := NewSchedule(testService(), midnight)
	overnightName := "stale"
	sched.OvernightEvents = []EitEvent{
		{
			EventID:   1,
			StartTime: midnight.Add(-30 * time.Minute),
			Duration:  time.Hour,
			Descriptors: []Descriptor{
				{Kind: KindShortEvent, ShortEvent: &ShortEventDescriptor{EventName: overnightName}},
			},
		},
	}
	freshName := "fresh"
	sched.Update(EitSection{
		TableID: TableIDMin, SectionNumber: 0,
		LastSectionNumber: 7, SegmentLastSectionNumber: 7,
		Events: []EitEvent{
			{
				EventID: 1, StartTime: midnight.Add(-30 * time.Minute), Duration: time.Hour,
				Descriptors: []Descriptor{
					{Kind: KindShortEvent, ShortEvent: &ShortEventDescriptor{EventName: freshName}},
				},
			},
		},
	})

	programs := make(map[ProgramKey]*Program)
	sched.CollectPrograms(programs)
	require.Len(t, programs, 1)
	for _, p := range programs {
		require.Equal(t, freshName, *p.Name)
	}
}
