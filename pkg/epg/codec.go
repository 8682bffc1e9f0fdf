// Copyright 2024 tsepg project contributors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package epg

import (
	"encoding/json"
	"fmt"
	"time"
)

// TableIDMin and TableIDMax bound the Japanese EIT "schedule" table
// range: 0x50..0x6F inclusive, 32 tables of 8 sections per segment.
const (
	TableIDMin uint16 = 0x50
	TableIDMax uint16 = 0x6F
)

// ParseError reports that a raw collect_eits line could not be decoded
// into an EitSection.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse EIT section: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// EitSection is one self-contained EIT section as emitted by the
// collect_eits helper, one JSON object per line.
type EitSection struct {
	OriginalNetworkID        uint16     `json:"originalNetworkId"`
	TransportStreamID        uint16     `json:"transportStreamId"`
	ServiceID                uint16     `json:"serviceId"`
	TableID                  uint16     `json:"tableId"`
	SectionNumber            uint8      `json:"sectionNumber"`
	LastSectionNumber        uint8      `json:"lastSectionNumber"`
	SegmentLastSectionNumber uint8      `json:"segmentLastSectionNumber"`
	VersionNumber            uint8      `json:"versionNumber"`
	Events                   []EitEvent `json:"events"`
}

// ParseSection decodes one collect_eits output line into an EitSection.
func ParseSection(line []byte) (EitSection, error) {
	var s EitSection
	if err := json.Unmarshal(line, &s); err != nil {
		return EitSection{}, &ParseError{Line: string(line), Err: err}
	}
	return s, nil
}

// InProfile reports whether the section's table ID is within the
// Japanese EIT schedule profile (0x50..0x6F).
func (s EitSection) InProfile() bool {
	return s.TableID >= TableIDMin && s.TableID <= TableIDMax
}

// ScheduleKey returns the composite service identity this section
// belongs to.
func (s EitSection) ScheduleKey() ServiceKey {
	return NewServiceKey(s.OriginalNetworkID, s.TransportStreamID, s.ServiceID)
}

// TableIndex returns table_id - 0x50. Callers must check InProfile
// first; an out-of-profile table ID produces an out-of-range index.
func (s EitSection) TableIndex() int { return int(s.TableID - TableIDMin) }

// SegmentIndex returns section_number / 8.
func (s EitSection) SegmentIndex() int { return int(s.SectionNumber) / 8 }

// SectionIndex returns section_number mod 8.
func (s EitSection) SectionIndex() int { return int(s.SectionNumber) % 8 }

// LastSectionIndex returns segment_last_section_number mod 8.
func (s EitSection) LastSectionIndex() int { return int(s.SegmentLastSectionNumber) % 8 }

// EpgSection is the stored form of a section: the wire record's
// table/onid/tsid/sid/section-number fields are dropped, version and
// events are kept.
type EpgSection struct {
	Version uint8      `json:"version"`
	Events  []EitEvent `json:"events"`
}

func newEpgSection(s EitSection) EpgSection {
	return EpgSection{Version: s.VersionNumber, Events: s.Events}
}

// CollectOvernightEvents appends to acc every event in s that straddles
// midnight.
func (s EpgSection) CollectOvernightEvents(midnight time.Time, acc []EitEvent) []EitEvent {
	for _, e := range s.Events {
		if e.IsOvernightEvent(midnight) {
			acc = append(acc, e)
		}
	}
	return acc
}
