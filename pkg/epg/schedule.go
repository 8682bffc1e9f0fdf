// Copyright 2024 tsepg project contributors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package epg

import (
	"time"
)

// Schedule is a per-service container of up to 32 tables plus the
// overnight-events sidecar. It is never mutated except through the
// Collection Coordinator.
type Schedule struct {
	Service         Service       `json:"service"`
	Tables          [32]*EpgTable `json:"tables"`
	OvernightEvents []EitEvent    `json:"overnightEvents"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// NewSchedule creates a fresh, empty Schedule for a just-discovered
// service.
func NewSchedule(svc Service, now time.Time) *Schedule {
	return &Schedule{Service: svc, UpdatedAt: now}
}

// Update obtains-or-creates the section's table and forwards the
// update to it.
func (s *Schedule) Update(section EitSection) {
	i := section.TableIndex()
	if s.Tables[i] == nil {
		s.Tables[i] = &EpgTable{}
	}
	s.Tables[i].Update(section)
}

// SaveOvernightEvents walks all 32 tables in order and atomically
// replaces OvernightEvents with every event straddling midnight. It
// must be called before any section write in the same pass, since the
// incoming sections will overwrite the very slots that carry
// yesterday's still-airing late-night programs.
func (s *Schedule) SaveOvernightEvents(midnight time.Time) {
	events := make([]EitEvent, 0)
	for _, t := range s.Tables {
		if t == nil {
			continue
		}
		events = t.CollectOvernightEvents(midnight, events)
	}
	s.OvernightEvents = events
}

// CollectPrograms folds OvernightEvents first (so that fresher section
// events with the same event ID supersede them), then every table in
// index order.
func (s *Schedule) CollectPrograms(programs map[ProgramKey]*Program) {
	sid, nid := s.Service.Key.SID(), s.Service.Key.NID()
	foldOvernightEvents(s.OvernightEvents, sid, nid, programs)
	for _, t := range s.Tables {
		if t == nil {
			continue
		}
		t.CollectPrograms(s.Service.Key, programs)
	}
}

func foldOvernightEvents(events []EitEvent, sid, nid uint16, programs map[ProgramKey]*Program) {
	for _, ev := range events {
		key := NewProgramKey(ev.EventID, sid, nid)
		p, ok := programs[key]
		if !ok {
			p = newProgram(ev.EventID, sid, nid)
			programs[key] = p
		}
		applyEvent(p, ev)
	}
}
