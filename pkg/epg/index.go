// Copyright 2024 tsepg project contributors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package epg

import "time"

// Index is the top-level ServiceKey -> Schedule mapping. It is
// single-owner: only the Collection Coordinator ever mutates it.
type Index struct {
	schedules map[ServiceKey]*Schedule
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{schedules: make(map[ServiceKey]*Schedule)}
}

// Len returns the number of schedules currently held.
func (idx *Index) Len() int { return len(idx.schedules) }

// Get returns the schedule for key, if any.
func (idx *Index) Get(key ServiceKey) (*Schedule, bool) {
	s, ok := idx.schedules[key]
	return s, ok
}

// Keys returns every ServiceKey currently held, in no particular order.
func (idx *Index) Keys() []ServiceKey {
	keys := make([]ServiceKey, 0, len(idx.schedules))
	for k := range idx.schedules {
		keys = append(keys, k)
	}
	return keys
}

// Each calls fn for every Schedule, in map iteration order. Flattener
// and Snapshot callers rely only on "every schedule visited once", not
// on a particular order.
func (idx *Index) Each(fn func(ServiceKey, *Schedule)) {
	for k, s := range idx.schedules {
		fn(k, s)
	}
}

// PrepareSchedules implements §4.6 step 3: for every observed service,
// rescue overnight events from any schedule that was last updated
// before today's midnight, then touch or create its Schedule; finally
// reap every schedule whose key was not observed.
//
// It must be called once per pass, after service discovery and before
// any section is written.
func (idx *Index) PrepareSchedules(services []Service, now time.Time) {
	midnight := Midnight(now)
	observed := make(map[ServiceKey]struct{}, len(services))

	for _, svc := range services {
		key := svc.Key
		observed[key] = struct{}{}
		sched, ok := idx.schedules[key]
		if !ok {
			idx.schedules[key] = NewSchedule(svc, now)
			continue
		}
		if sched.UpdatedAt.Before(midnight) {
			sched.SaveOvernightEvents(midnight)
		}
		sched.Service = svc
		sched.UpdatedAt = now
	}

	for key := range idx.schedules {
		if _, ok := observed[key]; !ok {
			delete(idx.schedules, key)
		}
	}
}
