// Copyright 2024 tsepg project contributors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package epg assembles a Japanese digital-TV Electronic Program Guide
// from EIT schedule sections. It has no knowledge of tuners, helper
// subprocesses, or cache files; callers feed it parsed sections and
// pull flattened snapshots back out.
package epg

import (
	"encoding/json"
	"fmt"
	"time"
)

// ChannelType is the broadcast band a Channel is tuned on.
type ChannelType int

const (
	GR ChannelType = iota
	BS
	CS
	SKY
)

func (c ChannelType) String() string {
	switch c {
	case GR:
		return "GR"
	case BS:
		return "BS"
	case CS:
		return "CS"
	case SKY:
		return "SKY"
	default:
		return fmt.Sprintf("ChannelType(%d)", int(c))
	}
}

// Channel describes one tunable broadcast channel as configured by the
// operator. It is immutable for the duration of a pass.
type Channel struct {
	Name              string
	Type              ChannelType
	TuningKey         string
	ExcludedServiceIDs map[uint16]struct{}
}

// MergeExcluded adds other's excluded service IDs into c's set.
func (c *Channel) MergeExcluded(other map[uint16]struct{}) {
	if c.ExcludedServiceIDs == nil {
		c.ExcludedServiceIDs = make(map[uint16]struct{}, len(other))
	}
	for id := range other {
		c.ExcludedServiceIDs[id] = struct{}{}
	}
}

// ExcludedServiceIDList returns the excluded service IDs in ascending
// order, for deterministic template rendering.
func (c *Channel) ExcludedServiceIDList() []uint16 {
	ids := make([]uint16, 0, len(c.ExcludedServiceIDs))
	for id := range c.ExcludedServiceIDs {
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}

// ServiceKey is the composite (original_network_id, transport_stream_id,
// service_id) triple packed into a 48-bit value, per spec.
type ServiceKey uint64

// NewServiceKey packs a (nid, tsid, sid) triple into a ServiceKey.
func NewServiceKey(nid, tsid, sid uint16) ServiceKey {
	return ServiceKey(uint64(nid)<<32 | uint64(tsid)<<16 | uint64(sid))
}

// NID returns the original network ID component.
func (k ServiceKey) NID() uint16 { return uint16(k >> 32 & 0xFFFF) }

// TSID returns the transport stream ID component.
func (k ServiceKey) TSID() uint16 { return uint16(k >> 16 & 0xFFFF) }

// SID returns the service ID component.
func (k ServiceKey) SID() uint16 { return uint16(k & 0xFFFF) }

// String renders the key as 12 hex digits, per spec.
func (k ServiceKey) String() string {
	return fmt.Sprintf("%012X", uint64(k))
}

func (k ServiceKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ServiceKey) UnmarshalText(b []byte) error {
	var v uint64
	_, err := fmt.Sscanf(string(b), "%012X", &v)
	if err != nil {
		return fmt.Errorf("parse ServiceKey %q: %w", b, err)
	}
	*k = ServiceKey(v)
	return nil
}

// ProgramKey is a stable composite of (event_id, service_id,
// original_network_id), unique under the assumption of one active
// service per (nid, sid).
type ProgramKey uint64

// NewProgramKey builds a ProgramKey from an event ID and its owning
// service's (sid, nid).
func NewProgramKey(eid, sid, nid uint16) ProgramKey {
	return ProgramKey(uint64(eid)<<32 | uint64(sid)<<16 | uint64(nid))
}

func (k ProgramKey) String() string {
	return fmt.Sprintf("%016X", uint64(k))
}

// Service is a broadcast service discovered by the scan_services helper.
type Service struct {
	Key                ServiceKey
	ServiceType        uint16
	LogoID             int16
	RemoteControlKeyID uint16
	Name               string
	Channel            Channel
}

// ScheduleID returns the Service's composite schedule identity.
func (s Service) ScheduleID() ServiceKey { return s.Key }

// EitEvent is one scheduled program event carried in an EIT section.
type EitEvent struct {
	EventID     uint16       `json:"eventId"`
	StartTime   time.Time    `json:"startTime"`
	Duration    time.Duration `json:"duration"`
	Scrambled   bool         `json:"scrambled"`
	Descriptors []Descriptor `json:"descriptors"`
}

// EndTime returns StartTime + Duration.
func (e EitEvent) EndTime() time.Time { return e.StartTime.Add(e.Duration) }

// IsOvernightEvent reports whether e straddles midnight: it starts
// strictly before midnight and ends strictly after it.
func (e EitEvent) IsOvernightEvent(midnight time.Time) bool {
	return e.StartTime.Before(midnight) && e.EndTime().After(midnight)
}

// eitEventWire is the JSON-on-the-wire shape: duration in milliseconds,
// start time as an ISO-8601 instant in the JST offset.
type eitEventWire struct {
	EventID     uint16       `json:"eventId"`
	StartTime   time.Time    `json:"startTime"`
	DurationMS  int64        `json:"duration"`
	Scrambled   bool         `json:"scrambled"`
	Descriptors []Descriptor `json:"descriptors"`
}

func (e EitEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(eitEventWire{
		EventID:     e.EventID,
		StartTime:   e.StartTime.In(JST),
		DurationMS:  e.Duration.Milliseconds(),
		Scrambled:   e.Scrambled,
		Descriptors: e.Descriptors,
	})
}

func (e *EitEvent) UnmarshalJSON(b []byte) error {
	var w eitEventWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	e.EventID = w.EventID
	e.StartTime = w.StartTime.In(JST)
	e.Duration = time.Duration(w.DurationMS) * time.Millisecond
	e.Scrambled = w.Scrambled
	e.Descriptors = w.Descriptors
	return nil
}
