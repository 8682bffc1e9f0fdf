// Copyright 2024 tsepg project contributors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package epg

import "time"

// VideoInfo is derived from a Component descriptor.
type VideoInfo struct {
	StreamContent uint8 `json:"streamContent"`
	ComponentType uint8 `json:"componentType"`
}

// AudioInfo is derived from an AudioComponent descriptor.
type AudioInfo struct {
	ComponentType uint8 `json:"componentType"`
	SamplingRate  uint8 `json:"samplingRate"`
}

// Genre is derived from one nibble quad of a Content descriptor.
type Genre struct {
	ContentNibbleLevel1 uint8 `json:"contentNibbleLevel1"`
	ContentNibbleLevel2 uint8 `json:"contentNibbleLevel2"`
	UserNibble1         uint8 `json:"userNibble1"`
	UserNibble2         uint8 `json:"userNibble2"`
}

func genreFromNibble(n ContentNibble) Genre {
	return Genre{
		ContentNibbleLevel1: n.ContentNibbleLevel1,
		ContentNibbleLevel2: n.ContentNibbleLevel2,
		UserNibble1:         n.UserNibble1,
		UserNibble2:         n.UserNibble2,
	}
}

// Program is the folded, flattened view of every EitEvent that has
// carried a given ProgramKey across the sections seen so far. Missing
// descriptors leave a field at its last-set value; nothing is ever
// cleared by a later event unless that event carries a descriptor of
// the same kind.
type Program struct {
	EventID     uint16           `json:"eventId"`
	ServiceID   uint16           `json:"serviceId"`
	NetworkID   uint16           `json:"networkId"`
	StartAt     time.Time        `json:"startAt"`
	Duration    time.Duration    `json:"duration"`
	IsFree      bool             `json:"isFree"`
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Video       *VideoInfo       `json:"video,omitempty"`
	Audio       *AudioInfo       `json:"audio,omitempty"`
	Genres      []Genre          `json:"genres,omitempty"`
	Extended    *OrderedStringMap `json:"extended,omitempty"`
}

func newProgram(eid, sid, nid uint16) *Program {
	return &Program{EventID: eid, ServiceID: sid, NetworkID: nid}
}

// foldEvents applies §4.3's update rule for every event in events,
// obtaining-or-creating the Program entry in programs and overwriting
// its fields in descriptor order, later events in traversal order
// winning when the same ProgramKey recurs.
func foldEvents(events []EitEvent, sched ServiceKey, programs map[ProgramKey]*Program) {
	sid, nid := sched.SID(), sched.NID()
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

func applyEvent(p *Program, ev EitEvent) {
	p.StartAt = ev.StartTime
	p.Duration = ev.Duration
	p.IsFree = !ev.Scrambled
	for _, d := range ev.Descriptors {
		switch d.Kind {
		case KindShortEvent:
			if d.ShortEvent != nil {
				name := d.ShortEvent.EventName
				text := d.ShortEvent.Text
				p.Name = &name
				p.Description = &text
			}
		case KindComponent:
			if d.Component != nil {
				p.Video = &VideoInfo{
					StreamContent: d.Component.StreamContent,
					ComponentType: d.Component.ComponentType,
				}
			}
		case KindAudioComponent:
			if d.AudioComponent != nil {
				p.Audio = &AudioInfo{
					ComponentType: d.AudioComponent.ComponentType,
					SamplingRate:  d.AudioComponent.SamplingRate,
				}
			}
		case KindContent:
			if d.Content != nil {
				genres := make([]Genre, 0, len(d.Content.Nibbles))
				for _, n := range d.Content.Nibbles {
					genres = append(genres, genreFromNibble(n))
				}
				p.Genres = genres
			}
		case KindExtendedEvent:
			if d.ExtendedEvent != nil {
				m := NewOrderedStringMap()
				for _, item := range d.ExtendedEvent.Items {
					m.Append(item.Key, item.Value)
				}
				p.Extended = m
			}
		}
	}
}
