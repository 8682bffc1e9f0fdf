// Copyright 2024 tsepg project contributors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package epg

import (
	"encoding/json"
	"fmt"
)

// DescriptorKind discriminates the tagged EitDescriptor variants.
type DescriptorKind string

const (
	KindShortEvent     DescriptorKind = "ShortEvent"
	KindComponent      DescriptorKind = "Component"
	KindAudioComponent DescriptorKind = "AudioComponent"
	KindContent        DescriptorKind = "Content"
	KindExtendedEvent  DescriptorKind = "ExtendedEvent"
)

// ShortEventDescriptor carries the program's display name and a short
// synopsis.
type ShortEventDescriptor struct {
	EventName string `json:"eventName"`
	Text      string `json:"text"`
}

// ComponentDescriptor identifies the video stream's content and type.
type ComponentDescriptor struct {
	StreamContent uint8 `json:"streamContent"`
	ComponentType uint8 `json:"componentType"`
}

// AudioComponentDescriptor identifies the audio stream's component type
// and sampling rate. This descriptor tag (0xC4) is an ARIB STD-B10
// extension beyond the DVB-SI descriptor set astits implements.
type AudioComponentDescriptor struct {
	ComponentType uint8 `json:"componentType"`
	SamplingRate  uint8 `json:"samplingRate"`
}

// ContentNibble is one (content, content, user, user) nibble quad from a
// content descriptor, used to build genre classifications.
type ContentNibble struct {
	ContentNibbleLevel1 uint8 `json:"contentNibbleLevel1"`
	ContentNibbleLevel2 uint8 `json:"contentNibbleLevel2"`
	UserNibble1         uint8 `json:"userNibble1"`
	UserNibble2         uint8 `json:"userNibble2"`
}

// ContentDescriptor carries the genre nibble list.
type ContentDescriptor struct {
	Nibbles []ContentNibble `json:"nibbles"`
}

// ExtendedEventItem is one (key, value) pair of an extended event
// descriptor. Order matters and duplicate keys are legal.
type ExtendedEventItem struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ExtendedEventDescriptor carries a free-form ordered list of
// key/value items, e.g. "出演者" -> cast list.
type ExtendedEventDescriptor struct {
	Items []ExtendedEventItem `json:"items"`
}

// Descriptor is a tagged union over the five EIT descriptor variants.
// The pointer field matching Kind carries the payload. Decoding checks
// only that Kind is one of the five variants; it does not check that
// the matching pointer is non-nil or that the others are nil.
type Descriptor struct {
	Kind           DescriptorKind
	ShortEvent     *ShortEventDescriptor
	Component      *ComponentDescriptor
	AudioComponent *AudioComponentDescriptor
	Content        *ContentDescriptor
	ExtendedEvent  *ExtendedEventDescriptor
}

type descriptorEnvelope struct {
	Type           DescriptorKind            `json:"type"`
	ShortEvent     *ShortEventDescriptor     `json:"shortEvent,omitempty"`
	Component      *ComponentDescriptor      `json:"component,omitempty"`
	AudioComponent *AudioComponentDescriptor `json:"audioComponent,omitempty"`
	Content        *ContentDescriptor        `json:"content,omitempty"`
	ExtendedEvent  *ExtendedEventDescriptor  `json:"extendedEvent,omitempty"`
}

func (d Descriptor) MarshalJSON() ([]byte, error) {
	return json.Marshal(descriptorEnvelope{
		Type:           d.Kind,
		ShortEvent:     d.ShortEvent,
		Component:      d.Component,
		AudioComponent: d.AudioComponent,
		Content:        d.Content,
		ExtendedEvent:  d.ExtendedEvent,
	})
}

func (d *Descriptor) UnmarshalJSON(b []byte) error {
	var e descriptorEnvelope
	if err := json.Unmarshal(b, &e); err != nil {
		return fmt.Errorf("decode descriptor: %w", err)
	}
	d.Kind = e.Type
	d.ShortEvent = e.ShortEvent
	d.Component = e.Component
	d.AudioComponent = e.AudioComponent
	d.Content = e.Content
	d.ExtendedEvent = e.ExtendedEvent
	switch d.Kind {
	case KindShortEvent, KindComponent, KindAudioComponent, KindContent, KindExtendedEvent:
		return nil
	default:
		return fmt.Errorf("unknown descriptor type %q", e.Type)
	}
}
