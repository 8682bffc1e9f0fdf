// Copyright 2024 tsepg project contributors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package epg

import "github.com/asticode/go-astits"

// descriptorTagName maps a DVB/ARIB descriptor tag byte to the
// DescriptorKind the Section Codec expects in the JSON wire format.
// The four tags shared with DVB-SI are taken from astits's own
// exported constants; AudioComponent (0xC4) is an ARIB STD-B10
// extension with no DVB-SI equivalent, so it is not in astits.
var descriptorTagName = map[uint8]DescriptorKind{
	astits.DescriptorTagShortEvent:    KindShortEvent,
	astits.DescriptorTagComponent:     KindComponent,
	astits.DescriptorTagContent:       KindContent,
	astits.DescriptorTagExtendedEvent: KindExtendedEvent,
	aribAudioComponentDescriptorTag:   KindAudioComponent,
}

const aribAudioComponentDescriptorTag uint8 = 0xC4

// DescriptorKindForTag reports the expected DescriptorKind for a raw
// descriptor tag byte, for debug logging and codec validation. It is
// not used to decode binary EIT data: collect_eits already emits the
// tagged-variant JSON form this package decodes directly.
func DescriptorKindForTag(tag uint8) (DescriptorKind, bool) {
	kind, ok := descriptorTagName[tag]
	return kind, ok
}
