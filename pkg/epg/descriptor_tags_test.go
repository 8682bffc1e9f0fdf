// Copyright 2024 tsepg project contributors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package epg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDescriptorKindForTag(t *testing.T) {
	kind, ok := DescriptorKindForTag(aribAudioComponentDescriptorTag)
	require.True(t, ok)
	require.Equal(t, KindAudioComponent, kind)

	_, ok = DescriptorKindForTag(0x00)
	require.False(t, ok)
}
