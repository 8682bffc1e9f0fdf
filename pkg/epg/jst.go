// Copyright 2024 tsepg project contributors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package epg

import "time"

// JST is the fixed +09:00 offset used for all instants in the Japanese
// EIT profile. There is no daylight saving in Japan.
var JST = time.FixedZone("JST", 9*60*60)

// Now returns the current time in JST.
func Now() time.Time {
	return time.Now().In(JST)
}

// Midnight returns 00:00:00 JST for the civil date that t falls on.
func Midnight(t time.Time) time.Time {
	t = t.In(JST)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, JST)
}

// NextMidnight returns the first midnight strictly after t.
func NextMidnight(t time.Time) time.Time {
	return Midnight(t).AddDate(0, 0, 1)
}
