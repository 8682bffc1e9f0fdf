// Copyright 2024 tsepg project contributors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package app

import "errors"

var errNoSnapshotYet = errors.New("no snapshot published yet")
