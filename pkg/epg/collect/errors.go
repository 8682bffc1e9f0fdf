// Copyright 2024 tsepg project contributors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package collect

import "errors"

// ErrTransientCollect marks a pass-aborting failure that reschedules
// at the 5-minute backoff: tuner-open failure, helper spawn failure,
// or a malformed section line. A corrupt section stream indicates a
// broken helper, so there is no partial rollback — the single-owner
// Index just starts the next pass; stale sections are harmless and
// get overwritten or reaped.
var ErrTransientCollect = errors.New("transient collection error")

// ErrCacheLoad marks a snapshot load failure at startup. It is logged
// and processing continues with an empty Index.
var ErrCacheLoad = errors.New("cache load error")

// ErrCacheSave marks a snapshot save failure after collection. It is
// treated as ErrTransientCollect: publish is skipped and the pass
// reschedules at the 5-minute backoff.
var ErrCacheSave = errors.New("cache save error")

// ErrFatalConfig marks an invalid helper command template. It
// surfaces at startup and prevents the Coordinator from starting.
var ErrFatalConfig = errors.New("fatal configuration error")
