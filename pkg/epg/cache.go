// Copyright 2024 tsepg project contributors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package epg

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const cacheFileName = "schedules.json"

// cacheDocument is the single JSON object persisted at
// <cache_dir>/schedules.json. Keys are ServiceKey's 12-hex-digit
// string form, chosen over bare JSON numbers so the file stays
// readable when the key's top bits (NID) are small.
type cacheDocument map[ServiceKey]*Schedule

// LoadIndex loads the Schedule Index from <cacheDir>/schedules.json.
// A missing file or decode error is a CacheLoadError: callers should
// log it and continue with an empty Index.
func LoadIndex(cacheDir string) (*Index, error) {
	path := filepath.Join(cacheDir, cacheFileName)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var doc cacheDocument
	if err := json.NewDecoder(bufio.NewReader(f)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	idx := NewIndex()
	for key, sched := range doc {
		idx.schedules[key] = sched
	}
	return idx, nil
}

// SaveIndex serializes idx to <cacheDir>/schedules.json. This is a
// warm cache, not a system of record: a plain write-then-close is
// sufficient, no rename dance is required.
func SaveIndex(cacheDir string, idx *Index) error {
	path := filepath.Join(cacheDir, cacheFileName)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	doc := make(cacheDocument, idx.Len())
	idx.Each(func(key ServiceKey, sched *Schedule) {
		doc[key] = sched
	})

	w := bufio.NewWriter(f)
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return w.Flush()
}
