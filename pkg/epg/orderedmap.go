// Copyright 2024 tsepg project contributors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package epg

import "encoding/json"

// OrderedStringMap preserves first-occurrence key order, as required
// for extended-event items. No third-party ordered-map library is
// present in the retrieved dependency pack (the Rust original used
// indexmap, which has no direct idiomatic Go counterpart among the
// examples' dependencies); this is a small, purpose-built stand-in.
type OrderedStringMap struct {
	keys   []string
	values map[string]string
}

// NewOrderedStringMap returns an empty OrderedStringMap.
func NewOrderedStringMap() *OrderedStringMap {
	return &OrderedStringMap{values: make(map[string]string)}
}

// Append adds key=value. If key was already present, its value is
// concatenated with a newline separator rather than dropped, so that
// ARIB extended-event items split across repeated keys (e.g. a long
// cast list) are not silently truncated.
func (m *OrderedStringMap) Append(key, value string) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
		m.values[key] = value
		return
	}
	m.values[key] = m.values[key] + "\n" + value
}

// Keys returns the keys in first-occurrence order.
func (m *OrderedStringMap) Keys() []string { return m.keys }

// Get returns the value stored for key.
func (m *OrderedStringMap) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Len returns the number of distinct keys.
func (m *OrderedStringMap) Len() int { return len(m.keys) }

type orderedStringMapEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (m *OrderedStringMap) MarshalJSON() ([]byte, error) {
	entries := make([]orderedStringMapEntry, 0, len(m.keys))
	for _, k := range m.keys {
		entries = append(entries, orderedStringMapEntry{Key: k, Value: m.values[k]})
	}
	return json.Marshal(entries)
}

func (m *OrderedStringMap) UnmarshalJSON(b []byte) error {
	var entries []orderedStringMapEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		return err
	}
	*m = *NewOrderedStringMap()
	for _, e := range entries {
		m.Append(e.Key, e.Value)
	}
	return nil
}
