// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package rtvalue

import (
	"strings"

	"github.com/JoeStrout/MS2Prototypes-sub000/value"
)

const (
	mapInitialCap  = 8
	mapLoadFactor  = 0.75
	mapEmptySlot   = 0 // slot.state
	mapOccupied    = 1
	mapTombstone   = 2 // unused at rest: Delete re-chains instead, kept only
	                    // so the state type reads like a real tri-state if
	                    // a future caller needs it.
)

// HashFunc hashes a Value. Resolving heap strings/lists/maps to their
// structural hash requires heap access and the ops package's
// hashing, so ops supplies this: ops depends on rtvalue, and rtvalue
// importing ops would create an import cycle.
type HashFunc func(v value.Value) uint32

// EqualFunc reports structural equality of two Values, again
// supplied by ops since comparing heap strings requires resolving
// handles.
type EqualFunc func(a, b value.Value) bool

type mapSlot struct {
	key, val value.Value
	state    uint8
}

// Map is an open-addressed hash table keyed and valued by Value. It
// never uses tombstones: Delete works by removing the slot and
// re-inserting every entry in its probe chain, so lookups never have
// to skip over dead slots.
type Map struct {
	slots []mapSlot
	count int
	hash  HashFunc
	equal EqualFunc
}

// NewMap creates an empty map that uses hash and equal to compare
// keys.
func NewMap(hash HashFunc, equal EqualFunc) *Map {
	return &Map{
		slots: make([]mapSlot, mapInitialCap),
		hash:  hash,
		equal: equal,
	}
}

// ByteSize implements gc.Managed.
func (m *Map) ByteSize() int { return 24 + len(m.slots)*24 }

// Trace implements gc.Managed.
func (m *Map) Trace(mark func(value.Value)) {
	for _, s := range m.slots {
		if s.state == mapOccupied {
			mark(s.key)
			mark(s.val)
		}
	}
}

// Len returns the number of key/value pairs stored.
func (m *Map) Len() int { return m.count }

func (m *Map) probe(key value.Value) (idx int, found bool) {
	mask := len(m.slots) - 1
	idx = int(m.hash(key)) & mask
	for {
		s := &m.slots[idx]
		if s.state == mapEmptySlot {
			return idx, false
		}
		if s.state == mapOccupied && m.equal(s.key, key) {
			return idx, true
		}
		idx = (idx + 1) & mask
	}
}

// Get returns the value stored for key and whether it was present.
func (m *Map) Get(key value.Value) (value.Value, bool) {
	idx, found := m.probe(key)
	if !found {
		return value.Null(), false
	}
	return m.slots[idx].val, true
}

// HasKey reports whether key is present.
func (m *Map) HasKey(key value.Value) bool {
	_, found := m.probe(key)
	return found
}

// Set stores val under key, overwriting any existing entry.
func (m *Map) Set(key, val value.Value) {
	if float64(m.count+1) > float64(len(m.slots))*mapLoadFactor {
		m.grow()
	}
	idx, _ := m.probe(key)
	if m.slots[idx].state != mapOccupied {
		m.count++
	}
	m.slots[idx] = mapSlot{key: key, val: val, state: mapOccupied}
}

// Delete removes key if present. It clears the slot and then
// re-inserts every entry in the probe chain that followed it: that is
// the standard fix for open addressing without tombstones, since a
// bare gap would stop probing early for any other key whose chain ran
// through the deleted slot.
func (m *Map) Delete(key value.Value) bool {
	idx, found := m.probe(key)
	if !found {
		return false
	}
	mask := len(m.slots) - 1
	m.slots[idx] = mapSlot{}
	m.count--

	var displaced []mapSlot
	j := (idx + 1) & mask
	for m.slots[j].state == mapOccupied {
		displaced = append(displaced, m.slots[j])
		m.slots[j] = mapSlot{}
		m.count--
		j = (j + 1) & mask
	}
	for _, s := range displaced {
		m.Set(s.key, s.val)
	}
	return true
}

func (m *Map) grow() {
	old := m.slots
	m.slots = make([]mapSlot, len(old)*2)
	m.count = 0
	for _, s := range old {
		if s.state == mapOccupied {
			m.Set(s.key, s.val)
		}
	}
}

// Clear empties the map back to its initial capacity.
func (m *Map) Clear() {
	m.slots = make([]mapSlot, mapInitialCap)
	m.count = 0
}

// Copy returns an independent Map with the same entries.
func (m *Map) Copy() *Map {
	out := NewMap(m.hash, m.equal)
	for _, s := range m.slots {
		if s.state == mapOccupied {
			out.Set(s.key, s.val)
		}
	}
	return out
}

// Range calls f for every key/value pair. f must not mutate the map.
func (m *Map) Range(f func(key, val value.Value)) {
	for _, s := range m.slots {
		if s.state == mapOccupied {
			f(s.key, s.val)
		}
	}
}

// ToString renders the map as "{k1: v1, k2: v2}" using repr to format
// each key and value; repr is supplied by the caller (ops.Repr) since
// formatting a heap string or nested container requires heap access.
func (m *Map) ToString(repr func(value.Value) string) string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	m.Range(func(k, v value.Value) {
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(repr(k))
		b.WriteString(": ")
		b.WriteString(repr(v))
	})
	b.WriteByte('}')
	return b.String()
}
