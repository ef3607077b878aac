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

// Package rtvalue implements the two heap container kinds, List and
// Map, on top of gc.Managed. Neither type allocates through a Heap
// directly: a runtime constructs one with NewList or NewMap, then calls
// heap.Allocate(list, list.ByteSize()) itself, the same way it would
// for a StringStorage.
package rtvalue

import (
	"github.com/JoeStrout/MS2Prototypes-sub000/value"
)

const listInitialCap = 8

// List is a growable, zero-indexed sequence of Values.
type List struct {
	items []value.Value
}

// NewList creates an empty list with room for listInitialCap items
// before its first growth.
func NewList() *List {
	return &List{items: make([]value.Value, 0, listInitialCap)}
}

// NewListFromSlice creates a list that owns a copy of vs.
func NewListFromSlice(vs []value.Value) *List {
	items := make([]value.Value, len(vs), max(len(vs), listInitialCap))
	copy(items, vs)
	return &List{items: items}
}

// ByteSize implements gc.Managed.
func (l *List) ByteSize() int { return 24 + cap(l.items)*8 }

// Trace implements gc.Managed.
func (l *List) Trace(mark func(value.Value)) {
	for _, v := range l.items {
		mark(v)
	}
}

// Len returns the number of items in the list.
func (l *List) Len() int { return len(l.items) }

// Get returns the item at i. The caller must have checked bounds with
// Len; an out-of-range i panics, matching Go slice semantics.
func (l *List) Get(i int) value.Value { return l.items[i] }

// Set overwrites the item at i.
func (l *List) Set(i int, v value.Value) { l.items[i] = v }

// Push appends v to the end of the list, growing the backing array by
// doubling when needed.
func (l *List) Push(v value.Value) { l.items = append(l.items, v) }

// Pop removes and returns the last item. The caller must ensure the
// list is non-empty.
func (l *List) Pop() value.Value {
	n := len(l.items) - 1
	v := l.items[n]
	l.items[n] = value.Null() // drop the reference so it isn't kept alive spuriously
	l.items = l.items[:n]
	return v
}

// Insert splices v into the list before index i, shifting subsequent
// items up by one.
func (l *List) Insert(i int, v value.Value) {
	l.items = append(l.items, value.Null())
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = v
}

// Remove deletes the item at index i, shifting subsequent items down
// by one.
func (l *List) Remove(i int) {
	copy(l.items[i:], l.items[i+1:])
	l.items[len(l.items)-1] = value.Null()
	l.items = l.items[:len(l.items)-1]
}

// Clear empties the list without shrinking its backing array.
func (l *List) Clear() {
	for i := range l.items {
		l.items[i] = value.Null()
	}
	l.items = l.items[:0]
}

// Copy returns an independent List with the same items.
func (l *List) Copy() *List {
	return NewListFromSlice(l.items)
}

// Reverse reorders the list's items back-to-front, in place.
func (l *List) Reverse() {
	for i, j := 0, len(l.items)-1; i < j; i, j = i+1, j-1 {
		l.items[i], l.items[j] = l.items[j], l.items[i]
	}
}

// IndexOf returns the least index at or after start at which equal
// reports the list item as equal to v, or -1. equal is supplied by the
// caller (ops.Equal) since value_equal semantics for heap strings
// require resolving handles, and ops, which does that, imports
// rtvalue, so rtvalue cannot call it directly. A negative start is
// clamped to 0.
func (l *List) IndexOf(v value.Value, start int, equal EqualFunc) int {
	if start < 0 {
		start = 0
	}
	for i := start; i < len(l.items); i++ {
		if equal(l.items[i], v) {
			return i
		}
	}
	return -1
}

// Contains reports whether v occurs anywhere in the list.
func (l *List) Contains(v value.Value, equal EqualFunc) bool {
	return l.IndexOf(v, 0, equal) >= 0
}

// Items returns the live backing slice; callers must not retain it
// across an operation that might grow the list.
func (l *List) Items() []value.Value { return l.items }
