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
	"testing"

	"github.com/JoeStrout/MS2Prototypes-sub000/value"
)

// identityMap hashes/compares Values directly by bit pattern, good
// enough for exercising Map's own logic without pulling in ops.
func identityMap() *Map {
	return NewMap(
		func(v value.Value) uint32 { return uint32(v) ^ uint32(v>>32) },
		func(a, b value.Value) bool { return value.Identical(a, b) },
	)
}

func TestMapSetGet(t *testing.T) {
	m := identityMap()
	m.Set(value.Int(1), value.Int(100))
	m.Set(value.Int(2), value.Int(200))
	v, ok := m.Get(value.Int(1))
	if !ok || v.Int32() != 100 {
		t.Fatalf("Get(1) = (%v, %v), want (100, true)", v, ok)
	}
	if _, ok := m.Get(value.Int(3)); ok {
		t.Fatalf("Get(3) found a key that was never set")
	}
}

func TestMapOverwrite(t *testing.T) {
	m := identityMap()
	m.Set(value.Int(1), value.Int(100))
	m.Set(value.Int(1), value.Int(200))
	if m.Len() != 1 {
		t.Fatalf("Len = %d, want 1 after overwriting the same key", m.Len())
	}
	v, _ := m.Get(value.Int(1))
	if v.Int32() != 200 {
		t.Fatalf("Get(1) = %d after overwrite, want 200", v.Int32())
	}
}

func TestMapDeleteWithoutTombstones(t *testing.T) {
	m := identityMap()
	for i := int32(0); i < 20; i++ {
		m.Set(value.Int(i), value.Int(i*10))
	}
	if !m.Delete(value.Int(5)) {
		t.Fatalf("Delete(5) reported not found")
	}
	if m.HasKey(value.Int(5)) {
		t.Fatalf("key 5 still present after Delete")
	}
	for i := int32(0); i < 20; i++ {
		if i == 5 {
			continue
		}
		v, ok := m.Get(value.Int(i))
		if !ok || v.Int32() != i*10 {
			t.Fatalf("key %d lost after deleting an unrelated key (probe chain broke): got (%v, %v)", i, v, ok)
		}
	}
}

func TestMapGrowPreservesEntries(t *testing.T) {
	m := identityMap()
	const n = 100
	for i := int32(0); i < n; i++ {
		m.Set(value.Int(i), value.Int(i))
	}
	for i := int32(0); i < n; i++ {
		v, ok := m.Get(value.Int(i))
		if !ok || v.Int32() != i {
			t.Fatalf("key %d missing or wrong after growth: (%v, %v)", i, v, ok)
		}
	}
}

func TestMapClear(t *testing.T) {
	m := identityMap()
	m.Set(value.Int(1), value.Int(1))
	m.Clear()
	if m.Len() != 0 {
		t.Fatalf("Len after Clear = %d, want 0", m.Len())
	}
	if m.HasKey(value.Int(1)) {
		t.Fatalf("key survived Clear")
	}
}

func TestMapToString(t *testing.T) {
	m := identityMap()
	m.Set(value.Int(1), value.Int(2))
	repr := func(v value.Value) string { return v.GoString() }
	got := m.ToString(repr)
	want := "{int(1): int(2)}"
	if got != want {
		t.Fatalf("ToString = %q, want %q", got, want)
	}
}
