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

package value

import (
	"math"
	"testing"
)

func TestIntRoundTrip(t *testing.T) {
	for _, i := range []int32{0, 1, -1, math.MaxInt32, math.MinInt32, 42} {
		v := Int(i)
		if !v.IsInt() {
			t.Fatalf("Int(%d): IsInt() = false", i)
		}
		if got := v.Int32(); got != i {
			t.Errorf("Int(%d).Int32() = %d", i, got)
		}
	}
}

func TestDoubleRoundTrip(t *testing.T) {
	for _, d := range []float64{0, 1.5, -1.5, math.MaxFloat64, math.SmallestNonzeroFloat64} {
		v := Float(d)
		if !v.IsDouble() {
			t.Fatalf("Float(%g): IsDouble() = false", d)
		}
		if got := v.Float64(); got != d {
			t.Errorf("Float(%g).Float64() = %g", d, got)
		}
	}
}

func TestTypesAreDisjoint(t *testing.T) {
	vals := []Value{
		Null(),
		Int(0), Int(-1), Int(1000000),
		Float(0), Float(3.25), Float(-2.5),
		mustTiny(t, ""), mustTiny(t, "hi"), mustTiny(t, "héllo"[:4]),
		HeapString(7), List(3), Map(99),
	}
	for _, v := range vals {
		n := 0
		for _, b := range []bool{v.IsNull(), v.IsInt(), v.IsDouble(), v.IsTinyString(), v.IsHeapString(), v.IsList(), v.IsMap()} {
			if b {
				n++
			}
		}
		if n != 1 {
			t.Errorf("value %#v matches %d type tests, want exactly 1", v, n)
		}
	}
}

func mustTiny(t *testing.T, s string) Value {
	t.Helper()
	v, ok := TinyString(s)
	if !ok {
		t.Fatalf("TinyString(%q): too long", s)
	}
	return v
}

func TestTinyStringEqualityIsByteEquality(t *testing.T) {
	a := mustTiny(t, "abc")
	b := mustTiny(t, "abc")
	c := mustTiny(t, "abd")
	if a != b {
		t.Errorf("identical tiny strings compare unequal as words")
	}
	if a == c {
		t.Errorf("different tiny strings compare equal as words")
	}
	if string(a.TinyStringBytes()) != "abc" {
		t.Errorf("TinyStringBytes() = %q, want %q", a.TinyStringBytes(), "abc")
	}
}

func TestTinyStringTooLong(t *testing.T) {
	if _, ok := TinyString("123456"); ok {
		t.Errorf("TinyString of 6 bytes should fail")
	}
}

func TestHandleRoundTrip(t *testing.T) {
	h := Handle(0xABCDEF)
	if got := HeapString(h).Handle(); got != h {
		t.Errorf("HeapString handle round trip: got %d want %d", got, h)
	}
	if got := List(h).Handle(); got != h {
		t.Errorf("List handle round trip: got %d want %d", got, h)
	}
	if got := Map(h).Handle(); got != h {
		t.Errorf("Map handle round trip: got %d want %d", got, h)
	}
}
