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

package strpool

import (
	"testing"
)

func heapAlloc(n int) []byte { return make([]byte, n) }

func TestInternStringDedups(t *testing.T) {
	p := New(heapAlloc)
	a := p.InternString("hello")
	b := p.InternString("hello")
	if a != b {
		t.Fatalf("same string interned twice got different indices: %d vs %d", a, b)
	}
	c := p.InternString("world")
	if c == a {
		t.Fatalf("distinct strings collided to the same index")
	}
}

func TestEmptyStringIsIndexZero(t *testing.T) {
	p := New(heapAlloc)
	if idx := p.InternString(""); idx != 0 {
		t.Fatalf("empty string interned at %d, want 0", idx)
	}
}

func TestFindReportsMissing(t *testing.T) {
	p := New(heapAlloc)
	p.InternString("present")
	if _, ok := p.Find("absent"); ok {
		t.Fatalf("Find reported a string that was never interned")
	}
	if idx, ok := p.Find("present"); !ok || p.GetStorage(idx).String() != "present" {
		t.Fatalf("Find did not recover the interned string")
	}
}

func TestPoolSetIsolatesPoolNumbers(t *testing.T) {
	set := NewSet(heapAlloc)
	a := set.Pool(0).InternString("x")
	b := set.Pool(1).InternString("x")
	if set.Pool(0) == set.Pool(1) {
		t.Fatalf("distinct pool numbers shared a Pool instance")
	}
	_ = a
	_ = b
}

func TestClearInvalidatesEntries(t *testing.T) {
	p := New(heapAlloc)
	p.InternString("keep-me-gone")
	p.Clear()
	if p.Len() != 1 {
		t.Fatalf("Len after Clear = %d, want 1 (just the empty string)", p.Len())
	}
	if _, ok := p.Find("keep-me-gone"); ok {
		t.Fatalf("Find located a string after Clear")
	}
}
