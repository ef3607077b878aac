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

package strstore

import "testing"

func heapAlloc(n int) []byte { return make([]byte, n) }

func TestByteLenCharLen(t *testing.T) {
	s := FromString(heapAlloc, "héllo") // 'é' is 2 bytes
	if s.ByteLen() != 6 {
		t.Fatalf("ByteLen = %d, want 6", s.ByteLen())
	}
	if s.CharLen() != 5 {
		t.Fatalf("CharLen = %d, want 5", s.CharLen())
	}
}

func TestHashZeroRewrittenToOne(t *testing.T) {
	// Extremely unlikely to matter in practice, but the contract is
	// that Hash() never returns the "unknown" sentinel.
	s := FromString(heapAlloc, "")
	if s.Hash() == 0 {
		t.Fatalf("Hash() returned the unknown sentinel 0")
	}
}

func TestEqualsAndCompare(t *testing.T) {
	a := FromString(heapAlloc, "abc")
	b := FromString(heapAlloc, "abc")
	c := FromString(heapAlloc, "abd")
	if !a.Equals(b) {
		t.Fatalf("equal strings reported unequal")
	}
	if a.Compare(c) >= 0 {
		t.Fatalf("Compare(abc, abd) = %d, want < 0", a.Compare(c))
	}
}

func TestEqualsFold(t *testing.T) {
	a := FromString(heapAlloc, "Hello")
	b := FromString(heapAlloc, "hello")
	if !a.EqualsFold(b) {
		t.Fatalf("EqualsFold did not match case-differing strings")
	}
}

func TestIndexOfFamily(t *testing.T) {
	s := FromString(heapAlloc, "the quick brown fox")
	needle := FromString(heapAlloc, "quick")
	if idx := s.IndexOf(needle, 0); idx != 4 {
		t.Fatalf("IndexOf = %d, want 4", idx)
	}
	if !s.Contains(needle) {
		t.Fatalf("Contains returned false")
	}
	if !s.StartsWith(FromString(heapAlloc, "the")) {
		t.Fatalf("StartsWith false negative")
	}
	if !s.EndsWith(FromString(heapAlloc, "fox")) {
		t.Fatalf("EndsWith false negative")
	}
}

func TestIndexOfWithMultiByteChars(t *testing.T) {
	s := FromString(heapAlloc, "ééabc") // "ééabc"
	needle := FromString(heapAlloc, "abc")
	if idx := s.IndexOf(needle, 0); idx != 2 {
		t.Fatalf("IndexOf = %d, want 2 (character index, not byte index)", idx)
	}
}

func TestSubstring(t *testing.T) {
	s := FromString(heapAlloc, "hello world")
	sub := s.Substring(heapAlloc, 6, 5)
	if sub.String() != "world" {
		t.Fatalf("Substring = %q, want %q", sub.String(), "world")
	}
}

func TestConcat(t *testing.T) {
	a := FromString(heapAlloc, "foo")
	b := FromString(heapAlloc, "bar")
	if got := a.Concat(heapAlloc, b).String(); got != "foobar" {
		t.Fatalf("Concat = %q, want %q", got, "foobar")
	}
}

func TestInsertRemoveReplaceChar(t *testing.T) {
	s := FromString(heapAlloc, "helo")
	ins := s.Insert(heapAlloc, 3, FromString(heapAlloc, "l"))
	if ins.String() != "hello" {
		t.Fatalf("Insert = %q, want %q", ins.String(), "hello")
	}
	rem := ins.Remove(heapAlloc, 2, 2)
	if rem.String() != "heo" {
		t.Fatalf("Remove = %q, want %q", rem.String(), "heo")
	}
	rep := s.ReplaceChar(heapAlloc, 1, 'a')
	if rep.String() != "halo" {
		t.Fatalf("ReplaceChar = %q, want %q", rep.String(), "halo")
	}
}

func TestToUpperToLowerASCIIOnly(t *testing.T) {
	s := FromString(heapAlloc, "Café") // "Café"
	if got := s.ToUpper(heapAlloc).String(); got != "CAFé" {
		t.Fatalf("ToUpper = %q, want %q", got, "CAFé")
	}
}

func TestTrimFamily(t *testing.T) {
	s := FromString(heapAlloc, "  \thi there\n ")
	if got := s.Trim(heapAlloc).String(); got != "hi there" {
		t.Fatalf("Trim = %q, want %q", got, "hi there")
	}
	if got := s.TrimStart(heapAlloc).String(); got != "hi there\n " {
		t.Fatalf("TrimStart = %q, want %q", got, "hi there\n ")
	}
}

func TestIsNullOrWhiteSpace(t *testing.T) {
	if !IsNullOrWhiteSpace(nil) {
		t.Fatalf("nil should count as null-or-whitespace")
	}
	if !IsNullOrWhiteSpace(FromString(heapAlloc, "   \t\n")) {
		t.Fatalf("all-whitespace string should count as null-or-whitespace")
	}
	if IsNullOrWhiteSpace(FromString(heapAlloc, "  x ")) {
		t.Fatalf("string with non-whitespace should not count as null-or-whitespace")
	}
}

func TestSplitByChar(t *testing.T) {
	s := FromString(heapAlloc, "a,b,,c")
	parts := s.SplitByChar(heapAlloc, ',')
	want := []string{"a", "b", "", "c"}
	if len(parts) != len(want) {
		t.Fatalf("split into %d parts, want %d", len(parts), len(want))
	}
	for i, p := range parts {
		if p.String() != want[i] {
			t.Fatalf("part %d = %q, want %q", i, p.String(), want[i])
		}
	}
}

func TestSplitByStringEmptySeparator(t *testing.T) {
	s := FromString(heapAlloc, "abc")
	parts := s.SplitByString(heapAlloc, FromString(heapAlloc, ""))
	if len(parts) != 3 {
		t.Fatalf("split by empty separator gave %d parts, want 3", len(parts))
	}
}
