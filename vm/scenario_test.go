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

// These are end-to-end scenario tests: assembler-text fixtures under
// testdata/, assembled and run through the real VM, rather than
// hand-encoded Instr slices. They live in vm_test (not vm) because asm
// imports vm; a test inside package vm can't also import asm.
package vm_test

import (
	"os"
	"testing"

	"github.com/JoeStrout/MS2Prototypes-sub000/asm"
	"github.com/JoeStrout/MS2Prototypes-sub000/gc"
	"github.com/JoeStrout/MS2Prototypes-sub000/ops"
	"github.com/JoeStrout/MS2Prototypes-sub000/value"
	"github.com/JoeStrout/MS2Prototypes-sub000/vm"
)

func runFixture(t *testing.T, path string) (value.Value, *gc.Heap) {
	t.Helper()
	src, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s): %v", path, err)
	}
	h := gc.New(1 << 20)
	a := asm.New(h)
	result, err := a.Assemble(string(src))
	if err != nil {
		t.Fatalf("Assemble(%s): %v", path, err)
	}
	m := vm.New(h, result.Funcs)
	got, err := m.Run(result.Main, nil)
	if err != nil {
		t.Fatalf("Run(%s): %v", path, err)
	}
	return got, h
}

func TestScenarioReverseAndJoin(t *testing.T) {
	got, h := runFixture(t, "testdata/reverse_and_join.txt")
	want := "dog lazy the over jumps fox brown quick The"
	if got := ops.ToString(h, got); got != want {
		t.Fatalf("reverse-and-join = %q, want %q", got, want)
	}
}

func TestScenarioLevenshtein(t *testing.T) {
	cases := []struct {
		fixture string
		want    int32
	}{
		{"testdata/levenshtein_kitten_sitting.txt", 3},
		{"testdata/levenshtein_hello_empty.txt", 5},
		{"testdata/levenshtein_identical.txt", 0},
	}
	for _, c := range cases {
		got, _ := runFixture(t, c.fixture)
		if !got.IsInt() || got.Int32() != c.want {
			t.Fatalf("%s = %#v, want int(%d)", c.fixture, got, c.want)
		}
	}
}

func TestScenarioNumbersRoundTrip(t *testing.T) {
	got, _ := runFixture(t, "testdata/numbers_roundtrip.txt")
	if !got.IsInt() || got.Int32() != 4325 {
		t.Fatalf("numbers round-trip = %#v, want int(4325)", got)
	}
}
