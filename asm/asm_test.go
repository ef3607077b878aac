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

package asm

import (
	"testing"

	"github.com/JoeStrout/MS2Prototypes-sub000/gc"
	"github.com/JoeStrout/MS2Prototypes-sub000/ops"
	"github.com/JoeStrout/MS2Prototypes-sub000/vm"
)

const fibSource = `
@main:
    LOAD r1, 30
    CALLF r1, fib, 1
    RETURN r1

@fib:
    LOAD r1, 1
    IFLE r0, r1, baseCase
    SUB r2, r0, r1
    CALLF r2, fib, 1
    SUB r3, r0, r1
    SUB r3, r3, r1
    CALLF r3, fib, 1
    ADD r4, r2, r3
    RETURN r4
baseCase:
    RETURN r0
`

func TestAssembleAndRunFib(t *testing.T) {
	h := gc.New(1 << 20)
	a := New(h)
	result, err := a.Assemble(fibSource)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	m := vm.New(h, result.Funcs)
	got, err := m.Run(result.Main, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !got.IsInt() || got.Int32() != 832040 {
		t.Fatalf("fib(30) via assembled source = %#v, want int(832040)", got)
	}
}

const concatSource = `
@main:
    LOAD r0, "Hello"
    LOAD r1, " world"
    ADD r2, r0, r1
    RETURN r2
`

func TestAssembleStringConcat(t *testing.T) {
	h := gc.New(1 << 20)
	a := New(h)
	result, err := a.Assemble(concatSource)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	m := vm.New(h, result.Funcs)
	got, err := m.Run(result.Main, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := ops.ToString(h, got); got != "Hello world" {
		t.Fatalf("got %q, want %q", got, "Hello world")
	}
}

func TestAssembleMissingMainIsAssemblyError(t *testing.T) {
	h := gc.New(1 << 16)
	a := New(h)
	_, err := a.Assemble("@foo:\n  RETURN r0\n")
	if _, ok := err.(*AssemblyError); !ok {
		t.Fatalf("expected *AssemblyError for missing @main, got %T (%v)", err, err)
	}
}

func TestAssembleUnresolvedCallIsResolveError(t *testing.T) {
	h := gc.New(1 << 16)
	a := New(h)
	_, err := a.Assemble("@main:\n  CALLF r0, nosuchfunc, 0\n  RETURN r0\n")
	if _, ok := err.(*ResolveError); !ok {
		t.Fatalf("expected *ResolveError for an unknown function name, got %T (%v)", err, err)
	}
}

func TestAssembleCachesIdenticalSource(t *testing.T) {
	h := gc.New(1 << 16)
	a := New(h)
	r1, err := a.Assemble(concatSource)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	r2, err := a.Assemble(concatSource)
	if err != nil {
		t.Fatalf("Assemble (second time): %v", err)
	}
	if r1 != r2 {
		t.Fatalf("identical source did not hit the content-addressed cache")
	}
}

func TestAssembleIntegerOverflowPromotion(t *testing.T) {
	h := gc.New(1 << 16)
	a := New(h)
	result, err := a.Assemble(`
@main:
    LOAD r0, 2147483647
    LOAD r1, 1
    ADD r2, r0, r1
    RETURN r2
`)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	m := vm.New(h, result.Funcs)
	got, err := m.Run(result.Main, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !got.IsDouble() || got.Float64() != 2147483648.0 {
		t.Fatalf("got %#v, want double(2147483648.0)", got)
	}
}

func TestAssembleHexAndOctalIntegerLiterals(t *testing.T) {
	h := gc.New(1 << 16)
	a := New(h)
	result, err := a.Assemble(`
@main:
    LOAD r0, 0x10
    LOAD r1, 010
    ADD r2, r0, r1
    RETURN r2
`)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	m := vm.New(h, result.Funcs)
	got, err := m.Run(result.Main, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// 0x10 = 16, legacy-octal 010 = 8, so the sum is 24.
	if !got.IsInt() || got.Int32() != 24 {
		t.Fatalf("got %#v, want int(24) (0x10 + 010)", got)
	}
}

func TestAssembleOutOfRangeListSetIsNoOp(t *testing.T) {
	h := gc.New(1 << 16)
	a := New(h)
	result, err := a.Assemble(`
@main:
    CALLF r0, list_new, 0
    LOAD r1, 0
    LOAD r2, 42
    MOVE r5, r0
    MOVE r6, r1
    MOVE r7, r2
    CALLF r5, list_set, 3
    MOVE r8, r0
    CALLF r8, list_len, 1
    RETURN r8
`)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	m := vm.New(h, result.Funcs)
	got, err := m.Run(result.Main, nil)
	if err != nil {
		t.Fatalf("Run: %v (out-of-range list_set must be a soft no-op, not fatal)", err)
	}
	// list_set on an empty list is out of range: a no-op by spec, so
	// the list's length stays 0.
	if !got.IsInt() || got.Int32() != 0 {
		t.Fatalf("got %#v, want int(0)", got)
	}
}
