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

// Package asm implements the line-oriented text assembler: it turns
// the human-readable instruction listing described in the assembly
// text format into a vm.FuncTable ready to execute.
package asm

import "fmt"

// AssemblyError reports a syntax problem: a malformed instruction
// line, an unknown opcode, a register out of the 0-255 range, and so
// on. It carries the 1-based source line it came from, or 0 for a
// problem with the listing as a whole (no @main function).
type AssemblyError struct {
	Line int
	Msg  string
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("asm: line %d: %s", e.Line, e.Msg)
}

// ResolveError reports a name that never resolved: a JMP or IF* branch
// target that doesn't name a label in the enclosing function, or a
// CALLF that doesn't name a function declared anywhere in the source.
type ResolveError struct {
	Line int
	Name string
	Kind string // "label" or "function"
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("asm: line %d: unresolved %s %q", e.Line, e.Kind, e.Name)
}
