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

// Package vm implements the register-based bytecode interpreter: a
// fixed-width 32-bit instruction encoding, call frames sliding over
// one shared value stack, and a dispatch loop that roots live
// registers with the garbage collector for the duration of execution.
package vm

import (
	"fmt"

	"github.com/dchest/siphash"

	"github.com/JoeStrout/MS2Prototypes-sub000/value"
)

// Op is a single bytecode operation.
type Op uint8

// The opcode set. Every instruction is a 32-bit word: one byte of Op
// followed either by three 8-bit register fields (A, B, C) or by one
// 8-bit register field (A) and a signed 16-bit immediate (BC), chosen
// per-opcode below.
// Fourteen opcodes, closed set: extensions go at the end so binary
// compatibility may be preserved. Anything not in this table (list and
// map construction, the bitwise and modulo operators, indexing) is not
// a dedicated instruction; it's reachable through OpCallF into a host
// routine installed in the function table, the same way a user-defined
// function is.
const (
	OpMove Op = iota
	OpLoadK
	OpLoadN
	OpAdd
	OpSub
	OpMult
	OpDiv
	// OpIfLt, OpIfEq, OpIfLe, and OpIfNe are fused compare-and-branch:
	// each tests R[A] against R[B] and, if the test holds, advances pc
	// by sign-extend(C). C is an 8-bit signed displacement, not the
	// 16-bit BC field JMP uses, so these branches only reach -128..+127
	// instructions.
	OpIfLt
	OpIfEq
	OpIfLe
	OpIfNe
	OpJmp
	OpCallF
	OpReturn
	opCount
)

var opNames = [opCount]string{
	OpMove: "MOVE", OpLoadK: "LOADK", OpLoadN: "LOADN",
	OpAdd: "ADD", OpSub: "SUB", OpMult: "MULT", OpDiv: "DIV",
	OpIfLt: "IFLT", OpIfEq: "IFEQ", OpIfLe: "IFLE", OpIfNe: "IFNE",
	OpJmp: "JMP", OpCallF: "CALLF", OpReturn: "RETURN",
}

func (o Op) String() string {
	if int(o) < len(opNames) && opNames[o] != "" {
		return opNames[o]
	}
	return fmt.Sprintf("OP(%d)", o)
}

// Instr is one decoded 32-bit instruction: op in bits 24-31, A in bits
// 16-23, and either (B in 8-15, C in 0-7) or a signed 16-bit BC in
// bits 0-15, depending on the opcode.
type Instr uint32

// Encode packs an op, A, B, C instruction.
func Encode(op Op, a, b, c uint8) Instr {
	return Instr(op)<<24 | Instr(a)<<16 | Instr(b)<<8 | Instr(c)
}

// EncodeBC packs an op, A, signed-16-bit-BC instruction, used for
// constant loads and jump offsets.
func EncodeBC(op Op, a uint8, bc int16) Instr {
	return Instr(op)<<24 | Instr(a)<<16 | Instr(uint16(bc))
}

func (i Instr) Op() Op   { return Op(i >> 24) }
func (i Instr) A() uint8 { return uint8(i >> 16) }
func (i Instr) B() uint8 { return uint8(i >> 8) }
func (i Instr) C() uint8 { return uint8(i) }
func (i Instr) BC() int16 {
	return int16(uint16(i))
}

// Proto is one compiled function: its code, the constant pool LOADN
// addresses into, and the number of registers a call frame for it
// needs.
type Proto struct {
	Name      string
	Code      []Instr
	Constants []value.Value
	NumParams uint8
	MaxRegs   uint16

	// Lines maps instruction index to source line number, populated by
	// the assembler, used only for diagnostics.
	Lines []int
}

// Fingerprint returns a keyed hash of the compiled function's Code,
// stable across two assemblies of the same source text. It exists so
// tooling (and tests) can cheaply tell whether a Proto's bytecode
// changed without a deep comparison of its Code slice. Constants are
// not hashed: two Protos that differ only in their constant pools
// have the same fingerprint.
func (p *Proto) Fingerprint(key [16]byte) uint64 {
	buf := make([]byte, 0, len(p.Code)*4)
	for _, instr := range p.Code {
		buf = append(buf, byte(instr), byte(instr>>8), byte(instr>>16), byte(instr>>24))
	}
	return siphash.Hash(
		uint64(key[0])|uint64(key[1])<<8|uint64(key[2])<<16|uint64(key[3])<<24|
			uint64(key[4])<<32|uint64(key[5])<<40|uint64(key[6])<<48|uint64(key[7])<<56,
		uint64(key[8])|uint64(key[9])<<8|uint64(key[10])<<16|uint64(key[11])<<24|
			uint64(key[12])<<32|uint64(key[13])<<40|uint64(key[14])<<48|uint64(key[15])<<56,
		buf,
	)
}
