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

package vm

import (
	"fmt"

	"github.com/JoeStrout/MS2Prototypes-sub000/gc"
	"github.com/JoeStrout/MS2Prototypes-sub000/ops"
	"github.com/JoeStrout/MS2Prototypes-sub000/value"
)

// NativeFunc is a host routine installed into a function table slot.
// It runs like any other CALLF target except it never pushes a VM
// frame: it receives its arguments as a plain slice and returns a
// single result or a fatal error. This is how list/map construction,
// indexing, and the operators outside the opcode table (mod, the
// bitwise family, unary negation) are exposed to assembled code: spec
// keeps them out of the instruction encoding, so they're reachable
// only through CALLF into a routine like this one.
type NativeFunc func(h *gc.Heap, args []value.Value) (value.Value, error)

// FuncEntry is one function-table slot: either a compiled Proto or a
// native routine, never both.
type FuncEntry struct {
	Proto  *Proto
	Native NativeFunc
}

// FuncTable maps the 256 possible function indices a CALLF can name to
// their target. Index 0 is conventionally the entry point assembled
// from @main; native builtins occupy descending slots from 255.
type FuncTable [256]FuncEntry

// FatalError is returned by Run when the program cannot continue:
// a call to an unassigned function slot, a bad constant index, an
// unknown opcode, running past the end of a function, a call-stack
// overflow, an error from a native routine, or the max-cycle budget
// being exhausted. It is never used for
// ordinary dynamic-language error conditions (those don't exist in
// this language; a bad operation just produces null or a sentinel
// number, per the operator semantics in package ops).
type FatalError struct {
	Func string
	PC   int
	Msg  string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("vm: fatal error in %s at pc %d: %s", e.Func, e.PC, e.Msg)
}

type frame struct {
	proto *Proto
	pc    int
	base  int
}

// VM is one interpreter instance: its own register stack, its own
// call-frame stack, and a heap it shares with whatever runtime.Runtime
// constructed it.
type VM struct {
	Heap  *gc.Heap
	Funcs *FuncTable

	// MaxCycles caps the number of instructions Run will execute
	// before returning a FatalError; zero means unlimited. This is the
	// safe-point budget a host embedding the VM uses to bound a
	// runaway or adversarial script.
	MaxCycles int64

	// MaxFrames caps call-stack depth; exceeding it is a fatal
	// call-stack-overflow error rather than an unbounded Go stack
	// growth or a crash. Zero means DefaultMaxFrames.
	MaxFrames int

	// Trace, when true, writes one line per executed instruction to
	// Errorf: a supplemental single-step debugger absent from the
	// distilled bytecode contract but present in the original
	// implementation's developer tooling.
	Trace bool

	// Errorf receives diagnostics: trace lines when Trace is set, and
	// a dump of the failing frame when Run returns a FatalError.
	// Nil by default, so an unconfigured VM stays silent.
	Errorf func(format string, args ...any)

	regs   []value.Value
	frames []frame
	cycles int64
}

// DefaultMaxFrames is the call-stack depth limit a VM uses when
// MaxFrames is left at zero.
const DefaultMaxFrames = 4096

// New creates a VM over the given heap and function table.
func New(h *gc.Heap, funcs *FuncTable) *VM {
	return &VM{Heap: h, Funcs: funcs, regs: make([]value.Value, 0, 256), MaxFrames: DefaultMaxFrames}
}

// UsesGoto reports which dispatch flavor this VM is using, for
// diagnostics and parity with the external API surface. This
// implementation has exactly one dispatch loop (see exec):
// Go has no indirect-branch primitive, so the switch-based dispatch
// below is what a computed-goto table lowers to anyway, and it always
// reports false.
func (vm *VM) UsesGoto() bool { return false }

func (vm *VM) logf(format string, args ...any) {
	if vm.Errorf != nil {
		vm.Errorf(format, args...)
	}
}

// Run assembles no code itself: it executes the Proto at Funcs[fn]
// with the given arguments and returns its single result.
func (vm *VM) Run(fn uint8, args []value.Value) (value.Value, error) {
	proto := vm.Funcs[fn].Proto
	if proto == nil {
		return value.Null(), &FatalError{Func: "?", PC: 0, Msg: fmt.Sprintf("function slot %d is unassigned", fn)}
	}

	vm.Heap.PushRootSource(vm.markRegisters)
	defer vm.Heap.PopRootSource()

	vm.cycles = 0
	base := len(vm.regs)
	vm.growRegs(base, int(proto.MaxRegs))
	for i, a := range args {
		if i >= int(proto.MaxRegs) {
			break
		}
		vm.regs[base+i] = a
	}
	vm.frames = append(vm.frames, frame{proto: proto, base: base})

	result, err := vm.exec()

	vm.frames = vm.frames[:0]
	vm.regs = vm.regs[:base]
	return result, err
}

func (vm *VM) markRegisters(mark func(v *value.Value)) {
	for i := range vm.regs {
		mark(&vm.regs[i])
	}
}

func (vm *VM) growRegs(base, n int) {
	need := base + n
	for len(vm.regs) < need {
		vm.regs = append(vm.regs, value.Null())
	}
}

func (vm *VM) top() *frame { return &vm.frames[len(vm.frames)-1] }

func (vm *VM) reg(i uint8) *value.Value {
	return &vm.regs[vm.top().base+int(i)]
}

// exec runs the dispatch loop until the outermost frame returns or a
// fatal condition is hit. It is deliberately a single switch rather
// than computed goto: Go has no indirect-branch primitive, so the
// idiomatic equivalent of the source's dispatch table is a dense
// switch over Op, which the compiler turns into a jump table on its
// own when the case values are dense (they are, by construction of
// the Op iota block in proto.go).
func (vm *VM) exec() (value.Value, error) {
	for {
		fr := vm.top()
		if fr.pc >= len(fr.proto.Code) {
			return value.Null(), vm.fatal(fr, "fell off the end of the function without a RETURN")
		}
		instr := fr.proto.Code[fr.pc]

		if vm.MaxCycles > 0 {
			vm.cycles++
			if vm.cycles > vm.MaxCycles {
				return value.Null(), vm.fatal(fr, "max cycle budget exceeded")
			}
		}
		if vm.Trace {
			vm.logf("trace %s pc=%d %s", fr.proto.Name, fr.pc, instr.Op())
		}

		fr.pc++

		switch instr.Op() {
		case OpMove:
			*vm.reg(instr.A()) = *vm.reg(instr.B())

		case OpLoadK:
			*vm.reg(instr.A()) = value.Int(int32(instr.BC()))

		case OpLoadN:
			idx := int(uint16(instr.BC()))
			if idx >= len(fr.proto.Constants) {
				return value.Null(), vm.fatal(fr, fmt.Sprintf("constant index %d out of range", idx))
			}
			*vm.reg(instr.A()) = fr.proto.Constants[idx]

		case OpAdd:
			*vm.reg(instr.A()) = ops.Add(vm.Heap, *vm.reg(instr.B()), *vm.reg(instr.C()))
		case OpSub:
			*vm.reg(instr.A()) = ops.Sub(vm.Heap, *vm.reg(instr.B()), *vm.reg(instr.C()))
		case OpMult:
			*vm.reg(instr.A()) = ops.Mult(vm.Heap, *vm.reg(instr.B()), *vm.reg(instr.C()))
		case OpDiv:
			*vm.reg(instr.A()) = ops.Div(vm.Heap, *vm.reg(instr.B()), *vm.reg(instr.C()))

		case OpIfLt:
			if ops.Lt(vm.Heap, *vm.reg(instr.A()), *vm.reg(instr.B())) {
				fr.pc += int(int8(instr.C()))
			}
		case OpIfEq:
			if ops.Equal(vm.Heap, *vm.reg(instr.A()), *vm.reg(instr.B())) {
				fr.pc += int(int8(instr.C()))
			}
		case OpIfLe:
			if ops.Le(vm.Heap, *vm.reg(instr.A()), *vm.reg(instr.B())) {
				fr.pc += int(int8(instr.C()))
			}
		case OpIfNe:
			if !ops.Equal(vm.Heap, *vm.reg(instr.A()), *vm.reg(instr.B())) {
				fr.pc += int(int8(instr.C()))
			}

		case OpJmp:
			fr.pc += int(instr.BC())

		case OpCallF:
			pushed, err := vm.call(fr, instr)
			if err != nil {
				return value.Null(), err
			}
			if pushed {
				continue // vm.call pushed a new frame; don't re-fetch fr below
			}

		case OpReturn:
			result := *vm.reg(instr.A())
			vm.regs[fr.base] = result
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) == 0 {
				return result, nil
			}

		default:
			return value.Null(), vm.fatal(fr, fmt.Sprintf("unimplemented opcode %s", instr.Op()))
		}
	}
}

func boolValue(b bool) value.Value {
	if b {
		return value.Int(1)
	}
	return value.Int(0)
}

// call dispatches a CALLF: A is the register window base (also where
// the callee's arguments already sit and where its result lands), B
// is the argument count, C is the function-table slot. It reports
// whether it pushed a new VM frame, so exec knows whether to refetch
// the current frame before continuing.
func (vm *VM) call(fr *frame, instr Instr) (bool, error) {
	a := instr.A()
	nargs := int(instr.B())
	fnIdx := instr.C()
	entry := vm.Funcs[fnIdx]
	argBase := fr.base + int(a)

	if entry.Native != nil {
		args := make([]value.Value, nargs)
		copy(args, vm.regs[argBase:argBase+nargs])
		result, err := entry.Native(vm.Heap, args)
		if err != nil {
			return false, vm.fatal(fr, err.Error())
		}
		*vm.reg(a) = result
		return false, nil
	}

	callee := entry.Proto
	if callee == nil {
		return false, vm.fatal(fr, fmt.Sprintf("call to unassigned function slot %d", fnIdx))
	}

	max := vm.MaxFrames
	if max <= 0 {
		max = DefaultMaxFrames
	}
	if len(vm.frames) >= max {
		return false, vm.fatal(fr, "call stack overflow")
	}

	// The callee's register window slides over the caller's: R[0] of
	// the new frame is the same physical slot as R[A] of the caller,
	// so the argument window the caller already populated becomes the
	// callee's parameters with no copy.
	newBase := argBase
	vm.growRegs(newBase, int(callee.MaxRegs))
	vm.frames = append(vm.frames, frame{proto: callee, base: newBase})
	return true, nil
}

func (vm *VM) fatal(fr *frame, msg string) error {
	err := &FatalError{Func: fr.proto.Name, PC: fr.pc, Msg: msg}
	vm.logf("%s", err.Error())
	return err
}
