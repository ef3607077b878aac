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
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/exp/maps"

	"github.com/JoeStrout/MS2Prototypes-sub000/gc"
	"github.com/JoeStrout/MS2Prototypes-sub000/strpool"
	"github.com/JoeStrout/MS2Prototypes-sub000/strstore"
	"github.com/JoeStrout/MS2Prototypes-sub000/value"
	"github.com/JoeStrout/MS2Prototypes-sub000/vm"
)

// Result is everything assembling a source listing produces: a
// ready-to-run function table, the entry point's slot, and a lookup
// from declared name to slot (useful for tooling and error messages).
type Result struct {
	Funcs *vm.FuncTable
	Main  uint8
	Names map[string]uint8
}

// Assembler turns assembly text into a Result. It is stateful only in
// that it caches results by a content hash of the source text, so
// reassembling the same listing twice (a REPL re-running the same
// script, a test table with shared fixtures) skips the parse.
type Assembler struct {
	heap  *gc.Heap
	pool  *strpool.Pool
	cache map[[32]byte]*Result
}

// New creates an Assembler that allocates string constants on h.
func New(h *gc.Heap) *Assembler {
	return &Assembler{
		heap:  h,
		pool:  strpool.New(h.AllocBytes),
		cache: make(map[[32]byte]*Result),
	}
}

// Assemble parses source and returns the resulting function table. A
// source listing with no @main function is an AssemblyError.
func (a *Assembler) Assemble(source string) (*Result, error) {
	key := blake2b.Sum256([]byte(source))
	if cached, ok := a.cache[key]; ok {
		return cached, nil
	}

	funcs, order, err := splitFunctions(source)
	if err != nil {
		return nil, err
	}
	if _, ok := funcs["main"]; !ok {
		return nil, &AssemblyError{Msg: "no @main function declared"}
	}

	var table vm.FuncTable
	names := vm.InstallBuiltins(&table)
	names["main"] = 0
	slot := uint8(1)
	for _, name := range order {
		if name == "main" {
			continue
		}
		names[name] = slot
		slot++
	}

	for name, body := range funcs {
		proto, err := a.assembleFunction(name, body, names)
		if err != nil {
			return nil, err
		}
		table[names[name]] = vm.FuncEntry{Proto: proto}
	}

	result := &Result{Funcs: &table, Main: 0, Names: names}
	a.cache[key] = result
	return result, nil
}

type sourceLine struct {
	no   int
	text string
}

// splitFunctions breaks source into named bodies delimited by @name:
// headers, returning the bodies and the declaration order (used to
// assign function slots deterministically).
func splitFunctions(source string) (map[string][]sourceLine, []string, error) {
	funcs := make(map[string][]sourceLine)
	var order []string
	var current string
	haveFunc := false

	for i, raw := range strings.Split(source, "\n") {
		lineNo := i + 1
		line := stripComment(raw)
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "@") {
			if !strings.HasSuffix(trimmed, ":") {
				return nil, nil, &AssemblyError{Line: lineNo, Msg: "function header must end with ':'"}
			}
			name := strings.TrimSuffix(strings.TrimPrefix(trimmed, "@"), ":")
			if name == "" {
				return nil, nil, &AssemblyError{Line: lineNo, Msg: "empty function name"}
			}
			if _, exists := funcs[name]; exists {
				return nil, nil, &AssemblyError{Line: lineNo, Msg: fmt.Sprintf("function %q declared twice", name)}
			}
			funcs[name] = nil
			order = append(order, name)
			current = name
			haveFunc = true
			continue
		}
		if !haveFunc {
			return nil, nil, &AssemblyError{Line: lineNo, Msg: "instruction outside of any @function"}
		}
		funcs[current] = append(funcs[current], sourceLine{no: lineNo, text: trimmed})
	}
	return funcs, order, nil
}

func stripComment(s string) string {
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuote = !inQuote
		case ';', '#':
			if !inQuote {
				return s[:i]
			}
		}
	}
	return s
}

// assembleFunction lowers one function body to a vm.Proto. It runs
// two passes over the body: the first records where every label lands
// (an instruction index), the second emits instructions, resolving
// label and function-name operands against the tables built so far.
func (a *Assembler) assembleFunction(name string, body []sourceLine, funcNames map[string]uint8) (*vm.Proto, error) {
	labels := make(map[string]int)
	var instrLines []sourceLine
	for _, l := range body {
		if strings.HasSuffix(l.text, ":") && !strings.ContainsAny(l.text, " \t") {
			label := strings.TrimSuffix(l.text, ":")
			if label == "" {
				return nil, &AssemblyError{Line: l.no, Msg: "empty label"}
			}
			labels[label] = len(instrLines)
			continue
		}
		instrLines = append(instrLines, l)
	}

	fn := &functionAssembler{
		asm:       a,
		funcNames: funcNames,
		labels:    labels,
	}
	for _, l := range instrLines {
		if err := fn.emit(l); err != nil {
			return nil, err
		}
	}

	maxReg := fn.maxReg
	return &vm.Proto{
		Name:      name,
		Code:      fn.code,
		Constants: fn.constants,
		MaxRegs:   uint16(maxReg) + 1,
		Lines:     fn.lines,
	}, nil
}

type functionAssembler struct {
	asm       *Assembler
	funcNames map[string]uint8
	labels    map[string]int

	code      []vm.Instr
	constants []value.Value
	lines     []int
	maxReg    uint8
}

func (f *functionAssembler) touch(r uint8) {
	if r > f.maxReg {
		f.maxReg = r
	}
}

func (f *functionAssembler) addConst(v value.Value) int16 {
	f.constants = append(f.constants, v)
	return int16(len(f.constants) - 1)
}

func (f *functionAssembler) emit(l sourceLine) error {
	fields := splitOperands(l.text)
	if len(fields) == 0 {
		return nil
	}
	mnemonic := strings.ToUpper(fields[0])
	ops := fields[1:]

	reg := func(i int) (uint8, error) { return parseReg(l.no, ops, i) }

	var instr vm.Instr
	switch mnemonic {
	case "MOVE":
		a, err := reg(0)
		if err != nil {
			return err
		}
		b, err := reg(1)
		if err != nil {
			return err
		}
		f.touch(a)
		f.touch(b)
		instr = vm.Encode(vm.OpMove, a, b, 0)

	case "LOAD":
		a, err := reg(0)
		if err != nil {
			return err
		}
		f.touch(a)
		if len(ops) < 2 {
			return &AssemblyError{Line: l.no, Msg: "LOAD requires a value operand"}
		}
		return f.emitLoad(l, a, strings.TrimSpace(ops[1]))

	case "ADD", "SUB", "MULT", "DIV":
		a, err := reg(0)
		if err != nil {
			return err
		}
		b, err := reg(1)
		if err != nil {
			return err
		}
		c, err := reg(2)
		if err != nil {
			return err
		}
		f.touch(a)
		f.touch(b)
		f.touch(c)
		instr = vm.Encode(binOpcode(mnemonic), a, b, c)

	case "JMP":
		if len(ops) < 1 {
			return &AssemblyError{Line: l.no, Msg: "JMP requires a label"}
		}
		target, ok := f.labels[strings.TrimSpace(ops[0])]
		if !ok {
			return &ResolveError{Line: l.no, Name: ops[0], Kind: "label"}
		}
		instr = vm.EncodeBC(vm.OpJmp, 0, int16(target-(len(f.code)+1)))

	case "IFLT", "IFEQ", "IFLE", "IFNE":
		a, err := reg(0)
		if err != nil {
			return err
		}
		b, err := reg(1)
		if err != nil {
			return err
		}
		f.touch(a)
		f.touch(b)
		if len(ops) < 3 {
			return &AssemblyError{Line: l.no, Msg: mnemonic + " requires two registers and a label"}
		}
		target, ok := f.labels[strings.TrimSpace(ops[2])]
		if !ok {
			return &ResolveError{Line: l.no, Name: ops[2], Kind: "label"}
		}
		// C is an 8-bit signed displacement, not a 16-bit BC offset:
		// these fused compare-and-branch instructions only reach
		// -128..+127 instructions, unlike JMP.
		offset := target - (len(f.code) + 1)
		if offset < -128 || offset > 127 {
			return &AssemblyError{Line: l.no, Msg: fmt.Sprintf("%s branch offset %d out of 8-bit range", mnemonic, offset)}
		}
		instr = vm.Encode(ifOpcode(mnemonic), a, b, uint8(int8(offset)))

	case "CALLF":
		a, err := reg(0)
		if err != nil {
			return err
		}
		if len(ops) < 3 {
			return &AssemblyError{Line: l.no, Msg: "CALLF requires a register, a function name, and an argument count"}
		}
		fnIdx, ok := f.funcNames[strings.TrimSpace(ops[1])]
		if !ok {
			return &ResolveError{Line: l.no, Name: ops[1], Kind: "function"}
		}
		n, err := strconv.Atoi(strings.TrimSpace(ops[2]))
		if err != nil {
			return &AssemblyError{Line: l.no, Msg: "bad argument count: " + err.Error()}
		}
		f.touch(a)
		for i := 1; i < n; i++ {
			f.touch(a + uint8(i))
		}
		instr = vm.Encode(vm.OpCallF, a, uint8(n), fnIdx)

	case "RETURN":
		a, err := reg(0)
		if err != nil {
			return err
		}
		f.touch(a)
		instr = vm.Encode(vm.OpReturn, a, 0, 0)

	default:
		return &AssemblyError{Line: l.no, Msg: fmt.Sprintf("unknown opcode %q", fields[0])}
	}

	f.code = append(f.code, instr)
	f.lines = append(f.lines, l.no)
	return nil
}

// emitLoad lowers the LOAD pseudo-op. Small integers fit the
// immediate (OpLoadK); null, strings, doubles, and integers too wide
// for the immediate go through the constant pool (OpLoadN).
func (f *functionAssembler) emitLoad(l sourceLine, a uint8, operand string) error {
	switch {
	case operand == "null":
		idx := f.addConst(value.Null())
		f.code = append(f.code, vm.EncodeBC(vm.OpLoadN, a, idx))
	case strings.HasPrefix(operand, `"`):
		s, err := strconv.Unquote(operand)
		if err != nil {
			return &AssemblyError{Line: l.no, Msg: "bad string literal: " + err.Error()}
		}
		v := f.asm.internString(s)
		idx := f.addConst(v)
		f.code = append(f.code, vm.EncodeBC(vm.OpLoadN, a, idx))
	case strings.ContainsAny(operand, ".eE") && !isPureInt(operand):
		d, err := strconv.ParseFloat(operand, 64)
		if err != nil {
			return &AssemblyError{Line: l.no, Msg: "bad double literal: " + err.Error()}
		}
		idx := f.addConst(value.Float(d))
		f.code = append(f.code, vm.EncodeBC(vm.OpLoadN, a, idx))
	default:
		// Base 0 lets strconv auto-detect the 0x/0o/0b/0 prefixes
		// spec.md's assembly format accepts, falling back to decimal
		// when there's no prefix.
		n, err := strconv.ParseInt(operand, 0, 64)
		if err != nil {
			return &AssemblyError{Line: l.no, Msg: "bad integer literal: " + err.Error()}
		}
		if n >= -32768 && n <= 32767 {
			f.code = append(f.code, vm.EncodeBC(vm.OpLoadK, a, int16(n)))
		} else {
			idx := f.addConst(value.Int(int32(n)))
			f.code = append(f.code, vm.EncodeBC(vm.OpLoadN, a, idx))
		}
	}
	f.lines = append(f.lines, l.no)
	return nil
}

func isPureInt(s string) bool {
	_, err := strconv.ParseInt(s, 0, 64)
	return err == nil
}

// internString builds a Value for s: tiny-inline when it fits, a
// deduplicated heap string (via the assembler's own interning pool)
// otherwise.
func (a *Assembler) internString(s string) value.Value {
	if tiny, ok := value.TinyString(s); ok {
		return tiny
	}
	idx := a.pool.InternString(s)
	store := a.pool.GetStorage(idx)
	hd := a.heap.Allocate(store, store.ByteSize())
	return value.HeapString(hd)
}

func binOpcode(mnemonic string) vm.Op {
	switch mnemonic {
	case "ADD":
		return vm.OpAdd
	case "SUB":
		return vm.OpSub
	case "MULT":
		return vm.OpMult
	case "DIV":
		return vm.OpDiv
	}
	panic("asm: unreachable: " + mnemonic)
}

func ifOpcode(mnemonic string) vm.Op {
	switch mnemonic {
	case "IFLT":
		return vm.OpIfLt
	case "IFEQ":
		return vm.OpIfEq
	case "IFLE":
		return vm.OpIfLe
	case "IFNE":
		return vm.OpIfNe
	}
	panic("asm: unreachable: " + mnemonic)
}

func parseReg(lineNo int, ops []string, i int) (uint8, error) {
	if i >= len(ops) {
		return 0, &AssemblyError{Line: lineNo, Msg: "missing register operand"}
	}
	s := strings.TrimSpace(ops[i])
	if !strings.HasPrefix(s, "r") {
		return 0, &AssemblyError{Line: lineNo, Msg: fmt.Sprintf("expected register, got %q", s)}
	}
	n, err := strconv.Atoi(s[1:])
	if err != nil || n < 0 || n > 255 {
		return 0, &AssemblyError{Line: lineNo, Msg: fmt.Sprintf("bad register %q", s)}
	}
	return uint8(n), nil
}

// splitOperands tokenizes a line into its mnemonic and comma-separated
// operands, treating double-quoted spans as atomic so a string literal
// may contain commas or spaces.
func splitOperands(line string) []string {
	var fields []string
	var b strings.Builder
	inQuote := false
	flush := func() {
		s := strings.TrimSpace(b.String())
		if s != "" {
			fields = append(fields, s)
		}
		b.Reset()
	}
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			inQuote = !inQuote
			b.WriteByte(c)
		case !inQuote && (c == ',' || c == ' ' || c == '\t'):
			flush()
		default:
			b.WriteByte(c)
		}
	}
	flush()
	return fields
}

// FunctionNames returns every name in the function table, the
// source's declared functions and the installed builtins, in no
// particular order, for diagnostics (a -list-functions CLI flag, an error
// message naming what was actually available).
func (r *Result) FunctionNames() []string {
	return maps.Keys(r.Names)
}
