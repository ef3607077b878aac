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
	"strings"

	"github.com/JoeStrout/MS2Prototypes-sub000/gc"
	"github.com/JoeStrout/MS2Prototypes-sub000/ops"
	"github.com/JoeStrout/MS2Prototypes-sub000/rtvalue"
	"github.com/JoeStrout/MS2Prototypes-sub000/strstore"
	"github.com/JoeStrout/MS2Prototypes-sub000/value"
)

// builtinSlotFloor is the lowest function-table index InstallBuiltins
// will use; user functions and @main get the slots below it.
const builtinSlotFloor = 200

// InstallBuiltins installs the host routines into descending slots of
// funcs starting at 255, and returns the name each landed on so a
// caller assembling CALLF mnemonics can resolve them.
func InstallBuiltins(funcs *FuncTable) map[string]uint8 {
	table := []struct {
		name string
		fn   NativeFunc
	}{
		{"list_new", builtinListNew},
		{"list_get", builtinListGet},
		{"list_set", builtinListSet},
		{"list_push", builtinListPush},
		{"list_pop", builtinListPop},
		{"list_len", builtinListLen},
		{"list_index_of", builtinListIndexOf},
		{"list_contains", builtinListContains},
		{"list_insert", builtinListInsert},
		{"list_remove", builtinListRemove},
		{"list_clear", builtinListClear},
		{"list_copy", builtinListCopy},
		{"list_reverse", builtinListReverse},

		{"map_new", builtinMapNew},
		{"map_get", builtinMapGet},
		{"map_set", builtinMapSet},
		{"map_has_key", builtinMapHasKey},
		{"map_remove", builtinMapRemove},
		{"map_clear", builtinMapClear},
		{"map_copy", builtinMapCopy},
		{"map_len", builtinMapLen},

		{"value_neg", builtinValueNeg},
		{"value_mod", builtinValueMod},
		{"value_and", builtinValueAnd},
		{"value_or", builtinValueOr},
		{"value_xor", builtinValueXor},
		{"value_shl", builtinValueShl},
		{"value_shr", builtinValueShr},
		{"value_eq", builtinValueEq},
		{"value_lt", builtinValueLt},
		{"value_le", builtinValueLe},
		{"value_gt", builtinValueGt},
		{"value_ge", builtinValueGe},
		{"value_len", builtinValueLen},

		{"string_char_at", builtinStringCharAt},
		{"string_split", builtinStringSplit},
		{"string_join", builtinStringJoin},
		{"string_levenshtein", builtinStringLevenshtein},
		{"number_to_words", builtinNumberToWords},
		{"words_to_number", builtinWordsToNumber},
	}

	names := make(map[string]uint8, len(table))
	slot := 255
	for _, b := range table {
		if slot < builtinSlotFloor {
			panic("vm: too many builtins for the reserved slot range")
		}
		funcs[slot] = FuncEntry{Native: b.fn}
		names[b.name] = uint8(slot)
		slot--
	}
	return names
}

func arg(args []value.Value, i int) value.Value {
	if i < len(args) {
		return args[i]
	}
	return value.Null()
}

func asList(h *gc.Heap, v value.Value) (*rtvalue.List, bool) {
	if !v.IsList() {
		return nil, false
	}
	return h.MustResolve(v.Handle()).(*rtvalue.List), true
}

func asMap(h *gc.Heap, v value.Value) (*rtvalue.Map, bool) {
	if !v.IsMap() {
		return nil, false
	}
	return h.MustResolve(v.Handle()).(*rtvalue.Map), true
}

// internString builds a Value for s, inlining it as a tiny string
// when it fits and otherwise allocating it on the heap, the same rule
// package ops applies to the result of string concatenation.
func internString(h *gc.Heap, s string) value.Value {
	if tiny, ok := value.TinyString(s); ok {
		return tiny
	}
	store := strstore.FromString(h.AllocBytes, s)
	hd := h.Allocate(store, store.ByteSize())
	return value.HeapString(hd)
}

func builtinListNew(h *gc.Heap, args []value.Value) (value.Value, error) {
	l := rtvalue.NewList()
	hd := h.Allocate(l, l.ByteSize())
	return value.List(hd), nil
}

func builtinListGet(h *gc.Heap, args []value.Value) (value.Value, error) {
	l, ok := asList(h, arg(args, 0))
	if !ok {
		return value.Null(), fmt.Errorf("list_get: not a list")
	}
	i := int(ops.ToNumber(h, arg(args, 1)))
	if i < 0 || i >= l.Len() {
		// Out-of-range get is a soft outcome, not a fatal error: it
		// yields null, per spec.
		return value.Null(), nil
	}
	return l.Get(i), nil
}

func builtinListSet(h *gc.Heap, args []value.Value) (value.Value, error) {
	l, ok := asList(h, arg(args, 0))
	if !ok {
		return value.Null(), fmt.Errorf("list_set: not a list")
	}
	i := int(ops.ToNumber(h, arg(args, 1)))
	if i < 0 || i >= l.Len() {
		// Out-of-range set is a no-op, not a fatal error.
		return value.Null(), nil
	}
	l.Set(i, arg(args, 2))
	return value.Null(), nil
}

func builtinListPush(h *gc.Heap, args []value.Value) (value.Value, error) {
	l, ok := asList(h, arg(args, 0))
	if !ok {
		return value.Null(), fmt.Errorf("list_push: not a list")
	}
	l.Push(arg(args, 1))
	return value.Null(), nil
}

func builtinListPop(h *gc.Heap, args []value.Value) (value.Value, error) {
	l, ok := asList(h, arg(args, 0))
	if !ok {
		return value.Null(), fmt.Errorf("list_pop: not a list")
	}
	if l.Len() == 0 {
		// Popping an empty list is a soft outcome: null, per spec.
		return value.Null(), nil
	}
	return l.Pop(), nil
}

func builtinListLen(h *gc.Heap, args []value.Value) (value.Value, error) {
	l, ok := asList(h, arg(args, 0))
	if !ok {
		return value.Null(), fmt.Errorf("list_len: not a list")
	}
	return value.Int(int32(l.Len())), nil
}

func builtinListIndexOf(h *gc.Heap, args []value.Value) (value.Value, error) {
	l, ok := asList(h, arg(args, 0))
	if !ok {
		return value.Int(-1), nil
	}
	_, equal := ops.MapHashFuncs(h)
	start := int(ops.ToNumber(h, arg(args, 2)))
	return value.Int(int32(l.IndexOf(arg(args, 1), start, equal))), nil
}

func builtinListContains(h *gc.Heap, args []value.Value) (value.Value, error) {
	l, ok := asList(h, arg(args, 0))
	if !ok {
		return boolValue(false), nil
	}
	_, equal := ops.MapHashFuncs(h)
	return boolValue(l.Contains(arg(args, 1), equal)), nil
}

func builtinListInsert(h *gc.Heap, args []value.Value) (value.Value, error) {
	l, ok := asList(h, arg(args, 0))
	if !ok {
		return value.Null(), fmt.Errorf("list_insert: not a list")
	}
	i := int(ops.ToNumber(h, arg(args, 1)))
	if i < 0 || i > l.Len() {
		// Out-of-range insert is a no-op, not a fatal error.
		return value.Null(), nil
	}
	l.Insert(i, arg(args, 2))
	return value.Null(), nil
}

func builtinListRemove(h *gc.Heap, args []value.Value) (value.Value, error) {
	l, ok := asList(h, arg(args, 0))
	if !ok {
		return value.Null(), fmt.Errorf("list_remove: not a list")
	}
	i := int(ops.ToNumber(h, arg(args, 1)))
	if i < 0 || i >= l.Len() {
		// Out-of-range remove is a no-op, not a fatal error.
		return value.Null(), nil
	}
	l.Remove(i)
	return value.Null(), nil
}

func builtinListClear(h *gc.Heap, args []value.Value) (value.Value, error) {
	l, ok := asList(h, arg(args, 0))
	if !ok {
		return value.Null(), fmt.Errorf("list_clear: not a list")
	}
	l.Clear()
	return value.Null(), nil
}

func builtinListCopy(h *gc.Heap, args []value.Value) (value.Value, error) {
	l, ok := asList(h, arg(args, 0))
	if !ok {
		return value.Null(), fmt.Errorf("list_copy: not a list")
	}
	c := l.Copy()
	hd := h.Allocate(c, c.ByteSize())
	return value.List(hd), nil
}

// builtinListReverse reverses l in place and returns it, rather than a
// copy, matching the source's "reverse the resulting list in place".
func builtinListReverse(h *gc.Heap, args []value.Value) (value.Value, error) {
	l, ok := asList(h, arg(args, 0))
	if !ok {
		return value.Null(), fmt.Errorf("list_reverse: not a list")
	}
	l.Reverse()
	return arg(args, 0), nil
}

func builtinMapNew(h *gc.Heap, args []value.Value) (value.Value, error) {
	hash, equal := ops.MapHashFuncs(h)
	m := rtvalue.NewMap(hash, equal)
	hd := h.Allocate(m, m.ByteSize())
	return value.Map(hd), nil
}

func builtinMapGet(h *gc.Heap, args []value.Value) (value.Value, error) {
	m, ok := asMap(h, arg(args, 0))
	if !ok {
		return value.Null(), fmt.Errorf("map_get: not a map")
	}
	v, _ := m.Get(arg(args, 1))
	return v, nil
}

func builtinMapSet(h *gc.Heap, args []value.Value) (value.Value, error) {
	m, ok := asMap(h, arg(args, 0))
	if !ok {
		return value.Null(), fmt.Errorf("map_set: not a map")
	}
	m.Set(arg(args, 1), arg(args, 2))
	return value.Null(), nil
}

func builtinMapHasKey(h *gc.Heap, args []value.Value) (value.Value, error) {
	m, ok := asMap(h, arg(args, 0))
	if !ok {
		return boolValue(false), nil
	}
	return boolValue(m.HasKey(arg(args, 1))), nil
}

func builtinMapRemove(h *gc.Heap, args []value.Value) (value.Value, error) {
	m, ok := asMap(h, arg(args, 0))
	if !ok {
		return boolValue(false), nil
	}
	return boolValue(m.Delete(arg(args, 1))), nil
}

func builtinMapClear(h *gc.Heap, args []value.Value) (value.Value, error) {
	m, ok := asMap(h, arg(args, 0))
	if !ok {
		return value.Null(), fmt.Errorf("map_clear: not a map")
	}
	m.Clear()
	return value.Null(), nil
}

func builtinMapCopy(h *gc.Heap, args []value.Value) (value.Value, error) {
	m, ok := asMap(h, arg(args, 0))
	if !ok {
		return value.Null(), fmt.Errorf("map_copy: not a map")
	}
	c := m.Copy()
	hd := h.Allocate(c, c.ByteSize())
	return value.Map(hd), nil
}

func builtinMapLen(h *gc.Heap, args []value.Value) (value.Value, error) {
	m, ok := asMap(h, arg(args, 0))
	if !ok {
		return value.Null(), fmt.Errorf("map_len: not a map")
	}
	return value.Int(int32(m.Len())), nil
}

func builtinValueNeg(h *gc.Heap, args []value.Value) (value.Value, error) {
	return ops.Neg(h, arg(args, 0)), nil
}

func builtinValueMod(h *gc.Heap, args []value.Value) (value.Value, error) {
	return ops.Mod(h, arg(args, 0), arg(args, 1)), nil
}

func builtinValueAnd(h *gc.Heap, args []value.Value) (value.Value, error) {
	return ops.And(h, arg(args, 0), arg(args, 1)), nil
}

func builtinValueOr(h *gc.Heap, args []value.Value) (value.Value, error) {
	return ops.Or(h, arg(args, 0), arg(args, 1)), nil
}

func builtinValueXor(h *gc.Heap, args []value.Value) (value.Value, error) {
	return ops.Xor(h, arg(args, 0), arg(args, 1)), nil
}

func builtinValueShl(h *gc.Heap, args []value.Value) (value.Value, error) {
	return ops.Shl(h, arg(args, 0), arg(args, 1)), nil
}

func builtinValueShr(h *gc.Heap, args []value.Value) (value.Value, error) {
	return ops.Shr(h, arg(args, 0), arg(args, 1)), nil
}

func builtinValueEq(h *gc.Heap, args []value.Value) (value.Value, error) {
	return boolValue(ops.Equal(h, arg(args, 0), arg(args, 1))), nil
}

func builtinValueLt(h *gc.Heap, args []value.Value) (value.Value, error) {
	return boolValue(ops.Lt(h, arg(args, 0), arg(args, 1))), nil
}

func builtinValueLe(h *gc.Heap, args []value.Value) (value.Value, error) {
	return boolValue(ops.Le(h, arg(args, 0), arg(args, 1))), nil
}

func builtinValueGt(h *gc.Heap, args []value.Value) (value.Value, error) {
	return boolValue(ops.Gt(h, arg(args, 0), arg(args, 1))), nil
}

func builtinValueGe(h *gc.Heap, args []value.Value) (value.Value, error) {
	return boolValue(ops.Ge(h, arg(args, 0), arg(args, 1))), nil
}

func builtinValueLen(h *gc.Heap, args []value.Value) (value.Value, error) {
	v := arg(args, 0)
	switch {
	case v.IsList():
		l, _ := asList(h, v)
		return value.Int(int32(l.Len())), nil
	case v.IsMap():
		m, _ := asMap(h, v)
		return value.Int(int32(m.Len())), nil
	case v.IsString():
		return value.Int(int32(len([]rune(ops.ToString(h, v))))), nil
	}
	return value.Int(0), nil
}

func builtinStringCharAt(h *gc.Heap, args []value.Value) (value.Value, error) {
	s := ops.ToString(h, arg(args, 0))
	runes := []rune(s)
	i := int(ops.ToNumber(h, arg(args, 1)))
	if i < 0 || i >= len(runes) {
		return value.Null(), fmt.Errorf("string index %d out of range (len %d)", i, len(runes))
	}
	tiny, _ := value.TinyString(string(runes[i]))
	return tiny, nil
}

func builtinStringSplit(h *gc.Heap, args []value.Value) (value.Value, error) {
	s := ops.ToString(h, arg(args, 0))
	sep := ops.ToString(h, arg(args, 1))

	var parts []string
	if sep == "" {
		for _, r := range s {
			parts = append(parts, string(r))
		}
	} else {
		parts = strings.Split(s, sep)
	}

	l := rtvalue.NewList()
	for _, p := range parts {
		l.Push(internString(h, p))
	}
	hd := h.Allocate(l, l.ByteSize())
	return value.List(hd), nil
}

func builtinStringJoin(h *gc.Heap, args []value.Value) (value.Value, error) {
	sep := ops.ToString(h, arg(args, 1))
	l, ok := asList(h, arg(args, 0))
	if !ok {
		return internString(h, ""), nil
	}
	parts := make([]string, l.Len())
	for i := 0; i < l.Len(); i++ {
		parts[i] = ops.ToString(h, l.Get(i))
	}
	return internString(h, strings.Join(parts, sep)), nil
}

func builtinStringLevenshtein(h *gc.Heap, args []value.Value) (value.Value, error) {
	a := ops.ToString(h, arg(args, 0))
	b := ops.ToString(h, arg(args, 1))
	return value.Int(int32(levenshteinDistance(a, b))), nil
}

func builtinNumberToWords(h *gc.Heap, args []value.Value) (value.Value, error) {
	n := int64(ops.ToNumber(h, arg(args, 0)))
	return internString(h, numberToWords(n)), nil
}

func builtinWordsToNumber(h *gc.Heap, args []value.Value) (value.Value, error) {
	s := ops.ToString(h, arg(args, 0))
	return value.Int(int32(wordsToNumber(s))), nil
}
