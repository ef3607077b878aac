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

// Package ops implements every Value-level operation that needs to
// resolve a heap handle: arithmetic, comparison, hashing, truthiness,
// and string conversion. It is the one layer above gc that is allowed
// to know about both gc.Heap and rtvalue's List/Map, which is exactly
// why these operations couldn't live in value (no heap access) or
// rtvalue (would cycle back through gc).
package ops

import (
	"math"
	"strconv"

	"github.com/JoeStrout/MS2Prototypes-sub000/gc"
	"github.com/JoeStrout/MS2Prototypes-sub000/rtvalue"
	"github.com/JoeStrout/MS2Prototypes-sub000/strstore"
	"github.com/JoeStrout/MS2Prototypes-sub000/value"
)

// resolveString returns the UTF-8 bytes behind a string Value,
// whether it's inline (tiny) or heap-backed.
func resolveString(h *gc.Heap, v value.Value) []byte {
	if v.IsTinyString() {
		return v.TinyStringBytes()
	}
	obj := h.MustResolve(v.Handle())
	return obj.(*strstore.Storage).Bytes()
}

func resolveList(h *gc.Heap, v value.Value) *rtvalue.List {
	return h.MustResolve(v.Handle()).(*rtvalue.List)
}

func resolveMap(h *gc.Heap, v value.Value) *rtvalue.Map {
	return h.MustResolve(v.Handle()).(*rtvalue.Map)
}

// Truthy implements the runtime's notion of "falsy": null, the
// integer or double zero, the empty string, the empty list, and the
// empty map are all false; everything else, including a string
// holding "0" or "false", is true.
func Truthy(h *gc.Heap, v value.Value) bool {
	switch {
	case v.IsNull():
		return false
	case v.IsInt():
		return v.Int32() != 0
	case v.IsDouble():
		return v.Float64() != 0
	case v.IsTinyString():
		return len(v.TinyStringBytes()) > 0
	case v.IsHeapString():
		return len(resolveString(h, v)) > 0
	case v.IsList():
		return resolveList(h, v).Len() > 0
	case v.IsMap():
		return resolveMap(h, v).Len() > 0
	}
	return true
}

// ToNumber coerces v to a float64 for arithmetic with mixed operand
// kinds; strings that don't parse as a number yield 0, matching the
// host language's permissive numeric coercion.
func ToNumber(h *gc.Heap, v value.Value) float64 {
	switch {
	case v.IsInt():
		return float64(v.Int32())
	case v.IsDouble():
		return v.Float64()
	case v.IsString():
		f, err := strconv.ParseFloat(string(resolveString(h, v)), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

// ToString renders v the way string concatenation and print would:
// plain text for numbers and strings, and Repr for containers.
func ToString(h *gc.Heap, v value.Value) string {
	switch {
	case v.IsNull():
		return "null"
	case v.IsInt():
		return strconv.FormatInt(int64(v.Int32()), 10)
	case v.IsDouble():
		return formatDouble(v.Float64())
	case v.IsString():
		return string(resolveString(h, v))
	default:
		return Repr(h, v)
	}
}

func formatDouble(d float64) string {
	if math.IsInf(d, 1) {
		return "inf"
	}
	if math.IsInf(d, -1) {
		return "-inf"
	}
	if math.IsNaN(d) {
		return "nan"
	}
	return strconv.FormatFloat(d, 'g', -1, 64)
}

// Repr renders v the way a debugger or container print would: strings
// are quoted and containers render their elements recursively.
func Repr(h *gc.Heap, v value.Value) string {
	switch {
	case v.IsString():
		return strconv.Quote(string(resolveString(h, v)))
	case v.IsList():
		l := resolveList(h, v)
		s := "["
		for i := 0; i < l.Len(); i++ {
			if i > 0 {
				s += ", "
			}
			s += Repr(h, l.Get(i))
		}
		return s + "]"
	case v.IsMap():
		return resolveMap(h, v).ToString(func(inner value.Value) string { return Repr(h, inner) })
	default:
		return ToString(h, v)
	}
}
