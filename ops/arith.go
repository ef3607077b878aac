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

package ops

import (
	"math"

	"github.com/JoeStrout/MS2Prototypes-sub000/gc"
	"github.com/JoeStrout/MS2Prototypes-sub000/strstore"
	"github.com/JoeStrout/MS2Prototypes-sub000/value"
)

// Add implements +: numeric addition, or string concatenation when
// either operand is a string.
func Add(h *gc.Heap, a, b value.Value) value.Value {
	if a.IsString() || b.IsString() {
		return concatStrings(h, a, b)
	}
	if a.IsInt() && b.IsInt() {
		sum := int64(a.Int32()) + int64(b.Int32())
		if sum < math.MinInt32 || sum > math.MaxInt32 {
			return value.Float(float64(sum))
		}
		return value.Int(int32(sum))
	}
	return value.Float(ToNumber(h, a) + ToNumber(h, b))
}

func concatStrings(h *gc.Heap, a, b value.Value) value.Value {
	s := ToString(h, a) + ToString(h, b)
	return internHeapString(h, s)
}

// internHeapString builds a Value for s, inlining it as a tiny string
// when it fits and otherwise allocating it on the heap.
func internHeapString(h *gc.Heap, s string) value.Value {
	if tiny, ok := value.TinyString(s); ok {
		return tiny
	}
	store := strstore.FromString(h.AllocBytes, s)
	hd := h.Allocate(store, store.ByteSize())
	return value.HeapString(hd)
}

// Sub implements binary -.
func Sub(h *gc.Heap, a, b value.Value) value.Value {
	if a.IsInt() && b.IsInt() {
		diff := int64(a.Int32()) - int64(b.Int32())
		if diff < math.MinInt32 || diff > math.MaxInt32 {
			return value.Float(float64(diff))
		}
		return value.Int(int32(diff))
	}
	return value.Float(ToNumber(h, a) - ToNumber(h, b))
}

// Mult implements *: numeric multiplication, or string repetition
// when one operand is a string and the other a number. A fractional
// repeat count truncates toward zero, and a negative or zero count
// yields the empty string.
func Mult(h *gc.Heap, a, b value.Value) value.Value {
	switch {
	case a.IsString() && b.IsNumber():
		return repeatString(h, a, ToNumber(h, b))
	case b.IsString() && a.IsNumber():
		return repeatString(h, b, ToNumber(h, a))
	}
	if a.IsInt() && b.IsInt() {
		prod := int64(a.Int32()) * int64(b.Int32())
		if prod < math.MinInt32 || prod > math.MaxInt32 {
			return value.Float(float64(prod))
		}
		return value.Int(int32(prod))
	}
	return value.Float(ToNumber(h, a) * ToNumber(h, b))
}

func repeatString(h *gc.Heap, s value.Value, count float64) value.Value {
	n := int(count) // truncates toward zero
	if n <= 0 {
		return internHeapString(h, "")
	}
	text := ToString(h, s)
	out := make([]byte, 0, len(text)*n)
	for i := 0; i < n; i++ {
		out = append(out, text...)
	}
	return internHeapString(h, string(out))
}

// Div implements /. Division by zero never panics: it produces the
// IEEE-754 result (±Inf or NaN) as a double instead of an integer,
// per the documented resolution of the source's undefined-behavior
// integer division by zero. An exact integer division of two ints
// yields an int; an inexact one yields a double, matching ordinary
// numeric-tower languages where / is not floor division. A string
// divided by a number is defined as multiplication by the reciprocal,
// so it goes through the same repeat logic as Mult.
func Div(h *gc.Heap, a, b value.Value) value.Value {
	if a.IsString() && b.IsNumber() {
		return Mult(h, a, value.Float(1/ToNumber(h, b)))
	}
	if a.IsInt() && b.IsInt() {
		bi := b.Int32()
		if bi == 0 {
			return value.Float(float64(a.Int32()) / float64(bi))
		}
		ai := a.Int32()
		if ai%bi == 0 {
			return value.Int(ai / bi)
		}
		return value.Float(float64(ai) / float64(bi))
	}
	return value.Float(ToNumber(h, a) / ToNumber(h, b))
}

// Mod implements %, using C-style remainder for ints (sign follows the
// dividend, matching Go's native integer %) and fmod for doubles.
func Mod(h *gc.Heap, a, b value.Value) value.Value {
	if a.IsInt() && b.IsInt() && b.Int32() != 0 {
		ai, bi := a.Int32(), b.Int32()
		return value.Int(ai % bi)
	}
	af, bf := ToNumber(h, a), ToNumber(h, b)
	return value.Float(math.Mod(af, bf))
}

// Neg implements unary -.
func Neg(h *gc.Heap, a value.Value) value.Value {
	if a.IsInt() {
		if a.Int32() == math.MinInt32 {
			return value.Float(-float64(a.Int32()))
		}
		return value.Int(-a.Int32())
	}
	return value.Float(-ToNumber(h, a))
}

// bitwise operations truncate their double operands to int32, matching
// the source's use of C's bitwise operators on doubles cast through int.

// And implements bitwise &.
func And(h *gc.Heap, a, b value.Value) value.Value {
	return value.Int(toInt32(h, a) & toInt32(h, b))
}

// Or implements bitwise |.
func Or(h *gc.Heap, a, b value.Value) value.Value {
	return value.Int(toInt32(h, a) | toInt32(h, b))
}

// Xor implements bitwise ^.
func Xor(h *gc.Heap, a, b value.Value) value.Value {
	return value.Int(toInt32(h, a) ^ toInt32(h, b))
}

// Shl implements <<.
func Shl(h *gc.Heap, a, b value.Value) value.Value {
	return value.Int(toInt32(h, a) << uint32(toInt32(h, b)&31))
}

// Shr implements >> (arithmetic, sign-extending).
func Shr(h *gc.Heap, a, b value.Value) value.Value {
	return value.Int(toInt32(h, a) >> uint32(toInt32(h, b)&31))
}

func toInt32(h *gc.Heap, v value.Value) int32 {
	if v.IsInt() {
		return v.Int32()
	}
	return int32(ToNumber(h, v))
}
