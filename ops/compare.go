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
	"github.com/JoeStrout/MS2Prototypes-sub000/gc"
	"github.com/JoeStrout/MS2Prototypes-sub000/value"
)

// Equal implements ==. Numbers compare by value across int/double,
// strings by bytes, and lists/maps by identity (two distinct
// containers with equal contents are not ==), matching the source's
// value_equal.
func Equal(h *gc.Heap, a, b value.Value) bool {
	switch {
	case a.IsNumber() && b.IsNumber():
		return ToNumber(h, a) == ToNumber(h, b)
	case a.IsString() && b.IsString():
		return string(resolveString(h, a)) == string(resolveString(h, b))
	default:
		return value.Identical(a, b)
	}
}

// Lt implements <: numeric and lexicographic string ordering. Mixed
// kinds that are neither both numbers nor both strings are never
// less than one another.
func Lt(h *gc.Heap, a, b value.Value) bool {
	switch {
	case a.IsNumber() && b.IsNumber():
		return ToNumber(h, a) < ToNumber(h, b)
	case a.IsString() && b.IsString():
		return string(resolveString(h, a)) < string(resolveString(h, b))
	}
	return false
}

// Le implements <=: strictly less-than or equal by the same ordering
// Lt and Equal use.
func Le(h *gc.Heap, a, b value.Value) bool {
	return Lt(h, a, b) || Equal(h, a, b)
}

// Gt implements >. The source defines it as NOT(a <= b), which is
// only equivalent to b < a once Le is defined correctly (the source's
// own value_gt had exactly this bug: it used "lt || eq" built from a
// broken Le). This implementation is built on the corrected Le above,
// so Gt and Ge are simply its negation pair.
func Gt(h *gc.Heap, a, b value.Value) bool {
	return !Le(h, a, b)
}

// Ge implements >=, defined as NOT(a < b).
func Ge(h *gc.Heap, a, b value.Value) bool {
	return !Lt(h, a, b)
}
