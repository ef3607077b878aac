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
	"github.com/JoeStrout/MS2Prototypes-sub000/rtvalue"
	"github.com/JoeStrout/MS2Prototypes-sub000/strstore"
	"github.com/JoeStrout/MS2Prototypes-sub000/value"
)

const (
	fnvOffset = 2166136261
	fnvPrime  = 16777619
)

func fnv1a(h uint32, b byte) uint32 {
	h ^= uint32(b)
	return h * fnvPrime
}

func mixBytes(data []byte) uint32 {
	h := uint32(fnvOffset)
	for _, b := range data {
		h = fnv1a(h, b)
	}
	return h
}

// Hash computes a structural hash for v: heap strings reuse their
// cached StringStorage hash, tiny strings and numbers are mixed
// inline, and lists/maps fold their elements' hashes together with
// FNV-1a so that two structurally equal containers collide (an
// important property since, unlike Equal, Hash must agree with
// whatever key-equality a caller uses it alongside). A genuine hash
// of zero is rewritten to one, since zero is reserved internally to
// mean "uncomputed" in strstore.Storage.
func Hash(h *gc.Heap, v value.Value) uint32 {
	var hv uint32
	switch {
	case v.IsNull():
		hv = 0x9e3779b9
	case v.IsNumber():
		// Int and double share one hash path, keyed off the float64
		// form of the value, so that Equal(int(5), double(5.0)) (which
		// compares numerically) implies Hash(int(5)) == Hash(double(5.0))
		// as the map-key contract requires.
		bits := math.Float64bits(v.Num())
		hv = mixInt(uint32(bits)) ^ mixInt(uint32(bits>>32))
	case v.IsTinyString():
		hv = mixBytes(v.TinyStringBytes())
	case v.IsHeapString():
		hv = h.MustResolve(v.Handle()).(*strstore.Storage).Hash()
	case v.IsList():
		hv = hashList(h, resolveList(h, v))
	case v.IsMap():
		hv = hashMap(h, resolveMap(h, v))
	}
	if hv == 0 {
		hv = 1
	}
	return hv
}

func mixInt(x uint32) uint32 {
	x ^= x >> 16
	x *= 0x85ebca6b
	x ^= x >> 13
	x *= 0xc2b2ae35
	x ^= x >> 16
	return x
}

func hashList(h *gc.Heap, l *rtvalue.List) uint32 {
	hv := uint32(fnvOffset)
	for i := 0; i < l.Len(); i++ {
		hv ^= Hash(h, l.Get(i))
		hv *= fnvPrime
	}
	return hv
}

func hashMap(h *gc.Heap, m *rtvalue.Map) uint32 {
	// XOR every entry's combined hash so the result doesn't depend on
	// iteration order, then run it through FNV-1a once to spread bits.
	var acc uint32
	m.Range(func(k, val value.Value) {
		acc ^= Hash(h, k)*fnvPrime ^ Hash(h, val)
	})
	return mixBytes([]byte{byte(acc), byte(acc >> 8), byte(acc >> 16), byte(acc >> 24)})
}

// MapHashFuncs returns the (HashFunc, EqualFunc) pair rtvalue.NewMap
// needs, bound to h so that map keys may themselves be heap strings.
func MapHashFuncs(h *gc.Heap) (rtvalue.HashFunc, rtvalue.EqualFunc) {
	return func(v value.Value) uint32 { return Hash(h, v) },
		func(a, b value.Value) bool { return Equal(h, a, b) }
}
