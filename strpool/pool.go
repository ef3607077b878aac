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

// Package strpool implements string interning: a table of
// StringStorage objects that live for the lifetime of a Runtime and
// are never collected, so the same string literal assembled twice (or
// used as a map key a thousand times) is stored once.
//
// A Runtime owns up to 256 independent pools, addressed by a small
// pool number (0-255), matching the source's notion of per-purpose
// interning tables (one for assembler constants, one for symbol
// names, and so on) without any of them sharing a lock or a hash
// table.
package strpool

import (
	"github.com/JoeStrout/MS2Prototypes-sub000/strstore"
)

const bucketCount = 256

type entry struct {
	hash  uint32
	index int
	next  int // -1 terminates the chain
}

// Pool is one interning table: a fixed array of hash-chain buckets
// over a growable slice of interned strings. Index 0 is reserved for
// the empty string so callers can treat "interned index" as a small,
// stable integer usable as e.g. a symbol id.
type Pool struct {
	buckets  [bucketCount]int // head entry index per bucket, -1 if empty
	entries  []entry
	storage  []*strstore.Storage
	arenaFor strstore.Allocator
}

// New creates an empty pool. alloc backs every interned string's
// bytes; it is typically a Heap's arena allocator shared with
// everything else a Runtime owns, since interned strings are never
// individually freed and an mmap'd arena amortizes that nicely.
func New(alloc strstore.Allocator) *Pool {
	p := &Pool{
		storage:  []*strstore.Storage{strstore.FromString(alloc, "")},
		arenaFor: alloc,
	}
	for i := range p.buckets {
		p.buckets[i] = -1
	}
	return p
}

// PoolSet is a Runtime's full complement of up to 256 independent
// pools, created lazily so a Runtime that only ever uses pool 0 pays
// for exactly one Pool.
type PoolSet struct {
	pools [256]*Pool
	alloc strstore.Allocator
}

// NewSet creates a PoolSet backed by alloc.
func NewSet(alloc strstore.Allocator) *PoolSet {
	return &PoolSet{alloc: alloc}
}

// Pool returns the pool numbered n (0-255), creating it on first use.
func (s *PoolSet) Pool(n uint8) *Pool {
	if s.pools[n] == nil {
		s.pools[n] = New(s.alloc)
	}
	return s.pools[n]
}

// GetStorage returns the interned string at index idx, or nil if idx
// is out of range.
func (p *Pool) GetStorage(idx int) *strstore.Storage {
	if idx < 0 || idx >= len(p.storage) {
		return nil
	}
	return p.storage[idx]
}

// Len reports how many distinct strings this pool has interned,
// including the reserved empty string at index 0.
func (p *Pool) Len() int { return len(p.storage) }

// InternString returns the index of s within the pool, copying and
// storing its bytes the first time s is seen and reusing the existing
// entry on every subsequent call with an equal string.
func (p *Pool) InternString(s string) int {
	return p.intern(strstore.FromString(p.arenaFor, s))
}

// InternBytes is InternString for a byte slice.
func (p *Pool) InternBytes(b []byte) int {
	return p.intern(strstore.New(p.arenaFor, b))
}

// InternOrAdoptString interns the given Storage directly, without
// copying, if the pool doesn't already hold an equal string; this
// lets a caller build a Storage speculatively (e.g. by concatenation)
// and only pay the interning-table bookkeeping cost if it turns out
// to be new. If an equal string is already interned, adopted is
// discarded and the existing index is returned.
func (p *Pool) InternOrAdoptString(adopted *strstore.Storage) int {
	return p.intern(adopted)
}

func (p *Pool) intern(s *strstore.Storage) int {
	if s.IsEmpty() {
		return 0
	}
	h := s.Hash()
	bucket := int(h & (bucketCount - 1))
	for i := p.buckets[bucket]; i != -1; i = p.entries[i].next {
		e := &p.entries[i]
		if e.hash == h && p.storage[e.index].Equals(s) {
			return e.index
		}
	}
	idx := len(p.storage)
	p.storage = append(p.storage, s)
	p.entries = append(p.entries, entry{hash: h, index: idx, next: p.buckets[bucket]})
	p.buckets[bucket] = len(p.entries) - 1
	return idx
}

// Find returns the index of s if it is already interned, and whether
// it was found.
func (p *Pool) Find(s string) (int, bool) {
	if s == "" {
		return 0, true
	}
	probe := strstore.FromString(func(n int) []byte { return make([]byte, n) }, s)
	h := probe.Hash()
	bucket := int(h & (bucketCount - 1))
	for i := p.buckets[bucket]; i != -1; i = p.entries[i].next {
		e := &p.entries[i]
		if e.hash == h && p.storage[e.index].Equals(probe) {
			return e.index, true
		}
	}
	return 0, false
}

// Clear empties the pool back to its initial just-the-empty-string
// state. Any previously returned index is invalidated.
func (p *Pool) Clear() {
	p.storage = p.storage[:1]
	p.entries = p.entries[:0]
	for i := range p.buckets {
		p.buckets[i] = -1
	}
}
