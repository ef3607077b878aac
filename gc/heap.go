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

// Package gc implements the precise mark-and-sweep collector that
// owns every string, list, and map allocated by the interpreter.
//
// Objects are addressed by a Handle, a packed (generation, index)
// pair rather than a raw pointer: dereferencing a stale handle (one
// whose generation has been invalidated by a collection) is reported
// rather than silently handing back freed or reused storage. This
// replaces the source material's raw-pointer-plus-shadow-stack
// discipline, which has no safe equivalent in Go, with a generation-
// checked handle indirection instead.
//
// A Heap is never global: callers construct one explicitly (typically
// one per runtime.Runtime) so independent VMs in the same process do
// not share roots, thresholds, or collection cycles.
package gc

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/JoeStrout/MS2Prototypes-sub000/ints"
	"github.com/JoeStrout/MS2Prototypes-sub000/value"
)

// Handle addresses a heap object. The low 24 bits are a slot index
// into the Heap's object table; the high 24 bits are the generation
// that slot was allocated at. A Handle whose generation doesn't match
// the slot's current generation refers to an object that has been
// collected.
type Handle = value.Handle

const (
	handleIndexBits = 24
	handleIndexMask = (1 << handleIndexBits) - 1
)

func makeHandle(index, generation uint32) Handle {
	return Handle(uint64(generation)<<handleIndexBits | uint64(index&handleIndexMask))
}

func (h Handle) index() uint32      { return uint32(h) & handleIndexMask }
func (h Handle) generation() uint32 { return uint32(h >> handleIndexBits) }

// Managed is implemented by every heap object kind (StringStorage,
// List, Map). Trace must invoke mark for every Value the object
// directly holds; it is called at most once per collection per live
// object, so cyclic references between lists/maps terminate normally.
type Managed interface {
	ByteSize() int
	Trace(mark func(value.Value))
}

type slot struct {
	obj        Managed
	generation uint32
	marked     bool
	free       bool
}

// RootSource is an extra, dynamic source of GC roots: the VM installs
// one for the duration of vm.VM.Run so that live call-frame registers
// count as roots without requiring every register write to go through
// the shadow stack (spec.md §4.8's "frame-wide convention").
type RootSource func(mark func(v *value.Value))

// Heap is a single collector instance: one allocation table, one
// shadow-stack root set, one threshold policy.
type Heap struct {
	objects  []slot
	freelist []uint32

	roots      []*value.Value
	scopeStack []int

	rootSources []RootSource

	bytesAllocated int
	threshold      int
	initThreshold  int
	disableCount   int
	collections    int

	strArena arena

	// Errorf, if set, receives collector diagnostics (collection
	// counts, thresholds); nil by default so embedding an unused
	// Heap never prints anything.
	Errorf func(format string, args ...any)
}

// New creates a Heap whose first collection triggers once
// initialThreshold bytes have been allocated.
func New(initialThreshold int) *Heap {
	if initialThreshold <= 0 {
		initialThreshold = 1 << 16
	}
	return &Heap{
		threshold:     initialThreshold,
		initThreshold: initialThreshold,
	}
}

func (h *Heap) logf(format string, args ...any) {
	if h.Errorf != nil {
		h.Errorf(format, args...)
	}
}

// AllocBytes returns n fresh bytes from the heap's string arena. It
// does not register an object or count against bytesAllocated by
// itself; StringStorage callers pass the returned slice to Allocate
// alongside the Managed wrapper so size accounting stays in one place.
func (h *Heap) AllocBytes(n int) []byte {
	return h.strArena.alloc(n)
}

// Allocate registers obj as a newly created heap object of the given
// byte size and returns its Handle. It may trigger a collection first
// if the heap is over threshold and not disabled.
func (h *Heap) Allocate(obj Managed, size int) Handle {
	if h.disableCount == 0 && h.bytesAllocated+size > h.threshold {
		h.Collect()
	}
	h.bytesAllocated += size

	var index uint32
	if n := len(h.freelist); n > 0 {
		index = h.freelist[n-1]
		h.freelist = h.freelist[:n-1]
		h.objects[index].obj = obj
		h.objects[index].free = false
		h.objects[index].marked = false
	} else {
		index = uint32(len(h.objects))
		h.objects = append(h.objects, slot{obj: obj})
	}
	return makeHandle(index, h.objects[index].generation)
}

// Resolve returns the live object addressed by h, or (nil, false) if
// h is stale (already collected) or out of range.
func (h *Heap) Resolve(hd Handle) (Managed, bool) {
	idx := hd.index()
	if int(idx) >= len(h.objects) {
		return nil, false
	}
	s := &h.objects[idx]
	if s.free || s.generation != hd.generation() {
		return nil, false
	}
	return s.obj, true
}

// MustResolve is Resolve but panics on a stale handle; it is used
// internally wherever a Value was just read from a location that is
// protected against collection (a root, or a currently-active frame
// register) so a miss indicates a bug rather than a normal condition.
func (h *Heap) MustResolve(hd Handle) Managed {
	obj, ok := h.Resolve(hd)
	if !ok {
		panic(fmt.Sprintf("gc: stale handle %v", hd))
	}
	return obj
}

// Protect pushes ptr onto the shadow stack: *ptr (and whatever it is
// reassigned to afterwards, since the shadow stack holds the pointer,
// not a snapshot of the value) will be treated as reachable by every
// subsequent collection until the matching Unprotect.
func (h *Heap) Protect(ptr *value.Value) {
	h.roots = append(h.roots, ptr)
}

// Unprotect pops the most recently protected root.
func (h *Heap) Unprotect() {
	h.roots = h.roots[:len(h.roots)-1]
}

// PushScope records the current root count so a later PopScope can
// unwind exactly the roots protected since this call.
func (h *Heap) PushScope() {
	h.scopeStack = append(h.scopeStack, len(h.roots))
}

// PopScope unwinds the shadow stack back to the count recorded by the
// matching PushScope.
func (h *Heap) PopScope() {
	n := len(h.scopeStack)
	mark := h.scopeStack[n-1]
	h.scopeStack = h.scopeStack[:n-1]
	h.roots = h.roots[:mark]
}

// Scope is the idiomatic-Go stand-in for the source's
// GC_LOCALS/GC_POP_SCOPE convention: Close unwinds every root
// protected through this scope. Typical use:
//
//	scope := heap.OpenScope()
//	defer scope.Close()
//	scope.Protect(&local)
type Scope struct{ h *Heap }

// OpenScope is PushScope plus a handle whose Close method calls
// PopScope, meant to be deferred.
func (h *Heap) OpenScope() *Scope {
	h.PushScope()
	return &Scope{h: h}
}

// Protect protects ptr for the lifetime of this scope.
func (s *Scope) Protect(ptr *value.Value) { s.h.Protect(ptr) }

// Close unwinds this scope's roots. Safe to call via defer.
func (s *Scope) Close() { s.h.PopScope() }

// Disable suppresses collection until a matching Enable; nesting is
// supported via a counter, mirroring gc_disable/gc_enable.
func (h *Heap) Disable() { h.disableCount++ }

// Enable reverses one Disable call.
func (h *Heap) Enable() {
	if h.disableCount > 0 {
		h.disableCount--
	}
}

// PushRootSource installs an additional, dynamic root provider (the
// VM uses this to mark live call-frame registers) for the duration of
// the caller's work; pair with PopRootSource, typically via defer.
func (h *Heap) PushRootSource(src RootSource) {
	h.rootSources = append(h.rootSources, src)
}

// PopRootSource removes the most recently installed root source.
func (h *Heap) PopRootSource() {
	h.rootSources = h.rootSources[:len(h.rootSources)-1]
}

// BytesAllocated reports the collector's current live-byte estimate.
func (h *Heap) BytesAllocated() int { return h.bytesAllocated }

// Threshold reports the byte count that will trigger the next
// collection.
func (h *Heap) Threshold() int { return h.threshold }

// Collections reports how many collections have run so far.
func (h *Heap) Collections() int { return h.collections }

// RootSnapshot returns a copy of the current shadow-stack root
// pointers, for diagnostics only (e.g. a CLI -debug dump of how many
// locals are protected at a crash site).
func (h *Heap) RootSnapshot() []*value.Value {
	return slices.Clone(h.roots)
}

// Collect runs a full mark-and-sweep cycle immediately, regardless of
// the threshold policy (it still honors Disable/Enable nesting: a
// disabled heap refuses to collect even when asked explicitly, since
// a disabled region is exactly the part of the program that has
// unprotected C-frame-equivalent locals that mustn't move).
func (h *Heap) Collect() {
	if h.disableCount > 0 {
		return
	}
	h.mark()
	h.sweep()
	h.collections++
	h.threshold = ints.Max(h.threshold, h.bytesAllocated*2)
	h.threshold = ints.Max(h.threshold, h.initThreshold)
	h.logf("gc: collection %d: %d bytes live, next threshold %d", h.collections, h.bytesAllocated, h.threshold)
}

func (h *Heap) mark() {
	var work []Handle
	markValue := func(v value.Value) {
		if !(v.IsHeapString() || v.IsList() || v.IsMap()) {
			return
		}
		hd := v.Handle()
		idx := hd.index()
		if int(idx) >= len(h.objects) {
			return
		}
		s := &h.objects[idx]
		if s.free || s.generation != hd.generation() || s.marked {
			return
		}
		s.marked = true
		work = append(work, hd)
	}
	for _, r := range h.roots {
		markValue(*r)
	}
	for _, src := range h.rootSources {
		src(func(v *value.Value) { markValue(*v) })
	}
	for len(work) > 0 {
		hd := work[len(work)-1]
		work = work[:len(work)-1]
		obj := h.objects[hd.index()].obj
		obj.Trace(markValue)
	}
}

func (h *Heap) sweep() {
	for i := range h.objects {
		s := &h.objects[i]
		if s.free {
			continue
		}
		if !s.marked {
			h.bytesAllocated -= s.obj.ByteSize()
			s.obj = nil
			s.free = true
			s.generation++
			h.freelist = append(h.freelist, uint32(i))
			continue
		}
		s.marked = false
	}
	if h.bytesAllocated < 0 {
		h.bytesAllocated = 0
	}
}
