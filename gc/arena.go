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

package gc

// arena is a bump allocator over a list of page-granular memory
// regions. It backs the byte payload of every heap-allocated string:
// carving bytes out of a handful of large mmap'd pages is cheaper and
// produces far less fragmentation than one make([]byte, n) per
// string.
//
// Oversized requests (bigger than a page) get a dedicated page of
// their own, exactly as page.
type arena struct {
	pages []arenaPage
}

type arenaPage struct {
	mem []byte
	off int
}

const arenaPageSize = 64 * 1024

// alloc returns n fresh, zeroed bytes. The returned slice is valid
// for the lifetime of the arena (arenas are never shrunk; the backing
// pages are released only when the whole arena is dropped).
func (a *arena) alloc(n int) []byte {
	if n > arenaPageSize {
		p := arenaPage{mem: mapPages(n)}
		a.pages = append(a.pages, p)
		return p.mem
	}
	if len(a.pages) == 0 || a.pages[len(a.pages)-1].off+n > len(a.pages[len(a.pages)-1].mem) {
		a.pages = append(a.pages, arenaPage{mem: mapPages(arenaPageSize)})
	}
	last := &a.pages[len(a.pages)-1]
	out := last.mem[last.off : last.off+n]
	last.off += n
	return out
}

// bytesReserved reports the total backing memory currently mapped by
// the arena, used only for diagnostics.
func (a *arena) bytesReserved() int {
	n := 0
	for i := range a.pages {
		n += len(a.pages[i].mem)
	}
	return n
}
