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
// You should have received a copy of the GNU Affero License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package strstore implements the byte-level algorithms behind heap
// strings: immutable, UTF-8-aware, with a lazily computed character
// length and FNV-1a hash.
//
// Every constructor and mutator takes an Allocator rather than
// reaching for make([]byte, n) directly, so the exact same code
// builds strings owned by the garbage collector (gc.Heap.AllocBytes)
// and strings owned by an interning pool's private arena
// (strpool.Pool) without either caller having to special-case the
// other.
package strstore

import (
	"strings"

	"github.com/JoeStrout/MS2Prototypes-sub000/utf8"
	"github.com/JoeStrout/MS2Prototypes-sub000/value"
)

// Allocator returns n fresh bytes. Implementations: gc.Heap.AllocBytes
// (GC-owned strings) and strpool's internal arena (pool-owned,
// effectively immortal strings).
type Allocator func(n int) []byte

const (
	charLenUnknown = -1
	hashUnknown    = 0
)

// Storage is the heap layout of a string: its raw UTF-8 bytes plus a
// cached byte length, character length, and hash. It never changes
// after construction except to fill in the two caches.
type Storage struct {
	data    []byte
	charLen int32
	hash    uint32
}

// New copies src into a freshly allocated Storage.
func New(alloc Allocator, src []byte) *Storage {
	buf := alloc(len(src))
	copy(buf, src)
	return &Storage{data: buf, charLen: charLenUnknown}
}

// FromString is New for a Go string argument.
func FromString(alloc Allocator, s string) *Storage {
	return New(alloc, []byte(s))
}

// ByteSize implements gc.Managed: the collector charges a string for
// its header plus its raw bytes.
func (s *Storage) ByteSize() int { return 24 + len(s.data) }

// Trace implements gc.Managed: strings hold no Values of their own.
func (s *Storage) Trace(mark func(value.Value)) {}

// Bytes returns the raw UTF-8 bytes. Callers must not modify the
// returned slice.
func (s *Storage) Bytes() []byte { return s.data }

// String returns the raw bytes as a Go string (a copy is made only if
// necessary by the Go runtime's string/[]byte conversion rules).
func (s *Storage) String() string { return string(s.data) }

// ByteLen returns the length of the string in bytes.
func (s *Storage) ByteLen() int { return len(s.data) }

// CharLen returns the length of the string in Unicode characters,
// computing and caching it on first use.
func (s *Storage) CharLen() int {
	if s.charLen == charLenUnknown {
		s.charLen = int32(utf8.CharCount(s.data))
	}
	return int(s.charLen)
}

// IsEmpty reports whether the string has zero bytes.
func (s *Storage) IsEmpty() bool { return len(s.data) == 0 }

// Hash returns the string's FNV-1a hash, computing and caching it on
// first use. Zero is reserved to mean "not yet computed", so a
// genuine hash of zero is rewritten to one.
func (s *Storage) Hash() uint32 {
	if s.hash == hashUnknown {
		s.hash = fnv1a(s.data)
	}
	return s.hash
}

func fnv1a(data []byte) uint32 {
	const offset = 2166136261
	const prime = 16777619
	h := uint32(offset)
	for _, b := range data {
		h ^= uint32(b)
		h *= prime
	}
	if h == 0 {
		h = 1
	}
	return h
}

// CharAt returns the Unicode code point whose encoding starts at the
// given byte index.
func (s *Storage) CharAt(byteIndex int) rune {
	return utf8.Decode(s.data[byteIndex:])
}

// Equals reports whether s and other hold identical byte sequences.
func (s *Storage) Equals(other *Storage) bool {
	return s.Compare(other) == 0
}

// Compare does a byte-wise comparison with a length tiebreak: shorter
// strings sort first when one is a prefix of the other.
func (s *Storage) Compare(other *Storage) int {
	return strings.Compare(s.String(), other.String())
}

// EqualsFold is Equals ignoring ASCII case.
func (s *Storage) EqualsFold(other *Storage) bool {
	return s.CompareFold(other) == 0
}

// CompareFold is Compare ignoring ASCII case.
func (s *Storage) CompareFold(other *Storage) int {
	plain := func(n int) []byte { return make([]byte, n) }
	return strings.Compare(s.ToLower(plain).String(), other.ToLower(plain).String())
}

func (s *Storage) charByteIndex(charIndex int) int {
	idx, ok := utf8.CharIndexToByteIndex(s.data, charIndex)
	if !ok {
		return len(s.data)
	}
	return idx
}

// IndexOf returns the least character index i such that the substring
// of s starting at i equals needle, searching no earlier than
// startChar. It returns -1 if needle does not occur.
func (s *Storage) IndexOf(needle *Storage, startChar int) int {
	if startChar < 0 {
		startChar = 0
	}
	startByte := s.charByteIndex(startChar)
	if startByte > len(s.data) {
		return -1
	}
	rel := strings.Index(s.String()[startByte:], needle.String())
	if rel < 0 {
		return -1
	}
	charIdx, _ := utf8.ByteIndexToCharIndex(s.data, startByte+rel)
	return charIdx
}

// IndexOfChar returns the least character index of cp in s, or -1.
func (s *Storage) IndexOfChar(cp rune, startChar int) int {
	var buf [4]byte
	n := utf8.Encode(cp, buf[:])
	return s.IndexOf(New(func(n int) []byte { return make([]byte, n) }, buf[:n]), startChar)
}

// LastIndexOf returns the greatest character index at which needle
// occurs in s, or -1.
func (s *Storage) LastIndexOf(needle *Storage) int {
	rel := strings.LastIndex(s.String(), needle.String())
	if rel < 0 {
		return -1
	}
	charIdx, _ := utf8.ByteIndexToCharIndex(s.data, rel)
	return charIdx
}

// Contains reports whether needle occurs anywhere in s.
func (s *Storage) Contains(needle *Storage) bool {
	return strings.Contains(s.String(), needle.String())
}

// StartsWith reports whether s begins with prefix.
func (s *Storage) StartsWith(prefix *Storage) bool {
	return strings.HasPrefix(s.String(), prefix.String())
}

// EndsWith reports whether s ends with suffix.
func (s *Storage) EndsWith(suffix *Storage) bool {
	return strings.HasSuffix(s.String(), suffix.String())
}

// Substring returns the substring of charLen characters starting at
// charStart. Out-of-range bounds are clamped.
func (s *Storage) Substring(alloc Allocator, charStart, charLen int) *Storage {
	if charStart < 0 {
		charStart = 0
	}
	total := s.CharLen()
	if charStart > total {
		charStart = total
	}
	end := charStart + charLen
	if charLen < 0 || end > total {
		end = total
	}
	b0 := s.charByteIndex(charStart)
	b1 := s.charByteIndex(end)
	return New(alloc, s.data[b0:b1])
}

// Concat returns a freshly allocated string holding s followed by
// other.
func (s *Storage) Concat(alloc Allocator, other *Storage) *Storage {
	buf := alloc(len(s.data) + len(other.data))
	n := copy(buf, s.data)
	copy(buf[n:], other.data)
	return &Storage{data: buf, charLen: charLenUnknown}
}

// Insert returns s with other spliced in before character index
// charIndex.
func (s *Storage) Insert(alloc Allocator, charIndex int, other *Storage) *Storage {
	b := s.charByteIndex(charIndex)
	buf := alloc(len(s.data) + len(other.data))
	n := copy(buf, s.data[:b])
	n += copy(buf[n:], other.data)
	copy(buf[n:], s.data[b:])
	return &Storage{data: buf, charLen: charLenUnknown}
}

// Remove returns s with charLen characters removed starting at
// charIndex.
func (s *Storage) Remove(alloc Allocator, charIndex, charLen int) *Storage {
	b0 := s.charByteIndex(charIndex)
	b1 := s.charByteIndex(charIndex + charLen)
	if b1 < b0 {
		b1 = b0
	}
	buf := alloc(len(s.data) - (b1 - b0))
	n := copy(buf, s.data[:b0])
	copy(buf[n:], s.data[b1:])
	return &Storage{data: buf, charLen: charLenUnknown}
}

// Replace returns s with every non-overlapping occurrence of old
// replaced by replacement. If old does not occur, s's contents are
// returned unchanged (in a fresh Storage).
func (s *Storage) Replace(alloc Allocator, old, replacement *Storage) *Storage {
	replaced := strings.ReplaceAll(s.String(), old.String(), replacement.String())
	return FromString(alloc, replaced)
}

// ReplaceChar returns s with the character at charIndex replaced by
// cp.
func (s *Storage) ReplaceChar(alloc Allocator, charIndex int, cp rune) *Storage {
	b0 := s.charByteIndex(charIndex)
	b1 := s.charByteIndex(charIndex + 1)
	var enc [4]byte
	n := utf8.Encode(cp, enc[:])
	buf := alloc(b0 + n + (len(s.data) - b1))
	i := copy(buf, s.data[:b0])
	i += copy(buf[i:], enc[:n])
	copy(buf[i:], s.data[b1:])
	return &Storage{data: buf, charLen: charLenUnknown}
}

// ToUpper returns an ASCII-uppercased copy of s; non-ASCII bytes pass
// through unchanged.
func (s *Storage) ToUpper(alloc Allocator) *Storage {
	return mapASCII(alloc, s, func(b byte) byte {
		if b >= 'a' && b <= 'z' {
			return b - ('a' - 'A')
		}
		return b
	})
}

// ToLower returns an ASCII-lowercased copy of s; non-ASCII bytes pass
// through unchanged.
func (s *Storage) ToLower(alloc Allocator) *Storage {
	return mapASCII(alloc, s, func(b byte) byte {
		if b >= 'A' && b <= 'Z' {
			return b + ('a' - 'A')
		}
		return b
	})
}

func mapASCII(alloc Allocator, s *Storage, f func(byte) byte) *Storage {
	buf := alloc(len(s.data))
	for i, b := range s.data {
		buf[i] = f(b)
	}
	return &Storage{data: buf, charLen: s.charLen}
}

// Trim returns s with leading and trailing Unicode whitespace removed.
func (s *Storage) Trim(alloc Allocator) *Storage {
	start, end := trimBounds(s.data)
	return New(alloc, s.data[start:end])
}

// TrimStart returns s with leading Unicode whitespace removed.
func (s *Storage) TrimStart(alloc Allocator) *Storage {
	start, _ := trimBounds(s.data)
	return New(alloc, s.data[start:])
}

// TrimEnd returns s with trailing Unicode whitespace removed.
func (s *Storage) TrimEnd(alloc Allocator) *Storage {
	_, end := trimBounds(s.data)
	return New(alloc, s.data[:end])
}

func trimBounds(data []byte) (start, end int) {
	start = 0
	for start < len(data) {
		cp, n := utf8.DecodeAndAdvance(data[start:])
		if !utf8.IsWhitespace(cp) {
			break
		}
		start += n
	}
	end = len(data)
	for end > start {
		p := utf8.Backup(end, start, data, 1)
		cp, _ := utf8.DecodeAndAdvance(data[p:])
		if !utf8.IsWhitespace(cp) {
			break
		}
		end = p
	}
	return start, end
}

// IsNullOrWhiteSpace reports whether s is nil, empty, or consists
// entirely of Unicode whitespace.
func IsNullOrWhiteSpace(s *Storage) bool {
	if s == nil || s.IsEmpty() {
		return true
	}
	start, end := trimBounds(s.data)
	return start >= end
}

// SplitByChar splits s on every occurrence of sep. A run of
// consecutive separators, or a leading/trailing separator, produces
// empty tokens, matching the contract used by the host language's
// String.split.
func (s *Storage) SplitByChar(alloc Allocator, sep rune) []*Storage {
	var enc [4]byte
	n := utf8.Encode(sep, enc[:])
	return s.SplitByString(alloc, New(alloc, enc[:n]))
}

// SplitByString splits s on every occurrence of sep. Splitting by the
// empty separator yields one token per character.
func (s *Storage) SplitByString(alloc Allocator, sep *Storage) []*Storage {
	if sep.IsEmpty() {
		chars := make([]*Storage, 0, s.CharLen())
		data := s.data
		for len(data) > 0 {
			n := utf8Len1(data)
			chars = append(chars, New(alloc, data[:n]))
			data = data[n:]
		}
		return chars
	}
	parts := strings.Split(s.String(), sep.String())
	out := make([]*Storage, len(parts))
	for i, p := range parts {
		out[i] = FromString(alloc, p)
	}
	return out
}

func utf8Len1(data []byte) int {
	_, n := utf8.DecodeAndAdvance(data)
	return n
}
