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

package utf8

import (
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cps := []rune{0x41, 0xA9, 0x20AC, 0x1F600}
	for _, cp := range cps {
		buf := make([]byte, 4)
		n := Encode(cp, buf)
		got, m := DecodeAndAdvance(buf[:n])
		if got != cp || m != n {
			t.Errorf("Encode/Decode(%#x): got cp=%#x n=%d, want n=%d", cp, got, m, n)
		}
	}
}

func TestAdvanceBackupSymmetric(t *testing.T) {
	data := []byte("a©b€c")
	p := 0
	for i := 0; i < 5; i++ {
		p = Advance(p, len(data), data, 1)
	}
	if p != len(data) {
		t.Fatalf("advance did not reach end: p=%d len=%d", p, len(data))
	}
	for i := 0; i < 5; i++ {
		p = Backup(p, 0, data, 1)
	}
	if p != 0 {
		t.Fatalf("backup did not return to start: p=%d", p)
	}
}

func TestByteCharIndexRoundTrip(t *testing.T) {
	data := []byte("a©b")
	for charIdx := 0; charIdx <= CharCount(data); charIdx++ {
		byteIdx, ok := CharIndexToByteIndex(data, charIdx)
		if !ok {
			t.Fatalf("CharIndexToByteIndex(%d): not ok", charIdx)
		}
		got, ok := ByteIndexToCharIndex(data, byteIdx)
		if !ok || got != charIdx {
			t.Errorf("round trip charIdx=%d: byteIdx=%d got=%d ok=%v", charIdx, byteIdx, got, ok)
		}
	}
	// byteIdx=2 is inside the 2-byte © sequence (starts at byte 1)
	if _, ok := ByteIndexToCharIndex(data, 2); ok {
		t.Errorf("expected ByteIndexToCharIndex to reject mid-character index")
	}
}

func TestIsWhitespace(t *testing.T) {
	ws := []rune{0x09, 0x20, 0x85, 0xA0, 0x2000, 0x2028, 0x3000}
	for _, cp := range ws {
		if !IsWhitespace(cp) {
			t.Errorf("IsWhitespace(%#x) = false, want true", cp)
		}
	}
	if IsWhitespace('a') {
		t.Errorf("IsWhitespace('a') = true, want false")
	}
}
