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

import "testing"

func TestLevenshteinDistance(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"kitten", "sitting", 3},
		{"hello", "", 5},
		{"same", "same", 0},
		{"", "", 0},
	}
	for _, c := range cases {
		if got := levenshteinDistance(c.a, c.b); got != c.want {
			t.Errorf("levenshteinDistance(%q, %q) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestNumberWordsRoundTrip(t *testing.T) {
	for _, n := range []int64{-1234, 0, 7, 42, 4325, 1000004, 214837564} {
		words := numberToWords(n)
		got := wordsToNumber(words)
		if got != n {
			t.Errorf("round trip for %d: numberToWords = %q, wordsToNumber = %d", n, words, got)
		}
	}
}

func TestNumberToWordsSpotChecks(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{0, "zero"},
		{7, "seven"},
		{42, "forty-two"},
		{-1234, "negative one thousand two hundred thirty-four"},
	}
	for _, c := range cases {
		if got := numberToWords(c.n); got != c.want {
			t.Errorf("numberToWords(%d) = %q, want %q", c.n, got, c.want)
		}
	}
}
