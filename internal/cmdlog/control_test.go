/*
Copyright (C) 2023, 2026  Carl-Philip Hänsch

    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package cmdlog

import "testing"

func TestParseControlValid(t *testing.T) {
	x, y, ok := ParseControl([]byte("AESDCHAR_IOCSEEKTO:12,345\n"))
	if !ok || x != 12 || y != 345 {
		t.Fatalf("got (%d,%d,%v), want (12,345,true)", x, y, ok)
	}
}

func TestParseControlTrailingGarbageIgnored(t *testing.T) {
	x, y, ok := ParseControl([]byte("AESDCHAR_IOCSEEKTO:1,2,extra stuff\n"))
	if !ok || x != 1 || y != 2 {
		t.Fatalf("got (%d,%d,%v), want (1,2,true)", x, y, ok)
	}
}

func TestParseControlDataLineNotMatched(t *testing.T) {
	if _, _, ok := ParseControl([]byte("hello world\n")); ok {
		t.Fatalf("data line matched as control")
	}
}

func TestParseControlMalformedNumericsTreatedAsData(t *testing.T) {
	cases := []string{
		"AESDCHAR_IOCSEEKTO:abc,2\n",
		"AESDCHAR_IOCSEEKTO:1,xyz\n",
		"AESDCHAR_IOCSEEKTO:99999999999999999999,2\n", // overflows uint32
		"AESDCHAR_IOCSEEKTO:1\n",                       // missing comma+Y
	}
	for _, c := range cases {
		if _, _, ok := ParseControl([]byte(c)); ok {
			t.Fatalf("%q should not match control grammar", c)
		}
	}
}
