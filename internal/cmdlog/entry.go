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

// Package cmdlog implements the fixed-capacity command log: a FIFO ring of
// completed write-commands addressable either by a flat byte offset over
// their virtual concatenation or by (command index, intra-command offset).
package cmdlog

// entry is one stored command. It owns its bytes; nothing outside the ring
// ever aliases them.
type entry struct {
	bytes []byte
}

// terminated reports whether e's last byte is a newline. An entry with no
// trailing newline is the "open tail" and is the only slot eligible for
// in-place extension.
func (e *entry) terminated() bool {
	n := len(e.bytes)
	return n > 0 && e.bytes[n-1] == '\n'
}

func (e *entry) size() int {
	return len(e.bytes)
}
