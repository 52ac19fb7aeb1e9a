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

import "errors"

// Sentinel errors for the taxonomy of spec §7. Callers test with errors.Is.
var (
	// ErrOutOfMemory signals an allocation failure local to one append;
	// the log is left unchanged and the caller is informed.
	ErrOutOfMemory = errors.New("cmdlog: out of memory")
	// ErrIo signals a socket or file I/O failure. Local to one worker.
	ErrIo = errors.New("cmdlog: io error")
	// ErrInvalid signals a bad argument, malformed control line, or
	// out-of-range seek (command index or intra-command offset).
	ErrInvalid = errors.New("cmdlog: invalid argument")
	// ErrInterrupted signals a lock or syscall interrupted by a signal;
	// transparently retried at byte-level I/O boundaries.
	ErrInterrupted = errors.New("cmdlog: interrupted")
	// ErrFatal signals an unrecoverable condition (listener socket lost,
	// worker spawn failed) that must propagate to the supervisor.
	ErrFatal = errors.New("cmdlog: fatal")
)
