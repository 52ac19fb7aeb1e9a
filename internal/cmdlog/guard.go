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

import "sync"

// EvictFunc, when set on a Guard, is invoked with the bytes of a command
// evicted on overflow, while the guard's mutex is held. It must not call
// back into the Guard. Used by the audit archiver (internal/archive) to
// ship evicted commands before they are discarded for good.
type EvictFunc func(evicted []byte)

// Guard wraps one Ring with a single mutex and the monotonic append cursor
// A, so that append, eviction, and the cursor adjustment happen inside one
// critical section (spec §4.2). The self-locking methods (AppendAndAdvance,
// ReadAt, AppendCursor, FindByCommand and the rest not named *Locked) take
// the mutex for their entire duration; the *Locked methods rely on the
// caller holding it via Lock.
type Guard struct {
	mu     sync.Mutex
	ring   *Ring
	cursor int // A: flat offset of the next append
	onEvict EvictFunc
}

// NewGuard creates a Guard around a freshly allocated Ring of the given
// capacity.
func NewGuard(capacity int) *Guard {
	return &Guard{ring: NewRing(capacity)}
}

// SetEvictFunc installs a callback invoked (under the guard's lock) with
// the raw bytes of any command evicted on overflow. Pass nil to disable.
func (g *Guard) SetEvictFunc(f EvictFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onEvict = f
}

// AppendAndAdvance appends bytes to the log and advances the append cursor
// A by exactly len(b) minus whatever was evicted to make room, preserving
// the invariant that A always names the next append position in the
// virtual concatenation. Returns the resulting value of A.
func (g *Guard) AppendAndAdvance(b []byte) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.appendAndAdvanceLocked(b)
}

// ReadAt copies up to len(out) bytes starting at flat offset off. A short
// read (fewer bytes than len(out)) means the log end was reached.
func (g *Guard) ReadAt(off int, out []byte) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ring.ReadAt(out, off)
}

// AppendCursor returns the current value of A.
func (g *Guard) AppendCursor() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cursor
}

// FindByCommand resolves (cmdIndex, intra) to a flat offset under the
// guard's lock, so the resolution is consistent with any concurrent
// append.
func (g *Guard) FindByCommand(cmdIndex, intra int) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ring.FindByCommand(cmdIndex, intra)
}

// Lock and Unlock give a caller (the Connection Worker) a single critical
// section spanning resolve/append AND the subsequent streaming reads, per
// spec §4.4: "release the guard only after streaming" so that no other
// worker's append can interleave into a response in flight (spec §5,
// property S6). Callers holding the lock must use the *Locked accessors
// below, never the self-locking methods above (which would deadlock).
func (g *Guard) Lock()   { g.mu.Lock() }
func (g *Guard) Unlock() { g.mu.Unlock() }

// AppendAndAdvanceLocked is AppendAndAdvance for a caller already holding
// the lock via Lock.
func (g *Guard) AppendAndAdvanceLocked(b []byte) int {
	return g.appendAndAdvanceLocked(b)
}

// ReadAtLocked is ReadAt for a caller already holding the lock via Lock.
func (g *Guard) ReadAtLocked(off int, out []byte) int {
	return g.ring.ReadAt(out, off)
}

// FindByCommandLocked is FindByCommand for a caller already holding the
// lock via Lock.
func (g *Guard) FindByCommandLocked(cmdIndex, intra int) (int, error) {
	return g.ring.FindByCommand(cmdIndex, intra)
}

func (g *Guard) appendAndAdvanceLocked(b []byte) int {
	if g.onEvict != nil && g.ring.WillEvict(len(b)) {
		victim := g.ring.EvictedBytes()
		defer func() { g.onEvict(victim) }()
	}

	evicted := g.ring.Append(b)
	g.cursor = g.cursor - evicted + len(b)
	return g.cursor
}

// Clear empties the log and resets the append cursor to 0.
func (g *Guard) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ring.Clear()
	g.cursor = 0
}

// Snapshot returns a copy of the entire virtual concatenation, for
// diagnostics (the admin console's "tail" command). Not part of the wire
// protocol's hot path.
func (g *Guard) Snapshot() []byte {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]byte, g.ring.Total())
	g.ring.ReadAt(out, 0)
	return out
}

// Stats reports a point-in-time view of ring occupancy for administrator
// visibility (spec §7: "Administrators see log lines categorized by
// severity").
type Stats struct {
	Count  int
	Total  int
	Cursor int
}

func (g *Guard) StatsSnapshot() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Stats{Count: g.ring.Count(), Total: g.ring.Total(), Cursor: g.cursor}
}
