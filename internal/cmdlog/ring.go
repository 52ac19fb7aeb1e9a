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

// DefaultCapacity is the reference ring capacity N from spec §6.
const DefaultCapacity = 10

// Ring is a fixed-capacity FIFO of completed write-commands, addressable by
// a flat byte offset over their virtual concatenation or by
// (command index, intra-command offset). All operations are unsynchronized;
// callers needing mutual exclusion use Guard.
type Ring struct {
	slots []entry
	head  int // next slot to write
	tail  int // oldest occupied slot
	full  bool
}

// NewRing allocates a ring of the given capacity (must be >= 1).
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Ring{slots: make([]entry, capacity)}
}

// Count returns the number of occupied slots (0..capacity).
func (r *Ring) Count() int {
	n := len(r.slots)
	if r.full {
		return n
	}
	return ((r.head-r.tail)%n + n) % n
}

// Total returns T, the length of the virtual concatenation of all occupied
// slots.
func (r *Ring) Total() int {
	n := len(r.slots)
	count := r.Count()
	total := 0
	for i := 0; i < count; i++ {
		total += r.slots[(r.tail+i)%n].size()
	}
	return total
}

// Append inserts bytes, extending the current open tail in place if one
// exists, otherwise inserting a fresh command (evicting the oldest command
// if the ring is full). Returns the size of the evicted command, or 0 if
// nothing was evicted.
func (r *Ring) Append(b []byte) int {
	n := len(r.slots)
	count := r.Count()

	if len(b) == 0 && count == 0 {
		// no-op: nothing to extend, nothing to insert
		return 0
	}

	if count > 0 {
		tailIdx := (r.head - 1 + n) % n
		if !r.slots[tailIdx].terminated() {
			old := r.slots[tailIdx].bytes
			grown := make([]byte, len(old)+len(b))
			copy(grown, old)
			copy(grown[len(old):], b)
			r.slots[tailIdx].bytes = grown
			return 0
		}
	}

	evicted := 0
	if r.full {
		evicted = r.slots[r.tail].size()
		r.slots[r.tail].bytes = nil
		r.tail = (r.tail + 1) % n
	}

	fresh := make([]byte, len(b))
	copy(fresh, b)
	r.slots[r.head] = entry{bytes: fresh}
	r.head = (r.head + 1) % n
	r.full = r.head == r.tail
	return evicted
}

// locate walks from tail and returns the ring-relative step i (0-based,
// i.e. the slot is (tail+i)%n), the intra-command offset within that slot,
// and whether off names a valid position. off == size(slot) is accepted
// only when that slot is the open tail; a terminated slot rejects it
// (spec §9 Open Question).
func (r *Ring) locate(off int) (i, intra int, ok bool) {
	n := len(r.slots)
	count := r.Count()
	remaining := off
	for step := 0; step < count; step++ {
		slotIdx := (r.tail + step) % n
		sz := r.slots[slotIdx].size()
		if remaining < sz || (remaining == sz && !r.slots[slotIdx].terminated()) {
			return step, remaining, true
		}
		remaining -= sz
	}
	return 0, 0, false
}

// FindByFlatOffset locates the slot and intra-command offset naming a flat
// offset into the virtual concatenation. Exposed for diagnostic use; the
// ring-relative step (not the absolute slot index) is returned so callers
// cannot accidentally depend on slot indices surviving an eviction.
func (r *Ring) FindByFlatOffset(off int) (step, intra int, ok bool) {
	return r.locate(off)
}

// FindByCommand resolves (cmdIndex, intra) — a command ordinal within the
// currently resident ring (0 = oldest) and a byte offset inside it — to a
// flat offset. Returns ErrInvalid if cmdIndex or intra is out of range.
func (r *Ring) FindByCommand(cmdIndex, intra int) (int, error) {
	n := len(r.slots)
	count := r.Count()
	if cmdIndex < 0 || cmdIndex >= count {
		return 0, ErrInvalid
	}
	slotIdx := (r.tail + cmdIndex) % n
	if intra < 0 || intra >= r.slots[slotIdx].size() {
		return 0, ErrInvalid
	}
	flat := 0
	for i := 0; i < cmdIndex; i++ {
		flat += r.slots[(r.tail+i)%n].size()
	}
	return flat + intra, nil
}

// ReadAt copies bytes starting at flat offset off into out, stopping early
// if the log ends before out is filled. The number of bytes written is
// returned; a short read (n < len(out)) means "end of log reached" and
// must not be treated as an error by the caller.
func (r *Ring) ReadAt(out []byte, off int) int {
	n := len(r.slots)
	count := r.Count()
	step, intra, ok := r.locate(off)
	if !ok {
		return 0
	}
	written := 0
	for ; step < count && written < len(out); step++ {
		slotIdx := (r.tail + step) % n
		remainder := r.slots[slotIdx].bytes[intra:]
		copied := copy(out[written:], remainder)
		written += copied
		intra = 0
		if copied < len(remainder) {
			break // out buffer is full, not log end
		}
	}
	return written
}

// WillEvict reports whether the next Append(b) for a command of the given
// length would evict the oldest command (true iff the ring is full and
// there is no open tail to extend instead). Used by Guard to snapshot the
// victim's bytes for the audit archiver before Append frees them.
func (r *Ring) WillEvict(bLen int) bool {
	n := len(r.slots)
	count := r.Count()
	if bLen == 0 && count == 0 {
		return false
	}
	if count > 0 {
		tailIdx := (r.head - 1 + n) % n
		if !r.slots[tailIdx].terminated() {
			return false // extends in place, no eviction
		}
	}
	return r.full
}

// EvictedBytes returns a copy of the command that WillEvict predicted would
// be evicted. Only meaningful when WillEvict just returned true for the
// same ring state.
func (r *Ring) EvictedBytes() []byte {
	victim := r.slots[r.tail].bytes
	cp := make([]byte, len(victim))
	copy(cp, victim)
	return cp
}

// Clear frees every occupied slot and resets ring state. A no-op on an
// already-empty ring.
func (r *Ring) Clear() {
	for i := range r.slots {
		r.slots[i] = entry{}
	}
	r.head = 0
	r.tail = 0
	r.full = false
}
