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

package server

import (
	"time"

	nlrm "github.com/launix-de/NonLockingReadMap"
)

// WorkerRecord is a read-only snapshot of one connection worker, published
// into the Registry when the worker starts and removed when it exits. The
// supervisor is the only writer; any goroutine (e.g. the admin console's
// "workers" command) may read concurrently without blocking behind the
// supervisor's reaping loop.
type WorkerRecord struct {
	ID        uint64
	Addr      string
	StartedAt time.Time
}

func (w WorkerRecord) GetKey() uint64    { return w.ID }
func (w WorkerRecord) ComputeSize() uint { return uint(16 + len(w.Addr) + 24) }

// Registry is a lock-free, read-optimized view of currently live
// connection workers, grounded on NonLockingReadMap: reads are always
// non-blocking, writes (worker start/stop) are comparatively rare.
type Registry struct {
	m nlrm.NonLockingReadMap[WorkerRecord, uint64]
}

// NewRegistry allocates an empty registry.
func NewRegistry() *Registry {
	return &Registry{m: nlrm.New[WorkerRecord, uint64]()}
}

func (r *Registry) add(id uint64, addr string) {
	rec := WorkerRecord{ID: id, Addr: addr, StartedAt: time.Now()}
	r.m.Set(&rec)
}

func (r *Registry) remove(id uint64) {
	r.m.Remove(id)
}

// Snapshot returns the currently live workers, ordered by worker ID.
func (r *Registry) Snapshot() []WorkerRecord {
	items := r.m.GetAll()
	out := make([]WorkerRecord, len(items))
	for i, it := range items {
		out[i] = *it
	}
	return out
}

// Len reports the number of currently live workers.
func (r *Registry) Len() int {
	return len(r.m.GetAll())
}
