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

import "github.com/jtolds/gls"

// glsMgr propagates the worker ID into goroutines spawned for a
// connection, so code deep inside a worker's call stack (including log
// lines emitted from helpers that don't carry an explicit worker
// reference) can tag itself correctly. Grounded on storage/compute.go's
// gls.Go usage for per-goroutine context in memcp's parallel compute path.
var glsMgr = gls.NewContextManager()

const workerIDKey = "cmdlogd.worker_id"

// goWithWorkerID spawns fn in a new goroutine with id bound to workerIDKey
// for the lifetime of that goroutine (and anything it spawns via gls.Go).
func goWithWorkerID(id uint64, fn func()) {
	glsMgr.SetValues(gls.Values{workerIDKey: id}, func() {
		gls.Go(fn)
	})
}

// currentWorkerID reads the worker ID bound by the nearest enclosing
// goWithWorkerID call, or 0 if none (e.g. the supervisor's own goroutine).
func currentWorkerID() uint64 {
	if v, ok := glsMgr.GetValue(workerIDKey); ok {
		if id, ok := v.(uint64); ok {
			return id
		}
	}
	return 0
}
