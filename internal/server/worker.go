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

// Package server implements the Connection Worker and the Listener &
// Supervisor of spec §4.4-4.5: a TCP front-end funneling client lines into
// a shared cmdlog.Guard and streaming the log back.
package server

import (
	"bufio"
	"errors"
	"net"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/launix-de/cmdlogd/internal/cmdlog"
	"github.com/launix-de/cmdlogd/internal/logging"
)

// StreamBlockSize is the block size used when streaming the log back to a
// client, per spec §6.
const StreamBlockSize = 4096

// worker holds the per-connection state of spec §4.4: the socket, the
// private per-connection cursor P, a private line buffer, and a reference
// to the shared Log Guard.
type worker struct {
	id       uint64
	uuid     uuid.UUID
	conn     net.Conn
	addr     string
	guard    *cmdlog.Guard
	reader   *bufio.Reader
	lineBuf  *cmdlog.LineBuffer
	cursor   int // P
	exitFlag atomic.Bool
	doneFlag atomic.Bool
	log      *logging.Logger
}

func newWorker(id uint64, conn net.Conn, guard *cmdlog.Guard, log *logging.Logger) *worker {
	return &worker{
		id:      id,
		uuid:    uuid.New(),
		conn:    conn,
		addr:    conn.RemoteAddr().String(),
		guard:   guard,
		reader:  bufio.NewReader(conn),
		lineBuf: cmdlog.NewLineBuffer(),
		log:     log,
	}
}

// requestExit is called by the supervisor to cooperatively ask this worker
// to terminate; the worker observes it between reads (spec §5).
func (w *worker) requestExit() {
	w.exitFlag.Store(true)
	// Unblock a pending read so the flag is observed promptly rather than
	// waiting indefinitely for the next client byte.
	w.conn.Close()
}

// run is the worker's loop (spec §4.4). It returns when the client closes
// the connection, the supervisor asks it to exit, or a socket error
// occurs; socket errors are local to this worker and never propagate.
func (w *worker) run() {
	defer w.conn.Close()
	// currentWorkerID reads back what goWithWorkerID bound for this
	// goroutine; it should always agree with w.id.
	id := currentWorkerID()
	w.log.Infof("new connection from %s (worker %d)", w.addr, id)
	defer w.log.Infof("closed connection from %s (worker %d)", w.addr, id)

	for {
		if w.exitFlag.Load() {
			return
		}

		n, err := cmdlog.ReadLine(w.reader, w.lineBuf)
		if err != nil {
			if !w.exitFlag.Load() {
				w.log.Warnf("worker %d: read error: %v", id, err)
			}
			return
		}
		if n == 0 {
			return // EOF: client closed the connection
		}

		line := w.lineBuf.Bytes()
		if x, y, ok := cmdlog.ParseControl(line); ok {
			if err := w.handleControl(x, y); err != nil {
				w.log.Warnf("worker %d: bad control line (%d,%d): %v", id, x, y, err)
				return
			}
			continue
		}

		if err := w.handleData(line); err != nil {
			w.log.Warnf("worker %d: stream error: %v", id, err)
			return
		}
	}
}

// handleControl implements spec §4.4 step 2: resolve the seek and stream
// from there to the current end of log, all inside one guard acquisition
// (spec §4.4/§5: "release the guard only after streaming") so a peer's
// append can never interleave into this response.
func (w *worker) handleControl(x, y uint32) error {
	w.guard.Lock()
	defer w.guard.Unlock()

	flat, err := w.guard.FindByCommandLocked(int(x), int(y))
	if err != nil {
		return err
	}
	w.cursor = flat
	return w.streamFromCursorLocked()
}

// handleData implements spec §4.4 step 3: append, reset P to 0 (a data line
// echoes the whole log), then stream — under one guard acquisition for the
// same reason as handleControl.
func (w *worker) handleData(line []byte) error {
	w.guard.Lock()
	defer w.guard.Unlock()

	w.guard.AppendAndAdvanceLocked(line)
	w.cursor = 0
	return w.streamFromCursorLocked()
}

// streamFromCursorLocked streams the log from w.cursor to the current end,
// advancing w.cursor as it goes. Assumes the caller already holds the guard
// (via Lock). A short read from the guard means the log end was reached
// (spec §4.1 "short reads as termination"), not an error.
func (w *worker) streamFromCursorLocked() error {
	buf := make([]byte, StreamBlockSize)
	for {
		n := w.guard.ReadAtLocked(w.cursor, buf)
		if n == 0 {
			return nil
		}
		if _, err := w.conn.Write(buf[:n]); err != nil {
			return errors.New("cmdlogd: write to client failed: " + err.Error())
		}
		w.cursor += n
		if n < len(buf) {
			return nil // log end reached mid-block
		}
	}
}
