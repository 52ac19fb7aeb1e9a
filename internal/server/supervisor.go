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
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/launix-de/cmdlogd/internal/cmdlog"
	"github.com/launix-de/cmdlogd/internal/logging"
)

// DefaultPollInterval is how often the supervisor reaps finished workers,
// the Go analogue of the original's 2-second select() wake (spec §4.5).
const DefaultPollInterval = 2 * time.Second

// Supervisor owns the listening socket, the live worker set and the
// periodic housekeeping (reaping, timestamp emission) described in spec
// §4.5 and §4.7. One Supervisor serves one Guard.
type Supervisor struct {
	guard *cmdlog.Guard
	ln    net.Listener
	log   *logging.Logger

	Registry *Registry

	nextID atomic.Uint64

	workersMu sync.Mutex
	workers   map[uint64]*worker

	pollInterval      time.Duration
	timestampInterval time.Duration
}

// New binds listenAddr and returns a Supervisor ready to Run.
func New(listenAddr string, guard *cmdlog.Guard, log *logging.Logger) (*Supervisor, error) {
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return nil, fmt.Errorf("cmdlogd: listen %s: %w", listenAddr, cmdlog.ErrIo)
	}
	return &Supervisor{
		guard:             guard,
		ln:                ln,
		log:               log,
		Registry:          NewRegistry(),
		workers:           make(map[uint64]*worker),
		pollInterval:      DefaultPollInterval,
		timestampInterval: DefaultTimestampInterval,
	}, nil
}

// Addr reports the bound local address, useful when listenAddr used port 0.
func (s *Supervisor) Addr() net.Addr {
	return s.ln.Addr()
}

// SetPollInterval overrides the reaping cadence. Run reads it once when it
// starts; a Run already in progress keeps the interval it started with.
func (s *Supervisor) SetPollInterval(d time.Duration) { s.pollInterval = d }

// SetTimestampInterval overrides the timestamp cadence. Run reads it once
// when it starts; a Run already in progress keeps the interval it started
// with.
func (s *Supervisor) SetTimestampInterval(d time.Duration) { s.timestampInterval = d }

// Run accepts connections and drives the housekeeping loop until ctx is
// canceled, then asks every live worker to exit and waits (bounded) for
// them to drain before returning. It mirrors the original's single-threaded
// select() loop: one goroutine owns the listener, the tickers and the
// worker bookkeeping, while the actual byte shuffling happens in per-worker
// goroutines spawned via gls.Go (internal/server/context.go).
func (s *Supervisor) Run(ctx context.Context) error {
	type acceptResult struct {
		conn net.Conn
		err  error
	}
	acceptCh := make(chan acceptResult)
	go func() {
		for {
			conn, err := s.ln.Accept()
			acceptCh <- acceptResult{conn, err}
			if err != nil {
				return
			}
		}
	}()

	pollTicker := time.NewTicker(s.pollInterval)
	defer pollTicker.Stop()
	tsTicker := time.NewTicker(s.timestampInterval)
	defer tsTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return nil

		case res := <-acceptCh:
			if res.err != nil {
				s.log.Errorf("accept: %v", res.err)
				s.shutdown()
				return fmt.Errorf("cmdlogd: accept loop terminated: %w", cmdlog.ErrFatal)
			}
			s.spawnWorker(res.conn)

		case <-pollTicker.C:
			s.reap()

		case <-tsTicker.C:
			appendTimestamp(s.guard, time.Now())
		}
	}
}

func (s *Supervisor) spawnWorker(conn net.Conn) {
	id := s.nextID.Add(1)
	w := newWorker(id, conn, s.guard, s.log)

	s.workersMu.Lock()
	s.workers[id] = w
	s.workersMu.Unlock()
	s.Registry.add(id, w.addr)

	goWithWorkerID(id, func() {
		w.run()
		w.doneFlag.Store(true)
	})
}

// reap drops workers whose goroutine has returned, the Go stand-in for the
// original's pthread_join-on-done_flag sweep.
func (s *Supervisor) reap() {
	s.workersMu.Lock()
	defer s.workersMu.Unlock()
	for id, w := range s.workers {
		if w.doneFlag.Load() {
			delete(s.workers, id)
			s.Registry.remove(id)
		}
	}
}

// shutdown asks every live worker to exit and waits up to 5s for the set to
// drain, reaping as workers finish.
func (s *Supervisor) shutdown() {
	s.ln.Close()

	s.workersMu.Lock()
	live := make([]*worker, 0, len(s.workers))
	for _, w := range s.workers {
		live = append(live, w)
	}
	s.workersMu.Unlock()

	for _, w := range live {
		w.requestExit()
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		s.workersMu.Lock()
		remaining := len(s.workers)
		s.workersMu.Unlock()
		if remaining == 0 || time.Now().After(deadline) {
			return
		}
		s.reap()
		time.Sleep(25 * time.Millisecond)
	}
}

// NumWorkers reports the number of currently tracked (not-yet-reaped)
// workers; used by tests.
func (s *Supervisor) NumWorkers() int {
	s.workersMu.Lock()
	defer s.workersMu.Unlock()
	return len(s.workers)
}
