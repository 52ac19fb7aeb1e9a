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

// Package archive is the audit archiver: a one-way export of evicted
// commands to a pluggable durable sink. It exists purely so operators can
// recover what rolled off the live ring; it never feeds back into
// cmdlog.Guard, so it gives cmdlogd no restart-recovery capability (the
// live ring is still non-durable by design).
//
// Grounded on storage/persistence.go's PersistenceEngine interface shape,
// adapted from "storage engine for a database" to "one-way sink for
// evicted bytes".
package archive

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/launix-de/cmdlogd/internal/cmdlog"
)

// Entry is one evicted command handed to a Sink.
type Entry struct {
	Key       uuid.UUID // audit key, also used as the archive object name
	Seq       uint64    // monotonic global eviction sequence number
	Payload   []byte
	EvictedAt time.Time
}

// Sink durably stores evicted Entries. Implementations must be safe for
// concurrent Store calls; the archiver serializes calls per instance today
// but a Sink may be shared.
type Sink interface {
	Store(ctx context.Context, e Entry) error
	Close() error
}

// Factory builds a Sink from a scheme-specific config blob, mirroring
// storage/persistence.go's PersistenceFactory / BackendRegistry pattern.
type Factory func(cfg map[string]string) (Sink, error)

var registryMu sync.Mutex
var registry = map[string]Factory{}

// Register adds a sink factory under scheme, e.g. "s3", "ceph", "mysql",
// "postgres". Called from each sink file's init(), just like
// storage.BackendRegistry.
func Register(scheme string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[scheme] = f
}

// Build looks up scheme in the registry and constructs a Sink.
func Build(scheme string, cfg map[string]string) (Sink, error) {
	registryMu.Lock()
	f, ok := registry[scheme]
	registryMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("cmdlogd: no archive sink registered for scheme %q: %w", scheme, cmdlog.ErrInvalid)
	}
	return f(cfg)
}

// Archiver drives evicted bytes from a Guard into a Sink, optionally
// compressing and indexing them. Its EvictFunc is meant to be installed
// via Guard.SetEvictFunc; it never blocks the guard's own lock for longer
// than it takes to enqueue, so a slow sink cannot stall the hot append
// path.
type Archiver struct {
	sink    Sink
	codec   Codec
	index   *Index
	seq     uint64
	mu      sync.Mutex
	queue   chan []byte
	done    chan struct{}
	onError func(error)
}

// NewArchiver wires sink, codec (nil for none) and index (nil to skip
// indexing) into a running background worker that drains evicted payloads.
func NewArchiver(sink Sink, codec Codec, index *Index, onError func(error)) *Archiver {
	a := &Archiver{
		sink:    sink,
		codec:   codec,
		index:   index,
		queue:   make(chan []byte, 256),
		done:    make(chan struct{}),
		onError: onError,
	}
	go a.loop()
	return a
}

// EvictFunc is installed on a Guard via SetEvictFunc; it must return fast,
// so it only enqueues — the actual sink I/O happens on the Archiver's own
// goroutine.
func (a *Archiver) EvictFunc(evicted []byte) {
	cp := make([]byte, len(evicted))
	copy(cp, evicted)
	select {
	case a.queue <- cp:
	default:
		if a.onError != nil {
			a.onError(fmt.Errorf("cmdlogd: archive queue full, dropping %d evicted bytes", len(cp)))
		}
	}
}

func (a *Archiver) loop() {
	defer close(a.done)
	for payload := range a.queue {
		a.store(payload)
	}
}

func (a *Archiver) store(payload []byte) {
	a.mu.Lock()
	seq := a.seq
	a.seq++
	a.mu.Unlock()

	body := payload
	if a.codec != nil {
		compressed, err := a.codec.Compress(payload)
		if err != nil {
			a.reportError(fmt.Errorf("cmdlogd: compress archive entry %d: %w", seq, err))
			return
		}
		body = compressed
	}

	entry := Entry{Key: uuid.New(), Seq: seq, Payload: body, EvictedAt: time.Now()}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := a.sink.Store(ctx, entry); err != nil {
		a.reportError(fmt.Errorf("cmdlogd: archive sink store entry %d: %w", seq, err))
		return
	}
	if a.index != nil {
		a.index.Record(seq, entry.Key)
	}
}

func (a *Archiver) reportError(err error) {
	if a.onError != nil {
		a.onError(err)
	}
}

// Close stops accepting new entries and waits for the queue to drain, then
// closes the underlying sink.
func (a *Archiver) Close() error {
	close(a.queue)
	<-a.done
	return a.sink.Close()
}
