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

package archive

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
)

type memorySink struct {
	mu      sync.Mutex
	entries []Entry
	closed  bool
}

func (m *memorySink) Store(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *memorySink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *memorySink) snapshot() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

func TestArchiverStoresEvictedPayloads(t *testing.T) {
	sink := &memorySink{}
	idx := NewIndex()
	a := NewArchiver(sink, nil, idx, nil)

	a.EvictFunc([]byte("evicted one\n"))
	a.EvictFunc([]byte("evicted two\n"))

	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	got := sink.snapshot()
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if string(got[0].Payload) != "evicted one\n" || string(got[1].Payload) != "evicted two\n" {
		t.Fatalf("payloads out of order or wrong: %q %q", got[0].Payload, got[1].Payload)
	}
	if !sink.closed {
		t.Fatalf("sink was not closed")
	}
	if idx.Len() != 2 {
		t.Fatalf("index has %d entries, want 2", idx.Len())
	}
	if _, ok := idx.Lookup(0); !ok {
		t.Fatalf("index missing seq 0")
	}
}

func TestArchiverCompressesWhenCodecSet(t *testing.T) {
	sink := &memorySink{}
	a := NewArchiver(sink, XZCodec{}, nil, nil)

	payload := []byte("a line that should compress fine when xz-wrapped\n")
	a.EvictFunc(payload)
	a.Close()

	got := sink.snapshot()
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1", len(got))
	}
	raw, err := (XZCodec{}).Decompress(got[0].Payload)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if string(raw) != string(payload) {
		t.Fatalf("round trip mismatch: got %q, want %q", raw, payload)
	}
}

func TestXZCodecRoundTrip(t *testing.T) {
	c := XZCodec{}
	in := []byte("xz round trip payload")
	out, err := c.Compress(in)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	back, err := c.Decompress(out)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if string(back) != string(in) {
		t.Fatalf("got %q, want %q", back, in)
	}
}

func TestLZ4CodecRoundTrip(t *testing.T) {
	c := LZ4Codec{}
	in := []byte("lz4 round trip payload")
	out, err := c.Compress(in)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	back, err := c.Decompress(out)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if string(back) != string(in) {
		t.Fatalf("got %q, want %q", back, in)
	}
}

func TestIndexRange(t *testing.T) {
	idx := NewIndex()
	for seq := uint64(0); seq < 5; seq++ {
		idx.Record(seq, uuid.New())
	}
	var seen []uint64
	idx.Range(1, 4, func(seq uint64, _ uuid.UUID) bool {
		seen = append(seen, seq)
		return true
	})
	if len(seen) != 3 || seen[0] != 1 || seen[2] != 3 {
		t.Fatalf("got %v, want [1 2 3]", seen)
	}
}

func TestBuildUnknownSchemeIsError(t *testing.T) {
	if _, err := Build("nonexistent-scheme", nil); err == nil {
		t.Fatalf("expected error for unknown scheme")
	}
}
