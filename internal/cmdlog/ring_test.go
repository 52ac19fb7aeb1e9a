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

import (
	"bytes"
	"testing"
)

// S1: overflow evicts oldest commands, keeping exactly the last N.
func TestRingOverflow(t *testing.T) {
	r := NewRing(10)
	letters := []string{"a\n", "b\n", "c\n", "d\n", "e\n", "f\n", "g\n", "h\n", "i\n", "j\n", "k\n"}
	for _, s := range letters {
		r.Append([]byte(s))
	}
	if got, want := r.Count(), 10; got != want {
		t.Fatalf("count = %d, want %d", got, want)
	}
	want := "b\nc\nd\ne\nf\ng\nh\ni\nj\nk\n"
	got := make([]byte, r.Total())
	r.ReadAt(got, 0)
	if string(got) != want {
		t.Fatalf("virtual concatenation = %q, want %q", got, want)
	}
	if r.Total() != 20 {
		t.Fatalf("T = %d, want 20", r.Total())
	}
}

// S2: open-tail coalescing.
func TestRingCoalescing(t *testing.T) {
	r := NewRing(10)
	r.Append([]byte("hel"))
	r.Append([]byte("lo\n"))
	if r.Count() != 1 {
		t.Fatalf("count = %d, want 1", r.Count())
	}
	got := make([]byte, r.Total())
	r.ReadAt(got, 0)
	if string(got) != "hello\n" {
		t.Fatalf("concat = %q, want %q", got, "hello\n")
	}
}

// S3: flat lookup at the open-tail extension point.
func TestRingFindByFlatOffsetOpenTail(t *testing.T) {
	r := NewRing(10)
	r.Append([]byte("hel"))
	step, intra, ok := r.FindByFlatOffset(3)
	if !ok || step != 0 || intra != 3 {
		t.Fatalf("FindByFlatOffset(3) = (%d,%d,%v), want (0,3,true)", step, intra, ok)
	}
}

// S4/S5: SEEKTO resolution and bounds.
func TestRingFindByCommand(t *testing.T) {
	r := NewRing(10)
	r.Append([]byte("abc\n"))
	r.Append([]byte("defg\n"))
	r.Append([]byte("hi\n"))

	flat, err := r.FindByCommand(1, 2)
	if err != nil || flat != 6 {
		t.Fatalf("FindByCommand(1,2) = (%d,%v), want (6,nil)", flat, err)
	}
	out := make([]byte, 6)
	n := r.ReadAt(out, flat)
	if string(out[:n]) != "fg\nhi\n" {
		t.Fatalf("stream from 6 = %q, want %q", out[:n], "fg\nhi\n")
	}

	if _, err := r.FindByCommand(1, 4); err != nil {
		t.Fatalf("FindByCommand(1,4) should be valid (last byte), got %v", err)
	}
	if _, err := r.FindByCommand(1, 5); err != ErrInvalid {
		t.Fatalf("FindByCommand(1,5) = %v, want ErrInvalid", err)
	}
}

// Property 4: extension invariant.
func TestRingExtensionInvariant(t *testing.T) {
	r := NewRing(10)
	r.Append([]byte("partial"))
	if r.Count() != 1 {
		t.Fatalf("count = %d, want 1", r.Count())
	}
	before := r.Total()
	r.Append([]byte(" more"))
	if r.Count() != 1 {
		t.Fatalf("count after extend = %d, want 1", r.Count())
	}
	if r.Total() != before+len(" more") {
		t.Fatalf("total = %d, want %d", r.Total(), before+len(" more"))
	}
}

func TestRingOpenQuestionRejectOffsetAtTerminatedTailEnd(t *testing.T) {
	r := NewRing(10)
	r.Append([]byte("done\n"))
	if _, _, ok := r.FindByFlatOffset(5); ok {
		t.Fatalf("FindByFlatOffset(T) on terminated tail should reject")
	}
	out := make([]byte, 1)
	if n := r.ReadAt(out, 5); n != 0 {
		t.Fatalf("ReadAt(T) on terminated tail should read 0 bytes, got %d", n)
	}
}

func TestRingOpenTailAcceptsOffsetAtEnd(t *testing.T) {
	r := NewRing(10)
	r.Append([]byte("open"))
	if _, _, ok := r.FindByFlatOffset(4); !ok {
		t.Fatalf("FindByFlatOffset(T) on open tail should accept")
	}
}

func TestRingEmptyLog(t *testing.T) {
	r := NewRing(10)
	if _, _, ok := r.FindByFlatOffset(0); ok {
		t.Fatalf("empty log should reject any offset")
	}
	out := make([]byte, 4)
	if n := r.ReadAt(out, 0); n != 0 {
		t.Fatalf("ReadAt on empty log = %d, want 0", n)
	}
	if _, err := r.FindByCommand(0, 0); err != ErrInvalid {
		t.Fatalf("FindByCommand on empty log = %v, want ErrInvalid", err)
	}
}

func TestRingZeroLengthAppendNoopOnEmpty(t *testing.T) {
	r := NewRing(10)
	r.Append(nil)
	if r.Count() != 0 {
		t.Fatalf("zero-length append to empty log should be a no-op, count = %d", r.Count())
	}
}

func TestRingClearIdempotent(t *testing.T) {
	r := NewRing(10)
	r.Clear()
	if r.Count() != 0 {
		t.Fatalf("clearing empty ring changed count")
	}
	r.Append([]byte("x\n"))
	r.Clear()
	r.Clear()
	if r.Count() != 0 || r.Total() != 0 {
		t.Fatalf("double clear left state: count=%d total=%d", r.Count(), r.Total())
	}
}

func TestRingShortReadAtLogEnd(t *testing.T) {
	r := NewRing(10)
	r.Append([]byte("abc\n"))
	out := make([]byte, 10)
	n := r.ReadAt(out, 0)
	if n != 4 || !bytes.Equal(out[:n], []byte("abc\n")) {
		t.Fatalf("short read = %q (%d), want abc\\n (4)", out[:n], n)
	}
}
