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
	"bytes"

	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// Codec compresses archive payloads before they reach a Sink. Grounded on
// scm/streams.go's "xz" stream command, which wraps xz.NewWriter/NewReader
// around an arbitrary stream; cmdlogd applies the same wrapping to whole
// evicted-command payloads instead of a user-level script stream.
type Codec interface {
	Compress(p []byte) ([]byte, error)
	Decompress(p []byte) ([]byte, error)
	Name() string
}

// XZCodec favors ratio over speed, matching scm/streams.go's choice of xz
// for its "xz" stream filter.
type XZCodec struct{}

func (XZCodec) Name() string { return "xz" }

func (XZCodec) Compress(p []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(p); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (XZCodec) Decompress(p []byte) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(p))
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if _, err := out.ReadFrom(r); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// LZ4Codec favors speed over ratio, for archive backends where export
// throughput matters more than archive storage cost (the teacher doesn't
// use lz4 directly, but carries it in go.mod for its columnar storage
// paths; cmdlogd gives it a concrete home as the low-latency alternative
// to XZCodec).
type LZ4Codec struct{}

func (LZ4Codec) Name() string { return "lz4" }

func (LZ4Codec) Compress(p []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(p); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (LZ4Codec) Decompress(p []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(p))
	var out bytes.Buffer
	if _, err := out.ReadFrom(r); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
