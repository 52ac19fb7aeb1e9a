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
	"sync"

	"github.com/google/btree"
	"github.com/google/uuid"
)

type indexEntry struct {
	seq uint64
	key uuid.UUID
}

// Index is an ordered lookup from monotonic global eviction sequence
// number to archive key, grounded on storage/index.go's deltaBtree: a
// small in-memory BTreeG keeping the audit trail queryable by operators
// ("what happened to command N that got evicted?") without needing the
// underlying sink's own listing API.
type Index struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[indexEntry]
}

// NewIndex allocates an empty index with the degree storage/index.go uses
// for its own delta btree.
func NewIndex() *Index {
	return &Index{
		tree: btree.NewG(8, func(a, b indexEntry) bool {
			return a.seq < b.seq
		}),
	}
}

// Record adds (seq -> key) to the index. Called by Archiver after a
// successful sink.Store.
func (ix *Index) Record(seq uint64, key uuid.UUID) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.tree.ReplaceOrInsert(indexEntry{seq: seq, key: key})
}

// Lookup returns the archive key for seq, if present.
func (ix *Index) Lookup(seq uint64) (uuid.UUID, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	item, ok := ix.tree.Get(indexEntry{seq: seq})
	if !ok {
		return uuid.UUID{}, false
	}
	return item.key, true
}

// Range calls fn for every indexed entry with seq in [from, to), in
// ascending sequence order, stopping early if fn returns false.
func (ix *Index) Range(from, to uint64, fn func(seq uint64, key uuid.UUID) bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	ix.tree.AscendRange(indexEntry{seq: from}, indexEntry{seq: to}, func(e indexEntry) bool {
		return fn(e.seq, e.key)
	})
}

// Len reports how many entries are indexed.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.tree.Len()
}
