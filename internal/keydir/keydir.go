// Package keydir provides the in-memory ordered index mapping live keys
// to the byte range of their current value within the log. Keys are
// ordered by unsigned lexicographic byte comparison.
package keydir

import (
	"bytes"

	"github.com/google/btree"
)

// Entry records where a key's current value lives in the log: the byte
// offset of the first value byte, and the value's length.
type Entry struct {
	Key    []byte
	Offset int64
	Length uint32
}

// Less implements btree.Item ordering over raw key bytes.
func (e *Entry) Less(than btree.Item) bool {
	return bytes.Compare(e.Key, than.(*Entry).Key) < 0
}

// keyOnly is used to probe the tree for a given key without allocating a
// full Entry.
func keyOnly(key []byte) *Entry { return &Entry{Key: key} }

// KeyDir is an ordered, in-memory index over live keys. It is not
// safe for concurrent use; callers serialize access the same way they
// serialize access to the owning Store.
type KeyDir struct {
	tree *btree.BTree
}

// New returns an empty KeyDir.
func New() *KeyDir {
	return &KeyDir{tree: btree.New(32)}
}

// Set inserts or replaces the entry for key.
func (d *KeyDir) Set(key []byte, offset int64, length uint32) {
	k := make([]byte, len(key))
	copy(k, key)
	d.tree.ReplaceOrInsert(&Entry{Key: k, Offset: offset, Length: length})
}

// Delete removes the entry for key, if present.
func (d *KeyDir) Delete(key []byte) {
	d.tree.Delete(keyOnly(key))
}

// Get looks up the entry for key. ok is false if the key has no live entry.
func (d *KeyDir) Get(key []byte) (Entry, bool) {
	item := d.tree.Get(keyOnly(key))
	if item == nil {
		return Entry{}, false
	}
	return *item.(*Entry), true
}

// Len returns the number of live keys.
func (d *KeyDir) Len() int {
	return d.tree.Len()
}

// Bound is one edge of a scan range: a key together with whether that key
// itself is included.
type Bound struct {
	Key      []byte
	Inclusive bool
	Unbounded bool
}

// Included returns an inclusive Bound at key.
func Included(key []byte) Bound { return Bound{Key: key, Inclusive: true} }

// Excluded returns an exclusive Bound at key.
func Excluded(key []byte) Bound { return Bound{Key: key, Inclusive: false} }

// Unbounded returns a Bound with no limit.
func Unbounded() Bound { return Bound{Unbounded: true} }

// Range returns the live entries whose keys fall within [lower, upper) in
// ascending key order, honoring inclusive/exclusive edges on both bounds.
func (d *KeyDir) Range(lower, upper Bound) []Entry {
	var out []Entry
	iter := func(item btree.Item) bool {
		e := item.(*Entry)
		if !upper.Unbounded {
			cmp := bytes.Compare(e.Key, upper.Key)
			if cmp > 0 || (cmp == 0 && !upper.Inclusive) {
				return false
			}
		}
		out = append(out, *e)
		return true
	}

	if lower.Unbounded {
		d.tree.Ascend(iter)
		return out
	}
	if lower.Inclusive {
		d.tree.AscendGreaterOrEqual(keyOnly(lower.Key), iter)
	} else {
		// AscendGreaterOrEqual on the successor-probe: skip keys equal to
		// lower.Key by filtering inside the iterator instead of a second
		// tree walk, since btree has no strict-greater-than entry point.
		d.tree.AscendGreaterOrEqual(keyOnly(lower.Key), func(item btree.Item) bool {
			e := item.(*Entry)
			if bytes.Equal(e.Key, lower.Key) {
				return true
			}
			return iter(item)
		})
	}
	return out
}
