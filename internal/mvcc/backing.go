package mvcc

import (
	"bytes"
	"sync"

	"github.com/google/btree"
)

// Backing is the ordered key-value mapping MVCC transactions build
// versioned records on top of. A Backing guards its own contents with a
// mutex that callers must hold (via Lock/Unlock) around any sequence of
// Get/Put/Delete/Ascend/Descend calls that needs to be atomic, such as
// the conflict-check-then-insert in Transaction.Set.
//
// Encoded keys are opaque to the Backing; it orders them by raw byte
// comparison, which is sufficient for encodeVersionedKey's grouping
// guarantee.
type Backing interface {
	Lock()
	Unlock()

	// Put inserts or replaces the record at encKey. tomb marks the
	// record as a deletion; value is ignored when tomb is true.
	Put(encKey, value []byte, tomb bool)

	// Get returns the record at encKey, if any found is false otherwise.
	Get(encKey []byte) (value []byte, tomb bool, found bool)

	// Delete removes the record at encKey, if present.
	Delete(encKey []byte)

	// Ascend visits every record in ascending key order until fn
	// returns false.
	Ascend(fn func(encKey, value []byte, tomb bool) bool)

	// Descend visits every record in descending key order until fn
	// returns false.
	Descend(fn func(encKey, value []byte, tomb bool) bool)

	// Len returns the number of records currently stored, live and
	// tombstoned alike.
	Len() int
}

type btreeRecord struct {
	key   []byte
	value []byte
	tomb  bool
}

func (r *btreeRecord) Less(than btree.Item) bool {
	return bytes.Compare(r.key, than.(*btreeRecord).key) < 0
}

// BTreeBacking is an in-memory Backing implementation over an ordered
// btree, matching the reference implementation's choice of an ordered
// map as MVCC's storage engine.
type BTreeBacking struct {
	mu   sync.Mutex
	tree *btree.BTree
}

// NewBTreeBacking returns an empty BTreeBacking.
func NewBTreeBacking() *BTreeBacking {
	return &BTreeBacking{tree: btree.New(32)}
}

func (b *BTreeBacking) Lock()   { b.mu.Lock() }
func (b *BTreeBacking) Unlock() { b.mu.Unlock() }

func (b *BTreeBacking) Put(encKey, value []byte, tomb bool) {
	k := append([]byte(nil), encKey...)
	var v []byte
	if !tomb {
		// A live value may legally have zero length; copying a non-nil
		// empty slice (rather than leaving v nil) keeps tomb the only
		// signal Get/Descend/Ascend need to distinguish a deletion from
		// an empty value.
		v = append([]byte{}, value...)
	}
	b.tree.ReplaceOrInsert(&btreeRecord{key: k, value: v, tomb: tomb})
}

func (b *BTreeBacking) Get(encKey []byte) (value []byte, tomb bool, found bool) {
	item := b.tree.Get(&btreeRecord{key: encKey})
	if item == nil {
		return nil, false, false
	}
	r := item.(*btreeRecord)
	return r.value, r.tomb, true
}

func (b *BTreeBacking) Delete(encKey []byte) {
	b.tree.Delete(&btreeRecord{key: encKey})
}

func (b *BTreeBacking) Ascend(fn func(encKey, value []byte, tomb bool) bool) {
	b.tree.Ascend(func(item btree.Item) bool {
		r := item.(*btreeRecord)
		return fn(r.key, r.value, r.tomb)
	})
}

func (b *BTreeBacking) Descend(fn func(encKey, value []byte, tomb bool) bool) {
	b.tree.Descend(func(item btree.Item) bool {
		r := item.(*btreeRecord)
		return fn(r.key, r.value, r.tomb)
	})
}

func (b *BTreeBacking) Len() int {
	return b.tree.Len()
}
