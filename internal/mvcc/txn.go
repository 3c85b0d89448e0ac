package mvcc

import (
	"bytes"
	"fmt"
	"sort"
)

type txnState int

const (
	txnActive txnState = iota
	txnTerminated
)

// Transaction is a single snapshot-isolated unit of work over a shared
// Backing. A Transaction is not safe for concurrent use by multiple
// goroutines; the Backing it reads and writes is shared and internally
// synchronized.
type Transaction struct {
	ctx     *Context
	backing Backing

	version        uint64
	snapshotActive map[uint64]struct{}

	state txnState
}

// isVisible implements the visibility rule: a version is visible to
// this transaction iff it is no newer than our own version and it was
// not itself still in flight when we began.
func (t *Transaction) isVisible(version uint64) bool {
	if _, active := t.snapshotActive[version]; active {
		return false
	}
	return version <= t.version
}

// Set writes value for key. It fails with ErrConflict if a version of
// key not visible to this transaction - written by some other
// transaction concurrent with or newer than this one - already exists.
func (t *Transaction) Set(key, value []byte) error {
	return t.write(key, value, false)
}

// Delete writes a tombstone for key. Like Set, it fails with
// ErrConflict on a non-visible preceding version. Deleting a key with
// no visible value is legal; it simply records a tombstone.
func (t *Transaction) Delete(key []byte) error {
	return t.write(key, nil, true)
}

// write implements the shared Set/Delete path. The registry mutex is
// held for the whole operation and the backing mutex is acquired nested
// inside it, so that the conflict check and the subsequent insert are
// atomic with respect to every other transaction's writes and so that
// Commit/Rollback and Set/Delete never contend for the two mutexes in
// opposite orders.
func (t *Transaction) write(key, value []byte, tomb bool) error {
	if t.state != txnActive {
		return ErrTransactionTerminated
	}

	var opErr error
	t.ctx.locked(func(active map[uint64][][]byte) {
		t.backing.Lock()
		defer t.backing.Unlock()

		prevVersion, found, err := t.nearestPrecedingVersionLocked(key)
		if err != nil {
			opErr = err
			return
		}
		if found && !t.isVisible(prevVersion) {
			opErr = ErrConflict
			return
		}

		active[t.version] = append(active[t.version], append([]byte(nil), key...))
		t.backing.Put(encodeVersionedKey(key, t.version), value, tomb)
	})
	return opErr
}

// nearestPrecedingVersionLocked scans the backing in descending key
// order for the first record whose decoded raw key equals key,
// regardless of visibility, and returns its version. The caller must
// already hold the backing lock.
func (t *Transaction) nearestPrecedingVersionLocked(key []byte) (version uint64, found bool, err error) {
	var decodeErr error
	t.backing.Descend(func(encKey, _ []byte, _ bool) bool {
		rawKey, v, derr := decodeVersionedKey(encKey)
		if derr != nil {
			decodeErr = derr
			return false
		}
		if bytes.Equal(rawKey, key) {
			version, found = v, true
			return false
		}
		return true
	})
	if decodeErr != nil {
		return 0, false, fmt.Errorf("mvcc: scanning for conflict: %w", decodeErr)
	}
	return version, found, nil
}

// Get returns the value visible to this transaction for key, or
// ok=false if no visible version exists (the key is absent, or its
// latest visible version is a tombstone).
func (t *Transaction) Get(key []byte) (value []byte, ok bool, err error) {
	t.backing.Lock()
	defer t.backing.Unlock()

	var decodeErr error
	var tomb, found bool
	t.backing.Descend(func(encKey, v []byte, isTomb bool) bool {
		rawKey, version, derr := decodeVersionedKey(encKey)
		if derr != nil {
			decodeErr = derr
			return false
		}
		if bytes.Equal(rawKey, key) && t.isVisible(version) {
			value, tomb, found = v, isTomb, true
			return false
		}
		return true
	})
	if decodeErr != nil {
		return nil, false, fmt.Errorf("mvcc: scanning for value: %w", decodeErr)
	}
	if !found || tomb {
		return nil, false, nil
	}
	return value, true, nil
}

// Snapshot returns every (key, value) pair visible to this transaction,
// in ascending raw-key order: for each raw key, the value or tombstone
// of its highest visible version. Tombstoned keys are omitted.
func (t *Transaction) Snapshot() ([][2][]byte, error) {
	t.backing.Lock()
	defer t.backing.Unlock()

	type versionedValue struct {
		version uint64
		value   []byte
		tomb    bool
		seen    bool
	}
	latest := make(map[string]*versionedValue)
	var order []string

	var decodeErr error
	t.backing.Ascend(func(encKey, v []byte, isTomb bool) bool {
		rawKey, version, derr := decodeVersionedKey(encKey)
		if derr != nil {
			decodeErr = derr
			return false
		}
		if !t.isVisible(version) {
			return true
		}
		k := string(rawKey)
		existing, ok := latest[k]
		if !ok {
			order = append(order, k)
			existing = &versionedValue{}
			latest[k] = existing
		}
		if !existing.seen || version > existing.version {
			existing.version = version
			existing.value = v
			existing.tomb = isTomb
			existing.seen = true
		}
		return true
	})
	if decodeErr != nil {
		return nil, fmt.Errorf("mvcc: building snapshot: %w", decodeErr)
	}

	// Encoded keys sort by their length prefix first, so the backing's
	// order is not raw-key order; sort the raw keys before emitting.
	sort.Strings(order)
	out := make([][2][]byte, 0, len(order))
	for _, k := range order {
		entry := latest[k]
		if entry.tomb {
			continue
		}
		out = append(out, [2][]byte{[]byte(k), entry.value})
	}
	return out, nil
}

// Commit deregisters this transaction from the active set. Its writes
// remain in the backing and become visible to transactions whose
// snapshot does not include this transaction's version.
func (t *Transaction) Commit() error {
	if t.state != txnActive {
		return ErrTransactionTerminated
	}
	t.ctx.remove(t.version)
	t.state = txnTerminated
	return nil
}

// Rollback removes every versioned record this transaction wrote and
// deregisters it from the active set. Like write, the registry mutex is
// held for the whole operation with the backing mutex nested inside it.
func (t *Transaction) Rollback() error {
	if t.state != txnActive {
		return ErrTransactionTerminated
	}

	t.ctx.locked(func(active map[uint64][][]byte) {
		keys := active[t.version]
		if len(keys) > 0 {
			t.backing.Lock()
			for _, key := range keys {
				t.backing.Delete(encodeVersionedKey(key, t.version))
			}
			t.backing.Unlock()
		}
		delete(active, t.version)
	})

	t.state = txnTerminated
	return nil
}
