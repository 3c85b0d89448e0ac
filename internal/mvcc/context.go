package mvcc

import (
	"sync"
	"sync/atomic"
)

// Context holds the two process-wide resources the reference MVCC
// design keeps as global singletons: the monotonic version counter and
// the active-transaction registry. Wrapping them in an explicit,
// Manager-owned value (instead of package-level state) lets a process
// run multiple independent MVCC instances, which is exactly what the
// test suite needs.
type Context struct {
	version atomic.Uint64

	mu     sync.Mutex
	active map[uint64][][]byte // version -> raw keys written by that transaction
}

// NewContext returns a Context with no in-flight transactions and a
// version counter starting at 1.
func NewContext() *Context {
	return &Context{active: make(map[uint64][][]byte)}
}

// nextVersion hands out a fresh, strictly increasing transaction
// version. The counter itself is atomic; begin calls it with the
// registry mutex held, so versions enter the registry in the same order
// they are handed out.
func (c *Context) nextVersion() uint64 {
	return c.version.Add(1)
}

// locked runs fn with the registry mutex held. Every registry read or
// mutation goes through this single chokepoint so the lock-ordering
// discipline (registry mutex acquired before any backing mutex) holds
// for every caller.
func (c *Context) locked(fn func(active map[uint64][][]byte)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.active)
}

// begin assigns a new transaction version, captures the set of versions
// already active at this instant (the new transaction's snapshot), and
// publishes the new version into the registry with an empty write set.
func (c *Context) begin() (version uint64, snapshotActive map[uint64]struct{}) {
	c.locked(func(active map[uint64][][]byte) {
		version = c.nextVersion()
		snapshotActive = make(map[uint64]struct{}, len(active))
		for v := range active {
			snapshotActive[v] = struct{}{}
		}
		active[version] = nil
	})
	return version, snapshotActive
}

// recordWrite appends key to the write set of the transaction at version.
func (c *Context) recordWrite(version uint64, key []byte) {
	c.locked(func(active map[uint64][][]byte) {
		active[version] = append(active[version], append([]byte(nil), key...))
	})
}

// remove deregisters version, discarding its write set. Used by commit,
// where the written data stays in the backing.
func (c *Context) remove(version uint64) {
	c.locked(func(active map[uint64][][]byte) {
		delete(active, version)
	})
}
