// Package mvcc implements snapshot-isolated transactions over a
// pluggable ordered key-value backing store, grounded directly on the
// reference single-file Rust MVCC prototype: a monotonic version
// counter, an active-transaction registry, and versioned composite keys
// encoding (raw_key, version) pairs.
package mvcc

// Manager constructs Transactions that share one backing store and one
// Context. Unlike the reference implementation, both the version
// counter and the active-transaction registry live on the Manager
// rather than in package-level globals, so a process can run several
// independent Managers (each with its own backing) without interference
// - exactly what the test suite needs.
type Manager struct {
	ctx     *Context
	backing Backing
}

// NewManager returns a Manager over backing with a fresh Context.
func NewManager(backing Backing) *Manager {
	return &Manager{ctx: NewContext(), backing: backing}
}

// Begin starts a new Transaction: it acquires a fresh version and
// captures the current active-transaction set as this transaction's
// snapshot, atomically with respect to every other Begin/Commit/
// Rollback.
func (m *Manager) Begin() *Transaction {
	version, snapshotActive := m.ctx.begin()
	return &Transaction{
		ctx:            m.ctx,
		backing:        m.backing,
		version:        version,
		snapshotActive: snapshotActive,
		state:          txnActive,
	}
}
