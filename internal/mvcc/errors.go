package mvcc

import "errors"

// Sentinel errors surfaced by Transaction and Manager.
var (
	// ErrConflict is returned from Set/Delete when the nearest preceding
	// versioned record for the target key is not visible to the calling
	// transaction: some other writer touched the key concurrently. The
	// caller is expected to roll back and retry, never to panic.
	ErrConflict = errors.New("mvcc: serialization conflict")

	// ErrTransactionTerminated is returned by Set, Delete, Commit and
	// Rollback on a Transaction that has already committed or rolled
	// back. Get and Snapshot do not check the transaction's state and
	// never return it.
	ErrTransactionTerminated = errors.New("mvcc: transaction already terminated")
)
