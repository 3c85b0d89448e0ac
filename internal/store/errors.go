package store

import "errors"

// Sentinel errors surfaced by the store façade and its Log.
var (
	// ErrLockBusy is returned from New when another holder already owns
	// the log file's advisory exclusive lock.
	ErrLockBusy = errors.New("minibitcask: resource busy: log file is locked by another process")

	// ErrCorruptRecord is returned when an index rebuild or a random
	// read encounters a truncated header or a short read before EOF.
	ErrCorruptRecord = errors.New("minibitcask: corrupt record")

	// ErrUnimplemented is returned by Merge, which is reserved for a
	// future compaction routine.
	ErrUnimplemented = errors.New("minibitcask: unimplemented")
)
