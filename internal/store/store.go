// Package store implements minibitcask: an embedded, append-only
// key-value store with an in-memory ordered index (KeyDir) over the log.
package store

import (
	"fmt"
	"log/slog"

	"github.com/aether-db/minibitcask/internal/keydir"
)

// Store is the public façade over a Log and its KeyDir. A Store is not
// internally synchronized; callers serialize their own access to a
// shared instance.
type Store struct {
	log *Log
	dir *keydir.KeyDir
}

// New opens (or creates) the log file at path, acquires its advisory
// exclusive lock, and rebuilds the in-memory index by scanning the log.
func New(path string) (*Store, error) {
	log, err := OpenLog(path)
	if err != nil {
		return nil, err
	}

	dir, err := log.LoadIndex()
	if err != nil {
		_ = log.Close()
		return nil, err
	}

	return &Store{log: log, dir: dir}, nil
}

// Get returns the current value for key, or ok=false if the key is
// absent or was last tombstoned. Get never scans the log; it is answered
// entirely from the KeyDir plus a single random read.
func (s *Store) Get(key []byte) (value []byte, ok bool, err error) {
	entry, found := s.dir.Get(key)
	if !found {
		return nil, false, nil
	}

	value, err = s.log.ReadValue(entry.Offset, entry.Length)
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Set appends a record for (key, value) and updates the KeyDir so the
// new record becomes authoritative for key.
//
//	 record offset                         record offset + record length
//	       v                                              v
//	       +----+----+-----------+------------------------+
//	       | KL | VL |    key    |          value          |
//	       +----+----+-----------+------------------------+
//	                             ^
//	            value offset = record_offset + record_length - len(value)
func (s *Store) Set(key, value []byte) error {
	offset, length, err := s.log.WriteEntry(key, value)
	if err != nil {
		return err
	}

	valueOffset := offset + length - int64(len(value))
	s.dir.Set(key, valueOffset, uint32(len(value)))

	slog.Debug("store: set", "key", string(key), "value_size", len(value), "offset", valueOffset)
	return nil
}

// Delete appends a tombstone record for key and removes it from the
// KeyDir. Deleting an absent key is legal and still appends a tombstone,
// so that a replay of the log converges to the same state.
func (s *Store) Delete(key []byte) error {
	if _, _, err := s.log.WriteEntry(key, nil); err != nil {
		return err
	}
	s.dir.Delete(key)

	slog.Debug("store: delete", "key", string(key))
	return nil
}

// Len returns the number of live keys currently tracked by the KeyDir.
func (s *Store) Len() int {
	return s.dir.Len()
}

// Flush fsyncs the underlying log file.
func (s *Store) Flush() error {
	return s.log.Flush()
}

// Merge is reserved for a future compaction routine that would rewrite
// the log to contain only the last-writer-wins record per key and
// atomically replace the current log. It is not implemented.
func (s *Store) Merge() error {
	return ErrUnimplemented
}

// Close flushes the log and releases its file handle and advisory lock.
func (s *Store) Close() error {
	if err := s.log.Close(); err != nil {
		return fmt.Errorf("minibitcask: closing store: %w", err)
	}
	return nil
}

// Scan returns a bidirectional iterator over the live (key, value) pairs
// whose keys fall within [lower, upper), in ascending order. The
// iterator exclusively borrows the Store's Log for random reads; it must
// be released (its Next/Prev calls must stop) before the Store is closed.
func (s *Store) Scan(lower, upper keydir.Bound) *Iterator {
	return newIterator(s.log, s.dir.Range(lower, upper))
}

// ScanPrefix returns an iterator equivalent to
// Scan(Included(prefix), Excluded(upper)), where upper is prefix with its
// final byte incremented modulo 256, without carrying into earlier
// bytes. If prefix is empty this degenerates to a full scan. When the
// final byte of prefix is 0xFF it wraps to 0x00, upper then sorts below
// prefix, and the iterator yields nothing.
func (s *Store) ScanPrefix(prefix []byte) *Iterator {
	if len(prefix) == 0 {
		return s.Scan(keydir.Unbounded(), keydir.Unbounded())
	}

	upper := append([]byte(nil), prefix...)
	upper[len(upper)-1]++
	return s.Scan(keydir.Included(prefix), keydir.Excluded(upper))
}
