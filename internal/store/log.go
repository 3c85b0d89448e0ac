package store

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/aether-db/minibitcask/internal/format"
	"github.com/aether-db/minibitcask/internal/keydir"
)

// Log is the append-only on-disk record file. A single open Log holds an
// advisory exclusive lock on its path for the process's lifetime; offsets
// returned by WriteEntry never rewind within that lifetime.
type Log struct {
	path   string
	file   *os.File
	writer *bufio.Writer
	lock   *flock.Flock
}

// OpenLog ensures path's parent directory exists, opens (creating if
// absent) the log file read-write, and acquires an advisory exclusive
// lock on it. It fails with ErrLockBusy if another holder already owns
// the lock.
func OpenLog(path string) (*Log, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("minibitcask: creating data directory %s: %w", dir, err)
		}
	}

	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("minibitcask: acquiring lock on %s: %w", path, err)
	}
	if !locked {
		return nil, ErrLockBusy
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("minibitcask: opening log file %s: %w", path, err)
	}

	slog.Debug("store: log file opened", "path", path)

	return &Log{
		path:   path,
		file:   file,
		writer: bufio.NewWriter(file),
		lock:   lock,
	}, nil
}

// WriteEntry appends a record for key (with value, or a tombstone when
// value is nil) and returns (record_offset, record_total_length). The
// buffered writer is flushed before this call returns, so the bytes are
// visible to subsequent ReadAt calls.
func (l *Log) WriteEntry(key, value []byte) (int64, int64, error) {
	record := &format.Record{Key: key, Value: value, Tomb: value == nil}

	offset, err := l.file.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, 0, fmt.Errorf("minibitcask: seeking to end of log: %w", err)
	}

	encoded := record.Encode()
	if _, err := l.writer.Write(encoded); err != nil {
		return 0, 0, fmt.Errorf("minibitcask: writing record: %w", err)
	}
	if err := l.writer.Flush(); err != nil {
		return 0, 0, fmt.Errorf("minibitcask: flushing record: %w", err)
	}

	return offset, int64(len(encoded)), nil
}

// ReadValue reads exactly length bytes starting at offset, without moving
// the file position. A short read is reported as ErrCorruptRecord.
func (l *Log) ReadValue(offset int64, length uint32) ([]byte, error) {
	buf := make([]byte, length)
	n, err := l.file.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("minibitcask: reading value at offset %d: %w", offset, err)
	}
	if n != int(length) {
		return nil, fmt.Errorf("%w: short read at offset %d: got %d bytes, want %d", ErrCorruptRecord, offset, n, length)
	}
	return buf, nil
}

// LoadIndex scans the log from offset 0 and rebuilds a fresh KeyDir
// reflecting the last-writer-wins projection of every record in the
// file. Any I/O error or truncated header before EOF is fatal.
func (l *Log) LoadIndex() (*keydir.KeyDir, error) {
	dir := keydir.New()

	if _, err := l.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("minibitcask: seeking to start of log: %w", err)
	}
	reader := bufio.NewReader(l.file)

	var pos int64
	headerBuf := make([]byte, format.HeaderSize)

	for {
		_, err := io.ReadFull(reader, headerBuf)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading header at offset %d: %v", ErrCorruptRecord, pos, err)
		}

		header, err := format.DecodeHeader(headerBuf)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
		}

		key := make([]byte, header.KeyLen)
		if _, err := io.ReadFull(reader, key); err != nil {
			return nil, fmt.Errorf("%w: reading key at offset %d: %v", ErrCorruptRecord, pos, err)
		}

		valuePos := pos + int64(format.HeaderSize) + int64(header.KeyLen)

		if header.IsTombstone() {
			dir.Delete(key)
			pos = valuePos
			continue
		}

		valueLen := header.ValueLen
		if _, err := reader.Discard(int(valueLen)); err != nil {
			return nil, fmt.Errorf("%w: reading value at offset %d: %v", ErrCorruptRecord, valuePos, err)
		}

		dir.Set(key, valuePos, uint32(valueLen))
		pos = valuePos + int64(valueLen)
	}

	slog.Info("store: index rebuilt", "path", l.path, "keys", dir.Len())
	return dir, nil
}

// Flush fsyncs the underlying file.
func (l *Log) Flush() error {
	if err := l.writer.Flush(); err != nil {
		return fmt.Errorf("minibitcask: flushing write buffer: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("minibitcask: syncing log file: %w", err)
	}
	return nil
}

// Close flushes and syncs the log, then releases the file handle and the
// advisory lock. Sync failures are logged, not returned, matching the
// destruction-time flush contract: callers wanting a guaranteed-durable
// close should call Flush explicitly beforehand.
func (l *Log) Close() error {
	if err := l.Flush(); err != nil {
		slog.Error("store: flush on close failed", "path", l.path, "error", err)
	}

	closeErr := l.file.Close()
	if err := l.lock.Unlock(); err != nil {
		slog.Error("store: releasing lock failed", "path", l.path, "error", err)
	}
	if closeErr != nil {
		return fmt.Errorf("minibitcask: closing log file %s: %w", l.path, closeErr)
	}
	return nil
}
