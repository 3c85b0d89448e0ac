package store

import "github.com/aether-db/minibitcask/internal/keydir"

// Iterator is a bidirectional sequence of (key, value) pairs in ascending
// key order over a previously materialized range of KeyDir entries.
// Values are read from the log lazily, on each Next/Prev call, matching
// Store.Get's random-read path. An Iterator borrows its Store's Log for
// its entire lifetime and is not safe for concurrent use.
//
// Next walks forward and Prev walks backward; the two share one range,
// so no entry is returned twice.
type Iterator struct {
	log     *Log
	entries []keydir.Entry
	pos     int // index of the next forward item; also the lowest index Prev may still return
	back    int // index one past the next reverse item
}

func newIterator(log *Log, entries []keydir.Entry) *Iterator {
	return &Iterator{log: log, entries: entries, pos: 0, back: len(entries)}
}

// Next returns the next (key, value) pair in ascending order, or
// ok=false once the forward and reverse cursors meet.
func (it *Iterator) Next() (key, value []byte, ok bool, err error) {
	if it.pos >= it.back {
		return nil, nil, false, nil
	}
	entry := it.entries[it.pos]
	it.pos++

	val, err := it.log.ReadValue(entry.Offset, entry.Length)
	if err != nil {
		return nil, nil, false, err
	}
	return entry.Key, val, true, nil
}

// Prev returns the next (key, value) pair in descending order, or
// ok=false once the forward and reverse cursors meet.
func (it *Iterator) Prev() (key, value []byte, ok bool, err error) {
	if it.pos >= it.back {
		return nil, nil, false, nil
	}
	it.back--
	entry := it.entries[it.back]

	val, err := it.log.ReadValue(entry.Offset, entry.Length)
	if err != nil {
		return nil, nil, false, err
	}
	return entry.Key, val, true, nil
}
