package mvcc

import (
	"encoding/binary"
	"fmt"
)

// versionedKeyOverhead is the number of bytes a versioned key carries
// beyond the raw key itself: a 4-byte length prefix plus an 8-byte
// big-endian version suffix.
const versionedKeyOverhead = 4 + 8

// encodeVersionedKey produces the backing's composite key for
// (rawKey, version): a 4-byte big-endian length prefix, the raw key
// bytes, and an 8-byte big-endian version. This is deterministic and
// round-trippable, and for a fixed rawKey the encoding is constant
// except for its version suffix, so entries for the same key sort
// together with ascending version order preserved byte-for-byte -
// exactly the grouping property the backing's iteration order depends
// on, without requiring a decode step to re-sort.
func encodeVersionedKey(rawKey []byte, version uint64) []byte {
	buf := make([]byte, versionedKeyOverhead+len(rawKey))
	binary.BigEndian.PutUint32(buf[0:4], uint32(len(rawKey)))
	copy(buf[4:4+len(rawKey)], rawKey)
	binary.BigEndian.PutUint64(buf[4+len(rawKey):], version)
	return buf
}

// decodeVersionedKey reverses encodeVersionedKey. It fails only on
// malformed input, which indicates backing corruption.
func decodeVersionedKey(enc []byte) (rawKey []byte, version uint64, err error) {
	if len(enc) < 4 {
		return nil, 0, fmt.Errorf("mvcc: versioned key too short: %d bytes", len(enc))
	}
	keyLen := binary.BigEndian.Uint32(enc[0:4])
	want := int(4 + uint64(keyLen) + 8)
	if len(enc) != want {
		return nil, 0, fmt.Errorf("mvcc: versioned key length mismatch: got %d bytes, want %d", len(enc), want)
	}
	rawKey = enc[4 : 4+keyLen]
	version = binary.BigEndian.Uint64(enc[4+keyLen:])
	return rawKey, version, nil
}
