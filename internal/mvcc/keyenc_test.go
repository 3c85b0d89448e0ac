package mvcc

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeVersionedKey_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		rawKey  []byte
		version uint64
	}{
		{"simple key", []byte("a"), 1},
		{"empty key", []byte{}, 42},
		{"multi-byte key", []byte("hello world"), 1 << 40},
		{"version zero", []byte("k"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := encodeVersionedKey(tt.rawKey, tt.version)
			rawKey, version, err := decodeVersionedKey(enc)
			require.NoError(t, err)
			assert.Equal(t, tt.rawKey, rawKey)
			assert.Equal(t, tt.version, version)
		})
	}
}

func TestDecodeVersionedKey_Malformed(t *testing.T) {
	_, _, err := decodeVersionedKey([]byte{0x00, 0x00})
	assert.Error(t, err)

	_, _, err = decodeVersionedKey([]byte{0x00, 0x00, 0x00, 0x05, 0x01})
	assert.Error(t, err)
}

// TestEncodeVersionedKey_GroupsByRawKeyAndOrdersByVersion confirms the
// property the backing's conflict scan depends on: for a fixed raw key,
// encoded keys sort together with ascending version order preserved.
func TestEncodeVersionedKey_GroupsByRawKeyAndOrdersByVersion(t *testing.T) {
	var encoded [][]byte
	for _, v := range []uint64{3, 1, 2} {
		encoded = append(encoded, encodeVersionedKey([]byte("k"), v))
	}
	for _, v := range []uint64{20, 10} {
		encoded = append(encoded, encodeVersionedKey([]byte("other"), v))
	}

	sort.Slice(encoded, func(i, j int) bool {
		return string(encoded[i]) < string(encoded[j])
	})

	var gotKVersions []uint64
	for _, enc := range encoded {
		rawKey, version, err := decodeVersionedKey(enc)
		require.NoError(t, err)
		if string(rawKey) == "k" {
			gotKVersions = append(gotKVersions, version)
		}
	}
	assert.Equal(t, []uint64{1, 2, 3}, gotKVersions)
}
