// Package format provides encoding and decoding for minibitcask's on-disk
// log records: a fixed 8-byte header (key length, value length or
// tombstone marker) followed by the key bytes and, for live records, the
// value bytes.
package format

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the fixed size in bytes of a record header: a 4-byte key
// length followed by a 4-byte signed value length.
const HeaderSize = 8

// Tombstone is the value-length sentinel marking a record as a deletion.
const Tombstone int32 = -1

// Record represents a single header-framed entry in the log.
//
//	offset  0   4        8                    8+K                 8+K+V
//	        +---+--------+--------------------+-------------------+
//	        |KL |  VL    |       key (KL)     |     value (VL)    |
//	        +---+--------+--------------------+-------------------+
type Record struct {
	Key   []byte
	Value []byte // meaningful only when Tomb is false; len(Value) == 0 is a legal live value
	Tomb  bool
}

// Size returns the total on-disk size of the record: header + key + value.
func (r *Record) Size() int64 {
	return int64(HeaderSize) + int64(len(r.Key)) + int64(r.valueLen())
}

func (r *Record) valueLen() int {
	if r.Tomb {
		return 0
	}
	return len(r.Value)
}

// Encode serializes the record as:
// [0:4] key length (uint32 big-endian)
// [4:8] value length (int32 big-endian), or -1 for a tombstone
// [8:8+KL] key bytes
// [8+KL:8+KL+VL] value bytes (absent for a tombstone)
func (r *Record) Encode() []byte {
	kl := uint32(len(r.Key))
	vl := Tombstone
	if !r.Tomb {
		vl = int32(len(r.Value))
	}

	buf := make([]byte, r.Size())
	binary.BigEndian.PutUint32(buf[0:4], kl)
	binary.BigEndian.PutUint32(buf[4:8], uint32(vl))
	copy(buf[HeaderSize:HeaderSize+int(kl)], r.Key)
	if !r.Tomb {
		copy(buf[HeaderSize+int(kl):], r.Value)
	}
	return buf
}

// Header is the result of decoding just the fixed-size header: the key
// length and either a value length or a tombstone marker.
type Header struct {
	KeyLen   uint32
	ValueLen int32 // -1 denotes a tombstone
}

// IsTombstone reports whether the decoded header marks a deletion.
func (h Header) IsTombstone() bool {
	return h.ValueLen < 0
}

// DecodeHeader parses the fixed 8-byte header from the front of data. It
// does not validate that data contains the full record body.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("format: short header: got %d bytes, need %d", len(data), HeaderSize)
	}
	kl := binary.BigEndian.Uint32(data[0:4])
	vl := int32(binary.BigEndian.Uint32(data[4:8]))
	return Header{KeyLen: kl, ValueLen: vl}, nil
}

// Decode parses a full record (header + key + optional value) from data.
// It returns an error if data is shorter than the header declares.
func Decode(data []byte) (*Record, error) {
	header, err := DecodeHeader(data)
	if err != nil {
		return nil, err
	}

	valueLen := 0
	if !header.IsTombstone() {
		valueLen = int(header.ValueLen)
	}

	expected := HeaderSize + int(header.KeyLen) + valueLen
	if len(data) < expected {
		return nil, fmt.Errorf("format: short record: got %d bytes, need %d", len(data), expected)
	}

	key := make([]byte, header.KeyLen)
	copy(key, data[HeaderSize:HeaderSize+int(header.KeyLen)])

	if header.IsTombstone() {
		return &Record{Key: key, Tomb: true}, nil
	}

	value := make([]byte, valueLen)
	copy(value, data[HeaderSize+int(header.KeyLen):expected])
	return &Record{Key: key, Value: value}, nil
}
