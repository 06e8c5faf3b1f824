// Package record implements the on-disk record codec: the 56-byte
// big-endian header plus key/value payload that every append-only segment
// is built out of.
//
// Layout (56-byte header, big-endian):
//
//	offset 0    32 : SHA-256 integrity hash
//	offset 32   16 : timestamp, a 128-bit unsigned integer stored as two
//	                 big-endian uint64 halves (Go's wall clock never
//	                 exceeds the low half; the high half is always zero)
//	offset 48    4 : key_size (uint32)
//	offset 52    4 : value_size (uint32)
//	offset 56    K : key bytes
//	offset 56+K  V : value bytes
//
// The hash covers the encoded timestamp, key_size, value_size, and the raw
// key/value bytes — never the hash field itself.
package record

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"

	"github.com/ishanjain28/bitcask/pkg/errors"
)

// HashSize is the width in bytes of the integrity hash field.
const HashSize = sha256.Size // 32

// HeaderLen is the fixed width in bytes of a record header: hash (32) +
// timestamp (16) + key_size (4) + value_size (4).
const HeaderLen = HashSize + 16 + 4 + 4 // 56

// Record is one durable unit: a timestamped key/value pair. Its key_size
// and value_size header fields are derived from len(Key) and len(Value).
type Record struct {
	// Timestamp is nanoseconds since a fixed epoch, chosen at write time.
	// It disambiguates within a segment only; it is never authoritative
	// for ordering between segments.
	Timestamp uint64
	Key       []byte
	Value     []byte
}

// Encode serializes r into its on-disk representation: header followed by
// key then value.
func Encode(r Record) []byte {
	keySize := uint32(len(r.Key))
	valueSize := uint32(len(r.Value))

	buf := make([]byte, HeaderLen+len(r.Key)+len(r.Value))
	hash := checksum(r.Timestamp, keySize, valueSize, r.Key, r.Value)

	copy(buf[0:HashSize], hash)
	binary.BigEndian.PutUint64(buf[HashSize:HashSize+8], 0) // high half, always zero
	binary.BigEndian.PutUint64(buf[HashSize+8:HashSize+16], r.Timestamp)
	binary.BigEndian.PutUint32(buf[48:52], keySize)
	binary.BigEndian.PutUint32(buf[52:56], valueSize)
	copy(buf[HeaderLen:HeaderLen+len(r.Key)], r.Key)
	copy(buf[HeaderLen+len(r.Key):], r.Value)

	return buf
}

// Decode parses one record from the front of data and returns it along
// with its total encoded length (header + key + value), so the caller can
// advance to the next record.
//
// Decode fails with:
//   - TruncatedRecord (via ErrorCodeHeaderReadFailure) when data is shorter
//     than HeaderLen.
//   - InvalidRecord (via ValidationError) when key_size is zero, or the
//     declared key/value sizes would overflow the slice bounds.
//   - TruncatedRecord (via ErrorCodePayloadReadFailure) when data is
//     shorter than the header plus the declared payload.
//   - CorruptRecord (via ErrorCodeSegmentCorrupted) when the recomputed
//     hash doesn't match the stored one.
func Decode(data []byte) (Record, int, error) {
	if len(data) < HeaderLen {
		return Record{}, 0, errors.NewStorageError(nil, errors.ErrorCodeHeaderReadFailure, "record header truncated").
			WithDetail("available", len(data)).
			WithDetail("required", HeaderLen)
	}

	storedHash := data[0:HashSize]
	timestamp := binary.BigEndian.Uint64(data[HashSize+8 : HashSize+16])
	keySize := binary.BigEndian.Uint32(data[48:52])
	valueSize := binary.BigEndian.Uint32(data[52:56])

	if keySize == 0 {
		return Record{}, 0, errors.NewValidationError(nil, errors.ErrorCodeInvalidInput, "record key_size is zero").
			WithField("key_size").
			WithRule("nonzero")
	}

	total := HeaderLen + int(keySize) + int(valueSize)
	if total < HeaderLen || uint64(total-HeaderLen) != uint64(keySize)+uint64(valueSize) {
		return Record{}, 0, errors.NewValidationError(nil, errors.ErrorCodeInvalidInput, "record sizes overflow").
			WithField("key_size,value_size").
			WithProvided([2]uint32{keySize, valueSize})
	}
	if len(data) < total {
		return Record{}, 0, errors.NewStorageError(nil, errors.ErrorCodePayloadReadFailure, "record payload truncated").
			WithDetail("available", len(data)).
			WithDetail("required", total)
	}

	key := data[HeaderLen : HeaderLen+int(keySize)]
	value := data[HeaderLen+int(keySize) : total]

	computedHash := checksum(timestamp, keySize, valueSize, key, value)
	if !bytes.Equal(storedHash, computedHash) {
		return Record{}, 0, errors.NewStorageError(nil, errors.ErrorCodeSegmentCorrupted, "record integrity hash mismatch").
			WithDetail("stored_hash_len", len(storedHash))
	}

	return Record{
		Timestamp: timestamp,
		Key:       append([]byte(nil), key...),
		Value:     append([]byte(nil), value...),
	}, total, nil
}

// Len returns the total on-disk size of r once encoded.
func (r Record) Len() int {
	return HeaderLen + len(r.Key) + len(r.Value)
}

func checksum(timestamp uint64, keySize, valueSize uint32, key, value []byte) []byte {
	h := sha256.New()
	var scalar [16]byte
	binary.BigEndian.PutUint64(scalar[8:16], timestamp)
	h.Write(scalar[:])

	var sizes [8]byte
	binary.BigEndian.PutUint32(sizes[0:4], keySize)
	binary.BigEndian.PutUint32(sizes[4:8], valueSize)
	h.Write(sizes[:])

	h.Write(key)
	h.Write(value)
	return h.Sum(nil)
}
