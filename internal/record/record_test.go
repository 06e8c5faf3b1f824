package record

import (
	"testing"

	"github.com/ishanjain28/bitcask/pkg/errors"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	r := Record{Timestamp: 1234567890, Key: []byte("foo"), Value: []byte("bar")}
	buf := Encode(r)

	got, n, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if n != len(buf) {
		t.Errorf("expected consumed length %d, got %d", len(buf), n)
	}
	if got.Timestamp != r.Timestamp {
		t.Errorf("timestamp mismatch: want %d, got %d", r.Timestamp, got.Timestamp)
	}
	if string(got.Key) != "foo" || string(got.Value) != "bar" {
		t.Errorf("payload mismatch: got key=%q value=%q", got.Key, got.Value)
	}
}

func TestEncodeDecodeEmptyValue(t *testing.T) {
	r := Record{Timestamp: 1, Key: []byte("k"), Value: nil}
	buf := Encode(r)

	got, _, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(got.Value) != 0 {
		t.Errorf("expected empty value, got %q", got.Value)
	}
}

func TestDecodeMultipleRecordsAdvancesCorrectly(t *testing.T) {
	r1 := Record{Timestamp: 1, Key: []byte("a"), Value: []byte("1")}
	r2 := Record{Timestamp: 2, Key: []byte("bb"), Value: []byte("22")}

	buf := append(Encode(r1), Encode(r2)...)

	first, n1, err := Decode(buf)
	if err != nil {
		t.Fatalf("decode first: %v", err)
	}
	second, n2, err := Decode(buf[n1:])
	if err != nil {
		t.Fatalf("decode second: %v", err)
	}

	if string(first.Key) != "a" || string(second.Key) != "bb" {
		t.Fatalf("unexpected keys: %q, %q", first.Key, second.Key)
	}
	if n1+n2 != len(buf) {
		t.Errorf("expected total consumed %d, got %d", len(buf), n1+n2)
	}
}

func TestDecodeTruncatedHeader(t *testing.T) {
	_, _, err := Decode(make([]byte, HeaderLen-1))
	if err == nil {
		t.Fatal("expected truncated header error, got nil")
	}
	se, ok := errors.AsStorageError(err)
	if !ok {
		t.Fatalf("expected *errors.StorageError, got %T", err)
	}
	if se.Code() != errors.ErrorCodeHeaderReadFailure {
		t.Errorf("expected ErrorCodeHeaderReadFailure, got %s", se.Code())
	}
}

func TestDecodeTruncatedPayload(t *testing.T) {
	buf := Encode(Record{Timestamp: 1, Key: []byte("key"), Value: []byte("value")})
	_, _, err := Decode(buf[:len(buf)-2])

	se, ok := errors.AsStorageError(err)
	if !ok {
		t.Fatalf("expected *errors.StorageError, got %T", err)
	}
	if se.Code() != errors.ErrorCodePayloadReadFailure {
		t.Errorf("expected ErrorCodePayloadReadFailure, got %s", se.Code())
	}
}

func TestDecodeZeroKeySizeRejected(t *testing.T) {
	buf := Encode(Record{Timestamp: 1, Key: []byte("x"), Value: []byte("v")})
	// Corrupt key_size (bytes 48-52) to zero directly; this also breaks the
	// hash, but the zero-key-size check must fire before hash verification.
	for i := 48; i < 52; i++ {
		buf[i] = 0
	}

	_, _, err := Decode(buf)
	ve, ok := errors.AsValidationError(err)
	if !ok {
		t.Fatalf("expected *errors.ValidationError, got %T", err)
	}
	if ve.Code() != errors.ErrorCodeInvalidInput {
		t.Errorf("expected ErrorCodeInvalidInput, got %s", ve.Code())
	}
}

func TestDecodeCorruptHashDetected(t *testing.T) {
	buf := Encode(Record{Timestamp: 1, Key: []byte("key"), Value: []byte("value")})
	buf[0] ^= 0xFF // flip a bit in the stored hash

	_, _, err := Decode(buf)
	se, ok := errors.AsStorageError(err)
	if !ok {
		t.Fatalf("expected *errors.StorageError, got %T", err)
	}
	if se.Code() != errors.ErrorCodeSegmentCorrupted {
		t.Errorf("expected ErrorCodeSegmentCorrupted, got %s", se.Code())
	}
}

func TestDecodeCorruptPayloadDetected(t *testing.T) {
	buf := Encode(Record{Timestamp: 1, Key: []byte("key"), Value: []byte("value")})
	buf[len(buf)-1] ^= 0xFF // flip a bit in the value payload, hash no longer matches

	_, _, err := Decode(buf)
	se, ok := errors.AsStorageError(err)
	if !ok {
		t.Fatalf("expected *errors.StorageError, got %T", err)
	}
	if se.Code() != errors.ErrorCodeSegmentCorrupted {
		t.Errorf("expected ErrorCodeSegmentCorrupted, got %s", se.Code())
	}
}
