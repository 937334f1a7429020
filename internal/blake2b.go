// Package internal provides the hashing primitives used for seed
// derivation and snapshot integrity.
// This package wraps golang.org/x/crypto.
package internal

import (
	"crypto/subtle"
	"encoding/binary"
	"errors"

	"golang.org/x/crypto/blake2b"
)

// ChecksumSize is the length of the trailer appended by Seal.
const ChecksumSize = blake2b.Size256

// ErrChecksum is returned by Open when the trailer does not match.
var ErrChecksum = errors.New("checksum mismatch")

// Blake2b256 computes a 256-bit Blake2b hash (32 bytes).
func Blake2b256(data []byte) [32]byte {
	return blake2b.Sum256(data)
}

// DeriveUint64 hashes data and returns the first eight bytes of the
// digest as a little-endian integer.
func DeriveUint64(data []byte) uint64 {
	h := Blake2b256(data)
	return binary.LittleEndian.Uint64(h[:8])
}

// Seal appends the Blake2b-256 digest of payload to payload.
func Seal(payload []byte) []byte {
	sum := blake2b.Sum256(payload)
	return append(payload, sum[:]...)
}

// Open verifies a sealed buffer and returns its payload.
func Open(sealed []byte) ([]byte, error) {
	if len(sealed) < ChecksumSize {
		return nil, errors.New("sealed data too short")
	}
	payload := sealed[:len(sealed)-ChecksumSize]
	sum := blake2b.Sum256(payload)
	if subtle.ConstantTimeCompare(sum[:], sealed[len(payload):]) != 1 {
		return nil, ErrChecksum
	}
	return payload, nil
}
