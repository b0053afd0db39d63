package hash

import (
	"errors"
	"fmt"
	"hash"
	"hash/crc32"

	"github.com/cespare/xxhash/v2"
)

// ErrChecksum is returned when a checksum does not match.
var ErrChecksum = errors.New("checksum mismatch")

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32C computes the CRC32-Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}

// NewCRC32C returns a new streaming CRC32-Castagnoli hash.
func NewCRC32C() hash.Hash32 {
	return crc32.New(crc32cTable)
}

// VerifyCRC32C checks data against an expected CRC32C.
func VerifyCRC32C(data []byte, want uint32) error {
	if got := CRC32C(data); got != want {
		return fmt.Errorf("%w: crc32c %08x, want %08x", ErrChecksum, got, want)
	}
	return nil
}

// XXH64 computes the 64-bit xxHash of data.
func XXH64(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// VerifyXXH64 checks data against an expected XXH64.
func VerifyXXH64(data []byte, want uint64) error {
	if got := XXH64(data); got != want {
		return fmt.Errorf("%w: xxh64 %016x, want %016x", ErrChecksum, got, want)
	}
	return nil
}
