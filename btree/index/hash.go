package index

import (
	"encoding/binary"
	"fmt"

	"github.com/OneOfOne/xxhash"
)

// HashString hashes a string with xxhash64.
func HashString(s string) uint64 {
	return xxhash.ChecksumString64(s)
}

// HashBytes hashes a byte slice with xxhash64.
func HashBytes(b []byte) uint64 {
	return xxhash.Checksum64(b)
}

// Integer is the set of integer types HashInteger accepts.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// HashInteger hashes the 64-bit two's complement representation of n.
func HashInteger[N Integer](n N) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(n))
	return xxhash.Checksum64(buf[:])
}

// HashAny hashes the Go-syntax representation of v. It works for any type
// but is slow; prefer a dedicated hash function for hot paths.
func HashAny[T any](v T) uint64 {
	return xxhash.ChecksumString64(fmt.Sprintf("%#v", v))
}
