// Package buf contains bounds-checked helpers for reading and writing
// little-endian words in a raw heap region.
package buf

import "encoding/binary"

// U32LE reads a little-endian uint32 from b. Returns 0 when b is too short.
func U32LE(b []byte) uint32 {
	if len(b) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// PutU32LE writes a little-endian uint32 into b. No-op when b is too short.
func PutU32LE(b []byte, v uint32) {
	if len(b) < 4 {
		return
	}
	binary.LittleEndian.PutUint32(b, v)
}

// U32At reads a little-endian uint32 at off. Returns 0, false when the word
// does not fit within b.
func U32At(b []byte, off int) (uint32, bool) {
	if off < 0 || off+4 > len(b) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b[off:]), true
}

// PutU32At writes a little-endian uint32 at off. Reports whether the word fit
// within b.
func PutU32At(b []byte, off int, v uint32) bool {
	if off < 0 || off+4 > len(b) {
		return false
	}
	binary.LittleEndian.PutUint32(b[off:], v)
	return true
}
