package layout

// AlignUp returns n aligned up to the next DoubleWord boundary.
//
// Example:
//
//	AlignUp(1)  = 8
//	AlignUp(8)  = 8
//	AlignUp(9)  = 16
func AlignUp(n int) int {
	return (n + AlignMask) & ^AlignMask
}

// Aligned reports whether off sits on a DoubleWord boundary.
func Aligned(off int) bool {
	return off&AlignMask == 0
}

// EvenWords rounds a word count up to an even number, preserving DoubleWord
// alignment of the byte size it denotes.
func EvenWords(words int) int {
	if words%2 != 0 {
		return words + 1
	}
	return words
}

// NextPow2 returns the next power of two >= n. NextPow2(0) is 0.
func NextPow2(n int) int {
	if n <= 0 {
		return 0
	}
	v := uint64(n - 1)
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v |= v >> 32
	return int(v + 1)
}
