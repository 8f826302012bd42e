package layout

// A boundary tag packs a block size and its allocated bit into one uint32
// word. Sizes are multiples of DoubleWord, so the low three bits are spare;
// only bit 0 is used.

const allocBit = 1

// PackTag encodes (size, allocated) into a tag word. size must be a
// DoubleWord multiple (or 0 for the epilogue): an unaligned size would bleed
// into the flag bits and TagSize would decode it smaller than written.
func PackTag(size int, allocated bool) uint32 {
	tag := uint32(size)
	if allocated {
		tag |= allocBit
	}
	return tag
}

// TagSize extracts the block size from a tag word.
func TagSize(tag uint32) int {
	return int(tag &^ uint32(AlignMask))
}

// TagAllocated reports whether the tag word marks the block allocated.
func TagAllocated(tag uint32) bool {
	return tag&allocBit != 0
}
