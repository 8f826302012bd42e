// Package layout defines the on-heap block format: boundary-tag words,
// alignment rules, the region prefix (bucket sentinels, pad, prologue,
// epilogue), and the derived size constants every component shares.
//
// Region prefix layout:
//
//	Offset  Size  Description
//	0       80    Ten bucket sentinels, two uint32 link words each
//	              (next at +0, prev at +4), self-linked when empty.
//	80      4     Alignment pad word (zero).
//	84      4     Prologue header: size 8, allocated.
//	88      4     Prologue footer: size 8, allocated.
//	92      4     Epilogue header: size 0, allocated. Rewritten at the
//	              current region end after every extension.
//
// Block addresses (refs) are payload offsets: the header word sits at
// ref-WordSize, the footer at ref+size-DoubleWord. The first real block
// therefore starts at HeapBase.
package layout

const (
	// WordSize is the header/footer tag word size in bytes.
	WordSize = 4

	// DoubleWord is the alignment unit. Every block address is a multiple
	// of DoubleWord and every block size is a multiple of DoubleWord.
	DoubleWord = 2 * WordSize

	// AlignMask masks the addressing bits below the alignment unit.
	AlignMask = DoubleWord - 1

	// MinBlock is the smallest legal block: header, footer, and room for
	// the two free-list link words.
	MinBlock = 2*WordSize + 2*WordSize

	// ChunkSize is the default heap extension amount in bytes.
	ChunkSize = 1 << 12

	// SmallMax is the request threshold at or below which payload sizes
	// are rounded up to the next power of two before overhead is added.
	SmallMax = 16 * DoubleWord

	// NumBuckets is the number of segregated free-list size classes.
	NumBuckets = 10

	// SentinelSize is the storage footprint of one bucket sentinel: a
	// next and a prev link word.
	SentinelSize = 2 * WordSize

	// SentinelBytes is the total sentinel storage at the region start.
	SentinelBytes = NumBuckets * SentinelSize

	// PrologueHeader is the offset of the prologue block's header word.
	PrologueHeader = SentinelBytes + WordSize

	// PrologueRef is the prologue block's payload offset.
	PrologueRef = SentinelBytes + 2*WordSize

	// PrefixSize is the full prefix: sentinels, pad word, prologue
	// header/footer, initial epilogue header.
	PrefixSize = SentinelBytes + 4*WordSize

	// HeapBase is the payload offset of the first real block: its header
	// word is written over the initial epilogue position by the first
	// extension, so the payload begins exactly at the prefix end.
	HeapBase = PrefixSize
)

// BucketBounds holds the ascending size-class thresholds. A block of size s
// belongs to the first bucket whose bound is >= s; bucket NumBuckets-1
// catches everything above the last bound.
var BucketBounds = [NumBuckets - 1]int{32, 64, 128, 256, 512, 1024, 2048, 4096, 8192}
