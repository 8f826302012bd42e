package alloc

import "github.com/heapkit/heapkit/internal/layout"

// BucketFor maps a block size to its segregated free-list bucket. The same
// mapping decides where a search starts and where a free block is inserted,
// which is what lets a first-fit scan trust every bucket past its first.
func BucketFor(size int) int {
	for i, bound := range layout.BucketBounds {
		if size <= bound {
			return i
		}
	}
	return layout.NumBuckets - 1
}

// adjust turns a requested payload size into an adjusted block size: small
// requests are rounded to the next power of two, then boundary-tag overhead
// is added and the result aligned up, clamped to the minimum block size.
func adjust(request int) int {
	if request <= layout.SmallMax {
		request = layout.NextPow2(request)
	}
	if request <= layout.DoubleWord {
		return 2 * layout.DoubleWord
	}
	return layout.AlignUp(request + layout.DoubleWord)
}
