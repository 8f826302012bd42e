package alloc

import (
	"fmt"
	"os"

	"github.com/heapkit/heapkit/heap"
	"github.com/heapkit/heapkit/heap/mem"
	"github.com/heapkit/heapkit/internal/layout"
)

// Compile-time toggle for verbose internal logging.
const debugAlloc = false

// Runtime flag for allocation logging - controlled by HEAPKIT_LOG_ALLOC env var.
var logAlloc = os.Getenv("HEAPKIT_LOG_ALLOC") != ""

// Allocator is a first-fit segregated free-list allocator over a single
// heap.Region. It owns all heap and bucket state; independent instances are
// fully isolated, which tests rely on. Not safe for concurrent use.
type Allocator struct {
	r     *heap.Region
	stats Stats
}

// New initializes an allocator on a fresh arena: region prefix, self-linked
// bucket sentinels, and one initial chunk of free space. Fails only when the
// arena cannot supply the initial reservation.
func New(a mem.Arena) (*Allocator, error) {
	r, err := heap.NewRegion(a)
	if err != nil {
		return nil, err
	}
	al := &Allocator{r: r}
	if _, err := al.extend(layout.ChunkSize / layout.WordSize); err != nil {
		return nil, err
	}
	return al, nil
}

// Region exposes the underlying region for read-only diagnostics.
func (al *Allocator) Region() *heap.Region { return al.r }

// Stats returns a copy of the allocator's counters.
func (al *Allocator) Stats() Stats { return al.stats }

// Close releases the region. The allocator is unusable afterwards.
func (al *Allocator) Close() error { return al.r.Close() }

// Payload returns the usable bytes of an allocated block. The slice is valid
// until the next operation that grows the heap.
func (al *Allocator) Payload(ref Ref) []byte { return al.r.Payload(int(ref)) }

// Alloc allocates a block with at least size usable bytes and returns its
// reference. A zero size is a defined no-op: NullRef, no error, no heap
// mutation. Returns ErrNoSpace when the growth provider is exhausted.
func (al *Allocator) Alloc(size int) (Ref, error) {
	al.stats.AllocCalls++
	if size < 0 {
		return NullRef, fmt.Errorf("%w: %d", ErrBadSize, size)
	}
	if size == 0 {
		return NullRef, nil
	}

	asize := adjust(size)
	bp := al.findFit(asize)
	if bp == 0 {
		if logAlloc {
			fmt.Fprintf(os.Stderr, "[ALLOC] no fit for %d (adjusted %d), growing\n", size, asize)
		}
		var err error
		bp, err = al.extend(max(asize, layout.ChunkSize) / layout.WordSize)
		if err != nil {
			return NullRef, err
		}
	}

	placed := al.place(bp, asize)
	al.stats.BytesAllocated += int64(placed)
	return Ref(bp), nil
}

// Free releases the block at ref and immediately coalesces it with any free
// physical neighbor. NullRef is a defined no-op.
func (al *Allocator) Free(ref Ref) error {
	if ref == NullRef {
		return nil
	}
	bp := int(ref)
	if !al.r.Contains(bp) {
		return fmt.Errorf("%w: %d", ErrBadRef, ref)
	}
	size, allocated := al.r.Header(bp)
	if !allocated || size < layout.MinBlock || bp+size > al.r.Size() {
		return fmt.Errorf("%w: %d", ErrBadRef, ref)
	}

	al.stats.FreeCalls++
	al.stats.BytesFreed += int64(size)
	al.r.SetBlock(bp, size, false)
	al.coalesce(bp)
	return nil
}

// Realloc resizes the block at ref to hold at least size bytes. Size 0 frees
// the block and returns NullRef; a NullRef ref plain-allocates. When the
// existing block already accommodates the adjusted size the same reference
// is returned unchanged, with no shrink-and-split. Otherwise the contents
// move to a new block and the old one is freed. On allocation failure the
// original block is left untouched.
func (al *Allocator) Realloc(ref Ref, size int) (Ref, error) {
	al.stats.ReallocCalls++
	if size < 0 {
		return NullRef, fmt.Errorf("%w: %d", ErrBadSize, size)
	}
	if size == 0 {
		if err := al.Free(ref); err != nil {
			return NullRef, err
		}
		return NullRef, nil
	}
	if ref == NullRef {
		return al.Alloc(size)
	}

	bp := int(ref)
	if !al.r.Contains(bp) {
		return NullRef, fmt.Errorf("%w: %d", ErrBadRef, ref)
	}
	csize, allocated := al.r.Header(bp)
	if !allocated {
		return NullRef, fmt.Errorf("%w: %d", ErrBadRef, ref)
	}
	if adjust(size) <= csize {
		al.stats.ReallocInPlace++
		return ref, nil
	}

	newRef, err := al.Alloc(size)
	if err != nil {
		return NullRef, err
	}
	n := csize - layout.DoubleWord
	if size < n {
		n = size
	}
	copy(al.r.Payload(int(newRef))[:n], al.r.Payload(bp)[:n])
	if err := al.Free(ref); err != nil {
		return NullRef, err
	}
	al.stats.ReallocMoves++
	return newRef, nil
}

// findFit scans buckets in ascending order starting at the request's own
// class, and each circular list in its current LIFO order. First fit within
// segregated classes, not best fit. Returns 0 when nothing fits.
func (al *Allocator) findFit(asize int) int {
	for i := BucketFor(asize); i < layout.NumBuckets; i++ {
		s := al.r.SentinelOffset(i)
		next, _ := al.r.Links(s)
		for bp := next; bp != s; {
			size, _ := al.r.Header(bp)
			if asize <= size {
				return bp
			}
			bp, _ = al.r.Links(bp)
		}
	}
	return 0
}

// place removes bp from its free list and marks asize bytes of it allocated.
// The remainder becomes a free block of its own when it can stand as one;
// otherwise the whole block is used and the slack is internal fragmentation.
// Returns the size actually consumed.
func (al *Allocator) place(bp, asize int) int {
	csize, _ := al.r.Header(bp)
	al.listRemove(bp)

	if csize-asize >= layout.MinBlock {
		al.stats.SplitCount++
		al.r.SetBlock(bp, asize, true)
		rem := bp + asize
		al.r.SetBlock(rem, csize-asize, false)
		al.listInsert(rem, csize-asize)
		return asize
	}

	al.r.SetBlock(bp, csize, true)
	return csize
}

// coalesce merges the freshly freed block at bp with whichever physical
// neighbors are free, splices the absorbed neighbors off their lists, and
// inserts the result into the bucket matching its final size. Returns the
// merged block's payload offset.
func (al *Allocator) coalesce(bp int) int {
	size, _ := al.r.Header(bp)
	prevTag, _ := al.r.Tag(bp - layout.DoubleWord)
	prevAllocated := layout.TagAllocated(prevTag)
	nextBp := al.r.Next(bp)
	nextSize, nextAllocated := al.r.Header(nextBp)

	switch {
	case prevAllocated && nextAllocated:
		// No merge.

	case prevAllocated && !nextAllocated:
		al.stats.CoalesceForward++
		al.listRemove(nextBp)
		size += nextSize
		al.r.SetBlock(bp, size, false)

	case !prevAllocated && nextAllocated:
		al.stats.CoalesceBackward++
		prevBp := al.r.Prev(bp)
		al.listRemove(prevBp)
		prevSize, _ := al.r.Header(prevBp)
		size += prevSize
		bp = prevBp
		al.r.SetBlock(bp, size, false)

	default:
		al.stats.CoalesceForward++
		al.stats.CoalesceBackward++
		prevBp := al.r.Prev(bp)
		al.listRemove(prevBp)
		al.listRemove(nextBp)
		prevSize, _ := al.r.Header(prevBp)
		size += prevSize + nextSize
		bp = prevBp
		al.r.SetBlock(bp, size, false)
	}

	al.listInsert(bp, size)
	return bp
}

// extend grows the region by the given word count, coalesces the grant with
// a trailing free block if there is one, and returns the resulting free
// block. Arena refusal surfaces as ErrNoSpace with the heap unchanged.
func (al *Allocator) extend(words int) (int, error) {
	bp, err := al.r.Extend(words)
	if err != nil {
		if debugAlloc {
			debugLogf("extend %d words failed: %v", words, err)
		}
		return 0, fmt.Errorf("%w: %v", ErrNoSpace, err)
	}
	al.stats.GrowCalls++
	size, _ := al.r.Header(bp)
	al.stats.GrowBytes += int64(size)
	if logAlloc {
		fmt.Fprintf(os.Stderr, "[GROW] #%d: +%d bytes, heap now %d\n",
			al.stats.GrowCalls, size, al.r.Size())
	}
	return al.coalesce(bp), nil
}

// debugLogf prints debug messages if debugAlloc is enabled.
func debugLogf(format string, args ...any) {
	if debugAlloc {
		fmt.Fprintf(os.Stderr, "[ALLOC] "+format+"\n", args...)
	}
}
