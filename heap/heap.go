// Package heap owns the raw contiguous region an allocator carves blocks
// from: the boundary-tag format, the sentinel/prologue/epilogue prefix, and
// region extension through the growth collaborator.
package heap

import (
	"fmt"

	"github.com/heapkit/heapkit/heap/mem"
	"github.com/heapkit/heapkit/internal/buf"
	"github.com/heapkit/heapkit/internal/layout"
)

// Region is one contiguous, append-only heap range. All block state lives in
// the range itself as boundary tags and link words; the Region holds only the
// arena handle, so every access goes through bounds-checked offset reads.
//
// Blocks are addressed by payload offset. The header word sits at off-4 and
// the footer at off+size-8, matching the layout package's prefix geometry.
type Region struct {
	arena mem.Arena
}

// NewRegion lays down the region prefix on a fresh arena: ten self-linked
// bucket sentinels, the pad word, the prologue block, and the initial
// epilogue header. Fails only if the arena cannot supply the reservation.
func NewRegion(a mem.Arena) (*Region, error) {
	if err := a.Grow(layout.PrefixSize); err != nil {
		return nil, fmt.Errorf("heap: initial reservation: %w", err)
	}
	r := &Region{arena: a}
	for i := 0; i < layout.NumBuckets; i++ {
		off := r.SentinelOffset(i)
		r.SetLinks(off, off, off)
	}
	// Pad word is already zero. Prologue is a zero-payload allocated block
	// whose footer doubles as the backward-traversal anchor.
	r.putTag(layout.PrologueHeader, layout.PackTag(layout.DoubleWord, true))
	r.putTag(layout.PrologueRef, layout.PackTag(layout.DoubleWord, true))
	r.putTag(r.Size()-layout.WordSize, layout.PackTag(0, true))
	return r, nil
}

// Bytes returns the current region contents. Invalid after Close, and
// possibly relocated by Extend; hold offsets, not slices.
func (r *Region) Bytes() []byte { return r.arena.Bytes() }

// Size returns the current region length in bytes.
func (r *Region) Size() int { return r.arena.Size() }

// Close releases the underlying arena.
func (r *Region) Close() error { return r.arena.Close() }

// Contains reports whether off is a plausible block payload offset: inside
// the traversable span and double-word aligned.
func (r *Region) Contains(off int) bool {
	return off >= layout.HeapBase && off < r.Size() && layout.Aligned(off)
}

// Tag reads the raw tag word at pos. ok is false when pos is out of bounds.
func (r *Region) Tag(pos int) (uint32, bool) {
	return buf.U32At(r.Bytes(), pos)
}

func (r *Region) tag(pos int) uint32 {
	v, ok := buf.U32At(r.Bytes(), pos)
	if !ok {
		panic(fmt.Sprintf("heap: tag read out of bounds at %d (size %d)", pos, r.Size()))
	}
	return v
}

func (r *Region) putTag(pos int, v uint32) {
	if !buf.PutU32At(r.Bytes(), pos, v) {
		panic(fmt.Sprintf("heap: tag write out of bounds at %d (size %d)", pos, r.Size()))
	}
}

// Header returns the (size, allocated) pair encoded in the block's header.
func (r *Region) Header(bp int) (int, bool) {
	t := r.tag(bp - layout.WordSize)
	return layout.TagSize(t), layout.TagAllocated(t)
}

// Footer returns the (size, allocated) pair encoded in the block's footer.
// The footer position is derived from the header size, as in any boundary-tag
// scheme; the consistency checker is what catches disagreement.
func (r *Region) Footer(bp int) (int, bool) {
	size, _ := r.Header(bp)
	t := r.tag(bp + size - layout.DoubleWord)
	return layout.TagSize(t), layout.TagAllocated(t)
}

// SetBlock rewrites the block's header and footer with (size, allocated).
func (r *Region) SetBlock(bp, size int, allocated bool) {
	t := layout.PackTag(size, allocated)
	r.putTag(bp-layout.WordSize, t)
	r.putTag(bp+size-layout.DoubleWord, t)
}

// Next returns the payload offset of the physically following block. On the
// last real block this lands on the epilogue, whose header Next's result
// still resolves to.
func (r *Region) Next(bp int) int {
	size, _ := r.Header(bp)
	return bp + size
}

// Prev returns the payload offset of the physically preceding block, located
// through its footer word.
func (r *Region) Prev(bp int) int {
	t := r.tag(bp - layout.DoubleWord)
	return bp - layout.TagSize(t)
}

// SentinelOffset returns the storage offset of bucket i's sentinel node.
func (r *Region) SentinelOffset(i int) int { return i * layout.SentinelSize }

// IsSentinel reports whether off names a bucket sentinel rather than a block.
func (r *Region) IsSentinel(off int) bool {
	return off >= 0 && off < layout.SentinelBytes && off%layout.SentinelSize == 0
}

// linkable reports whether off may be viewed as a free-list node: bucket
// sentinels always, block payloads only while their allocated bit is clear.
// This is the single authoritative payload-to-link conversion gate.
func (r *Region) linkable(off int) bool {
	if r.IsSentinel(off) {
		return true
	}
	if !r.Contains(off) {
		return false
	}
	_, allocated := r.Header(off)
	return !allocated
}

// Links returns the (next, prev) free-list link words stored at off. Viewing
// an allocated block's payload as link storage is a caller bug and panics.
func (r *Region) Links(off int) (next, prev int) {
	if !r.linkable(off) {
		panic(fmt.Sprintf("heap: link view of non-free node at %d", off))
	}
	return int(r.tag(off)), int(r.tag(off + layout.WordSize))
}

// SetLinks stores the (next, prev) free-list link words at off, under the
// same conversion gate as Links.
func (r *Region) SetLinks(off, next, prev int) {
	if !r.linkable(off) {
		panic(fmt.Sprintf("heap: link view of non-free node at %d", off))
	}
	r.putTag(off, uint32(next))
	r.putTag(off+layout.WordSize, uint32(prev))
}

// SetNextLink stores only the next link word at off, under the same
// conversion gate as Links.
func (r *Region) SetNextLink(off, next int) {
	if !r.linkable(off) {
		panic(fmt.Sprintf("heap: link view of non-free node at %d", off))
	}
	r.putTag(off, uint32(next))
}

// SetPrevLink stores only the prev link word at off, under the same
// conversion gate as Links.
func (r *Region) SetPrevLink(off, prev int) {
	if !r.linkable(off) {
		panic(fmt.Sprintf("heap: link view of non-free node at %d", off))
	}
	r.putTag(off+layout.WordSize, uint32(prev))
}

// RawLinks reads link words without the free-block gate. Diagnostic use
// only: the consistency checker must be able to follow corrupted lists.
func (r *Region) RawLinks(off int) (next, prev int, ok bool) {
	n, ok1 := buf.U32At(r.Bytes(), off)
	p, ok2 := buf.U32At(r.Bytes(), off+layout.WordSize)
	return int(n), int(p), ok1 && ok2
}

// Payload returns the usable payload bytes of the block at bp.
func (r *Region) Payload(bp int) []byte {
	size, _ := r.Header(bp)
	s, ok := buf.Slice(r.Bytes(), bp, size-layout.DoubleWord)
	if !ok {
		panic(fmt.Sprintf("heap: payload out of bounds at %d size %d", bp, size))
	}
	return s
}

// Extend grows the region by the given word count, rounded up to an even
// number to preserve alignment. The grant becomes one free block written
// over the former epilogue position, with a fresh epilogue header after it.
// Coalescing with the preceding block is the caller's job, since it requires
// free-list surgery. Returns the new block's payload offset.
func (r *Region) Extend(words int) (int, error) {
	n := layout.EvenWords(words) * layout.WordSize
	if n < layout.MinBlock {
		n = layout.MinBlock
	}
	bp := r.Size()
	if err := r.arena.Grow(n); err != nil {
		return 0, fmt.Errorf("heap: extend %d bytes: %w", n, err)
	}
	r.SetBlock(bp, n, false)
	r.putTag(r.Size()-layout.WordSize, layout.PackTag(0, true))
	return bp, nil
}
