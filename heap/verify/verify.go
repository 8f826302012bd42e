// Package verify provides read-only consistency checking for an allocator's
// heap. It validates the invariants the hot paths maintain — alignment,
// boundary-tag agreement, free-list membership, immediate coalescing, and
// prologue/epilogue shape — and reports findings as diagnostic issues. It is
// never invoked by the allocation paths themselves; tests call it between
// operations as an invariant checkpoint. Nothing here mutates heap state.
package verify

import (
	"fmt"
	"io"

	"github.com/heapkit/heapkit/heap"
	"github.com/heapkit/heapkit/heap/alloc"
	"github.com/heapkit/heapkit/internal/layout"
)

// Issue is a single consistency finding.
type Issue struct {
	Kind    string // category, e.g. "alignment", "boundary-tag", "free-list"
	Offset  int    // payload offset of the offending block, -1 if n/a
	Message string
}

func (i Issue) String() string {
	if i.Offset >= 0 {
		return fmt.Sprintf("%s at %d: %s", i.Kind, i.Offset, i.Message)
	}
	return fmt.Sprintf("%s: %s", i.Kind, i.Message)
}

// Options controls a heap check.
type Options struct {
	// Verbose emits a full dump of every block and every bucket's free
	// list to Writer.
	Verbose bool

	// Writer receives the verbose dump. Required when Verbose is set.
	Writer io.Writer
}

// membership cap: a corrupted circular list may never return to its
// sentinel, so traversals stop after more nodes than the heap could hold.
func maxNodes(r *heap.Region) int {
	return r.Size()/layout.MinBlock + layout.NumBuckets + 1
}

// bucketContains walks bucket i's circular list looking for off. Uses the
// raw link view: a corrupted list may thread through allocated blocks, and
// the checker must still be able to follow it.
func bucketContains(r *heap.Region, i, off int) bool {
	s := r.SentinelOffset(i)
	cur, _, ok := r.RawLinks(s)
	for steps := maxNodes(r); ok && cur != s && steps > 0; steps-- {
		if cur == off {
			return true
		}
		cur, _, ok = r.RawLinks(cur)
	}
	return false
}

// Block validates a single block: double-word alignment, header/footer
// agreement, and free-list membership matching its allocated bit. Free
// blocks must be reachable from exactly the bucket matching their size;
// allocated blocks from no bucket at all.
func Block(a *alloc.Allocator, ref alloc.Ref) []Issue {
	r := a.Region()
	bp := int(ref)
	var issues []Issue

	if bp%layout.DoubleWord != 0 {
		issues = append(issues, Issue{
			Kind:    "alignment",
			Offset:  bp,
			Message: fmt.Sprintf("block not aligned to %d bytes", layout.DoubleWord),
		})
	}

	htag, hok := r.Tag(bp - layout.WordSize)
	if !hok {
		return append(issues, Issue{
			Kind:    "bounds",
			Offset:  bp,
			Message: "header outside region",
		})
	}
	size := layout.TagSize(htag)
	allocated := layout.TagAllocated(htag)

	ftag, fok := r.Tag(bp + size - layout.DoubleWord)
	if !fok {
		return append(issues, Issue{
			Kind:    "bounds",
			Offset:  bp,
			Message: fmt.Sprintf("footer outside region (size %d)", size),
		})
	}
	if htag != ftag {
		issues = append(issues, Issue{
			Kind:   "boundary-tag",
			Offset: bp,
			Message: fmt.Sprintf("header [%d:%c] does not match footer [%d:%c]",
				size, allocChar(allocated), layout.TagSize(ftag), allocChar(layout.TagAllocated(ftag))),
		})
	}

	want := alloc.BucketFor(size)
	for i := 0; i < layout.NumBuckets; i++ {
		in := bucketContains(r, i, bp)
		switch {
		case allocated && in:
			issues = append(issues, Issue{
				Kind:    "free-list",
				Offset:  bp,
				Message: fmt.Sprintf("allocated block reachable from bucket %d", i),
			})
		case !allocated && i == want && !in:
			issues = append(issues, Issue{
				Kind:    "free-list",
				Offset:  bp,
				Message: fmt.Sprintf("free block of size %d missing from bucket %d", size, i),
			})
		case !allocated && i != want && in:
			issues = append(issues, Issue{
				Kind:    "free-list",
				Offset:  bp,
				Message: fmt.Sprintf("free block of size %d reachable from wrong bucket %d (want %d)", size, i, want),
			})
		}
	}

	return issues
}

// Heap validates the entire heap: prologue shape, every block reached by
// forward traversal, epilogue shape, and the immediate-coalescing invariant
// that no two physically adjacent blocks are both free. Only blocks actually
// reached during traversal are inspected. With Verbose set, a full dump of
// blocks and bucket contents is written first.
func Heap(a *alloc.Allocator, opts Options) []Issue {
	r := a.Region()
	var issues []Issue

	if opts.Verbose && opts.Writer != nil {
		Dump(a, opts.Writer)
	}

	psize, pallocated := r.Header(layout.PrologueRef)
	if psize != layout.DoubleWord || !pallocated {
		issues = append(issues, Issue{
			Kind:    "prologue",
			Offset:  layout.PrologueRef,
			Message: fmt.Sprintf("bad prologue header [%d:%c]", psize, allocChar(pallocated)),
		})
	}

	prevFree := false
	bp := layout.HeapBase
	for steps := maxNodes(r); steps > 0; steps-- {
		tag, ok := r.Tag(bp - layout.WordSize)
		if !ok {
			issues = append(issues, Issue{
				Kind:    "bounds",
				Offset:  bp,
				Message: "traversal ran past region end",
			})
			return issues
		}
		size := layout.TagSize(tag)
		allocated := layout.TagAllocated(tag)
		if size == 0 {
			// Epilogue: must be allocated and terminate the region.
			if !allocated {
				issues = append(issues, Issue{
					Kind:    "epilogue",
					Offset:  bp,
					Message: "epilogue not marked allocated",
				})
			}
			if bp != r.Size() {
				issues = append(issues, Issue{
					Kind:    "epilogue",
					Offset:  bp,
					Message: fmt.Sprintf("epilogue at %d, region ends at %d", bp, r.Size()),
				})
			}
			return issues
		}

		issues = append(issues, Block(a, alloc.Ref(bp))...)
		if !allocated && prevFree {
			issues = append(issues, Issue{
				Kind:    "coalescing",
				Offset:  bp,
				Message: "adjacent free blocks escaped coalescing",
			})
		}
		prevFree = !allocated

		// TagSize only yields DoubleWord multiples, so undersize is the
		// one illegal shape a decoded tag can carry.
		if size < layout.MinBlock {
			issues = append(issues, Issue{
				Kind:    "boundary-tag",
				Offset:  bp,
				Message: fmt.Sprintf("illegal block size %d", size),
			})
			return issues
		}
		bp += size
	}

	return append(issues, Issue{
		Kind:    "epilogue",
		Offset:  -1,
		Message: "traversal never reached the epilogue",
	})
}

// Dump writes a human-readable listing of every block and every bucket's
// free-list contents.
func Dump(a *alloc.Allocator, w io.Writer) {
	r := a.Region()
	fmt.Fprintf(w, "heap: %d bytes, base %d\n", r.Size(), layout.HeapBase)

	bp := layout.HeapBase
	for steps := maxNodes(r); steps > 0; steps-- {
		tag, ok := r.Tag(bp - layout.WordSize)
		if !ok {
			fmt.Fprintf(w, "  %8d: <out of bounds>\n", bp)
			break
		}
		size := layout.TagSize(tag)
		if size == 0 {
			fmt.Fprintf(w, "  %8d: epilogue\n", bp)
			break
		}
		ftag, _ := r.Tag(bp + size - layout.DoubleWord)
		fmt.Fprintf(w, "  %8d: header [%d:%c] footer [%d:%c]\n", bp,
			size, allocChar(layout.TagAllocated(tag)),
			layout.TagSize(ftag), allocChar(layout.TagAllocated(ftag)))
		if size < layout.MinBlock {
			break
		}
		bp += size
	}

	for i := 0; i < layout.NumBuckets; i++ {
		s := r.SentinelOffset(i)
		fmt.Fprintf(w, "bucket %d:", i)
		cur, _, ok := r.RawLinks(s)
		for steps := maxNodes(r); ok && cur != s && steps > 0; steps-- {
			fmt.Fprintf(w, " %d", cur)
			cur, _, ok = r.RawLinks(cur)
		}
		fmt.Fprintln(w)
	}
}

func allocChar(allocated bool) byte {
	if allocated {
		return 'a'
	}
	return 'f'
}
