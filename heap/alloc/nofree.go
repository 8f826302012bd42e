package alloc

import (
	"fmt"

	"github.com/heapkit/heapkit/internal/layout"
)

// NoFree is an append-only wrapper: Free is a no-op and Realloc never
// releases the old block. Useful for replaying workloads where reuse should
// be suppressed, e.g. to measure placement behavior without coalescing.
type NoFree struct {
	*Allocator
}

// Free ignores the request and keeps the block allocated.
func (NoFree) Free(Ref) error { return nil }

// Realloc resizes by copying into a fresh block, leaving the old one
// allocated.
func (n NoFree) Realloc(ref Ref, size int) (Ref, error) {
	if size < 0 {
		return NullRef, fmt.Errorf("%w: %d", ErrBadSize, size)
	}
	if size == 0 || ref == NullRef {
		// Delegate the vacuous and plain-alloc cases; neither frees.
		if size == 0 {
			return NullRef, nil
		}
		return n.Alloc(size)
	}
	csize, allocated := n.r.Header(int(ref))
	if !allocated {
		return NullRef, ErrBadRef
	}
	if adjust(size) <= csize {
		return ref, nil
	}
	newRef, err := n.Alloc(size)
	if err != nil {
		return NullRef, err
	}
	cn := csize - layout.DoubleWord
	if size < cn {
		cn = size
	}
	copy(n.r.Payload(int(newRef))[:cn], n.r.Payload(int(ref))[:cn])
	return newRef, nil
}
