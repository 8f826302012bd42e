// Package mem provides the growth collaborator behind a heap region: a
// contiguous byte range that can only ever be extended. The allocator never
// addresses memory outside ranges an Arena has granted.
package mem

import "errors"

// ErrExhausted is returned by Grow when the arena cannot grant more space.
var ErrExhausted = errors.New("mem: arena exhausted")

// Arena is a contiguous, monotonically growing byte range.
//
// Bytes returns the current backing slice; a Grow call may relocate the
// backing store, so callers must not hold slices across Grow. All allocator
// state is therefore kept as offsets, never as pointers into the range.
type Arena interface {
	// Bytes returns the current contents of the range.
	Bytes() []byte

	// Size returns the current length of the range in bytes.
	Size() int

	// Grow extends the range by n zeroed bytes. Existing contents are
	// preserved at their offsets. Returns ErrExhausted (possibly wrapped)
	// when the arena cannot grant the extension.
	Grow(n int) error

	// Close releases the backing store. The arena is unusable afterwards.
	Close() error
}

// SliceArena is the portable Arena: a Go slice extended by append. The
// backing array may move on Grow, which offset-based callers tolerate.
type SliceArena struct {
	data []byte
	max  int
}

// NewSlice returns an unbounded slice-backed arena.
func NewSlice() *SliceArena {
	return &SliceArena{}
}

// NewSliceLimit returns a slice-backed arena that refuses to grow past max
// bytes. Used by tests and the trace harness to provoke exhaustion.
func NewSliceLimit(max int) *SliceArena {
	return &SliceArena{max: max}
}

// Bytes returns the current contents of the range.
func (a *SliceArena) Bytes() []byte { return a.data }

// Size returns the current length of the range.
func (a *SliceArena) Size() int { return len(a.data) }

// Grow extends the range by n zeroed bytes.
func (a *SliceArena) Grow(n int) error {
	if n < 0 {
		return ErrExhausted
	}
	if a.max > 0 && len(a.data)+n > a.max {
		return ErrExhausted
	}
	a.data = append(a.data, make([]byte, n)...)
	return nil
}

// Close releases the backing slice.
func (a *SliceArena) Close() error {
	a.data = nil
	return nil
}
