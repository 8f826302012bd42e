//go:build !unix

package mem

// NewMmap is not available without mmap support; callers get a bounded
// slice-backed arena with the same growth contract.
func NewMmap(max int) (Arena, error) {
	return NewSliceLimit(max), nil
}
