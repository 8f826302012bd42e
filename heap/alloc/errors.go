package alloc

import "errors"

var (
	// ErrNoSpace indicates that no free block was large enough and the
	// growth provider refused to extend the region.
	ErrNoSpace = errors.New("alloc: no space left in heap")

	// ErrBadRef indicates a reference that does not name an allocated
	// block within the region.
	ErrBadRef = errors.New("alloc: bad block reference")

	// ErrBadSize indicates a negative request size.
	ErrBadSize = errors.New("alloc: negative size")
)
