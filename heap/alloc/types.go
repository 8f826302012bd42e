package alloc

// Ref is a block reference: the uint32 payload offset of a block within its
// region. Offset 0 lies inside bucket sentinel storage and can never be a
// payload, so it doubles as the null/failure sentinel.
type Ref = uint32

// NullRef is the null/failure-sentinel reference.
const NullRef Ref = 0

// Heap is the allocation surface shared by the full allocator and its
// append-only wrapper.
type Heap interface {
	// Alloc allocates a block with at least size usable bytes. Size 0 is
	// a defined no-op returning NullRef with no error.
	Alloc(size int) (Ref, error)

	// Free releases the block. NullRef is a defined no-op.
	Free(ref Ref) error

	// Realloc resizes the block, moving it when required. Size 0 frees;
	// a NullRef ref allocates.
	Realloc(ref Ref, size int) (Ref, error)
}
