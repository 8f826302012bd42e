package alloc

// Stats holds allocator counters for instrumentation and tests. All values
// are cumulative since New.
type Stats struct {
	AllocCalls       int   // Alloc calls, including vacuous zero-size ones
	FreeCalls        int   // Free calls on real blocks
	ReallocCalls     int   // Realloc calls
	ReallocInPlace   int   // Reallocs satisfied at the same address
	ReallocMoves     int   // Reallocs that moved the block
	SplitCount       int   // Placements that split a larger free block
	CoalesceForward  int   // Merges absorbing the next neighbor
	CoalesceBackward int   // Merges absorbing the previous neighbor
	GrowCalls        int   // Successful region extensions
	GrowBytes        int64 // Total bytes granted by the arena
	BytesAllocated   int64 // Total block bytes handed out, headers included
	BytesFreed       int64 // Total block bytes released
}
