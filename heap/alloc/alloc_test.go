package alloc_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heapkit/heapkit/heap/alloc"
	"github.com/heapkit/heapkit/heap/mem"
	"github.com/heapkit/heapkit/heap/verify"
	"github.com/heapkit/heapkit/internal/layout"
)

func newTestAllocator(t *testing.T) *alloc.Allocator {
	t.Helper()
	al, err := alloc.New(mem.NewSlice())
	require.NoError(t, err)
	t.Cleanup(func() { al.Close() })
	return al
}

// requireClean asserts every heap invariant holds at this checkpoint.
func requireClean(t *testing.T, al *alloc.Allocator) {
	t.Helper()
	issues := verify.Heap(al, verify.Options{})
	for _, i := range issues {
		t.Errorf("heap issue: %s", i)
	}
	require.Empty(t, issues)
}

func TestAllocAlignment(t *testing.T) {
	al := newTestAllocator(t)
	for _, size := range []int{1, 7, 8, 13, 24, 100, 129, 500, 4096, 10000} {
		ref, err := al.Alloc(size)
		require.NoError(t, err)
		require.NotEqual(t, alloc.NullRef, ref)
		require.Zero(t, int(ref)%layout.DoubleWord, "Alloc(%d) returned misaligned ref %d", size, ref)
	}
	requireClean(t, al)
}

func TestAllocCapacityCoversRequest(t *testing.T) {
	al := newTestAllocator(t)
	for size := 1; size <= 2000; size += 37 {
		ref, err := al.Alloc(size)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(al.Payload(ref)), size, "Alloc(%d)", size)
	}
	requireClean(t, al)
}

func TestAllocZeroIsVacuous(t *testing.T) {
	al := newTestAllocator(t)
	before := append([]byte(nil), al.Region().Bytes()...)

	ref, err := al.Alloc(0)
	require.NoError(t, err)
	require.Equal(t, alloc.NullRef, ref)

	// No heap mutation at all.
	require.True(t, bytes.Equal(before, al.Region().Bytes()))
	requireClean(t, al)
}

func TestAllocNegativeSize(t *testing.T) {
	al := newTestAllocator(t)
	_, err := al.Alloc(-1)
	require.ErrorIs(t, err, alloc.ErrBadSize)
}

func TestFreeNullIsNoop(t *testing.T) {
	al := newTestAllocator(t)
	require.NoError(t, al.Free(alloc.NullRef))
	require.Zero(t, al.Stats().FreeCalls)
}

func TestFreeBadRef(t *testing.T) {
	al := newTestAllocator(t)
	require.ErrorIs(t, al.Free(alloc.Ref(12)), alloc.ErrBadRef)        // misaligned, in prefix
	require.ErrorIs(t, al.Free(alloc.Ref(1<<30)), alloc.ErrBadRef)    // past the region
	require.ErrorIs(t, al.Free(alloc.Ref(layout.HeapBase+8)), alloc.ErrBadRef) // interior of a free block
}

// Freed block is reused LIFO at the exact same address, without splitting,
// when the next request fits it exactly.
func TestExactFitReuseSameAddress(t *testing.T) {
	al := newTestAllocator(t)

	a, err := al.Alloc(24)
	require.NoError(t, err)
	// Neighbor pins a's block so freeing it cannot coalesce.
	_, err = al.Alloc(24)
	require.NoError(t, err)

	require.NoError(t, al.Free(a))
	requireClean(t, al)

	splitsBefore := al.Stats().SplitCount
	b, err := al.Alloc(24)
	require.NoError(t, err)
	require.Equal(t, a, b, "freed block must be reused at the same address")
	require.Equal(t, splitsBefore, al.Stats().SplitCount, "exact fit must not split")
	requireClean(t, al)
}

// A 50-byte request lands inside a freed 100-byte block (after a split)
// instead of growing the heap.
func TestSmallRequestReusesFreedLargerBlock(t *testing.T) {
	al := newTestAllocator(t)

	a, err := al.Alloc(100)
	require.NoError(t, err)
	_, err = al.Alloc(100)
	require.NoError(t, err)

	require.NoError(t, al.Free(a))
	growsBefore := al.Stats().GrowCalls

	c, err := al.Alloc(50)
	require.NoError(t, err)
	require.Equal(t, a, c, "request must land inside the freed block")
	require.Equal(t, growsBefore, al.Stats().GrowCalls, "no heap growth for a fitting request")
	requireClean(t, al)
}

// Three adjacent blocks merge progressively: freeing B then A coalesces the
// pair; freeing C folds everything into one free span.
func TestProgressiveCoalescing(t *testing.T) {
	al := newTestAllocator(t)
	r := al.Region()

	a, err := al.Alloc(100)
	require.NoError(t, err)
	b, err := al.Alloc(100)
	require.NoError(t, err)
	c, err := al.Alloc(100)
	require.NoError(t, err)

	sizeA, _ := r.Header(int(a))
	sizeB, _ := r.Header(int(b))
	sizeC, _ := r.Header(int(c))

	require.NoError(t, al.Free(b))
	requireClean(t, al)

	require.NoError(t, al.Free(a))
	requireClean(t, al)
	merged, allocated := r.Header(int(a))
	require.False(t, allocated)
	require.Equal(t, sizeA+sizeB, merged, "A and B must merge")

	require.NoError(t, al.Free(c))
	requireClean(t, al)
	merged, allocated = r.Header(int(a))
	require.False(t, allocated)
	require.GreaterOrEqual(t, merged, sizeA+sizeB+sizeC, "all three must merge into one span")
	// The merged span swallowed the trailing remainder too, so the next
	// physical block is the epilogue.
	esize, eallocated := r.Header(r.Next(int(a)))
	require.Equal(t, 0, esize)
	require.True(t, eallocated)
}

func TestReallocNullActsAsAlloc(t *testing.T) {
	a := newTestAllocator(t)
	b := newTestAllocator(t)

	refA, err := a.Alloc(40)
	require.NoError(t, err)
	refB, err := b.Realloc(alloc.NullRef, 40)
	require.NoError(t, err)
	require.Equal(t, refA, refB, "Realloc(NullRef, n) must behave exactly like Alloc(n)")
	requireClean(t, b)
}

func TestReallocZeroActsAsFree(t *testing.T) {
	al := newTestAllocator(t)
	r := al.Region()

	a, err := al.Alloc(100)
	require.NoError(t, err)

	got, err := al.Realloc(a, 0)
	require.NoError(t, err)
	require.Equal(t, alloc.NullRef, got)

	// Freed and coalesced with the free remainder after it.
	_, allocated := r.Header(int(a))
	require.False(t, allocated)
	requireClean(t, al)
}

func TestReallocInPlaceWhenBlockAccommodates(t *testing.T) {
	al := newTestAllocator(t)

	a, err := al.Alloc(100) // massaged to a 128-byte payload block
	require.NoError(t, err)

	// Both a shrink and a grow within the block's real capacity stay put.
	got, err := al.Realloc(a, 40)
	require.NoError(t, err)
	require.Equal(t, a, got)

	got, err = al.Realloc(a, 120)
	require.NoError(t, err)
	require.Equal(t, a, got)

	require.Equal(t, 2, al.Stats().ReallocInPlace)
	requireClean(t, al)
}

func TestReallocGrowPreservesData(t *testing.T) {
	al := newTestAllocator(t)

	const orig = 100
	a, err := al.Alloc(orig)
	require.NoError(t, err)
	for i := 0; i < orig; i++ {
		al.Payload(a)[i] = byte(i)
	}

	b, err := al.Realloc(a, 5000)
	require.NoError(t, err)
	require.NotEqual(t, a, b, "growing past capacity must move the block")
	for i := 0; i < orig; i++ {
		require.Equal(t, byte(i), al.Payload(b)[i], "byte %d", i)
	}
	requireClean(t, al)
}

func TestReallocShrinkPreservesPrefix(t *testing.T) {
	al := newTestAllocator(t)

	a, err := al.Alloc(1000)
	require.NoError(t, err)
	for i := 0; i < 1000; i++ {
		al.Payload(a)[i] = byte(i * 7)
	}

	b, err := al.Realloc(a, 64)
	require.NoError(t, err)
	for i := 0; i < 64; i++ {
		require.Equal(t, byte(i*7), al.Payload(b)[i], "byte %d", i)
	}
	requireClean(t, al)
}

func TestFreeDoesNotCorruptNeighbors(t *testing.T) {
	al := newTestAllocator(t)

	left, err := al.Alloc(64)
	require.NoError(t, err)
	victim, err := al.Alloc(64)
	require.NoError(t, err)
	right, err := al.Alloc(64)
	require.NoError(t, err)

	for i := 0; i < 64; i++ {
		al.Payload(left)[i] = 0x11
		al.Payload(right)[i] = 0x22
	}

	require.NoError(t, al.Free(victim))
	requireClean(t, al)

	for i := 0; i < 64; i++ {
		require.Equal(t, byte(0x11), al.Payload(left)[i], "left neighbor byte %d", i)
		require.Equal(t, byte(0x22), al.Payload(right)[i], "right neighbor byte %d", i)
	}
}

func TestAllocGrowsHeapWhenNoFit(t *testing.T) {
	al := newTestAllocator(t)

	// Far larger than the initial chunk.
	ref, err := al.Alloc(3 * layout.ChunkSize)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(al.Payload(ref)), 3*layout.ChunkSize)
	require.GreaterOrEqual(t, al.Stats().GrowCalls, 2)
	requireClean(t, al)
}

func TestAllocExhaustionLeavesHeapIntact(t *testing.T) {
	arena := mem.NewSliceLimit(layout.PrefixSize + layout.ChunkSize)
	al, err := alloc.New(arena)
	require.NoError(t, err)
	defer al.Close()

	a, err := al.Alloc(100)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		al.Payload(a)[i] = 0x5C
	}

	_, err = al.Alloc(2 * layout.ChunkSize)
	require.ErrorIs(t, err, alloc.ErrNoSpace)

	// Existing allocation and all invariants survive the failure.
	for i := 0; i < 100; i++ {
		require.Equal(t, byte(0x5C), al.Payload(a)[i])
	}
	requireClean(t, al)

	// And the heap still serves requests that fit.
	_, err = al.Alloc(100)
	require.NoError(t, err)
	requireClean(t, al)
}

func TestReallocFailureLeavesOriginalUntouched(t *testing.T) {
	arena := mem.NewSliceLimit(layout.PrefixSize + layout.ChunkSize)
	al, err := alloc.New(arena)
	require.NoError(t, err)
	defer al.Close()

	a, err := al.Alloc(200)
	require.NoError(t, err)
	for i := 0; i < 200; i++ {
		al.Payload(a)[i] = byte(i)
	}

	_, err = al.Realloc(a, 2*layout.ChunkSize)
	require.ErrorIs(t, err, alloc.ErrNoSpace)

	for i := 0; i < 200; i++ {
		require.Equal(t, byte(i), al.Payload(a)[i], "byte %d", i)
	}
	requireClean(t, al)
}

func TestIndependentHeaps(t *testing.T) {
	a := newTestAllocator(t)
	b := newTestAllocator(t)

	refA, err := a.Alloc(64)
	require.NoError(t, err)
	refB, err := b.Alloc(64)
	require.NoError(t, err)

	for i := 0; i < 64; i++ {
		a.Payload(refA)[i] = 0xAA
		b.Payload(refB)[i] = 0xBB
	}
	require.Equal(t, byte(0xAA), a.Payload(refA)[0])
	require.Equal(t, byte(0xBB), b.Payload(refB)[0])

	require.NoError(t, a.Free(refA))
	requireClean(t, a)
	requireClean(t, b)
}

func TestStatsAccounting(t *testing.T) {
	al := newTestAllocator(t)

	a, err := al.Alloc(100)
	require.NoError(t, err)
	_, err = al.Alloc(100)
	require.NoError(t, err)
	require.NoError(t, al.Free(a))

	s := al.Stats()
	require.Equal(t, 2, s.AllocCalls)
	require.Equal(t, 1, s.FreeCalls)
	require.Positive(t, s.BytesAllocated)
	require.Positive(t, s.BytesFreed)
	require.Equal(t, 1, s.GrowCalls) // only the initial chunk
	require.Equal(t, int64(layout.ChunkSize), s.GrowBytes)
}
