package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heapkit/heapkit/heap/mem"
)

func newInternalAllocator(t *testing.T) *Allocator {
	t.Helper()
	al, err := New(mem.NewSlice())
	require.NoError(t, err)
	t.Cleanup(func() { al.Close() })
	return al
}

func TestListInsertSplicesAfterSentinel(t *testing.T) {
	al := newInternalAllocator(t)
	r := al.r

	// Carve two same-bucket free blocks out of the heap.
	a, err := al.Alloc(24)
	require.NoError(t, err)
	_, err = al.Alloc(24) // spacer pinning a
	require.NoError(t, err)
	b, err := al.Alloc(24)
	require.NoError(t, err)
	_, err = al.Alloc(24) // spacer pinning b
	require.NoError(t, err)

	require.NoError(t, al.Free(a))
	require.NoError(t, al.Free(b))

	sizeA, _ := r.Header(int(a))
	s := r.SentinelOffset(BucketFor(sizeA))

	// LIFO: b was freed last, so it sits right after the sentinel.
	next, _ := r.Links(s)
	require.Equal(t, int(b), next)
	bNext, bPrev := r.Links(int(b))
	require.Equal(t, int(a), bNext)
	require.Equal(t, s, bPrev)
	aNext, aPrev := r.Links(int(a))
	require.Equal(t, s, aNext)
	require.Equal(t, int(b), aPrev)
}

func TestListRemoveRelinksNeighbors(t *testing.T) {
	al := newInternalAllocator(t)
	r := al.r

	a, err := al.Alloc(24)
	require.NoError(t, err)
	_, err = al.Alloc(24)
	require.NoError(t, err)
	b, err := al.Alloc(24)
	require.NoError(t, err)
	_, err = al.Alloc(24)
	require.NoError(t, err)

	require.NoError(t, al.Free(a))
	require.NoError(t, al.Free(b))

	sizeA, _ := r.Header(int(a))
	s := r.SentinelOffset(BucketFor(sizeA))

	// Removing the middle node (b) must leave sentinel <-> a circular.
	al.listRemove(int(b))
	next, prev := r.Links(s)
	require.Equal(t, int(a), next)
	require.Equal(t, int(a), prev)
	aNext, aPrev := r.Links(int(a))
	require.Equal(t, s, aNext)
	require.Equal(t, s, aPrev)

	// Put it back so teardown invariants hold.
	al.listInsert(int(b), sizeA)
}

func TestFindFitSkipsSmallerBlocksInStartBucket(t *testing.T) {
	al := newInternalAllocator(t)

	// Two free blocks in bucket 3 (129-256 bytes): 136 and 208 total.
	small, err := al.Alloc(120) // massaged to a 136-byte block
	require.NoError(t, err)
	_, err = al.Alloc(24)
	require.NoError(t, err)
	big, err := al.Alloc(200) // 208-byte block, same bucket
	require.NoError(t, err)
	_, err = al.Alloc(24)
	require.NoError(t, err)

	// Free big first so LIFO order puts small ahead of it in the list.
	require.NoError(t, al.Free(big))
	require.NoError(t, al.Free(small))

	// A request only the bigger block satisfies must scan past the
	// too-small one within the same bucket.
	got, err := al.Alloc(200)
	require.NoError(t, err)
	require.Equal(t, big, got)
}
