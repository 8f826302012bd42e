// Package alloc implements a single-threaded dynamic allocator over one
// contiguous, growable heap region.
//
// # Overview
//
// Blocks carry boundary tags: a header and footer word each encoding
// (size, allocated). Free blocks additionally store two link words in their
// payload, threading them onto one of ten segregated circular free lists.
// Placement is first fit within ascending size classes, with splitting when
// the remainder can stand as a block of its own. Freeing coalesces with both
// physical neighbors immediately, so no two adjacent blocks are ever both
// free between operations.
//
// # Size classes
//
// The allocator maintains 10 segregated free lists:
//
//	Bucket 0:    -   32 bytes
//	Bucket 1:   33 -   64 bytes
//	Bucket 2:   65 -  128 bytes
//	Bucket 3:  129 -  256 bytes
//	Bucket 4:  257 -  512 bytes
//	Bucket 5:  513 - 1024 bytes
//	Bucket 6: 1025 - 2048 bytes
//	Bucket 7: 2049 - 4096 bytes
//	Bucket 8: 4097 - 8192 bytes
//	Bucket 9: 8193+       bytes
//
// A search starts at the request's own bucket and scans upward; every bucket
// past the first holds only blocks at least as large as the request's class,
// so the scan never inspects a too-small block once past the starting bucket.
// Requests of at most 128 bytes are rounded up to the next power of two
// before overhead is added, trading a little internal fragmentation for much
// better reuse within a bucket.
//
// # Usage
//
//	al, err := alloc.New(mem.NewSlice())
//	if err != nil {
//	    return err
//	}
//	defer al.Close()
//
//	ref, err := al.Alloc(64)
//	if err != nil {
//	    return err
//	}
//	copy(al.Payload(ref), data)
//	err = al.Free(ref)
//
// Alloc(0) and Free(NullRef) are defined no-ops, not errors.
//
// # Growth
//
// When no free block fits, the heap is extended through the region's arena
// by max(request, 4KB). The region only ever grows; arena exhaustion is the
// sole failure source and surfaces as ErrNoSpace with allocator state fully
// intact.
//
// # Thread safety
//
// Allocator instances are not thread-safe. Callers must serialize access
// externally; there is no internal locking.
//
// # Related packages
//
//   - github.com/heapkit/heapkit/heap: region layout and boundary tags
//   - github.com/heapkit/heapkit/heap/verify: read-only invariant checking
//   - github.com/heapkit/heapkit/heap/mem: growth providers
package alloc
