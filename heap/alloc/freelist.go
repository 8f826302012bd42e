package alloc

// The segregated free lists live entirely inside the region: each bucket has
// a sentinel node in the region prefix, and free blocks carry their links in
// the first two payload words. Both operations are O(1) splices.

// listInsert splices bp in right after its bucket's sentinel (LIFO order).
// The block must already be marked free.
func (al *Allocator) listInsert(bp, size int) {
	s := al.r.SentinelOffset(BucketFor(size))
	next, _ := al.r.Links(s)
	al.r.SetLinks(bp, next, s)
	al.r.SetNextLink(s, bp)
	al.r.SetPrevLink(next, bp)
}

// listRemove splices bp out using its own stored links. Undefined when bp is
// not currently on a list.
func (al *Allocator) listRemove(bp int) {
	next, prev := al.r.Links(bp)
	al.r.SetNextLink(prev, next)
	al.r.SetPrevLink(next, prev)
}
