//go:build unix

package mem

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// MmapArena reserves one anonymous mapping up front and commits pages as the
// heap grows. The base address never moves, so Bytes stays stable across
// Grow; only the visible length changes.
type MmapArena struct {
	reserved  []byte // full PROT_NONE reservation
	size      int    // visible prefix length
	committed int    // page-aligned committed prefix length
}

// NewMmap reserves max bytes of address space without committing it.
func NewMmap(max int) (*MmapArena, error) {
	if max <= 0 {
		return nil, fmt.Errorf("mem: invalid reservation size %d", max)
	}
	data, err := unix.Mmap(-1, 0, max, unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("mem: reserve %d bytes: %w", max, err)
	}
	return &MmapArena{reserved: data}, nil
}

// Bytes returns the committed prefix of the reservation.
func (a *MmapArena) Bytes() []byte { return a.reserved[:a.size] }

// Size returns the visible length.
func (a *MmapArena) Size() int { return a.size }

// Grow commits n more bytes of the reservation. Fresh anonymous pages are
// already zeroed, and growth is monotonic, so no explicit clearing is needed.
func (a *MmapArena) Grow(n int) error {
	if n < 0 {
		return ErrExhausted
	}
	newSize := a.size + n
	if newSize > len(a.reserved) {
		return fmt.Errorf("%w: reserved %d, need %d", ErrExhausted, len(a.reserved), newSize)
	}
	if newSize > a.committed {
		// mprotect needs a page-aligned start; commit whole pages.
		page := os.Getpagesize()
		end := (newSize + page - 1) / page * page
		if end > len(a.reserved) {
			end = len(a.reserved)
		}
		if err := unix.Mprotect(a.reserved[a.committed:end], unix.PROT_READ|unix.PROT_WRITE); err != nil {
			return fmt.Errorf("mem: commit %d bytes: %w", end-a.committed, err)
		}
		a.committed = end
	}
	a.size = newSize
	return nil
}

// Close unmaps the reservation.
func (a *MmapArena) Close() error {
	if a.reserved == nil {
		return nil
	}
	err := unix.Munmap(a.reserved)
	a.reserved = nil
	a.size = 0
	a.committed = 0
	return err
}
