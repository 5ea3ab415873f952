package cowstring

import (
	"unsafe"

	"github.com/clapdb/memory/pkg/xunsafe"
)

// exponentialCapacity applies the exponential growth policy:
// at least newSize, but also at least 1.5x the current capacity so that
// repeated appends amortise to O(1) reallocations.
func exponentialCapacity(newSize, currentCapacity uint64) uint64 {
	return max(newSize, 1+currentCapacity*3/2)
}

// expandNoinit grows the live size to newSize, reserving with exponential
// growth hinting when the current capacity would otherwise be exceeded, and
// leaves the newly exposed bytes uninitialised (the caller is expected to
// fill them in immediately, matching std::string::__resize_default_init /
// the arena_string equivalent).
func (c *core) expandNoinit(a Allocator, newSize uint64, growthHint bool) {
	checkLength("expandNoinit", newSize)
	if newSize > uint64(c.capacity()) {
		target := newSize
		if growthHint {
			target = exponentialCapacity(newSize, uint64(c.capacity()))
		}
		c.reserve(a, target)
	}
	c.setSizeForCategory(newSize)
	c.writeTerminator()
}

// setSizeForCategory updates the live-size field regardless of category,
// unlike [core.setSize] which only handles medium/large.
func (c *core) setSizeForCategory(n uint64) {
	if c.category() == categorySmall {
		c.setSmallSize(int(n))
		return
	}
	c.setSize(n)
}

// pushBack appends a single character, growing with the exponential hint.
func (c *core) pushBack(a Allocator, ch byte) {
	oldSize := uint64(c.size())
	c.expandNoinit(a, oldSize+1, true)
	*xunsafe.Add(c.dataPtr(), oldSize) = ch
	c.writeTerminator()
}

// append grows the core by appending data's bytes in place, unsharing or
// reallocating as needed via expandNoinit's reserve call.
func (c *core) append(a Allocator, data []byte) {
	if len(data) == 0 {
		return
	}
	oldSize := uint64(c.size())
	newSize := oldSize + uint64(len(data))
	c.expandNoinit(a, newSize, true)
	dst := unsafe.Slice(c.dataPtr(), newSize)
	copy(dst[oldSize:], data)
	c.writeTerminator()
}
