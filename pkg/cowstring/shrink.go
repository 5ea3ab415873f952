package cowstring

import (
	"unsafe"

	"github.com/clapdb/memory/internal/debug"
)

// shrink reduces the live size to newSize (which must not exceed the
// current size), per the original's shrink policy.
func (c *core) shrink(a Allocator, newSize uint64) {
	debug.Assert(newSize <= uint64(c.size()), "cowstring: shrink grows the string")
	switch c.category() {
	case categorySmall:
		c.setSmallSize(int(newSize))
	case categoryMedium:
		c.setSize(newSize)
		c.writeTerminator()
	case categoryLarge:
		c.shrinkLarge(a, newSize)
	}
}

func (c *core) shrinkLarge(a Allocator, newSize uint64) {
	delta := uint64(c.size()) - newSize
	if refsOf(c.dataPtr()) == 1 {
		c.setSize(newSize)
		c.writeTerminator()
		return
	}
	if delta == 0 {
		return
	}
	// Shared: never write into the shared buffer, not even the terminator —
	// another holder may be reading it concurrently. Unshare into a fresh,
	// right-sized buffer instead.
	old := c.dataPtr()
	dataPtr, capacity := createRefCounted(a, newSize)
	buf := unsafe.Slice(dataPtr, newSize+1)
	copy(buf, unsafe.Slice(old, newSize))
	buf[newSize] = 0

	c.word0 = unsafe.Pointer(dataPtr)
	c.word2 = capacity
	c.word1 = newSize
	decrementRefs(old)
}
