package cowstring

import (
	"unsafe"

	"github.com/clapdb/memory/internal/debug"
)

// reserve ensures at least minCapacity characters of room, promoting
// category as needed, per the growth policy table below.
func (c *core) reserve(a Allocator, minCapacity uint64) {
	switch c.category() {
	case categorySmall:
		c.reserveSmall(a, minCapacity)
	case categoryMedium:
		c.reserveMedium(a, minCapacity)
	case categoryLarge:
		c.reserveLarge(a, minCapacity)
	}
}

func (c *core) reserveSmall(a Allocator, minCapacity uint64) {
	switch {
	case minCapacity <= maxSmallSize:
		// Nothing to do, everything stays put.
	case minCapacity <= maxMediumSize:
		size := uint64(c.smallSize())
		capacityBytes := minCapacity + 1
		p := a.Alloc(capacityBytes)
		buf := unsafe.Slice((*byte)(p), capacityBytes)
		copy(buf, c.smallBytes()[:size])
		buf[size] = 0
		c.setMediumLarge(categoryMedium, &buf[0], size, capacityBytes-1)
	default:
		size := uint64(c.smallSize())
		dataPtr, capacity := createRefCounted(a, minCapacity)
		buf := unsafe.Slice(dataPtr, size+1)
		copy(buf, c.smallBytes()[:size])
		buf[size] = 0
		c.setMediumLarge(categoryLarge, dataPtr, size, capacity)
	}
}

func (c *core) reserveMedium(a Allocator, minCapacity uint64) {
	if minCapacity <= c.rawCapacity() {
		return // enough room already
	}
	if minCapacity <= maxMediumSize {
		capacityBytes := minCapacity + 1
		newData := genericSmartRealloc(a, c.dataPtr(), c.word1+1, capacityBytes)
		c.word0 = unsafe.Pointer(newData)
		c.word2 = capacityBytes - 1
		return
	}

	// Conversion from medium to large.
	size := c.word1
	dataPtr, capacity := createRefCounted(a, minCapacity)
	buf := unsafe.Slice(dataPtr, size+1)
	copy(buf, unsafe.Slice(c.dataPtr(), size+1))

	var nascent core
	nascent.setMediumLarge(categoryLarge, dataPtr, size, capacity)
	*c = nascent
}

func (c *core) reserveLarge(a Allocator, minCapacity uint64) {
	if refsOf(c.dataPtr()) > 1 {
		// Must make it unique regardless; reserve at current capacity or
		// more so that a string's capacity never shrinks after reserve.
		c.unshare(a, max(minCapacity, c.rawCapacity()))
		return
	}
	if minCapacity > c.rawCapacity() {
		newData, newCap := reallocateRefCounted(a, c.dataPtr(), c.word1, minCapacity)
		c.word0 = unsafe.Pointer(newData)
		c.word2 = newCap
	}
}

// unshare converts a shared large buffer into a uniquely owned one of at
// least minCapacity characters, decrementing the old refcount and
// installing the new pointer.
func (c *core) unshare(a Allocator, minCapacity uint64) {
	debug.Assert(c.category() == categoryLarge, "cowstring: unshare on a non-large core")

	effectiveCapacity := max(minCapacity, c.rawCapacity())
	size := c.word1
	newData, newCap := createRefCounted(a, effectiveCapacity)
	buf := unsafe.Slice(newData, size+1)
	copy(buf, unsafe.Slice(c.dataPtr(), size+1))

	old := c.dataPtr()
	c.word0 = unsafe.Pointer(newData)
	c.word2 = newCap
	decrementRefs(old)
}
