package cowstring

import "unsafe"

// newCore builds a core holding a copy of data, choosing the category:
// small while it fits in place, medium up to maxMediumSize, large beyond
// that.
func newCore(a Allocator, data []byte) core {
	var c core
	n := uint64(len(data))
	switch {
	case n <= maxSmallSize:
		c.initSmall(data)
	case n <= maxMediumSize:
		c.initMedium(a, data)
	default:
		c.initLarge(a, data)
	}
	return c
}

func (c *core) initSmall(data []byte) {
	b := c.smallBytes()
	copy(b[:], data)
	c.setSmallSize(len(data))
}

func (c *core) initMedium(a Allocator, data []byte) {
	n := uint64(len(data))
	capacityBytes := n + 1 // + NUL terminator
	p := a.Alloc(capacityBytes)
	buf := unsafe.Slice((*byte)(p), capacityBytes)
	copy(buf, data)
	buf[n] = 0

	c.setMediumLarge(categoryMedium, &buf[0], n, capacityBytes-1)
}

func (c *core) initLarge(a Allocator, data []byte) {
	n := uint64(len(data))
	dataPtr, capacity := createRefCounted(a, n)
	buf := unsafe.Slice(dataPtr, n+1)
	copy(buf, data)
	buf[n] = 0

	c.setMediumLarge(categoryLarge, dataPtr, n, capacity)
}

// copyFrom duplicates rhs's contents into c (which must be fresh/reset):
// small strings are bit-copied, medium strings are deep-copied eagerly, and
// large strings share their buffer and bump its refcount, exactly mirroring
// arena_string_core's copy constructor.
func (c *core) copyFrom(a Allocator, rhs *core) {
	switch rhs.category() {
	case categorySmall:
		*c = *rhs
	case categoryMedium:
		c.initMedium(a, rhs.data())
	case categoryLarge:
		*c = *rhs
		incrementRefs(c.dataPtr())
	}
}

// cloneFrom deep-copies rhs's contents into c (which must be fresh/reset),
// never sharing storage even if rhs is large. Unlike copyFrom, this never
// bumps a refcount: it always materialises a brand-new buffer at whatever
// category the size demands.
func (c *core) cloneFrom(a Allocator, rhs *core) {
	*c = newCore(a, rhs.data())
}
