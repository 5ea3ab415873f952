package cowstring

import "unsafe"

// Heap is the non-arena [Allocator]: each call allocates a fresh
// garbage-collected buffer, so a [String] built against Heap behaves like
// an ordinary Go string with copy-on-write sharing but ordinary GC-managed
// lifetime instead of arena-owned lifetime.
var Heap Allocator = heapAllocator{}

type heapAllocator struct{}

func (heapAllocator) Alloc(size uint64) unsafe.Pointer {
	if size == 0 {
		size = 1
	}
	buf := make([]byte, size)
	return unsafe.Pointer(&buf[0])
}
