package cowstring

import (
	"unsafe"

	"github.com/clapdb/memory/internal/debug"
)

// refCounted is the heap-block layout backing a large string:
// [refCount uint64][chars...]. The refcount is plain, non-atomic memory —
// large cowstrings are single-owner/single-goroutine by design, exactly as
// the original requires; a debug build asserts on cross-goroutine mutation
// instead (see [guard]).
type refCounted struct {
	refCount uint64
}

const refCountedHeaderSize = 8 // unsafe.Sizeof(refCounted{}), pinned so data() arithmetic doesn't depend on field order

func refCountedFromData(data *byte) *refCounted {
	return (*refCounted)(unsafe.Pointer(uintptr(unsafe.Pointer(data)) - refCountedHeaderSize))
}

func (r *refCounted) data() *byte {
	return (*byte)(unsafe.Add(unsafe.Pointer(r), refCountedHeaderSize))
}

func refsOf(data *byte) uint64 {
	return refCountedFromData(data).refCount
}

func incrementRefs(data *byte) {
	refCountedFromData(data).refCount++
}

func decrementRefs(data *byte) {
	rc := refCountedFromData(data)
	debug.Assert(rc.refCount > 0, "cowstring: decrementRefs on a buffer with no refs")
	rc.refCount--
	// Unlike the reference implementation, this package never frees the
	// block on refCount==0: under an arena there is nothing to free, and
	// under Heap the Go garbage collector reclaims it once refCountedFromData
	// is no longer reachable from any core. See DESIGN.md for this exact
	// asymmetry.
}

// createRefCounted allocates a fresh refcounted buffer with room for at
// least minCapacity characters plus the NUL terminator cowstring always
// maintains past size, and returns its data pointer and the capacity
// actually obtained (which may be larger than requested).
func createRefCounted(a Allocator, minCapacity uint64) (data *byte, capacity uint64) {
	capacityBytes := minCapacity + 1 // +1 for the NUL terminator
	p := a.Alloc(refCountedHeaderSize + capacityBytes)
	rc := (*refCounted)(p)
	rc.refCount = 1
	return rc.data(), capacityBytes - 1
}

// reallocateRefCounted grows a uniquely-owned (refCount==1) large buffer to
// at least newCapacity characters, preserving currentSize live characters
// (including the terminator byte past them). It is the RefCounted-aware
// counterpart of [genericSmartRealloc]: the header is copied along with the
// payload, which is what keeps the refcount at 1 without a fresh store.
func reallocateRefCounted(a Allocator, data *byte, currentSize, newCapacity uint64) (newData *byte, capacity uint64) {
	debug.Assert(refsOf(data) == 1, "cowstring: reallocateRefCounted on a shared buffer")

	oldHeader := refCountedFromData(data)
	newCapacityBytes := newCapacity + 1
	p := a.Alloc(refCountedHeaderSize + newCapacityBytes)
	newHeader := (*refCounted)(p)

	copySize := refCountedHeaderSize + currentSize + 1 // + terminator byte
	copy(unsafe.Slice((*byte)(p), copySize), unsafe.Slice((*byte)(unsafe.Pointer(oldHeader)), copySize))
	debug.Assert(newHeader.refCount == 1, "cowstring: reallocateRefCounted lost the refcount")

	return newHeader.data(), newCapacityBytes - 1
}

// genericSmartRealloc emulates realloc as allocate-then-memcpy for a plain
// (non-refcounted) medium buffer, since neither an arena nor Heap supports
// growing an allocation in place. The old buffer is left for the allocator
// to reclaim on its own terms: under Heap the Go GC collects it once
// unreferenced; under an arena it is never reclaimed until Reset/Destroy,
// which is the deliberate space-for-time trade the original accepts.
func genericSmartRealloc(a Allocator, data *byte, currentSize, newCapacityBytes uint64) *byte {
	p := a.Alloc(newCapacityBytes)
	copy(unsafe.Slice((*byte)(p), currentSize), unsafe.Slice(data, currentSize))
	return (*byte)(p)
}
