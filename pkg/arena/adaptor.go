package arena

import "unsafe"

// Adaptor presents an Arena as a small polymorphic-allocator-like value,
// suitable for allocator-aware generic containers such as
// [github.com/clapdb/memory/pkg/buffer.Sequence]. It has no state of its own
// beyond the arena it wraps, so it can be copied freely.
type Adaptor struct {
	arena *Arena
}

// NewAdaptor wraps a as an allocator-like value.
func NewAdaptor(a *Arena) Adaptor {
	return Adaptor{arena: a}
}

// Alloc allocates size bytes of 8-byte-aligned memory from the wrapped
// arena.
func (ad Adaptor) Alloc(size uint64) unsafe.Pointer {
	return ad.arena.AllocateAligned(size)
}

// Equal reports whether other wraps the same underlying arena, mirroring
// memory_resource::do_is_equal from the allocator this adaptor is modeled
// on: two adaptors only compare equal when they share an arena, which is
// what lets containers detect they can avoid a copy on move/swap.
func (ad Adaptor) Equal(other Adaptor) bool {
	return ad.arena == other.arena
}

// Arena returns the underlying arena.
func (ad Adaptor) Arena() *Arena { return ad.arena }
