//go:build go1.22

// Package buffer provides a growable, allocator-aware sequence type meant to
// be backed by an [github.com/clapdb/memory/pkg/arena.Arena] via
// [github.com/clapdb/memory/pkg/arena.Adaptor], demonstrating that an arena
// can sit underneath an ordinary generic container the same way any other
// polymorphic allocator would.
package buffer

import (
	"unsafe"

	"github.com/clapdb/memory/internal/debug"
	"github.com/clapdb/memory/pkg/xunsafe"
	"github.com/clapdb/memory/pkg/xunsafe/layout"
)

// Allocator is the minimal allocator surface a [Sequence] needs. An arena has
// no per-object free, so there is deliberately no Release/Dealloc method
// here: growth always allocates fresh space and copies, leaving the old
// space to be reclaimed (if ever) on the allocator's own terms.
type Allocator interface {
	Alloc(size uint64) unsafe.Pointer
}

// Sequence is a growable sequence of T backed by an [Allocator].
//
// Like the arena memory it typically lives in, a Sequence contains no
// pointers of its own shape: it is just a pointer, length, and capacity, and
// must not outlive the allocator that backs it.
type Sequence[T any] struct {
	ptr      *T
	len, cap uint32
}

// Len returns the number of elements in the sequence.
func (s Sequence[T]) Len() int { return int(s.len) }

// Cap returns the number of elements the sequence can hold before its next
// Append triggers a grow.
func (s Sequence[T]) Cap() int { return int(s.cap) }

// Raw returns a Go slice aliasing the sequence's storage. The slice must not
// be retained past the lifetime of the backing allocator.
func (s Sequence[T]) Raw() []T {
	if s.ptr == nil {
		return nil
	}
	return unsafe.Slice(s.ptr, s.len)
}

// At returns a pointer to the ith element.
func (s Sequence[T]) At(i int) *T {
	debug.Assert(i >= 0 && i < int(s.len), "buffer: index out of range")
	return xunsafe.Add(s.ptr, i)
}

// Make allocates a sequence with the given length, backed by a.
func Make[T any](a Allocator, n int) Sequence[T] {
	if n == 0 {
		return Sequence[T]{}
	}

	size := uint64(layout.Size[T]()) * uint64(n)
	ptr := (*T)(a.Alloc(size))
	return Sequence[T]{ptr, uint32(n), uint32(n)}
}

// Of allocates a sequence holding a copy of values, backed by a.
func Of[T any](a Allocator, values ...T) Sequence[T] {
	s := Make[T](a, len(values))
	copy(s.Raw(), values)
	return s
}

// Append grows the sequence to make room for values and copies them in,
// returning the updated sequence.
//
// Because the backing allocator has no realloc, growth always allocates a
// fresh block at least double the previous capacity and copies the live
// elements into it; the old storage is left behind for the allocator to
// reclaim on its own terms (on an arena, only by Reset or Destroy).
func Append[T any](a Allocator, s Sequence[T], values ...T) Sequence[T] {
	need := int(s.len) + len(values)
	if need <= int(s.cap) {
		dst := unsafe.Slice(s.ptr, s.cap)[s.len:need]
		copy(dst, values)
		s.len = uint32(need)
		return s
	}

	newCap := max(need, int(s.cap)*2, 4)
	grown := Make[T](a, newCap)
	copy(grown.Raw(), s.Raw())
	copy(grown.Raw()[s.len:], values)
	grown.len = uint32(need)
	return grown
}

// Clone copies s into freshly allocated storage backed by a.
func Clone[T any](a Allocator, s Sequence[T]) Sequence[T] {
	return Of(a, s.Raw()...)
}
