// Package shortstring implements a single pointer-width tagged-word small
// string: short contents live entirely inside the word itself, longer
// contents live in an allocator-owned external buffer addressed by a
// pointer whose low bits double as the tag.
//
// Unlike [github.com/clapdb/memory/pkg/cowstring], this storage never
// shares a buffer between two values — there is no refcounting — it exists
// purely to keep the common case of short strings off the heap entirely.
// Its external buffers therefore only need to outlive the ShortString that
// addresses them; when backed by an arena that is automatic, and when
// backed by [Heap] the returned buffers are kept alive by pinning them in
// a package-level registry (see heap.go), since a tagged uintptr is
// invisible to the garbage collector.
package shortstring

import (
	"unsafe"

	"github.com/clapdb/memory/pkg/strhash"
)

// Allocator is the minimal allocation surface shortstring needs, shared
// with [github.com/clapdb/memory/pkg/cowstring.Allocator]'s shape so that
// [github.com/clapdb/memory/pkg/arena.Adaptor] satisfies both.
type Allocator interface {
	Alloc(size uint64) unsafe.Pointer
}

// tag occupies the low two bits of the word's integer value. On a
// little-endian machine those are the low two bits of byte 0, which is
// exactly where a naturally-aligned pointer always has free bits to steal.
type tag uintptr

const (
	tagInternal tag = 0b00
	tagDelta5   tag = 0b01
	tagLadder   tag = 0b10
	tagDelta9   tag = 0b11
	tagMask     tag = 0b11
)

// ShortString is the NUL-terminated small-string variant: one machine word,
// nothing else.
type ShortString uintptr

func (s ShortString) tag() tag { return tag(s) & tagMask }

// Len returns the number of live bytes.
func (s ShortString) Len() int {
	switch s.tag() {
	case tagInternal:
		return internalSize(uintptr(s))
	default:
		return externalSize(uintptr(s))
	}
}

// Bytes returns a read-only view of the live bytes. For an internal value
// the returned slice aliases the ShortString's own word — copy it before
// mutating the original.
func (s ShortString) Bytes() []byte {
	switch s.tag() {
	case tagInternal:
		return internalBytes(&s)
	default:
		return externalBytes(uintptr(s))
	}
}

// String materialises the live bytes as a built-in string.
func (s ShortString) String() string {
	return string(s.Bytes())
}

// Hash returns a content hash consistent with
// [github.com/clapdb/memory/pkg/cowstring.String.Hash], so equal contents
// hash equally regardless of which family holds them.
func (s ShortString) Hash() uint64 {
	return strhash.Bytes(s.Bytes())
}

// New builds a ShortString holding a copy of data, choosing internal
// storage while it fits and an external buffer from a otherwise.
func New(a Allocator, data []byte) ShortString {
	if len(data) <= internalCapacity(terminatedReserve) {
		return newInternal(data)
	}
	return ShortString(newExternal(a, data, true))
}

// ByteString is shortstring's no-terminator variant: it reclaims the byte a
// [ShortString] spends on keeping a NUL past the live bytes, at the cost of
// not being safely passable to NUL-terminated-string APIs.
type ByteString uintptr

func (s ByteString) tag() tag { return tag(s) & tagMask }

// Len returns the number of live bytes.
func (s ByteString) Len() int {
	switch s.tag() {
	case tagInternal:
		return internalSize(uintptr(s))
	default:
		return externalSize(uintptr(s))
	}
}

// Bytes returns a read-only view of the live bytes.
func (s ByteString) Bytes() []byte {
	switch s.tag() {
	case tagInternal:
		return internalBytes(&s)
	default:
		return externalBytes(uintptr(s))
	}
}

func (s ByteString) String() string { return string(s.Bytes()) }

// Hash is [ShortString.Hash] for the no-terminator variant.
func (s ByteString) Hash() uint64 {
	return strhash.Bytes(s.Bytes())
}

// NewBytes builds a ByteString holding a copy of data.
func NewBytes(a Allocator, data []byte) ByteString {
	if len(data) <= internalCapacity(0) {
		return ByteString(newInternalWord(data))
	}
	return ByteString(newExternal(a, data, false))
}
