// Package cowstring implements the copy-on-write, three-state short-string
// storage described for arena-aware strings: short contents live in place,
// medium contents live in a uniquely-owned heap buffer, and large contents
// live in a reference-counted buffer that copy shares in O(1) and unshares
// only on mutation.
//
// The storage is parameterised over an [Allocator], so a [String] can be
// built against [github.com/clapdb/memory/pkg/arena.Adaptor] and route every
// growth through an arena, or against [Heap] to behave like an ordinary
// garbage-collected string type.
package cowstring

import (
	"unsafe"

	"github.com/clapdb/memory/internal/debug"
	"github.com/clapdb/memory/pkg/xunsafe"
)

// Allocator is the minimal allocation surface cowstring needs. It is
// satisfied by [github.com/clapdb/memory/pkg/arena.Adaptor], so a String can
// live entirely inside an arena with no individual frees.
type Allocator interface {
	Alloc(size uint64) unsafe.Pointer
}

// category discriminates which of the three storage layouts a [core] is
// currently using. Values mirror the original's little-endian discriminator:
// the top two bits of the last byte of the four-word payload.
type category uint8

const (
	categorySmall  category = 0x00
	categoryLarge  category = 0x40
	categoryMedium category = 0x80
	categoryMask   category = 0xC0
)

const (
	wordSize = 8 // bytes per machine word on the only layout this package supports: little-endian, 64-bit.

	// maxSmallSize is how many characters fit in a small core in place:
	// four words, minus one marker byte. This is deliberately one word
	// larger than the 23-byte small capacity of the C++ original, because
	// the Go facade keeps its allocator handle outside the core (see
	// package doc), freeing up the word the C++ union spent on it.
	maxSmallSize = 4*wordSize - 1

	// maxMediumSize is the size ceiling for the medium (uniquely-owned,
	// realloc-on-grow) category, matching the original's threshold.
	maxMediumSize = 254
)

// core is the four-machine-word storage payload: small/medium/large state,
// with no allocator reference of its own (the allocator lives on [String]).
//
// Layout:
//   - medium/large: word0 is the data pointer, word1 is the size, word2 is
//     the capacity, word3 holds only the category marker in its last byte.
//   - small: all 31 usable bytes across word0..word3 hold characters in
//     place; the last byte of word3 holds maxSmallSize-size, exactly as
//     the original's small-size encoding.
//
// word0 is declared unsafe.Pointer (not uintptr) specifically so Go's
// precise garbage collector keeps medium/large buffers reachable for as
// long as a core referencing them is reachable; see DESIGN.md for the
// GC-safety argument for reusing this same field as raw character bytes
// when category()==small.
type core struct {
	word0 unsafe.Pointer
	word1 uint64
	word2 uint64
	word3 uint64
}

func (c *core) smallBytes() *[4 * wordSize]byte {
	return xunsafe.Cast[[4 * wordSize]byte](&c.word0)
}

func (c *core) category() category {
	b := c.smallBytes()
	return category(b[4*wordSize-1]) & categoryMask
}

// setSmallSize updates the embedded small-size marker (and, where there is
// room for it, the NUL terminator byte just past the new size). When n
// equals maxSmallSize those are the same byte, and the marker value (0)
// already doubles as the terminator.
func (c *core) setSmallSize(n int) {
	debug.Assert(n >= 0 && n <= maxSmallSize, "cowstring: small size out of range")
	b := c.smallBytes()
	b[maxSmallSize] = byte(maxSmallSize - n)
	if n < maxSmallSize {
		b[n] = 0
	}
}

func (c *core) smallSize() int {
	debug.Assert(c.category() == categorySmall, "cowstring: smallSize on non-small core")
	b := c.smallBytes()
	return maxSmallSize - int(b[maxSmallSize])
}

func (c *core) setNonSmallCategory(cat category) {
	debug.Assert(cat != categorySmall, "cowstring: setNonSmallCategory(small)")
	b := c.smallBytes()
	b[4*wordSize-1] = byte(cat)
}

// size returns the number of live characters, regardless of category.
func (c *core) size() int {
	if c.category() == categorySmall {
		return c.smallSize()
	}
	return int(c.word1)
}

// rawCapacity returns word2 verbatim, which is the medium/large capacity:
// there is no embedded discriminator to mask off here because this package
// keeps a dedicated fourth word for the category marker (see the core doc
// comment), unlike the C++ original which had to steal bits from capacity_.
func (c *core) rawCapacity() uint64 { return c.word2 }

// capacity returns the usable character capacity of this core, per
// the original: a shared large string reports its own size as capacity, so
// that any append is forced to unshare.
func (c *core) capacity() int {
	switch c.category() {
	case categorySmall:
		return maxSmallSize
	case categoryLarge:
		if refsOf(c.dataPtr()) > 1 {
			return int(c.word1)
		}
		return int(c.rawCapacity())
	default: // categoryMedium
		return int(c.rawCapacity())
	}
}

func (c *core) dataPtr() *byte {
	if c.category() == categorySmall {
		return (*byte)(unsafe.Pointer(c.smallBytes()))
	}
	return (*byte)(c.word0)
}

// data returns a read-only view of this core's live bytes.
func (c *core) data() []byte {
	n := c.size()
	if n == 0 {
		return nil
	}
	return unsafe.Slice(c.dataPtr(), n)
}

func (c *core) isShared() bool {
	return c.category() == categoryLarge && refsOf(c.dataPtr()) > 1
}

func (c *core) reset() {
	*c = core{}
	c.setSmallSize(0)
}

// setMediumLarge installs a medium or large buffer wholesale: data pointer,
// size, and capacity, plus the category marker in word3.
func (c *core) setMediumLarge(cat category, data *byte, size, capacity uint64) {
	c.word0 = unsafe.Pointer(data)
	c.word1 = size
	c.word2 = capacity
	c.setNonSmallCategory(cat)
}

func (c *core) setSize(n uint64) {
	debug.Assert(c.category() != categorySmall, "cowstring: setSize on a small core")
	c.word1 = n
}

// writeTerminator writes the NUL byte cowstring maintains past size() for
// medium/large buffers (mirroring C++'s c_str() contract). Small strings
// handle their own terminator inside setSmallSize.
func (c *core) writeTerminator() {
	if c.category() == categorySmall {
		return
	}
	*xunsafe.Add(c.dataPtr(), c.size()) = 0
}
