package arena

import (
	"unsafe"

	"github.com/clapdb/memory/internal/debug"
	"github.com/clapdb/memory/pkg/xunsafe"
	"github.com/clapdb/memory/pkg/xunsafe/layout"
)

// cleanupNode is a (element, destructor) pair packed into a block's cleanup
// region. Both fields are plain machine words; neither is traced by the
// garbage collector on its own. For objects allocated in the arena the node
// lives inside the same backing slab as the object it points at, and liveness
// of the slab keeps the pointee alive too; objects registered through
// [Arena.Own] live outside the slab and are rooted in Arena.keep instead.
type cleanupNode struct {
	elem unsafe.Pointer
	fn   xunsafe.PC[func(unsafe.Pointer)]
}

var cleanupNodeSize = layout.RoundUp(layout.Size[cleanupNode](), 8)

// blockHeaderSize is the amount of a block's slab left unused at the front,
// mirroring the space an intrusive C++ arena would spend on the Block header
// that precedes the payload. Go keeps the bookkeeping fields in a regular
// struct instead of placing them in the slab, but [Arena.Check] still treats
// this many leading bytes as the block's "header" region so that pointer
// classification matches the original layout.
const blockHeaderSize = 16

// Block is one link in an Arena's block chain: a single contiguous slab with
// two cursors growing toward each other. Objects are bump-allocated forward
// from just past the header; cleanup nodes are packed backward from the end
// of the slab.
type Block struct {
	prev  *Block
	pos   uint64
	size  uint64
	limit uint64
	mem   []byte
}

func newBlockAt(mem []byte, prev *Block) *Block {
	return &Block{
		prev:  prev,
		pos:   blockHeaderSize,
		size:  uint64(len(mem)),
		limit: uint64(len(mem)),
		mem:   mem,
	}
}

// Prev returns the block allocated before this one, or nil if this is the
// first block in the chain.
func (b *Block) Prev() *Block { return b.prev }

// Size returns the total size of this block's slab, including its header and
// cleanup regions.
func (b *Block) Size() uint64 { return b.size }

// Pos returns the offset of the next free byte available for bump
// allocation.
func (b *Block) Pos() uint64 { return b.pos }

// Limit returns the offset at which the cleanup region begins.
func (b *Block) Limit() uint64 { return b.limit }

// Remain reports how many bytes remain available for allocation before the
// object cursor collides with the cleanup cursor.
func (b *Block) Remain() uint64 {
	debug.Assert(b.limit >= b.pos, "limit must not be before pos")
	return b.limit - b.pos
}

// alloc bump-allocates size bytes, advancing pos. Callers must have checked
// Remain() >= size first.
func (b *Block) alloc(size uint64) unsafe.Pointer {
	debug.Assert(size <= b.Remain(), "alloc: not enough remaining space")
	ptr := unsafe.Pointer(&b.mem[b.pos])
	b.pos += size
	return ptr
}

// allocCleanup reserves space for one cleanup node at the end of the block,
// moving limit backward, and returns a pointer to it.
func (b *Block) allocCleanup() unsafe.Pointer {
	debug.Assert(b.pos+uint64(cleanupNodeSize) <= b.limit, "allocCleanup: not enough remaining space")
	b.limit -= uint64(cleanupNodeSize)
	return unsafe.Pointer(&b.mem[b.limit])
}

// registerCleanup packs a new cleanup node into this block.
func (b *Block) registerCleanup(elem unsafe.Pointer, fn xunsafe.PC[func(unsafe.Pointer)]) {
	node := (*cleanupNode)(b.allocCleanup())
	node.elem = elem
	node.fn = fn
}

// runCleanups runs every cleanup node registered in this block, in ascending
// address order — which is the reverse of registration order, since each
// new node is placed at a lower address than the last.
func (b *Block) runCleanups() {
	for off := b.limit; off < b.size; off += uint64(cleanupNodeSize) {
		node := (*cleanupNode)(unsafe.Pointer(&b.mem[off]))
		fn := node.fn
		get := fn.Get()
		get(node.elem)
	}
}

// cleanups returns the number of cleanup nodes currently registered in this
// block.
func (b *Block) cleanups() uint64 {
	space := b.size - b.limit
	debug.Assert(space%uint64(cleanupNodeSize) == 0, "cleanup region misaligned")
	return space / uint64(cleanupNodeSize)
}

// reset runs this block's cleanups and restores its cursors to a fresh
// state, allowing the slab to be reused without returning it to the OS.
func (b *Block) reset() {
	b.runCleanups()
	b.pos = blockHeaderSize
	b.limit = b.size
}

// classify classifies an offset within this block's slab.
func (b *Block) classify(offset uint64) ContainStatus {
	switch {
	case offset < blockHeaderSize:
		return StatusBlockHeader
	case offset < b.pos:
		return StatusBlockUsed
	case offset < b.limit:
		return StatusBlockUnused
	case offset < b.size:
		return StatusBlockCleanup
	default:
		return StatusNotContained
	}
}
