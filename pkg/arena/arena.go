//go:build go1.22

// Package arena provides a region (bump-pointer) allocator for high-throughput
// server workloads: a chain of fixed-size blocks, cleanup nodes packed from
// the tail of each block, and all-or-reset lifetime semantics.
//
// # Key Concepts
//
// Arena: a chain of [Block]s. All memory handed out by an arena is freed
// together, either by [Arena.Reset] (keeping the head block for reuse) or by
// [Arena.Destroy] (freeing everything).
//
// Block: a single contiguous slab with two cursors growing toward each
// other — objects bump-allocate forward from the header, cleanup nodes pack
// backward from the end.
//
// Memory Safety: arena-allocated memory must not be referenced after the
// arena is reset or destroyed. This package does nothing to enforce that;
// it is the caller's responsibility, same as in the C-family arena this one
// is modeled on.
//
// # Usage
//
//	a := arena.New(arena.Config{})
//	defer a.Destroy()
//
//	p := arena.Create[MyStruct](a)
//	s := arena.CreateArray[byte](a, 1024)
//
// [Adaptor] (built with [NewAdaptor]) presents an Arena as an allocator suitable for
// allocator-aware generic containers, such as [github.com/clapdb/memory/pkg/buffer.Sequence].
package arena

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/clapdb/memory/internal/debug"
	"github.com/clapdb/memory/pkg/xunsafe"
	"github.com/clapdb/memory/pkg/xunsafe/layout"
)

// ContainStatus classifies the provenance of a pointer relative to an arena's
// block chain, as reported by [Arena.Check].
type ContainStatus uint8

const (
	// StatusNotContained means the pointer is not inside any block this arena
	// owns.
	StatusNotContained ContainStatus = iota
	// StatusBlockHeader means the pointer falls within a block's reserved
	// header region.
	StatusBlockHeader
	// StatusBlockUsed means the pointer falls within a block's allocated
	// object region.
	StatusBlockUsed
	// StatusBlockUnused means the pointer falls within a block's free space,
	// between the object cursor and the cleanup cursor.
	StatusBlockUnused
	// StatusBlockCleanup means the pointer falls within a block's packed
	// cleanup-node region.
	StatusBlockCleanup
)

func (s ContainStatus) String() string {
	switch s {
	case StatusBlockHeader:
		return "header"
	case StatusBlockUsed:
		return "used"
	case StatusBlockUnused:
		return "unused"
	case StatusBlockCleanup:
		return "cleanup"
	default:
		return "not-contained"
	}
}

// Destructible is implemented by types that need explicit teardown when the
// arena that created them resets or is destroyed. Types that do not
// implement it are treated as trivially destructible, exactly like
// CreateArray's element type in the original design: no cleanup node is
// registered for them.
type Destructible interface {
	Destruct()
}

// Arena is a chain of allocation blocks with all-or-reset lifetime.
//
// A zero Arena is not ready to use; construct one with [New].
type Arena struct {
	_ xunsafe.NoCopy

	config    Config
	lastBlock *Block
	cookie    any

	spaceAllocated uint64

	// keep roots memory that cleanup nodes point to but that does not live
	// inside this arena's own blocks (see [Arena.Own]). Go's GC does not scan
	// the block slabs for pointers, so anything a cleanup node references
	// from outside a slab must be rooted here instead.
	keep []unsafe.Pointer
}

// New constructs an Arena from the given configuration, normalizing any
// zero-valued fields to their defaults and firing the OnInit hook.
func New(config Config) *Arena {
	config.normalize()

	a := &Arena{config: config}
	if config.OnInit != nil {
		a.cookie = config.OnInit(a)
	}
	return a
}

// SpaceAllocated returns the total number of bytes this arena has obtained
// from BlockAlloc over its lifetime (not counting bytes freed by Reset).
func (a *Arena) SpaceAllocated() uint64 { return a.spaceAllocated }

// SpaceRemains returns the number of bytes still available for allocation
// across every block in the chain.
func (a *Arena) SpaceRemains() uint64 {
	var remain uint64
	for b := a.lastBlock; b != nil; b = b.prev {
		remain += b.Remain()
	}
	return remain
}

// Cleanups returns the total number of cleanup nodes registered across every
// block in the chain. Exposed mainly for tests.
func (a *Arena) Cleanups() uint64 {
	var total uint64
	for b := a.lastBlock; b != nil; b = b.prev {
		total += b.cleanups()
	}
	return total
}

func (a *Arena) blockCount() uint64 {
	var n uint64
	for b := a.lastBlock; b != nil; b = b.prev {
		n++
	}
	return n
}

func (a *Arena) needNewBlock(needBytes uint64) bool {
	return a.lastBlock == nil || needBytes > a.lastBlock.Remain()
}

// newBlock allocates a new block sized according to the same policy table as
// the original C++ arena: the head block gets SuggestedInitBlockSize, later
// blocks get NormalBlockSize unless the request is large enough to push them
// into the huge-block tiers, and any request the table can't satisfy
// monopolizes a block sized exactly to it.
func (a *Arena) newBlock(minBytes uint64) *Block {
	requiredBytes := minBytes + blockHeaderSize

	var size uint64
	if a.lastBlock != nil {
		switch {
		case requiredBytes <= a.config.NormalBlockSize:
			size = a.config.NormalBlockSize
		case requiredBytes <= a.config.HugeBlockSize/thresholdHuge:
			size = layout.RoundUp(minBytes, a.config.NormalBlockSize)
		case requiredBytes <= a.config.HugeBlockSize:
			size = a.config.HugeBlockSize
		}
	} else {
		size = a.config.SuggestedInitBlockSize
	}
	size = max(size, requiredBytes)

	mem := a.config.BlockAlloc(size)
	if mem == nil {
		return nil
	}

	if a.config.OnNewBlock != nil {
		a.config.OnNewBlock(a.blockCount(), size, a.cookie)
	}

	blk := newBlockAt(mem, a.lastBlock)
	a.spaceAllocated += size
	a.Log("new-block", "size=%d chain-depth=%d", size, a.blockCount()+1)
	return blk
}

func alignSize(n uint64) uint64 {
	return layout.RoundUp(n, 8)
}

func (a *Arena) allocateAligned(bytes uint64) unsafe.Pointer {
	needed := alignSize(bytes)
	if a.needNewBlock(needed) {
		blk := a.newBlock(needed)
		if blk == nil {
			return nil
		}
		a.lastBlock = blk
	}
	ptr := a.lastBlock.alloc(needed)
	debug.Assert(uintptr(ptr)&7 == 0, "allocateAligned: result is misaligned")
	return ptr
}

// AllocateAligned allocates bytes of 8-byte-aligned, untyped memory from the
// arena. Returns nil only if BlockAlloc failed to obtain backing memory.
func (a *Arena) AllocateAligned(bytes uint64) unsafe.Pointer {
	ptr := a.allocateAligned(bytes)
	if ptr != nil && a.config.OnAllocation != nil {
		a.config.OnAllocation(nil, bytes, a.cookie)
	}
	return ptr
}

func (a *Arena) addCleanup(elem unsafe.Pointer, fn xunsafe.PC[func(unsafe.Pointer)]) bool {
	if a.needNewBlock(uint64(cleanupNodeSize)) {
		blk := a.newBlock(uint64(cleanupNodeSize))
		if blk == nil {
			return false
		}
		a.lastBlock = blk
	}
	a.lastBlock.registerCleanup(elem, fn)
	return true
}

// Create allocates a zero-valued T on the arena. If T implements
// [Destructible], its Destruct method is registered as a cleanup node and
// run when the arena resets or is destroyed.
func Create[T any](a *Arena) *T {
	size := uint64(layout.Size[T]())
	ptr := (*T)(a.allocateAligned(size))
	if ptr == nil {
		return nil
	}
	var zero T
	*ptr = zero

	if _, ok := any(ptr).(Destructible); ok {
		if !registerDestructor(a, ptr) {
			return nil
		}
	}

	if a.config.OnAllocation != nil {
		a.config.OnAllocation(typeTag[T](), size, a.cookie)
	}
	return ptr
}

func registerDestructor[T any](a *Arena, ptr *T) bool {
	fn := xunsafe.NewPC[func(unsafe.Pointer)](func(p unsafe.Pointer) {
		if d, ok := any((*T)(p)).(Destructible); ok {
			d.Destruct()
		}
	})
	return a.addCleanup(unsafe.Pointer(ptr), fn)
}

// CreateArray allocates an array of num zero-valued Ts on the arena.
//
// Unlike Create, no per-element cleanup is registered regardless of whether T
// implements Destructible — this mirrors the original design's restriction of
// array creation to trivially destructible element types, since running N
// independent cleanup nodes for a single array would defeat the point of a
// bulk allocation.
func CreateArray[T any](a *Arena, num uint64) []T {
	size := uint64(layout.Size[T]()) * num
	ptr := a.allocateAligned(size)
	if ptr == nil {
		return nil
	}

	if a.config.OnAllocation != nil {
		a.config.OnAllocation(typeTag[T](), size, a.cookie)
	}
	return unsafe.Slice((*T)(ptr), num)
}

// Own registers an externally heap-allocated *T for arena-scoped cleanup,
// without copying it into the arena's own memory.
//
// Go has no per-object free, so "ownership" here means: obj is kept
// reachable for as long as the arena is, and if T implements [Destructible]
// its Destruct method runs when the arena resets or is destroyed.
func Own[T any](a *Arena, obj *T) bool {
	fn := xunsafe.NewPC[func(unsafe.Pointer)](func(p unsafe.Pointer) {
		if d, ok := any((*T)(p)).(Destructible); ok {
			d.Destruct()
		}
	})
	if !a.addCleanup(unsafe.Pointer(obj), fn) {
		return false
	}
	a.keep = append(a.keep, unsafe.Pointer(obj))
	return true
}

// Check classifies ptr relative to this arena's block chain.
func (a *Arena) Check(ptr unsafe.Pointer) ContainStatus {
	addr := uintptr(ptr)
	for b := a.lastBlock; b != nil; b = b.prev {
		base := uintptr(unsafe.Pointer(&b.mem[0]))
		if addr < base || addr >= base+uintptr(len(b.mem)) {
			continue
		}
		return b.classify(uint64(addr - base))
	}
	return StatusNotContained
}

func (a *Arena) freeBlock(b *Block) uint64 {
	remain := b.Remain()
	b.runCleanups()
	a.config.BlockDealloc(b.mem)
	return remain
}

// Reset discards every block but the head, running all their cleanups, then
// clears the head block for reuse. Returns the arena's space allocated just
// before the reset: the sizes of all blocks in the chain, including the
// retained head block.
func (a *Arena) Reset() uint64 {
	if a.lastBlock == nil {
		return 0
	}

	var wasted uint64
	b := a.lastBlock
	for b.prev != nil {
		prev := b.prev
		wasted += a.freeBlock(b)
		b = prev
	}
	head := b
	wasted += head.Remain()

	if a.config.OnReset != nil {
		a.config.OnReset(a, a.cookie, a.spaceAllocated, wasted)
	}

	resetSize := a.spaceAllocated
	a.spaceAllocated = head.Size()
	head.reset()
	a.lastBlock = head
	a.keep = nil
	return resetSize
}

// Destroy runs every cleanup across the whole block chain and releases all
// blocks, including the head. The arena must not be used afterward.
func (a *Arena) Destroy() {
	var wasted uint64
	for b := a.lastBlock; b != nil; {
		prev := b.prev
		wasted += a.freeBlock(b)
		b = prev
	}
	a.lastBlock = nil

	if a.config.OnDestruction != nil {
		a.config.OnDestruction(a, a.cookie, a.spaceAllocated, wasted)
	}
	a.keep = nil
}

// Log forwards to the arena's internal debug tracing, tagging each line with
// this arena's identity, and also feeds the formatted line to
// [Config.Logger] so a production binary's own structured logger (see
// [github.com/clapdb/memory/pkg/metrics.ZapLogger]) sees arena trace lines
// too, not just debug builds.
func (a *Arena) Log(op, format string, args ...any) {
	debug.Log([]any{"%p", a}, op, format, args...)
	a.config.Logger(fmt.Sprintf("%s: "+format, append([]any{op}, args...)...))
}

func typeTag[T any]() any {
	return reflect.TypeFor[T]()
}
