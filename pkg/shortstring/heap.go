package shortstring

import (
	"unsafe"

	"github.com/clapdb/memory/internal/xsync"
)

// Heap is the non-arena [Allocator]. Because an external buffer is
// addressed through a tagged uintptr rather than a real pointer, the Go
// garbage collector cannot trace it — so Heap pins every buffer it
// returns in a process-wide registry for the lifetime of the program.
// This trades permanent retention for GC-safety; callers that churn many
// short-lived heap-backed ShortStrings should prefer an arena instead,
// whose blocks are already rooted independently of any individual value.
var Heap Allocator = heapAllocator{}

type heapAllocator struct{}

var pinned xsync.Map[uintptr, []byte] // keeps buffers reachable for heapAllocator.Alloc

func (heapAllocator) Alloc(size uint64) unsafe.Pointer {
	buf := make([]byte, size)
	p := unsafe.Pointer(&buf[0])
	pinned.Store(uintptr(p), buf)
	return p
}
