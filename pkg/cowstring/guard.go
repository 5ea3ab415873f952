package cowstring

import (
	"github.com/timandy/routine"

	"github.com/clapdb/memory/internal/debug"
)

// guard is the cross-thread mutation check for shared large buffers,
// grounded on the cpu_/CROSS_THREAD_CHECKING field in the original's
// string/arena_string.hpp: a large cowstring is single-owner/single-goroutine
// by design, and a debug build asserts on that rather
// than silently racing. It only occupies space and only checks anything
// when built with the debug tag; outside debug it is a zero-size no-op.
type guard struct {
	owner debug.Value[int64]
	bound debug.Value[bool]
}

// bind records the calling goroutine as the owner, the first time a String
// touches its storage.
func (g *guard) bind() {
	if !debug.Enabled {
		return
	}
	if !*g.bound.Get() {
		*g.owner.Get() = routine.Goid()
		*g.bound.Get() = true
	}
}

// check asserts that the calling goroutine is still the recorded owner.
// Call this before any mutation that touches a potentially shared large
// buffer.
func (g *guard) check() {
	if !debug.Enabled {
		return
	}
	g.bind()
	debug.Assert(*g.owner.Get() == routine.Goid(),
		"cowstring: String mutated from goroutine %d, owned by goroutine %d", routine.Goid(), *g.owner.Get())
}
