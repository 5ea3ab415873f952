//go:build go1.22

package arena_test

import (
	"testing"
	"unsafe"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/clapdb/memory/pkg/arena"
)

type closeTracker struct {
	closed *bool
}

func (c *closeTracker) Destruct() { *c.closed = true }

func TestArena_AllocateAligned(t *testing.T) {
	Convey("Given a fresh arena", t, func() {
		a := arena.New(arena.Config{})
		defer a.Destroy()

		Convey("When allocating memory", func() {
			p := a.AllocateAligned(16)

			So(p, ShouldNotBeNil)
			So(uintptr(p)&7, ShouldEqual, 0)
		})

		Convey("When allocating more than the block holds", func() {
			p := a.AllocateAligned(1 << 20)

			So(p, ShouldNotBeNil)
			So(a.SpaceAllocated(), ShouldBeGreaterThanOrEqualTo, uint64(1<<20))
		})
	})
}

func TestArena_Check(t *testing.T) {
	Convey("Given an arena with one allocation", t, func() {
		a := arena.New(arena.Config{})
		defer a.Destroy()

		p := a.AllocateAligned(8)

		Convey("The allocated pointer classifies as used", func() {
			So(a.Check(p), ShouldEqual, arena.StatusBlockUsed)
		})

		Convey("A pointer outside the arena classifies as not contained", func() {
			var x int
			So(a.Check(unsafe.Pointer(&x)), ShouldEqual, arena.StatusNotContained)
		})

		Convey("The block's unused tail classifies as unused", func() {
			rest := a.AllocateAligned(0)
			So(a.Check(rest), ShouldEqual, arena.StatusBlockUnused)
		})
	})
}

func TestArena_Create(t *testing.T) {
	Convey("Given an arena", t, func() {
		a := arena.New(arena.Config{})
		defer a.Destroy()

		Convey("When creating a type with a Destruct method", func() {
			closed := false
			ptr := arena.Create[closeTracker](a)
			ptr.closed = &closed

			So(a.Cleanups(), ShouldEqual, uint64(1))

			Convey("Reset runs its cleanup", func() {
				a.Reset()
				So(closed, ShouldBeTrue)
			})
		})

		Convey("When creating a plain value type", func() {
			ptr := arena.Create[int](a)
			*ptr = 42

			So(*ptr, ShouldEqual, 42)
			So(a.Cleanups(), ShouldEqual, uint64(0))
		})
	})
}

func TestArena_CreateArray(t *testing.T) {
	Convey("Given an arena", t, func() {
		a := arena.New(arena.Config{})
		defer a.Destroy()

		Convey("When creating an array of bytes", func() {
			bs := arena.CreateArray[byte](a, 128)

			So(len(bs), ShouldEqual, 128)
			So(a.Cleanups(), ShouldEqual, uint64(0))
		})
	})
}

func TestArena_Own(t *testing.T) {
	Convey("Given an arena and an externally-allocated object", t, func() {
		a := arena.New(arena.Config{})
		defer a.Destroy()

		closed := false
		obj := &closeTracker{closed: &closed}

		Convey("Own registers it for cleanup", func() {
			ok := arena.Own(a, obj)
			So(ok, ShouldBeTrue)
			So(a.Cleanups(), ShouldEqual, uint64(1))

			a.Reset()
			So(closed, ShouldBeTrue)
		})
	})
}

func TestArena_Reset(t *testing.T) {
	Convey("Given an arena with several blocks", t, func() {
		a := arena.New(arena.Config{NormalBlockSize: 64, SuggestedInitBlockSize: 64})
		defer a.Destroy()

		for i := 0; i < 32; i++ {
			a.AllocateAligned(16)
		}

		Convey("Reset keeps only the head block alive for reuse", func() {
			before := a.SpaceAllocated()
			a.Reset()

			So(a.SpaceAllocated(), ShouldBeLessThan, before)
			// A fresh allocation should succeed without panicking.
			p := a.AllocateAligned(8)
			So(p, ShouldNotBeNil)
		})
	})
}

func TestArena_Hooks(t *testing.T) {
	Convey("Given an arena configured with hooks", t, func() {
		var initCalled, allocCalled, resetCalled, destroyCalled bool

		a := arena.New(arena.Config{
			Hooks: arena.Hooks{
				OnInit:        func(*arena.Arena) any { initCalled = true; return "cookie" },
				OnAllocation:  func(any, uint64, any) { allocCalled = true },
				OnReset:       func(*arena.Arena, any, uint64, uint64) { resetCalled = true },
				OnDestruction: func(*arena.Arena, any, uint64, uint64) { destroyCalled = true },
			},
		})

		So(initCalled, ShouldBeTrue)

		a.AllocateAligned(8)
		So(allocCalled, ShouldBeTrue)

		a.Reset()
		So(resetCalled, ShouldBeTrue)

		a.Destroy()
		So(destroyCalled, ShouldBeTrue)
	})
}
