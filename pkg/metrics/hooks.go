package metrics

import (
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/clapdb/memory/pkg/arena"
)

// Cookie is the cookie type this package's [Hooks] installs on an arena.
// Its ID mirrors the reference implementation's ArenaMetricsCookie, except
// that instead of reusing the init call-site as an identity, each arena
// additionally gets a [github.com/google/uuid] so arenas created at the
// same call site in a hot loop remain distinguishable in logs.
type Cookie struct {
	ID       string
	Location string
	InitTime time.Time
}

// Hooks returns an [arena.Hooks] value that feeds every lifecycle event into
// the calling goroutine's [Local] accumulator, exactly mirroring the probe
// functions in the reference metrics.hpp: metrics_probe_on_arena_init,
// _allocation, _newblock, _reset, and _destruction.
func Hooks() arena.Hooks {
	return arena.Hooks{
		OnInit:        onInit,
		OnAllocation:  onAllocation,
		OnNewBlock:    onNewBlock,
		OnReset:       onReset,
		OnDestruction: onDestruction,
	}
}

func callerLocation(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", file, line)
}

func onInit(_ *arena.Arena) any {
	l := ForCurrentGoroutine()
	l.InitCount++
	return &Cookie{
		ID: uuid.NewString(),
		// Skip callerLocation, onInit, and arena.New.
		Location: callerLocation(3),
		InitTime: time.Now(),
	}
}

func onAllocation(typ any, size uint64, cookie any) {
	l := ForCurrentGoroutine()
	l.AllocCount++
	l.SpaceAllocated += size
	l.increaseAllocSize(size)

	if c, ok := cookie.(*Cookie); ok {
		l.increaseCallSite(c.Location, size)
	}
	_ = typ // the type descriptor is neither recorded nor bucketed
}

func onNewBlock(_, _ uint64, _ any) {
	ForCurrentGoroutine().NewBlockCount++
}

func onReset(_ *arena.Arena, _ any, spaceUsed, spaceWasted uint64) {
	l := ForCurrentGoroutine()
	l.ResetCount++
	l.SpaceResettled += spaceUsed
	l.SpaceWasted += spaceWasted
}

func onDestruction(_ *arena.Arena, cookie any, spaceUsed, spaceWasted uint64) {
	l := ForCurrentGoroutine()
	l.DestructCount++
	l.SpaceUsed += spaceUsed
	l.SpaceWasted += spaceWasted

	if c, ok := cookie.(*Cookie); ok {
		l.increaseLifetime(time.Since(c.InitTime))
	}
}
