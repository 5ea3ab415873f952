// Package metrics is the reference observability implementation for
// [github.com/clapdb/memory/pkg/arena]: per-goroutine counters and
// histograms fed by the arena's hook surface, folded into a process-wide
// atomic aggregator on demand.
//
// Nothing in [github.com/clapdb/memory/pkg/arena] depends on this package;
// it is wired in purely through [Hooks], the same way the original arena's
// metrics probes are free functions bolted on through its hook fields.
package metrics

import (
	"time"

	"github.com/timandy/routine"
)

// AllocSizeBuckets are the upper edges (inclusive) of the allocation-size
// histogram, matching alloc_size_bucket in the reference C++ metrics.
var AllocSizeBuckets = [8]uint64{64, 128, 256, 512, 1024, 2048, 4096, 1 << 20}

// LifetimeBuckets are the upper edges (inclusive) of the arena-lifetime
// histogram, matching destruct_lifetime_bucket in the reference C++
// metrics.
var LifetimeBuckets = [8]time.Duration{
	1 * time.Millisecond,
	5 * time.Millisecond,
	10 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	200 * time.Millisecond,
	500 * time.Millisecond,
	1000 * time.Millisecond,
}

// Local is a goroutine-local accumulator of arena lifecycle counters. It is
// meant to be owned by exactly one goroutine at a time (see [ForCurrentGoroutine]),
// matching the thread_local LocalArenaMetrics of the reference implementation.
type Local struct {
	InitCount      uint64
	DestructCount  uint64
	AllocCount     uint64
	NewBlockCount  uint64
	ResetCount     uint64
	SpaceAllocated uint64
	SpaceResettled uint64
	SpaceUsed      uint64
	SpaceWasted    uint64

	AllocSizeBucketCounter        [8]uint64
	DestructLifetimeBucketCounter [8]uint64

	// CallSiteCounter maps an arena's init call site ("file:line") to the
	// number of bytes allocated through arenas created there.
	CallSiteCounter map[string]uint64
}

// Reset zeros every counter, exactly like LocalArenaMetrics::reset().
func (l *Local) Reset() {
	*l = Local{CallSiteCounter: l.CallSiteCounter}
	for k := range l.CallSiteCounter {
		delete(l.CallSiteCounter, k)
	}
}

func (l *Local) increaseAllocSize(size uint64) {
	for i, edge := range AllocSizeBuckets {
		if size <= edge {
			l.AllocSizeBucketCounter[i]++
			break
		}
	}
}

func (l *Local) increaseLifetime(d time.Duration) {
	for i, edge := range LifetimeBuckets {
		if d <= edge {
			l.DestructLifetimeBucketCounter[i]++
			break
		}
	}
}

func (l *Local) increaseCallSite(loc string, size uint64) {
	if l.CallSiteCounter == nil {
		l.CallSiteCounter = make(map[string]uint64)
	}
	l.CallSiteCounter[loc] += size
}

// ReportToGlobal folds this goroutine's counters into g using relaxed
// (unordered) atomic adds, then resets l to zero — matching
// report_to_global_metrics() in the reference implementation.
func (l *Local) ReportToGlobal(g *Global) {
	g.initCount.Add(l.InitCount)
	g.destructCount.Add(l.DestructCount)
	g.allocCount.Add(l.AllocCount)
	g.newBlockCount.Add(l.NewBlockCount)
	g.resetCount.Add(l.ResetCount)
	g.spaceAllocated.Add(l.SpaceAllocated)
	g.spaceResettled.Add(l.SpaceResettled)
	g.spaceUsed.Add(l.SpaceUsed)
	g.spaceWasted.Add(l.SpaceWasted)

	for i := range AllocSizeBuckets {
		g.allocSizeBucket[i].Add(l.AllocSizeBucketCounter[i])
	}
	for i := range LifetimeBuckets {
		g.lifetimeBucket[i].Add(l.DestructLifetimeBucketCounter[i])
	}
	for loc, n := range l.CallSiteCounter {
		g.addCallSite(loc, n)
	}

	l.Reset()
}

var local = routine.NewThreadLocal[*Local]()

// ForCurrentGoroutine returns the [Local] accumulator bound to the calling
// goroutine, allocating one on first use.
func ForCurrentGoroutine() *Local {
	l := local.Get()
	if l == nil {
		l = &Local{}
		local.Set(l)
	}
	return l
}
