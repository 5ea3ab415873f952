package metrics

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Global is a process-wide, relaxed-atomic aggregate of every [Local] that
// has called [Local.ReportToGlobal]. It corresponds to GlobalArenaMetrics in
// the reference implementation; "relaxed" here just means plain
// [atomic.Uint64] adds with no further synchronization, which is all the
// reference implementation asks for either.
type Global struct {
	initCount      atomic.Uint64
	destructCount  atomic.Uint64
	allocCount     atomic.Uint64
	newBlockCount  atomic.Uint64
	resetCount     atomic.Uint64
	spaceAllocated atomic.Uint64
	spaceResettled atomic.Uint64
	spaceUsed      atomic.Uint64
	spaceWasted    atomic.Uint64

	allocSizeBucket [8]atomic.Uint64
	lifetimeBucket  [8]atomic.Uint64

	callSiteMu sync.Mutex
	callSite   map[string]*atomic.Uint64
}

// Process is the default process-wide aggregator, analogous to the
// reference implementation's single extern GlobalArenaMetrics instance.
var Process = NewGlobal()

// NewGlobal constructs an empty aggregator. Most callers want [Process]
// instead; NewGlobal exists mainly for tests that don't want to share
// process-wide state.
func NewGlobal() *Global {
	return &Global{callSite: make(map[string]*atomic.Uint64)}
}

func (g *Global) addCallSite(loc string, n uint64) {
	g.callSiteMu.Lock()
	counter, ok := g.callSite[loc]
	if !ok {
		counter = &atomic.Uint64{}
		g.callSite[loc] = counter
	}
	g.callSiteMu.Unlock()
	counter.Add(n)
}

// Snapshot is a point-in-time, non-atomic copy of a [Global]'s counters,
// suitable for logging or testing.
type Snapshot struct {
	InitCount, DestructCount, AllocCount, NewBlockCount, ResetCount uint64
	SpaceAllocated, SpaceResettled, SpaceUsed, SpaceWasted          uint64
	AllocSizeBucketCounter                                          [8]uint64
	DestructLifetimeBucketCounter                                   [8]uint64
	CallSiteCounter                                                 map[string]uint64
}

// Snapshot reads every counter in g. Reads are individually atomic but not
// taken together as one transaction, matching the "races for metric-data is
// acceptable" comment on the reference implementation's reset().
func (g *Global) Snapshot() Snapshot {
	s := Snapshot{
		InitCount:      g.initCount.Load(),
		DestructCount:  g.destructCount.Load(),
		AllocCount:     g.allocCount.Load(),
		NewBlockCount:  g.newBlockCount.Load(),
		ResetCount:     g.resetCount.Load(),
		SpaceAllocated: g.spaceAllocated.Load(),
		SpaceResettled: g.spaceResettled.Load(),
		SpaceUsed:      g.spaceUsed.Load(),
		SpaceWasted:    g.spaceWasted.Load(),
	}
	for i := range s.AllocSizeBucketCounter {
		s.AllocSizeBucketCounter[i] = g.allocSizeBucket[i].Load()
	}
	for i := range s.DestructLifetimeBucketCounter {
		s.DestructLifetimeBucketCounter[i] = g.lifetimeBucket[i].Load()
	}

	g.callSiteMu.Lock()
	s.CallSiteCounter = make(map[string]uint64, len(g.callSite))
	for loc, counter := range g.callSite {
		s.CallSiteCounter[loc] = counter.Load()
	}
	g.callSiteMu.Unlock()
	return s
}

// String renders a human-readable summary, matching the shape (not the
// exact formatting library) of GlobalArenaMetrics::string().
func (s Snapshot) String() string {
	out := fmt.Sprintf(
		"Summary:\n"+
			"  init_count: %d\n"+
			"  reset_count: %d\n"+
			"  destruct_count: %d\n"+
			"  alloc_count: %d\n"+
			"  newblock_count: %d\n"+
			"  space_allocated: %d\n"+
			"  space_used: %d\n"+
			"  space_wasted: %d\n"+
			"  space_resettled: %d\n",
		s.InitCount, s.ResetCount, s.DestructCount, s.AllocCount, s.NewBlockCount,
		s.SpaceAllocated, s.SpaceUsed, s.SpaceWasted, s.SpaceResettled,
	)

	out += "AllocSize distribution:"
	var count uint64
	for i, edge := range AllocSizeBuckets {
		count += s.AllocSizeBucketCounter[i]
		pct := uint64(0)
		if s.AllocCount > 0 {
			pct = count * 100 / s.AllocCount
		}
		out += fmt.Sprintf("\n  le=%d: %d%%", edge, pct)
	}

	out += "\nLifetime distribution:"
	count = 0
	for i, edge := range LifetimeBuckets {
		count += s.DestructLifetimeBucketCounter[i]
		pct := uint64(0)
		if s.DestructCount > 0 {
			pct = count * 100 / s.DestructCount
		}
		out += fmt.Sprintf("\n  le=%vms: %d%%", edge.Milliseconds(), pct)
	}

	out += "\nArena Location/AllocSize:"
	for loc, n := range s.CallSiteCounter {
		out += fmt.Sprintf("\n  %s: %d", loc, n)
	}
	return out
}
