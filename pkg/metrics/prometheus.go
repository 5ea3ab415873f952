package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector adapts a [Global] aggregator into a [prometheus.Collector],
// exposing the same counters and bucketed distributions as
// [Global.Snapshot] without touching how they are accumulated underneath —
// the atomic aggregation itself is unchanged, only its exposition is new
// relative to the reference implementation's plain-text ::string() dump.
type Collector struct {
	g *Global

	counterDesc   *prometheus.Desc
	spaceDesc     *prometheus.Desc
	allocSizeDesc *prometheus.Desc
	lifetimeDesc  *prometheus.Desc
	callSiteDesc  *prometheus.Desc
}

// NewCollector wraps g for a Prometheus registry. Pass [Process] to expose
// the default process-wide aggregator.
func NewCollector(g *Global) *Collector {
	return &Collector{
		g: g,
		counterDesc: prometheus.NewDesc(
			"arena_event_total", "Count of arena lifecycle events.",
			[]string{"event"}, nil,
		),
		spaceDesc: prometheus.NewDesc(
			"arena_space_bytes_total", "Cumulative bytes moved through each arena space tally.",
			[]string{"tally"}, nil,
		),
		allocSizeDesc: prometheus.NewDesc(
			"arena_allocation_size_bucket_total", "Cumulative count of allocations at most this size.",
			[]string{"le"}, nil,
		),
		lifetimeDesc: prometheus.NewDesc(
			"arena_lifetime_ms_bucket_total", "Cumulative count of arenas destroyed within this many milliseconds of init.",
			[]string{"le"}, nil,
		),
		callSiteDesc: prometheus.NewDesc(
			"arena_callsite_bytes_total", "Cumulative bytes allocated by arenas created at this call site.",
			[]string{"location"}, nil,
		),
	}
}

// Describe implements [prometheus.Collector].
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.counterDesc
	ch <- c.spaceDesc
	ch <- c.allocSizeDesc
	ch <- c.lifetimeDesc
	ch <- c.callSiteDesc
}

// Collect implements [prometheus.Collector].
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.g.Snapshot()

	events := map[string]uint64{
		"init": s.InitCount, "reset": s.ResetCount,
		"destruct": s.DestructCount, "alloc": s.AllocCount, "newblock": s.NewBlockCount,
	}
	for event, n := range events {
		ch <- prometheus.MustNewConstMetric(c.counterDesc, prometheus.CounterValue, float64(n), event)
	}

	spaces := map[string]uint64{
		"allocated": s.SpaceAllocated, "resettled": s.SpaceResettled,
		"used": s.SpaceUsed, "wasted": s.SpaceWasted,
	}
	for tally, n := range spaces {
		ch <- prometheus.MustNewConstMetric(c.spaceDesc, prometheus.CounterValue, float64(n), tally)
	}

	var cum uint64
	for i, edge := range AllocSizeBuckets {
		cum += s.AllocSizeBucketCounter[i]
		ch <- prometheus.MustNewConstMetric(c.allocSizeDesc, prometheus.CounterValue, float64(cum), strconv.FormatUint(edge, 10))
	}

	cum = 0
	for i, edge := range LifetimeBuckets {
		cum += s.DestructLifetimeBucketCounter[i]
		ch <- prometheus.MustNewConstMetric(c.lifetimeDesc, prometheus.CounterValue, float64(cum), strconv.FormatInt(edge.Milliseconds(), 10))
	}

	for loc, n := range s.CallSiteCounter {
		ch <- prometheus.MustNewConstMetric(c.callSiteDesc, prometheus.CounterValue, float64(n), loc)
	}
}
