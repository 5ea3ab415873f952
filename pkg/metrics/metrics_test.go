package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/require"

	"github.com/clapdb/memory/pkg/arena"
	"github.com/clapdb/memory/pkg/metrics"
)

func TestHooks_LifecycleCounters(t *testing.T) {
	Convey("Given an arena wired with metrics.Hooks", t, func() {
		g := metrics.NewGlobal()
		metrics.ForCurrentGoroutine().Reset()

		a := arena.New(arena.Config{Hooks: metrics.Hooks()})

		Convey("Allocating bumps the local alloc counter", func() {
			a.AllocateAligned(32)
			a.AllocateAligned(4096)

			l := metrics.ForCurrentGoroutine()
			So(l.AllocCount, ShouldEqual, uint64(2))
			So(l.SpaceAllocated, ShouldBeGreaterThanOrEqualTo, uint64(32+4096))

			Convey("ReportToGlobal folds them into the aggregator and zeroes the local", func() {
				l.ReportToGlobal(g)
				So(l.AllocCount, ShouldEqual, uint64(0))

				snap := g.Snapshot()
				So(snap.AllocCount, ShouldEqual, uint64(2))
			})
		})

		Convey("Destroying the arena records a lifetime bucket", func() {
			a.Destroy()

			l := metrics.ForCurrentGoroutine()
			So(l.DestructCount, ShouldEqual, uint64(1))

			var total uint64
			for _, n := range l.DestructLifetimeBucketCounter {
				total += n
			}
			So(total, ShouldEqual, uint64(1))
		})
	})
}

func TestGlobal_ReportToGlobal_Aggregates(t *testing.T) {
	g := metrics.NewGlobal()

	l1 := &metrics.Local{AllocCount: 3, SpaceAllocated: 300}
	l2 := &metrics.Local{AllocCount: 5, SpaceAllocated: 500}
	l1.ReportToGlobal(g)
	l2.ReportToGlobal(g)

	snap := g.Snapshot()
	require.Equal(t, uint64(8), snap.AllocCount)
	require.Equal(t, uint64(800), snap.SpaceAllocated)

	require.Equal(t, uint64(0), l1.AllocCount, "ReportToGlobal must reset the local accumulator")
}

func TestCollector_CollectDoesNotPanic(t *testing.T) {
	g := metrics.NewGlobal()
	l := &metrics.Local{AllocCount: 1, SpaceAllocated: 64}
	l.ReportToGlobal(g)

	c := metrics.NewCollector(g)

	descs := make(chan *prometheus.Desc, 16)
	c.Describe(descs)
	close(descs)
	var descCount int
	for range descs {
		descCount++
	}
	require.Equal(t, 5, descCount)

	metricsCh := make(chan prometheus.Metric, 64)
	c.Collect(metricsCh)
	close(metricsCh)
	var metricCount int
	for range metricsCh {
		metricCount++
	}
	require.Greater(t, metricCount, 0)
}
