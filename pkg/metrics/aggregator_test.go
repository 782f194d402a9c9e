package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestAggregatorRollupInvariants(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := start
	agg := newAggregator(func() time.Time { return now })

	now = start.Add(10 * time.Second)
	agg.Record(Outcome{Name: "Get Products", Latency: 100 * time.Millisecond})
	agg.Record(Outcome{Name: "Get Products", Latency: 300 * time.Millisecond, Failed: true, Reason: "status 500"})
	agg.Record(Outcome{Name: "Register User", Latency: 200 * time.Millisecond})

	snap := agg.Snapshot()

	var sum int64
	for _, e := range snap.Endpoints {
		assert.LessOrEqual(t, e.Failures, e.Requests)
		sum += e.Requests
	}
	assert.Equal(t, snap.Total.Requests, sum)
	assert.LessOrEqual(t, snap.Total.Failures, snap.Total.Requests)

	products, ok := snap.Endpoint("Get Products")
	require.True(t, ok)
	assert.Equal(t, int64(2), products.Requests)
	assert.Equal(t, int64(1), products.Failures)
	assert.Equal(t, 200*time.Millisecond, products.AvgLatency)
	assert.Equal(t, 100*time.Millisecond, products.MinLatency)
	assert.Equal(t, 300*time.Millisecond, products.MaxLatency)
}

func TestAggregatorApproxPercentiles(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	agg := newAggregator(fixedClock(now))

	agg.Record(Outcome{Name: "Search Products", Latency: 400 * time.Millisecond})

	snap := agg.Snapshot()
	e, ok := snap.Endpoint("Search Products")
	require.True(t, ok)
	assert.Equal(t, 400*time.Millisecond, e.ApproxP50)
	assert.Equal(t, 600*time.Millisecond, e.ApproxP95)
	assert.Equal(t, 800*time.Millisecond, e.ApproxP99)
}

func TestSnapshotIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	agg := newAggregator(fixedClock(now))

	agg.Record(Outcome{Name: "Place Order", Latency: 50 * time.Millisecond})

	first := agg.Snapshot()
	second := agg.Snapshot()
	assert.Equal(t, first, second)
}

func TestSnapshotIngestionAggregatesStableUnderRealClock(t *testing.T) {
	agg := NewAggregator()
	agg.Record(Outcome{Name: "Place Order", Latency: 50 * time.Millisecond})
	agg.Record(Outcome{Name: "Place Order", Latency: 90 * time.Millisecond, Failed: true, Reason: "status 500"})

	// Elapsed and the RPS rates follow the wall clock; everything derived
	// from ingestion alone must not move between calls.
	strip := func(e EndpointStats) EndpointStats {
		e.RPS = 0
		e.CurrentRPS = 0
		return e
	}
	first := agg.Snapshot()
	second := agg.Snapshot()

	assert.Equal(t, strip(first.Total), strip(second.Total))
	require.Equal(t, len(first.Endpoints), len(second.Endpoints))
	for i := range first.Endpoints {
		assert.Equal(t, strip(first.Endpoints[i]), strip(second.Endpoints[i]))
	}
}

func TestSnapshotIsolatedFromLaterRecords(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	agg := newAggregator(fixedClock(now))

	agg.Record(Outcome{Name: "Create Cart", Latency: 50 * time.Millisecond})
	snap := agg.Snapshot()
	agg.Record(Outcome{Name: "Create Cart", Latency: 90 * time.Millisecond})

	e, ok := snap.Endpoint("Create Cart")
	require.True(t, ok)
	assert.Equal(t, int64(1), e.Requests)
}

func TestAggregatorConcurrentRecord(t *testing.T) {
	agg := NewAggregator()

	const workers = 16
	const perWorker = 200
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				agg.Record(Outcome{
					Name:    "Get Products",
					Latency: time.Millisecond,
					Failed:  i%10 == 0,
				})
			}
		}(w)
	}
	wg.Wait()

	snap := agg.Snapshot()
	assert.Equal(t, int64(workers*perWorker), snap.Total.Requests)
	assert.Equal(t, int64(workers*perWorker/10), snap.Total.Failures)
}

func TestTrendLoggerCapture(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := start
	agg := newAggregator(func() time.Time { return now })

	now = start.Add(time.Minute)
	agg.Record(Outcome{Name: "Get Products", Latency: 200 * time.Millisecond})
	agg.Record(Outcome{Name: "Get Products", Latency: 200 * time.Millisecond, Failed: true})

	trend := NewTrendLogger(agg, time.Minute, nil)
	sample := trend.Capture("start")

	assert.Equal(t, "start", sample.Label)
	assert.Equal(t, int64(2), sample.Requests)
	assert.Equal(t, int64(1), sample.Failures)
	assert.Equal(t, 200*time.Millisecond, sample.AvgLatency)
	assert.InDelta(t, 0.5, sample.ErrorRate, 1e-9)

	require.Len(t, trend.Samples(), 1)
}

func TestTrendLoggerStartStop(t *testing.T) {
	agg := NewAggregator()
	trend := NewTrendLogger(agg, 10*time.Millisecond, nil)

	trend.Start(context.Background())
	time.Sleep(35 * time.Millisecond)
	trend.Stop()

	n := len(trend.Samples())
	assert.GreaterOrEqual(t, n, 1)

	// No further samples after Stop.
	time.Sleep(25 * time.Millisecond)
	assert.Equal(t, n, len(trend.Samples()))
}

func TestAggregatorImplementsCollector(t *testing.T) {
	agg := NewAggregator()
	agg.Record(Outcome{Name: "Get Products", Latency: time.Millisecond})

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(agg))

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["storeload_requests_total"])
	assert.True(t, names["storeload_latency_avg_seconds"])
}
