// Package metrics aggregates per-request outcomes into running statistics.
package metrics

import (
	"sort"
	"sync"
	"time"
)

// AggregatedName labels the global rollup series.
const AggregatedName = "Aggregated"

// currentWindow is the sliding window used for the current-throughput rate.
const currentWindow = 10

// Percentile multipliers applied to the running average. These are
// approximations, not sorted-sample percentiles; see Stats field names.
const (
	approxP50Factor = 1.0
	approxP95Factor = 1.5
	approxP99Factor = 2.0
)

// Outcome is one completed request observation produced by an action executor.
type Outcome struct {
	Name    string
	Latency time.Duration
	Failed  bool
	Reason  string
}

// EndpointStats is the aggregate view of one logical endpoint name.
// ApproxP50/P95/P99 are derived from the average latency with fixed
// multipliers and must not be treated as exact percentiles.
type EndpointStats struct {
	Name        string        `json:"name"`
	Requests    int64         `json:"requests"`
	Failures    int64         `json:"failures"`
	FailureRate float64       `json:"failureRate"`
	AvgLatency  time.Duration `json:"avgLatency"`
	MinLatency  time.Duration `json:"minLatency"`
	MaxLatency  time.Duration `json:"maxLatency"`
	ApproxP50   time.Duration `json:"approxP50"`
	ApproxP95   time.Duration `json:"approxP95"`
	ApproxP99   time.Duration `json:"approxP99"`
	RPS         float64       `json:"rps"`
	CurrentRPS  float64       `json:"currentRps"`
}

// Stats is an immutable snapshot of all series at one point in time.
type Stats struct {
	GeneratedAt time.Time       `json:"generatedAt"`
	Elapsed     time.Duration   `json:"elapsed"`
	Total       EndpointStats   `json:"total"`
	Endpoints   []EndpointStats `json:"endpoints"`
}

type series struct {
	requests     int64
	failures     int64
	totalLatency time.Duration
	minLatency   time.Duration
	maxLatency   time.Duration

	// per-second buckets for the current-throughput window
	buckets    [currentWindow + 1]int64
	bucketSecs [currentWindow + 1]int64
}

func (s *series) record(o Outcome, nowSec int64) {
	s.requests++
	if o.Failed {
		s.failures++
	}
	s.totalLatency += o.Latency
	if s.requests == 1 || o.Latency < s.minLatency {
		s.minLatency = o.Latency
	}
	if o.Latency > s.maxLatency {
		s.maxLatency = o.Latency
	}
	idx := nowSec % int64(len(s.buckets))
	if s.bucketSecs[idx] != nowSec {
		s.bucketSecs[idx] = nowSec
		s.buckets[idx] = 0
	}
	s.buckets[idx]++
}

// currentRate returns the request rate over the trailing window, excluding
// the in-progress second.
func (s *series) currentRate(nowSec int64) float64 {
	var n int64
	for i := range s.buckets {
		age := nowSec - s.bucketSecs[i]
		if age >= 1 && age <= currentWindow {
			n += s.buckets[i]
		}
	}
	return float64(n) / currentWindow
}

func (s *series) view(name string, elapsed time.Duration, nowSec int64) EndpointStats {
	v := EndpointStats{
		Name:       name,
		Requests:   s.requests,
		Failures:   s.failures,
		MinLatency: s.minLatency,
		MaxLatency: s.maxLatency,
		CurrentRPS: s.currentRate(nowSec),
	}
	if s.requests > 0 {
		v.FailureRate = float64(s.failures) / float64(s.requests)
		avg := s.totalLatency / time.Duration(s.requests)
		v.AvgLatency = avg
		v.ApproxP50 = time.Duration(float64(avg) * approxP50Factor)
		v.ApproxP95 = time.Duration(float64(avg) * approxP95Factor)
		v.ApproxP99 = time.Duration(float64(avg) * approxP99Factor)
	}
	if elapsed > 0 {
		v.RPS = float64(s.requests) / elapsed.Seconds()
	}
	return v
}

// Aggregator consumes request outcomes from many concurrent sessions and
// maintains per-endpoint and rollup aggregates. Record serializes writers;
// Snapshot returns an independent copy and never blocks ingestion for long.
type Aggregator struct {
	mu      sync.Mutex
	clock   func() time.Time
	started time.Time
	byName  map[string]*series
	total   series
}

// NewAggregator returns an empty aggregator whose elapsed time starts now.
func NewAggregator() *Aggregator {
	return newAggregator(time.Now)
}

func newAggregator(clock func() time.Time) *Aggregator {
	return &Aggregator{
		clock:   clock,
		started: clock(),
		byName:  make(map[string]*series),
	}
}

// Record ingests one outcome into its named series and the rollup.
func (a *Aggregator) Record(o Outcome) {
	now := a.clock()
	nowSec := now.Unix()

	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.byName[o.Name]
	if !ok {
		s = &series{}
		a.byName[o.Name] = s
	}
	s.record(o, nowSec)
	a.total.record(o, nowSec)
}

// Snapshot returns a point-in-time copy of all aggregates. Ingestion-derived
// values (counts, failure rates, latency min/avg/max and the approximate
// percentiles) are idempotent across calls with no intervening Record;
// Elapsed and the RPS rates are derived from the clock and move with it.
func (a *Aggregator) Snapshot() *Stats {
	now := a.clock()
	nowSec := now.Unix()

	a.mu.Lock()
	defer a.mu.Unlock()

	elapsed := now.Sub(a.started)
	stats := &Stats{
		GeneratedAt: now,
		Elapsed:     elapsed,
		Total:       a.total.view(AggregatedName, elapsed, nowSec),
		Endpoints:   make([]EndpointStats, 0, len(a.byName)),
	}
	for name, s := range a.byName {
		stats.Endpoints = append(stats.Endpoints, s.view(name, elapsed, nowSec))
	}
	sort.Slice(stats.Endpoints, func(i, j int) bool {
		return stats.Endpoints[i].Name < stats.Endpoints[j].Name
	})
	return stats
}

// Endpoint returns the snapshot entry for name, or false when the name has
// never been recorded.
func (s *Stats) Endpoint(name string) (EndpointStats, bool) {
	for _, e := range s.Endpoints {
		if e.Name == name {
			return e, true
		}
	}
	return EndpointStats{}, false
}
