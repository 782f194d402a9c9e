package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestsDesc = prometheus.NewDesc(
		"storeload_requests_total",
		"Completed requests per logical endpoint.",
		[]string{"endpoint"}, nil)
	failuresDesc = prometheus.NewDesc(
		"storeload_failures_total",
		"Failed requests per logical endpoint.",
		[]string{"endpoint"}, nil)
	avgLatencyDesc = prometheus.NewDesc(
		"storeload_latency_avg_seconds",
		"Running average request latency per logical endpoint.",
		[]string{"endpoint"}, nil)
	rpsDesc = prometheus.NewDesc(
		"storeload_requests_per_second",
		"Current request rate per logical endpoint over the trailing window.",
		[]string{"endpoint"}, nil)
)

// Describe implements prometheus.Collector.
func (a *Aggregator) Describe(ch chan<- *prometheus.Desc) {
	ch <- requestsDesc
	ch <- failuresDesc
	ch <- avgLatencyDesc
	ch <- rpsDesc
}

// Collect implements prometheus.Collector by exporting the current snapshot
// as const metrics, including the rollup series.
func (a *Aggregator) Collect(ch chan<- prometheus.Metric) {
	snap := a.Snapshot()
	all := append([]EndpointStats{snap.Total}, snap.Endpoints...)
	for _, e := range all {
		ch <- prometheus.MustNewConstMetric(requestsDesc,
			prometheus.CounterValue, float64(e.Requests), e.Name)
		ch <- prometheus.MustNewConstMetric(failuresDesc,
			prometheus.CounterValue, float64(e.Failures), e.Name)
		ch <- prometheus.MustNewConstMetric(avgLatencyDesc,
			prometheus.GaugeValue, e.AvgLatency.Seconds(), e.Name)
		ch <- prometheus.MustNewConstMetric(rpsDesc,
			prometheus.GaugeValue, e.CurrentRPS, e.Name)
	}
}
