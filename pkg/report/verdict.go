// Package report turns aggregate statistics into pass/fail verdicts and
// rendered report artifacts (HTML, CSV, JSON).
package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/storeload/storeload/pkg/behavior"
	"github.com/storeload/storeload/pkg/metrics"
)

// ErrInsufficientTrend is returned when trend analysis needs at least two
// samples.
var ErrInsufficientTrend = errors.New("report: trend analysis needs at least two samples")

// Comparators used by objectives.
const (
	CompareAtMost  = "<="
	CompareAtLeast = ">="
)

// Overall classifications.
const (
	OverallExcellent  = "excellent"
	OverallAcceptable = "acceptable"
	OverallPoor       = "poor"
)

// Objective is one evaluated metric against its target.
type Objective struct {
	Metric     string  `json:"metric"`
	Actual     float64 `json:"actual"`
	Target     float64 `json:"target"`
	Unit       string  `json:"unit"`
	Comparator string  `json:"comparator"`
	Passed     bool    `json:"passed"`
}

// Verdict is the evaluated objective list for a test type.
type Verdict struct {
	TestType   string      `json:"testType"`
	Objectives []Objective `json:"objectives"`
	Passed     bool        `json:"passed"`
	Overall    string      `json:"overall"`
}

// Evaluate scores the rollup statistics against the test type's objective
// table. Percentile-based objectives use the aggregator's approximations.
func Evaluate(stats *metrics.Stats, testType string) Verdict {
	total := stats.Total
	var objectives []Objective

	switch testType {
	case behavior.TestTypeLoad:
		objectives = []Objective{
			atMost("Response Time P95 (approx)", ms(total.ApproxP95), 1000, "ms"),
			atMost("Response Time P99 (approx)", ms(total.ApproxP99), 2000, "ms"),
			atMost("Error Rate", total.FailureRate*100, 1, "%"),
			atLeast("Throughput", total.RPS, 50, "req/s"),
		}
	case behavior.TestTypeStress:
		objectives = []Objective{
			atMost("Error Rate", total.FailureRate*100, 10, "%"),
			atMost("Response Time P99 (approx)", ms(total.ApproxP99), 5000, "ms"),
		}
	case behavior.TestTypeSpike:
		objectives = []Objective{
			atMost("Peak Response Time", ms(total.MaxLatency), 3000, "ms"),
			atMost("Error Rate", total.FailureRate*100, 5, "%"),
		}
	case behavior.TestTypeEndurance:
		objectives = []Objective{
			atMost("Avg Response Time", ms(total.AvgLatency), 2000, "ms"),
			atMost("Error Rate", total.FailureRate*100, 2, "%"),
		}
	default:
		objectives = []Objective{
			atMost("Error Rate", total.FailureRate*100, 2, "%"),
		}
	}

	v := Verdict{TestType: testType, Objectives: objectives}
	passed := 0
	for _, o := range objectives {
		if o.Passed {
			passed++
		}
	}
	v.Passed = passed == len(objectives)
	switch {
	case v.Passed:
		v.Overall = OverallExcellent
	case passed*2 >= len(objectives):
		v.Overall = OverallAcceptable
	default:
		v.Overall = OverallPoor
	}
	return v
}

func atMost(metric string, actual, target float64, unit string) Objective {
	return Objective{
		Metric:     metric,
		Actual:     actual,
		Target:     target,
		Unit:       unit,
		Comparator: CompareAtMost,
		Passed:     actual <= target,
	}
}

func atLeast(metric string, actual, target float64, unit string) Objective {
	return Objective{
		Metric:     metric,
		Actual:     actual,
		Target:     target,
		Unit:       unit,
		Comparator: CompareAtLeast,
		Passed:     actual >= target,
	}
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Trend classifications for endurance runs.
const (
	TrendStable     = "stable"
	TrendAcceptable = "acceptable degradation"
	TrendPoor       = "poor degradation"
)

// TrendAnalysis compares the first and last trend-log samples.
type TrendAnalysis struct {
	ResponseTimeChangePct float64 `json:"responseTimeChangePct"`
	ErrorRateChange       float64 `json:"errorRateChange"`
	Classification        string  `json:"classification"`
	Samples               int     `json:"samples"`
}

// AnalyzeTrend computes the percentage change in average latency and the
// absolute change in error rate between the first and last sample.
func AnalyzeTrend(samples []metrics.TrendSample) (TrendAnalysis, error) {
	if len(samples) < 2 {
		return TrendAnalysis{}, ErrInsufficientTrend
	}
	first, last := samples[0], samples[len(samples)-1]

	a := TrendAnalysis{
		ErrorRateChange: last.ErrorRate - first.ErrorRate,
		Samples:         len(samples),
	}
	if first.AvgLatency > 0 {
		a.ResponseTimeChangePct = (float64(last.AvgLatency) - float64(first.AvgLatency)) /
			float64(first.AvgLatency) * 100
	}

	switch {
	case a.ResponseTimeChangePct <= 20 && a.ErrorRateChange <= 0.02:
		a.Classification = TrendStable
	case a.ResponseTimeChangePct <= 50 && a.ErrorRateChange <= 0.05:
		a.Classification = TrendAcceptable
	default:
		a.Classification = TrendPoor
	}
	return a, nil
}

// Endpoint status tiers.
const (
	StatusGood    = "good"
	StatusWarning = "warning"
	StatusPoor    = "poor"
)

// EndpointStatus classifies one endpoint from its error rate and average
// latency combined.
func EndpointStatus(e metrics.EndpointStats) string {
	avg := ms(e.AvgLatency)
	switch {
	case e.FailureRate < 0.01 && avg < 1000:
		return StatusGood
	case e.FailureRate < 0.05 && avg < 2000:
		return StatusWarning
	default:
		return StatusPoor
	}
}

// Recommendations derives free-text tuning advice from threshold breaches in
// the rollup and per-endpoint aggregates.
func Recommendations(stats *metrics.Stats) []string {
	total := stats.Total
	var recs []string

	avg := ms(total.AvgLatency)
	switch {
	case avg > 2000:
		recs = append(recs, "High response times detected. Consider caching, database optimization, or horizontal scaling.")
	case avg > 1000:
		recs = append(recs, "Response times are acceptable but could be improved with optimization.")
	default:
		recs = append(recs, "Response times are excellent.")
	}

	switch {
	case total.FailureRate > 0.05:
		recs = append(recs, "High error rate detected. Investigate application logs and implement error handling.")
	case total.FailureRate > 0.01:
		recs = append(recs, "Moderate error rate. Monitor error patterns and consider improvements.")
	default:
		recs = append(recs, "Error rate is within acceptable limits.")
	}

	switch {
	case total.RPS < 10:
		recs = append(recs, "Low throughput detected. Consider application server tuning and load balancer configuration.")
	case total.RPS < 50:
		recs = append(recs, "Moderate throughput. Room for improvement with performance optimization.")
	default:
		recs = append(recs, "Good throughput performance.")
	}

	var slow []string
	for _, e := range stats.Endpoints {
		if ms(e.AvgLatency) > 2000 {
			slow = append(slow, e.Name)
		}
	}
	if len(slow) > 0 {
		shown := slow
		suffix := ""
		if len(shown) > 3 {
			shown = shown[:3]
			suffix = "..."
		}
		recs = append(recs, fmt.Sprintf("Slow endpoints identified: %s%s",
			strings.Join(shown, ", "), suffix))
	}
	return recs
}
