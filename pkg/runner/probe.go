package runner

import (
	"fmt"
	"time"

	vegeta "github.com/tsenart/vegeta/v12/lib"
	"go.uber.org/zap"
)

// probeServices are the backends whose health endpoints the baseline probe
// exercises before a run.
var probeServices = []string{"user-service", "product-service", "order-service"}

// ProbeResult summarizes a constant-rate health probe of one service.
type ProbeResult struct {
	Service     string        `json:"service"`
	Requests    uint64        `json:"requests"`
	SuccessRate float64       `json:"successRate"`
	MeanLatency time.Duration `json:"meanLatency"`
	P95Latency  time.Duration `json:"p95Latency"`
	MaxLatency  time.Duration `json:"maxLatency"`
}

// Healthy reports whether the service answered every probe request.
func (p ProbeResult) Healthy() bool { return p.SuccessRate >= 1.0 }

// Probe hits each service's health endpoint at a constant rate and reports
// per-service latency baselines. Run it before a test to confirm the system
// under test is up and to record its unloaded response times.
func Probe(baseURL string, rps int, duration time.Duration, logger *zap.Logger) ([]ProbeResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rps <= 0 {
		return nil, fmt.Errorf("probe rate must be positive, got %d", rps)
	}
	if duration <= 0 {
		return nil, fmt.Errorf("probe duration must be positive, got %s", duration)
	}

	rate := vegeta.Rate{Freq: rps, Per: time.Second}
	results := make([]ProbeResult, 0, len(probeServices))
	for _, service := range probeServices {
		targeter := vegeta.NewStaticTargeter(vegeta.Target{
			Method: "GET",
			URL:    fmt.Sprintf("%s/%s/actuator/health", baseURL, service),
		})
		attacker := vegeta.NewAttacker(vegeta.Timeout(10 * time.Second))

		var m vegeta.Metrics
		for res := range attacker.Attack(targeter, rate, duration, service) {
			m.Add(res)
		}
		m.Close()

		result := ProbeResult{
			Service:     service,
			Requests:    m.Requests,
			SuccessRate: m.Success,
			MeanLatency: m.Latencies.Mean,
			P95Latency:  m.Latencies.P95,
			MaxLatency:  m.Latencies.Max,
		}
		results = append(results, result)
		logger.Info("health baseline",
			zap.String("service", service),
			zap.Uint64("requests", result.Requests),
			zap.Float64("successRate", result.SuccessRate),
			zap.Duration("meanLatency", result.MeanLatency),
			zap.Duration("p95Latency", result.P95Latency),
		)
	}
	return results, nil
}
