package metrics

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TrendSample is one periodic capture of the rollup aggregates, used by
// endurance-style runs to compare early and late behavior.
type TrendSample struct {
	Label      string        `json:"label"`
	TakenAt    time.Time     `json:"takenAt"`
	Elapsed    time.Duration `json:"elapsed"`
	Requests   int64         `json:"requests"`
	Failures   int64         `json:"failures"`
	RPS        float64       `json:"rps"`
	AvgLatency time.Duration `json:"avgLatency"`
	ErrorRate  float64       `json:"errorRate"`
}

// TrendLogger captures labeled snapshots of an aggregator on a fixed
// interval. It is owned by the run that created it: Start ties the ticker to
// the run context and Stop waits for the background goroutine to exit.
type TrendLogger struct {
	agg      *Aggregator
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	samples []TrendSample

	cancel context.CancelFunc
	done   chan struct{}
}

// NewTrendLogger builds a trend logger sampling agg every interval.
func NewTrendLogger(agg *Aggregator, interval time.Duration, logger *zap.Logger) *TrendLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrendLogger{
		agg:      agg,
		interval: interval,
		logger:   logger,
	}
}

// Start begins periodic sampling until Stop is called or ctx is cancelled.
func (t *TrendLogger) Start(ctx context.Context) {
	ctx, t.cancel = context.WithCancel(ctx)
	t.done = make(chan struct{})

	go func() {
		defer close(t.done)
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.Capture("interval")
			}
		}
	}()
}

// Stop cancels sampling and waits for the sampler goroutine to finish.
func (t *TrendLogger) Stop() {
	if t.cancel == nil {
		return
	}
	t.cancel()
	<-t.done
	t.cancel = nil
}

// Capture takes an immediate labeled sample. Safe to call concurrently with
// the interval sampler; used for the final capture at test stop.
func (t *TrendLogger) Capture(label string) TrendSample {
	snap := t.agg.Snapshot()
	sample := TrendSample{
		Label:      label,
		TakenAt:    snap.GeneratedAt,
		Elapsed:    snap.Elapsed,
		Requests:   snap.Total.Requests,
		Failures:   snap.Total.Failures,
		RPS:        snap.Total.RPS,
		AvgLatency: snap.Total.AvgLatency,
		ErrorRate:  snap.Total.FailureRate,
	}

	t.mu.Lock()
	t.samples = append(t.samples, sample)
	t.mu.Unlock()

	t.logger.Info("trend sample",
		zap.Duration("elapsed", sample.Elapsed),
		zap.Float64("rps", sample.RPS),
		zap.Duration("avgLatency", sample.AvgLatency),
		zap.Float64("errorRate", sample.ErrorRate))

	return sample
}

// Samples returns a copy of the ordered trend log.
func (t *TrendLogger) Samples() []TrendSample {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TrendSample, len(t.samples))
	copy(out, t.samples)
	return out
}
