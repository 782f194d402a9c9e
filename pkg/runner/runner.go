// Package runner spawns the virtual-user population for one scenario and
// collects the run's metrics. Each user owns a private session and
// randomness source; the aggregator and fixture generator are the only
// shared structures.
package runner

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/storeload/storeload/pkg/behavior"
	"github.com/storeload/storeload/pkg/client"
	"github.com/storeload/storeload/pkg/config"
	"github.com/storeload/storeload/pkg/fixtures"
	"github.com/storeload/storeload/pkg/metrics"
	"github.com/storeload/storeload/pkg/session"
)

// Result is everything a finished run produces.
type Result struct {
	Stats   *metrics.Stats
	Trend   []metrics.TrendSample
	Started time.Time
	Ended   time.Time
}

// Option adjusts runner construction.
type Option func(*Runner)

// WithLogger sets the run logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// WithHTTPClient sets the HTTP client shared by all virtual users.
func WithHTTPClient(h *http.Client) Option {
	return func(r *Runner) { r.httpClient = h }
}

// Runner executes one scenario.
type Runner struct {
	scenario   config.Scenario
	agg        *metrics.Aggregator
	gen        *fixtures.Generator
	mix        behavior.Mix
	profiles   map[string]behavior.Profile
	choosers   map[string]*behavior.Chooser
	seed       int64
	log        *zap.Logger
	httpClient *http.Client
}

// New prepares a runner for the scenario. The task tables for every profile
// in the scenario's mix are compiled up front so a bad table fails here, not
// mid-run.
func New(scenario config.Scenario, opts ...Option) (*Runner, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}

	seed := scenario.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	r := &Runner{
		scenario: scenario,
		agg:      metrics.NewAggregator(),
		gen:      fixtures.NewGenerator(seed),
		mix:      behavior.MixFor(scenario.TestType),
		profiles: behavior.Profiles(),
		choosers: make(map[string]*behavior.Chooser),
		seed:     seed,
		log:      zap.NewNop(),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        256,
				MaxIdleConnsPerHost: 256,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}

	for _, entry := range r.mix {
		profile, ok := r.profiles[entry.Profile]
		if !ok {
			return nil, fmt.Errorf("%w: %s", behavior.ErrUnknownProfile, entry.Profile)
		}
		chooser, err := behavior.NewChooser(profile.Tasks)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", entry.Profile, err)
		}
		r.choosers[entry.Profile] = chooser
	}
	return r, nil
}

// Aggregator exposes the run's metrics sink, for status servers and trend
// loggers that observe a run in flight.
func (r *Runner) Aggregator() *metrics.Aggregator { return r.agg }

// Seed returns the effective randomness seed for the run.
func (r *Runner) Seed() int64 { return r.seed }

// Run executes the scenario to completion: users start over the ramp span,
// behave until the run duration elapses or ctx is cancelled, then drain.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	started := time.Now()
	runCtx, cancel := context.WithTimeout(ctx, r.scenario.Duration.Std())
	defer cancel()

	var trend *metrics.TrendLogger
	if interval := r.scenario.TrendInterval.Std(); interval > 0 {
		trend = metrics.NewTrendLogger(r.agg, interval, r.log)
		trend.Start(runCtx)
	}

	r.log.Info("run starting",
		zap.String("scenario", r.scenario.Name),
		zap.String("testType", r.scenario.TestType),
		zap.Int("users", r.scenario.Users),
		zap.Duration("duration", r.scenario.Duration.Std()),
		zap.Duration("rampUp", r.scenario.RampUp.Std()),
		zap.Int64("seed", r.seed),
	)

	var wg sync.WaitGroup
	interval := rampInterval(r.scenario.Users, r.scenario.RampUp.Std())
	for i := 0; i < r.scenario.Users; i++ {
		if i > 0 && interval > 0 {
			select {
			case <-runCtx.Done():
			case <-time.After(interval):
			}
		}
		if runCtx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			r.runUser(runCtx, id)
		}(i)
	}

	wg.Wait()
	if trend != nil {
		trend.Stop()
		trend.Capture("final")
	}

	result := &Result{
		Stats:   r.agg.Snapshot(),
		Started: started,
		Ended:   time.Now(),
	}
	if trend != nil {
		result.Trend = trend.Samples()
	}
	r.log.Info("run finished",
		zap.Int64("requests", result.Stats.Total.Requests),
		zap.Int64("failures", result.Stats.Total.Failures),
		zap.Duration("elapsed", result.Stats.Elapsed),
	)
	return result, ctx.Err()
}

// rampInterval spreads user starts evenly across the ramp span.
func rampInterval(users int, rampUp time.Duration) time.Duration {
	if users <= 1 || rampUp <= 0 {
		return 0
	}
	return rampUp / time.Duration(users)
}

// runUser is one virtual user's lifetime: a profile drawn from the mix and
// one session driven until the run ends.
func (r *Runner) runUser(ctx context.Context, id int) {
	rnd := rand.New(rand.NewSource(r.seed + int64(id)))
	c := client.New(r.scenario.BaseURL, r.agg, r.gen,
		client.WithHTTPClient(r.httpClient),
		client.WithLogger(r.log),
	)

	profileName := r.mix.Pick(rnd)
	profile := r.profiles[profileName]
	chooser := r.choosers[profileName]
	if chooser == nil {
		return
	}
	r.runSession(ctx, c, profile, chooser, rnd)
}

// runSession drives one user's session through its weighted task table for
// the rest of the run. When the profile carries a recycle budget, exhausting
// it starts a fresh cycle on the same identity.
func (r *Runner) runSession(ctx context.Context, c *client.Client, profile behavior.Profile, chooser *behavior.Chooser, rnd *rand.Rand) {
	s := session.New(profile.Name, r.gen.SessionPlan())
	if profile.RecycleMax > 0 {
		s.MaxActions = budget(rnd, profile.RecycleMin, profile.RecycleMax)
	}
	env := behavior.NewEnv(c, s, rnd, r.log)

	for ctx.Err() == nil {
		if s.Exhausted() {
			s.Recycle(budget(rnd, profile.RecycleMin, profile.RecycleMax))
		}
		task := chooser.Pick(rnd)
		task.Run(ctx, env)
		s.Actions++
		thinkTime(ctx, rnd, profile.ThinkMin, profile.ThinkMax)
	}
}

func budget(rnd *rand.Rand, min, max int) int {
	if max <= min {
		return min
	}
	return min + rnd.Intn(max-min+1)
}

func thinkTime(ctx context.Context, rnd *rand.Rand, min, max time.Duration) {
	d := min
	if max > min {
		d = min + time.Duration(rnd.Int63n(int64(max-min)))
	}
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
