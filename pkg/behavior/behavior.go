// Package behavior drives a virtual user through the e-commerce flows.
// Each profile is a data-driven table of weighted tasks interpreted by one
// generic chooser; the composite actions mirror realistic shopper behavior
// with think-time delays between calls.
package behavior

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/storeload/storeload/pkg/client"
	"github.com/storeload/storeload/pkg/session"
)

// Errors returned by the behavior package.
var (
	// ErrNoTasks is returned when a chooser is built without positive weights.
	ErrNoTasks = errors.New("behavior: no tasks with positive weight")
	// ErrUnknownProfile is returned when a profile name is not registered.
	ErrUnknownProfile = errors.New("behavior: unknown profile")
)

// Task is one schedulable behavior with a relative integer weight.
type Task struct {
	Name   string
	Weight int
	Run    func(ctx context.Context, e *Env)
}

// Profile is a named weighted task table with its think-time interval.
// RecycleMin/Max, when positive, give the per-cycle action budget for
// session-recycling users.
type Profile struct {
	Name       string
	ThinkMin   time.Duration
	ThinkMax   time.Duration
	RecycleMin int
	RecycleMax int
	Tasks      []Task
}

// Env is the execution context handed to tasks: the session being mutated,
// the action client, and the user's private randomness source.
type Env struct {
	Client *client.Client
	State  *session.State
	Rand   *rand.Rand
	Log    *zap.Logger

	sleep func(ctx context.Context, d time.Duration)
}

// NewEnv builds a task environment. rnd must be private to the owning
// virtual user; math/rand sources are not safe for concurrent use.
func NewEnv(c *client.Client, s *session.State, rnd *rand.Rand, log *zap.Logger) *Env {
	if log == nil {
		log = zap.NewNop()
	}
	return &Env{
		Client: c,
		State:  s,
		Rand:   rnd,
		Log:    log,
		sleep:  ctxSleep,
	}
}

// Chance reports true with probability p.
func (e *Env) Chance(p float64) bool { return e.Rand.Float64() < p }

// between draws an integer in [min, max].
func (e *Env) between(min, max int) int {
	if max <= min {
		return min
	}
	return min + e.Rand.Intn(max-min+1)
}

// pause sleeps for a uniform random duration in [min, max], returning early
// when ctx is cancelled.
func (e *Env) pause(ctx context.Context, min, max time.Duration) {
	d := min
	if max > min {
		d = min + time.Duration(e.Rand.Int63n(int64(max-min)))
	}
	e.sleep(ctx, d)
}

func ctxSleep(ctx context.Context, d time.Duration) {
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

// Chooser performs cumulative-weight selection over a task table.
type Chooser struct {
	tasks      []Task
	cumulative []int
	total      int
}

// NewChooser builds a chooser, skipping tasks without a positive weight.
func NewChooser(tasks []Task) (*Chooser, error) {
	c := &Chooser{}
	for _, t := range tasks {
		if t.Weight <= 0 {
			continue
		}
		c.total += t.Weight
		c.tasks = append(c.tasks, t)
		c.cumulative = append(c.cumulative, c.total)
	}
	if c.total == 0 {
		return nil, ErrNoTasks
	}
	return c, nil
}

// Pick draws one task according to the relative weights.
func (c *Chooser) Pick(rnd *rand.Rand) Task {
	n := rnd.Intn(c.total)
	for i, bound := range c.cumulative {
		if n < bound {
			return c.tasks[i]
		}
	}
	return c.tasks[len(c.tasks)-1]
}

// MixEntry pairs a profile name with its selection weight.
type MixEntry struct {
	Profile string
	Weight  int
}

// Mix assigns profiles to starting sessions by weighted random choice.
type Mix []MixEntry

// Pick draws a profile name from the mix.
func (m Mix) Pick(rnd *rand.Rand) string {
	total := 0
	for _, e := range m {
		total += e.Weight
	}
	if total == 0 {
		return ""
	}
	n := rnd.Intn(total)
	for _, e := range m {
		n -= e.Weight
		if n < 0 {
			return e.Profile
		}
	}
	return m[len(m)-1].Profile
}
