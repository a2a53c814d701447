package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/san-kum/qrsim/internal/dynamo"
	"github.com/san-kum/qrsim/internal/logging"
	"github.com/san-kum/qrsim/internal/qrange"
)

// Scheduler advances every agent on its own cursor. Agents see each other
// only through the store: before stepping, an agent reads the store just
// behind its cursor and steps only if every agent appears in what it reads.
type Scheduler struct {
	store     Store
	integ     Integrator
	order     []string
	cursors   map[string]float64
	status    map[string]Status
	lookback  float64
	passes    int
	log       logging.Logger
	metrics   []Metric
	observers []Observer
}

// New seeds an empty store with the initial world over [SeedLow, latest
// seed time) and returns a scheduler with every cursor at its seed time.
func New(store Store, integ Integrator, seed dynamo.Seed, cfg Config) (*Scheduler, error) {
	if err := seed.Validate(); err != nil {
		return nil, fmt.Errorf("invalid seed: %w", err)
	}
	if err := validateConfig(cfg, seed); err != nil {
		return nil, err
	}
	if store.Len() != 0 {
		return nil, fmt.Errorf("store already holds %d records", store.Len())
	}
	if err := store.Insert(dynamo.SeedLow, seed.Latest(), seed.States.Clone()); err != nil {
		return nil, fmt.Errorf("seed store: %w", err)
	}

	s := &Scheduler{
		store:    store,
		integ:    integ,
		order:    append([]string(nil), seed.Order...),
		cursors:  make(map[string]float64, len(seed.Order)),
		status:   make(map[string]Status, len(seed.Order)),
		lookback: cfg.Lookback,
		log:      logging.NoOp{},
	}
	for _, id := range s.order {
		s.cursors[id] = seed.States[id].Time
		s.status[id] = StatusSeeded
	}
	return s, nil
}

// validateConfig keeps the lookback positive and below the smallest step any
// agent takes, so a read never lands inside the agent's own latest interval.
func validateConfig(cfg Config, seed dynamo.Seed) error {
	lb := cfg.Lookback
	if lb <= 0 || math.IsNaN(lb) || math.IsInf(lb, 0) {
		return fmt.Errorf("%w: lookback must be positive, got %g", dynamo.ErrParameterBounds, lb)
	}
	if step := seed.SmallestStep(); lb >= step {
		return fmt.Errorf("%w: lookback %g must be below the smallest time step %g", dynamo.ErrParameterBounds, lb, step)
	}
	return nil
}

func (s *Scheduler) SetLogger(l logging.Logger) { s.log = l }
func (s *Scheduler) AddMetric(m Metric)         { s.metrics = append(s.metrics, m) }
func (s *Scheduler) AddObserver(o Observer)     { s.observers = append(s.observers, o) }

// Step tries to advance one agent. Blocked steps are not errors; errors from
// the integrator or the store are fatal for the run.
func (s *Scheduler) Step(id string) (Outcome, error) {
	t, ok := s.cursors[id]
	if !ok {
		return OutcomeBlocked, fmt.Errorf("%w: %s", dynamo.ErrMissingAgent, id)
	}

	parts, err := s.store.Query(t - s.lookback)
	if errors.Is(err, qrange.ErrNotFound) {
		s.block(id, t)
		return OutcomeBlocked, nil
	}
	if err != nil {
		return OutcomeBlocked, err
	}

	world := dynamo.Merge(parts)
	if !world.Covers(s.order) {
		s.block(id, t)
		return OutcomeBlocked, nil
	}

	next, err := s.integ.Propagate(id, world)
	if err != nil {
		var simErr *dynamo.SimulationError
		if errors.As(err, &simErr) {
			simErr.Pass = s.passes
		}
		return OutcomeBlocked, err
	}

	if err := s.store.Insert(t, next.Time, dynamo.Snapshot{id: next}); err != nil {
		return OutcomeBlocked, fmt.Errorf("commit %s: %w", id, err)
	}
	s.cursors[id] = next.Time
	s.status[id] = StatusAdvancing

	c := Commit{Agent: id, Pass: s.passes, Low: t, High: next.Time, State: next, World: world}
	for _, m := range s.metrics {
		m.Observe(c)
	}
	for _, o := range s.observers {
		o.OnCommit(c)
	}
	s.log.Debug("committed", "agent", id, "pass", s.passes, "low", t, "high", next.Time)

	return OutcomeCommitted, nil
}

func (s *Scheduler) block(id string, t float64) {
	s.status[id] = StatusBlocked
	for _, o := range s.observers {
		o.OnBlocked(id, s.passes, t)
	}
	s.log.Debug("blocked", "agent", id, "pass", s.passes, "cursor", t)
}

// Pass visits every agent once in seed order.
func (s *Scheduler) Pass() (PassStats, error) {
	s.passes++
	stats := PassStats{Pass: s.passes}
	for _, id := range s.order {
		outcome, err := s.Step(id)
		if err != nil {
			return stats, err
		}
		if outcome == OutcomeCommitted {
			stats.Committed++
		} else {
			stats.Blocked++
		}
	}
	return stats, nil
}

// Run executes up to passes scheduling passes. A pass without a single
// commit leaves the store and cursors unchanged, so every later pass would
// repeat it; the run stops there and reports StalledAt.
func (s *Scheduler) Run(ctx context.Context, passes int) (*Result, error) {
	if passes < 0 {
		return nil, fmt.Errorf("%w: passes must not be negative, got %d", dynamo.ErrParameterBounds, passes)
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	start := time.Now()
	result := &Result{}

	for i := 0; i < passes; i++ {
		select {
		case <-ctx.Done():
			return s.finish(result, start), fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		stats, err := s.Pass()
		result.Passes++
		result.Commits += stats.Committed
		result.Blocked += stats.Blocked
		if err != nil {
			return s.finish(result, start), err
		}

		if stats.Committed == 0 {
			result.StalledAt = stats.Pass
			s.log.Warn("all agents blocked, stopping early", "pass", stats.Pass, "budget", passes)
			break
		}
	}

	return s.finish(result, start), nil
}

func (s *Scheduler) finish(result *Result, start time.Time) *Result {
	result.Elapsed = time.Since(start)
	result.Records = s.store.Len()
	result.Cursors = s.Cursors()
	result.Metrics = make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result
}

func (s *Scheduler) Cursor(id string) (float64, bool) {
	t, ok := s.cursors[id]
	return t, ok
}

func (s *Scheduler) Cursors() map[string]float64 {
	out := make(map[string]float64, len(s.cursors))
	for id, t := range s.cursors {
		out[id] = t
	}
	return out
}

func (s *Scheduler) Status(id string) Status { return s.status[id] }

func (s *Scheduler) Order() []string { return append([]string(nil), s.order...) }

func (s *Scheduler) Store() Store { return s.store }

// Passes is the number of passes run so far.
func (s *Scheduler) Passes() int { return s.passes }

// World returns the composite snapshot visible at t.
func (s *Scheduler) World(t float64) (dynamo.Snapshot, error) {
	parts, err := s.store.Query(t)
	if err != nil {
		return nil, err
	}
	return dynamo.Merge(parts), nil
}
