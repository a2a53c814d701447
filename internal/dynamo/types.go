package dynamo

import (
	"math"
	"sort"
)

// PropagatedTimeStep is stored in TimeStep on every state produced by a
// propagation. Seed states carry the configured physical step instead.
const PropagatedTimeStep = 1.0

// SeedLow is the lower bound of the interval holding the initial world.
const SeedLow = -999999999.0

// AgentState is one body at one instant. Mass never changes over a body's
// lifetime.
type AgentState struct {
	Name     string  `json:"name" yaml:"name"`
	Time     float64 `json:"time" yaml:"time"`
	TimeStep float64 `json:"time_step" yaml:"time_step"`
	X        float64 `json:"x" yaml:"x"`
	Y        float64 `json:"y" yaml:"y"`
	VX       float64 `json:"vx" yaml:"vx"`
	VY       float64 `json:"vy" yaml:"vy"`
	M        float64 `json:"m" yaml:"m"`
}

func (s AgentState) IsValid() bool {
	for _, v := range [...]float64{s.Time, s.TimeStep, s.X, s.Y, s.VX, s.VY, s.M} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Propagated reports whether TimeStep holds PropagatedTimeStep. It only
// tells committed states from seed states when no seed is configured with a
// step of exactly PropagatedTimeStep; such a seed reports true as well.
func (s AgentState) Propagated() bool {
	return s.TimeStep == PropagatedTimeStep
}

func (s AgentState) Speed() float64 {
	return math.Hypot(s.VX, s.VY)
}

// Snapshot maps agent ids to their states at some instant.
type Snapshot map[string]AgentState

func (s Snapshot) Clone() Snapshot {
	c := make(Snapshot, len(s))
	for id, st := range s {
		c[id] = st
	}
	return c
}

// IDs returns the snapshot's agent ids in sorted order.
func (s Snapshot) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Covers reports whether every id in ids has an entry.
func (s Snapshot) Covers(ids []string) bool {
	for _, id := range ids {
		if _, ok := s[id]; !ok {
			return false
		}
	}
	return true
}

// Seed is the ordered initial world. Order fixes the visiting order of the
// scheduler.
type Seed struct {
	Order  []string
	States Snapshot
}

func (s Seed) Validate() error {
	if len(s.Order) == 0 {
		return ErrParameterBounds
	}
	seen := make(map[string]bool, len(s.Order))
	for _, id := range s.Order {
		st, ok := s.States[id]
		if !ok || seen[id] {
			return ErrParameterBounds
		}
		seen[id] = true
		if !st.IsValid() || st.M <= 0 || st.TimeStep <= 0 {
			return ErrInvalidState
		}
	}
	if len(seen) != len(s.States) {
		return ErrParameterBounds
	}
	return nil
}

// Latest returns the largest seed time.
func (s Seed) Latest() float64 {
	latest := math.Inf(-1)
	for _, st := range s.States {
		latest = math.Max(latest, st.Time)
	}
	return latest
}

// MinTimeStep returns the smallest configured seed step.
func (s Seed) MinTimeStep() float64 {
	m := math.Inf(1)
	for _, st := range s.States {
		m = math.Min(m, st.TimeStep)
	}
	return m
}

// SmallestStep bounds every step any agent will take: the seed steps, then
// PropagatedTimeStep for every later one.
func (s Seed) SmallestStep() float64 {
	return math.Min(s.MinTimeStep(), PropagatedTimeStep)
}
