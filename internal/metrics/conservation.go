package metrics

import (
	"github.com/san-kum/qrsim/internal/physics"
	"github.com/san-kum/qrsim/internal/sim"
)

// MassViolations counts committed states whose mass differs from the first
// mass recorded for the same agent. It should stay at zero.
type MassViolations struct {
	mass       map[string]float64
	violations int
}

func NewMassViolations() *MassViolations {
	return &MassViolations{mass: make(map[string]float64)}
}

func (m *MassViolations) Name() string { return "mass_violations" }

func (m *MassViolations) Observe(c sim.Commit) {
	want, ok := m.mass[c.Agent]
	if !ok {
		if seeded, inWorld := c.World[c.Agent]; inWorld {
			want = seeded.M
		} else {
			want = c.State.M
		}
		m.mass[c.Agent] = want
	}
	if c.State.M != want {
		m.violations++
	}
}

func (m *MassViolations) Value() float64 { return float64(m.violations) }

func (m *MassViolations) Reset() {
	m.mass = make(map[string]float64)
	m.violations = 0
}

// TimeViolations counts commits that do not move an agent strictly forward.
type TimeViolations struct {
	last       map[string]float64
	violations int
}

func NewTimeViolations() *TimeViolations {
	return &TimeViolations{last: make(map[string]float64)}
}

func (t *TimeViolations) Name() string { return "time_violations" }

func (t *TimeViolations) Observe(c sim.Commit) {
	prev, ok := t.last[c.Agent]
	if !(c.Low < c.High) || c.State.Time != c.High || (ok && c.State.Time <= prev) {
		t.violations++
	}
	t.last[c.Agent] = c.State.Time
}

func (t *TimeViolations) Value() float64 { return float64(t.violations) }

func (t *TimeViolations) Reset() {
	t.last = make(map[string]float64)
	t.violations = 0
}

// Defaults is the metric set attached to every CLI run.
func Defaults(g *physics.Gravity) []sim.Metric {
	return []sim.Metric{
		NewEnergyDrift(g),
		NewMomentumDrift(),
		NewMassViolations(),
		NewTimeViolations(),
	}
}
