package integrators

import (
	"github.com/san-kum/qrsim/internal/dynamo"
	"github.com/san-kum/qrsim/internal/physics"
)

// Propagator advances one agent by its own time step. Position and velocity
// both use the acceleration sampled at the start of the step:
//
//	x' = x + (v*dt + a*dt²/2)
//	v' = v + a*dt
//
// The result carries [dynamo.PropagatedTimeStep] as its step, so the next
// propagation of that agent advances by that amount.
type Propagator struct {
	Force physics.ForceLaw
}

func NewPropagator(force physics.ForceLaw) *Propagator {
	return &Propagator{Force: force}
}

func (p *Propagator) Propagate(id string, world dynamo.Snapshot) (dynamo.AgentState, error) {
	self, ok := world[id]
	if !ok {
		return dynamo.AgentState{}, &dynamo.SimulationError{Agent: id, Wrapped: dynamo.ErrMissingAgent}
	}

	fx, fy, err := p.Force.NetForce(id, world)
	if err != nil {
		return dynamo.AgentState{}, err
	}

	ax := fx / self.M
	ay := fy / self.M
	dt := self.TimeStep
	dt2 := dt * dt

	// The displacement is summed before it is added to the position, and
	// the conversions keep every product rounded so no FMA is fused.
	next := dynamo.AgentState{
		Name:     self.Name,
		Time:     self.Time + dt,
		TimeStep: dynamo.PropagatedTimeStep,
		X:        self.X + (float64(self.VX*dt) + float64(0.5*ax*dt2)),
		Y:        self.Y + (float64(self.VY*dt) + float64(0.5*ay*dt2)),
		VX:       self.VX + float64(ax*dt),
		VY:       self.VY + float64(ay*dt),
		M:        self.M,
	}

	if !next.IsValid() {
		return dynamo.AgentState{}, &dynamo.SimulationError{Agent: id, Time: self.Time, Wrapped: dynamo.ErrInvalidState}
	}
	return next, nil
}
