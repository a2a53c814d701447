package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/qrsim/internal/dynamo"
)

// DefaultG is the gravitational constant used by the reference scenario.
const DefaultG = 6.67e-11

type ForceLaw interface {
	NetForce(id string, world dynamo.Snapshot) (fx, fy float64, err error)
}

type Law int

const (
	LawReference Law = iota
	LawInverseSquare
)

func (l Law) String() string {
	switch l {
	case LawReference:
		return "reference"
	case LawInverseSquare:
		return "inverse_square"
	default:
		return "unknown"
	}
}

func ParseLaw(s string) (Law, error) {
	switch s {
	case "", "reference":
		return LawReference, nil
	case "inverse_square":
		return LawInverseSquare, nil
	default:
		return 0, fmt.Errorf("unknown force law: %s", s)
	}
}

type Gravity struct {
	G   float64
	Law Law
	// Order fixes the summation order. Ids missing from it are visited
	// afterwards in sorted order.
	Order []string
}

func NewGravity(g float64, law Law) *Gravity {
	return &Gravity{G: g, Law: law}
}

// NetForce sums the pull of every other body in world on id.
func (g *Gravity) NetForce(id string, world dynamo.Snapshot) (float64, float64, error) {
	self, ok := world[id]
	if !ok {
		return 0, 0, &dynamo.SimulationError{Agent: id, Wrapped: dynamo.ErrMissingAgent}
	}

	fx, fy := 0.0, 0.0
	for _, other := range g.visitOrder(world) {
		if other == id {
			continue
		}
		body := world[other]
		dx := body.X - self.X
		dy := body.Y - self.Y
		distance := math.Sqrt(float64(dx*dx) + float64(dy*dy))
		if distance == 0 {
			return 0, 0, &dynamo.SimulationError{Agent: id, Other: other, Time: self.Time, Wrapped: dynamo.ErrSingularity}
		}

		magnitude := g.magnitude(self.M, body.M, distance)
		fx += magnitude * dx / distance
		fy += magnitude * dy / distance
	}
	return fx, fy, nil
}

func (g *Gravity) magnitude(m1, m2, distance float64) float64 {
	if g.Law == LawInverseSquare {
		return g.G * m1 * m2 / (distance * distance)
	}
	// evaluated left to right: (G*m1*m2/d)*d
	return g.G * m1 * m2 / distance * distance
}

// Energy is kinetic plus pairwise potential energy. The potential matches the
// law: G*m1*m2*d for the reference law, whose attraction does not fall off
// with distance, and -G*m1*m2/d for inverse square.
func (g *Gravity) Energy(world dynamo.Snapshot) float64 {
	ids := g.visitOrder(world)
	ke, pe := 0.0, 0.0

	for i, a := range ids {
		si := world[a]
		ke += 0.5 * si.M * (si.VX*si.VX + si.VY*si.VY)

		for _, b := range ids[i+1:] {
			sj := world[b]
			r := math.Hypot(sj.X-si.X, sj.Y-si.Y)
			if g.Law == LawInverseSquare {
				if r > 0 {
					pe -= g.G * si.M * sj.M / r
				}
			} else {
				pe += g.G * si.M * sj.M * r
			}
		}
	}
	return ke + pe
}

func Momentum(world dynamo.Snapshot) (px, py float64) {
	for _, id := range world.IDs() {
		s := world[id]
		px += s.M * s.VX
		py += s.M * s.VY
	}
	return
}

func AngularMomentum(world dynamo.Snapshot) float64 {
	L := 0.0
	for _, id := range world.IDs() {
		s := world[id]
		L += s.M * (s.X*s.VY - s.Y*s.VX)
	}
	return L
}

func (g *Gravity) visitOrder(world dynamo.Snapshot) []string {
	if len(g.Order) == 0 {
		return world.IDs()
	}
	ids := make([]string, 0, len(world))
	seen := make(map[string]bool, len(g.Order))
	for _, id := range g.Order {
		if _, ok := world[id]; ok && !seen[id] {
			ids = append(ids, id)
			seen[id] = true
		}
	}
	if len(ids) == len(world) {
		return ids
	}
	for _, id := range world.IDs() {
		if !seen[id] {
			ids = append(ids, id)
		}
	}
	return ids
}
