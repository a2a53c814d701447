package viz

import (
	"math"

	"github.com/san-kum/qrsim/internal/dynamo"
)

// Orbits draws each agent's path in the x/y plane on one canvas, scaled so
// every recorded position fits. The last position of each path is marked.
func Orbits(paths map[string][]dynamo.AgentState, width, height int) (string, error) {
	lo := dynamo.AgentState{X: math.Inf(1), Y: math.Inf(1)}
	hi := dynamo.AgentState{X: math.Inf(-1), Y: math.Inf(-1)}
	n := 0
	for _, states := range paths {
		for _, s := range states {
			lo.X, lo.Y = math.Min(lo.X, s.X), math.Min(lo.Y, s.Y)
			hi.X, hi.Y = math.Max(hi.X, s.X), math.Max(hi.Y, s.Y)
			n++
		}
	}
	if n == 0 {
		return "", ErrNoData
	}
	view := FitViewport(dynamo.Snapshot{"lo": lo, "hi": hi}, 0.05)

	c := NewCanvas(width, height)
	for _, states := range paths {
		for i := 1; i < len(states); i++ {
			x0, y0 := view.Project(c, states[i-1].X, states[i-1].Y)
			x1, y1 := view.Project(c, states[i].X, states[i].Y)
			c.DrawLine(x0, y0, x1, y1)
		}
		if len(states) > 0 {
			last := states[len(states)-1]
			c.Dot(view.Project(c, last.X, last.Y))
		}
	}
	return c.String(), nil
}
