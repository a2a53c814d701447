package viz

import (
	"errors"
	"fmt"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/qrsim/internal/dynamo"
)

var ErrNoData = errors.New("viz: no data to plot")

// Fields lists the per-state quantities PlotTrajectory understands.
var Fields = []string{"x", "y", "vx", "vy", "speed"}

func field(s dynamo.AgentState, name string) (float64, error) {
	switch name {
	case "x":
		return s.X, nil
	case "y":
		return s.Y, nil
	case "vx":
		return s.VX, nil
	case "vy":
		return s.VY, nil
	case "speed":
		return s.Speed(), nil
	default:
		return 0, fmt.Errorf("viz: unknown field %q (available: %v)", name, Fields)
	}
}

// Series extracts one quantity from a trajectory.
func Series(states []dynamo.AgentState, name string) ([]float64, error) {
	data := make([]float64, len(states))
	for i, s := range states {
		v, err := field(s, name)
		if err != nil {
			return nil, err
		}
		data[i] = v
	}
	return data, nil
}

// PlotTrajectory renders a field of an agent's trajectory against step index.
func PlotTrajectory(agent string, states []dynamo.AgentState, name string, width, height int) (string, error) {
	if len(states) == 0 {
		return "", ErrNoData
	}
	data, err := Series(states, name)
	if err != nil {
		return "", err
	}
	caption := fmt.Sprintf("%s %s, t=%.3f..%.3f", agent, name, states[0].Time, states[len(states)-1].Time)
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	), nil
}
