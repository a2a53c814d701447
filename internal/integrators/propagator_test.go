package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/qrsim/internal/dynamo"
	"github.com/san-kum/qrsim/internal/physics"
)

type mockForce struct{ mock.Mock }

func (m *mockForce) NetForce(id string, world dynamo.Snapshot) (float64, float64, error) {
	args := m.Called(id, world)
	return args.Get(0).(float64), args.Get(1).(float64), args.Error(2)
}

func TestPropagate_Formula(t *testing.T) {
	world := dynamo.Snapshot{
		"p": {Name: "comet", Time: 2, TimeStep: 0.5, X: 1, Y: -1, VX: 2, VY: 4, M: 4},
	}
	force := &mockForce{}
	force.On("NetForce", "p", world).Return(8.0, -4.0, nil).Once()

	got, err := NewPropagator(force).Propagate("p", world)
	require.NoError(t, err)
	force.AssertExpectations(t)

	// a = (2, -1)
	assert.Equal(t, "comet", got.Name)
	assert.Equal(t, 2.5, got.Time)
	assert.Equal(t, dynamo.PropagatedTimeStep, got.TimeStep)
	assert.Equal(t, 2.25, got.X)
	assert.Equal(t, 0.875, got.Y)
	assert.Equal(t, 3.0, got.VX)
	assert.Equal(t, 3.5, got.VY)
	assert.Equal(t, 4.0, got.M)
}

func TestPropagate_SumsDisplacementFirst(t *testing.T) {
	// each term alone is below half an ulp of 1, their sum is above it
	world := dynamo.Snapshot{"p": {TimeStep: 1, X: 1, Y: 1, VX: 1e-16, VY: 1e-16, M: 1}}
	force := &mockForce{}
	force.On("NetForce", "p", world).Return(2e-16, 2e-16, nil)

	got, err := NewPropagator(force).Propagate("p", world)
	require.NoError(t, err)
	assert.Equal(t, math.Nextafter(1, 2), got.X)
	assert.Equal(t, math.Nextafter(1, 2), got.Y)
}

func TestPropagate_UsesOwnTimeStep(t *testing.T) {
	world := dynamo.Snapshot{"p": {Time: 0.02, TimeStep: dynamo.PropagatedTimeStep, VX: 1, M: 1}}
	force := &mockForce{}
	force.On("NetForce", "p", world).Return(0.0, 0.0, nil)

	got, err := NewPropagator(force).Propagate("p", world)
	require.NoError(t, err)
	assert.InDelta(t, 1.02, got.Time, 1e-12)
	assert.InDelta(t, 1.0, got.X, 1e-12)
}

func TestPropagate_TwoBodiesAttract(t *testing.T) {
	d := 5.0
	g := 6.67e-11
	m := 1000.0
	world := dynamo.Snapshot{
		"left":  {Name: "left", TimeStep: 0.02, X: 0, Y: 0, M: m},
		"right": {Name: "right", TimeStep: 0.02, X: d, Y: 0, M: m},
	}
	prop := NewPropagator(physics.NewGravity(g, physics.LawReference))

	left, err := prop.Propagate("left", world)
	require.NoError(t, err)
	right, err := prop.Propagate("right", world)
	require.NoError(t, err)

	assert.Greater(t, left.VX, 0.0)
	assert.Less(t, right.VX, 0.0)
	assert.Zero(t, left.VY)
	assert.Zero(t, right.VY)

	accel := (g * m * m / d * d) / m
	assert.InDelta(t, accel*0.02, left.VX, 1e-18)
	assert.InDelta(t, -accel*0.02, right.VX, 1e-18)
}

func TestPropagate_Singularity(t *testing.T) {
	world := dynamo.Snapshot{
		"a": {TimeStep: 0.1, X: 3, Y: 3, M: 1},
		"b": {TimeStep: 0.1, X: 3, Y: 3, M: 1},
	}

	_, err := NewPropagator(physics.NewGravity(1, physics.LawReference)).Propagate("a", world)
	assert.True(t, errors.Is(err, dynamo.ErrSingularity))
}

func TestPropagate_RejectsNonFinite(t *testing.T) {
	world := dynamo.Snapshot{"p": {TimeStep: 1, M: 1}}
	force := &mockForce{}
	force.On("NetForce", "p", world).Return(math.Inf(1), 0.0, nil)

	_, err := NewPropagator(force).Propagate("p", world)
	assert.ErrorIs(t, err, dynamo.ErrInvalidState)
}

func TestPropagate_MissingAgent(t *testing.T) {
	force := &mockForce{}
	_, err := NewPropagator(force).Propagate("ghost", dynamo.Snapshot{})
	assert.ErrorIs(t, err, dynamo.ErrMissingAgent)
	force.AssertNotCalled(t, "NetForce", mock.Anything, mock.Anything)
}
