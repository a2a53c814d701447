package sim

import (
	"time"

	"github.com/san-kum/qrsim/internal/dynamo"
	"github.com/san-kum/qrsim/internal/qrange"
)

// DefaultLookback is how far before its cursor an agent reads the world.
const DefaultLookback = 0.001

// Store is the shared history every agent reads and writes.
type Store = qrange.Store[dynamo.Snapshot]

type Integrator interface {
	Propagate(id string, world dynamo.Snapshot) (dynamo.AgentState, error)
}

type Status int

const (
	StatusSeeded Status = iota
	StatusAdvancing
	StatusBlocked
)

func (s Status) String() string {
	switch s {
	case StatusSeeded:
		return "seeded"
	case StatusAdvancing:
		return "advancing"
	case StatusBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

type Outcome int

const (
	OutcomeCommitted Outcome = iota
	OutcomeBlocked
)

// Commit describes one successful step: the interval written and the world
// the new state was computed from.
type Commit struct {
	Agent string
	Pass  int
	Low   float64
	High  float64
	State dynamo.AgentState
	World dynamo.Snapshot
}

type Metric interface {
	Name() string
	Observe(c Commit)
	Value() float64
	Reset()
}

type Observer interface {
	OnCommit(c Commit)
	OnBlocked(agent string, pass int, at float64)
}

type Config struct {
	Lookback float64
}

func DefaultConfig() Config {
	return Config{Lookback: DefaultLookback}
}

type PassStats struct {
	Pass      int
	Committed int
	Blocked   int
}

type Result struct {
	Passes    int
	Commits   int
	Blocked   int
	StalledAt int // pass number of the first pass without commits, 0 if none
	Records   int
	Cursors   map[string]float64
	Metrics   map[string]float64
	Elapsed   time.Duration
}
