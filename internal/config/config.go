package config

import (
	"fmt"
	"io"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/qrsim/internal/dynamo"
	"github.com/san-kum/qrsim/internal/physics"
	"github.com/san-kum/qrsim/internal/qrange"
	"github.com/san-kum/qrsim/internal/sim"
)

const (
	DefaultPasses   = 10000
	DefaultG        = physics.DefaultG
	DefaultLookback = sim.DefaultLookback
	DefaultDataDir  = ".qrsim"
)

type Config struct {
	Passes   int           `yaml:"passes"`
	G        float64       `yaml:"gravitational_constant"`
	Lookback float64       `yaml:"lookback"`
	Backend  string        `yaml:"backend"`
	ForceLaw string        `yaml:"force_law"`
	Agents   []AgentConfig `yaml:"agents"`

	DataDir   string `yaml:"data_dir,omitempty"`
	LogLevel  string `yaml:"log_level,omitempty"`
	LogFormat string `yaml:"log_format,omitempty"`
}

// envOverrides holds the settings that may come from QRSIM_* variables.
// Unset variables leave the pointers nil.
type envOverrides struct {
	Passes    *int     `env:"PASSES"`
	G         *float64 `env:"G"`
	Lookback  *float64 `env:"LOOKBACK"`
	Backend   *string  `env:"BACKEND"`
	ForceLaw  *string  `env:"FORCE_LAW"`
	DataDir   *string  `env:"DATA_DIR"`
	LogLevel  *string  `env:"LOG_LEVEL"`
	LogFormat *string  `env:"LOG_FORMAT"`
}

// AgentConfig is one seed body. Agents are listed, not keyed, so the
// scheduler's visiting order is the file order.
type AgentConfig struct {
	ID       string  `yaml:"id"`
	Name     string  `yaml:"name"`
	Time     float64 `yaml:"time"`
	TimeStep float64 `yaml:"time_step"`
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	VX       float64 `yaml:"vx"`
	VY       float64 `yaml:"vy"`
	M        float64 `yaml:"m"`
}

// DefaultConfig is the Earth, Moon and Sun scenario.
func DefaultConfig() *Config {
	return &Config{
		Passes:   DefaultPasses,
		G:        DefaultG,
		Lookback: DefaultLookback,
		Backend:  qrange.KindTree,
		ForceLaw: physics.LawReference.String(),
		Agents:   referenceAgents(),
		DataDir:  DefaultDataDir,
		LogLevel: "info",
	}
}

func referenceAgents() []AgentConfig {
	return []AgentConfig{
		{ID: "Planet", Name: "Earth", TimeStep: 0.02, X: 0, Y: 0, VX: -0.01, VY: 0, M: 1000},
		{ID: "Satellite", Name: "Moon", TimeStep: 0.02, X: 0, Y: 5, VX: 0.01, VY: -0.01, M: 1000},
		{ID: "Sun", Name: "Sun", TimeStep: 0.02, X: 10, Y: 2.5, VX: 0, VY: 0, M: 10000},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// WriteYAML encodes the configuration in the same form Load reads.
func (c *Config) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}

// ApplyEnv overrides fields from QRSIM_* environment variables.
func (c *Config) ApplyEnv() error {
	var o envOverrides
	if err := env.ParseWithOptions(&o, env.Options{Prefix: "QRSIM_"}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	setIf(&c.Passes, o.Passes)
	setIf(&c.G, o.G)
	setIf(&c.Lookback, o.Lookback)
	setIf(&c.Backend, o.Backend)
	setIf(&c.ForceLaw, o.ForceLaw)
	setIf(&c.DataDir, o.DataDir)
	setIf(&c.LogLevel, o.LogLevel)
	setIf(&c.LogFormat, o.LogFormat)
	return nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func (c *Config) Validate() error {
	if c.Passes < 0 {
		return fmt.Errorf("%w: passes must not be negative, got %d", dynamo.ErrParameterBounds, c.Passes)
	}
	if c.G <= 0 {
		return fmt.Errorf("%w: gravitational constant must be positive, got %g", dynamo.ErrParameterBounds, c.G)
	}
	if c.Lookback <= 0 {
		return fmt.Errorf("%w: lookback must be positive, got %g", dynamo.ErrParameterBounds, c.Lookback)
	}
	if _, err := physics.ParseLaw(c.ForceLaw); err != nil {
		return err
	}
	if _, err := qrange.New[dynamo.Snapshot](c.Backend); err != nil {
		return err
	}
	if len(c.Agents) == 0 {
		return fmt.Errorf("%w: no agents configured", dynamo.ErrParameterBounds)
	}
	for _, a := range c.Agents {
		if a.ID == "" {
			return fmt.Errorf("%w: agent without id", dynamo.ErrParameterBounds)
		}
	}
	seed := c.Seed()
	if err := seed.Validate(); err != nil {
		return err
	}
	if step := seed.SmallestStep(); c.Lookback >= step {
		return fmt.Errorf("%w: lookback %g must be below the smallest time step %g", dynamo.ErrParameterBounds, c.Lookback, step)
	}
	return nil
}

// Seed converts the agent list into an ordered seed.
func (c *Config) Seed() dynamo.Seed {
	seed := dynamo.Seed{
		Order:  make([]string, 0, len(c.Agents)),
		States: make(dynamo.Snapshot, len(c.Agents)),
	}
	for _, a := range c.Agents {
		seed.Order = append(seed.Order, a.ID)
		seed.States[a.ID] = dynamo.AgentState{
			Name: a.Name, Time: a.Time, TimeStep: a.TimeStep,
			X: a.X, Y: a.Y, VX: a.VX, VY: a.VY, M: a.M,
		}
	}
	return seed
}

// Law returns the parsed force law.
func (c *Config) Law() physics.Law {
	law, _ := physics.ParseLaw(c.ForceLaw)
	return law
}

// Gravity builds the force law for this configuration.
func (c *Config) Gravity() *physics.Gravity {
	g := physics.NewGravity(c.G, c.Law())
	g.Order = c.Seed().Order
	return g
}

// SetTimeStep overrides every agent's seed step.
func (c *Config) SetTimeStep(dt float64) {
	for i := range c.Agents {
		c.Agents[i].TimeStep = dt
	}
}
