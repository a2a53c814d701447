package config

import "sort"

var Presets = map[string]func() *Config{
	"reference": DefaultConfig,
	"binary": func() *Config {
		cfg := DefaultConfig()
		cfg.Passes = 2000
		cfg.Agents = []AgentConfig{
			{ID: "A", Name: "Alpha", TimeStep: 0.02, X: -1, Y: 0, VY: -0.05, M: 5000},
			{ID: "B", Name: "Beta", TimeStep: 0.02, X: 1, Y: 0, VY: 0.05, M: 5000},
		}
		return cfg
	},
	"starved": func() *Config {
		cfg := DefaultConfig()
		cfg.Passes = 50
		cfg.Agents = []AgentConfig{
			{ID: "Early", Name: "Early", Time: 0, TimeStep: 0.02, X: 0, Y: 0, M: 1000},
			{ID: "Late", Name: "Late", Time: 10, TimeStep: 0.02, X: 5, Y: 0, M: 1000},
		}
		return cfg
	},
	"ring": func() *Config {
		cfg := DefaultConfig()
		cfg.Passes = 1000
		cfg.ForceLaw = "inverse_square"
		cfg.G = 1.0
		cfg.Agents = []AgentConfig{
			{ID: "Core", Name: "Core", TimeStep: 0.01, M: 100},
			{ID: "North", Name: "North", TimeStep: 0.01, Y: 5, VX: -4, M: 1},
			{ID: "East", Name: "East", TimeStep: 0.01, X: 5, VY: 4, M: 1},
			{ID: "South", Name: "South", TimeStep: 0.01, Y: -5, VX: 4, M: 1},
			{ID: "West", Name: "West", TimeStep: 0.01, X: -5, VY: -4, M: 1},
		}
		return cfg
	},
}

func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
