package config

import "sort"

// Presets reproduce the reference scenarios. With du = dE - mu*dN the
// nearest-neighbor model with V = -4 on the square lattice sits at zero
// field for mu = -8.
var Presets = map[string]*Config{
	"ising2d": {
		Name:      "ising2d",
		Lattice:   LatticeConfig{Dim: 2, Lengths: []int{100}, Boundary: "periodic"},
		Potential: PotentialConfig{Interaction: "constant", Params: map[string]float64{"v": -4, "rcut": 1}, Points: 5},
		Thermo:    ThermoConfig{Temperature: 2.5, Mu: -8},
		Run:       RunConfig{Steps: 1000, Warmup: 1000, Mode: "random-sweep", Backend: "tabulated", Chunk: 100},
		Sweep:     SweepConfig{From: 2.5, To: 2.0, Points: 26, Sizes: []int{100, 50, 20, 10}},
	},
	"mixed": {
		Name:      "mixed",
		Lattice:   LatticeConfig{Dim: 2, Lengths: []int{30}, Boundary: "periodic", Fill: 1},
		Potential: PotentialConfig{Interaction: "shoulder", Params: map[string]float64{"inner": -4, "outer": 1, "r1": 1, "r2": 3}, Points: 20},
		Thermo:    ThermoConfig{Temperature: 20, Mu: 8},
		Run:       RunConfig{Steps: 3000, Mode: "random-sweep", Backend: "tabulated", Chunk: 100},
	},
	"overhead": {
		Name:      "overhead",
		Lattice:   LatticeConfig{Dim: 2, Lengths: []int{30}, Boundary: "periodic"},
		Potential: PotentialConfig{Interaction: "constant", Params: map[string]float64{"v": -4, "rcut": 1}, Points: 5},
		Thermo:    ThermoConfig{Temperature: 20, Mu: 8},
		Run:       RunConfig{Steps: 200, Mode: "random-sweep", Backend: "reference", Chunk: 50},
	},
	"chain": {
		Name:      "chain",
		Lattice:   LatticeConfig{Dim: 1, Lengths: []int{200}, Boundary: "periodic"},
		Potential: PotentialConfig{Interaction: "constant", Params: map[string]float64{"v": -4, "rcut": 1}, Points: 5},
		Thermo:    ThermoConfig{Temperature: 1, Mu: -4},
		Run:       RunConfig{Steps: 2000, Warmup: 500, Mode: "sweep", Backend: "tabulated", Chunk: 100},
		Sweep:     SweepConfig{From: 4, To: 0.5, Points: 15},
	},
	"cubic": {
		Name:      "cubic",
		Lattice:   LatticeConfig{Dim: 3, Lengths: []int{12}, Boundary: "periodic"},
		Potential: PotentialConfig{Interaction: "constant", Params: map[string]float64{"v": -4, "rcut": 1}, Points: 5},
		Thermo:    ThermoConfig{Temperature: 4.5, Mu: -12},
		Run:       RunConfig{Steps: 500, Warmup: 500, Mode: "sweep", Backend: "tabulated", Chunk: 50},
		Sweep:     SweepConfig{From: 5.0, To: 4.0, Points: 11},
	},
	"lennard-jones": {
		Name:      "lennard-jones",
		Lattice:   LatticeConfig{Dim: 2, Lengths: []int{40}, Boundary: "periodic", Fill: 0.3},
		Potential: PotentialConfig{Interaction: "lennard-jones", Rcore: 0.8, Points: 200},
		Thermo:    ThermoConfig{Temperature: 0.8, Mu: -2},
		Run:       RunConfig{Steps: 1000, Warmup: 500, Mode: "sweep", Backend: "tabulated", Chunk: 100},
	},
}

// GetPreset returns a copy of the named preset with defaults filled in, or
// nil if there is no such preset.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := p.Clone()
	def := DefaultConfig()
	if cfg.DataDir == "" {
		cfg.DataDir = def.DataDir
	}
	if cfg.Run.Chunk == 0 {
		cfg.Run.Chunk = def.Run.Chunk
	}
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
