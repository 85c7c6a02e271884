package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/san-kum/latgas/internal/lattice"
	"github.com/san-kum/latgas/internal/mc"
	"github.com/san-kum/latgas/internal/physics"
	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDim         = 2
	DefaultLength      = 30
	DefaultPoints      = 20
	DefaultSteps       = 1000
	DefaultWarmup      = 1000
	DefaultChunk       = 100
	DefaultInteraction = "constant"
	DefaultDataDir     = "data"
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Name      string          `yaml:"name,omitempty"`
	Lattice   LatticeConfig   `yaml:"lattice"`
	Potential PotentialConfig `yaml:"potential"`
	Thermo    ThermoConfig    `yaml:"thermo"`
	Run       RunConfig       `yaml:"run"`
	Sweep     SweepConfig     `yaml:"sweep,omitempty"`
	DataDir   string          `yaml:"data_dir" env:"LATGAS_DATA_DIR"`
}

type LatticeConfig struct {
	Dim      int     `yaml:"dim"`
	Lengths  []int   `yaml:"lengths,flow"`
	Boundary string  `yaml:"boundary"`
	Fill     float64 `yaml:"fill"`
}

type PotentialConfig struct {
	Interaction string             `yaml:"interaction"`
	Params      map[string]float64 `yaml:"params,omitempty"`
	// Rcut of 0 takes the interaction's own cutoff.
	Rcut   float64 `yaml:"rcut,omitempty"`
	Rcore  float64 `yaml:"rcore,omitempty"`
	Points int     `yaml:"points"`
	// Rmax of 0 keeps ceil(rcut).
	Rmax int `yaml:"rmax,omitempty"`
}

type ThermoConfig struct {
	Temperature float64 `yaml:"temperature" env:"LATGAS_TEMPERATURE"`
	Mu          float64 `yaml:"mu" env:"LATGAS_MU"`
}

type RunConfig struct {
	Steps    int    `yaml:"steps" env:"LATGAS_STEPS"`
	Warmup   int    `yaml:"warmup"`
	Mode     string `yaml:"mode" env:"LATGAS_MODE"`
	Backend  string `yaml:"backend" env:"LATGAS_BACKEND"`
	Seed     int64  `yaml:"seed" env:"LATGAS_SEED"`
	Chunk    int    `yaml:"chunk,omitempty"`
	Replicas int    `yaml:"replicas,omitempty"`
}

// SweepConfig lists temperatures explicitly or as an even grid From..To.
type SweepConfig struct {
	Temperatures []float64 `yaml:"temperatures,omitempty,flow"`
	From         float64   `yaml:"from,omitempty"`
	To           float64   `yaml:"to,omitempty"`
	Points       int       `yaml:"points,omitempty"`
	Sizes        []int     `yaml:"sizes,omitempty,flow"`
	Parallel     bool      `yaml:"parallel,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Lattice: LatticeConfig{
			Dim:      DefaultDim,
			Lengths:  []int{DefaultLength},
			Boundary: lattice.Periodic.String(),
		},
		Potential: PotentialConfig{
			Interaction: DefaultInteraction,
			Points:      DefaultPoints,
		},
		Thermo: ThermoConfig{
			Temperature: mc.DefaultTemperature,
			Mu:          mc.DefaultChemicalPotential,
		},
		Run: RunConfig{
			Steps:   DefaultSteps,
			Warmup:  DefaultWarmup,
			Mode:    mc.ModeRandomSweep.String(),
			Backend: "tabulated",
			Chunk:   DefaultChunk,
		},
		DataDir: DefaultDataDir,
	}
}

// Load reads a YAML file on top of base, or on top of the defaults when
// base is nil.
func Load(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if base != nil {
		cfg = base.Clone()
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
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

func (c *Config) Clone() *Config {
	out := *c
	out.Lattice.Lengths = append([]int(nil), c.Lattice.Lengths...)
	out.Sweep.Temperatures = append([]float64(nil), c.Sweep.Temperatures...)
	out.Sweep.Sizes = append([]int(nil), c.Sweep.Sizes...)
	if c.Potential.Params != nil {
		out.Potential.Params = make(map[string]float64, len(c.Potential.Params))
		for k, v := range c.Potential.Params {
			out.Potential.Params[k] = v
		}
	}
	return &out
}

// ResolveSeed replaces a zero seed with one drawn from the clock and
// returns the seed in effect. Storing c afterwards records a seed that
// replays the run.
func (c *Config) ResolveSeed() int64 {
	if c.Run.Seed == 0 {
		c.Run.Seed = time.Now().UnixNano()
	}
	return c.Run.Seed
}

// Sites is the number of lattice sites the configuration describes, or 0
// when the geometry is invalid.
func (c *Config) Sites() int {
	l, err := lattice.New(c.Lattice.Dim, lattice.Periodic, c.Lattice.Lengths...)
	if err != nil {
		return 0
	}
	return l.Sites()
}

// Temperatures returns the sweep grid.
func (c *Config) Temperatures() []float64 {
	s := c.Sweep
	if len(s.Temperatures) > 0 {
		return append([]float64(nil), s.Temperatures...)
	}
	if s.Points < 1 {
		return nil
	}
	if s.Points == 1 {
		return []float64{s.From}
	}
	return floats.Span(make([]float64, s.Points), s.From, s.To)
}

func (c *Config) Validate() error {
	if _, err := lattice.New(c.Lattice.Dim, lattice.Periodic, c.Lattice.Lengths...); err != nil {
		return fmt.Errorf("%w: lattice: %w", ErrInvalid, err)
	}
	if _, err := lattice.ParseBoundary(c.Lattice.Boundary); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.Lattice.Fill < 0 || c.Lattice.Fill > 1 {
		return fmt.Errorf("%w: fill must be in [0, 1], got %v", ErrInvalid, c.Lattice.Fill)
	}
	if _, err := physics.New(c.Potential.Interaction, c.Potential.Params); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.Potential.Points < 2 {
		return fmt.Errorf("%w: potential points must be >= 2, got %d", ErrInvalid, c.Potential.Points)
	}
	if c.Potential.Rcut < 0 || c.Potential.Rmax < 0 {
		return fmt.Errorf("%w: negative cutoff", ErrInvalid)
	}
	if t := c.Thermo.Temperature; math.IsNaN(t) || math.IsInf(t, 0) || t <= 0 {
		return fmt.Errorf("%w: temperature must be positive, got %v", ErrInvalid, t)
	}
	if math.IsNaN(c.Thermo.Mu) || math.IsInf(c.Thermo.Mu, 0) {
		return fmt.Errorf("%w: mu must be finite, got %v", ErrInvalid, c.Thermo.Mu)
	}
	if c.Run.Steps <= 0 {
		return fmt.Errorf("%w: steps must be positive, got %d", ErrInvalid, c.Run.Steps)
	}
	if c.Run.Warmup < 0 {
		return fmt.Errorf("%w: warmup must not be negative, got %d", ErrInvalid, c.Run.Warmup)
	}
	if _, err := mc.ParseMode(c.Run.Mode); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := mc.BackendByName(c.Run.Backend); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	for _, t := range c.Temperatures() {
		if !(t > 0) {
			return fmt.Errorf("%w: sweep temperature must be positive, got %v", ErrInvalid, t)
		}
	}
	for _, l := range c.Sweep.Sizes {
		if l <= 0 {
			return fmt.Errorf("%w: sweep size must be positive, got %d", ErrInvalid, l)
		}
	}
	return nil
}
