package automation

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/san-kum/latgas/internal/config"
	"github.com/san-kum/latgas/internal/experiment"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var ErrUnknownKind = errors.New("automation: unknown stage kind")

const (
	KindRun      = "run"
	KindSweep    = "sweep"
	KindSizes    = "sizes"
	KindReplicas = "replicas"
)

// Plan is a scripted sequence of runs and sweeps loaded from YAML.
type Plan struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Stages      []Stage `yaml:"stages"`
}

// Stage starts from a preset and overrides the fields it sets.
type Stage struct {
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"`
	Preset string `yaml:"preset"`

	Temperature  *float64  `yaml:"temperature"`
	Mu           *float64  `yaml:"mu"`
	Lengths      []int     `yaml:"lengths,flow"`
	Steps        int       `yaml:"steps"`
	Warmup       *int      `yaml:"warmup"`
	Mode         string    `yaml:"mode"`
	Backend      string    `yaml:"backend"`
	Seed         int64     `yaml:"seed"`
	Temperatures []float64 `yaml:"temperatures,flow"`
	Sizes        []int     `yaml:"sizes,flow"`
	Parallel     bool      `yaml:"parallel"`
	Replicas     int       `yaml:"replicas"`
	SaveAs       string    `yaml:"save_as"`
}

// StageResult carries whichever output the stage kind produces.
type StageResult struct {
	Stage    Stage
	Config   *config.Config
	Run      *experiment.Result
	Points   []SweepPoint
	Sizes    []SizeSeries
	Replicas *ReplicaStats
}

func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parse plan %s: %w", path, err)
	}
	return &plan, nil
}

// Config resolves the stage against its preset.
func (s Stage) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		if cfg = config.GetPreset(s.Preset); cfg == nil {
			return nil, fmt.Errorf("%w: %q", config.ErrUnknownPreset, s.Preset)
		}
	}

	if s.Temperature != nil {
		cfg.Thermo.Temperature = *s.Temperature
	}
	if s.Mu != nil {
		cfg.Thermo.Mu = *s.Mu
	}
	if len(s.Lengths) > 0 {
		cfg.Lattice.Lengths = s.Lengths
	}
	if s.Steps > 0 {
		cfg.Run.Steps = s.Steps
	}
	if s.Warmup != nil {
		cfg.Run.Warmup = *s.Warmup
	}
	if s.Mode != "" {
		cfg.Run.Mode = s.Mode
	}
	if s.Backend != "" {
		cfg.Run.Backend = s.Backend
	}
	if s.Seed != 0 {
		cfg.Run.Seed = s.Seed
	}
	if len(s.Temperatures) > 0 {
		cfg.Sweep.Temperatures = s.Temperatures
	}
	if len(s.Sizes) > 0 {
		cfg.Sweep.Sizes = s.Sizes
	}
	if s.Replicas > 0 {
		cfg.Run.Replicas = s.Replicas
	}
	cfg.Sweep.Parallel = cfg.Sweep.Parallel || s.Parallel

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RunPlan executes every stage in order. save, if not nil, is called after
// each stage; an error from it stops the plan.
func RunPlan(ctx context.Context, plan *Plan, reg *experiment.Registry, save func(StageResult) error) ([]StageResult, error) {
	results := make([]StageResult, 0, len(plan.Stages))

	for i, st := range plan.Stages {
		logrus.Infof("stage %d/%d: %s (%s)", i+1, len(plan.Stages), st.Name, st.Kind)

		cfg, err := st.Config()
		if err != nil {
			return results, fmt.Errorf("stage %d: %w", i+1, err)
		}
		res := StageResult{Stage: st, Config: cfg}

		switch st.Kind {
		case KindRun, "":
			exp, err := experiment.New(cfg, reg)
			if err != nil {
				return results, fmt.Errorf("stage %d: %w", i+1, err)
			}
			if res.Run, err = exp.Run(ctx); err != nil {
				return results, fmt.Errorf("stage %d run: %w", i+1, err)
			}
		case KindSweep:
			sweep := &TemperatureSweep{Config: cfg, Parallel: cfg.Sweep.Parallel}
			if res.Points, err = sweep.Run(ctx, reg); err != nil {
				return results, fmt.Errorf("stage %d sweep: %w", i+1, err)
			}
		case KindSizes:
			sizes := &SizeSweep{Sweep: TemperatureSweep{Config: cfg, Parallel: cfg.Sweep.Parallel}}
			if res.Sizes, err = sizes.Run(ctx, reg); err != nil {
				return results, fmt.Errorf("stage %d sizes: %w", i+1, err)
			}
		case KindReplicas:
			n := cfg.Run.Replicas
			if n <= 0 {
				n = 4
			}
			if res.Replicas, err = RunReplicas(ctx, cfg, reg, n, 0); err != nil {
				return results, fmt.Errorf("stage %d replicas: %w", i+1, err)
			}
		default:
			return results, fmt.Errorf("stage %d: %w: %q", i+1, ErrUnknownKind, st.Kind)
		}

		results = append(results, res)
		if save != nil {
			if err := save(res); err != nil {
				return results, fmt.Errorf("stage %d save: %w", i+1, err)
			}
		}
	}

	return results, nil
}
