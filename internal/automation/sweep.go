package automation

import (
	"context"
	"fmt"

	"github.com/san-kum/latgas/internal/config"
	"github.com/san-kum/latgas/internal/experiment"
	"github.com/san-kum/latgas/internal/mc"
	"github.com/sirupsen/logrus"
)

// SweepPoint holds the measured observables at one state point.
type SweepPoint struct {
	Size           int     `json:"size"`
	T              float64 `json:"t"`
	Mu             float64 `json:"mu"`
	Energy         float64 `json:"energy"`
	EnergyErr      float64 `json:"energy_err"`
	Population     float64 `json:"population"`
	Density        float64 `json:"density"`
	Magnetization  float64 `json:"magnetization"`
	HeatCapacity   float64 `json:"heat_capacity"`
	Susceptibility float64 `json:"susceptibility"`
	Acceptance     float64 `json:"acceptance"`
}

func pointFrom(size int, t, mu float64, avg mc.Averages, values map[string]float64, acc mc.Acceptance) SweepPoint {
	return SweepPoint{
		Size:           size,
		T:              t,
		Mu:             mu,
		Energy:         avg.Energy,
		EnergyErr:      values["energy_err"],
		Population:     avg.Population,
		Density:        values["density"],
		Magnetization:  values["magnetization"],
		HeatCapacity:   values["heat_capacity"],
		Susceptibility: values["susceptibility"],
		Acceptance:     acc.Rate(),
	}
}

// TemperatureSweep measures the configured system at each temperature.
// Sequential sweeps anneal one system from point to point; parallel
// sweeps give every temperature its own replica seeded from the master
// seed. A zero seed in Config is resolved from the clock before the first
// point and left in Config.
type TemperatureSweep struct {
	Config       *config.Config
	Temperatures []float64
	Parallel     bool
	// Workers bounds concurrent replicas in parallel mode; 0 means no limit.
	Workers int
	// Progress, if set, is called after each finished point.
	Progress func(i int, p SweepPoint)
}

func (s *TemperatureSweep) Run(ctx context.Context, reg *experiment.Registry) ([]SweepPoint, error) {
	temps := s.Temperatures
	if len(temps) == 0 {
		temps = s.Config.Temperatures()
	}
	if len(temps) == 0 {
		return nil, fmt.Errorf("%w: no temperatures", config.ErrInvalid)
	}
	s.Config.ResolveSeed()
	if s.Parallel {
		return s.runParallel(ctx, reg, temps)
	}
	return s.runSequential(ctx, reg, temps)
}

func (s *TemperatureSweep) runSequential(ctx context.Context, reg *experiment.Registry, temps []float64) ([]SweepPoint, error) {
	cfg := s.Config.Clone()
	cfg.Thermo.Temperature = temps[0]
	exp, err := experiment.New(cfg, reg)
	if err != nil {
		return nil, err
	}
	size := exp.GetSystem().Lattice().Lx

	points := make([]SweepPoint, 0, len(temps))
	for i, t := range temps {
		if err := exp.SetTemperature(t); err != nil {
			return points, fmt.Errorf("point %d: %w", i, err)
		}
		res, err := exp.Run(ctx)
		if err != nil {
			return points, fmt.Errorf("point %d (T=%g): %w", i, t, err)
		}
		p := pointFrom(size, t, cfg.Thermo.Mu, res.Averages, res.Metrics, res.Acceptance)
		points = append(points, p)
		logrus.Infof("sweep %d/%d: T=%.4f E=%.4f density=%.4f", i+1, len(temps), t, p.Energy, p.Density)
		if s.Progress != nil {
			s.Progress(i, p)
		}
	}
	return points, nil
}

func (s *TemperatureSweep) runParallel(ctx context.Context, reg *experiment.Registry, temps []float64) ([]SweepPoint, error) {
	cfg := s.Config.Clone()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, err := mc.ParseMode(cfg.Run.Mode)
	if err != nil {
		return nil, err
	}

	ens := mc.NewEnsemble(len(temps), cfg.Run.Seed, func(i int, src mc.Source) (*mc.System, error) {
		c := cfg.Clone()
		c.Thermo.Temperature = temps[i]
		sys, err := reg.Build(c, src)
		if err != nil {
			return nil, err
		}
		for _, m := range reg.DefaultMetrics(sys.Lattice().Sites(), temps[i]) {
			sys.AddMetric(m)
		}
		return sys, nil
	})
	ens.SetLimit(s.Workers)

	logrus.Infof("parallel sweep: %d temperatures, master seed %d", len(temps), cfg.Run.Seed)
	results, err := ens.Run(ctx, cfg.Run.Warmup, cfg.Run.Steps, mode)
	if err != nil {
		return nil, err
	}

	points := make([]SweepPoint, len(results))
	for i, r := range results {
		points[i] = pointFrom(r.System.Lattice().Lx, temps[i], cfg.Thermo.Mu, r.Averages, r.Metrics, r.Acceptance)
		if s.Progress != nil {
			s.Progress(i, points[i])
		}
	}
	return points, nil
}

// SizeSeries is one temperature sweep at a fixed linear size.
type SizeSeries struct {
	Size   int          `json:"size"`
	Points []SweepPoint `json:"points"`
}

// SizeSweep repeats a temperature sweep for each linear lattice size, the
// finite-size scan used to locate the critical temperature.
type SizeSweep struct {
	Sweep TemperatureSweep
	Sizes []int
}

func (s *SizeSweep) Run(ctx context.Context, reg *experiment.Registry) ([]SizeSeries, error) {
	sizes := s.Sizes
	if len(sizes) == 0 {
		sizes = s.Sweep.Config.Sweep.Sizes
	}
	if len(sizes) == 0 {
		return nil, fmt.Errorf("%w: no sizes", config.ErrInvalid)
	}
	s.Sweep.Config.ResolveSeed()

	out := make([]SizeSeries, 0, len(sizes))
	for _, l := range sizes {
		sweep := s.Sweep
		sweep.Config = s.Sweep.Config.Clone()
		sweep.Config.Lattice.Lengths = []int{l}

		logrus.Infof("size %d", l)
		points, err := sweep.Run(ctx, reg)
		if err != nil {
			return out, fmt.Errorf("size %d: %w", l, err)
		}
		out = append(out, SizeSeries{Size: l, Points: points})
	}
	return out, nil
}
