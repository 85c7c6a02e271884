package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/latgas/internal/config"
	"github.com/san-kum/latgas/internal/lattice"
	"github.com/san-kum/latgas/internal/mc"
	"github.com/san-kum/latgas/internal/metrics"
	"github.com/sirupsen/logrus"
)

type Result struct {
	Config     *config.Config
	Seed       int64
	Averages   mc.Averages
	Samples    []mc.Sample
	Metrics    map[string]float64
	Acceptance mc.Acceptance
	Elapsed    time.Duration
	Lattice    *lattice.Lattice
}

// Experiment drives one System through warmup and measurement, in chunks
// of cfg.Run.Chunk steps so that a cancelled context stops it between
// chunks.
type Experiment struct {
	cfg      *config.Config
	reg      *Registry
	sys      *mc.System
	mode     mc.Mode
	rec      *metrics.Recorder
	observed []mc.Metric
}

func New(cfg *config.Config, reg *Registry) (*Experiment, error) {
	return NewWithSource(cfg, reg, nil)
}

// NewWithSource builds the experiment around a caller-owned random stream.
func NewWithSource(cfg *config.Config, reg *Registry, src mc.Source) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, err := mc.ParseMode(cfg.Run.Mode)
	if err != nil {
		return nil, err
	}
	sys, err := reg.Build(cfg, src)
	if err != nil {
		return nil, fmt.Errorf("build system: %w", err)
	}

	cfg = cfg.Clone()
	e := &Experiment{
		cfg:      cfg,
		reg:      reg,
		sys:      sys,
		mode:     mode,
		rec:      metrics.NewRecorder(),
		observed: reg.DefaultMetrics(sys.Lattice().Sites(), cfg.Thermo.Temperature),
	}
	sys.AddObserver(e.rec)
	return e, nil
}

// GetSystem returns the underlying system for adding observers.
func (e *Experiment) GetSystem() *mc.System { return e.sys }

func (e *Experiment) Mode() mc.Mode { return e.mode }

// SetTemperature moves the system to t keeping its configuration, so
// successive runs anneal.
func (e *Experiment) SetTemperature(t float64) error {
	if err := e.sys.SetT(t); err != nil {
		return err
	}
	e.cfg.Thermo.Temperature = t
	e.observed = e.reg.DefaultMetrics(e.sys.Lattice().Sites(), t)
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	chunk := e.cfg.Run.Chunk
	if chunk <= 0 {
		chunk = config.DefaultChunk
	}

	logrus.Debugf("warmup: %d %s steps at T=%.4g mu=%.4g", e.cfg.Run.Warmup, e.mode, e.sys.T(), e.sys.Mu())
	if _, err := e.runChunks(ctx, e.cfg.Run.Warmup, chunk); err != nil {
		return nil, fmt.Errorf("warmup: %w", err)
	}

	e.rec.Reset()
	e.sys.ResetAcceptance()

	avg, err := e.runChunks(ctx, e.cfg.Run.Steps, chunk)
	if err != nil {
		return nil, err
	}
	if err := e.sys.CheckConsistency(1e-6); err != nil {
		logrus.Warnf("%v", err)
	}

	values := make(map[string]float64, len(e.observed))
	for _, m := range e.observed {
		e.rec.Replay(m)
		values[m.Name()] = m.Value()
	}

	res := &Result{
		Config:     e.cfg.Clone(),
		Seed:       e.sys.Seed(),
		Averages:   avg,
		Samples:    e.rec.Samples(),
		Metrics:    values,
		Acceptance: e.sys.Acceptance(),
		Elapsed:    time.Since(start),
		Lattice:    e.sys.Lattice().Clone(),
	}
	logrus.Infof("run done: %d steps in %v, <E>=%.4f <N>=%.2f acc=%.3f",
		avg.Steps, res.Elapsed.Round(time.Millisecond), avg.Energy, avg.Population, res.Acceptance.Rate())
	return res, nil
}

// runChunks runs steps steps and combines the chunk means.
func (e *Experiment) runChunks(ctx context.Context, steps, chunk int) (mc.Averages, error) {
	var total mc.Averages
	var energy, population float64

	for done := 0; done < steps; {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n := min(chunk, steps-done)
		avg, err := e.sys.Run(n, e.mode)
		if err != nil {
			return total, err
		}
		energy += avg.Energy * float64(n)
		population += avg.Population * float64(n)
		done += n
		logrus.Debugf("step %d/%d: E=%.4f N=%d", done, steps, e.sys.Energy(), e.sys.Population())
	}

	if steps > 0 {
		total = mc.Averages{
			Energy:     energy / float64(steps),
			Population: population / float64(steps),
			Steps:      steps,
		}
	}
	return total, nil
}
