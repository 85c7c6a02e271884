package automation

import (
	"context"

	"github.com/san-kum/latgas/internal/config"
	"github.com/san-kum/latgas/internal/experiment"
	"github.com/san-kum/latgas/internal/mc"
	"gonum.org/v1/gonum/stat"
)

// ReplicaStats aggregates independent replicas at one state point.
type ReplicaStats struct {
	Replicas      []SweepPoint `json:"replicas"`
	Energy        float64      `json:"energy"`
	EnergyErr     float64      `json:"energy_err"`
	Population    float64      `json:"population"`
	PopulationErr float64      `json:"population_err"`
}

// RunReplicas runs n independent copies of cfg concurrently, each on its
// own stream derived from cfg.Run.Seed, and reports the spread between
// them. A zero seed is resolved from the clock and written back to cfg.
func RunReplicas(ctx context.Context, cfg *config.Config, reg *experiment.Registry, n, workers int) (*ReplicaStats, error) {
	cfg.ResolveSeed()
	cfg = cfg.Clone()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, err := mc.ParseMode(cfg.Run.Mode)
	if err != nil {
		return nil, err
	}

	ens := mc.NewEnsemble(n, cfg.Run.Seed, func(_ int, src mc.Source) (*mc.System, error) {
		sys, err := reg.Build(cfg, src)
		if err != nil {
			return nil, err
		}
		for _, m := range reg.DefaultMetrics(sys.Lattice().Sites(), cfg.Thermo.Temperature) {
			sys.AddMetric(m)
		}
		return sys, nil
	})
	ens.SetLimit(workers)

	results, err := ens.Run(ctx, cfg.Run.Warmup, cfg.Run.Steps, mode)
	if err != nil {
		return nil, err
	}

	stats := &ReplicaStats{Replicas: make([]SweepPoint, len(results))}
	energies := make([]float64, len(results))
	pops := make([]float64, len(results))
	for i, r := range results {
		stats.Replicas[i] = pointFrom(r.System.Lattice().Lx, cfg.Thermo.Temperature, cfg.Thermo.Mu, r.Averages, r.Metrics, r.Acceptance)
		energies[i] = r.Averages.Energy
		pops[i] = r.Averages.Population
	}
	stats.Energy, stats.EnergyErr = meanStdErr(energies)
	stats.Population, stats.PopulationErr = meanStdErr(pops)
	return stats, nil
}

func meanStdErr(xs []float64) (mean, stderr float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	if len(xs) == 1 {
		return xs[0], 0
	}
	mean, std := stat.MeanStdDev(xs, nil)
	return mean, stat.StdErr(std, float64(len(xs)))
}
