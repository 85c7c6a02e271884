package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/latgas/internal/config"
	"github.com/san-kum/latgas/internal/lattice"
	"github.com/san-kum/latgas/internal/mc"
	"github.com/san-kum/latgas/internal/metrics"
	"github.com/san-kum/latgas/internal/physics"
	"github.com/san-kum/latgas/internal/potential"
)

type InteractionFactory func(params map[string]float64) (physics.Interaction, error)

// MetricsFactory builds the metrics measured at temperature t on a lattice
// of sites sites.
type MetricsFactory func(sites int, t float64) []mc.Metric

type Registry struct {
	interactions map[string]InteractionFactory
	backends     map[string]func() mc.Backend
	metrics      MetricsFactory
}

func NewRegistry() *Registry {
	r := &Registry{
		interactions: make(map[string]InteractionFactory),
		backends:     make(map[string]func() mc.Backend),
		metrics:      metrics.Defaults,
	}

	for _, name := range physics.Names() {
		r.interactions[name] = func(params map[string]float64) (physics.Interaction, error) {
			return physics.New(name, params)
		}
	}

	r.backends["reference"] = func() mc.Backend { return mc.NewReferenceBackend() }
	r.backends["tabulated"] = func() mc.Backend { return mc.NewTabulatedBackend() }

	return r
}

// RegisterInteraction adds or replaces a named interaction.
func (r *Registry) RegisterInteraction(name string, fn InteractionFactory) {
	r.interactions[name] = fn
}

func (r *Registry) GetInteraction(name string, params map[string]float64) (physics.Interaction, error) {
	fn, ok := r.interactions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", physics.ErrUnknownInteraction, name)
	}
	return fn(params)
}

func (r *Registry) GetBackend(name string) (mc.Backend, error) {
	fn, ok := r.backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", mc.ErrUnknownBackend, name)
	}
	return fn(), nil
}

func (r *Registry) ListInteractions() []string { return sortedKeys(r.interactions) }

func (r *Registry) ListBackends() []string { return sortedKeys(r.backends) }

// SetDefaultMetrics replaces the metric set every experiment built from r
// measures.
func (r *Registry) SetDefaultMetrics(fn MetricsFactory) {
	if fn == nil {
		fn = metrics.Defaults
	}
	r.metrics = fn
}

func (r *Registry) DefaultMetrics(sites int, t float64) []mc.Metric {
	return r.metrics(sites, t)
}

// Build assembles a System from cfg. A nil src falls back to cfg.Run.Seed,
// and to a time seed when that is zero. The lattice is filled with
// probability cfg.Lattice.Fill.
func (r *Registry) Build(cfg *config.Config, src mc.Source) (*mc.System, error) {
	bc, err := lattice.ParseBoundary(cfg.Lattice.Boundary)
	if err != nil {
		return nil, err
	}
	lat, err := lattice.New(cfg.Lattice.Dim, bc, cfg.Lattice.Lengths...)
	if err != nil {
		return nil, err
	}

	pot, err := r.BuildPotential(cfg.Potential)
	if err != nil {
		return nil, err
	}

	backend, err := r.GetBackend(cfg.Run.Backend)
	if err != nil {
		return nil, err
	}

	opts := []mc.Option{
		mc.WithTemperature(cfg.Thermo.Temperature),
		mc.WithChemicalPotential(cfg.Thermo.Mu),
		mc.WithBackend(backend),
	}
	switch {
	case src != nil:
		opts = append(opts, mc.WithSource(src))
	case cfg.Run.Seed != 0:
		opts = append(opts, mc.WithSeed(cfg.Run.Seed))
	}

	sys, err := mc.New(lat, pot, opts...)
	if err != nil {
		return nil, err
	}
	if cfg.Lattice.Fill > 0 {
		if err := sys.Randomize(cfg.Lattice.Fill); err != nil {
			return nil, err
		}
	}
	return sys, nil
}

// BuildPotential tabulates the configured interaction.
func (r *Registry) BuildPotential(pc config.PotentialConfig) (*potential.Potential, error) {
	in, err := r.GetInteraction(pc.Interaction, pc.Params)
	if err != nil {
		return nil, err
	}
	rcut := pc.Rcut
	if rcut == 0 {
		rcut = in.Cutoff()
	}
	pot, err := potential.New(in.V, rcut, pc.Points, potential.WithCore(pc.Rcore))
	if err != nil {
		return nil, err
	}
	if pc.Rmax > 0 {
		if err := pot.SetRmax(pc.Rmax); err != nil {
			return nil, err
		}
	}
	return pot, nil
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
