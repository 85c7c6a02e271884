package metrics

import (
	"github.com/san-kum/latgas/internal/analysis"
	"github.com/san-kum/latgas/internal/mc"
)

// MeanEnergy is the run average of the total energy E.
type MeanEnergy struct{ series }

func NewMeanEnergy() *MeanEnergy {
	return &MeanEnergy{series{name: "energy", pick: energyOf}}
}

func (m *MeanEnergy) Value() float64 { return m.mean() }

// HeatCapacity is the fluctuation estimate Var(E) / T^2, per site.
type HeatCapacity struct {
	series
	sites int
	t     float64
}

func NewHeatCapacity(sites int, t float64) *HeatCapacity {
	return &HeatCapacity{series: series{name: "heat_capacity", pick: energyOf}, sites: sites, t: t}
}

func (h *HeatCapacity) Value() float64 {
	if h.sites <= 0 || h.t <= 0 {
		return 0
	}
	return h.variance() / (h.t * h.t) / float64(h.sites)
}

// EnergyError is the standard error of the mean energy, corrected for the
// integrated autocorrelation time of the series.
type EnergyError struct{ series }

func NewEnergyError() *EnergyError {
	return &EnergyError{series{name: "energy_err", pick: energyOf}}
}

func (m *EnergyError) Value() float64 { return analysis.Summarize(m.xs).StdErr }

// Defaults returns the standard observables for a lattice of the given
// size at temperature t.
func Defaults(sites int, t float64) []mc.Metric {
	return []mc.Metric{
		NewMeanEnergy(),
		NewMeanPopulation(),
		NewDensity(sites),
		NewMagnetization(sites),
		NewHeatCapacity(sites, t),
		NewSusceptibility(sites, t),
		NewEnergyError(),
	}
}
