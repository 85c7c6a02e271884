package metrics

type MeanPopulation struct{ series }

func NewMeanPopulation() *MeanPopulation {
	return &MeanPopulation{series{name: "population", pick: populationOf}}
}

func (m *MeanPopulation) Value() float64 { return m.mean() }

// Density is the mean occupied fraction N / sites.
type Density struct {
	series
	sites int
}

func NewDensity(sites int) *Density {
	return &Density{series: series{name: "density", pick: populationOf}, sites: sites}
}

func (d *Density) Value() float64 {
	if d.sites <= 0 {
		return 0
	}
	return d.mean() / float64(d.sites)
}

// Magnetization maps the mean density onto Ising spins: 1 - 2N/sites.
type Magnetization struct {
	series
	sites int
}

func NewMagnetization(sites int) *Magnetization {
	return &Magnetization{series: series{name: "magnetization", pick: populationOf}, sites: sites}
}

func (m *Magnetization) Value() float64 {
	if m.sites <= 0 || len(m.xs) == 0 {
		return 0
	}
	return 1 - 2*m.mean()/float64(m.sites)
}

// Susceptibility is the compressibility estimate Var(N) / T, per site.
type Susceptibility struct {
	series
	sites int
	t     float64
}

func NewSusceptibility(sites int, t float64) *Susceptibility {
	return &Susceptibility{series: series{name: "susceptibility", pick: populationOf}, sites: sites, t: t}
}

func (s *Susceptibility) Value() float64 {
	if s.sites <= 0 || s.t <= 0 {
		return 0
	}
	return s.variance() / s.t / float64(s.sites)
}
