package metrics

import (
	"github.com/san-kum/latgas/internal/mc"
	"gonum.org/v1/gonum/stat"
)

// series accumulates one float per observed sample.
type series struct {
	name string
	xs   []float64
	pick func(mc.Sample) float64
}

func (s *series) Name() string { return s.name }

func (s *series) Observe(smp mc.Sample) { s.xs = append(s.xs, s.pick(smp)) }

func (s *series) Reset() { s.xs = s.xs[:0] }

func (s *series) mean() float64 {
	if len(s.xs) == 0 {
		return 0
	}
	return stat.Mean(s.xs, nil)
}

func (s *series) variance() float64 {
	if len(s.xs) < 2 {
		return 0
	}
	return stat.PopVariance(s.xs, nil)
}

func energyOf(s mc.Sample) float64     { return s.Energy }
func populationOf(s mc.Sample) float64 { return float64(s.Population) }

// Recorder keeps every sample it sees in order. Steps are renumbered
// consecutively so that samples from several runs form one series.
type Recorder struct {
	samples []mc.Sample
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) OnStep(s mc.Sample) {
	s.Step = len(r.samples)
	r.samples = append(r.samples, s)
}

// Replay feeds every recorded sample to m after resetting it.
func (r *Recorder) Replay(m mc.Metric) {
	m.Reset()
	for _, s := range r.samples {
		m.Observe(s)
	}
}

func (r *Recorder) Reset() { r.samples = r.samples[:0] }

func (r *Recorder) Samples() []mc.Sample {
	out := make([]mc.Sample, len(r.samples))
	copy(out, r.samples)
	return out
}

func (r *Recorder) Energies() []float64 {
	out := make([]float64, len(r.samples))
	for i, s := range r.samples {
		out[i] = s.Energy
	}
	return out
}

func (r *Recorder) Populations() []float64 {
	out := make([]float64, len(r.samples))
	for i, s := range r.samples {
		out[i] = float64(s.Population)
	}
	return out
}
