package physics

import "math"

// LennardJones is the 12-6 potential shifted so that V(Rcut) = 0.
type LennardJones struct {
	Epsilon, Sigma, Rcut float64
}

func NewLennardJones() *LennardJones {
	return &LennardJones{Epsilon: 1, Sigma: 1, Rcut: 2.5}
}

func (l *LennardJones) Name() string    { return "lennard-jones" }
func (l *LennardJones) Cutoff() float64 { return l.Rcut }

func (l *LennardJones) bare(r float64) float64 {
	sr6 := math.Pow(l.Sigma/r, 6)
	return 4 * l.Epsilon * (sr6*sr6 - sr6)
}

func (l *LennardJones) V(r float64) float64 {
	if r > l.Rcut {
		return 0
	}
	if r <= 0 {
		return math.Inf(1)
	}
	return l.bare(r) - l.bare(l.Rcut)
}

func (l *LennardJones) GetParams() map[string]float64 {
	return map[string]float64{"epsilon": l.Epsilon, "sigma": l.Sigma, "rcut": l.Rcut}
}

func (l *LennardJones) SetParam(n string, v float64) error {
	switch n {
	case "epsilon":
		l.Epsilon = v
	case "sigma", "rcut":
		if err := positive(n, v); err != nil {
			return err
		}
		if n == "sigma" {
			l.Sigma = v
		} else {
			l.Rcut = v
		}
	default:
		return unknown(l.Name(), n)
	}
	return nil
}
