package physics

import "math"

// Yukawa is a screened Coulomb repulsion A exp(-kappa r) / r.
type Yukawa struct {
	Amplitude, Kappa, Rcut float64
}

func NewYukawa() *Yukawa {
	return &Yukawa{Amplitude: 1, Kappa: 1, Rcut: 3}
}

func (y *Yukawa) Name() string    { return "yukawa" }
func (y *Yukawa) Cutoff() float64 { return y.Rcut }

func (y *Yukawa) V(r float64) float64 {
	if r > y.Rcut {
		return 0
	}
	if r <= 0 {
		return math.Inf(1)
	}
	return y.Amplitude * math.Exp(-y.Kappa*r) / r
}

func (y *Yukawa) GetParams() map[string]float64 {
	return map[string]float64{"amplitude": y.Amplitude, "kappa": y.Kappa, "rcut": y.Rcut}
}

func (y *Yukawa) SetParam(n string, v float64) error {
	switch n {
	case "amplitude":
		y.Amplitude = v
	case "kappa":
		if v < 0 {
			return positive(n, v)
		}
		y.Kappa = v
	case "rcut":
		if err := positive(n, v); err != nil {
			return err
		}
		y.Rcut = v
	default:
		return unknown(y.Name(), n)
	}
	return nil
}
