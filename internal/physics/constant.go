package physics

// Constant is a flat well of depth Value out to Rcut. With Rcut = 1 it is
// the nearest-neighbor lattice gas.
type Constant struct {
	Value, Rcut float64
}

func NewConstant() *Constant {
	return &Constant{Value: -4, Rcut: 1}
}

func (c *Constant) Name() string      { return "constant" }
func (c *Constant) V(float64) float64 { return c.Value }
func (c *Constant) Cutoff() float64   { return c.Rcut }

func (c *Constant) GetParams() map[string]float64 {
	return map[string]float64{"v": c.Value, "rcut": c.Rcut}
}

func (c *Constant) SetParam(n string, v float64) error {
	switch n {
	case "v":
		c.Value = v
	case "rcut":
		if err := positive(n, v); err != nil {
			return err
		}
		c.Rcut = v
	default:
		return unknown(c.Name(), n)
	}
	return nil
}
