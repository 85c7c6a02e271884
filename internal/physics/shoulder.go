package physics

import "fmt"

// SquareShoulder is Inner for r <= R1 and Outer for R1 < r <= R2.
type SquareShoulder struct {
	Inner, Outer float64
	R1, R2       float64
}

func NewSquareShoulder() *SquareShoulder {
	return &SquareShoulder{Inner: -4, Outer: 1, R1: 1, R2: 3}
}

func (s *SquareShoulder) Name() string    { return "shoulder" }
func (s *SquareShoulder) Cutoff() float64 { return s.R2 }

func (s *SquareShoulder) V(r float64) float64 {
	if r <= s.R1 {
		return s.Inner
	}
	return s.Outer
}

func (s *SquareShoulder) GetParams() map[string]float64 {
	return map[string]float64{"inner": s.Inner, "outer": s.Outer, "r1": s.R1, "r2": s.R2}
}

func (s *SquareShoulder) SetParam(n string, v float64) error {
	switch n {
	case "inner":
		s.Inner = v
	case "outer":
		s.Outer = v
	case "r1":
		if err := positive(n, v); err != nil {
			return err
		}
		s.R1 = v
	case "r2":
		if err := positive(n, v); err != nil {
			return err
		}
		s.R2 = v
	default:
		return unknown(s.Name(), n)
	}
	if s.R1 > s.R2 {
		return fmt.Errorf("%w: r1 %v exceeds r2 %v", ErrInvalidParam, s.R1, s.R2)
	}
	return nil
}
