package mc

import (
	"math"

	"github.com/san-kum/latgas/internal/lattice"
)

type offset struct {
	i, j, k int
	v       float64
}

// TabulatedBackend caches the in-cutoff offsets and their potential values.
// Offsets whose value is zero are kept so the summation order matches
// ReferenceBackend term for term.
type TabulatedBackend struct {
	offsets []offset
}

func NewTabulatedBackend() *TabulatedBackend { return &TabulatedBackend{} }

func (b *TabulatedBackend) Name() string { return "tabulated" }

func (b *TabulatedBackend) Prepare(s *System) {
	imax, jmax, kmax := boxExtent(s)
	rmax2 := s.pot.Rmax2()
	b.offsets = b.offsets[:0]

	for i := -imax; i <= imax; i++ {
		for j := -jmax; j <= jmax; j++ {
			for k := -kmax; k <= kmax; k++ {
				if i == 0 && j == 0 && k == 0 {
					continue
				}
				d2 := i*i + j*j + k*k
				if d2 > rmax2 {
					continue
				}
				b.offsets = append(b.offsets, offset{i, j, k, s.pot.ValueAt(math.Sqrt(float64(d2)))})
			}
		}
	}
}

// Offsets reports how many neighbor offsets fall inside the cutoff.
func (b *TabulatedBackend) Offsets() int { return len(b.offsets) }

func (b *TabulatedBackend) EnergyIfOccupied(s *System, x, y, z int) float64 {
	l := s.lat
	energy := 0.0

	if l.BC == lattice.Periodic {
		for _, o := range b.offsets {
			if l.OccupiedAt(l.Index(wrap(x+o.i, l.Lx), wrap(y+o.j, l.Ly), wrap(z+o.k, l.Lz))) {
				energy += o.v
			}
		}
		return energy
	}

	for _, o := range b.offsets {
		nx, ny, nz := x+o.i, y+o.j, z+o.k
		if !l.InBounds(nx, ny, nz) {
			continue
		}
		if l.OccupiedAt(l.Index(nx, ny, nz)) {
			energy += o.v
		}
	}
	return energy
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
