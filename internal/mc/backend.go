package mc

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Backend computes "energy if occupied" for a site. Implementations must
// add the same terms in the same order as ReferenceBackend so that
// acceptance decisions, and therefore random-draw consumption, match.
type Backend interface {
	Name() string
	// Prepare is called whenever the system's potential or geometry changes.
	Prepare(s *System)
	EnergyIfOccupied(s *System, x, y, z int) float64
}

var backends = map[string]func() Backend{
	"reference": func() Backend { return NewReferenceBackend() },
	"tabulated": func() Backend { return NewTabulatedBackend() },
}

func BackendByName(name string) (Backend, error) {
	fn, ok := backends[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownBackend, name, BackendNames())
	}
	return fn(), nil
}

func BackendNames() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// boxExtent returns the neighbor box half-widths for the active dimensions.
func boxExtent(s *System) (imax, jmax, kmax int) {
	rmax := s.pot.Rmax()
	imax = rmax
	if s.lat.Dim > 1 {
		jmax = rmax
	}
	if s.lat.Dim > 2 {
		kmax = rmax
	}
	return
}

type ReferenceBackend struct{}

func NewReferenceBackend() *ReferenceBackend { return &ReferenceBackend{} }

func (b *ReferenceBackend) Name() string { return "reference" }

func (b *ReferenceBackend) Prepare(*System) {}

func (b *ReferenceBackend) EnergyIfOccupied(s *System, x, y, z int) float64 {
	imax, jmax, kmax := boxExtent(s)
	rmax2 := s.pot.Rmax2()
	energy := 0.0

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
				if !s.lat.StatusAt(x+i, y+j, z+k) {
					continue
				}
				energy += s.pot.ValueAt(math.Sqrt(float64(d2)))
			}
		}
	}
	return energy
}
