package mc

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/san-kum/latgas/internal/lattice"
	"github.com/san-kum/latgas/internal/potential"
)

const (
	DefaultTemperature       = 1.0
	DefaultChemicalPotential = 0.0
)

type System struct {
	lat     *lattice.Lattice
	pot     *potential.Potential
	t, mu   float64
	e       float64
	n       int
	src     Source
	seed    int64
	backend Backend

	acc       Acceptance
	metrics   []Metric
	observers []Observer
}

type Option func(*System)

func WithTemperature(t float64) Option { return func(s *System) { s.t = t } }

func WithChemicalPotential(mu float64) Option { return func(s *System) { s.mu = mu } }

// WithSeed seeds a private math/rand stream.
func WithSeed(seed int64) Option {
	return func(s *System) {
		s.seed = seed
		s.src = rand.New(rand.NewSource(seed))
	}
}

// WithSource injects a caller-owned random stream.
func WithSource(src Source) Option { return func(s *System) { s.src = src } }

func WithBackend(b Backend) Option { return func(s *System) { s.backend = b } }

func New(lat *lattice.Lattice, pot *potential.Potential, opts ...Option) (*System, error) {
	if lat == nil || pot == nil {
		return nil, fmt.Errorf("%w: lattice and potential are required", ErrNilComponent)
	}
	s := &System{
		lat: lat,
		pot: pot,
		t:   DefaultTemperature,
		mu:  DefaultChemicalPotential,
	}
	for _, o := range opts {
		o(s)
	}

	if err := validateTemperature(s.t); err != nil {
		return nil, err
	}
	if err := validateChemicalPotential(s.mu); err != nil {
		return nil, err
	}
	if s.src == nil {
		s.seed = time.Now().UnixNano()
		s.src = rand.New(rand.NewSource(s.seed))
	}
	if s.backend == nil {
		s.backend = NewReferenceBackend()
	}

	s.backend.Prepare(s)
	s.Recompute()
	return s, nil
}

func validateTemperature(t float64) error {
	if math.IsNaN(t) || math.IsInf(t, 0) || t <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidTemperature, t)
	}
	return nil
}

func validateChemicalPotential(mu float64) error {
	if math.IsNaN(mu) || math.IsInf(mu, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidChemicalPotential, mu)
	}
	return nil
}

func (s *System) SetT(t float64) error {
	if err := validateTemperature(t); err != nil {
		return err
	}
	s.t = t
	return nil
}

func (s *System) SetMu(mu float64) error {
	if err := validateChemicalPotential(mu); err != nil {
		return err
	}
	s.mu = mu
	return nil
}

func (s *System) T() float64                      { return s.t }
func (s *System) Mu() float64                     { return s.mu }
func (s *System) Energy() float64                 { return s.e }
func (s *System) Population() int                 { return s.n }
func (s *System) Seed() int64                     { return s.seed }
func (s *System) Backend() Backend                { return s.backend }
func (s *System) Lattice() *lattice.Lattice       { return s.lat }
func (s *System) Potential() *potential.Potential { return s.pot }
func (s *System) Acceptance() Acceptance          { return s.acc }
func (s *System) ResetAcceptance()                { s.acc = Acceptance{} }

func (s *System) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *System) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *System) Metrics() map[string]float64 {
	out := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

// TotalEnergy sums the pair energy over all occupied sites from scratch.
// Each pair is seen from both ends, hence the halving.
func (s *System) TotalEnergy() float64 {
	energy := 0.0
	for x := 0; x < s.lat.Lx; x++ {
		for y := 0; y < s.lat.Ly; y++ {
			for z := 0; z < s.lat.Lz; z++ {
				energy += s.LocalEnergy(x, y, z) / 2
			}
		}
	}
	return energy
}

func (s *System) TotalPopulation() int { return s.lat.Count() }

// Recompute resets the running totals from the current occupancy.
func (s *System) Recompute() {
	s.e = s.TotalEnergy()
	s.n = s.TotalPopulation()
}

// Randomize refills the lattice with probability p and recomputes totals.
func (s *System) Randomize(p float64) error {
	if err := s.lat.Random(p, s.src); err != nil {
		return err
	}
	s.Recompute()
	return nil
}

// Clear empties the lattice.
func (s *System) Clear() {
	s.lat.Fill(false)
	s.e, s.n = 0, 0
}

// RebuildPotential swaps the interaction and refreshes everything derived
// from it.
func (s *System) RebuildPotential(fn potential.Func) error {
	if err := s.pot.Rebuild(fn); err != nil {
		return err
	}
	s.backend.Prepare(s)
	s.Recompute()
	return nil
}

// Refresh re-prepares the backend and recomputes the totals, for use after
// the potential or lattice was changed behind the system's back.
func (s *System) Refresh() {
	s.backend.Prepare(s)
	s.Recompute()
}

// SetBackend swaps the neighbor-energy strategy.
func (s *System) SetBackend(b Backend) error {
	if b == nil {
		return fmt.Errorf("%w: backend", ErrNilComponent)
	}
	s.backend = b
	b.Prepare(s)
	return nil
}

// LocalEnergyIfOccupied is the interaction energy site (x, y, z) would have
// if it were occupied, whatever its current state.
func (s *System) LocalEnergyIfOccupied(x, y, z int) float64 {
	return s.backend.EnergyIfOccupied(s, x, y, z)
}

func (s *System) LocalEnergy(x, y, z int) float64 {
	if !s.lat.Occupied(x, y, z) {
		return 0
	}
	return s.LocalEnergyIfOccupied(x, y, z)
}

// TryFlip performs one Metropolis trial at an in-range site and reports
// whether it was accepted.
func (s *System) TryFlip(x, y, z int) bool {
	dn := 1
	if s.lat.Occupied(x, y, z) {
		dn = -1
	}
	de := float64(dn) * s.LocalEnergyIfOccupied(x, y, z)
	du := de - s.mu*float64(dn)

	s.acc.Attempted++
	if du >= 0 && s.src.Float64() >= math.Exp(-du/s.t) {
		return false
	}

	s.lat.Toggle(x, y, z)
	s.e += de
	s.n += dn
	s.acc.Accepted++
	return true
}

// Sweep tries every site once, x outermost, and returns the accepted count.
func (s *System) Sweep() int {
	accepted := 0
	for x := 0; x < s.lat.Lx; x++ {
		for y := 0; y < s.lat.Ly; y++ {
			for z := 0; z < s.lat.Lz; z++ {
				if s.TryFlip(x, y, z) {
					accepted++
				}
			}
		}
	}
	return accepted
}

// RandomSweep makes Sites() trials at uniformly drawn sites.
func (s *System) RandomSweep() int {
	accepted := 0
	for i := s.lat.Sites(); i > 0; i-- {
		if s.flipRandomSite() {
			accepted++
		}
	}
	return accepted
}

func (s *System) flipRandomSite() bool {
	x := s.src.Intn(s.lat.Lx)
	y := s.src.Intn(s.lat.Ly)
	z := s.src.Intn(s.lat.Lz)
	return s.TryFlip(x, y, z)
}

// Step advances the system by one step of the given mode.
func (s *System) Step(mode Mode) error {
	switch mode {
	case ModeSingleSite:
		s.flipRandomSite()
	case ModeSweep:
		s.Sweep()
	case ModeRandomSweep:
		s.RandomSweep()
	default:
		return fmt.Errorf("%w: %v", ErrInvalidMode, mode)
	}
	return nil
}

// Run refreshes E and N, performs steps steps and returns their means.
func (s *System) Run(steps int, mode Mode) (Averages, error) {
	if steps <= 0 {
		return Averages{}, fmt.Errorf("%w: got %d", ErrInvalidSteps, steps)
	}
	if !mode.Valid() {
		return Averages{}, fmt.Errorf("%w: %v", ErrInvalidMode, mode)
	}

	s.Recompute()
	for _, m := range s.metrics {
		m.Reset()
	}

	var energy, population float64
	for i := 0; i < steps; i++ {
		_ = s.Step(mode)
		energy += s.e
		population += float64(s.n)

		if len(s.metrics) > 0 || len(s.observers) > 0 {
			sample := Sample{Step: i, Energy: s.e, Population: s.n}
			for _, m := range s.metrics {
				m.Observe(sample)
			}
			for _, o := range s.observers {
				o.OnStep(sample)
			}
		}
	}

	return Averages{
		Energy:     energy / float64(steps),
		Population: population / float64(steps),
		Steps:      steps,
	}, nil
}

// CheckConsistency compares the running totals with a recomputation.
func (s *System) CheckConsistency(tol float64) error {
	e, n := s.TotalEnergy(), s.TotalPopulation()
	if n != s.n || math.Abs(e-s.e) > tol {
		return fmt.Errorf("%w: E=%v (recomputed %v), N=%d (recomputed %d)", ErrDrift, s.e, e, s.n, n)
	}
	return nil
}
