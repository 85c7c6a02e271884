package mc

import (
	"math"
	"math/rand"
	"testing"

	"github.com/san-kum/latgas/internal/lattice"
	"github.com/san-kum/latgas/internal/potential"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedSource returns the same uniform value forever and counts draws.
type fixedSource struct {
	u      float64
	floats int
	ints   int
}

func (f *fixedSource) Float64() float64 { f.floats++; return f.u }
func (f *fixedSource) Intn(n int) int   { f.ints++; return 0 }

func constantV(v float64) potential.Func { return func(float64) float64 { return v } }

func mixedV(r float64) float64 {
	if r <= 1.0 {
		return -4
	}
	return 1
}

func newSystem(t *testing.T, dim int, bc lattice.Boundary, l int, fn potential.Func, rcut float64, npoints int, opts ...Option) *System {
	t.Helper()
	lat, err := lattice.New(dim, bc, l)
	require.NoError(t, err)
	pot, err := potential.New(fn, rcut, npoints)
	require.NoError(t, err)
	sys, err := New(lat, pot, opts...)
	require.NoError(t, err)
	return sys
}

func TestNew_Errors(t *testing.T) {
	lat, _ := lattice.New(2, lattice.Periodic, 4)
	pot, _ := potential.New(constantV(-4), 1, 5)

	_, err := New(nil, pot)
	assert.ErrorIs(t, err, ErrNilComponent)
	_, err = New(lat, nil)
	assert.ErrorIs(t, err, ErrNilComponent)

	for _, temp := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err = New(lat, pot, WithTemperature(temp))
		assert.ErrorIs(t, err, ErrInvalidTemperature, "T=%v", temp)
	}
	_, err = New(lat, pot, WithChemicalPotential(math.Inf(-1)))
	assert.ErrorIs(t, err, ErrInvalidChemicalPotential)
}

func TestDefaults(t *testing.T) {
	sys := newSystem(t, 1, lattice.Periodic, 4, constantV(-1), 1, 2)
	assert.Equal(t, DefaultTemperature, sys.T())
	assert.Equal(t, DefaultChemicalPotential, sys.Mu())
	assert.Equal(t, "reference", sys.Backend().Name())
	assert.Equal(t, 0.0, sys.Energy())
	assert.Equal(t, 0, sys.Population())
}

func TestSetters(t *testing.T) {
	sys := newSystem(t, 1, lattice.Periodic, 4, constantV(-1), 1, 2)

	require.NoError(t, sys.SetT(2.5))
	require.NoError(t, sys.SetMu(-3))
	assert.Equal(t, 2.5, sys.T())
	assert.Equal(t, -3.0, sys.Mu())

	assert.ErrorIs(t, sys.SetT(0), ErrInvalidTemperature)
	assert.ErrorIs(t, sys.SetMu(math.NaN()), ErrInvalidChemicalPotential)
	assert.Equal(t, 2.5, sys.T(), "failed setter leaves T unchanged")
}

func TestLocalEnergy_NeighborCounts(t *testing.T) {
	tests := []struct {
		name string
		dim  int
		rcut float64
		want float64
	}{
		{"chain nearest", 1, 1, 2},
		{"square nearest", 2, 1, 4},
		{"cubic nearest", 3, 1, 6},
		{"square with diagonals", 2, 1.5, 8},
		{"cubic rcut sqrt2", 3, math.Sqrt2, 18},
		{"square rmax 2", 2, 2, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := newSystem(t, tt.dim, lattice.Periodic, 7, constantV(1), tt.rcut, 10)
			sys.Lattice().Fill(true)
			assert.Equal(t, tt.want, sys.LocalEnergyIfOccupied(3, 3%sys.Lattice().Ly, 3%sys.Lattice().Lz))
		})
	}
}

func TestLocalEnergy_FreeBoundaryCorner(t *testing.T) {
	sys := newSystem(t, 2, lattice.Free, 5, constantV(-4), 1, 5)
	sys.Lattice().Fill(true)

	assert.Equal(t, -8.0, sys.LocalEnergyIfOccupied(0, 0, 0))
	assert.Equal(t, -12.0, sys.LocalEnergyIfOccupied(0, 2, 0))
	assert.Equal(t, -16.0, sys.LocalEnergyIfOccupied(2, 2, 0))
}

func TestLocalEnergy_IndependentOfOwnOccupancy(t *testing.T) {
	sys := newSystem(t, 2, lattice.Periodic, 5, constantV(-4), 1, 5)
	lat := sys.Lattice()
	lat.Set(1, 2, 0, true)
	lat.Set(3, 2, 0, true)

	assert.Equal(t, -8.0, sys.LocalEnergyIfOccupied(2, 2, 0))
	assert.Equal(t, 0.0, sys.LocalEnergy(2, 2, 0))

	lat.Set(2, 2, 0, true)
	assert.Equal(t, -8.0, sys.LocalEnergyIfOccupied(2, 2, 0))
	assert.Equal(t, -8.0, sys.LocalEnergy(2, 2, 0))
}

func TestTotalEnergy_PairCountedOnce(t *testing.T) {
	sys := newSystem(t, 2, lattice.Free, 5, constantV(-4), 1, 5)
	sys.Lattice().Set(1, 1, 0, true)
	sys.Lattice().Set(2, 1, 0, true)
	sys.Recompute()

	assert.Equal(t, -4.0, sys.LocalEnergyIfOccupied(1, 1, 0))
	assert.Equal(t, -4.0, sys.LocalEnergyIfOccupied(2, 1, 0))
	assert.Equal(t, -4.0, sys.TotalEnergy())
	assert.Equal(t, -4.0, sys.Energy())
	assert.Equal(t, 2, sys.Population())
}

func TestTotalEnergy_FullSquareLattice(t *testing.T) {
	sys := newSystem(t, 2, lattice.Periodic, 6, constantV(-4), 1, 5)
	sys.Lattice().Fill(true)
	// 2 bonds per site on a periodic square lattice.
	assert.Equal(t, -4.0*2*36, sys.TotalEnergy())
}

func TestRecomputeIsIdempotent(t *testing.T) {
	sys := newSystem(t, 3, lattice.Periodic, 5, mixedV, 2.5, 20, WithSeed(3))
	require.NoError(t, sys.Randomize(0.4))

	e1, n1 := sys.TotalEnergy(), sys.TotalPopulation()
	e2, n2 := sys.TotalEnergy(), sys.TotalPopulation()
	assert.Equal(t, e1, e2)
	assert.Equal(t, n1, n2)
}

func TestTryFlip_NegativeDuAcceptedWithoutDraw(t *testing.T) {
	src := &fixedSource{u: 1.0}
	sys := newSystem(t, 2, lattice.Periodic, 4, constantV(-4), 1, 5, WithSource(src), WithChemicalPotential(1))

	// Filling an isolated site: de = 0, du = -mu = -1.
	assert.True(t, sys.TryFlip(0, 0, 0))
	assert.Equal(t, 0, src.floats)
	assert.Equal(t, 1, sys.Population())
}

func TestTryFlip_NonNegativeDuDrawsOnce(t *testing.T) {
	src := &fixedSource{u: 0.999999}
	sys := newSystem(t, 2, lattice.Periodic, 4, constantV(-4), 1, 5, WithSource(src), WithTemperature(1))

	// du = 0 with mu = 0 on an isolated site: accept iff u < exp(0) = 1.
	assert.True(t, sys.TryFlip(1, 1, 0))
	assert.Equal(t, 1, src.floats)

	// Emptying it again: du = 0 again.
	src.u = 0.5
	assert.True(t, sys.TryFlip(1, 1, 0))
	assert.Equal(t, 2, src.floats)
}

func TestTryFlip_RejectionLeavesStateUnchanged(t *testing.T) {
	src := &fixedSource{u: 0.999}
	sys := newSystem(t, 2, lattice.Periodic, 4, constantV(-4), 1, 5, WithSource(src), WithTemperature(0.5), WithChemicalPotential(-2))
	before := sys.Lattice().Occupancy()

	// du = +2, exp(-4) << 0.999.
	assert.False(t, sys.TryFlip(2, 2, 0))
	assert.Equal(t, before, sys.Lattice().Occupancy())
	assert.Equal(t, 0.0, sys.Energy())
	assert.Equal(t, 0, sys.Population())
	assert.Equal(t, Acceptance{Attempted: 1, Accepted: 0}, sys.Acceptance())
}

func TestTryFlip_UpdatesTotals(t *testing.T) {
	src := &fixedSource{u: 0}
	sys := newSystem(t, 1, lattice.Periodic, 5, constantV(-4), 1, 5, WithSource(src))

	require.True(t, sys.TryFlip(1, 0, 0))
	require.True(t, sys.TryFlip(2, 0, 0))
	assert.Equal(t, -4.0, sys.Energy())
	assert.Equal(t, 2, sys.Population())

	require.True(t, sys.TryFlip(1, 0, 0))
	assert.Equal(t, 0.0, sys.Energy())
	assert.Equal(t, 1, sys.Population())
	require.NoError(t, sys.CheckConsistency(0))
}

func TestConsistencyAfterEveryAcceptedFlip(t *testing.T) {
	for _, bc := range []lattice.Boundary{lattice.Periodic, lattice.Free} {
		for _, b := range []Backend{NewReferenceBackend(), NewTabulatedBackend()} {
			sys := newSystem(t, 3, bc, 5, mixedV, 2.5, 20, WithSeed(11), WithTemperature(3), WithChemicalPotential(4), WithBackend(b))
			require.NoError(t, sys.Randomize(0.5))
			rng := rand.New(rand.NewSource(5))

			for i := 0; i < 400; i++ {
				x, y, z := rng.Intn(5), rng.Intn(5), rng.Intn(5)
				if sys.TryFlip(x, y, z) {
					require.NoError(t, sys.CheckConsistency(1e-9), "%s/%s flip %d", bc, b.Name(), i)
				}
			}
		}
	}
}

func TestSweep_VisitsEverySiteOnce(t *testing.T) {
	src := &fixedSource{u: 0}
	sys := newSystem(t, 3, lattice.Periodic, 3, constantV(0), 1, 2, WithSource(src))

	accepted := sys.Sweep()
	assert.Equal(t, 27, accepted)
	assert.Equal(t, 27, sys.Population())
	assert.Equal(t, int64(27), sys.Acceptance().Attempted)
	assert.Equal(t, 0, src.ints, "deterministic sweep draws no coordinates")
}

func TestRandomSweep_DrawsCoordinates(t *testing.T) {
	src := &fixedSource{u: 0}
	sys := newSystem(t, 2, lattice.Periodic, 3, constantV(0), 1, 2, WithSource(src))

	sys.RandomSweep()
	assert.Equal(t, 27, src.ints, "three coordinates per trial")
	assert.Equal(t, int64(9), sys.Acceptance().Attempted)
}

func TestRun_Errors(t *testing.T) {
	sys := newSystem(t, 1, lattice.Periodic, 4, constantV(-1), 1, 2)

	_, err := sys.Run(0, ModeSweep)
	assert.ErrorIs(t, err, ErrInvalidSteps)
	_, err = sys.Run(10, Mode(9))
	assert.ErrorIs(t, err, ErrInvalidMode)
	assert.ErrorIs(t, sys.Step(Mode(-1)), ErrInvalidMode)
}

func TestRun_RecomputesAfterExternalMutation(t *testing.T) {
	src := &fixedSource{u: 0.999999}
	sys := newSystem(t, 2, lattice.Periodic, 4, constantV(-4), 1, 5, WithSource(src), WithTemperature(1e-3), WithChemicalPotential(-100))
	sys.Lattice().Fill(true)
	assert.Equal(t, 0, sys.Population(), "external mutation is not seen until recompute")

	sys.AddObserver(ObserverFunc(func(s Sample) {
		if s.Step == 0 {
			// First step can only empty a site, never drop below 15.
			assert.GreaterOrEqual(t, s.Population, 15)
		}
	}))
	_, err := sys.Run(1, ModeSingleSite)
	require.NoError(t, err)
	require.NoError(t, sys.CheckConsistency(1e-9))
}

func TestRun_AveragesAndObservers(t *testing.T) {
	src := &fixedSource{u: 0}
	sys := newSystem(t, 1, lattice.Periodic, 4, constantV(0), 1, 2, WithSource(src))

	var seen []Sample
	sys.AddObserver(ObserverFunc(func(s Sample) { seen = append(seen, s) }))

	// Every sweep toggles all 4 sites: N alternates 4, 0, 4, 0.
	avg, err := sys.Run(4, ModeSweep)
	require.NoError(t, err)
	assert.Equal(t, 2.0, avg.Population)
	assert.Equal(t, 0.0, avg.Energy)
	assert.Equal(t, 4, avg.Steps)
	require.Len(t, seen, 4)
	assert.Equal(t, []int{4, 0, 4, 0}, []int{seen[0].Population, seen[1].Population, seen[2].Population, seen[3].Population})
}

type countMetric struct{ n, resets int }

func (c *countMetric) Name() string   { return "count" }
func (c *countMetric) Observe(Sample) { c.n++ }
func (c *countMetric) Value() float64 { return float64(c.n) }
func (c *countMetric) Reset()         { c.n = 0; c.resets++ }

func TestRun_MetricsResetPerRun(t *testing.T) {
	sys := newSystem(t, 1, lattice.Periodic, 4, constantV(0), 1, 2, WithSeed(1))
	m := &countMetric{}
	sys.AddMetric(m)

	_, err := sys.Run(5, ModeSingleSite)
	require.NoError(t, err)
	_, err = sys.Run(3, ModeSingleSite)
	require.NoError(t, err)

	assert.Equal(t, 2, m.resets)
	assert.Equal(t, 3.0, sys.Metrics()["count"])
}

func TestRun_EndToEndIsing(t *testing.T) {
	sys := newSystem(t, 2, lattice.Periodic, 10, constantV(-4), 1.0, 5,
		WithSeed(42), WithTemperature(20), WithChemicalPotential(8))

	avg, err := sys.Run(10000, ModeSingleSite)
	require.NoError(t, err)
	assert.Greater(t, avg.Population, 0.0)
	assert.Less(t, avg.Population, 100.0)
	assert.LessOrEqual(t, avg.Energy, 0.0)
	require.NoError(t, sys.CheckConsistency(1e-9))
}

func TestBackends_IdenticalTrajectories(t *testing.T) {
	for _, mode := range Modes() {
		t.Run(mode.String(), func(t *testing.T) {
			ref := newSystem(t, 2, lattice.Periodic, 8, mixedV, 3, 20, WithSeed(7), WithTemperature(5), WithChemicalPotential(6))
			tab := newSystem(t, 2, lattice.Periodic, 8, mixedV, 3, 20, WithSeed(7), WithTemperature(5), WithChemicalPotential(6), WithBackend(NewTabulatedBackend()))

			a1, err := ref.Run(30, mode)
			require.NoError(t, err)
			a2, err := tab.Run(30, mode)
			require.NoError(t, err)

			assert.Equal(t, a1, a2)
			assert.Equal(t, ref.Lattice().Occupancy(), tab.Lattice().Occupancy())
			assert.Equal(t, ref.Energy(), tab.Energy())
		})
	}
}

func TestRebuildPotential(t *testing.T) {
	sys := newSystem(t, 2, lattice.Periodic, 4, constantV(-4), 1, 5, WithBackend(NewTabulatedBackend()))
	sys.Lattice().Fill(true)
	sys.Recompute()
	assert.Equal(t, -128.0, sys.Energy())

	require.NoError(t, sys.RebuildPotential(constantV(2)))
	assert.Equal(t, 64.0, sys.Energy())
	assert.Equal(t, 8.0, sys.LocalEnergyIfOccupied(0, 0, 0))
}

func TestRefreshAfterRmaxChange(t *testing.T) {
	sys := newSystem(t, 2, lattice.Periodic, 6, constantV(1), 2, 10, WithBackend(NewTabulatedBackend()))
	tab := sys.Backend().(*TabulatedBackend)
	assert.Equal(t, 12, tab.Offsets())

	require.NoError(t, sys.Potential().SetRmax(1))
	sys.Refresh()
	assert.Equal(t, 4, tab.Offsets())
}

func TestBackendByName(t *testing.T) {
	b, err := BackendByName("Tabulated")
	require.NoError(t, err)
	assert.Equal(t, "tabulated", b.Name())

	_, err = BackendByName("cuda")
	assert.ErrorIs(t, err, ErrUnknownBackend)
	assert.Equal(t, []string{"reference", "tabulated"}, BackendNames())
}

func TestParseMode(t *testing.T) {
	for _, m := range Modes() {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseMode("heatbath")
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestAcceptanceRate(t *testing.T) {
	assert.Equal(t, 0.0, Acceptance{}.Rate())
	assert.Equal(t, 0.25, Acceptance{Attempted: 8, Accepted: 2}.Rate())
}
