package mc_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/latgas/internal/lattice"
	"github.com/san-kum/latgas/internal/mc"
	"github.com/san-kum/latgas/internal/potential"
)

func build(dim, l int, bc lattice.Boundary, fn potential.Func, rcut float64, opts ...mc.Option) *mc.System {
	lat, err := lattice.New(dim, bc, l)
	Expect(err).NotTo(HaveOccurred())
	pot, err := potential.New(fn, rcut, 20)
	Expect(err).NotTo(HaveOccurred())
	sys, err := mc.New(lat, pot, opts...)
	Expect(err).NotTo(HaveOccurred())
	return sys
}

func step(v1, v2, r1 float64) potential.Func {
	return func(r float64) float64 {
		if r <= r1 {
			return v1
		}
		return v2
	}
}

var _ = Describe("System", func() {
	Describe("ideal lattice gas", func() {
		DescribeTable("density follows the Fermi function",
			func(mu, temp float64) {
				sys := build(2, 10, lattice.Periodic, func(float64) float64 { return 0 }, 1,
					mc.WithSeed(7), mc.WithTemperature(temp), mc.WithChemicalPotential(mu))

				_, err := sys.Run(200, mc.ModeSweep)
				Expect(err).NotTo(HaveOccurred())
				avg, err := sys.Run(2000, mc.ModeSweep)
				Expect(err).NotTo(HaveOccurred())

				want := 1 / (1 + math.Exp(-mu/temp))
				Expect(avg.Population / 100).To(BeNumerically("~", want, 0.02))
				Expect(avg.Energy).To(BeZero())
			},
			Entry("mu = 1, T = 1", 1.0, 1.0),
			Entry("mu = -1, T = 1", -1.0, 1.0),
			Entry("mu = 0, T = 2", 0.0, 2.0),
			Entry("mu = 2, T = 4", 2.0, 4.0),
		)
	})

	Describe("limits of the chemical potential", func() {
		It("fills the lattice when insertion is always favourable", func() {
			sys := build(2, 8, lattice.Periodic, step(-4, 0, 1), 1,
				mc.WithSeed(1), mc.WithChemicalPotential(50))
			_, err := sys.Run(5, mc.ModeSweep)
			Expect(err).NotTo(HaveOccurred())
			Expect(sys.Population()).To(Equal(64))
			Expect(sys.Energy()).To(Equal(-4.0 * 2 * 64))
		})

		It("empties the lattice when removal is always favourable", func() {
			sys := build(3, 4, lattice.Periodic, step(-4, 0, 1), 1,
				mc.WithSeed(1), mc.WithChemicalPotential(-50))
			sys.Lattice().Fill(true)
			_, err := sys.Run(5, mc.ModeSweep)
			Expect(err).NotTo(HaveOccurred())
			Expect(sys.Population()).To(BeZero())
			Expect(sys.Energy()).To(BeZero())
		})
	})

	Describe("bookkeeping", func() {
		DescribeTable("running totals match recomputation",
			func(dim int, bc lattice.Boundary, mode mc.Mode, backend string) {
				b, err := mc.BackendByName(backend)
				Expect(err).NotTo(HaveOccurred())
				sys := build(dim, 6, bc, step(-4, 1, 1), 3,
					mc.WithSeed(99), mc.WithTemperature(20), mc.WithChemicalPotential(8), mc.WithBackend(b))
				Expect(sys.Randomize(0.5)).To(Succeed())

				for i := 0; i < 20; i++ {
					Expect(sys.Step(mode)).To(Succeed())
					Expect(sys.CheckConsistency(1e-9)).To(Succeed())
				}
			},
			Entry("1D periodic single", 1, lattice.Periodic, mc.ModeSingleSite, "reference"),
			Entry("2D periodic sweep", 2, lattice.Periodic, mc.ModeSweep, "reference"),
			Entry("2D free random sweep", 2, lattice.Free, mc.ModeRandomSweep, "tabulated"),
			Entry("3D periodic sweep", 3, lattice.Periodic, mc.ModeSweep, "tabulated"),
			Entry("3D free sweep", 3, lattice.Free, mc.ModeSweep, "reference"),
		)

		It("keeps acceptance counters consistent with the step count", func() {
			sys := build(2, 5, lattice.Periodic, step(-4, 1, 1), 3, mc.WithSeed(5), mc.WithTemperature(20))
			_, err := sys.Run(10, mc.ModeSweep)
			Expect(err).NotTo(HaveOccurred())

			acc := sys.Acceptance()
			Expect(acc.Attempted).To(Equal(int64(250)))
			Expect(acc.Accepted).To(BeNumerically("<=", acc.Attempted))
			Expect(acc.Rate()).To(BeNumerically(">", 0))
		})
	})

	Describe("reproducibility", func() {
		It("produces the same trajectory for the same seed", func() {
			run := func() []mc.Sample {
				sys := build(2, 10, lattice.Periodic, step(-4, 0, 1), 1,
					mc.WithSeed(2024), mc.WithTemperature(2), mc.WithChemicalPotential(8))
				var samples []mc.Sample
				sys.AddObserver(mc.ObserverFunc(func(s mc.Sample) { samples = append(samples, s) }))
				_, err := sys.Run(50, mc.ModeRandomSweep)
				Expect(err).NotTo(HaveOccurred())
				return samples
			}
			Expect(run()).To(Equal(run()))
		})
	})
})
