// Package mc runs grand-canonical Metropolis Monte Carlo on a lattice gas.
//
// A [System] composes a [lattice.Lattice] and a [potential.Potential] with
// a temperature T and chemical potential mu, and keeps running totals of
// the energy E and the population N:
//
//   - [System.TryFlip]: one Metropolis trial on a single site
//   - [System.Sweep]: one trial per site in row-major order
//   - [System.Run]: repeated steps, returning time-averaged E and N
//
// # Acceptance Rule
//
// Toggling a site changes the particle number by dn (+1 when filling, -1
// when emptying) and the energy by de = dn * LocalEnergyIfOccupied. The
// grand-potential change is
//
//	du = de - mu*dn
//
// so a positive mu favors occupation. A trial with du < 0 is accepted
// without consuming randomness; otherwise exactly one uniform draw u is
// taken and the trial is accepted iff u < exp(-du/T).
//
// # Bookkeeping
//
// Accepted flips update E and N incrementally. [System.Run] refreshes both
// from scratch before its loop, and [System.Recompute] does so on demand
// after the lattice is mutated from outside.
//
// # Backends
//
// Neighbor energies are computed by an injected [Backend]. The
// [ReferenceBackend] enumerates the cutoff box directly; the
// [TabulatedBackend] precomputes offsets and their potential values. Both
// sum the same terms in the same order, so trajectories are identical for
// the same random stream.
//
// # Thread Safety
//
// A System is NOT safe for concurrent use. Run independent replicas with
// [Ensemble], giving each its own random stream.
package mc
