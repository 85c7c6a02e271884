// Package physics provides pair interactions for lattice gas simulations.
//
// Each model implements [Interaction], a radial pair potential V(r) with a
// finite cutoff, suitable for tabulation by the potential package:
//
//   - [Constant]: flat well, the nearest-neighbor Ising coupling at rcut 1
//   - [SquareShoulder]: attractive core with a repulsive shoulder
//   - [LennardJones]: 12-6 potential shifted to vanish at the cutoff
//   - [Yukawa]: screened Coulomb repulsion
//
// Parameters can be read and adjusted at runtime:
//
//	in := physics.NewSquareShoulder()
//	_ = in.SetParam("outer", 2)
//	pot, err := potential.New(in.V, in.Cutoff(), 20)
package physics
