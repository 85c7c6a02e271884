// Package lattice holds the geometry and occupancy of a lattice gas.
//
// A [Lattice] is a regular 1D, 2D or 3D grid whose sites are either
// occupied or empty. Dimensions not used by the lattice have extent 1, so
// every site is addressed as (x, y, z) regardless of dimension.
//
// Neighbor lookups go through [Lattice.StatusAt], which applies the
// boundary condition:
//
//   - [Periodic]: coordinates wrap modulo the extent of their axis
//   - [Free]: coordinates outside the grid read as empty
//
// Direct accessors ([Lattice.Occupied], [Lattice.Set], [Lattice.Toggle])
// expect in-range coordinates and panic otherwise.
//
// # Memory Layout
//
// Occupancy is stored in a single flat buffer in x-fastest order:
//
//	index = x + y*Lx + z*Lx*Ly
//
// [Lattice.Occupancy] and [Lattice.Load] exchange that buffer as is.
package lattice
