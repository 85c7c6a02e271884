// Package viz provides terminal visualization of a running lattice gas.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [Model]: live view of one system, stepped once per tick
//   - [Canvas]: Braille-based pixel canvas, one dot per lattice site
//   - [RunInteractive]: preset picker that starts a live view
//
// # Key Bindings
//
//	Space      - Pause/Resume
//	Up/Down    - Raise/lower the temperature by 5%
//	Left/Right - Lower/raise the chemical potential by 0.5
//	M          - Cycle the step mode
//	[ ]        - Previous/next layer of a 3D lattice
//	B          - Toggle Braille rendering
//	C          - Empty the lattice
//	R          - Reset temperature, chemical potential and occupancy
//	T          - Cycle color themes
//	?          - Show help overlay
package viz
