package lattice

import (
	"fmt"
	"math"
	"strings"
)

type Boundary int

const (
	Periodic Boundary = iota
	Free
)

func (b Boundary) String() string {
	switch b {
	case Periodic:
		return "periodic"
	case Free:
		return "free"
	default:
		return fmt.Sprintf("boundary(%d)", int(b))
	}
}

func (b Boundary) valid() bool { return b == Periodic || b == Free }

func ParseBoundary(s string) (Boundary, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "periodic":
		return Periodic, nil
	case "free":
		return Free, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidBoundary, s)
}

// Uniform is a source of uniform variates in [0, 1).
type Uniform interface {
	Float64() float64
}

type Lattice struct {
	Lx, Ly, Lz int
	Dim        int
	BC         Boundary
	site       []bool
}

// New creates an empty lattice. A single length sets every active extent;
// otherwise one length per active dimension is expected.
func New(dim int, bc Boundary, lengths ...int) (*Lattice, error) {
	if dim < 1 || dim > 3 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDimension, dim)
	}
	if !bc.valid() {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidBoundary, bc)
	}
	if len(lengths) == 0 {
		return nil, fmt.Errorf("%w: no extents given", ErrInvalidExtent)
	}
	if len(lengths) > dim {
		return nil, fmt.Errorf("%w: %d extents for dimension %d", ErrInvalidExtent, len(lengths), dim)
	}
	if len(lengths) != 1 && len(lengths) != dim {
		return nil, fmt.Errorf("%w: need 1 or %d extents, got %d", ErrInvalidExtent, dim, len(lengths))
	}

	ext := [3]int{1, 1, 1}
	for i := 0; i < dim; i++ {
		if len(lengths) == 1 {
			ext[i] = lengths[0]
		} else {
			ext[i] = lengths[i]
		}
		if ext[i] <= 0 {
			return nil, fmt.Errorf("%w: extent %d is %d", ErrInvalidExtent, i, ext[i])
		}
	}

	return &Lattice{
		Lx:   ext[0],
		Ly:   ext[1],
		Lz:   ext[2],
		Dim:  dim,
		BC:   bc,
		site: make([]bool, ext[0]*ext[1]*ext[2]),
	}, nil
}

func (l *Lattice) Sites() int { return len(l.site) }

func (l *Lattice) Index(x, y, z int) int { return x + y*l.Lx + z*l.Lx*l.Ly }

func (l *Lattice) Coordinate(idx int) (x, y, z int) {
	x = idx % l.Lx
	y = (idx / l.Lx) % l.Ly
	z = idx / (l.Lx * l.Ly)
	return
}

func (l *Lattice) InBounds(x, y, z int) bool {
	return x >= 0 && x < l.Lx && y >= 0 && y < l.Ly && z >= 0 && z < l.Lz
}

// StatusAt reports occupancy with the boundary condition applied to
// out-of-range coordinates.
func (l *Lattice) StatusAt(x, y, z int) bool {
	if l.BC == Periodic {
		return l.site[l.Index(wrap(x, l.Lx), wrap(y, l.Ly), wrap(z, l.Lz))]
	}
	if !l.InBounds(x, y, z) {
		return false
	}
	return l.site[l.Index(x, y, z)]
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

func (l *Lattice) Occupied(x, y, z int) bool { return l.site[l.mustIndex(x, y, z)] }

func (l *Lattice) Set(x, y, z int, occupied bool) { l.site[l.mustIndex(x, y, z)] = occupied }

func (l *Lattice) Toggle(x, y, z int) {
	i := l.mustIndex(x, y, z)
	l.site[i] = !l.site[i]
}

// OccupiedAt reads the flat buffer directly.
func (l *Lattice) OccupiedAt(idx int) bool { return l.site[idx] }

func (l *Lattice) mustIndex(x, y, z int) int {
	if !l.InBounds(x, y, z) {
		panic(fmt.Sprintf("lattice: site (%d, %d, %d) outside %dx%dx%d", x, y, z, l.Lx, l.Ly, l.Lz))
	}
	return l.Index(x, y, z)
}

// Random replaces the occupancy, filling each site with probability p.
func (l *Lattice) Random(p float64, src Uniform) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidProbability, p)
	}
	for i := range l.site {
		l.site[i] = src.Float64() < p
	}
	return nil
}

func (l *Lattice) Fill(occupied bool) {
	for i := range l.site {
		l.site[i] = occupied
	}
}

func (l *Lattice) Count() int {
	n := 0
	for _, s := range l.site {
		if s {
			n++
		}
	}
	return n
}

func (l *Lattice) Density() float64 { return float64(l.Count()) / float64(l.Sites()) }

// Occupancy returns a copy of the flat occupancy buffer.
func (l *Lattice) Occupancy() []bool {
	c := make([]bool, len(l.site))
	copy(c, l.site)
	return c
}

func (l *Lattice) Load(occ []bool) error {
	if len(occ) != len(l.site) {
		return fmt.Errorf("%w: want %d sites, got %d", ErrSizeMismatch, len(l.site), len(occ))
	}
	copy(l.site, occ)
	return nil
}

func (l *Lattice) Clone() *Lattice {
	c := *l
	c.site = l.Occupancy()
	return &c
}

func (l *Lattice) Extents() [3]int { return [3]int{l.Lx, l.Ly, l.Lz} }

// String renders the z=0 slice, one row per y.
func (l *Lattice) String() string { return l.Slice(0) }

// Slice renders layer z as rows of '#' (occupied) and '.' (empty).
func (l *Lattice) Slice(z int) string {
	var b strings.Builder
	for y := 0; y < l.Ly; y++ {
		for x := 0; x < l.Lx; x++ {
			if l.site[l.Index(x, y, z)] {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// ParseSlice reads a rendering produced by String back into the z=0 slice.
func (l *Lattice) ParseSlice(s string) error { return l.ParseSliceAt(0, s) }

func (l *Lattice) ParseSliceAt(z int, s string) error {
	if z < 0 || z >= l.Lz {
		return fmt.Errorf("%w: layer %d outside [0, %d)", ErrSizeMismatch, z, l.Lz)
	}
	rows := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(rows) != l.Ly {
		return fmt.Errorf("%w: want %d rows, got %d", ErrSizeMismatch, l.Ly, len(rows))
	}
	for y, row := range rows {
		if len(row) != l.Lx {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrSizeMismatch, y, len(row), l.Lx)
		}
		for x := 0; x < l.Lx; x++ {
			l.site[l.Index(x, y, z)] = row[x] == '#'
		}
	}
	return nil
}

// Dump renders every layer, separated by blank lines.
func (l *Lattice) Dump() string {
	layers := make([]string, l.Lz)
	for z := range layers {
		layers[z] = l.Slice(z)
	}
	return strings.Join(layers, "\n")
}

// Undump reads a rendering produced by Dump.
func (l *Lattice) Undump(s string) error {
	layers := strings.Split(strings.TrimRight(s, "\n"), "\n\n")
	if len(layers) != l.Lz {
		return fmt.Errorf("%w: want %d layers, got %d", ErrSizeMismatch, l.Lz, len(layers))
	}
	for z, layer := range layers {
		if err := l.ParseSliceAt(z, layer); err != nil {
			return err
		}
	}
	return nil
}
