// Package potential tabulates a radially symmetric pair interaction with a
// hard cutoff.
//
// The interaction is sampled once at construction on an even grid of radii
// in [rcore, rcut]. A lookup returns the sample at or just below the
// requested radius, so step-shaped interactions keep their steps. Radii
// beyond the cutoff evaluate to exactly zero without touching the table.
package potential

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Func returns the interaction energy of two occupied sites at distance r.
type Func func(r float64) float64

// snap absorbs rounding when r sits exactly on a sample.
const snap = 1e-9

type Potential struct {
	fn      Func
	rcut    float64
	rcore   float64
	rmax    int
	rmax2   int
	npoints int
	invdr   float64
	r       []float64
	v       []float64
}

type Option func(*Potential)

// WithCore sets the smallest tabulated radius (default 0).
func WithCore(rcore float64) Option {
	return func(p *Potential) { p.rcore = rcore }
}

func New(fn Func, rcut float64, npoints int, opts ...Option) (*Potential, error) {
	p := &Potential{fn: fn, rcut: rcut, npoints: npoints}
	for _, o := range opts {
		o(p)
	}

	if fn == nil {
		return nil, ErrNilInteraction
	}
	if math.IsNaN(rcut) || math.IsInf(rcut, 0) || rcut <= 0 {
		return nil, fmt.Errorf("%w: rcut must be positive, got %v", ErrInvalidCutoff, rcut)
	}
	if math.IsNaN(p.rcore) || p.rcore < 0 || p.rcore >= rcut {
		return nil, fmt.Errorf("%w: rcore must be in [0, rcut), got %v", ErrInvalidCutoff, p.rcore)
	}
	if npoints < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPoints, npoints)
	}

	p.rmax = int(math.Ceil(rcut))
	p.rmax2 = p.rmax * p.rmax
	p.invdr = float64(npoints-1) / (rcut - p.rcore)
	p.tabulate()
	return p, nil
}

func (p *Potential) tabulate() {
	p.r = floats.Span(make([]float64, p.npoints), p.rcore, p.rcut)
	p.r[p.npoints-1] = p.rcut
	p.v = make([]float64, p.npoints)
	for i, r := range p.r {
		p.v[i] = p.fn(r)
	}
}

// ValueAt returns the tabulated interaction at Euclidean distance r.
// Distances past the cutoff are zero; distances inside the core return the
// first sample.
func (p *Potential) ValueAt(r float64) float64 {
	if r > p.rcut || r > float64(p.rmax) {
		return 0
	}
	if r <= p.rcore {
		return p.v[0]
	}
	i := int((r-p.rcore)*p.invdr + snap)
	if i >= p.npoints-1 {
		return p.v[p.npoints-1]
	}
	return p.v[i]
}

// ValueAtSquared evaluates the interaction for an integer squared
// displacement.
func (p *Potential) ValueAtSquared(d2 int) float64 {
	if d2 > p.rmax2 {
		return 0
	}
	return p.ValueAt(math.Sqrt(float64(d2)))
}

// Rebuild swaps the interaction function and regenerates the table.
func (p *Potential) Rebuild(fn Func) error {
	if fn == nil {
		return ErrNilInteraction
	}
	p.fn = fn
	p.tabulate()
	return nil
}

// SetRmax overrides the integer radius of the neighbor box.
func (p *Potential) SetRmax(rmax int) error {
	if rmax < 1 {
		return fmt.Errorf("%w: rmax must be >= 1, got %d", ErrInvalidCutoff, rmax)
	}
	p.rmax = rmax
	p.rmax2 = rmax * rmax
	return nil
}

func (p *Potential) Rmax() int      { return p.rmax }
func (p *Potential) Rmax2() int     { return p.rmax2 }
func (p *Potential) Rcut() float64  { return p.rcut }
func (p *Potential) Rcore() float64 { return p.rcore }
func (p *Potential) Points() int    { return p.npoints }
func (p *Potential) Func() Func     { return p.fn }

// Table returns copies of the sampled radii and values.
func (p *Potential) Table() (r, v []float64) {
	r = make([]float64, len(p.r))
	v = make([]float64, len(p.v))
	copy(r, p.r)
	copy(v, p.v)
	return r, v
}
