package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/san-kum/latgas/internal/lattice"
	"github.com/san-kum/latgas/internal/mc"
)

const (
	width       = 70
	height      = 30
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer redraws the z=0 layer of a lattice on a plain terminal as a
// run progresses. Layers wider than the screen are cropped.
type LiveRenderer struct {
	lat       *lattice.Lattice
	title     string
	frameRate int
	lastFrame time.Time
	out       io.Writer
	canvas    [][]rune
}

// NewLiveRenderer draws at most frameRate frames per second; frameRate <= 0
// draws every step.
func NewLiveRenderer(lat *lattice.Lattice, title string, frameRate int, out io.Writer) *LiveRenderer {
	canvas := make([][]rune, min(lat.Ly, height))
	for i := range canvas {
		canvas[i] = make([]rune, min(lat.Lx, width))
	}
	return &LiveRenderer{
		lat:       lat,
		title:     title,
		frameRate: frameRate,
		out:       out,
		canvas:    canvas,
	}
}

func (r *LiveRenderer) OnStep(s mc.Sample) {
	if r.frameRate > 0 {
		if time.Since(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
			return
		}
		r.lastFrame = time.Now()
	}
	r.draw()
	r.render(s)
}

func (r *LiveRenderer) draw() {
	for y, row := range r.canvas {
		for x := range row {
			if r.lat.Occupied(x, y, 0) {
				row[x] = '#'
			} else {
				row[x] = '.'
			}
		}
	}
}

func (r *LiveRenderer) render(s mc.Sample) {
	w := len(r.canvas[0])
	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString(fmt.Sprintf("  %s  step=%d\n", r.title, s.Step))
	b.WriteString("  " + strings.Repeat("-", w) + "\n")

	for _, row := range r.canvas {
		b.WriteString("  ")
		b.WriteString(string(row))
		b.WriteString("\n")
	}

	b.WriteString("  " + strings.Repeat("-", w) + "\n")
	b.WriteString(fmt.Sprintf("  E=%.2f N=%d rho=%.3f\n", s.Energy, s.Population, float64(s.Population)/float64(r.lat.Sites())))

	fmt.Fprint(r.out, b.String())
}

func (r *LiveRenderer) Start() { fmt.Fprint(r.out, hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Fprint(r.out, showCursor) }
