package viz

import (
	"strings"

	"github.com/san-kum/latgas/internal/lattice"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// CanvasFor sizes a canvas so that every site of an lx by ly layer gets
// its own dot.
func CanvasFor(lx, ly int) *Canvas {
	return NewCanvas((lx+1)/2, (ly+3)/4)
}

// Set lights the dot at (x, y) in sub-pixel coordinates. The canvas size in
// sub-pixels is (Width*2) x (Height*4).
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
}

// DrawLattice clears the canvas and lights one dot per occupied site of
// layer z.
func (c *Canvas) DrawLattice(l *lattice.Lattice, z int) {
	c.Clear()
	if z < 0 || z >= l.Lz {
		return
	}
	for y := 0; y < l.Ly; y++ {
		for x := 0; x < l.Lx; x++ {
			if l.Occupied(x, y, z) {
				c.Set(x, y)
			}
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Blocks renders layer z with two characters per site, filled for occupied
// sites.
func Blocks(l *lattice.Lattice, z int) string {
	if z < 0 || z >= l.Lz {
		return ""
	}
	var b strings.Builder
	for y := 0; y < l.Ly; y++ {
		for x := 0; x < l.Lx; x++ {
			if l.Occupied(x, y, z) {
				b.WriteString("██")
			} else {
				b.WriteString("· ")
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
