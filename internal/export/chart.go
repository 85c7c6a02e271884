package export

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"sort"

	"github.com/san-kum/latgas/internal/automation"
	"github.com/san-kum/latgas/internal/mc"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var ErrUnknownColumn = errors.New("export: unknown sweep column")

var ErrNoData = errors.New("export: nothing to plot")

const (
	chartWidth  = 10 * vg.Inch
	chartHeight = 6 * vg.Inch
)

// Column picks one observable out of a sweep point.
func Column(p automation.SweepPoint, name string) (float64, error) {
	switch name {
	case "energy":
		return p.Energy, nil
	case "energy_err":
		return p.EnergyErr, nil
	case "population":
		return p.Population, nil
	case "density":
		return p.Density, nil
	case "magnetization":
		return p.Magnetization, nil
	case "heat_capacity":
		return p.HeatCapacity, nil
	case "susceptibility":
		return p.Susceptibility, nil
	case "acceptance":
		return p.Acceptance, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
}

// SweepChart plots one column against temperature, one line per lattice
// size, and saves it to path. The image format follows the extension.
func SweepChart(points []automation.SweepPoint, column, path string) error {
	if len(points) == 0 {
		return ErrNoData
	}

	bySize := make(map[int]plotter.XYs)
	for _, pt := range points {
		v, err := Column(pt, column)
		if err != nil {
			return err
		}
		bySize[pt.Size] = append(bySize[pt.Size], plotter.XY{X: pt.T, Y: v})
	}
	sizes := make([]int, 0, len(bySize))
	for size := range bySize {
		sizes = append(sizes, size)
	}
	sort.Ints(sizes)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s vs temperature", column)
	p.X.Label.Text = "T"
	p.Y.Label.Text = column

	colors := palette(len(sizes))
	for i, size := range sizes {
		xys := bySize[size]
		sort.Slice(xys, func(a, b int) bool { return xys[a].X < xys[b].X })

		line, dots, err := plotter.NewLinePoints(xys)
		if err != nil {
			return err
		}
		line.Color = colors[i]
		line.Width = vg.Points(1)
		dots.Color = colors[i]
		p.Add(line, dots)
		p.Legend.Add(fmt.Sprintf("L=%d", size), line)
	}
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	return p.Save(chartWidth, chartHeight, path)
}

// SamplesChart plots the energy and population traces of a run on two
// stacked charts saved as a PNG.
func SamplesChart(samples []mc.Sample, title, path string) error {
	if len(samples) == 0 {
		return ErrNoData
	}

	energy := make(plotter.XYs, len(samples))
	population := make(plotter.XYs, len(samples))
	for i, s := range samples {
		energy[i] = plotter.XY{X: float64(s.Step), Y: s.Energy}
		population[i] = plotter.XY{X: float64(s.Step), Y: float64(s.Population)}
	}

	pE := plot.New()
	pE.Title.Text = title + " energy"
	pE.X.Label.Text = "Step"
	pE.Y.Label.Text = "E"

	pN := plot.New()
	pN.Title.Text = title + " population"
	pN.X.Label.Text = "Step"
	pN.Y.Label.Text = "N"

	colors := palette(2)
	for i, pair := range []struct {
		p   *plot.Plot
		xys plotter.XYs
	}{{pE, energy}, {pN, population}} {
		line, err := plotter.NewLine(pair.xys)
		if err != nil {
			return err
		}
		line.Color = colors[i]
		line.Width = vg.Points(1)
		pair.p.Add(line)
	}

	return saveStacked(path, pE, pN)
}

// saveStacked draws the plots one above the other into a PNG.
func saveStacked(path string, plots ...*plot.Plot) error {
	rows := make([][]*plot.Plot, len(plots))
	for i, p := range plots {
		rows[i] = []*plot.Plot{p}
	}

	img := vgimg.New(chartWidth, chartHeight*vg.Length(len(plots))/2)
	dc := draw.New(img)
	tiles := draw.Tiles{Rows: len(plots), Cols: 1, PadY: vg.Millimeter, PadX: vg.Millimeter}
	canvases := plot.Align(rows, tiles, dc)
	for i := range plots {
		plots[i].Draw(canvases[i][0])
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return err
	}
	return f.Close()
}

// palette spreads n colors evenly around the hue circle.
func palette(n int) []color.Color {
	colors := make([]color.Color, n)
	for i := range colors {
		h := float64(i) / float64(max(n, 1))
		colors[i] = hsv(h, 0.75, 0.85)
	}
	return colors
}

func hsv(h, s, v float64) color.Color {
	i := int(h * 6)
	f := h*6 - float64(i)
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)

	var r, g, b float64
	switch i % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return color.RGBA{R: uint8(r * 255), G: uint8(g * 255), B: uint8(b * 255), A: 255}
}
