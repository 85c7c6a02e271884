package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/latgas/internal/automation"
	"github.com/san-kum/latgas/internal/config"
	"github.com/san-kum/latgas/internal/lattice"
	"github.com/san-kum/latgas/internal/mc"
	"github.com/san-kum/latgas/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatticeSVG(t *testing.T) {
	l, err := lattice.New(2, lattice.Periodic, 3)
	require.NoError(t, err)
	l.Set(0, 0, 0, true)
	l.Set(2, 1, 0, true)

	svg := LatticeSVG(l, 0, 10)
	assert.True(t, strings.HasPrefix(svg, "<?xml"))
	assert.Contains(t, svg, `width="30"`)
	assert.Equal(t, 3, strings.Count(svg, "<rect"), "background plus two sites")
	assert.Contains(t, svg, `x="20.5" y="10.5"`)

	assert.Empty(t, LatticeSVG(l, 1, 10))
	assert.Empty(t, LatticeSVG(nil, 0, 10))
}

func TestSeriesSVG(t *testing.T) {
	svg := SeriesSVG([]float64{0, 1, 2}, []float64{0, 1, 0}, 120, 60, "#ff0000")
	assert.Contains(t, svg, `stroke="#ff0000"`)
	assert.Equal(t, 2, strings.Count(svg, " L"))
	assert.Empty(t, SeriesSVG([]float64{1}, []float64{1}, 10, 10, "#fff"))
}

func TestColumn(t *testing.T) {
	p := automation.SweepPoint{Energy: -1, HeatCapacity: 2, Acceptance: 0.5}
	v, err := Column(p, "heat_capacity")
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	_, err = Column(p, "entropy")
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestSweepChartWritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweep.png")
	points := []automation.SweepPoint{
		{Size: 8, T: 3, Energy: -10}, {Size: 8, T: 2, Energy: -40},
		{Size: 16, T: 3, Energy: -45}, {Size: 16, T: 2, Energy: -160},
	}
	require.NoError(t, SweepChart(points, "energy", path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	assert.ErrorIs(t, SweepChart(nil, "energy", path), ErrNoData)
	assert.ErrorIs(t, SweepChart(points, "nope", path), ErrUnknownColumn)
}

func TestSamplesChartWritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.png")
	samples := []mc.Sample{{Step: 0, Energy: -4, Population: 3}, {Step: 1, Energy: -8, Population: 4}}
	require.NoError(t, SamplesChart(samples, "run", path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestWriteJSON(t *testing.T) {
	meta := storage.RunMetadata{ID: "r1", Kind: "run", Name: "demo"}
	samples := []mc.Sample{{Step: 0, Energy: -4, Population: 3}, {Step: 1, Energy: -2, Population: 2}}
	data := NewExportData(meta, samples, nil, "#.\n..\n")

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, data))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, []any{-4.0, -2.0}, decoded["energy"])
	assert.Equal(t, []any{3.0, 2.0}, decoded["population"])
	assert.NotContains(t, decoded, "points")
	assert.Equal(t, "r1", decoded["run"].(map[string]any)["id"])
}

func TestFromStore(t *testing.T) {
	st := storage.New(t.TempDir())
	require.NoError(t, st.Init())
	defer st.Close()

	cfgPoints := []automation.SweepPoint{{Size: 4, T: 1, Energy: -3}}
	id, err := st.SaveSweep(automation.KindSweep, "s", config.DefaultConfig(), cfgPoints)
	require.NoError(t, err)

	data, err := FromStore(st, id)
	require.NoError(t, err)
	assert.Equal(t, cfgPoints, data.Points)
	assert.Empty(t, data.Energy)
}
