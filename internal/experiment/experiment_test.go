package experiment

import (
	"context"
	"math/rand"
	"testing"

	"github.com/san-kum/latgas/internal/config"
	"github.com/san-kum/latgas/internal/mc"
	"github.com/san-kum/latgas/internal/metrics"
	"github.com/san-kum/latgas/internal/physics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallConfig() *config.Config {
	cfg := config.GetPreset("mixed")
	cfg.Lattice.Lengths = []int{8}
	cfg.Run.Steps = 50
	cfg.Run.Warmup = 20
	cfg.Run.Chunk = 15
	cfg.Run.Seed = 7
	return cfg
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	assert.Equal(t, physics.Names(), reg.ListInteractions())
	assert.Equal(t, []string{"reference", "tabulated"}, reg.ListBackends())

	_, err := reg.GetInteraction("morse", nil)
	assert.ErrorIs(t, err, physics.ErrUnknownInteraction)
	_, err = reg.GetBackend("cuda")
	assert.ErrorIs(t, err, mc.ErrUnknownBackend)

	reg.RegisterInteraction("hard", func(map[string]float64) (physics.Interaction, error) {
		return &physics.Constant{Value: 100, Rcut: 1}, nil
	})
	in, err := reg.GetInteraction("hard", nil)
	require.NoError(t, err)
	assert.Equal(t, 100.0, in.V(1))
}

func TestBuild(t *testing.T) {
	reg := NewRegistry()
	cfg := smallConfig()

	sys, err := reg.Build(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 64, sys.Lattice().Sites())
	assert.Equal(t, 64, sys.Population(), "fill 1 occupies every site")
	assert.Equal(t, int64(7), sys.Seed())
	assert.Equal(t, "tabulated", sys.Backend().Name())
	assert.Equal(t, 3, sys.Potential().Rmax())
	assert.Equal(t, 20.0, sys.T())
	require.NoError(t, sys.CheckConsistency(1e-9))
}

func TestBuildPotential_CutoffAndRmax(t *testing.T) {
	reg := NewRegistry()

	pot, err := reg.BuildPotential(config.PotentialConfig{Interaction: "yukawa", Points: 10})
	require.NoError(t, err)
	assert.Equal(t, 3.0, pot.Rcut(), "interaction cutoff used when rcut is unset")

	pot, err = reg.BuildPotential(config.PotentialConfig{Interaction: "constant", Rcut: 2.5, Points: 10, Rmax: 1})
	require.NoError(t, err)
	assert.Equal(t, 2.5, pot.Rcut())
	assert.Equal(t, 1, pot.Rmax())

	_, err = reg.BuildPotential(config.PotentialConfig{Interaction: "constant", Points: 1})
	assert.Error(t, err)
}

func TestExperiment_Run(t *testing.T) {
	exp, err := New(smallConfig(), NewRegistry())
	require.NoError(t, err)

	res, err := exp.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 50, res.Averages.Steps)
	require.Len(t, res.Samples, 50, "warmup samples are discarded")
	assert.Equal(t, 49, res.Samples[49].Step)
	assert.Equal(t, int64(50*64), res.Acceptance.Attempted)

	assert.InDelta(t, res.Averages.Energy, res.Metrics["energy"], 1e-9)
	assert.InDelta(t, res.Averages.Population, res.Metrics["population"], 1e-9)
	assert.InDelta(t, res.Averages.Population/64, res.Metrics["density"], 1e-9)
	assert.Contains(t, res.Metrics, "heat_capacity")

	assert.Equal(t, exp.GetSystem().Population(), res.Lattice.Count())
	assert.Equal(t, int64(7), res.Seed)
}

func TestExperiment_Reproducible(t *testing.T) {
	run := func() *Result {
		exp, err := NewWithSource(smallConfig(), NewRegistry(), rand.New(rand.NewSource(3)))
		require.NoError(t, err)
		res, err := exp.Run(context.Background())
		require.NoError(t, err)
		return res
	}
	a, b := run(), run()
	assert.Equal(t, a.Averages, b.Averages)
	assert.Equal(t, a.Samples, b.Samples)
}

func TestExperiment_Cancelled(t *testing.T) {
	exp, err := New(smallConfig(), NewRegistry())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = exp.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExperiment_InvalidConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.Thermo.Temperature = -1
	_, err := New(cfg, NewRegistry())
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestExperiment_SetTemperatureKeepsRegistryMetrics(t *testing.T) {
	reg := NewRegistry()
	var temps []float64
	reg.SetDefaultMetrics(func(sites int, temp float64) []mc.Metric {
		temps = append(temps, temp)
		return []mc.Metric{metrics.NewDensity(sites)}
	})

	exp, err := New(smallConfig(), reg)
	require.NoError(t, err)
	require.NoError(t, exp.SetTemperature(15))

	res, err := exp.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []float64{20, 15}, temps)
	assert.Len(t, res.Metrics, 1)
	assert.Contains(t, res.Metrics, "density")
	assert.NotContains(t, res.Metrics, "heat_capacity")
}
