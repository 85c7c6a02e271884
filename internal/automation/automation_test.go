package automation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/latgas/internal/config"
	"github.com/san-kum/latgas/internal/experiment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tinyConfig() *config.Config {
	cfg := config.GetPreset("ising2d")
	cfg.Lattice.Lengths = []int{6}
	cfg.Run.Steps = 20
	cfg.Run.Warmup = 10
	cfg.Run.Chunk = 10
	cfg.Run.Seed = 5
	cfg.Run.Mode = "sweep"
	return cfg
}

func TestTemperatureSweep_Sequential(t *testing.T) {
	var seen []int
	sweep := &TemperatureSweep{
		Config:       tinyConfig(),
		Temperatures: []float64{3, 2.5, 2},
		Progress:     func(i int, _ SweepPoint) { seen = append(seen, i) },
	}

	points, err := sweep.Run(context.Background(), experiment.NewRegistry())
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, []int{0, 1, 2}, seen)

	for i, p := range points {
		assert.Equal(t, sweep.Temperatures[i], p.T)
		assert.Equal(t, -8.0, p.Mu)
		assert.Equal(t, 6, p.Size)
		assert.GreaterOrEqual(t, p.Density, 0.0)
		assert.LessOrEqual(t, p.Density, 1.0)
		assert.InDelta(t, 1-2*p.Density, p.Magnetization, 1e-12)
		assert.LessOrEqual(t, p.Energy, 0.0)
		assert.InDelta(t, p.Population/36, p.Density, 1e-9)
	}
}

func TestTemperatureSweep_FromConfigGrid(t *testing.T) {
	cfg := tinyConfig()
	cfg.Sweep = config.SweepConfig{From: 3, To: 2, Points: 2}

	points, err := (&TemperatureSweep{Config: cfg}).Run(context.Background(), experiment.NewRegistry())
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 3.0, points[0].T)
}

func TestTemperatureSweep_ParallelIsDeterministic(t *testing.T) {
	run := func(workers int) []SweepPoint {
		sweep := &TemperatureSweep{Config: tinyConfig(), Temperatures: []float64{3, 2.5, 2, 1.5}, Parallel: true, Workers: workers}
		points, err := sweep.Run(context.Background(), experiment.NewRegistry())
		require.NoError(t, err)
		return points
	}

	a, b := run(0), run(2)
	require.Len(t, a, 4)
	assert.Equal(t, a, b)
	assert.Equal(t, 1.5, a[3].T)
}

func TestTemperatureSweep_NoTemperatures(t *testing.T) {
	_, err := (&TemperatureSweep{Config: tinyConfig()}).Run(context.Background(), experiment.NewRegistry())
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestTemperatureSweep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sweep := &TemperatureSweep{Config: tinyConfig(), Temperatures: []float64{2}}
	_, err := sweep.Run(ctx, experiment.NewRegistry())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSizeSweep(t *testing.T) {
	sizes := &SizeSweep{
		Sweep: TemperatureSweep{Config: tinyConfig(), Temperatures: []float64{2.5, 2}},
		Sizes: []int{4, 6},
	}

	series, err := sizes.Run(context.Background(), experiment.NewRegistry())
	require.NoError(t, err)
	require.Len(t, series, 2)
	for i, l := range []int{4, 6} {
		assert.Equal(t, l, series[i].Size)
		require.Len(t, series[i].Points, 2)
		assert.Equal(t, l, series[i].Points[0].Size)
	}
	assert.Equal(t, []int{6}, sizes.Sweep.Config.Lattice.Lengths, "base config untouched")
}

func TestRunReplicas(t *testing.T) {
	stats, err := RunReplicas(context.Background(), tinyConfig(), experiment.NewRegistry(), 3, 2)
	require.NoError(t, err)
	require.Len(t, stats.Replicas, 3)

	sum := 0.0
	for _, r := range stats.Replicas {
		sum += r.Energy
	}
	assert.InDelta(t, sum/3, stats.Energy, 1e-9)
	assert.GreaterOrEqual(t, stats.EnergyErr, 0.0)

	again, err := RunReplicas(context.Background(), tinyConfig(), experiment.NewRegistry(), 3, 1)
	require.NoError(t, err)
	assert.Equal(t, stats.Replicas, again.Replicas)
}

func TestStageConfig(t *testing.T) {
	temp, warmup := 1.5, 0
	st := Stage{Preset: "cubic", Temperature: &temp, Warmup: &warmup, Lengths: []int{4}, Steps: 7, Mode: "single", Seed: 9}

	cfg, err := st.Config()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Lattice.Dim)
	assert.Equal(t, 1.5, cfg.Thermo.Temperature)
	assert.Equal(t, -12.0, cfg.Thermo.Mu)
	assert.Equal(t, 0, cfg.Run.Warmup)
	assert.Equal(t, 7, cfg.Run.Steps)
	assert.Equal(t, "single", cfg.Run.Mode)
	assert.Equal(t, int64(9), cfg.Run.Seed)

	_, err = Stage{Preset: "missing"}.Config()
	assert.ErrorIs(t, err, config.ErrUnknownPreset)

	_, err = Stage{Mode: "glauber"}.Config()
	assert.ErrorIs(t, err, config.ErrInvalid)
}

const planYAML = `name: smoke
description: every stage kind on a tiny lattice
stages:
  - name: single
    kind: run
    preset: mixed
    lengths: [6]
    steps: 10
    seed: 1
  - name: anneal
    kind: sweep
    preset: ising2d
    lengths: [4]
    steps: 10
    warmup: 5
    temperatures: [3, 2]
    seed: 2
  - name: finite-size
    kind: sizes
    preset: chain
    steps: 10
    warmup: 0
    sizes: [8, 16]
    temperatures: [1]
    parallel: true
    seed: 3
  - name: spread
    kind: replicas
    preset: ising2d
    lengths: [4]
    steps: 10
    warmup: 0
    replicas: 2
    seed: 4
`

func TestPlan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(planYAML), 0644))

	plan, err := LoadPlan(path)
	require.NoError(t, err)
	require.Len(t, plan.Stages, 4)
	require.NotNil(t, plan.Stages[1].Warmup)
	assert.Equal(t, 5, *plan.Stages[1].Warmup)

	var saved []string
	results, err := RunPlan(context.Background(), plan, experiment.NewRegistry(), func(r StageResult) error {
		saved = append(saved, r.Stage.Name)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, []string{"single", "anneal", "finite-size", "spread"}, saved)

	assert.NotNil(t, results[0].Run)
	assert.Equal(t, 10, results[0].Run.Averages.Steps)
	assert.Len(t, results[1].Points, 2)
	require.Len(t, results[2].Sizes, 2)
	assert.Equal(t, 16, results[2].Sizes[1].Size)
	require.NotNil(t, results[3].Replicas)
	assert.Len(t, results[3].Replicas.Replicas, 2)
}

func TestPlan_Errors(t *testing.T) {
	reg := experiment.NewRegistry()

	_, err := RunPlan(context.Background(), &Plan{Stages: []Stage{{Kind: "anneal"}}}, reg, nil)
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = LoadPlan(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRunReplicas_ZeroSeedDrawsFromClock(t *testing.T) {
	run := func() (*config.Config, *ReplicaStats) {
		cfg := tinyConfig()
		cfg.Run.Seed = 0
		stats, err := RunReplicas(context.Background(), cfg, experiment.NewRegistry(), 3, 0)
		require.NoError(t, err)
		return cfg, stats
	}

	cfgA, a := run()
	cfgB, b := run()
	assert.NotZero(t, cfgA.Run.Seed, "resolved seed is written back")
	assert.NotZero(t, cfgB.Run.Seed)
	assert.NotEqual(t, cfgA.Run.Seed, cfgB.Run.Seed)
	assert.NotEqual(t, a.Replicas, b.Replicas)

	replay, err := RunReplicas(context.Background(), cfgA.Clone(), experiment.NewRegistry(), 3, 0)
	require.NoError(t, err)
	assert.Equal(t, a.Replicas, replay.Replicas, "stored seed replays the run")
}

func TestTemperatureSweep_ZeroSeedDrawsFromClock(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		cfg := tinyConfig()
		cfg.Run.Seed = 0
		sweep := &TemperatureSweep{Config: cfg, Temperatures: []float64{2.5, 2}, Parallel: parallel}
		points, err := sweep.Run(context.Background(), experiment.NewRegistry())
		require.NoError(t, err)
		assert.NotZero(t, cfg.Run.Seed, "parallel=%v", parallel)

		again, err := (&TemperatureSweep{Config: cfg.Clone(), Temperatures: []float64{2.5, 2}, Parallel: parallel}).
			Run(context.Background(), experiment.NewRegistry())
		require.NoError(t, err)
		assert.Equal(t, points, again, "parallel=%v: stored seed replays the sweep", parallel)
	}
}
