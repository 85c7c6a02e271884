package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/san-kum/latgas/internal/config"
	"github.com/san-kum/latgas/internal/experiment"
	"github.com/san-kum/latgas/internal/storage"
	"github.com/san-kum/latgas/internal/viz"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	logLevel   string
	preset     string
	configFile string

	temperature float64
	mu          float64
	dim         int
	lengths     []int
	boundary    string
	fill        float64
	interaction string
	params      map[string]string
	steps       int
	warmup      int
	mode        string
	backend     string
	seed        int64
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "latgas",
		Short:         "grand-canonical lattice gas Monte Carlo",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logrus.SetLevel(lvl)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive(experiment.NewRegistry())
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", "", "data directory (default from config, then "+config.DefaultDataDir+")")
	pf.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVar(&preset, "preset", "", "start from a named preset")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")

	rootCmd.AddCommand(
		newRunCmd(),
		newSweepCmd(),
		newSizesCmd(),
		newReplicasCmd(),
		newPlanCmd(),
		newTuneCmd(),
		newLiveCmd(),
		newBenchCmd(),
		newListCmd(),
		newShowCmd(),
		newPlotCmd(),
		newChartCmd(),
		newAnalyzeCmd(),
		newExportJSONCmd(),
		newExportSVGCmd(),
		newReindexCmd(),
		newPresetsCmd(),
		newConfigCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

// addSystemFlags registers the flags that override the resolved config.
func addSystemFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64VarP(&temperature, "temperature", "T", 0, "temperature")
	f.Float64Var(&mu, "mu", 0, "chemical potential")
	f.IntVar(&dim, "dim", 0, "lattice dimension (1-3)")
	f.IntSliceVarP(&lengths, "size", "L", nil, "linear extent, or one per dimension")
	f.StringVar(&boundary, "boundary", "", "boundary condition (periodic, free)")
	f.Float64Var(&fill, "fill", 0, "initial occupation probability")
	f.StringVar(&interaction, "interaction", "", "pair interaction name")
	f.StringToStringVar(&params, "param", nil, "interaction parameter, name=value")
	f.IntVar(&steps, "steps", 0, "measurement steps")
	f.IntVar(&warmup, "warmup", 0, "equilibration steps")
	f.StringVar(&mode, "mode", "", "step mode (single, sweep, random-sweep)")
	f.StringVar(&backend, "backend", "", "neighbor-energy backend")
	f.Int64Var(&seed, "seed", 0, "random seed (0 draws one from the clock)")
}

// resolveConfig layers defaults, preset, config file, environment and
// finally any flag the user set.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Resolve(preset, configFile)
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("temperature") {
		cfg.Thermo.Temperature = temperature
	}
	if f.Changed("mu") {
		cfg.Thermo.Mu = mu
	}
	if f.Changed("dim") {
		cfg.Lattice.Dim = dim
	}
	if f.Changed("size") {
		cfg.Lattice.Lengths = lengths
	}
	if f.Changed("boundary") {
		cfg.Lattice.Boundary = boundary
	}
	if f.Changed("fill") {
		cfg.Lattice.Fill = fill
	}
	if f.Changed("interaction") {
		cfg.Potential.Interaction = interaction
		cfg.Potential.Params = nil
	}
	if f.Changed("param") {
		if cfg.Potential.Params == nil {
			cfg.Potential.Params = make(map[string]float64)
		}
		for k, v := range params {
			x, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("--param %s: %w", k, err)
			}
			cfg.Potential.Params[k] = x
		}
	}
	if f.Changed("steps") {
		cfg.Run.Steps = steps
	}
	if f.Changed("warmup") {
		cfg.Run.Warmup = warmup
	}
	if f.Changed("mode") {
		cfg.Run.Mode = mode
	}
	if f.Changed("backend") {
		cfg.Run.Backend = backend
	}
	if f.Changed("seed") {
		cfg.Run.Seed = seed
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func storeDir() string {
	if dataDir != "" {
		return dataDir
	}
	cfg, err := config.Resolve("", configFile)
	if err == nil && cfg.DataDir != "" {
		return cfg.DataDir
	}
	return config.DefaultDataDir
}

// openStore opens the data directory with its run index.
func openStore() (*storage.Store, error) {
	st := storage.New(storeDir())
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}
