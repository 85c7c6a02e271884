package main

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/san-kum/latgas/internal/automation"
	"github.com/san-kum/latgas/internal/config"
	"github.com/san-kum/latgas/internal/experiment"
	"github.com/san-kum/latgas/internal/export"
	"github.com/san-kum/latgas/internal/mc"
	"github.com/san-kum/latgas/internal/optim"
	"github.com/san-kum/latgas/internal/tui"
	"github.com/san-kum/latgas/internal/viz"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
)

func newRunCmd() *cobra.Command {
	var (
		name   string
		noSave bool
		watch  bool
		fps    int
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "equilibrate and measure one state point",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			exp, err := experiment.New(cfg, experiment.NewRegistry())
			if err != nil {
				return err
			}
			if watch {
				sys := exp.GetSystem()
				r := tui.NewLiveRenderer(sys.Lattice(), cfg.Name, fps, os.Stdout)
				r.Start()
				defer r.Stop()
				sys.AddObserver(r)
			}

			res, err := exp.Run(cmd.Context())
			if err != nil {
				return err
			}
			printResult(res)

			if noSave {
				return nil
			}
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			runID, err := st.Save(name, res)
			if err != nil {
				return err
			}
			fmt.Printf("\nsaved %s\n", runID)
			return nil
		},
	}
	addSystemFlags(cmd)
	cmd.Flags().StringVar(&name, "name", "", "run name (defaults to the config name)")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	cmd.Flags().BoolVar(&watch, "watch", false, "redraw the lattice while running")
	cmd.Flags().IntVar(&fps, "fps", 10, "redraw rate for --watch")
	return cmd
}

func printResult(res *experiment.Result) {
	cfg := res.Config
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "lattice\t%dD %v %s\n", cfg.Lattice.Dim, cfg.Lattice.Lengths, cfg.Lattice.Boundary)
	fmt.Fprintf(w, "potential\t%s\n", cfg.Potential.Interaction)
	fmt.Fprintf(w, "T, mu\t%g, %g\n", cfg.Thermo.Temperature, cfg.Thermo.Mu)
	fmt.Fprintf(w, "seed\t%d\n", res.Seed)
	fmt.Fprintf(w, "steps\t%d (+%d warmup, %s)\n", cfg.Run.Steps, cfg.Run.Warmup, cfg.Run.Mode)
	fmt.Fprintf(w, "<E>\t%.6g\n", res.Averages.Energy)
	fmt.Fprintf(w, "<N>\t%.6g\n", res.Averages.Population)

	names := make([]string, 0, len(res.Metrics))
	for k := range res.Metrics {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Fprintf(w, "%s\t%.6g\n", k, res.Metrics[k])
	}
	fmt.Fprintf(w, "acceptance\t%.4f\n", res.Acceptance.Rate())
	fmt.Fprintf(w, "elapsed\t%s\n", res.Elapsed.Round(time.Millisecond))
	w.Flush()
}

func printPoints(points []automation.SweepPoint) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "L\tT\tMU\tE\tERR\tRHO\tM\tC\tCHI\tACC")
	for _, p := range points {
		fmt.Fprintf(w, "%d\t%.4g\t%.4g\t%.5g\t%.2g\t%.4f\t%.4f\t%.4g\t%.4g\t%.3f\n",
			p.Size, p.T, p.Mu, p.Energy, p.EnergyErr, p.Density, p.Magnetization,
			p.HeatCapacity, p.Susceptibility, p.Acceptance)
	}
	w.Flush()
}

// sweepFlags holds the temperature-grid flags shared by sweep and sizes.
type sweepFlags struct {
	temps    []float64
	from, to float64
	points   int
	parallel bool
	workers  int
	name     string
	chart    string
	column   string
	noSave   bool
}

func (s *sweepFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64SliceVar(&s.temps, "temps", nil, "explicit temperatures")
	f.Float64Var(&s.from, "from", 0, "first temperature of an even grid")
	f.Float64Var(&s.to, "to", 0, "last temperature of an even grid")
	f.IntVar(&s.points, "points", 0, "number of grid temperatures")
	f.BoolVar(&s.parallel, "parallel", false, "run temperatures as independent concurrent replicas")
	f.IntVar(&s.workers, "workers", 0, "concurrent replicas in parallel mode (0 = all)")
	f.StringVar(&s.name, "name", "", "run name")
	f.StringVar(&s.chart, "chart", "", "also write a chart image to this path")
	f.StringVar(&s.column, "column", "energy", "observable drawn by --chart")
	f.BoolVar(&s.noSave, "no-save", false, "do not store the sweep")
}

func (s *sweepFlags) apply(cmd *cobra.Command, cfg *config.Config) *automation.TemperatureSweep {
	f := cmd.Flags()
	if f.Changed("temps") {
		cfg.Sweep.Temperatures = s.temps
	}
	if f.Changed("from") {
		cfg.Sweep.From = s.from
	}
	if f.Changed("to") {
		cfg.Sweep.To = s.to
	}
	if f.Changed("points") {
		cfg.Sweep.Points = s.points
	}
	if f.Changed("parallel") {
		cfg.Sweep.Parallel = s.parallel
	}
	return &automation.TemperatureSweep{
		Config:   cfg,
		Parallel: cfg.Sweep.Parallel,
		Workers:  s.workers,
		Progress: func(i int, p automation.SweepPoint) {
			logrus.Infof("L=%d T=%.4g: E=%.5g rho=%.4f", p.Size, p.T, p.Energy, p.Density)
		},
	}
}

func newSweepCmd() *cobra.Command {
	var sf sweepFlags
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "measure along a temperature grid",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			sweep := sf.apply(cmd, cfg)
			points, err := sweep.Run(cmd.Context(), experiment.NewRegistry())
			if err != nil {
				return err
			}
			printPoints(points)

			if sf.chart != "" {
				if err := export.SweepChart(points, sf.column, sf.chart); err != nil {
					return err
				}
				fmt.Printf("chart written to %s\n", sf.chart)
			}
			if sf.noSave {
				return nil
			}
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			runID, err := st.SaveSweep(automation.KindSweep, sf.name, cfg, points)
			if err != nil {
				return err
			}
			fmt.Printf("saved %s\n", runID)
			return nil
		},
	}
	addSystemFlags(cmd)
	sf.register(cmd)
	return cmd
}

func newSizesCmd() *cobra.Command {
	var (
		sf    sweepFlags
		sizes []int
	)
	cmd := &cobra.Command{
		Use:   "sizes",
		Short: "repeat a temperature sweep for several lattice sizes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("sizes") {
				cfg.Sweep.Sizes = sizes
			}
			scan := &automation.SizeSweep{Sweep: *sf.apply(cmd, cfg)}
			series, err := scan.Run(cmd.Context(), experiment.NewRegistry())
			if err != nil {
				return err
			}

			var all []automation.SweepPoint
			for _, s := range series {
				all = append(all, s.Points...)
			}
			printPoints(all)

			if sf.chart != "" {
				if err := export.SweepChart(all, sf.column, sf.chart); err != nil {
					return err
				}
				fmt.Printf("chart written to %s\n", sf.chart)
			}
			if sf.noSave {
				return nil
			}
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			runID, err := st.SaveSizes(sf.name, cfg, series)
			if err != nil {
				return err
			}
			fmt.Printf("saved %s\n", runID)
			return nil
		},
	}
	addSystemFlags(cmd)
	sf.register(cmd)
	cmd.Flags().IntSliceVar(&sizes, "sizes", nil, "linear sizes to scan")
	return cmd
}

func newReplicasCmd() *cobra.Command {
	var (
		n, workers int
		name       string
		noSave     bool
	)
	cmd := &cobra.Command{
		Use:   "replicas",
		Short: "run independent copies of one state point concurrently",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("count") && cfg.Run.Replicas > 0 {
				n = cfg.Run.Replicas
			}
			stats, err := automation.RunReplicas(cmd.Context(), cfg, experiment.NewRegistry(), n, workers)
			if err != nil {
				return err
			}
			printPoints(stats.Replicas)
			fmt.Printf("\n<E> = %.6g +/- %.2g\n<N> = %.6g +/- %.2g\n",
				stats.Energy, stats.EnergyErr, stats.Population, stats.PopulationErr)

			if noSave {
				return nil
			}
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			runID, err := st.SaveReplicas(name, cfg, stats)
			if err != nil {
				return err
			}
			fmt.Printf("saved %s\n", runID)
			return nil
		},
	}
	addSystemFlags(cmd)
	cmd.Flags().IntVarP(&n, "count", "n", 4, "number of replicas")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent replicas (0 = all)")
	cmd.Flags().StringVar(&name, "name", "", "run name")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the result")
	return cmd
}

func newPlanCmd() *cobra.Command {
	var noSave bool
	cmd := &cobra.Command{
		Use:   "plan [file]",
		Short: "run every stage of a yaml plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := automation.LoadPlan(args[0])
			if err != nil {
				return err
			}

			var save func(automation.StageResult) error
			if !noSave {
				st, err := openStore()
				if err != nil {
					return err
				}
				defer st.Close()
				save = func(r automation.StageResult) error {
					runID, err := st.SaveStage(r)
					if err == nil {
						fmt.Printf("stage %s saved as %s\n", r.Stage.Name, runID)
					}
					return err
				}
			}

			results, err := automation.RunPlan(cmd.Context(), plan, experiment.NewRegistry(), save)
			if err != nil {
				return err
			}
			for _, r := range results {
				fmt.Printf("\n== %s (%s)\n", r.Stage.Name, r.Stage.Kind)
				switch {
				case r.Run != nil:
					printResult(r.Run)
				case r.Replicas != nil:
					printPoints(r.Replicas.Replicas)
				case r.Sizes != nil:
					for _, s := range r.Sizes {
						printPoints(s.Points)
					}
				default:
					printPoints(r.Points)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store stage results")
	return cmd
}

// parseRange reads "from:to:n" into n evenly spaced values.
func parseRange(s string) ([]float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("range %q: want from:to:n", s)
	}
	from, err1 := strconv.ParseFloat(parts[0], 64)
	to, err2 := strconv.ParseFloat(parts[1], 64)
	n, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil || n < 1 {
		return nil, fmt.Errorf("range %q: want from:to:n", s)
	}
	if n == 1 {
		return []float64{from}, nil
	}
	return floats.Span(make([]float64, n), from, to), nil
}

func newTuneCmd() *cobra.Command {
	var (
		ranges map[string]string
		metric string
		want   float64
	)
	cmd := &cobra.Command{
		Use:   "tune",
		Short: "grid-search T, mu or fill for a target observable",
		Example: `  latgas tune --preset ising2d --range mu=-10:-6:9 --metric density --want 0.5
  latgas tune --range T=1:3:5 --range mu=-9:-7:5 --metric magnetization --want 0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			if len(ranges) == 0 {
				return fmt.Errorf("at least one --range is required")
			}

			names := make([]string, 0, len(ranges))
			for k := range ranges {
				names = append(names, k)
			}
			sort.Strings(names)
			grids := make([][]float64, len(names))
			for i, k := range names {
				if grids[i], err = parseRange(ranges[k]); err != nil {
					return err
				}
			}

			gs := optim.NewGridSearch(names, grids)
			best, score, evals, err := gs.Search(cmd.Context(), cfg, experiment.NewRegistry(), optim.MetricDistance(metric, want))
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\tSCORE")
			for _, e := range evals {
				for _, k := range names {
					fmt.Fprintf(w, "%.4g\t", e.Params[k])
				}
				fmt.Fprintf(w, "%.4g\n", e.Score)
			}
			w.Flush()

			if math.IsInf(score, 1) {
				return fmt.Errorf("no grid point produced metric %q", metric)
			}
			fmt.Printf("\nbest: %v (|%s - %g| = %.4g)\n", best, metric, want, score)
			return nil
		},
	}
	addSystemFlags(cmd)
	cmd.Flags().StringToStringVar(&ranges, "range", nil, "parameter grid, name=from:to:n (T, mu, fill)")
	cmd.Flags().StringVar(&metric, "metric", "density", "metric to match")
	cmd.Flags().Float64Var(&want, "want", 0.5, "target value")
	return cmd
}

func newLiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "live",
		Short: "run the resolved config in the interactive viewer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			m, err := mc.ParseMode(cfg.Run.Mode)
			if err != nil {
				return err
			}
			sys, err := experiment.NewRegistry().Build(cfg, nil)
			if err != nil {
				return err
			}
			name := cfg.Name
			if name == "" {
				name = "latgas"
			}
			return viz.RunLive(sys, m, name, cfg.Lattice.Fill)
		},
	}
	addSystemFlags(cmd)
	return cmd
}

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "time every backend on the same trajectory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			cfg.ResolveSeed()
			m, err := mc.ParseMode(cfg.Run.Mode)
			if err != nil {
				return err
			}

			reg := experiment.NewRegistry()
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "BACKEND\tSTEPS\tTIME\tTRIALS/S\tFINAL E\tFINAL N")

			var energies []float64
			for _, name := range reg.ListBackends() {
				c := cfg.Clone()
				c.Run.Backend = name
				sys, err := reg.Build(c, nil)
				if err != nil {
					return err
				}
				start := time.Now()
				if _, err := sys.Run(c.Run.Steps, m); err != nil {
					return err
				}
				elapsed := time.Since(start)
				trials := float64(sys.Acceptance().Attempted)
				fmt.Fprintf(w, "%s\t%d\t%s\t%.3g\t%.6g\t%d\n", name, c.Run.Steps,
					elapsed.Round(time.Microsecond), trials/elapsed.Seconds(), sys.Energy(), sys.Population())
				energies = append(energies, sys.Energy())
			}
			w.Flush()

			for i := 1; i < len(energies); i++ {
				e := energies[i]
				if math.Abs(e-energies[0]) > 1e-9*math.Max(1, math.Abs(energies[0])) {
					logrus.Warn("backends ended on different energies; trajectories diverged")
					break
				}
			}
			return nil
		},
	}
	addSystemFlags(cmd)
	return cmd
}
