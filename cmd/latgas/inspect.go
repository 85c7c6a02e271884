package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/latgas/internal/analysis"
	"github.com/san-kum/latgas/internal/automation"
	"github.com/san-kum/latgas/internal/config"
	"github.com/san-kum/latgas/internal/export"
	"github.com/san-kum/latgas/internal/physics"
	"github.com/san-kum/latgas/internal/storage"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newListCmd() *cobra.Command {
	var f storage.Filter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.Query(f)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tKIND\tTIME\tDIM\tL\tT\tMU\tSTEPS\tE")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.4g\t%.4g\t%d\t%.5g\n",
					run.ID,
					run.Kind,
					run.Timestamp.Format("2006-01-02 15:04:05"),
					run.Dim,
					run.Size(),
					run.T,
					run.Mu,
					run.Steps,
					run.Energy,
				)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&f.Kind, "kind", "", "only runs of this kind (run, sweep, sizes, replicas)")
	cmd.Flags().StringVar(&f.Name, "name", "", "only runs with this name")
	cmd.Flags().IntVar(&f.Dim, "dim", 0, "only runs of this dimension")
	cmd.Flags().IntVar(&f.Size, "size", 0, "only runs of this linear size")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "at most this many runs")
	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [run_id]",
		Short: "print a run's metadata and final lattice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(meta)
			if err != nil {
				return err
			}
			fmt.Print(string(out))

			if meta.Kind != automation.KindRun {
				points, err := st.LoadSweep(args[0])
				if err != nil {
					return err
				}
				fmt.Println()
				printPoints(points)
				return nil
			}
			if l, err := st.LoadLattice(args[0]); err == nil {
				fmt.Printf("\nfinal lattice (z=0):\n%s", l.String())
			}
			return nil
		},
	}
}

func newPlotCmd() *cobra.Command {
	var column string
	cmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a run's traces, or a sweep column, in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s (%s)\n\n", meta.ID, meta.Kind)

			if meta.Kind != automation.KindRun {
				points, err := st.LoadSweep(args[0])
				if err != nil {
					return err
				}
				if len(points) == 0 {
					return fmt.Errorf("no points in %s", args[0])
				}
				sort.SliceStable(points, func(i, j int) bool { return points[i].T < points[j].T })
				ys := make([]float64, len(points))
				for i, p := range points {
					if ys[i], err = export.Column(p, column); err != nil {
						return err
					}
				}
				fmt.Println(asciigraph.Plot(ys, asciigraph.Height(12), asciigraph.Width(60),
					asciigraph.Caption(fmt.Sprintf("%s vs T (%.3g..%.3g)", column, points[0].T, points[len(points)-1].T))))
				return nil
			}

			samples, err := st.LoadSamples(args[0])
			if err != nil {
				return err
			}
			if len(samples) == 0 {
				return fmt.Errorf("no samples in %s", args[0])
			}
			energy := make([]float64, len(samples))
			population := make([]float64, len(samples))
			for i, s := range samples {
				energy[i] = s.Energy
				population[i] = float64(s.Population)
			}
			fmt.Println(asciigraph.Plot(energy, asciigraph.Height(10), asciigraph.Width(60), asciigraph.Caption("energy")))
			fmt.Println()
			fmt.Println(asciigraph.Plot(population, asciigraph.Height(10), asciigraph.Width(60), asciigraph.Caption("population")))
			return nil
		},
	}
	cmd.Flags().StringVar(&column, "column", "energy", "sweep column to plot")
	return cmd
}

func newChartCmd() *cobra.Command {
	var (
		column string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "chart [run_id]",
		Short: "render a run's traces or a sweep column to an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			if out == "" {
				out = meta.ID + ".png"
			}

			if meta.Kind != automation.KindRun {
				points, err := st.LoadSweep(args[0])
				if err != nil {
					return err
				}
				err = export.SweepChart(points, column, out)
				if err != nil {
					return err
				}
			} else {
				samples, err := st.LoadSamples(args[0])
				if err != nil {
					return err
				}
				if err := export.SamplesChart(samples, meta.Name, out); err != nil {
					return err
				}
			}
			fmt.Printf("chart written to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&column, "column", "energy", "sweep column to draw")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output image (default <run_id>.png)")
	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	var blocks int
	cmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "error analysis of a run's energy and population traces",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			samples, err := st.LoadSamples(args[0])
			if err != nil {
				return err
			}
			if len(samples) < 2 {
				return fmt.Errorf("need at least 2 samples, got %d", len(samples))
			}

			energy := make([]float64, len(samples))
			population := make([]float64, len(samples))
			for i, s := range samples {
				energy[i] = s.Energy
				population[i] = float64(s.Population)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SERIES\tMEAN\tSTDDEV\tTAU\tSTDERR\tBLOCK ERR")
			for _, series := range []struct {
				name string
				xs   []float64
			}{{"energy", energy}, {"population", population}} {
				s := analysis.Summarize(series.xs)
				fmt.Fprintf(w, "%s\t%.6g\t%.4g\t%.3g\t%.3g\t%.3g\n",
					series.name, s.Mean, s.StdDev, s.Tau, s.StdErr, analysis.BlockError(series.xs, blocks))
			}
			w.Flush()

			acf := analysis.Autocorrelation(energy, min(len(energy)-1, 60))
			fmt.Println()
			fmt.Println(asciigraph.Plot(acf, asciigraph.Height(8), asciigraph.Width(60), asciigraph.Caption("energy autocorrelation")))
			return nil
		},
	}
	cmd.Flags().IntVar(&blocks, "blocks", 20, "number of blocks for the blocking estimate")
	return cmd
}

func newExportJSONCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			data, err := export.FromStore(st, args[0])
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				return export.WriteJSON(os.Stdout, data)
			}
			if err := export.ExportJSON(out, data); err != nil {
				return err
			}
			fmt.Printf("exported to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newExportSVGCmd() *cobra.Command {
	var (
		out    string
		layer  int
		scale  float64
		column string
	)
	cmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export a run's final lattice, or a sweep column, as SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			if out == "" {
				out = meta.ID + ".svg"
			}

			var svg string
			if meta.Kind == automation.KindRun {
				l, err := st.LoadLattice(args[0])
				if err != nil {
					return err
				}
				svg = export.LatticeSVG(l, layer, scale)
			} else {
				points, err := st.LoadSweep(args[0])
				if err != nil {
					return err
				}
				sort.SliceStable(points, func(i, j int) bool { return points[i].T < points[j].T })
				xs := make([]float64, len(points))
				ys := make([]float64, len(points))
				for i, p := range points {
					xs[i] = p.T
					if ys[i], err = export.Column(p, column); err != nil {
						return err
					}
				}
				svg = export.SeriesSVG(xs, ys, 800, 500, "#00ffff")
			}
			if svg == "" {
				return fmt.Errorf("nothing to draw for %s", args[0])
			}
			if err := os.WriteFile(out, []byte(svg), 0644); err != nil {
				return err
			}
			fmt.Printf("exported to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default <run_id>.svg)")
	cmd.Flags().IntVar(&layer, "layer", 0, "z layer of a 3D lattice")
	cmd.Flags().Float64Var(&scale, "scale", 10, "pixels per site")
	cmd.Flags().StringVar(&column, "column", "energy", "sweep column to draw")
	return cmd
}

func newReindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "rebuild the run index from the data directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := st.Reindex()
			if err != nil {
				return err
			}
			fmt.Printf("indexed %d runs\n", n)
			return nil
		},
	}
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list presets and interactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PRESET\tDIM\tL\tINTERACTION\tT\tMU")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\t%v\t%s\t%g\t%g\n", name, p.Lattice.Dim, p.Lattice.Lengths,
					p.Potential.Interaction, p.Thermo.Temperature, p.Thermo.Mu)
			}
			w.Flush()

			fmt.Println()
			for _, name := range physics.Names() {
				in, err := physics.New(name, nil)
				if err != nil {
					return err
				}
				keys := make([]string, 0)
				for k, v := range in.GetParams() {
					keys = append(keys, fmt.Sprintf("%s=%g", k, v))
				}
				sort.Strings(keys)
				fmt.Printf("%-14s %s\n", name, strings.Join(keys, " "))
			}
			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "print or save the resolved config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			if out != "" {
				if err := config.Save(out, cfg); err != nil {
					return err
				}
				fmt.Printf("saved to %s\n", out)
				return nil
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Print(string(data))
			return nil
		},
	}
	addSystemFlags(cmd)
	cmd.Flags().StringVarP(&out, "output", "o", "", "write the config to this file")
	return cmd
}
