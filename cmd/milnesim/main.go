package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/milnesim/internal/config"
	"github.com/san-kum/milnesim/internal/viz"
)

var (
	dataDir string
	verbose bool
	quiet   bool
	theme   string

	starter        []string
	x0             float64
	y0             float64
	targetX        float64
	h              float64
	maxErr         float64
	policy         string
	maxRefinements int
	minH           float64
	halveAt        float64
	strict         bool
	searchH        bool
	searchTrials   int
	// Config file
	configFile string
	// Preset name, group/name
	preset string
	noSave bool

	tolerances []float64
	policies   []string
	parallel   int

	outPath  string
	plotKind string
	benchN   int

	grid    []string
	measure string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "milnesim",
		Short: "milne predictor-corrector integrator with step halving",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(newLogger())
			viz.SetTheme(theme)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".milnesim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "log errors only")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", "default", "report theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	runCmd := &cobra.Command{
		Use:   "run [equation]",
		Short: "integrate an equation and store the run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runIntegration,
	}
	addProblemFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	searchCmd := &cobra.Command{
		Use:   "search [equation]",
		Short: "find a starting step size from one-step and two-half-step taylor estimates",
		Args:  cobra.MaximumNArgs(1),
		RunE:  searchStepSize,
	}
	addProblemFlags(searchCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export the full run trace as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	exportPlotCmd := &cobra.Command{
		Use:   "export-plot [run_id]",
		Short: "render a stored run to an image (png, svg, pdf)",
		Args:  cobra.ExactArgs(1),
		RunE:  exportPlot,
	}
	exportPlotCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file, format from extension (default <run_id>.png)")
	exportPlotCmd.Flags().StringVar(&plotKind, "kind", "solution", "solution or discrepancy")

	presetsCmd := &cobra.Command{
		Use:   "presets [group]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			groups := config.Groups()
			if len(args) > 0 {
				groups = args
			}
			for _, g := range groups {
				presets := config.ListPresets(g)
				if len(presets) == 0 {
					fmt.Printf("no presets for group: %s\n", g)
					continue
				}
				fmt.Printf("%s:\n", g)
				for _, p := range presets {
					cfg := config.GetPreset(g, p)
					fmt.Printf("  %s/%s\t%s, max_err=%g, policy=%s\n", g, p, cfg.Equation, cfg.MaxErr, cfg.Policy)
				}
			}
			return nil
		},
	}

	compareCmd := &cobra.Command{
		Use:   "compare [equation]",
		Short: "run the same problem over several tolerances or refine policies in parallel",
		Args:  cobra.MaximumNArgs(1),
		RunE:  compareRuns,
	}
	addProblemFlags(compareCmd)
	compareCmd.Flags().Float64SliceVar(&tolerances, "tolerances", nil, "tolerances to compare")
	compareCmd.Flags().StringSliceVar(&policies, "policies", nil, "refine policies to compare (none, once, repeat)")
	compareCmd.Flags().IntVar(&parallel, "parallel", 4, "runs in flight")

	benchCmd := &cobra.Command{
		Use:   "bench [equation]",
		Short: "benchmark the integrator over several step sizes",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchEquation,
	}
	benchCmd.Flags().IntVar(&benchN, "n", 20, "runs per step size")

	equationsCmd := &cobra.Command{
		Use:   "equations",
		Short: "list the built-in equations and starters",
		Run: func(cmd *cobra.Command, args []string) {
			listEquations()
		},
	}

	batchCmd := &cobra.Command{
		Use:   "batch <scenario.yaml>",
		Short: "run the steps of a scenario file in order",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	tuneCmd := &cobra.Command{
		Use:   "tune [equation]",
		Short: "grid search run settings for the smallest measure",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tuneGrid,
	}
	addProblemFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&grid, "grid", nil, "parameter values, e.g. h=0.1,0.05 (repeatable)")
	tuneCmd.Flags().StringVar(&measure, "measure", "global_error", "metric, steps, refinements, warnings or max_discrepancy")

	rootCmd.AddCommand(runCmd, searchCmd, listCmd, plotCmd, exportCmd, exportJSONCmd, exportPlotCmd, presetsCmd, compareCmd, benchCmd, equationsCmd, batchCmd, tuneCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addProblemFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&starter, "starter", []string{"rk4"}, "starter, or a per-step list such as taylor,taylor,rk4")
	cmd.Flags().Float64Var(&x0, "x0", 0, "initial x")
	cmd.Flags().Float64Var(&y0, "y0", 1, "initial y")
	cmd.Flags().Float64Var(&targetX, "target", config.DefaultTargetX, "integrate up to this x")
	cmd.Flags().Float64Var(&h, "h", config.DefaultH, "initial step size")
	cmd.Flags().Float64Var(&maxErr, "max-err", config.DefaultMaxErr, "tolerance on |corrected - predicted|")
	cmd.Flags().StringVar(&policy, "policy", config.DefaultPolicy, "refine policy: none, once or repeat")
	cmd.Flags().IntVar(&maxRefinements, "max-refinements", config.DefaultMaxRefinements, "halving limit for the repeat policy")
	cmd.Flags().Float64Var(&minH, "min-h", config.DefaultMinH, "never halve below this step size")
	cmd.Flags().Float64Var(&halveAt, "halve-at", 0, "halve h once when x reaches this value")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail instead of warning when the tolerance cannot be met")
	cmd.Flags().BoolVar(&searchH, "search", false, "choose h with the taylor error estimate first")
	cmd.Flags().IntVar(&searchTrials, "trials", config.DefaultSearchTrials, "maximum halvings during the search")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration (group/name)")
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
