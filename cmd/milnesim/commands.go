package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/milnesim/internal/automation"
	"github.com/san-kum/milnesim/internal/config"
	"github.com/san-kum/milnesim/internal/dynamo"
	"github.com/san-kum/milnesim/internal/equations"
	"github.com/san-kum/milnesim/internal/experiment"
	"github.com/san-kum/milnesim/internal/export"
	"github.com/san-kum/milnesim/internal/optim"
	"github.com/san-kum/milnesim/internal/stepsize"
	"github.com/san-kum/milnesim/internal/storage"
	"github.com/san-kum/milnesim/internal/store"
	"github.com/san-kum/milnesim/internal/viz"
)

// buildConfig layers the defaults, a preset, a config file and finally any
// flag set on the command line.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		group, name, ok := strings.Cut(preset, "/")
		if !ok {
			return nil, fmt.Errorf("preset must be group/name, got %q", preset)
		}
		p := config.GetPreset(group, name)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available in %s: %v)", preset, group, config.ListPresets(group))
		}
		cfg = p
	}

	// Load config file if specified (overrides preset)
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("starter") {
		cfg.Starter = starter
	}
	if flags.Changed("x0") {
		cfg.X0 = x0
	}
	if flags.Changed("y0") {
		cfg.Y0 = y0
	}
	if flags.Changed("target") {
		cfg.TargetX = targetX
	}
	if flags.Changed("h") {
		cfg.H = h
	}
	if flags.Changed("max-err") {
		cfg.MaxErr = maxErr
	}
	if flags.Changed("policy") {
		cfg.Policy = policy
	}
	if flags.Changed("max-refinements") {
		cfg.MaxRefinements = maxRefinements
	}
	if flags.Changed("min-h") {
		cfg.MinH = minH
	}
	if flags.Changed("halve-at") {
		at := halveAt
		cfg.HalveAtX = &at
	}
	if flags.Changed("strict") {
		cfg.Strict = strict
	}
	if flags.Changed("search") {
		cfg.SearchH = searchH
	}
	if flags.Changed("trials") {
		cfg.SearchTrials = searchTrials
	}
	if len(args) > 0 {
		cfg.Equation = args[0]
	}

	return cfg, cfg.Validate()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runIntegration(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	exp := experiment.New(cfg, experiment.WithLogger(slog.Default()))
	if err := exp.Setup(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("integrating %s...\n", exp.Equation().Expr())
	start := time.Now()
	result, err := exp.Run(ctx)
	elapsed := time.Since(start)
	if err != nil {
		if result != nil {
			printResult(cfg, exp.Equation(), result, err)
		}
		return err
	}

	printResult(cfg, exp.Equation(), result, nil)
	fmt.Printf("completed in %v\n", elapsed)

	if noSave {
		return nil
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(exp.Config(), result)
	if err != nil {
		return err
	}
	fmt.Printf("run id: %s\n", runID)
	return nil
}

func printResult(cfg *config.Config, eq equations.Equation, result *dynamo.Result, runErr error) {
	final := result.Final()
	fields := []viz.Field{
		{Label: "equation", Value: eq.Expr()},
		{Label: "status", Value: viz.Status(result, runErr)},
		{Label: "final", Value: fmt.Sprintf("y(%.6g) = %.10g", final.X, final.Y)},
		{Label: "exact", Value: fmt.Sprintf("%.10g", eq.Exact(final.X))},
		{Label: "steps", Value: fmt.Sprintf("%d", result.StepsTaken)},
		{Label: "refinements", Value: fmt.Sprintf("%d (policy %s)", result.Refinements, cfg.Policy)},
		{Label: "final h", Value: fmt.Sprintf("%g", result.H)},
		{Label: "max |D|", Value: fmt.Sprintf("%.3e (max_err %g)", result.MaxDiscrepancy(), cfg.MaxErr)},
	}
	for _, name := range []string{"mean_discrepancy", "global_error", "violations"} {
		if v, ok := result.Metrics[name]; ok {
			fields = append(fields, viz.Field{Label: name, Value: fmt.Sprintf("%.6g", v)})
		}
	}

	fmt.Println(viz.Summary("milne run", fields))
	fmt.Println(viz.EpochTable(result.Epochs))
	if len(result.Steps) > 0 {
		fmt.Println("|D| " + viz.DiscrepancySparkline(result.Steps, 60))
	}
	if w := viz.Warnings(result.Warnings, 5); w != "" {
		fmt.Println(w)
	}
}

func searchStepSize(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	eq, err := equations.Lookup(cfg.Equation)
	if err != nil {
		return err
	}
	eq.SetInitial(cfg.X0, cfg.Y0)

	res, err := stepsize.Search(eq, cfg.X0, cfg.Y0, cfg.H, cfg.MaxErr, cfg.SearchTrials)

	fmt.Printf("step size search for %s from h=%g, max_err=%g\n\n", eq.Expr(), cfg.H, cfg.MaxErr)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "H\tONE STEP\tTWO STEPS\tE(ONE)\tE(TWO)")
	if res != nil {
		for _, c := range res.Trials {
			fmt.Fprintf(w, "%g\t%.12f\t%.12f\t%.3e\t%.3e\n", c.H, c.OneStep, c.TwoStep, c.ErrOneStep, c.ErrTwoStep)
		}
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}

	fmt.Printf("\naccepted h = %g\n", res.H)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEQUATION\tTIME\tTARGET\tH\tFINAL H\tMAX_ERR\tPOLICY\tREFINED\tWARNINGS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%g\t%g\t%g\t%s\t%d\t%d\n",
			run.ID,
			run.Equation,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.TargetX,
			run.H,
			run.FinalH,
			run.MaxErr,
			run.Policy,
			run.Refinements,
			len(run.Warnings),
		)
	}

	return w.Flush()
}

// loadRun rebuilds a result from the stored metadata and samples.
func loadRun(runID string) (*storage.RunMetadata, *dynamo.Result, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	rows, err := st.LoadSamples(runID)
	if err != nil {
		return nil, nil, err
	}

	result := &dynamo.Result{
		Samples:     storage.Samples(rows),
		Epochs:      meta.Epochs,
		Warnings:    meta.Warnings,
		Metrics:     meta.Metrics,
		Refinements: meta.Refinements,
		H:           meta.FinalH,
		StepsTaken:  meta.StepsTaken,
	}
	for _, r := range rows {
		if !r.HasStep {
			continue
		}
		result.Steps = append(result.Steps, dynamo.StepResult{
			X:           r.X,
			H:           r.H,
			Predicted:   r.Predicted,
			Corrected:   r.Corrected,
			Discrepancy: r.Discrepancy,
		})
	}
	return meta, result, nil
}

func runEquation(meta *storage.RunMetadata) equations.Equation {
	eq, err := equations.Lookup(meta.Equation)
	if err != nil {
		return nil
	}
	eq.SetInitial(meta.X0, meta.Y0)
	return eq
}

func runConfig(meta *storage.RunMetadata) *config.Config {
	return &config.Config{
		Equation: meta.Equation,
		Starter:  meta.Starter,
		X0:       meta.X0,
		Y0:       meta.Y0,
		TargetX:  meta.TargetX,
		H:        meta.H,
		MaxErr:   meta.MaxErr,
		Policy:   meta.Policy,
	}
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if len(result.Samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("equation: %s\n\n", meta.Equation)

	var exact dynamo.Solution
	if eq := runEquation(meta); eq != nil {
		exact = eq
	}

	fmt.Println(viz.SolutionChart(result.Samples, exact, viz.DefaultChartWidth, viz.DefaultChartHeight))
	fmt.Println()
	if exact != nil {
		fmt.Println(viz.ErrorChart(result.Samples, exact, viz.DefaultChartWidth, viz.DefaultChartHeight/2))
		fmt.Println()
	}
	if len(result.Steps) > 0 {
		fmt.Println(viz.DiscrepancyChart(result.Steps, meta.MaxErr, viz.DefaultChartWidth, viz.DefaultChartHeight/2))
		fmt.Println()
	}
	fmt.Println(viz.EpochTable(result.Epochs))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args[0])
	if err != nil {
		return err
	}

	data := store.NewExportData(runConfig(meta), result, nil)
	if outPath == "" {
		return store.ExportJSONStdout(data)
	}
	if err := store.ExportJSON(outPath, data); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outPath)
	return nil
}

func exportPlot(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args[0])
	if err != nil {
		return err
	}

	path := outPath
	if path == "" {
		path = meta.ID + ".png"
	}

	title := fmt.Sprintf("%s, max_err=%g", meta.Equation, meta.MaxErr)
	switch plotKind {
	case "solution":
		var exact dynamo.Solution
		if eq := runEquation(meta); eq != nil {
			exact = eq
		}
		pl, err := export.Solution(title, result.Samples, exact)
		if err != nil {
			return err
		}
		if err := export.Save(pl, path); err != nil {
			return err
		}
	case "discrepancy":
		pl, err := export.Discrepancy(title, result.Steps, meta.MaxErr)
		if err != nil {
			return err
		}
		if err := export.Save(pl, path); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown plot kind: %s (solution, discrepancy)", plotKind)
	}

	fmt.Printf("wrote %s (%s)\n", path, export.Format(path))
	return nil
}

func compareRuns(cmd *cobra.Command, args []string) error {
	base, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	var variants []experiment.Variant
	if len(tolerances) > 0 {
		variants = append(variants, experiment.ToleranceVariants(base, tolerances)...)
	}
	if len(policies) > 0 {
		variants = append(variants, experiment.PolicyVariants(base, policies)...)
	}
	if len(variants) == 0 {
		variants = experiment.PolicyVariants(base, []string{"none", "once", "repeat"})
	}

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	out, err := experiment.Compare(ctx, variants, parallel, slog.Default())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	eq, err := equations.Lookup(base.Equation)
	if err != nil {
		return err
	}
	dcfg := base.Dynamo()
	eq.SetInitial(dcfg.X0, dcfg.Y0)

	fmt.Printf("comparing %d variants for %s (h=%g, target=%g)\n\n", len(out), eq.Expr(), dcfg.H, dcfg.TargetX)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VARIANT\tSTEPS\tREFINED\tFINAL H\tWARNINGS\tMAX |D|\tFINAL Y\tERROR")
	for _, c := range out {
		r := c.Result
		final := r.Final()
		fmt.Fprintf(w, "%s\t%d\t%d\t%g\t%d\t%.2e\t%.10g\t%.2e\n",
			c.Label,
			r.StepsTaken,
			r.Refinements,
			r.H,
			len(r.Warnings),
			r.MaxDiscrepancy(),
			final.Y,
			math.Abs(final.Y-eq.Exact(final.X)),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\ncompleted in %v\n", elapsed)
	return nil
}

func benchEquation(cmd *cobra.Command, args []string) error {
	name := equations.Names()[0]
	if len(args) > 0 {
		name = args[0]
	}

	hs := []float64{0.1, 0.01, 0.001}
	targets := []float64{1.0, 5.0}

	fmt.Printf("benchmarking %s\n\n", name)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TARGET\tH\tSTEPS\tTIME/RUN\tSTEPS/SEC")

	for _, target := range targets {
		for _, step := range hs {
			cfg := config.DefaultConfig()
			cfg.Equation = name
			cfg.TargetX = target
			cfg.H = step
			cfg.Policy = string(dynamo.RefineNone)

			exp := experiment.New(cfg, experiment.WithLogger(slog.New(slog.DiscardHandler)))
			if err := exp.Setup(); err != nil {
				return err
			}

			steps := 0
			start := time.Now()
			for i := 0; i < benchN; i++ {
				result, err := exp.Run(context.Background())
				if err != nil {
					return err
				}
				steps += result.StepsTaken
			}
			elapsed := time.Since(start)

			perRun := elapsed / time.Duration(max(benchN, 1))
			stepsPerSec := float64(steps) / elapsed.Seconds()

			fmt.Fprintf(w, "%g\t%g\t%d\t%v\t%.0f\n", target, step, steps/max(benchN, 1), perRun, stepsPerSec)
		}
	}

	return w.Flush()
}

func listEquations() {
	r := experiment.NewRegistry()

	fmt.Println("equations:")
	for _, name := range r.ListEquations() {
		eq, err := r.GetEquation(name)
		if err != nil {
			continue
		}
		fmt.Printf("  %-6s %s\n", name, eq.Expr())
	}

	fmt.Println("starters:")
	for _, name := range r.ListStarters() {
		fmt.Printf("  %s\n", name)
	}
}

func runBatch(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("scenario %s: %d steps\n", scenario.Name, len(scenario.Steps))
	out, err := automation.RunScenario(ctx, scenario, st, slog.Default())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tEQUATION\tSTEPS\tREFINED\tFINAL H\tWARNINGS\tFINAL Y\tRUN ID")
	for _, o := range out {
		final := o.Result.Final()
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%g\t%d\t%.10g\t%s\n",
			o.Name,
			o.Config.Equation,
			o.Result.StepsTaken,
			o.Result.Refinements,
			o.Result.H,
			len(o.Result.Warnings),
			final.Y,
			o.RunID,
		)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	return err
}

// parseGrid turns name=v1,v2 entries into parameter names and ranges.
func parseGrid(entries []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(entries))
	ranges := make([][]float64, 0, len(entries))
	for _, e := range entries {
		name, list, ok := strings.Cut(e, "=")
		if !ok {
			return nil, nil, fmt.Errorf("grid entry must be name=v1,v2: %q", e)
		}
		var vals []float64
		for _, f := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("grid %s: %w", name, err)
			}
			vals = append(vals, v)
		}
		names = append(names, strings.TrimSpace(name))
		ranges = append(ranges, vals)
	}
	return names, ranges, nil
}

func tuneGrid(cmd *cobra.Command, args []string) error {
	base, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if len(grid) == 0 {
		return fmt.Errorf("at least one --grid is required (%s)", strings.Join(optim.Tunable, ", "))
	}

	names, ranges, err := parseGrid(grid)
	if err != nil {
		return err
	}
	g, err := optim.NewGridSearch(names, ranges, slog.Default())
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	best, value, trials, err := g.Search(ctx, base, measure)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\t"+strings.ToUpper(measure))
	for _, tr := range trials {
		for _, n := range names {
			fmt.Fprintf(w, "%g\t", tr.Params[n])
		}
		if tr.Err != nil {
			fmt.Fprintf(w, "error: %v\n", tr.Err)
			continue
		}
		fmt.Fprintf(w, "%.6g\n", tr.Value)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}

	fmt.Printf("\nbest %s = %.6g at", measure, value)
	for _, n := range names {
		fmt.Printf(" %s=%g", n, best[n])
	}
	fmt.Println()
	return nil
}
