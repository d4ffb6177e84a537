package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/springnet/internal/automation"
	"github.com/san-kum/springnet/internal/experiment"
	"github.com/san-kum/springnet/internal/optim"
)

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	param, _ := cmd.Flags().GetString("param")
	lo, _ := cmd.Flags().GetFloat64("min")
	hi, _ := cmd.Flags().GetFloat64("max")
	points, _ := cmd.Flags().GetInt("points")

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunSweep(ctx, &automation.ParameterSweep{
		Base:     cfg,
		Param:    param,
		Min:      lo,
		Max:      hi,
		NumSteps: points,
	}, experiment.NewRegistry(), log)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tSTEPS\tKINETIC\tENERGY\tSTRAIN\tSTABILITY\tSTATUS\n", strings.ToUpper(param))
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = r.Err.Error()
		}
		fmt.Fprintf(w, "%.4g\t%d\t%.4g\t%.4g\t%.4g\t%.2f\t%s\n",
			r.ParamValue, r.StepsTaken, r.KineticEnergy,
			r.Metrics["energy"], r.Metrics["strain"], r.Metrics["stability"], status)
	}
	return w.Flush()
}

func parseValues(s string) ([]float64, error) {
	var vals []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("bad value %q: %w", part, err)
		}
		vals = append(vals, v)
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("no values in %q", s)
	}
	return vals, nil
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	repStr, _ := cmd.Flags().GetString("repulsion-values")
	fricStr, _ := cmd.Flags().GetString("friction-values")
	metric, _ := cmd.Flags().GetString("metric")

	reps, err := parseValues(repStr)
	if err != nil {
		return fmt.Errorf("--repulsion-values: %w", err)
	}
	frics, err := parseValues(fricStr)
	if err != nil {
		return fmt.Errorf("--friction-values: %w", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("searching %d points for the lowest %s...\n", len(reps)*len(frics), metric)
	gs := optim.NewGridSearch([]string{"repulsion", "friction"}, [][]float64{reps, frics}).WithLogger(log)
	best, val, points, err := gs.Search(ctx, cfg, metric)
	if err != nil {
		return err
	}

	sort.SliceStable(points, func(i, j int) bool {
		if (points[i].Err == nil) != (points[j].Err == nil) {
			return points[i].Err == nil
		}
		return points[i].Value < points[j].Value
	})
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "REPULSION\tFRICTION\t%s\n", strings.ToUpper(metric))
	for _, p := range points {
		v := fmt.Sprintf("%.6g", p.Value)
		if p.Err != nil {
			v = "failed: " + p.Err.Error()
		}
		fmt.Fprintf(w, "%.4g\t%.4g\t%s\n", p.Params["repulsion"], p.Params["friction"], v)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nbest: repulsion=%.4g friction=%.4g %s=%.6g\n", best["repulsion"], best["friction"], metric, val)
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running scenario %s (%d events)...\n", sc.Name, len(sc.Events))
	out, err := automation.RunScenario(ctx, sc, experiment.NewRegistry(), log)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tTIME\tACTION\tDETAIL")
	for _, f := range out.Fired {
		detail := ""
		switch f.Event.Action {
		case automation.ActionSetRepulsion, automation.ActionSetFriction:
			detail = fmt.Sprintf("%.4g", f.Event.Value)
		case automation.ActionToggleLock:
			detail = f.Event.Label
		case automation.ActionMove:
			detail = fmt.Sprintf("%s -> (%.2f, %.2f)", f.Event.Label, f.Event.X, f.Event.Y)
		}
		fmt.Fprintf(w, "%d\t%.2f\t%s\t%s\n", f.Step, f.Time, f.Event.Action, detail)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println("\nmetrics:")
	printMetrics(out.Result.Metrics)
	return nil
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	trials, _ := cmd.Flags().GetInt("trials")
	workers, _ := cmd.Flags().GetInt("workers")

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunMonteCarlo(ctx, &automation.MonteCarloConfig{
		Base:      cfg,
		NumTrials: trials,
		SeedStart: cfg.Seed,
		Workers:   workers,
	}, experiment.NewRegistry(), log)
	if err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("trials: %d, stable: %d, unstable: %d\n\n", len(results), stable, unstable)

	summary := automation.Summarize(results)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tSTDDEV\tMIN\tMAX\tN")
	for _, name := range automation.SummaryNames(summary) {
		s := summary[name]
		fmt.Fprintf(w, "%s\t%.6g\t%.3g\t%.6g\t%.6g\t%d\n", name, s.Mean, s.StdDev, s.Min, s.Max, s.N)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for _, r := range results {
		if r.Err != nil {
			log.Warn().Int64("seed", r.Seed).Err(r.Err).Msg("trial failed")
		}
	}
	return nil
}
