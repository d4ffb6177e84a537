package main

import (
	"errors"
	"fmt"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/springnet/internal/analysis"
	"github.com/san-kum/springnet/internal/experiment"
	"github.com/san-kum/springnet/internal/physics"
	"github.com/san-kum/springnet/internal/storage"
)

const settleThreshold = 1e-3

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(frames) < 2 {
		return fmt.Errorf("no data")
	}

	fmt.Printf("relaxation analysis: %s\n", meta.ID)
	fmt.Printf("layout: %s (%s)\n\n", meta.Name, meta.Source)

	kinetic := make([]float64, len(frames))
	for i, f := range frames {
		kinetic[i] = f.KineticEnergy
	}
	spacing := frames[1].Time - frames[0].Time

	power, _, err := analysis.PowerSpectrum(kinetic, spacing)
	switch {
	case errors.Is(err, analysis.ErrTooShort):
		fmt.Println("too few frames for a spectrum")
	case err != nil:
		return err
	default:
		fmt.Println(asciigraph.Plot(power[:len(power)/2+1],
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption("power spectrum (kinetic energy)"),
		))
		fmt.Println()
		period, _ := analysis.DominantPeriod(kinetic, spacing)
		if period > 0 {
			fmt.Printf("dominant period: %.3f s\n", period)
		} else {
			fmt.Println("dominant period: none")
		}
	}

	if rate, r2, err := analysis.DecayRate(frames); err == nil {
		fmt.Printf("decay rate: %.4f /s (r² %.3f)\n", rate, r2)
	}
	if t, ok := analysis.SettleTime(frames, settleThreshold); ok {
		fmt.Printf("settled below %g at t=%.2f\n", settleThreshold, t)
	} else {
		fmt.Printf("never settled below %g\n", settleThreshold)
	}
	return nil
}

func runDivergence(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	perturbation, _ := cmd.Flags().GetFloat64("perturbation")

	registry := experiment.NewRegistry()
	build := func() (*physics.System, error) {
		return registry.BuildSystem(cfg, cfg.Seed)
	}

	log.Debug().Str("layout", cfg.Name).Float64("perturbation", perturbation).Msg("estimating divergence")
	lambda, err := analysis.Divergence(build, perturbation, cfg.Dt, cfg.Steps)
	if err != nil {
		return err
	}

	fmt.Printf("divergence exponent: %.6f\n", lambda)
	if lambda < 0 {
		fmt.Println("nearby placements converge to the same layout")
	} else {
		fmt.Println("nearby placements drift apart")
	}
	return nil
}
