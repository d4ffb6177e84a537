package main

import (
	"github.com/spf13/cobra"

	"github.com/san-kum/springnet/internal/experiment"
	"github.com/san-kum/springnet/internal/stream"
)

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	addr, _ := cmd.Flags().GetString("addr")
	rate, _ := cmd.Flags().GetInt("tick-rate")

	exp := experiment.New(cfg, experiment.NewRegistry())
	exp.SetLogger(log)
	if err := exp.Setup(nil); err != nil {
		return err
	}

	hub := stream.NewHub(exp.System(), cfg.Name, cfg.Dt,
		stream.WithLogger(log),
		stream.WithTickRate(rate),
	)

	ctx, cancel := signalContext()
	defer cancel()
	return stream.Serve(ctx, addr, hub)
}
