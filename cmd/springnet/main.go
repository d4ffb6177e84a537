package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/san-kum/springnet/internal/config"
	"github.com/san-kum/springnet/internal/experiment"
	"github.com/san-kum/springnet/internal/export"
	"github.com/san-kum/springnet/internal/physics"
	"github.com/san-kum/springnet/internal/storage"
	"github.com/san-kum/springnet/internal/stream"
	"github.com/san-kum/springnet/internal/viz"
)

var (
	dataDir    string
	envFile    string
	verbose    bool
	configFile string
	preset     string

	// layout overrides
	source    string
	graphFile string
	numBodies int
	springs   int
	sample    string
	repulsion float64
	friction  float64
	dt        float64
	steps     int
	seed      int64
	animation string
	autoplay  bool

	// output
	outFile   string
	svgWidth  int
	svgHeight int
	bodyIndex int
	theme     string

	log zerolog.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "springnet",
		Short:         "force-directed graph layout by mass-spring simulation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log = newLogger(verbose)
			return config.LoadEnvFile(envFile)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".springnet", "data directory")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file with SPRINGNET_* variables")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a layout headless and save it",
		Args:  cobra.NoArgs,
		RunE:  runLayout,
	}
	addLayoutFlags(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot energies of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&bodyIndex, "body", -1, "also plot the x and y of this body")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a saved run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "write the frames of a saved run as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	layoutCmd := &cobra.Command{
		Use:   "layout",
		Short: "run a layout and render the result as SVG",
		Args:  cobra.NoArgs,
		RunE:  renderLayout,
	}
	addLayoutFlags(layoutCmd)
	layoutCmd.Flags().StringVarP(&outFile, "out", "o", "layout.svg", "output SVG")
	layoutCmd.Flags().IntVar(&svgWidth, "width", 800, "image width")
	layoutCmd.Flags().IntVar(&svgHeight, "height", 600, "image height")
	layoutCmd.Flags().Bool("trajectories", false, "draw body paths instead of the final layout")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "interactive terminal viewer",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addLayoutFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", viz.ThemeClassic.Name, "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	presetsCmd := &cobra.Command{
		Use:   "presets [group]",
		Short: "list presets, optionally for one graph source",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run a layout across a range of one parameter",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addLayoutFlags(sweepCmd)
	sweepCmd.Flags().String("param", "friction", "parameter to vary")
	sweepCmd.Flags().Float64("min", 0.01, "first value")
	sweepCmd.Flags().Float64("max", 1.0, "last value")
	sweepCmd.Flags().Int("points", 10, "number of values")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search repulsion and friction for the lowest metric",
		Args:  cobra.NoArgs,
		RunE:  runTune,
	}
	addLayoutFlags(tuneCmd)
	tuneCmd.Flags().String("repulsion-values", "0.05,0.1,0.2", "comma separated repulsion values")
	tuneCmd.Flags().String("friction-values", "0.05,0.1,0.3", "comma separated friction values")
	tuneCmd.Flags().String("metric", "kinetic_energy", "metric to minimize")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "run a layout from many random placements",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	addLayoutFlags(monteCarloCmd)
	monteCarloCmd.Flags().Int("trials", 20, "number of placements")
	monteCarloCmd.Flags().Int("workers", 0, "parallel trials (0 = all CPUs)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "spectrum and relaxation of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	divergenceCmd := &cobra.Command{
		Use:   "divergence",
		Short: "estimate how fast nearby placements separate",
		Args:  cobra.NoArgs,
		RunE:  runDivergence,
	}
	addLayoutFlags(divergenceCmd)
	divergenceCmd.Flags().Float64("perturbation", 1e-6, "initial offset of every free body")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "stream a live layout to websocket clients",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	addLayoutFlags(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().Int("tick-rate", stream.DefaultTickHz, "steps per second")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportJSONCmd, exportCSVCmd, layoutCmd, liveCmd,
		presetsCmd, sweepCmd, tuneCmd, scenarioCmd, monteCarloCmd, analyzeCmd, divergenceCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func addLayoutFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "preset as group/name, see 'presets'")
	f.StringVar(&source, "source", config.SourceComplete, "graph source: file, complete, random or sample")
	f.StringVar(&graphFile, "graph", "", "graph file (sets --source file)")
	f.IntVar(&numBodies, "n", 6, "vertices for complete and random graphs")
	f.IntVar(&springs, "springs", 0, "springs for random graphs")
	f.StringVar(&sample, "sample", "", "built-in graph (sets --source sample)")
	f.Float64Var(&repulsion, "repulsion", physics.DefaultRepulsion, "repulsion coefficient")
	f.Float64Var(&friction, "friction", physics.DefaultFriction, "friction coefficient")
	f.Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	f.IntVar(&steps, "steps", config.DefaultSteps, "steps to simulate")
	f.Int64Var(&seed, "seed", config.DefaultSeed, "placement and agitation seed")
	f.StringVar(&animation, "animation", "", "animation file (yaml)")
	f.BoolVar(&autoplay, "autoplay", false, "start the animation immediately")
}

// resolveConfig layers preset, config file, environment and finally the
// flags the user set explicitly.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	var base *config.Config
	if preset != "" {
		group, name, ok := strings.Cut(preset, "/")
		if !ok {
			return nil, fmt.Errorf("preset must be group/name, got %q", preset)
		}
		base = config.GetPreset(group, name)
		if base == nil {
			return nil, fmt.Errorf("unknown preset: %s (available in %s: %v)", preset, group, config.ListPresets(group))
		}
	}

	cfg, err := config.Resolve(base, configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("source") {
		cfg.Graph.Source = source
	}
	if flags.Changed("graph") {
		cfg.Graph.Source, cfg.Graph.Path = config.SourceFile, graphFile
		cfg.Name = strings.TrimSuffix(graphFile, ".yaml")
	}
	if flags.Changed("sample") {
		cfg.Graph.Source, cfg.Graph.Sample = config.SourceSample, sample
		cfg.Name = sample
	}
	if flags.Changed("n") {
		cfg.Graph.N = numBodies
	}
	if flags.Changed("springs") {
		cfg.Graph.Springs = springs
	}
	if flags.Changed("repulsion") {
		cfg.Physics.Repulsion = repulsion
	}
	if flags.Changed("friction") {
		cfg.Physics.Friction = friction
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("animation") {
		cfg.Animation.Path = animation
	}
	if flags.Changed("autoplay") {
		cfg.Animation.Autoplay = autoplay
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runLayout(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp := experiment.New(cfg, experiment.NewRegistry())
	exp.SetLogger(log)
	if err := exp.Setup(nil); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s layout...\n", cfg.Name)
	start := time.Now()
	result, runErr := exp.Run(ctx)
	if result == nil {
		return runErr
	}
	elapsed := time.Since(start)

	sys := exp.System()
	labels := make([]string, sys.Len())
	for i, b := range sys.Bodies() {
		labels[i] = b.Label
	}
	runID, err := st.Save(storage.RunInfo{
		Name:      cfg.Name,
		Source:    cfg.Graph.Source,
		Seed:      cfg.Seed,
		Dt:        cfg.Dt,
		Steps:     cfg.Steps,
		Repulsion: cfg.Physics.Repulsion,
		Friction:  cfg.Physics.Friction,
		Labels:    labels,
	}, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d/%d, frames: %d\n", result.StepsTaken, cfg.Steps, len(result.Frames))
	fmt.Println("\nmetrics:")
	printMetrics(result.Metrics)

	if runErr != nil {
		return fmt.Errorf("run stopped early (partial run saved): %w", runErr)
	}
	return nil
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
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
	fmt.Fprintln(w, "ID\tNAME\tSOURCE\tTIME\tBODIES\tSTEPS\tDT\tREPULSION\tFRICTION")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d/%d\t%.4f\t%.4g\t%.4g\n",
			run.ID,
			run.Name,
			run.Source,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			len(run.Labels),
			run.StepsTaken,
			run.Steps,
			run.Dt,
			run.Repulsion,
			run.Friction,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
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
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("layout: %s (%s)\n", meta.Name, meta.Source)
	fmt.Printf("frames: %d\n\n", len(frames))

	kinetic := make([]float64, len(frames))
	spring := make([]float64, len(frames))
	for i, f := range frames {
		kinetic[i] = f.KineticEnergy
		spring[i] = f.SpringEnergy
	}
	plot := func(data []float64, caption string) {
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(caption),
		))
		fmt.Println()
	}
	plot(kinetic, "kinetic energy")
	plot(spring, "spring energy")

	if bodyIndex >= 0 {
		if bodyIndex >= len(frames[0].Positions) {
			return fmt.Errorf("body %d out of range (run has %d bodies)", bodyIndex, len(frames[0].Positions))
		}
		xs := make([]float64, len(frames))
		ys := make([]float64, len(frames))
		for i, f := range frames {
			xs[i], ys[i] = f.Positions[bodyIndex].X, f.Positions[bodyIndex].Y
		}
		name := strconv.Itoa(bodyIndex)
		if bodyIndex < len(meta.Labels) && meta.Labels[bodyIndex] != "" {
			name = meta.Labels[bodyIndex]
		}
		plot(xs, name+" x")
		plot(ys, name+" y")
	}

	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
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

	if outFile == "" {
		return storage.WriteJSON(os.Stdout, *meta, frames)
	}
	if err := storage.ExportJSON(outFile, *meta, frames); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", outFile)
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	frames, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}
	return storage.WriteFramesCSV(os.Stdout, frames)
}

func renderLayout(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	exp := experiment.New(cfg, experiment.NewRegistry())
	exp.SetLogger(log)
	if err := exp.Setup(nil); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}

	sys := exp.System()
	var svg string
	if trajectories, _ := cmd.Flags().GetBool("trajectories"); trajectories {
		svg = export.TrajectoryToSVG(export.Paths(result.Frames), export.BodyColors(sys), svgWidth, svgHeight)
	} else {
		vp := viz.Fit(sys.Bounds(), 1, svgWidth, svgHeight)
		svg = export.LayoutToSVG(sys, vp, svgWidth, svgHeight)
	}
	if err := export.WriteFile(outFile, svg); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d bodies, %d springs)\n", outFile, sys.Len(), len(sys.Springs()))
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	exp := experiment.New(cfg, experiment.NewRegistry())
	if err := exp.Setup(nil); err != nil {
		return err
	}
	viz.SetTheme(theme)

	m := viz.NewModel(exp.System(), cfg.Name).
		WithTimestep(cfg.Dt).
		WithExport(func(sys *physics.System, vp viz.Viewport) (string, error) {
			path := fmt.Sprintf("%s_%d.svg", cfg.Name, time.Now().Unix())
			w, h := 800, int(800*vp.Dims.Y/vp.Dims.X)
			return path, export.WriteFile(path, export.LayoutToSVG(sys, vp, w, h))
		})
	return viz.Run(m)
}

func listPresets(cmd *cobra.Command, args []string) error {
	groups := config.Groups()
	if len(args) == 1 {
		groups = []string{args[0]}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tGRAPH\tSTIFFNESS\tMASS\tSTEPS")
	found := false
	for _, group := range groups {
		for _, name := range config.ListPresets(group) {
			found = true
			p := config.GetPreset(group, name)
			g := p.Graph.Sample
			switch p.Graph.Source {
			case config.SourceComplete:
				g = fmt.Sprintf("K%d", p.Graph.N)
			case config.SourceRandom:
				g = fmt.Sprintf("random %d/%d", p.Graph.N, p.Graph.Springs)
			}
			fmt.Fprintf(w, "%s/%s\t%s\t%s\t%s\t%d\n", group, name, g, p.Mapping.Stiffness, p.Mapping.Mass, p.Steps)
		}
	}
	if !found {
		fmt.Printf("no presets for group: %s (groups: %v)\n", args[0], config.Groups())
		return nil
	}
	return w.Flush()
}
