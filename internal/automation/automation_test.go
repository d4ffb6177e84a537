package automation

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/san-kum/springnet/internal/config"
	"github.com/san-kum/springnet/internal/experiment"
)

const scenarioYAML = `
name: lock-and-kick
config:
  graph: {source: complete, n: 4}
  steps: 100
  seed: 3
events:
  - {at: 1.0, action: agitate}
  - {at: 0.5, action: set_friction, value: 0.3}
  - {at: 2, action: toggle_lock, label: "1"}
  - {at: 2.5, action: move, label: "2", x: 10, y: 10}
  - {at: 99, action: rewind}
`

func TestParseScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}
	if sc.Config.Graph.N != 4 || sc.Config.Steps != 100 {
		t.Errorf("config not decoded: %+v", sc.Config.Graph)
	}
	if sc.Config.Dt != config.DefaultDt || sc.Config.Mapping.Stiffness != "identity" {
		t.Error("missing config fields should keep their defaults")
	}
	if sc.Events[0].Action != ActionSetFriction || sc.Events[1].Action != ActionAgitate {
		t.Errorf("events not sorted by time: %+v", sc.Events)
	}

	if _, err := ParseScenario([]byte("events: [{at: 1, action: explode}]")); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("expected ErrUnknownAction, got %v", err)
	}
}

func TestRunScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(scenarioYAML), 0644); err != nil {
		t.Fatal(err)
	}
	sc, err := LoadScenario(path)
	if err != nil {
		t.Fatal(err)
	}

	out, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), zerolog.Nop())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.Result.StepsTaken != 100 {
		t.Errorf("steps taken = %d", out.Result.StepsTaken)
	}
	if len(out.Fired) != 4 {
		t.Fatalf("fired %d events, want 4 (the last is past the end)", len(out.Fired))
	}
	if out.Fired[0].Step != 10 || out.Fired[1].Step != 20 {
		t.Errorf("events fired at steps %d and %d, want 10 and 20", out.Fired[0].Step, out.Fired[1].Step)
	}
	for _, f := range out.Fired {
		if f.Time+1e-9 < f.Event.At {
			t.Errorf("%s fired early at %v", f.Event.Action, f.Time)
		}
	}
}

func TestRunScenario_UnknownBody(t *testing.T) {
	sc, err := ParseScenario([]byte(`
config: {steps: 20}
events: [{at: 0, action: toggle_lock, label: nobody}]
`))
	if err != nil {
		t.Fatal(err)
	}
	_, err = RunScenario(context.Background(), sc, nil, zerolog.Nop())
	if !errors.Is(err, ErrUnknownBody) {
		t.Errorf("expected ErrUnknownBody, got %v", err)
	}
}

func TestSweep(t *testing.T) {
	base := config.DefaultConfig()
	base.Steps = 100

	sweep := &ParameterSweep{Base: base, Param: "friction", Min: 0, Max: 0.4, NumSteps: 3}
	results, err := RunSweep(context.Background(), sweep, experiment.NewRegistry(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	for i, want := range []float64{0, 0.2, 0.4} {
		if math.Abs(results[i].ParamValue-want) > 1e-12 {
			t.Errorf("point %d = %v, want %v", i, results[i].ParamValue, want)
		}
		if results[i].Err != nil || results[i].StepsTaken != 100 {
			t.Errorf("point %d: err=%v steps=%d", i, results[i].Err, results[i].StepsTaken)
		}
		if _, ok := results[i].Metrics["energy"]; !ok {
			t.Errorf("point %d has no energy metric", i)
		}
	}
	if base.Physics.Friction != config.DefaultFriction {
		t.Error("sweep must not modify the base config")
	}

	if one := (&ParameterSweep{Min: 2, Max: 5, NumSteps: 1}).Values(); len(one) != 1 || one[0] != 2 {
		t.Errorf("single-step sweep = %v", one)
	}

	sweep.Param = "gravity"
	if _, err := RunSweep(context.Background(), sweep, nil, zerolog.Nop()); !errors.Is(err, ErrUnknownParam) {
		t.Errorf("expected ErrUnknownParam, got %v", err)
	}
}

func TestMonteCarlo(t *testing.T) {
	base := config.DefaultConfig()
	base.Steps = 150

	results, err := RunMonteCarlo(context.Background(), &MonteCarloConfig{
		Base:      base,
		NumTrials: 4,
		SeedStart: 10,
		Workers:   2,
	}, nil, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 4 {
		t.Fatalf("got %d trials", len(results))
	}
	for i, r := range results {
		if r.Seed != 10+int64(i) || r.TrialID != i {
			t.Errorf("trial %d has seed %d", i, r.Seed)
		}
	}
	stable, unstable := MonteCarloStats(results)
	if stable+unstable != 4 || stable == 0 {
		t.Errorf("stable=%d unstable=%d", stable, unstable)
	}
	if s := Summarize(results)["energy"]; s.N != stable+unstable-countErrs(results) {
		t.Errorf("energy summary over %d trials", s.N)
	}
}

func countErrs(rs []MonteCarloResult) int {
	n := 0
	for _, r := range rs {
		if r.Err != nil {
			n++
		}
	}
	return n
}

func TestSummarize(t *testing.T) {
	results := []MonteCarloResult{
		{Metrics: map[string]float64{"a": 1, "b": 5}},
		{Metrics: map[string]float64{"a": 3}},
		{Metrics: map[string]float64{"a": 100}, Err: errors.New("diverged")},
	}
	s := Summarize(results)

	a := s["a"]
	if a.N != 2 || a.Mean != 2 || a.Min != 1 || a.Max != 3 {
		t.Errorf("summary a = %+v", a)
	}
	if math.Abs(a.StdDev-math.Sqrt2) > 1e-12 {
		t.Errorf("stddev = %v, want sqrt(2)", a.StdDev)
	}
	if b := s["b"]; b.N != 1 || b.StdDev != 0 {
		t.Errorf("single sample summary = %+v", b)
	}
	if names := SummaryNames(s); len(names) != 2 || names[0] != "a" {
		t.Errorf("names = %v", names)
	}
}
