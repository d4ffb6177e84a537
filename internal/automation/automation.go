package automation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/springnet/internal/config"
	"github.com/san-kum/springnet/internal/experiment"
	"github.com/san-kum/springnet/internal/physics"
	"github.com/san-kum/springnet/internal/sim"
)

var (
	ErrUnknownAction = errors.New("automation: unknown action")
	ErrUnknownBody   = errors.New("automation: no body with label")
	ErrUnknownParam  = errors.New("automation: unknown parameter")
)

// Scenario actions.
const (
	ActionSetRepulsion = "set_repulsion"
	ActionSetFriction  = "set_friction"
	ActionAgitate      = "agitate"
	ActionToggleLock   = "toggle_lock"
	ActionMove         = "move"
	ActionPlay         = "play"
	ActionPause        = "pause"
	ActionRewind       = "rewind"
)

// Scenario is a scripted run: a layout config plus events fired at fixed
// simulated times.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Config      *config.Config `yaml:"config"`
	Events      []Event        `yaml:"events"`
}

// Event fires once, on the first step whose time is at or past At.
// Value is used by the set_* actions, Label by toggle_lock and move, X and Y
// by move.
type Event struct {
	At     float64 `yaml:"at" json:"at,omitempty"`
	Action string  `yaml:"action" json:"action"`
	Value  float64 `yaml:"value" json:"value,omitempty"`
	Label  string  `yaml:"label" json:"label,omitempty"`
	X      float64 `yaml:"x" json:"x,omitempty"`
	Y      float64 `yaml:"y" json:"y,omitempty"`
}

// Fired records an applied event.
type Fired struct {
	Event Event
	Step  int
	Time  float64
}

type ScenarioResult struct {
	Result *sim.Result
	Fired  []Fired
}

// LoadScenario loads a scenario from a YAML file. A missing config section
// means the defaults.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	scenario := Scenario{Config: config.DefaultConfig()}
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	for i, e := range scenario.Events {
		if !knownAction(e.Action) {
			return nil, fmt.Errorf("event %d: %w: %q", i, ErrUnknownAction, e.Action)
		}
	}
	sort.SliceStable(scenario.Events, func(i, j int) bool {
		return scenario.Events[i].At < scenario.Events[j].At
	})
	return &scenario, nil
}

func knownAction(a string) bool {
	switch a {
	case ActionSetRepulsion, ActionSetFriction, ActionAgitate, ActionToggleLock,
		ActionMove, ActionPlay, ActionPause, ActionRewind:
		return true
	}
	return false
}

// RunScenario builds the scenario's layout and runs it, firing events from an
// observer before the step they fall on.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, log zerolog.Logger) (*ScenarioResult, error) {
	exp := experiment.New(scenario.Config, registry)
	exp.SetLogger(log)
	if err := exp.Setup(nil); err != nil {
		return nil, fmt.Errorf("scenario %s setup: %w", scenario.Name, err)
	}

	out := &ScenarioResult{}
	next := 0
	var applyErr error
	exp.GetSimulator().AddObserver(sim.ObserverFunc(func(sys *physics.System, step int, t float64) {
		for next < len(scenario.Events) && scenario.Events[next].At <= t+1e-9 && applyErr == nil {
			e := scenario.Events[next]
			if err := ApplyEvent(sys, e); err != nil {
				applyErr = fmt.Errorf("event %d (%s at %.2f): %w", next, e.Action, e.At, err)
				return
			}
			log.Debug().Str("action", e.Action).Float64("t", t).Int("step", step).Msg("event fired")
			out.Fired = append(out.Fired, Fired{Event: e, Step: step, Time: t})
			next++
		}
	}))

	result, err := exp.Run(ctx)
	out.Result = result
	if applyErr != nil {
		return out, applyErr
	}
	if err != nil {
		return out, fmt.Errorf("scenario %s run: %w", scenario.Name, err)
	}
	if next < len(scenario.Events) {
		log.Warn().Int("pending", len(scenario.Events)-next).Msg("scenario ended before all events fired")
	}
	return out, nil
}

// ApplyEvent performs the action of e on sys immediately, ignoring At.
func ApplyEvent(sys *physics.System, e Event) error {
	switch e.Action {
	case ActionSetRepulsion:
		sys.Params.Repulsion = e.Value
	case ActionSetFriction:
		sys.Params.Friction = e.Value
	case ActionAgitate:
		sys.Agitate()
	case ActionToggleLock:
		id, err := bodyByLabel(sys, e.Label)
		if err != nil {
			return err
		}
		sys.ToggleLock(id)
	case ActionMove:
		id, err := bodyByLabel(sys, e.Label)
		if err != nil {
			return err
		}
		sys.SetPosition(id, r2.Vec{X: e.X, Y: e.Y})
	case ActionPlay:
		sys.SetAnimationPlaying(true)
	case ActionPause:
		sys.SetAnimationPlaying(false)
	case ActionRewind:
		sys.RewindAnimation()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, e.Action)
	}
	return nil
}

func bodyByLabel(sys *physics.System, label string) (physics.BodyID, error) {
	for i, b := range sys.Bodies() {
		if b.Label == label {
			return physics.BodyID(i), nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownBody, label)
}
