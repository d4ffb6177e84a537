package physics

import (
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

// Keyframe is one (time, value) sample of an animation track. Values are
// expected in [0, 1].
type Keyframe struct {
	Time  float64
	Value float64
}

// AddAnimationData installs per-label keyframe tracks. Times are multiplied by
// timeScale and sorted. Labels are resolved to bodies once, here; a label no
// body carries is an error, and bodies without a track keep their color.
func (s *System) AddAnimationData(data map[string][]Keyframe, timeScale float64) error {
	byLabel := make(map[string][]BodyID, len(s.bodies))
	for i := range s.bodies {
		byLabel[s.bodies[i].Label] = append(byLabel[s.bodies[i].Label], BodyID(i))
	}

	tracks := make(map[BodyID][]Keyframe, len(data))
	for label, points := range data {
		ids, ok := byLabel[label]
		if !ok {
			return fmt.Errorf("%w %q", ErrUnknownLabel, label)
		}
		if len(points) == 0 {
			continue
		}
		scaled := make([]Keyframe, len(points))
		for i, p := range points {
			scaled[i] = Keyframe{Time: p.Time * timeScale, Value: p.Value}
		}
		sort.SliceStable(scaled, func(i, j int) bool { return scaled[i].Time < scaled[j].Time })
		for _, id := range ids {
			tracks[id] = scaled
		}
	}
	s.tracks = tracks
	return nil
}

func (s *System) HasAnimation() bool { return s.tracks != nil }

func (s *System) AnimationClock() float64 { return s.clock }

func (s *System) AnimationPlaying() bool { return s.playing }

func (s *System) SetAnimationPlaying(playing bool) { s.playing = playing }

func (s *System) ToggleAnimation() { s.playing = !s.playing }

func (s *System) RewindAnimation() { s.clock = 0 }

func (s *System) advanceAnimation(timestep float64) {
	s.clock += timestep
	for id, points := range s.tracks {
		s.bodies[id].Color = ColorFromValue(valueAt(points, s.clock))
	}
}

// valueAt linearly interpolates on the bracket t1 < clock <= t2. A clock
// outside every bracket, before the track starts as well as after it ends,
// takes the last value.
func valueAt(points []Keyframe, clock float64) float64 {
	for i := 0; i < len(points)-1; i++ {
		p1, p2 := points[i], points[i+1]
		if p1.Time < clock && clock <= p2.Time {
			return p1.Value + (p2.Value-p1.Value)*(clock-p1.Time)/(p2.Time-p1.Time)
		}
	}
	return points[len(points)-1].Value
}

// ColorFromValue maps [0, 1] onto a blue to red ramp with a square-root bias.
// Out-of-range values are clamped.
func ColorFromValue(value float64) colorful.Color {
	x := math.Sqrt(math.Max(0, math.Min(1, value)))
	return colorful.Color{R: x, G: 0, B: 1 - x}
}

// LoadAnimation reads a YAML file of the form
//
//	label: [[time, value], ...]
func LoadAnimation(path string) (map[string][]Keyframe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseAnimation(data)
}

func ParseAnimation(data []byte) (map[string][]Keyframe, error) {
	var raw map[string][][2]float64
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("physics: parse animation: %w", err)
	}
	out := make(map[string][]Keyframe, len(raw))
	for label, points := range raw {
		frames := make([]Keyframe, len(points))
		for i, p := range points {
			frames[i] = Keyframe{Time: p[0], Value: p[1]}
		}
		out[label] = frames
	}
	return out, nil
}
