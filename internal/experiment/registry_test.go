package experiment

import (
	"errors"
	"math"
	"testing"
)

func TestParseWeightFunc(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		def string
		in   float64
		want float64
	}{
		{"identity", 3, 3},
		{"const:2", 17, 2},
		{"scale:0.5", 8, 4},
		{"pow:2", 3, 9},
		{"pow:0.5:100", 10000, 1},
		{"exp2:50", 0.02, 2},
		{"sqrt", 16, 4},
		{" const:1 ", 5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.def, func(t *testing.T) {
			fn, err := r.ParseWeightFunc(tt.def)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got := fn(tt.in); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("%s(%v) = %v, want %v", tt.def, tt.in, got, tt.want)
			}
		})
	}
}

func TestParseWeightFunc_Errors(t *testing.T) {
	r := NewRegistry()

	if _, err := r.ParseWeightFunc("cubic"); !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("expected ErrUnknownStrategy, got %v", err)
	}
	for _, def := range []string{"const", "const:1:2", "pow:1:2:3", "scale:abc", "identity:1"} {
		if _, err := r.ParseWeightFunc(def); err == nil {
			t.Errorf("%q: expected error", def)
		}
	}
}

func TestSamples(t *testing.T) {
	r := NewRegistry()

	want := map[string][2]int{
		"pentagon":   {5, 5},
		"complete6":  {6, 15},
		"music":      {7, 11},
		"candidates": {6, 9},
		"politics":   {11, 19},
	}
	names := r.ListSamples()
	if len(names) != len(want) {
		t.Fatalf("samples = %v", names)
	}
	for _, name := range names {
		g, err := r.GetSample(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if len(g.Vertices) != want[name][0] || len(g.Edges) != want[name][1] {
			t.Errorf("%s: %d vertices, %d edges", name, len(g.Vertices), len(g.Edges))
		}
	}

	if _, err := r.GetSample("nope"); !errors.Is(err, ErrUnknownSample) {
		t.Errorf("expected ErrUnknownSample, got %v", err)
	}
}

func TestMetricsRegistry(t *testing.T) {
	r := NewRegistry()
	for _, name := range r.ListMetrics() {
		m, err := r.GetMetric(name)
		if err != nil {
			t.Fatal(err)
		}
		if m.Name() != name {
			t.Errorf("metric registered as %q reports name %q", name, m.Name())
		}
	}
	if _, err := r.GetMetric("nope"); !errors.Is(err, ErrUnknownMetric) {
		t.Errorf("expected ErrUnknownMetric, got %v", err)
	}
}
