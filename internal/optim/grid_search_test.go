package optim

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/springnet/internal/automation"
	"github.com/san-kum/springnet/internal/config"
)

func TestGridSearch_FindsLowestKineticEnergy(t *testing.T) {
	base := config.DefaultConfig()
	base.Steps = 300

	g := NewGridSearch([]string{"friction", "repulsion"}, [][]float64{{0, 0.5}, {0.05, 0.1}})
	best, val, points, err := g.Search(context.Background(), base, "kinetic_energy")
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 4 {
		t.Errorf("evaluated %d points, want 4", len(points))
	}
	if best["friction"] != 0.5 {
		t.Errorf("more friction should settle faster, best = %v", best)
	}
	for _, p := range points {
		if p.Err == nil && p.Value < val {
			t.Errorf("point %v beats the reported best %v", p.Params, val)
		}
	}
}

func TestGridSearch_Errors(t *testing.T) {
	base := config.DefaultConfig()
	base.Steps = 10

	if _, _, _, err := NewGridSearch([]string{"gravity"}, [][]float64{{1}}).Search(context.Background(), base, "energy"); !errors.Is(err, automation.ErrUnknownParam) {
		t.Errorf("expected ErrUnknownParam, got %v", err)
	}
	if _, _, _, err := NewGridSearch([]string{"friction"}, nil).Search(context.Background(), base, "energy"); err == nil {
		t.Error("mismatched ranges should fail")
	}

	_, _, points, err := NewGridSearch([]string{"dt"}, [][]float64{{0, -1}}).Search(context.Background(), base, "energy")
	if !errors.Is(err, ErrNoFeasiblePoint) || len(points) != 2 {
		t.Errorf("expected ErrNoFeasiblePoint over 2 points, got %v (%d)", err, len(points))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, _, err := NewGridSearch([]string{"friction"}, [][]float64{{0.1}}).Search(ctx, base, "energy"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
