package physics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestNewBody_Derived(t *testing.T) {
	b := NewBody(r2.Vec{X: 1, Y: 2}, 4, 5, "a")

	if math.Abs(b.Radius-0.4) > 1e-12 {
		t.Errorf("radius = %f, want 0.4", b.Radius)
	}
	if math.Abs(b.Charge-2) > 1e-12 {
		t.Errorf("charge = %f, want 2", b.Charge)
	}
	if b.Locked {
		t.Error("new body should not be locked")
	}
}

func TestApplyImpulse(t *testing.T) {
	tests := []struct {
		name     string
		mass     float64
		locked   bool
		force    r2.Vec
		duration float64
		want     r2.Vec
	}{
		{"unit", 1, false, r2.Vec{X: 1, Y: 0}, 0.1, r2.Vec{X: 0.1, Y: 0}},
		{"heavy", 4, false, r2.Vec{X: 2, Y: -4}, 1, r2.Vec{X: 0.5, Y: -1}},
		{"locked", 1, true, r2.Vec{X: 10, Y: 10}, 1, r2.Vec{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBody(r2.Vec{}, tt.mass, 5, "")
			b.Locked = tt.locked
			b.ApplyImpulse(tt.force, tt.duration)
			if math.Abs(b.Velocity.X-tt.want.X) > 1e-12 || math.Abs(b.Velocity.Y-tt.want.Y) > 1e-12 {
				t.Errorf("velocity = %v, want %v", b.Velocity, tt.want)
			}
		})
	}
}

func TestToggleLock_ZeroesVelocity(t *testing.T) {
	b := NewBody(r2.Vec{}, 1, 5, "")
	b.Velocity = r2.Vec{X: 3, Y: -2}

	b.ToggleLock()
	if !b.Locked {
		t.Fatal("expected locked")
	}
	if b.Velocity != (r2.Vec{}) {
		t.Errorf("velocity should be zero after locking, got %v", b.Velocity)
	}

	b.ToggleLock()
	if b.Locked {
		t.Error("expected unlocked")
	}
}

func TestUpdatePosition(t *testing.T) {
	b := NewBody(r2.Vec{X: 1, Y: 1}, 1, 5, "")
	b.Velocity = r2.Vec{X: 2, Y: -1}
	b.UpdatePosition(0.5)

	if b.Position != (r2.Vec{X: 2, Y: 0.5}) {
		t.Errorf("position = %v, want {2 0.5}", b.Position)
	}
}

func TestSetPosition_KeepsVelocity(t *testing.T) {
	b := NewBody(r2.Vec{}, 1, 5, "")
	b.Velocity = r2.Vec{X: 1, Y: 1}
	b.SetPosition(r2.Vec{X: 9, Y: 9})

	if b.Position != (r2.Vec{X: 9, Y: 9}) {
		t.Errorf("position = %v", b.Position)
	}
	if b.Velocity != (r2.Vec{X: 1, Y: 1}) {
		t.Errorf("velocity should survive a direct move, got %v", b.Velocity)
	}
}
