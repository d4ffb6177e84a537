package physics

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func quietParams() Params {
	p := DefaultParams()
	p.Repulsion = 0
	p.Friction = 0
	return p
}

func twoBodies(t *testing.T, pa, pb r2.Vec, sp Spring, p Params) *System {
	t.Helper()
	bodies := []Body{NewBody(pa, 1, 5, "a"), NewBody(pb, 1, 5, "b")}
	sys, err := NewSystem(bodies, []Spring{sp}, p, 1)
	if err != nil {
		t.Fatalf("new system: %v", err)
	}
	return sys
}

func TestStep_StretchedSpringScenario(t *testing.T) {
	sys := twoBodies(t, r2.Vec{X: 0, Y: 0}, r2.Vec{X: 2, Y: 0},
		Spring{A: 0, B: 1, Length: 1, K: 1, Damping: 0}, quietParams())

	if err := sys.Step(0.1); err != nil {
		t.Fatalf("step failed: %v", err)
	}

	va, vb := sys.Body(0).Velocity, sys.Body(1).Velocity
	if math.Abs(va.X-0.1) > 1e-12 || va.Y != 0 {
		t.Errorf("body A velocity = %v, want {0.1 0}", va)
	}
	if math.Abs(vb.X+0.1) > 1e-12 || vb.Y != 0 {
		t.Errorf("body B velocity = %v, want {-0.1 0}", vb)
	}
	if math.Abs(sys.Body(0).Position.X-0.01) > 1e-12 {
		t.Errorf("body A should have moved to x=0.01, got %f", sys.Body(0).Position.X)
	}
}

func TestStep_RestLengthIsStationary(t *testing.T) {
	sys := twoBodies(t, r2.Vec{X: 1, Y: 1}, r2.Vec{X: 1, Y: 2.5},
		Spring{A: 0, B: 1, Length: 1.5, K: 3, Damping: 0.5}, quietParams())

	for i := 0; i < 1000; i++ {
		if err := sys.Step(0.05); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	if sys.Body(0).Position != (r2.Vec{X: 1, Y: 1}) || sys.Body(1).Position != (r2.Vec{X: 1, Y: 2.5}) {
		t.Errorf("bodies drifted: %v %v", sys.Body(0).Position, sys.Body(1).Position)
	}
	if sys.KineticEnergy() != 0 {
		t.Errorf("kinetic energy = %g, want 0", sys.KineticEnergy())
	}
}

func TestStep_DampingOpposesAxialVelocity(t *testing.T) {
	tests := []struct {
		name   string
		va, vb r2.Vec
		wantA  r2.Vec
		wantB  r2.Vec
	}{
		// force on a is 0.5*(vb-va) along the axis, so dt 0.1 removes 10% of
		// the relative axial speed; the tangential 0.3 is untouched.
		{"separating", r2.Vec{X: -1, Y: 0.3}, r2.Vec{X: 1}, r2.Vec{X: -0.9, Y: 0.3}, r2.Vec{X: 0.9}},
		{"approaching", r2.Vec{X: 1, Y: 0.3}, r2.Vec{X: -1}, r2.Vec{X: 0.9, Y: 0.3}, r2.Vec{X: -0.9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := twoBodies(t, r2.Vec{}, r2.Vec{X: 1}, Spring{A: 0, B: 1, Length: 1, K: 1, Damping: 0.5}, quietParams())
			sys.Body(0).Velocity = tt.va
			sys.Body(1).Velocity = tt.vb
			axial := func() float64 { return math.Abs(sys.Body(1).Velocity.X - sys.Body(0).Velocity.X) }
			before := axial()

			if err := sys.Step(0.1); err != nil {
				t.Fatal(err)
			}
			for i, want := range []r2.Vec{tt.wantA, tt.wantB} {
				got := sys.Body(BodyID(i)).Velocity
				if math.Abs(got.X-want.X) > 1e-12 || math.Abs(got.Y-want.Y) > 1e-12 {
					t.Errorf("body %d velocity = %v, want %v", i, got, want)
				}
			}
			if after := axial(); math.Abs(after-0.9*before) > 1e-12 {
				t.Errorf("relative axial speed %v -> %v, want %v", before, after, 0.9*before)
			}
		})
	}
}

func TestStep_FrictionDecay(t *testing.T) {
	p := quietParams()
	p.Friction = 0.5
	b := NewBody(r2.Vec{}, 2, 5, "solo")
	b.Velocity = r2.Vec{X: 3, Y: 4}
	sys, err := NewSystem([]Body{b}, nil, p, 1)
	if err != nil {
		t.Fatal(err)
	}

	prev := sys.Body(0).Speed()
	for i := 0; i < 200; i++ {
		if err := sys.Step(0.1); err != nil {
			t.Fatal(err)
		}
		speed := sys.Body(0).Speed()
		if speed >= prev {
			t.Fatalf("step %d: speed %g did not decrease from %g", i, speed, prev)
		}
		prev = speed
	}
	if prev > 1e-3 {
		t.Errorf("speed should approach zero, got %g", prev)
	}
}

func TestStep_LockedBodyStaysPut(t *testing.T) {
	sys := twoBodies(t, r2.Vec{X: 0, Y: 0}, r2.Vec{X: 3, Y: 0},
		Spring{A: 0, B: 1, Length: 1, K: 2, Damping: 0.5}, DefaultParams())
	sys.ToggleLock(0)

	for i := 0; i < 100; i++ {
		if err := sys.Step(0.05); err != nil {
			t.Fatal(err)
		}
	}

	a := sys.Body(0)
	if a.Position != (r2.Vec{}) || a.Velocity != (r2.Vec{}) {
		t.Errorf("locked body moved: pos=%v vel=%v", a.Position, a.Velocity)
	}
	if sys.Body(1).Position.X >= 3 {
		t.Errorf("free body should be pulled in, x=%f", sys.Body(1).Position.X)
	}
}

func TestStep_MomentumConservedWithoutFriction(t *testing.T) {
	p := DefaultParams()
	p.Friction = 0
	sys, err := Random(12, 20, p, 7)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 50; i++ {
		if err := sys.Step(0.05); err != nil {
			t.Fatal(err)
		}
	}

	m := sys.Momentum()
	if math.Abs(m.X) > 1e-9 || math.Abs(m.Y) > 1e-9 {
		t.Errorf("internal forces should cancel, momentum = %v", m)
	}
}

func TestStep_CoincidentSpringLeavesStateUntouched(t *testing.T) {
	p := DefaultParams()
	bodies := []Body{
		NewBody(r2.Vec{X: 1, Y: 1}, 1, 5, "a"),
		NewBody(r2.Vec{X: 1, Y: 1}, 1, 5, "b"),
		NewBody(r2.Vec{X: 4, Y: 1}, 1, 5, "c"),
	}
	bodies[2].Velocity = r2.Vec{X: 1, Y: 0}
	sys, err := NewSystem(bodies, []Spring{{A: 0, B: 2, Length: 1, K: 1}, {A: 0, B: 1, Length: 1, K: 1}}, p, 1)
	if err != nil {
		t.Fatal(err)
	}
	before := sys.Snapshot()

	err = sys.Step(0.1)
	var se *SingularityError
	if !errors.As(err, &se) {
		t.Fatalf("expected SingularityError, got %v", err)
	}
	if !errors.Is(err, ErrCoincident) {
		t.Error("singularity should wrap ErrCoincident")
	}
	if se.Phase != "spring" || se.Spring != 1 {
		t.Errorf("unexpected singularity detail: %+v", se)
	}
	for i, pos := range sys.Snapshot() {
		if pos != before[i] {
			t.Errorf("body %d moved on a failed step", i)
		}
	}
	if sys.Body(2).Velocity != (r2.Vec{X: 1, Y: 0}) {
		t.Error("velocity changed on a failed step")
	}
}

func TestStep_CoincidentRepulsion(t *testing.T) {
	bodies := []Body{NewBody(r2.Vec{X: 2, Y: 2}, 1, 5, "a"), NewBody(r2.Vec{X: 2, Y: 2}, 1, 5, "b")}

	sys, _ := NewSystem(bodies, nil, DefaultParams(), 1)
	if err := sys.Step(0.1); !errors.Is(err, ErrCoincident) {
		t.Errorf("expected ErrCoincident with repulsion on, got %v", err)
	}

	sys.Params.Repulsion = 0
	if err := sys.Step(0.1); err != nil {
		t.Errorf("coincident bodies without springs or repulsion should step, got %v", err)
	}
}

func TestStep_InvalidTimestep(t *testing.T) {
	sys, _ := NewSystem([]Body{NewBody(r2.Vec{}, 1, 5, "")}, nil, DefaultParams(), 1)
	for _, dt := range []float64{0, -0.1, math.NaN(), math.Inf(1)} {
		if err := sys.Step(dt); !errors.Is(err, ErrInvalidTimestep) {
			t.Errorf("dt=%v: expected ErrInvalidTimestep, got %v", dt, err)
		}
	}
}

func TestNewSystem_Validation(t *testing.T) {
	two := func() []Body { return []Body{NewBody(r2.Vec{}, 1, 5, "a"), NewBody(r2.Vec{X: 1}, 1, 5, "b")} }

	tests := []struct {
		name    string
		bodies  []Body
		springs []Spring
		want    error
	}{
		{"zero mass", []Body{{Mass: 0}}, nil, ErrInvalidMass},
		{"out of range", two(), []Spring{{A: 0, B: 5, Length: 1, K: 1}}, ErrInvalidSpring},
		{"self loop", two(), []Spring{{A: 1, B: 1, Length: 1, K: 1}}, ErrSelfLoop},
		{"zero length", two(), []Spring{{A: 0, B: 1, Length: 0, K: 1}}, ErrInvalidSpring},
		{"zero k", two(), []Spring{{A: 0, B: 1, Length: 1, K: 0}}, ErrInvalidSpring},
		{"negative damping", two(), []Spring{{A: 0, B: 1, Length: 1, K: 1, Damping: -1}}, ErrInvalidSpring},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSystem(tt.bodies, tt.springs, DefaultParams(), 1)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestAgitate_MomentumNeutral(t *testing.T) {
	sys, err := Random(25, 30, DefaultParams(), 3)
	if err != nil {
		t.Fatal(err)
	}

	impulses := sys.Agitate()
	if len(impulses) != 25 {
		t.Fatalf("expected 25 impulses, got %d", len(impulses))
	}
	var sum r2.Vec
	for _, f := range impulses {
		sum = r2.Add(sum, f)
	}
	if math.Abs(sum.X) > 1e-12 || math.Abs(sum.Y) > 1e-12 {
		t.Errorf("impulses should sum to zero, got %v", sum)
	}
	m := sys.Momentum()
	if math.Abs(m.X) > 1e-12 || math.Abs(m.Y) > 1e-12 {
		t.Errorf("momentum after agitate = %v", m)
	}
}

func TestAgitate_LockedBodyRejects(t *testing.T) {
	sys, _ := Random(4, 4, DefaultParams(), 5)
	sys.ToggleLock(2)
	sys.Agitate()

	if sys.Body(2).Velocity != (r2.Vec{}) {
		t.Errorf("locked body accepted agitation: %v", sys.Body(2).Velocity)
	}
}

func TestBodiesAt(t *testing.T) {
	b := NewBody(r2.Vec{}, 1, 5, "origin")
	b.Radius = 0.5
	far := NewBody(r2.Vec{X: 3, Y: 3}, 1, 5, "far")
	sys, _ := NewSystem([]Body{b, far}, nil, DefaultParams(), 1)

	hits := sys.BodiesAt(r2.Vec{})
	if len(hits) != 1 || hits[0] != 0 {
		t.Errorf("BodiesAt(0,0) = %v, want [0]", hits)
	}
	if hits := sys.BodiesAt(r2.Vec{X: 0.5, Y: 0}); len(hits) != 1 {
		t.Errorf("point on the rim should hit, got %v", hits)
	}
	if hits := sys.BodiesAt(r2.Vec{X: 10, Y: 10}); len(hits) != 0 {
		t.Errorf("BodiesAt(10,10) = %v, want empty", hits)
	}
}

func TestDiagnostics(t *testing.T) {
	sys := twoBodies(t, r2.Vec{X: 0, Y: 0}, r2.Vec{X: 3, Y: 0},
		Spring{A: 0, B: 1, Length: 1, K: 2}, quietParams())
	sys.Body(0).Velocity = r2.Vec{X: 2, Y: 0}

	if got := sys.SpringEnergy(); math.Abs(got-4) > 1e-12 {
		t.Errorf("spring energy = %f, want 4", got)
	}
	if got := sys.KineticEnergy(); math.Abs(got-2) > 1e-12 {
		t.Errorf("kinetic energy = %f, want 2", got)
	}
	if c := sys.Centroid(); c != (r2.Vec{X: 1.5, Y: 0}) {
		t.Errorf("centroid = %v", c)
	}
	if !sys.Valid() {
		t.Error("finite system reported invalid")
	}
	sys.Body(1).Velocity.X = 1e200
	if sys.Valid() {
		t.Error("overflowing kinetic energy not detected")
	}
	sys.Body(1).Velocity.X = math.NaN()
	if sys.Valid() {
		t.Error("NaN velocity not detected")
	}
}
