package physics

import (
	"fmt"
	"math/rand"

	"github.com/san-kum/springnet/internal/graph"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	// DefaultGraphDamping is the damping of every spring built from a graph.
	DefaultGraphDamping = 0.5
	// RandomDamping is the damping of springs made by Random.
	RandomDamping = 2.0
)

// Initial placement box; random positions break symmetry and avoid coincidence.
const (
	spawnMinX, spawnMaxX = 1.0, 7.0
	spawnMinY, spawnMaxY = 1.0, 5.0
)

// WeightFunc maps an edge or vertex weight to a physical quantity.
type WeightFunc func(w float64) float64

func Identity(w float64) float64 { return w }

func Constant(c float64) WeightFunc {
	return func(float64) float64 { return c }
}

// Mapping turns graph weights into spring lengths, stiffnesses and masses.
type Mapping struct {
	SpringLength WeightFunc
	Stiffness    WeightFunc
	Mass         WeightFunc
	Damping      float64
}

func DefaultMapping() Mapping {
	return Mapping{
		SpringLength: Constant(1),
		Stiffness:    Identity,
		Mass:         Identity,
		Damping:      DefaultGraphDamping,
	}
}

func spawnPosition(rng *rand.Rand) r2.Vec {
	return r2.Vec{
		X: spawnMinX + rng.Float64()*(spawnMaxX-spawnMinX),
		Y: spawnMinY + rng.Float64()*(spawnMaxY-spawnMinY),
	}
}

// FromGraph builds one body per vertex and one spring per edge. Vertex weights,
// when present, go through m.Mass; otherwise every body has mass 1.
func FromGraph(g *graph.Graph, m Mapping, p Params, seed int64) (*System, error) {
	if m.SpringLength == nil || m.Stiffness == nil || m.Mass == nil {
		def := DefaultMapping()
		if m.SpringLength == nil {
			m.SpringLength = def.SpringLength
		}
		if m.Stiffness == nil {
			m.Stiffness = def.Stiffness
		}
		if m.Mass == nil {
			m.Mass = def.Mass
		}
	}

	if !(p.BodyDensity > 0) {
		return nil, fmt.Errorf("%w, got %v", ErrInvalidDensity, p.BodyDensity)
	}

	rng := rand.New(rand.NewSource(seed))
	bodies := make([]Body, len(g.Vertices))
	for i, v := range g.Vertices {
		mass := 1.0
		if g.Weighted() {
			w, _ := g.Weight(v)
			mass = m.Mass(w)
		}
		b := NewBody(spawnPosition(rng), mass, p.BodyDensity, v)
		b.Color = randomColor(rng)
		bodies[i] = b
	}

	springs := make([]Spring, len(g.Edges))
	for i, e := range g.Edges {
		a, okA := g.Index(e.From)
		b, okB := g.Index(e.To)
		if !okA || !okB {
			return nil, fmt.Errorf("edge %d: %w: %s-%s", i, graph.ErrUnknownVertex, e.From, e.To)
		}
		springs[i] = Spring{
			A:       BodyID(a),
			B:       BodyID(b),
			Length:  m.SpringLength(e.Weight),
			K:       m.Stiffness(e.Weight),
			Damping: m.Damping,
		}
	}

	return NewSystem(bodies, springs, p, rng.Int63())
}

// Random builds n random bodies, gives each a spring to some other body, then
// adds random distinct pairs until there are max(nBodies, nSprings) springs.
func Random(nBodies, nSprings int, p Params, seed int64) (*System, error) {
	if nBodies < 2 {
		return nil, fmt.Errorf("%w, got %d", ErrTooFewBodies, nBodies)
	}
	if !(p.BodyDensity > 0) {
		return nil, fmt.Errorf("%w, got %v", ErrInvalidDensity, p.BodyDensity)
	}
	if nSprings < nBodies {
		nSprings = nBodies
	}

	rng := rand.New(rand.NewSource(seed))
	bodies := make([]Body, nBodies)
	for i := range bodies {
		b := NewBody(spawnPosition(rng), float64(1+rng.Intn(5)), p.BodyDensity, randomLabel(rng))
		b.Color = randomColor(rng)
		bodies[i] = b
	}

	springs := make([]Spring, 0, nSprings)
	newSpring := func(a, b int) Spring {
		return Spring{A: BodyID(a), B: BodyID(b), Length: 1, K: 0.5 + rng.Float64()*4.5, Damping: RandomDamping}
	}
	for a := 0; a < nBodies; a++ {
		springs = append(springs, newSpring(a, otherThan(rng, nBodies, a)))
	}
	for len(springs) < nSprings {
		a := rng.Intn(nBodies)
		springs = append(springs, newSpring(a, otherThan(rng, nBodies, a)))
	}

	return NewSystem(bodies, springs, p, rng.Int63())
}

// otherThan draws uniformly from [0, n) excluding skip.
func otherThan(rng *rand.Rand, n, skip int) int {
	j := rng.Intn(n - 1)
	if j >= skip {
		j++
	}
	return j
}

func randomLabel(rng *rand.Rand) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, 3)
	for i := range b {
		b[i] = letters[rng.Intn(len(letters))]
	}
	return string(b)
}
