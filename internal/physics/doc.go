// Package physics implements the mass-spring network behind springnet layouts.
//
// Vertices become charged point masses ([Body]), edges become damped springs
// ([Spring]), and a [System] steps them forward with an explicit Euler update:
//
//   - springs apply Hookean force plus axial damping to both endpoints
//   - every unordered body pair repels with an inverse-distance law scaled by charge
//   - every body feels velocity-proportional friction, then moves
//   - optional animation tracks recolor bodies from keyframed values
//
// The phase order is fixed and matters for the numerics; do not reorder it.
//
// # Example
//
//	g := graph.Complete(6)
//	m := physics.DefaultMapping()
//	m.SpringLength = physics.Constant(2)
//	sys, _ := physics.FromGraph(g, m, physics.DefaultParams(), 42)
//	for i := 0; i < 1000; i++ {
//	    if err := sys.Step(0.05); err != nil {
//	        break
//	    }
//	}
//
// # Thread Safety
//
// A System is NOT thread-safe. Step, Agitate and the body mutators must be
// called from one goroutine. Run independent Systems in parallel instead.
package physics
