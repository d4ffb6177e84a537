// Package analysis characterizes how a layout settles.
//
//   - [PowerSpectrum] and [DominantPeriod]: oscillation in a sampled series
//   - [DecayRate]: exponential relaxation rate of kinetic energy
//   - [SettleTime]: first frame after which kinetic energy stays low
//   - [Divergence]: sensitivity of a layout to its starting placement
//
// # Sensitivity
//
// A positive divergence exponent means two almost identical placements end
// in different layouts:
//
//	lambda, _ := analysis.Divergence(build, 1e-6, 0.05, 2000)
//	if lambda > 0 {
//	    // the final layout depends on the seed
//	}
package analysis
