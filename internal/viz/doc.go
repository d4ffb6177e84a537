// Package viz draws springnet layouts in the terminal.
//
// A [Viewport] maps world coordinates to screen pixels, a [Canvas] is a
// braille pixel grid with per-cell colors, and [Model] is the Bubble Tea
// viewer that steps a physics.System once per frame.
//
// # Key Bindings
//
//	Space   - Pause/Resume
//	X       - Agitate
//	W/A/S/D - Pan
//	+/-     - Zoom
//	F       - Fit layout to screen
//	Tab     - Select repulsion or friction
//	Up/Down - Scale selected coefficient by 1.1
//	P/R     - Play/rewind animation
//	G       - Toggle GIF recording
//	E       - Export layout
//	T       - Cycle color themes
//	?       - Show help overlay
//
// Left drag moves a body, right click locks it, the wheel zooms.
package viz
