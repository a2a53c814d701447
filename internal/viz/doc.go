// Package viz renders simulation runs in the terminal.
//
//   - [Canvas]: Braille-based pixel canvas, 2x4 dots per cell
//   - [Viewport]: maps world coordinates onto the canvas
//   - [PlotTrajectory]: asciigraph line chart of one agent quantity
//   - [Orbits]: x/y paths of every agent on one canvas
//   - [Summary]: lipgloss panel for a finished run
//   - [LiveModel]: Bubble Tea model stepping a scheduler one pass per tick
//
// # Key Bindings
//
//	Space - Pause/Resume
//	N     - Single pass while paused
//	F     - Refit the viewport to the current bodies
//	Q     - Quit
package viz
