// Package viz draws the hopper in the terminal.
//
// [Model] is a Bubble Tea program that either steps a simulator once per
// frame or replays a stored trajectory. The scene is drawn on a braille
// [Canvas] through a [Viewport] that follows the body, with the solid part
// of the environment hatched.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	.     - Single step while paused
//	R     - Reset to initial state
//	←/→   - Adjust the manual leg force
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
