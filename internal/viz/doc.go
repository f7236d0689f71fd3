// Package viz renders a running propagation in the terminal.
//
// The live view is a Bubble Tea model drawing the propagated body's
// trajectory on a Braille pixel canvas, with the central body at the
// origin.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Reset to the initial state
//	Q     - Quit
package viz
