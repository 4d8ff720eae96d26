// Package sequence contains the pulse-sequence state machines built on the
// epg operator library. Each supported family implements the Sequence
// interface; the generic Simulate driver owns the control loop, which is a
// straight-line pass over the RF train repeated per slice-profile position.
package sequence
