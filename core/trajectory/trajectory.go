// core/trajectory/trajectory.go

// Package trajectory turns echo-time magnetization into sampled readout
// waveforms. Expansion is analytic: within one readout the magnetization at
// sample offset j is the echo value times (e^{−i·2πΔB0·Δt}·e^{−Δt/T2})^j,
// so no re-run of the sequence state machine is needed.
package trajectory

import (
	"fmt"

	"epgsim-core/tissue"
)

// Trajectory is the minimal capability the signal stage needs from a
// k-space trajectory family.
type Trajectory interface {
	// Readouts is the number of readouts, one per sequence repetition.
	Readouts() int
	// SamplesPerReadout is the sample count of readout r.
	SamplesPerReadout(r int) int
	// Expand extrapolates echo-time magnetization m across readout r,
	// applies the spatial-encoding phase for the voxel at p and the coil
	// weight w, and accumulates into dst[0:SamplesPerReadout(r)].
	Expand(dst []complex128, r int, m complex128, p tissue.Parameters, w complex128)
}

// Uniform is the optional fast path for constant-length readouts.
type Uniform interface {
	UniformSamples() int
}

// TotalSamples sums the per-readout sample counts.
func TotalSamples(tr Trajectory) int {
	if u, ok := tr.(Uniform); ok {
		return tr.Readouts() * u.UniformSamples()
	}
	n := 0
	for r := 0; r < tr.Readouts(); r++ {
		n += tr.SamplesPerReadout(r)
	}
	return n
}

// ReadoutOffsets returns the flat signal offset of each readout's first
// sample.
func ReadoutOffsets(tr Trajectory) []int {
	offs := make([]int, tr.Readouts())
	n := 0
	for r := range offs {
		offs[r] = n
		n += tr.SamplesPerReadout(r)
	}
	return offs
}

// Decompose converts a flat global sample index into (readout, sample).
// Constant-length trajectories resolve in O(1); otherwise a linear scan
// over the per-readout lengths handles variable-length readouts.
func Decompose(tr Trajectory, t int) (readout, sample int, err error) {
	if t < 0 {
		return 0, 0, fmt.Errorf("trajectory: negative sample index %d", t)
	}
	if u, ok := tr.(Uniform); ok {
		n := u.UniformSamples()
		r := t / n
		if r >= tr.Readouts() {
			return 0, 0, fmt.Errorf("trajectory: sample index %d out of range", t)
		}
		return r, t % n, nil
	}
	for r := 0; r < tr.Readouts(); r++ {
		n := tr.SamplesPerReadout(r)
		if t < n {
			return r, t, nil
		}
		t -= n
	}
	return 0, 0, fmt.Errorf("trajectory: sample index out of range")
}
