// core/sequence/sequence.go
package sequence

import (
	"fmt"
	"math"

	"epgsim-core/epg"
	"epgsim-core/tissue"
)

// Sequence is the per-voxel control contract a pulse-sequence family
// implements on top of the epg operators. Simulate drives it; nothing else
// calls these methods out of order.
type Sequence interface {
	// SampleCount is the declared output length (one echo per repetition
	// for every family here).
	SampleCount() int
	// Shape is the state tensor shape this family needs.
	Shape() (orders, partitions int)
	// Repetitions is the RF train length.
	Repetitions() int
	// ProfilePositions is the number of slice-profile sub-voxels (1 for
	// 3D / non-selective variants).
	ProfilePositions() int

	// Prepare applies the optional global preparation (e.g. an
	// inversion-recovery prepulse) to a freshly reset state.
	Prepare(st *epg.State, pos int, p tissue.Parameters)
	// AdvanceToEcho excites repetition r and evolves the state to its
	// echo time.
	AdvanceToEcho(st *epg.State, r, pos int, p tissue.Parameters)
	// Sample accumulates the echo-time magnetization into out[r].
	Sample(out []complex128, r int, st *epg.State)
	// AdvanceToNextExcitation evolves the state from the echo to the next
	// excitation (relaxation, regrowth, dephasing/spoiling, transport).
	AdvanceToNextExcitation(st *epg.State, r, pos int, p tissue.Parameters)
}

// Validate checks the construction-time contract of a sequence. A failure
// here is a programming error in the sequence variant, caught before any
// voxel runs.
func Validate(seq Sequence) error {
	orders, partitions := seq.Shape()
	if orders < 1 || partitions < 1 {
		return fmt.Errorf("sequence: invalid state shape (%d,%d)", orders, partitions)
	}
	if seq.Repetitions() < 1 {
		return fmt.Errorf("sequence: empty RF train")
	}
	if seq.SampleCount() != seq.Repetitions() {
		return fmt.Errorf("sequence: sample count %d != repetitions %d",
			seq.SampleCount(), seq.Repetitions())
	}
	if seq.ProfilePositions() < 1 {
		return fmt.Errorf("sequence: profile positions must be >= 1, got %d",
			seq.ProfilePositions())
	}
	return nil
}

// NewStateFor allocates an owned state of the sequence's shape.
func NewStateFor(seq Sequence) (*epg.State, error) {
	orders, partitions := seq.Shape()
	return epg.NewState(orders, partitions)
}

// Simulate runs one voxel to completion. out must hold SampleCount()
// entries; samples are accumulated, so slice-profile positions integrate
// directly into the shared buffer. The state is reset per position and is
// left in its end-of-train condition on return.
func Simulate(seq Sequence, st *epg.State, out []complex128, p tissue.Parameters) {
	for pos := 0; pos < seq.ProfilePositions(); pos++ {
		st.Reset()
		seq.Prepare(st, pos, p)
		for r := 0; r < seq.Repetitions(); r++ {
			seq.AdvanceToEcho(st, r, pos, p)
			seq.Sample(out, r, st)
			seq.AdvanceToNextExcitation(st, r, pos, p)
		}
	}
}

// Run validates seq, allocates a private state and output buffer, and
// simulates one voxel.
func Run(seq Sequence, p tissue.Parameters) ([]complex128, error) {
	if err := Validate(seq); err != nil {
		return nil, err
	}
	st, err := NewStateFor(seq)
	if err != nil {
		return nil, err
	}
	out := make([]complex128, seq.SampleCount())
	Simulate(seq, st, out, p)
	return out, nil
}

// relax returns the interval relaxation factors E1 = exp(−dt/T1),
// E2 = exp(−dt/T2). dt = 0 yields the identity pair.
func relax(p tissue.Parameters, dt float64) (e1, e2 float64) {
	return math.Exp(-dt / p.T1), math.Exp(-dt / p.T2)
}

// prepInversion is the shared inversion-recovery prepulse: invert, relax
// over ti, regrow. The transverse state is zero at this point (fresh
// reset), so the B1-sensitive pulse's spoiled-state precondition holds.
func prepInversion(st *epg.State, ti float64, b1Sensitive bool, p tissue.Parameters) {
	if ti <= 0 {
		return
	}
	if b1Sensitive {
		st.PartialInvert(p)
	} else {
		st.Invert()
	}
	e1, e2 := relax(p, ti)
	st.Decay(e1, e2)
	st.Regrowth(e1)
}
