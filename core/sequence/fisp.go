// core/sequence/fisp.go
package sequence

import (
	"fmt"

	"epgsim-core/epg"
	"epgsim-core/tissue"
)

// FISPConfig holds the timing, RF train, and slice profile of a
// gradient-spoiled (FISP-type) sequence.
type FISPConfig struct {
	RF       []complex128 // per-repetition RF: |rf| in degrees, angle(rf) the pulse phase
	TR       float64      // repetition time (s)
	TE       float64      // echo time (s), 0 <= TE <= TR
	TI       float64      // inversion delay (s); <= 0 disables the prepulse
	MaxOrder int          // configuration orders to carry (>= 1, explicit)

	// SliceProfile lists per-position RF scaling factors for 2D slice
	// integration. Empty means non-selective (a single unit position).
	SliceProfile []float64

	// InversionB1Sensitive selects the B1-scaled inversion prepulse
	// instead of the ideal adiabatic one.
	InversionB1Sensitive bool
}

// FISP is a gradient-spoiled sequence: each repetition ends in a unit
// gradient dephasing step instead of a perfect spoiler, so transverse
// configuration orders build up and refocus into echoes.
type FISP struct {
	cfg     FISPConfig
	profile []float64
}

// NewFISP validates cfg and returns the sequence.
func NewFISP(cfg FISPConfig) (*FISP, error) {
	if len(cfg.RF) == 0 {
		return nil, fmt.Errorf("fisp: empty RF train")
	}
	if cfg.TR <= 0 {
		return nil, fmt.Errorf("fisp: TR must be > 0, got %g", cfg.TR)
	}
	if cfg.TE < 0 || cfg.TE > cfg.TR {
		return nil, fmt.Errorf("fisp: TE %g outside [0, TR=%g]", cfg.TE, cfg.TR)
	}
	if cfg.MaxOrder < 1 {
		return nil, fmt.Errorf("fisp: MaxOrder must be >= 1, got %d", cfg.MaxOrder)
	}
	profile := cfg.SliceProfile
	if len(profile) == 0 {
		profile = []float64{1}
	}
	return &FISP{cfg: cfg, profile: profile}, nil
}

func (f *FISP) SampleCount() int { return len(f.cfg.RF) }
func (f *FISP) Shape() (int, int) { return f.cfg.MaxOrder, 1 }
func (f *FISP) Repetitions() int { return len(f.cfg.RF) }
func (f *FISP) ProfilePositions() int { return len(f.profile) }

func (f *FISP) Prepare(st *epg.State, _ int, p tissue.Parameters) {
	prepInversion(st, f.cfg.TI, f.cfg.InversionB1Sensitive, p)
}

func (f *FISP) AdvanceToEcho(st *epg.State, r, pos int, p tissue.Parameters) {
	st.Excite(f.cfg.RF[r]*complex(f.profile[pos], 0), p)
	if f.cfg.TE > 0 {
		e1, e2 := relax(p, f.cfg.TE)
		st.RotateDecay(e1, e2, epg.OffResonance(p, f.cfg.TE))
	}
}

func (f *FISP) Sample(out []complex128, r int, st *epg.State) {
	st.SampleTransverse(out, r)
}

func (f *FISP) AdvanceToNextExcitation(st *epg.State, r, _ int, p tissue.Parameters) {
	dt := f.cfg.TR - f.cfg.TE
	e1, e2 := relax(p, dt)
	st.RotateDecay(e1, e2, epg.OffResonance(p, dt))
	st.Regrowth(e1)
	st.Dephase()
}
