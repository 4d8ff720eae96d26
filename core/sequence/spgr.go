// core/sequence/spgr.go
package sequence

import (
	"fmt"

	"epgsim-core/epg"
	"epgsim-core/tissue"
)

// SPGRConfig holds the timing and RF train of an idealized RF-spoiled
// gradient-echo sequence.
type SPGRConfig struct {
	RF       []complex128 // per-repetition RF: |rf| in degrees, angle(rf) the pulse phase
	TR       float64      // repetition time (s)
	TE       float64      // echo time (s), 0 <= TE <= TR
	TI       float64      // inversion delay (s); <= 0 disables the prepulse
	MaxOrder int          // configuration orders to carry (>= 1, explicit)

	// InversionB1Sensitive selects the B1-scaled inversion prepulse
	// instead of the ideal adiabatic one.
	InversionB1Sensitive bool
}

// SPGR is a spoiled gradient-echo sequence with a perfect spoiler at the
// end of every repetition. Non-selective: one profile position, one
// partition.
type SPGR struct {
	cfg SPGRConfig
}

// NewSPGR validates cfg and returns the sequence.
func NewSPGR(cfg SPGRConfig) (*SPGR, error) {
	if len(cfg.RF) == 0 {
		return nil, fmt.Errorf("spgr: empty RF train")
	}
	if cfg.TR <= 0 {
		return nil, fmt.Errorf("spgr: TR must be > 0, got %g", cfg.TR)
	}
	if cfg.TE < 0 || cfg.TE > cfg.TR {
		return nil, fmt.Errorf("spgr: TE %g outside [0, TR=%g]", cfg.TE, cfg.TR)
	}
	if cfg.MaxOrder < 1 {
		return nil, fmt.Errorf("spgr: MaxOrder must be >= 1, got %d", cfg.MaxOrder)
	}
	return &SPGR{cfg: cfg}, nil
}

func (s *SPGR) SampleCount() int { return len(s.cfg.RF) }
func (s *SPGR) Shape() (int, int) { return s.cfg.MaxOrder, 1 }
func (s *SPGR) Repetitions() int { return len(s.cfg.RF) }
func (s *SPGR) ProfilePositions() int { return 1 }

func (s *SPGR) Prepare(st *epg.State, _ int, p tissue.Parameters) {
	prepInversion(st, s.cfg.TI, s.cfg.InversionB1Sensitive, p)
}

func (s *SPGR) AdvanceToEcho(st *epg.State, r, _ int, p tissue.Parameters) {
	st.Excite(s.cfg.RF[r], p)
	if s.cfg.TE > 0 {
		e1, e2 := relax(p, s.cfg.TE)
		st.RotateDecay(e1, e2, epg.OffResonance(p, s.cfg.TE))
	}
}

func (s *SPGR) Sample(out []complex128, r int, st *epg.State) {
	st.SampleTransverse(out, r)
}

func (s *SPGR) AdvanceToNextExcitation(st *epg.State, r, _ int, p tissue.Parameters) {
	dt := s.cfg.TR - s.cfg.TE
	e1, e2 := relax(p, dt)
	st.RotateDecay(e1, e2, epg.OffResonance(p, dt))
	st.Regrowth(e1)
	st.Spoil()
}
