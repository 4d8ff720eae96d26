// core/sequence/flow.go
package sequence

import (
	"fmt"
	"math"

	"epgsim-core/epg"
	"epgsim-core/tissue"
)

// FlowFISPConfig extends the FISP timing with through-slice blood
// transport. The partition count is derived here, at construction, from
// the slice geometry rather than defaulted.
type FlowFISPConfig struct {
	RF       []complex128
	TR       float64      // repetition time (s)
	TE       float64      // echo time (s)
	MaxOrder int
	SliceThickness float64 // (m)
	Velocity       float64 // through-slice blood velocity (m/s)
	InflowZ        float64 // longitudinal level of inflowing blood; clamped to <= 1

	// FullCompensation replaces per-repetition transport with a full
	// transverse-zeroing step (the fully flow-compensated variant).
	FullCompensation bool
}

// FlowFISP is the flow-sensitive FISP variant: the slice is split into
// partitions that blood traverses at one compartment per repetition.
type FlowFISP struct {
	cfg        FlowFISPConfig
	partitions int
}

// partitionCount derives how many compartments blood occupies while
// crossing the slice: thickness / (distance travelled per TR), rounded up.
func partitionCount(thickness, velocity, tr float64) int {
	if thickness <= 0 || velocity <= 0 || tr <= 0 {
		return 0
	}
	return int(math.Ceil(thickness / (velocity * tr)))
}

// NewFlowFISP validates cfg, derives the partition count, and returns the
// sequence.
func NewFlowFISP(cfg FlowFISPConfig) (*FlowFISP, error) {
	if len(cfg.RF) == 0 {
		return nil, fmt.Errorf("flowfisp: empty RF train")
	}
	if cfg.TR <= 0 {
		return nil, fmt.Errorf("flowfisp: TR must be > 0, got %g", cfg.TR)
	}
	if cfg.TE < 0 || cfg.TE > cfg.TR {
		return nil, fmt.Errorf("flowfisp: TE %g outside [0, TR=%g]", cfg.TE, cfg.TR)
	}
	if cfg.MaxOrder < 1 {
		return nil, fmt.Errorf("flowfisp: MaxOrder must be >= 1, got %d", cfg.MaxOrder)
	}
	np := partitionCount(cfg.SliceThickness, cfg.Velocity, cfg.TR)
	if np < 1 {
		return nil, fmt.Errorf("flowfisp: slice thickness %g m, velocity %g m/s, TR %g s derive %d partitions",
			cfg.SliceThickness, cfg.Velocity, cfg.TR, np)
	}
	return &FlowFISP{cfg: cfg, partitions: np}, nil
}

func (f *FlowFISP) SampleCount() int { return len(f.cfg.RF) }
func (f *FlowFISP) Shape() (int, int) { return f.cfg.MaxOrder, f.partitions }
func (f *FlowFISP) Repetitions() int { return len(f.cfg.RF) }
func (f *FlowFISP) ProfilePositions() int { return 1 }

func (f *FlowFISP) Prepare(*epg.State, int, tissue.Parameters) {}

func (f *FlowFISP) AdvanceToEcho(st *epg.State, r, _ int, p tissue.Parameters) {
	st.Excite(f.cfg.RF[r], p)
	if f.cfg.TE > 0 {
		e1, e2 := relax(p, f.cfg.TE)
		st.RotateDecay(e1, e2, epg.OffResonance(p, f.cfg.TE))
	}
}

func (f *FlowFISP) Sample(out []complex128, r int, st *epg.State) {
	st.SampleTransverseFlow(out, r)
}

func (f *FlowFISP) AdvanceToNextExcitation(st *epg.State, r, _ int, p tissue.Parameters) {
	dt := f.cfg.TR - f.cfg.TE
	e1, e2 := relax(p, dt)
	st.RotateDecay(e1, e2, epg.OffResonance(p, dt))
	st.Regrowth(e1)
	st.Dephase()
	if f.cfg.FullCompensation {
		st.Spoil()
	} else {
		st.Transport(f.cfg.InflowZ)
	}
}
