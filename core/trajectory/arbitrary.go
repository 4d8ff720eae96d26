// core/trajectory/arbitrary.go
package trajectory

import (
	"fmt"
	"math"
	"math/cmplx"

	"epgsim-core/tissue"
)

// ArbitraryConfig lists explicit per-sample k-space coordinates, one slice
// per readout. Readouts may have different lengths.
type ArbitraryConfig struct {
	Dwell float64     // inter-sample spacing Δt (s)
	Kx    [][]float64 // Kx[r][j] (1/m)
	Ky    [][]float64 // Ky[r][j] (1/m); same shape as Kx
}

// Arbitrary supports variable-length readouts with per-sample k-space
// positions (radial, spiral, and friends).
type Arbitrary struct {
	cfg ArbitraryConfig
}

// NewArbitrary validates cfg and returns the trajectory.
func NewArbitrary(cfg ArbitraryConfig) (*Arbitrary, error) {
	if cfg.Dwell <= 0 {
		return nil, fmt.Errorf("arbitrary: dwell must be > 0, got %g", cfg.Dwell)
	}
	if len(cfg.Kx) == 0 {
		return nil, fmt.Errorf("arbitrary: no readouts")
	}
	if len(cfg.Ky) != len(cfg.Kx) {
		return nil, fmt.Errorf("arbitrary: %d kx readouts vs %d ky readouts", len(cfg.Kx), len(cfg.Ky))
	}
	for r := range cfg.Kx {
		if len(cfg.Kx[r]) == 0 {
			return nil, fmt.Errorf("arbitrary: readout %d is empty", r)
		}
		if len(cfg.Ky[r]) != len(cfg.Kx[r]) {
			return nil, fmt.Errorf("arbitrary: readout %d has %d kx vs %d ky samples",
				r, len(cfg.Kx[r]), len(cfg.Ky[r]))
		}
	}
	return &Arbitrary{cfg: cfg}, nil
}

func (a *Arbitrary) Readouts() int { return len(a.cfg.Kx) }
func (a *Arbitrary) SamplesPerReadout(r int) int { return len(a.cfg.Kx[r]) }

// Expand applies the analytic decay recurrence with a per-sample encoding
// phase looked up from the stored k-space coordinates.
func (a *Arbitrary) Expand(dst []complex128, r int, m complex128, p tissue.Parameters, w complex128) {
	f := complex(math.Exp(-a.cfg.Dwell/p.T2), 0)
	if p.HasB0() {
		f *= cmplx.Exp(complex(0, -2*math.Pi*p.B0*a.cfg.Dwell))
	}
	kx, ky := a.cfg.Kx[r], a.cfg.Ky[r]
	v := w * m
	for j := range kx {
		enc := cmplx.Exp(complex(0, 2*math.Pi*(kx[j]*p.X+ky[j]*p.Y)))
		dst[j] += v * enc
		v *= f
	}
}
