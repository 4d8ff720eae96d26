// core/trajectory/cartesian.go
package trajectory

import (
	"fmt"
	"math"
	"math/cmplx"

	"epgsim-core/tissue"
)

// CartesianConfig describes a Cartesian acquisition: constant-length
// readouts along kx, one phase-encode line per readout.
type CartesianConfig struct {
	Readouts int
	Samples  int       // per readout
	Dwell    float64   // inter-sample spacing Δt (s)
	Kx0      float64   // kx of the first sample (1/m)
	DeltaKx  float64   // kx step per sample (1/m)
	Ky       []float64 // per-readout phase encode (1/m); nil means all zero
}

// Cartesian is the constant-length trajectory; it satisfies Uniform for
// O(1) index decomposition.
type Cartesian struct {
	cfg CartesianConfig
}

// NewCartesian validates cfg and returns the trajectory.
func NewCartesian(cfg CartesianConfig) (*Cartesian, error) {
	if cfg.Readouts < 1 {
		return nil, fmt.Errorf("cartesian: readouts must be >= 1, got %d", cfg.Readouts)
	}
	if cfg.Samples < 1 {
		return nil, fmt.Errorf("cartesian: samples must be >= 1, got %d", cfg.Samples)
	}
	if cfg.Dwell <= 0 {
		return nil, fmt.Errorf("cartesian: dwell must be > 0, got %g", cfg.Dwell)
	}
	if cfg.Ky != nil && len(cfg.Ky) != cfg.Readouts {
		return nil, fmt.Errorf("cartesian: %d phase encodes for %d readouts", len(cfg.Ky), cfg.Readouts)
	}
	return &Cartesian{cfg: cfg}, nil
}

func (c *Cartesian) Readouts() int { return c.cfg.Readouts }
func (c *Cartesian) SamplesPerReadout(int) int { return c.cfg.Samples }
func (c *Cartesian) UniformSamples() int { return c.cfg.Samples }

func (c *Cartesian) ky(r int) float64 {
	if c.cfg.Ky == nil {
		return 0
	}
	return c.cfg.Ky[r]
}

// Expand walks readout r as a single geometric recurrence: both the
// per-sample decay/off-resonance factor and the per-sample kx encoding
// step are constant, so each sample is one complex multiply.
func (c *Cartesian) Expand(dst []complex128, r int, m complex128, p tissue.Parameters, w complex128) {
	f := complex(math.Exp(-c.cfg.Dwell/p.T2), 0)
	if p.HasB0() {
		f *= cmplx.Exp(complex(0, -2*math.Pi*p.B0*c.cfg.Dwell))
	}
	step := cmplx.Exp(complex(0, 2*math.Pi*c.cfg.DeltaKx*p.X))
	enc := cmplx.Exp(complex(0, 2*math.Pi*(c.cfg.Kx0*p.X+c.ky(r)*p.Y)))

	v := w * m * enc
	g := f * step
	for j := 0; j < c.cfg.Samples; j++ {
		dst[j] += v
		v *= g
	}
}
