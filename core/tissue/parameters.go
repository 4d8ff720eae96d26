// core/tissue/parameters.go
package tissue

// Capability marks which optional per-voxel fields are populated. Operators
// branch on these flags instead of assuming presence.
type Capability uint8

const (
	CapB0 Capability = 1 << iota // off-resonance (Hz) is meaningful
	CapB1                        // transmit scaling is meaningful
)

// Parameters is one voxel's tissue record: relaxation times, optional
// field maps, and spatial coordinates (meters). Read-only to the
// simulation core.
//
// Physical plausibility (e.g. T2 < T1) is not validated here; a degenerate
// tuple propagates silently through its own voxel and nowhere else.
type Parameters struct {
	T1 float64 // longitudinal relaxation (s)
	T2 float64 // transverse relaxation (s)
	B0 float64 // off-resonance (Hz); valid only with CapB0
	B1 float64 // transmit field scale; valid only with CapB1

	X, Y, Z float64

	Caps Capability
}

// HasB0 reports whether the off-resonance field is populated.
func (p Parameters) HasB0() bool { return p.Caps&CapB0 != 0 }

// HasB1 reports whether the transmit-scale field is populated.
func (p Parameters) HasB1() bool { return p.Caps&CapB1 != 0 }
