// core/epg/operators.go
package epg

import (
	"math"
	"math/cmplx"

	"epgsim-core/tissue"
)

/* ------------------------------ excitation ------------------------------ */

// Excite applies an RF pulse to every (order, partition) state vector
// [F+, F̄₋, Z]. The flip angle is |rf| in degrees, scaled by the voxel's B1
// when that capability is present; the pulse phase is angle(rf).
//
// A zero-phase pulse (real, non-negative rf) takes a fast path whose matrix
// coefficients are all real, applied componentwise without complex
// multiplications.
func (s *State) Excite(rf complex128, p tissue.Parameters) {
	alpha := cmplx.Abs(rf) * math.Pi / 180
	if p.HasB1() {
		alpha *= p.B1
	}
	sa, ca := math.Sincos(alpha)
	sh, ch := math.Sincos(alpha / 2)
	c2 := ch * ch // cos²(α/2)
	s2 := sh * sh // sin²(α/2)

	if imag(rf) == 0 && real(rf) >= 0 {
		s.exciteZeroPhase(c2, s2, sa, ca)
		return
	}

	ei := cmplx.Exp(complex(0, cmplx.Phase(rf))) // e^{iφ}
	e2 := ei * ei
	i := complex(0, 1)
	sac := complex(sa, 0)
	var t [3][3]complex128
	t[0][0] = complex(c2, 0)
	t[0][1] = e2 * complex(s2, 0)
	t[0][2] = -i * ei * sac
	t[1][0] = cmplx.Conj(e2) * complex(s2, 0)
	t[1][1] = complex(c2, 0)
	t[1][2] = i * cmplx.Conj(ei) * sac
	t[2][0] = -i * cmplx.Conj(ei) * sac / 2
	t[2][1] = i * ei * sac / 2
	t[2][2] = complex(ca, 0)
	s.exciteGeneral(t)
}

func (s *State) exciteZeroPhase(c2, s2, sa, ca float64) {
	n := s.orders * s.partitions
	fp := s.data[:n]
	fm := s.data[n : 2*n]
	z := s.data[2*n : 3*n]
	for i := 0; i < n; i++ {
		pr, pi := real(fp[i]), imag(fp[i])
		mr, mi := real(fm[i]), imag(fm[i])
		zr, zi := real(z[i]), imag(z[i])
		// -i·sinα acting on Z: (zr+i·zi) ↦ sinα·(zi−i·zr), and so on.
		fp[i] = complex(c2*pr+s2*mr+sa*zi, c2*pi+s2*mi-sa*zr)
		fm[i] = complex(s2*pr+c2*mr-sa*zi, s2*pi+c2*mi+sa*zr)
		z[i] = complex(0.5*sa*(pi-mi)+ca*zr, 0.5*sa*(mr-pr)+ca*zi)
	}
}

func (s *State) exciteGeneral(t [3][3]complex128) {
	n := s.orders * s.partitions
	fp := s.data[:n]
	fm := s.data[n : 2*n]
	z := s.data[2*n : 3*n]
	for i := 0; i < n; i++ {
		p, m, l := fp[i], fm[i], z[i]
		fp[i] = t[0][0]*p + t[0][1]*m + t[0][2]*l
		fm[i] = t[1][0]*p + t[1][1]*m + t[1][2]*l
		z[i] = t[2][0]*p + t[2][1]*m + t[2][2]*l
	}
}

/* ------------------------- relaxation & rotation ------------------------ */

// OffResonance returns the precession phasor e^{iθ}, θ = 2π·ΔB0·Δt, for the
// voxel's off-resonance over an interval of dt seconds. Without the B0
// capability it returns 1 (no precession term).
func OffResonance(p tissue.Parameters, dt float64) complex128 {
	if !p.HasB0() {
		return 1
	}
	return cmplx.Exp(complex(0, 2*math.Pi*p.B0*dt))
}

// Rotate multiplies F+ by e and F̄₋ by conj(e): off-resonance precession.
func (s *State) Rotate(e complex128) {
	n := s.orders * s.partitions
	fp := s.data[:n]
	fm := s.data[n : 2*n]
	ec := cmplx.Conj(e)
	for i := 0; i < n; i++ {
		fp[i] *= e
		fm[i] *= ec
	}
}

// Decay applies relaxation over one interval: transverse rows scale by
// e2 = exp(−Δt/T2), the longitudinal row by e1 = exp(−Δt/T1).
func (s *State) Decay(e1, e2 float64) {
	s.RotateDecay(e1, e2, 1)
}

// RotateDecay is the fused relaxation + precession step: F+ *= e2·e,
// F̄₋ *= e2·conj(e), Z *= e1, in a single pass.
func (s *State) RotateDecay(e1, e2 float64, e complex128) {
	n := s.orders * s.partitions
	fp := s.data[:n]
	fm := s.data[n : 2*n]
	z := s.data[2*n : 3*n]
	a := complex(e2, 0) * e
	ac := complex(e2, 0) * cmplx.Conj(e)
	e1c := complex(e1, 0)
	for i := 0; i < n; i++ {
		fp[i] *= a
		fm[i] *= ac
		z[i] *= e1c
	}
}

// Regrowth adds the T1 recovery term (1 − e1) to Z at order 0 in every
// partition. Higher orders see no net recovery.
func (s *State) Regrowth(e1 float64) {
	base := s.idx(rowZ, 0, 0)
	g := complex(1-e1, 0)
	for p := 0; p < s.partitions; p++ {
		s.data[base+p] += g
	}
}

/* ------------------------------- dephasing ------------------------------ */

// Dephase shifts configuration orders by one gradient unit, per partition:
// F̄₋ moves one order down (the top order is zeroed), F+ moves one order up
// (the departing top order is truncated), and F+[0] becomes the conjugate
// of the freshly shifted F̄₋[0], the single physical transverse state at
// order zero stored as two halves.
func (s *State) Dephase() {
	n := s.orders * s.partitions
	np := s.partitions
	fp := s.data[:n]
	fm := s.data[n : 2*n]

	copy(fm, fm[np:])
	for i := n - np; i < n; i++ {
		fm[i] = 0
	}

	copy(fp[np:], fp[:n-np])
	for p := 0; p < np; p++ {
		fp[p] = cmplx.Conj(fm[p])
	}
}

/* -------------------------- inversion & spoiling ------------------------ */

// Invert flips the longitudinal magnetization: Z *= −1. Models an ideal,
// B1-insensitive adiabatic inversion pulse.
func (s *State) Invert() {
	n := s.orders * s.partitions
	z := s.data[2*n : 3*n]
	for i := range z {
		z[i] = -z[i]
	}
}

// PartialInvert scales Z by cos(π·B1) (cos(π) without the B1 capability):
// a B1-sensitive inversion pulse. It assumes the transverse state is fully
// spoiled at invocation; the result on unspoiled transverse state is
// undefined and left to the caller to avoid.
func (s *State) PartialInvert(p tissue.Parameters) {
	theta := math.Pi
	if p.HasB1() {
		theta *= p.B1
	}
	c := complex(math.Cos(theta), 0)
	n := s.orders * s.partitions
	z := s.data[2*n : 3*n]
	for i := range z {
		z[i] *= c
	}
}

// Spoil zeroes both transverse rows across all orders and partitions,
// leaving Z untouched: a perfect spoiler gradient.
func (s *State) Spoil() {
	n := s.orders * s.partitions
	for i := 0; i < 2*n; i++ {
		s.data[i] = 0
	}
}

/* -------------------------------- sampling ------------------------------ */

// SampleTransverse accumulates F+[order 0, partition 0] into out[idx].
// Accumulation (not overwrite) is what lets slice-profile sub-voxels sum
// into one shared buffer.
func (s *State) SampleTransverse(out []complex128, idx int) {
	out[idx] += s.data[s.idx(rowFPlus, 0, 0)]
}

// SampleTransverseFlow accumulates the partition mean of F+[order 0] into
// out[idx].
func (s *State) SampleTransverseFlow(out []complex128, idx int) {
	var sum complex128
	base := s.idx(rowFPlus, 0, 0)
	for p := 0; p < s.partitions; p++ {
		sum += s.data[base+p]
	}
	out[idx] += sum / complex(float64(s.partitions), 0)
}

// SampleState accumulates the entire Ω into out starting at
// idx*Size(orders, partitions). Diagnostic use.
func (s *State) SampleState(out []complex128, idx int) {
	off := idx * len(s.data)
	for i, v := range s.data {
		out[off+i] += v
	}
}

/* ------------------------------- transport ------------------------------ */

// Transport models through-slice blood flow over one repetition: every
// partition's state moves one compartment toward higher index (the oldest
// partition has left the slice and is discarded), and the vacated
// partition 0 is refilled with fresh inflowing blood: zero transverse,
// Z[order 0] = min(z, 1).
func (s *State) Transport(z float64) {
	np := s.partitions
	if np == 1 {
		// Single compartment: complete replacement by inflow.
		for i := range s.data {
			s.data[i] = 0
		}
	} else {
		for row := 0; row < 3; row++ {
			for k := 0; k < s.orders; k++ {
				seg := s.data[s.idx(row, k, 0) : s.idx(row, k, 0)+np]
				copy(seg[1:], seg[:np-1])
				seg[0] = 0
			}
		}
	}
	s.data[s.idx(rowZ, 0, 0)] = complex(math.Min(z, 1), 0)
}
