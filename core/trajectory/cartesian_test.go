// core/trajectory/cartesian_test.go
package trajectory

import (
	"math"
	"math/cmplx"
	"testing"

	"epgsim-core/tissue"
)

func TestCartesianExpandClosedForm(t *testing.T) {
	c := mustCartesian(t, CartesianConfig{
		Readouts: 2, Samples: 5, Dwell: 2e-5,
		Kx0: -100, DeltaKx: 50, Ky: []float64{0, 200},
	})
	p := tissue.Parameters{
		T1: 1, T2: 0.08, B0: 30, Caps: tissue.CapB0,
		X: 0.003, Y: -0.002,
	}
	m := complex(0.2, -0.7)
	w := complex(0.9, 0.1)

	const r = 1
	dst := make([]complex128, 5)
	c.Expand(dst, r, m, p, w)

	for j := 0; j < 5; j++ {
		decay := cmplx.Pow(
			complex(math.Exp(-c.cfg.Dwell/p.T2), 0)*
				cmplx.Exp(complex(0, -2*math.Pi*p.B0*c.cfg.Dwell)),
			complex(float64(j), 0))
		kx := c.cfg.Kx0 + float64(j)*c.cfg.DeltaKx
		enc := cmplx.Exp(complex(0, 2*math.Pi*(kx*p.X+c.cfg.Ky[r]*p.Y)))
		want := w * m * decay * enc
		if cmplx.Abs(dst[j]-want) > 1e-12 {
			t.Fatalf("sample %d: got %v, want %v", j, dst[j], want)
		}
	}
}

func TestCartesianExpandAccumulates(t *testing.T) {
	c := mustCartesian(t, CartesianConfig{Readouts: 1, Samples: 3, Dwell: 1e-5})
	p := tissue.Parameters{T1: 1, T2: 0.1}

	dst := make([]complex128, 3)
	c.Expand(dst, 0, 1, p, 1)
	once := append([]complex128(nil), dst...)
	c.Expand(dst, 0, 1, p, 1)
	for j := range dst {
		if dst[j] != 2*once[j] {
			t.Fatalf("sample %d did not accumulate: %v vs %v", j, dst[j], once[j])
		}
	}
}

func TestExpandWithoutB0SkipsPrecession(t *testing.T) {
	c := mustCartesian(t, CartesianConfig{Readouts: 1, Samples: 4, Dwell: 1e-5})
	p := tissue.Parameters{T1: 1, T2: 0.1} // no CapB0

	dst := make([]complex128, 4)
	c.Expand(dst, 0, 1, p, 1)
	e2 := math.Exp(-c.cfg.Dwell / p.T2)
	for j := range dst {
		want := complex(math.Pow(e2, float64(j)), 0)
		if cmplx.Abs(dst[j]-want) > 1e-12 {
			t.Fatalf("sample %d: got %v, want pure decay %v", j, dst[j], want)
		}
	}
}

func TestArbitraryExpandMatchesCartesian(t *testing.T) {
	const samples = 6
	cart := mustCartesian(t, CartesianConfig{
		Readouts: 1, Samples: samples, Dwell: 1e-5,
		Kx0: -20, DeltaKx: 8, Ky: []float64{120},
	})
	kx := make([]float64, samples)
	ky := make([]float64, samples)
	for j := range kx {
		kx[j] = -20 + 8*float64(j)
		ky[j] = 120
	}
	arb, err := NewArbitrary(ArbitraryConfig{
		Dwell: 1e-5, Kx: [][]float64{kx}, Ky: [][]float64{ky},
	})
	if err != nil {
		t.Fatalf("NewArbitrary: %v", err)
	}

	p := tissue.Parameters{T1: 1, T2: 0.05, B0: -15, Caps: tissue.CapB0, X: 0.004, Y: 0.001}
	m := complex(-0.3, 0.6)

	a := make([]complex128, samples)
	b := make([]complex128, samples)
	cart.Expand(a, 0, m, p, 1)
	arb.Expand(b, 0, m, p, 1)
	for j := range a {
		if cmplx.Abs(a[j]-b[j]) > 1e-12 {
			t.Fatalf("sample %d: cartesian %v vs arbitrary %v", j, a[j], b[j])
		}
	}
}
